package postgres

import (
	"context"

	"github.com/samber/oops"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
)

type subscriptionsRepo struct {
	q querier
}

func (r *subscriptionsRepo) SubscriptionExists(ctx context.Context, userID, topicID string) (bool, error) {
	var found bool
	err := r.q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = $1 AND topic_id = $2)`,
		userID, topicID,
	).Scan(&found)
	if err != nil {
		return false, oops.Code("SUBSCRIPTION_EXISTS_FAILED").
			With("user_id", userID).
			With("topic_id", topicID).
			Wrap(err)
	}
	return found, nil
}

func (r *subscriptionsRepo) CreateSubscription(ctx context.Context, s domain.Subscription) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO subscriptions (user_id, topic_id, created_at) VALUES ($1, $2, $3)`,
		s.UserID, s.TopicID, s.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *subscriptionsRepo) DeleteSubscription(ctx context.Context, userID, topicID string) error {
	tag, err := r.q.Exec(ctx,
		`DELETE FROM subscriptions WHERE user_id = $1 AND topic_id = $2`,
		userID, topicID,
	)
	if err != nil {
		return oops.Code("SUBSCRIPTION_DELETE_FAILED").Wrap(err)
	}
	return requireAffected(tag)
}
