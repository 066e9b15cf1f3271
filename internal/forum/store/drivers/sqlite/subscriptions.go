package sqlite

import (
	"context"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
)

type subscriptionsRepo struct {
	db dbtx
}

func (r *subscriptionsRepo) SubscriptionExists(ctx context.Context, userID, topicID string) (bool, error) {
	var found bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscriptions WHERE user_id = ? AND topic_id = ?)`,
		userID, topicID,
	).Scan(&found)
	return found, err
}

func (r *subscriptionsRepo) CreateSubscription(ctx context.Context, s domain.Subscription) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, topic_id, created_at) VALUES (?, ?, ?)`,
		s.UserID, s.TopicID, formatTime(s.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *subscriptionsRepo) DeleteSubscription(ctx context.Context, userID, topicID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE user_id = ? AND topic_id = ?`,
		userID, topicID,
	)
	if err != nil {
		return err
	}
	return requireAffected(res)
}
