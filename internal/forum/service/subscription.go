package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/observability"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/pkg/idx"
	"github.com/aussiebroadwan/forum/pkg/slogx"
)

// SubscriptionService manages the user/topic subscription graph. Each
// mutation is a single edge row written in one transaction, and the summary
// it returns is read back inside that transaction after the write.
type SubscriptionService struct {
	Store   store.Store
	Metrics *observability.Metrics

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// Subscribe links the principal's user to topicID.
func (s *SubscriptionService) Subscribe(ctx context.Context, principal Principal, topicID string) (domain.TopicSummary, error) {
	var summary domain.TopicSummary
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := resolvePrincipal(ctx, tx.Users(), principal)
		if err != nil {
			return err
		}
		if err := requireTopic(ctx, tx.Topics(), topicID); err != nil {
			return err
		}

		exists, err := tx.Subscriptions().SubscriptionExists(ctx, u.ID, topicID)
		if err != nil {
			return internal(err, "check subscription")
		}
		if exists {
			return fail(ErrAlreadySubscribed, "already subscribed to this topic", "topic_id", topicID)
		}

		err = tx.Subscriptions().CreateSubscription(ctx, domain.Subscription{
			UserID:    u.ID,
			TopicID:   topicID,
			CreatedAt: s.now().UTC(),
		})
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return fail(ErrAlreadySubscribed, "already subscribed to this topic", "topic_id", topicID)
		case errors.Is(err, store.ErrNotFound):
			return fail(ErrTopicNotFound, "topic not found", "topic_id", topicID)
		case err != nil:
			return internal(err, "create subscription")
		}

		summary, err = readSummary(ctx, tx.Topics(), topicID, u.ID)
		return err
	})
	if err != nil {
		return domain.TopicSummary{}, err
	}

	s.Metrics.RecordSubscriptionChange(observability.ActionSubscribe)
	slogx.FromContext(ctx).Info("subscribed",
		slog.String("topic_id", topicID),
		slog.Int("subscribers", summary.Subscribers),
	)
	return summary, nil
}

// Unsubscribe removes the edge between the principal's user and topicID.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, principal Principal, topicID string) (domain.TopicSummary, error) {
	var summary domain.TopicSummary
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		u, err := resolvePrincipal(ctx, tx.Users(), principal)
		if err != nil {
			return err
		}
		if err := requireTopic(ctx, tx.Topics(), topicID); err != nil {
			return err
		}

		exists, err := tx.Subscriptions().SubscriptionExists(ctx, u.ID, topicID)
		if err != nil {
			return internal(err, "check subscription")
		}
		if !exists {
			return fail(ErrNotSubscribed, "not subscribed to this topic", "topic_id", topicID)
		}

		err = tx.Subscriptions().DeleteSubscription(ctx, u.ID, topicID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			return fail(ErrNotSubscribed, "not subscribed to this topic", "topic_id", topicID)
		case err != nil:
			return internal(err, "delete subscription")
		}

		summary, err = readSummary(ctx, tx.Topics(), topicID, u.ID)
		return err
	})
	if err != nil {
		return domain.TopicSummary{}, err
	}

	s.Metrics.RecordSubscriptionChange(observability.ActionUnsubscribe)
	slogx.FromContext(ctx).Info("unsubscribed",
		slog.String("topic_id", topicID),
		slog.Int("subscribers", summary.Subscribers),
	)
	return summary, nil
}

// ListSubscribed returns the principal's topics, newest first.
func (s *SubscriptionService) ListSubscribed(ctx context.Context, principal Principal) ([]domain.TopicSummary, error) {
	u, err := resolvePrincipal(ctx, s.Store.Users(), principal)
	if err != nil {
		return nil, err
	}

	list, err := s.Store.Topics().ListSubscribedTopics(ctx, u.ID)
	if err != nil {
		return nil, internal(err, "list subscribed topics")
	}
	return list, nil
}

// ListAll returns every topic newest first. With a principal each entry
// also says whether that user is subscribed; an empty principal lists
// anonymously.
func (s *SubscriptionService) ListAll(ctx context.Context, principal Principal) ([]domain.TopicSummary, error) {
	var viewerID string
	if !principal.IsZero() {
		u, err := resolvePrincipal(ctx, s.Store.Users(), principal)
		if err != nil {
			return nil, err
		}
		viewerID = u.ID
	}

	list, err := s.Store.Topics().ListTopics(ctx, viewerID)
	if err != nil {
		return nil, internal(err, "list topics")
	}
	return list, nil
}

func (s *SubscriptionService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func requireTopic(ctx context.Context, topics store.Topics, topicID string) error {
	if _, err := idx.Parse(topicID); err != nil {
		return fail(ErrTopicNotFound, "topic not found", "topic_id", topicID)
	}
	_, err := topics.GetTopicByID(ctx, topicID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(ErrTopicNotFound, "topic not found", "topic_id", topicID)
	case err != nil:
		return internal(err, "resolve topic")
	}
	return nil
}

func readSummary(ctx context.Context, topics store.Topics, topicID, viewerID string) (domain.TopicSummary, error) {
	summary, err := topics.GetTopicSummary(ctx, topicID, viewerID)
	if err != nil {
		return domain.TopicSummary{}, internal(err, "read topic summary")
	}
	return summary, nil
}
