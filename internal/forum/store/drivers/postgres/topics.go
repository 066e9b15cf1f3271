package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/store"
)

type topicsRepo struct {
	q querier
}

// summarySelect yields a topic, its subscriber count and whether the viewer
// ($1) is subscribed.
const summarySelect = `
	SELECT t.id, t.title, t.content, t.created_at,
	       (SELECT COUNT(*) FROM subscriptions s WHERE s.topic_id = t.id) AS subscribers,
	       EXISTS (SELECT 1 FROM subscriptions v WHERE v.topic_id = t.id AND v.user_id = $1) AS subscribed
	FROM topics t`

const newestFirst = ` ORDER BY t.created_at DESC, t.id DESC`

func scanSummary(row pgx.Row) (domain.TopicSummary, error) {
	var (
		s     domain.TopicSummary
		count int64
	)
	if err := row.Scan(&s.ID, &s.Title, &s.Content, &s.CreatedAt, &count, &s.Subscribed); err != nil {
		return domain.TopicSummary{}, err
	}
	s.CreatedAt = s.CreatedAt.UTC()
	s.Subscribers = int(count)
	return s, nil
}

func (r *topicsRepo) CreateTopic(ctx context.Context, t domain.Topic) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO topics (id, title, content, created_at) VALUES ($1, $2, $3, $4)`,
		t.ID, t.Title, t.Content, t.CreatedAt.UTC(),
	)
	return mapConstraint(err)
}

func (r *topicsRepo) GetTopicByID(ctx context.Context, id string) (domain.Topic, error) {
	var t domain.Topic
	err := r.q.QueryRow(ctx,
		`SELECT id, title, content, created_at FROM topics WHERE id = $1`, id,
	).Scan(&t.ID, &t.Title, &t.Content, &t.CreatedAt)
	if err != nil {
		return domain.Topic{}, mapNotFound(err)
	}
	t.CreatedAt = t.CreatedAt.UTC()
	return t, nil
}

func (r *topicsRepo) GetTopicSummary(ctx context.Context, topicID, viewerID string) (domain.TopicSummary, error) {
	s, err := scanSummary(r.q.QueryRow(ctx, summarySelect+` WHERE t.id = $2`, viewerID, topicID))
	if err != nil {
		err = mapNotFound(err)
		if errors.Is(err, store.ErrNotFound) {
			return domain.TopicSummary{}, err
		}
		return domain.TopicSummary{}, oops.Code("TOPIC_SUMMARY_FAILED").With("topic_id", topicID).Wrap(err)
	}
	return s, nil
}

func (r *topicsRepo) ListTopics(ctx context.Context, viewerID string) ([]domain.TopicSummary, error) {
	return r.list(ctx, summarySelect+newestFirst, viewerID)
}

func (r *topicsRepo) ListSubscribedTopics(ctx context.Context, userID string) ([]domain.TopicSummary, error) {
	return r.list(ctx, summarySelect+`
	JOIN subscriptions me ON me.topic_id = t.id AND me.user_id = $1`+newestFirst,
		userID,
	)
}

func (r *topicsRepo) list(ctx context.Context, query string, args ...any) ([]domain.TopicSummary, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, oops.Code("TOPIC_LIST_FAILED").Wrap(err)
	}
	defer rows.Close()

	out := []domain.TopicSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, oops.Code("TOPIC_LIST_FAILED").With("operation", "scan").Wrap(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("TOPIC_LIST_FAILED").Wrap(err)
	}
	return out, nil
}
