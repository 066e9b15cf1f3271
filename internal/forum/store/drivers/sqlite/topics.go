package sqlite

import (
	"context"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
)

type topicsRepo struct {
	db dbtx
}

// summarySelect yields a topic, its subscriber count and whether the viewer
// (first bind parameter) is subscribed.
const summarySelect = `
	SELECT t.id, t.title, t.content, t.created_at,
	       (SELECT COUNT(*) FROM subscriptions s WHERE s.topic_id = t.id) AS subscribers,
	       EXISTS (SELECT 1 FROM subscriptions v WHERE v.topic_id = t.id AND v.user_id = ?) AS subscribed
	FROM topics t`

const newestFirst = ` ORDER BY t.created_at DESC, t.id DESC`

func scanSummary(row rowScanner) (domain.TopicSummary, error) {
	var (
		s         domain.TopicSummary
		createdAt string
	)
	if err := row.Scan(&s.ID, &s.Title, &s.Content, &createdAt, &s.Subscribers, &s.Subscribed); err != nil {
		return domain.TopicSummary{}, mapNotFound(err)
	}

	var err error
	if s.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.TopicSummary{}, err
	}
	return s, nil
}

func (r *topicsRepo) CreateTopic(ctx context.Context, t domain.Topic) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO topics (id, title, content, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Title, t.Content, formatTime(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *topicsRepo) GetTopicByID(ctx context.Context, id string) (domain.Topic, error) {
	var (
		t         domain.Topic
		createdAt string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, content, created_at FROM topics WHERE id = ?`, id,
	).Scan(&t.ID, &t.Title, &t.Content, &createdAt)
	if err != nil {
		return domain.Topic{}, mapNotFound(err)
	}

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.Topic{}, err
	}
	return t, nil
}

func (r *topicsRepo) GetTopicSummary(ctx context.Context, topicID, viewerID string) (domain.TopicSummary, error) {
	return scanSummary(r.db.QueryRowContext(ctx, summarySelect+` WHERE t.id = ?`, viewerID, topicID))
}

func (r *topicsRepo) ListTopics(ctx context.Context, viewerID string) ([]domain.TopicSummary, error) {
	return r.list(ctx, summarySelect+newestFirst, viewerID)
}

func (r *topicsRepo) ListSubscribedTopics(ctx context.Context, userID string) ([]domain.TopicSummary, error) {
	return r.list(ctx, summarySelect+`
	JOIN subscriptions me ON me.topic_id = t.id AND me.user_id = ?`+newestFirst,
		userID, userID,
	)
}

func (r *topicsRepo) list(ctx context.Context, query string, args ...any) ([]domain.TopicSummary, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.TopicSummary{}
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
