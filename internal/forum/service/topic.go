package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/pkg/idx"
)

// TopicService is the topic catalogue.
type TopicService struct {
	Store store.Store

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// CreateTopic adds a topic. Titles are unique.
func (s *TopicService) CreateTopic(ctx context.Context, title, content string) (domain.Topic, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return domain.Topic{}, fail(ErrInvalidInput, "title and content are required")
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	created := now().UTC()

	t := domain.Topic{
		ID:        idx.NewAt(created).String(),
		Title:     title,
		Content:   content,
		CreatedAt: created,
	}
	err := s.Store.Topics().CreateTopic(ctx, t)
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return domain.Topic{}, fail(ErrTopicAlreadyExists, "a topic with this title already exists", "title", title)
	case err != nil:
		return domain.Topic{}, internal(err, "create topic")
	}
	return t, nil
}

// GetTopic returns the topic with the given id.
func (s *TopicService) GetTopic(ctx context.Context, id string) (domain.Topic, error) {
	if _, err := idx.Parse(id); err != nil {
		return domain.Topic{}, fail(ErrTopicNotFound, "topic not found", "topic_id", id)
	}
	t, err := s.Store.Topics().GetTopicByID(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.Topic{}, fail(ErrTopicNotFound, "topic not found", "topic_id", id)
	case err != nil:
		return domain.Topic{}, internal(err, "get topic")
	}
	return t, nil
}
