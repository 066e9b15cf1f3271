package domain

import "time"

// Topic is a discussion topic users can subscribe to.
type Topic struct {
	ID        string
	Title     string
	Content   string
	CreatedAt time.Time
}

// Is reports whether t and other are the same topic.
func (t Topic) Is(other Topic) bool {
	return t.ID != "" && t.ID == other.ID
}

// TopicSummary is a topic together with its current subscriber count, as
// read in the same transaction that produced it.
type TopicSummary struct {
	Topic
	Subscribers int

	// Subscribed is true when the topic was listed for a user who is
	// subscribed to it. Always false for anonymous listings.
	Subscribed bool
}

// Subscription is one edge of the user/topic subscription graph.
type Subscription struct {
	UserID    string
	TopicID   string
	CreatedAt time.Time
}
