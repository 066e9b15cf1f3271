package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// ConflictError reports a uniqueness violation. Table and Column name the
// constraint that fired (e.g. users/email) so callers can tell which field
// collided. It matches ErrAlreadyExists under errors.Is.
type ConflictError struct {
	Table  string
	Column string
	Err    error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("store: %s.%s already exists", e.Table, e.Column)
}

func (e *ConflictError) Is(target error) bool { return target == ErrAlreadyExists }

func (e *ConflictError) Unwrap() error { return e.Err }

// Store is the root data access interface. Concrete drivers (sqlite, postgres)
// implement this. It exposes sub-repositories to keep concerns tidy and
// testable, and so code running inside WithTx only ever sees the tx-scoped
// repos.
type Store interface {
	Users() Users
	Topics() Topics
	Subscriptions() Subscriptions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is an exact match on the stored email.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByUsername is an exact match on the stored username.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Duplicate email or username yields a *ConflictError.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUser writes email, username, password_hash and updated_at.
	// Duplicate email or username yields a *ConflictError.
	UpdateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error
}

type Topics interface {
	// CreateTopic inserts a new topic. A duplicate title yields a *ConflictError.
	CreateTopic(ctx context.Context, t domain.Topic) error

	GetTopicByID(ctx context.Context, id string) (domain.Topic, error)

	// GetTopicSummary returns the topic with its current subscriber count.
	// viewerID may be empty; when set, Subscribed reports the viewer's edge.
	GetTopicSummary(ctx context.Context, topicID, viewerID string) (domain.TopicSummary, error)

	// ListTopics returns every topic newest first (ties broken by id).
	ListTopics(ctx context.Context, viewerID string) ([]domain.TopicSummary, error)

	// ListSubscribedTopics returns the topics userID is subscribed to,
	// newest first.
	ListSubscribedTopics(ctx context.Context, userID string) ([]domain.TopicSummary, error)
}

type Subscriptions interface {
	// SubscriptionExists reports whether the (user, topic) edge exists.
	SubscriptionExists(ctx context.Context, userID, topicID string) (bool, error)

	// CreateSubscription inserts the edge. An existing edge yields a
	// *ConflictError; a missing user or topic yields ErrNotFound.
	CreateSubscription(ctx context.Context, s domain.Subscription) error

	// DeleteSubscription removes the edge, returning ErrNotFound if there
	// was none.
	DeleteSubscription(ctx context.Context, userID, topicID string) error
}
