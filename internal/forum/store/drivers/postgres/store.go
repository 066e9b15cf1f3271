package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"

	"github.com/aussiebroadwan/forum/internal/forum/store"
)

// querier is the query surface shared by the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// poolIface is the subset of *pgxpool.Pool the store needs. pgxmock's
// PgxPoolIface satisfies it too.
type poolIface interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type Store struct {
	pool poolIface
	url  string
}

// NewStore connects to the database at url (postgres:// form).
func NewStore(ctx context.Context, url string) (*Store, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "create pool").Wrap(err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}
	return newStore(pool, url), nil
}

func newStore(pool poolIface, url string) *Store {
	return &Store{pool: pool, url: url}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, oops.Code("DB_BEGIN_FAILED").Wrap(err)
	}
	return &txStore{tx: tx, ctx: ctx}, nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Users() store.Users                 { return &usersRepo{q: s.pool} }
func (s *Store) Topics() store.Topics               { return &topicsRepo{q: s.pool} }
func (s *Store) Subscriptions() store.Subscriptions { return &subscriptionsRepo{q: s.pool} }

func mapNotFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// constraintColumns maps named constraints from the migrations to the table
// and column they guard.
var constraintColumns = map[string][2]string{
	"users_email_key":    {"users", "email"},
	"users_username_key": {"users", "username"},
	"topics_title_key":   {"topics", "title"},
	"subscriptions_pkey": {"subscriptions", "user_id"},
}

// mapConstraint turns unique and foreign key violations into store errors.
func mapConstraint(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgerrcode.UniqueViolation:
		target, ok := constraintColumns[pgErr.ConstraintName]
		if !ok {
			target = [2]string{pgErr.TableName, pgErr.ConstraintName}
		}
		return &store.ConflictError{Table: target[0], Column: target[1], Err: err}
	case pgerrcode.ForeignKeyViolation:
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	default:
		return err
	}
}
