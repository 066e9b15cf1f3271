//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/internal/forum/store/drivers/postgres"
	"github.com/aussiebroadwan/forum/pkg/idx"
)

var (
	testStore *postgres.Store
	container *tcpostgres.PostgresContainer
)

var _ = BeforeSuite(func() {
	ctx := context.Background()

	var err error
	container, err = tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("forum_test"),
		tcpostgres.WithUsername("forum"),
		tcpostgres.WithPassword("forum"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	Expect(err).NotTo(HaveOccurred())

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	Expect(err).NotTo(HaveOccurred())

	testStore, err = postgres.NewStore(ctx, connStr)
	Expect(err).NotTo(HaveOccurred())
	Expect(testStore.ApplyMigrations()).To(Succeed())
	Expect(testStore.ApplyMigrations()).To(Succeed(), "migrations are idempotent")
})

var _ = AfterSuite(func() {
	if testStore != nil {
		_ = testStore.Close()
	}
	if container != nil {
		_ = container.Terminate(context.Background())
	}
})

func newUser(username string) domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return domain.User{
		ID:           idx.New().String(),
		Email:        username + "@x.com",
		Username:     username,
		PasswordHash: "$argon2id$placeholder",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

var _ = Describe("Store", func() {
	ctx := context.Background()

	Describe("Users", func() {
		It("enforces unique email through the constraint", func() {
			u := newUser("pg_alice")
			Expect(testStore.Users().CreateUser(ctx, u)).To(Succeed())

			dup := newUser("pg_alice_2")
			dup.Email = u.Email
			err := testStore.Users().CreateUser(ctx, dup)
			Expect(errors.Is(err, store.ErrAlreadyExists)).To(BeTrue())

			var conflict *store.ConflictError
			Expect(errors.As(err, &conflict)).To(BeTrue())
			Expect(conflict.Column).To(Equal("email"))
		})

		It("round-trips a user", func() {
			u := newUser("pg_bob")
			Expect(testStore.Users().CreateUser(ctx, u)).To(Succeed())

			got, err := testStore.Users().GetUserByUsername(ctx, "pg_bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Is(u)).To(BeTrue())
			Expect(got.CreatedAt).To(BeTemporally("==", u.CreatedAt))
		})
	})

	Describe("Subscriptions", func() {
		It("counts subscribers after each mutation in one transaction", func() {
			u := newUser("pg_carol")
			Expect(testStore.Users().CreateUser(ctx, u)).To(Succeed())

			topic := domain.Topic{
				ID:        idx.New().String(),
				Title:     "pg topic " + u.ID,
				Content:   "content",
				CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
			}
			Expect(testStore.Topics().CreateTopic(ctx, topic)).To(Succeed())

			var summary domain.TopicSummary
			err := testStore.WithTx(ctx, func(tx store.Tx) error {
				if err := tx.Subscriptions().CreateSubscription(ctx, domain.Subscription{
					UserID: u.ID, TopicID: topic.ID, CreatedAt: time.Now(),
				}); err != nil {
					return err
				}
				var err error
				summary, err = tx.Topics().GetTopicSummary(ctx, topic.ID, u.ID)
				return err
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Subscribers).To(Equal(1))
			Expect(summary.Subscribed).To(BeTrue())

			err = testStore.Subscriptions().CreateSubscription(ctx, domain.Subscription{
				UserID: u.ID, TopicID: topic.ID, CreatedAt: time.Now(),
			})
			Expect(errors.Is(err, store.ErrAlreadyExists)).To(BeTrue())

			Expect(testStore.Subscriptions().DeleteSubscription(ctx, u.ID, topic.ID)).To(Succeed())
			summary, err = testStore.Topics().GetTopicSummary(ctx, topic.ID, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Subscribers).To(Equal(0))
			Expect(summary.Subscribed).To(BeFalse())
		})
	})
})
