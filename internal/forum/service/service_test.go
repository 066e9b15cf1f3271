package service_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/forum/internal/forum/observability"
	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/internal/forum/store/drivers/sqlite"
	"github.com/aussiebroadwan/forum/pkg/cryptox"
	"github.com/aussiebroadwan/forum/pkg/jwtx"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type services struct {
	store   store.Store
	tokens  *service.TokenService
	auth    *service.AuthService
	subs    *service.SubscriptionService
	topics  *service.TopicService
	metrics *observability.Metrics
}

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "forum.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTokenService(t *testing.T) *service.TokenService {
	t.Helper()

	signer, err := jwtx.NewHS256([]byte(testSecret), "forum-test")
	require.NoError(t, err)
	return &service.TokenService{Signer: signer, TTL: jwtx.DefaultSessionTTL}
}

func newServices(t *testing.T, st store.Store) *services {
	t.Helper()

	m := observability.NewMetrics()
	tokens := newTokenService(t)
	return &services{
		store:  st,
		tokens: tokens,
		auth: &service.AuthService{
			Store:   st,
			Hasher:  cryptox.NewHasher("test-pepper"),
			Tokens:  tokens,
			Metrics: m,
		},
		subs:    &service.SubscriptionService{Store: st, Metrics: m},
		topics:  &service.TopicService{Store: st},
		metrics: m,
	}
}

func setup(t *testing.T) (*services, context.Context) {
	t.Helper()
	return newServices(t, newTestStore(t)), context.Background()
}

// assertErrorCode asserts that err is an oops error with the given code.
func assertErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok, "expected oops error, got %T", err)
	assert.Equal(t, code, oopsErr.Code())
	assert.Equal(t, code, service.Code(err))
}

func ptr(s string) *string { return &s }

// principalOf is the identity a token issued in res carries.
func principalOf(res service.AuthResult) service.Principal {
	return service.Principal{Email: res.User.Email, UserID: res.User.ID}
}

// ghost names a user that was never registered.
var ghost = service.Principal{Email: "ghost@x.com", UserID: "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZV"}
