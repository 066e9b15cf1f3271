package service_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/service"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/pkg/idx"
)

const alicePassword = "Abcd1234!"

func registerAlice(t *testing.T, svc *services) service.AuthResult {
	t.Helper()
	res, err := svc.auth.Register(context.Background(), "alice@x.com", "alice", alicePassword)
	require.NoError(t, err)
	return res
}

func TestRegister(t *testing.T) {
	svc, ctx := setup(t)

	res := registerAlice(t, svc)
	require.NotEmpty(t, res.User.ID)
	require.Equal(t, "alice@x.com", res.User.Email)
	require.Equal(t, service.MsgRegistered, res.Message)
	require.True(t, svc.tokens.Verify(res.Token, "alice@x.com"))
	require.True(t, strings.HasPrefix(res.User.PasswordHash, "$argon2id$"))
	require.NotContains(t, res.User.PasswordHash, alicePassword)

	_, err := idx.Parse(res.User.ID)
	require.NoError(t, err)

	stored, err := svc.store.Users().GetUserByEmail(ctx, "alice@x.com")
	require.NoError(t, err)
	require.Equal(t, res.User.ID, stored.ID)

	require.Equal(t, float64(1), testutil.ToFloat64(svc.metrics.AuthOperations.WithLabelValues("register", "success")))
}

func TestRegister_Failures(t *testing.T) {
	svc, ctx := setup(t)
	registerAlice(t, svc)

	tests := []struct {
		name     string
		email    string
		username string
		password string
		kind     error
		message  string
	}{
		{"duplicate email", "alice@x.com", "alice2", alicePassword, service.ErrUserAlreadyExists, "email already exists"},
		{"duplicate username", "other@x.com", "alice", alicePassword, service.ErrUserAlreadyExists, "username already exists"},
		{"email checked before username", "alice@x.com", "alice", alicePassword, service.ErrUserAlreadyExists, "email already exists"},
		{"uniqueness checked before strength", "alice@x.com", "bob", "weak", service.ErrUserAlreadyExists, "email already exists"},
		{"weak password", "bob@x.com", "bob", "abcd1234!", service.ErrInvalidPassword, "password must contain at least one uppercase letter"},
		{"blank email", " ", "bob", alicePassword, service.ErrInvalidInput, ""},
		{"empty password", "bob@x.com", "bob", "", service.ErrInvalidInput, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.auth.Register(ctx, tt.email, tt.username, tt.password)
			require.ErrorIs(t, err, tt.kind)
			if tt.message != "" {
				require.Equal(t, tt.message, service.Message(err))
			}
		})
	}

	found, err := svc.store.Users().ExistsByUsername(ctx, "bob")
	require.NoError(t, err)
	require.False(t, found, "failed registrations persist nothing")
}

// racyUsers hides existing users from the pre-checks so the insert is the
// first to notice the collision.
type racyUsers struct{ store.Users }

func (racyUsers) ExistsByEmail(context.Context, string) (bool, error)    { return false, nil }
func (racyUsers) ExistsByUsername(context.Context, string) (bool, error) { return false, nil }

type racyStore struct{ store.Store }

func (s racyStore) Users() store.Users { return racyUsers{s.Store.Users()} }

func TestRegister_ConstraintIsFinalArbiter(t *testing.T) {
	st := newTestStore(t)
	registerAlice(t, newServices(t, st))

	svc := newServices(t, racyStore{st})
	ctx := context.Background()

	_, err := svc.auth.Register(ctx, "alice@x.com", "alice2", alicePassword)
	require.ErrorIs(t, err, service.ErrUserAlreadyExists)
	require.Equal(t, "email already exists", service.Message(err))

	_, err = svc.auth.Register(ctx, "alice2@x.com", "alice", alicePassword)
	require.ErrorIs(t, err, service.ErrUserAlreadyExists)
	require.Equal(t, "username already exists", service.Message(err))
	assertErrorCode(t, err, service.CodeUserAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc, ctx := setup(t)
	registered := registerAlice(t, svc)

	for _, identifier := range []string{"alice@x.com", "alice", "  alice  "} {
		t.Run(identifier, func(t *testing.T) {
			res, err := svc.auth.Login(ctx, identifier, alicePassword)
			require.NoError(t, err)
			require.Equal(t, registered.User.ID, res.User.ID)
			require.Equal(t, service.MsgLoginSuccessful, res.Message)

			subject, err := svc.tokens.ExtractSubject(res.Token)
			require.NoError(t, err)
			require.Equal(t, "alice@x.com", subject, "token subject is always the email")
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	svc, ctx := setup(t)
	registerAlice(t, svc)

	tests := []struct {
		name       string
		identifier string
		password   string
		kind       error
		code       string
	}{
		{"unknown email", "nobody@x.com", alicePassword, service.ErrUserNotFound, service.CodeUserNotFound},
		{"unknown username", "nobody", alicePassword, service.ErrUserNotFound, service.CodeUserNotFound},
		{"username is case sensitive", "Alice", alicePassword, service.ErrUserNotFound, service.CodeUserNotFound},
		{"wrong password", "alice", "Abcd1234?", service.ErrPasswordMismatch, service.CodeInvalidPassword},
		{"blank identifier", "", alicePassword, service.ErrInvalidInput, service.CodeInvalidInput},
		{"blank password", "alice", "", service.ErrInvalidInput, service.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := svc.auth.Login(ctx, tt.identifier, tt.password)
			require.ErrorIs(t, err, tt.kind)
			assertErrorCode(t, err, tt.code)
			require.Empty(t, res.Token)
		})
	}

	_, err := svc.auth.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, service.ErrInvalidPassword)
	require.Equal(t, "invalid password", service.Message(err))
}

func TestLogin_UpgradesLegacyHash(t *testing.T) {
	svc, ctx := setup(t)

	legacy, err := bcrypt.GenerateFromPassword([]byte(alicePassword), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	u := domain.User{
		ID:           idx.New().String(),
		Email:        "legacy@x.com",
		Username:     "legacy",
		PasswordHash: string(legacy),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, svc.store.Users().CreateUser(ctx, u))

	res, err := svc.auth.Login(ctx, "legacy", alicePassword)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(res.User.PasswordHash, "$argon2id$"))

	stored, err := svc.store.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(stored.PasswordHash, "$argon2id$"))

	_, err = svc.auth.Login(ctx, "legacy", alicePassword)
	require.NoError(t, err, "upgraded hash still verifies")
}

func TestUpdateProfile(t *testing.T) {
	svc, ctx := setup(t)
	alice := registerAlice(t, svc)
	bob, err := svc.auth.Register(ctx, "bob@x.com", "bob", alicePassword)
	require.NoError(t, err)
	as := principalOf(alice)

	t.Run("no changes", func(t *testing.T) {
		res, err := svc.auth.UpdateProfile(ctx, as, alice.User.ID, service.ProfileUpdate{
			Email:    ptr("alice@x.com"),
			Username: ptr(""),
		})
		require.NoError(t, err)
		require.Equal(t, service.MsgNoProfileChanges, res.Message)
		require.Empty(t, res.Token)
	})

	t.Run("username only keeps the token", func(t *testing.T) {
		res, err := svc.auth.UpdateProfile(ctx, as, alice.User.ID, service.ProfileUpdate{Username: ptr("alice_w")})
		require.NoError(t, err)
		require.Equal(t, service.MsgProfileUpdated, res.Message)
		require.Equal(t, "alice_w", res.User.Username)
		require.Empty(t, res.Token)
	})

	t.Run("collisions", func(t *testing.T) {
		_, err := svc.auth.UpdateProfile(ctx, as, alice.User.ID, service.ProfileUpdate{Email: ptr("bob@x.com")})
		require.ErrorIs(t, err, service.ErrUserAlreadyExists)
		require.Equal(t, "email already exists", service.Message(err))

		_, err = svc.auth.UpdateProfile(ctx, as, alice.User.ID, service.ProfileUpdate{Username: ptr("bob")})
		require.ErrorIs(t, err, service.ErrUserAlreadyExists)
		require.Equal(t, "username already exists", service.Message(err))
	})

	t.Run("weak password rolls back everything", func(t *testing.T) {
		_, err := svc.auth.UpdateProfile(ctx, as, alice.User.ID, service.ProfileUpdate{
			Username: ptr("alice_x"),
			Password: ptr("short"),
		})
		require.ErrorIs(t, err, service.ErrInvalidPassword)
		require.Equal(t, "password must be at least 8 characters long", service.Message(err))

		stored, err := svc.store.Users().GetUserByID(ctx, alice.User.ID)
		require.NoError(t, err)
		require.Equal(t, "alice_w", stored.Username)
	})

	t.Run("password change", func(t *testing.T) {
		res, err := svc.auth.UpdateProfile(ctx, as, alice.User.ID, service.ProfileUpdate{Password: ptr("Newpass123$")})
		require.NoError(t, err)
		require.Empty(t, res.Token)

		_, err = svc.auth.Login(ctx, "alice@x.com", alicePassword)
		require.ErrorIs(t, err, service.ErrPasswordMismatch)
		_, err = svc.auth.Login(ctx, "alice@x.com", "Newpass123$")
		require.NoError(t, err)
	})

	t.Run("another user's profile is forbidden", func(t *testing.T) {
		_, err := svc.auth.UpdateProfile(ctx, as, bob.User.ID, service.ProfileUpdate{Password: ptr("Takeover1!")})
		require.ErrorIs(t, err, service.ErrForbidden)
		assertErrorCode(t, err, service.CodeForbidden)

		_, err = svc.auth.Login(ctx, "bob", alicePassword)
		require.NoError(t, err, "bob's password is untouched")
	})

	t.Run("email change issues a new token", func(t *testing.T) {
		res, err := svc.auth.UpdateProfile(ctx, as, alice.User.ID, service.ProfileUpdate{Email: ptr("alice@y.com")})
		require.NoError(t, err)
		require.Equal(t, service.MsgProfileUpdated, res.Message)
		require.NotEmpty(t, res.Token)
		require.True(t, svc.tokens.Verify(res.Token, "alice@y.com"))
		require.False(t, res.User.UpdatedAt.Before(res.User.CreatedAt))
	})

	t.Run("token from before the email change is stale", func(t *testing.T) {
		_, err := svc.auth.UpdateProfile(ctx, as, alice.User.ID, service.ProfileUpdate{Username: ptr("alice_z")})
		require.ErrorIs(t, err, service.ErrInvalidToken)
		assertErrorCode(t, err, service.CodeInvalidToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		missing := service.Principal{Email: "missing@x.com", UserID: "missing"}
		_, err := svc.auth.UpdateProfile(ctx, missing, "missing", service.ProfileUpdate{Username: ptr("x")})
		require.ErrorIs(t, err, service.ErrUserNotFound)
	})
}

func TestRefreshTokenAndMe(t *testing.T) {
	svc, ctx := setup(t)
	alice := registerAlice(t, svc)

	res, err := svc.auth.RefreshToken(ctx, principalOf(alice))
	require.NoError(t, err)
	require.Equal(t, alice.User.ID, res.User.ID)
	require.True(t, svc.tokens.Verify(res.Token, "alice@x.com"))
	require.NotEqual(t, alice.Token, res.Token, "fresh jti")

	me, err := svc.auth.Me(ctx, principalOf(alice))
	require.NoError(t, err)
	require.Equal(t, "alice", me.Username)

	_, err = svc.auth.RefreshToken(ctx, ghost)
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

// TestStaleTokenCannotFollowEmail covers a token whose subject email was
// released by its owner and then registered by someone else.
func TestStaleTokenCannotFollowEmail(t *testing.T) {
	svc, ctx := setup(t)
	alice := registerAlice(t, svc)
	old := principalOf(alice)

	_, err := svc.auth.UpdateProfile(ctx, old, alice.User.ID, service.ProfileUpdate{Email: ptr("alice2@x.com")})
	require.NoError(t, err)

	bob, err := svc.auth.Register(ctx, "alice@x.com", "bob", alicePassword)
	require.NoError(t, err)

	_, err = svc.auth.Me(ctx, old)
	require.ErrorIs(t, err, service.ErrInvalidToken)

	_, err = svc.auth.RefreshToken(ctx, old)
	require.ErrorIs(t, err, service.ErrInvalidToken)
	assertErrorCode(t, err, service.CodeInvalidToken)

	_, err = svc.auth.UpdateProfile(ctx, old, bob.User.ID, service.ProfileUpdate{Password: ptr("Takeover1!")})
	require.ErrorIs(t, err, service.ErrForbidden)

	_, err = svc.subs.ListSubscribed(ctx, old)
	require.ErrorIs(t, err, service.ErrInvalidToken)

	me, err := svc.auth.Me(ctx, principalOf(bob))
	require.NoError(t, err)
	require.Equal(t, "bob", me.Username)
}
