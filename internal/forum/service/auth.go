package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/observability"
	"github.com/aussiebroadwan/forum/internal/forum/store"
	"github.com/aussiebroadwan/forum/pkg/cryptox"
	"github.com/aussiebroadwan/forum/pkg/idx"
	"github.com/aussiebroadwan/forum/pkg/slogx"
)

// Result messages.
const (
	MsgLoginSuccessful  = "Login successful"
	MsgRegistered       = "Registration successful"
	MsgProfileUpdated   = "Profile updated successfully"
	MsgNoProfileChanges = "No changes were made to the profile"
	MsgTokenRefreshed   = "Token refreshed successfully"
)

// AuthResult is the outcome of an auth operation. Token is empty when the
// operation did not issue one.
type AuthResult struct {
	User    domain.User
	Token   string
	Message string
}

// ProfileUpdate lists the fields to change. A nil or empty field is left as is.
type ProfileUpdate struct {
	Email    *string
	Username *string
	Password *string
}

type AuthService struct {
	Store   store.Store
	Hasher  *cryptox.Hasher
	Tokens  *TokenService
	Metrics *observability.Metrics

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// dummyDigest is verified against when a login names an unknown user so the
// response takes as long as a real password check.
var dummyDigest = sync.OnceValue(func() string {
	h, _ := cryptox.NewHasher("").Hash("forum-dummy-password")
	return h
})

// Login authenticates by email (any identifier containing "@") or username
// and issues a token for the user's email.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (res AuthResult, err error) {
	defer func() { s.Metrics.RecordAuth("login", err) }()
	l := slogx.FromContext(ctx)

	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return AuthResult{}, fail(ErrInvalidInput, "identifier and password are required")
	}

	dir := UserDirectory{Users: s.Store.Users()}
	var (
		u  domain.User
		ok bool
	)
	if strings.Contains(identifier, "@") {
		u, ok, err = dir.FindByEmail(ctx, identifier)
	} else {
		u, ok, err = dir.FindByUsername(ctx, identifier)
	}
	if err != nil {
		return AuthResult{}, internal(err, "resolve user")
	}
	if !ok {
		_ = s.Hasher.Verify(password, dummyDigest())
		l.Info("login for unknown user")
		return AuthResult{}, fail(ErrUserNotFound, "user not found", "identifier", identifier)
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if errors.Is(err, cryptox.ErrMismatch) {
			l.Info("login password mismatch", slog.String("user_id", u.ID))
			return AuthResult{}, fail(ErrPasswordMismatch, "invalid password", "user_id", u.ID)
		}
		return AuthResult{}, internal(err, "verify password")
	}
	s.upgradeHash(ctx, &u, password)

	token, err := s.issue(u)
	if err != nil {
		return AuthResult{}, err
	}

	l.Info("user logged in", slog.String("user_id", u.ID))
	return AuthResult{User: u, Token: token, Message: MsgLoginSuccessful}, nil
}

// Register creates a user. Email uniqueness is checked before username
// uniqueness, and both before password strength.
func (s *AuthService) Register(ctx context.Context, email, username, password string) (res AuthResult, err error) {
	defer func() { s.Metrics.RecordAuth("register", err) }()

	email = strings.TrimSpace(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return AuthResult{}, fail(ErrInvalidInput, "email, username and password are required")
	}

	dir := UserDirectory{Users: s.Store.Users()}
	exists, err := dir.ExistsByEmail(ctx, email)
	if err != nil {
		return AuthResult{}, internal(err, "check email")
	}
	if exists {
		return AuthResult{}, fail(ErrUserAlreadyExists, "email already exists", "column", "email")
	}

	exists, err = dir.ExistsByUsername(ctx, username)
	if err != nil {
		return AuthResult{}, internal(err, "check username")
	}
	if exists {
		return AuthResult{}, fail(ErrUserAlreadyExists, "username already exists", "column", "username")
	}

	if err := ValidatePassword(password); err != nil {
		return AuthResult{}, fail(ErrInvalidPassword, err.Error())
	}

	digest, err := s.Hasher.Hash(password)
	if err != nil {
		return AuthResult{}, internal(err, "hash password")
	}

	now := s.now().UTC()
	u := domain.User{
		ID:           idx.NewAt(now).String(),
		Email:        email,
		Username:     username,
		PasswordHash: digest,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		// Lost a race with a concurrent registration.
		return AuthResult{}, userConflict(err, "create user")
	}

	token, err := s.issue(u)
	if err != nil {
		return AuthResult{}, err
	}

	slogx.FromContext(ctx).Info("user registered", slog.String("user_id", u.ID))
	return AuthResult{User: u, Token: token, Message: MsgRegistered}, nil
}

// UpdateProfile applies the non-empty fields of upd to the user in a single
// transaction. Callers may only update themselves. A new token is issued
// only when the email, and so the token subject, changes.
func (s *AuthService) UpdateProfile(ctx context.Context, principal Principal, userID string, upd ProfileUpdate) (res AuthResult, err error) {
	defer func() { s.Metrics.RecordAuth("update_profile", err) }()

	if principal.UserID != userID {
		return AuthResult{}, fail(ErrForbidden, "cannot update another user's profile", "user_id", userID)
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		dir := UserDirectory{Users: tx.Users()}

		u, ok, err := dir.FindByID(ctx, userID)
		if err != nil {
			return internal(err, "resolve user")
		}
		if !ok {
			return fail(ErrUserNotFound, "user not found", "user_id", userID)
		}
		if !principal.matches(u) {
			return staleToken(principal)
		}

		var changed, emailChanged bool

		if email := strings.TrimSpace(deref(upd.Email)); email != "" && email != u.Email {
			exists, err := dir.ExistsByEmail(ctx, email)
			if err != nil {
				return internal(err, "check email")
			}
			if exists {
				return fail(ErrUserAlreadyExists, "email already exists", "column", "email")
			}
			u.Email = email
			changed, emailChanged = true, true
		}

		if username := strings.TrimSpace(deref(upd.Username)); username != "" && username != u.Username {
			exists, err := dir.ExistsByUsername(ctx, username)
			if err != nil {
				return internal(err, "check username")
			}
			if exists {
				return fail(ErrUserAlreadyExists, "username already exists", "column", "username")
			}
			u.Username = username
			changed = true
		}

		if password := deref(upd.Password); password != "" {
			if err := ValidatePassword(password); err != nil {
				return fail(ErrInvalidPassword, err.Error())
			}
			digest, err := s.Hasher.Hash(password)
			if err != nil {
				return internal(err, "hash password")
			}
			u.PasswordHash = digest
			changed = true
		}

		if !changed {
			res = AuthResult{User: u, Message: MsgNoProfileChanges}
			return nil
		}

		u.UpdatedAt = s.now().UTC()
		if err := tx.Users().UpdateUser(ctx, u); err != nil {
			return userConflict(err, "update user")
		}

		res = AuthResult{User: u, Message: MsgProfileUpdated}
		if emailChanged {
			res.Token, err = s.issue(u)
		}
		return err
	})
	if err != nil {
		return AuthResult{}, err
	}

	slogx.FromContext(ctx).Info("profile updated",
		slog.String("user_id", userID),
		slog.Bool("token_reissued", res.Token != ""),
	)
	return res, nil
}

// RefreshToken issues a fresh token for the authenticated principal.
func (s *AuthService) RefreshToken(ctx context.Context, principal Principal) (res AuthResult, err error) {
	defer func() { s.Metrics.RecordAuth("refresh", err) }()

	u, err := s.Me(ctx, principal)
	if err != nil {
		return AuthResult{}, err
	}

	token, err := s.issue(u)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: u, Token: token, Message: MsgTokenRefreshed}, nil
}

// Me resolves the authenticated principal to its user.
func (s *AuthService) Me(ctx context.Context, principal Principal) (domain.User, error) {
	return resolvePrincipal(ctx, s.Store.Users(), principal)
}

func (s *AuthService) issue(u domain.User) (string, error) {
	return s.Tokens.Issue(u.Email, map[string]any{
		"uid":      u.ID,
		"username": u.Username,
	})
}

// upgradeHash replaces a legacy digest with argon2id after a successful
// login. Failures are logged and otherwise ignored.
func (s *AuthService) upgradeHash(ctx context.Context, u *domain.User, password string) {
	if !s.Hasher.NeedsUpgrade(u.PasswordHash) {
		return
	}
	l := slogx.FromContext(ctx)

	digest, err := s.Hasher.Hash(password)
	if err == nil {
		err = s.Store.Users().UpdatePasswordHash(ctx, u.ID, digest)
	}
	if err != nil {
		l.Warn("password hash upgrade failed", slog.String("user_id", u.ID), slog.Any("err", err))
		return
	}
	u.PasswordHash = digest
	l.Info("password hash upgraded", slog.String("user_id", u.ID))
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// userConflict turns a store uniqueness violation into ErrUserAlreadyExists
// naming the colliding field.
func userConflict(err error, op string) error {
	var conflict *store.ConflictError
	if errors.As(err, &conflict) {
		return fail(ErrUserAlreadyExists, conflict.Column+" already exists", "column", conflict.Column)
	}
	return internal(err, op)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
