package service

import (
	"context"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/store"
)

// Principal is the caller identity carried by a verified token: the subject
// email and the uid claim. A token is only honoured while both still name
// the same user, so a token issued before an email change cannot follow the
// old address to whoever registers it next.
type Principal struct {
	Email  string
	UserID string
}

// IsZero reports an anonymous caller.
func (p Principal) IsZero() bool { return p.Email == "" && p.UserID == "" }

func (p Principal) matches(u domain.User) bool {
	return u.ID == p.UserID && u.Email == p.Email
}

func resolvePrincipal(ctx context.Context, users store.Users, p Principal) (domain.User, error) {
	u, ok, err := UserDirectory{Users: users}.FindByEmail(ctx, p.Email)
	if err != nil {
		return domain.User{}, internal(err, "resolve user")
	}
	if !ok {
		return domain.User{}, fail(ErrUserNotFound, "user not found", "principal", p.Email)
	}
	if !p.matches(u) {
		return domain.User{}, staleToken(p)
	}
	return u, nil
}

func staleToken(p Principal) error {
	return fail(ErrInvalidToken, "token no longer matches its user", "user_id", p.UserID)
}
