package service

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/forum/internal/forum/domain"
	"github.com/aussiebroadwan/forum/internal/forum/store"
)

// UserDirectory is a read-only view over the user store. A miss is reported
// as found == false, never as an error.
type UserDirectory struct {
	Users store.Users
}

func (d UserDirectory) FindByID(ctx context.Context, id string) (domain.User, bool, error) {
	return found(d.Users.GetUserByID(ctx, id))
}

func (d UserDirectory) FindByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	return found(d.Users.GetUserByEmail(ctx, email))
}

func (d UserDirectory) FindByUsername(ctx context.Context, username string) (domain.User, bool, error) {
	return found(d.Users.GetUserByUsername(ctx, username))
}

func (d UserDirectory) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return d.Users.ExistsByEmail(ctx, email)
}

func (d UserDirectory) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return d.Users.ExistsByUsername(ctx, username)
}

func found(u domain.User, err error) (domain.User, bool, error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domain.User{}, false, nil
	case err != nil:
		return domain.User{}, false, err
	}
	return u, true, nil
}
