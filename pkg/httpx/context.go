package httpx

import (
	"context"

	"github.com/aussiebroadwan/forum/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeySubject ctxKey = "subject"
	CtxKeyUserID  ctxKey = "user_id"
)

// SubjectFromContext returns the authenticated principal (the token subject)
// placed in the context by AuthnMiddleware.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(CtxKeySubject).(string)
	return s, ok && s != ""
}

// UserIDFromContext returns the caller's user id from the token's uid claim.
func UserIDFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(CtxKeyUserID).(string)
	return s, ok && s != ""
}

// ContextWithClaims injects the identity from verified claims, as
// AuthnMiddleware does.
func ContextWithClaims(ctx context.Context, c jwtx.Claims) context.Context {
	ctx = context.WithValue(ctx, CtxKeySubject, c.Subject)
	ctx = context.WithValue(ctx, CtxKeyUserID, c.UserID)
	return ctx
}
