package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"maps"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultSessionTTL is the lifetime of a session token when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// Claims is the decoded form of a session token. Only the claims the forum
// reads back are typed here; other extra claims survive signing but are
// dropped on decode.
type Claims struct {
	jwt.RegisteredClaims

	// UserID is the stable ULID of the user the token was issued to.
	UserID string `json:"uid,omitempty"`

	// Username at the time of issue. Informational only.
	Username string `json:"username,omitempty"`
}

// registered claim names that extra claims may never override.
var registered = []string{"sub", "iat", "exp", "nbf", "iss", "aud", "jti"}

// NewMapClaims builds the claim set for a new token. Extra claims are merged
// first so the registered claims always win.
func NewMapClaims(
	subject, issuer string,
	ttl time.Duration,
	now time.Time,
	extra map[string]any,
) jwt.MapClaims {
	c := make(jwt.MapClaims, len(extra)+len(registered))
	maps.Copy(c, extra)
	for _, k := range registered {
		delete(c, k)
	}

	c["sub"] = subject
	c["iat"] = jwt.NewNumericDate(now)
	c["exp"] = jwt.NewNumericDate(now.Add(ttl))
	c["jti"] = NewJTI()
	if issuer != "" {
		c["iss"] = issuer
	}
	return c
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. There
// might be a better way of doing this, but I'm being lazy and using random.
func NewJTI() string {
	var b [20]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}
