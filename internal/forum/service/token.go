package service

import (
	"fmt"
	"time"

	"github.com/samber/oops"

	"github.com/aussiebroadwan/forum/pkg/jwtx"
)

// TokenService issues and checks session tokens. The subject of every token
// is the user's email.
type TokenService struct {
	Signer *jwtx.HS256
	TTL    time.Duration

	// Now overrides the clock, for tests. Nil means time.Now.
	Now func() time.Time
}

// Issue signs a new token for subject. Extra claims are merged in but can
// never override the registered ones.
func (s *TokenService) Issue(subject string, extra map[string]any) (string, error) {
	ttl := s.TTL
	if ttl <= 0 {
		ttl = jwtx.DefaultSessionTTL
	}

	claims := jwtx.NewMapClaims(subject, s.Signer.Issuer(), ttl, s.now(), extra)
	token, err := s.Signer.Sign(claims)
	if err != nil {
		return "", internal(err, "sign token")
	}
	return token, nil
}

// Verify reports whether token is authentic, unexpired and issued to
// expectedSubject.
func (s *TokenService) Verify(token, expectedSubject string) bool {
	subject, err := s.ExtractSubject(token)
	return err == nil && subject == expectedSubject
}

// ExtractSubject verifies token and returns its subject. Failures wrap
// ErrInvalidToken together with the jwtx cause (ErrMalformed, ErrInvalidSig,
// ErrExpired, ...).
func (s *TokenService) ExtractSubject(token string) (string, error) {
	claims, err := s.Signer.Verify(token)
	if err != nil {
		return "", oops.
			Code(CodeInvalidToken).
			Public("invalid token").
			Wrap(fmt.Errorf("%w: %w", ErrInvalidToken, err))
	}
	if claims.Subject == "" {
		return "", fail(ErrInvalidToken, "token has no subject")
	}
	return claims.Subject, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
