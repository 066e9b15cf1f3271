package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aussiebroadwan/forum/pkg/jwtx"
)

// LoadSigningSecret returns the HMAC secret. An inline secret wins over the
// secret file; surrounding whitespace in the file is ignored.
func LoadSigningSecret(cfg Config) ([]byte, string, error) {
	if cfg.JWTSecret != "" {
		return []byte(cfg.JWTSecret), "config", nil
	}
	if cfg.JWTSecretFile == "" {
		return nil, "", fmt.Errorf("no signing secret configured")
	}

	b, err := os.ReadFile(filepath.Clean(cfg.JWTSecretFile))
	if err != nil {
		return nil, "", fmt.Errorf("read signing secret: %w", err)
	}
	return []byte(strings.TrimSpace(string(b))), "file", nil
}

// InitSigner builds the HS256 signer shared by token issuance and the
// bearer-token middleware.
func InitSigner(cfg Config, logger *slog.Logger) (*jwtx.HS256, error) {
	secret, source, err := LoadSigningSecret(cfg)
	if err != nil {
		return nil, err
	}

	signer, err := jwtx.NewHS256(secret, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token signer: %w", err)
	}

	logger.Info("token signer ready",
		"algorithm", signer.Alg(),
		"issuer", cfg.Issuer,
		"secret_source", source,
		"token_ttl", cfg.TokenTTL,
	)
	return signer, nil
}
