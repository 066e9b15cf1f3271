package app

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/aussiebroadwan/forum/pkg/jwtx"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env                 string        `koanf:"env"`                   // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        `koanf:"log-level"`             // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        `koanf:"log-format"`            // Log format (json, text) (default: json)
	Port                int           `koanf:"port"`                  // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration `koanf:"shutdown-grace-period"` // Graceful shutdown timeout (default: 10s)

	DBDriver     string `koanf:"db-driver"` // sqlite or postgres (default: sqlite)
	DatabaseFile string `koanf:"db-file"`   // SQLite database file (default: ./forum.db)
	DatabaseURL  string `koanf:"db-url"`    // Postgres connection URL, required for the postgres driver

	JWTSecret     string        `koanf:"jwt-secret"`      // HMAC signing secret, at least 32 bytes
	JWTSecretFile string        `koanf:"jwt-secret-file"` // Alternative to JWTSecret: file holding the secret
	TokenTTL      time.Duration `koanf:"token-ttl"`       // Session token lifetime (default: 24h)
	Issuer        string        `koanf:"issuer"`          // iss claim for tokens (default: forum)
	PepperFile    string        `koanf:"pepper-file"`     // Password hashing pepper, generated if missing (default: ./pepper)
}

// defaultConfig returns the built-in defaults overlaid with environment
// variables.
func defaultConfig() Config {
	return Config{
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		DBDriver:            getEnvOrDefault("FORUM_DB_DRIVER", DriverSQLite),
		DatabaseFile:        getEnvOrDefault("FORUM_DB_FILE", "forum.db"),
		DatabaseURL:         os.Getenv("FORUM_DB_URL"),
		JWTSecret:           os.Getenv("FORUM_JWT_SECRET"),
		JWTSecretFile:       os.Getenv("FORUM_JWT_SECRET_FILE"),
		TokenTTL:            getEnvDurationOrDefault("FORUM_TOKEN_TTL", jwtx.DefaultSessionTTL),
		Issuer:              getEnvOrDefault("FORUM_ISSUER", "forum"),
		PepperFile:          getEnvOrDefault("FORUM_PEPPER_FILE", "pepper"),
	}
}

// RegisterFlags adds one flag per config key to fs. Flag defaults are the
// built-in defaults overlaid with the environment, so an unset flag never
// hides an environment variable.
func RegisterFlags(fs *pflag.FlagSet) {
	d := defaultConfig()

	fs.String("env", d.Env, "environment (dev, staging, prod)")
	fs.String("log-level", d.LogLevel, "log level (debug, info, warn, error)")
	fs.String("log-format", d.LogFormat, "log format (json, text)")
	fs.Int("port", d.Port, "HTTP listen port")
	fs.Duration("shutdown-grace-period", d.ShutdownGracePeriod, "graceful shutdown timeout")

	fs.String("db-driver", d.DBDriver, "database driver (sqlite, postgres)")
	fs.String("db-file", d.DatabaseFile, "SQLite database file")
	fs.String("db-url", d.DatabaseURL, "Postgres connection URL")

	fs.String("jwt-secret", d.JWTSecret, "HMAC signing secret (prefer --jwt-secret-file)")
	fs.String("jwt-secret-file", d.JWTSecretFile, "file containing the HMAC signing secret")
	fs.Duration("token-ttl", d.TokenTTL, "session token lifetime")
	fs.String("issuer", d.Issuer, "issuer claim written into tokens")
	fs.String("pepper-file", d.PepperFile, "password pepper file, generated if missing")
}

// LoadConfig resolves the configuration. Precedence from lowest to highest:
// defaults and environment, the YAML file at configFile (if any), then flags
// set explicitly on fs. A nil fs means no command line.
func LoadConfig(configFile string, fs *pflag.FlagSet) (Config, error) {
	if fs == nil {
		fs = pflag.NewFlagSet("forum", pflag.ContinueOnError)
		RegisterFlags(fs)
	}

	k := koanf.New(".")
	if configFile != "" {
		if err := k.Load(file.Provider(configFile), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", configFile, err)
		}
	}

	// Unchanged flags only fill keys the file did not set.
	if err := k.Load(posflag.Provider(fs, ".", k), nil); err != nil {
		return Config{}, fmt.Errorf("load flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration is usable before anything is opened.
func (c Config) Validate() error {
	if c.JWTSecret == "" && c.JWTSecretFile == "" {
		return fmt.Errorf("config: a signing secret is required (jwt-secret or jwt-secret-file)")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < jwtx.MinSecretLength {
		return fmt.Errorf("config: jwt-secret must be at least %d bytes", jwtx.MinSecretLength)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("config: token-ttl must be positive, got %s", c.TokenTTL)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			return fmt.Errorf("config: db-file is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: db-url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown db-driver %q", c.DBDriver)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
