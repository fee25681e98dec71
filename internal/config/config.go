// Package config loads runtime settings from the environment, optionally seeded from a .env file.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvProduction is the SAEPE_ENV value that enables secure cookies and JSON logs.
const EnvProduction = "production"

// Config holds every setting the server and importer read at start-up.
type Config struct {
	Env           string
	Addr          string
	DBPath        string
	CSRFKey       string
	SessionKey    string
	AdminUsername string
	AdminEmail    string
	AdminPassword string
	ResendKey     string
	ResendFrom    string
	LogLevel      slog.Level
	SlowRequestMs int
	SlowQueryMs   int

	// TrustedOrigins are extra hosts allowed to post forms, e.g. behind a reverse proxy.
	TrustedOrigins []string
}

// IsProduction reports whether the server runs in production mode.
func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// LoadDotEnv loads path into the process environment when the file exists.
// Variables already set in the environment win over the file.
// POST: a missing file is not an error
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: load %s: %w", path, err)
	}
	return nil
}

// Load reads the SAEPE_* variables, applying defaults.
// PRE: LoadDotEnv has run if a .env file should be honoured
// POST: returns an error for malformed numeric or level values
func Load() (Config, error) {
	cfg := Config{
		Env:           envOrDefault("SAEPE_ENV", "development"),
		Addr:          envOrDefault("SAEPE_ADDR", ":8000"),
		DBPath:        envOrDefault("SAEPE_DB_PATH", "saepe.db"),
		CSRFKey:       os.Getenv("SAEPE_CSRF_KEY"),
		SessionKey:    os.Getenv("SAEPE_SESSION_KEY"),
		AdminUsername: envOrDefault("SAEPE_ADMIN_USERNAME", "admin"),
		AdminEmail:    envOrDefault("SAEPE_ADMIN_EMAIL", "admin@saepe.local"),
		AdminPassword: os.Getenv("SAEPE_ADMIN_PASSWORD"),
		ResendKey:     os.Getenv("SAEPE_RESEND_KEY"),
		ResendFrom:    envOrDefault("SAEPE_RESEND_FROM", "SAEPE <noreply@saepe.local>"),
		SlowRequestMs: 500,
		SlowQueryMs:   50,
	}
	for _, origin := range strings.Split(os.Getenv("SAEPE_TRUSTED_ORIGINS"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.TrustedOrigins = append(cfg.TrustedOrigins, origin)
		}
	}

	level, err := parseLevel(envOrDefault("SAEPE_LOG_LEVEL", "info"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	if cfg.SlowRequestMs, err = positiveInt("SAEPE_SLOW_REQUEST_MS", cfg.SlowRequestMs); err != nil {
		return Config{}, err
	}
	if cfg.SlowQueryMs, err = positiveInt("SAEPE_SLOW_QUERY_MS", cfg.SlowQueryMs); err != nil {
		return Config{}, err
	}

	if cfg.IsProduction() && cfg.SessionKey == "" {
		return Config{}, fmt.Errorf("config: SAEPE_SESSION_KEY is required in production")
	}
	return cfg, nil
}

func positiveInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("config: %s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(strings.TrimSpace(s)))); err != nil {
		return 0, fmt.Errorf("config: SAEPE_LOG_LEVEL: %w", err)
	}
	return level, nil
}

// NewLogger builds the process logger: JSON in production, text otherwise.
func NewLogger(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
