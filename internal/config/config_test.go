package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLoad_Defaults verifies defaults apply when nothing is set.
func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SAEPE_ENV", "SAEPE_ADDR", "SAEPE_DB_PATH", "SAEPE_LOG_LEVEL", "SAEPE_SLOW_REQUEST_MS", "SAEPE_SLOW_QUERY_MS"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8000" || cfg.DBPath != "saepe.db" || cfg.Env != "development" {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want INFO", cfg.LogLevel)
	}
	if cfg.IsProduction() {
		t.Error("default env must not be production")
	}
	if cfg.SlowRequestMs != 500 || cfg.SlowQueryMs != 50 {
		t.Errorf("slow thresholds = %d/%d, want 500/50", cfg.SlowRequestMs, cfg.SlowQueryMs)
	}
}

// TestLoad_TrustedOrigins verifies the comma list is trimmed and blanks dropped.
func TestLoad_TrustedOrigins(t *testing.T) {
	t.Setenv("SAEPE_TRUSTED_ORIGINS", " saepe.gre.pe.gov.br , ,localhost:8000")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"saepe.gre.pe.gov.br", "localhost:8000"}
	if strings.Join(cfg.TrustedOrigins, "|") != strings.Join(want, "|") {
		t.Errorf("TrustedOrigins = %v, want %v", cfg.TrustedOrigins, want)
	}
}

// TestLoad_Invalid verifies malformed values are rejected.
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad level", map[string]string{"SAEPE_LOG_LEVEL": "loud"}},
		{"bad slow ms", map[string]string{"SAEPE_SLOW_REQUEST_MS": "-3"}},
		{"bad slow query ms", map[string]string{"SAEPE_SLOW_QUERY_MS": "fast"}},
		{"production without session key", map[string]string{"SAEPE_ENV": "production", "SAEPE_SESSION_KEY": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Error("expected error")
			}
		})
	}
}

// TestLoadDotEnv verifies the file is read and a missing file is ignored.
func TestLoadDotEnv(t *testing.T) {
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("missing file should be ignored: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("SAEPE_ADDR=:9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SAEPE_ADDR", "")
	os.Unsetenv("SAEPE_ADDR")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("SAEPE_ADDR"); got != ":9999" {
		t.Errorf("SAEPE_ADDR = %q, want :9999", got)
	}
}

// TestNewLogger verifies the handler format follows the environment.
func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(Config{Env: EnvProduction}, &buf).Info("hello")
	if !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("production logs should be JSON, got %q", buf.String())
	}

	buf.Reset()
	NewLogger(Config{}, &buf).Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Errorf("development logs should be text, got %q", buf.String())
	}
}
