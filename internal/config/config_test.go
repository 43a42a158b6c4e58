package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadResolvesRelativePathsAndDefaults(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	body := `app:
  name: "VolleyTech"
  port: 8080
database:
  driver: "sqlite"
  filename: "data/volleytech.db"
http:
  rate_limit_window: "30s"
fixtures:
  path: "fixtures.yaml"
`
	if err := os.WriteFile(configPath, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.App.Environment != "development" {
		t.Fatalf("environment = %q, want development", cfg.App.Environment)
	}
	if cfg.Database.Filename != filepath.Join(dir, "data/volleytech.db") {
		t.Fatalf("filename = %q", cfg.Database.Filename)
	}
	if cfg.Fixtures.Path != filepath.Join(dir, "fixtures.yaml") {
		t.Fatalf("fixtures path = %q", cfg.Fixtures.Path)
	}
	if cfg.HTTP.RateLimitWindow != 30*time.Second {
		t.Fatalf("rate limit window = %v", cfg.HTTP.RateLimitWindow)
	}
	if cfg.Profiles.Backend != "db" {
		t.Fatalf("profile backend = %q, want db", cfg.Profiles.Backend)
	}
}

func TestParseReadsSecretsFromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/volleytech?sslmode=disable")
	t.Setenv("REDIS_PASSWORD", "hunter2")

	cfg, err := Parse([]byte("app:\n  name: x\n  port: 1\ndatabase:\n  driver: postgres\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/volleytech?sslmode=disable" {
		t.Fatalf("database url = %q", cfg.Database.URL)
	}
	if cfg.Redis.Password != "hunter2" {
		t.Fatalf("redis password not loaded")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "missing name", body: "app:\n  port: 1\n", wantErr: "app name is required"},
		{name: "unknown driver", body: "app:\n  name: x\n  port: 1\ndatabase:\n  driver: mysql\n", wantErr: "unsupported database driver"},
		{name: "redis without url", body: "app:\n  name: x\n  port: 1\ndatabase:\n  driver: sqlite\n  filename: a.db\nprofiles:\n  backend: redis\n", wantErr: "redis URL is required"},
		{name: "unknown profile backend", body: "app:\n  name: x\n  port: 1\ndatabase:\n  driver: sqlite\n  filename: a.db\nprofiles:\n  backend: s3\n", wantErr: "unsupported profile backend"},
		{name: "reminders without sender", body: "app:\n  name: x\n  port: 1\ndatabase:\n  driver: sqlite\n  filename: a.db\nreminders:\n  enabled: true\n", wantErr: "reminder sender is required"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg, err := Parse([]byte(test.body))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, test.wantErr)
			}
		})
	}
}
