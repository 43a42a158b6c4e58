// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
	// Postgres connection URL; DATABASE_URL overrides it
	URL          string `yaml:"url,omitempty"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type Config struct {
	App struct {
		Name            string        `yaml:"name"`
		Environment     string        `yaml:"environment"`
		Port            int           `yaml:"port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`

	Profiles struct {
		// "db" keeps mapping profiles in the database, "redis" in Redis and
		// "memory" in the process only
		Backend string `yaml:"backend"`
	} `yaml:"profiles"`

	Redis struct {
		URL      string `yaml:"url"`
		Password string `yaml:"-"` // Loaded from environment
	} `yaml:"redis"`

	HTTP struct {
		CORSAllowOrigins  []string      `yaml:"cors_allow_origins"`
		RateLimitEnabled  bool          `yaml:"rate_limit_enabled"`
		RateLimitRequests int           `yaml:"rate_limit_requests"`
		RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
		TrustProxy        bool          `yaml:"trust_proxy"`
	} `yaml:"http"`

	Reminders struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
		// Window is how far back the first run looks for due alerts
		Window    time.Duration `yaml:"window"`
		Sender    string        `yaml:"sender"`
		Region    string        `yaml:"region"`
		AccessKey string        `yaml:"-"` // Loaded from environment
		SecretKey string        `yaml:"-"` // Loaded from environment
	} `yaml:"reminders"`

	// Fixtures seeds the roster and calendar at startup. Relative paths
	// resolve against the config file's directory.
	Fixtures struct {
		Path     string `yaml:"path"`
		SeedRefs bool   `yaml:"seed_refs"`
	} `yaml:"fixtures"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if cfg.Fixtures.Path != "" && !filepath.IsAbs(cfg.Fixtures.Path) {
		cfg.Fixtures.Path = filepath.Join(filepath.Dir(configPath), cfg.Fixtures.Path)
	}
	if cfg.Database.Driver == "sqlite" && cfg.Database.Filename != "" && !filepath.IsAbs(cfg.Database.Filename) {
		cfg.Database.Filename = filepath.Join(filepath.Dir(configPath), cfg.Database.Filename)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML, fills defaults and reads secrets from the environment.
// It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Load sensitive values from environment
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg.Database.URL = url
	}
	cfg.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Reminders.AccessKey = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Reminders.SecretKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.ShutdownTimeout == 0 {
		c.App.ShutdownTimeout = 30 * time.Second
	}
	if c.Profiles.Backend == "" {
		c.Profiles.Backend = "db"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.HTTP.RateLimitRequests == 0 {
		c.HTTP.RateLimitRequests = 120
	}
	if c.HTTP.RateLimitWindow == 0 {
		c.HTTP.RateLimitWindow = time.Minute
	}
	if c.Reminders.Cron == "" {
		c.Reminders.Cron = "*/15 * * * *"
	}
	if c.Reminders.Window == 0 {
		c.Reminders.Window = 15 * time.Minute
	}
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Profiles.Backend {
	case "db", "memory":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("redis URL is required for the redis profile backend")
		}
	default:
		return fmt.Errorf("unsupported profile backend: %s", c.Profiles.Backend)
	}

	if c.HTTP.RateLimitEnabled && c.HTTP.RateLimitRequests < 0 {
		return fmt.Errorf("rate limit requests must be positive")
	}

	if c.Reminders.Enabled && c.Reminders.Sender == "" {
		return fmt.Errorf("reminder sender is required when reminders are enabled")
	}

	return nil
}
