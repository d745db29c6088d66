package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	Retention  RetentionConfig  `yaml:"retention"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	MigrateLegacyTokens    bool   `yaml:"migrate_legacy_tokens"`
}

// PushConfig selects and configures the delivery provider.
type PushConfig struct {
	// Provider is one of "fcm", "webpush" or "dryrun".
	Provider           string        `yaml:"provider"`
	CredentialsFile    string        `yaml:"credentials_file"`
	SendTimeoutSeconds int           `yaml:"send_timeout_seconds"`
	SendTimeout        time.Duration `yaml:"-"` // Ignored by YAML parser

	// VAPID settings, used only by the webpush provider.
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subject         string `yaml:"subject"`
	TTL             int    `yaml:"ttl"`
}

// RetentionConfig controls the token age-out sweep.
type RetentionConfig struct {
	Enabled              bool          `yaml:"enabled"`
	WindowDays           int           `yaml:"window_days"`
	Window               time.Duration `yaml:"-"`
	SweepIntervalSeconds int           `yaml:"sweep_interval_seconds"`
	SweepInterval        time.Duration `yaml:"-"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Push.Provider == "" {
		cfg.Push.Provider = "dryrun"
	}

	if cfg.Push.SendTimeoutSeconds <= 0 {
		cfg.Push.SendTimeoutSeconds = 5
	}
	cfg.Push.SendTimeout = time.Duration(cfg.Push.SendTimeoutSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Retention.WindowDays <= 0 {
		cfg.Retention.WindowDays = 7
	}
	cfg.Retention.Window = time.Duration(cfg.Retention.WindowDays) * 24 * time.Hour

	if cfg.Retention.SweepIntervalSeconds <= 0 {
		cfg.Retention.SweepIntervalSeconds = 3600
	}
	cfg.Retention.SweepInterval = time.Duration(cfg.Retention.SweepIntervalSeconds) * time.Second

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
