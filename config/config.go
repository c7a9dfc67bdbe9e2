package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Reconciler   ReconcilerConfig   `yaml:"reconciler"`
	SessionStore SessionStoreConfig `yaml:"session_store"`
	Seed         SeedConfig         `yaml:"seed"`
	Cache        CacheConfig        `yaml:"cache"`
	Database     DatabaseConfig     `yaml:"database"`
	Push         PushConfig         `yaml:"push"`
	WorkerPool   WorkerPoolConfig   `yaml:"worker_pool"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// ReconcilerConfig controls the periodic refresh of local table state.
type ReconcilerConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// SessionStoreConfig describes how to reach the authoritative session store.
type SessionStoreConfig struct {
	BaseURL        string            `yaml:"base_url"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
	Headers        map[string]string `yaml:"headers"`
}

// SeedConfig is the default floor layout used when the remote store is empty.
type SeedConfig struct {
	TimedCount  int    `yaml:"timed_count"`
	TimedPrefix string `yaml:"timed_prefix"`
	FlatCount   int    `yaml:"flat_count"`
	FlatPrefix  string `yaml:"flat_prefix"`
}

// CacheConfig holds the paths of the two local fallback cache files.
type CacheConfig struct {
	TimerPath     string `yaml:"timer_path"`
	ThresholdPath string `yaml:"threshold_path"`
}

// DatabaseConfig holds the session journal database configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"`
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// PushConfig holds the VAPID keys for web push alert notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the alert worker pool.
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

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 2
	}

	if cfg.Reconciler.IntervalSeconds <= 0 {
		cfg.Reconciler.IntervalSeconds = 15
	}
	cfg.Reconciler.Interval = time.Duration(cfg.Reconciler.IntervalSeconds) * time.Second

	if cfg.SessionStore.TimeoutSeconds <= 0 {
		cfg.SessionStore.TimeoutSeconds = 10
	}

	if cfg.Seed.TimedCount <= 0 {
		cfg.Seed.TimedCount = 8
	}
	if cfg.Seed.TimedPrefix == "" {
		cfg.Seed.TimedPrefix = "Billiard"
	}
	if cfg.Seed.FlatCount <= 0 {
		cfg.Seed.FlatCount = 6
	}
	if cfg.Seed.FlatPrefix == "" {
		cfg.Seed.FlatPrefix = "Bar"
	}

	if cfg.Cache.TimerPath == "" {
		cfg.Cache.TimerPath = "./data/timer_cache.json"
	}
	if cfg.Cache.ThresholdPath == "" {
		cfg.Cache.ThresholdPath = "./data/threshold_cache.json"
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "./data/floor.db"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}
	if cfg.WorkerPool.Size <= 0 {
		cfg.WorkerPool.Size = 1
	}
}
