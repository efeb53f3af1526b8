package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultRequestTimeout   = 15 * time.Second
	defaultCacheTTL         = 5 * time.Minute
	defaultCacheSizeMB      = 32
	defaultLastInputHorizon = 30 * 24 * time.Hour
	defaultBarWeight        = 45.0
	defaultRedisPort        = "6379"
)

type Config struct {
	Environment string `toml:"environment"`

	// backend
	BackendURL     string   `toml:"backend_url"`
	RequestTimeout Duration `toml:"request_timeout"`

	// response cache
	CacheTTL    Duration `toml:"cache_ttl"`
	CacheSizeMB int      `toml:"cache_size_mb"`

	// last input memory
	LastInputHorizon Duration `toml:"last_input_horizon"`
	RedisHost        string   `toml:"redis_host"`
	RedisPort        string   `toml:"redis_port"`
	RedisDB          int      `toml:"redis_db"`

	BarWeight float64 `toml:"bar_weight"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// telemetry
	MetricsPort      int  `toml:"metrics_port"`
	HoneycombEnabled bool `toml:"honeycomb_enabled"`
}

// Duration is a time.Duration written as a Go duration string in TOML ("5m", "720h").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("parse duration [%s]: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		if t.Development == nil {
			return nil, fmt.Errorf("no development section")
		}
		t.Development.Environment = "development"
		return t.Development, nil
	case "prod", "production":
		if t.Production == nil {
			return nil, fmt.Errorf("no production section")
		}
		t.Production.Environment = "production"
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the env section, with
// defaults applied to everything left out.
func Load(env, path string) (*Config, error) {
	tomlBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file [%s]: %w", path, err)
	}
	return Parse(env, string(tomlBytes))
}

func Parse(env, tomlData string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(tomlData, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if cfg.BackendURL == "" {
		return nil, fmt.Errorf("backend_url not set for env [%s]", env)
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.RequestTimeout.Duration <= 0 {
		c.RequestTimeout.Duration = defaultRequestTimeout
	}
	if c.CacheTTL.Duration <= 0 {
		c.CacheTTL.Duration = defaultCacheTTL
	}
	if c.CacheSizeMB <= 0 {
		c.CacheSizeMB = defaultCacheSizeMB
	}
	if c.LastInputHorizon.Duration <= 0 {
		c.LastInputHorizon.Duration = defaultLastInputHorizon
	}
	if c.BarWeight <= 0 {
		c.BarWeight = defaultBarWeight
	}
	if c.RedisHost == "" {
		c.RedisHost = "localhost"
	}
	if c.RedisPort == "" {
		c.RedisPort = defaultRedisPort
	}
}

func (c *Config) CacheSizeBytes() int {
	return c.CacheSizeMB * 1024 * 1024
}
