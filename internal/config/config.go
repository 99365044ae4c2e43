package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FranksOps/simpleflickr/internal/fingerprint"
	"github.com/FranksOps/simpleflickr/internal/storage"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names, e.g.
// SIMPLEFLICKR_FLICKR_RPS for flickr.rps.
const EnvPrefix = "SIMPLEFLICKR"

// Image backends.
const (
	BackendFlickr = "flickr"
	BackendMock   = "mock"
)

var (
	ErrNoAPIKey       = errors.New("config: api_key is required for the flickr backend")
	ErrUnknownBackend = errors.New("config: unknown backend")
)

// Config is the complete application configuration.
type Config struct {
	APIKey   string  `mapstructure:"api_key"`
	Backend  string  `mapstructure:"backend"`
	PageSize int     `mapstructure:"page_size"`
	Flickr   Flickr  `mapstructure:"flickr"`
	History  History `mapstructure:"history"`
	Details  Details `mapstructure:"details"`
	Log      Log     `mapstructure:"log"`
	Metrics  Metrics `mapstructure:"metrics"`
}

type Flickr struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RPS        float64       `mapstructure:"rps"`
	Jitter     float64       `mapstructure:"jitter"`
	TLSProfile string        `mapstructure:"tls_profile"`
	UserAgent  string        `mapstructure:"user_agent"`
	// MockPages is the number of pages the mock backend serves.
	MockPages int `mapstructure:"mock_pages"`
}

type History struct {
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
}

type Details struct {
	RespectRobots bool `mapstructure:"respect_robots"`
}

type Log struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Metrics struct {
	// Port 0 disables the metrics server.
	Port int `mapstructure:"port"`
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api_key", "")
	v.SetDefault("backend", BackendFlickr)
	v.SetDefault("page_size", 20)
	v.SetDefault("flickr.base_url", "https://api.flickr.com/services/rest")
	v.SetDefault("flickr.timeout", 30*time.Second)
	v.SetDefault("flickr.rps", 0.0)
	v.SetDefault("flickr.jitter", 0.0)
	v.SetDefault("flickr.tls_profile", string(fingerprint.ProfileGo))
	v.SetDefault("flickr.user_agent", "")
	v.SetDefault("flickr.mock_pages", 5)
	v.SetDefault("history.driver", string(storage.DriverSQLite))
	v.SetDefault("history.dsn", "simpleflickr.db")
	v.SetDefault("details.respect_robots", true)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("metrics.port", 0)
}

// Load reads configuration from path (optional), the environment and
// whatever flags have been bound to v, in increasing precedence.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFlickr:
		if c.APIKey == "" {
			return ErrNoAPIKey
		}
	case BackendMock:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("config: page_size must be positive, got %d", c.PageSize)
	}
	if c.Flickr.RPS < 0 || c.Flickr.Jitter < 0 {
		return fmt.Errorf("config: flickr.rps and flickr.jitter must not be negative")
	}
	if _, err := fingerprint.ParseProfile(c.Flickr.TLSProfile); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := storage.ParseDriver(c.History.Driver); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("config: log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return fmt.Errorf("config: metrics.port out of range: %d", c.Metrics.Port)
	}
	return nil
}
