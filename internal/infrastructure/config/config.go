package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	ListenAddr string `mapstructure:"LISTEN_ADDR"`

	BookingAPIURL     string        `mapstructure:"BOOKING_API_URL"`
	BookingAPITimeout time.Duration `mapstructure:"BOOKING_API_TIMEOUT"`
	BookingAPIRPS     float64       `mapstructure:"BOOKING_API_RPS"`

	SessionHashKeyB64  string        `mapstructure:"SESSION_HASH_KEY"`
	SessionBlockKeyB64 string        `mapstructure:"SESSION_BLOCK_KEY"`
	SessionIdleTTL     time.Duration `mapstructure:"SESSION_IDLE_TTL"`

	MetricsEnabled bool `mapstructure:"METRICS_ENABLED"`

	// decoded from the *_B64 fields by Load
	SessionHashKey  []byte `mapstructure:"-"`
	SessionBlockKey []byte `mapstructure:"-"`
}

var keys = []string{
	"ENV", "LOG_LEVEL", "LISTEN_ADDR",
	"BOOKING_API_URL", "BOOKING_API_TIMEOUT", "BOOKING_API_RPS",
	"SESSION_HASH_KEY", "SESSION_BLOCK_KEY", "SESSION_IDLE_TTL",
	"METRICS_ENABLED",
}

// Load reads tablebook.yaml from . or ./config when present, then lets
// environment variables override it.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("tablebook")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	return load(v)
}

// LoadFile reads an explicit config file plus environment overrides.
func LoadFile(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	v.AutomaticEnv()
	// AutomaticEnv only covers keys viper already knows about.
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LISTEN_ADDR", ":3000")
	v.SetDefault("BOOKING_API_URL", "http://localhost:8080")
	v.SetDefault("BOOKING_API_TIMEOUT", "10s")
	v.SetDefault("BOOKING_API_RPS", 5)
	v.SetDefault("SESSION_IDLE_TTL", "30m")
	v.SetDefault("METRICS_ENABLED", true)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.finish(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) finish() error {
	c.Env = strings.ToLower(strings.TrimSpace(c.Env))
	c.BookingAPIURL = strings.TrimSpace(c.BookingAPIURL)
	if c.BookingAPIURL == "" {
		return fmt.Errorf("config: BOOKING_API_URL is required")
	}
	if c.BookingAPITimeout <= 0 {
		return fmt.Errorf("config: BOOKING_API_TIMEOUT must be positive")
	}
	if c.BookingAPIRPS < 0 {
		return fmt.Errorf("config: BOOKING_API_RPS must not be negative")
	}
	if c.SessionIdleTTL <= 0 {
		return fmt.Errorf("config: SESSION_IDLE_TTL must be positive")
	}

	var err error
	if c.SessionHashKey, err = decodeKey("SESSION_HASH_KEY", c.SessionHashKeyB64); err != nil {
		return err
	}
	if c.SessionBlockKey, err = decodeKey("SESSION_BLOCK_KEY", c.SessionBlockKeyB64); err != nil {
		return err
	}
	if (c.SessionHashKey == nil || c.SessionBlockKey == nil) && !c.IsDevelopment() {
		return fmt.Errorf("config: SESSION_HASH_KEY and SESSION_BLOCK_KEY are required outside development (see `tablebook keys`)")
	}
	if c.SessionBlockKey != nil {
		switch len(c.SessionBlockKey) {
		case 16, 24, 32:
		default:
			return fmt.Errorf("config: SESSION_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(c.SessionBlockKey))
		}
	}
	return nil
}

func (c Config) IsDevelopment() bool { return c.Env == EnvDevelopment }

// decodeKey accepts standard or unpadded base64, or a path to a file holding
// it (k8s secret mounts).
func decodeKey(name, s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if b, err := os.ReadFile(s); err == nil {
		s = strings.TrimSpace(string(b))
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	b, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", name, err)
	}
	return b, nil
}
