package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sadopc/smokebreak/internal/store"
	"github.com/spf13/viper"
)

// Config holds the process configuration. User-facing timer settings live in
// the durable store, not here.
type Config struct {
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`
	Redis   RedisConfig   `mapstructure:"redis" yaml:"redis"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// StorageConfig selects the durable store backend
type StorageConfig struct {
	Driver string `mapstructure:"driver" yaml:"driver"` // "sqlite" or "redis"
	Path   string `mapstructure:"path" yaml:"path"`
}

// RedisConfig defines Redis connection settings
type RedisConfig struct {
	Addr        string `mapstructure:"addr" yaml:"addr"`
	Password    string `mapstructure:"password" yaml:"password,omitempty"`
	DB          int    `mapstructure:"db" yaml:"db"`
	KeyPrefix   string `mapstructure:"key_prefix" yaml:"key_prefix"`
	DialTimeout string `mapstructure:"dial_timeout" yaml:"dial_timeout"`
}

// LoggingConfig defines logging behavior
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	File   string `mapstructure:"file" yaml:"file"`
}

// MetricsConfig defines the optional Prometheus listener used in headless mode
type MetricsConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DefaultDir returns ~/.config/smokebreak
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".smokebreak"
	}
	return filepath.Join(dir, "smokebreak")
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load loads configuration from file and environment variables. A missing
// file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SMOKEBREAK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	dir := DefaultDir()

	v.SetDefault("storage.driver", "sqlite")
	dbPath, err := store.DefaultDBPath()
	if err != nil {
		dbPath = filepath.Join(dir, "smokebreak.db")
	}
	v.SetDefault("storage.path", dbPath)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "smokebreak:")
	v.SetDefault("redis.dial_timeout", "5s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", filepath.Join(dir, "smokebreak.log"))

	v.SetDefault("metrics.addr", "")
}

func validate(cfg *Config) error {
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	switch cfg.Storage.Driver {
	case "sqlite":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage path is required for the sqlite driver")
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", cfg.Logging.Level)
	}

	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", cfg.Logging.Format)
	}

	return nil
}
