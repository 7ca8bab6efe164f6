package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/idilsaglam/medimanage/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Storage   StorageConfig   `yaml:"storage" mapstructure:"storage"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Reminders RemindersConfig `yaml:"reminders" mapstructure:"reminders"`
	Theme     string          `yaml:"theme" mapstructure:"theme"`
}

type StorageConfig struct {
	Driver    string `yaml:"driver" mapstructure:"driver"` // file | redis | memory
	Dir       string `yaml:"dir" mapstructure:"dir"`
	RedisURL  string `yaml:"redis_url" mapstructure:"redis_url"`
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

type LogConfig struct {
	Level string `yaml:"level" mapstructure:"level"`
	File  string `yaml:"file" mapstructure:"file"`
}

type RemindersConfig struct {
	PollInterval   time.Duration `yaml:"poll_interval" mapstructure:"poll_interval"`
	CancelOnDelete bool          `yaml:"cancel_on_delete" mapstructure:"cancel_on_delete"`
	PublishChannel string        `yaml:"publish_channel" mapstructure:"publish_channel"`
}

func DefaultConfig() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver:    "file",
			Dir:       defaultDataDir(),
			RedisURL:  "redis://localhost:6379/0",
			KeyPrefix: "medimanage:",
		},
		Log: LogConfig{Level: "info"},
		Reminders: RemindersConfig{
			PollInterval:   20 * time.Second,
			CancelOnDelete: true,
		},
		Theme: "classic",
	}
}

func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "medimanage")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".medimanage"
	}
	return filepath.Join(home, ".medimanage")
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.dir", cfg.Storage.Dir)
	v.SetDefault("storage.redis_url", cfg.Storage.RedisURL)
	v.SetDefault("storage.key_prefix", cfg.Storage.KeyPrefix)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("reminders.poll_interval", cfg.Reminders.PollInterval)
	v.SetDefault("reminders.cancel_on_delete", cfg.Reminders.CancelOnDelete)
	v.SetDefault("reminders.publish_channel", cfg.Reminders.PublishChannel)
	v.SetDefault("theme", cfg.Theme)
}

// Load reads config.yaml from path (when set) or the usual search paths,
// then applies MEDIMANAGE_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// Search paths
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "medimanage"))
		}
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "medimanage"))
		}
	}

	v.SetEnvPrefix("MEDIMANAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// no config file; defaults and env only
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Storage.Dir = expandHome(cfg.Storage.Dir)
	cfg.Log.File = expandHome(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "file":
		if c.Storage.Dir == "" {
			return fmt.Errorf("config: storage.dir is required for the file driver")
		}
	case "redis":
		if c.Storage.RedisURL == "" {
			return fmt.Errorf("config: storage.redis_url is required for the redis driver")
		}
	case "memory":
	default:
		return fmt.Errorf("config: storage.driver %q is invalid (must be file, redis, or memory)", c.Storage.Driver)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}
	if c.Reminders.PollInterval < time.Second || c.Reminders.PollInterval >= time.Minute {
		return fmt.Errorf("config: reminders.poll_interval %s must be between 1s and 59s", c.Reminders.PollInterval)
	}
	return nil
}
