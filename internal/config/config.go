// Package config loads Focus Flow settings.
//
// Values come from built-in defaults, then ~/.focusflow/config.yaml (or the
// file named with --config), then FOCUS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/baiirun/focusflow/internal/quota"
)

// Config is the resolved configuration.
type Config struct {
	DBPath          string        `mapstructure:"db_path"`
	Owner           string        `mapstructure:"owner"`
	Plan            string        `mapstructure:"plan"`
	Listen          string        `mapstructure:"listen"`
	PromoteInterval time.Duration `mapstructure:"promote_interval"`
}

// EnvPrefix is prepended to every environment override, e.g. FOCUS_PLAN.
const EnvPrefix = "FOCUS"

// Dir returns the Focus Flow home directory (~/.focusflow).
func Dir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".focusflow")
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return filepath.Join(Dir(), "config.yaml")
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		DBPath:          filepath.Join(Dir(), "focus.db"),
		Owner:           defaultOwner(),
		Plan:            quota.Free.Name,
		Listen:          "127.0.0.1:8080",
		PromoteInterval: time.Minute,
	}
}

func defaultOwner() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "me"
}

// Load reads configuration. An empty path means DefaultPath; a missing
// default file is not an error, but a missing explicit file is.
func Load(path string) (*Config, error) {
	def := DefaultConfig()

	v := viper.New()
	v.SetDefault("db_path", def.DBPath)
	v.SetDefault("owner", def.Owner)
	v.SetDefault("plan", def.Plan)
	v.SetDefault("listen", def.Listen)
	v.SetDefault("promote_interval", def.PromoteInterval)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	if _, err := quota.PlanByName(c.Plan); err != nil {
		return err
	}
	if c.Owner == "" {
		return fmt.Errorf("owner must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.PromoteInterval <= 0 {
		return fmt.Errorf("promote_interval must be positive, got %s", c.PromoteInterval)
	}
	return nil
}
