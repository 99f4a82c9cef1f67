// Package config loads tada settings.
//
// Precedence, highest first: flags bound by the caller, TADA_* environment
// variables, the config file (~/.tada/config.yaml unless overridden), defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	dirName   = ".tada"
	fileName  = "config"
	fileType  = "yaml"
	envPrefix = "TADA"
)

// Default values.
const (
	DefaultBaseURL  = "http://localhost:8000"
	DefaultTimeout  = 10 * time.Second
	DefaultTheme    = "classic"
	DefaultLogLevel = "info"
	DefaultAddr     = ":8000"
	DefaultDatabase = "todo.db"
	DefaultOrigin   = "http://localhost:5173"
)

var themes = map[string]bool{"classic": true, "neon": true, "mono": true}

// Config is the resolved configuration.
type Config struct {
	BaseURL        string        `mapstructure:"base_url"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Theme          string        `mapstructure:"theme"`
	LogLevel       string        `mapstructure:"log_level"`
	LogFile        string        `mapstructure:"log_file"`
	StrictRefresh  bool          `mapstructure:"strict_refresh"`
	ToggleRollback bool          `mapstructure:"toggle_rollback"`
	Server         ServerConfig  `mapstructure:"server"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// ServerConfig configures `tada serve`.
type ServerConfig struct {
	Addr       string `mapstructure:"addr"`
	Database   string `mapstructure:"database"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

// Dir returns ~/.tada, or ./.tada when the home directory is unknown.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dirName
	}
	return filepath.Join(home, dirName)
}

// FilePath returns the default config file path.
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory with owner-only permissions.
func EnsureDir() error {
	if err := os.MkdirAll(Dir(), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	return nil
}

// NewViper returns a viper instance with defaults and environment binding.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("base_url", DefaultBaseURL)
	v.SetDefault("timeout", DefaultTimeout)
	v.SetDefault("theme", DefaultTheme)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("log_file", filepath.Join(Dir(), "tada.log"))
	v.SetDefault("strict_refresh", true)
	v.SetDefault("toggle_rollback", true)
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.database", DefaultDatabase)
	v.SetDefault("server.cors_origin", DefaultOrigin)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file into v and decodes the result. An explicit
// path must exist; the default path is optional.
func Load(v *viper.Viper, path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FilePath()
	}
	read := ""
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType(fileType)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		read = path
	} else if explicit || !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.File = read
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes and checks the resolved values.
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return errors.New("base_url is empty")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	c.Theme = strings.ToLower(strings.TrimSpace(c.Theme))
	if c.Theme == "" {
		c.Theme = DefaultTheme
	}
	if !themes[c.Theme] {
		return fmt.Errorf("unknown theme %q (classic|neon|mono)", c.Theme)
	}
	return nil
}

// Set writes one key to the config file at path, or the default file when
// path is empty. Only the file's own contents are rewritten; environment
// overrides, bound flags and defaults never land in it.
func Set(path, key, value string) error {
	if path == "" {
		if err := EnsureDir(); err != nil {
			return err
		}
		path = FilePath()
	} else if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	fv := viper.New()
	fv.SetConfigFile(path)
	fv.SetConfigType(fileType)
	if _, err := os.Stat(path); err == nil {
		if err := fv.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("config file %s: %w", path, err)
	}
	fv.Set(key, value)
	if err := fv.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
