// Package config loads the CLI configuration.
//
// Sources, lowest precedence first: built-in defaults, a YAML file, a .env
// file in the working directory, then JOBASSIST_* environment variables
// (for example JOBASSIST_API_BASE_URL for api.base_url).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "JOBASSIST"

// Session backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config is the effective configuration.
type Config struct {
	API      APIConfig      `yaml:"api" mapstructure:"api"`
	Session  SessionConfig  `yaml:"session" mapstructure:"session"`
	Defaults DefaultsConfig `yaml:"defaults" mapstructure:"defaults"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// APIConfig locates the backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"` // per command
}

// SessionConfig selects where the session is persisted.
type SessionConfig struct {
	Backend    string `yaml:"backend" mapstructure:"backend"`
	Dir        string `yaml:"dir" mapstructure:"dir"`
	Passphrase string `yaml:"passphrase" mapstructure:"passphrase"`
	DSN        string `yaml:"dsn" mapstructure:"dsn"`
	Profile    string `yaml:"profile" mapstructure:"profile"`
}

// DefaultsConfig pre-fills generation forms.
type DefaultsConfig struct {
	Model    string `yaml:"model" mapstructure:"model"`
	Provider string `yaml:"provider" mapstructure:"provider"`
	Language string `yaml:"language" mapstructure:"language"`
	Tone     string `yaml:"tone" mapstructure:"tone"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json | console
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		API:      APIConfig{BaseURL: "http://localhost:5000/api", Timeout: 2 * time.Minute},
		Session:  SessionConfig{Backend: BackendFile, Profile: "default"},
		Defaults: DefaultsConfig{Model: "gpt-4.1-mini", Provider: "openai", Language: "en", Tone: "formal"},
		Log:      LogConfig{Level: "warn", Format: "json"},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/jobassist/config.yaml, or ~/.config/jobassist/config.yaml.
func DefaultPath() string {
	if x := os.Getenv("XDG_CONFIG_HOME"); x != "" {
		return filepath.Join(x, "jobassist", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "jobassist", "config.yaml")
}

// Load builds the effective configuration. An explicit path must exist; the
// default path is optional.
func Load(path string) (Config, error) {
	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if explicit {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("session.backend", d.Session.Backend)
	v.SetDefault("session.dir", d.Session.Dir)
	v.SetDefault("session.passphrase", d.Session.Passphrase)
	v.SetDefault("session.dsn", d.Session.DSN)
	v.SetDefault("session.profile", d.Session.Profile)
	v.SetDefault("defaults.model", d.Defaults.Model)
	v.SetDefault("defaults.provider", d.Defaults.Provider)
	v.SetDefault("defaults.language", d.Defaults.Language)
	v.SetDefault("defaults.tone", d.Defaults.Tone)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if err := validation.ValidateStruct(&c.API,
		validation.Field(&c.API.BaseURL, validation.Required, is.URL),
		validation.Field(&c.API.Timeout, validation.Min(time.Duration(0))),
	); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := validation.ValidateStruct(&c.Session,
		validation.Field(&c.Session.Backend, validation.In(BackendFile, BackendPostgres)),
		validation.Field(&c.Session.DSN, validation.When(c.Session.Backend == BackendPostgres, validation.Required)),
		validation.Field(&c.Session.Passphrase, validation.When(c.Session.Backend == BackendPostgres,
			validation.Required.Error("is required to seal sessions stored in postgres"))),
		validation.Field(&c.Session.Profile, validation.Required),
	); err != nil {
		return fmt.Errorf("session: %w", err)
	}
	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Format, validation.In("json", "console")),
	); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() Config {
	if c.Session.Passphrase != "" {
		c.Session.Passphrase = "********"
	}
	if c.Session.DSN != "" {
		c.Session.DSN = "********"
	}
	return c
}

// YAML renders the redacted configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}
