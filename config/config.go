// Package config loads aira settings from defaults, an optional YAML file
// and AIRA_* environment variables using viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fwojciec/aira"
	airahttp "github.com/fwojciec/aira/http"
	"github.com/fwojciec/aira/markdown"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. AIRA_URL.
const EnvPrefix = "AIRA"

// Config holds the client settings.
type Config struct {
	URL            string        `mapstructure:"url"`
	Debounce       time.Duration `mapstructure:"debounce"`
	Cursor         bool          `mapstructure:"cursor"`
	Highlight      bool          `mapstructure:"highlight"`
	HighlightStyle string        `mapstructure:"highlight_style"`
	Malformed      string        `mapstructure:"malformed"`
	OnFailure      string        `mapstructure:"on_failure"`
	History        int           `mapstructure:"history"`
	LogFile        string        `mapstructure:"log_file"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// New returns a viper instance with defaults and environment overrides set.
// Callers may bind flags to it before passing it to Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault("url", airahttp.DefaultBaseURL)
	v.SetDefault("debounce", markdown.DefaultWindow)
	v.SetDefault("cursor", true)
	v.SetDefault("highlight", true)
	v.SetDefault("highlight_style", "monokai")
	v.SetDefault("malformed", "log")
	v.SetDefault("on_failure", "keep")
	v.SetDefault("history", aira.DefaultHistoryLimit)
	v.SetDefault("log_file", "")
	v.SetDefault("timeout", time.Duration(0))

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file at path into v. An empty path searches the
// default locations; a missing file there is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "aira"))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("config: url is required: %w", aira.ErrValidation)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("config: debounce must not be negative: %w", aira.ErrValidation)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("config: timeout must not be negative: %w", aira.ErrValidation)
	}
	if c.History < 1 {
		return fmt.Errorf("config: history must be at least 1: %w", aira.ErrValidation)
	}
	if _, err := aira.ParseMalformedPolicy(c.Malformed); err != nil {
		return fmt.Errorf("config: malformed: %w", err)
	}
	if _, err := aira.ParseFailurePolicy(c.OnFailure); err != nil {
		return fmt.Errorf("config: on_failure: %w", err)
	}
	return nil
}

// ControllerOptions converts the settings to controller options.
func (c *Config) ControllerOptions() ([]aira.Option, error) {
	malformed, err := aira.ParseMalformedPolicy(c.Malformed)
	if err != nil {
		return nil, err
	}
	failure, err := aira.ParseFailurePolicy(c.OnFailure)
	if err != nil {
		return nil, err
	}
	return []aira.Option{
		aira.WithDebounce(c.Debounce),
		aira.WithMalformedPolicy(malformed),
		aira.WithFailurePolicy(failure),
		aira.WithSession(&aira.Session{HistoryLimit: c.History}),
	}, nil
}
