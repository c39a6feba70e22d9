// Package config loads client settings from a file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/vizee/gfeign/client"
	"github.com/vizee/gfeign/engine"
)

type Config struct {
	BaseURL string        `mapstructure:"base_url"`
	Client  ClientConfig  `mapstructure:"client"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ClientConfig struct {
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	FollowRedirects bool          `mapstructure:"follow_redirects"`
	Dismiss404      bool          `mapstructure:"dismiss404"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	// Format is console or json.
	Format string `mapstructure:"format"`
	// Requests is none, basic or headers.
	Requests string `mapstructure:"requests"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Load reads path, or gfeign.yaml in the working directory when path is
// empty. A missing default file is not an error. Environment variables
// prefixed with GFEIGN_ override file values, e.g. GFEIGN_CLIENT_READ_TIMEOUT.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := client.DefaultOptions()
	v.SetDefault("base_url", "")
	v.SetDefault("client.connect_timeout", defaults.ConnectTimeout)
	v.SetDefault("client.read_timeout", defaults.ReadTimeout)
	v.SetDefault("client.follow_redirects", defaults.FollowRedirects)
	v.SetDefault("client.dismiss404", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.requests", "none")
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.namespace", "gfeign")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("gfeign")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("gfeign")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.BaseURL != "" && !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("base_url must be an http or https URL, got: %s", cfg.BaseURL)
	}
	if cfg.Client.ReadTimeout < 0 || cfg.Client.ConnectTimeout < 0 {
		return errors.New("client timeouts must not be negative")
	}
	if _, err := ParseLogLevel(cfg.Log.Requests); err != nil {
		return err
	}
	return nil
}

func (c *ClientConfig) Options() client.Options {
	return client.Options{
		ConnectTimeout:  c.ConnectTimeout,
		ReadTimeout:     c.ReadTimeout,
		FollowRedirects: c.FollowRedirects,
	}
}

// ParseLogLevel maps none, basic and headers to engine log levels.
func ParseLogLevel(s string) (engine.LogLevel, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return engine.LogNone, nil
	case "basic":
		return engine.LogBasic, nil
	case "headers":
		return engine.LogHeaders, nil
	}
	return engine.LogNone, fmt.Errorf("unknown request log level %q", s)
}
