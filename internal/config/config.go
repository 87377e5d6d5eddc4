// Package config loads application settings from a YAML file and the
// environment. Environment variables override file values.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"http"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	JWT struct {
		Secret string `mapstructure:"secret"`
	} `mapstructure:"jwt"`
	Resend struct {
		APIKey string `mapstructure:"api_key"`
		From   string `mapstructure:"from"`
	} `mapstructure:"resend"`
	GCS struct {
		Bucket string `mapstructure:"bucket"`
	} `mapstructure:"gcs"`
	Gemini struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"gemini"`
	Jobs struct {
		Workers int `mapstructure:"workers"`
	} `mapstructure:"jobs"`
}

// Load reads config.yaml from the given directory (or ./configs when empty)
// and applies WEALTH_-prefixed environment overrides, e.g. WEALTH_DB_DSN.
func Load(dir string) (Config, error) {
	v := viper.New()
	if dir == "" {
		dir = "./configs"
	}
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("WEALTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("jobs.workers", 5)
	v.SetDefault("gemini.enabled", true)

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("config: read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.DB.DSN == "" {
		return Config{}, fmt.Errorf("config: db.dsn is required")
	}
	if cfg.JWT.Secret == "" {
		return Config{}, fmt.Errorf("config: jwt.secret is required")
	}

	return cfg, nil
}
