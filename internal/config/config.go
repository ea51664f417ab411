// Package config loads service configuration from the environment, with an
// optional .env file underneath.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type LookupFunc func(string) (string, bool)

type Config struct {
	Service       ServiceConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	LLM           LLMConfig
	Observability ObservabilityConfig
	SecretKey     string
	Debug         bool
}

type ServiceConfig struct {
	Name string
}

type HTTPConfig struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

type DatabaseConfig struct {
	// URL is connected at startup when set.
	URL          string
	QueryTimeout time.Duration
}

type LLMConfig struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

type ObservabilityConfig struct {
	LogLevel slog.Level
	LogJSON  bool
}

// LoadFromEnv reads .env (if present) into the process environment without
// overriding existing variables, then loads from os.LookupEnv.
func LoadFromEnv(serviceName string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return Load(serviceName, os.LookupEnv)
}

func Load(serviceName string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		return Config{}, fmt.Errorf("lookup function is required")
	}

	cfg := defaults()
	if serviceName != "" {
		cfg.Service.Name = serviceName
	}

	var origins string
	steps := []func() error{
		func() error { return applyString(lookup, "ADDR", &cfg.HTTP.Address) },
		func() error { return applyDuration(lookup, "HTTP_READ_TIMEOUT", &cfg.HTTP.ReadTimeout) },
		func() error { return applyDuration(lookup, "HTTP_WRITE_TIMEOUT", &cfg.HTTP.WriteTimeout) },
		func() error { return applyDuration(lookup, "HTTP_IDLE_TIMEOUT", &cfg.HTTP.IdleTimeout) },
		func() error { return applyString(lookup, "CORS_ORIGINS", &origins) },
		func() error { return applyString(lookup, "DATABASE_URL", &cfg.Database.URL) },
		func() error { return applyDuration(lookup, "QUERY_TIMEOUT", &cfg.Database.QueryTimeout) },
		func() error { return applyString(lookup, "LLM_PROVIDER", &cfg.LLM.Provider) },
		// LLM_API_KEY wins over GOOGLE_API_KEY.
		func() error { return applyString(lookup, "GOOGLE_API_KEY", &cfg.LLM.APIKey) },
		func() error { return applyString(lookup, "LLM_API_KEY", &cfg.LLM.APIKey) },
		func() error { return applyString(lookup, "LLM_MODEL", &cfg.LLM.Model) },
		func() error { return applyString(lookup, "LLM_BASE_URL", &cfg.LLM.BaseURL) },
		func() error { return applyDuration(lookup, "LLM_TIMEOUT", &cfg.LLM.Timeout) },
		func() error { return applyString(lookup, "SECRET_KEY", &cfg.SecretKey) },
		// DEBUG wins over FLASK_DEBUG.
		func() error { return applyBool(lookup, "FLASK_DEBUG", &cfg.Debug) },
		func() error { return applyBool(lookup, "DEBUG", &cfg.Debug) },
		func() error { return applyBool(lookup, "LOG_JSON", &cfg.Observability.LogJSON) },
		func() error { return applyLogLevel(lookup, "LOG_LEVEL", &cfg.Observability.LogLevel) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return Config{}, err
		}
	}

	if origins != "" {
		cfg.HTTP.CORSOrigins = splitList(origins)
	}
	cfg.LLM.Provider = strings.ToLower(cfg.LLM.Provider)
	if cfg.Debug {
		cfg.Observability.LogLevel = slog.LevelDebug
	}

	if cfg.Service.Name == "" {
		return Config{}, fmt.Errorf("service name is required")
	}
	if cfg.HTTP.Address == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.Database.QueryTimeout < 0 {
		return Config{}, fmt.Errorf("invalid QUERY_TIMEOUT: must not be negative")
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Service: ServiceConfig{Name: "nlquery"},
		HTTP: HTTPConfig{
			Address:      ":5000",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
			IdleTimeout:  60 * time.Second,
			CORSOrigins:  []string{"*"},
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Timeout:  60 * time.Second,
		},
		Observability: ObservabilityConfig{
			LogLevel: slog.LevelInfo,
			LogJSON:  true,
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
