// Package config loads settings from .env files and the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/seo-optimizer/traffic-engine/signals"
)

// Config holds everything main needs to wire the engine.
type Config struct {
	Port     string
	GinMode  string
	LogLevel string
	DevMode  bool
	DataDir  string

	KeywordAPIURL string
	KeywordAPIKey string
	SerpAPIURL    string
	SerpAPIKey    string

	ExternalTimeout  time.Duration
	FetchTimeout     time.Duration
	ThinContentBytes int

	RateLimitRPS   float64
	RateLimitBurst float64
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:             "8082",
		GinMode:          "release",
		LogLevel:         "info",
		DataDir:          "data",
		ExternalTimeout:  15 * time.Second,
		FetchTimeout:     15 * time.Second,
		ThinContentBytes: signals.DefaultMinHTMLLength,
		RateLimitRPS:     2,
		RateLimitBurst:   5,
	}
}

// LoadEnv reads .env.development, falling back to .env. Missing files are fine.
func LoadEnv() {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			zap.L().Debug("no .env file found, using environment variables")
		}
	}
}

// Load reads the .env files and then the environment.
func Load() (Config, error) {
	LoadEnv()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, so tests need not touch the
// process environment.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := Default()

	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	str("PORT", &cfg.Port)
	str("GIN_MODE", &cfg.GinMode)
	str("LOG_LEVEL", &cfg.LogLevel)
	str("DATA_DIR", &cfg.DataDir)
	str("KEYWORD_API_URL", &cfg.KeywordAPIURL)
	str("KEYWORD_API_KEY", &cfg.KeywordAPIKey)
	str("SERP_API_URL", &cfg.SerpAPIURL)
	str("SERP_API_KEY", &cfg.SerpAPIKey)
	cfg.DevMode = getenv("DEV_MODE") == "true"

	var err error
	if cfg.ExternalTimeout, err = duration(getenv, "EXTERNAL_TIMEOUT", cfg.ExternalTimeout); err != nil {
		return cfg, err
	}
	if cfg.FetchTimeout, err = duration(getenv, "FETCH_TIMEOUT", cfg.FetchTimeout); err != nil {
		return cfg, err
	}
	if v := getenv("THIN_CONTENT_BYTES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, eris.Errorf("invalid THIN_CONTENT_BYTES %q", v)
		}
		cfg.ThinContentBytes = n
	}
	if cfg.RateLimitRPS, err = positive(getenv, "RATE_LIMIT_RPS", cfg.RateLimitRPS); err != nil {
		return cfg, err
	}
	if cfg.RateLimitBurst, err = positive(getenv, "RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// BrandedEnabled reports whether both external services are configured.
func (c Config) BrandedEnabled() bool {
	return c.KeywordAPIURL != "" && c.KeywordAPIKey != "" && c.SerpAPIURL != "" && c.SerpAPIKey != ""
}

func duration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def, eris.Errorf("invalid %s %q", key, v)
	}
	return d, nil
}

func positive(getenv func(string) string, key string, def float64) (float64, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def, eris.Errorf("invalid %s %q", key, v)
	}
	return f, nil
}
