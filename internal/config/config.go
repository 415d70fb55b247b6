// Package config loads application configuration from environment variables.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable; unset variables fall back to defaults so the
// service starts with no configuration at all.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	ShutdownTimeout time.Duration // budget for draining in-flight requests
	MetricsEnabled  bool          // expose GET /metrics
	Cache           CacheConfig
	Events          EventsConfig
}

// Load reads an optional .env file and then the environment. Variables that
// are already set in the environment take precedence over the file.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config: could not read .env", "error", err)
	}
	return Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            port(),
		ShutdownTimeout: envDur("SHUTDOWN_TIMEOUT", 10*time.Second),
		MetricsEnabled:  envBool("METRICS_ENABLED", true),
		Cache:           LoadCacheConfig(),
		Events:          LoadEventsConfig(),
	}
}

// port prefers PORT, the variable most platforms inject, over APP_PORT.
func port() string {
	if v := os.Getenv("PORT"); v != "" {
		return v
	}
	return envStr("APP_PORT", "3000")
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
