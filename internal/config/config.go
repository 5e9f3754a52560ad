// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	RedisAddr         string
	RedisDB           int
	RedisPassword     string
	ScriptPath        string
	APIKey            string
	Port              string
	MetricsAddr       string
	WorkerName        string
	WorkerQueue       string
	WorkerConcurrency int
	PollInterval      time.Duration
	LogLevel          string
}

func Load() Config {
	return Config{
		RedisAddr:         getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		RedisPassword:     getEnv("REDIS_PASSWORD", ""),
		ScriptPath:        getEnv("REQLESS_SCRIPT_PATH", "reqless.lua"),
		APIKey:            getEnv("API_KEY", ""),
		Port:              getEnv("PORT", "8080"),
		MetricsAddr:       getEnv("METRICS_ADDR", ":2112"),
		WorkerName:        getEnv("WORKER_NAME", defaultWorkerName()),
		WorkerQueue:       getEnv("WORKER_QUEUE", "default"),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 3),
		PollInterval:      getEnvDuration("POLL_INTERVAL", 5*time.Second),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	switch {
	case c.RedisAddr == "":
		return errors.New("config: REDIS_ADDR must not be empty")
	case c.RedisDB < 0:
		return fmt.Errorf("config: REDIS_DB must not be negative, got %d", c.RedisDB)
	case c.WorkerConcurrency <= 0:
		return fmt.Errorf("config: WORKER_CONCURRENCY must be positive, got %d", c.WorkerConcurrency)
	case c.PollInterval <= 0:
		return fmt.Errorf("config: POLL_INTERVAL must be positive, got %s", c.PollInterval)
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// NewLogger returns a JSON logger writing to stderr at the configured level.
// Unknown levels fall back to info.
func (c Config) NewLogger() *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("config: LOG_LEVEL %q: %w", s, err)
	}
	return level, nil
}

func defaultWorkerName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return fmt.Sprintf("%s-%d", host, os.Getpid())
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, err := fmt.Sscanf(v, "%d", &n)
		if err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
