package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"keypad-calc/internal/calculator"
)

// Config holds the runtime settings read from the environment.
type Config struct {
	Addr string

	MaxDigits int
	Precision int

	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration

	KeymapFile string

	LogLevel    string
	OTelEnabled bool
}

// Load reads the configuration from environment variables, applying
// defaults for unset ones.
func Load() (Config, error) {
	cfg := Config{
		Addr:                 getenv("HTTP_ADDR", ":8080"),
		KeymapFile:           os.Getenv("KEYMAP_FILE"),
		LogLevel:             getenv("LOG_LEVEL", "info"),
		MaxDigits:            calculator.DefaultMaxDigits,
		Precision:            calculator.DefaultPrecision,
		SessionIdleTTL:       30 * time.Minute,
		SessionSweepInterval: time.Minute,
	}

	var err error
	if cfg.MaxDigits, err = intEnv("CALC_MAX_DIGITS", cfg.MaxDigits, 1, 17); err != nil {
		return Config{}, err
	}
	if cfg.Precision, err = intEnv("CALC_PRECISION", cfg.Precision, 0, 8); err != nil {
		return Config{}, err
	}
	if cfg.SessionIdleTTL, err = durationEnv("SESSION_IDLE_TTL", cfg.SessionIdleTTL); err != nil {
		return Config{}, err
	}
	if cfg.SessionSweepInterval, err = durationEnv("SESSION_SWEEP_INTERVAL", cfg.SessionSweepInterval); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("OTEL_ENABLED"); v != "" {
		if cfg.OTelEnabled, err = strconv.ParseBool(v); err != nil {
			return Config{}, fmt.Errorf("OTEL_ENABLED: %w", err)
		}
	}

	return cfg, nil
}

// EngineOptions returns the calculator options matching the configuration.
func (c Config) EngineOptions() []calculator.Option {
	return []calculator.Option{
		calculator.WithMaxDigits(c.MaxDigits),
		calculator.WithPrecision(c.Precision),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback, lo, hi int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s: %d out of range [%d, %d]", key, n, lo, hi)
	}
	return n, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}

	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive, got %s", key, d)
	}
	return d, nil
}
