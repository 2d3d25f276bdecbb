package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HTTP_ADDR", "CALC_MAX_DIGITS", "CALC_PRECISION", "SESSION_IDLE_TTL", "SESSION_SWEEP_INTERVAL", "KEYMAP_FILE", "LOG_LEVEL", "OTEL_ENABLED"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != ":8080" {
		t.Fatalf("expected addr %q, got %q", ":8080", cfg.Addr)
	}
	if cfg.MaxDigits != 11 || cfg.Precision != 2 {
		t.Fatalf("expected max digits 11 and precision 2, got %d and %d", cfg.MaxDigits, cfg.Precision)
	}
	if cfg.SessionIdleTTL != 30*time.Minute {
		t.Fatalf("expected idle ttl 30m, got %s", cfg.SessionIdleTTL)
	}
	if cfg.OTelEnabled {
		t.Fatal("expected OTel disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("CALC_MAX_DIGITS", "17")
	t.Setenv("CALC_PRECISION", "4")
	t.Setenv("SESSION_IDLE_TTL", "5m")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Addr != ":9090" || cfg.MaxDigits != 17 || cfg.Precision != 4 {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.SessionIdleTTL != 5*time.Minute {
		t.Fatalf("expected idle ttl 5m, got %s", cfg.SessionIdleTTL)
	}
	if !cfg.OTelEnabled || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if got := len(cfg.EngineOptions()); got != 2 {
		t.Fatalf("expected 2 engine options, got %d", got)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{key: "CALC_MAX_DIGITS", value: "0"},
		{key: "CALC_MAX_DIGITS", value: "18"},
		{key: "CALC_MAX_DIGITS", value: "eleven"},
		{key: "CALC_PRECISION", value: "-1"},
		{key: "SESSION_IDLE_TTL", value: "soon"},
		{key: "SESSION_SWEEP_INTERVAL", value: "-1s"},
		{key: "OTEL_ENABLED", value: "maybe"},
	}

	for _, tc := range tests {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}
