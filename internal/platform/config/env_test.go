package config

import (
	"strings"
	"testing"
	"time"
)

type envTestConfig struct {
	Port     int           `env:"ROOMDESK_TEST_PORT" envDefault:"123"`
	Interval time.Duration `env:"ROOMDESK_TEST_INTERVAL" envDefault:"5s"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envTestConfig

	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Port != 123 {
		t.Fatalf("expected default port 123, got %d", cfg.Port)
	}
	if cfg.Interval != 5*time.Second {
		t.Fatalf("expected default interval 5s, got %s", cfg.Interval)
	}
}

func TestParseEnvError(t *testing.T) {
	var cfg envTestConfig
	t.Setenv("ROOMDESK_TEST_PORT", "not-an-int")

	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}

func TestRequireValues(t *testing.T) {
	if err := RequireValues("A", "x", "B", "y"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := RequireValues("A", "x", "ROOMDESK_SESSION_SECRET", "  ")
	if err == nil || !strings.Contains(err.Error(), "ROOMDESK_SESSION_SECRET is required") {
		t.Fatalf("expected missing key error, got %v", err)
	}
	if err := RequireValues("A"); err == nil {
		t.Fatal("expected odd argument error")
	}
}
