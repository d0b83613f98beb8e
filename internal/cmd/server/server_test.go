package server

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	t.Setenv("ROOMDESK_SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("ROOMDESK_HEALTH_PORT", "9091")
	t.Setenv("ROOMDESK_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	fs := flag.NewFlagSet("roomdesk", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, []string{"-http-addr", ":9090", "-mail-max-attempts", "3"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, ":9090")
	}
	if cfg.HealthPort != 9091 {
		t.Fatalf("health port = %d, want 9091", cfg.HealthPort)
	}
	if cfg.MailMaxAttempts != 3 {
		t.Fatalf("mail max attempts = %d, want 3", cfg.MailMaxAttempts)
	}
	if cfg.DBPath != "data/roomdesk.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.SessionTTL != 12*time.Hour || cfg.MailPollInterval != 5*time.Second {
		t.Fatalf("durations = %s/%s", cfg.SessionTTL, cfg.MailPollInterval)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("allowed origins = %v", cfg.AllowedOrigins)
	}
}

func TestParseConfig_RequiresSessionSecret(t *testing.T) {
	t.Setenv("ROOMDESK_SESSION_SECRET", "")
	fs := flag.NewFlagSet("roomdesk", flag.ContinueOnError)

	if _, err := ParseConfig(fs, nil); err == nil {
		t.Fatal("expected missing session secret error")
	}
}

func TestParseConfig_RejectsUnknownFlag(t *testing.T) {
	t.Setenv("ROOMDESK_SESSION_SECRET", "0123456789abcdef0123456789abcdef")
	fs := flag.NewFlagSet("roomdesk", flag.ContinueOnError)
	fs.SetOutput(nopWriter{})

	if _, err := ParseConfig(fs, []string{"-nope"}); err == nil {
		t.Fatal("expected unknown flag error")
	}
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
