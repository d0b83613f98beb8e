// Package server parses roomdesk server configuration and launches the
// server runtime.
package server

import (
	"context"
	"flag"
	"time"

	entrypoint "github.com/roomdesk/roomdesk/internal/platform/cmd"
	"github.com/roomdesk/roomdesk/internal/platform/config"
	roomdesk "github.com/roomdesk/roomdesk/internal/services/roomdesk/app"
)

// Config holds server command configuration.
type Config struct {
	HTTPAddr         string        `env:"ROOMDESK_HTTP_ADDR"          envDefault:":8080"`
	HealthPort       int           `env:"ROOMDESK_HEALTH_PORT"        envDefault:"8081"`
	DBPath           string        `env:"ROOMDESK_DB_PATH"            envDefault:"data/roomdesk.db"`
	SessionSecret    string        `env:"ROOMDESK_SESSION_SECRET"`
	SessionTTL       time.Duration `env:"ROOMDESK_SESSION_TTL"        envDefault:"12h"`
	Issuer           string        `env:"ROOMDESK_ISSUER"`
	PublicURL        string        `env:"ROOMDESK_PUBLIC_URL"`
	AllowedOrigins   []string      `env:"ROOMDESK_ALLOWED_ORIGINS"    envSeparator:","`
	AdminEmail       string        `env:"ROOMDESK_ADMIN_EMAIL"`
	AdminPassword    string        `env:"ROOMDESK_ADMIN_PASSWORD"`
	AdminName        string        `env:"ROOMDESK_ADMIN_NAME"         envDefault:"Administrator"`
	NATSURL          string        `env:"ROOMDESK_NATS_URL"`
	NATSSubject      string        `env:"ROOMDESK_NATS_SUBJECT"       envDefault:"roomdesk.reservations.events"`
	SMTPAddr         string        `env:"ROOMDESK_SMTP_ADDR"`
	SMTPUsername     string        `env:"ROOMDESK_SMTP_USERNAME"`
	SMTPPassword     string        `env:"ROOMDESK_SMTP_PASSWORD"`
	SMTPFrom         string        `env:"ROOMDESK_SMTP_FROM"          envDefault:"roomdesk@localhost"`
	MailPollInterval time.Duration `env:"ROOMDESK_MAIL_POLL_INTERVAL" envDefault:"5s"`
	MailMaxAttempts  int           `env:"ROOMDESK_MAIL_MAX_ATTEMPTS"  envDefault:"6"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The HTTP listen address")
	fs.IntVar(&cfg.HealthPort, "health-port", cfg.HealthPort, "The gRPC health server port")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The roomdesk SQLite database path")
	fs.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "The externally visible base URL")
	fs.StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL for cross-instance push (optional)")
	fs.StringVar(&cfg.SMTPAddr, "smtp-addr", cfg.SMTPAddr, "SMTP relay host:port (empty logs mail instead)")
	fs.DurationVar(&cfg.MailPollInterval, "mail-poll-interval", cfg.MailPollInterval, "Email delivery poll interval")
	fs.IntVar(&cfg.MailMaxAttempts, "mail-max-attempts", cfg.MailMaxAttempts, "Maximum email delivery attempts")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	if err := config.RequireValues(
		"ROOMDESK_SESSION_SECRET", cfg.SessionSecret,
	); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the roomdesk server runtime.
func Run(ctx context.Context, cfg Config) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceServer, func(ctx context.Context) error {
		return roomdesk.Run(ctx, roomdesk.RuntimeConfig{
			HTTPAddr:         cfg.HTTPAddr,
			HealthPort:       cfg.HealthPort,
			DBPath:           cfg.DBPath,
			SessionSecret:    cfg.SessionSecret,
			SessionTTL:       cfg.SessionTTL,
			Issuer:           cfg.Issuer,
			PublicURL:        cfg.PublicURL,
			AllowedOrigins:   cfg.AllowedOrigins,
			AdminEmail:       cfg.AdminEmail,
			AdminPassword:    cfg.AdminPassword,
			AdminName:        cfg.AdminName,
			NATSURL:          cfg.NATSURL,
			NATSSubject:      cfg.NATSSubject,
			SMTPAddr:         cfg.SMTPAddr,
			SMTPUsername:     cfg.SMTPUsername,
			SMTPPassword:     cfg.SMTPPassword,
			SMTPFrom:         cfg.SMTPFrom,
			MailPollInterval: cfg.MailPollInterval,
			MailMaxAttempts:  cfg.MailMaxAttempts,
		})
	})
}
