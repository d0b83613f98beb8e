// Package seed loads the room catalog and bootstrap admin into a roomdesk
// database.
package seed

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	entrypoint "github.com/roomdesk/roomdesk/internal/platform/cmd"
	"github.com/roomdesk/roomdesk/internal/services/auth/account"
	authsqlite "github.com/roomdesk/roomdesk/internal/services/auth/storage/sqlite"
	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
	reservationsqlite "github.com/roomdesk/roomdesk/internal/services/reservation/storage/sqlite"
)

// Config holds seed command configuration.
type Config struct {
	DBPath        string `env:"ROOMDESK_DB_PATH"        envDefault:"data/roomdesk.db"`
	CatalogPath   string `env:"ROOMDESK_ROOM_CATALOG"`
	AdminEmail    string `env:"ROOMDESK_ADMIN_EMAIL"`
	AdminPassword string `env:"ROOMDESK_ADMIN_PASSWORD"`
	AdminName     string `env:"ROOMDESK_ADMIN_NAME"     envDefault:"Administrator"`
	List          bool
	Verbose       bool
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The roomdesk SQLite database path")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Room catalog YAML (default: built-in catalog)")
	fs.StringVar(&cfg.AdminEmail, "admin-email", cfg.AdminEmail, "Bootstrap admin email (optional)")
	fs.BoolVar(&cfg.List, "list", false, "print the catalog without writing")
	fs.BoolVar(&cfg.Verbose, "v", false, "verbose output")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run executes the seed command.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	catalog, err := LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return err
	}
	if cfg.List {
		for _, room := range catalog.Rooms {
			fmt.Fprintf(out, "%-16s %-20s capacity=%d\n", room.Slug, room.Name, room.Capacity)
		}
		return nil
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := reservationsqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open reservation sqlite store: %w", err)
	}
	defer store.Close()

	rooms := domain.NewService(store)
	for _, entry := range catalog.Rooms {
		room, err := rooms.UpsertRoomBySlug(ctx, entry.input())
		if err != nil {
			return fmt.Errorf("upsert room %q: %w", entry.Slug, err)
		}
		if cfg.Verbose {
			fmt.Fprintf(out, "room %s id=%s\n", room.Slug, room.ID)
		}
	}
	fmt.Fprintf(out, "seeded %d rooms\n", len(catalog.Rooms))

	if strings.TrimSpace(cfg.AdminEmail) == "" {
		return nil
	}
	return seedAdmin(ctx, cfg, out)
}

func seedAdmin(ctx context.Context, cfg Config, out io.Writer) error {
	if cfg.AdminPassword == "" {
		return fmt.Errorf("ROOMDESK_ADMIN_PASSWORD is required with an admin email")
	}
	store, err := authsqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open auth sqlite store: %w", err)
	}
	defer store.Close()

	admin, err := account.NewService(store, nil).EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword, cfg.AdminName)
	if err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	fmt.Fprintf(out, "admin %s ready\n", admin.Email)
	return nil
}
