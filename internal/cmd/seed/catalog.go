package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
)

//go:embed rooms.yaml
var defaultCatalog []byte

// Catalog is the YAML room list loaded by the seed command.
type Catalog struct {
	Rooms []CatalogRoom `yaml:"rooms"`
}

// CatalogRoom is one room entry keyed by slug.
type CatalogRoom struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Location    string `yaml:"location"`
	Capacity    int    `yaml:"capacity"`
	Description string `yaml:"description"`
}

// LoadCatalog reads the catalog at path, or the built-in catalog when path is
// empty.
func LoadCatalog(path string) (Catalog, error) {
	data := defaultCatalog
	if path = strings.TrimSpace(path); path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return Catalog{}, fmt.Errorf("read catalog: %w", err)
		}
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a YAML catalog. Unknown keys and
// duplicate slugs are rejected.
func ParseCatalog(data []byte) (Catalog, error) {
	var catalog Catalog
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&catalog); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}
	if len(catalog.Rooms) == 0 {
		return Catalog{}, errors.New("catalog has no rooms")
	}
	seen := make(map[string]struct{}, len(catalog.Rooms))
	for i, room := range catalog.Rooms {
		normalized, err := domain.NormalizeRoomInput(room.input())
		if err != nil {
			return Catalog{}, fmt.Errorf("room %d (%q): %w", i, room.Slug, err)
		}
		if _, ok := seen[normalized.Slug]; ok {
			return Catalog{}, fmt.Errorf("room %d: duplicate slug %q", i, normalized.Slug)
		}
		seen[normalized.Slug] = struct{}{}
	}
	return catalog, nil
}

func (r CatalogRoom) input() domain.RoomInput {
	return domain.RoomInput{
		Slug:        r.Slug,
		Name:        r.Name,
		Location:    r.Location,
		Capacity:    r.Capacity,
		Description: r.Description,
	}
}
