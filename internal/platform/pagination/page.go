// Package pagination normalizes page sizes, AIP-132 order_by clauses and
// opaque offset page tokens for list views.
package pagination

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"go.einride.tech/aip/ordering"
)

// PageSizeConfig configures page size normalization.
type PageSizeConfig struct {
	Default int
	Max     int
}

// DefaultPageSize is the page size shared by roomdesk list views.
var DefaultPageSize = PageSizeConfig{Default: 20, Max: 100}

// ClampPageSize applies defaults and limits for page sizes.
func ClampPageSize(value int, cfg PageSizeConfig) int {
	pageSize := value
	if pageSize <= 0 {
		pageSize = cfg.Default
	}
	if cfg.Max > 0 && pageSize > cfg.Max {
		pageSize = cfg.Max
	}
	if pageSize <= 0 {
		pageSize = 1
	}
	return pageSize
}

// OrderByConfig configures order_by validation. Columns maps each allowed
// path to its SQL column; TieBreaker is appended to every ordering.
type OrderByConfig struct {
	Default    string
	Columns    map[string]string
	TieBreaker string
}

// SortField is one validated ordering term.
type SortField struct {
	Path   string
	Column string
	Desc   bool
}

// Ordering is a validated order_by clause.
type Ordering struct {
	Canonical string
	Fields    []SortField
}

// SQL renders the ORDER BY body, ending with the tie-breaker column.
func (o Ordering) SQL(tieBreaker string) string {
	parts := make([]string, 0, len(o.Fields)+1)
	lastDesc := false
	for _, field := range o.Fields {
		direction := "ASC"
		if field.Desc {
			direction = "DESC"
		}
		parts = append(parts, field.Column+" "+direction)
		lastDesc = field.Desc
	}
	if tieBreaker != "" {
		direction := "ASC"
		if lastDesc {
			direction = "DESC"
		}
		parts = append(parts, tieBreaker+" "+direction)
	}
	return strings.Join(parts, ", ")
}

// ParseOrderBy validates an AIP-132 order_by string and applies defaults.
func ParseOrderBy(raw string, cfg OrderByConfig) (Ordering, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		raw = cfg.Default
	}
	var orderBy ordering.OrderBy
	if err := orderBy.UnmarshalString(raw); err != nil {
		return Ordering{}, fmt.Errorf("invalid order_by %q: %w", raw, err)
	}
	paths := make([]string, 0, len(cfg.Columns))
	for path := range cfg.Columns {
		paths = append(paths, path)
	}
	if err := orderBy.ValidateForPaths(paths...); err != nil {
		return Ordering{}, fmt.Errorf("invalid order_by %q: %w", raw, err)
	}
	if len(orderBy.Fields) == 0 {
		return Ordering{}, fmt.Errorf("invalid order_by %q: no fields", raw)
	}

	result := Ordering{Fields: make([]SortField, 0, len(orderBy.Fields))}
	canonical := make([]string, 0, len(orderBy.Fields))
	for _, field := range orderBy.Fields {
		result.Fields = append(result.Fields, SortField{
			Path:   field.Path,
			Column: cfg.Columns[field.Path],
			Desc:   field.Desc,
		})
		if field.Desc {
			canonical = append(canonical, field.Path+" desc")
		} else {
			canonical = append(canonical, field.Path)
		}
	}
	result.Canonical = strings.Join(canonical, ", ")
	return result, nil
}

// PageToken is the decoded form of an opaque page token.
type PageToken struct {
	Offset   int    `json:"offset"`
	Checksum string `json:"checksum"`
}

// Checksum binds a token to the query parts that produced it.
func Checksum(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:8])
}

// EncodePageToken returns the opaque token for offset under checksum.
func EncodePageToken(offset int, checksum string) string {
	payload, err := json.Marshal(PageToken{Offset: offset, Checksum: checksum})
	if err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(payload)
}

// DecodePageToken returns the offset stored in token. An empty token is
// offset zero; a token minted for another query is rejected.
func DecodePageToken(token, checksum string) (int, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("decode page token: %w", err)
	}
	var decoded PageToken
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return 0, fmt.Errorf("decode page token: %w", err)
	}
	if decoded.Offset < 0 {
		return 0, fmt.Errorf("page token offset is negative")
	}
	if decoded.Checksum != checksum {
		return 0, fmt.Errorf("page token does not match request")
	}
	return decoded.Offset, nil
}
