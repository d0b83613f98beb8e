package filter

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testSchema = Schema{
	"status":     {Column: "status"},
	"room_id":    {Column: "room_id"},
	"start_time": {Column: "starts_at", Type: Timestamp},
}

func TestParseEmpty(t *testing.T) {
	t.Parallel()

	cond, err := testSchema.Parse("   ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cond.Empty() {
		t.Fatalf("expected empty condition, got %+v", cond)
	}
}

func TestParseEquality(t *testing.T) {
	t.Parallel()

	cond, err := testSchema.Parse(`status = "PENDING"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "status = ?" {
		t.Fatalf("clause = %q", cond.Clause)
	}
	if len(cond.Params) != 1 || cond.Params[0] != "PENDING" {
		t.Fatalf("params = %v", cond.Params)
	}
}

func TestParseConjunctionWithTimestamp(t *testing.T) {
	t.Parallel()

	cond, err := testSchema.Parse(`room_id = "r1" AND start_time >= timestamp("2026-03-01T00:00:00Z")`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "(room_id = ? AND starts_at >= ?)" {
		t.Fatalf("clause = %q", cond.Clause)
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).UnixMilli()
	if len(cond.Params) != 2 || cond.Params[0] != "r1" || cond.Params[1] != want {
		t.Fatalf("params = %v", cond.Params)
	}
}

func TestParseDisjunction(t *testing.T) {
	t.Parallel()

	cond, err := testSchema.Parse(`status = "PENDING" OR status = "ACCEPTED"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cond.Clause != "(status = ? OR status = ?)" {
		t.Fatalf("clause = %q", cond.Clause)
	}
}

func TestParseNormalizesStringLiterals(t *testing.T) {
	t.Parallel()

	schema := Schema{"status": {Column: "status", Normalize: func(raw string) (string, error) {
		upper := strings.ToUpper(raw)
		if upper != "PENDING" && upper != "ACCEPTED" {
			return "", errors.New("unknown status")
		}
		return upper, nil
	}}}
	cond, err := schema.Parse(`status = "accepted"`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(cond.Params) != 1 || cond.Params[0] != "ACCEPTED" {
		t.Fatalf("params = %v", cond.Params)
	}
	if _, err := schema.Parse(`status = "approved"`); err == nil || !strings.Contains(err.Error(), "field status") {
		t.Fatalf("err = %v", err)
	}
}

func TestParseRejectsUnknownField(t *testing.T) {
	t.Parallel()

	if _, err := testSchema.Parse(`owner = "x"`); err == nil {
		t.Fatal("expected error for undeclared field")
	}
}

func TestParseRejectsSyntaxError(t *testing.T) {
	t.Parallel()

	if _, err := testSchema.Parse(`status = `); err == nil {
		t.Fatal("expected syntax error")
	}
}
