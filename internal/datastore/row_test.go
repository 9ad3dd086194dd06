package datastore

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRowAccessorsNormalizeDriverValues(t *testing.T) {
	id := uuid.New()
	row := Row{
		"id":         id,
		"rent":       json.Number("1250.50"),
		"deposit":    "800",
		"is_draft":   true,
		"start_date": "2024-01-01",
		"created_at": "2024-03-05T10:15:00.123456+00:00",
		"tags":       []any{"hvac", "urgent"},
		"unit":       map[string]any{"unit_number": "4B"},
		"tenants":    []any{map[string]any{"first_name": "Ada"}},
		"notes":      nil,
	}

	if row.UUID("id") != id {
		t.Fatalf("expected uuid round trip")
	}
	if row.Float("rent") != 1250.50 {
		t.Fatalf("expected rent 1250.50, got %v", row.Float("rent"))
	}
	if !row.Decimal("deposit").Equal(row.Decimal("deposit")) || row.Decimal("deposit").String() != "800" {
		t.Fatalf("expected decimal deposit 800, got %s", row.Decimal("deposit"))
	}
	if !row.Bool("is_draft") {
		t.Fatalf("expected is_draft true")
	}
	start, ok := row.Time("start_date")
	if !ok || !start.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start date %v", start)
	}
	if _, ok := row.Time("created_at"); !ok {
		t.Fatalf("expected jsonb timestamp to parse")
	}
	if got := row.StringSlice("tags"); len(got) != 2 || got[1] != "urgent" {
		t.Fatalf("unexpected tags %v", got)
	}
	if row.Nested("unit").String("unit_number") != "4B" {
		t.Fatalf("expected nested unit")
	}
	if list := row.NestedList("tenants"); len(list) != 1 || list[0].String("first_name") != "Ada" {
		t.Fatalf("unexpected nested list %v", list)
	}
	if row.StringPtr("notes") != nil {
		t.Fatalf("expected nil notes")
	}
	if !row.Has("notes") || row.Has("missing") {
		t.Fatalf("Has must distinguish null columns from absent ones")
	}
}

func TestParseTimeRejectsGarbage(t *testing.T) {
	for _, value := range []string{"", "soon", "2024-13-45"} {
		if _, ok := ParseTime(value); ok {
			t.Fatalf("expected %q to be rejected", value)
		}
	}
}

func TestIsUndefinedColumn(t *testing.T) {
	if !IsUndefinedColumn(ErrUndefinedColumn) {
		t.Fatalf("expected sentinel to match")
	}
	if IsUndefinedColumn(ErrNotFound) {
		t.Fatalf("not found is not an undefined column")
	}
}

func TestBuildWhereQualifiesAndNumbersArgs(t *testing.T) {
	args := make([]any, 0)
	where, err := buildWhere("t0", []Filter{
		Eq("unit_id", "u1"),
		In("id", []string{"a", "b"}),
		IsNull("deleted_at", true),
	}, &args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := ` WHERE t0."unit_id" = $1 AND t0."id"::text = ANY($2::text[]) AND t0."deleted_at" IS NULL`
	if where != want {
		t.Fatalf("unexpected where clause:\n got %s\nwant %s", where, want)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}

func TestNestedObjectBuildsJSONTree(t *testing.T) {
	counter := 0
	sql := nestedObject("t0", []Nested{
		{Name: "unit", Table: "units", LocalColumn: "unit_id", ForeignColumn: "id", Children: []Nested{
			{Name: "property", Table: "properties", LocalColumn: "property_id", ForeignColumn: "id"},
		}},
		{Name: "lease_tenants", Table: "lease_tenants", LocalColumn: "id", ForeignColumn: "lease_id", Many: true},
	}, &counter)

	want := `to_jsonb(t0) || jsonb_build_object(` +
		`'unit', (SELECT to_jsonb(t1) || jsonb_build_object('property', (SELECT to_jsonb(t2) FROM "properties" t2 WHERE t2."id" = t1."property_id" LIMIT 1)) FROM "units" t1 WHERE t1."id" = t0."unit_id" LIMIT 1), ` +
		`'lease_tenants', (SELECT COALESCE(jsonb_agg(to_jsonb(t3)), '[]'::jsonb) FROM "lease_tenants" t3 WHERE t3."lease_id" = t0."id"))`
	if sql != want {
		t.Fatalf("unexpected nested sql:\n got %s\nwant %s", sql, want)
	}
}
