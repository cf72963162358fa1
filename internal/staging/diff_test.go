package staging

import (
	"testing"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
)

func diffNames(changes []PropertyChange) []string {
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Property
	}
	return out
}

func TestDiffEntitiesBasic(t *testing.T) {
	old := catalog.Filament{Name: "Basic", Density: 1.24}
	updated := catalog.Filament{Name: "Basic", Density: 1.27, Discontinued: true}

	got := DiffEntities(old, updated)

	want := map[string]bool{"density": true, "discontinued": true}
	if len(got) != len(want) {
		t.Fatalf("diff = %v, want fields %v", diffNames(got), want)
	}
	for _, c := range got {
		if !want[c.Property] {
			t.Errorf("unexpected diff field %q", c.Property)
		}
	}
}

func TestDiffEntitiesIdentical(t *testing.T) {
	e := catalog.Variant{ColorName: "Galaxy Black", ColorHex: "#000000"}
	if got := DiffEntities(e, e); len(got) != 0 {
		t.Errorf("identical entities diffed: %v", diffNames(got))
	}
}

func TestDiffEntitiesEmptyEquivalence(t *testing.T) {
	// nil slice vs empty slice vs absent field: all mutually empty.
	old := catalog.Store{ID: "s1", ShipsFrom: nil}
	updated := catalog.Store{ID: "s1", ShipsFrom: []string{}}

	if got := DiffEntities(old, updated); len(got) != 0 {
		t.Errorf("empty-equivalent values diffed: %v", diffNames(got))
	}

	// But empty vs non-empty is a real difference.
	updated.ShipsFrom = []string{"EU"}
	got := DiffEntities(old, updated)
	if len(got) != 1 || got[0].Property != "ships_from" {
		t.Errorf("diff = %v, want ships_from", diffNames(got))
	}
}

func TestDiffEntitiesExcludesManagedFields(t *testing.T) {
	old := catalog.Filament{Name: "Basic", Slug: "basic", BrandID: "Acme", MaterialID: "PLA"}
	updated := catalog.Filament{Name: "Basic", Slug: "other", BrandID: "Apex", MaterialID: "PETG"}

	if got := DiffEntities(old, updated); len(got) != 0 {
		t.Errorf("managed fields leaked into the diff: %v", diffNames(got))
	}
}

func TestDiffEntitiesNestedDottedNames(t *testing.T) {
	old := catalog.Variant{
		ColorName: "Red",
		Traits:    map[string]any{"finish": "matte", "glow": false},
	}
	updated := catalog.Variant{
		ColorName: "Red",
		Traits:    map[string]any{"finish": "glossy", "glow": false},
	}

	got := DiffEntities(old, updated)
	if len(got) != 1 {
		t.Fatalf("diff = %v, want one change", diffNames(got))
	}
	if got[0].Property != "traits.finish" {
		t.Errorf("property = %q, want traits.finish", got[0].Property)
	}
	if got[0].OldValue != "matte" || got[0].NewValue != "glossy" {
		t.Errorf("values = %v -> %v", got[0].OldValue, got[0].NewValue)
	}
}

func TestDiffEntitiesAgainstNil(t *testing.T) {
	updated := catalog.Brand{Name: "Acme", Website: "https://acme.example"}
	got := DiffEntities(nil, updated)

	fields := make(map[string]bool)
	for _, c := range got {
		fields[c.Property] = true
	}
	if !fields["name"] || !fields["website"] {
		t.Errorf("diff against nil missing fields: %v", diffNames(got))
	}
}

func TestDiffEntitiesArraysAsWholeValues(t *testing.T) {
	old := catalog.Variant{ColorName: "Red", HexVariants: []string{"#F00", "#E00"}}
	updated := catalog.Variant{ColorName: "Red", HexVariants: []string{"#F00"}}

	got := DiffEntities(old, updated)
	if len(got) != 1 || got[0].Property != "hex_variants" {
		t.Fatalf("diff = %v, want a single hex_variants change", diffNames(got))
	}
}

func TestIsEmptyValue(t *testing.T) {
	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, true},
		{"empty string", "", true},
		{"empty array", []any{}, true},
		{"empty object", map[string]any{}, true},
		{"zero number", float64(0), false},
		{"false", false, false},
		{"string", "x", false},
		{"array", []any{1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isEmptyValue(tt.v); got != tt.want {
				t.Errorf("isEmptyValue(%v) = %v, want %v", tt.v, got, tt.want)
			}
		})
	}
}
