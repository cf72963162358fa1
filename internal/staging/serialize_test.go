package staging

import (
	"encoding/json"
	"testing"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

func TestSerializeRoundTrip(t *testing.T) {
	cs := NewChangeSet()
	cs.TrackCreate(entitypath.MustParse("brands/Acme"), catalog.Brand{Name: "Acme", Origin: "US"})
	cs.TrackUpdate(entitypath.MustParse("brands/Acme/materials/PLA"),
		catalog.Material{Material: "PLA"},
		catalog.Material{Material: "PLA", MaterialClass: "standard"})
	cs.TrackDelete(entitypath.MustParse("stores/old-store"), catalog.Store{ID: "old-store"})
	cs.AddImage(ImageRef{ID: "img1", EntityPath: "brands/Acme", Property: "logo", Filename: "logo.png", MimeType: "image/png", StorageKey: "img-img1"})

	data, err := cs.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	restored, err := Deserialize(data)
	if err != nil {
		t.Fatal(err)
	}

	if restored.Count() != cs.Count() {
		t.Fatalf("restored %d changes, want %d", restored.Count(), cs.Count())
	}

	// Index and node paths must be rebuilt.
	checkIndexConsistency(t, restored)

	brand := restored.ChangeAt(entitypath.MustParse("brands/Acme"))
	if brand == nil || brand.Operation != OpCreate {
		t.Fatal("brand creation lost")
	}
	if b, ok := brand.Data.(catalog.Brand); !ok || b.Origin != "US" {
		t.Errorf("brand payload decoded to %T %+v, want concrete catalog.Brand", brand.Data, brand.Data)
	}

	material := restored.ChangeAt(entitypath.MustParse("brands/Acme/materials/PLA"))
	if material == nil || material.Operation != OpUpdate {
		t.Fatal("material update lost")
	}
	if material.OriginalData == nil {
		t.Error("original snapshot lost in round trip")
	}
	if len(material.Properties) != 1 || material.Properties[0].Property != "material_class" {
		t.Errorf("properties lost: %+v", material.Properties)
	}

	if ref, ok := restored.Image("img1"); !ok || ref.StorageKey != "img-img1" {
		t.Error("image reference lost")
	}
	if restored.LastModified().IsZero() {
		t.Error("last-modified timestamp lost")
	}
}

func TestSerializeOmitsIndex(t *testing.T) {
	cs := NewChangeSet()
	cs.TrackCreate(entitypath.MustParse("brands/Acme"), catalog.Brand{Name: "Acme"})

	data, err := cs.Serialize()
	if err != nil {
		t.Fatal(err)
	}

	var record map[string]json.RawMessage
	if err := json.Unmarshal(data, &record); err != nil {
		t.Fatal(err)
	}
	if _, ok := record["index"]; ok {
		t.Error("derived index must never be persisted")
	}
	if _, ok := record["tree"]; !ok {
		t.Error("persisted record missing tree")
	}
}

func TestDeserializeEmpty(t *testing.T) {
	cs, err := Deserialize(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cs.Count() != 0 {
		t.Errorf("empty storage produced %d changes", cs.Count())
	}
	checkIndexConsistency(t, cs)
}

func TestDeserializeUnknownVersionResets(t *testing.T) {
	stale := []byte(`{"version":1,"tree":{"brands":{"key":"brands","children":{"Acme":{"key":"Acme","change":{"operation":"create","entity":{"type":"brand","path":"brands/Acme","id":"Acme"},"timestamp":"2026-01-01T00:00:00Z"}}}}},"last_modified":1700000000000}`)

	cs, err := Deserialize(stale)
	if err != nil {
		t.Fatal(err)
	}
	if cs.Count() != 0 {
		t.Errorf("unknown version must reset, got %d changes", cs.Count())
	}
}

func TestDeserializeMalformed(t *testing.T) {
	if _, err := Deserialize([]byte("{not json")); err == nil {
		t.Error("malformed storage must error, not silently reset")
	}
}

func TestClear(t *testing.T) {
	cs := NewChangeSet()
	cs.TrackCreate(entitypath.MustParse("brands/Acme"), catalog.Brand{Name: "Acme"})
	cs.TrackCreate(entitypath.MustParse("stores/s1"), catalog.Store{ID: "s1"})
	cs.AddImage(ImageRef{ID: "img1", EntityPath: "brands/Acme"})

	cs.Clear()

	if cs.Count() != 0 {
		t.Errorf("Clear left %d changes", cs.Count())
	}
	if len(cs.Images()) != 0 {
		t.Error("Clear left image references")
	}
	checkIndexConsistency(t, cs)

	// Roots survive and the set is reusable.
	cs.TrackCreate(entitypath.MustParse("brands/Apex"), catalog.Brand{Name: "Apex"})
	if cs.Count() != 1 {
		t.Error("change set unusable after Clear")
	}
}

func TestSummarize(t *testing.T) {
	cs := NewChangeSet()
	cs.TrackCreate(entitypath.MustParse("brands/Acme"), catalog.Brand{Name: "Acme"})
	cs.TrackUpdate(entitypath.MustParse("brands/Apex"),
		catalog.Brand{Name: "Apex"}, catalog.Brand{Name: "Apex", Origin: "SE"})
	cs.TrackDelete(entitypath.MustParse("stores/s1"), nil)
	cs.AddImage(ImageRef{ID: "img1"})

	s := cs.Summarize()
	if s.Creates != 1 || s.Updates != 1 || s.Deletes != 1 || s.Total != 3 || s.Images != 1 {
		t.Errorf("summary = %+v", s)
	}
}

func TestStatusOf(t *testing.T) {
	cs := NewChangeSet()
	cs.TrackCreate(entitypath.MustParse("brands/New"), catalog.Brand{Name: "New"})
	cs.TrackUpdate(entitypath.MustParse("brands/Mod"),
		catalog.Brand{Name: "Mod"}, catalog.Brand{Name: "Mod", Origin: "US"})
	cs.TrackDelete(entitypath.MustParse("brands/Gone"), nil)

	tests := []struct {
		path string
		want Status
	}{
		{"brands/New", StatusNew},
		{"brands/Mod", StatusModified},
		{"brands/Gone", StatusDeleted},
		{"brands/Plain", StatusUnchanged},
	}
	for _, tt := range tests {
		if got := cs.StatusOf(entitypath.MustParse(tt.path)); got != tt.want {
			t.Errorf("StatusOf(%s) = %q, want %q", tt.path, got, tt.want)
		}
	}
}
