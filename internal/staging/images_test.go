package staging

import (
	"testing"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

func TestSweepImagesPrefixSemantics(t *testing.T) {
	cs := NewChangeSet()
	cs.AddImage(ImageRef{ID: "a", EntityPath: "brands/Acme"})
	cs.AddImage(ImageRef{ID: "b", EntityPath: "brands/Acme/materials/PLA"})
	// Same string prefix but a different entity: must not be swept.
	cs.AddImage(ImageRef{ID: "c", EntityPath: "brands/Acme Filaments"})

	removed := cs.SweepImages(entitypath.MustParse("brands/Acme"))

	if len(removed) != 2 {
		t.Fatalf("swept %d references, want 2", len(removed))
	}
	if removed[0].ID != "a" || removed[1].ID != "b" {
		t.Errorf("swept IDs = %s, %s", removed[0].ID, removed[1].ID)
	}
	if _, ok := cs.Image("c"); !ok {
		t.Error("sibling with shared string prefix was swept")
	}
}

func TestSweepImagesNoMatch(t *testing.T) {
	cs := NewChangeSet()
	cs.AddImage(ImageRef{ID: "a", EntityPath: "brands/Acme"})

	if removed := cs.SweepImages(entitypath.MustParse("stores/s1")); len(removed) != 0 {
		t.Errorf("swept %d references from an unrelated path", len(removed))
	}
	if _, ok := cs.Image("a"); !ok {
		t.Error("unrelated reference disappeared")
	}
}

func TestRewriteImagePaths(t *testing.T) {
	cs := NewChangeSet()
	cs.AddImage(ImageRef{ID: "a", EntityPath: "brands/Acme"})
	cs.AddImage(ImageRef{ID: "b", EntityPath: "brands/Acme/materials/PLA"})
	cs.AddImage(ImageRef{ID: "c", EntityPath: "brands/Other"})

	cs.RewriteImagePaths(entitypath.MustParse("brands/Acme"), entitypath.MustParse("brands/Acme Filaments"))

	want := map[string]string{
		"a": "brands/Acme Filaments",
		"b": "brands/Acme Filaments/materials/PLA",
		"c": "brands/Other",
	}
	for id, wantPath := range want {
		ref, ok := cs.Image(id)
		if !ok {
			t.Fatalf("reference %s lost", id)
		}
		if ref.EntityPath != wantPath {
			t.Errorf("ref %s path = %q, want %q", id, ref.EntityPath, wantPath)
		}
	}
}

func TestImagesSorted(t *testing.T) {
	cs := NewChangeSet()
	cs.AddImage(ImageRef{ID: "z"})
	cs.AddImage(ImageRef{ID: "a"})
	cs.AddImage(ImageRef{ID: "m"})

	refs := cs.Images()
	if len(refs) != 3 || refs[0].ID != "a" || refs[1].ID != "m" || refs[2].ID != "z" {
		t.Errorf("Images not sorted by ID: %+v", refs)
	}
}
