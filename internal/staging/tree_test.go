package staging

import (
	"testing"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

// checkIndexConsistency verifies that the flat index and the trees describe
// exactly the same set of nodes, that every node's cached path matches its
// tree position, and that no empty non-root node survives.
func checkIndexConsistency(t *testing.T, cs *ChangeSet) {
	t.Helper()

	seen := make(map[string]*Node)
	var walk func(n *Node, parentPath string)
	walk = func(n *Node, parentPath string) {
		wantPath := n.Key
		if parentPath != "" {
			wantPath = parentPath + "/" + n.Key
		}
		if n.Path != wantPath {
			t.Errorf("node %q cached path = %q, want %q", n.Key, n.Path, wantPath)
		}
		if parentPath != "" && n.Change == nil && len(n.Children) == 0 {
			t.Errorf("dangling node left in tree at %q", n.Path)
		}
		seen[n.Path] = n
		for _, child := range n.Children {
			walk(child, n.Path)
		}
	}
	for _, root := range rootOrder {
		walk(cs.roots[root], "")
	}

	if len(seen) != len(cs.index) {
		t.Errorf("tree has %d nodes, index has %d", len(seen), len(cs.index))
	}
	for path, n := range cs.index {
		if seen[path] != n {
			t.Errorf("index entry %q does not point at the tree node", path)
		}
	}
}

func testChange(op Operation, path string, data catalog.Entity) (entitypath.Path, *Change) {
	p := entitypath.MustParse(path)
	return p, &Change{Operation: op, Entity: refFor(p), Data: data}
}

func TestSetAndRemoveChangePrunes(t *testing.T) {
	cs := NewChangeSet()
	p, change := testChange(OpUpdate, "brands/Acme/materials/PLA/filaments/Standard", catalog.Filament{Name: "Standard"})
	cs.SetChange(p, change)

	if got := cs.ChangeAt(p); got != change {
		t.Fatal("ChangeAt did not return the staged change")
	}
	// Intermediate container nodes exist and are indexed.
	if cs.index["brands/Acme/materials"] == nil {
		t.Fatal("intermediate container not indexed")
	}
	checkIndexConsistency(t, cs)

	cs.RemoveChange(p)

	if cs.ChangeAt(p) != nil {
		t.Fatal("change survived removal")
	}
	// The whole chain under brands should be gone: nothing else held it up.
	for _, path := range []string{
		"brands/Acme",
		"brands/Acme/materials",
		"brands/Acme/materials/PLA",
		"brands/Acme/materials/PLA/filaments",
		"brands/Acme/materials/PLA/filaments/Standard",
	} {
		if cs.index[path] != nil {
			t.Errorf("node %q not pruned", path)
		}
	}
	if len(cs.roots[entitypath.RootBrands].Children) != 0 {
		t.Error("brands root still has children")
	}
	checkIndexConsistency(t, cs)
}

func TestRemoveChangeStopsAtOccupiedAncestor(t *testing.T) {
	cs := NewChangeSet()
	brandPath, brandChange := testChange(OpUpdate, "brands/Acme", catalog.Brand{Name: "Acme"})
	cs.SetChange(brandPath, brandChange)
	matPath, matChange := testChange(OpCreate, "brands/Acme/materials/PLA", catalog.Material{Material: "PLA"})
	cs.SetChange(matPath, matChange)

	cs.RemoveChange(matPath)

	if cs.ChangeAt(brandPath) == nil {
		t.Fatal("ancestor change lost")
	}
	if cs.index["brands/Acme/materials"] != nil {
		t.Error("emptied materials container not pruned")
	}
	if cs.index["brands/Acme"] == nil {
		t.Error("brand node with a change was pruned")
	}
	checkIndexConsistency(t, cs)
}

func TestRemoveChangeMissingPathIsNoop(t *testing.T) {
	cs := NewChangeSet()
	cs.RemoveChange(entitypath.MustParse("brands/Nobody"))
	checkIndexConsistency(t, cs)
}

func TestRemoveDescendants(t *testing.T) {
	cs := NewChangeSet()
	brandPath, brandChange := testChange(OpUpdate, "brands/Acme", catalog.Brand{Name: "Acme"})
	cs.SetChange(brandPath, brandChange)
	p1, c1 := testChange(OpCreate, "brands/Acme/materials/PLA", catalog.Material{Material: "PLA"})
	cs.SetChange(p1, c1)
	p2, c2 := testChange(OpUpdate, "brands/Acme/materials/PETG/filaments/Basic", catalog.Filament{Name: "Basic"})
	cs.SetChange(p2, c2)

	removed := cs.RemoveDescendants(brandPath)

	if len(removed) != 2 {
		t.Fatalf("removed %d changes, want 2", len(removed))
	}
	if cs.ChangeAt(brandPath) != brandChange {
		t.Error("the node's own change must survive")
	}
	if cs.ChangeAt(p1) != nil || cs.ChangeAt(p2) != nil {
		t.Error("descendant changes survived")
	}
	if n := cs.NodeAt(brandPath); len(n.Children) != 0 {
		t.Error("descendant nodes survived")
	}
	checkIndexConsistency(t, cs)
}

func TestRemoveDescendantsPrunesEmptySelf(t *testing.T) {
	cs := NewChangeSet()
	p, c := testChange(OpCreate, "brands/Acme/materials/PLA", catalog.Material{Material: "PLA"})
	cs.SetChange(p, c)

	// brands/Acme itself holds no change; clearing its descendants must
	// prune it too.
	cs.RemoveDescendants(entitypath.MustParse("brands/Acme"))

	if cs.index["brands/Acme"] != nil {
		t.Error("empty node survived RemoveDescendants")
	}
	checkIndexConsistency(t, cs)
}

func TestMovePreservesSubtree(t *testing.T) {
	cs := NewChangeSet()
	oldPath, brandChange := testChange(OpUpdate, "brands/Acme", catalog.Brand{Name: "Acme Filaments"})
	cs.SetChange(oldPath, brandChange)
	matPath, matChange := testChange(OpCreate, "brands/Acme/materials/PLA", catalog.Material{Material: "PLA"})
	cs.SetChange(matPath, matChange)
	filPath, filChange := testChange(OpUpdate, "brands/Acme/materials/PLA/filaments/Basic", catalog.Filament{Name: "Basic"})
	cs.SetChange(filPath, filChange)

	newPath := entitypath.MustParse("brands/Acme Filaments")
	if !cs.Move(oldPath, newPath, refFor(newPath)) {
		t.Fatal("Move reported nothing to move")
	}

	if cs.NodeAt(oldPath) != nil {
		t.Error("old path still resolves")
	}
	moved := cs.ChangeAt(newPath)
	if moved != brandChange {
		t.Fatal("moved change is not the original object")
	}
	if moved.Entity.Path != "brands/Acme Filaments" || moved.Entity.ID != "Acme Filaments" {
		t.Errorf("entity ref not rewritten: %+v", moved.Entity)
	}

	// Descendants must follow with rewritten paths, same change objects.
	newMat := cs.ChangeAt(entitypath.MustParse("brands/Acme Filaments/materials/PLA"))
	if newMat != matChange {
		t.Error("material change did not follow the move")
	}
	if newMat.Entity.Path != "brands/Acme Filaments/materials/PLA" {
		t.Errorf("descendant entity path = %q", newMat.Entity.Path)
	}
	newFil := cs.ChangeAt(entitypath.MustParse("brands/Acme Filaments/materials/PLA/filaments/Basic"))
	if newFil != filChange {
		t.Error("filament change did not follow the move")
	}
	if cs.Count() != 3 {
		t.Errorf("Count = %d after move, want 3", cs.Count())
	}
	checkIndexConsistency(t, cs)
}

func TestMoveReplacesTarget(t *testing.T) {
	cs := NewChangeSet()
	srcPath, srcChange := testChange(OpUpdate, "brands/Acme", catalog.Brand{Name: "Acme"})
	cs.SetChange(srcPath, srcChange)
	dstPath, _ := testChange(OpCreate, "brands/Apex", catalog.Brand{Name: "Apex"})
	cs.SetChange(dstPath, &Change{Operation: OpCreate, Entity: refFor(dstPath)})
	nested, _ := testChange(OpCreate, "brands/Apex/materials/ABS", catalog.Material{Material: "ABS"})
	cs.SetChange(nested, &Change{Operation: OpCreate, Entity: refFor(nested)})

	if !cs.Move(srcPath, dstPath, refFor(dstPath)) {
		t.Fatal("Move failed")
	}

	got := cs.ChangeAt(dstPath)
	if got != srcChange {
		t.Error("target was not replaced by the moved change")
	}
	if cs.ChangeAt(nested) != nil {
		t.Error("replaced target's subtree survived")
	}
	if cs.Count() != 1 {
		t.Errorf("Count = %d, want 1", cs.Count())
	}
	checkIndexConsistency(t, cs)
}

func TestMoveNoops(t *testing.T) {
	cs := NewChangeSet()
	p, c := testChange(OpUpdate, "brands/Acme", catalog.Brand{Name: "Acme"})
	cs.SetChange(p, c)

	if cs.Move(p, p, refFor(p)) {
		t.Error("move to the same path must be a no-op")
	}
	missing := entitypath.MustParse("brands/Ghost")
	if cs.Move(missing, entitypath.MustParse("brands/Other"), refFor(missing)) {
		t.Error("move of a missing node must be a no-op")
	}
	checkIndexConsistency(t, cs)
}

func TestAllChangesOrder(t *testing.T) {
	cs := NewChangeSet()
	for _, path := range []string{
		"brands/Zeta",
		"brands/Acme/materials/PLA",
		"brands/Acme",
		"stores/filament-hub",
		"stores/acme-store",
	} {
		p := entitypath.MustParse(path)
		cs.SetChange(p, &Change{Operation: OpCreate, Entity: refFor(p)})
	}

	var got []string
	for _, change := range cs.AllChanges() {
		got = append(got, change.Entity.Path)
	}
	want := []string{
		"stores/acme-store",
		"stores/filament-hub",
		"brands/Acme",
		"brands/Acme/materials/PLA",
		"brands/Zeta",
	}
	if len(got) != len(want) {
		t.Fatalf("AllChanges returned %d changes, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AllChanges[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDirectChildChanges(t *testing.T) {
	cs := NewChangeSet()
	brand := entitypath.MustParse("brands/Acme")
	p1, c1 := testChange(OpCreate, "brands/Acme/materials/ABS", catalog.Material{Material: "ABS"})
	cs.SetChange(p1, c1)
	// A deeper descendant only: the PLA node is a container, not a change.
	p2, c2 := testChange(OpUpdate, "brands/Acme/materials/PLA/filaments/Basic", catalog.Filament{Name: "Basic"})
	cs.SetChange(p2, c2)

	got := cs.DirectChildChanges(brand, "materials")
	if len(got) != 1 || got[0] != c1 {
		t.Fatalf("DirectChildChanges = %v, want only the ABS change", got)
	}

	if changes := cs.DirectChildChanges(entitypath.Path{}, "stores"); len(changes) != 0 {
		t.Errorf("unexpected root store changes: %v", changes)
	}
}

func TestHasNestedChanges(t *testing.T) {
	cs := NewChangeSet()
	p, c := testChange(OpUpdate, "brands/Acme/materials/PLA/filaments/Basic", catalog.Filament{Name: "Basic"})
	cs.SetChange(p, c)

	if !cs.HasNestedChanges(entitypath.MustParse("brands/Acme")) {
		t.Error("brand should report nested changes")
	}
	if !cs.HasNestedChanges(entitypath.MustParse("brands/Acme/materials/PLA")) {
		t.Error("material should report nested changes")
	}
	if cs.HasNestedChanges(p) {
		t.Error("the changed leaf itself has no nested changes")
	}
	if cs.HasNestedChanges(entitypath.MustParse("brands/Other")) {
		t.Error("unrelated path reported nested changes")
	}
}
