package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

// Source reads base entity data from a local catalog checkout.
//
// The checkout layout is one directory per entity with a single JSON file
// inside:
//
//	stores/<Store>/store.json
//	data/<Brand>/brand.json
//	data/<Brand>/<Material>/material.json        (optional)
//	data/<Brand>/<Material>/<Filament>/filament.json
//	data/<Brand>/<Material>/<Filament>/<Variant>/variant.json
//
// Directory names are the natural entity identifiers and therefore the path
// segments. A missing directory yields an empty list, and unreadable or
// invalid files are skipped with a warning; overlay resolution must keep
// working against whatever base data is available.
type Source struct {
	DataDir   string
	StoresDir string
}

// NewSource creates a Source over the given data and stores directories.
func NewSource(dataDir, storesDir string) *Source {
	return &Source{DataDir: dataDir, StoresDir: storesDir}
}

// Stores returns all base stores in directory order.
func (s *Source) Stores() []Entity {
	var out []Entity
	for _, dir := range subdirs(s.StoresDir) {
		var store Store
		if !readEntityFile(filepath.Join(s.StoresDir, dir, "store.json"), &store) {
			continue
		}
		if store.ID == "" {
			store.ID = dir
		}
		if store.Slug == "" {
			store.Slug = Slugify(store.Name)
		}
		out = append(out, store)
	}
	return out
}

// Brands returns all base brands in directory order.
func (s *Source) Brands() []Entity {
	var out []Entity
	for _, dir := range subdirs(s.DataDir) {
		var brand Brand
		if !readEntityFile(filepath.Join(s.DataDir, dir, "brand.json"), &brand) {
			continue
		}
		if brand.Name == "" {
			brand.Name = dir
		}
		if brand.Slug == "" {
			brand.Slug = Slugify(dir)
		}
		out = append(out, brand)
	}
	return out
}

// Materials returns the base materials of one brand. A material directory
// without material.json still counts as a material; its type is the
// directory name.
func (s *Source) Materials(brand string) []Entity {
	brandDir := filepath.Join(s.DataDir, brand)
	var out []Entity
	for _, dir := range subdirs(brandDir) {
		material := Material{Material: dir}
		readEntityFile(filepath.Join(brandDir, dir, "material.json"), &material)
		if material.Material == "" {
			material.Material = dir
		}
		if material.Slug == "" {
			material.Slug = Slugify(dir)
		}
		out = append(out, material)
	}
	return out
}

// Filaments returns the base filaments of one material.
func (s *Source) Filaments(brand, material string) []Entity {
	materialDir := filepath.Join(s.DataDir, brand, material)
	var out []Entity
	for _, dir := range subdirs(materialDir) {
		var filament Filament
		if !readEntityFile(filepath.Join(materialDir, dir, "filament.json"), &filament) {
			continue
		}
		if filament.Name == "" {
			filament.Name = dir
		}
		if filament.Material == "" {
			filament.Material = material
		}
		if filament.Slug == "" {
			filament.Slug = Slugify(filament.Name)
		}
		out = append(out, filament)
	}
	return out
}

// Variants returns the base color variants of one filament.
func (s *Source) Variants(brand, material, filament string) []Entity {
	filamentDir := filepath.Join(s.DataDir, brand, material, filament)
	var out []Entity
	for _, dir := range subdirs(filamentDir) {
		var variant Variant
		if !readEntityFile(filepath.Join(filamentDir, dir, "variant.json"), &variant) {
			continue
		}
		if variant.ColorName == "" {
			variant.ColorName = dir
		}
		if variant.Slug == "" {
			variant.Slug = Slugify(dir)
		}
		out = append(out, variant)
	}
	return out
}

// Children returns the base entities of the named child collection under
// the given entity path, or the root collections for a zero parent path.
func (s *Source) Children(parent entitypath.Path, collection string) []Entity {
	if parent.IsZero() {
		switch collection {
		case entitypath.RootStores:
			return s.Stores()
		case entitypath.RootBrands:
			return s.Brands()
		default:
			return nil
		}
	}
	segs := parent.Segments()
	switch collection {
	case "materials":
		return s.Materials(segs[0].ID)
	case "filaments":
		if len(segs) < 2 {
			return nil
		}
		return s.Filaments(segs[0].ID, segs[1].ID)
	case "variants":
		if len(segs) < 3 {
			return nil
		}
		return s.Variants(segs[0].ID, segs[1].ID, segs[2].ID)
	default:
		return nil
	}
}

// Entity returns the single base entity at the given path, or false if the
// checkout has no record of it.
func (s *Source) Entity(path entitypath.Path) (Entity, bool) {
	if path.IsZero() {
		return nil, false
	}
	parent := path.Parent()
	var siblings []Entity
	if parent.IsZero() {
		siblings = s.Children(entitypath.Path{}, path.Root())
	} else {
		segs := path.Segments()
		siblings = s.Children(parent, segs[len(segs)-1].Collection)
	}
	for _, e := range siblings {
		if e.Identifier() == path.Leaf() {
			return e, true
		}
	}
	return nil, false
}

// subdirs lists the non-hidden subdirectories of dir in sorted order.
// A missing directory is an empty (valid) result.
func subdirs(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: cannot read catalog directory %s: %v\n", dir, err)
		}
		return nil
	}
	var out []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name()[0] == '.' {
			continue
		}
		out = append(out, entry.Name())
	}
	return out
}

// readEntityFile decodes one entity JSON file into dst. Missing files
// return false silently; malformed files return false with a warning.
func readEntityFile(path string, dst any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: cannot read %s: %v\n", path, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: skipping invalid entity file %s: %v\n", path, err)
		return false
	}
	return true
}
