// Package entitypath parses and builds canonical catalog paths.
//
// A path addresses one entity inside the fixed catalog hierarchy:
//
//	stores/<store>
//	brands/<brand>
//	brands/<brand>/materials/<material>
//	brands/<brand>/materials/<material>/filaments/<filament>
//	brands/<brand>/materials/<material>/filaments/<filament>/variants/<variant>
//
// The hierarchy shape is fixed, so every valid path is a root collection
// followed by at most four (collection, id) segment pairs. Two paths are
// equal iff their canonical string forms are equal.
package entitypath

import "strings"

// Root collection names. These are the only two top-level collections.
const (
	RootStores = "stores"
	RootBrands = "brands"
)

// Kind identifies which of the five concrete entity kinds a path addresses.
type Kind string

const (
	KindStore    Kind = "store"
	KindBrand    Kind = "brand"
	KindMaterial Kind = "material"
	KindFilament Kind = "filament"
	KindVariant  Kind = "variant"
)

// brandsChildren is the fixed collection sequence under a brand.
var brandsChildren = []string{"materials", "filaments", "variants"}

// Segment is one (collection, id) pair of a path. The first segment's
// collection is always a root collection name.
type Segment struct {
	Collection string
	ID         string
}

// Path is an ordered, immutable descriptor of a tree location. The zero
// value is not a valid path; construct via Parse or MustParse.
type Path struct {
	segments []Segment
}

// Parse converts a canonical path string into a Path. It returns false for
// anything that does not match the fixed catalog shape: unknown root
// collection, wrong child collection order, empty segments, odd segment
// counts, or excessive depth. Parse never panics; callers treat a false
// result as a no-op.
func Parse(s string) (Path, bool) {
	if s == "" {
		return Path{}, false
	}
	parts := strings.Split(s, "/")
	if len(parts) < 2 || len(parts)%2 != 0 {
		return Path{}, false
	}
	root := parts[0]
	if root != RootStores && root != RootBrands {
		return Path{}, false
	}

	segments := make([]Segment, 0, len(parts)/2)
	for i := 0; i < len(parts); i += 2 {
		collection, id := parts[i], parts[i+1]
		if collection == "" || id == "" {
			return Path{}, false
		}
		segments = append(segments, Segment{Collection: collection, ID: id})
	}

	// Stores have no nested collections.
	if root == RootStores && len(segments) > 1 {
		return Path{}, false
	}
	if root == RootBrands {
		if len(segments)-1 > len(brandsChildren) {
			return Path{}, false
		}
		for i, seg := range segments[1:] {
			if seg.Collection != brandsChildren[i] {
				return Path{}, false
			}
		}
	}

	return Path{segments: segments}, true
}

// MustParse is Parse for paths known to be valid, typically literals in
// tests. It panics on malformed input.
func MustParse(s string) Path {
	p, ok := Parse(s)
	if !ok {
		panic("entitypath: invalid path " + s)
	}
	return p
}

// String returns the canonical form. Parse(p.String()) always succeeds and
// yields an equal path.
func (p Path) String() string {
	var b strings.Builder
	for i, seg := range p.segments {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(seg.Collection)
		b.WriteByte('/')
		b.WriteString(seg.ID)
	}
	return b.String()
}

// IsZero reports whether p is the zero (invalid) path.
func (p Path) IsZero() bool { return len(p.segments) == 0 }

// Root returns the top-level collection name ("stores" or "brands").
func (p Path) Root() string {
	if p.IsZero() {
		return ""
	}
	return p.segments[0].Collection
}

// Depth returns the number of (collection, id) pairs.
func (p Path) Depth() int { return len(p.segments) }

// Segments returns a copy of the segment pairs in root-to-leaf order.
func (p Path) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// Leaf returns the last segment's entity ID.
func (p Path) Leaf() string {
	if p.IsZero() {
		return ""
	}
	return p.segments[len(p.segments)-1].ID
}

// Kind returns the entity kind this path addresses, derived from the root
// collection and depth.
func (p Path) Kind() Kind {
	if p.Root() == RootStores {
		return KindStore
	}
	switch p.Depth() {
	case 1:
		return KindBrand
	case 2:
		return KindMaterial
	case 3:
		return KindFilament
	default:
		return KindVariant
	}
}

// Parent returns the path one pair level up, or the zero path for a
// root-level entity.
func (p Path) Parent() Path {
	if p.Depth() <= 1 {
		return Path{}
	}
	segs := make([]Segment, p.Depth()-1)
	copy(segs, p.segments[:p.Depth()-1])
	return Path{segments: segs}
}

// Child returns the path of an entity in the named child collection. The
// result is only valid if the collection matches the fixed shape; callers
// that cannot guarantee that should re-Parse the string form.
func (p Path) Child(collection, id string) Path {
	segs := make([]Segment, p.Depth(), p.Depth()+1)
	copy(segs, p.segments)
	return Path{segments: append(segs, Segment{Collection: collection, ID: id})}
}

// WithLeaf returns a copy of p with the final entity ID replaced. Used when
// an entity's identifying field changes and its path must follow.
func (p Path) WithLeaf(id string) Path {
	if p.IsZero() {
		return Path{}
	}
	segs := make([]Segment, p.Depth())
	copy(segs, p.segments)
	segs[len(segs)-1].ID = id
	return Path{segments: segs}
}

// IsChildOf reports whether p addresses an immediate child of parent in the
// named collection: exactly one pair deeper, matching prefix and collection.
// Deeper descendants do not qualify.
func (p Path) IsChildOf(parent Path, collection string) bool {
	if p.Depth() != parent.Depth()+1 {
		return false
	}
	for i, seg := range parent.segments {
		if p.segments[i] != seg {
			return false
		}
	}
	return p.segments[p.Depth()-1].Collection == collection
}

// ChildCollections returns the child collection names that may appear
// directly under this path, per the fixed catalog shape.
func (p Path) ChildCollections() []string {
	if p.Root() != RootBrands {
		return nil
	}
	if p.Depth() > len(brandsChildren) {
		return nil
	}
	return []string{brandsChildren[p.Depth()-1]}
}
