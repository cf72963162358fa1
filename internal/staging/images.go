package staging

import (
	"sort"
	"strings"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

// ImageRef describes one staged image (a brand or store logo) without its
// bytes. The bytes live in a separate keyed store under StorageKey; the
// reference belongs to the entity at EntityPath and is swept when that
// entity or an ancestor is deleted, and rewritten when it moves.
type ImageRef struct {
	ID         string `json:"id"`
	EntityPath string `json:"entity_path"`
	Property   string `json:"property"`
	Filename   string `json:"filename"`
	MimeType   string `json:"mime_type"`
	StorageKey string `json:"storage_key"`
}

// AddImage registers an image reference, replacing any previous reference
// with the same ID.
func (cs *ChangeSet) AddImage(ref ImageRef) {
	cs.images[ref.ID] = ref
	cs.touch()
}

// Image returns the reference for an image ID.
func (cs *ChangeSet) Image(id string) (ImageRef, bool) {
	ref, ok := cs.images[id]
	return ref, ok
}

// RemoveImage drops one image reference. The caller owns deleting the
// bytes under the reference's storage key.
func (cs *ChangeSet) RemoveImage(id string) {
	delete(cs.images, id)
	cs.touch()
}

// Images returns all image references ordered by ID.
func (cs *ChangeSet) Images() []ImageRef {
	out := make([]ImageRef, 0, len(cs.images))
	for _, ref := range cs.images {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SweepImages removes every image reference owned by the entity at p or by
// any of its descendants, returning the removed references so the caller
// can delete the stored bytes. References whose owning node is gone are
// orphans and must not survive to export.
func (cs *ChangeSet) SweepImages(p entitypath.Path) []ImageRef {
	prefix := p.String()
	var removed []ImageRef
	for id, ref := range cs.images {
		if ref.EntityPath == prefix || strings.HasPrefix(ref.EntityPath, prefix+"/") {
			removed = append(removed, ref)
			delete(cs.images, id)
		}
	}
	if len(removed) > 0 {
		sort.Slice(removed, func(i, j int) bool { return removed[i].ID < removed[j].ID })
		cs.touch()
	}
	return removed
}

// RewriteImagePaths relocates image references when their owning subtree
// moves: every reference at or under oldPath has that prefix replaced with
// newPath.
func (cs *ChangeSet) RewriteImagePaths(oldPath, newPath entitypath.Path) {
	oldPrefix, newPrefix := oldPath.String(), newPath.String()
	changed := false
	for id, ref := range cs.images {
		switch {
		case ref.EntityPath == oldPrefix:
			ref.EntityPath = newPrefix
		case strings.HasPrefix(ref.EntityPath, oldPrefix+"/"):
			ref.EntityPath = newPrefix + ref.EntityPath[len(oldPrefix):]
		default:
			continue
		}
		cs.images[id] = ref
		changed = true
	}
	if changed {
		cs.touch()
	}
}
