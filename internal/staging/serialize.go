package staging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

// FormatVersion is the persisted change-set format. A stored record with
// any other version is discarded in full and treated as empty storage;
// forward or backward compatibility is explicitly not attempted.
const FormatVersion = 2

// persisted is the flat, storage-safe representation of a ChangeSet. The
// flat index is derived state and never serialized; it is rebuilt by a full
// tree walk on load. LastModified is a millisecond epoch timestamp.
type persisted struct {
	Version      int                 `json:"version"`
	Tree         map[string]*Node    `json:"tree"`
	Images       map[string]ImageRef `json:"images,omitempty"`
	LastModified int64               `json:"last_modified"`
}

// Serialize converts the change set into its persisted JSON form.
func (cs *ChangeSet) Serialize() ([]byte, error) {
	record := persisted{
		Version:      FormatVersion,
		Tree:         cs.roots,
		Images:       cs.images,
		LastModified: cs.lastModified.UnixMilli(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize change set: %w", err)
	}
	return data, nil
}

// Deserialize rebuilds a ChangeSet from its persisted form. Node paths and
// the flat index are reconstructed by walking the stored trees. A record
// with an unrecognized version yields a fresh empty change set rather than
// a partial interpretation.
func Deserialize(data []byte) (*ChangeSet, error) {
	if len(data) == 0 {
		return NewChangeSet(), nil
	}

	var record persisted
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse persisted change set: %w", err)
	}
	if record.Version != FormatVersion {
		return NewChangeSet(), nil
	}

	cs := NewChangeSet()
	if record.LastModified > 0 {
		cs.lastModified = time.UnixMilli(record.LastModified)
	}
	for id, ref := range record.Images {
		cs.images[id] = ref
	}

	for _, root := range rootOrder {
		stored, ok := record.Tree[root]
		if !ok || stored == nil {
			continue
		}
		rootNode := cs.roots[root]
		for key, child := range stored.Children {
			child.Key = key
			rootNode.Children[key] = child
			cs.rebuild(child, root)
		}
	}

	return cs, nil
}

// rebuild restores derived node state after deserialization: keys on child
// map entries, cached paths, and index registration.
func (cs *ChangeSet) rebuild(n *Node, parentPath string) {
	n.Path = parentPath + "/" + n.Key
	if n.Children == nil {
		n.Children = make(map[string]*Node)
	}
	cs.index[n.Path] = n
	for key, child := range n.Children {
		child.Key = key
		cs.rebuild(child, n.Path)
	}
}

// Clear discards every staged change and image reference, returning the
// change set to its empty state.
func (cs *ChangeSet) Clear() {
	for _, root := range rootOrder {
		n := cs.roots[root]
		for _, child := range n.Children {
			cs.deregister(child)
		}
		n.Children = make(map[string]*Node)
	}
	cs.images = make(map[string]ImageRef)
	cs.touch()
}

// Summary is the per-operation tally of staged changes.
type Summary struct {
	Creates int `json:"creates"`
	Updates int `json:"updates"`
	Deletes int `json:"deletes"`
	Images  int `json:"images"`
	Total   int `json:"total"`
}

// Summarize tallies the staged changes by operation.
func (cs *ChangeSet) Summarize() Summary {
	s := Summary{Images: len(cs.images)}
	for _, change := range cs.AllChanges() {
		switch change.Operation {
		case OpCreate:
			s.Creates++
		case OpUpdate:
			s.Updates++
		case OpDelete:
			s.Deletes++
		}
		s.Total++
	}
	return s
}

// Status classifies how an entity at p is affected by staged changes.
type Status string

const (
	StatusUnchanged Status = "unchanged"
	StatusNew       Status = "new"
	StatusModified  Status = "modified"
	StatusDeleted   Status = "deleted"
)

// StatusOf returns the badge status for the entity at p, derived from the
// change staged at its exact path.
func (cs *ChangeSet) StatusOf(p entitypath.Path) Status {
	change := cs.ChangeAt(p)
	if change == nil {
		return StatusUnchanged
	}
	switch change.Operation {
	case OpCreate:
		return StatusNew
	case OpDelete:
		return StatusDeleted
	default:
		return StatusModified
	}
}

// HasNestedChanges reports whether any change is staged strictly below p,
// regardless of whether p itself is changed. UI layers use this to badge
// parents of edited entities.
func (cs *ChangeSet) HasNestedChanges(p entitypath.Path) bool {
	n := cs.NodeAt(p)
	if n == nil {
		return false
	}
	return HasDescendantChanges(n)
}
