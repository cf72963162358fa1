package staging

import (
	"fmt"
	"time"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

// The change slot of a single node moves through a small state machine:
//
//	absent -> create                 (entity not in any base snapshot)
//	absent -> update                 (base value exists, supplied by caller)
//	create -> create                 (re-edit of a local creation)
//	update -> update                 (re-edit; original snapshot is kept)
//	update|create -> absent          (diff converges back to baseline)
//	create|update -> delete          (tombstone)
//	create -> absent                 (deleting a local-only creation)
//
// Terminal states are absent (pruned) or whatever remains at export.

// TrackCreate stages a brand-new entity at p, replacing the data of any
// existing creation at the same path.
func (cs *ChangeSet) TrackCreate(p entitypath.Path, data catalog.Entity) *Change {
	change := &Change{
		Operation:   OpCreate,
		Entity:      refFor(p),
		Data:        data,
		Description: fmt.Sprintf("Created %s %s", p.Kind(), p.Leaf()),
		Timestamp:   time.Now(),
	}
	cs.SetChange(p, change)
	return change
}

// TrackUpdate stages an edit to the entity at p. oldData is the caller's
// view of the pre-edit value; it becomes the stable original snapshot only
// when no change is staged yet. Re-edits keep the first original so the
// recorded diff always reads against the true base. If the computed diff
// is empty the edit has reverted to baseline and the change is removed
// entirely.
func (cs *ChangeSet) TrackUpdate(p entitypath.Path, oldData, newData catalog.Entity) *Change {
	existing := cs.ChangeAt(p)

	original := oldData
	if existing != nil && existing.OriginalData != nil {
		original = existing.OriginalData
	}

	diff := DiffEntities(original, newData)
	if len(diff) == 0 {
		cs.RemoveChange(p)
		return nil
	}

	// A re-edit of a local creation stays a creation; there is no base
	// entity for an update to read against.
	if existing != nil && existing.Operation == OpCreate {
		change := &Change{
			Operation:   OpCreate,
			Entity:      refFor(p),
			Data:        newData,
			Description: fmt.Sprintf("Created %s %s", p.Kind(), p.Leaf()),
			Timestamp:   time.Now(),
		}
		cs.SetChange(p, change)
		return change
	}

	change := &Change{
		Operation:    OpUpdate,
		Entity:       refFor(p),
		Data:         newData,
		OriginalData: original,
		Properties:   diff,
		Description:  fmt.Sprintf("Updated %s %s (%d properties)", p.Kind(), p.Leaf(), len(diff)),
		Timestamp:    time.Now(),
	}
	cs.SetChange(p, change)
	return change
}

// TrackDelete stages a tombstone at p, discarding every staged descendant
// change first (a deleted entity takes its whole edit subtree with it).
// Deleting a local-only creation leaves no tombstone: something that never
// existed upstream has nothing to delete from, so the creation is simply
// discarded. The returned slice is what got discarded beneath p, so
// callers can report how many nested changes a deletion threw away.
func (cs *ChangeSet) TrackDelete(p entitypath.Path, data catalog.Entity) []*Change {
	discarded := cs.RemoveDescendants(p)

	if existing := cs.ChangeAt(p); existing != nil && existing.Operation == OpCreate {
		cs.RemoveChange(p)
		return discarded
	}

	change := &Change{
		Operation:   OpDelete,
		Entity:      refFor(p),
		Data:        data,
		Description: fmt.Sprintf("Deleted %s %s", p.Kind(), p.Leaf()),
		Timestamp:   time.Now(),
	}
	cs.SetChange(p, change)
	return discarded
}

// TrackMove relocates a staged subtree when an entity's identifying field
// changed. The new entity data replaces the moved change's payload ID.
// Returns false when there is nothing to move.
func (cs *ChangeSet) TrackMove(oldPath, newPath entitypath.Path) bool {
	return cs.Move(oldPath, newPath, refFor(newPath))
}
