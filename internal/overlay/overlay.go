// Package overlay computes the effective view of catalog entities by
// layering staged changes over base data from the local checkout.
//
// The resolver makes no assumptions about how base data was fetched; when a
// base fetch fails or is skipped (a locally-created parent cannot exist
// upstream), resolution runs against an empty base so purely local
// creations stay visible.
//
// All identifier comparisons fold case. The path segment that keys a change
// may differ in case from the entity's display identifier, so exact
// matching would strand entries under stale keys.
package overlay

import (
	"strings"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/staging"
)

// entry is one slot of the insertion-ordered result map.
type entry struct {
	key    string
	entity catalog.Entity
	status staging.Status
}

// entryList is an insertion-ordered map keyed case-insensitively by entity
// identifier.
type entryList struct {
	entries []entry
}

func (l *entryList) find(key string) int {
	for i, e := range l.entries {
		if strings.EqualFold(e.key, key) {
			return i
		}
	}
	return -1
}

func (l *entryList) put(key string, e catalog.Entity, status staging.Status) {
	if i := l.find(key); i >= 0 {
		l.entries[i] = entry{key: key, entity: e, status: status}
		return
	}
	l.entries = append(l.entries, entry{key: key, entity: e, status: status})
}

func (l *entryList) remove(key string) (entry, bool) {
	i := l.find(key)
	if i < 0 {
		return entry{}, false
	}
	removed := l.entries[i]
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	return removed, true
}

// Collection resolves the effective entity list for one child collection
// under parent (e.g. the materials of a brand; a zero parent with
// collection "brands" or "stores" resolves a root collection).
//
// The base list seeds an ordered result map keyed by entity identifier.
// Each staged change exactly one segment below the collection prefix is
// then applied: creations insert under the new data's own identifier,
// updates re-key when the identifier changed (rename), deletions remove
// the matching entry. Deeper descendants belong to grandchildren and are
// ignored at this level. Result order is base order followed by creations,
// deterministic for the same inputs.
func Collection(cs *staging.ChangeSet, parent entitypath.Path, collection string, base []catalog.Entity) []catalog.Entity {
	items := resolve(cs, parent, collection, base, false)
	out := make([]catalog.Entity, len(items))
	for i, item := range items {
		out[i] = item.Entity
	}
	return out
}

// Item is one annotated entry of an effective collection.
type Item struct {
	Entity catalog.Entity
	Status staging.Status
}

// AnnotatedCollection resolves the effective list like Collection but keeps
// deleted entities in place as flagged entries, substituting identifier
// stubs when the base no longer contains them. UI layers use the statuses
// to render modified/new/deleted badges.
func AnnotatedCollection(cs *staging.ChangeSet, parent entitypath.Path, collection string, base []catalog.Entity) []Item {
	return resolve(cs, parent, collection, base, true)
}

func resolve(cs *staging.ChangeSet, parent entitypath.Path, collection string, base []catalog.Entity, keepDeleted bool) []Item {
	list := &entryList{}
	for _, e := range base {
		list.put(e.Identifier(), e, staging.StatusUnchanged)
	}

	for _, change := range cs.DirectChildChanges(parent, collection) {
		p, ok := entitypath.Parse(change.Entity.Path)
		if !ok {
			continue
		}
		segment := p.Leaf()

		switch change.Operation {
		case staging.OpCreate:
			if change.Data == nil {
				continue
			}
			list.put(change.Data.Identifier(), change.Data, staging.StatusNew)

		case staging.OpUpdate:
			if change.Data == nil {
				continue
			}
			newKey := change.Data.Identifier()
			if !strings.EqualFold(newKey, segment) {
				// Rename: drop the entry keyed by the old path segment
				// before inserting under the new identifier.
				list.remove(segment)
			}
			list.put(newKey, change.Data, staging.StatusModified)

		case staging.OpDelete:
			removed, found := list.remove(segment)
			if !keepDeleted {
				continue
			}
			stub := removed.entity
			if !found || stub == nil {
				if change.Data != nil {
					stub = change.Data
				} else {
					stub = catalog.Stub(change.Entity.Type, segment)
				}
			}
			list.put(segment, stub, staging.StatusDeleted)
		}
	}

	out := make([]Item, len(list.entries))
	for i, e := range list.entries {
		out[i] = Item{Entity: e.entity, Status: e.status}
	}
	return out
}

// Entity resolves the effective value of a single entity: a staged delete
// hides it, a staged create or update supplies its data, and otherwise the
// base value (which may be absent) passes through unchanged.
func Entity(cs *staging.ChangeSet, p entitypath.Path, base catalog.Entity) (catalog.Entity, bool) {
	change := cs.ChangeAt(p)
	if change == nil {
		return base, base != nil
	}
	switch change.Operation {
	case staging.OpDelete:
		return nil, false
	default:
		return change.Data, change.Data != nil
	}
}
