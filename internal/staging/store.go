package staging

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/storage"
)

// EventType identifies what kind of mutation an Event reports.
type EventType string

const (
	EventTracked EventType = "change_tracked"
	EventRemoved EventType = "change_removed"
	EventMoved   EventType = "change_moved"
	EventCleared EventType = "cleared"
)

// Event is emitted to subscribers after a mutation has completed and been
// persisted. UI layers (the serve dashboard) use it to refresh.
type Event struct {
	Type      EventType `json:"type"`
	Path      string    `json:"path,omitempty"`
	Operation Operation `json:"operation,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Store owns the in-memory change set and its persisted copy.
//
// Every mutating operation persists eagerly and synchronously before
// returning. When persistence fails, the in-memory mutation is rolled back
// by reloading the last persisted state, so memory and disk never silently
// diverge; the error is returned to the caller of the operation that
// triggered it. Operations taking a path string parse it first and treat a
// malformed path as a silent no-op, since malformed paths indicate a caller
// bug in data the engine does not validate itself. Reads never mutate.
type Store struct {
	mu          sync.Mutex
	cs          *ChangeSet
	db          *storage.DB
	subscribers []func(Event)
}

// Open loads the staged change set from the database, or starts empty if
// nothing (or an unrecognized format version) is stored.
func Open(db *storage.DB) (*Store, error) {
	data, _, err := db.GetBlob(storage.ChangeSetKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load staged changes: %w", err)
	}
	cs, err := Deserialize(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load staged changes: %w", err)
	}
	return &Store{cs: cs, db: db}, nil
}

// Subscribe registers a callback invoked after every completed mutation.
// Callbacks run synchronously on the mutating goroutine and must not call
// back into the store.
func (s *Store) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) emit(ev Event) {
	ev.Timestamp = time.Now()
	for _, fn := range s.subscribers {
		fn(ev)
	}
}

// persist writes the current change set to storage. On failure the
// in-memory state is reloaded from the last persisted copy so the two
// cannot diverge, and the error is returned.
func (s *Store) persist() error {
	data, err := s.cs.Serialize()
	if err != nil {
		return err
	}
	if err := s.db.PutBlob(storage.ChangeSetKey, data); err != nil {
		s.rollback()
		return err
	}
	return nil
}

// rollback restores the in-memory change set from the persisted copy.
func (s *Store) rollback() {
	data, _, err := s.db.GetBlob(storage.ChangeSetKey)
	if err != nil {
		return // keep the in-memory state; the caller already gets an error
	}
	if cs, err := Deserialize(data); err == nil {
		s.cs = cs
	}
}

// TrackCreate stages a brand-new entity at the given path.
func (s *Store) TrackCreate(path string, data catalog.Entity) error {
	p, ok := entitypath.Parse(path)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cs.TrackCreate(p, data)
	if err := s.persist(); err != nil {
		return err
	}
	s.emit(Event{Type: EventTracked, Path: p.String(), Operation: OpCreate})
	return nil
}

// TrackUpdate stages an edit to the entity at the given path. If the
// resulting diff against the original snapshot is empty, any staged change
// at the path is removed instead.
func (s *Store) TrackUpdate(path string, oldData, newData catalog.Entity) error {
	p, ok := entitypath.Parse(path)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	change := s.cs.TrackUpdate(p, oldData, newData)
	if err := s.persist(); err != nil {
		return err
	}
	if change == nil {
		s.emit(Event{Type: EventRemoved, Path: p.String()})
	} else {
		s.emit(Event{Type: EventTracked, Path: p.String(), Operation: change.Operation})
	}
	return nil
}

// TrackDelete stages a tombstone at the given path, discarding staged
// descendant changes and sweeping images owned by the subtree. Returns the
// number of nested changes that were discarded.
func (s *Store) TrackDelete(path string, data catalog.Entity) (int, error) {
	p, ok := entitypath.Parse(path)
	if !ok {
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	discarded := s.cs.TrackDelete(p, data)
	swept := s.cs.SweepImages(p)
	if err := s.persist(); err != nil {
		return 0, err
	}
	for _, ref := range swept {
		if err := s.db.DeleteImage(ref.StorageKey); err != nil {
			return len(discarded), err
		}
	}
	s.emit(Event{Type: EventTracked, Path: p.String(), Operation: OpDelete})
	return len(discarded), nil
}

// Move relocates the staged subtree at oldPath to newPath, rewriting every
// descendant path and relocating attached image references. Returns the
// new path, or the old one when nothing moved.
func (s *Store) Move(oldPath, newPath string) (string, error) {
	oldP, ok := entitypath.Parse(oldPath)
	if !ok {
		return oldPath, nil
	}
	newP, ok := entitypath.Parse(newPath)
	if !ok {
		return oldPath, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cs.TrackMove(oldP, newP) {
		return oldPath, nil
	}
	s.cs.RewriteImagePaths(oldP, newP)
	if err := s.persist(); err != nil {
		return oldPath, err
	}
	s.emit(Event{Type: EventMoved, Path: newP.String()})
	return newP.String(), nil
}

// Remove reverts the staged change at the given path, pruning any nodes
// left empty.
func (s *Store) Remove(path string) error {
	p, ok := entitypath.Parse(path)
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cs.RemoveChange(p)
	if err := s.persist(); err != nil {
		return err
	}
	s.emit(Event{Type: EventRemoved, Path: p.String()})
	return nil
}

// Clear discards every staged change, image reference, and stored image.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys, err := s.db.ImageKeys()
	if err != nil {
		return err
	}
	s.cs.Clear()
	if err := s.persist(); err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.db.DeleteImage(key); err != nil {
			return err
		}
	}
	s.emit(Event{Type: EventCleared})
	return nil
}

// StoreImage stages image bytes for an entity property (logo uploads).
// The bytes go to the keyed image store; the reference joins the change
// set. Storage failures (quota, I/O) propagate and leave neither half
// applied.
func (s *Store) StoreImage(id, entityPath, property, filename, mimeType string, data []byte) (ImageRef, error) {
	p, ok := entitypath.Parse(entityPath)
	if !ok {
		return ImageRef{}, fmt.Errorf("invalid entity path %q", entityPath)
	}
	if id == "" {
		id = uuid.NewString()
	}
	ref := ImageRef{
		ID:         id,
		EntityPath: p.String(),
		Property:   property,
		Filename:   filename,
		MimeType:   mimeType,
		StorageKey: "img-" + id,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.db.PutImage(ref.StorageKey, data); err != nil {
		return ImageRef{}, err
	}
	s.cs.AddImage(ref)
	if err := s.persist(); err != nil {
		// The reference rolled back with the change set; drop the bytes too.
		_ = s.db.DeleteImage(ref.StorageKey)
		return ImageRef{}, err
	}
	return ref, nil
}

// Image returns the bytes and reference for a staged image ID.
func (s *Store) Image(id string) ([]byte, ImageRef, error) {
	s.mu.Lock()
	ref, ok := s.cs.Image(id)
	s.mu.Unlock()
	if !ok {
		return nil, ImageRef{}, fmt.Errorf("no staged image %q", id)
	}
	data, found, err := s.db.GetImage(ref.StorageKey)
	if err != nil {
		return nil, ImageRef{}, err
	}
	if !found {
		return nil, ImageRef{}, fmt.Errorf("image bytes missing for %q", id)
	}
	return data, ref, nil
}

// ImageBytes returns the raw bytes under a storage key.
func (s *Store) ImageBytes(storageKey string) ([]byte, error) {
	data, found, err := s.db.GetImage(storageKey)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("image bytes missing for key %q", storageKey)
	}
	return data, nil
}

// ChangeSet exposes the underlying change set for read-only use by the
// overlay resolver and exporters. Callers must not mutate through it.
func (s *Store) ChangeSet() *ChangeSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cs
}

// Change returns the staged change at the given path.
func (s *Store) Change(path string) (*Change, bool) {
	p, ok := entitypath.Parse(path)
	if !ok {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	change := s.cs.ChangeAt(p)
	return change, change != nil
}

// Has reports whether a change is staged at the exact path.
func (s *Store) Has(path string) bool {
	_, ok := s.Change(path)
	return ok
}

// Status returns the badge status for the entity at the given path.
func (s *Store) Status(path string) Status {
	p, ok := entitypath.Parse(path)
	if !ok {
		return StatusUnchanged
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cs.StatusOf(p)
}

// HasNestedChanges reports whether any change is staged strictly below the
// given path.
func (s *Store) HasNestedChanges(path string) bool {
	p, ok := entitypath.Parse(path)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cs.HasNestedChanges(p)
}

// Summary tallies the staged changes by operation.
func (s *Store) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cs.Summarize()
}

// AllChanges flattens every staged change in deterministic pre-order.
func (s *Store) AllChanges() []*Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cs.AllChanges()
}

// Images returns every staged image reference.
func (s *Store) Images() []ImageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cs.Images()
}

// LastModified returns the time of the most recent staged mutation.
func (s *Store) LastModified() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cs.LastModified()
}
