// Package staging implements the hierarchical change tree that records all
// not-yet-exported catalog edits.
//
// Edits are staged as create/update/delete operations against entity paths,
// layered over the read-only base checkout by the overlay package, and
// persisted eagerly to a local SQLite store after every mutation. The tree
// is a strict arborescence: every node is owned by its parent's child map,
// and a derived flat path index provides O(1) lookups.
package staging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

// Operation is the kind of staged change recorded at a node.
type Operation string

const (
	// OpCreate records an entity that does not exist in the base checkout.
	OpCreate Operation = "create"
	// OpUpdate records an edit to an entity that exists in the base.
	OpUpdate Operation = "update"
	// OpDelete is a tombstone hiding a base entity until export.
	OpDelete Operation = "delete"
)

// EntityRef identifies the entity a change applies to.
type EntityRef struct {
	Type entitypath.Kind `json:"type"`
	Path string          `json:"path"`
	ID   string          `json:"id"`
}

// PropertyChange is one field-level difference between an update's original
// snapshot and its current data. Nested object fields use dotted names.
type PropertyChange struct {
	Property string `json:"property"`
	OldValue any    `json:"old_value,omitempty"`
	NewValue any    `json:"new_value,omitempty"`
}

// Change is one staged operation. A node holds at most one change.
//
// For updates, OriginalData is the base snapshot captured at first edit and
// stays stable across re-edits of the same entity until the change is
// reverted or exported; Properties is the diff between OriginalData and
// Data. For deletes, Data is best-effort context describing what was
// removed.
type Change struct {
	Operation    Operation
	Entity       EntityRef
	Data         catalog.Entity
	OriginalData catalog.Entity
	Properties   []PropertyChange
	Description  string
	Timestamp    time.Time
}

// changeJSON is the wire form of Change. Entity payloads are stored as raw
// JSON tagged by the entity kind in the ref, and decoded back into the
// concrete struct for that kind.
type changeJSON struct {
	Operation    Operation        `json:"operation"`
	Entity       EntityRef        `json:"entity"`
	Data         json.RawMessage  `json:"data,omitempty"`
	OriginalData json.RawMessage  `json:"original_data,omitempty"`
	Properties   []PropertyChange `json:"properties,omitempty"`
	Description  string           `json:"description,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

// MarshalJSON implements json.Marshaler.
func (c Change) MarshalJSON() ([]byte, error) {
	wire := changeJSON{
		Operation:   c.Operation,
		Entity:      c.Entity,
		Properties:  c.Properties,
		Description: c.Description,
		Timestamp:   c.Timestamp,
	}

	if c.Data != nil {
		data, err := json.Marshal(c.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal change data for %s: %w", c.Entity.Path, err)
		}
		wire.Data = data
	}
	if c.OriginalData != nil {
		data, err := json.Marshal(c.OriginalData)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal original data for %s: %w", c.Entity.Path, err)
		}
		wire.OriginalData = data
	}

	return json.Marshal(wire)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Change) UnmarshalJSON(data []byte) error {
	var wire changeJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	c.Operation = wire.Operation
	c.Entity = wire.Entity
	c.Properties = wire.Properties
	c.Description = wire.Description
	c.Timestamp = wire.Timestamp
	c.Data = nil
	c.OriginalData = nil

	if len(wire.Data) > 0 && string(wire.Data) != "null" {
		entity, err := catalog.DecodeEntity(wire.Entity.Type, wire.Data)
		if err != nil {
			return fmt.Errorf("change at %s: %w", wire.Entity.Path, err)
		}
		c.Data = entity
	}
	if len(wire.OriginalData) > 0 && string(wire.OriginalData) != "null" {
		entity, err := catalog.DecodeEntity(wire.Entity.Type, wire.OriginalData)
		if err != nil {
			return fmt.Errorf("change at %s: %w", wire.Entity.Path, err)
		}
		c.OriginalData = entity
	}

	return nil
}

// refFor builds the entity ref for a change at path.
func refFor(path entitypath.Path) EntityRef {
	return EntityRef{
		Type: path.Kind(),
		Path: path.String(),
		ID:   path.Leaf(),
	}
}
