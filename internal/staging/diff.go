package staging

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/catalog"
)

// excludedRootFields are identifier and display-context fields skipped when
// diffing at the root level: they are not part of the editable payload.
// Parent-reference IDs and child entity lists are injected for display
// only; id/slug/logo are managed by the rename and image machinery.
var excludedRootFields = map[string]bool{
	"id":             true,
	"slug":           true,
	"logo":           true,
	"logo_name":      true,
	"brand_id":       true,
	"material_id":    true,
	"filament_id":    true,
	"directory_name": true,
	"materials":      true,
	"filaments":      true,
	"variants":       true,
}

// DiffEntities deep-compares two entity payloads field by field and returns
// the property-level differences. An empty result means the edit has
// reverted to baseline.
//
// Two values count as equal when both are "empty" under a widened
// equivalence (nil, "", empty array, empty object are mutually equivalent)
// or when their canonical JSON forms match. Nested object fields are
// compared recursively with dotted-path naming; arrays and primitives are
// compared as whole values.
func DiffEntities(original, updated catalog.Entity) []PropertyChange {
	return diffFields("", entityFields(original), entityFields(updated), true)
}

// entityFields flattens a typed entity into its JSON field map. A nil
// entity flattens to an empty map, so diffing against "nothing" works.
func entityFields(e catalog.Entity) map[string]any {
	if e == nil {
		return map[string]any{}
	}
	data, err := json.Marshal(e)
	if err != nil {
		return map[string]any{}
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return map[string]any{}
	}
	return fields
}

func diffFields(prefix string, oldFields, newFields map[string]any, root bool) []PropertyChange {
	keys := make(map[string]bool, len(oldFields)+len(newFields))
	for k := range oldFields {
		keys[k] = true
	}
	for k := range newFields {
		keys[k] = true
	}
	sorted := make([]string, 0, len(keys))
	for k := range keys {
		sorted = append(sorted, k)
	}
	sort.Strings(sorted)

	var out []PropertyChange
	for _, key := range sorted {
		if root && excludedRootFields[key] {
			continue
		}
		name := key
		if prefix != "" {
			name = prefix + "." + key
		}
		oldVal, newVal := oldFields[key], newFields[key]

		if isEmptyValue(oldVal) && isEmptyValue(newVal) {
			continue
		}

		oldMap, oldIsMap := oldVal.(map[string]any)
		newMap, newIsMap := newVal.(map[string]any)
		if oldIsMap && newIsMap {
			out = append(out, diffFields(name, oldMap, newMap, false)...)
			continue
		}

		if canonicalJSON(oldVal) == canonicalJSON(newVal) {
			continue
		}
		out = append(out, PropertyChange{Property: name, OldValue: oldVal, NewValue: newVal})
	}
	return out
}

// isEmptyValue reports the widened emptiness equivalence: nil, empty
// string, empty array, and empty object are all mutually empty.
func isEmptyValue(v any) bool {
	switch typed := v.(type) {
	case nil:
		return true
	case string:
		return typed == ""
	case []any:
		return len(typed) == 0
	case map[string]any:
		return len(typed) == 0
	default:
		return false
	}
}

// canonicalJSON serializes a value deterministically for comparison.
// encoding/json sorts map keys, which is all the canonicalization needed
// for values that came out of json.Unmarshal.
func canonicalJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return ""
	}
	return buf.String()
}
