// Package catalog defines the five concrete entity kinds of the filament
// database and reads base entity data from a local catalog checkout.
//
// Entity payloads are closed, typed structs rather than free-form maps so
// that identifier handling (re-keying on rename, overlay keys, path leaves)
// stays exhaustive per kind. The JSON field names match the on-disk catalog
// format (brand.json, material.json, filament.json, variant.json,
// store.json).
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/entitypath"
)

// Entity is one catalog entity payload. Each kind names its own identifier
// field: the value that keys the entity inside its parent collection and
// doubles as the final path segment.
type Entity interface {
	Kind() entitypath.Kind
	Identifier() string
}

// Store is a filament retailer from stores/<dir>/store.json.
type Store struct {
	ID            string   `json:"id"`
	Name          string   `json:"name,omitempty"`
	Slug          string   `json:"slug,omitempty"`
	StorefrontURL string   `json:"storefront_url,omitempty"`
	Logo          string   `json:"logo,omitempty"`
	ShipsFrom     []string `json:"ships_from,omitempty"`
	ShipsTo       []string `json:"ships_to,omitempty"`
}

func (s Store) Kind() entitypath.Kind { return entitypath.KindStore }
func (s Store) Identifier() string    { return s.ID }

// Brand is a filament manufacturer from data/<dir>/brand.json.
type Brand struct {
	Name    string `json:"name"`
	Slug    string `json:"slug,omitempty"`
	Website string `json:"website,omitempty"`
	Logo    string `json:"logo,omitempty"`
	Origin  string `json:"origin,omitempty"`
}

func (b Brand) Kind() entitypath.Kind { return entitypath.KindBrand }
func (b Brand) Identifier() string    { return b.Name }

// Material is a material type under a brand, e.g. PLA or PETG.
// BrandID is injected for display only and never part of the editable
// payload.
type Material struct {
	Material      string `json:"material"`
	Slug          string `json:"slug,omitempty"`
	MaterialClass string `json:"material_class,omitempty"`
	BrandID       string `json:"brand_id,omitempty"`
}

func (m Material) Kind() entitypath.Kind { return entitypath.KindMaterial }
func (m Material) Identifier() string    { return m.Material }

// Filament is a product line under a material.
type Filament struct {
	Name              string  `json:"name"`
	Slug              string  `json:"slug,omitempty"`
	Material          string  `json:"material,omitempty"`
	Density           float64 `json:"density,omitempty"`
	DiameterTolerance float64 `json:"diameter_tolerance,omitempty"`
	Discontinued      bool    `json:"discontinued,omitempty"`
	BrandID           string  `json:"brand_id,omitempty"`
	MaterialID        string  `json:"material_id,omitempty"`
}

func (f Filament) Kind() entitypath.Kind { return entitypath.KindFilament }
func (f Filament) Identifier() string    { return f.Name }

// Variant is one color variant of a filament.
type Variant struct {
	ColorName    string         `json:"color_name"`
	ColorHex     string         `json:"color_hex,omitempty"`
	Slug         string         `json:"slug,omitempty"`
	Discontinued bool           `json:"discontinued,omitempty"`
	HexVariants  []string       `json:"hex_variants,omitempty"`
	Traits       map[string]any `json:"traits,omitempty"`
	FilamentID   string         `json:"filament_id,omitempty"`
}

func (v Variant) Kind() entitypath.Kind { return entitypath.KindVariant }
func (v Variant) Identifier() string    { return v.ColorName }

// DecodeEntity decodes a raw JSON payload into the concrete struct for the
// given kind. Used by change-set (de)serialization, where payloads are
// stored tagged by entity kind.
func DecodeEntity(kind entitypath.Kind, raw json.RawMessage) (Entity, error) {
	switch kind {
	case entitypath.KindStore:
		var e Store
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("failed to decode store payload: %w", err)
		}
		return e, nil
	case entitypath.KindBrand:
		var e Brand
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("failed to decode brand payload: %w", err)
		}
		return e, nil
	case entitypath.KindMaterial:
		var e Material
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("failed to decode material payload: %w", err)
		}
		return e, nil
	case entitypath.KindFilament:
		var e Filament
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("failed to decode filament payload: %w", err)
		}
		return e, nil
	case entitypath.KindVariant:
		var e Variant
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("failed to decode variant payload: %w", err)
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// Stub returns a minimal entity of the given kind carrying only its
// identifier. Overlay code uses stubs to re-insert locally-deleted entities
// whose base records are already gone.
func Stub(kind entitypath.Kind, id string) Entity {
	switch kind {
	case entitypath.KindStore:
		return Store{ID: id}
	case entitypath.KindBrand:
		return Brand{Name: id}
	case entitypath.KindMaterial:
		return Material{Material: id}
	case entitypath.KindFilament:
		return Filament{Name: id}
	default:
		return Variant{ColorName: id}
	}
}

// Slugify converts a display name to its URL-safe slug: lowercased, with
// runs of non-alphanumeric characters collapsed to single hyphens.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
