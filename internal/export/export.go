// Package export assembles staged changes into a single diff bundle.
//
// The bundle is the hand-off artifact for the upstream contribution
// pipeline: one JSON document holding metadata, the flattened change list,
// and every staged image inline as base64. Turning a bundle into a pull
// request happens elsewhere.
package export

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/OpenFilamentCollective/open-filament-database-sub001/internal/staging"
)

// Metadata describes one exported bundle.
type Metadata struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	FormatVersion int             `json:"format_version"`
	Summary       staging.Summary `json:"summary"`
}

// Image is one staged image with its bytes inlined.
type Image struct {
	staging.ImageRef
	Data string `json:"data"` // base64
}

// Bundle is the complete exported diff.
type Bundle struct {
	Metadata Metadata          `json:"metadata"`
	Changes  []*staging.Change `json:"changes"`
	Images   []Image           `json:"images,omitempty"`
}

// Build assembles a bundle from the staged change set: the pre-order
// change list plus every image reference with its stored bytes. An image
// reference whose bytes are missing fails the export rather than shipping
// a bundle with dangling references.
func Build(st *staging.Store) (*Bundle, error) {
	changes := st.AllChanges()

	refs := st.Images()
	images := make([]Image, 0, len(refs))
	for _, ref := range refs {
		data, err := st.ImageBytes(ref.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
		images = append(images, Image{
			ImageRef: ref,
			Data:     base64.StdEncoding.EncodeToString(data),
		})
	}

	return &Bundle{
		Metadata: Metadata{
			ID:            uuid.NewString(),
			CreatedAt:     time.Now().UTC(),
			FormatVersion: staging.FormatVersion,
			Summary:       st.Summary(),
		},
		Changes: changes,
		Images:  images,
	}, nil
}

// Write stores the bundle as pretty-printed JSON at path, atomically via a
// temp file and rename.
func (b *Bundle) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal bundle: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// DefaultFilename names a bundle after its creation time, e.g.
// ofd-changes-20260827-153000.json.
func DefaultFilename(now time.Time) string {
	return fmt.Sprintf("ofd-changes-%s.json", now.Format("20060102-150405"))
}
