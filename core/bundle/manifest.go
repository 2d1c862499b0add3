// Package bundle packs annotated documents into a single compressed tar
// archive and unpacks them again.
//
// A bundle holds manifest.json followed by one documents/<id>.json entry
// per document. The manifest records, for every entry, the digests of the
// entry bytes and the document fingerprint, and Unpack checks both.
package bundle

import (
	"encoding/json"
	"fmt"

	"github.com/FocuswithJustin/standoff/core/annot"
	"github.com/FocuswithJustin/standoff/internal/validation"
)

// Version is the current bundle format version.
const Version = "1.0.0"

// Manifest represents the bundle manifest (manifest.json).
type Manifest struct {
	BundleVersion string          `json:"bundle_version"`
	ID            string          `json:"id"`
	CreatedAt     string          `json:"created_at"`
	Tool          ToolInfo        `json:"tool"`
	Compression   CompressionType `json:"compression"`
	Documents     []*Entry        `json:"documents"`
}

// ToolInfo describes the tool that created this bundle.
type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Entry describes one document stored in the bundle.
type Entry struct {
	ID          string       `json:"id"`
	Name        string       `json:"name,omitempty"`
	Path        string       `json:"path"`
	SizeBytes   int64        `json:"size_bytes"`
	Hashes      annot.Hashes `json:"hashes"`
	Fingerprint annot.Hashes `json:"fingerprint"`
	Annotations int          `json:"annotations"`
}

// ToJSON serializes the manifest with indentation.
func (m *Manifest) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ParseManifest parses and checks a manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if m.BundleVersion == "" {
		return nil, fmt.Errorf("manifest has no bundle_version")
	}
	seen := make(map[string]bool, len(m.Documents))
	for i, e := range m.Documents {
		if e == nil || e.ID == "" || e.Path == "" {
			return nil, fmt.Errorf("manifest document %d is incomplete", i)
		}
		if err := validation.EntryPath(e.Path); err != nil {
			return nil, fmt.Errorf("manifest document %d: %w", i, err)
		}
		if seen[e.Path] {
			return nil, fmt.Errorf("manifest lists %s twice", e.Path)
		}
		seen[e.Path] = true
	}
	return &m, nil
}

// Entry returns the manifest entry for the document with the given ID.
func (m *Manifest) Entry(id string) (*Entry, bool) {
	for _, e := range m.Documents {
		if e.ID == id {
			return e, true
		}
	}
	return nil, false
}
