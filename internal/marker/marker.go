// Package marker reads and writes the .rapidkit-workspace file that
// identifies a managed workspace directory.
//
// Several generations of tooling have written this file with different
// signatures. All of them are still recognized, and writers merge their own
// metadata namespace into the existing document instead of replacing it.
package marker

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"time"
)

// FileName is the marker file stored at the root of every managed workspace.
const FileName = ".rapidkit-workspace"

// Signature is the value written by current tooling.
const Signature = "RAPIDKIT_WORKSPACE"

// Producer identifiers recorded in createdBy.
const (
	CreatedByVSCode = "rapidkit-vscode"
	CreatedByNPM    = "rapidkit-npm"
)

// acceptedSignatures is append-only: markers written by older tools must
// keep validating.
var acceptedSignatures = map[string]bool{
	Signature:                   true,
	"RAPIDKIT_VSCODE_WORKSPACE": true,
	"RAPIDKIT_NPM_WORKSPACE":    true,
}

var acceptedProducers = map[string]bool{
	CreatedByVSCode: true,
	CreatedByNPM:    true,
}

// Marker is the parsed content of a .rapidkit-workspace file.
type Marker struct {
	Signature string    `json:"signature"`
	CreatedBy string    `json:"createdBy"`
	Version   string    `json:"version"`
	CreatedAt string    `json:"createdAt"`
	Name      string    `json:"name"`
	Metadata  *Metadata `json:"metadata,omitempty"`

	// extra holds top-level keys written by other producers so they survive
	// a read/write cycle.
	extra map[string]json.RawMessage
}

// Metadata is partitioned by namespace; each namespace has a single owner.
type Metadata struct {
	VSCode map[string]any `json:"vscode,omitempty"`
	NPM    map[string]any `json:"npm,omitempty"`
	Python map[string]any `json:"python,omitempty"`
	Custom map[string]any `json:"custom,omitempty"`
}

var knownKeys = []string{"signature", "createdBy", "version", "createdAt", "name", "metadata"}

type markerAlias Marker

// UnmarshalJSON decodes the known fields and keeps everything else aside.
func (m *Marker) UnmarshalJSON(data []byte) error {
	var a markerAlias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownKeys {
		delete(raw, k)
	}
	*m = Marker(a)
	if len(raw) > 0 {
		m.extra = raw
	}
	return nil
}

// MarshalJSON encodes the known fields plus any preserved unknown keys.
func (m Marker) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(markerAlias(m))
	if err != nil {
		return nil, err
	}
	if len(m.extra) == 0 {
		return known, nil
	}
	out := make(map[string]json.RawMessage, len(m.extra)+len(knownKeys))
	maps.Copy(out, m.extra)
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	maps.Copy(out, fields)
	return json.Marshal(out)
}

// New returns a marker stamped with the current signature.
func New(name, toolVersion string) *Marker {
	return &Marker{
		Signature: Signature,
		CreatedBy: CreatedByVSCode,
		Version:   toolVersion,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Name:      name,
	}
}

// Path returns the marker file path for a workspace directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Read parses the marker in dir. A missing or unparseable file is reported
// as absent rather than as an error.
func Read(dir string) (*Marker, bool) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return nil, false
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return &m, true
}

// IsValid reports whether m was written by a recognized tool generation.
func IsValid(m *Marker) bool {
	if m == nil {
		return false
	}
	return acceptedSignatures[m.Signature] || acceptedProducers[m.CreatedBy]
}

// HasValid reports whether dir holds a valid marker.
func HasValid(dir string) bool {
	m, ok := Read(dir)
	return ok && IsValid(m)
}

// Write stores m in dir, merging its metadata into whatever marker is
// already there one namespace at a time.
func Write(dir string, m *Marker) error {
	merged := *m
	if existing, ok := Read(dir); ok {
		merged = merge(existing, m)
	}

	data, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling marker: %w", err)
	}
	if err := writeAtomic(Path(dir), append(data, '\n')); err != nil {
		return fmt.Errorf("writing marker: %w", err)
	}
	return nil
}

func merge(existing, incoming *Marker) Marker {
	out := *existing
	if incoming.Signature != "" {
		out.Signature = incoming.Signature
	}
	if incoming.CreatedBy != "" {
		out.CreatedBy = incoming.CreatedBy
	}
	if incoming.Version != "" {
		out.Version = incoming.Version
	}
	if incoming.CreatedAt != "" {
		out.CreatedAt = incoming.CreatedAt
	}
	if incoming.Name != "" {
		out.Name = incoming.Name
	}
	if len(incoming.extra) > 0 {
		out.extra = make(map[string]json.RawMessage, len(existing.extra)+len(incoming.extra))
		maps.Copy(out.extra, existing.extra)
		maps.Copy(out.extra, incoming.extra)
	}

	if incoming.Metadata == nil {
		return out
	}
	var md Metadata
	if existing.Metadata != nil {
		md = *existing.Metadata
	}
	md.VSCode = mergeNamespace(md.VSCode, incoming.Metadata.VSCode)
	md.NPM = mergeNamespace(md.NPM, incoming.Metadata.NPM)
	md.Python = mergeNamespace(md.Python, incoming.Metadata.Python)
	md.Custom = mergeNamespace(md.Custom, incoming.Metadata.Custom)
	out.Metadata = &md
	return out
}

func mergeNamespace(existing, incoming map[string]any) map[string]any {
	if incoming == nil {
		return existing
	}
	out := make(map[string]any, len(existing)+len(incoming))
	maps.Copy(out, existing)
	maps.Copy(out, incoming)
	return out
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
