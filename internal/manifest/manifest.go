// Package manifest persists the identifier to parameter-entry catalog.
//
// The on-disk form is a single JSON object mapping identifier to entry
// metadata. Saves are whole-file atomic replaces (temp + fsync + rename)
// so a partial write is never observable; the previous file survives any
// failed commit.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/meigma/paramstore/core"
)

// Manifest is the in-memory catalog. It is owned by a single orchestrator
// for the duration of a run; entries are replaced, never mutated in place.
type Manifest struct {
	entries map[string]core.ParameterEntry
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{entries: make(map[string]core.ParameterEntry)}
}

// Load reads the manifest at path. A missing file yields an empty
// manifest (first-run case). A file that exists but cannot be parsed into
// well-formed entries fails with core.ErrManifestCorrupt.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", core.ErrIO, path, err)
	}

	var entries map[string]core.ParameterEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrManifestCorrupt, path, err)
	}
	if entries == nil {
		entries = make(map[string]core.ParameterEntry)
	}
	for id, entry := range entries {
		if err := ValidIdentifier(id); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrManifestCorrupt, path, err)
		}
		if entry.Digest == "" || entry.Size < 0 {
			return nil, fmt.Errorf("%w: %s: malformed entry for %q", core.ErrManifestCorrupt, path, id)
		}
	}

	return &Manifest{entries: entries}, nil
}

// Save writes the whole manifest to a temporary file in the destination's
// directory, then atomically renames it over path. Any failure is wrapped
// in core.ErrPersistence and leaves the previous file untouched.
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", core.ErrPersistence, err)
	}
	data = append(data, '\n')

	tmpPath := path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", core.ErrPersistence, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write: %v", core.ErrPersistence, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: sync: %v", core.ErrPersistence, err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close: %v", core.ErrPersistence, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: rename: %v", core.ErrPersistence, err)
	}

	return nil
}

// Get returns the entry for identifier.
func (m *Manifest) Get(identifier string) (core.ParameterEntry, bool) {
	entry, ok := m.entries[identifier]
	return entry, ok
}

// Set records an entry under identifier, replacing any existing one.
func (m *Manifest) Set(identifier string, entry core.ParameterEntry) {
	m.entries[identifier] = entry
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	return len(m.entries)
}

// Identifiers returns all identifiers in sorted order.
func (m *Manifest) Identifiers() []string {
	ids := make([]string, 0, len(m.entries))
	for id := range m.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// EntriesFor returns a copy of the entries matching classifier. The empty
// classifier matches every entry.
func (m *Manifest) EntriesFor(classifier string) map[string]core.ParameterEntry {
	matched := make(map[string]core.ParameterEntry)
	for id, entry := range m.entries {
		if classifier == "" || entry.Classifier == classifier {
			matched[id] = entry
		}
	}
	return matched
}

// Clone returns an independent copy of the manifest.
func (m *Manifest) Clone() *Manifest {
	entries := make(map[string]core.ParameterEntry, len(m.entries))
	for id, entry := range m.entries {
		entries[id] = entry
	}
	return &Manifest{entries: entries}
}

// Equal reports whether both manifests hold identical entries.
func (m *Manifest) Equal(other *Manifest) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	for id, entry := range m.entries {
		if got, ok := other.entries[id]; !ok || got != entry {
			return false
		}
	}
	return true
}
