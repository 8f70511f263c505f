package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/paramstore/core"
)

func sampleEntries() map[string]core.ParameterEntry {
	return map[string]core.ParameterEntry{
		"v28-proof-sector-34359738368.params": {
			Digest:     "7a1d2f4e9b8c6a5d3e2f1a0b9c8d7e6f",
			Size:       1 << 30,
			Classifier: "sector-32GiB",
		},
		"v28-proof-sector-34359738368.vk": {
			Digest:     "0f1e2d3c4b5a69788796a5b4c3d2e1f0",
			Size:       2048,
			Classifier: "sector-32GiB",
		},
		"v28-proof-sector-2048.params": {
			Digest:     "aabbccddeeff00112233445566778899",
			Size:       4096,
			Classifier: "sector-2KiB",
		},
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	m, err := Load(filepath.Join(t.TempDir(), "manifest.json"))
	require.NoError(t, err)
	assert.Equal(t, 0, m.Len())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.json")

	m := New()
	for id, entry := range sampleEntries() {
		m.Set(id, entry)
	}
	require.NoError(t, m.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.True(t, m.Equal(loaded))
}

func TestSaveIsByteStable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")

	m := New()
	for id, entry := range sampleEntries() {
		m.Set(id, entry)
	}
	require.NoError(t, m.Save(first))

	loaded, err := Load(first)
	require.NoError(t, err)
	require.NoError(t, loaded.Save(second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b, "unchanged manifest should serialize identically")
}

func TestLoadCorrupt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "truncated json",
			content: `{"v28-proof-sector-2048.params": {"digest": "aa`,
		},
		{
			name:    "wrong top-level type",
			content: `["not", "an", "object"]`,
		},
		{
			name:    "missing digest",
			content: `{"v28-proof-sector-2048.params": {"size": 4096, "classifier": "sector-2KiB"}}`,
		},
		{
			name:    "negative size",
			content: `{"v28-proof-sector-2048.params": {"digest": "aabb", "size": -1, "classifier": "sector-2KiB"}}`,
		},
		{
			name:    "identifier with path separator",
			content: `{"../escape.params": {"digest": "aabb", "size": 1, "classifier": "sector-2KiB"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "manifest.json")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.ErrorIs(t, err, core.ErrManifestCorrupt)
		})
	}
}

func TestSaveLeavesPreviousFileOnFailure(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.json")

	m := New()
	m.Set("v28-proof-sector-2048.params", core.ParameterEntry{
		Digest:     "aabbccddeeff00112233445566778899",
		Size:       4096,
		Classifier: "sector-2KiB",
	})
	require.NoError(t, m.Save(path))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// Saving into a nonexistent directory fails at temp-file creation.
	err = m.Save(filepath.Join(t.TempDir(), "missing", "manifest.json"))
	assert.ErrorIs(t, err, core.ErrPersistence)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestEntriesFor(t *testing.T) {
	t.Parallel()

	m := New()
	for id, entry := range sampleEntries() {
		m.Set(id, entry)
	}

	all := m.EntriesFor("")
	assert.Len(t, all, 3)

	sector32 := m.EntriesFor("sector-32GiB")
	assert.Len(t, sector32, 2)
	for _, entry := range sector32 {
		assert.Equal(t, "sector-32GiB", entry.Classifier)
	}

	assert.Empty(t, m.EntriesFor("sector-64GiB"))
}

func TestIdentifiersSorted(t *testing.T) {
	t.Parallel()

	m := New()
	m.Set("b.params", core.ParameterEntry{Digest: "bb", Size: 1})
	m.Set("a.params", core.ParameterEntry{Digest: "aa", Size: 1})
	m.Set("c.params", core.ParameterEntry{Digest: "cc", Size: 1})

	assert.Equal(t, []string{"a.params", "b.params", "c.params"}, m.Identifiers())
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()

	m := New()
	m.Set("a.params", core.ParameterEntry{Digest: "aa", Size: 1})

	clone := m.Clone()
	clone.Set("b.params", core.ParameterEntry{Digest: "bb", Size: 2})

	assert.Equal(t, 1, m.Len())
	assert.Equal(t, 2, clone.Len())
	assert.False(t, m.Equal(clone))
}
