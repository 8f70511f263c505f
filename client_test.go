package paramstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientRequiresCacheDir(t *testing.T) {
	t.Parallel()

	_, err := NewClient()
	assert.Error(t, err)
}

func TestNewClientDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	client, err := NewClient(WithCacheDir(dir))
	require.NoError(t, err)

	assert.Equal(t, dir, client.CacheDir())
	assert.Equal(t, filepath.Join(dir, "manifest.json"), client.ManifestPath())
}

func TestNewClientCreatesCacheDir(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "cache")
	_, err := NewClient(WithCacheDir(dir))
	require.NoError(t, err)
	assert.DirExists(t, dir)
}

func TestNewClientManifestPathOverride(t *testing.T) {
	t.Parallel()

	manifest := filepath.Join(t.TempDir(), "catalog.json")
	client, err := NewClient(WithCacheDir(t.TempDir()), WithManifestPath(manifest))
	require.NoError(t, err)
	assert.Equal(t, manifest, client.ManifestPath())
}

func TestNewClientBuildsRemoteFromBaseURL(t *testing.T) {
	t.Parallel()

	client, err := NewClient(
		WithCacheDir(t.TempDir()),
		WithBaseURL("https://params.example.com"),
	)
	require.NoError(t, err)
	assert.NotNil(t, client.remote)
}
