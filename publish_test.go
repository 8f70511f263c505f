package paramstore

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/paramstore/internal/manifest"
)

// failingUploadRemote rejects every upload.
type failingUploadRemote struct {
	*mockRemote
}

func (f *failingUploadRemote) Upload(_ context.Context, identifier, _ string) error {
	return errors.New("remote store unavailable: " + identifier)
}

func writeCandidate(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPublishNewFiles(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	params := writeCandidate(t, srcDir, "v28-proof-sector-34359738368.params", bytes.Repeat([]byte("p"), 8192))
	vk := writeCandidate(t, srcDir, "v28-proof-sector-34359738368.vk", bytes.Repeat([]byte("v"), 256))

	remote := newMockRemote()
	client, err := NewClient(WithCacheDir(t.TempDir()), WithRemote(remote))
	require.NoError(t, err)

	m, err := client.Publish(context.Background(), []string{params, vk}, "", false)
	require.NoError(t, err)
	require.Equal(t, 2, m.Len())

	entry, ok := m.Get("v28-proof-sector-34359738368.params")
	require.True(t, ok)
	assert.Equal(t, int64(8192), entry.Size)
	assert.Equal(t, "sector-32GiB", entry.Classifier)
	assert.Len(t, entry.Digest, 32)

	// Both candidates uploaded and installed into the cache.
	assert.ElementsMatch(t, []string{
		"v28-proof-sector-34359738368.params",
		"v28-proof-sector-34359738368.vk",
	}, remote.uploads)
	assert.FileExists(t, filepath.Join(client.CacheDir(), "v28-proof-sector-34359738368.params"))

	// The commit is durable: a reload sees the same entries.
	reloaded, err := manifest.Load(client.ManifestPath())
	require.NoError(t, err)
	assert.True(t, m.Equal(reloaded))
}

func TestPublishWithoutUpload(t *testing.T) {
	t.Parallel()

	src := writeCandidate(t, t.TempDir(), "v28-proof-sector-2048.params", []byte("local only"))

	remote := newMockRemote()
	client, err := NewClient(WithCacheDir(t.TempDir()), WithRemote(remote))
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), []string{src}, "", false, WithoutUpload())
	require.NoError(t, err)
	assert.Empty(t, remote.uploads)
}

func TestPublishExplicitClassifier(t *testing.T) {
	t.Parallel()

	src := writeCandidate(t, t.TempDir(), "srs-inner-product.params", []byte("shared setup"))

	client, err := NewClient(WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	m, err := client.Publish(context.Background(), []string{src}, "universal", false)
	require.NoError(t, err)

	entry, ok := m.Get("srs-inner-product.params")
	require.True(t, ok)
	assert.Equal(t, "universal", entry.Classifier)
}

func TestPublishDerivedClassifierFallback(t *testing.T) {
	t.Parallel()

	src := writeCandidate(t, t.TempDir(), "no-sector-token.params", []byte("data"))

	client, err := NewClient(WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	m, err := client.Publish(context.Background(), []string{src}, "", false)
	require.NoError(t, err)

	entry, ok := m.Get("no-sector-token.params")
	require.True(t, ok)
	assert.Equal(t, "unclassified", entry.Classifier)
}

func TestPublishIdenticalRepublishIsNotAConflict(t *testing.T) {
	t.Parallel()

	src := writeCandidate(t, t.TempDir(), "v28-proof-sector-2048.params", []byte("stable bytes"))

	client, err := NewClient(WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), []string{src}, "", false)
	require.NoError(t, err)

	// Same identifier, same bytes, no confirmation needed.
	_, err = client.Publish(context.Background(), []string{src}, "", false)
	assert.NoError(t, err)
}

func TestPublishConflict(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	first := writeCandidate(t, srcDir, "v28-proof-sector-2048.params", []byte("original bytes"))

	client, err := NewClient(WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), []string{first}, "", false)
	require.NoError(t, err)
	snapshot, err := os.ReadFile(client.ManifestPath())
	require.NoError(t, err)

	// Same identifier, different bytes.
	changed := writeCandidate(t, t.TempDir(), "v28-proof-sector-2048.params", []byte("changed bytes!"))
	_, err = client.Publish(context.Background(), []string{changed}, "", false)
	assert.ErrorIs(t, err, ErrPublishConflict)

	after, err := os.ReadFile(client.ManifestPath())
	require.NoError(t, err)
	assert.Equal(t, snapshot, after, "rejected publish leaves the manifest untouched")

	// Confirming the overwrite replaces the entry.
	m, err := client.Publish(context.Background(), []string{changed}, "", true)
	require.NoError(t, err)
	entry, ok := m.Get("v28-proof-sector-2048.params")
	require.True(t, ok)
	assert.Equal(t, int64(len("changed bytes!")), entry.Size)
}

func TestPublishIntraBatchConflict(t *testing.T) {
	t.Parallel()

	a := writeCandidate(t, t.TempDir(), "v28-proof-sector-2048.params", []byte("version one"))
	b := writeCandidate(t, t.TempDir(), "v28-proof-sector-2048.params", []byte("version two"))

	client, err := NewClient(WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), []string{a, b}, "", true)
	assert.ErrorIs(t, err, ErrPublish)
	assert.NotErrorIs(t, err, ErrPublishConflict)
}

func TestPublishUploadFailureAbortsCommit(t *testing.T) {
	t.Parallel()

	srcDir := t.TempDir()
	a := writeCandidate(t, srcDir, "v28-a-sector-2048.params", []byte("candidate a"))
	b := writeCandidate(t, srcDir, "v28-b-sector-2048.params", []byte("candidate b"))

	client, err := NewClient(
		WithCacheDir(t.TempDir()),
		WithRemote(&failingUploadRemote{mockRemote: newMockRemote()}),
	)
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), []string{a, b}, "", false)
	assert.ErrorIs(t, err, ErrPublish)

	m, loadErr := manifest.Load(client.ManifestPath())
	require.NoError(t, loadErr)
	assert.Equal(t, 0, m.Len(), "no entry commits when any upload fails")
}

func TestPublishMissingFile(t *testing.T) {
	t.Parallel()

	client, err := NewClient(WithCacheDir(t.TempDir()))
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "v28-absent-sector-2048.params")
	_, err = client.Publish(context.Background(), []string{missing}, "", false)
	assert.ErrorIs(t, err, ErrIO)
}

func TestPublishRoundTripsAsVerifiedFetch(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("publish then fetch "), 512)
	src := writeCandidate(t, t.TempDir(), "v28-proof-sector-2048.params", data)

	remote := newMockRemote()
	client, err := NewClient(WithCacheDir(t.TempDir()), WithRemote(remote))
	require.NoError(t, err)

	_, err = client.Publish(context.Background(), []string{src}, "", false)
	require.NoError(t, err)

	results, err := client.Fetch(context.Background(), "")
	require.NoError(t, err)

	out := results["v28-proof-sector-2048.params"]
	assert.Equal(t, StatusVerified, out.Status)
	assert.Equal(t, 0, out.Attempts, "published file is already in the cache")
}
