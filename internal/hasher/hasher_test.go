package hasher

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/paramstore/core"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "file.params")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDigestFileEmptyInput(t *testing.T) {
	t.Parallel()

	// First 16 bytes of blake2b-512 of the empty input.
	const want = "786a02f742015903c6c6fd852552d272"

	digest, err := New().DigestFile(writeFile(t, nil))
	require.NoError(t, err)
	assert.Equal(t, want, digest)
}

func TestDigestFileDeterministic(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("parameter data "), 1<<16)
	h := New()

	a, err := h.DigestFile(writeFile(t, data))
	require.NoError(t, err)
	b, err := h.DigestFile(writeFile(t, data))
	require.NoError(t, err)

	assert.Equal(t, a, b, "identical bytes must yield identical digests")
	assert.Len(t, a, 32, "canonical digest is 16 bytes hex encoded")
}

func TestDigestFileDetectsMutation(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte{0xAB}, 4096)
	h := New()

	clean, err := h.DigestFile(writeFile(t, data))
	require.NoError(t, err)

	mutated := append([]byte(nil), data...)
	mutated[2048] ^= 0x01
	dirty, err := h.DigestFile(writeFile(t, mutated))
	require.NoError(t, err)

	assert.NotEqual(t, clean, dirty)
}

func TestDigestFileMissing(t *testing.T) {
	t.Parallel()

	_, err := New().DigestFile(filepath.Join(t.TempDir(), "absent.params"))
	assert.ErrorIs(t, err, core.ErrIO)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("proof "), 1024)
	h := New()
	path := writeFile(t, data)

	digest, err := h.DigestFile(path)
	require.NoError(t, err)
	entry := core.ParameterEntry{Digest: digest, Size: int64(len(data))}

	t.Run("matching file", func(t *testing.T) {
		t.Parallel()

		ok, err := h.Verify(path, entry)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("size mismatch", func(t *testing.T) {
		t.Parallel()

		truncated := writeFile(t, data[:len(data)-1])
		ok, err := h.Verify(truncated, entry)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("content mismatch at same size", func(t *testing.T) {
		t.Parallel()

		mutated := append([]byte(nil), data...)
		mutated[0] ^= 0x01
		ok, err := h.Verify(writeFile(t, mutated), entry)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("missing file is a mismatch, not an error", func(t *testing.T) {
		t.Parallel()

		ok, err := h.Verify(filepath.Join(t.TempDir(), "absent.params"), entry)
		require.NoError(t, err)
		assert.False(t, ok)
	})
}
