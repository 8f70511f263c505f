// Package hasher computes canonical parameter-file digests.
//
// The canonical digest is blake2b-512 truncated to its first 16 bytes and
// hex encoded, matching the digests already published for existing
// parameter manifests. Files are streamed in fixed-size chunks so memory
// stays bounded regardless of file size; parameter files run to gigabytes.
package hasher

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"

	"github.com/meigma/paramstore/core"
)

// chunkSize is the read buffer size for streaming digests. The digest is
// independent of this value; it only bounds memory.
const chunkSize = 4 << 20

// digestBytes is how much of the blake2b-512 sum forms the canonical digest.
const digestBytes = 16

// Compile-time interface check.
var _ core.Digester = Hasher{}

// Hasher implements core.Digester. The zero value is ready to use.
type Hasher struct{}

// New returns a Hasher.
func New() Hasher {
	return Hasher{}
}

// DigestFile streams the file through blake2b and returns the canonical
// hex digest. Identical bytes always yield an identical digest.
func (Hasher) DigestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %v", core.ErrIO, path, err)
	}
	defer f.Close()

	h, err := blake2b.New512(nil)
	if err != nil {
		return "", fmt.Errorf("init blake2b: %w", err)
	}

	if _, err := io.CopyBuffer(h, f, make([]byte, chunkSize)); err != nil {
		return "", fmt.Errorf("%w: read %s: %v", core.ErrIO, path, err)
	}

	return hex.EncodeToString(h.Sum(nil)[:digestBytes]), nil
}

// Verify reports whether the file at path matches the entry. Size is
// cross-checked before hashing as a cheap fast-fail; a file of the right
// length is then fully digested. The error is non-nil only for local IO
// failures; a missing file is reported as a plain mismatch so callers can
// treat absent and invalid files uniformly.
func (hs Hasher) Verify(path string, entry core.ParameterEntry) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %v", core.ErrIO, path, err)
	}
	if info.Size() != entry.Size {
		return false, nil
	}

	digest, err := hs.DigestFile(path)
	if err != nil {
		return false, err
	}
	return digest == entry.Digest, nil
}
