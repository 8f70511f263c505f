// Package core provides the shared types and interfaces for paramstore.
//
// This package exists to break import cycles between the root paramstore
// package and internal implementation packages. The paramstore package
// re-exports all public types from this package, so external users should
// import paramstore directly, not paramstore/core.
package core

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions.
var (
	// ErrIO indicates a local filesystem failure.
	ErrIO = errors.New("paramstore: io failure")

	// ErrTransientTransfer indicates a network-level failure the caller
	// should retry.
	ErrTransientTransfer = errors.New("paramstore: transient transfer failure")

	// ErrPermanentTransfer indicates an unrecoverable transfer condition
	// that must not be retried.
	ErrPermanentTransfer = errors.New("paramstore: permanent transfer failure")

	// ErrNotFound indicates the remote object does not exist.
	// Matches ErrPermanentTransfer under errors.Is.
	ErrNotFound = fmt.Errorf("%w: not found", ErrPermanentTransfer)

	// ErrUnauthorized indicates the remote store rejected the session.
	// Matches ErrPermanentTransfer under errors.Is.
	ErrUnauthorized = fmt.Errorf("%w: unauthorized", ErrPermanentTransfer)

	// ErrDigestMismatch indicates a file's content does not hash to the
	// digest the manifest claims for it.
	ErrDigestMismatch = errors.New("paramstore: digest mismatch")

	// ErrManifestCorrupt indicates the manifest file exists but cannot be
	// parsed into well-formed entries.
	ErrManifestCorrupt = errors.New("paramstore: manifest corrupt")

	// ErrPersistence indicates the manifest could not be committed to disk.
	// The previous manifest file is left untouched.
	ErrPersistence = errors.New("paramstore: manifest persistence failed")

	// ErrPublishConflict indicates a candidate's digest differs from an
	// existing entry under the same identifier and overwrite was not
	// confirmed.
	ErrPublishConflict = errors.New("paramstore: publish conflict")

	// ErrPublish indicates a publish batch failed before commit. The
	// manifest is unchanged.
	ErrPublish = errors.New("paramstore: publish failed")

	// ErrNoRemote indicates an operation required a distribution endpoint
	// but none was configured.
	ErrNoRemote = errors.New("paramstore: no remote configured")
)

// ParameterEntry is the manifest metadata for one parameter file.
// Entries are immutable once validated; updates replace the whole value.
type ParameterEntry struct {
	// Digest is the hex-encoded hash of the file's exact byte content.
	Digest string `json:"digest"`
	// Size is the expected byte length.
	Size int64 `json:"size"`
	// Classifier tags the proof configuration the file serves,
	// e.g. "sector-32GiB". Used to scope fetch and publish sets.
	Classifier string `json:"classifier"`
}

// Status is the per-identifier fetch state.
type Status int

// Fetch states. Verified and Failed are terminal.
const (
	StatusPending Status = iota
	StatusDownloading
	StatusVerifying
	StatusVerified
	StatusRetrying
	StatusFailed
)

// String returns the lowercase name of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDownloading:
		return "downloading"
	case StatusVerifying:
		return "verifying"
	case StatusVerified:
		return "verified"
	case StatusRetrying:
		return "retrying"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the terminal result for one identifier in a fetch run.
type Outcome struct {
	// Status is StatusVerified or StatusFailed.
	Status Status
	// Attempts is the number of download attempts made. Zero when the
	// local file was already valid.
	Attempts int
	// Err holds the failure cause for StatusFailed outcomes.
	Err error
}

// ProgressFunc reports transfer progress for one identifier.
// total is -1 when the remote does not report a length.
type ProgressFunc func(identifier string, transferred, total int64)

// Remote moves parameter file bytes to and from the distribution endpoint.
// This interface is implemented by internal/transfer.
type Remote interface {
	// Download streams the remote object for identifier into dest,
	// starting at byte resumeFrom (0 for a fresh download, appending when
	// resuming). Returns the bytes written by this attempt. Failures are
	// classified as ErrTransientTransfer or ErrPermanentTransfer.
	Download(ctx context.Context, identifier, dest string, resumeFrom int64) (int64, error)

	// Upload sends the file at src to the distribution endpoint under
	// identifier. Failures are classified like Download.
	Upload(ctx context.Context, identifier, src string) error
}

// Digester computes and checks canonical file digests.
// This interface is implemented by internal/hasher.
type Digester interface {
	// DigestFile streams the file through the hash function and returns
	// the canonical hex digest. Fails with ErrIO on read failure.
	DigestFile(path string) (string, error)

	// Verify reports whether the file at path matches the entry's size
	// and digest. The size check runs first as a cheap fast-fail. The
	// error is non-nil only for local IO failures, not for mismatches.
	Verify(path string, entry ParameterEntry) (bool, error)
}
