package paramstore

import "github.com/meigma/paramstore/core"

// Sentinel errors for common failure conditions.
// Re-exported from core package.
var (
	// ErrIO indicates a local filesystem failure.
	ErrIO = core.ErrIO

	// ErrTransientTransfer indicates a retryable network-level failure.
	ErrTransientTransfer = core.ErrTransientTransfer

	// ErrPermanentTransfer indicates an unrecoverable transfer condition.
	ErrPermanentTransfer = core.ErrPermanentTransfer

	// ErrNotFound indicates the remote object does not exist.
	ErrNotFound = core.ErrNotFound

	// ErrUnauthorized indicates the remote store rejected the session.
	ErrUnauthorized = core.ErrUnauthorized

	// ErrDigestMismatch indicates file content differs from the manifest.
	ErrDigestMismatch = core.ErrDigestMismatch

	// ErrManifestCorrupt indicates the manifest file cannot be parsed.
	ErrManifestCorrupt = core.ErrManifestCorrupt

	// ErrPersistence indicates a failed manifest commit.
	ErrPersistence = core.ErrPersistence

	// ErrPublishConflict indicates an unconfirmed digest overwrite.
	ErrPublishConflict = core.ErrPublishConflict

	// ErrPublish indicates a publish batch failed before commit.
	ErrPublish = core.ErrPublish

	// ErrNoRemote indicates no distribution endpoint is configured.
	ErrNoRemote = core.ErrNoRemote
)
