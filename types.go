package paramstore

import (
	"github.com/meigma/paramstore/core"
	"github.com/meigma/paramstore/internal/manifest"
)

// Manifest is the identifier to parameter-entry catalog.
// Re-exported from the manifest package.
type Manifest = manifest.Manifest

// ParameterEntry is the manifest metadata for one parameter file.
// Re-exported from core package.
type ParameterEntry = core.ParameterEntry

// Status is the per-identifier fetch state.
// Re-exported from core package.
type Status = core.Status

// Fetch states. Verified and Failed are terminal.
const (
	StatusPending     = core.StatusPending
	StatusDownloading = core.StatusDownloading
	StatusVerifying   = core.StatusVerifying
	StatusVerified    = core.StatusVerified
	StatusRetrying    = core.StatusRetrying
	StatusFailed      = core.StatusFailed
)

// Outcome is the terminal result for one identifier in a fetch run.
// Re-exported from core package.
type Outcome = core.Outcome

// ProgressFunc reports transfer progress for one identifier.
// Re-exported from core package.
type ProgressFunc = core.ProgressFunc

// Remote moves parameter file bytes to and from the distribution
// endpoint. Re-exported from core package.
type Remote = core.Remote

// Digester computes and checks canonical file digests.
// Re-exported from core package.
type Digester = core.Digester
