package paramstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/paramstore/core"
	"github.com/meigma/paramstore/internal/manifest"
)

// partSuffix marks in-flight downloads in the cache directory. The file
// under the bare identifier name only ever holds verified content.
const partSuffix = ".part"

// Fetch downloads and verifies every manifest entry matching classifier.
// The empty classifier matches all entries.
//
// Identifiers whose cached file already matches the manifest verify
// without any network traffic. Per-identifier failures are isolated: the
// returned map holds an Outcome for every requested identifier, and the
// error is non-nil only for run-level conditions (corrupt manifest,
// missing remote, canceled context).
func (c *Client) Fetch(ctx context.Context, classifier string) (map[string]Outcome, error) {
	if c.remote == nil {
		return nil, ErrNoRemote
	}

	m, err := manifest.Load(c.manifestPath)
	if err != nil {
		return nil, err
	}

	wanted := m.EntriesFor(classifier)
	c.logger.Debug("fetch run", "classifier", classifier, "identifiers", len(wanted))

	results := make(map[string]Outcome, len(wanted))
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(c.workers)

	for id, entry := range wanted {
		g.Go(func() error {
			out := c.fetchOne(ctx, id, entry)
			mu.Lock()
			results[id] = out
			mu.Unlock()
			return nil
		})
	}
	//nolint:errcheck // workers record failures in the result map
	g.Wait()

	return results, ctx.Err()
}

// fetchOne drives one identifier through the download/verify state
// machine: Pending -> Downloading -> Verifying -> {Verified | Retrying |
// Failed}. Transient transfer failures retry with exponential backoff up
// to the attempt budget; permanent failures fail fast. A resumed transfer
// whose whole-file digest fails is discarded and granted one restart from
// zero, since the partial prefix may predate the current remote content.
func (c *Client) fetchOne(ctx context.Context, identifier string, entry core.ParameterEntry) core.Outcome {
	dest := c.localPath(identifier)

	// Already valid local file: no network.
	ok, err := c.digester.Verify(dest, entry)
	if err != nil {
		return core.Outcome{Status: core.StatusFailed, Err: err}
	}
	if ok {
		c.logger.Debug("already verified", "identifier", identifier)
		return core.Outcome{Status: core.StatusVerified}
	}

	part := dest + partSuffix
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.initialBackoff
	bo.MaxElapsedTime = 0

	var attempts int
	var restarted bool
	for attempts < c.retries {
		attempts++

		resumeFrom := fileSize(part)
		if resumeFrom > entry.Size {
			// Oversized partials cannot be a prefix of the remote object.
			os.Remove(part)
			resumeFrom = 0
		}
		resumed := resumeFrom > 0

		if resumeFrom < entry.Size || entry.Size == 0 {
			c.logger.Debug("downloading",
				"identifier", identifier,
				"attempt", attempts,
				"resume_from", resumeFrom)
			if _, err := c.remote.Download(ctx, identifier, part, resumeFrom); err != nil {
				if ctx.Err() != nil {
					return core.Outcome{Status: core.StatusFailed, Attempts: attempts, Err: ctx.Err()}
				}
				if errors.Is(err, core.ErrPermanentTransfer) {
					return core.Outcome{Status: core.StatusFailed, Attempts: attempts, Err: err}
				}
				c.logger.Debug("transient failure, retrying", "identifier", identifier, "error", err)
				if !sleepCtx(ctx, bo.NextBackOff()) {
					return core.Outcome{Status: core.StatusFailed, Attempts: attempts, Err: ctx.Err()}
				}
				continue
			}
		}

		c.logger.Debug("verifying", "identifier", identifier)
		ok, err := c.digester.Verify(part, entry)
		if err != nil {
			return core.Outcome{Status: core.StatusFailed, Attempts: attempts, Err: err}
		}
		if !ok {
			os.Remove(part)
			if resumed && !restarted {
				restarted = true
				c.logger.Debug("resumed transfer corrupt, restarting from zero", "identifier", identifier)
				continue
			}
			return core.Outcome{
				Status:   core.StatusFailed,
				Attempts: attempts,
				Err:      fmt.Errorf("%w: %s", core.ErrDigestMismatch, identifier),
			}
		}

		// Atomic rename: downstream consumers only ever see verified files.
		if err := os.Rename(part, dest); err != nil {
			return core.Outcome{
				Status:   core.StatusFailed,
				Attempts: attempts,
				Err:      fmt.Errorf("%w: rename %s: %v", core.ErrIO, dest, err),
			}
		}
		c.logger.Debug("verified", "identifier", identifier, "attempts", attempts)
		return core.Outcome{Status: core.StatusVerified, Attempts: attempts}
	}

	return core.Outcome{
		Status:   core.StatusFailed,
		Attempts: attempts,
		Err:      fmt.Errorf("%w: retry budget exhausted", core.ErrTransientTransfer),
	}
}

// fileSize returns the size of path, or 0 if it does not exist.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}

// sleepCtx waits d or until ctx is done. Reports whether the full wait
// elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
