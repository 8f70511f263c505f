package paramstore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/paramstore/core"
	"github.com/meigma/paramstore/internal/manifest"
)

// Publish digests the candidate files, uploads them to the distribution
// endpoint when one is configured, and commits the new entries to the
// manifest as a single atomic replace.
//
// The identifier is derived from each candidate's base filename; the
// classifier comes from the classifier argument when non-empty, otherwise
// from the sector-size token in the filename. A candidate whose digest
// differs from an existing entry under the same identifier is rejected
// with ErrPublishConflict unless confirmOverwrite is set.
//
// The batch is all-or-nothing: any digest, upload, or cache-install
// failure leaves the manifest at its pre-publish state.
func (c *Client) Publish(ctx context.Context, paths []string, classifier string, confirmOverwrite bool, opts ...PublishOption) (*Manifest, error) {
	cfg := &publishConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	m, err := manifest.Load(c.manifestPath)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		identifier string
		path       string
		entry      core.ParameterEntry
	}
	candidates := make([]candidate, len(paths))

	// Digest phase: parallel over candidates, any failure aborts the batch.
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			id, derived := manifest.Identity(path)
			if err := manifest.ValidIdentifier(id); err != nil {
				return fmt.Errorf("%w: %v", core.ErrPublish, err)
			}

			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("%w: stat %s: %v", core.ErrIO, path, err)
			}

			digest, err := c.digester.DigestFile(path)
			if err != nil {
				return fmt.Errorf("%w: digest %s: %v", core.ErrPublish, path, err)
			}

			cls := classifier
			if cls == "" {
				cls = derived
			}
			candidates[i] = candidate{
				identifier: id,
				path:       path,
				entry: core.ParameterEntry{
					Digest:     digest,
					Size:       info.Size(),
					Classifier: cls,
				},
			}
			c.logger.Debug("digested candidate", "identifier", id, "digest", digest, "size", info.Size())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Conflict checks run single-threaded against the loaded manifest.
	seen := make(map[string]string, len(candidates))
	for _, cand := range candidates {
		if prev, ok := seen[cand.identifier]; ok && prev != cand.entry.Digest {
			return nil, fmt.Errorf("%w: batch contains conflicting candidates for %s", core.ErrPublish, cand.identifier)
		}
		seen[cand.identifier] = cand.entry.Digest

		existing, ok := m.Get(cand.identifier)
		if ok && existing.Digest != cand.entry.Digest && !confirmOverwrite {
			return nil, fmt.Errorf("%w: %s already published with digest %s (candidate %s)",
				core.ErrPublishConflict, cand.identifier, existing.Digest, cand.entry.Digest)
		}
	}

	// Upload phase: entries must never reference unreachable remote
	// content, so the whole batch uploads before the manifest moves.
	if !cfg.skipUpload && c.remote != nil {
		var ug errgroup.Group
		ug.SetLimit(c.workers)
		for _, cand := range candidates {
			ug.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				c.logger.Debug("uploading candidate", "identifier", cand.identifier)
				if err := c.remote.Upload(ctx, cand.identifier, cand.path); err != nil {
					return fmt.Errorf("%w: upload %s: %v", core.ErrPublish, cand.identifier, err)
				}
				return nil
			})
		}
		if err := ug.Wait(); err != nil {
			return nil, err
		}
	}

	// Install candidates into the cache directory so a publish
	// round-trips as an already-verified fetch.
	for _, cand := range candidates {
		if err := c.installCandidate(cand.path, cand.identifier); err != nil {
			return nil, err
		}
	}

	// Commit: single-threaded, whole-run atomic.
	updated := m.Clone()
	for _, cand := range candidates {
		updated.Set(cand.identifier, cand.entry)
	}
	if err := updated.Save(c.manifestPath); err != nil {
		return nil, err
	}
	c.logger.Debug("published batch", "candidates", len(candidates))

	return updated, nil
}

// installCandidate copies a published file into the cache directory under
// its identifier, via a temp file and atomic rename. Publishing a file
// already at its cache location is a no-op.
func (c *Client) installCandidate(src, identifier string) error {
	dest := c.localPath(identifier)

	absSrc, err := filepath.Abs(src)
	if err == nil {
		if absDest, destErr := filepath.Abs(dest); destErr == nil && absSrc == absDest {
			return nil
		}
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", core.ErrIO, src, err)
	}
	defer in.Close()

	tmp := dest + partSuffix
	out, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", core.ErrIO, tmp, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: copy %s: %v", core.ErrIO, src, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(tmp)
		return fmt.Errorf("%w: sync %s: %v", core.ErrIO, tmp, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: close %s: %v", core.ErrIO, tmp, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: rename %s: %v", core.ErrIO, dest, err)
	}
	return nil
}
