package paramstore

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/meigma/paramstore/internal/manifest"
)

// VerifyAll checks every manifest entry against the cache directory and
// reports per-identifier validity. Missing, truncated, and corrupt files
// all report false; no network traffic is ever generated.
func (c *Client) VerifyAll(ctx context.Context) (map[string]bool, error) {
	m, err := manifest.Load(c.manifestPath)
	if err != nil {
		return nil, err
	}

	results := make(map[string]bool, m.Len())
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(c.workers)

	for id, entry := range m.EntriesFor("") {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			ok, verr := c.digester.Verify(c.localPath(id), entry)
			valid := verr == nil && ok
			if !valid {
				c.logger.Debug("verification failed", "identifier", id, "error", verr)
			}
			mu.Lock()
			results[id] = valid
			mu.Unlock()
			return nil
		})
	}
	//nolint:errcheck // workers never return errors
	g.Wait()

	return results, ctx.Err()
}
