package paramstore

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/meigma/paramstore/core"
	"github.com/meigma/paramstore/internal/hasher"
	"github.com/meigma/paramstore/internal/transfer"
)

// defaultManifestName is the manifest filename used when no explicit
// manifest path is configured.
const defaultManifestName = "manifest.json"

// Client provides fetch, publish, and verification of parameter files.
type Client struct {
	manifestPath string
	cacheDir     string
	remote       core.Remote
	digester     core.Digester
	logger       *slog.Logger

	// transport configuration passed to the transfer client
	baseURL      string
	sessionToken string
	userAgent    string
	httpClient   *http.Client
	progress     core.ProgressFunc

	// fetch policy
	workers        int
	retries        int
	initialBackoff time.Duration
}

// NewClient creates a new paramstore client.
//
// The cache directory is required; it is created if missing. The manifest
// defaults to manifest.json inside the cache directory. A remote is built
// from WithBaseURL when set; Fetch and uploading Publish calls require one.
func NewClient(opts ...ClientOption) (*Client, error) {
	c := &Client{
		logger:         slog.New(slog.DiscardHandler),
		digester:       hasher.New(),
		workers:        3,
		retries:        3,
		initialBackoff: 500 * time.Millisecond,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.cacheDir == "" {
		return nil, errors.New("paramstore: cache directory is required")
	}
	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	if c.manifestPath == "" {
		c.manifestPath = filepath.Join(c.cacheDir, defaultManifestName)
	}

	// Wire up the default remote
	if c.remote == nil && c.baseURL != "" {
		tOpts := []transfer.Option{
			transfer.WithLogger(c.logger),
		}
		if c.httpClient != nil {
			tOpts = append(tOpts, transfer.WithHTTPClient(c.httpClient))
		}
		if c.sessionToken != "" {
			tOpts = append(tOpts, transfer.WithSessionToken(c.sessionToken))
		}
		if c.userAgent != "" {
			tOpts = append(tOpts, transfer.WithUserAgent(c.userAgent))
		}
		if c.progress != nil {
			tOpts = append(tOpts, transfer.WithProgress(c.progress))
		}
		c.remote = transfer.New(c.baseURL, tOpts...)
	}

	return c, nil
}

// ManifestPath returns the path of the manifest this client operates on.
func (c *Client) ManifestPath() string {
	return c.manifestPath
}

// CacheDir returns the directory holding fetched and published files.
func (c *Client) CacheDir() string {
	return c.cacheDir
}

// localPath returns the cache location for an identifier.
func (c *Client) localPath(identifier string) string {
	return filepath.Join(c.cacheDir, identifier)
}
