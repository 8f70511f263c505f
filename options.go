package paramstore

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/meigma/paramstore/core"
)

// ClientOption configures a Client.
type ClientOption func(*Client) error

// PublishOption configures a Publish operation.
type PublishOption func(*publishConfig)

// publishConfig holds configuration for Publish operations.
type publishConfig struct {
	skipUpload bool
}

// WithCacheDir sets the directory holding fetched and published parameter
// files. Required.
func WithCacheDir(dir string) ClientOption {
	return func(c *Client) error {
		c.cacheDir = dir
		return nil
	}
}

// WithManifestPath sets the manifest file location. Defaults to
// manifest.json inside the cache directory.
func WithManifestPath(path string) ClientOption {
	return func(c *Client) error {
		c.manifestPath = path
		return nil
	}
}

// WithBaseURL sets the remote distribution endpoint. Objects are
// addressed as baseURL/identifier.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) error {
		c.baseURL = url
		return nil
	}
}

// WithRemote injects a custom Remote, overriding WithBaseURL.
func WithRemote(remote core.Remote) ClientOption {
	return func(c *Client) error {
		c.remote = remote
		return nil
	}
}

// WithHTTPClient sets the HTTP client used by the default remote.
// Per-operation timeouts belong here.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// WithSessionToken sets a transport-layer session token passed through to
// the remote store. The token is never interpreted or refreshed.
func WithSessionToken(token string) ClientOption {
	return func(c *Client) error {
		c.sessionToken = token
		return nil
	}
}

// WithUserAgent sets a custom User-Agent header for remote requests.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) error {
		c.userAgent = ua
		return nil
	}
}

// WithLogger sets a logger for the client. By default, logging is disabled.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithProgress sets a transfer progress callback.
func WithProgress(fn core.ProgressFunc) ClientOption {
	return func(c *Client) error {
		c.progress = fn
		return nil
	}
}

// WithWorkers bounds how many identifiers are processed in parallel.
// Defaults to 3.
func WithWorkers(n int) ClientOption {
	return func(c *Client) error {
		if n > 0 {
			c.workers = n
		}
		return nil
	}
}

// WithRetries bounds download attempts per identifier. Defaults to 3.
func WithRetries(n int) ClientOption {
	return func(c *Client) error {
		if n > 0 {
			c.retries = n
		}
		return nil
	}
}

// WithInitialBackoff sets the first retry delay; later delays grow
// exponentially. Defaults to 500ms.
func WithInitialBackoff(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d > 0 {
			c.initialBackoff = d
		}
		return nil
	}
}

// WithoutUpload skips uploading candidates to the distribution endpoint
// during Publish, recording manifest entries only.
func WithoutUpload() PublishOption {
	return func(cfg *publishConfig) {
		cfg.skipUpload = true
	}
}
