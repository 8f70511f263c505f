// Package transfer moves parameter file bytes between the local cache and
// the remote distribution endpoint over HTTP.
//
// Downloads are byte-range capable: a partial file on disk is extended
// from its current size with a Range request, and the destination only
// ever grows by fully received chunks, so an interrupted transfer leaves
// a resumable prefix rather than a torn tail. Whether the resumed result
// is actually valid is decided by whole-file digest verification in the
// orchestrator, not here.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/meigma/paramstore/core"
	"github.com/meigma/paramstore/internal/progress"
)

// copyChunk is the transfer buffer size. The destination file is only
// extended by fully received chunks of at most this size.
const copyChunk = 1 << 20

// Compile-time interface check.
var _ core.Remote = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// Client implements core.Remote against an HTTP distribution endpoint.
// Objects are addressed as baseURL/identifier.
type Client struct {
	baseURL   string
	http      *http.Client
	token     string
	userAgent string
	logger    *slog.Logger
	progress  core.ProgressFunc
}

// New creates a transfer client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithHTTPClient sets the underlying HTTP client. Timeouts on individual
// network operations belong to this client and surface as transient
// transfer errors.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithSessionToken sets a bearer token passed through to the remote store.
func WithSessionToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithLogger sets a logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithProgress sets a progress callback for transfers.
func WithProgress(fn core.ProgressFunc) Option {
	return func(c *Client) {
		c.progress = fn
	}
}

// Download streams the remote object for identifier into dest, starting
// at resumeFrom. With resumeFrom > 0 a Range request is issued and the
// response appended; a server that ignores the range and answers 200
// restarts the file from zero. Returns the bytes written this attempt.
func (c *Client) Download(ctx context.Context, identifier, dest string, resumeFrom int64) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.objectURL(identifier), nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", core.ErrPermanentTransfer, err)
	}
	c.setHeaders(req)
	if resumeFrom > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", resumeFrom))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, classifyNetErr(ctx, err)
	}
	defer resp.Body.Close()

	var offset int64
	switch resp.StatusCode {
	case http.StatusPartialContent:
		offset = resumeFrom
	case http.StatusOK:
		if resumeFrom > 0 {
			c.logger.Debug("range ignored by remote, restarting from zero", "identifier", identifier)
		}
		offset = 0
	default:
		return 0, classifyStatus(resp.StatusCode)
	}

	f, err := openDest(dest, offset)
	if err != nil {
		return 0, err
	}

	var body io.Reader = resp.Body
	if c.progress != nil {
		total := int64(-1)
		if resp.ContentLength >= 0 {
			total = offset + resp.ContentLength
		}
		body = progress.NewReaderAt(body, offset, total, func(transferred, totalBytes int64) {
			c.progress(identifier, transferred, totalBytes)
		})
	}

	c.logger.Debug("downloading", "identifier", identifier, "offset", offset)
	written, copyErr := copyChunks(f, body)
	if syncErr := f.Sync(); copyErr == nil && syncErr != nil {
		copyErr = fmt.Errorf("%w: sync %s: %v", core.ErrIO, dest, syncErr)
	}
	if closeErr := f.Close(); copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("%w: close %s: %v", core.ErrIO, dest, closeErr)
	}
	if copyErr != nil {
		return written, copyErr
	}
	// A body shorter than the declared length ends in a plain EOF, which
	// copyChunks cannot tell from a clean end. The prefix on disk remains
	// resumable, so report the truncation as transient.
	if resp.ContentLength >= 0 && written < resp.ContentLength {
		return written, fmt.Errorf("%w: body truncated at %d of %d bytes",
			core.ErrTransientTransfer, written, resp.ContentLength)
	}

	c.logger.Debug("download attempt done", "identifier", identifier, "written", written)
	return written, nil
}

// Upload sends the file at src to the distribution endpoint under
// identifier via PUT.
func (c *Client) Upload(ctx context.Context, identifier, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", core.ErrIO, src, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", core.ErrIO, src, err)
	}

	var body io.Reader = f
	if c.progress != nil {
		body = progress.NewReader(body, info.Size(), func(transferred, total int64) {
			c.progress(identifier, transferred, total)
		})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.objectURL(identifier), body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", core.ErrPermanentTransfer, err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = info.Size()

	c.logger.Debug("uploading", "identifier", identifier, "size", info.Size())
	resp, err := c.http.Do(req)
	if err != nil {
		return classifyNetErr(ctx, err)
	}
	defer resp.Body.Close()
	//nolint:errcheck // drain so the connection can be reused
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyStatus(resp.StatusCode)
	}
	return nil
}

func (c *Client) objectURL(identifier string) string {
	return c.baseURL + "/" + url.PathEscape(identifier)
}

func (c *Client) setHeaders(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
}

// openDest opens dest for writing at offset. offset zero truncates; a
// positive offset appends, assuming the caller derived it from the
// current file size.
func openDest(dest string, offset int64) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if offset == 0 {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	f, err := os.OpenFile(dest, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", core.ErrIO, dest, err)
	}
	return f, nil
}

// copyChunks copies src to dst one full chunk at a time. A chunk is
// written only after it has been completely received, so a failed read
// never leaves partially transferred bytes in dst.
func copyChunks(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyChunk)
	var written int64
	for {
		n, err := io.ReadFull(src, buf)
		if n > 0 {
			wn, werr := dst.Write(buf[:n])
			written += int64(wn)
			if werr != nil {
				return written, fmt.Errorf("%w: write: %v", core.ErrIO, werr)
			}
			if wn != n {
				return written, fmt.Errorf("%w: short write", core.ErrIO)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return written, nil
			}
			return written, fmt.Errorf("%w: read body: %v", core.ErrTransientTransfer, err)
		}
	}
}
