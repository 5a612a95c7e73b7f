// Package recordstore is the client for the remote blob store that backs the
// rewards app: an opaque key/value service addressed by (folder, filename),
// returning and accepting JSON text. The service exposes no versioning and
// no conflict detection; writes are unconditional overwrites.
package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout bounds every store call when no timeout is configured.
	DefaultTimeout = 15 * time.Second

	// maxBlobSize caps how much of a response body is read. Blobs written
	// by this console are small JSON documents.
	maxBlobSize = 4 << 20 // 4MB
)

// Client talks to the remote record store over HTTP.
//
//	GET  {base}?folder=F&filename=N     → blob body (or an absence dialect)
//	POST {base}  folder=F&filename=N&content=...  → success/failure only
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *slog.Logger
}

// New creates a record store client. A non-positive timeout falls back to
// DefaultTimeout. apiKey may be empty for stores that don't require one.
func New(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Get fetches the blob at (folder, filename). All of the store's "no such
// record" dialects are normalized to ErrNotFound at this boundary so callers
// see a single absent signal.
func (c *Client) Get(ctx context.Context, folder, filename string) ([]byte, error) {
	u := fmt.Sprintf("%s?folder=%s&filename=%s",
		c.baseURL, url.QueryEscape(folder), url.QueryEscape(filename))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build get request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: get %s/%s: status %d", ErrStore, folder, filename, resp.StatusCode)
	}

	if absent(body) {
		return nil, ErrNotFound
	}
	return body, nil
}

// Put writes (or overwrites) the blob at (folder, filename). The store
// reports success or failure only; there is no version or conflict
// information in the response.
func (c *Client) Put(ctx context.Context, folder, filename string, content []byte) error {
	form := url.Values{
		"folder":   {folder},
		"filename": {filename},
		"content":  {string(content)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build put request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBlobSize))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: put %s/%s: status %d", ErrStore, folder, filename, resp.StatusCode)
	}
	if flaggedFailure(body) {
		return fmt.Errorf("%w: put %s/%s: store reported failure", ErrStore, folder, filename)
	}
	return nil
}

// Ping probes whether the store is reachable. An absent probe blob still
// counts as reachable; only transport-level failures are reported.
func (c *Client) Ping(ctx context.Context, folder string) error {
	_, err := c.Get(ctx, folder, AdminCodesFilename)
	if err == nil || err == ErrNotFound {
		return nil
	}
	return err
}

func (c *Client) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
}

// absent reports whether a 200 response body is one of the store's "no such
// record" dialects: empty body, the literal not-found marker, or an
// error-flagged JSON payload.
func absent(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return true
	}
	if strings.EqualFold(string(trimmed), "file not found") {
		return true
	}
	return flaggedFailure(trimmed)
}

// flaggedFailure reports whether the body is a JSON object carrying the
// store's application-level failure markers: a non-empty "error" field or
// "success": false.
func flaggedFailure(body []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(bytes.TrimSpace(body), &probe); err != nil {
		return false
	}
	if raw, ok := probe["error"]; ok {
		v := string(bytes.TrimSpace(raw))
		if v != "null" && v != `""` && v != "false" {
			return true
		}
	}
	if raw, ok := probe["success"]; ok {
		return string(bytes.TrimSpace(raw)) == "false"
	}
	return false
}
