package ddv

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/huythanhnguyen/ddv/internal/version"
)

const defaultTimeout = 10 * time.Second

// Client talks to a ddv server over HTTP. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	userAgent  string
	httpClient *http.Client
}

// New creates a Client for the server at baseURL (scheme and host,
// e.g. "http://localhost:8080"). A trailing slash is tolerated.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("ddv: invalid base URL %q", baseURL)
	}

	cfg := clientConfig{
		timeout:   defaultTimeout,
		userAgent: "ddv-go/" + version.Version,
	}
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.timeout}
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     cfg.apiKey,
		userAgent:  cfg.userAgent,
		httpClient: hc,
	}, nil
}

// Search runs a natural-language query. limit <= 0 uses the server default.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	var resp SearchResponse
	err := c.do(ctx, http.MethodPost, "/v1/search", searchRequest{Query: query, Limit: limit}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Reindex replaces the catalog with the given documents and rebuilds the
// search index atomically. Invalid documents are quarantined, not fatal.
func (c *Client) Reindex(ctx context.Context, docs []Document) (*ReindexReport, error) {
	var report ReindexReport
	err := c.do(ctx, http.MethodPost, "/v1/reindex", reindexRequest{Documents: docs}, &report)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ReindexFromFeed asks the server to reload its configured feed file.
func (c *Client) ReindexFromFeed(ctx context.Context) (*ReindexReport, error) {
	var report ReindexReport
	if err := c.do(ctx, http.MethodPost, "/v1/reindex", nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// Product fetches a single catalog document by id.
// Returns ErrNotFound when the id is unknown.
func (c *Client) Product(ctx context.Context, id string) (*Document, error) {
	var doc Document
	if err := c.do(ctx, http.MethodGet, "/v1/products/"+url.PathEscape(id), nil, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Health reports the server status. Both "healthy" and "degraded" return
// without error; the caller decides whether degraded is acceptable.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("ddv: encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("ddv: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ddv: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("ddv: decode response: %w", err)
	}
	return nil
}

func parseErrorResponse(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || json.Unmarshal(raw, apiErr) != nil || apiErr.Code == "" {
		apiErr.Code = "internal_error"
		apiErr.Message = strings.TrimSpace(string(raw))
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
	}
	return apiErr
}
