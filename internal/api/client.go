package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dshills/folio/internal/auth"
	"github.com/dshills/folio/internal/redact"
	"github.com/dshills/folio/internal/store"
)

// DefaultBaseURL is used when no base URL is configured.
const DefaultBaseURL = "http://localhost:8000/api"

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
)

// Error is a non-2xx API response.
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("API error (status %d)", e.Status)
	}
	return fmt.Sprintf("API error (status %d): %s", e.Status, e.Detail)
}

// Is maps status codes onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// IsClientError reports whether err is a 4xx API response.
func IsClientError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Auth supplies the bearer token. May be nil for anonymous use.
	Auth *auth.Holder
	// Store backs the persistent read cache. May be nil to cache in memory only.
	Store    store.Store
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// Client talks to the portfolio API.
type Client struct {
	baseURL    string
	httpCli    *http.Client
	auth       *auth.Holder
	cache      *readCache
	logger     *slog.Logger
	retries    int
	retryDelay time.Duration
}

// NewClient creates a client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultCacheTTL
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpCli:    cfg.HTTPClient,
		auth:       cfg.Auth,
		cache:      newReadCache(cfg.Store, cfg.CacheTTL, cfg.Logger),
		logger:     cfg.Logger,
		retries:    3,
		retryDelay: time.Second,
	}
}

// Close releases the in-memory cache.
func (c *Client) Close() {
	c.cache.close()
}

// InvalidateCache drops the cached responses stored under keys.
func (c *Client) InvalidateCache(keys ...string) {
	c.cache.invalidate(keys...)
}

// do sends one request. body, when non-nil, is sent as JSON. The raw
// response body is returned for 2xx responses.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	if body == nil {
		return c.send(ctx, method, path, query, nil, "")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}
	return c.send(ctx, method, path, query, bytes.NewReader(payload), "application/json")
}

// send issues a request with an already encoded body of the given content type.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.auth != nil {
		if token := c.auth.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if resp.StatusCode == http.StatusUnauthorized && c.auth != nil && c.auth.Session() != nil {
			c.logger.Info("Session rejected, logging out")
			c.auth.Logout()
		}
		return nil, &Error{Status: resp.StatusCode, Detail: errorDetail(respBody)}
	}
	return respBody, nil
}

// doJSON sends a request and decodes a JSON response into out. out may be nil.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, out any) error {
	data, err := c.do(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

// errorDetail extracts the "detail" message from an error body. Validation
// errors carry a list of details; those are returned verbatim.
func errorDetail(body []byte) string {
	var v struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &v); err == nil && len(v.Detail) > 0 {
		var s string
		if err := json.Unmarshal(v.Detail, &s); err == nil {
			return redact.Secrets(s)
		}
		return redact.Secrets(string(v.Detail))
	}
	return redact.Secrets(strings.TrimSpace(string(body)))
}

// retryFixed calls fn up to attempts times, sleeping delay between failures.
// Client errors are not retried.
func retryFixed(ctx context.Context, attempts int, delay time.Duration, logger *slog.Logger, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if IsClientError(lastErr) || ctx.Err() != nil {
			return lastErr
		}
		if attempt < attempts {
			logger.Warn("Request failed, retrying",
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.Any("error", lastErr))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return lastErr
}
