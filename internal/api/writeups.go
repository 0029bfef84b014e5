package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dshills/folio/internal/portfolio"
)

// WriteupInput is the body of a writeup create or update. Empty fields are
// left unchanged by an update.
type WriteupInput struct {
	Title       string `json:"title,omitempty"`
	Platform    string `json:"platform,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date,omitempty"`
	TimeSpent   string `json:"time_spent,omitempty"`
	WriteupURL  string `json:"writeup_url,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Methodology string `json:"methodology,omitempty"`
	ToolsUsed   string `json:"tools_used,omitempty"`
}

// InputFromWriteup converts a writeup into the request body that would
// recreate it. List fields are joined one entry per line.
func InputFromWriteup(w portfolio.Writeup) WriteupInput {
	return WriteupInput{
		Title:       w.Title,
		Platform:    w.Platform,
		Difficulty:  w.Difficulty,
		Category:    w.Category,
		Date:        w.Date,
		TimeSpent:   w.TimeSpent,
		WriteupURL:  w.WriteupURL,
		Summary:     w.Summary,
		Methodology: strings.Join(w.Methodology, "\n"),
		ToolsUsed:   strings.Join(w.ToolsUsed, "\n"),
	}
}

// writeupPage is the paginated list shape. Older servers return a bare array.
type writeupPage struct {
	Items    []portfolio.Writeup `json:"items"`
	Total    int                 `json:"total"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
}

func decodeWriteups(data []byte) ([]portfolio.Writeup, error) {
	var list []portfolio.Writeup
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var page writeupPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("parsing writeups: %w", err)
	}
	return page.Items, nil
}

// ListWriteups returns the first page of writeups, newest first. A cached
// list is returned unless refresh is set. Failed requests are retried.
func (c *Client) ListWriteups(ctx context.Context, refresh bool) ([]portfolio.Writeup, error) {
	if !refresh {
		if data, ok := c.cache.get(listCacheKey); ok {
			if list, err := decodeWriteups(data); err == nil {
				return list, nil
			}
		}
	}

	query := url.Values{"skip": {"0"}, "limit": {"50"}}
	var (
		data []byte
		list []portfolio.Writeup
	)
	err := retryFixed(ctx, c.retries, c.retryDelay, c.logger, func() error {
		var err error
		data, err = c.do(ctx, http.MethodGet, "/writeups", query, nil)
		if err != nil {
			return err
		}
		list, err = decodeWriteups(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("listing writeups: %w", err)
	}
	c.cache.set(listCacheKey, data)
	return list, nil
}

// GetWriteup returns one writeup, from cache unless refresh is set.
func (c *Client) GetWriteup(ctx context.Context, id int64, refresh bool) (portfolio.Writeup, error) {
	key := writeupCacheKey(id)
	if !refresh {
		if data, ok := c.cache.get(key); ok {
			var w portfolio.Writeup
			if err := json.Unmarshal(data, &w); err == nil {
				return w, nil
			}
		}
	}

	data, err := c.do(ctx, http.MethodGet, "/writeups/"+strconv.FormatInt(id, 10), nil, nil)
	if err != nil {
		return portfolio.Writeup{}, fmt.Errorf("fetching writeup %d: %w", id, err)
	}
	var w portfolio.Writeup
	if err := json.Unmarshal(data, &w); err != nil {
		return portfolio.Writeup{}, fmt.Errorf("parsing writeup: %w", err)
	}
	c.cache.set(key, data)
	return w, nil
}

// SearchWriteups runs a server-side search over title, summary and category.
func (c *Client) SearchWriteups(ctx context.Context, q string) ([]portfolio.Writeup, error) {
	data, err := c.do(ctx, http.MethodGet, "/writeups/search/", url.Values{"q": {q}}, nil)
	if err != nil {
		return nil, fmt.Errorf("searching writeups: %w", err)
	}
	return decodeWriteups(data)
}

// CreateWriteup creates a writeup.
func (c *Client) CreateWriteup(ctx context.Context, in WriteupInput) (portfolio.Writeup, error) {
	var w portfolio.Writeup
	if err := c.doJSON(ctx, http.MethodPost, "/writeups", nil, in, &w); err != nil {
		return portfolio.Writeup{}, fmt.Errorf("creating writeup: %w", err)
	}
	c.cache.invalidate(listCacheKey)
	return w, nil
}

// UpdateWriteup updates a writeup and drops its cached copies.
func (c *Client) UpdateWriteup(ctx context.Context, id int64, in WriteupInput) (portfolio.Writeup, error) {
	var w portfolio.Writeup
	err := c.doJSON(ctx, http.MethodPut, "/writeups/"+strconv.FormatInt(id, 10), nil, in, &w)
	if err != nil {
		return portfolio.Writeup{}, fmt.Errorf("updating writeup %d: %w", id, err)
	}
	c.cache.invalidate(writeupCacheKey(id), listCacheKey)
	return w, nil
}

// DeleteWriteup deletes a writeup and drops its cached copies.
func (c *Client) DeleteWriteup(ctx context.Context, id int64) error {
	if _, err := c.do(ctx, http.MethodDelete, "/writeups/"+strconv.FormatInt(id, 10), nil, nil); err != nil {
		return fmt.Errorf("deleting writeup %d: %w", id, err)
	}
	c.cache.invalidate(writeupCacheKey(id), listCacheKey)
	return nil
}

// GenerateContent asks the server to fill in the writeup's analysis sections
// from its document and returns the regenerated writeup.
func (c *Client) GenerateContent(ctx context.Context, id int64) (portfolio.Writeup, error) {
	var w portfolio.Writeup
	path := "/writeups/" + strconv.FormatInt(id, 10) + "/generate"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, nil, &w); err != nil {
		return portfolio.Writeup{}, fmt.Errorf("generating content for writeup %d: %w", id, err)
	}
	c.cache.invalidate(writeupCacheKey(id))
	return w, nil
}

// Document is a writeup file to upload.
type Document struct {
	Name string
	Body io.Reader
}

// CreateWriteupWithFile creates a writeup from form fields and a document.
// The server suggests tags from the document.
func (c *Client) CreateWriteupWithFile(ctx context.Context, in WriteupInput, doc Document) (portfolio.Writeup, error) {
	body, contentType, err := writeupForm(in, &doc, true)
	if err != nil {
		return portfolio.Writeup{}, err
	}
	data, err := c.send(ctx, http.MethodPost, "/writeups", nil, body, contentType)
	if err != nil {
		return portfolio.Writeup{}, fmt.Errorf("creating writeup: %w", err)
	}
	var w portfolio.Writeup
	if err := json.Unmarshal(data, &w); err != nil {
		return portfolio.Writeup{}, fmt.Errorf("parsing writeup: %w", err)
	}
	c.cache.invalidate(listCacheKey)
	return w, nil
}

// UploadWriteupFile replaces a writeup's document, updating any non-empty
// fields of in at the same time.
func (c *Client) UploadWriteupFile(ctx context.Context, id int64, in WriteupInput, doc Document) (portfolio.Writeup, error) {
	body, contentType, err := writeupForm(in, &doc, false)
	if err != nil {
		return portfolio.Writeup{}, err
	}
	path := "/writeups/" + strconv.FormatInt(id, 10) + "/upload"
	data, err := c.send(ctx, http.MethodPut, path, nil, body, contentType)
	if err != nil {
		return portfolio.Writeup{}, fmt.Errorf("uploading file for writeup %d: %w", id, err)
	}
	var w portfolio.Writeup
	if err := json.Unmarshal(data, &w); err != nil {
		return portfolio.Writeup{}, fmt.Errorf("parsing writeup: %w", err)
	}
	c.cache.invalidate(writeupCacheKey(id), listCacheKey)
	return w, nil
}

// writeupForm encodes in and doc as multipart form data. Empty fields are
// skipped. On create the tags field is sent empty so the server suggests them.
func writeupForm(in WriteupInput, doc *Document, create bool) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := []struct{ name, value string }{
		{"title", in.Title},
		{"platform", in.Platform},
		{"difficulty", in.Difficulty},
		{"category", in.Category},
		{"date", in.Date},
		{"time_spent", in.TimeSpent},
		{"summary", in.Summary},
		{"methodology", in.Methodology},
		{"tools_used", in.ToolsUsed},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		if err := mw.WriteField(f.name, f.value); err != nil {
			return nil, "", fmt.Errorf("encoding form: %w", err)
		}
	}
	if create {
		if err := mw.WriteField("tags", ""); err != nil {
			return nil, "", fmt.Errorf("encoding form: %w", err)
		}
	}
	if doc != nil && doc.Body != nil {
		part, err := mw.CreateFormFile("file", doc.Name)
		if err != nil {
			return nil, "", fmt.Errorf("encoding form: %w", err)
		}
		if _, err := io.Copy(part, doc.Body); err != nil {
			return nil, "", fmt.Errorf("reading %s: %w", doc.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("encoding form: %w", err)
	}
	return &buf, mw.FormDataContentType(), nil
}
