package rss

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

const defaultProxyURL = "https://api.rss2json.com/v1/api.json"

// ErrNoFeeds is returned by Aggregate when given no feeds.
var ErrNoFeeds = errors.New("no feeds configured")

// DefaultFeeds are the feeds shown on the news page.
var DefaultFeeds = []string{
	"https://feeds.feedburner.com/TheHackersNews",
	"https://www.bleepingcomputer.com/feed/",
	"https://krebsonsecurity.com/feed/",
	"https://www.securityweek.com/feed/",
}

// Post is one news item.
type Post struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Date       time.Time `json:"date"`
	Author     string    `json:"author"`
	Excerpt    string    `json:"excerpt"`
	Content    string    `json:"content,omitempty"`
	CoverImage string    `json:"coverImage"`
	Link       string    `json:"link"`
	Category   string    `json:"category"`
	Feed       string    `json:"feed"`
}

// Client fetches feeds through the proxy.
type Client struct {
	proxyURL string
	httpCli  *http.Client
	logger   *slog.Logger
}

// NewClient creates a feed client. An empty proxyURL selects rss2json.
func NewClient(proxyURL string, logger *slog.Logger) *Client {
	if proxyURL == "" {
		proxyURL = defaultProxyURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		proxyURL: proxyURL,
		httpCli:  &http.Client{Timeout: 20 * time.Second},
		logger:   logger,
	}
}

type proxyResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Items   []proxyItem `json:"items"`
}

type proxyItem struct {
	GUID        string `json:"guid"`
	Title       string `json:"title"`
	PubDate     string `json:"pubDate"`
	Link        string `json:"link"`
	Author      string `json:"author"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
	Content     string `json:"content"`
	Enclosure   struct {
		Link string `json:"link"`
	} `json:"enclosure"`
}

// FetchFeed fetches and maps one feed. Posts carry no cover image unless the
// feed supplied one; Aggregate fills the rest.
func (c *Client) FetchFeed(ctx context.Context, feedURL string) ([]Post, error) {
	u := c.proxyURL + "?" + url.Values{"rss_url": {feedURL}}.Encode()
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("feed proxy error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var pr proxyResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	if pr.Status != "" && pr.Status != "ok" {
		return nil, fmt.Errorf("feed proxy: %s", pr.Message)
	}

	posts := make([]Post, 0, len(pr.Items))
	for _, it := range pr.Items {
		posts = append(posts, toPost(it, feedURL))
	}
	return posts, nil
}

func toPost(it proxyItem, feed string) Post {
	id := it.GUID
	if id == "" {
		id = it.Link
	}
	author := it.Author
	if author == "" {
		author = it.Creator
	}
	if author == "" {
		author = "Unknown"
	}
	excerpt := Excerpt(it.Description)
	return Post{
		ID:         id,
		Title:      it.Title,
		Date:       parseDate(it.PubDate),
		Author:     author,
		Excerpt:    excerpt,
		Content:    it.Content,
		CoverImage: it.Enclosure.Link,
		Link:       it.Link,
		Category:   Categorize(it.Title + " " + excerpt),
		Feed:       feed,
	}
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
}

// parseDate returns the zero time for dates in no known layout.
func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Aggregate fetches feeds concurrently and returns their posts newest first.
// Failed feeds are logged and skipped. An error is returned only when every
// feed failed.
func (c *Client) Aggregate(ctx context.Context, feeds []string) ([]Post, error) {
	if len(feeds) == 0 {
		return nil, ErrNoFeeds
	}
	var (
		mu    sync.Mutex
		posts []Post
		errs  *multierror.Error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, feed := range feeds {
		g.Go(func() error {
			got, err := c.FetchFeed(gctx, feed)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				c.logger.Warn("Skipping feed",
					slog.String("feed", feed),
					slog.Any("error", err))
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", feed, err))
				return nil
			}
			posts = append(posts, got...)
			return nil
		})
	}
	_ = g.Wait()

	if errs != nil && len(errs.Errors) == len(feeds) {
		return nil, fmt.Errorf("all feeds failed: %w", errs.ErrorOrNil())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slices.SortStableFunc(posts, func(a, b Post) int {
		return b.Date.Compare(a.Date)
	})
	AssignCovers(posts)
	return posts, nil
}
