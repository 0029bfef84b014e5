package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dshills/folio/internal/redact"
)

const defaultAPIURL = "https://api.github.com"

var (
	// ErrNotFound is returned when the repository does not exist or is private.
	ErrNotFound = errors.New("repository not found")
	// ErrRateLimited is returned when GitHub refuses the request for quota reasons.
	ErrRateLimited = errors.New("rate limited")
	// ErrNoRepo is returned by ParseRepoURL when the URL names no repository.
	ErrNoRepo = errors.New("no repository in URL")
)

// Client provides access to the GitHub REST API.
type Client struct {
	token   string
	apiURL  string
	httpCli *http.Client
}

// NewClient creates a GitHub client. token may be empty.
func NewClient(token, apiURL string) *Client {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		token:   token,
		apiURL:  strings.TrimRight(apiURL, "/"),
		httpCli: &http.Client{Timeout: 15 * time.Second},
	}
}

// Repo is the subset of repository metadata used for enrichment.
type Repo struct {
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Stars       int       `json:"stargazers_count"`
	UpdatedAt   time.Time `json:"updated_at"`
	PushedAt    time.Time `json:"pushed_at"`
	HTMLURL     string    `json:"html_url"`
}

// GetRepo fetches metadata for owner/repo.
func (c *Client) GetRepo(ctx context.Context, owner, repo string) (Repo, error) {
	url := fmt.Sprintf("%s/repos/%s/%s", c.apiURL, owner, repo)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return Repo{}, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpCli.Do(req)
	if err != nil {
		return Repo{}, fmt.Errorf("fetching repository: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Repo{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode == 404 {
		return Repo{}, fmt.Errorf("%s/%s: %w", owner, repo, ErrNotFound)
	}
	if resp.StatusCode == 429 || (resp.StatusCode == 403 && resp.Header.Get("X-RateLimit-Remaining") == "0") {
		return Repo{}, ErrRateLimited
	}
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return Repo{}, fmt.Errorf("authentication failed: %s", redact.Secrets(string(body)))
	}
	if resp.StatusCode != 200 {
		return Repo{}, fmt.Errorf("GitHub API error (status %d): %s", resp.StatusCode, redact.Secrets(string(body)))
	}

	var r Repo
	if err := json.Unmarshal(body, &r); err != nil {
		return Repo{}, fmt.Errorf("parsing response: %w", err)
	}
	return r, nil
}

var (
	httpsRepoRe = regexp.MustCompile(`^https?://[^/]+/([^/\s]+)/([^/.\s]+)`)
	sshRepoRe   = regexp.MustCompile(`^[^@\s]+@[^:\s]+:([^/\s]+)/([^/.\s]+)`)
)

// ParseRepoURL extracts owner/repo from a repository URL. URLs that name only
// a host or an owner return ErrNoRepo.
func ParseRepoURL(url string) (owner, repo string, err error) {
	url = strings.TrimSuffix(strings.TrimSpace(url), ".git")

	if m := httpsRepoRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	if m := sshRepoRe.FindStringSubmatch(url); len(m) == 3 {
		return m[1], m[2], nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrNoRepo, url)
}
