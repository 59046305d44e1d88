// Package repository wraps the GitHub REST API behind the narrow surface
// the scan pipeline needs, classifying upstream failures into the scan
// error taxonomy.
package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v68/github"
	"golang.org/x/oauth2"

	"github.com/launchpass/scand/internal/config"
	"github.com/launchpass/scand/internal/scan"
	"github.com/launchpass/scand/models"
)

const (
	userAgent      = "launchpass-scanner"
	defaultRawBase = "https://raw.githubusercontent.com"
)

// Client implements scan.HostClient against the GitHub REST API. Each call
// either succeeds or returns a classified *scan.Error; there are no
// internal retries or backoff.
type Client struct {
	gh      *gogithub.Client
	http    *http.Client
	token   string
	rawBase string
}

// New creates a Client from the given configuration. A missing token is
// allowed: public repositories remain reachable at reduced rate limits.
func New(cfg config.GitHubConfig) (*Client, error) {
	httpClient := &http.Client{Timeout: 30 * time.Second}
	if cfg.Token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), ts)
		httpClient.Timeout = 30 * time.Second
	}

	gh := gogithub.NewClient(httpClient)
	gh.UserAgent = userAgent
	if cfg.APIBaseURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.APIBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API base URL: %w", err)
		}
		gh.BaseURL = base
	}

	rawBase := cfg.RawBaseURL
	if rawBase == "" {
		rawBase = defaultRawBase
	}

	return &Client{
		gh:      gh,
		http:    httpClient,
		token:   cfg.Token,
		rawBase: strings.TrimRight(rawBase, "/"),
	}, nil
}

// DefaultBranch returns the repository's default branch. A 404 here means
// the repository does not exist or is not publicly accessible.
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", classify(err, true)
	}
	branch := r.GetDefaultBranch()
	if branch == "" {
		return "", scan.Errf(scan.CodeUpstreamFetch, http.StatusBadGateway,
			"Could not determine repository default branch.")
	}
	return branch, nil
}

// LatestCommit returns the SHA of the newest commit on branch.
func (c *Client) LatestCommit(ctx context.Context, owner, repo, branch string) (string, error) {
	sha, _, err := c.gh.Repositories.GetCommitSHA1(ctx, owner, repo, branch, "")
	if err != nil {
		return "", classify(err, false)
	}
	if sha == "" {
		return "", scan.Errf(scan.CodeUpstreamFetch, http.StatusBadGateway,
			"Could not determine repository latest commit hash.")
	}
	return sha, nil
}

// TreeRecursive lists the repository tree at commitHash. A truncated
// listing means the repository is too large to enumerate, which
// short-circuits the scan before any per-file work.
func (c *Client) TreeRecursive(ctx context.Context, owner, repo, commitHash string) ([]models.TreeEntry, error) {
	tree, _, err := c.gh.Git.GetTree(ctx, owner, repo, commitHash, true)
	if err != nil {
		return nil, classify(err, false)
	}
	if tree.GetTruncated() {
		return nil, scan.Errf(scan.CodeOversizedRepo, http.StatusRequestEntityTooLarge,
			"Repository is too large to scan. Please try a smaller repository.")
	}

	entries := make([]models.TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e == nil {
			continue
		}
		entries = append(entries, models.TreeEntry{
			Path: e.GetPath(),
			Type: e.GetType(),
			Size: e.GetSize(),
			SHA:  e.GetSHA(),
		})
	}
	return entries, nil
}

// RawFile fetches raw file content from the raw-content endpoint.
func (c *Client) RawFile(ctx context.Context, owner, repo, commitHash, path string) (string, error) {
	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s",
		c.rawBase, owner, repo, commitHash, escapePath(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", scan.Errf(scan.CodeUpstreamFetch, http.StatusBadGateway,
			"Could not fetch repository file contents from GitHub.")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", scan.Errf(scan.CodeUpstreamFetch, http.StatusBadGateway,
			"Could not fetch repository file contents from GitHub.")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return "", rateLimited()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", scan.Errf(scan.CodeUpstreamFetch, http.StatusBadGateway,
			"Failed while reading repository files from GitHub.")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", scan.Errf(scan.CodeUpstreamFetch, http.StatusBadGateway,
			"Failed while reading repository files from GitHub.")
	}
	return string(body), nil
}

// escapePath URL-escapes a repo-relative path while keeping its slashes.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

func rateLimited() *scan.Error {
	return scan.Errf(scan.CodeRateLimited, http.StatusTooManyRequests,
		"GitHub rate limit reached. Please try again later.")
}

// classify maps go-github errors to the scan error taxonomy. GitHub
// currently signals rate exhaustion as 403 plus a zero remaining-quota
// header, which go-github surfaces as RateLimitError; if that signaling
// ever moves to 429 this mapping must follow.
func classify(err error, notFoundIsRepo bool) *scan.Error {
	var rateErr *gogithub.RateLimitError
	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return rateLimited()
	}

	var respErr *gogithub.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil &&
		respErr.Response.StatusCode == http.StatusNotFound && notFoundIsRepo {
		return scan.Errf(scan.CodeRepoNotFound, http.StatusNotFound,
			"Repository not found or not publicly accessible.")
	}

	return scan.Errf(scan.CodeUpstreamFetch, http.StatusBadGateway,
		"Failed to fetch repository data from GitHub.")
}
