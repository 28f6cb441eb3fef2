// Package gitlab implements the GitLab platform connector against the
// REST v4 API. GitLab has no ubiquitous Go SDK, so the client is a
// small hand-rolled REST layer; requests are paced by the shared
// rate-limit tracker the same way the GitHub connector's are.
package gitlab

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
)

const (
	// DefaultBaseURL is the public gitlab.com API root.
	DefaultBaseURL = "https://gitlab.com/api/v4"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	defaultUserAgent = "gitrecon-cli"

	// pageSize is the per-page item count requested from listing
	// endpoints.
	pageSize = 100

	// maxBodyBytes bounds how much of a response body is read.
	maxBodyBytes = 1 << 20
)

// Client is a minimal GitLab REST v4 client.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
	tracker driven.RateLimitObserver
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different API root. Used for
// self-hosted instances and in tests.
func WithBaseURL(raw string) ClientOption {
	return func(c *Client) { c.baseURL = raw }
}

// NewClient creates a GitLab API client. An empty token yields an
// unauthenticated client bound to the anonymous quota.
func NewClient(token string, tracker driven.RateLimitObserver, opts ...ClientOption) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: DefaultBaseURL,
		token:   token,
		tracker: tracker,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// apiResponse is one decoded-enough API response: the status, the raw
// body and the error message GitLab put in it, if any.
type apiResponse struct {
	Status  int
	Body    []byte
	Message string
}

// get issues a GET against path, waiting on the tracker first and
// feeding the response's rate headers back after.
func (c *Client) get(ctx context.Context, path string, query url.Values) (*apiResponse, error) {
	if err := c.tracker.Wait(ctx, domain.PlatformGitLab); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("gitlab: new request: %w", err)
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("PRIVATE-TOKEN", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gitlab: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	c.tracker.Observe(domain.PlatformGitLab, snapshotFromHeaders(resp.Header))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("gitlab: read body: %w", err)
	}

	return &apiResponse{
		Status:  resp.StatusCode,
		Body:    body,
		Message: errorMessage(resp.StatusCode, body),
	}, nil
}

// decode unmarshals a 200 body into v.
func decode(r *apiResponse, v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("gitlab: decode response: %w", domain.ErrMalformedResponse)
	}
	return nil
}

// errorMessage pulls the message out of GitLab's error envelope, which
// is either {"message": "..."} or {"error": "..."}.
func errorMessage(status int, body []byte) string {
	if status == http.StatusOK {
		return ""
	}
	var envelope struct {
		Message json.RawMessage `json:"message"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return http.StatusText(status)
	}
	if len(envelope.Message) > 0 {
		var s string
		if json.Unmarshal(envelope.Message, &s) == nil {
			return s
		}
		return string(envelope.Message)
	}
	if envelope.Error != "" {
		return envelope.Error
	}
	return http.StatusText(status)
}

// snapshotFromHeaders parses GitLab's RateLimit-* response headers.
// Returns nil when the headers are absent.
func snapshotFromHeaders(h http.Header) *domain.RateLimitSnapshot {
	limit := h.Get("Ratelimit-Limit")
	remaining := h.Get("Ratelimit-Remaining")
	if limit == "" && remaining == "" {
		return nil
	}
	snap := &domain.RateLimitSnapshot{
		Limit:     atoi(limit),
		Remaining: atoi(remaining),
	}
	if sec := atoi(h.Get("Ratelimit-Reset")); sec > 0 {
		snap.ResetAt = time.Unix(int64(sec), 0)
	}
	return snap
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
