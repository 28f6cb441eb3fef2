// Package github implements the GitHub platform connector on top of
// go-github. All requests flow through the shared rate-limit tracker:
// the client waits before each call and feeds the response's rate
// headers back after it.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
)

const (
	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 10 * time.Second

	// pageSize is the per-page item count requested from every listing
	// endpoint.
	pageSize = 100
)

// Client wraps the go-github client with rate-limit pacing.
type Client struct {
	gh      *gh.Client
	tracker driven.RateLimitObserver
}

// ClientOption customizes a Client.
type ClientOption func(*Client) error

// WithBaseURL points the client at a different API root. Used in tests
// against a local server.
func WithBaseURL(raw string) ClientOption {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parse base url: %w", err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// NewClient creates a GitHub API client. An empty token yields an
// unauthenticated client bound to the anonymous quota.
func NewClient(token string, tracker driven.RateLimitObserver, opts ...ClientOption) (*Client, error) {
	var hc *http.Client
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		hc = oauth2.NewClient(context.Background(), ts)
	} else {
		hc = &http.Client{}
	}
	hc.Timeout = DefaultTimeout

	c := &Client{
		gh:      gh.NewClient(hc),
		tracker: tracker,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// wait blocks until the tracker allows the next request.
func (c *Client) wait(ctx context.Context) error {
	return c.tracker.Wait(ctx, domain.PlatformGitHub)
}

// observe feeds the response's rate-limit state into the tracker.
// Missing responses and missing headers are ignored.
func (c *Client) observe(resp *gh.Response) {
	if resp == nil {
		return
	}
	c.tracker.Observe(domain.PlatformGitHub, snapshotFromRate(resp.Rate))
}

// snapshotFromRate converts go-github's Rate into the shared snapshot.
// A zero Rate means the response carried no rate headers.
func snapshotFromRate(r gh.Rate) *domain.RateLimitSnapshot {
	if r.Limit == 0 && r.Remaining == 0 && r.Reset.IsZero() {
		return nil
	}
	return &domain.RateLimitSnapshot{
		Remaining: r.Remaining,
		Limit:     r.Limit,
		ResetAt:   r.Reset.Time,
	}
}
