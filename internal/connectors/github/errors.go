package github

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

// wrapError maps go-github errors onto the shared sentinels for the
// single-resource calls (profile, org, keys, members).
func wrapError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if isRateLimited(err) {
		return fmt.Errorf("github: %s: %w", operation, domain.ErrRateLimited)
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("github: %s: %w", operation, domain.ErrNotFound)
		}
	}
	return fmt.Errorf("github: %s: %w", operation, err)
}

// classify maps a listing-call error onto the Page outcome kinds.
// 409 with GitHub's empty-repository message means the listing has
// nothing, not that the request failed.
func classify[T any](err error) domain.Page[T] {
	if isRateLimited(err) {
		return domain.RateLimitedPage[T]()
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return domain.NotFoundPage[T]()
		case http.StatusConflict:
			if strings.Contains(ghErr.Message, "empty") {
				return domain.EmptyPage[T](ghErr.Message)
			}
		}
	}
	return domain.TransientPage[T](err.Error())
}

// isRateLimited recognizes both the dedicated rate-limit error types
// and the 403 GitHub returns when an unauthenticated quota runs out.
func isRateLimited(err error) bool {
	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return true
	}
	var ghErr *gh.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode == http.StatusForbidden &&
			strings.Contains(strings.ToLower(ghErr.Message), "rate limit")
	}
	return false
}
