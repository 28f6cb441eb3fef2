package gitlab

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

// emptyMarkers are the message fragments GitLab uses for projects that
// have nothing to list. They arrive on a 404, so the message decides
// empty-vs-missing.
var emptyMarkers = []string{
	"404 Project Not Found",
	"Empty repository",
	"No commits",
}

// checkStatus maps a non-200 response onto the shared sentinels for
// the single-resource calls.
func checkStatus(r *apiResponse, operation string) error {
	switch r.Status {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
		return fmt.Errorf("gitlab: %s: %w", operation, domain.ErrNotFound)
	case http.StatusTooManyRequests:
		return fmt.Errorf("gitlab: %s: %w", operation, domain.ErrRateLimited)
	default:
		return fmt.Errorf("gitlab: %s: status %d: %s", operation, r.Status, r.Message)
	}
}

// classify maps a non-200 listing response onto the Page outcome
// kinds.
func classify[T any](r *apiResponse) domain.Page[T] {
	if r.Status == http.StatusTooManyRequests {
		return domain.RateLimitedPage[T]()
	}
	for _, marker := range emptyMarkers {
		if strings.Contains(r.Message, marker) {
			return domain.EmptyPage[T](r.Message)
		}
	}
	if r.Status == http.StatusNotFound {
		return domain.NotFoundPage[T]()
	}
	return domain.TransientPage[T](fmt.Sprintf("status %d: %s", r.Status, r.Message))
}
