package services

import (
	"context"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
)

// PageSize is the per_page value both platforms are queried with. A
// page shorter than this is always the last page.
const PageSize = 100

// PageOutcome reports how a pagination run ended.
type PageOutcome struct {
	// Kind is the terminal page variant observed. domain.PageItems
	// means pagination ended normally (short page or overlap).
	Kind domain.PageKind

	// Reason carries detail for PageEmpty and PageTransient endings.
	Reason string

	// Pages is how many pages were fetched.
	Pages int

	// Canceled is true when the context ended the run. The items
	// gathered so far are still returned.
	Canceled bool
}

// RateLimited reports whether pagination stopped on an exhausted rate
// limit.
func (o PageOutcome) RateLimited() bool {
	return o.Kind == domain.PageRateLimited
}

// Failed reports whether pagination ended on a transient failure or a
// malformed body.
func (o PageOutcome) Failed() bool {
	return o.Kind == domain.PageTransient
}

// Paginate drives fetch until the listing is exhausted, deduplicating
// items by key. It stops when a page is shorter than PageSize, when an
// item's key was already seen (pagination overlap), or when fetch
// returns a terminal page variant. Rate-limited pages stop the run with
// partial results; retrying is the orchestrator's decision, never the
// paginator's.
func Paginate[T any](ctx context.Context, fetch driven.PageFunc[T], key func(T) string) ([]T, PageOutcome) {
	seen := make(map[string]struct{})
	var items []T
	outcome := PageOutcome{Kind: domain.PageItems}

	for page := 1; ; page++ {
		if ctx.Err() != nil {
			outcome.Canceled = true
			return items, outcome
		}

		result := fetch(ctx, page)
		outcome.Pages++

		if result.Kind != domain.PageItems {
			outcome.Kind = result.Kind
			outcome.Reason = result.Reason
			return items, outcome
		}

		overlap := false
		for _, item := range result.Items {
			k := key(item)
			if _, dup := seen[k]; dup {
				overlap = true
				break
			}
			seen[k] = struct{}{}
			items = append(items, item)
		}

		if overlap || len(result.Items) < PageSize {
			return items, outcome
		}
	}
}
