package domain

// PageKind tags the outcome of fetching one page from a platform API.
// Connectors decide the kind once, at the adapter boundary.
type PageKind int

const (
	// PageItems is a page of results, possibly empty on page one.
	PageItems PageKind = iota

	// PageEmpty means the resource has nothing to list, e.g. a
	// repository with no commits.
	PageEmpty

	// PageRateLimited means the platform refused the request because the
	// rate limit is exhausted.
	PageRateLimited

	// PageNotFound means the listed resource does not exist.
	PageNotFound

	// PageTransient covers network failures and malformed bodies. The
	// current listing is abandoned; the scan continues elsewhere.
	PageTransient
)

// Page is one fetched page of T plus the normalized outcome. Rate is
// populated whenever the response carried rate-limit headers.
type Page[T any] struct {
	Kind  PageKind
	Items []T

	// Reason carries detail for PageEmpty and PageTransient.
	Reason string

	Rate *RateLimitSnapshot
}

// ItemsPage builds a successful page.
func ItemsPage[T any](items []T) Page[T] {
	return Page[T]{Kind: PageItems, Items: items}
}

// EmptyPage builds a PageEmpty result with a human-readable reason.
func EmptyPage[T any](reason string) Page[T] {
	return Page[T]{Kind: PageEmpty, Reason: reason}
}

// RateLimitedPage builds a PageRateLimited result.
func RateLimitedPage[T any]() Page[T] {
	return Page[T]{Kind: PageRateLimited}
}

// NotFoundPage builds a PageNotFound result.
func NotFoundPage[T any]() Page[T] {
	return Page[T]{Kind: PageNotFound}
}

// TransientPage builds a PageTransient result with error detail.
func TransientPage[T any](reason string) Page[T] {
	return Page[T]{Kind: PageTransient, Reason: reason}
}
