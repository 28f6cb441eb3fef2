package domain

import "errors"

// Domain errors represent scan-level failures. Connector packages map
// platform-specific signaling onto these so the engine never inspects
// raw response shapes.
var (
	// ErrNotFound indicates the target or a repository does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRateLimited indicates the platform API rate limit was exceeded.
	// A scan hitting this is interrupted, never silently continued.
	ErrRateLimited = errors.New("rate limited")

	// ErrMalformedResponse indicates the platform returned a body that
	// could not be interpreted as the expected list shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrScanInterrupted indicates a scan halted before finishing all
	// repositories. Partial results were checkpointed.
	ErrScanInterrupted = errors.New("scan interrupted")
)
