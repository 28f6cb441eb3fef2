// Package driving defines interfaces that external actors (the CLI)
// use to drive the scan engine. Implementations live in
// internal/core/services.
package driving

import (
	"context"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

// ScanProgress is emitted after each repository is walked so a caller
// can render progress without reaching into the engine.
type ScanProgress struct {
	// Repository is the repository just scanned.
	Repository string

	// Index is the 1-based position of the repository, Total the number
	// of repositories sampled for this scan.
	Index int
	Total int

	// NewEmails is how many never-seen emails this repository leaked.
	NewEmails int

	// TotalEmails is the running leaked-email count.
	TotalEmails int
}

// ProgressFunc receives scan progress events. May be nil.
type ProgressFunc func(p ScanProgress)

// ScanOrchestrator runs the end-to-end scan state machine against one
// target.
type ScanOrchestrator interface {
	// Scan enumerates the target's repositories, walks their commit
	// histories and aggregates leaked identities. The returned state is
	// always populated with whatever was gathered, including when the
	// scan was interrupted; err distinguishes the terminal outcomes:
	//
	//   - nil: completed
	//   - domain.ErrNotFound: the target does not exist
	//   - domain.ErrScanInterrupted: rate limited or canceled, partial
	//     results persisted
	Scan(ctx context.Context, target domain.Target, opts domain.ScanOptions) (*domain.ScanState, error)
}
