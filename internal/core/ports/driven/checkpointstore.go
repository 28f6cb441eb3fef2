package driven

import (
	"context"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

// CheckpointStore persists scan progress so long-running scans are
// never silently lost. One checkpoint slot exists per (target,
// platform) pair; Persist overwrites it, last write wins.
type CheckpointStore interface {
	// Persist durably writes the current scan snapshot. The caller sees
	// the write as synchronous: when Persist returns nil the snapshot
	// survives an interruption.
	Persist(ctx context.Context, key domain.ScanKey, state *domain.ScanState) error

	// Load retrieves the last persisted snapshot for a key.
	// Returns domain.ErrNotFound when the key has never been scanned.
	Load(ctx context.Context, key domain.ScanKey) (*domain.ScanState, error)

	// List returns every key with a persisted checkpoint.
	List(ctx context.Context) ([]domain.ScanKey, error)

	// Finalize writes the timestamped, non-overwriting report artifacts
	// for a finished scan and returns their paths. The running
	// checkpoint is left in place.
	Finalize(ctx context.Context, key domain.ScanKey, state *domain.ScanState, format domain.ReportFormat) ([]string, error)
}
