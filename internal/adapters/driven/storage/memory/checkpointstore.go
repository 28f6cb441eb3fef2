// Package memory provides in-memory implementations of the storage
// ports. Used in tests and wherever durability is not required.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
)

// Ensure CheckpointStore implements the interface.
var _ driven.CheckpointStore = (*CheckpointStore)(nil)

// CheckpointStore is an in-memory implementation of
// driven.CheckpointStore. Persist stores a deep-enough copy of the
// state so later mutations by the scanner do not leak into persisted
// snapshots.
type CheckpointStore struct {
	mu     sync.RWMutex
	states map[domain.ScanKey]*domain.ScanState
	order  []domain.ScanKey

	// PersistErr, when set, is returned by Persist. Test hook.
	PersistErr error

	// Persists counts successful Persist calls. Test hook.
	Persists int

	// History holds a copy of every persisted snapshot in write order.
	// Test hook.
	History []*domain.ScanState
}

// NewCheckpointStore creates an empty in-memory checkpoint store.
func NewCheckpointStore() *CheckpointStore {
	return &CheckpointStore{
		states: make(map[domain.ScanKey]*domain.ScanState),
	}
}

// Persist implements driven.CheckpointStore.
func (s *CheckpointStore) Persist(_ context.Context, key domain.ScanKey, state *domain.ScanState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.PersistErr != nil {
		return s.PersistErr
	}

	state.LastUpdated = time.Now()
	if _, exists := s.states[key]; !exists {
		s.order = append(s.order, key)
	}
	snapshot := copyState(state)
	s.states[key] = snapshot
	s.Persists++
	s.History = append(s.History, snapshot)
	return nil
}

// Load implements driven.CheckpointStore.
func (s *CheckpointStore) Load(_ context.Context, key domain.ScanKey) (*domain.ScanState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[key]
	if !ok {
		return nil, fmt.Errorf("checkpoint %s: %w", key, domain.ErrNotFound)
	}
	return copyState(state), nil
}

// List implements driven.CheckpointStore.
func (s *CheckpointStore) List(_ context.Context) ([]domain.ScanKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]domain.ScanKey, len(s.order))
	copy(keys, s.order)
	return keys, nil
}

// Finalize implements driven.CheckpointStore. The memory store writes
// no artifacts; it returns no paths.
func (s *CheckpointStore) Finalize(ctx context.Context, key domain.ScanKey, state *domain.ScanState, _ domain.ReportFormat) ([]string, error) {
	return nil, s.Persist(ctx, key, state)
}

// copyState clones the state including the slices the scanner keeps
// rewriting between checkpoints.
func copyState(in *domain.ScanState) *domain.ScanState {
	out := *in
	out.Organizations = append([]string(nil), in.Organizations...)
	out.Keys = append([]domain.PublicKey(nil), in.Keys...)
	out.Members = append([]domain.Member(nil), in.Members...)
	out.Repositories = append([]domain.RepositoryRef(nil), in.Repositories...)
	out.LeakedEmails = append([]string(nil), in.LeakedEmails...)
	out.EmailDetails = make([]domain.EmailRecord, len(in.EmailDetails))
	for i, rec := range in.EmailDetails {
		rec.Names = append([]string(nil), rec.Names...)
		rec.Sources = append([]string(nil), rec.Sources...)
		out.EmailDetails[i] = rec
	}
	if in.LastError != nil {
		e := *in.LastError
		out.LastError = &e
	}
	if in.CompletedAt != nil {
		t := *in.CompletedAt
		out.CompletedAt = &t
	}
	return &out
}
