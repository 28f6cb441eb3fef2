package services

import (
	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

// unknownName substitutes for commits whose identity carries an email
// but no display name.
const unknownName = "Unknown"

// IdentityAggregator is the deduplication core of a scan: it maps each
// email to the set of names and source repositories it was seen under.
// Email keys are case-sensitive; two spellings of one address stay
// separate records.
//
// An email becomes "leaked" only if its attribution check passed the
// first time it was seen. Later sightings merge names and sources but
// never change the leak decision.
type IdentityAggregator struct {
	records     map[string]*emailEntry
	order       []string
	leaked      map[string]struct{}
	leakedOrder []string
}

type emailEntry struct {
	names      []string
	nameSeen   map[string]struct{}
	sources    []string
	sourceSeen map[string]struct{}
	login      string
}

// NewIdentityAggregator creates an empty aggregator.
func NewIdentityAggregator() *IdentityAggregator {
	return &IdentityAggregator{
		records: make(map[string]*emailEntry),
		leaked:  make(map[string]struct{}),
	}
}

// Record folds one commit identity into the aggregate. attributed says
// whether the identity passed the scan target's ownership check.
// Returns true when this call leaked a never-seen email, the signal the
// orchestrator uses for checkpoint urgency.
//
// Merging is commutative per email: replaying identities in any order
// produces the same names and sources.
func (a *IdentityAggregator) Record(id domain.CommitIdentity, attributed bool) bool {
	if id.Email == "" {
		return false
	}

	entry, exists := a.records[id.Email]
	if !exists {
		entry = &emailEntry{
			nameSeen:   make(map[string]struct{}),
			sourceSeen: make(map[string]struct{}),
		}
		a.records[id.Email] = entry
		a.order = append(a.order, id.Email)
	}

	name := id.DisplayName
	if name == "" {
		name = unknownName
	}
	if _, dup := entry.nameSeen[name]; !dup {
		entry.nameSeen[name] = struct{}{}
		entry.names = append(entry.names, name)
	}

	if repo := id.Repository.Name; repo != "" {
		if _, dup := entry.sourceSeen[repo]; !dup {
			entry.sourceSeen[repo] = struct{}{}
			entry.sources = append(entry.sources, repo)
		}
	}

	if entry.login == "" {
		entry.login = id.Login
	}

	if !exists && attributed {
		a.leaked[id.Email] = struct{}{}
		a.leakedOrder = append(a.leakedOrder, id.Email)
		return true
	}
	return false
}

// LeakedEmails returns the attributed emails in discovery order.
func (a *IdentityAggregator) LeakedEmails() []string {
	out := make([]string, len(a.leakedOrder))
	copy(out, a.leakedOrder)
	return out
}

// Count returns how many leaked emails have been aggregated.
func (a *IdentityAggregator) Count() int {
	return len(a.leakedOrder)
}

// Snapshot returns the full record for every leaked email, in
// discovery order. The slices are copies; mutating them does not
// affect the aggregate.
func (a *IdentityAggregator) Snapshot() []domain.EmailRecord {
	out := make([]domain.EmailRecord, 0, len(a.leakedOrder))
	for _, email := range a.leakedOrder {
		entry := a.records[email]
		rec := domain.EmailRecord{
			Email:            email,
			Names:            append([]string(nil), entry.names...),
			Sources:          append([]string(nil), entry.sources...),
			PlatformUsername: entry.login,
		}
		out = append(out, rec)
	}
	return out
}
