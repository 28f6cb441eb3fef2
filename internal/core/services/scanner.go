package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driving"
	"github.com/custodia-labs/gitrecon-cli/internal/logger"
)

const (
	// DefaultSampleCap bounds organization/group scans (and GitLab user
	// scans) to this many repositories unless configured otherwise.
	DefaultSampleCap = 10

	// checkpointCadence persists progress every N repositories even
	// when nothing new leaked, so a long quiet stretch is not lost.
	checkpointCadence = 5

	// lowBudgetWarn triggers a pre-scan warning when the remaining
	// request budget looks too small for a full scan.
	lowBudgetWarn = 50
)

// Ensure Scanner implements the driving port.
var _ driving.ScanOrchestrator = (*Scanner)(nil)

// Scanner runs the end-to-end scan state machine: profile lookup,
// repository enumeration, per-repository commit walks, identity
// aggregation and checkpointing.
//
// One scanner issues one outstanding request at a time. The serial
// request flow, paced by the rate-limit tracker inside the connector,
// is what keeps a scan inside platform quotas.
type Scanner struct {
	connector driven.PlatformConnector
	tracker   *RateLimitTracker
	store     driven.CheckpointStore
	progress  driving.ProgressFunc
}

// ScannerOption customizes a Scanner.
type ScannerOption func(*Scanner)

// WithProgress registers a per-repository progress callback.
func WithProgress(fn driving.ProgressFunc) ScannerOption {
	return func(s *Scanner) { s.progress = fn }
}

// NewScanner creates a scan orchestrator.
func NewScanner(
	connector driven.PlatformConnector,
	tracker *RateLimitTracker,
	store driven.CheckpointStore,
	opts ...ScannerOption,
) *Scanner {
	s := &Scanner{
		connector: connector,
		tracker:   tracker,
		store:     store,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan implements driving.ScanOrchestrator.
func (s *Scanner) Scan(ctx context.Context, target domain.Target, opts domain.ScanOptions) (*domain.ScanState, error) {
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if opts.SampleCap <= 0 {
		opts.SampleCap = DefaultSampleCap
	}

	state := &domain.ScanState{
		ID:        uuid.NewString(),
		Target:    target,
		StartedAt: time.Now(),
	}

	// Initializing: the profile lookup decides NotFound vs a real scan.
	profile, err := s.lookupTarget(ctx, target)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%s %q: %w", target.Kind, target.Identifier, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("looking up %s %q: %w", target.Kind, target.Identifier, err)
	}
	state.Profile = profile
	logger.Info("Found %s %s: %s (%s)", target.Platform, target.Kind, profile.Login, profile.DisplayName())

	// Even a zero-repository scan leaves a record.
	s.checkpoint(ctx, state)
	s.warnLowBudget(target.Platform)

	s.enrichProfile(ctx, target, state)

	// EnumeratingRepositories.
	repos, outcome := Paginate(ctx, s.connector.ListRepositories(target), func(r domain.RepositoryRef) string {
		return r.Name
	})
	switch {
	case outcome.Canceled:
		return s.interrupt(ctx, state, nil, 0, 0), domain.ErrScanInterrupted
	case outcome.RateLimited():
		logger.Warn("rate limit exceeded - not all repositories were fetched")
	case outcome.Failed():
		logger.Warn("error fetching repositories: %s", outcome.Reason)
	}
	logger.Info("Found %d repositories", len(repos))

	repos = orderAndSample(repos, target, opts)
	state.Repositories = repos
	total := len(repos)
	s.checkpoint(ctx, state)

	if outcome.RateLimited() {
		return s.interrupt(ctx, state, nil, 0, total), domain.ErrScanInterrupted
	}

	logger.Info("Scanning %d repositories for leaked emails", total)

	// ScanningRepository(i) -> Checkpointing -> next, per repository.
	agg := NewIdentityAggregator()
	for i, repo := range repos {
		if ctx.Err() != nil {
			return s.interrupt(ctx, state, agg, i, total), domain.ErrScanInterrupted
		}

		logger.Info("Scanning repository %d/%d: %s", i+1, total, repo.Name)

		commits, result := Paginate(ctx, s.connector.ListCommits(target, repo), func(c domain.Commit) string {
			return c.SHA
		})

		newEmails := s.recordCommits(agg, target, profile, repo, commits)

		if result.Canceled || result.RateLimited() {
			if result.RateLimited() {
				logger.Error("API rate limit exceeded - saving current results")
			}
			return s.interrupt(ctx, state, agg, i+1, total), domain.ErrScanInterrupted
		}

		failed := false
		switch result.Kind {
		case domain.PageEmpty:
			logger.Info("Repository %s is empty - skipping", repo.Name)
		case domain.PageNotFound:
			logger.Warn("Repository not found: %q", repo.Name)
		case domain.PageTransient:
			logger.Warn("Error scanning %s: %s", repo.Name, result.Reason)
			state.LastError = &domain.ScanError{
				Repository: repo.Name,
				Message:    result.Reason,
				Timestamp:  time.Now(),
			}
			failed = true
		}

		state.RepositoriesScanned = i + 1
		state.Progress = progressLabel(i+1, total)

		// Checkpointing: persist on new identities, on failures, and on
		// the fixed cadence; otherwise skip the write.
		if newEmails > 0 || failed || (i > 0 && i%checkpointCadence == 0) {
			s.syncAggregate(state, agg)
			s.checkpoint(ctx, state)
		}

		if newEmails > 0 {
			logger.Info("Found %d new emails in %s", newEmails, repo.Name)
		}
		s.emitProgress(repo.Name, i+1, total, newEmails, agg.Count())
	}

	// Finalizing -> Completed.
	s.syncAggregate(state, agg)
	now := time.Now()
	state.CompletedAt = &now
	state.Progress = domain.ProgressCompleted
	s.checkpoint(ctx, state)

	if opts.Format != domain.FormatNone {
		paths, ferr := s.store.Finalize(ctx, target.Key(), state, opts.Format)
		if ferr != nil {
			logger.Error("writing report: %v", ferr)
		}
		for _, p := range paths {
			logger.Info("Report saved to: %s", p)
		}
	}

	return state, nil
}

// lookupTarget fetches the user profile or the organization/group
// profile depending on the target kind.
func (s *Scanner) lookupTarget(ctx context.Context, target domain.Target) (*domain.Profile, error) {
	if target.Kind == domain.TargetOrganization {
		return s.connector.GetOrganization(ctx, target)
	}
	return s.connector.GetProfile(ctx, target)
}

// enrichProfile gathers the secondary surfaces around the profile:
// organizations and SSH keys for user scans, members for org scans.
// All of these are best-effort; failures are logged and skipped.
func (s *Scanner) enrichProfile(ctx context.Context, target domain.Target, state *domain.ScanState) {
	if target.Kind == domain.TargetUser {
		orgs, err := s.connector.GetOrganizations(ctx, target)
		switch {
		case err != nil:
			logger.Warn("error fetching organizations: %v", err)
		case len(orgs) > 0:
			logger.Info("Found %d organizations: %s", len(orgs), strings.Join(orgs, ", "))
			state.Organizations = orgs
			s.checkpoint(ctx, state)
		default:
			logger.Info("No organizations found")
		}

		keys, err := s.connector.GetKeys(ctx, target)
		switch {
		case err != nil:
			logger.Warn("error fetching public keys: %v", err)
		case len(keys) > 0:
			logger.Info("Found %d public SSH keys", len(keys))
			state.Keys = keys
			s.checkpoint(ctx, state)
		default:
			logger.Info("No public SSH keys found")
		}
		return
	}

	members, err := s.connector.GetMembers(ctx, target)
	switch {
	case err != nil:
		logger.Warn("error fetching members: %v", err)
	case len(members) > 0:
		logger.Info("Found %d members", len(members))
		state.Members = members
		s.checkpoint(ctx, state)
	}
}

// recordCommits folds a repository's commits into the aggregate and
// returns how many never-seen emails leaked.
func (s *Scanner) recordCommits(
	agg *IdentityAggregator,
	target domain.Target,
	profile *domain.Profile,
	repo domain.RepositoryRef,
	commits []domain.Commit,
) int {
	newEmails := 0
	for _, c := range commits {
		// GitHub user scans only attribute commits whose author login
		// matches the scanned user. Organization scans take everything;
		// the asymmetry matches the observed platform behavior.
		if target.Platform == domain.PlatformGitHub && target.Kind == domain.TargetUser {
			if !strings.EqualFold(c.Author.Login, target.Identifier) {
				continue
			}
		}

		for _, id := range []domain.CommitIdentity{c.Author, c.Committer} {
			if id.Email == "" {
				continue
			}
			id.Repository = repo
			if agg.Record(id, s.attributed(target, profile, id)) {
				newEmails++
			}
		}
	}
	return newEmails
}

// attributed decides whether an identity counts against the scan
// target. GitLab user scans match on the profile display name; GitHub
// filtering already happened at the commit level, and org/group scans
// attribute every identity.
func (s *Scanner) attributed(target domain.Target, profile *domain.Profile, id domain.CommitIdentity) bool {
	if target.Platform == domain.PlatformGitLab && target.Kind == domain.TargetUser {
		return profile != nil && id.DisplayName == profile.Name
	}
	return true
}

// interrupt flushes the current snapshot with the interrupted flag set
// and the progress label frozen at the repository that stopped the
// scan.
func (s *Scanner) interrupt(ctx context.Context, state *domain.ScanState, agg *IdentityAggregator, scanned, total int) *domain.ScanState {
	if agg != nil {
		s.syncAggregate(state, agg)
	}
	state.Interrupted = true
	state.Progress = progressLabel(scanned, total)
	s.checkpoint(ctx, state)
	return state
}

// syncAggregate copies the aggregator's view into the scan state.
func (s *Scanner) syncAggregate(state *domain.ScanState, agg *IdentityAggregator) {
	state.LeakedEmails = agg.LeakedEmails()
	state.EmailDetails = agg.Snapshot()
}

// checkpoint persists the snapshot. A failed write is logged, not
// fatal: losing one checkpoint must not kill a running scan.
func (s *Scanner) checkpoint(ctx context.Context, state *domain.ScanState) {
	if err := s.store.Persist(ctx, state.Target.Key(), state); err != nil {
		logger.Error("persisting checkpoint for %s: %v", state.Target.Key(), err)
		return
	}
	logger.Debug("checkpoint saved for %s", state.Target.Key())
}

func (s *Scanner) warnLowBudget(platform domain.Platform) {
	if snap := s.tracker.Snapshot(platform); snap != nil && snap.Remaining < lowBudgetWarn {
		logger.Warn("only %d %s API requests remaining; consider supplying a token", snap.Remaining, platform)
	}
}

func (s *Scanner) emitProgress(repo string, index, total, newEmails, totalEmails int) {
	if s.progress == nil {
		return
	}
	s.progress(driving.ScanProgress{
		Repository:  repo,
		Index:       index,
		Total:       total,
		NewEmails:   newEmails,
		TotalEmails: totalEmails,
	})
}

// orderAndSample applies the fork policy and the sampling cap:
// non-fork repositories come first, forks are dropped unless included,
// and org/group scans (plus GitLab user scans) are bounded to the cap.
// GitHub user scans are unbounded; the inconsistency is the observed
// platform tool behavior, kept deliberately.
func orderAndSample(repos []domain.RepositoryRef, target domain.Target, opts domain.ScanOptions) []domain.RepositoryRef {
	ordered := append([]domain.RepositoryRef(nil), repos...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !ordered[i].IsFork && ordered[j].IsFork
	})

	if !opts.IncludeForks {
		kept := ordered[:0]
		for _, r := range ordered {
			if !r.IsFork {
				kept = append(kept, r)
			}
		}
		ordered = kept
	}

	capped := target.Kind == domain.TargetOrganization || target.Platform == domain.PlatformGitLab
	if capped && len(ordered) > opts.SampleCap {
		ordered = ordered[:opts.SampleCap]
	}
	return ordered
}

func progressLabel(scanned, total int) string {
	return fmt.Sprintf("%d/%d repositories scanned", scanned, total)
}
