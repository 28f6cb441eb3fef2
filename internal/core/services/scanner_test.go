package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitrecon-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driving"
)

// mockConnector implements driven.PlatformConnector from scripted
// pages.
type mockConnector struct {
	platform   domain.Platform
	profile    *domain.Profile
	profileErr error
	orgs       []string
	keys       []domain.PublicKey
	members    []domain.Member

	repoPages   []domain.Page[domain.RepositoryRef]
	commitPages map[string][]domain.Page[domain.Commit]

	// commitCalls records the repositories commits were requested for,
	// in order.
	commitCalls []string
}

var _ driven.PlatformConnector = (*mockConnector)(nil)

func (m *mockConnector) Platform() domain.Platform { return m.platform }

func (m *mockConnector) GetProfile(_ context.Context, _ domain.Target) (*domain.Profile, error) {
	return m.profile, m.profileErr
}

func (m *mockConnector) GetOrganization(_ context.Context, _ domain.Target) (*domain.Profile, error) {
	return m.profile, m.profileErr
}

func (m *mockConnector) GetOrganizations(_ context.Context, _ domain.Target) ([]string, error) {
	return m.orgs, nil
}

func (m *mockConnector) GetMembers(_ context.Context, _ domain.Target) ([]domain.Member, error) {
	return m.members, nil
}

func (m *mockConnector) GetKeys(_ context.Context, _ domain.Target) ([]domain.PublicKey, error) {
	return m.keys, nil
}

func (m *mockConnector) ListRepositories(_ domain.Target) driven.PageFunc[domain.RepositoryRef] {
	return func(_ context.Context, page int) domain.Page[domain.RepositoryRef] {
		if page > len(m.repoPages) {
			return domain.ItemsPage[domain.RepositoryRef](nil)
		}
		return m.repoPages[page-1]
	}
}

func (m *mockConnector) ListCommits(_ domain.Target, repo domain.RepositoryRef) driven.PageFunc[domain.Commit] {
	m.commitCalls = append(m.commitCalls, repo.Name)
	pages := m.commitPages[repo.Name]
	return func(_ context.Context, page int) domain.Page[domain.Commit] {
		if page > len(pages) {
			return domain.ItemsPage[domain.Commit](nil)
		}
		return pages[page-1]
	}
}

func commit(sha, email, name, login string) domain.Commit {
	return domain.Commit{
		SHA: sha,
		Author: domain.CommitIdentity{
			Email:       email,
			DisplayName: name,
			Role:        domain.RoleAuthor,
			Login:       login,
		},
	}
}

func repoPage(refs ...domain.RepositoryRef) domain.Page[domain.RepositoryRef] {
	return domain.ItemsPage(refs)
}

func userTarget(platform domain.Platform, name string) domain.Target {
	return domain.Target{Platform: platform, Kind: domain.TargetUser, Identifier: name}
}

func newTestScanner(conn *mockConnector, store *memory.CheckpointStore, opts ...ScannerOption) *Scanner {
	return NewScanner(conn, NewRateLimitTracker(time.Millisecond), store, opts...)
}

func TestScanner_TargetNotFound(t *testing.T) {
	store := memory.NewCheckpointStore()
	conn := &mockConnector{
		platform:   domain.PlatformGitHub,
		profileErr: domain.ErrNotFound,
	}
	scanner := newTestScanner(conn, store)

	state, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "ghost"), domain.ScanOptions{})

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, state)
	assert.Zero(t, store.Persists, "a missing target must not leave partial state")
}

func TestScanner_OctocatScenario(t *testing.T) {
	// Two repositories: Hello-World leaks two emails, Spoon-Knife is
	// empty. Both records must source only Hello-World.
	store := memory.NewCheckpointStore()
	conn := &mockConnector{
		platform: domain.PlatformGitHub,
		profile:  &domain.Profile{Login: "octocat", Name: "The Octocat"},
		repoPages: []domain.Page[domain.RepositoryRef]{repoPage(
			domain.RepositoryRef{Name: "Hello-World"},
			domain.RepositoryRef{Name: "Spoon-Knife"},
		)},
		commitPages: map[string][]domain.Page[domain.Commit]{
			"Hello-World": {domain.ItemsPage([]domain.Commit{
				commit("sha1", "a@x.com", "Octo Cat", "octocat"),
				commit("sha2", "b@x.com", "Octo Cat", "octocat"),
			})},
			"Spoon-Knife": {domain.EmptyPage[domain.Commit]("Git Repository is empty.")},
		},
	}
	scanner := newTestScanner(conn, store)

	state, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "octocat"), domain.ScanOptions{})

	require.NoError(t, err)
	assert.True(t, state.Completed())
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, state.LeakedEmails)
	require.Len(t, state.EmailDetails, 2)
	for _, rec := range state.EmailDetails {
		assert.Equal(t, []string{"Hello-World"}, rec.Sources)
	}
	assert.Equal(t, 2, state.RepositoriesScanned)
	assert.NotNil(t, state.CompletedAt)

	// The final checkpoint matches the returned state.
	persisted, err := store.Load(context.Background(), state.Target.Key())
	require.NoError(t, err)
	assert.Equal(t, domain.ProgressCompleted, persisted.Progress)
	assert.Equal(t, state.LeakedEmails, persisted.LeakedEmails)
}

func TestScanner_CheckpointPolicy(t *testing.T) {
	t.Run("new identity always persists", func(t *testing.T) {
		store := memory.NewCheckpointStore()
		conn := &mockConnector{
			platform:  domain.PlatformGitHub,
			profile:   &domain.Profile{Login: "octocat"},
			repoPages: []domain.Page[domain.RepositoryRef]{repoPage(domain.RepositoryRef{Name: "r1"})},
			commitPages: map[string][]domain.Page[domain.Commit]{
				"r1": {domain.ItemsPage([]domain.Commit{commit("s1", "a@x.com", "A", "octocat")})},
			},
		}
		scanner := newTestScanner(conn, store)

		before := store.Persists
		_, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "octocat"), domain.ScanOptions{})
		require.NoError(t, err)

		// profile + repo list + r1 (new email) + final.
		assert.Equal(t, before+4, store.Persists)
	})

	t.Run("no new identity and off-cadence skips the write", func(t *testing.T) {
		store := memory.NewCheckpointStore()
		conn := &mockConnector{
			platform: domain.PlatformGitHub,
			profile:  &domain.Profile{Login: "octocat"},
			repoPages: []domain.Page[domain.RepositoryRef]{repoPage(
				domain.RepositoryRef{Name: "r1"},
				domain.RepositoryRef{Name: "r2"},
			)},
			commitPages: map[string][]domain.Page[domain.Commit]{
				"r1": {domain.ItemsPage([]domain.Commit{commit("s1", "a@x.com", "A", "octocat")})},
				// r2 repeats the same email: no new identity, index 1.
				"r2": {domain.ItemsPage([]domain.Commit{commit("s2", "a@x.com", "A", "octocat")})},
			},
		}
		scanner := newTestScanner(conn, store)

		_, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "octocat"), domain.ScanOptions{})
		require.NoError(t, err)

		// profile + repo list + r1 + final; nothing for r2.
		assert.Equal(t, 4, store.Persists)
	})
}

func TestScanner_RateLimitInterrupts(t *testing.T) {
	store := memory.NewCheckpointStore()
	conn := &mockConnector{
		platform: domain.PlatformGitHub,
		profile:  &domain.Profile{Login: "octocat"},
		repoPages: []domain.Page[domain.RepositoryRef]{repoPage(
			domain.RepositoryRef{Name: "r1"},
			domain.RepositoryRef{Name: "r2"},
			domain.RepositoryRef{Name: "r3"},
		)},
		commitPages: map[string][]domain.Page[domain.Commit]{
			"r1": {domain.ItemsPage([]domain.Commit{commit("s1", "a@x.com", "A", "octocat")})},
			"r2": {domain.RateLimitedPage[domain.Commit]()},
			"r3": {domain.ItemsPage([]domain.Commit{commit("s3", "c@x.com", "C", "octocat")})},
		},
	}
	scanner := newTestScanner(conn, store)

	state, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "octocat"), domain.ScanOptions{})

	assert.ErrorIs(t, err, domain.ErrScanInterrupted)
	require.NotNil(t, state)
	assert.True(t, state.Interrupted)
	assert.Equal(t, "2/3 repositories scanned", state.Progress)
	// Everything from r1 survives; r3 was never reached.
	assert.Equal(t, []string{"a@x.com"}, state.LeakedEmails)
	assert.Equal(t, []string{"r1", "r2"}, conn.commitCalls)

	// The interruption snapshot was flushed before returning.
	persisted, perr := store.Load(context.Background(), state.Target.Key())
	require.NoError(t, perr)
	assert.True(t, persisted.Interrupted)
	assert.Equal(t, []string{"a@x.com"}, persisted.LeakedEmails)
}

func TestScanner_TransientErrorContinues(t *testing.T) {
	store := memory.NewCheckpointStore()
	conn := &mockConnector{
		platform: domain.PlatformGitHub,
		profile:  &domain.Profile{Login: "octocat"},
		repoPages: []domain.Page[domain.RepositoryRef]{repoPage(
			domain.RepositoryRef{Name: "broken"},
			domain.RepositoryRef{Name: "good"},
		)},
		commitPages: map[string][]domain.Page[domain.Commit]{
			"broken": {domain.TransientPage[domain.Commit]("connection reset")},
			"good":   {domain.ItemsPage([]domain.Commit{commit("s1", "a@x.com", "A", "octocat")})},
		},
	}
	scanner := newTestScanner(conn, store)

	state, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "octocat"), domain.ScanOptions{})

	require.NoError(t, err, "a single repository failure must not abort the scan")
	assert.True(t, state.Completed())
	require.NotNil(t, state.LastError)
	assert.Equal(t, "broken", state.LastError.Repository)
	assert.Equal(t, "connection reset", state.LastError.Message)
	assert.Equal(t, []string{"a@x.com"}, state.LeakedEmails)
}

func TestScanner_ForkPolicy(t *testing.T) {
	newConn := func() *mockConnector {
		return &mockConnector{
			platform: domain.PlatformGitHub,
			profile:  &domain.Profile{Login: "octocat"},
			repoPages: []domain.Page[domain.RepositoryRef]{repoPage(
				domain.RepositoryRef{Name: "forked", IsFork: true},
				domain.RepositoryRef{Name: "own"},
			)},
			commitPages: map[string][]domain.Page[domain.Commit]{
				"forked": {domain.EmptyPage[domain.Commit]("empty")},
				"own":    {domain.EmptyPage[domain.Commit]("empty")},
			},
		}
	}

	t.Run("forks are skipped by default", func(t *testing.T) {
		conn := newConn()
		scanner := newTestScanner(conn, memory.NewCheckpointStore())

		state, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "octocat"), domain.ScanOptions{})

		require.NoError(t, err)
		require.Len(t, state.Repositories, 1)
		assert.Equal(t, "own", state.Repositories[0].Name)
	})

	t.Run("included forks are scanned after non-forks", func(t *testing.T) {
		conn := newConn()
		scanner := newTestScanner(conn, memory.NewCheckpointStore())

		_, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "octocat"), domain.ScanOptions{IncludeForks: true})

		require.NoError(t, err)
		assert.Equal(t, []string{"own", "forked"}, conn.commitCalls)
	})
}

func TestScanner_SampleCap(t *testing.T) {
	refs := make([]domain.RepositoryRef, 15)
	pages := make(map[string][]domain.Page[domain.Commit], 15)
	for i := range refs {
		name := string(rune('a' + i))
		refs[i] = domain.RepositoryRef{Name: name, PlatformID: name}
		pages[name] = []domain.Page[domain.Commit]{domain.EmptyPage[domain.Commit]("empty")}
	}

	t.Run("gitlab user scans are capped", func(t *testing.T) {
		conn := &mockConnector{
			platform:    domain.PlatformGitLab,
			profile:     &domain.Profile{Login: "dev", Name: "Dev"},
			repoPages:   []domain.Page[domain.RepositoryRef]{repoPage(refs...)},
			commitPages: pages,
		}
		scanner := newTestScanner(conn, memory.NewCheckpointStore())

		state, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitLab, "dev"), domain.ScanOptions{})

		require.NoError(t, err)
		assert.Len(t, state.Repositories, DefaultSampleCap)
	})

	t.Run("github user scans are unbounded", func(t *testing.T) {
		conn := &mockConnector{
			platform:    domain.PlatformGitHub,
			profile:     &domain.Profile{Login: "dev"},
			repoPages:   []domain.Page[domain.RepositoryRef]{repoPage(refs...)},
			commitPages: pages,
		}
		scanner := newTestScanner(conn, memory.NewCheckpointStore())

		state, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "dev"), domain.ScanOptions{})

		require.NoError(t, err)
		assert.Len(t, state.Repositories, 15)
	})

	t.Run("organization scans honor a custom cap", func(t *testing.T) {
		conn := &mockConnector{
			platform:    domain.PlatformGitHub,
			profile:     &domain.Profile{Login: "acme"},
			repoPages:   []domain.Page[domain.RepositoryRef]{repoPage(refs...)},
			commitPages: pages,
		}
		scanner := newTestScanner(conn, memory.NewCheckpointStore())
		target := domain.Target{Platform: domain.PlatformGitHub, Kind: domain.TargetOrganization, Identifier: "acme"}

		state, err := scanner.Scan(context.Background(), target, domain.ScanOptions{SampleCap: 3})

		require.NoError(t, err)
		assert.Len(t, state.Repositories, 3)
	})
}

func TestScanner_GitHubAttribution(t *testing.T) {
	t.Run("user scans drop commits from other logins", func(t *testing.T) {
		conn := &mockConnector{
			platform:  domain.PlatformGitHub,
			profile:   &domain.Profile{Login: "octocat"},
			repoPages: []domain.Page[domain.RepositoryRef]{repoPage(domain.RepositoryRef{Name: "r1"})},
			commitPages: map[string][]domain.Page[domain.Commit]{
				"r1": {domain.ItemsPage([]domain.Commit{
					commit("s1", "own@x.com", "Octo", "OctoCat"), // case-insensitive match
					commit("s2", "other@x.com", "Someone", "someone-else"),
					commit("s3", "anon@x.com", "Anon", ""), // no login attached
				})},
			},
		}
		scanner := newTestScanner(conn, memory.NewCheckpointStore())

		state, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "octocat"), domain.ScanOptions{})

		require.NoError(t, err)
		assert.Equal(t, []string{"own@x.com"}, state.LeakedEmails)
	})

	t.Run("organization scans attribute every identity", func(t *testing.T) {
		conn := &mockConnector{
			platform:  domain.PlatformGitHub,
			profile:   &domain.Profile{Login: "acme"},
			repoPages: []domain.Page[domain.RepositoryRef]{repoPage(domain.RepositoryRef{Name: "r1"})},
			commitPages: map[string][]domain.Page[domain.Commit]{
				"r1": {domain.ItemsPage([]domain.Commit{
					commit("s1", "a@x.com", "A", "member-one"),
					commit("s2", "b@x.com", "B", "member-two"),
				})},
			},
		}
		scanner := newTestScanner(conn, memory.NewCheckpointStore())
		target := domain.Target{Platform: domain.PlatformGitHub, Kind: domain.TargetOrganization, Identifier: "acme"}

		state, err := scanner.Scan(context.Background(), target, domain.ScanOptions{})

		require.NoError(t, err)
		assert.Equal(t, []string{"a@x.com", "b@x.com"}, state.LeakedEmails)
	})
}

func TestScanner_GitLabAttribution(t *testing.T) {
	conn := &mockConnector{
		platform:  domain.PlatformGitLab,
		profile:   &domain.Profile{Login: "dev", Name: "Dev Eloper"},
		repoPages: []domain.Page[domain.RepositoryRef]{repoPage(domain.RepositoryRef{Name: "p1", PlatformID: "42"})},
		commitPages: map[string][]domain.Page[domain.Commit]{
			"p1": {domain.ItemsPage([]domain.Commit{
				commit("s1", "dev@x.com", "Dev Eloper", ""),
				commit("s2", "drive-by@x.com", "Someone Else", ""),
			})},
		},
	}
	scanner := newTestScanner(conn, memory.NewCheckpointStore())

	state, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitLab, "dev"), domain.ScanOptions{})

	require.NoError(t, err)
	// Only the identity matching the profile name counts as leaked.
	assert.Equal(t, []string{"dev@x.com"}, state.LeakedEmails)
	require.Len(t, state.EmailDetails, 1)
	assert.Equal(t, "dev@x.com", state.EmailDetails[0].Email)
}

func TestScanner_Cancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := memory.NewCheckpointStore()
	conn := &mockConnector{
		platform: domain.PlatformGitHub,
		profile:  &domain.Profile{Login: "octocat"},
		repoPages: []domain.Page[domain.RepositoryRef]{repoPage(
			domain.RepositoryRef{Name: "r1"},
			domain.RepositoryRef{Name: "r2"},
		)},
		commitPages: map[string][]domain.Page[domain.Commit]{
			"r1": {domain.ItemsPage([]domain.Commit{commit("s1", "a@x.com", "A", "octocat")})},
			"r2": {domain.ItemsPage([]domain.Commit{commit("s2", "b@x.com", "B", "octocat")})},
		},
	}
	scanner := newTestScanner(conn, store, WithProgress(func(p driving.ScanProgress) {
		if p.Index == 1 {
			cancel()
		}
	}))

	state, err := scanner.Scan(ctx, userTarget(domain.PlatformGitHub, "octocat"), domain.ScanOptions{})

	assert.ErrorIs(t, err, domain.ErrScanInterrupted)
	require.NotNil(t, state)
	assert.True(t, state.Interrupted)
	// The flush happened: the persisted snapshot carries r1's email.
	persisted, perr := store.Load(context.Background(), state.Target.Key())
	require.NoError(t, perr)
	assert.Equal(t, []string{"a@x.com"}, persisted.LeakedEmails)
}

func TestScanner_ProgressEvents(t *testing.T) {
	var events []driving.ScanProgress
	conn := &mockConnector{
		platform: domain.PlatformGitHub,
		profile:  &domain.Profile{Login: "octocat"},
		repoPages: []domain.Page[domain.RepositoryRef]{repoPage(
			domain.RepositoryRef{Name: "r1"},
			domain.RepositoryRef{Name: "r2"},
		)},
		commitPages: map[string][]domain.Page[domain.Commit]{
			"r1": {domain.ItemsPage([]domain.Commit{commit("s1", "a@x.com", "A", "octocat")})},
			"r2": {domain.EmptyPage[domain.Commit]("empty")},
		},
	}
	scanner := newTestScanner(conn, memory.NewCheckpointStore(), WithProgress(func(p driving.ScanProgress) {
		events = append(events, p)
	}))

	_, err := scanner.Scan(context.Background(), userTarget(domain.PlatformGitHub, "octocat"), domain.ScanOptions{})

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, driving.ScanProgress{Repository: "r1", Index: 1, Total: 2, NewEmails: 1, TotalEmails: 1}, events[0])
	assert.Equal(t, driving.ScanProgress{Repository: "r2", Index: 2, Total: 2, NewEmails: 0, TotalEmails: 1}, events[1])
}
