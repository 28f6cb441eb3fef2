package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

// recordingTracker implements driven.RateLimitObserver without pacing.
type recordingTracker struct {
	waits     int
	snapshots []*domain.RateLimitSnapshot
}

func (t *recordingTracker) Observe(_ domain.Platform, snap *domain.RateLimitSnapshot) {
	t.snapshots = append(t.snapshots, snap)
}

func (t *recordingTracker) Wait(_ context.Context, _ domain.Platform) error {
	t.waits++
	return nil
}

func newTestConnector(t *testing.T, handler http.Handler) (*Connector, *recordingTracker) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tracker := &recordingTracker{}
	client := NewClient("secret-token", tracker, WithBaseURL(srv.URL))
	return New(client), tracker
}

func userTarget(name string) domain.Target {
	return domain.Target{Platform: domain.PlatformGitLab, Kind: domain.TargetUser, Identifier: name}
}

// handleUserLookup wires the username search endpoint onto a mux.
func handleUserLookup(mux *http.ServeMux, username string, id int64) {
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("username") != username {
			fmt.Fprint(w, `[]`)
			return
		}
		fmt.Fprintf(w, `[{"id": %d, "username": %q}]`, id, username)
	})
}

func TestConnector_GetProfile(t *testing.T) {
	t.Run("resolves the id then fetches profile and status", func(t *testing.T) {
		mux := http.NewServeMux()
		handleUserLookup(mux, "dev", 42)
		mux.HandleFunc("/users/42", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "secret-token", r.Header.Get("PRIVATE-TOKEN"))
			fmt.Fprint(w, `{
				"id": 42,
				"username": "dev",
				"name": "Dev Eloper",
				"public_email": "dev@example.com",
				"job_title": "Engineer",
				"state": "active",
				"web_url": "https://gitlab.com/dev"
			}`)
		})
		mux.HandleFunc("/users/42/status", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"message": "shipping"}`)
		})
		conn, _ := newTestConnector(t, mux)

		profile, err := conn.GetProfile(context.Background(), userTarget("dev"))

		require.NoError(t, err)
		assert.Equal(t, "dev", profile.Login)
		assert.Equal(t, "Dev Eloper", profile.Name)
		assert.Equal(t, int64(42), profile.ID)
		assert.Equal(t, "dev@example.com", profile.Email)
		assert.Equal(t, "Engineer", profile.JobTitle)
		assert.Equal(t, "shipping", profile.Status)
	})

	t.Run("empty search result maps to not found", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/users", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[]`)
		})
		conn, _ := newTestConnector(t, mux)

		_, err := conn.GetProfile(context.Background(), userTarget("ghost"))

		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("status failure does not fail the profile", func(t *testing.T) {
		mux := http.NewServeMux()
		handleUserLookup(mux, "dev", 42)
		mux.HandleFunc("/users/42", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"id": 42, "username": "dev"}`)
		})
		mux.HandleFunc("/users/42/status", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"message": "403 Forbidden"}`)
		})
		conn, _ := newTestConnector(t, mux)

		profile, err := conn.GetProfile(context.Background(), userTarget("dev"))

		require.NoError(t, err)
		assert.Empty(t, profile.Status)
	})
}

func TestConnector_UserIDCache(t *testing.T) {
	lookups := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, _ *http.Request) {
		lookups++
		fmt.Fprint(w, `[{"id": 42, "username": "dev"}]`)
	})
	mux.HandleFunc("/users/42/keys", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[]`)
	})
	conn, _ := newTestConnector(t, mux)

	_, err := conn.GetKeys(context.Background(), userTarget("dev"))
	require.NoError(t, err)
	_, err = conn.GetKeys(context.Background(), userTarget("dev"))
	require.NoError(t, err)

	assert.Equal(t, 1, lookups)
}

func TestConnector_ListRepositories(t *testing.T) {
	t.Run("user projects map to refs with project ids", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/users", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[{"id": 42, "username": "dev"}]`)
		})
		mux.HandleFunc("/users/42/projects", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "100", r.URL.Query().Get("per_page"))
			assert.Equal(t, "1", r.URL.Query().Get("page"))
			fmt.Fprint(w, `[
				{"id": 7, "name": "widget"},
				{"id": 9, "name": "forked-widget", "forked_from_project": {"id": 7}}
			]`)
		})
		conn, _ := newTestConnector(t, mux)

		page := conn.ListRepositories(userTarget("dev"))(context.Background(), 1)

		require.Equal(t, domain.PageItems, page.Kind)
		require.Len(t, page.Items, 2)
		assert.Equal(t, domain.RepositoryRef{Name: "widget", PlatformID: "7"}, page.Items[0])
		assert.Equal(t, domain.RepositoryRef{Name: "forked-widget", IsFork: true, PlatformID: "9"}, page.Items[1])
	})

	t.Run("group projects hit the group endpoint", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/groups/acme/projects", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[{"id": 11, "name": "api"}]`)
		})
		conn, _ := newTestConnector(t, mux)
		target := domain.Target{Platform: domain.PlatformGitLab, Kind: domain.TargetOrganization, Identifier: "acme"}

		page := conn.ListRepositories(target)(context.Background(), 1)

		require.Equal(t, domain.PageItems, page.Kind)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "api", page.Items[0].Name)
	})

	t.Run("missing user terminates the listing", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/users", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[]`)
		})
		conn, _ := newTestConnector(t, mux)

		page := conn.ListRepositories(userTarget("ghost"))(context.Background(), 1)

		assert.Equal(t, domain.PageNotFound, page.Kind)
	})
}

func TestConnector_ListCommits(t *testing.T) {
	repo := domain.RepositoryRef{Name: "widget", PlatformID: "7"}

	t.Run("maps author and committer pairs without logins", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/projects/7/repository/commits", func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `[{
				"id": "abc123",
				"author_name": "Dev Eloper",
				"author_email": "dev@example.com",
				"committer_name": "Dev Eloper",
				"committer_email": "dev@example.com"
			}]`)
		})
		conn, _ := newTestConnector(t, mux)

		page := conn.ListCommits(userTarget("dev"), repo)(context.Background(), 1)

		require.Equal(t, domain.PageItems, page.Kind)
		require.Len(t, page.Items, 1)
		c := page.Items[0]
		assert.Equal(t, "abc123", c.SHA)
		assert.Equal(t, "dev@example.com", c.Author.Email)
		assert.Equal(t, "Dev Eloper", c.Author.DisplayName)
		assert.Empty(t, c.Author.Login)
		assert.Equal(t, domain.RoleCommitter, c.Committer.Role)
	})

	t.Run("empty repository message maps to an empty page", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/projects/7/repository/commits", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message": "404 Project Not Found"}`)
		})
		conn, _ := newTestConnector(t, mux)

		page := conn.ListCommits(userTarget("dev"), repo)(context.Background(), 1)

		assert.Equal(t, domain.PageEmpty, page.Kind)
		assert.Equal(t, "404 Project Not Found", page.Reason)
	})

	t.Run("429 maps to rate limited", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/projects/7/repository/commits", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			fmt.Fprint(w, `{"message": "Too Many Requests"}`)
		})
		conn, _ := newTestConnector(t, mux)

		page := conn.ListCommits(userTarget("dev"), repo)(context.Background(), 1)

		assert.Equal(t, domain.PageRateLimited, page.Kind)
	})

	t.Run("server failure maps to transient", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/projects/7/repository/commits", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		conn, _ := newTestConnector(t, mux)

		page := conn.ListCommits(userTarget("dev"), repo)(context.Background(), 1)

		assert.Equal(t, domain.PageTransient, page.Kind)
	})
}

func TestConnector_GetOrganization(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/groups/acme", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"id": 5, "path": "acme", "name": "Acme Corp", "description": "tools"}`)
	})
	conn, _ := newTestConnector(t, mux)
	target := domain.Target{Platform: domain.PlatformGitLab, Kind: domain.TargetOrganization, Identifier: "acme"}

	profile, err := conn.GetOrganization(context.Background(), target)

	require.NoError(t, err)
	assert.Equal(t, "acme", profile.Login)
	assert.Equal(t, "Acme Corp", profile.Name)
	assert.Equal(t, "tools", profile.Description)
}

func TestClient_RateHeaders(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("RateLimit-Limit", "300")
		w.Header().Set("RateLimit-Remaining", "299")
		w.Header().Set("RateLimit-Reset", fmt.Sprintf("%d", time.Now().Add(time.Minute).Unix()))
		fmt.Fprint(w, `[{"id": 42, "username": "dev"}]`)
	})
	conn, tracker := newTestConnector(t, mux)

	_, err := conn.lookupUserID(context.Background(), "dev")

	require.NoError(t, err)
	assert.Equal(t, 1, tracker.waits)
	require.Len(t, tracker.snapshots, 1)
	require.NotNil(t, tracker.snapshots[0])
	assert.Equal(t, 299, tracker.snapshots[0].Remaining)
	assert.Equal(t, 300, tracker.snapshots[0].Limit)
}
