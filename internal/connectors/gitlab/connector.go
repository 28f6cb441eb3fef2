package gitlab

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
)

// Ensure Connector implements the driven port.
var _ driven.PlatformConnector = (*Connector)(nil)

// Connector is the GitLab implementation of the platform connector
// port. Usernames resolve to numeric ids once per scan; the id is
// cached because every user endpoint is id-addressed.
type Connector struct {
	client *Client

	mu      sync.Mutex
	userIDs map[string]int64
}

// New creates a GitLab connector over an existing client.
func New(client *Client) *Connector {
	return &Connector{
		client:  client,
		userIDs: make(map[string]int64),
	}
}

// Platform implements driven.PlatformConnector.
func (c *Connector) Platform() domain.Platform { return domain.PlatformGitLab }

type apiUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	AvatarURL    string `json:"avatar_url"`
	PublicEmail  string `json:"public_email"`
	Location     string `json:"location"`
	Bio          string `json:"bio"`
	Organization string `json:"organization"`
	JobTitle     string `json:"job_title"`
	WebURL       string `json:"web_url"`
	State        string `json:"state"`
	Twitter      string `json:"twitter"`
	CreatedAt    string `json:"created_at"`
}

type apiGroup struct {
	ID          int64  `json:"id"`
	Path        string `json:"path"`
	Name        string `json:"name"`
	Description string `json:"description"`
	AvatarURL   string `json:"avatar_url"`
	WebURL      string `json:"web_url"`
	CreatedAt   string `json:"created_at"`
}

type apiProject struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	ForkedFromProject *struct {
		ID int64 `json:"id"`
	} `json:"forked_from_project"`
}

type apiCommit struct {
	ID             string `json:"id"`
	AuthorName     string `json:"author_name"`
	AuthorEmail    string `json:"author_email"`
	CommitterName  string `json:"committer_name"`
	CommitterEmail string `json:"committer_email"`
}

type apiKey struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Key       string `json:"key"`
	CreatedAt string `json:"created_at"`
	ExpiresAt string `json:"expires_at"`
}

// lookupUserID resolves a username to the numeric id the user
// endpoints require. An empty search result means the user does not
// exist.
func (c *Connector) lookupUserID(ctx context.Context, username string) (int64, error) {
	c.mu.Lock()
	if id, ok := c.userIDs[username]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	resp, err := c.client.get(ctx, "/users", url.Values{"username": {username}})
	if err != nil {
		return 0, err
	}
	if err := checkStatus(resp, "find user"); err != nil {
		return 0, err
	}
	var users []apiUser
	if err := decode(resp, &users); err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, fmt.Errorf("gitlab: user %q: %w", username, domain.ErrNotFound)
	}

	c.mu.Lock()
	c.userIDs[username] = users[0].ID
	c.mu.Unlock()
	return users[0].ID, nil
}

// GetProfile implements driven.PlatformConnector. The status message
// is fetched best-effort on top of the profile.
func (c *Connector) GetProfile(ctx context.Context, target domain.Target) (*domain.Profile, error) {
	id, err := c.lookupUserID(ctx, target.Identifier)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.get(ctx, fmt.Sprintf("/users/%d", id), nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, "get user"); err != nil {
		return nil, err
	}
	var user apiUser
	if err := decode(resp, &user); err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		Login:        user.Username,
		Name:         user.Name,
		ID:           user.ID,
		AvatarURL:    user.AvatarURL,
		Email:        user.PublicEmail,
		Location:     user.Location,
		Bio:          user.Bio,
		Organization: user.Organization,
		JobTitle:     user.JobTitle,
		WebURL:       user.WebURL,
		State:        user.State,
		Twitter:      user.Twitter,
		CreatedAt:    user.CreatedAt,
	}

	if status, serr := c.getStatus(ctx, id); serr == nil {
		profile.Status = status
	}
	return profile, nil
}

func (c *Connector) getStatus(ctx context.Context, id int64) (string, error) {
	resp, err := c.client.get(ctx, fmt.Sprintf("/users/%d/status", id), nil)
	if err != nil {
		return "", err
	}
	if resp.Status != http.StatusOK {
		return "", fmt.Errorf("gitlab: get status: %s", resp.Message)
	}
	var status struct {
		Message string `json:"message"`
	}
	if err := decode(resp, &status); err != nil {
		return "", err
	}
	return status.Message, nil
}

// GetOrganization implements driven.PlatformConnector; on GitLab the
// organization target is a group.
func (c *Connector) GetOrganization(ctx context.Context, target domain.Target) (*domain.Profile, error) {
	resp, err := c.client.get(ctx, "/groups/"+url.PathEscape(target.Identifier), nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, "get group"); err != nil {
		return nil, err
	}
	var group apiGroup
	if err := decode(resp, &group); err != nil {
		return nil, err
	}
	return &domain.Profile{
		Login:       group.Path,
		Name:        group.Name,
		ID:          group.ID,
		AvatarURL:   group.AvatarURL,
		WebURL:      group.WebURL,
		Description: group.Description,
		CreatedAt:   group.CreatedAt,
	}, nil
}

// GetOrganizations implements driven.PlatformConnector. GitLab exposes
// no public listing of a user's groups, so user scans carry none.
func (c *Connector) GetOrganizations(_ context.Context, _ domain.Target) ([]string, error) {
	return nil, nil
}

// GetMembers implements driven.PlatformConnector.
func (c *Connector) GetMembers(ctx context.Context, target domain.Target) ([]domain.Member, error) {
	resp, err := c.client.get(ctx, "/groups/"+url.PathEscape(target.Identifier)+"/members", nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, "list members"); err != nil {
		return nil, err
	}
	var users []apiUser
	if err := decode(resp, &users); err != nil {
		return nil, err
	}
	members := make([]domain.Member, 0, len(users))
	for _, u := range users {
		members = append(members, domain.Member{
			Login:     u.Username,
			ID:        u.ID,
			AvatarURL: u.AvatarURL,
		})
	}
	return members, nil
}

// GetKeys implements driven.PlatformConnector.
func (c *Connector) GetKeys(ctx context.Context, target domain.Target) ([]domain.PublicKey, error) {
	id, err := c.lookupUserID(ctx, target.Identifier)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.get(ctx, fmt.Sprintf("/users/%d/keys", id), nil)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp, "list keys"); err != nil {
		return nil, err
	}
	var keys []apiKey
	if err := decode(resp, &keys); err != nil {
		return nil, err
	}
	out := make([]domain.PublicKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.PublicKey{
			ID:        k.ID,
			Title:     k.Title,
			Key:       k.Key,
			CreatedAt: k.CreatedAt,
			ExpiresAt: k.ExpiresAt,
		})
	}
	return out, nil
}

// ListRepositories implements driven.PlatformConnector. Projects are
// listed per user or per group; the numeric project id travels in the
// ref because the commits endpoint is id-addressed.
func (c *Connector) ListRepositories(target domain.Target) driven.PageFunc[domain.RepositoryRef] {
	return func(ctx context.Context, page int) domain.Page[domain.RepositoryRef] {
		var path string
		if target.Kind == domain.TargetOrganization {
			path = "/groups/" + url.PathEscape(target.Identifier) + "/projects"
		} else {
			id, err := c.lookupUserID(ctx, target.Identifier)
			if err != nil {
				return pageFromLookupError[domain.RepositoryRef](err)
			}
			path = fmt.Sprintf("/users/%d/projects", id)
		}

		resp, err := c.client.get(ctx, path, pageQuery(page))
		if err != nil {
			return domain.TransientPage[domain.RepositoryRef](err.Error())
		}
		if resp.Status != http.StatusOK {
			return classify[domain.RepositoryRef](resp)
		}
		var projects []apiProject
		if err := decode(resp, &projects); err != nil {
			return domain.TransientPage[domain.RepositoryRef](err.Error())
		}

		refs := make([]domain.RepositoryRef, 0, len(projects))
		for _, p := range projects {
			refs = append(refs, domain.RepositoryRef{
				Name:       p.Name,
				IsFork:     p.ForkedFromProject != nil,
				PlatformID: strconv.FormatInt(p.ID, 10),
			})
		}
		return domain.ItemsPage(refs)
	}
}

// ListCommits implements driven.PlatformConnector. GitLab commits
// carry no platform login, only the raw name/email pairs.
func (c *Connector) ListCommits(_ domain.Target, repo domain.RepositoryRef) driven.PageFunc[domain.Commit] {
	return func(ctx context.Context, page int) domain.Page[domain.Commit] {
		path := fmt.Sprintf("/projects/%s/repository/commits", repo.PlatformID)
		resp, err := c.client.get(ctx, path, pageQuery(page))
		if err != nil {
			return domain.TransientPage[domain.Commit](err.Error())
		}
		if resp.Status != http.StatusOK {
			return classify[domain.Commit](resp)
		}
		var commits []apiCommit
		if err := decode(resp, &commits); err != nil {
			return domain.TransientPage[domain.Commit](err.Error())
		}

		out := make([]domain.Commit, 0, len(commits))
		for _, commit := range commits {
			out = append(out, domain.Commit{
				SHA: commit.ID,
				Author: domain.CommitIdentity{
					Email:       commit.AuthorEmail,
					DisplayName: commit.AuthorName,
					Role:        domain.RoleAuthor,
				},
				Committer: domain.CommitIdentity{
					Email:       commit.CommitterEmail,
					DisplayName: commit.CommitterName,
					Role:        domain.RoleCommitter,
				},
			})
		}
		return domain.ItemsPage(out)
	}
}

func pageQuery(page int) url.Values {
	return url.Values{
		"per_page": {strconv.Itoa(pageSize)},
		"page":     {strconv.Itoa(page)},
	}
}

// pageFromLookupError converts a user-id resolution failure into a
// terminal page.
func pageFromLookupError[T any](err error) domain.Page[T] {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.NotFoundPage[T]()
	case errors.Is(err, domain.ErrRateLimited):
		return domain.RateLimitedPage[T]()
	default:
		return domain.TransientPage[T](err.Error())
	}
}
