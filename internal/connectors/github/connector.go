package github

import (
	"context"
	"time"

	gh "github.com/google/go-github/v80/github"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
)

// Ensure Connector implements the driven port.
var _ driven.PlatformConnector = (*Connector)(nil)

// Connector is the GitHub implementation of the platform connector
// port.
type Connector struct {
	client *Client
}

// New creates a GitHub connector over an existing client.
func New(client *Client) *Connector {
	return &Connector{client: client}
}

// Platform implements driven.PlatformConnector.
func (c *Connector) Platform() domain.Platform { return domain.PlatformGitHub }

// GetProfile implements driven.PlatformConnector.
func (c *Connector) GetProfile(ctx context.Context, target domain.Target) (*domain.Profile, error) {
	if err := c.client.wait(ctx); err != nil {
		return nil, err
	}
	user, resp, err := c.client.gh.Users.Get(ctx, target.Identifier)
	c.client.observe(resp)
	if err != nil {
		return nil, wrapError(err, "get user")
	}
	return userProfile(user), nil
}

// GetOrganization implements driven.PlatformConnector.
func (c *Connector) GetOrganization(ctx context.Context, target domain.Target) (*domain.Profile, error) {
	if err := c.client.wait(ctx); err != nil {
		return nil, err
	}
	org, resp, err := c.client.gh.Organizations.Get(ctx, target.Identifier)
	c.client.observe(resp)
	if err != nil {
		return nil, wrapError(err, "get organization")
	}
	return orgProfile(org), nil
}

// GetOrganizations implements driven.PlatformConnector. Only public
// memberships are visible without an org-scoped token.
func (c *Connector) GetOrganizations(ctx context.Context, target domain.Target) ([]string, error) {
	if err := c.client.wait(ctx); err != nil {
		return nil, err
	}
	orgs, resp, err := c.client.gh.Organizations.List(ctx, target.Identifier, &gh.ListOptions{PerPage: pageSize})
	c.client.observe(resp)
	if err != nil {
		return nil, wrapError(err, "list organizations")
	}
	names := make([]string, 0, len(orgs))
	for _, o := range orgs {
		names = append(names, o.GetLogin())
	}
	return names, nil
}

// GetMembers implements driven.PlatformConnector.
func (c *Connector) GetMembers(ctx context.Context, target domain.Target) ([]domain.Member, error) {
	if err := c.client.wait(ctx); err != nil {
		return nil, err
	}
	users, resp, err := c.client.gh.Organizations.ListMembers(ctx, target.Identifier, &gh.ListMembersOptions{
		ListOptions: gh.ListOptions{PerPage: pageSize},
	})
	c.client.observe(resp)
	if err != nil {
		return nil, wrapError(err, "list members")
	}
	members := make([]domain.Member, 0, len(users))
	for _, u := range users {
		members = append(members, domain.Member{
			Login:     u.GetLogin(),
			ID:        u.GetID(),
			Type:      u.GetType(),
			AvatarURL: u.GetAvatarURL(),
		})
	}
	return members, nil
}

// GetKeys implements driven.PlatformConnector. The public endpoint
// exposes only id and key material.
func (c *Connector) GetKeys(ctx context.Context, target domain.Target) ([]domain.PublicKey, error) {
	if err := c.client.wait(ctx); err != nil {
		return nil, err
	}
	keys, resp, err := c.client.gh.Users.ListKeys(ctx, target.Identifier, &gh.ListOptions{PerPage: pageSize})
	c.client.observe(resp)
	if err != nil {
		return nil, wrapError(err, "list keys")
	}
	out := make([]domain.PublicKey, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.PublicKey{
			ID:    k.GetID(),
			Title: k.GetTitle(),
			Key:   k.GetKey(),
		})
	}
	return out, nil
}

// ListRepositories implements driven.PlatformConnector.
func (c *Connector) ListRepositories(target domain.Target) driven.PageFunc[domain.RepositoryRef] {
	return func(ctx context.Context, page int) domain.Page[domain.RepositoryRef] {
		if err := c.client.wait(ctx); err != nil {
			return domain.TransientPage[domain.RepositoryRef](err.Error())
		}

		var (
			repos []*gh.Repository
			resp  *gh.Response
			err   error
		)
		if target.Kind == domain.TargetOrganization {
			repos, resp, err = c.client.gh.Repositories.ListByOrg(ctx, target.Identifier, &gh.RepositoryListByOrgOptions{
				ListOptions: gh.ListOptions{Page: page, PerPage: pageSize},
			})
		} else {
			repos, resp, err = c.client.gh.Repositories.ListByUser(ctx, target.Identifier, &gh.RepositoryListByUserOptions{
				ListOptions: gh.ListOptions{Page: page, PerPage: pageSize},
			})
		}
		c.client.observe(resp)
		if err != nil {
			return classify[domain.RepositoryRef](err)
		}

		refs := make([]domain.RepositoryRef, 0, len(repos))
		for _, r := range repos {
			refs = append(refs, domain.RepositoryRef{
				Name:   r.GetName(),
				IsFork: r.GetFork(),
			})
		}
		return domain.ItemsPage(refs)
	}
}

// ListCommits implements driven.PlatformConnector. The owner is the
// scan target for both user and organization scans.
func (c *Connector) ListCommits(target domain.Target, repo domain.RepositoryRef) driven.PageFunc[domain.Commit] {
	return func(ctx context.Context, page int) domain.Page[domain.Commit] {
		if err := c.client.wait(ctx); err != nil {
			return domain.TransientPage[domain.Commit](err.Error())
		}

		commits, resp, err := c.client.gh.Repositories.ListCommits(ctx, target.Identifier, repo.Name, &gh.CommitsListOptions{
			ListOptions: gh.ListOptions{Page: page, PerPage: pageSize},
		})
		c.client.observe(resp)
		if err != nil {
			return classify[domain.Commit](err)
		}

		out := make([]domain.Commit, 0, len(commits))
		for _, rc := range commits {
			out = append(out, normalizeCommit(rc))
		}
		return domain.ItemsPage(out)
	}
}

// normalizeCommit extracts the author and committer identities. The
// login comes from the linked platform account, which GitHub only
// attaches when the commit email maps to a registered user.
func normalizeCommit(rc *gh.RepositoryCommit) domain.Commit {
	commit := rc.GetCommit()
	return domain.Commit{
		SHA: rc.GetSHA(),
		Author: domain.CommitIdentity{
			Email:       commit.GetAuthor().GetEmail(),
			DisplayName: commit.GetAuthor().GetName(),
			Role:        domain.RoleAuthor,
			Login:       rc.GetAuthor().GetLogin(),
		},
		Committer: domain.CommitIdentity{
			Email:       commit.GetCommitter().GetEmail(),
			DisplayName: commit.GetCommitter().GetName(),
			Role:        domain.RoleCommitter,
			Login:       rc.GetCommitter().GetLogin(),
		},
	}
}

func userProfile(u *gh.User) *domain.Profile {
	return &domain.Profile{
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		ID:        u.GetID(),
		AvatarURL: u.GetAvatarURL(),
		Email:     u.GetEmail(),
		Location:  u.GetLocation(),
		Bio:       u.GetBio(),
		Company:   u.GetCompany(),
		Blog:      u.GetBlog(),
		Twitter:   u.GetTwitterUsername(),
		Followers: u.GetFollowers(),
		Following: u.GetFollowing(),
		CreatedAt: formatTimestamp(u.GetCreatedAt()),
		UpdatedAt: formatTimestamp(u.GetUpdatedAt()),
	}
}

func orgProfile(o *gh.Organization) *domain.Profile {
	return &domain.Profile{
		Login:       o.GetLogin(),
		Name:        o.GetName(),
		ID:          o.GetID(),
		AvatarURL:   o.GetAvatarURL(),
		Email:       o.GetEmail(),
		Location:    o.GetLocation(),
		Company:     o.GetCompany(),
		Blog:        o.GetBlog(),
		Twitter:     o.GetTwitterUsername(),
		Followers:   o.GetFollowers(),
		Following:   o.GetFollowing(),
		Description: o.GetDescription(),
		CreatedAt:   formatTimestamp(o.GetCreatedAt()),
		UpdatedAt:   formatTimestamp(o.GetUpdatedAt()),
	}
}

func formatTimestamp(ts gh.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(time.RFC3339)
}
