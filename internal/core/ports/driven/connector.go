package driven

import (
	"context"

	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
)

// PageFunc fetches one page of a paginated listing. Page numbers start
// at 1. Implementations apply the inter-request delay and route
// rate-limit headers through the tracker before returning, so callers
// never inspect raw responses.
type PageFunc[T any] func(ctx context.Context, page int) domain.Page[T]

// PlatformConnector translates the engine's abstract operations into
// platform-specific endpoints and normalizes each platform's error,
// empty and rate-limit signaling into the shared Page variants.
//
// Both the GitHub and GitLab connectors implement this interface; the
// orchestrator never branches on the platform.
type PlatformConnector interface {
	// Platform identifies the connector's platform.
	Platform() domain.Platform

	// GetProfile fetches the user profile for a user target.
	// Returns domain.ErrNotFound when the account does not exist.
	GetProfile(ctx context.Context, target domain.Target) (*domain.Profile, error)

	// GetOrganization fetches the organization (GitLab: group) profile
	// for an organization target.
	GetOrganization(ctx context.Context, target domain.Target) (*domain.Profile, error)

	// GetOrganizations lists the organizations a user belongs to.
	// Platforms without the concept return nil.
	GetOrganizations(ctx context.Context, target domain.Target) ([]string, error)

	// GetMembers lists organization or group members.
	GetMembers(ctx context.Context, target domain.Target) ([]domain.Member, error)

	// GetKeys lists the public SSH keys attached to a profile.
	GetKeys(ctx context.Context, target domain.Target) ([]domain.PublicKey, error)

	// ListRepositories returns a page source over the target's
	// repositories.
	ListRepositories(target domain.Target) PageFunc[domain.RepositoryRef]

	// ListCommits returns a page source over one repository's commits.
	ListCommits(target domain.Target, repo domain.RepositoryRef) PageFunc[domain.Commit]
}

// RateLimitObserver receives rate-limit state parsed from response
// headers. Connectors call Observe after every request; absent headers
// leave the previous snapshot untouched.
type RateLimitObserver interface {
	Observe(platform domain.Platform, snap *domain.RateLimitSnapshot)

	// Wait blocks until the next request may be issued, applying the
	// adaptive inter-request delay. At most one effective delay is
	// applied per request.
	Wait(ctx context.Context, platform domain.Platform) error
}
