package domain

// RepositoryRef identifies a repository discovered during enumeration.
// Read-only after creation.
type RepositoryRef struct {
	// Name is the repository (GitHub) or project (GitLab) name.
	Name string `json:"name"`

	// IsFork marks forked repositories so they can be excluded or
	// scanned last.
	IsFork bool `json:"fork"`

	// PlatformID is the numeric project id GitLab requires for commit
	// fetches. Empty on GitHub, where owner+name addresses the repo.
	PlatformID string `json:"platform_id,omitempty"`
}

// IdentityRole says which commit field an identity came from.
type IdentityRole string

const (
	// RoleAuthor is the commit author field.
	RoleAuthor IdentityRole = "author"

	// RoleCommitter is the commit committer field.
	RoleCommitter IdentityRole = "committer"
)

// CommitIdentity is one (email, display name) pair extracted from a
// commit. Author and committer of the same commit yield two independent
// identities; a single commit can leak two distinct addresses.
type CommitIdentity struct {
	Email       string
	DisplayName string
	Role        IdentityRole
	Repository  RepositoryRef

	// Login is the platform username attached to the commit, when the
	// API exposes one. Used for user-scan attribution on GitHub.
	Login string
}

// Commit is a normalized commit as delivered by a platform connector.
// Only the fields the identity extraction needs are kept.
type Commit struct {
	// SHA is the commit hash, the per-repository dedup key.
	SHA string

	// Author and Committer may be zero-valued when the platform omits
	// the field.
	Author    CommitIdentity
	Committer CommitIdentity
}

// EmailRecord aggregates everything observed for one email address
// across a scan. Keys are case-sensitive: two spellings of the same
// address stay separate records.
type EmailRecord struct {
	Email string `json:"email"`

	// Names holds every display name seen with this email, in first-seen
	// order.
	Names []string `json:"names"`

	// Sources holds the names of repositories the email appeared in, in
	// first-seen order. Sources only grows during a scan.
	Sources []string `json:"sources"`

	// PlatformUsername is the platform login associated with the email,
	// when a commit exposed one.
	PlatformUsername string `json:"platform_username,omitempty"`
}
