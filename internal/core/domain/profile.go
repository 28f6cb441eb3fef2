package domain

// Profile holds the public metadata of a scanned user, organization or
// group. Fields not exposed by a platform stay zero-valued and are
// omitted from reports.
type Profile struct {
	Login     string `json:"username"`
	Name      string `json:"name,omitempty"`
	ID        int64  `json:"id,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Email     string `json:"email,omitempty"`
	Location  string `json:"location,omitempty"`
	Bio       string `json:"bio,omitempty"`

	// GitHub user/org fields.
	Company   string `json:"company,omitempty"`
	Blog      string `json:"blog,omitempty"`
	Twitter   string `json:"twitter_username,omitempty"`
	Followers int    `json:"followers,omitempty"`
	Following int    `json:"following,omitempty"`

	// GitLab user fields.
	Organization string `json:"organization,omitempty"`
	JobTitle     string `json:"job_title,omitempty"`
	WebURL       string `json:"web_url,omitempty"`
	State        string `json:"state,omitempty"`
	Status       string `json:"status,omitempty"`

	// Organization/group fields.
	Description string `json:"description,omitempty"`

	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// DisplayName returns the profile name, falling back to the login.
func (p Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Login
}

// Member is one member of a scanned organization or group.
type Member struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	Type      string `json:"type,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// PublicKey is a public SSH key attached to a profile.
type PublicKey struct {
	ID        int64  `json:"id,omitempty"`
	Title     string `json:"title,omitempty"`
	Key       string `json:"key"`
	CreatedAt string `json:"created_at,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
}
