package domain

import (
	"fmt"
	"strings"
)

// Platform identifies the code-hosting platform a scan runs against.
type Platform string

const (
	// PlatformGitHub scans github.com accounts.
	PlatformGitHub Platform = "github"

	// PlatformGitLab scans gitlab.com accounts.
	PlatformGitLab Platform = "gitlab"
)

// ParsePlatform parses a platform name from user input.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "github":
		return PlatformGitHub, nil
	case "gitlab":
		return PlatformGitLab, nil
	default:
		return "", fmt.Errorf("%w: unknown platform %q", ErrInvalidInput, s)
	}
}

// TargetKind distinguishes user accounts from organizations (GitLab: groups).
type TargetKind string

const (
	// TargetUser scans a single user account.
	TargetUser TargetKind = "user"

	// TargetOrganization scans a GitHub organization or GitLab group.
	TargetOrganization TargetKind = "organization"
)

// Target is the account being reconnoitered. Immutable for the life
// of a scan.
type Target struct {
	// Platform is the hosting platform.
	Platform Platform `json:"platform"`

	// Kind is user or organization/group.
	Kind TargetKind `json:"kind"`

	// Identifier is the username, organization login, or group path.
	Identifier string `json:"identifier"`
}

// Validate checks the target descriptor is usable.
func (t Target) Validate() error {
	if t.Platform != PlatformGitHub && t.Platform != PlatformGitLab {
		return fmt.Errorf("%w: platform %q", ErrInvalidInput, t.Platform)
	}
	if t.Kind != TargetUser && t.Kind != TargetOrganization {
		return fmt.Errorf("%w: target kind %q", ErrInvalidInput, t.Kind)
	}
	if strings.TrimSpace(t.Identifier) == "" {
		return fmt.Errorf("%w: empty target identifier", ErrInvalidInput)
	}
	return nil
}

// Key returns the checkpoint key for this target.
func (t Target) Key() ScanKey {
	return ScanKey{Platform: t.Platform, Target: t.Identifier}
}

// ScanKey identifies the checkpoint slot for a (target, platform) pair.
// One in-flight scan owns the slot exclusively.
type ScanKey struct {
	Platform Platform
	Target   string
}

// String renders the key as "platform/target".
func (k ScanKey) String() string {
	return string(k.Platform) + "/" + k.Target
}
