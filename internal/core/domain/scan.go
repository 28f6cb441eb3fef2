package domain

import (
	"time"
)

// ProgressCompleted is the progress label of a scan that walked every
// sampled repository. Any other label means partial results.
const ProgressCompleted = "completed"

// ReportFormat selects the final report artifacts written by Finalize.
type ReportFormat string

const (
	// FormatNone writes no final artifact; the running checkpoint is
	// the only persisted output.
	FormatNone ReportFormat = ""

	// FormatJSON writes a timestamped JSON report.
	FormatJSON ReportFormat = "json"

	// FormatHTML writes a timestamped HTML report.
	FormatHTML ReportFormat = "html"

	// FormatAll writes both.
	FormatAll ReportFormat = "all"
)

// ParseReportFormat parses a --output flag value.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch ReportFormat(s) {
	case FormatNone, FormatJSON, FormatHTML, FormatAll:
		return ReportFormat(s), nil
	default:
		return FormatNone, ErrInvalidInput
	}
}

// ScanOptions is the caller-supplied configuration for one scan.
// Never mutated after the scan starts.
type ScanOptions struct {
	// IncludeForks scans forked repositories as well. When false, forks
	// are dropped and non-fork repositories are listed first.
	IncludeForks bool

	// SampleCap bounds how many repositories an organization or group
	// scan walks. GitLab user scans are capped too; GitHub user scans
	// are not. Zero means the default of 10.
	SampleCap int

	// BaseDelay is the fixed inter-request delay used until rate-limit
	// headers have been observed. Zero means one second.
	BaseDelay time.Duration

	// Format selects the final report artifacts.
	Format ReportFormat
}

// ScanError records a per-repository failure that did not abort the
// scan.
type ScanError struct {
	Repository string    `json:"repository"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

// ScanState is the aggregate root of one scan: everything discovered so
// far plus progress bookkeeping. It is what checkpoints persist and
// reports render.
type ScanState struct {
	// ID is a unique id for this scan run.
	ID string `json:"id"`

	Target  Target   `json:"target"`
	Profile *Profile `json:"profile,omitempty"`

	// Organizations the scanned user belongs to (GitHub user scans).
	Organizations []string `json:"organizations,omitempty"`

	// Keys are public SSH keys found on the profile.
	Keys []PublicKey `json:"keys,omitempty"`

	// Members of the scanned organization or group.
	Members []Member `json:"members,omitempty"`

	// Repositories discovered during enumeration, scan order. A name
	// appears at most once.
	Repositories []RepositoryRef `json:"repositories"`

	// RepositoriesScanned counts repositories fully walked.
	RepositoriesScanned int `json:"repositories_scanned"`

	// LeakedEmails lists attributed emails in discovery order.
	LeakedEmails []string `json:"leaked_emails"`

	// EmailDetails carries the full record per email, discovery order.
	EmailDetails []EmailRecord `json:"email_details"`

	StartedAt   time.Time  `json:"scan_started_at"`
	CompletedAt *time.Time `json:"scan_completed_at,omitempty"`

	// LastUpdated is set on every successful checkpoint write. It never
	// decreases within a scan.
	LastUpdated time.Time `json:"last_updated"`

	// Interrupted is true when the scan halted on a rate limit or an
	// external cancel. Whatever was aggregated up to that point is
	// still present.
	Interrupted bool `json:"scan_interrupted,omitempty"`

	// Progress is "i/N repositories scanned" while running and
	// ProgressCompleted after Finalizing.
	Progress string `json:"scan_progress"`

	// LastError is the most recent per-repository failure, if any.
	LastError *ScanError `json:"last_error,omitempty"`
}

// Completed reports whether the scan walked every sampled repository.
func (s *ScanState) Completed() bool {
	return s.Progress == ProgressCompleted
}
