package models

import "time"

// Grade buckets a score into a launch-readiness signal.
type Grade string

const (
	GradeReady   Grade = "READY"
	GradeCaution Grade = "CAUTION"
	GradeBlock   Grade = "BLOCK"
)

// Verdict is the binary launch-readiness outcome derived from the presence
// of critical findings.
type Verdict string

const (
	VerdictLaunchReady Verdict = "LAUNCH_READY"
	VerdictBlocked     Verdict = "BLOCKED"
)

// ScanResult is the orchestrator's complete output for one invocation.
// Transient: the store converts it into a durable ScanRun with a generated
// identity and a computed score/grade/verdict.
type ScanResult struct {
	CanonicalRepoURL  string        `json:"canonical_repo_url"`
	DefaultBranch     string        `json:"default_branch"`
	CommitHash        string        `json:"commit_hash"`
	ScanConfigVersion string        `json:"scan_config_version"`
	Findings          []Finding     `json:"findings"`
	FetchedFiles      []FetchedFile `json:"fetched_files"`
}

// Project groups scan runs of the same canonical repository URL.
type Project struct {
	ID        string    `json:"id"         db:"id"`
	RepoURL   string    `json:"repo_url"   db:"repo_url"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ScanRun is one persisted scan. Append-only: a rescan produces a new
// independent run, never an in-place mutation.
type ScanRun struct {
	ID                string    `json:"id"                  db:"id"`
	ProjectID         string    `json:"project_id"          db:"project_id"`
	RepoURL           string    `json:"repo_url"            db:"repo_url"`
	DefaultBranch     string    `json:"default_branch"      db:"default_branch"`
	CommitHash        string    `json:"commit_hash"         db:"commit_hash"`
	ScanConfigVersion string    `json:"scan_config_version" db:"scan_config_version"`
	Score             int       `json:"score"               db:"score"`
	Grade             Grade     `json:"grade"               db:"grade"`
	Verdict           Verdict   `json:"verdict"             db:"verdict"`
	CriticalCount     int       `json:"critical_count"      db:"critical_count"`
	WarningCount      int       `json:"warning_count"       db:"warning_count"`
	AIEnabled         bool      `json:"ai_enabled"          db:"ai_enabled"`
	AISummary         string    `json:"ai_summary"          db:"ai_summary"`
	CreatedAt         time.Time `json:"created_at"          db:"created_at"`
}
