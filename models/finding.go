package models

// Severity classifies how badly a finding affects launch readiness.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityWarning  Severity = "WARNING"
)

// Weight returns a numeric weight for sorting (higher = more severe).
func (s Severity) Weight() int {
	if s == SeverityCritical {
		return 2
	}
	return 1
}

func (s Severity) String() string { return string(s) }

// Confidence expresses how certain the detector is about a finding.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// FindingSource identifies which detector family produced a finding.
type FindingSource string

const (
	SourceRule FindingSource = "RULE"
	SourceAI   FindingSource = "AI"
)

// Finding is one detected issue instance. Immutable once created; owned by
// the scan run it belongs to. (Severity, Location, RiskSummary) is the
// dedupe key within a single scan result.
type Finding struct {
	ScanRunID   string        `json:"scan_run_id,omitempty" db:"scan_run_id"`
	Position    int           `json:"position"     db:"position"`
	Severity    Severity      `json:"severity"     db:"severity"`
	Location    string        `json:"location"     db:"location"`
	RiskSummary string        `json:"risk_summary" db:"risk_summary"`
	Hint        string        `json:"hint"         db:"hint"`
	Confidence  Confidence    `json:"confidence"   db:"confidence"`
	Source      FindingSource `json:"source"       db:"source"`
}

// DedupeKey returns the composite key used by the aggregator to drop
// duplicate findings across rule-based and AI detectors.
func (f Finding) DedupeKey() string {
	return string(f.Severity) + "|" + f.Location + "|" + f.RiskSummary
}
