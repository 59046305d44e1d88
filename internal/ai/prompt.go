package ai

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/launchpass/scand/models"
)

// Input caps for one analysis request. Files are admitted highest-priority
// first until either cap is hit.
const (
	maxFilesForAI   = 30
	maxContentChars = 60_000

	maxRiskSummaryLen = 200
	maxHintLen        = 300
)

const systemPrompt = `You are a senior application security engineer performing a code review.
Analyze the provided source code files for security vulnerabilities.

Focus on:
- Hardcoded credentials, API keys, tokens, passwords
- SQL injection, XSS, command injection
- Insecure cryptographic practices
- Path traversal, SSRF, open redirects
- Overly permissive CORS, access control misconfigurations
- Unsafe deserialization, prototype pollution
- Sensitive data exposure in logs or error messages

Rules:
- Only report issues you have HIGH or MEDIUM confidence in
- Do NOT report issues already covered by the provided rule-based findings
- Provide actionable, specific hints — not generic advice
- Keep riskSummary under 120 characters
- Keep hint under 200 characters
- If no new issues found, return empty findings array`

// priorityScore ranks a path by how security-relevant it tends to be.
// Auth and session code outranks request handlers, which outrank
// middleware, configuration, and data access; generic source trails.
func priorityScore(path string) int {
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "auth"), strings.Contains(lower, "login"), strings.Contains(lower, "session"):
		return 10
	case strings.Contains(lower, "api"), strings.Contains(lower, "route"), strings.Contains(lower, "handler"):
		return 9
	case strings.Contains(lower, "middleware"):
		return 8
	case strings.Contains(lower, "config"), strings.Contains(lower, "env"):
		return 7
	case strings.Contains(lower, "db"), strings.Contains(lower, "store"), strings.Contains(lower, "query"):
		return 6
	case strings.HasSuffix(lower, ".go"), strings.HasSuffix(lower, ".ts"), strings.HasSuffix(lower, ".js"), strings.HasSuffix(lower, ".py"):
		return 3
	default:
		return 1
	}
}

// selectFiles picks the analysis input: highest-priority files first, up to
// maxFilesForAI files and maxContentChars total characters. The last
// admitted file may be truncated to fill the remaining budget when the
// remainder is still worth sending.
func selectFiles(files []models.FetchedFile) []models.FetchedFile {
	prioritized := make([]models.FetchedFile, len(files))
	copy(prioritized, files)
	sort.SliceStable(prioritized, func(i, j int) bool {
		return priorityScore(prioritized[i].Path) > priorityScore(prioritized[j].Path)
	})

	selected := make([]models.FetchedFile, 0, maxFilesForAI)
	totalChars := 0
	for _, file := range prioritized {
		if len(selected) >= maxFilesForAI {
			break
		}
		if totalChars+len(file.Content) > maxContentChars {
			remaining := maxContentChars - totalChars
			if remaining > 500 {
				selected = append(selected, models.FetchedFile{
					Path:    file.Path,
					Content: file.Content[:remaining],
				})
			}
			break
		}
		selected = append(selected, file)
		totalChars += len(file.Content)
	}
	return selected
}

// buildUserPrompt assembles the review request: the already-known
// rule-based findings (to suppress duplicates) followed by the files.
func buildUserPrompt(files []models.FetchedFile, known []models.Finding) string {
	var b strings.Builder
	b.WriteString("Analyze these repository files for security issues.")

	if len(known) > 0 {
		b.WriteString("\n\nAlready detected by rule-based scanner (do NOT duplicate):\n")
		for _, f := range known {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", f.Severity, f.Location, f.RiskSummary)
		}
	}

	b.WriteString("\nFiles:\n")
	for i, f := range files {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "--- %s ---\n%s", f.Path, f.Content)
	}
	return b.String()
}

// rawFinding is the provider response shape, validated against the fixed
// schema (enumerated severity/confidence values only).
type rawFinding struct {
	Severity    string `json:"severity"`
	Location    string `json:"location"`
	RiskSummary string `json:"riskSummary"`
	Hint        string `json:"hint"`
	Confidence  string `json:"confidence"`
}

type rawAnalysis struct {
	Findings []rawFinding `json:"findings"`
	Summary  string       `json:"summary"`
}

// convert clamps summary/hint lengths regardless of what the service
// returned and tags every finding with source=AI.
func (raw rawAnalysis) convert() *Analysis {
	findings := make([]models.Finding, 0, len(raw.Findings))
	for _, f := range raw.Findings {
		severity := models.SeverityWarning
		if f.Severity == string(models.SeverityCritical) {
			severity = models.SeverityCritical
		}
		confidence := models.ConfidenceLow
		switch f.Confidence {
		case string(models.ConfidenceHigh):
			confidence = models.ConfidenceHigh
		case string(models.ConfidenceMedium):
			confidence = models.ConfidenceMedium
		}
		findings = append(findings, models.Finding{
			Severity:    severity,
			Location:    f.Location,
			RiskSummary: truncate(f.RiskSummary, maxRiskSummaryLen),
			Hint:        truncate(f.Hint, maxHintLen),
			Confidence:  confidence,
			Source:      models.SourceAI,
		})
	}
	return &Analysis{Findings: findings, Summary: raw.Summary}
}

// truncate caps s at max bytes, backing off to a rune boundary so a
// multi-byte character is never cut in half.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// findingSchema is the strict JSON schema providers request structured
// output against.
var findingSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"findings": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"severity":    map[string]any{"type": "string", "enum": []string{"CRITICAL", "WARNING"}},
					"location":    map[string]any{"type": "string"},
					"riskSummary": map[string]any{"type": "string"},
					"hint":        map[string]any{"type": "string"},
					"confidence":  map[string]any{"type": "string", "enum": []string{"HIGH", "MEDIUM", "LOW"}},
				},
				"required":             []string{"severity", "location", "riskSummary", "hint", "confidence"},
				"additionalProperties": false,
			},
		},
		"summary": map[string]any{"type": "string"},
	},
	"required":             []string{"findings", "summary"},
	"additionalProperties": false,
}
