package scan

import (
	"fmt"

	"github.com/launchpass/scand/models"
)

// findingSet accumulates findings in first-seen order, silently dropping
// candidates whose (severity, location, riskSummary) key was already
// recorded. It is scoped to a single scan invocation.
type findingSet struct {
	findings []models.Finding
	seen     map[string]struct{}
}

func newFindingSet() *findingSet {
	return &findingSet{seen: make(map[string]struct{})}
}

func (fs *findingSet) add(f models.Finding) {
	key := f.DedupeKey()
	if _, dup := fs.seen[key]; dup {
		return
	}
	fs.seen[key] = struct{}{}
	fs.findings = append(fs.findings, f)
}

// detectSensitiveFilename flags a path whose name alone suggests committed
// credential material. Fires without reading content; template/example
// files are exempt.
func (r *Rules) detectSensitiveFilename(path string, fs *findingSet) {
	if !r.IsSensitivePath(path) || r.IsTemplateFile(path) {
		return
	}
	fs.add(models.Finding{
		Severity:    models.SeverityCritical,
		Location:    path,
		RiskSummary: "Sensitive file naming pattern suggests potential credential exposure risk.",
		Hint:        "Store sensitive assets in dedicated secret management systems outside source control.",
		Confidence:  models.ConfidenceMedium,
		Source:      models.SourceRule,
	})
}

// detectSecretTokens scans content for secret-shaped tokens. The summary
// carries only the pattern label, never the matched substring. Matches in
// recognised template files are downgraded to WARNING at LOW confidence.
func (r *Rules) detectSecretTokens(path, content string, fs *findingSet) {
	template := r.IsTemplateFile(path)
	for i, re := range r.secretPatterns {
		if !re.MatchString(content) {
			continue
		}
		label := r.secretLabels[i]
		f := models.Finding{
			Severity:    models.SeverityCritical,
			Location:    path,
			RiskSummary: fmt.Sprintf("Secret-like token pattern (%s) detected in repository content.", label),
			Hint:        "Keep secrets in dedicated secret stores and rotate potentially exposed credentials.",
			Confidence:  models.ConfidenceHigh,
			Source:      models.SourceRule,
		}
		if template {
			f.Severity = models.SeverityWarning
			f.RiskSummary = fmt.Sprintf("Secret-like token pattern (%s) found in template file — verify no real credentials are committed.", label)
			f.Confidence = models.ConfidenceLow
		}
		fs.add(f)
	}
}

// detectRiskyConfig flags overly permissive configuration (wildcard CORS,
// allow-all rules, public-read flags). Documentation files are skipped
// entirely to avoid false positives from explanatory prose.
func (r *Rules) detectRiskyConfig(path, content string, fs *findingSet) {
	if r.IsDocFile(path) {
		return
	}
	for _, re := range r.riskyConfig {
		if !re.MatchString(content) {
			continue
		}
		fs.add(models.Finding{
			Severity:    models.SeverityWarning,
			Location:    path,
			RiskSummary: "Risky configuration pattern may allow broader access than intended.",
			Hint:        "Apply least-privilege defaults and validate security-sensitive configuration scope.",
			Confidence:  models.ConfidenceMedium,
			Source:      models.SourceRule,
		})
	}
}
