// Package scoring maps finding counts to a launch-readiness score.
package scoring

import "github.com/launchpass/scand/models"

// Compute derives the (score, grade, verdict) triple from finding counts.
// Critical findings cost 30 points each, warnings 10, floored at zero.
// Fully deterministic; no other inputs.
func Compute(criticalCount, warningCount int) (score int, grade models.Grade, verdict models.Verdict) {
	score = 100 - criticalCount*30 - warningCount*10
	if score < 0 {
		score = 0
	}

	grade = models.GradeReady
	verdict = models.VerdictLaunchReady
	switch {
	case criticalCount >= 1:
		grade = models.GradeBlock
		verdict = models.VerdictBlocked
	case warningCount >= 1:
		grade = models.GradeCaution
	}
	return score, grade, verdict
}

// Counts tallies critical and warning findings.
func Counts(findings []models.Finding) (critical, warning int) {
	for _, f := range findings {
		switch f.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityWarning:
			warning++
		}
	}
	return critical, warning
}
