package scoring

import (
	"testing"

	"github.com/launchpass/scand/models"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name     string
		critical int
		warning  int
		score    int
		grade    models.Grade
		verdict  models.Verdict
	}{
		{"clean repo", 0, 0, 100, models.GradeReady, models.VerdictLaunchReady},
		{"one critical two warnings", 1, 2, 50, models.GradeBlock, models.VerdictBlocked},
		{"five warnings no criticals", 0, 5, 50, models.GradeCaution, models.VerdictLaunchReady},
		{"single warning", 0, 1, 90, models.GradeCaution, models.VerdictLaunchReady},
		{"single critical", 1, 0, 70, models.GradeBlock, models.VerdictBlocked},
		{"score floors at zero", 4, 3, 0, models.GradeBlock, models.VerdictBlocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, grade, verdict := Compute(tt.critical, tt.warning)
			if score != tt.score || grade != tt.grade || verdict != tt.verdict {
				t.Fatalf("Compute(%d, %d) = (%d, %s, %s), want (%d, %s, %s)",
					tt.critical, tt.warning, score, grade, verdict, tt.score, tt.grade, tt.verdict)
			}
		})
	}
}

func TestCounts(t *testing.T) {
	findings := []models.Finding{
		{Severity: models.SeverityCritical},
		{Severity: models.SeverityWarning},
		{Severity: models.SeverityWarning},
		{Severity: models.SeverityCritical},
	}
	critical, warning := Counts(findings)
	if critical != 2 || warning != 2 {
		t.Fatalf("Counts = (%d, %d), want (2, 2)", critical, warning)
	}
}
