package ai

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/launchpass/scand/models"
)

func TestPriorityScoreOrdering(t *testing.T) {
	ordered := []string{
		"lib/auth/session.ts", // auth
		"app/api/users.ts",    // api
		"middleware.ts",       // middleware
		"next.config.js",      // config
		"lib/db/client.ts",    // db
		"utils/format.ts",     // generic source
		"assets/notes.txt",    // everything else
	}
	for i := 1; i < len(ordered); i++ {
		if priorityScore(ordered[i-1]) <= priorityScore(ordered[i]) {
			t.Fatalf("expected %s to outrank %s", ordered[i-1], ordered[i])
		}
	}
}

func TestSelectFilesHonorsFileCap(t *testing.T) {
	var files []models.FetchedFile
	for i := 0; i < maxFilesForAI+10; i++ {
		files = append(files, models.FetchedFile{
			Path:    "src/file.ts",
			Content: "const x = 1;\n",
		})
	}
	selected := selectFiles(files)
	if len(selected) != maxFilesForAI {
		t.Fatalf("selected %d files, want %d", len(selected), maxFilesForAI)
	}
}

func TestSelectFilesPrefersSecuritySensitivePaths(t *testing.T) {
	files := []models.FetchedFile{
		{Path: "utils/helpers.ts", Content: "a"},
		{Path: "lib/auth.ts", Content: "b"},
		{Path: "app/api/route.ts", Content: "c"},
	}
	selected := selectFiles(files)
	if len(selected) != 3 {
		t.Fatalf("selected %d files, want 3", len(selected))
	}
	if selected[0].Path != "lib/auth.ts" || selected[1].Path != "app/api/route.ts" {
		t.Fatalf("unexpected order: %s, %s, %s", selected[0].Path, selected[1].Path, selected[2].Path)
	}
}

func TestSelectFilesTruncatesLastFileIntoBudget(t *testing.T) {
	files := []models.FetchedFile{
		{Path: "lib/auth.ts", Content: strings.Repeat("a", maxContentChars-1_000)},
		{Path: "app/api/route.ts", Content: strings.Repeat("b", 5_000)},
	}
	selected := selectFiles(files)
	if len(selected) != 2 {
		t.Fatalf("selected %d files, want 2", len(selected))
	}
	if len(selected[1].Content) != 1_000 {
		t.Fatalf("second file should be truncated to 1000 chars, got %d", len(selected[1].Content))
	}
}

func TestSelectFilesDropsRemainderBelowMinimum(t *testing.T) {
	files := []models.FetchedFile{
		{Path: "lib/auth.ts", Content: strings.Repeat("a", maxContentChars-100)},
		{Path: "app/api/route.ts", Content: strings.Repeat("b", 5_000)},
	}
	selected := selectFiles(files)
	if len(selected) != 1 {
		t.Fatalf("a 100-char remainder is not worth sending; selected %d files", len(selected))
	}
}

func TestBuildUserPromptListsKnownFindings(t *testing.T) {
	files := []models.FetchedFile{
		{Path: ".env", Content: "KEY=value"},
		{Path: "src/index.ts", Content: "export {};"},
	}
	known := []models.Finding{{
		Severity:    models.SeverityCritical,
		Location:    ".env",
		RiskSummary: "Sensitive file naming pattern suggests potential credential exposure risk.",
	}}

	prompt := buildUserPrompt(files, known)
	if !strings.Contains(prompt, "do NOT duplicate") {
		t.Fatal("prompt must instruct against duplicating rule findings")
	}
	if !strings.Contains(prompt, "[CRITICAL] .env:") {
		t.Fatal("prompt must list known findings")
	}
	if !strings.Contains(prompt, "--- src/index.ts ---") {
		t.Fatal("prompt must delimit files by path")
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	// 100 three-byte runes; the 200-byte cap falls mid-rune.
	s := strings.Repeat("安", 100)
	got := truncate(s, maxRiskSummaryLen)
	if len(got) > maxRiskSummaryLen {
		t.Fatalf("len = %d, want <= %d", len(got), maxRiskSummaryLen)
	}
	if !utf8.ValidString(got) {
		t.Fatalf("truncate produced invalid UTF-8: %q", got)
	}
	if got != strings.Repeat("安", 66) {
		t.Fatalf("expected 66 whole runes, got %d bytes", len(got))
	}

	if truncate("short", maxRiskSummaryLen) != "short" {
		t.Fatal("strings under the cap must pass through unchanged")
	}
}

func TestConvertClampsAndTagsFindings(t *testing.T) {
	raw := rawAnalysis{
		Findings: []rawFinding{
			{
				Severity:    "CRITICAL",
				Location:    "lib/auth.ts",
				RiskSummary: strings.Repeat("r", maxRiskSummaryLen+50),
				Hint:        strings.Repeat("h", maxHintLen+50),
				Confidence:  "HIGH",
			},
			{
				Severity:    "catastrophic", // not in the enum
				Location:    "src/index.ts",
				RiskSummary: "short",
				Hint:        "short",
				Confidence:  "certain", // not in the enum
			},
		},
		Summary: "Two issues found.",
	}

	analysis := raw.convert()
	if len(analysis.Findings) != 2 {
		t.Fatalf("findings = %d, want 2", len(analysis.Findings))
	}

	first := analysis.Findings[0]
	if len(first.RiskSummary) != maxRiskSummaryLen || len(first.Hint) != maxHintLen {
		t.Fatalf("lengths not clamped: summary=%d hint=%d", len(first.RiskSummary), len(first.Hint))
	}
	if first.Severity != models.SeverityCritical || first.Confidence != models.ConfidenceHigh {
		t.Fatalf("valid enums must pass through: %+v", first)
	}
	if first.Source != models.SourceAI {
		t.Fatalf("source = %s, want %s", first.Source, models.SourceAI)
	}

	second := analysis.Findings[1]
	if second.Severity != models.SeverityWarning || second.Confidence != models.ConfidenceLow {
		t.Fatalf("unknown enums must fall back to WARNING/LOW: %+v", second)
	}
	if analysis.Summary != "Two issues found." {
		t.Fatalf("summary = %q", analysis.Summary)
	}
}
