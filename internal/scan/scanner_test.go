package scan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/launchpass/scand/models"
)

// fakeHost implements HostClient in memory and counts raw fetches so
// budget tests can assert that no content was fetched.
type fakeHost struct {
	branch   string
	commit   string
	tree     []models.TreeEntry
	files    map[string]string
	rawCalls int
}

func (f *fakeHost) DefaultBranch(_ context.Context, _, _ string) (string, error) {
	return f.branch, nil
}

func (f *fakeHost) LatestCommit(_ context.Context, _, _, _ string) (string, error) {
	return f.commit, nil
}

func (f *fakeHost) TreeRecursive(_ context.Context, _, _, _ string) ([]models.TreeEntry, error) {
	return f.tree, nil
}

func (f *fakeHost) RawFile(_ context.Context, _, _, _, path string) (string, error) {
	f.rawCalls++
	content, ok := f.files[path]
	if !ok {
		return "", Errf(CodeUpstreamFetch, 502, "missing file "+path)
	}
	return content, nil
}

func newTestScanner(host *fakeHost) *Scanner {
	if host.branch == "" {
		host.branch = "main"
	}
	if host.commit == "" {
		host.commit = "abc123def456"
	}
	return New(host, DefaultRules())
}

func blob(path string, size int) models.TreeEntry {
	return models.TreeEntry{Path: path, Type: "blob", Size: size, SHA: "sha-" + path}
}

func TestScanFileCountBudgetFailsBeforeAnyFetch(t *testing.T) {
	host := &fakeHost{files: map[string]string{}}
	for i := 0; i < MaxFilesScanned+1; i++ {
		host.tree = append(host.tree, blob(fmt.Sprintf("src/file%03d.go", i), 100))
	}

	s := newTestScanner(host)
	_, err := s.ScanRepository(context.Background(), "https://github.com/o/r")
	if err == nil {
		t.Fatal("expected oversized-repository error")
	}
	var se *Error
	if !errors.As(err, &se) || se.Code != CodeOversizedRepo {
		t.Fatalf("expected %s, got %v", CodeOversizedRepo, err)
	}
	if host.rawCalls != 0 {
		t.Fatalf("expected zero content fetches, got %d", host.rawCalls)
	}
}

func TestScanByteBudgetFailsWholeScan(t *testing.T) {
	host := &fakeHost{files: map[string]string{}}
	chunk := strings.Repeat("a", 250_000)
	for i := 0; i < 9; i++ {
		path := fmt.Sprintf("big/file%d.txt", i)
		host.tree = append(host.tree, blob(path, len(chunk)))
		host.files[path] = chunk
	}

	s := newTestScanner(host)
	result, err := s.ScanRepository(context.Background(), "https://github.com/o/r")
	if err == nil {
		t.Fatal("expected oversized-repository error crossing the 2 MiB budget")
	}
	var se *Error
	if !errors.As(err, &se) || se.Code != CodeOversizedRepo {
		t.Fatalf("expected %s, got %v", CodeOversizedRepo, err)
	}
	if result != nil {
		t.Fatal("no partial result may escape a failed scan")
	}
}

func TestScanSkipsOversizedSingleFile(t *testing.T) {
	host := &fakeHost{
		tree: []models.TreeEntry{
			blob("huge.sql", MaxSingleFileBytes+1),
			blob("small.sql", 10),
		},
		files: map[string]string{"small.sql": "select 1;"},
	}

	s := newTestScanner(host)
	result, err := s.ScanRepository(context.Background(), "https://github.com/o/r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.rawCalls != 1 {
		t.Fatalf("oversized file must never be fetched; raw calls = %d", host.rawCalls)
	}
	if len(result.FetchedFiles) != 1 || result.FetchedFiles[0].Path != "small.sql" {
		t.Fatalf("unexpected fetched files: %+v", result.FetchedFiles)
	}
}

func TestScanEnvFileYieldsTwoDistinctCriticals(t *testing.T) {
	host := &fakeHost{
		tree:  []models.TreeEntry{blob(".env", 30)},
		files: map[string]string{".env": "OPENAI_KEY=sk-abcdefghijklmnop\n"},
	}

	s := newTestScanner(host)
	result, err := s.ScanRepository(context.Background(), "https://github.com/o/r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Findings) != 2 {
		t.Fatalf("expected 2 distinct findings, got %d: %+v", len(result.Findings), result.Findings)
	}
	for _, f := range result.Findings {
		if f.Severity != models.SeverityCritical {
			t.Fatalf("expected CRITICAL findings, got %s", f.Severity)
		}
		if f.Location != ".env" {
			t.Fatalf("expected location .env, got %s", f.Location)
		}
	}
	if result.Findings[0].RiskSummary == result.Findings[1].RiskSummary {
		t.Fatal("filename and secret findings must have distinct summaries")
	}
	// Tree-order guarantee: the filename finding fires before content is read.
	if result.Findings[0].Confidence != models.ConfidenceMedium {
		t.Fatalf("expected filename finding first (MEDIUM), got %+v", result.Findings[0])
	}
}

func TestScanTemplateEnvDowngradesToWarning(t *testing.T) {
	host := &fakeHost{
		tree:  []models.TreeEntry{blob("config/.env.example", 30)},
		files: map[string]string{"config/.env.example": "OPENAI_KEY=sk-abcdefghijklmnop\n"},
	}

	s := newTestScanner(host)
	result, err := s.ScanRepository(context.Background(), "https://github.com/o/r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Findings) != 1 {
		t.Fatalf("expected exactly 1 finding, got %d: %+v", len(result.Findings), result.Findings)
	}
	f := result.Findings[0]
	if f.Severity != models.SeverityWarning || f.Confidence != models.ConfidenceLow {
		t.Fatalf("template secret: expected WARNING/LOW, got %s/%s", f.Severity, f.Confidence)
	}
}

func TestScanFindingsFollowTreeOrder(t *testing.T) {
	host := &fakeHost{
		tree: []models.TreeEntry{
			blob("z/cors.conf", 40),
			blob("a/.env", 40),
		},
		files: map[string]string{
			"z/cors.conf": "Access-Control-Allow-Origin: *\n",
			"a/.env":      "PRIVATE_KEY=value\n",
		},
	}

	s := newTestScanner(host)
	result, err := s.ScanRepository(context.Background(), "https://github.com/o/r")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Findings) < 2 {
		t.Fatalf("expected findings from both files, got %+v", result.Findings)
	}
	if result.Findings[0].Location != "z/cors.conf" {
		t.Fatalf("findings must follow tree order; first was %s", result.Findings[0].Location)
	}
}

func TestScanResultCarriesIdentity(t *testing.T) {
	host := &fakeHost{
		branch: "trunk",
		commit: "feedface",
		tree:   []models.TreeEntry{blob("main.go", 20)},
		files:  map[string]string{"main.go": "package main\n"},
	}

	s := New(host, DefaultRules())
	result, err := s.ScanRepository(context.Background(), "https://github.com/octo/repo.git")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CanonicalRepoURL != "https://github.com/octo/repo" {
		t.Fatalf("unexpected canonical URL %s", result.CanonicalRepoURL)
	}
	if result.DefaultBranch != "trunk" || result.CommitHash != "feedface" {
		t.Fatalf("unexpected identity: %+v", result)
	}
	if result.ScanConfigVersion != ConfigVersion {
		t.Fatalf("expected config version %s, got %s", ConfigVersion, result.ScanConfigVersion)
	}
}
