package scan

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/launchpass/scand/internal/ai"
	"github.com/launchpass/scand/internal/config"
	"github.com/launchpass/scand/internal/database"
	"github.com/launchpass/scand/internal/store"
	"github.com/launchpass/scand/internal/subscription"
	"github.com/launchpass/scand/models"
)

// stubProvider returns a canned analysis so entitlement-gated runs can be
// exercised without a model endpoint.
type stubProvider struct {
	analysis *ai.Analysis
	err      error
	calls    int
}

func (p *stubProvider) Name() string                       { return "stub" }
func (p *stubProvider) IsAvailable(_ context.Context) bool { return true }

func (p *stubProvider) AnalyzeFiles(_ context.Context, _ []models.FetchedFile, _ []models.Finding) (*ai.Analysis, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.analysis, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.New(config.DatabaseConfig{
		Driver: "sqlite",
		Path:   filepath.Join(t.TempDir(), "scand.db"),
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return store.New(db)
}

func secretHost() *fakeHost {
	return &fakeHost{
		branch: "main",
		commit: "c0ffee00",
		tree:   []models.TreeEntry{blob(".env", 30)},
		files:  map[string]string{".env": "KEY=sk-abcdefghijklmnop\n"},
	}
}

func TestServiceReusesCachedRun(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	host := secretHost()
	svc := NewService(st, newTestScanner(host), &ai.NoopProvider{}, false)

	first, err := svc.CreateOrReuseScan(ctx, "https://github.com/o/r", "")
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}

	treeCallsBefore := host.rawCalls
	second, err := svc.CreateOrReuseScan(ctx, "https://github.com/o/r", "")
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if first != second {
		t.Fatalf("unchanged commit must reuse the run: %s vs %s", first, second)
	}
	if host.rawCalls != treeCallsBefore {
		t.Fatalf("cache hit must not fetch content; raw calls grew from %d to %d", treeCallsBefore, host.rawCalls)
	}
}

func TestServiceNewCommitCreatesNewRun(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	host := secretHost()
	svc := NewService(st, newTestScanner(host), &ai.NoopProvider{}, false)

	first, err := svc.CreateOrReuseScan(ctx, "https://github.com/o/r", "")
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}

	host.commit = "deadbeef"
	second, err := svc.CreateOrReuseScan(ctx, "https://github.com/o/r", "")
	if err != nil {
		t.Fatalf("second scan: %v", err)
	}
	if first == second {
		t.Fatal("a new commit must produce a new run")
	}
}

func TestServiceConfigVersionChangeMissesCache(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	host := secretHost()

	svc := NewService(st, newTestScanner(host), &ai.NoopProvider{}, false)
	first, err := svc.CreateOrReuseScan(ctx, "https://github.com/o/r", "")
	if err != nil {
		t.Fatalf("first scan: %v", err)
	}
	fetchesAfterFirst := host.rawCalls

	rs := DefaultRuleSet()
	rs.Version = "v2"
	rules, err := rs.Compile()
	if err != nil {
		t.Fatalf("compiling v2 rules: %v", err)
	}

	svc2 := NewService(st, New(host, rules), &ai.NoopProvider{}, false)
	second, err := svc2.CreateOrReuseScan(ctx, "https://github.com/o/r", "")
	if err != nil {
		t.Fatalf("v2 scan: %v", err)
	}

	if first == second {
		t.Fatal("a run produced under one rule-set version must never be reused under another")
	}
	if host.rawCalls <= fetchesAfterFirst {
		t.Fatal("a version change must re-execute the full pipeline, not hit the cache")
	}

	run, err := st.GetRun(ctx, second)
	if err != nil || run == nil {
		t.Fatalf("loading v2 run: run=%v err=%v", run, err)
	}
	if run.ScanConfigVersion != "v2" {
		t.Fatalf("scan_config_version = %q, want v2", run.ScanConfigVersion)
	}
}

func TestServiceAIEnabledIsPartOfCacheKey(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	if err := st.UpsertSubscription(ctx, "user-1", subscription.PlanPlus); err != nil {
		t.Fatalf("seeding subscription: %v", err)
	}

	host := secretHost()
	provider := &stubProvider{analysis: &ai.Analysis{
		Findings: []models.Finding{{
			Severity:    models.SeverityWarning,
			Location:    "src/auth.ts",
			RiskSummary: "Session tokens never expire.",
			Confidence:  models.ConfidenceMedium,
			Source:      models.SourceAI,
		}},
		Summary: "One session-handling weakness found.",
	}}
	svc := NewService(st, newTestScanner(host), provider, true)

	anon, err := svc.CreateOrReuseScan(ctx, "https://github.com/o/r", "")
	if err != nil {
		t.Fatalf("anonymous scan: %v", err)
	}
	entitled, err := svc.CreateOrReuseScan(ctx, "https://github.com/o/r", "user-1")
	if err != nil {
		t.Fatalf("entitled scan: %v", err)
	}
	if anon == entitled {
		t.Fatal("rule-only and semantic runs must not share a cache entry")
	}
	if provider.calls != 1 {
		t.Fatalf("provider calls = %d, want 1", provider.calls)
	}

	run, err := st.GetRun(ctx, entitled)
	if err != nil || run == nil {
		t.Fatalf("loading entitled run: run=%v err=%v", run, err)
	}
	if !run.AIEnabled || run.AISummary == "" {
		t.Fatalf("entitled run should carry the semantic summary: %+v", run)
	}

	findings, err := st.GetRunFindings(ctx, entitled)
	if err != nil {
		t.Fatalf("loading findings: %v", err)
	}
	var hasAI bool
	for _, f := range findings {
		if f.Source == models.SourceAI {
			hasAI = true
		}
	}
	if !hasAI {
		t.Fatalf("semantic finding missing from persisted set: %+v", findings)
	}
}

func TestServiceAIFailureDegradesToRuleFindings(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	if err := st.UpsertSubscription(ctx, "user-1", subscription.PlanPro); err != nil {
		t.Fatalf("seeding subscription: %v", err)
	}

	provider := &stubProvider{err: errors.New("model endpoint unreachable")}
	svc := NewService(st, newTestScanner(secretHost()), provider, true)

	id, err := svc.CreateOrReuseScan(ctx, "https://github.com/o/r", "user-1")
	if err != nil {
		t.Fatalf("scan must survive a semantic-detector failure: %v", err)
	}

	run, err := st.GetRun(ctx, id)
	if err != nil || run == nil {
		t.Fatalf("loading run: run=%v err=%v", run, err)
	}
	if !run.AIEnabled {
		t.Fatal("run was requested with semantic analysis enabled")
	}
	if run.AISummary != "" {
		t.Fatalf("failed analysis must contribute nothing, got summary %q", run.AISummary)
	}
	if run.CriticalCount == 0 {
		t.Fatal("rule findings should still be present")
	}
}

func TestServiceFreePlanNeverRunsSemanticDetector(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	provider := &stubProvider{analysis: &ai.Analysis{}}
	svc := NewService(st, newTestScanner(secretHost()), provider, true)

	// No subscription row: free plan.
	id, err := svc.CreateOrReuseScan(ctx, "https://github.com/o/r", "user-free")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if provider.calls != 0 {
		t.Fatalf("free-plan scan must not call the provider; calls = %d", provider.calls)
	}
	run, err := st.GetRun(ctx, id)
	if err != nil || run == nil {
		t.Fatalf("loading run: run=%v err=%v", run, err)
	}
	if run.AIEnabled {
		t.Fatal("free-plan run must persist as rule-only")
	}
}
