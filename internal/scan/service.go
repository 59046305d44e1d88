package scan

import (
	"context"
	"log/slog"

	"github.com/launchpass/scand/internal/ai"
	"github.com/launchpass/scand/internal/scoring"
	"github.com/launchpass/scand/internal/store"
	"github.com/launchpass/scand/internal/subscription"
	"github.com/launchpass/scand/models"
)

// Service is the scan entry point behind the cache gate: it resolves the
// repository cheaply, reuses an equivalent persisted run when one exists,
// and otherwise executes the full pipeline and persists a new run.
type Service struct {
	store       *store.Store
	scanner     *Scanner
	ai          ai.Provider
	aiFeatureOn bool
}

// NewService wires the scan pipeline to persistence and the optional
// semantic detector. aiFeatureOn is the deployment-wide feature flag; plan
// entitlements are resolved per request on top of it.
func NewService(st *store.Store, scanner *Scanner, provider ai.Provider, aiFeatureOn bool) *Service {
	return &Service{store: st, scanner: scanner, ai: provider, aiFeatureOn: aiFeatureOn}
}

// CreateOrReuseScan runs the cache-gated scan pipeline for repoURL on
// behalf of userID (empty for anonymous) and returns the id of the
// resulting run. A rescan of an unchanged commit resolves here without
// re-fetching content or re-running detectors.
func (s *Service) CreateOrReuseScan(ctx context.Context, repoURL, userID string) (string, error) {
	ref, branch, commit, err := s.scanner.Resolve(ctx, repoURL)
	if err != nil {
		return "", err
	}

	aiEnabled, err := s.resolveAIEnabled(ctx, userID)
	if err != nil {
		return "", err
	}

	cached, err := s.store.FindCachedRun(ctx, ref.CanonicalURL, commit, s.scanner.ConfigVersion(), aiEnabled)
	if err != nil {
		return "", err
	}
	if cached != nil {
		slog.Info("Reusing cached scan run",
			"repo", ref.CanonicalURL, "commit", commit, "run_id", cached.ID)
		return cached.ID, nil
	}

	result, err := s.scanner.ScanAtCommit(ctx, ref, branch, commit)
	if err != nil {
		return "", err
	}

	findings := result.Findings
	aiSummary := ""
	if aiEnabled {
		analysis, err := s.ai.AnalyzeFiles(ctx, result.FetchedFiles, result.Findings)
		if err != nil {
			// The semantic detector is an enhancement: its failures never
			// fail the scan, they just contribute nothing.
			slog.Warn("Semantic analysis failed, continuing with rule findings only",
				"repo", ref.CanonicalURL, "provider", s.ai.Name(), "error", err)
		} else {
			findings = MergeFindings(result.Findings, analysis.Findings)
			aiSummary = analysis.Summary
		}
	}

	critical, warning := scoring.Counts(findings)
	score, grade, verdict := scoring.Compute(critical, warning)

	project, err := s.store.FindOrCreateProject(ctx, ref.CanonicalURL)
	if err != nil {
		return "", err
	}

	// Two requests may race past the gate for the same commit. Re-check
	// just before persisting and let the first writer win.
	cached, err = s.store.FindCachedRun(ctx, ref.CanonicalURL, commit, s.scanner.ConfigVersion(), aiEnabled)
	if err != nil {
		return "", err
	}
	if cached != nil {
		return cached.ID, nil
	}

	run := &models.ScanRun{
		ProjectID:         project.ID,
		RepoURL:           result.CanonicalRepoURL,
		DefaultBranch:     result.DefaultBranch,
		CommitHash:        result.CommitHash,
		ScanConfigVersion: result.ScanConfigVersion,
		Score:             score,
		Grade:             grade,
		Verdict:           verdict,
		CriticalCount:     critical,
		WarningCount:      warning,
		AIEnabled:         aiEnabled,
		AISummary:         aiSummary,
	}
	if err := s.store.CreateRun(ctx, run, findings); err != nil {
		return "", err
	}

	slog.Info("Persisted scan run",
		"repo", ref.CanonicalURL,
		"commit", commit,
		"run_id", run.ID,
		"score", score,
		"grade", grade,
		"critical", critical,
		"warning", warning,
		"ai_enabled", aiEnabled,
	)
	return run.ID, nil
}

// resolveAIEnabled decides whether this request runs the semantic
// detector: the feature flag must be on and the requesting account's plan
// must entitle it. The decision is part of the cache key.
func (s *Service) resolveAIEnabled(ctx context.Context, userID string) (bool, error) {
	if !s.aiFeatureOn || userID == "" {
		return false, nil
	}
	plan, err := s.store.GetUserPlan(ctx, userID)
	if err != nil {
		return false, err
	}
	return subscription.ResolveEntitlements(plan, s.aiFeatureOn).AIScanAllowed, nil
}
