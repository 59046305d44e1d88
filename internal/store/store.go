// Package store persists projects, scan runs, findings, and subscriptions.
// It owns identity assignment: the scanner hands over a transient
// ScanResult and the store turns it into durable, append-only records.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/launchpass/scand/internal/database"
	"github.com/launchpass/scand/internal/subscription"
	"github.com/launchpass/scand/models"
)

// Store wraps a database.DB with typed queries.
type Store struct {
	db database.DB
}

// New creates a Store on top of db.
func New(db database.DB) *Store {
	return &Store{db: db}
}

// FindOrCreateProject returns the project grouping scans of repoURL,
// creating it on first sight. The oldest project wins if duplicates were
// ever raced in.
func (s *Store) FindOrCreateProject(ctx context.Context, repoURL string) (*models.Project, error) {
	var p models.Project
	err := s.db.Get(ctx, &p,
		`SELECT id, repo_url, created_at FROM projects WHERE repo_url = ? ORDER BY created_at ASC LIMIT 1`,
		repoURL)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("looking up project: %w", err)
	}

	p = models.Project{
		ID:        uuid.NewString(),
		RepoURL:   repoURL,
		CreatedAt: time.Now().UTC(),
	}
	err = s.db.Exec(ctx,
		`INSERT INTO projects (id, repo_url, created_at) VALUES (?, ?, ?)`,
		p.ID, p.RepoURL, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return &p, nil
}

// FindCachedRun looks up the newest persisted run matching the cache key
// exactly. Returns (nil, nil) on a cache miss.
func (s *Store) FindCachedRun(ctx context.Context, repoURL, commitHash, configVersion string, aiEnabled bool) (*models.ScanRun, error) {
	var run models.ScanRun
	err := s.db.Get(ctx, &run,
		`SELECT * FROM scan_runs
		 WHERE repo_url = ? AND commit_hash = ? AND scan_config_version = ? AND ai_enabled = ?
		 ORDER BY created_at DESC LIMIT 1`,
		repoURL, commitHash, configVersion, aiEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up cached run: %w", err)
	}
	return &run, nil
}

// CreateRun assigns the run a fresh identity and persists it together with
// its findings, preserving finding order via the position column. Run and
// findings commit atomically: a failed finding insert rolls the run back,
// so cache lookups never see a run with a partial finding set.
func (s *Store) CreateRun(ctx context.Context, run *models.ScanRun, findings []models.Finding) error {
	run.ID = uuid.NewString()
	run.CreatedAt = time.Now().UTC()

	return s.db.InTx(ctx, func(tx database.Execer) error {
		err := tx.Exec(ctx,
			`INSERT INTO scan_runs
			 (id, project_id, repo_url, default_branch, commit_hash, scan_config_version,
			  score, grade, verdict, critical_count, warning_count, ai_enabled, ai_summary, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.ID, run.ProjectID, run.RepoURL, run.DefaultBranch, run.CommitHash, run.ScanConfigVersion,
			run.Score, run.Grade, run.Verdict, run.CriticalCount, run.WarningCount, run.AIEnabled,
			run.AISummary, run.CreatedAt)
		if err != nil {
			return fmt.Errorf("inserting scan run: %w", err)
		}

		for i, f := range findings {
			err := tx.Exec(ctx,
				`INSERT INTO findings
				 (scan_run_id, position, severity, location, risk_summary, hint, confidence, source)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				run.ID, i, f.Severity, f.Location, f.RiskSummary, f.Hint, f.Confidence, f.Source)
			if err != nil {
				return fmt.Errorf("inserting finding %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetRun returns one scan run by id, or (nil, nil) when absent.
func (s *Store) GetRun(ctx context.Context, id string) (*models.ScanRun, error) {
	var run models.ScanRun
	err := s.db.Get(ctx, &run, `SELECT * FROM scan_runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up scan run: %w", err)
	}
	return &run, nil
}

// GetRunFindings returns a run's findings in their original first-seen order.
func (s *Store) GetRunFindings(ctx context.Context, runID string) ([]models.Finding, error) {
	var findings []models.Finding
	err := s.db.Select(ctx, &findings,
		`SELECT * FROM findings WHERE scan_run_id = ? ORDER BY position ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("listing findings: %w", err)
	}
	return findings, nil
}

// ListRunsByRepo returns the scan history for one canonical repo URL,
// newest first.
func (s *Store) ListRunsByRepo(ctx context.Context, repoURL string, limit int) ([]models.ScanRun, error) {
	if limit <= 0 {
		limit = 50
	}
	var runs []models.ScanRun
	err := s.db.Select(ctx, &runs,
		`SELECT * FROM scan_runs WHERE repo_url = ? ORDER BY created_at DESC LIMIT ?`,
		repoURL, limit)
	if err != nil {
		return nil, fmt.Errorf("listing scan runs: %w", err)
	}
	return runs, nil
}

// ListProjects returns all known projects, oldest first. Used by the
// rescan scheduler.
func (s *Store) ListProjects(ctx context.Context) ([]models.Project, error) {
	var projects []models.Project
	err := s.db.Select(ctx, &projects,
		`SELECT id, repo_url, created_at FROM projects ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// GetUserPlan returns the user's current plan; accounts without a
// subscription row are on the free plan.
func (s *Store) GetUserPlan(ctx context.Context, userID string) (subscription.Plan, error) {
	var sub subscription.Subscription
	err := s.db.Get(ctx, &sub, `SELECT * FROM subscriptions WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return subscription.PlanFree, nil
	}
	if err != nil {
		return "", fmt.Errorf("looking up subscription: %w", err)
	}
	return sub.Plan, nil
}

// UpsertSubscription sets the user's plan and restarts a one-month billing
// period, creating the row on first subscription.
func (s *Store) UpsertSubscription(ctx context.Context, userID string, plan subscription.Plan) error {
	now := time.Now().UTC()
	end := now.AddDate(0, 1, 0)

	var query string
	switch s.db.Driver() {
	case "mysql":
		query = `INSERT INTO subscriptions (user_id, plan, current_period_start, current_period_end)
		         VALUES (?, ?, ?, ?)
		         ON DUPLICATE KEY UPDATE plan = VALUES(plan),
		             current_period_start = VALUES(current_period_start),
		             current_period_end = VALUES(current_period_end)`
	default:
		query = `INSERT INTO subscriptions (user_id, plan, current_period_start, current_period_end)
		         VALUES (?, ?, ?, ?)
		         ON CONFLICT(user_id) DO UPDATE SET plan = excluded.plan,
		             current_period_start = excluded.current_period_start,
		             current_period_end = excluded.current_period_end`
	}
	if err := s.db.Exec(ctx, query, userID, plan, now, end); err != nil {
		return fmt.Errorf("upserting subscription: %w", err)
	}
	return nil
}
