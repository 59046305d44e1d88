package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/launchpass/scand/internal/scan"
	"github.com/launchpass/scand/internal/store"
)

// scheduler triggers periodic rescans of every known project. Unchanged
// commits resolve through the cache gate, so an idle repository costs two
// metadata calls per sweep.
type scheduler struct {
	spec  string
	store *store.Store
	svc   *scan.Service
	cron  *cron.Cron
}

func newScheduler(spec string, st *store.Store, svc *scan.Service) *scheduler {
	return &scheduler{spec: spec, store: st, svc: svc, cron: cron.New()}
}

func (s *scheduler) start() error {
	if _, err := s.cron.AddFunc(s.spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("Rescan scheduler started", "schedule", s.spec)
	return nil
}

func (s *scheduler) stop() {
	s.cron.Stop()
}

// sweep rescans all projects sequentially. A failing repository is logged
// and skipped; it does not abort the rest of the sweep.
func (s *scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		slog.Error("Rescan sweep failed to list projects", "error", err)
		return
	}

	slog.Info("Rescan sweep started", "projects", len(projects))
	for _, p := range projects {
		// Scheduled rescans run unauthenticated; AI entitlement is per
		// requesting user and does not apply here.
		id, err := s.svc.CreateOrReuseScan(ctx, p.RepoURL, "")
		if err != nil {
			slog.Warn("Scheduled rescan failed", "repo", p.RepoURL, "error", err)
			continue
		}
		slog.Debug("Scheduled rescan complete", "repo", p.RepoURL, "run_id", id)
	}
	slog.Info("Rescan sweep finished", "projects", len(projects))
}
