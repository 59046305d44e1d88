// Package gateway exposes the scan service over a small REST control
// plane and hosts the optional periodic-rescan scheduler.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/launchpass/scand/internal/config"
	"github.com/launchpass/scand/internal/database"
	"github.com/launchpass/scand/internal/scan"
	"github.com/launchpass/scand/internal/store"
)

// Gateway is the long-running daemon combining the scan service, its
// store, and an optional cron scheduler behind a REST API.
type Gateway struct {
	cfg       *config.Config
	db        database.DB
	store     *store.Store
	svc       *scan.Service
	scheduler *scheduler
}

// New creates a Gateway. Call Start() to begin serving.
func New(cfg *config.Config, db database.DB, st *store.Store, svc *scan.Service) *Gateway {
	gw := &Gateway{cfg: cfg, db: db, store: st, svc: svc}
	if cfg.Scan.Schedule != "" {
		gw.scheduler = newScheduler(cfg.Scan.Schedule, st, svc)
	}
	return gw
}

// Start serves the REST API until ctx is cancelled, then shuts down
// gracefully.
func (gw *Gateway) Start(ctx context.Context) error {
	if gw.scheduler != nil {
		if err := gw.scheduler.start(); err != nil {
			return fmt.Errorf("starting rescan scheduler: %w", err)
		}
		defer gw.scheduler.stop()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", gw.cfg.Server.Port),
		Handler:           buildHandler(gw),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Gateway listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down gateway: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("gateway server: %w", err)
	}
}
