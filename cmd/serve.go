package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/launchpass/scand/internal/ai"
	"github.com/launchpass/scand/internal/config"
	"github.com/launchpass/scand/internal/database"
	"github.com/launchpass/scand/internal/gateway"
	"github.com/launchpass/scand/internal/repository"
	"github.com/launchpass/scand/internal/scan"
	"github.com/launchpass/scand/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scand REST control plane",
	Long: `Starts the scand gateway: a long-running daemon exposing the scan
service over a local HTTP API (default: http://127.0.0.1:6180).

Quick API reference:
  GET  /health                      liveness check
  POST /api/scan                    scan a repository (body: {"repo_url":"..."})
  GET  /api/scan/{id}               scan run with findings
  POST /api/scan/{id}/rescan        fresh scan of the same repository
  GET  /api/scans?repo_url=...      scan history for a repository
  PUT  /api/subscription/{userID}   set a user's plan (billing webhook)
  GET  /api/entitlements            capabilities of the requesting account

With scan.schedule configured (cron syntax, e.g. "@daily"), the gateway
also rescans every known project on that schedule.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "HTTP port (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	svc, st, err := buildScanService(cfg, db)
	if err != nil {
		return err
	}

	return gateway.New(cfg, db, st, svc).Start(ctx)
}

// buildScanService wires the scan pipeline from configuration: hosting
// client, rule set, semantic-detector provider, and store.
func buildScanService(cfg *config.Config, db database.DB) (*scan.Service, *store.Store, error) {
	host, err := repository.New(cfg.GitHub)
	if err != nil {
		return nil, nil, err
	}
	rules, err := scan.LoadRules(cfg.Scan.RulesFile)
	if err != nil {
		return nil, nil, err
	}
	st := store.New(db)
	svc := scan.NewService(st, scan.New(host, rules), ai.New(cfg.AI), cfg.Scan.AIEnabled)
	return svc, st, nil
}
