package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/launchpass/scand/internal/config"
	"github.com/launchpass/scand/internal/database"
)

var scanUser string

var scanCmd = &cobra.Command{
	Use:   "scan <repo-url>",
	Short: "Scan a public GitHub repository",
	Long: `Runs the cache-gated scan pipeline against a public GitHub repository
and prints the resulting score, grade, verdict, and findings.

A repeated scan of an unchanged commit reuses the stored result instead of
re-fetching repository content.`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().StringVar(&scanUser, "user", "", "act as this user id (enables plan-gated features)")
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	svc, st, err := buildScanService(cfg, db)
	if err != nil {
		return err
	}

	runID, err := svc.CreateOrReuseScan(ctx, args[0], scanUser)
	if err != nil {
		return err
	}

	run, err := st.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	findings, err := st.GetRunFindings(ctx, runID)
	if err != nil {
		return err
	}

	fmt.Printf("Repository:  %s\n", run.RepoURL)
	fmt.Printf("Branch:      %s @ %s\n", run.DefaultBranch, run.CommitHash)
	fmt.Printf("Score:       %d/100  grade=%s  verdict=%s\n", run.Score, run.Grade, run.Verdict)
	fmt.Printf("Findings:    %d critical, %d warning\n", run.CriticalCount, run.WarningCount)
	if run.AISummary != "" {
		fmt.Printf("AI summary:  %s\n", run.AISummary)
	}

	if len(findings) > 0 {
		fmt.Println()
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SEVERITY\tCONFIDENCE\tSOURCE\tLOCATION\tSUMMARY")
		for _, f := range findings {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				f.Severity, f.Confidence, f.Source, f.Location, f.RiskSummary)
		}
		tw.Flush()
	}
	return nil
}
