package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/j-veylop/billing-report/internal/config"
	"github.com/j-veylop/billing-report/internal/history"
	"github.com/j-veylop/billing-report/internal/logger"
	"github.com/j-veylop/billing-report/internal/output"
)

const defaultHistoryLimit = 20

func newHistoryCmd(cfg *config.Config, stdout io.Writer) *cobra.Command {
	var (
		dbPath string
		limit  int
		runID  int64
		keep   int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List previous report runs",
		Long: `List the runs recorded with --history-db, newest first.

Examples:
  billing-report history --history-db ~/.config/billing-report/history.db
  billing-report history --run 12
  billing-report history --prune 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dbPath == "" {
				return &config.ConfigError{Flag: "--history-db", Reason: "required (or set REPORT_HISTORY_DB)"}
			}
			if limit < 1 {
				return &config.ConfigError{Flag: "--limit", Reason: fmt.Sprintf("must be at least 1, got %d", limit)}
			}

			db, err := history.New(dbPath)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					logger.Error("failed to close run history", "error", err)
				}
			}()

			ctx := cmd.Context()
			switch {
			case keep > 0:
				removed, err := db.Prune(ctx, keep)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "Pruned %d run(s).\n", removed)
				return nil

			case runID > 0:
				orgs, err := db.RunOrgs(ctx, runID)
				if err != nil {
					return err
				}
				if len(orgs) == 0 {
					return fmt.Errorf("run %d not found", runID)
				}
				fmt.Fprintln(stdout, output.RenderRunOrgs(orgs))
				return nil
			}

			runs, err := db.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, output.RenderRuns(runs))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&dbPath, "history-db", cfg.HistoryPath, "Run history SQLite file (env REPORT_HISTORY_DB)")
	flags.IntVar(&limit, "limit", defaultHistoryLimit, "Number of runs to list")
	flags.Int64Var(&runID, "run", 0, "Show the per-org outcomes of this run")
	flags.IntVar(&keep, "prune", 0, "Delete all but the newest N runs")

	return cmd
}
