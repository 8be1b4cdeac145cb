package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/j-veylop/billing-report/internal/config"
	"github.com/j-veylop/billing-report/internal/report"
	"github.com/j-veylop/billing-report/internal/version"
)

// reportFlags are the settings of the report command.
type reportFlags struct {
	historyDB string
	opts      config.Options
	chart     bool
	notify    bool
	watch     bool
	progress  bool
}

func newRootCmd(cfg *config.Config, stdout, stderr io.Writer) *cobra.Command {
	var f reportFlags

	cmd := &cobra.Command{
		Use:   "billing-report",
		Short: "Trace-count billing report across LangSmith orgs",
		Long: `billing-report fetches trace usage for one or more LangSmith organizations
and prints it as a table or writes it as CSV.

Examples:
  billing-report --base-url https://api.smith.langchain.com --api-key lsv2_sk_... \
      --start 2026-01-01 --end 2026-02-01
  billing-report --orgs orgs.json --start 2026-01-01 --end 2026-02-01 \
      --level project --output usage.csv
  billing-report --orgs orgs.json --start 2026-01-01 --end 2026-02-01 --mode overview`,
		Version:       version.Info(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Environment credentials only apply to single-org runs.
			if cmd.Flags().Changed("orgs") {
				if !cmd.Flags().Changed("api-key") {
					f.opts.APIKey = ""
				}
				if !cmd.Flags().Changed("org-id") {
					f.opts.OrgID = ""
				}
			}
			return runReport(cmd.Context(), f, stdout, stderr)
		},
	}
	cmd.SetVersionTemplate("{{.Version}}\n")
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.Flags()
	flags.StringVar(&f.opts.BaseURL, "base-url", cfg.BaseURL,
		"LangSmith base URL, e.g. https://api.smith.langchain.com or a self-hosted URL (env LANGSMITH_ENDPOINT)")
	flags.StringVar(&f.opts.Start, "start", "", "Start date YYYY-MM-DD (inclusive)")
	flags.StringVar(&f.opts.End, "end", "", "End date YYYY-MM-DD (exclusive, i.e. the day after the last day)")
	flags.StringVar(&f.opts.Mode, "mode", "granular",
		"granular: trace counts per workspace or project; overview: per-metric values per workspace")
	flags.StringVar(&f.opts.Level, "level", "workspace", "Granular report level: workspace or project (ignored in overview mode)")
	flags.StringVar(&f.opts.Output, "output", "", "Write the report as CSV to this path instead of printing a table")
	flags.BoolVar(&f.opts.Silent, "silent", false, "Suppress all output including progress; use with --output")
	flags.BoolVar(&f.opts.Debug, "debug", false, "Enable debug logging")
	flags.DurationVar(&f.opts.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "Per-request timeout (env REPORT_HTTP_TIMEOUT)")

	flags.StringVar(&f.opts.APIKey, "api-key", cfg.APIKey, "Service account API key for a single org (env LANGSMITH_API_KEY)")
	flags.StringVar(&f.opts.OrgID, "org-id", cfg.OrgID, "Organization UUID, needed when the key spans several orgs (env LANGSMITH_ORG_ID)")
	flags.StringVar(&f.opts.OrgName, "org-name", "", "Org name to show in the report")

	flags.StringVar(&f.opts.OrgsPath, "orgs", "", "JSON file listing {api_key, org_id, org_name} for multi-org reports")
	flags.IntVar(&f.opts.Workers, "workers", workersDefault(cfg), "Parallel workers for multi-org fetches (env REPORT_WORKERS)")

	flags.BoolVar(&f.chart, "chart", false, "Plot daily trace totals after the report (granular mode)")
	flags.BoolVar(&f.notify, "notify", false, "Show a desktop notification when the report is done")
	flags.BoolVar(&f.watch, "watch", false, "Re-run the report whenever the --orgs file changes")
	flags.BoolVar(&f.progress, "progress", false, "Show a live per-org progress view when stderr is a terminal")
	flags.StringVar(&f.historyDB, "history-db", cfg.HistoryPath, "Append a summary of each run to this SQLite file (env REPORT_HISTORY_DB)")

	cmd.AddCommand(newHistoryCmd(cfg, stdout))
	return cmd
}

func workersDefault(cfg *config.Config) int {
	if cfg.Workers > 0 {
		return cfg.Workers
	}
	return report.DefaultWorkers
}
