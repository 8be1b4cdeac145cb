package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/x/term"

	"github.com/j-veylop/billing-report/internal/config"
	"github.com/j-veylop/billing-report/internal/credentials"
	"github.com/j-veylop/billing-report/internal/history"
	"github.com/j-veylop/billing-report/internal/logger"
	"github.com/j-veylop/billing-report/internal/models"
	"github.com/j-veylop/billing-report/internal/output"
	"github.com/j-veylop/billing-report/internal/report"
	"github.com/j-veylop/billing-report/internal/ui/progress"
	"github.com/j-veylop/billing-report/internal/upstream"
)

const (
	chartWidth  = 60
	chartHeight = 10
)

const noUsageMessage = "No usage data found for the specified period."

// reporter runs the report pipeline for one validated configuration.
type reporter struct {
	stdout  io.Writer
	stderr  io.Writer
	fetcher *report.Fetcher
	flags   reportFlags
	run     config.Run
}

func runReport(ctx context.Context, f reportFlags, stdout, stderr io.Writer) error {
	// Warnings are printed even with --silent.
	for _, w := range f.opts.Warnings() {
		fmt.Fprintf(stderr, "Warning: %s\n", w)
	}

	run, err := f.opts.Validate()
	if err != nil {
		return err
	}
	if f.watch && f.opts.OrgsPath == "" {
		return &config.ConfigError{Flag: "--watch", Reason: "requires --orgs"}
	}

	setupLogging(f.opts, stderr)

	creds, err := loadCredentials(f.opts)
	if err != nil {
		return err
	}

	timeout := f.opts.HTTPTimeout
	if timeout <= 0 {
		timeout = upstream.DefaultTimeout
	}
	client := upstream.New(f.opts.BaseURL, &http.Client{Timeout: timeout})

	r := &reporter{
		stdout: stdout,
		stderr: stderr,
		flags:  f,
		run:    run,
		fetcher: report.NewFetcher(client, report.Query{
			Selection: run.Selection,
			Start:     run.Start.Format(config.DateLayout),
			End:       run.End.Format(config.DateLayout),
		}),
	}

	err = r.report(ctx, creds)
	if !f.watch {
		return err
	}
	if err != nil {
		logger.Warn("report failed", "error", err)
	}
	return r.watch(ctx)
}

func setupLogging(opts config.Options, stderr io.Writer) {
	switch {
	case opts.Silent:
		logger.Discard()
	case opts.Debug:
		logger.Init(stderr, slog.LevelDebug)
	default:
		logger.Init(stderr, slog.LevelInfo)
	}
}

func loadCredentials(opts config.Options) ([]models.Credential, error) {
	if opts.OrgsPath != "" {
		return credentials.Load(opts.OrgsPath)
	}
	return []models.Credential{opts.Credential()}, nil
}

// report fetches creds, renders the table or CSV, then records and announces
// the run. It fails only when no credential succeeded or output could not be
// written.
func (r *reporter) report(ctx context.Context, creds []models.Credential) error {
	started := time.Now()

	res, err := r.fetch(ctx, creds)
	if err != nil {
		return err
	}

	for _, f := range res.Failures {
		logger.Warn(fmt.Sprintf("[%s] Failed: %v", f.Descriptor, f.Err), "org", f.Descriptor)
	}
	if res.Duplicates > 0 {
		logger.Info(fmt.Sprintf("Removed %d duplicate org result(s).", res.Duplicates))
	}

	table := report.Finalize(res.Rows, r.run.Selection)
	r.record(ctx, r.runRecord(started, res, table))
	r.announce(res, table)

	if res.Succeeded == 0 {
		return allFailed(res.Failures)
	}
	return r.render(res, table)
}

// fetch runs the aggregator, behind the progress view when requested and
// stderr is a terminal.
func (r *reporter) fetch(ctx context.Context, creds []models.Credential) (report.Result, error) {
	workers := r.flags.opts.Workers
	if len(creds) == 1 {
		workers = 1
	}

	if !r.flags.progress || r.flags.opts.Silent || !isTerminal(r.stderr) {
		agg := report.NewAggregator(r.fetcher, report.WithWorkers(workers))
		return agg.RunMany(ctx, creds), nil
	}

	labels := make([]string, len(creds))
	for i, c := range creds {
		labels[i] = c.Descriptor()
	}

	// Log lines would tear the view; failures are logged once it closes.
	prev := logger.Logger
	logger.Discard()
	defer func() { logger.Logger = prev }()

	var res report.Result
	err := progress.Run(ctx, r.stderr, labels, func(ctx context.Context, onEvent func(report.Event)) {
		agg := report.NewAggregator(r.fetcher, report.WithWorkers(workers), report.WithProgress(onEvent))
		res = agg.RunMany(ctx, creds)
	})
	switch {
	case errors.Is(err, progress.ErrInterrupted):
		return report.Result{}, err
	case err != nil:
		prev.Warn("progress view failed", "error", err)
	}
	return res, nil
}

func (r *reporter) render(res report.Result, table report.Table) error {
	silent := r.flags.opts.Silent

	if table.Empty() {
		if !silent {
			fmt.Fprintln(r.stderr, noUsageMessage)
		}
		return nil
	}

	if path := r.flags.opts.Output; path != "" {
		if err := output.SaveCSV(path, table); err != nil {
			return err
		}
		if !silent {
			fmt.Fprintf(r.stderr, "Saved to %s\n", path)
		}
	} else if !silent {
		if err := output.WriteTable(r.stdout, table, isTerminal(r.stdout)); err != nil {
			return err
		}
	}

	if r.flags.chart && !silent && r.run.Selection.Mode == models.ModeGranular {
		daily := output.FillDays(res.Daily, r.run.Start, r.run.End)
		fmt.Fprintln(r.stderr, output.RenderDailyChart(daily, chartWidth, chartHeight))
	}
	return nil
}

func (r *reporter) runRecord(started time.Time, res report.Result, table report.Table) *models.RunRecord {
	rec := &models.RunRecord{
		StartedAt:  started,
		Duration:   time.Since(started),
		RangeStart: r.run.Start.Format(config.DateLayout),
		RangeEnd:   r.run.End.Format(config.DateLayout),
		Selection:  r.run.Selection.String(),
		Output:     r.flags.opts.Output,
		OrgCount:   len(res.Outcomes),
		Failures:   len(res.Failures),
		Rows:       len(table.Rows),
		Traces:     totalCount(table.Rows),
	}
	for _, o := range res.Outcomes {
		if !o.OK() {
			rec.Orgs = append(rec.Orgs, models.RunOrg{
				OrgName: o.Failure.Descriptor,
				Error:   o.Failure.Err.Error(),
			})
			continue
		}
		rec.Orgs = append(rec.Orgs, models.RunOrg{
			OrgID:   o.Identity.OrgID,
			OrgName: o.Identity.OrgName,
			Rows:    len(o.Rows),
			Traces:  totalCount(o.Rows),
		})
	}
	return rec
}

// record appends rec to the run log. Failures are logged, never fatal.
func (r *reporter) record(ctx context.Context, rec *models.RunRecord) {
	if r.flags.historyDB == "" {
		return
	}
	db, err := history.New(r.flags.historyDB)
	if err != nil {
		logger.Warn("failed to open run history", "path", r.flags.historyDB, "error", err)
		return
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close run history", "error", err)
		}
	}()

	if err := db.RecordRun(context.WithoutCancel(ctx), rec); err != nil {
		logger.Warn("failed to record run", "error", err)
		return
	}
	logger.Debug("run recorded", "id", rec.ID, "path", db.Path())
}

func (r *reporter) announce(res report.Result, table report.Table) {
	if !r.flags.notify {
		return
	}
	summary := output.Summary{
		Orgs:     res.Succeeded,
		Rows:     len(table.Rows),
		Failures: len(res.Failures),
		Traces:   totalCount(table.Rows),
	}
	if err := output.Notify(summary); err != nil {
		logger.Warn("desktop notification failed", "error", err)
	}
}

// watch re-runs the report on every change to the credentials file until ctx
// is cancelled.
func (r *reporter) watch(ctx context.Context) error {
	w, err := credentials.Watch(r.flags.opts.OrgsPath)
	if err != nil {
		return err
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Error("failed to close watcher", "error", err)
		}
	}()

	logger.Info(fmt.Sprintf("Watching %s for changes (ctrl+c to stop)...", r.flags.opts.OrgsPath))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-w.Events():
			if ev.Err != nil {
				logger.Warn("ignoring credentials change", "error", ev.Err)
				continue
			}
			logger.Info(fmt.Sprintf("Credentials changed; re-running report for %d org(s)...", len(ev.Credentials)))
			if err := r.report(ctx, ev.Credentials); err != nil {
				logger.Warn("report failed", "error", err)
			}
		}
	}
}

func allFailed(failures []report.Failure) error {
	if len(failures) == 1 {
		return failures[0]
	}
	return fmt.Errorf("all %d credential(s) failed", len(failures))
}

func totalCount(rows []models.Row) int64 {
	var total int64
	for _, row := range rows {
		total += row.Count()
	}
	return total
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(f.Fd())
}
