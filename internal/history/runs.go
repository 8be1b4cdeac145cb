package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/j-veylop/billing-report/internal/logger"
	"github.com/j-veylop/billing-report/internal/models"
)

const timeLayout = "2006-01-02 15:04:05"

// RecordRun stores run and its per-org outcomes in one transaction and sets
// run.ID.
func (db *DB) RecordRun(ctx context.Context, run *models.RunRecord) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	startedAt := run.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO report_runs (
			started_at, duration_ms, range_start, range_end, selection, output,
			org_count, failures, row_count, traces
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		startedAt.UTC().Format(timeLayout),
		run.Duration.Milliseconds(),
		run.RangeStart,
		run.RangeEnd,
		run.Selection,
		nullString(run.Output),
		run.OrgCount,
		run.Failures,
		run.Rows,
		run.Traces,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read run id: %w", err)
	}

	for i, org := range run.Orgs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO report_run_orgs (run_id, position, org_id, org_name, row_count, traces, error)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			id, i, nullString(org.OrgID), org.OrgName, org.Rows, org.Traces, nullString(org.Error),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run org: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	run.ID = id
	return nil
}

// RecentRuns returns up to limit runs, newest first, without per-org detail.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]models.RunRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, started_at, duration_ms, range_start, range_end, selection,
			   output, org_count, failures, row_count, traces
		FROM report_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("failed to close rows", "error", err)
		}
	}()

	var runs []models.RunRecord
	for rows.Next() {
		var run models.RunRecord
		var startedAt string
		var durationMs int64
		var output sql.NullString

		err := rows.Scan(
			&run.ID,
			&startedAt,
			&durationMs,
			&run.RangeStart,
			&run.RangeEnd,
			&run.Selection,
			&output,
			&run.OrgCount,
			&run.Failures,
			&run.Rows,
			&run.Traces,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt, err = time.ParseInLocation(timeLayout, startedAt, time.UTC)
		if err != nil {
			logger.Warn("unparseable run timestamp", "id", run.ID, "value", startedAt)
		}
		run.Duration = time.Duration(durationMs) * time.Millisecond
		run.Output = output.String
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// RunOrgs returns the per-org outcomes of a run in their original order.
func (db *DB) RunOrgs(ctx context.Context, runID int64) ([]models.RunOrg, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT org_id, org_name, row_count, traces, error
		FROM report_run_orgs
		WHERE run_id = ?
		ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query run orgs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var orgs []models.RunOrg
	for rows.Next() {
		var org models.RunOrg
		var orgID, errStr sql.NullString
		if err := rows.Scan(&orgID, &org.OrgName, &org.Rows, &org.Traces, &errStr); err != nil {
			return nil, fmt.Errorf("failed to scan run org: %w", err)
		}
		org.OrgID = orgID.String
		org.Error = errStr.String
		orgs = append(orgs, org)
	}

	return orgs, rows.Err()
}

// Prune deletes all but the newest keep runs and returns how many were removed.
func (db *DB) Prune(ctx context.Context, keep int) (int64, error) {
	result, err := db.ExecContext(ctx, `
		DELETE FROM report_runs
		WHERE id NOT IN (
			SELECT id FROM report_runs ORDER BY started_at DESC, id DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune runs: %w", err)
	}
	return result.RowsAffected()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
