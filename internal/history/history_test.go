package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/j-veylop/billing-report/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func sampleRun(startedAt time.Time) *models.RunRecord {
	return &models.RunRecord{
		StartedAt:  startedAt,
		Duration:   1500 * time.Millisecond,
		RangeStart: "2026-01-01",
		RangeEnd:   "2026-02-01",
		Selection:  "granular/workspace",
		Output:     "report.csv",
		OrgCount:   2,
		Failures:   1,
		Rows:       3,
		Traces:     15320,
		Orgs: []models.RunOrg{
			{OrgID: "7f6d1c3e-8c1b-4f4a-9a57-2b1f0f3c2d10", OrgName: "Acme", Rows: 3, Traces: 15320},
			{OrgName: "lsv2_sk_...0001", Error: "HTTP 500 from /api/v1/workspaces: boom"},
		},
	}
}

func TestNew_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	db, err := New(path)
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSchema_TablesExist(t *testing.T) {
	db := newTestDB(t)

	for _, table := range []string{"report_runs", "report_run_orgs"} {
		var name string
		err := db.QueryRowContext(context.Background(),
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %s", table)
	}
}

func TestRecordRun_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	started := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	run := sampleRun(started)
	require.NoError(t, db.RecordRun(ctx, run))
	assert.NotZero(t, run.ID)

	runs, err := db.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, "granular/workspace", got.Selection)
	assert.Equal(t, "report.csv", got.Output)
	assert.Equal(t, 2, got.OrgCount)
	assert.Equal(t, 1, got.Failures)
	assert.Equal(t, 3, got.Rows)
	assert.Equal(t, int64(15320), got.Traces)
	assert.Empty(t, got.Orgs)

	orgs, err := db.RunOrgs(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.Orgs, orgs)
	assert.True(t, orgs[0].Succeeded())
	assert.False(t, orgs[1].Succeeded())
}

func TestRecentRuns_NewestFirstWithLimit(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	for i := range 3 {
		require.NoError(t, db.RecordRun(ctx, sampleRun(base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := db.RecentRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, base.Add(2*time.Hour).Equal(runs[0].StartedAt))
	assert.True(t, base.Add(time.Hour).Equal(runs[1].StartedAt))
}

func TestRecordRun_DefaultsStartTime(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	run := sampleRun(time.Time{})
	run.Output = ""
	require.NoError(t, db.RecordRun(ctx, run))

	runs, err := db.RecentRuns(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.WithinDuration(t, time.Now(), runs[0].StartedAt, time.Minute)
	assert.Empty(t, runs[0].Output)
}

func TestPrune(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	var ids []int64
	for i := range 4 {
		run := sampleRun(base.Add(time.Duration(i) * time.Hour))
		require.NoError(t, db.RecordRun(ctx, run))
		ids = append(ids, run.ID)
	}

	removed, err := db.Prune(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	runs, err := db.RecentRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ids[3], runs[0].ID)

	// Per-org rows of pruned runs go with them.
	orgs, err := db.RunOrgs(ctx, ids[0])
	require.NoError(t, err)
	assert.Empty(t, orgs)
}

func TestClose(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	_, err = db.QueryContext(context.Background(), "SELECT 1")
	assert.Error(t, err)
}
