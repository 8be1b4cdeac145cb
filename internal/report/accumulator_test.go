package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/j-veylop/billing-report/internal/models"
)

func TestAccumulator_SumsAcrossBuckets(t *testing.T) {
	sel := models.Selection{Mode: models.ModeGranular, Level: models.LevelWorkspace}
	acc := newAccumulator(sel, []models.Workspace{{ID: "w1", Name: "one"}})

	acc.add(models.UsageRecord{WorkspaceID: "w1", WorkspaceName: "one", Count: 10})
	acc.add(models.UsageRecord{WorkspaceID: "w1", WorkspaceName: "one", Count: 5})
	acc.add(models.UsageRecord{WorkspaceID: "w9", Count: 1})

	assert.Equal(t, []models.Row{
		models.WorkspaceRow{OrgName: "o", WorkspaceName: "one", Traces: 15},
		models.WorkspaceRow{OrgName: "o", WorkspaceName: "[unknown workspace: w9]", Traces: 1},
	}, acc.rows("o"))
}

func TestAccumulator_UnknownProject(t *testing.T) {
	sel := models.Selection{Mode: models.ModeGranular, Level: models.LevelProject}
	acc := newAccumulator(sel, []models.Workspace{{ID: "w1", Name: "one"}})

	acc.add(models.UsageRecord{WorkspaceID: "w1", WorkspaceName: "one", DimensionID: "p7", Count: 2})

	rows := acc.rows("o")
	assert.Equal(t, []models.Row{
		models.ProjectRow{OrgName: "o", WorkspaceName: "one", ProjectName: "[unknown project: p7]", Traces: 2},
	}, rows)
}

func TestAccumulator_BackfillOnlyListed(t *testing.T) {
	sel := models.Selection{Mode: models.ModeGranular, Level: models.LevelWorkspace}
	acc := newAccumulator(sel, []models.Workspace{{ID: "w1", Name: "one"}, {ID: "w2", Name: "two"}})
	acc.add(models.UsageRecord{WorkspaceID: "w2", WorkspaceName: "two", Count: 4})
	acc.backfill()

	assert.Equal(t, []models.Row{
		models.WorkspaceRow{OrgName: "o", WorkspaceName: "one", Traces: 0},
		models.WorkspaceRow{OrgName: "o", WorkspaceName: "two", Traces: 4},
	}, acc.rows("o"))
}

func TestAccumulator_OverviewTruncatesFloats(t *testing.T) {
	sel := models.Selection{Mode: models.ModeOverview}
	acc := newAccumulator(sel, []models.Workspace{{ID: "w1", Name: "one"}})
	acc.add(models.UsageRecord{WorkspaceID: "w1", DimensionName: "base_traces", Count: 1.6})
	acc.add(models.UsageRecord{WorkspaceID: "w1", DimensionName: "base_traces", Count: 1.6})

	rows := acc.rows("o")
	assert.Equal(t, int64(3), rows[0].Count())
}
