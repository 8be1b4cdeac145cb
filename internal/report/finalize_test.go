package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/j-veylop/billing-report/internal/models"
)

func TestFinalize_ZeroRowPolicy(t *testing.T) {
	tests := []struct {
		name string
		sel  models.Selection
		rows []models.Row
		want int
	}{
		{
			name: "WorkspaceKeepsZero",
			sel:  models.Selection{Mode: models.ModeGranular, Level: models.LevelWorkspace},
			rows: []models.Row{
				models.WorkspaceRow{OrgName: "Acme", WorkspaceName: "production", Traces: 142300},
				models.WorkspaceRow{OrgName: "Acme", WorkspaceName: "staging"},
			},
			want: 2,
		},
		{
			name: "ProjectDropsZero",
			sel:  models.Selection{Mode: models.ModeGranular, Level: models.LevelProject},
			rows: []models.Row{
				models.ProjectRow{OrgName: "Acme", WorkspaceName: "production", ProjectName: "a", Traces: 1},
				models.ProjectRow{OrgName: "Acme", WorkspaceName: "production", ProjectName: "b"},
			},
			want: 1,
		},
		{
			name: "OverviewDropsZero",
			sel:  models.Selection{Mode: models.ModeOverview, Level: models.LevelWorkspace},
			rows: []models.Row{
				models.MetricRow{OrgName: "Acme", WorkspaceName: "production", MetricName: "base_traces"},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := Finalize(tt.rows, tt.sel)
			assert.Len(t, table.Rows, tt.want)
			assert.Equal(t, tt.sel.Columns(), table.Columns)
			assert.Equal(t, tt.want == 0, table.Empty())
		})
	}
}

func TestFinalize_ScenarioA(t *testing.T) {
	table := Finalize([]models.Row{
		models.WorkspaceRow{OrgName: "Acme", WorkspaceName: "production", Traces: 142300},
		models.WorkspaceRow{OrgName: "Acme", WorkspaceName: "staging", Traces: 0},
		models.WorkspaceRow{OrgName: "Acme", WorkspaceName: "dev", Traces: 8204},
	}, models.Selection{Mode: models.ModeGranular, Level: models.LevelWorkspace})

	assert.Equal(t, []string{"org", "workspace", "traces"}, table.Columns)
	assert.Equal(t, [][]string{
		{"Acme", "production", "142300"},
		{"Acme", "staging", "0"},
		{"Acme", "dev", "8204"},
	}, table.Records())
}

func TestFinalize_ScenarioC(t *testing.T) {
	sel := models.Selection{Mode: models.ModeOverview, Level: models.LevelProject}
	table := Finalize([]models.Row{
		models.MetricRow{OrgName: "Acme", WorkspaceName: "production", MetricName: "base_traces", Value: 98000},
		models.MetricRow{OrgName: "Acme", WorkspaceName: "production", MetricName: "extended_traces", Value: 44300},
	}, sel)

	assert.Equal(t, []string{"org", "workspace", "metric", "value"}, table.Columns)
	assert.Equal(t, [][]string{
		{"Acme", "production", "base_traces", "98000"},
		{"Acme", "production", "extended_traces", "44300"},
	}, table.Records())
}
