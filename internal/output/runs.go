package output

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/j-veylop/billing-report/internal/models"
	"github.com/j-veylop/billing-report/internal/ui/styles"
)

// RenderRuns renders run-log entries as a bordered table.
func RenderRuns(runs []models.RunRecord) string {
	if len(runs) == 0 {
		return styles.HelpStyle.Render("No runs recorded yet.")
	}

	t := newTable("ID", "STARTED", "RANGE", "SELECTION", "ORGS", "FAILED", "ROWS", "TRACES", "TOOK")
	for _, r := range runs {
		t.Row(
			strconv.FormatInt(r.ID, 10),
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.RangeStart+" .. "+r.RangeEnd,
			r.Selection,
			strconv.Itoa(r.OrgCount),
			strconv.Itoa(r.Failures),
			strconv.Itoa(r.Rows),
			strconv.FormatInt(r.Traces, 10),
			r.Duration.Round(time.Millisecond).String(),
		)
	}
	return t.String()
}

// RenderRunOrgs renders the per-org outcomes of one run.
func RenderRunOrgs(orgs []models.RunOrg) string {
	t := newTable("ORG", "ORG ID", "ROWS", "TRACES", "STATUS")
	for _, o := range orgs {
		status := "ok"
		if !o.Succeeded() {
			status = fmt.Sprintf("failed: %s", o.Error)
		}
		t.Row(o.OrgName, o.OrgID, strconv.Itoa(o.Rows), strconv.FormatInt(o.Traces, 10), status)
	}
	return t.String()
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(styles.TableRuleStyle).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return styles.TableHeaderStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...)
}
