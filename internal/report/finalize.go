package report

import "github.com/j-veylop/billing-report/internal/models"

// Table is the final, display-ready report.
type Table struct {
	Columns []string
	Rows    []models.Row
}

// Finalize applies the zero-count policy for sel and attaches its columns.
// Row order is preserved. Zero rows survive only in granular/workspace
// reports, where idle workspaces are back-filled on purpose.
func Finalize(rows []models.Row, sel models.Selection) Table {
	keepZero := sel.KeepsZeroRows()
	out := make([]models.Row, 0, len(rows))
	for _, r := range rows {
		if r.Count() == 0 && !keepZero {
			continue
		}
		out = append(out, r)
	}
	return Table{Columns: sel.Columns(), Rows: out}
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Records returns the rows as string cells in column order.
func (t Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r.Cells()
	}
	return out
}
