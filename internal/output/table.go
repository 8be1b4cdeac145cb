// Package output renders finished reports: the fixed-width table, the CSV
// file, the daily chart and the desktop notification.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/j-veylop/billing-report/internal/report"
	"github.com/j-veylop/billing-report/internal/ui/styles"
)

const columnGap = "  "

// WriteTable writes t as a fixed-width table: upper-cased header, a dash
// rule as wide as the header, then one left-aligned line per row. When
// styled is set the header and rule are colored for a terminal.
func WriteTable(w io.Writer, t report.Table, styled bool) error {
	widths := make([]int, len(t.Columns))
	for i, col := range t.Columns {
		widths[i] = ansi.StringWidth(col)
	}
	records := t.Records()
	for _, rec := range records {
		for i := range widths {
			if i < len(rec) {
				widths[i] = max(widths[i], ansi.StringWidth(rec[i]))
			}
		}
	}

	header := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		header[i] = strings.ToUpper(col)
	}
	headerLine := joinPadded(header, widths)
	rule := strings.Repeat("-", ansi.StringWidth(headerLine))

	if styled {
		headerLine = styles.TableHeaderStyle.Render(headerLine)
		rule = styles.TableRuleStyle.Render(rule)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(headerLine + "\n")
	bw.WriteString(rule + "\n")
	for _, rec := range records {
		bw.WriteString(joinPadded(rec, widths) + "\n")
	}
	return bw.Flush()
}

func joinPadded(cells []string, widths []int) string {
	var b strings.Builder
	for i, width := range widths {
		if i > 0 {
			b.WriteString(columnGap)
		}
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		b.WriteString(cell)
		if pad := width - ansi.StringWidth(cell); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
	}
	return b.String()
}
