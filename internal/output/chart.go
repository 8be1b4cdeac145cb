package output

import (
	"fmt"
	"time"

	"github.com/guptarohit/asciigraph"

	"github.com/j-veylop/billing-report/internal/models"
	"github.com/j-veylop/billing-report/internal/ui/styles"
)

// FillDays returns one total per day in [start, end), using zero for days
// with no recorded traces.
func FillDays(daily []models.DailyTotal, start, end time.Time) []models.DailyTotal {
	byDay := make(map[time.Time]int64, len(daily))
	for _, d := range daily {
		byDay[d.Day.UTC().Truncate(24*time.Hour)] += d.Traces
	}

	var filled []models.DailyTotal
	for day := start.UTC().Truncate(24 * time.Hour); day.Before(end); day = day.AddDate(0, 0, 1) {
		filled = append(filled, models.DailyTotal{Day: day, Traces: byDay[day]})
	}
	return filled
}

// RenderDailyChart plots daily trace totals as an ASCII line chart.
func RenderDailyChart(daily []models.DailyTotal, width, height int) string {
	if len(daily) == 0 {
		return styles.HelpStyle.Render("No daily data available")
	}

	// Ensure minimum dimensions
	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	data := make([]float64, len(daily))
	for i, d := range daily {
		data[i] = float64(d.Traces)
	}
	// asciigraph needs two points to draw a line.
	if len(data) == 1 {
		data = append(data, data[0])
	}

	caption := fmt.Sprintf("Daily traces %s .. %s",
		daily[0].Day.Format("2006-01-02"), daily[len(daily)-1].Day.Format("2006-01-02"))

	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}
