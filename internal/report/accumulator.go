package report

import (
	"cmp"
	"slices"
	"time"

	"github.com/j-veylop/billing-report/internal/models"
)

type entry struct {
	name  string
	count float64
}

type workspaceEntry struct {
	name string
	dims map[string]*entry
}

// accumulator sums usage records for one org. It is owned by a single fetch
// task and never shared.
type accumulator struct {
	sel        models.Selection
	order      []string
	workspaces map[string]*workspaceEntry
	listed     map[string]bool
	days       map[time.Time]float64
}

// newAccumulator seeds workspace order and names from the org's listing.
func newAccumulator(sel models.Selection, listed []models.Workspace) *accumulator {
	a := &accumulator{
		sel:        sel.Normalize(),
		workspaces: make(map[string]*workspaceEntry, len(listed)),
		listed:     make(map[string]bool, len(listed)),
		days:       make(map[time.Time]float64),
	}
	for _, ws := range listed {
		name := ws.Name
		if name == "" {
			name = unknownWorkspace(ws.ID)
		}
		a.ensure(ws.ID, name)
		a.listed[ws.ID] = true
	}
	return a
}

func unknownWorkspace(id string) string { return "[unknown workspace: " + id + "]" }
func unknownProject(id string) string   { return "[unknown project: " + id + "]" }

// ensure registers a workspace in discovery order and returns it.
func (a *accumulator) ensure(key, name string) *workspaceEntry {
	if ws, ok := a.workspaces[key]; ok {
		return ws
	}
	ws := &workspaceEntry{name: name}
	a.workspaces[key] = ws
	a.order = append(a.order, key)
	return ws
}

func (a *accumulator) add(rec models.UsageRecord) {
	key := rec.WorkspaceID
	if key == "" {
		key = rec.WorkspaceName
	}
	name := rec.WorkspaceName
	if name == "" {
		name = unknownWorkspace(key)
	}
	ws := a.ensure(key, name)
	if ws.dims == nil {
		ws.dims = make(map[string]*entry)
	}

	var dimKey, dimName string
	switch {
	case a.sel.Mode == models.ModeOverview:
		dimKey, dimName = rec.DimensionName, rec.DimensionName
	case a.sel.Level == models.LevelProject:
		dimKey, dimName = rec.DimensionID, rec.DimensionName
		if dimKey == "" {
			dimKey = rec.DimensionName
		}
		if dimName == "" {
			dimName = unknownProject(rec.DimensionID)
		}
	}

	e, ok := ws.dims[dimKey]
	if !ok {
		e = &entry{name: dimName}
		ws.dims[dimKey] = e
	}
	e.count += rec.Count

	if a.sel.Mode == models.ModeGranular && !rec.StartTime.IsZero() {
		a.days[rec.StartTime.UTC().Truncate(24*time.Hour)] += rec.Count
	}
}

// backfill gives every listed workspace without usage an explicit zero entry.
func (a *accumulator) backfill() {
	for _, key := range a.order {
		ws := a.workspaces[key]
		if a.listed[key] && len(ws.dims) == 0 {
			ws.dims = map[string]*entry{"": {}}
		}
	}
}

// rows emits one row per accumulated entry: workspaces in discovery order,
// dimensions by name within a workspace.
func (a *accumulator) rows(org string) []models.Row {
	var out []models.Row
	for _, key := range a.order {
		ws := a.workspaces[key]
		if len(ws.dims) == 0 {
			continue
		}
		dimKeys := make([]string, 0, len(ws.dims))
		for k := range ws.dims {
			dimKeys = append(dimKeys, k)
		}
		slices.SortFunc(dimKeys, func(x, y string) int {
			return cmp.Or(cmp.Compare(ws.dims[x].name, ws.dims[y].name), cmp.Compare(x, y))
		})
		for _, k := range dimKeys {
			e := ws.dims[k]
			out = append(out, models.NewRow(a.sel, org, ws.name, e.name, int64(e.count)))
		}
	}
	return out
}

// daily returns per-day trace totals in chronological order.
func (a *accumulator) daily() []models.DailyTotal {
	return sortedDaily(a.days)
}

func sortedDaily(days map[time.Time]float64) []models.DailyTotal {
	if len(days) == 0 {
		return nil
	}
	out := make([]models.DailyTotal, 0, len(days))
	for day, v := range days {
		out = append(out, models.DailyTotal{Day: day, Traces: int64(v)})
	}
	slices.SortFunc(out, func(x, y models.DailyTotal) int { return x.Day.Compare(y.Day) })
	return out
}
