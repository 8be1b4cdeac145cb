package models

import "strconv"

// Row is one normalized report line. The set of implementations is closed:
// WorkspaceRow, ProjectRow and MetricRow.
type Row interface {
	Org() string
	Workspace() string
	// Dimension is the project or metric name; empty for workspace rows.
	Dimension() string
	Count() int64
	// Cells returns the row formatted in Selection.Columns order.
	Cells() []string
	isRow()
}

// WorkspaceRow is a granular/workspace total.
type WorkspaceRow struct {
	OrgName       string
	WorkspaceName string
	Traces        int64
}

// ProjectRow is a granular/project total.
type ProjectRow struct {
	OrgName       string
	WorkspaceName string
	ProjectName   string
	Traces        int64
}

// MetricRow is an overview value for one billable metric.
type MetricRow struct {
	OrgName       string
	WorkspaceName string
	MetricName    string
	Value         int64
}

func (r WorkspaceRow) Org() string       { return r.OrgName }
func (r WorkspaceRow) Workspace() string { return r.WorkspaceName }
func (r WorkspaceRow) Dimension() string { return "" }
func (r WorkspaceRow) Count() int64      { return r.Traces }
func (r WorkspaceRow) Cells() []string {
	return []string{r.OrgName, r.WorkspaceName, strconv.FormatInt(r.Traces, 10)}
}
func (WorkspaceRow) isRow() {}

func (r ProjectRow) Org() string       { return r.OrgName }
func (r ProjectRow) Workspace() string { return r.WorkspaceName }
func (r ProjectRow) Dimension() string { return r.ProjectName }
func (r ProjectRow) Count() int64      { return r.Traces }
func (r ProjectRow) Cells() []string {
	return []string{r.OrgName, r.WorkspaceName, r.ProjectName, strconv.FormatInt(r.Traces, 10)}
}
func (ProjectRow) isRow() {}

func (r MetricRow) Org() string       { return r.OrgName }
func (r MetricRow) Workspace() string { return r.WorkspaceName }
func (r MetricRow) Dimension() string { return r.MetricName }
func (r MetricRow) Count() int64      { return r.Value }
func (r MetricRow) Cells() []string {
	return []string{r.OrgName, r.WorkspaceName, r.MetricName, strconv.FormatInt(r.Value, 10)}
}
func (MetricRow) isRow() {}

// NewRow builds the row variant matching sel.
func NewRow(sel Selection, org, workspace, dimension string, count int64) Row {
	sel = sel.Normalize()
	switch {
	case sel.Mode == ModeOverview:
		return MetricRow{OrgName: org, WorkspaceName: workspace, MetricName: dimension, Value: count}
	case sel.Level == LevelProject:
		return ProjectRow{OrgName: org, WorkspaceName: workspace, ProjectName: dimension, Traces: count}
	default:
		return WorkspaceRow{OrgName: org, WorkspaceName: workspace, Traces: count}
	}
}
