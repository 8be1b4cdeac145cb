package models

import "time"

// RunRecord summarizes one completed report run for the run log.
type RunRecord struct {
	StartedAt  time.Time
	RangeStart string
	RangeEnd   string
	Selection  string
	Output     string
	Orgs       []RunOrg
	ID         int64
	Duration   time.Duration
	OrgCount   int
	Failures   int
	Rows       int
	Traces     int64
}

// RunOrg is the per-credential outcome of a run. Error is empty on success.
type RunOrg struct {
	OrgID   string
	OrgName string
	Error   string
	Rows    int
	Traces  int64
}

// Succeeded reports whether the credential produced a report.
func (o RunOrg) Succeeded() bool {
	return o.Error == ""
}
