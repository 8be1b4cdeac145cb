package models

import (
	"encoding/json"
	"time"
)

// UsageRecord is one raw usage entry read from an upstream page. Which
// dimension fields are set depends on the page kind:
//
//   - granular/workspace: WorkspaceID, WorkspaceName
//   - granular/project:   WorkspaceID, DimensionID (project id), DimensionName (project name)
//   - overview:           WorkspaceID, DimensionName (metric name)
type UsageRecord struct {
	StartTime     time.Time
	WorkspaceID   string
	WorkspaceName string
	DimensionID   string
	DimensionName string
	Count         float64
}

// Workspace is a workspace as listed by the upstream service.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"display_name"`
}

// DailyTotal is the number of traces counted for one UTC day.
type DailyTotal struct {
	Day    time.Time
	Traces int64
}

// ParseTimeField parses a JSON time value sent either as an ISO 8601 string or
// as a Unix timestamp in seconds or milliseconds. It returns the zero time when
// the value cannot be interpreted.
func ParseTimeField(data json.RawMessage) time.Time {
	if len(data) == 0 {
		return time.Time{}
	}

	var strVal string
	if err := json.Unmarshal(data, &strVal); err == nil {
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, strVal); err == nil {
				return t.UTC()
			}
		}
		return time.Time{}
	}

	var numVal float64
	if err := json.Unmarshal(data, &numVal); err == nil {
		if numVal > 1e12 {
			return time.UnixMilli(int64(numVal)).UTC()
		}
		return time.Unix(int64(numVal), 0).UTC()
	}

	return time.Time{}
}
