package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/url"
	"slices"

	"github.com/j-veylop/billing-report/internal/models"
)

// PageRequest describes one paginated usage query.
type PageRequest struct {
	Mode  models.Mode
	Level models.Level
	// Start is inclusive and End exclusive, both YYYY-MM-DD. They are sent
	// verbatim as midnight UTC.
	Start string
	End   string
	// WorkspaceIDs scopes granular queries; ignored in overview mode.
	WorkspaceIDs []string
	// WorkspaceName labels project-level records, whose dimensions carry no
	// workspace.
	WorkspaceName string
}

// endpoint returns the path and base query for the request.
func (r PageRequest) endpoint() (string, url.Values) {
	q := url.Values{}
	if r.Mode == models.ModeOverview {
		q.Set("starting_on", r.Start+"T00:00:00Z")
		q.Set("ending_before", r.End+"T00:00:00Z")
		return billingUsagePath, q
	}

	groupBy := models.LevelWorkspace
	if r.Level == models.LevelProject {
		groupBy = models.LevelProject
	}
	q.Set("start_time", r.Start+"T00:00:00Z")
	q.Set("end_time", r.End+"T00:00:00Z")
	q.Set("group_by", string(groupBy))
	for _, id := range r.WorkspaceIDs {
		q.Add("workspace_ids", id)
	}
	return granularUsagePath, q
}

// pageEnvelope is the object form of a usage page.
type pageEnvelope struct {
	Usage      json.RawMessage `json:"usage"`
	NextCursor string          `json:"next_cursor"`
}

type granularRecord struct {
	StartTime  json.RawMessage `json:"start_time"`
	Dimensions struct {
		WorkspaceID   string `json:"workspace_id"`
		WorkspaceName string `json:"workspace_name"`
		ProjectID     string `json:"project_id"`
		ProjectName   string `json:"project_name"`
	} `json:"dimensions"`
	Traces float64 `json:"traces"`
}

type overviewRecord struct {
	Groups map[string]*float64 `json:"groups"`
	Metric string              `json:"billable_metric_name"`
	Value  float64             `json:"value"`
}

// Pages returns a lazy sequence over every usage record matching req. Each
// page is requested only when the consumer has drained the previous one, and
// ranging over the sequence again starts over from the first page. The first
// error is yielded once and ends the sequence.
func (c *Client) Pages(ctx context.Context, cred models.Credential, req PageRequest) iter.Seq2[models.UsageRecord, error] {
	return func(yield func(models.UsageRecord, error) bool) {
		path, base := req.endpoint()
		cursor := ""
		seen := make(map[string]struct{})
		for {
			q := url.Values{}
			for k, v := range base {
				q[k] = slices.Clone(v)
			}
			if cursor != "" {
				q.Set("cursor", cursor)
			}

			records, next, err := c.fetchPage(ctx, cred, req, path, q)
			if err != nil {
				yield(models.UsageRecord{}, err)
				return
			}
			for _, rec := range records {
				if !yield(rec, nil) {
					return
				}
			}

			if next == "" {
				return
			}
			if _, dup := seen[next]; dup || next == cursor {
				yield(models.UsageRecord{}, fmt.Errorf("pagination cursor %q repeated", next))
				return
			}
			seen[next] = struct{}{}
			cursor = next
		}
	}
}

// fetchPage requests and decodes a single page.
func (c *Client) fetchPage(ctx context.Context, cred models.Credential, req PageRequest, path string, q url.Values) ([]models.UsageRecord, string, error) {
	resp, err := c.get(ctx, cred, path, q)
	if err != nil {
		return nil, "", err
	}

	items, next, err := splitPage(resp)
	if err != nil {
		return nil, "", err
	}

	if req.Mode == models.ModeOverview {
		var raw []overviewRecord
		if err := (&response{url: resp.url, status: resp.status, body: items}).decode(&raw); err != nil {
			return nil, "", err
		}
		return flattenOverview(raw), next, nil
	}

	var raw []granularRecord
	if err := (&response{url: resp.url, status: resp.status, body: items}).decode(&raw); err != nil {
		return nil, "", err
	}
	return convertGranular(raw, req), next, nil
}

// splitPage separates the record array from the continuation cursor. A bare
// JSON array is always a final page.
func splitPage(resp *response) (json.RawMessage, string, error) {
	trimmed := bytes.TrimSpace(resp.body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		return trimmed, "", nil
	}

	var env pageEnvelope
	if err := resp.decode(&env); err != nil {
		return nil, "", err
	}
	if len(env.Usage) == 0 || string(env.Usage) == "null" {
		return json.RawMessage("[]"), env.NextCursor, nil
	}
	return env.Usage, env.NextCursor, nil
}

func convertGranular(raw []granularRecord, req PageRequest) []models.UsageRecord {
	out := make([]models.UsageRecord, 0, len(raw))
	for _, r := range raw {
		rec := models.UsageRecord{
			StartTime: models.ParseTimeField(r.StartTime),
			Count:     r.Traces,
		}
		if req.Level == models.LevelProject {
			rec.WorkspaceName = req.WorkspaceName
			if len(req.WorkspaceIDs) == 1 {
				rec.WorkspaceID = req.WorkspaceIDs[0]
			}
			rec.DimensionID = r.Dimensions.ProjectID
			rec.DimensionName = r.Dimensions.ProjectName
		} else {
			rec.WorkspaceID = r.Dimensions.WorkspaceID
			rec.WorkspaceName = r.Dimensions.WorkspaceName
		}
		out = append(out, rec)
	}
	return out
}

// flattenOverview emits one record per (metric, workspace) group entry, with
// workspaces in id order so output does not depend on map iteration.
func flattenOverview(raw []overviewRecord) []models.UsageRecord {
	var out []models.UsageRecord
	for _, r := range raw {
		metric := r.Metric
		if metric == "" {
			metric = "unknown"
		}
		ids := make([]string, 0, len(r.Groups))
		for id := range r.Groups {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		for _, id := range ids {
			var v float64
			if p := r.Groups[id]; p != nil {
				v = *p
			}
			out = append(out, models.UsageRecord{
				WorkspaceID:   id,
				DimensionName: metric,
				Count:         v,
			})
		}
	}
	return out
}
