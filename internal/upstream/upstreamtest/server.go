// Package upstreamtest provides an in-process fake of the usage service for tests.
package upstreamtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/j-veylop/billing-report/internal/models"
)

// Project is a project's trace count within a workspace.
type Project struct {
	ID     string
	Name   string
	Traces int64
}

// Org is one tenant served by the fake.
type Org struct {
	ID         string
	Name       string
	APIKeys    []string
	Workspaces []models.Workspace
	// WorkspaceTraces maps workspace id to traces; absent or zero entries are
	// omitted from granular workspace pages, as upstream does.
	WorkspaceTraces map[string]int64
	// Projects maps workspace id to its projects with usage.
	Projects map[string][]Project
	// Metrics maps metric name to per-workspace values for overview mode.
	Metrics map[string]map[string]float64
	// Fail maps an endpoint path (without /api/v1) to a status to return.
	Fail map[string]int
}

// Server is a fake usage API backed by httptest.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	orgs     []*Org
	requests []*http.Request

	// PageSize splits usage responses into cursor-linked pages. Zero means one page.
	PageSize int
	// BucketDay is stamped on granular records as start_time.
	BucketDay string
}

// NewServer starts a fake serving orgs and closes it when the test ends.
func NewServer(t testing.TB, orgs ...*Org) *Server {
	t.Helper()
	s := &Server{orgs: orgs}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// Requests returns a copy of the requests received so far.
func (s *Server) Requests() []*http.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// Count returns how many requests hit path (without /api/v1).
func (s *Server) Count(path string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.TrimPrefix(r.URL.Path, "/api/v1") == path {
			n++
		}
	}
	return n
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.Clone(r.Context()))
	s.mu.Unlock()

	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	key := r.Header.Get("X-API-Key")

	if !s.knownKey(key) {
		http.Error(w, `{"detail":"invalid api key"}`, http.StatusUnauthorized)
		return
	}

	org := s.orgFor(key, r.Header.Get("X-Organization-Id"))
	if org == nil {
		http.Error(w, `{"detail":"forbidden"}`, http.StatusForbidden)
		return
	}
	if status, ok := org.Fail[path]; ok {
		http.Error(w, `{"detail":"injected failure"}`, status)
		return
	}

	switch path {
	case "/orgs/current":
		writeJSON(w, models.OrgIdentity{OrgID: org.ID, OrgName: org.Name})
	case "/workspaces":
		writeJSON(w, org.Workspaces)
	case "/orgs/current/billing/granular-usage":
		s.granular(w, r, org)
	case "/orgs/current/billing/usage":
		s.overview(w, org)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) knownKey(key string) bool {
	return slices.ContainsFunc(s.orgs, func(o *Org) bool {
		return slices.Contains(o.APIKeys, key)
	})
}

// orgFor returns the org key is scoped to: the one matching orgID, or the
// first org holding the key when no id is sent.
func (s *Server) orgFor(key, orgID string) *Org {
	for _, o := range s.orgs {
		if !slices.Contains(o.APIKeys, key) {
			continue
		}
		if orgID == "" || models.OrgKey(orgID) == models.OrgKey(o.ID) {
			return o
		}
	}
	return nil
}

func (s *Server) granular(w http.ResponseWriter, r *http.Request, org *Org) {
	q := r.URL.Query()
	ids := q["workspace_ids"]
	start := s.BucketDay
	if start == "" {
		start = q.Get("start_time")
	}

	var records []map[string]any
	if q.Get("group_by") == "project" {
		for _, id := range ids {
			for _, p := range org.Projects[id] {
				records = append(records, map[string]any{
					"start_time": start,
					"dimensions": map[string]any{"project_id": p.ID, "project_name": p.Name},
					"traces":     p.Traces,
				})
			}
		}
	} else {
		for _, ws := range org.Workspaces {
			if !slices.Contains(ids, ws.ID) || org.WorkspaceTraces[ws.ID] == 0 {
				continue
			}
			records = append(records, map[string]any{
				"start_time": start,
				"dimensions": map[string]any{"workspace_id": ws.ID, "workspace_name": ws.Name},
				"traces":     org.WorkspaceTraces[ws.ID],
			})
		}
	}

	offset, _ := strconv.Atoi(q.Get("cursor"))
	page, next := s.paginate(records, offset)
	writeJSON(w, map[string]any{"usage": page, "next_cursor": next})
}

func (s *Server) overview(w http.ResponseWriter, org *Org) {
	metrics := make([]string, 0, len(org.Metrics))
	for m := range org.Metrics {
		metrics = append(metrics, m)
	}
	slices.Sort(metrics)

	var records []map[string]any
	for _, m := range metrics {
		var total float64
		for _, v := range org.Metrics[m] {
			total += v
		}
		records = append(records, map[string]any{
			"billable_metric_name": m,
			"value":                total,
			"groups":               org.Metrics[m],
		})
	}
	if records == nil {
		records = []map[string]any{}
	}
	writeJSON(w, records)
}

func (s *Server) paginate(records []map[string]any, offset int) ([]map[string]any, string) {
	if records == nil {
		records = []map[string]any{}
	}
	if s.PageSize <= 0 || offset >= len(records) {
		if offset > 0 {
			return []map[string]any{}, ""
		}
		return records, ""
	}
	end := min(offset+s.PageSize, len(records))
	next := ""
	if end < len(records) {
		next = strconv.Itoa(end)
	}
	return records[offset:end], next
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
