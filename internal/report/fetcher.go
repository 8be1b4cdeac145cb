// Package report turns upstream usage into an ordered, deduplicated billing
// report across one or many orgs.
package report

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/j-veylop/billing-report/internal/logger"
	"github.com/j-veylop/billing-report/internal/models"
	"github.com/j-veylop/billing-report/internal/upstream"
)

// Source is the upstream surface the fetcher needs. *upstream.Client
// implements it.
type Source interface {
	ResolveOrg(ctx context.Context, cred models.Credential) (models.OrgIdentity, error)
	ListWorkspaces(ctx context.Context, cred models.Credential) ([]models.Workspace, error)
	Pages(ctx context.Context, cred models.Credential, req upstream.PageRequest) iter.Seq2[models.UsageRecord, error]
}

// Query is the date range and selection shared by every org of a run.
type Query struct {
	Selection models.Selection
	// Start is inclusive, End exclusive (YYYY-MM-DD).
	Start string
	End   string
}

// Failure describes a credential whose fetch did not complete.
type Failure struct {
	Err        error
	Descriptor string
}

func (f Failure) Error() string {
	return fmt.Sprintf("[%s] %v", f.Descriptor, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// FetchOutcome is the result of one credential's fetch: either a resolved
// identity with its rows, or a Failure. A failure after resolution still
// carries the identity, so Merge can tell a duplicate org apart.
type FetchOutcome struct {
	Failure  *Failure
	Identity models.OrgIdentity
	Rows     []models.Row
	Daily    []models.DailyTotal
}

// OK reports whether the fetch succeeded.
func (o FetchOutcome) OK() bool {
	return o.Failure == nil
}

// Fetcher runs identity resolution and paginated retrieval for one credential
// at a time. It holds no per-run state and is safe for concurrent use.
type Fetcher struct {
	source Source
	query  Query
}

// NewFetcher creates a fetcher for query against source.
func NewFetcher(source Source, query Query) *Fetcher {
	query.Selection = query.Selection.Normalize()
	return &Fetcher{source: source, query: query}
}

// Run fetches one credential's usage. Errors are returned inside the outcome,
// never as a panic or separate error value.
func (f *Fetcher) Run(ctx context.Context, cred models.Credential) FetchOutcome {
	identity, err := f.source.ResolveOrg(ctx, cred)
	if err != nil {
		return failed(cred.Descriptor(), err)
	}
	org := identity.OrgName

	scoped := cred
	if scoped.OrgID == "" {
		scoped.OrgID = identity.OrgID
	}

	logger.Info(fmt.Sprintf("[%s] Fetching workspaces...", org), "org", org)
	workspaces, err := f.source.ListWorkspaces(ctx, scoped)
	if err != nil {
		return failedOrg(identity, fmt.Errorf("failed to list workspaces: %w", err))
	}
	names := make([]string, len(workspaces))
	for i, ws := range workspaces {
		names[i] = ws.Name
	}
	logger.Info(fmt.Sprintf("[%s] Found %d workspace(s): %s", org, len(workspaces), strings.Join(names, ", ")),
		"org", org, "workspaces", len(workspaces))

	if len(workspaces) == 0 {
		return FetchOutcome{Identity: identity}
	}

	sel := f.query.Selection
	acc := newAccumulator(sel, workspaces)

	for _, req := range f.requests(workspaces) {
		if err := f.drain(ctx, scoped, org, req, acc); err != nil {
			return failedOrg(identity, err)
		}
	}

	if sel.KeepsZeroRows() {
		acc.backfill()
	}

	return FetchOutcome{
		Identity: identity,
		Rows:     acc.rows(org),
		Daily:    acc.daily(),
	}
}

// requests plans the upstream queries for the selection. Project-level
// responses carry no workspace dimension, so that level queries one
// workspace at a time.
func (f *Fetcher) requests(workspaces []models.Workspace) []upstream.PageRequest {
	q := f.query
	base := upstream.PageRequest{
		Mode:  q.Selection.Mode,
		Level: q.Selection.Level,
		Start: q.Start,
		End:   q.End,
	}

	switch {
	case q.Selection.Mode == models.ModeOverview:
		return []upstream.PageRequest{base}
	case q.Selection.Level == models.LevelProject:
		reqs := make([]upstream.PageRequest, 0, len(workspaces))
		for _, ws := range workspaces {
			req := base
			req.WorkspaceIDs = []string{ws.ID}
			req.WorkspaceName = ws.Name
			reqs = append(reqs, req)
		}
		return reqs
	default:
		req := base
		for _, ws := range workspaces {
			req.WorkspaceIDs = append(req.WorkspaceIDs, ws.ID)
		}
		return []upstream.PageRequest{req}
	}
}

func (f *Fetcher) drain(ctx context.Context, cred models.Credential, org string, req upstream.PageRequest, acc *accumulator) error {
	switch {
	case req.Mode == models.ModeOverview:
		logger.Info(fmt.Sprintf("[%s] Fetching billing usage (overview) %s -> %s...", org, req.Start, req.End), "org", org)
	case req.Level == models.LevelProject:
		logger.Info(fmt.Sprintf("[%s] Fetching granular usage (by project) for %s...", org, req.WorkspaceName), "org", org)
	default:
		logger.Info(fmt.Sprintf("[%s] Fetching workspace-level granular usage %s -> %s...", org, req.Start, req.End), "org", org)
	}

	records := 0
	for rec, err := range f.source.Pages(ctx, cred, req) {
		if err != nil {
			return err
		}
		acc.add(rec)
		records++
	}
	logger.Debug(fmt.Sprintf("[%s] received %d usage record(s)", org, records), "org", org)
	return nil
}

func failed(descriptor string, err error) FetchOutcome {
	return FetchOutcome{Failure: &Failure{Descriptor: descriptor, Err: err}}
}

func failedOrg(identity models.OrgIdentity, err error) FetchOutcome {
	o := failed(identity.OrgName, err)
	o.Identity = identity
	return o
}
