package report

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
	"time"

	"github.com/j-veylop/billing-report/internal/models"
	"github.com/j-veylop/billing-report/internal/upstream"
)

// errSource fails every identity lookup.
type errSource struct {
	err error
}

func (s errSource) ResolveOrg(context.Context, models.Credential) (models.OrgIdentity, error) {
	return models.OrgIdentity{}, s.err
}

func (s errSource) ListWorkspaces(context.Context, models.Credential) ([]models.Workspace, error) {
	return nil, s.err
}

func (s errSource) Pages(context.Context, models.Credential, upstream.PageRequest) iter.Seq2[models.UsageRecord, error] {
	return func(yield func(models.UsageRecord, error) bool) {
		yield(models.UsageRecord{}, s.err)
	}
}

// slowSource serves one workspace per org, keyed by API key, after a per-key
// delay, and records the peak number of concurrent lookups.
type slowSource struct {
	orgs   map[string]models.OrgIdentity
	delays map[string]time.Duration
	fail   map[string]error
	// listFail fails workspace listing after the org resolved.
	listFail map[string]error

	inFlight atomic.Int32
	mu       sync.Mutex
	peak     int32
}

func (s *slowSource) ResolveOrg(_ context.Context, cred models.Credential) (models.OrgIdentity, error) {
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	s.mu.Lock()
	if n > s.peak {
		s.peak = n
	}
	s.mu.Unlock()

	time.Sleep(s.delays[cred.APIKey])
	if err := s.fail[cred.APIKey]; err != nil {
		return models.OrgIdentity{}, err
	}
	return s.orgs[cred.APIKey], nil
}

func (s *slowSource) ListWorkspaces(_ context.Context, cred models.Credential) ([]models.Workspace, error) {
	if err := s.listFail[cred.APIKey]; err != nil {
		return nil, err
	}
	return []models.Workspace{{ID: "ws-" + cred.APIKey, Name: "ws-" + cred.APIKey}}, nil
}

func (s *slowSource) Pages(_ context.Context, cred models.Credential, _ upstream.PageRequest) iter.Seq2[models.UsageRecord, error] {
	return func(yield func(models.UsageRecord, error) bool) {
		yield(models.UsageRecord{WorkspaceID: "ws-" + cred.APIKey, WorkspaceName: "ws-" + cred.APIKey, Count: 1}, nil)
	}
}

func (s *slowSource) Peak() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.peak
}
