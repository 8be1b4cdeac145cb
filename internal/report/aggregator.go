package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/j-veylop/billing-report/internal/logger"
	"github.com/j-veylop/billing-report/internal/models"
)

// DefaultWorkers is the multi-org concurrency used when none is configured.
const DefaultWorkers = 4

// EventType defines the type of progress event.
type EventType int

const (
	// EventStarted indicates a worker picked up a credential.
	EventStarted EventType = iota
	// EventFinished indicates a credential's fetch succeeded.
	EventFinished
	// EventFailed indicates a credential's fetch failed.
	EventFailed
)

// Event reports progress of one credential. Index is the credential's
// position in the input.
type Event struct {
	Err        error
	Descriptor string
	OrgName    string
	Index      int
	Rows       int
	Type       EventType
}

// Result is the merged output of a multi-org run.
type Result struct {
	// Outcomes holds one entry per credential, in input order.
	Outcomes []FetchOutcome
	// Rows are the deduplicated rows: org input order, then workspace, then dimension.
	Rows []models.Row
	// Failures lists failed credentials in input order.
	Failures []Failure
	// Daily sums per-day trace totals across the retained orgs.
	Daily []models.DailyTotal
	// Duplicates counts outcomes dropped because another credential already
	// served the same org.
	Duplicates int
	Succeeded  int
}

// Aggregator fans a Fetcher out over many credentials with bounded concurrency.
type Aggregator struct {
	fetcher  *Fetcher
	progress func(Event)
	workers  int
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithWorkers bounds the number of credentials fetched at once. Values below
// one are treated as one.
func WithWorkers(n int) Option {
	return func(a *Aggregator) {
		if n < 1 {
			n = 1
		}
		a.workers = n
	}
}

// WithProgress registers a callback for per-credential events. It is called
// from worker goroutines and must be safe for concurrent use.
func WithProgress(fn func(Event)) Option {
	return func(a *Aggregator) {
		a.progress = fn
	}
}

// NewAggregator creates an aggregator around fetcher.
func NewAggregator(fetcher *Fetcher, opts ...Option) *Aggregator {
	a := &Aggregator{fetcher: fetcher, workers: DefaultWorkers}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// RunMany fetches every credential and merges the outcomes. Each task writes
// only its own result slot; merging starts after all tasks have returned, so
// a failing or slow credential never affects the others' rows.
func (a *Aggregator) RunMany(ctx context.Context, creds []models.Credential) Result {
	outcomes := make([]FetchOutcome, len(creds))
	sem := semaphore.NewWeighted(int64(a.workers))

	var wg sync.WaitGroup
	for i, cred := range creds {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := sem.Acquire(ctx, 1); err != nil {
				outcomes[i] = failed(cred.Descriptor(), err)
				a.emit(Event{Type: EventFailed, Index: i, Descriptor: cred.Descriptor(), Err: err})
				return
			}
			defer sem.Release(1)

			a.emit(Event{Type: EventStarted, Index: i, Descriptor: cred.Descriptor()})
			outcome := a.fetcher.Run(ctx, cred)
			outcomes[i] = outcome

			if outcome.OK() {
				a.emit(Event{
					Type:       EventFinished,
					Index:      i,
					Descriptor: cred.Descriptor(),
					OrgName:    outcome.Identity.OrgName,
					Rows:       len(outcome.Rows),
				})
			} else {
				a.emit(Event{
					Type:       EventFailed,
					Index:      i,
					Descriptor: outcome.Failure.Descriptor,
					Err:        outcome.Failure.Err,
				})
			}
		}()
	}
	wg.Wait()

	return Merge(outcomes)
}

// Merge combines outcomes given in input order. Only the first success per
// org is kept. Later successes for the same org, and failures of credentials
// that had already resolved to a retained org, are dropped without being
// reported as failures.
func Merge(outcomes []FetchOutcome) Result {
	res := Result{Outcomes: outcomes}
	first := make(map[string]int, len(outcomes))
	for i, o := range outcomes {
		if !o.OK() {
			continue
		}
		if _, ok := first[o.Identity.Key()]; !ok {
			first[o.Identity.Key()] = i
		}
	}

	days := make(map[time.Time]float64)
	for i, o := range outcomes {
		kept, served := first[o.Identity.Key()]
		if !o.OK() {
			if served && o.Identity.OrgID != "" {
				res.Duplicates++
				logger.Debug(fmt.Sprintf("[%s] credential %d failed but its org was served by credential %d: %v",
					o.Identity.OrgName, i+1, kept+1, o.Failure.Err), "org_id", o.Identity.OrgID)
				continue
			}
			res.Failures = append(res.Failures, *o.Failure)
			continue
		}
		if kept != i {
			res.Duplicates++
			logger.Debug(fmt.Sprintf("[%s] credential %d resolves to the same org as credential %d; dropping its rows",
				o.Identity.OrgName, i+1, kept+1), "org_id", o.Identity.OrgID)
			continue
		}
		res.Succeeded++
		res.Rows = append(res.Rows, o.Rows...)
		for _, d := range o.Daily {
			days[d.Day] += float64(d.Traces)
		}
	}

	res.Daily = sortedDaily(days)
	return res
}

func (a *Aggregator) emit(ev Event) {
	if a.progress != nil {
		a.progress(ev)
	}
}
