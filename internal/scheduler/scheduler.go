package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/accountdesk/enrichment/internal/directory"
	"github.com/accountdesk/enrichment/internal/domain"
	"github.com/accountdesk/enrichment/internal/logger"
	"github.com/accountdesk/enrichment/internal/telemetry"
)

// State represents the current state of the scheduler.
type State int32

const (
	// StateIdle means no run is in progress.
	StateIdle State = iota

	// StateRunning means a run is actively processing groups.
	StateRunning
)

// String returns the string representation of a scheduler state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// ErrAlreadyRunning is returned when Enrich is invoked while a run is in
// progress. Reentrancy is a contract error: the second invocation fails
// immediately rather than corrupting shared state.
var ErrAlreadyRunning = errors.New("enrichment run already in progress")

// DirectoryAPI is the subset of the directory client the scheduler drives.
type DirectoryAPI interface {
	ClientCompetitors(ctx context.Context, clientID string, pageNum, pageSize int) (*directory.Envelope[domain.Competitor], error)
	RecentContactActivities(ctx context.Context, contactID string) (*directory.Envelope[domain.Activity], error)
}

// Scheduler coordinates bulk enrichment runs. Only one run may be active per
// instance at a time.
type Scheduler struct {
	client  DirectoryAPI
	cfg     Config
	log     logger.Logger
	metrics *telemetry.Provider
	state   atomic.Int32
}

// New creates an enrichment scheduler.
func New(client DirectoryAPI, cfg Config, log logger.Logger, metrics *telemetry.Provider) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if client == nil {
		return nil, errors.New("directory client cannot be nil")
	}

	s := &Scheduler{
		client:  client,
		cfg:     cfg,
		log:     log,
		metrics: metrics,
	}
	s.state.Store(int32(StateIdle))

	return s, nil
}

// State returns the current scheduler state.
func (s *Scheduler) State() State {
	return State(s.state.Load())
}

// Enrich runs bulk enrichment over the given contacts. Contacts without any
// directory identifier are excluded entirely; the rest are deduplicated into
// identifier groups so that one directory call serves every contact sharing
// an identifier.
//
// Per-group failures are recorded on each affected contact's result and never
// abort sibling groups. Enrich itself fails only for contract errors.
//
// Cancellation is cooperative: it is checked before each group is submitted,
// in-flight calls drain, and the returned map holds whatever accumulated.
func (s *Scheduler) Enrich(ctx context.Context, contacts []domain.LocalContact, onProgress ProgressFunc) (map[string]*domain.EnrichmentResult, error) {
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, ErrAlreadyRunning
	}
	defer s.state.Store(int32(StateIdle))

	s.metrics.SetActiveRun(true)
	defer s.metrics.SetActiveRun(false)

	groups, total := buildGroups(contacts)

	s.log.Info("enrichment run started",
		logger.Int("contacts", len(contacts)),
		logger.Int("eligible", total),
		logger.Int("groups", len(groups)),
		logger.Int("concurrency", s.cfg.Concurrency),
	)

	run := &runState{
		results: make(map[string]*domain.EnrichmentResult),
		tracker: newTracker(total, onProgress),
	}

	sem := make(chan struct{}, s.cfg.Concurrency)
	var wg sync.WaitGroup

	// Directory calls run on a context detached from the run's cancellation:
	// a cancelled run stops submitting new groups, but calls already on the
	// wire finish and their results are kept.
	callCtx := context.WithoutCancel(ctx)

	for _, g := range groups {
		// Cancellation is only observed here, at the submission boundary.
		// Units already in flight are allowed to finish. The bare Err check
		// keeps cancellation ahead of a free slot when both are ready.
		if ctx.Err() == nil {
			select {
			case <-ctx.Done():
			case sem <- struct{}{}:
			}
		}
		if ctx.Err() != nil {
			s.log.Warn("enrichment run cancelled",
				logger.Int("processed", run.tracker.processed),
			)
			wg.Wait()
			return run.results, nil
		}

		wg.Add(1)
		s.metrics.AddInFlight(1)

		go func(g group) {
			defer func() {
				<-sem
				s.metrics.AddInFlight(-1)
				wg.Done()
			}()
			s.process(callCtx, g, run)
		}(g)
	}

	wg.Wait()

	s.log.Info("enrichment run finished",
		logger.Int("processed", run.tracker.processed),
		logger.Int("completed", run.tracker.completed),
		logger.Int("errors", run.tracker.errors),
	)

	return run.results, nil
}

// runState holds the shared accumulation for one run.
type runState struct {
	mu      sync.Mutex
	results map[string]*domain.EnrichmentResult
	tracker *tracker
}

// resultFor returns the accumulating result entry for a contact, creating it
// on first touch. Callers must hold r.mu.
func (r *runState) resultFor(contactID string) *domain.EnrichmentResult {
	res, ok := r.results[contactID]
	if !ok {
		res = &domain.EnrichmentResult{
			ContactID:   contactID,
			Competitors: []domain.Competitor{},
			Activities:  []domain.Activity{},
		}
		r.results[contactID] = res
	}
	return res
}

// process settles one identifier group: it issues the directory call, fans
// the outcome out to every contact in the group, and charges the counters.
func (s *Scheduler) process(ctx context.Context, g group, run *runState) {
	var (
		competitors []domain.Competitor
		activities  []domain.Activity
		err         error
	)

	switch g.kind {
	case groupOrganization:
		var envelope *directory.Envelope[domain.Competitor]
		envelope, err = s.client.ClientCompetitors(ctx, g.id, 1, directory.DefaultPageSize)
		if err == nil {
			competitors = envelope.Data
		}
	case groupPerson:
		var envelope *directory.Envelope[domain.Activity]
		envelope, err = s.client.RecentContactActivities(ctx, g.id)
		if err == nil {
			activities = envelope.Data
		}
	}

	run.mu.Lock()
	for _, contact := range g.contacts {
		res := run.resultFor(contact.ID)
		switch {
		case err != nil:
			res.Error = appendError(res.Error, fmt.Sprintf("%s %s: %v", g.kind, g.id, err))
		case g.kind == groupOrganization:
			res.Competitors = competitors
		case g.kind == groupPerson:
			res.Activities = activities
		}
	}
	run.mu.Unlock()

	run.tracker.settle(len(g.contacts), err == nil)
	s.metrics.RecordGroup(string(g.kind), err == nil)

	if err != nil {
		fields := []logger.Field{
			logger.String("kind", string(g.kind)),
			logger.String("id", g.id),
			logger.Int("contacts", len(g.contacts)),
			logger.String("failure", failureClass(err)),
			logger.Error(err),
		}
		if code, ok := directory.StatusCode(err); ok {
			fields = append(fields, logger.Int("status", code))
		}
		s.log.Error("identifier group failed", fields...)
		return
	}

	s.metrics.RecordEnrichedContacts(len(g.contacts))
}

// failureClass labels a group failure for the error log: an error status
// from the directory API versus a transport-level fault.
func failureClass(err error) string {
	if directory.IsAPIError(err) {
		return "api"
	}
	return "transport"
}

// appendError joins per-group failure descriptions on one contact.
func appendError(existing, next string) string {
	if existing == "" {
		return next
	}
	return existing + "; " + next
}
