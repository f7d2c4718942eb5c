// Package jobs tracks enrichment runs: identity, lifecycle status, live
// progress, and results retention. One run may be active at a time; finished
// runs stay queryable until the service restarts.
package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/accountdesk/enrichment/internal/domain"
	"github.com/accountdesk/enrichment/internal/logger"
)

// Status is the lifecycle state of an enrichment run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusStopped   Status = "stopped"
)

var (
	// ErrRunActive is returned by Start while another run is in progress.
	ErrRunActive = errors.New("an enrichment run is already active")

	// ErrNotFound is returned when no run exists for the given id.
	ErrNotFound = errors.New("run not found")
)

// Run is a point-in-time snapshot of one enrichment run.
type Run struct {
	ID         string                    `json:"id"`
	Status     Status                    `json:"status"`
	StartedAt  time.Time                 `json:"started_at"`
	FinishedAt time.Time                 `json:"finished_at,omitzero"`
	Progress   domain.EnrichmentProgress `json:"progress"`
	Error      string                    `json:"error,omitempty"`
}

// Enricher executes one enrichment pass over a contact batch.
type Enricher interface {
	Enrich(ctx context.Context, contacts []domain.LocalContact, onProgress func(domain.EnrichmentProgress)) (map[string]*domain.EnrichmentResult, error)
}

type run struct {
	Run

	cancel  context.CancelFunc
	results map[string]*domain.EnrichmentResult
}

// Manager owns run records and drives the enricher in the background.
type Manager struct {
	mu       sync.Mutex
	enricher Enricher
	log      logger.Logger
	runs     map[string]*run
	activeID string
}

// NewManager creates a run manager around the given enricher.
func NewManager(enricher Enricher, log logger.Logger) *Manager {
	return &Manager{
		enricher: enricher,
		log:      log,
		runs:     make(map[string]*run),
	}
}

// Start begins a new enrichment run in the background and returns its initial
// snapshot. Only one run may be active at a time.
func (m *Manager) Start(contacts []domain.LocalContact) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeID != "" {
		return Run{}, ErrRunActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		Run: Run{
			ID:        uuid.New().String(),
			Status:    StatusPending,
			StartedAt: time.Now(),
		},
		cancel: cancel,
	}
	m.runs[r.ID] = r
	m.activeID = r.ID

	m.log.Info("enrichment run accepted",
		logger.String("run_id", r.ID),
		logger.Int("contacts", len(contacts)),
	)

	go m.execute(ctx, r, contacts)

	return r.Run, nil
}

// execute drives the enricher and settles the run record when it returns.
func (m *Manager) execute(ctx context.Context, r *run, contacts []domain.LocalContact) {
	m.setStatus(r, StatusRunning)

	results, err := m.enricher.Enrich(ctx, contacts, func(p domain.EnrichmentProgress) {
		m.mu.Lock()
		r.Progress = p
		m.mu.Unlock()
	})

	m.mu.Lock()
	defer m.mu.Unlock()

	r.results = results
	r.FinishedAt = time.Now()
	m.activeID = ""

	defer r.cancel() // release the run context once settled

	switch {
	case err != nil:
		r.Status = StatusFailed
		r.Error = err.Error()
		m.log.Error("enrichment run failed",
			logger.String("run_id", r.ID),
			logger.Error(err),
		)
	case ctx.Err() != nil:
		r.Status = StatusStopped
		m.log.Info("enrichment run stopped",
			logger.String("run_id", r.ID),
			logger.Int("results", len(results)),
		)
	default:
		r.Status = StatusCompleted
		m.log.Info("enrichment run completed",
			logger.String("run_id", r.ID),
			logger.Int("results", len(results)),
		)
	}
}

func (m *Manager) setStatus(r *run, s Status) {
	m.mu.Lock()
	r.Status = s
	m.mu.Unlock()
}

// Get returns a snapshot of the run with the given id.
func (m *Manager) Get(id string) (Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return Run{}, ErrNotFound
	}
	return r.Run, nil
}

// Active returns a snapshot of the currently running enrichment, if any.
func (m *Manager) Active() (Run, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeID == "" {
		return Run{}, false
	}
	return m.runs[m.activeID].Run, true
}

// Cancel requests cooperative cancellation of the run with the given id.
// In-flight directory calls finish; the run settles as stopped with whatever
// results accumulated. Cancelling a finished run is a no-op.
func (m *Manager) Cancel(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return ErrNotFound
	}

	r.cancel()
	return nil
}

// Results returns the result map of a finished run. Partial results from a
// stopped run are returned the same way as completed ones.
func (m *Manager) Results(id string) (map[string]*domain.EnrichmentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return nil, ErrNotFound
	}

	out := make(map[string]*domain.EnrichmentResult, len(r.results))
	for k, v := range r.results {
		out[k] = v
	}
	return out, nil
}
