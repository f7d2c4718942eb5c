package scheduler

import (
	"sync"
	"time"

	"github.com/accountdesk/enrichment/internal/domain"
)

// progressBatchSize is the nominal batch size used for the batch counters in
// progress snapshots.
const progressBatchSize = 10

// ProgressFunc receives a progress snapshot after each identifier group
// settles. Snapshots are emitted in order: processed is non-decreasing and
// completed+errors always equals processed. Callbacks run on the settling
// goroutine and should return quickly.
//
// It is an alias so that callers can pass plain functions against interfaces
// declared with the unnamed type.
type ProgressFunc = func(domain.EnrichmentProgress)

// tracker accumulates run counters and serializes snapshot emission so that
// observers see a monotonic sequence.
type tracker struct {
	mu        sync.Mutex
	total     int
	processed int
	completed int
	errors    int
	start     time.Time
	emit      ProgressFunc
}

func newTracker(total int, emit ProgressFunc) *tracker {
	return &tracker{
		total: total,
		start: time.Now(),
		emit:  emit,
	}
}

// settle charges a whole group to the counters and emits a snapshot. A failed
// call denies enrichment to every contact sharing the identifier, so the full
// group size is charged either way.
func (t *tracker) settle(groupSize int, success bool) domain.EnrichmentProgress {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed += groupSize
	if success {
		t.completed += groupSize
	} else {
		t.errors += groupSize
	}

	snapshot := t.snapshotLocked()
	if t.emit != nil {
		t.emit(snapshot)
	}
	return snapshot
}

// snapshotLocked builds a progress snapshot. Callers must hold t.mu.
func (t *tracker) snapshotLocked() domain.EnrichmentProgress {
	p := domain.EnrichmentProgress{
		Total:        t.total,
		Processed:    t.processed,
		Completed:    t.completed,
		Errors:       t.errors,
		CurrentBatch: ceilDiv(t.processed, progressBatchSize),
		TotalBatches: ceilDiv(t.total, progressBatchSize),
	}

	// ETA from the observed processing rate. Unset until at least one group
	// has settled and measurable time has elapsed; the earliest samples are
	// noisy but correct.
	elapsed := time.Since(t.start)
	if t.processed > 0 && elapsed > 0 {
		remaining := t.total - t.processed
		if remaining > 0 {
			rate := float64(t.processed) / float64(elapsed.Milliseconds()+1)
			p.EstimatedTimeRemainingMs = int64(float64(remaining) / rate)
		}
	}

	return p
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
