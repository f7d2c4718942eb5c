// Package telemetry exposes Prometheus metrics for the enrichment service.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all enrichment Prometheus metrics.
type Metrics struct {
	// Matching metrics
	ContactsMatched prometheus.Counter
	MatchesByType   *prometheus.CounterVec
	MatchDuration   prometheus.Histogram

	// Directory client metrics
	DirectoryRequests *prometheus.CounterVec
	RequestDuration   prometheus.Histogram
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter

	// Scheduler metrics
	GroupsProcessed  *prometheus.CounterVec
	ContactsEnriched prometheus.Counter
	ActiveRun        prometheus.Gauge
	InFlightRequests prometheus.Gauge
}

// Provider wraps the metric set. All Record methods are safe to call on a
// nil Provider so callers can omit telemetry entirely.
type Provider struct {
	Metrics *Metrics
}

// NewProvider initializes the Prometheus metric set.
func NewProvider() *Provider {
	return &Provider{Metrics: initMetrics()}
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func (p *Provider) Handler() http.Handler {
	return promhttp.Handler()
}

func initMetrics() *Metrics {
	return &Metrics{
		ContactsMatched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enrichment_contacts_matched_total",
			Help: "Total contacts that received at least one qualifying match",
		}),
		MatchesByType: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enrichment_matches_total",
			Help: "Total best matches by match type (email, name_company, name_title, fuzzy)",
		}, []string{"match_type"}),
		MatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrichment_match_duration_seconds",
			Help:    "Time to match one contact batch against a directory export",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),
		DirectoryRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enrichment_directory_requests_total",
			Help: "Total directory API round-trips by outcome",
		}, []string{"outcome"}),
		RequestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "enrichment_directory_request_duration_seconds",
			Help:    "Directory API round-trip latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		}),
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enrichment_cache_hits_total",
			Help: "Directory responses served from the in-process cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enrichment_cache_misses_total",
			Help: "Directory requests that required a network round-trip",
		}),
		GroupsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "enrichment_groups_processed_total",
			Help: "Identifier groups settled by outcome (success, error)",
		}, []string{"kind", "outcome"}),
		ContactsEnriched: promauto.NewCounter(prometheus.CounterOpts{
			Name: "enrichment_contacts_enriched_total",
			Help: "Contacts whose enrichment result received directory data",
		}),
		ActiveRun: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "enrichment_active_run",
			Help: "1 while an enrichment run is in progress",
		}),
		InFlightRequests: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "enrichment_in_flight_requests",
			Help: "Directory calls currently occupying a concurrency slot",
		}),
	}
}

// RecordMatchBatch records the outcome of one match batch.
func (p *Provider) RecordMatchBatch(matched int, duration time.Duration) {
	if p == nil {
		return
	}
	p.Metrics.ContactsMatched.Add(float64(matched))
	p.Metrics.MatchDuration.Observe(duration.Seconds())
}

// RecordMatchType increments the per-type best-match counter.
func (p *Provider) RecordMatchType(matchType string) {
	if p == nil {
		return
	}
	p.Metrics.MatchesByType.WithLabelValues(matchType).Inc()
}

// RecordDirectoryRequest records one directory API round-trip.
func (p *Provider) RecordDirectoryRequest(success bool, duration time.Duration) {
	if p == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	p.Metrics.DirectoryRequests.WithLabelValues(outcome).Inc()
	p.Metrics.RequestDuration.Observe(duration.Seconds())
}

// RecordCacheHit records a cache-served directory response.
func (p *Provider) RecordCacheHit() {
	if p == nil {
		return
	}
	p.Metrics.CacheHits.Inc()
}

// RecordCacheMiss records a directory request that went to the network.
func (p *Provider) RecordCacheMiss() {
	if p == nil {
		return
	}
	p.Metrics.CacheMisses.Inc()
}

// RecordGroup records a settled identifier group.
func (p *Provider) RecordGroup(kind string, success bool) {
	if p == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "error"
	}
	p.Metrics.GroupsProcessed.WithLabelValues(kind, outcome).Inc()
}

// RecordEnrichedContacts adds to the enriched-contact counter.
func (p *Provider) RecordEnrichedContacts(n int) {
	if p == nil {
		return
	}
	p.Metrics.ContactsEnriched.Add(float64(n))
}

// SetActiveRun marks whether an enrichment run is in progress.
func (p *Provider) SetActiveRun(active bool) {
	if p == nil {
		return
	}
	if active {
		p.Metrics.ActiveRun.Set(1)
	} else {
		p.Metrics.ActiveRun.Set(0)
	}
}

// AddInFlight adjusts the in-flight request gauge.
func (p *Provider) AddInFlight(delta int) {
	if p == nil {
		return
	}
	p.Metrics.InFlightRequests.Add(float64(delta))
}
