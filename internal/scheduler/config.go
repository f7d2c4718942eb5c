// Package scheduler drives bulk contact enrichment: it deduplicates work by
// external identifier, bounds concurrent directory calls, aggregates partial
// results per contact, and emits progress snapshots.
package scheduler

import "errors"

const (
	// DefaultConcurrency is the default number of in-flight directory calls.
	DefaultConcurrency = 10

	// MinConcurrency is the minimum allowed concurrency.
	MinConcurrency = 1

	// MaxConcurrency is the maximum allowed concurrency.
	MaxConcurrency = 100
)

// Config holds configuration for the enrichment scheduler.
type Config struct {
	// Concurrency caps the number of outstanding directory calls at any
	// instant. The bound respects the external API's rate tolerance and
	// keeps result accumulation proportional to contacts in flight.
	Concurrency int `env:"ENRICH_CONCURRENCY" yaml:"concurrency"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{Concurrency: DefaultConcurrency}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Concurrency < MinConcurrency {
		return errors.New("concurrency must be at least 1")
	}
	if c.Concurrency > MaxConcurrency {
		return errors.New("concurrency cannot exceed 100")
	}
	return nil
}
