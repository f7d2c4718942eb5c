// Package directory implements the client for the external
// relationship-intelligence directory API. One network round-trip is issued
// per request signature per service lifetime; responses are cached by
// endpoint string until explicitly cleared.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/accountdesk/enrichment/internal/domain"
	"github.com/accountdesk/enrichment/internal/httpclient"
	"github.com/accountdesk/enrichment/internal/logger"
	"github.com/accountdesk/enrichment/internal/telemetry"
)

const (
	// DefaultPageSize is the page size requested from paginated endpoints.
	DefaultPageSize = 100

	// DefaultActivityWindow is the trailing window used when no explicit
	// date range is given for person-scoped activity lookups.
	DefaultActivityWindow = 30 * 24 * time.Hour

	// dateLayout is the date format the directory API expects.
	dateLayout = "2006-01-02"
)

// Config holds directory API connection settings. Token and base URL are
// fixed configuration, not user input.
type Config struct {
	BaseURL string        `env:"DIRECTORY_BASE_URL" yaml:"base_url"`
	Token   string        `env:"DIRECTORY_TOKEN"    yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`

	// RequestsPerSecond paces outbound calls. Zero disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("directory base_url must be specified")
	}
	if c.Token == "" {
		return fmt.Errorf("directory token must be specified")
	}
	return nil
}

// Envelope is the standard response wrapper used by all directory list
// endpoints.
type Envelope[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	PageNum    int  `json:"page_num"`
	PageSize   int  `json:"page_size"`
	HasMore    bool `json:"has_more"`
}

// Client is the HTTP client for the directory API. It owns the response
// cache; construct one per service instance and share it.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	cache   *cache
	flight  singleflight.Group
	limiter *rate.Limiter
	log     logger.Logger
	metrics *telemetry.Provider
}

// NewClient creates a directory API client. metrics may be nil.
func NewClient(cfg Config, log logger.Logger, metrics *telemetry.Provider) *Client {
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		http:    httpclient.New(&httpclient.ClientConfig{Timeout: cfg.Timeout}),
		cache:   newCache(),
		limiter: limiter,
		log:     log,
		metrics: metrics,
	}
}

// ClientCompetitors fetches one page of competitor/partner-agency
// relationship data for an organization.
func (c *Client) ClientCompetitors(ctx context.Context, clientID string, pageNum, pageSize int) (*Envelope[domain.Competitor], error) {
	endpoint := fmt.Sprintf("/client_insights/client/%s/competitors?page_num=%d&page_size=%d",
		clientID, pageNum, pageSize)

	var envelope Envelope[domain.Competitor]
	if err := c.request(ctx, endpoint, true, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// AllClientCompetitors walks every page of competitor data for one
// organization and returns the concatenated records.
func (c *Client) AllClientCompetitors(ctx context.Context, clientID string) ([]domain.Competitor, error) {
	var all []domain.Competitor

	for page := 1; ; page++ {
		envelope, err := c.ClientCompetitors(ctx, clientID, page, DefaultPageSize)
		if err != nil {
			return nil, err
		}

		all = append(all, envelope.Data...)
		if !envelope.HasMore {
			return all, nil
		}
	}
}

// ContactActivities fetches activity/interaction data for a person over an
// explicit date range.
func (c *Client) ContactActivities(ctx context.Context, contactID string, from, to time.Time) (*Envelope[domain.Activity], error) {
	endpoint := fmt.Sprintf("/client_insights/contact/%s/klicksters?from_date=%s&to_date=%s",
		contactID, from.Format(dateLayout), to.Format(dateLayout))

	var envelope Envelope[domain.Activity]
	if err := c.request(ctx, endpoint, true, &envelope); err != nil {
		return nil, err
	}
	return &envelope, nil
}

// RecentContactActivities fetches activity data for the default trailing
// window ending now.
func (c *Client) RecentContactActivities(ctx context.Context, contactID string) (*Envelope[domain.Activity], error) {
	to := time.Now()
	return c.ContactActivities(ctx, contactID, to.Add(-DefaultActivityWindow), to)
}

// ClearCache drops every cached response. The next request for any
// signature performs a fresh network round-trip.
func (c *Client) ClearCache() {
	c.cache.clear()
	c.log.Info("directory response cache cleared")
}

// CacheStats returns the current cache contents.
func (c *Client) CacheStats() CacheStats {
	return c.cache.stats()
}

// request issues a GET for the given endpoint and decodes the JSON response
// into out. When useCache is true the cache is consulted first and filled on
// success; concurrent requests for the same signature share a single
// round-trip.
func (c *Client) request(ctx context.Context, endpoint string, useCache bool, out any) error {
	if useCache {
		if body, ok := c.cache.get(endpoint); ok {
			c.metrics.RecordCacheHit()
			return json.Unmarshal(body, out)
		}
	}

	v, err, _ := c.flight.Do(endpoint, func() (any, error) {
		// A concurrent flight may have filled the cache while we waited.
		if useCache {
			if body, ok := c.cache.get(endpoint); ok {
				return body, nil
			}
		}

		body, fetchErr := c.fetch(ctx, endpoint)
		if fetchErr != nil {
			return nil, fetchErr
		}

		if useCache {
			c.cache.set(endpoint, body)
		}
		return body, nil
	})
	if err != nil {
		return err
	}

	body, ok := v.([]byte)
	if !ok {
		return fmt.Errorf("unexpected flight result type %T", v)
	}
	return json.Unmarshal(body, out)
}

// fetch performs the underlying network round-trip.
func (c *Client) fetch(ctx context.Context, endpoint string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	c.metrics.RecordCacheMiss()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build directory request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.RecordDirectoryRequest(false, time.Since(start))
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if apiErr := parseAPIError(resp); apiErr != nil {
		c.metrics.RecordDirectoryRequest(false, time.Since(start))
		c.log.Warn("directory API returned error status",
			logger.String("endpoint", endpoint),
			logger.Int("status", resp.StatusCode),
		)
		return nil, apiErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordDirectoryRequest(false, time.Since(start))
		return nil, &NetworkError{Endpoint: endpoint, Err: err}
	}

	c.metrics.RecordDirectoryRequest(true, time.Since(start))
	c.log.Debug("directory request completed",
		logger.String("endpoint", endpoint),
		logger.Duration("duration", time.Since(start)),
	)

	return body, nil
}
