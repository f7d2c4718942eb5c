package telemetry_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountdesk/enrichment/internal/telemetry"
)

// providerOnce ensures we only create one Provider per test run to avoid
// duplicate Prometheus metric registration errors from promauto's global registry
var (
	testProvider *telemetry.Provider
	providerOnce sync.Once
)

func getTestProvider(t *testing.T) *telemetry.Provider {
	t.Helper()
	providerOnce.Do(func() {
		testProvider = telemetry.NewProvider()
	})
	return testProvider
}

func TestNewProvider(t *testing.T) {
	provider := getTestProvider(t)
	require.NotNil(t, provider)
	require.NotNil(t, provider.Metrics)
	assert.NotNil(t, provider.Handler())
}

func TestRecordMethodsDoNotPanic(t *testing.T) {
	provider := getTestProvider(t)

	provider.RecordMatchBatch(10, 5*time.Millisecond)
	provider.RecordMatchType("email")
	provider.RecordDirectoryRequest(true, 100*time.Millisecond)
	provider.RecordDirectoryRequest(false, 50*time.Millisecond)
	provider.RecordCacheHit()
	provider.RecordCacheMiss()
	provider.RecordGroup("organization", true)
	provider.RecordGroup("person", false)
	provider.RecordEnrichedContacts(3)
	provider.SetActiveRun(true)
	provider.SetActiveRun(false)
	provider.AddInFlight(1)
	provider.AddInFlight(-1)
}

func TestNilProviderIsSafe(t *testing.T) {
	var provider *telemetry.Provider

	provider.RecordMatchBatch(1, time.Millisecond)
	provider.RecordMatchType("fuzzy")
	provider.RecordDirectoryRequest(true, time.Millisecond)
	provider.RecordCacheHit()
	provider.RecordCacheMiss()
	provider.RecordGroup("organization", true)
	provider.RecordEnrichedContacts(1)
	provider.SetActiveRun(true)
	provider.AddInFlight(1)
}
