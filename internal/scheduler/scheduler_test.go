package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accountdesk/enrichment/internal/directory"
	"github.com/accountdesk/enrichment/internal/domain"
	"github.com/accountdesk/enrichment/internal/logger"
)

// fakeDirectory is a controllable in-memory DirectoryAPI.
type fakeDirectory struct {
	mu            sync.Mutex
	orgCalls      []string
	personCalls   []string
	failOrg       map[string]error
	failPerson    map[string]error
	gate          chan struct{} // when set, every call waits for a tick
	competitorSet []domain.Competitor
	activitySet   []domain.Activity
}

func (f *fakeDirectory) ClientCompetitors(ctx context.Context, clientID string, pageNum, pageSize int) (*directory.Envelope[domain.Competitor], error) {
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	f.orgCalls = append(f.orgCalls, clientID)
	failErr := f.failOrg[clientID]
	f.mu.Unlock()

	if failErr != nil {
		return nil, failErr
	}
	return &directory.Envelope[domain.Competitor]{
		Data:       f.competitorSet,
		TotalCount: len(f.competitorSet),
		PageNum:    pageNum,
		PageSize:   pageSize,
	}, nil
}

func (f *fakeDirectory) RecentContactActivities(ctx context.Context, contactID string) (*directory.Envelope[domain.Activity], error) {
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	f.personCalls = append(f.personCalls, contactID)
	failErr := f.failPerson[contactID]
	f.mu.Unlock()

	if failErr != nil {
		return nil, failErr
	}
	return &directory.Envelope[domain.Activity]{
		Data:       f.activitySet,
		TotalCount: len(f.activitySet),
	}, nil
}

func (f *fakeDirectory) totalCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orgCalls) + len(f.personCalls)
}

func newScheduler(t *testing.T, client DirectoryAPI, concurrency int) *Scheduler {
	t.Helper()
	s, err := New(client, Config{Concurrency: concurrency}, logger.NewNop(), nil)
	require.NoError(t, err)
	return s
}

func TestBuildGroups(t *testing.T) {
	contacts := []domain.LocalContact{
		{ID: "a", DirectoryClientID: "1"},
		{ID: "b", DirectoryClientID: "1"},
		{ID: "c", DirectoryClientID: "2", DirectoryContactID: "100"},
		{ID: "d", DirectoryContactID: "100"},
		{ID: "e"},                               // no identifiers: excluded entirely
		{ID: "f", DirectoryClientID: "not-num"}, // unparseable: skipped at row level
	}

	groups, total := buildGroups(contacts)

	// e is excluded; f still counts toward the total.
	assert.Equal(t, 5, total)

	byKey := make(map[string]group)
	for _, g := range groups {
		byKey[string(g.kind)+"/"+g.id] = g
	}
	require.Len(t, byKey, 3)

	assert.Len(t, byKey["organization/1"].contacts, 2)
	assert.Len(t, byKey["organization/2"].contacts, 1)
	assert.Len(t, byKey["person/100"].contacts, 2)
}

func TestEnrich_OneCallPerDistinctIdentifier(t *testing.T) {
	// 50 contacts, 5 distinct organization ids, 3 distinct person ids:
	// exactly 8 directory calls regardless of contact count.
	var contacts []domain.LocalContact
	for i := 0; i < 50; i++ {
		c := domain.LocalContact{
			ID:                fmt.Sprintf("c%02d", i),
			DirectoryClientID: fmt.Sprintf("%d", i%5+1),
		}
		if i < 3 {
			c.DirectoryContactID = fmt.Sprintf("%d", 100+i)
		}
		contacts = append(contacts, c)
	}

	fake := &fakeDirectory{
		competitorSet: []domain.Competitor{{AgencyName: "Rival Health", ClientID: 1}},
		activitySet:   []domain.Activity{{CounterpartName: "Sam Lee", ContactID: 100}},
	}
	s := newScheduler(t, fake, DefaultConcurrency)

	results, err := s.Enrich(context.Background(), contacts, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, fake.totalCalls())
	assert.Len(t, fake.orgCalls, 5)
	assert.Len(t, fake.personCalls, 3)

	// Every eligible contact has an entry with competitor data.
	require.Len(t, results, 50)
	for _, res := range results {
		assert.Empty(t, res.Error)
		assert.NotEmpty(t, res.Competitors)
	}
}

func TestEnrich_ExcludesContactsWithoutIdentifiers(t *testing.T) {
	contacts := []domain.LocalContact{
		{ID: "with", DirectoryClientID: "7"},
		{ID: "without"},
	}

	fake := &fakeDirectory{}
	s := newScheduler(t, fake, DefaultConcurrency)

	var snapshots []domain.EnrichmentProgress
	var mu sync.Mutex
	results, err := s.Enrich(context.Background(), contacts, func(p domain.EnrichmentProgress) {
		mu.Lock()
		snapshots = append(snapshots, p)
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Contains(t, results, "with")
	assert.NotContains(t, results, "without")

	require.NotEmpty(t, snapshots)
	assert.Equal(t, 1, snapshots[len(snapshots)-1].Total)
}

func TestEnrich_GroupFailureIsIsolated(t *testing.T) {
	// One failing organization out of two; person lookups unaffected.
	contacts := []domain.LocalContact{
		{ID: "a", DirectoryClientID: "1"},
		{ID: "b", DirectoryClientID: "1"},
		{ID: "c", DirectoryClientID: "2"},
		{ID: "d", DirectoryClientID: "1", DirectoryContactID: "100"},
	}

	fake := &fakeDirectory{
		failOrg: map[string]error{
			"1": &directory.APIError{StatusCode: 500, Status: "500 Internal Server Error"},
		},
		competitorSet: []domain.Competitor{{AgencyName: "Rival Health"}},
		activitySet:   []domain.Activity{{CounterpartName: "Sam Lee"}},
	}
	s := newScheduler(t, fake, DefaultConcurrency)

	results, err := s.Enrich(context.Background(), contacts, nil)
	require.NoError(t, err)

	// All contacts still present.
	require.Len(t, results, 4)

	// Contacts in the failing group carry the error and empty competitor
	// lists for that data type only.
	for _, id := range []string{"a", "b"} {
		res := results[id]
		assert.NotEmpty(t, res.Error)
		assert.Empty(t, res.Competitors)
	}

	// Sibling group untouched.
	assert.Empty(t, results["c"].Error)
	assert.NotEmpty(t, results["c"].Competitors)

	// d's competitor group failed but its person group succeeded: partial
	// success is a first-class outcome.
	assert.NotEmpty(t, results["d"].Error)
	assert.Empty(t, results["d"].Competitors)
	assert.NotEmpty(t, results["d"].Activities)
}

func TestEnrich_ProgressMonotonic(t *testing.T) {
	var contacts []domain.LocalContact
	for i := 0; i < 20; i++ {
		contacts = append(contacts, domain.LocalContact{
			ID:                fmt.Sprintf("c%02d", i),
			DirectoryClientID: fmt.Sprintf("%d", i),
		})
	}

	fake := &fakeDirectory{
		failOrg: map[string]error{
			"3": &directory.APIError{StatusCode: 502, Status: "502 Bad Gateway"},
			"7": &directory.APIError{StatusCode: 500, Status: "500 Internal Server Error"},
		},
	}
	s := newScheduler(t, fake, 4)

	var snapshots []domain.EnrichmentProgress
	var mu sync.Mutex
	_, err := s.Enrich(context.Background(), contacts, func(p domain.EnrichmentProgress) {
		mu.Lock()
		snapshots = append(snapshots, p)
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, snapshots, 20)

	prev := 0
	for _, p := range snapshots {
		assert.GreaterOrEqual(t, p.Processed, prev)
		assert.Equal(t, p.Processed, p.Completed+p.Errors)
		assert.Equal(t, 20, p.Total)
		prev = p.Processed
	}

	final := snapshots[len(snapshots)-1]
	assert.Equal(t, 20, final.Processed)
	assert.Equal(t, 2, final.Errors)
	assert.Equal(t, 18, final.Completed)
}

func TestEnrich_Reentrancy(t *testing.T) {
	contacts := []domain.LocalContact{{ID: "a", DirectoryClientID: "1"}}

	gate := make(chan struct{})
	fake := &fakeDirectory{gate: gate}
	s := newScheduler(t, fake, 1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.Enrich(context.Background(), contacts, nil)
		assert.NoError(t, err)
	}()

	// Wait for the first run to occupy the scheduler.
	require.Eventually(t, func() bool {
		return s.State() == StateRunning
	}, time.Second, time.Millisecond)

	_, err := s.Enrich(context.Background(), contacts, nil)
	assert.ErrorIs(t, err, ErrAlreadyRunning)

	close(gate)
	<-done

	assert.Equal(t, StateIdle, s.State())
}

func TestEnrich_CancellationDrainsInFlight(t *testing.T) {
	contacts := []domain.LocalContact{
		{ID: "a", DirectoryClientID: "1"},
		{ID: "b", DirectoryClientID: "2"},
		{ID: "c", DirectoryClientID: "3"},
	}

	gate := make(chan struct{})
	fake := &fakeDirectory{}
	fake.gate = gate

	s := newScheduler(t, fake, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		results map[string]*domain.EnrichmentResult
		err     error
	}
	outcomeCh := make(chan outcome, 1)
	go func() {
		results, err := s.Enrich(ctx, contacts, nil)
		outcomeCh <- outcome{results, err}
	}()

	// Let the first group settle.
	gate <- struct{}{}

	// Second group is now in flight (or about to be); cancel while the
	// third is still waiting for a slot, then release the in-flight call.
	require.Eventually(t, func() bool {
		return fake.totalCalls() >= 1
	}, time.Second, time.Millisecond)
	cancel()
	close(gate)

	out := <-outcomeCh
	require.NoError(t, out.err)

	// The settled groups are present; unsubmitted groups are absent, not
	// errored.
	assert.LessOrEqual(t, len(out.results), 2)
	assert.Contains(t, out.results, "a")
	for _, res := range out.results {
		assert.Empty(t, res.Error)
	}
}

func TestEnrich_CancelledRunKeepsInFlightNetworkCall(t *testing.T) {
	started := make(chan struct{}, 2)
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started <- struct{}{}
		<-release
		_ = json.NewEncoder(w).Encode(directory.Envelope[domain.Competitor]{
			Data:       []domain.Competitor{{AgencyName: "Rival Health"}},
			TotalCount: 1,
		})
	}))
	defer srv.Close()

	client := directory.NewClient(directory.Config{
		BaseURL: srv.URL,
		Token:   "test-token",
	}, logger.NewNop(), nil)
	s := newScheduler(t, client, 1)

	contacts := []domain.LocalContact{
		{ID: "a", DirectoryClientID: "1"},
		{ID: "b", DirectoryClientID: "2"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	type outcome struct {
		results map[string]*domain.EnrichmentResult
		err     error
	}
	outcomeCh := make(chan outcome, 1)
	go func() {
		results, err := s.Enrich(ctx, contacts, nil)
		outcomeCh <- outcome{results, err}
	}()

	// Cancel while the first call is on the wire, then let the server answer.
	<-started
	cancel()
	close(release)

	out := <-outcomeCh
	require.NoError(t, out.err)

	// The call that was on the wire drained to completion: its result is
	// kept rather than settling as a cancellation error.
	require.Contains(t, out.results, "a")
	assert.Empty(t, out.results["a"].Error)
	assert.NotEmpty(t, out.results["a"].Competitors)

	// The unsubmitted group is absent, not errored.
	assert.NotContains(t, out.results, "b")
}

func TestEnrich_PrecancelledContextSubmitsNothing(t *testing.T) {
	contacts := []domain.LocalContact{
		{ID: "a", DirectoryClientID: "1"},
	}

	fake := &fakeDirectory{}
	s := newScheduler(t, fake, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := s.Enrich(ctx, contacts, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, fake.totalCalls())
}

func TestFailureClass(t *testing.T) {
	assert.Equal(t, "api", failureClass(&directory.APIError{StatusCode: 502, Status: "502 Bad Gateway"}))
	assert.Equal(t, "api", failureClass(fmt.Errorf("lookup: %w", &directory.APIError{StatusCode: 404})))
	assert.Equal(t, "transport", failureClass(&directory.NetworkError{Endpoint: "/x", Err: errors.New("connection reset")}))
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(&fakeDirectory{}, Config{Concurrency: 0}, logger.NewNop(), nil)
	assert.Error(t, err)

	_, err = New(nil, DefaultConfig(), logger.NewNop(), nil)
	assert.Error(t, err)
}
