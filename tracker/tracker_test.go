package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cathedral/analytics/identity"
	"cathedral/analytics/models"
)

type engagementCall struct {
	id         int64
	visitorID  string
	sessionID  string
	pagePath   string
	timeOnPage int
	scrolled   int
}

type fakeStore struct {
	mu        sync.Mutex
	insertErr error
	nextID    int64
	inserted  []models.PageView
	byID      []engagementCall
	byTuple   []engagementCall
}

func (f *fakeStore) InsertPageView(_ context.Context, pv models.PageView) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.inserted = append(f.inserted, pv)
	if f.nextID == 0 {
		f.nextID = 1
	}
	return f.nextID, nil
}

func (f *fakeStore) UpdateEngagement(_ context.Context, id int64, timeOnPage, scrolled int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID = append(f.byID, engagementCall{id: id, timeOnPage: timeOnPage, scrolled: scrolled})
	return nil
}

func (f *fakeStore) UpdateLatestEngagement(_ context.Context, visitorID, sessionID, pagePath string, timeOnPage, scrolled int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byTuple = append(f.byTuple, engagementCall{
		visitorID: visitorID, sessionID: sessionID, pagePath: pagePath,
		timeOnPage: timeOnPage, scrolled: scrolled,
	})
	return nil
}

func (f *fakeStore) calls() (inserted []models.PageView, byID, byTuple []engagementCall) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.PageView(nil), f.inserted...),
		append([]engagementCall(nil), f.byID...),
		append([]engagementCall(nil), f.byTuple...)
}

// testClock is a manually advanced clock so flush timings are deterministic.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newResolver() *identity.Resolver {
	return identity.NewResolver(identity.NewMemoryStorage(), identity.NewMemoryStorage())
}

func startTracker(t *testing.T, store RecordStore) (*Tracker, *testClock) {
	t.Helper()
	clock := newTestClock()
	tr := Start(context.Background(), store, newResolver(), "git-islife.com",
		PageInfo{
			Path:         "/manifesto",
			Title:        "The Manifesto",
			Referrer:     "https://example.com",
			UserAgent:    "test-agent",
			ScreenWidth:  1920,
			ScreenHeight: 1080,
		},
		WithClock(clock.Now),
		WithFlushInterval(time.Hour), // keep the ticker out of the way
	)
	return tr, clock
}

func TestStartEmitsPageView(t *testing.T) {
	store := &fakeStore{nextID: 7}
	tr, _ := startTracker(t, store)
	defer tr.Stop(context.Background())

	inserted, _, _ := store.calls()
	require.Len(t, inserted, 1)

	pv := inserted[0]
	require.Equal(t, "git-islife.com", pv.Site)
	require.Equal(t, "/manifesto", pv.PagePath)
	require.Equal(t, "The Manifesto", pv.PageTitle)
	require.NotNil(t, pv.Referrer)
	require.Equal(t, "https://example.com", *pv.Referrer)
	require.NotEmpty(t, pv.VisitorID)
	require.NotEmpty(t, pv.SessionID)
	require.Equal(t, 1920, pv.ScreenWidth)
	require.False(t, pv.ViewedAt.IsZero())
}

func TestEmptyReferrerIsNil(t *testing.T) {
	store := &fakeStore{}
	clock := newTestClock()
	tr := Start(context.Background(), store, newResolver(), "git-truth.com",
		PageInfo{Path: "/"}, WithClock(clock.Now), WithFlushInterval(time.Hour))
	defer tr.Stop(context.Background())

	inserted, _, _ := store.calls()
	require.Len(t, inserted, 1)
	require.Nil(t, inserted[0].Referrer)
}

func TestFlushUsesRecordID(t *testing.T) {
	store := &fakeStore{nextID: 42}
	tr, clock := startTracker(t, store)
	defer tr.Stop(context.Background())

	clock.Advance(42 * time.Second)
	tr.OnScroll(50, 200, 100) // 50%
	tr.Flush(context.Background())

	_, byID, byTuple := store.calls()
	require.Empty(t, byTuple)
	require.Len(t, byID, 1)
	require.Equal(t, int64(42), byID[0].id)
	require.Equal(t, 42, byID[0].timeOnPage)
	require.Equal(t, 50, byID[0].scrolled)
}

func TestFlushFallsBackToTupleWhenInsertFailed(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("network down")}
	tr, clock := startTracker(t, store)
	defer tr.Stop(context.Background())

	clock.Advance(10 * time.Second)
	tr.Flush(context.Background())

	_, byID, byTuple := store.calls()
	require.Empty(t, byID)
	require.Len(t, byTuple, 1)
	require.Equal(t, "/manifesto", byTuple[0].pagePath)
	require.NotEmpty(t, byTuple[0].visitorID)
	require.Equal(t, 10, byTuple[0].timeOnPage)
}

func TestScrollMaxIsMonotonicAndClamped(t *testing.T) {
	store := &fakeStore{}
	tr, _ := startTracker(t, store)
	defer tr.Stop(context.Background())

	tr.OnScroll(80, 200, 100) // 80%
	tr.OnScroll(20, 200, 100) // back up to 20%, max stays 80
	tr.Flush(context.Background())

	tr.OnScroll(500, 200, 100) // past the end, clamps to 100
	tr.Flush(context.Background())

	tr.OnScroll(10, 100, 100) // zero span, ignored
	tr.OnScroll(-5, 200, 100) // negative offset clamps to 0, max unchanged

	_, byID, _ := store.calls()
	require.Len(t, byID, 2)
	require.Equal(t, 80, byID[0].scrolled)
	require.Equal(t, 100, byID[1].scrolled)
}

func TestFlushIsIdempotent(t *testing.T) {
	store := &fakeStore{}
	tr, clock := startTracker(t, store)
	defer tr.Stop(context.Background())

	clock.Advance(30 * time.Second)
	tr.OnScroll(50, 200, 100)

	tr.Flush(context.Background())
	tr.Flush(context.Background())

	_, byID, _ := store.calls()
	require.Len(t, byID, 2)
	require.Equal(t, byID[0], byID[1], "unchanged inputs store the same totals")
}

func TestStopIssuesFinalFlushAndGoesQuiet(t *testing.T) {
	store := &fakeStore{}
	tr, clock := startTracker(t, store)

	clock.Advance(5 * time.Second)
	tr.Stop(context.Background())

	_, byID, _ := store.calls()
	require.Len(t, byID, 1)
	require.Equal(t, 5, byID[0].timeOnPage)

	// Nothing reaches the store after teardown.
	clock.Advance(time.Minute)
	tr.Flush(context.Background())
	tr.Stop(context.Background())

	_, byID, byTuple := store.calls()
	require.Len(t, byID, 1)
	require.Empty(t, byTuple)
}

func TestPeriodicFlush(t *testing.T) {
	store := &fakeStore{}
	clock := newTestClock()
	tr := Start(context.Background(), store, newResolver(), "git-islife.com",
		PageInfo{Path: "/"},
		WithClock(clock.Now),
		WithFlushInterval(10*time.Millisecond),
	)
	defer tr.Stop(context.Background())

	require.Eventually(t, func() bool {
		_, byID, _ := store.calls()
		return len(byID) >= 2
	}, time.Second, 5*time.Millisecond, "ticker keeps flushing")
}

func TestNilStoreIsInert(t *testing.T) {
	tr := Start(context.Background(), nil, newResolver(), "git-islife.com", PageInfo{Path: "/"})
	tr.OnScroll(10, 200, 100)
	tr.Flush(context.Background())
	tr.Stop(context.Background())
	// No panics, no goroutines, nothing to assert against.
}
