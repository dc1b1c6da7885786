// Package tracker emits page-view telemetry for one page activation: a single
// insert when the page becomes active, then engagement flushes (time on page,
// max scroll depth) on a timer, on demand, and once more on teardown. Every
// store call is best-effort; telemetry must never break the hosting page.
package tracker

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"cathedral/analytics/identity"
	"cathedral/analytics/models"
)

// RecordStore is the slice of the record store the tracker needs. Insert
// returns the id of the created row so later flushes can address it directly;
// UpdateLatestEngagement is the fallback when that id is unknown (the insert
// failed) and matches the most recent row for (visitor, session, path).
type RecordStore interface {
	InsertPageView(ctx context.Context, pv models.PageView) (int64, error)
	UpdateEngagement(ctx context.Context, id int64, timeOnPage, scrolledPercentage int) error
	UpdateLatestEngagement(ctx context.Context, visitorID, sessionID, pagePath string, timeOnPage, scrolledPercentage int) error
}

// PageInfo is the ambient page/client metadata captured at activation.
type PageInfo struct {
	Path         string
	Title        string
	Referrer     string
	UserAgent    string
	ScreenWidth  int
	ScreenHeight int
}

const defaultFlushInterval = 30 * time.Second

// Tracker owns the telemetry lifecycle of one page activation. All state is
// per-instance; nothing leaks across activations.
type Tracker struct {
	store    RecordStore
	site     string
	page     PageInfo
	interval time.Duration
	now      func() time.Time

	mu        sync.Mutex
	visitorID string
	sessionID string
	recordID  int64
	startedAt time.Time
	maxScroll int
	stopped   bool

	ticker *time.Ticker
	done   chan struct{}
	wg     sync.WaitGroup
}

// Option tweaks a Tracker. Used by tests to shorten the flush interval and
// pin the clock.
type Option func(*Tracker)

func WithFlushInterval(d time.Duration) Option {
	return func(t *Tracker) { t.interval = d }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// Start records the page view and begins engagement tracking. A nil store
// yields an inert tracker: every method works, nothing is sent.
func Start(ctx context.Context, store RecordStore, ids *identity.Resolver, site string, page PageInfo, opts ...Option) *Tracker {
	t := &Tracker{
		store:    store,
		site:     site,
		page:     page,
		interval: defaultFlushInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if ids != nil {
		t.visitorID = ids.VisitorID()
		t.sessionID = ids.SessionID()
	}
	t.startedAt = t.now()

	if t.store == nil {
		t.stopped = true
		return t
	}

	t.emit(ctx)

	t.ticker = time.NewTicker(t.interval)
	t.done = make(chan struct{})
	t.wg.Add(1)
	go t.loop(ctx)
	return t
}

// emit attempts the single page-view insert. Failures are logged and
// swallowed; the tracker then relies on the filter-based update path.
func (t *Tracker) emit(ctx context.Context) {
	var referrer *string
	if t.page.Referrer != "" {
		referrer = &t.page.Referrer
	}
	pv := models.PageView{
		Site:         t.site,
		PagePath:     t.page.Path,
		PageTitle:    t.page.Title,
		Referrer:     referrer,
		VisitorID:    t.visitorID,
		SessionID:    t.sessionID,
		UserAgent:    t.page.UserAgent,
		ScreenWidth:  t.page.ScreenWidth,
		ScreenHeight: t.page.ScreenHeight,
		ViewedAt:     t.now(),
	}
	id, err := t.store.InsertPageView(ctx, pv)
	if err != nil {
		log.Printf("tracker: page view insert failed for %s%s: %v", t.site, t.page.Path, err)
		return
	}
	t.mu.Lock()
	t.recordID = id
	t.mu.Unlock()
}

func (t *Tracker) loop(ctx context.Context) {
	defer t.wg.Done()
	for {
		select {
		case <-t.ticker.C:
			t.Flush(ctx)
		case <-t.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// OnScroll feeds a scroll notification. scrollTop is the current offset,
// docHeight the full document height, viewportHeight the visible height.
// The running maximum never decreases.
func (t *Tracker) OnScroll(scrollTop, docHeight, viewportHeight float64) {
	span := docHeight - viewportHeight
	if span <= 0 {
		return
	}
	pct := int(math.Round(scrollTop / span * 100))
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	t.mu.Lock()
	if pct > t.maxScroll {
		t.maxScroll = pct
	}
	t.mu.Unlock()
}

// Flush writes the current engagement totals. It recomputes the full state on
// every call, so racing triggers (timer, page exit, teardown) are harmless and
// repeated flushes with unchanged inputs store the same values.
func (t *Tracker) Flush(ctx context.Context) {
	if t.store == nil {
		return
	}
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	timeOnPage := int(math.Round(t.now().Sub(t.startedAt).Seconds()))
	scrolled := t.maxScroll
	recordID := t.recordID
	t.mu.Unlock()

	t.writeEngagement(ctx, recordID, timeOnPage, scrolled)
}

func (t *Tracker) writeEngagement(ctx context.Context, recordID int64, timeOnPage, scrolled int) {
	var err error
	if recordID != 0 {
		err = t.store.UpdateEngagement(ctx, recordID, timeOnPage, scrolled)
	} else {
		err = t.store.UpdateLatestEngagement(ctx, t.visitorID, t.sessionID, t.page.Path, timeOnPage, scrolled)
	}
	if err != nil {
		log.Printf("tracker: engagement flush failed for %s%s: %v", t.site, t.page.Path, err)
	}
}

// Stop tears the tracker down: the timer and goroutine are released and one
// final flush is issued synchronously. Safe to call more than once; no store
// calls happen after the first Stop returns.
func (t *Tracker) Stop(ctx context.Context) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	t.stopped = true
	timeOnPage := int(math.Round(t.now().Sub(t.startedAt).Seconds()))
	scrolled := t.maxScroll
	recordID := t.recordID
	t.mu.Unlock()

	if t.ticker != nil {
		t.ticker.Stop()
		close(t.done)
		t.wg.Wait()
	}
	if t.store != nil {
		t.writeEngagement(ctx, recordID, timeOnPage, scrolled)
	}
}
