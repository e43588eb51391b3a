package domain

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/cardstream/internal/exposure/frame"
)

var (
	// ErrEmitterRequired indicates a tracker was built without an emitter.
	ErrEmitterRequired = errors.New("emitter is required")
	// ErrSchedulerRequired indicates a tracker was built without a frame scheduler.
	ErrSchedulerRequired = errors.New("frame scheduler is required")
)

// Config wires a Tracker's collaborators. Feed, Scheduler, and Emitter are
// required; the rest default sensibly.
type Config struct {
	Feed       Feed
	Scheduler  frame.Scheduler
	Emitter    Emitter
	Journal    Journal
	SessionKey string
	Clock      func() time.Time
	NewID      func() (string, error)
	Logf       func(string, ...any)
}

// Tracker reconciles scroll, settle, and visibility signals for one feed and
// reports each card's viewed event at most once per session.
//
// All host callbacks are serialized by one mutex, mirroring the single
// logical thread of a UI event loop. The network post runs detached: no
// callback, and no reader of the current index, ever waits on it.
type Tracker struct {
	mu         sync.Mutex
	active     bool
	feed       Feed
	scheduler  frame.Scheduler
	sampler    *PositionSampler
	settlement *SettlementDetector
	visibility *VisibilityObserver
	reconciler *IndexReconciler
	recorder   *ExposureRecorder
	journal    Journal
	sessionKey string
	logf       func(string, ...any)
}

// NewTracker builds a tracker for one mounted feed. When a journal is
// configured and the initial session key is non-empty, previously journaled
// item ids seed the posted set so a process restart does not double-post.
func NewTracker(ctx context.Context, cfg Config) (*Tracker, error) {
	if cfg.Feed.Len() == 0 {
		return nil, ErrNoItems
	}
	if cfg.Scheduler == nil {
		return nil, ErrSchedulerRequired
	}
	if cfg.Emitter == nil {
		return nil, ErrEmitterRequired
	}
	logf := cfg.Logf
	if logf == nil {
		logf = log.Printf
	}

	t := &Tracker{
		active:     true,
		feed:       cfg.Feed,
		scheduler:  cfg.Scheduler,
		sampler:    NewPositionSampler(cfg.Feed, cfg.Clock),
		settlement: NewSettlementDetector(cfg.Feed, cfg.Clock),
		visibility: NewVisibilityObserver(cfg.Feed, cfg.Clock),
		reconciler: NewIndexReconciler(cfg.Feed),
		recorder:   NewExposureRecorder(cfg.Emitter, cfg.Journal, cfg.Clock, cfg.NewID),
		journal:    cfg.Journal,
		sessionKey: strings.TrimSpace(cfg.SessionKey),
		logf:       logf,
	}
	t.recorder.logf = logf
	t.recorder.Reset(t.sessionKey, t.seedPostedIDs(ctx, t.sessionKey))
	return t, nil
}

// ScrollOffset receives one raw scroll offset sample. Samples are coalesced
// to at most one evaluation per frame; a newer sample replaces the pending
// one rather than queuing behind it.
func (t *Tracker) ScrollOffset(offset float64) {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	t.sampler.Observe(offset)
	t.mu.Unlock()
	t.scheduler.Schedule(t.evaluateSample)
}

func (t *Tracker) evaluateSample() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	if candidate, ok := t.sampler.Evaluate(); ok {
		t.acceptLocked(candidate)
	}
}

// Settled receives a drag-release or momentum-decay-complete edge.
func (t *Tracker) Settled(offset float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	t.acceptLocked(t.settlement.Settle(offset))
}

// VisibleItemsChanged receives a host snapshot of currently visible items and
// their visible fractions.
func (t *Tracker) VisibleItemsChanged(items []VisibleItem) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	if candidate, ok := t.visibility.Select(items); ok {
		t.acceptLocked(candidate)
	}
}

func (t *Tracker) acceptLocked(candidate Candidate) {
	item, ok := t.reconciler.Accept(candidate)
	if !ok {
		return
	}
	t.recorder.PostIfNew(item, candidate.Source)
}

// SessionChanged swaps in fresh dedup state for the new viewer identity. The
// swap completes before any later candidate is processed, so exposure state
// never leaks across sessions. A repeated key is a no-op: state resets only
// at an actual boundary transition.
func (t *Tracker) SessionChanged(ctx context.Context, sessionKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.active {
		return
	}
	sessionKey = strings.TrimSpace(sessionKey)
	if sessionKey == t.sessionKey {
		return
	}
	t.sessionKey = sessionKey
	t.reconciler.Reset()
	t.sampler.Reset()
	t.recorder.Reset(sessionKey, t.seedPostedIDs(ctx, sessionKey))
}

// seedPostedIDs loads previously journaled item ids for the session. The
// journal is best effort: on error the posted set starts empty and a re-post
// stays possible, which the undercount-over-overcount policy tolerates only
// across restarts, never within a session.
func (t *Tracker) seedPostedIDs(ctx context.Context, sessionKey string) []string {
	if t.journal == nil || sessionKey == "" {
		return nil
	}
	ids, err := t.journal.SessionItemIDs(ctx, sessionKey)
	if err != nil {
		t.logf("seed posted ids for session %s: %v", sessionKey, err)
		return nil
	}
	return ids
}

// Feed returns the tracked feed. Feeds are immutable after construction.
func (t *Tracker) Feed() Feed { return t.feed }

// CurrentIndex returns the authoritative current index, or UnsetIndex before
// any candidate has been accepted.
func (t *Tracker) CurrentIndex() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.reconciler.CurrentIndex()
}

// SessionKey returns the active session key, empty when no session is active.
func (t *Tracker) SessionKey() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionKey
}

// PostedCount returns the number of distinct item ids reported this session.
func (t *Tracker) PostedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recorder.PostedCount()
}

// Close tears the tracker down. Pending frame work is discarded and any
// signal arriving afterwards is a no-op.
func (t *Tracker) Close() {
	t.mu.Lock()
	if !t.active {
		t.mu.Unlock()
		return
	}
	t.active = false
	t.mu.Unlock()
	t.scheduler.Stop()
}
