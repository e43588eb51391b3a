// Package frame provides render-frame scheduling for trailing-edge throttles.
//
// A Scheduler owns at most one pending callback. Scheduling while a callback
// is already pending replaces it, so rapid bursts coalesce into a single
// evaluation that observes only the most recent state.
package frame

import (
	"sync"
	"time"
)

// DefaultInterval approximates one frame at a 60Hz display refresh rate.
const DefaultInterval = 16 * time.Millisecond

// Scheduler runs at most one pending callback per frame.
type Scheduler interface {
	// Schedule queues fn for the next frame, replacing any pending callback.
	Schedule(fn func())
	// Stop discards pending work and releases scheduler resources. Calls to
	// Schedule after Stop are no-ops.
	Stop()
}

// TickerScheduler drives pending callbacks from a time.Ticker goroutine.
type TickerScheduler struct {
	mu      sync.Mutex
	pending func()
	stopped bool
	done    chan struct{}
}

// NewTickerScheduler starts a scheduler ticking at the given frame interval.
// A non-positive interval falls back to DefaultInterval.
func NewTickerScheduler(interval time.Duration) *TickerScheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &TickerScheduler{done: make(chan struct{})}
	go s.loop(interval)
	return s
}

func (s *TickerScheduler) loop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.mu.Lock()
			fn := s.pending
			s.pending = nil
			s.mu.Unlock()
			if fn != nil {
				fn()
			}
		}
	}
}

// Schedule queues fn for the next tick, replacing any pending callback.
func (s *TickerScheduler) Schedule(fn func()) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pending = fn
}

// Stop halts the tick loop and discards any pending callback.
func (s *TickerScheduler) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.pending = nil
	s.mu.Unlock()
	close(s.done)
}

// ManualScheduler advances frames explicitly. It exists for tests and for
// hosts that drive their own frame clock.
type ManualScheduler struct {
	mu      sync.Mutex
	pending func()
	stopped bool
}

// Schedule queues fn for the next Advance, replacing any pending callback.
func (s *ManualScheduler) Schedule(fn func()) {
	if s == nil || fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.pending = fn
}

// Advance runs the pending callback, if any, and reports whether one ran.
func (s *ManualScheduler) Advance() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	fn := s.pending
	s.pending = nil
	s.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Stop discards pending work and rejects further scheduling.
func (s *ManualScheduler) Stop() {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	s.pending = nil
}
