package frame

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestManualSchedulerCoalescesPendingWork(t *testing.T) {
	t.Parallel()

	var s ManualScheduler
	var got int
	for i := 1; i <= 5; i++ {
		value := i
		s.Schedule(func() { got = value })
	}

	if !s.Advance() {
		t.Fatal("expected pending callback to run")
	}
	if got != 5 {
		t.Fatalf("expected last scheduled value 5, got %d", got)
	}
	if s.Advance() {
		t.Fatal("expected no second callback after coalescing")
	}
}

func TestManualSchedulerStopDiscardsPending(t *testing.T) {
	t.Parallel()

	var s ManualScheduler
	ran := false
	s.Schedule(func() { ran = true })
	s.Stop()

	if s.Advance() {
		t.Fatal("expected no callback after stop")
	}
	if ran {
		t.Fatal("expected pending callback to be discarded")
	}

	s.Schedule(func() { ran = true })
	if s.Advance() {
		t.Fatal("expected schedule after stop to be a no-op")
	}
}

func TestTickerSchedulerRunsPendingCallback(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Millisecond)
	defer s.Stop()

	done := make(chan struct{})
	s.Schedule(func() { close(done) })

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for scheduled callback")
	}
}

func TestTickerSchedulerStopIsIdempotent(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(time.Millisecond)
	s.Stop()
	s.Stop()

	var ran atomic.Bool
	s.Schedule(func() { ran.Store(true) })
	time.Sleep(10 * time.Millisecond)
	if ran.Load() {
		t.Fatal("expected schedule after stop to be a no-op")
	}
}
