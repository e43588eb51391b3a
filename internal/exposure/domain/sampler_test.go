package domain

import (
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestSamplerEvaluateUsesLastObservedValue(t *testing.T) {
	t.Parallel()

	feed := testFeed(t, []string{"a0", "a1", "a2", "a3", "a4"}, 800)
	sampler := NewPositionSampler(feed, fixedClock())

	// A burst within one frame window: only the last value counts.
	for _, offset := range []float64{100, 900, 1700, 3100} {
		sampler.Observe(offset)
	}

	candidate, ok := sampler.Evaluate()
	if !ok {
		t.Fatal("expected a candidate")
	}
	if candidate.Index != 4 {
		t.Fatalf("expected index 4 from last offset, got %d", candidate.Index)
	}
	if candidate.Source != SourceSampler {
		t.Fatalf("expected sampler source, got %s", candidate.Source)
	}

	// The burst was coalesced: nothing left to evaluate.
	if _, ok := sampler.Evaluate(); ok {
		t.Fatal("expected no second candidate without a new observation")
	}
}

func TestSamplerFiltersRepeatedIndexLocally(t *testing.T) {
	t.Parallel()

	feed := testFeed(t, []string{"a0", "a1", "a2"}, 800)
	sampler := NewPositionSampler(feed, fixedClock())

	sampler.Observe(800)
	if _, ok := sampler.Evaluate(); !ok {
		t.Fatal("expected first candidate")
	}

	// Same index again: filtered by the sampler itself.
	sampler.Observe(810)
	if _, ok := sampler.Evaluate(); ok {
		t.Fatal("expected repeated index to be filtered")
	}

	sampler.Observe(1600)
	candidate, ok := sampler.Evaluate()
	if !ok || candidate.Index != 2 {
		t.Fatalf("expected index 2 candidate, got %+v ok=%v", candidate, ok)
	}
}

func TestSamplerResetClearsFilterAndPending(t *testing.T) {
	t.Parallel()

	feed := testFeed(t, []string{"a0", "a1"}, 800)
	sampler := NewPositionSampler(feed, fixedClock())

	sampler.Observe(800)
	if _, ok := sampler.Evaluate(); !ok {
		t.Fatal("expected candidate before reset")
	}

	sampler.Observe(820)
	sampler.Reset()

	// Pending sample is gone.
	if _, ok := sampler.Evaluate(); ok {
		t.Fatal("expected reset to discard pending sample")
	}

	// Local filter is gone: the same index emits again.
	sampler.Observe(800)
	candidate, ok := sampler.Evaluate()
	if !ok || candidate.Index != 1 {
		t.Fatalf("expected index 1 after reset, got %+v ok=%v", candidate, ok)
	}
}
