package domain

import "testing"

func TestSettleAlwaysEmits(t *testing.T) {
	t.Parallel()

	feed := testFeed(t, []string{"a0", "a1", "a2"}, 800)
	detector := NewSettlementDetector(feed, fixedClock())

	first := detector.Settle(1600)
	if first.Index != 2 || first.Source != SourceSettlement {
		t.Fatalf("unexpected candidate %+v", first)
	}

	// Settling at the same position still emits: it confirms the settled
	// index even when nothing changed.
	second := detector.Settle(1600)
	if second.Index != 2 {
		t.Fatalf("expected repeated settle candidate for index 2, got %d", second.Index)
	}
}

func TestSettleClampsOverScroll(t *testing.T) {
	t.Parallel()

	feed := testFeed(t, []string{"a0", "a1", "a2"}, 800)
	detector := NewSettlementDetector(feed, fixedClock())

	if got := detector.Settle(-400).Index; got != 0 {
		t.Fatalf("expected bounce to clamp to 0, got %d", got)
	}
	if got := detector.Settle(5000).Index; got != 2 {
		t.Fatalf("expected over-scroll to clamp to 2, got %d", got)
	}
}
