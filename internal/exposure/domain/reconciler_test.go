package domain

import "testing"

func TestReconcilerForwardsOncePerTransition(t *testing.T) {
	t.Parallel()

	feed := testFeed(t, []string{"a0", "a1", "a2"}, 800)
	reconciler := NewIndexReconciler(feed)

	sequence := []int{0, 0, 1, 1, 1, 2, 2, 1}
	var forwarded []int
	for _, index := range sequence {
		if item, ok := reconciler.Accept(Candidate{Source: SourceSampler, Index: index}); ok {
			forwarded = append(forwarded, item.Ordinal)
		}
	}

	want := []int{0, 1, 2, 1}
	if len(forwarded) != len(want) {
		t.Fatalf("expected %d transitions, got %d (%v)", len(want), len(forwarded), forwarded)
	}
	for i := range want {
		if forwarded[i] != want[i] {
			t.Fatalf("transition %d: expected index %d, got %d", i, want[i], forwarded[i])
		}
	}
	// No two consecutive forwards carry the same index.
	for i := 1; i < len(forwarded); i++ {
		if forwarded[i] == forwarded[i-1] {
			t.Fatalf("consecutive forwards with same index %d", forwarded[i])
		}
	}
}

func TestReconcilerNoSourceIsPrivileged(t *testing.T) {
	t.Parallel()

	feed := testFeed(t, []string{"a0", "a1", "a2"}, 800)
	reconciler := NewIndexReconciler(feed)

	// Last writer wins regardless of source; arrival order decides ties.
	if _, ok := reconciler.Accept(Candidate{Source: SourceVisibility, Index: 0}); !ok {
		t.Fatal("expected visibility candidate to be accepted")
	}
	if _, ok := reconciler.Accept(Candidate{Source: SourceSettlement, Index: 0}); ok {
		t.Fatal("expected equal index to be dropped regardless of source")
	}
	if _, ok := reconciler.Accept(Candidate{Source: SourceSampler, Index: 2}); !ok {
		t.Fatal("expected sampler candidate to overwrite")
	}
	if got := reconciler.CurrentIndex(); got != 2 {
		t.Fatalf("expected current index 2, got %d", got)
	}
}

func TestReconcilerClampsCandidateIndex(t *testing.T) {
	t.Parallel()

	feed := testFeed(t, []string{"a0", "a1"}, 800)
	reconciler := NewIndexReconciler(feed)

	item, ok := reconciler.Accept(Candidate{Source: SourceSampler, Index: -4})
	if !ok || item.Ordinal != 0 {
		t.Fatalf("expected negative index to clamp to 0, got %+v ok=%v", item, ok)
	}
	item, ok = reconciler.Accept(Candidate{Source: SourceSampler, Index: 99})
	if !ok || item.Ordinal != 1 {
		t.Fatalf("expected oversized index to clamp to 1, got %+v ok=%v", item, ok)
	}
}

func TestReconcilerDropsBlankItemID(t *testing.T) {
	t.Parallel()

	feed := testFeed(t, []string{"a0", "  ", "a2"}, 800)
	reconciler := NewIndexReconciler(feed)

	if _, ok := reconciler.Accept(Candidate{Source: SourceSampler, Index: 1}); ok {
		t.Fatal("expected blank-id candidate to be dropped")
	}
	// State did not move: the next real candidate still transitions.
	if got := reconciler.CurrentIndex(); got != UnsetIndex {
		t.Fatalf("expected unset index after dropped candidate, got %d", got)
	}
	if _, ok := reconciler.Accept(Candidate{Source: SourceSampler, Index: 2}); !ok {
		t.Fatal("expected candidate after drop to be accepted")
	}
}

func TestReconcilerResetClearsIndex(t *testing.T) {
	t.Parallel()

	feed := testFeed(t, []string{"a0", "a1"}, 800)
	reconciler := NewIndexReconciler(feed)

	if _, ok := reconciler.Accept(Candidate{Source: SourceSampler, Index: 1}); !ok {
		t.Fatal("expected candidate to be accepted")
	}
	reconciler.Reset()
	if got := reconciler.CurrentIndex(); got != UnsetIndex {
		t.Fatalf("expected unset index after reset, got %d", got)
	}
	if _, ok := reconciler.Accept(Candidate{Source: SourceSampler, Index: 1}); !ok {
		t.Fatal("expected same index to be accepted after reset")
	}
}
