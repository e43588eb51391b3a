package domain

import "time"

// PositionSampler converts frame-throttled raw scroll offsets into candidate
// indices. A pending offset not yet evaluated is replaced by newer ones, so
// each evaluation observes only the most recent sample.
//
// The sampler is not safe for concurrent use; the Tracker serializes access.
type PositionSampler struct {
	feed       Feed
	pending    float64
	hasPending bool
	lastIndex  int
	clock      func() time.Time
}

// NewPositionSampler builds a sampler over the feed.
func NewPositionSampler(feed Feed, clock func() time.Time) *PositionSampler {
	if clock == nil {
		clock = time.Now
	}
	return &PositionSampler{feed: feed, lastIndex: UnsetIndex, clock: clock}
}

// Observe stores a raw offset for the next frame evaluation, replacing any
// value not yet evaluated.
func (s *PositionSampler) Observe(offset float64) {
	s.pending = offset
	s.hasPending = true
}

// Evaluate consumes the pending offset and returns a candidate when the
// computed index differs from the last index this sampler itself emitted.
// Global de-duplication happens downstream in the reconciler.
func (s *PositionSampler) Evaluate() (Candidate, bool) {
	if !s.hasPending {
		return Candidate{}, false
	}
	s.hasPending = false
	index := s.feed.IndexForOffset(s.pending)
	if index == s.lastIndex {
		return Candidate{}, false
	}
	s.lastIndex = index
	return Candidate{Source: SourceSampler, Index: index, At: s.clock()}, true
}

// Reset clears the sampler's local duplicate filter and pending sample at a
// session boundary.
func (s *PositionSampler) Reset() {
	s.lastIndex = UnsetIndex
	s.hasPending = false
}
