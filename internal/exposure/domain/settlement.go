package domain

import "time"

// SettlementDetector converts drag-release and momentum-decay edges into
// candidates. Unlike the sampler it always emits, even when the index equals
// its previous one: a settled position is non-transient and corrects any
// index missed during fast flicks.
type SettlementDetector struct {
	feed  Feed
	clock func() time.Time
}

// NewSettlementDetector builds a detector over the feed.
func NewSettlementDetector(feed Feed, clock func() time.Time) *SettlementDetector {
	if clock == nil {
		clock = time.Now
	}
	return &SettlementDetector{feed: feed, clock: clock}
}

// Settle converts a settle-edge offset into a confirmation candidate.
func (d *SettlementDetector) Settle(offset float64) Candidate {
	return Candidate{
		Source: SourceSettlement,
		Index:  d.feed.IndexForOffset(offset),
		At:     d.clock(),
	}
}
