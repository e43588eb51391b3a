package domain

import "time"

// VisibilityThreshold is the visible fraction at which an item counts as in
// view.
const VisibilityThreshold = 0.5

// VisibilityObserver selects candidates from host-computed visibility
// snapshots. It does not derive from offset math, so it is authoritative
// immediately after mount, before any scroll occurs, and near item boundaries
// where offset rounding is ambiguous.
type VisibilityObserver struct {
	feed  Feed
	clock func() time.Time
}

// NewVisibilityObserver builds an observer over the feed.
func NewVisibilityObserver(feed Feed, clock func() time.Time) *VisibilityObserver {
	if clock == nil {
		clock = time.Now
	}
	return &VisibilityObserver{feed: feed, clock: clock}
}

// Select returns a candidate for the first snapshot item whose visible
// fraction crosses the threshold, if any.
func (o *VisibilityObserver) Select(items []VisibleItem) (Candidate, bool) {
	for _, item := range items {
		if item.Fraction < VisibilityThreshold {
			continue
		}
		return Candidate{
			Source: SourceVisibility,
			Index:  o.feed.ClampIndex(item.Ordinal),
			At:     o.clock(),
		}, true
	}
	return Candidate{}, false
}
