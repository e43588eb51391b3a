package domain

// UnsetIndex is the sentinel meaning no candidate has been accepted yet.
const UnsetIndex = -1

// IndexReconciler merges the three candidate streams into one authoritative
// current index. It is a single-variable state machine: a candidate equal to
// the current index is dropped, any other candidate wins regardless of
// source. Ties resolve by arrival order, not source priority.
type IndexReconciler struct {
	feed Feed
	last int
}

// NewIndexReconciler builds a reconciler over the feed.
func NewIndexReconciler(feed Feed) *IndexReconciler {
	return &IndexReconciler{feed: feed, last: UnsetIndex}
}

// Accept applies one candidate. It returns the item to report and true when
// the candidate changed the current index. Candidates resolving to an item
// without an id are dropped without changing state.
func (r *IndexReconciler) Accept(c Candidate) (Item, bool) {
	index := r.feed.ClampIndex(c.Index)
	if index == r.last {
		return Item{}, false
	}
	item, ok := r.feed.Item(index)
	if !ok || item.ID == "" {
		return Item{}, false
	}
	r.last = index
	return item, true
}

// CurrentIndex returns the most recently accepted index, or UnsetIndex.
func (r *IndexReconciler) CurrentIndex() int { return r.last }

// Reset clears the accepted index at a session boundary.
func (r *IndexReconciler) Reset() { r.last = UnsetIndex }
