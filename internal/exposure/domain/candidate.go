package domain

import "time"

// Source identifies which signal path proposed a candidate index.
type Source string

const (
	// SourceSampler marks candidates derived from throttled scroll offsets.
	SourceSampler Source = "sampler"
	// SourceSettlement marks candidates from drag-release and momentum-decay edges.
	SourceSettlement Source = "settlement"
	// SourceVisibility marks candidates from host visibility snapshots.
	SourceVisibility Source = "visibility"
)

// Candidate is one proposal for the current feed index.
type Candidate struct {
	Source Source
	Index  int
	At     time.Time
}

// VisibleItem is one entry of a host visibility snapshot.
type VisibleItem struct {
	ID       string
	Ordinal  int
	Fraction float64
}
