package domain

import (
	"errors"
	"math"
	"strings"
)

var (
	// ErrNoItems indicates a feed was built without items.
	ErrNoItems = errors.New("feed requires at least one item")
	// ErrInvalidExtent indicates a non-positive or non-finite item extent.
	ErrInvalidExtent = errors.New("feed item extent must be a positive finite number")
)

// Item is one card in a feed. Ordinal is its position in feed order and
// determines the default offset-to-index mapping.
type Item struct {
	ID      string
	Ordinal int
}

// Feed is an ordered list of uniformly sized cards.
type Feed struct {
	items  []Item
	extent float64
}

// NewFeed builds a feed from items in feed order with a uniform item extent
// in logical units. Item ordinals are normalized to slice positions.
func NewFeed(items []Item, extent float64) (Feed, error) {
	if len(items) == 0 {
		return Feed{}, ErrNoItems
	}
	if extent <= 0 || math.IsNaN(extent) || math.IsInf(extent, 0) {
		return Feed{}, ErrInvalidExtent
	}
	normalized := make([]Item, len(items))
	for i, item := range items {
		normalized[i] = Item{ID: strings.TrimSpace(item.ID), Ordinal: i}
	}
	return Feed{items: normalized, extent: extent}, nil
}

// Len returns the number of items in the feed.
func (f Feed) Len() int { return len(f.items) }

// Extent returns the uniform item extent in logical units.
func (f Feed) Extent() float64 { return f.extent }

// IndexForOffset maps a raw scroll offset to the nearest item index, clamped
// to the feed bounds. Over-scroll and bounce offsets outside the feed resolve
// to the boundary items.
func (f Feed) IndexForOffset(offset float64) int {
	if len(f.items) == 0 || f.extent <= 0 || math.IsNaN(offset) {
		return 0
	}
	return f.ClampIndex(int(math.Round(offset / f.extent)))
}

// ClampIndex bounds index to [0, Len-1].
func (f Feed) ClampIndex(index int) int {
	if index < 0 {
		return 0
	}
	if index > len(f.items)-1 {
		return len(f.items) - 1
	}
	return index
}

// Item returns the item at index.
func (f Feed) Item(index int) (Item, bool) {
	if index < 0 || index >= len(f.items) {
		return Item{}, false
	}
	return f.items[index], true
}
