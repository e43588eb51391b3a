package domain

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/louisbranch/cardstream/internal/platform/id"
)

// Emitter posts one viewed event to the progress backend.
type Emitter interface {
	Emit(ctx context.Context, itemID string) error
}

// Journal durably records posted exposures. Implementations must tolerate
// duplicate records for the same session and item.
type Journal interface {
	RecordExposure(ctx context.Context, exposure Exposure) error
	SessionItemIDs(ctx context.Context, sessionKey string) ([]string, error)
}

// Exposure is one posted viewed event.
type Exposure struct {
	ID         string
	SessionKey string
	ItemID     string
	Ordinal    int
	Source     Source
	PostedAt   time.Time
}

// ExposureRecorder is the session-scoped idempotency gate in front of the
// emitter. An item id enters the posted set synchronously, before any
// asynchronous work starts, which closes the race window between two
// near-simultaneous duplicate candidates for the same id.
type ExposureRecorder struct {
	emitter    Emitter
	journal    Journal
	posted     map[string]struct{}
	sessionKey string
	clock      func() time.Time
	newID      func() (string, error)
	spawn      func(func())
	logf       func(string, ...any)
}

// NewExposureRecorder builds a recorder with an empty posted set. The journal
// is optional.
func NewExposureRecorder(emitter Emitter, journal Journal, clock func() time.Time, newID func() (string, error)) *ExposureRecorder {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &ExposureRecorder{
		emitter: emitter,
		journal: journal,
		posted:  make(map[string]struct{}),
		clock:   clock,
		newID:   newID,
		spawn:   func(fn func()) { go fn() },
		logf:    log.Printf,
	}
}

// PostIfNew reports the item's viewed event unless its id was already posted
// this session. The emit is fire-and-forget: a failure is logged and never
// retried, and the id stays in the posted set. A missed emission is preferred
// over a duplicate one.
func (r *ExposureRecorder) PostIfNew(item Item, source Source) {
	if r == nil || r.emitter == nil {
		return
	}
	itemID := strings.TrimSpace(item.ID)
	if itemID == "" {
		return
	}
	if _, ok := r.posted[itemID]; ok {
		return
	}
	r.posted[itemID] = struct{}{}

	exposure := Exposure{
		SessionKey: r.sessionKey,
		ItemID:     itemID,
		Ordinal:    item.Ordinal,
		Source:     source,
		PostedAt:   r.clock().UTC(),
	}
	if recordID, err := r.newID(); err == nil {
		exposure.ID = recordID
	} else {
		r.logf("exposure record id: %v", err)
	}

	r.spawn(func() {
		if err := r.emitter.Emit(context.Background(), itemID); err != nil {
			r.logf("emit viewed event for %s: %v", itemID, err)
		}
		if r.journal == nil || exposure.ID == "" {
			return
		}
		if err := r.journal.RecordExposure(context.Background(), exposure); err != nil {
			r.logf("journal exposure for %s: %v", itemID, err)
		}
	})
}

// Posted reports whether the item id was already reported this session.
func (r *ExposureRecorder) Posted(itemID string) bool {
	_, ok := r.posted[strings.TrimSpace(itemID)]
	return ok
}

// PostedCount returns the number of distinct ids reported this session.
func (r *ExposureRecorder) PostedCount() int { return len(r.posted) }

// Reset replaces the posted set with fresh state for a new session. The seed
// pre-populates it, letting a restarted process keep its at-most-once
// behavior for sessions with a prior journal.
func (r *ExposureRecorder) Reset(sessionKey string, seed []string) {
	r.sessionKey = sessionKey
	r.posted = make(map[string]struct{}, len(seed))
	for _, itemID := range seed {
		itemID = strings.TrimSpace(itemID)
		if itemID == "" {
			continue
		}
		r.posted[itemID] = struct{}{}
	}
}
