package app

import (
	"context"

	"github.com/louisbranch/cardstream/internal/exposure/domain"
	"github.com/louisbranch/cardstream/internal/exposure/storage"
	"github.com/louisbranch/cardstream/internal/platform/timeouts"
)

// journalAdapter bridges the domain journal contract to the exposure store.
// It owns the timeout policy for journal I/O, which the domain deliberately
// does not.
type journalAdapter struct {
	store storage.ExposureStore
}

func newJournalAdapter(store storage.ExposureStore) *journalAdapter {
	if store == nil {
		return nil
	}
	return &journalAdapter{store: store}
}

func (a *journalAdapter) RecordExposure(ctx context.Context, exposure domain.Exposure) error {
	if a == nil || a.store == nil {
		return nil
	}
	writeCtx, cancel := context.WithTimeout(ctx, timeouts.JournalWrite)
	defer cancel()
	return a.store.RecordExposure(writeCtx, storage.ExposureRecord{
		ID:         exposure.ID,
		SessionKey: exposure.SessionKey,
		ItemID:     exposure.ItemID,
		Ordinal:    exposure.Ordinal,
		Source:     string(exposure.Source),
		PostedAt:   exposure.PostedAt,
	})
}

func (a *journalAdapter) SessionItemIDs(ctx context.Context, sessionKey string) ([]string, error) {
	if a == nil || a.store == nil {
		return nil, nil
	}
	seedCtx, cancel := context.WithTimeout(ctx, timeouts.SessionSeed)
	defer cancel()
	return a.store.SessionItemIDs(seedCtx, sessionKey)
}
