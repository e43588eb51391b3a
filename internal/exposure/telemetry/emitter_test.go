package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/cardstream/internal/exposure/storage"
)

type captureStore struct {
	events []storage.TelemetryEvent
}

func (c *captureStore) AppendTelemetryEvent(_ context.Context, event storage.TelemetryEvent) error {
	c.events = append(c.events, event)
	return nil
}

func (c *captureStore) ListTelemetryEvents(context.Context, int) ([]storage.TelemetryEvent, error) {
	return c.events, nil
}

func TestEmitRecordsEventWithTimestamp(t *testing.T) {
	t.Parallel()

	store := &captureStore{}
	emitter := NewEmitter(store)
	at := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	emitter.clock = func() time.Time { return at }

	if err := emitter.Emit(context.Background(), SeverityInfo, "feed.registered", `{"feed":"home"}`); err != nil {
		t.Fatalf("emit: %v", err)
	}

	if len(store.events) != 1 {
		t.Fatalf("expected one event, got %d", len(store.events))
	}
	event := store.events[0]
	if event.Severity != "INFO" || event.Name != "feed.registered" {
		t.Fatalf("unexpected event %+v", event)
	}
	if !event.Timestamp.Equal(at) {
		t.Fatalf("expected timestamp %v, got %v", at, event.Timestamp)
	}
}

func TestEmitNilEmitterAndStoreAreNoOps(t *testing.T) {
	t.Parallel()

	var emitter *Emitter
	if err := emitter.Emit(context.Background(), SeverityInfo, "x", ""); err != nil {
		t.Fatalf("nil emitter: %v", err)
	}

	empty := NewEmitter(nil)
	if err := empty.Emit(context.Background(), SeverityWarn, "x", ""); err != nil {
		t.Fatalf("nil store: %v", err)
	}
}
