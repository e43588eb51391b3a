// Package telemetry records operational events for the tracker service.
package telemetry

import (
	"context"
	"time"

	"github.com/louisbranch/cardstream/internal/exposure/storage"
)

// Severity describes the telemetry severity level.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// Emitter records operational telemetry events.
type Emitter struct {
	store storage.TelemetryStore
	clock func() time.Time
}

// NewEmitter creates a new telemetry emitter.
func NewEmitter(store storage.TelemetryStore) *Emitter {
	return &Emitter{store: store, clock: time.Now}
}

// Emit records a telemetry event. It is a no-op when the store is nil.
func (e *Emitter) Emit(ctx context.Context, severity Severity, name, detail string) error {
	if e == nil || e.store == nil {
		return nil
	}
	clock := e.clock
	if clock == nil {
		clock = time.Now
	}
	return e.store.AppendTelemetryEvent(ctx, storage.TelemetryEvent{
		Severity:  string(severity),
		Name:      name,
		Detail:    detail,
		Timestamp: clock().UTC(),
	})
}
