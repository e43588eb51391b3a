// Package storage defines the persistence boundary for the exposure journal
// and operational telemetry.
package storage

import (
	"context"
	"time"
)

// ExposureRecord is one journaled viewed event.
type ExposureRecord struct {
	ID         string
	SessionKey string
	ItemID     string
	Ordinal    int
	Source     string
	PostedAt   time.Time
}

// ExposureStore persists the exposure journal. Recording the same session
// and item pair twice is a no-op, mirroring the in-memory idempotency gate.
type ExposureStore interface {
	RecordExposure(ctx context.Context, record ExposureRecord) error
	ListExposuresBySession(ctx context.Context, sessionKey string, limit int) ([]ExposureRecord, error)
	SessionItemIDs(ctx context.Context, sessionKey string) ([]string, error)
}

// TelemetryEvent is one operational telemetry record.
type TelemetryEvent struct {
	ID        int64
	Severity  string
	Name      string
	Detail    string
	Timestamp time.Time
}

// TelemetryStore appends operational telemetry events.
type TelemetryStore interface {
	AppendTelemetryEvent(ctx context.Context, event TelemetryEvent) error
	ListTelemetryEvents(ctx context.Context, limit int) ([]TelemetryEvent, error)
}
