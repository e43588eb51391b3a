// Package sqlite provides SQLite-backed persistence for the exposure journal.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/cardstream/internal/exposure/storage"
	"github.com/louisbranch/cardstream/internal/exposure/storage/sqlite/migrations"
	sqlitemigrate "github.com/louisbranch/cardstream/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

const defaultListLimit = 100

// Store provides SQLite-backed persistence for exposure and telemetry state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens an exposure SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// RecordExposure persists one journal row. A duplicate session and item pair
// is ignored, keeping the journal idempotent across process restarts.
func (s *Store) RecordExposure(ctx context.Context, record storage.ExposureRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("exposure record id is required")
	}
	if strings.TrimSpace(record.ItemID) == "" {
		return fmt.Errorf("exposure item id is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO exposures (id, session_key, item_id, ordinal, source, posted_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (session_key, item_id) DO NOTHING
`,
		record.ID,
		record.SessionKey,
		record.ItemID,
		record.Ordinal,
		record.Source,
		toMillis(record.PostedAt),
	)
	if err != nil {
		return fmt.Errorf("insert exposure: %w", err)
	}
	return nil
}

// ListExposuresBySession returns journal rows for a session in posting order.
func (s *Store) ListExposuresBySession(ctx context.Context, sessionKey string, limit int) ([]storage.ExposureRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, session_key, item_id, ordinal, source, posted_at
FROM exposures
WHERE session_key = ?
ORDER BY posted_at ASC, item_id ASC
LIMIT ?
`, sessionKey, limit)
	if err != nil {
		return nil, fmt.Errorf("list exposures: %w", err)
	}
	defer rows.Close()

	var records []storage.ExposureRecord
	for rows.Next() {
		var record storage.ExposureRecord
		var postedAt int64
		if err := rows.Scan(&record.ID, &record.SessionKey, &record.ItemID, &record.Ordinal, &record.Source, &postedAt); err != nil {
			return nil, fmt.Errorf("scan exposure: %w", err)
		}
		record.PostedAt = fromMillis(postedAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exposures: %w", err)
	}
	return records, nil
}

// SessionItemIDs returns the distinct item ids journaled for a session.
func (s *Store) SessionItemIDs(ctx context.Context, sessionKey string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT item_id FROM exposures WHERE session_key = ? ORDER BY posted_at ASC", sessionKey)
	if err != nil {
		return nil, fmt.Errorf("list session item ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan item id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item ids: %w", err)
	}
	return ids, nil
}

// AppendTelemetryEvent records one operational telemetry row.
func (s *Store) AppendTelemetryEvent(ctx context.Context, event storage.TelemetryEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(event.Name) == "" {
		return fmt.Errorf("telemetry event name is required")
	}

	_, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO telemetry_events (severity, name, detail, created_at) VALUES (?, ?, ?, ?)",
		event.Severity,
		event.Name,
		event.Detail,
		toMillis(event.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert telemetry event: %w", err)
	}
	return nil
}

// ListTelemetryEvents returns the most recent telemetry rows, newest first.
func (s *Store) ListTelemetryEvents(ctx context.Context, limit int) ([]storage.TelemetryEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, severity, name, detail, created_at
FROM telemetry_events
ORDER BY id DESC
LIMIT ?
`, limit)
	if err != nil {
		return nil, fmt.Errorf("list telemetry events: %w", err)
	}
	defer rows.Close()

	var events []storage.TelemetryEvent
	for rows.Next() {
		var event storage.TelemetryEvent
		var createdAt int64
		if err := rows.Scan(&event.ID, &event.Severity, &event.Name, &event.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan telemetry event: %w", err)
		}
		event.Timestamp = fromMillis(createdAt)
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate telemetry events: %w", err)
	}
	return events, nil
}
