package repository

import (
	"context"

	"github.com/trevyn/lumabot/internal/domain"
)

// EventRepository defines the interface for event storage operations.
//
// Writes are idempotent under repeated ingestion runs: a row is keyed by its
// event UID and, once present, only the enrichment identifier may change,
// and only from absent to present. Read paths surface the live retention
// window only; storage may keep historical rows indefinitely.
type EventRepository interface {
	// InitSchema creates the events table if needed and runs the guarded
	// enrichment-column migration.
	InitSchema(ctx context.Context) error

	// SaveEvent upserts a single event by its UID.
	SaveEvent(ctx context.Context, event *domain.Event) error

	// SaveEvents upserts events one by one; a failure on one event is logged
	// and does not halt the rest. Returns the count of applied rows.
	SaveEvents(ctx context.Context, events []*domain.Event) (int, error)

	// GetLiveEvents returns all retained events ordered by start ascending.
	GetLiveEvents(ctx context.Context) ([]*domain.Event, error)

	// CountLiveEvents returns the number of retained rows.
	CountLiveEvents(ctx context.Context) (int64, error)

	// ClearEvents removes all rows and returns the number removed.
	ClearEvents(ctx context.Context) (int64, error)

	// Ping checks if the database connection is alive.
	Ping(ctx context.Context) error

	// Close closes the repository and releases resources.
	Close() error
}
