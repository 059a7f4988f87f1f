package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/trevyn/lumabot/internal/domain"
	"github.com/trevyn/lumabot/internal/retention"
)

// Repository implements repository.EventRepository for Postgres.
type Repository struct {
	client    *Client
	retention *retention.Filter
	log       *zap.Logger
}

// NewRepository creates a new Postgres repository. The retention filter
// decides the cutoff applied to every read path.
func NewRepository(client *Client, filter *retention.Filter, log *zap.Logger) *Repository {
	return &Repository{
		client:    client,
		retention: filter,
		log:       log,
	}
}

// InitSchema creates the events table and runs the guarded api_id migration.
// Both steps are idempotent; the migration checks information_schema before
// altering so re-runs against an already-migrated database are no-ops.
func (r *Repository) InitSchema(ctx context.Context) error {
	createTable := `
	CREATE TABLE IF NOT EXISTS events (
		id SERIAL PRIMARY KEY,
		summary TEXT NOT NULL,
		description TEXT,
		location TEXT,
		start_time TIMESTAMP WITH TIME ZONE NOT NULL,
		end_time TIMESTAMP WITH TIME ZONE NOT NULL,
		url TEXT,
		event_uid TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`

	if _, err := r.client.SQL().ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("failed to create events table: %w", err)
	}

	var columnExists bool
	err := r.client.SQL().QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.columns
			WHERE table_name = 'events' AND column_name = 'api_id'
		)`).Scan(&columnExists)
	if err != nil {
		return fmt.Errorf("failed to check api_id column: %w", err)
	}

	if !columnExists {
		r.log.Info("Adding api_id column to events table")
		if _, err := r.client.SQL().ExecContext(ctx, `ALTER TABLE events ADD COLUMN api_id TEXT`); err != nil {
			return fmt.Errorf("failed to add api_id column: %w", err)
		}
	}

	r.log.Info("Postgres schema initialized")
	return nil
}

const upsertQuery = `
	INSERT INTO events (summary, description, location, start_time, end_time, url, event_uid, api_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (event_uid) DO UPDATE SET api_id = EXCLUDED.api_id
	WHERE events.api_id IS NULL`

// SaveEvent upserts one event keyed by its UID. On conflict only api_id is
// written, and only when the stored value is still NULL: re-ingesting a feed
// never overwrites a value set by a human or an earlier enrichment run.
//
// The statement runs on the raw sql.DB handle so the $n placeholders bind.
func (r *Repository) SaveEvent(ctx context.Context, event *domain.Event) error {
	_, err := r.client.SQL().ExecContext(ctx, upsertQuery,
		event.Summary,
		nullable(event.Description),
		nullable(event.Location),
		event.Start,
		event.End,
		nullable(domain.CleanString(event.URL)),
		event.EventUID,
		nullable(event.APIID),
	)
	if err != nil {
		return fmt.Errorf("failed to save event %s: %w", event.EventUID, err)
	}
	return nil
}

// SaveEvents applies the single-event upsert per event. A failure on one
// event is logged and does not halt the remaining events; the returned count
// is the number of successfully applied rows.
func (r *Repository) SaveEvents(ctx context.Context, events []*domain.Event) (int, error) {
	saved := 0
	for _, event := range events {
		if err := r.SaveEvent(ctx, event); err != nil {
			r.log.Warn("Failed to save event",
				zap.String("event_uid", event.EventUID),
				zap.Error(err))
			continue
		}
		saved++
	}
	return saved, nil
}

// GetLiveEvents returns all retained events ordered by start ascending.
// Rows pass through domain.Restore so stored identities are kept verbatim
// and URLs are re-sanitized on the way out.
func (r *Repository) GetLiveEvents(ctx context.Context) ([]*domain.Event, error) {
	var rows []*domain.Event
	err := r.client.DB().NewSelect().
		Model(&rows).
		Where("end_time >= ?", r.retention.Cutoff()).
		Order("start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}

	events := make([]*domain.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, domain.Restore(
			row.Summary, row.Description, row.Location,
			row.Start, row.End,
			row.URL, row.EventUID, row.APIID))
	}

	return events, nil
}

// CountLiveEvents returns the number of retained rows.
func (r *Repository) CountLiveEvents(ctx context.Context) (int64, error) {
	count, err := r.client.DB().NewSelect().
		Model((*domain.Event)(nil)).
		Where("end_time >= ?", r.retention.Cutoff()).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return int64(count), nil
}

// ClearEvents removes all rows, returning the number removed.
func (r *Repository) ClearEvents(ctx context.Context) (int64, error) {
	res, err := r.client.DB().NewDelete().
		Model((*domain.Event)(nil)).
		Where("1 = 1").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to clear events: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read cleared row count: %w", err)
	}
	return removed, nil
}

// Ping checks if the database connection is alive.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.DB().PingContext(ctx)
}

// Close closes the underlying connection pool.
func (r *Repository) Close() error {
	return r.client.Close()
}

// nullable maps an empty optional field to SQL NULL. The upsert guard
// depends on absent api_id values being NULL, not empty strings.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
