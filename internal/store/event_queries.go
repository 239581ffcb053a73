package store

import (
	"context"

	"github.com/tangle-rdb/ingester/internal/errs"
)

const eventInsertQuery = `INSERT INTO txload (event, count, timestamp) VALUES (?, ?, ?)`

// EventStore appends to the txload stream, the one append-only table in
// the schema.
type EventStore struct{ db *DB }

// NewEventStore wraps db for txload row access.
func NewEventStore(db *DB) *EventStore { return &EventStore{db: db} }

// Record appends one event tag with its count and timestamp (ms).
func (s *EventStore) Record(ctx context.Context, tag string, count int, timestampMs float64) error {
	return s.db.withRetry(ctx, func() error {
		_, err := s.db.sql.ExecContext(ctx, eventInsertQuery, tag, count, timestampMs)
		if err != nil {
			return errs.Store("event.insert", err)
		}
		return nil
	})
}
