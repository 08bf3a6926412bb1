// Package history keeps a rolling, session-scoped log of past
// predictions in Redis. Each record lives under its own time-to-live;
// a per-session index list caps how many records stay reachable.
//
// Every operation is best-effort from the caller's perspective: the
// prediction path must never fail because the backing store is down.
package history

import (
	"context"
	"errors"

	"github.com/siakad-labs/kbk-classifier/internal/domain"
)

// ErrUnavailable marks history operations that failed because the
// backing store is unreachable or its circuit is open.
var ErrUnavailable = errors.New("history store unavailable")

// Store defines session-scoped history operations.
type Store interface {
	// Append writes a record with a fresh unique id, pushes the id onto
	// the front of the session index, refreshes the index TTL, and
	// truncates the index to the size cap. Returns the record id.
	Append(ctx context.Context, sessionID string, rec domain.HistoryRecord) (string, error)

	// List returns up to limit records, newest-first. Ids whose record
	// has already expired are skipped, not errors.
	List(ctx context.Context, sessionID string, limit int) ([]domain.HistoryRecord, error)

	// DeleteOne removes one record and its index entry. Deleting an
	// absent id reports false, not an error.
	DeleteOne(ctx context.Context, sessionID, recordID string) (bool, error)

	// Clear deletes every indexed record then the index itself,
	// returning the number of records deleted.
	Clear(ctx context.Context, sessionID string) (int, error)

	// HealthCheck probes the backing store. It never returns an error;
	// any connectivity failure is false.
	HealthCheck(ctx context.Context) bool

	// Close releases the backing connection.
	Close() error
}
