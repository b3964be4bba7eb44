// Package queuestore implements C2, the durable outbox of pending sync
// messages the Sync engine drains (spec §3, §4.1).
package queuestore

import (
	"context"
	"database/sql"
	"fmt"
)

// Entry is one outbox row (spec §3 "Queue Entry").
type Entry struct {
	Queued      *int64 // nil means "not yet dispatched / needs retry"
	Modified    int64
	OTP         string
	Server      string
	ServerNonce string
	Info        string
}

// QueueStore is the C2 capability consumed by the Validator and Sync
// engine.
type QueueStore interface {
	Enqueue(ctx context.Context, e Entry) error
	Dequeue(ctx context.Context, modified int64, serverNonce string) ([]Entry, error)
	Remove(ctx context.Context, server string, modified int64, serverNonce string) error
	NullQueued(ctx context.Context, serverNonce string) error
	ListOrphaned(ctx context.Context) ([]Entry, error)
}

// Store is the Postgres-backed implementation, sharing the counter store's
// connection pool (spec §5: these are the only two durable shared
// resources, backed by the same database).
type Store struct {
	db *sql.DB
}

// New wraps an existing *sql.DB (typically counterstore.Store.DB()).
func New(db *sql.DB) *Store { return &Store{db: db} }

var _ QueueStore = (*Store)(nil)

// Enqueue inserts a new outbox row with queued left NULL, so a background
// drainer (out of scope) can pick it up immediately as well as on retry.
func (s *Store) Enqueue(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO queue (queued, modified, otp, server, server_nonce, info)
		VALUES (NULL, $1, $2, $3, $4, $5)
		ON CONFLICT (server, modified, server_nonce) DO UPDATE SET
			otp = EXCLUDED.otp, info = EXCLUDED.info
	`, e.Modified, e.OTP, e.Server, e.ServerNonce, e.Info)
	if err != nil {
		return fmt.Errorf("queuestore: enqueue: %w", err)
	}
	return nil
}

// Dequeue returns all rows matching (modified, server_nonce) -- one per
// sibling -- for the outbound fan-out (spec §4.4 step 1).
func (s *Store) Dequeue(ctx context.Context, modified int64, serverNonce string) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT queued, modified, otp, server, server_nonce, info
		FROM queue WHERE modified = $1 AND server_nonce = $2
	`, modified, serverNonce)
	if err != nil {
		return nil, fmt.Errorf("queuestore: dequeue: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Remove deletes a row once its sibling's reply has been processed.
func (s *Store) Remove(ctx context.Context, server string, modified int64, serverNonce string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM queue WHERE server = $1 AND modified = $2 AND server_nonce = $3
	`, server, modified, serverNonce)
	if err != nil {
		return fmt.Errorf("queuestore: remove: %w", err)
	}
	return nil
}

// NullQueued clears the queued timestamp for every remaining row of a
// batch so the background drainer retries them (spec §4.4 step 6).
func (s *Store) NullQueued(ctx context.Context, serverNonce string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE queue SET queued = NULL WHERE server_nonce = $1`, serverNonce)
	if err != nil {
		return fmt.Errorf("queuestore: null_queued: %w", err)
	}
	return nil
}

// ListOrphaned returns rows with queued IS NULL, the set a drainer daemon
// (out of scope) would re-drive.
func (s *Store) ListOrphaned(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT queued, modified, otp, server, server_nonce, info FROM queue WHERE queued IS NULL
	`)
	if err != nil {
		return nil, fmt.Errorf("queuestore: list_orphaned: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Queued, &e.Modified, &e.OTP, &e.Server, &e.ServerNonce, &e.Info); err != nil {
			return nil, fmt.Errorf("queuestore: scan: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
