// Package clientstore implements the external client registry the
// Validator consults to resolve a client_id to its secret (spec §3
// "Client Record", §6 "clients" table). It is not part of the core spec's
// components (C1-C7) but is the natural Postgres-backed counterpart to
// internal/counterstore, sharing its connection pool.
package clientstore

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/timhilliard/yubistack/internal/validator"
)

// Store is a Postgres-backed validator.ClientLookup over the "clients"
// table (spec §6), sharing the Counter Store's connection pool (spec §5:
// "Counter Store and Queue Store are the only durable shared state" --
// clients is a third table in the same database, not a separate shared
// resource).
type Store struct {
	db *sql.DB
}

// New wraps an existing *sql.DB (typically counterstore.Store.DB()).
func New(db *sql.DB) *Store { return &Store{db: db} }

var _ validator.ClientLookup = (*Store)(nil)

// Lookup implements validator.ClientLookup.
func (s *Store) Lookup(ctx context.Context, id int) (validator.Client, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, secret, active FROM clients WHERE id = $1`, id)

	var (
		clientID int
		secretB64 string
		active   bool
	)
	if err := row.Scan(&clientID, &secretB64, &active); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return validator.Client{}, validator.ErrClientNotFound
		}
		return validator.Client{}, fmt.Errorf("clientstore: lookup: %w", err)
	}

	var secret []byte
	if secretB64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(secretB64)
		if err != nil {
			return validator.Client{}, fmt.Errorf("clientstore: decode secret for client %d: %w", id, err)
		}
		secret = decoded
	}

	return validator.Client{ID: clientID, Secret: secret, Active: active}, nil
}
