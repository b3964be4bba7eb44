package counterstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"cosmossdk.io/log"
)

//go:embed schema.sql
var schemaFile embed.FS

// Config holds database connection pool configuration.
type Config struct {
	DSN            string
	MaxConnections int
	MaxIdle        int
	ConnMaxLife    time.Duration
}

// DefaultConfig returns sane pool defaults.
func DefaultConfig(dsn string) Config {
	return Config{
		DSN:            dsn,
		MaxConnections: 25,
		MaxIdle:        5,
		ConnMaxLife:    5 * time.Minute,
	}
}

// Store is the Postgres-backed implementation of C1.
type Store struct {
	db     *sql.DB
	logger log.Logger
}

// New opens the database connection, verifies it, and configures the pool.
func New(cfg Config, logger log.Logger) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("counterstore: open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(cfg.ConnMaxLife)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("counterstore: ping: %w", err)
	}

	logger.Info("connected to counter store database")
	return &Store{db: db, logger: logger}, nil
}

// InitSchema creates the yubikeys/clients/queue tables if they don't exist.
func (s *Store) InitSchema(ctx context.Context) error {
	schema, err := schemaFile.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("counterstore: read schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, string(schema)); err != nil {
		return fmt.Errorf("counterstore: apply schema: %w", err)
	}
	s.logger.Info("counter store schema initialized")
	return nil
}

// DB exposes the underlying pool for the queuestore package, which shares
// the same connection pool (spec §5: "Counter Store and Queue Store are
// the only durable shared state").
func (s *Store) DB() *sql.DB { return s.db }

// Get returns the record for publicName, autovivifying it on first
// sighting (I2). Concurrent first-sightings are safe: the INSERT is an
// idempotent ON CONFLICT DO NOTHING, so the first writer wins and every
// caller observes an equivalent sentinel row.
func (s *Store) Get(ctx context.Context, publicName string, now int64) (Record, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO yubikeys (yk_publicname, active, created, modified, yk_counter, yk_use, yk_high, yk_low, nonce)
		VALUES ($1, true, $2, $3, $4, $5, $6, $7, '')
		ON CONFLICT (yk_publicname) DO NOTHING
	`, publicName, now, Sentinel, Sentinel, Sentinel, Sentinel, Sentinel)
	if err != nil {
		return Record{}, fmt.Errorf("counterstore: autovivify: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT active, yk_publicname, yk_counter, yk_use, yk_high, yk_low, nonce, modified, created
		FROM yubikeys WHERE yk_publicname = $1
	`, publicName)

	var r Record
	if err := row.Scan(&r.Active, &r.PublicName, &r.YkCounter, &r.YkUse, &r.YkHigh, &r.YkLow, &r.Nonce, &r.Modified, &r.Created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinelRecord(publicName, now), nil
		}
		return Record{}, fmt.Errorf("counterstore: get: %w", err)
	}
	return r, nil
}

// ConditionalUpdate writes rec iff the stored (yk_counter, yk_use) is
// strictly less than rec's, per I1. It is the linearization point for
// acceptance (spec §4.1, §4.5 Step 3). Returns whether the write happened.
func (s *Store) ConditionalUpdate(ctx context.Context, rec Record) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE yubikeys SET
			yk_counter = $2, yk_use = $3, yk_high = $4, yk_low = $5,
			nonce = $6, modified = $7
		WHERE yk_publicname = $1
		  AND (yk_counter, yk_use) < ($2, $3)
	`, rec.PublicName, rec.YkCounter, rec.YkUse, rec.YkHigh, rec.YkLow, rec.Nonce, rec.Modified)
	if err != nil {
		return false, fmt.Errorf("counterstore: conditional_update: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("counterstore: rows_affected: %w", err)
	}
	return n == 1, nil
}

// SetActive enables or disables a key, an administrative operation outside
// this spec's core; the verify, sync and resync paths only read the active
// flag and never call it.
func (s *Store) SetActive(ctx context.Context, publicName string, active bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE yubikeys SET active = $2 WHERE yk_publicname = $1`, publicName, active)
	if err != nil {
		return fmt.Errorf("counterstore: set_active: %w", err)
	}
	return nil
}

// ListActive enumerates active public_names, or all of them when
// publicName == "all", for resync (spec §4.6).
func (s *Store) ListActive(ctx context.Context, publicName string) ([]string, error) {
	var rows *sql.Rows
	var err error
	if publicName == "all" {
		rows, err = s.db.QueryContext(ctx, `SELECT yk_publicname FROM yubikeys WHERE active = true`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT yk_publicname FROM yubikeys WHERE active = true AND yk_publicname = $1`, publicName)
	}
	if err != nil {
		return nil, fmt.Errorf("counterstore: list_active: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("counterstore: list_active scan: %w", err)
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }
