// Package postgres provides a Postgres-backed document store mirroring the
// sqlite backend: the in-memory store is the working set, snapshotted into a
// JSONB state table after each completed import phase.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/internal/store/memory"
	"github.com/civiclens/legistry/pkg/logging"
)

// Compile-time contract assertions.
var (
	_ store.Store     = (*Store)(nil)
	_ store.Persister = (*Store)(nil)
)

const (
	driver     = "pgx"
	defaultDSN = "postgres://localhost/legistry?sslmode=disable"
)

// Store persists the in-memory state to Postgres as JSONB rows.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to a local default), ensures the state table exists, and hydrates the
// in-memory state from any prior snapshot.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("ensure state table: %w", err)
	}

	s := &Store{Store: memory.NewStore(), db: db}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

const sequencesBucket = "_sequences"

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := memory.Snapshot{
		Collections: map[string]map[string]store.Doc{},
		Sequences:   map[string]int64{},
	}
	loaded := false
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan state: %w", err)
		}
		loaded = true
		if bucket == sequencesBucket {
			if err := json.Unmarshal(payload, &snap.Sequences); err != nil {
				return fmt.Errorf("decode sequences: %w", err)
			}
			continue
		}
		coll := map[string]store.Doc{}
		if err := json.Unmarshal(payload, &coll); err != nil {
			return fmt.Errorf("decode bucket %s: %w", bucket, err)
		}
		snap.Collections[bucket] = coll
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.Store.Import(snap)
	}
	return nil
}

// Persist snapshots the full in-memory state into the state table.
func (s *Store) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.Store.Export()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	write := func(bucket string, v any) error {
		payload, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode bucket %s: %w", bucket, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO state (bucket, payload) VALUES ($1, $2)
			 ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload`,
			bucket, payload)
		if err != nil {
			return fmt.Errorf("upsert bucket %s: %w", bucket, err)
		}
		return nil
	}

	for bucket, coll := range snap.Collections {
		if err := write(bucket, coll); err != nil {
			return err
		}
	}
	if err := write(sequencesBucket, snap.Sequences); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logging.Ctx(ctx).Debug().Int("buckets", len(snap.Collections)).
		Msg("state snapshot written")
	return nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Close snapshots once more and closes the database.
func (s *Store) Close() error {
	if err := s.Persist(context.Background()); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}
