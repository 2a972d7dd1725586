// Package sqlite provides a SQLite-backed document store. It keeps the full
// working set in the in-memory store and snapshots it into a single state
// table, one row per collection, after each completed import phase.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/civiclens/legistry/internal/store"
	"github.com/civiclens/legistry/internal/store/memory"
	"github.com/civiclens/legistry/pkg/logging"
)

// Compile-time contract assertions.
var (
	_ store.Store     = (*Store)(nil)
	_ store.Persister = (*Store)(nil)
)

// Store persists the in-memory state to SQLite as JSON blobs.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewStore opens (or creates) a SQLite-backed store at the given path and
// hydrates the in-memory state from any prior snapshot.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "legistry.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("create state table: %w", err)
	}

	s := &Store{Store: memory.NewStore(), db: db, path: path}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

const sequencesBucket = "_sequences"

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
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
			`INSERT INTO state (bucket, payload) VALUES (?, ?)
			 ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
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
	logging.Ctx(ctx).Debug().Str("path", s.path).
		Int("buckets", len(snap.Collections)).Msg("state snapshot written")
	return nil
}

// Close snapshots once more and closes the database.
func (s *Store) Close() error {
	if err := s.Persist(context.Background()); err != nil {
		_ = s.db.Close()
		return err
	}
	return s.db.Close()
}
