// Package sqlite persists results to a single SQLite table as JSON blobs,
// snapshotting the full in-memory state after every successful write.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"gutcom/internal/infra/persistence/memory"
	"gutcom/internal/results/core"
	"gutcom/internal/sim"
)

var _ core.Store = (*Store)(nil)

// Store persists the in-memory results state to SQLite.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens (or creates) the database at path and hydrates the in-memory
// state from any existing snapshot.
func NewStore(path string) (*Store, error) {
	if path == "" {
		path = "gutcom.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
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
	s := &Store{Store: memory.NewStore(), db: db}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Driver() core.Driver { return core.DriverSQLite }

func (s *Store) SaveProfile(ctx context.Context, profile *sim.NetFluxProfile) error {
	if err := s.Store.SaveProfile(ctx, profile); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *Store) SaveManifest(ctx context.Context, manifest core.RunManifest) error {
	if err := s.Store.SaveManifest(ctx, manifest); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) load() error {
	rows, err := s.db.Query(`SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()
	snapshot := memory.Snapshot{}
	for rows.Next() {
		var bucket string
		var payload []byte
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		switch bucket {
		case "profiles":
			if err := json.Unmarshal(payload, &snapshot.Profiles); err != nil {
				return fmt.Errorf("decode profiles: %w", err)
			}
		case "runs":
			if err := json.Unmarshal(payload, &snapshot.Runs); err != nil {
				return fmt.Errorf("decode runs: %w", err)
			}
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	s.ImportState(snapshot)
	return nil
}

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.ExportState()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	buckets := map[string]any{
		"profiles": snapshot.Profiles,
		"runs":     snapshot.Runs,
	}
	for bucket, payload := range buckets {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode %s: %w", bucket, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state (bucket, payload) VALUES (?, ?)
			 ON CONFLICT(bucket) DO UPDATE SET payload = excluded.payload`,
			bucket, b); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}
