// Package postgres persists results to Postgres, mirroring the SQLite
// snapshot semantics over a JSONB state table.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"gutcom/internal/infra/persistence/memory"
	"gutcom/internal/results/core"
	"gutcom/internal/sim"
)

var _ core.Store = (*Store)(nil)

const (
	driverName = "pgx"
	defaultDSN = "postgres://localhost/gutcom?sslmode=disable"
)

// Store persists results to Postgres while reusing the in-memory
// implementation for reads.
type Store struct {
	*memory.Store
	db *sql.DB
	mu sync.Mutex
}

// NewStore opens a Postgres-backed store using the provided DSN (falls back
// to defaultDSN), ensures the state table exists and hydrates from any
// existing snapshot.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sql.Open(driverName, dsn)
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

func (s *Store) Driver() core.Driver { return core.DriverPostgres }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

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

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
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
			`INSERT INTO state (bucket, payload) VALUES ($1, $2)
			 ON CONFLICT (bucket) DO UPDATE SET payload = EXCLUDED.payload`,
			bucket, b); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
	}
	return tx.Commit()
}
