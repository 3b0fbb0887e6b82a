// Package core defines the persistence abstractions for simulation outputs:
// per-sample net flux profiles and run manifests.
package core

import (
	"context"
	"errors"
	"time"

	"gutcom/internal/sim"
)

// Driver identifies a concrete results backend.
type Driver string

const (
	// DriverMemory keeps results in process memory (tests).
	DriverMemory Driver = "memory"
	// DriverSQLite persists results to an embedded SQLite database (default).
	DriverSQLite Driver = "sqlite"
	// DriverPostgres persists results to a Postgres database.
	DriverPostgres Driver = "postgres"
)

// SampleOutcome records how one sample fared in a pipeline phase.
type SampleOutcome struct {
	Sample string `json:"sample"`
	Status string `json:"status"` // built|skipped|simulated|failed
	Error  string `json:"error,omitempty"`
}

// RunManifest summarizes one pipeline invocation: which phase ran, with what
// parameters, over which samples. Build manifests additionally record the
// organism inputs and the union of extracellular metabolites across them.
type RunManifest struct {
	ID          string            `json:"id"`
	Phase       string            `json:"phase"` // build|simulate
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Params      map[string]string `json:"params,omitempty"`
	Organisms   []string          `json:"organisms,omitempty"`
	Metabolites []string          `json:"metabolites,omitempty"`
	Samples     []SampleOutcome   `json:"samples"`
}

// Store persists simulation outputs.
type Store interface {
	SaveProfile(ctx context.Context, profile *sim.NetFluxProfile) error
	Profile(ctx context.Context, sample string) (*sim.NetFluxProfile, error)
	Profiles(ctx context.Context) ([]*sim.NetFluxProfile, error)
	SaveManifest(ctx context.Context, manifest RunManifest) error
	Manifest(ctx context.Context, id string) (RunManifest, error)
	Manifests(ctx context.Context) ([]RunManifest, error)
	Driver() Driver
	Close() error
}

// ErrNotFound is returned when a sample or run id has no stored record.
var ErrNotFound = errors.New("results: not found")
