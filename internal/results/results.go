// Package results re-exports the results store abstractions and selects a
// backend at runtime. Pipeline code imports this package only; backend
// packages under internal/infra/persistence stay behind the facade.
package results

import (
	"context"
	"fmt"
	"os"

	"gutcom/internal/infra/persistence/memory"
	"gutcom/internal/infra/persistence/postgres"
	"gutcom/internal/infra/persistence/sqlite"
	"gutcom/internal/results/core"
)

type (
	// Driver identifies a results backend driver.
	Driver = core.Driver
	// Store is the interface for results storage backends.
	Store = core.Store
	// RunManifest summarizes one pipeline invocation.
	RunManifest = core.RunManifest
	// SampleOutcome records how one sample fared in a phase.
	SampleOutcome = core.SampleOutcome
)

const (
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
	// DriverSQLite is the embedded SQLite driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the Postgres driver.
	DriverPostgres = core.DriverPostgres
)

// ErrNotFound indicates a missing sample or run record.
var ErrNotFound = core.ErrNotFound

// Open selects a Store implementation using environment variables.
//
//	GUTCOM_RESULTS_DRIVER: memory|sqlite|postgres (default sqlite)
//	GUTCOM_RESULTS_SQLITE_PATH: database file when driver=sqlite (default gutcom.db)
//	GUTCOM_RESULTS_POSTGRES_DSN: connection string when driver=postgres
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("GUTCOM_RESULTS_DRIVER")
	if driver == "" {
		driver = string(DriverSQLite)
	}
	switch Driver(driver) {
	case DriverMemory:
		return memory.NewStore(), nil
	case DriverSQLite:
		return sqlite.NewStore(os.Getenv("GUTCOM_RESULTS_SQLITE_PATH"))
	case DriverPostgres:
		return postgres.NewStore(ctx, os.Getenv("GUTCOM_RESULTS_POSTGRES_DSN"))
	default:
		return nil, fmt.Errorf("unknown results driver %s", driver)
	}
}
