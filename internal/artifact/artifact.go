// Package artifact re-exports the core artifact store abstractions and
// selects a backend at runtime. Pipeline code imports this package only;
// backend packages under internal/infra/blob stay behind the facade.
package artifact

import (
	"gutcom/internal/artifact/core"
)

type (
	// Driver identifies an artifact backend driver.
	Driver = core.Driver
	// PutOptions configures an artifact write.
	PutOptions = core.PutOptions
	// Info describes stored artifact metadata.
	Info = core.Info
	// Store is the interface for artifact storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrNotFound indicates the key has no stored artifact.
var ErrNotFound = core.ErrNotFound

// ErrExists indicates a create-only Put hit an existing artifact.
var ErrExists = core.ErrExists
