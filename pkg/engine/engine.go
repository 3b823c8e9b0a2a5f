// Package engine runs the scan: it turns the resolved configuration into
// probe work across the target scope and finalizes the run report.
package engine

import (
	"errors"

	"github.com/osprey-sec/osprey/pkg/args"
)

// Sentinel errors an Engine may surface from Start. Callers should use
// errors.Is.
var (
	// ErrAborted reports that the user interrupted the run. Partial
	// results are kept; the bootstrapper still finalizes the report.
	ErrAborted = errors.New("engine: run aborted by user")

	// ErrExitRequested reports that the engine already persisted its own
	// report and wants the process to wind down without further output.
	ErrExitRequested = errors.New("engine: exit requested")
)

// Engine is the scan engine contract the bootstrapper drives.
type Engine interface {
	// Start runs the scan for cfg. It returns true when real work was
	// performed, false when the invocation was informational only (for
	// example a plugin listing).
	Start(cfg *args.Config) (bool, error)

	// Finish performs orderly report finalization. Safe to call after an
	// aborted Start.
	Finish() error
}
