// Package component defines the schedulable unit of the initialization
// framework and the parameter capability abstraction its callables consume.
//
// A component wraps a user callable together with the persisted state of its
// parameters and a pre-computed access record. Every parameter declares, at
// registration time, exactly which configuration and service slots it will
// read or write; conflicting declarations inside one component are an
// authoring bug and panic immediately at initialization, naming both
// parameter kinds and the component. At run time all parameters are
// re-validated cheaply: if any is unavailable the component reports "did not
// run" and stays eligible for a later round.
package component

import (
	"github.com/fwforge/fwsched/internal/access"
	"github.com/fwforge/fwsched/internal/storage"
)

// Component is the contract between the dispatcher and a schedulable unit.
type Component interface {
	// Initialize computes every parameter's state and records its footprint.
	// It runs exactly once; a footprint conflict panics.
	Initialize(s *storage.Storage)

	// Run re-validates every declared parameter. It returns (false, nil)
	// when some parameter is unavailable — not an error, the dispatcher may
	// retry later — and (true, err) once the callable has been invoked,
	// where err is the callable's own application-level result.
	Run(s *storage.Storage) (bool, error)

	// Metadata exposes the component name, last failed parameter, and
	// declared access footprint.
	Metadata() *Metadata
}

// Metadata is the per-component bookkeeping used by conflict detection and
// dispatcher diagnostics.
type Metadata struct {
	name        string
	failedParam string
	access      *access.Record
}

// NewMetadata creates metadata for a component with the given name.
func NewMetadata(name string) *Metadata {
	return &Metadata{name: name, access: access.NewRecord()}
}

// Name returns the component name.
func (m *Metadata) Name() string { return m.name }

// Access returns the declared footprint.
func (m *Metadata) Access() *access.Record { return m.access }

// FailedParam returns the kind of the last parameter that failed validation,
// or "" if none has.
func (m *Metadata) FailedParam() string { return m.failedParam }

func (m *Metadata) setFailedParam(kind string) { m.failedParam = kind }
