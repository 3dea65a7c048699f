package component

import (
	"fmt"
	"reflect"

	"github.com/fwforge/fwsched/internal/storage"
)

// Param is a value derivable from storage whose availability changes over
// time. Implementations register their footprint once, validate cheaply on
// every scheduling attempt, and extract only immediately after a successful
// validation — extraction is an unchecked precondition, not a runtime test.
//
// The built-in kinds (Config, ConfigMut, Service, Commands, StorageRef,
// StorageMut, Opt, UseGroup2..5) form a closed set; the methods are
// unexported on purpose.
type Param interface {
	// register allocates or locates the parameter's slot and records its
	// footprint on the component's metadata. Runs exactly once per
	// component. Conflicting footprints panic.
	register(s *storage.Storage, m *Metadata)

	// tryValidate reports nil when the value is currently retrievable and a
	// *NotReadyError naming the parameter kind otherwise. Side-effect free.
	tryValidate(s *storage.Storage) error

	// item extracts the value, acquiring whatever runtime borrow the kind
	// needs. Valid only immediately after a successful tryValidate.
	item(s *storage.Storage) reflect.Value

	// release returns the borrows taken by item after the callable returns.
	release(s *storage.Storage)

	// itemType is the static Go type produced by item, used to check the
	// user callable's signature up front.
	itemType() reflect.Type

	// kind names the parameter for diagnostics, e.g. "Config[mem.Layout]".
	kind() string
}

// TypedParam is a Param whose extracted item has static type H. Optional
// wrappers and groups compose over it.
type TypedParam[H any] interface {
	Param
	typedItem(s *storage.Storage) H
}

// NotReadyError reports that a declared parameter is currently unavailable.
// It is a soft, retryable condition, not a failure.
type NotReadyError struct {
	// Kind is the parameter kind that failed validation.
	Kind string
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("parameter %s is not currently available", e.Kind)
}

// panicConflict aborts initialization on a conflicting footprint declaration.
// This fires once, at registration, so it can never manifest as a data race.
func panicConflict(newKind string, m *Metadata, oldKind string) {
	panic(fmt.Sprintf("component: %s in component %s conflicts with a previous %s access",
		newKind, m.Name(), oldKind))
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
