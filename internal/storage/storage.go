// Package storage is the single source of truth for process-wide
// configuration and service state shared by components.
//
// Configuration is held as one type-erased slot per concrete Go type, keyed
// by a stable small-integer identity assigned on first reference. Slots are
// created lazily (with the type's zero value unless an explicit value is
// supplied) and start locked: read-only consumers see a slot only once it is
// locked, while mutable producers require it unlocked. Services are one
// published, read-only value per interface identity.
//
// The container is type-erased but not unchecked: every typed retrieval goes
// through an assignability test and reports a TypeMismatchError instead of
// relying on a blind cast. Runtime aliasing is guarded per slot by borrow
// cells which panic on violation; given correct access bookkeeping by the
// component layer those panics are unreachable.
package storage

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
)

// ConfigID is the stable identity of a configuration slot.
type ConfigID int

// ServiceID is the stable identity of a service slot.
type ServiceID int

var (
	// ErrUnknownConfig is returned when a ConfigID does not name a slot.
	ErrUnknownConfig = errors.New("storage: unknown config id")
	// ErrUnknownService is returned when a ServiceID does not name a slot.
	ErrUnknownService = errors.New("storage: unknown service id")
	// ErrServiceNotPublished is returned when a registered service has no
	// published implementation yet.
	ErrServiceNotPublished = errors.New("storage: service not published")
)

// TypeMismatchError reports a typed retrieval or publication whose Go type
// does not match the slot it addresses.
type TypeMismatchError struct {
	Slot reflect.Type
	Got  reflect.Type
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("storage: type mismatch: slot holds %v, got %v", e.Slot, e.Got)
}

type configSlot struct {
	typ    reflect.Type
	value  any
	locked bool
	cell   cell
}

type serviceSlot struct {
	typ       reflect.Type
	value     any
	published bool
}

// Storage holds every configuration and service slot plus the deferred
// command queue. It is not safe for concurrent mutation by itself; the
// mutex only serializes borrow-cell transitions so that a concurrent
// scheduler using the access records still gets fatal detection of
// bookkeeping bugs.
type Storage struct {
	mu sync.Mutex

	configs   []*configSlot
	configIDs map[reflect.Type]ConfigID

	services   []*serviceSlot
	serviceIDs map[reflect.Type]ServiceID

	deferred     Deferred
	deferredCell cell
	storageCell  cell
}

// New creates an empty Storage.
func New() *Storage {
	return &Storage{
		configIDs:  make(map[reflect.Type]ConfigID),
		serviceIDs: make(map[reflect.Type]ServiceID),
	}
}

// EnsureConfig locates the configuration slot for the given concrete type,
// creating it with the type's zero value if absent, and returns its identity.
// New slots start locked.
func (s *Storage) EnsureConfig(t reflect.Type) ConfigID {
	if id, ok := s.configIDs[t]; ok {
		return id
	}
	id := ConfigID(len(s.configs))
	s.configs = append(s.configs, &configSlot{
		typ:    t,
		value:  reflect.New(t).Elem().Interface(),
		locked: true,
	})
	s.configIDs[t] = id
	return id
}

// AddConfig inserts or replaces the configuration value for the dynamic type
// of v and returns the slot identity. Replacing the value of a slot that is
// currently borrowed panics; the deferred queue exists so components never
// have to do that.
func (s *Storage) AddConfig(v any) ConfigID {
	id := s.EnsureConfig(reflect.TypeOf(v))
	slot := s.configs[id]
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.cell.acquireExclusive(slot.typ.String())
	slot.value = v
	slot.cell.releaseExclusive(slot.typ.String())
	return id
}

// ConfigType returns the concrete type held by the slot.
func (s *Storage) ConfigType(id ConfigID) (reflect.Type, error) {
	slot, err := s.configSlot(id)
	if err != nil {
		return nil, err
	}
	return slot.typ, nil
}

// ConfigValue returns the type-erased value of the slot.
func (s *Storage) ConfigValue(id ConfigID) (any, error) {
	slot, err := s.configSlot(id)
	if err != nil {
		return nil, err
	}
	return slot.value, nil
}

// SetConfigValue replaces the slot value. The new value's type must be
// assignable to the slot's type.
func (s *Storage) SetConfigValue(id ConfigID, v any) error {
	slot, err := s.configSlot(id)
	if err != nil {
		return err
	}
	if got := reflect.TypeOf(v); got != slot.typ && !got.AssignableTo(slot.typ) {
		return &TypeMismatchError{Slot: slot.typ, Got: got}
	}
	slot.value = v
	return nil
}

// ConfigAs retrieves the slot value as T, reporting a TypeMismatchError when
// the slot holds a different type. A mismatch is unreachable when identities
// come from EnsureConfig, but callers get a typed error instead of a bad cast.
func ConfigAs[T any](s *Storage, id ConfigID) (T, error) {
	var zero T
	v, err := s.ConfigValue(id)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{Slot: reflect.TypeOf(v), Got: reflect.TypeOf((*T)(nil)).Elem()}
	}
	return t, nil
}

// ConfigLocked reports whether the slot is locked. Unknown identities are
// reported as locked so that read-only validation of a stale identity fails
// closed.
func (s *Storage) ConfigLocked(id ConfigID) bool {
	slot, err := s.configSlot(id)
	if err != nil {
		return true
	}
	return slot.locked
}

// UnlockConfig opens the slot for mutable access, excluding read-only
// consumers until it is locked again.
func (s *Storage) UnlockConfig(id ConfigID) error {
	slot, err := s.configSlot(id)
	if err != nil {
		return err
	}
	slot.locked = false
	return nil
}

// LockConfig freezes the slot, enabling read-only consumers.
func (s *Storage) LockConfig(id ConfigID) error {
	slot, err := s.configSlot(id)
	if err != nil {
		return err
	}
	slot.locked = true
	return nil
}

// LockAll locks every configuration slot that is still unlocked. The
// dispatcher runs this sweep once no component can make further progress.
// It returns the number of slots it locked.
func (s *Storage) LockAll() int {
	n := 0
	for _, slot := range s.configs {
		if !slot.locked {
			slot.locked = true
			n++
		}
	}
	return n
}

// ConfigCount returns the number of allocated configuration slots.
func (s *Storage) ConfigCount() int {
	return len(s.configs)
}

// AcquireSharedConfig takes a shared borrow of the slot for the duration of a
// component run. Panics on identity or borrow violations: both indicate a
// bookkeeping bug, not a data condition.
func (s *Storage) AcquireSharedConfig(id ConfigID) {
	slot := s.mustConfigSlot(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.cell.acquireShared(slot.typ.String())
}

// ReleaseSharedConfig returns a shared borrow taken by AcquireSharedConfig.
func (s *Storage) ReleaseSharedConfig(id ConfigID) {
	slot := s.mustConfigSlot(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.cell.releaseShared(slot.typ.String())
}

// AcquireExclusiveConfig takes the slot's single writer borrow.
func (s *Storage) AcquireExclusiveConfig(id ConfigID) {
	slot := s.mustConfigSlot(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.cell.acquireExclusive(slot.typ.String())
}

// ReleaseExclusiveConfig returns the borrow taken by AcquireExclusiveConfig.
func (s *Storage) ReleaseExclusiveConfig(id ConfigID) {
	slot := s.mustConfigSlot(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	slot.cell.releaseExclusive(slot.typ.String())
}

// AcquireStorage takes a whole-storage borrow for raw storage parameters.
func (s *Storage) AcquireStorage(exclusive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exclusive {
		s.storageCell.acquireExclusive("Storage")
	} else {
		s.storageCell.acquireShared("Storage")
	}
}

// ReleaseStorage returns a borrow taken by AcquireStorage.
func (s *Storage) ReleaseStorage(exclusive bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if exclusive {
		s.storageCell.releaseExclusive("Storage")
	} else {
		s.storageCell.releaseShared("Storage")
	}
}

func (s *Storage) configSlot(id ConfigID) (*configSlot, error) {
	if id < 0 || int(id) >= len(s.configs) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownConfig, id)
	}
	return s.configs[id], nil
}

func (s *Storage) mustConfigSlot(id ConfigID) *configSlot {
	slot, err := s.configSlot(id)
	if err != nil {
		panic(err.Error())
	}
	return slot
}
