package storage

import (
	"fmt"
	"reflect"
)

// RegisterService locates or creates the service slot for the given interface
// identity and returns its identity. Registration does not publish anything;
// consumers registering first is the normal case.
func (s *Storage) RegisterService(t reflect.Type) ServiceID {
	if id, ok := s.serviceIDs[t]; ok {
		return id
	}
	id := ServiceID(len(s.services))
	s.services = append(s.services, &serviceSlot{typ: t})
	s.serviceIDs[t] = id
	return id
}

// Publish makes an implementation available under the slot's interface
// identity. The implementation must be assignable to that interface.
// Re-publication replaces the previous implementation.
func (s *Storage) Publish(id ServiceID, impl any) error {
	slot, err := s.serviceSlot(id)
	if err != nil {
		return err
	}
	got := reflect.TypeOf(impl)
	if got == nil || !got.AssignableTo(slot.typ) {
		return &TypeMismatchError{Slot: slot.typ, Got: got}
	}
	slot.value = impl
	slot.published = true
	return nil
}

// AddService registers and publishes impl under the given interface identity
// in one step.
func (s *Storage) AddService(t reflect.Type, impl any) error {
	return s.Publish(s.RegisterService(t), impl)
}

// Service returns the published implementation for the slot, if any.
func (s *Storage) Service(id ServiceID) (any, bool) {
	slot, err := s.serviceSlot(id)
	if err != nil || !slot.published {
		return nil, false
	}
	return slot.value, true
}

// ServiceAs retrieves the published implementation as T, reporting
// ErrServiceNotPublished when nothing has been published and a
// TypeMismatchError when the implementation does not satisfy T.
func ServiceAs[T any](s *Storage, id ServiceID) (T, error) {
	var zero T
	v, ok := s.Service(id)
	if !ok {
		return zero, ErrServiceNotPublished
	}
	t, ok := v.(T)
	if !ok {
		return zero, &TypeMismatchError{Slot: reflect.TypeOf(v), Got: reflect.TypeOf((*T)(nil)).Elem()}
	}
	return t, nil
}

func (s *Storage) serviceSlot(id ServiceID) (*serviceSlot, error) {
	if id < 0 || int(id) >= len(s.services) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownService, id)
	}
	return s.services[id], nil
}
