package component

import (
	"fmt"
	"reflect"

	"github.com/fwforge/fwsched/internal/storage"
)

// Service is a handle to the published implementation of the interface S.
// Services are read-only and indefinitely lived once published, so the
// handle carries no aliasing risk and registers no footprint: a component
// consuming a service simply does not run until a producer has published it.
type Service[S any] struct {
	id storage.ServiceID
	s  *storage.Storage
}

// UseService declares a dependency on a published implementation of the
// interface S. The callable receives a Service[S].
func UseService[S any]() *Service[S] {
	return &Service[S]{id: -1}
}

// Get returns the published implementation. Using a handle before the
// service is published is a programming error and panics; the dispatcher
// never invokes the callable in that state.
func (h Service[S]) Get() S {
	v, err := storage.ServiceAs[S](h.s, h.id)
	if err != nil {
		panic(fmt.Sprintf("component: Service[%s]: %v", typeName[S](), err))
	}
	return v
}

func (h *Service[S]) register(s *storage.Storage, _ *Metadata) {
	h.id = s.RegisterService(reflect.TypeOf((*S)(nil)).Elem())
}

func (h *Service[S]) tryValidate(s *storage.Storage) error {
	if _, ok := s.Service(h.id); ok {
		return nil
	}
	return &NotReadyError{Kind: h.kind()}
}

func (h *Service[S]) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(h.typedItem(s))
}

func (h *Service[S]) typedItem(s *storage.Storage) Service[S] {
	return Service[S]{id: h.id, s: s}
}

func (h *Service[S]) release(*storage.Storage) {}

func (h *Service[S]) itemType() reflect.Type {
	return reflect.TypeOf((*Service[S])(nil)).Elem()
}

func (h *Service[S]) kind() string {
	return fmt.Sprintf("Service[%s]", typeName[S]())
}
