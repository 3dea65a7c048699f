package component

import (
	"fmt"
	"reflect"

	"github.com/fwforge/fwsched/internal/storage"
)

// Mock constructors build free-standing handles over a private Storage, for
// testing the logic inside a callable without a dispatcher. Each mock owns
// its backing storage outright, so nothing leaks past the handle and two
// mocks never observe each other.

// MockConfig returns a locked, readable Config[T] holding v.
func MockConfig[T any](v T) Config[T] {
	s := storage.New()
	id := s.AddConfig(v)
	return Config[T]{id: id, s: s}
}

// MockConfigMut returns an unlocked, writable ConfigMut[T] holding v.
func MockConfigMut[T any](v T) ConfigMut[T] {
	s := storage.New()
	id := s.AddConfig(v)
	if err := s.UnlockConfig(id); err != nil {
		panic(fmt.Sprintf("component: MockConfigMut[%s]: %v", typeName[T](), err))
	}
	return ConfigMut[T]{id: id, s: s}
}

// MockService returns a Service[S] over impl, already published.
func MockService[S any](impl S) Service[S] {
	s := storage.New()
	t := reflect.TypeOf((*S)(nil)).Elem()
	if err := s.AddService(t, impl); err != nil {
		panic(fmt.Sprintf("component: MockService[%s]: %v", typeName[S](), err))
	}
	return Service[S]{id: s.RegisterService(t), s: s}
}

// MockCommands returns a Commands over a private queue. Pending reports what
// the callable enqueued; the queue is never applied anywhere.
func MockCommands() Commands {
	s := storage.New()
	return Commands{q: s.AcquireDeferred()}
}
