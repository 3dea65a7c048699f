package component

import (
	"reflect"

	"github.com/fwforge/fwsched/internal/storage"
)

// StorageRef grants read access to the whole storage. It conflicts with any
// mutable access in the same component, per-slot or otherwise.
type StorageRef struct {
	s *storage.Storage
}

// UseStorage declares whole-storage read access. The callable receives a
// StorageRef.
func UseStorage() TypedParam[StorageRef] {
	return &storageRefParam{}
}

// Storage returns the underlying storage. Callers hold a shared borrow for
// the duration of the run and must not mutate through it.
func (r StorageRef) Storage() *storage.Storage {
	return r.s
}

type storageRefParam struct{}

func (p *storageRefParam) register(_ *storage.Storage, m *Metadata) {
	if m.Access().WritesAll() {
		panicConflict(p.kind(), m, "StorageMut")
	}
	if m.Access().HasAnyConfigWrite() {
		panicConflict(p.kind(), m, "ConfigMut[T]")
	}
	m.Access().MarkReadsAll()
}

func (p *storageRefParam) tryValidate(*storage.Storage) error { return nil }

func (p *storageRefParam) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(p.typedItem(s))
}

func (p *storageRefParam) typedItem(s *storage.Storage) StorageRef {
	s.AcquireStorage(false)
	return StorageRef{s: s}
}

func (p *storageRefParam) release(s *storage.Storage) {
	s.ReleaseStorage(false)
}

func (p *storageRefParam) itemType() reflect.Type {
	return reflect.TypeOf((*StorageRef)(nil)).Elem()
}

func (p *storageRefParam) kind() string { return "StorageRef" }

// StorageMut grants exclusive access to the whole storage. It conflicts with
// every other access in the same component. Prefer Commands: it covers the
// common structural mutations without excluding every other parameter.
type StorageMut struct {
	s *storage.Storage
}

// UseStorageMut declares whole-storage write access. The callable receives a
// StorageMut.
func UseStorageMut() TypedParam[StorageMut] {
	return &storageMutParam{}
}

// Storage returns the underlying storage for mutation.
func (r StorageMut) Storage() *storage.Storage {
	return r.s
}

type storageMutParam struct{}

func (p *storageMutParam) register(_ *storage.Storage, m *Metadata) {
	if m.Access().WritesAll() {
		panicConflict(p.kind(), m, "StorageMut")
	}
	if m.Access().ReadsAll() {
		panicConflict(p.kind(), m, "StorageRef")
	}
	if m.Access().HasAnyConfigWrite() {
		panicConflict(p.kind(), m, "ConfigMut[T]")
	}
	if m.Access().HasAnyConfigRead() {
		panicConflict(p.kind(), m, "Config[T]")
	}
	m.Access().MarkWritesAll()
}

func (p *storageMutParam) tryValidate(*storage.Storage) error { return nil }

func (p *storageMutParam) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(p.typedItem(s))
}

func (p *storageMutParam) typedItem(s *storage.Storage) StorageMut {
	s.AcquireStorage(true)
	return StorageMut{s: s}
}

func (p *storageMutParam) release(s *storage.Storage) {
	s.ReleaseStorage(true)
}

func (p *storageMutParam) itemType() reflect.Type {
	return reflect.TypeOf((*StorageMut)(nil)).Elem()
}

func (p *storageMutParam) kind() string { return "StorageMut" }
