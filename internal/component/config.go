package component

import (
	"fmt"
	"reflect"

	"github.com/fwforge/fwsched/internal/storage"
)

// Config is a read-only handle to the configuration value of type T. It is
// retrievable only while the underlying slot is locked, which is what forces
// consumers to run after every producer has finished composing the value.
type Config[T any] struct {
	id storage.ConfigID
	s  *storage.Storage
}

// UseConfig declares a read-only dependency on the configuration of type T.
// The callable receives a Config[T].
func UseConfig[T any]() *Config[T] {
	return &Config[T]{id: -1}
}

// Get returns the configuration value. Valid only on a handle extracted
// during a run (or built by MockConfig).
func (c Config[T]) Get() T {
	v, err := storage.ConfigAs[T](c.s, c.id)
	if err != nil {
		panic(fmt.Sprintf("component: Config[%s]: %v", typeName[T](), err))
	}
	return v
}

func (c *Config[T]) register(s *storage.Storage, m *Metadata) {
	id := s.EnsureConfig(reflect.TypeOf((*T)(nil)).Elem())
	if m.Access().WritesAll() {
		panicConflict(c.kind(), m, "StorageMut")
	}
	if m.Access().HasConfigWrite(id) {
		panicConflict(c.kind(), m, fmt.Sprintf("ConfigMut[%s]", typeName[T]()))
	}
	m.Access().AddConfigRead(id)
	c.id = id
}

// A read-only config is available only once its slot is locked.
func (c *Config[T]) tryValidate(s *storage.Storage) error {
	if s.ConfigLocked(c.id) {
		return nil
	}
	return &NotReadyError{Kind: c.kind()}
}

func (c *Config[T]) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(c.typedItem(s))
}

func (c *Config[T]) typedItem(s *storage.Storage) Config[T] {
	s.AcquireSharedConfig(c.id)
	return Config[T]{id: c.id, s: s}
}

func (c *Config[T]) release(s *storage.Storage) {
	s.ReleaseSharedConfig(c.id)
}

func (c *Config[T]) itemType() reflect.Type {
	return reflect.TypeOf((*Config[T])(nil)).Elem()
}

func (c *Config[T]) kind() string {
	return fmt.Sprintf("Config[%s]", typeName[T]())
}

// ConfigMut is a mutable handle to the configuration value of type T. It is
// retrievable only while the slot is unlocked; declaring it unlocks the slot
// as a side effect of registration, excluding every read-only consumer until
// the slot is locked again (explicitly or by the dispatcher's sweep).
type ConfigMut[T any] struct {
	id storage.ConfigID
	s  *storage.Storage
}

// UseConfigMut declares a mutable dependency on the configuration of type T.
// The callable receives a ConfigMut[T].
func UseConfigMut[T any]() *ConfigMut[T] {
	return &ConfigMut[T]{id: -1}
}

// Get returns the current configuration value.
func (c ConfigMut[T]) Get() T {
	v, err := storage.ConfigAs[T](c.s, c.id)
	if err != nil {
		panic(fmt.Sprintf("component: ConfigMut[%s]: %v", typeName[T](), err))
	}
	return v
}

// Set replaces the configuration value.
func (c ConfigMut[T]) Set(v T) {
	if err := c.s.SetConfigValue(c.id, v); err != nil {
		panic(fmt.Sprintf("component: ConfigMut[%s]: %v", typeName[T](), err))
	}
}

// Update applies fn to a copy of the value and stores the result.
func (c ConfigMut[T]) Update(fn func(*T)) {
	v := c.Get()
	fn(&v)
	c.Set(v)
}

// Lock freezes the slot, preventing further mutation and allowing read-only
// consumers to proceed. Locking is one-way.
func (c ConfigMut[T]) Lock() {
	if err := c.s.LockConfig(c.id); err != nil {
		panic(fmt.Sprintf("component: ConfigMut[%s]: %v", typeName[T](), err))
	}
}

func (c *ConfigMut[T]) register(s *storage.Storage, m *Metadata) {
	id := s.EnsureConfig(reflect.TypeOf((*T)(nil)).Elem())
	// Config is locked by default; it is only unlocked here, when some
	// component declares that it needs the slot to be mutable.
	if err := s.UnlockConfig(id); err != nil {
		panic(fmt.Sprintf("component: ConfigMut[%s]: %v", typeName[T](), err))
	}

	if m.Access().WritesAll() {
		panicConflict(c.kind(), m, "StorageMut")
	}
	if m.Access().ReadsAll() {
		panicConflict(c.kind(), m, "StorageRef")
	}
	if m.Access().HasConfigWrite(id) {
		panicConflict(c.kind(), m, fmt.Sprintf("ConfigMut[%s]", typeName[T]()))
	}
	if m.Access().HasConfigRead(id) {
		panicConflict(c.kind(), m, fmt.Sprintf("Config[%s]", typeName[T]()))
	}
	m.Access().AddConfigWrite(id)
	c.id = id
}

// A mutable config is available only while its slot is unlocked.
func (c *ConfigMut[T]) tryValidate(s *storage.Storage) error {
	if !s.ConfigLocked(c.id) {
		return nil
	}
	return &NotReadyError{Kind: c.kind()}
}

func (c *ConfigMut[T]) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(c.typedItem(s))
}

func (c *ConfigMut[T]) typedItem(s *storage.Storage) ConfigMut[T] {
	s.AcquireExclusiveConfig(c.id)
	return ConfigMut[T]{id: c.id, s: s}
}

func (c *ConfigMut[T]) release(s *storage.Storage) {
	s.ReleaseExclusiveConfig(c.id)
}

func (c *ConfigMut[T]) itemType() reflect.Type {
	return reflect.TypeOf((*ConfigMut[T])(nil)).Elem()
}

func (c *ConfigMut[T]) kind() string {
	return fmt.Sprintf("ConfigMut[%s]", typeName[T]())
}
