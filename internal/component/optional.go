package component

import (
	"fmt"
	"reflect"

	"github.com/fwforge/fwsched/internal/storage"
)

// Option is the item produced by an optional parameter: the wrapped handle
// when it was available this round, or empty when it was not.
type Option[H any] struct {
	value H
	ok    bool
}

// Get returns the wrapped handle and whether it is present.
func (o Option[H]) Get() (H, bool) {
	return o.value, o.ok
}

// Opt wraps a parameter so the component runs even while the parameter is
// unavailable. The wrapper delegates the wrapped parameter's footprint but
// never fails validation; extraction yields an empty Option exactly when the
// wrapped parameter would itself have failed.
func Opt[H any](inner TypedParam[H]) TypedParam[Option[H]] {
	return &optionalParam[H]{inner: inner}
}

type optionalParam[H any] struct {
	inner    TypedParam[H]
	acquired bool
}

func (p *optionalParam[H]) register(s *storage.Storage, m *Metadata) {
	p.inner.register(s, m)
}

// Always available.
func (p *optionalParam[H]) tryValidate(*storage.Storage) error {
	return nil
}

func (p *optionalParam[H]) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(p.typedItem(s))
}

func (p *optionalParam[H]) typedItem(s *storage.Storage) Option[H] {
	if p.inner.tryValidate(s) != nil {
		p.acquired = false
		return Option[H]{}
	}
	p.acquired = true
	return Option[H]{value: p.inner.typedItem(s), ok: true}
}

func (p *optionalParam[H]) release(s *storage.Storage) {
	if p.acquired {
		p.inner.release(s)
		p.acquired = false
	}
}

func (p *optionalParam[H]) itemType() reflect.Type {
	return reflect.TypeOf((*Option[H])(nil)).Elem()
}

func (p *optionalParam[H]) kind() string {
	return fmt.Sprintf("Option[%s]", p.inner.kind())
}
