package component

import (
	"reflect"

	"github.com/fwforge/fwsched/internal/storage"
)

// Commands queues structural storage mutations requested mid-run and leaves
// their application to the dispatcher, after the round. Enqueuing only needs
// exclusive access to the queue itself, never to any slot, so Commands never
// conflicts with any other parameter kind — except a second Commands in the
// same component.
//
// Prefer Commands over StorageMut in components: a callable holding
// StorageMut could invalidate its own extracted parameters.
type Commands struct {
	q *storage.Deferred
}

// UseCommands declares access to the deferred command queue. The callable
// receives a Commands.
func UseCommands() TypedParam[Commands] {
	return &commandsParam{}
}

// AddConfig queues insertion (or replacement) of the configuration value v,
// applied after the current round. The new value is invisible to storage
// reads until then.
func (c Commands) AddConfig(v any) {
	c.q.Append(func(s *storage.Storage) {
		s.AddConfig(v)
	})
}

// AddService queues publication of impl under the interface S, applied after
// the current round.
func AddService[S any](c Commands, impl S) {
	t := reflect.TypeOf((*S)(nil)).Elem()
	c.q.Append(func(s *storage.Storage) {
		// impl is statically an S, so publication cannot mismatch.
		_ = s.AddService(t, impl)
	})
}

// Pending returns the number of commands queued so far.
func (c Commands) Pending() int {
	return c.q.Len()
}

type commandsParam struct{}

func (p *commandsParam) register(_ *storage.Storage, m *Metadata) {
	if m.Access().UsesDeferred() {
		panicConflict(p.kind(), m, "Commands")
	}
	m.Access().MarkDeferred()
}

func (p *commandsParam) tryValidate(*storage.Storage) error {
	return nil
}

func (p *commandsParam) item(s *storage.Storage) reflect.Value {
	return reflect.ValueOf(p.typedItem(s))
}

func (p *commandsParam) typedItem(s *storage.Storage) Commands {
	return Commands{q: s.AcquireDeferred()}
}

func (p *commandsParam) release(s *storage.Storage) {
	s.ReleaseDeferred()
}

func (p *commandsParam) itemType() reflect.Type {
	return reflect.TypeOf((*Commands)(nil)).Elem()
}

func (p *commandsParam) kind() string {
	return "Commands"
}
