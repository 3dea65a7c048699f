// Package dispatch drives registered components to a fixed point over a
// shared storage.
//
// Scheduling is cooperative and round-based: every round each pending
// component is offered one run. A component that runs is retired; one that
// reports not-ready stays pending. Deferred commands queued during the round
// are applied once the round is over, so their effects become visible to the
// next round. When a whole round passes with no progress the dispatcher
// invokes its lock policy; if the policy changes nothing either, the fixed
// point is reached and whatever is still pending is reported as stalled.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/fwforge/fwsched/internal/component"
	"github.com/fwforge/fwsched/internal/ctxlog"
	"github.com/fwforge/fwsched/internal/storage"
)

// LockPolicy decides which configuration slots to lock once no pending
// component can make progress. It returns the number of slots it locked;
// zero means the policy has nothing left to try and dispatch stops.
type LockPolicy func(s *storage.Storage, pending []component.Component) int

// LockAll locks every still-unlocked configuration slot. This is the default
// policy: at a stall every producer has had its chance, so freezing the
// remaining slots is what unblocks read-only consumers.
func LockAll(s *storage.Storage, _ []component.Component) int {
	return s.LockAll()
}

// LockUnclaimed locks only the slots that no pending component still claims
// mutably. A stricter policy than LockAll: a pending producer keeps its slot
// open even though it may never run.
func LockUnclaimed(s *storage.Storage, pending []component.Component) int {
	claimed := make(map[storage.ConfigID]struct{})
	for _, c := range pending {
		for _, id := range c.Metadata().Access().Writes() {
			claimed[id] = struct{}{}
		}
	}
	n := 0
	for id := storage.ConfigID(0); int(id) < s.ConfigCount(); id++ {
		if _, ok := claimed[id]; ok {
			continue
		}
		if !s.ConfigLocked(id) {
			if err := s.LockConfig(id); err == nil {
				n++
			}
		}
	}
	return n
}

// Stalled describes a component that never became runnable, with the kind of
// the parameter that last failed validation.
type Stalled struct {
	Name  string
	Param string
}

// Dispatcher owns a set of components and runs them to completion.
type Dispatcher struct {
	components []component.Component
	lockPolicy LockPolicy
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLockPolicy replaces the default LockAll stall policy.
func WithLockPolicy(p LockPolicy) Option {
	return func(d *Dispatcher) { d.lockPolicy = p }
}

// New creates a Dispatcher.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{lockPolicy: LockAll}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Register adds components to the dispatch set. Registration order is the
// in-round offer order; beyond that, ordering emerges only from data
// availability.
func (d *Dispatcher) Register(cs ...component.Component) {
	d.components = append(d.components, cs...)
}

// Run initializes every registered component, then drives rounds until all
// components have run, the fixed point is reached, or ctx is done. It
// returns the components that never ran and the joined application-level
// errors of the ones that did. Initialization conflicts panic, as they are
// authoring bugs.
func (d *Dispatcher) Run(ctx context.Context, s *storage.Storage) ([]Stalled, error) {
	log := ctxlog.FromContext(ctx)

	for _, c := range d.components {
		c.Initialize(s)
	}
	log.Debug("components initialized", "count", len(d.components))

	pending := make([]component.Component, len(d.components))
	copy(pending, d.components)

	var errs []error
	round := 0
	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		round++

		progress := false
		next := pending[:0]
		for _, c := range pending {
			name := c.Metadata().Name()
			ran, err := c.Run(s)
			if !ran {
				log.Debug("component not ready",
					"component", name,
					"param", c.Metadata().FailedParam(),
					"round", round)
				next = append(next, c)
				continue
			}
			progress = true
			if err != nil {
				log.Error("component failed", "component", name, "round", round, "error", err)
				errs = append(errs, fmt.Errorf("component %s: %w", name, err))
				continue
			}
			log.Debug("component ran", "component", name, "round", round)
		}
		pending = next

		s.ApplyDeferred()

		if !progress {
			locked := d.lockPolicy(s, pending)
			log.Info("no progress, lock policy applied",
				"round", round,
				"locked", locked,
				"pending", len(pending))
			if locked == 0 {
				break
			}
		}
	}

	stalled := make([]Stalled, 0, len(pending))
	for _, c := range pending {
		st := Stalled{Name: c.Metadata().Name(), Param: c.Metadata().FailedParam()}
		stalled = append(stalled, st)
		log.Warn("component never ran", "component", st.Name, "param", st.Param)
	}
	log.Debug("dispatch finished", "rounds", round, "stalled", len(stalled))

	return stalled, errors.Join(errs...)
}
