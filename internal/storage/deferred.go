package storage

// Command is a pending structural mutation of Storage, captured during a
// component run and replayed later by the dispatcher.
type Command func(*Storage)

// Deferred is the ordered queue of pending commands. Appending only ever
// needs exclusive access to the queue itself, never to any slot, which is
// what makes it conflict-free with every other parameter.
type Deferred struct {
	cmds []Command
}

// Append enqueues a command. Commands run in enqueue order.
func (d *Deferred) Append(cmd Command) {
	d.cmds = append(d.cmds, cmd)
}

// Len returns the number of pending commands.
func (d *Deferred) Len() int {
	return len(d.cmds)
}

// AcquireDeferred grants exclusive access to the pending command queue for
// the duration of a component run.
func (s *Storage) AcquireDeferred() *Deferred {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferredCell.acquireExclusive("Commands")
	return &s.deferred
}

// ReleaseDeferred returns the access granted by AcquireDeferred.
func (s *Storage) ReleaseDeferred() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferredCell.releaseExclusive("Commands")
}

// DeferredLen reports the number of queued commands without taking access.
func (s *Storage) DeferredLen() int {
	return s.deferred.Len()
}

// ApplyDeferred runs every queued command against the storage in enqueue
// order, then clears the queue. It must only be called between scheduling
// rounds: calling it while any borrow is live panics.
func (s *Storage) ApplyDeferred() {
	s.mu.Lock()
	if !s.deferredCell.free() || !s.storageCell.free() {
		s.mu.Unlock()
		panic("storage: ApplyDeferred called during a live component run")
	}
	for _, slot := range s.configs {
		if !slot.cell.free() {
			s.mu.Unlock()
			panic("storage: ApplyDeferred called while a config slot is borrowed")
		}
	}
	cmds := s.deferred.cmds
	s.deferred.cmds = nil
	s.mu.Unlock()

	for _, cmd := range cmds {
		cmd(s)
	}
}
