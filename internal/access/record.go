// Package access tracks the declared storage footprint of a component: which
// configuration slots it reads or writes, whether it touches the whole
// storage, and whether it uses the deferred command queue.
//
// The record is filled in once, at component initialization, by each
// parameter's registration step. The parameter layer consults it to refuse
// conflicting declarations inside one component; a concurrent dispatcher can
// compare records across components to decide which may run in parallel.
package access

import "github.com/fwforge/fwsched/internal/storage"

// Record is the declared read/write footprint of a single component.
type Record struct {
	reads  map[storage.ConfigID]struct{}
	writes map[storage.ConfigID]struct{}

	readsAll  bool
	writesAll bool
	deferred  bool
}

// NewRecord creates an empty footprint.
func NewRecord() *Record {
	return &Record{
		reads:  make(map[storage.ConfigID]struct{}),
		writes: make(map[storage.ConfigID]struct{}),
	}
}

// AddConfigRead records a read of the given slot.
func (r *Record) AddConfigRead(id storage.ConfigID) {
	r.reads[id] = struct{}{}
}

// AddConfigWrite records a write of the given slot.
func (r *Record) AddConfigWrite(id storage.ConfigID) {
	r.writes[id] = struct{}{}
}

// MarkReadsAll records whole-storage read access.
func (r *Record) MarkReadsAll() {
	r.readsAll = true
}

// MarkWritesAll records whole-storage write access.
func (r *Record) MarkWritesAll() {
	r.writesAll = true
}

// MarkDeferred records use of the deferred command queue.
func (r *Record) MarkDeferred() {
	r.deferred = true
}

// HasConfigRead reports whether the slot is already declared read.
func (r *Record) HasConfigRead(id storage.ConfigID) bool {
	_, ok := r.reads[id]
	return ok
}

// HasConfigWrite reports whether the slot is already declared written.
func (r *Record) HasConfigWrite(id storage.ConfigID) bool {
	_, ok := r.writes[id]
	return ok
}

// ReadsAll reports whether whole-storage read access is declared.
func (r *Record) ReadsAll() bool { return r.readsAll }

// WritesAll reports whether whole-storage write access is declared.
func (r *Record) WritesAll() bool { return r.writesAll }

// UsesDeferred reports whether the deferred queue is declared.
func (r *Record) UsesDeferred() bool { return r.deferred }

// HasAnyConfigAccess reports whether any per-slot access is declared.
func (r *Record) HasAnyConfigAccess() bool {
	return len(r.reads) > 0 || len(r.writes) > 0
}

// HasAnyConfigRead reports whether any per-slot read is declared.
func (r *Record) HasAnyConfigRead() bool { return len(r.reads) > 0 }

// HasAnyConfigWrite reports whether any per-slot write is declared.
func (r *Record) HasAnyConfigWrite() bool { return len(r.writes) > 0 }

// Reads returns the declared read set.
func (r *Record) Reads() []storage.ConfigID {
	return idList(r.reads)
}

// Writes returns the declared write set.
func (r *Record) Writes() []storage.ConfigID {
	return idList(r.writes)
}

// ConflictsWith reports whether two components' footprints could alias if run
// simultaneously: a write in one against any access of the same slot in the
// other, or whole-storage write access against anything at all.
func (r *Record) ConflictsWith(other *Record) bool {
	if r.writesAll && (other.writesAll || other.readsAll || other.HasAnyConfigAccess()) {
		return true
	}
	if other.writesAll && (r.readsAll || r.HasAnyConfigAccess()) {
		return true
	}
	for id := range r.writes {
		if other.HasConfigRead(id) || other.HasConfigWrite(id) {
			return true
		}
		if other.readsAll {
			return true
		}
	}
	for id := range other.writes {
		if r.HasConfigRead(id) {
			return true
		}
		if r.readsAll {
			return true
		}
	}
	return false
}

func idList(set map[storage.ConfigID]struct{}) []storage.ConfigID {
	ids := make([]storage.ConfigID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}
