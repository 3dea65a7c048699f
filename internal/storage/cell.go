package storage

import "fmt"

// borrowExclusive marks a cell as exclusively held; any positive state is a
// shared-reader count and zero is free.
const borrowExclusive = -1

// cell is the runtime check backing the single-writer/multi-reader discipline
// of a slot. Violations are programming errors in the access bookkeeping, not
// data conditions, so every misuse panics.
//
// Callers must hold the owning Storage mutex.
type cell struct {
	state int
}

func (c *cell) acquireShared(what string) {
	if c.state == borrowExclusive {
		panic(fmt.Sprintf("storage: %s is already borrowed exclusively", what))
	}
	c.state++
}

func (c *cell) releaseShared(what string) {
	if c.state <= 0 {
		panic(fmt.Sprintf("storage: shared release of %s without a matching acquire", what))
	}
	c.state--
}

func (c *cell) acquireExclusive(what string) {
	if c.state != 0 {
		panic(fmt.Sprintf("storage: %s is already borrowed", what))
	}
	c.state = borrowExclusive
}

func (c *cell) releaseExclusive(what string) {
	if c.state != borrowExclusive {
		panic(fmt.Sprintf("storage: exclusive release of %s without a matching acquire", what))
	}
	c.state = 0
}

func (c *cell) free() bool {
	return c.state == 0
}
