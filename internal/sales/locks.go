package sales

import "sync"

// customerLocks hands out one mutex per customer name so that two payments
// for the same customer never read the same outstanding sales.
type customerLocks struct {
	mu    sync.Mutex
	locks map[CustomerName]*customerLock
}

type customerLock struct {
	mu   sync.Mutex
	refs int
}

func newCustomerLocks() *customerLocks {
	return &customerLocks{locks: make(map[CustomerName]*customerLock)}
}

// Lock blocks until name is free and returns the matching unlock func.
func (c *customerLocks) Lock(name CustomerName) func() {
	c.mu.Lock()
	l, ok := c.locks[name]
	if !ok {
		l = &customerLock{}
		c.locks[name] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, name)
		}
		c.mu.Unlock()
	}
}

func (c *customerLocks) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.locks)
}
