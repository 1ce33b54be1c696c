package analysis

import "sync"

// Guard allows at most one analysis request in flight. It is a flag, not a
// queue: a caller that fails to acquire it simply does not submit.
type Guard struct {
	mu   sync.Mutex
	busy bool
}

// TryAcquire marks the guard busy and reports whether it was free.
func (g *Guard) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy {
		return false
	}
	g.busy = true
	return true
}

// Release frees the guard.
func (g *Guard) Release() {
	g.mu.Lock()
	g.busy = false
	g.mu.Unlock()
}

// Busy reports whether a request is in flight.
func (g *Guard) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy
}
