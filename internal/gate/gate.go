// Package gate implements the capacity-1 admission control over the encoder.
//
// The encoder is single-threaded-CPU-bound on the host, so exactly one
// render may be in flight process-wide. Excess requests are rejected
// rather than queued.
package gate

import "sync"

type state int

const (
	idle state = iota
	busy
)

// Gate is a two-state admission semaphore.
type Gate struct {
	mu sync.Mutex
	s  state
}

// New returns a Gate in the Idle state.
func New() *Gate {
	return &Gate{}
}

// TryAcquire transitions Idle->Busy and reports whether it succeeded.
// It never blocks.
func (g *Gate) TryAcquire() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.s != idle {
		return false
	}
	g.s = busy
	return true
}

// Release returns the gate to Idle. It must run on every exit path of
// the holder, including failures.
func (g *Gate) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.s = idle
}

// Busy reports whether a render currently holds the gate.
func (g *Gate) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.s == busy
}
