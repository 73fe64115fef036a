// Package gate implements the admission control primitive that bounds the
// number of concurrent in-flight API calls per operation.
package gate

import "context"

// Gate bounds the number of callers admitted at the same time.
//
// Acquire blocks until a permit is available or ctx ends. On success it
// returns a release function that must be called exactly once; callers are
// expected to defer it for the lifetime of the guarded operation.
type Gate interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// limited is a counting semaphore backed by a buffered channel.
type limited struct {
	slots chan struct{}
}

// NewLimited returns a Gate admitting at most n concurrent holders.
// Waiters are admitted in roughly FIFO order; only the bound on simultaneous
// holders is guaranteed. A non-positive n yields an unlimited gate.
func NewLimited(n int) Gate {
	if n <= 0 {
		return Unlimited()
	}
	return &limited{slots: make(chan struct{}, n)}
}

func (g *limited) Acquire(ctx context.Context) (func(), error) {
	select {
	case g.slots <- struct{}{}:
		return func() { <-g.slots }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// unlimited admits every caller immediately. It replaces the counting
// variant when an operation has no configured limit or when gating is
// disabled for the whole session.
type unlimited struct{}

// Unlimited returns the pass-through Gate.
func Unlimited() Gate { return unlimited{} }

func (unlimited) Acquire(context.Context) (func(), error) {
	return func() {}, nil
}
