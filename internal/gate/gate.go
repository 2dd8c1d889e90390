package gate

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Holder identifies the calling context that owns a permit.
type Holder string

// Gate is a named counting semaphore.
type Gate struct {
	name    string
	permits int

	avail   atomic.Int32
	queued  atomic.Int32
	holders sync.Map // Holder -> struct{}

	mu      sync.Mutex
	waiters []*waiter
}

type waiter struct {
	holder  Holder
	ready   chan struct{}
	granted bool
}

func newGate(name string, permits int) *Gate {
	g := &Gate{name: name, permits: permits}
	g.avail.Store(int32(permits))
	return g
}

// Name returns the gate name.
func (g *Gate) Name() string { return g.name }

// Permits returns the total permit count.
func (g *Gate) Permits() int { return g.permits }

// Available returns the number of free permits.
func (g *Gate) Available() int { return int(g.avail.Load()) }

// Waiting returns the number of callers blocked in Wait.
func (g *Gate) Waiting() int { return int(g.queued.Load()) }

// Holds reports whether h currently holds a permit.
func (g *Gate) Holds(h Holder) bool {
	_, ok := g.holders.Load(h)
	return ok
}

// Acquire takes a permit for h without waiting. It returns false if no permit
// is free or if other callers are queued in Wait.
func (g *Gate) Acquire(h Holder) bool {
	g.mustNotHold(h)
	if g.queued.Load() > 0 {
		return false
	}
	if !g.tryTake() {
		return false
	}
	g.grant(h)
	return true
}

// Release returns the permit held by h. It is a no-op if h holds none.
func (g *Gate) Release(h Holder) {
	if _, ok := g.holders.LoadAndDelete(h); !ok {
		return
	}
	g.avail.Add(1)
	if g.queued.Load() > 0 {
		g.handoff()
	}
}

// Wait blocks until h is granted a permit or ctx is done. Blocked callers are
// served in arrival order.
func (g *Gate) Wait(ctx context.Context, h Holder) error {
	g.mustNotHold(h)

	g.mu.Lock()
	g.queued.Add(1)
	if len(g.waiters) == 0 && g.tryTake() {
		g.queued.Add(-1)
		g.mu.Unlock()
		g.grant(h)
		return nil
	}
	w := &waiter{holder: h, ready: make(chan struct{})}
	g.waiters = append(g.waiters, w)
	g.mu.Unlock()

	select {
	case <-w.ready:
		return nil
	case <-ctx.Done():
	}

	g.mu.Lock()
	if w.granted {
		g.mu.Unlock()
		g.Release(h)
		return ctx.Err()
	}
	for i, q := range g.waiters {
		if q == w {
			g.waiters = append(g.waiters[:i], g.waiters[i+1:]...)
			break
		}
	}
	g.queued.Add(-1)
	g.mu.Unlock()
	return ctx.Err()
}

// handoff grants free permits to queued waiters in FIFO order.
func (g *Gate) handoff() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for len(g.waiters) > 0 {
		if !g.tryTake() {
			return
		}
		w := g.waiters[0]
		g.waiters = g.waiters[1:]
		g.queued.Add(-1)
		g.grant(w.holder)
		w.granted = true
		close(w.ready)
	}
}

func (g *Gate) tryTake() bool {
	for {
		n := g.avail.Load()
		if n <= 0 {
			return false
		}
		if g.avail.CompareAndSwap(n, n-1) {
			return true
		}
	}
}

func (g *Gate) grant(h Holder) {
	if _, loaded := g.holders.LoadOrStore(h, struct{}{}); loaded {
		g.avail.Add(1)
		panic(fmt.Sprintf("gate %q: holder %q already holds a permit", g.name, h))
	}
}

func (g *Gate) mustNotHold(h Holder) {
	if g.Holds(h) {
		panic(fmt.Sprintf("gate %q: holder %q already holds a permit", g.name, h))
	}
}
