package cache

import (
	"context"
	"sync"
)

// pendingRender is one in-progress render that later callers for the same key wait on.
type pendingRender struct {
	done chan struct{}
	body []byte
	err  error
}

// renderGroup collapses concurrent cache misses for the same figure key into one render.
type renderGroup struct {
	mu      sync.Mutex
	pending map[string]*pendingRender
}

func newRenderGroup() *renderGroup {
	return &renderGroup{pending: make(map[string]*pendingRender)}
}

// Do runs fn once per key among concurrent callers. shared reports whether this
// caller received another caller's result. A waiter whose ctx ends stops waiting;
// the render itself keeps going for the others.
func (g *renderGroup) Do(ctx context.Context, key string, fn func() ([]byte, error)) (body []byte, shared bool, err error) {
	g.mu.Lock()
	if p, ok := g.pending[key]; ok {
		g.mu.Unlock()
		select {
		case <-p.done:
			return p.body, true, p.err
		case <-ctx.Done():
			return nil, true, ctx.Err()
		}
	}
	p := &pendingRender{done: make(chan struct{})}
	g.pending[key] = p
	g.mu.Unlock()

	p.body, p.err = fn()

	g.mu.Lock()
	delete(g.pending, key)
	g.mu.Unlock()
	close(p.done)
	return p.body, false, p.err
}

// inFlight returns the number of keys currently rendering.
func (g *renderGroup) inFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.pending)
}
