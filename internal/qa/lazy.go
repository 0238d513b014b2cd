package qa

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Factory constructs an oracle. It may be slow (model checks, warm-up).
type Factory func(ctx context.Context) (Oracle, error)

// Lazy builds its oracle on first use and reuses it for the life of the
// process. Concurrent first calls run the factory once; a failed build is
// not remembered, so the next call tries again.
type Lazy struct {
	factory Factory

	mu     sync.Mutex
	ready  atomic.Bool
	oracle Oracle
}

// NewLazy returns a Lazy that builds its oracle with factory.
func NewLazy(factory Factory) *Lazy {
	return &Lazy{factory: factory}
}

// Get returns the shared oracle, building it if needed.
func (l *Lazy) Get(ctx context.Context) (Oracle, error) {
	if l.ready.Load() {
		return l.oracle, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.ready.Load() {
		return l.oracle, nil
	}
	o, err := l.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("init oracle: %w", err)
	}
	l.oracle = o
	l.ready.Store(true)
	return o, nil
}

// Ready reports whether the oracle has been built.
func (l *Lazy) Ready() bool {
	return l.ready.Load()
}

func (l *Lazy) Answer(ctx context.Context, question, passage string) (Answer, error) {
	o, err := l.Get(ctx)
	if err != nil {
		return Answer{}, err
	}
	return o.Answer(ctx, question, passage)
}

// Close releases the built oracle, if any, and lets the next call rebuild it.
func (l *Lazy) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.ready.Load() {
		return
	}
	if c, ok := l.oracle.(closer); ok {
		c.Close()
	}
	l.oracle = nil
	l.ready.Store(false)
}
