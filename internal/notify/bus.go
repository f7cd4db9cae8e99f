// Package notify is the in-process change notification bus: a
// broadcast signal with no payload beyond "order data may have
// changed, re-fetch".
package notify

import (
	"sync"

	"go.uber.org/zap"
)

type Bus struct {
	mu     sync.Mutex
	next   int
	subs   map[int]func()
	logger *zap.Logger
}

func NewBus(logger *zap.Logger) *Bus {
	return &Bus{
		subs:   make(map[int]func()),
		logger: logger,
	}
}

// Subscribe attaches fn and returns its detach function. Detaching
// twice is harmless.
func (b *Bus) Subscribe(fn func()) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	b.subs[id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// Publish invokes every subscriber synchronously, in-process. A
// panicking subscriber is recovered so the rest still run.
func (b *Bus) Publish() {
	b.mu.Lock()
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		b.invoke(fn)
	}
}

func (b *Bus) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("change subscriber panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
