package audit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/oxxo-demo/orderhub/internal/order"
)

type captureSink struct {
	mu      sync.Mutex
	entries []Entry
	closed  bool
}

func (s *captureSink) Write(_ context.Context, batch []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, batch...)
	return nil
}

func (s *captureSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func TestManagerFlushesFullBatch(t *testing.T) {
	sink := &captureSink{}
	m := NewManager(1, 2, time.Minute, sink, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	for i := 0; i < 4; i++ {
		m.Record(ctx, Entry{Operation: "save", OrderID: "OXXO123456780001", NewStatus: order.StatusConfirmed})
	}

	assert.Eventually(t, func() bool { return sink.count() == 4 }, time.Second, 10*time.Millisecond)
}

func TestManagerFlushesOnTimeout(t *testing.T) {
	sink := &captureSink{}
	m := NewManager(1, 100, 20*time.Millisecond, sink, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)

	m.Record(ctx, Entry{Operation: "clear"})

	assert.Eventually(t, func() bool { return sink.count() == 1 }, time.Second, 10*time.Millisecond)
}

func TestManagerShutdownDrainsAndClosesSink(t *testing.T) {
	sink := &captureSink{}
	m := NewManager(2, 100, time.Minute, sink, zap.NewNop())

	ctx := context.Background()
	m.Start(ctx)

	m.Record(ctx, Entry{Operation: "save", OrderID: "OXXO123456780002"})
	m.Record(ctx, Entry{Operation: "save", OrderID: "OXXO123456780003"})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	m.Shutdown(shutdownCtx)

	assert.Equal(t, 2, sink.count())
	assert.True(t, sink.closed)
}
