// Package audit records every mutation accepted by the remote order
// service. Entries are aggregated into batches by a single goroutine
// and flushed by a small worker pool, either when a batch fills or
// when the flush timeout fires.
package audit

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oxxo-demo/orderhub/internal/order"
)

type Entry struct {
	Timestamp  time.Time    `json:"timestamp"`
	Operation  string       `json:"operation"`
	OrderID    string       `json:"order_id,omitempty"`
	OldStatus  order.Status `json:"old_status,omitempty"`
	NewStatus  order.Status `json:"new_status,omitempty"`
	RemoteAddr string       `json:"remote_addr,omitempty"`
}

// Sink receives flushed batches. Implementations must be safe for
// concurrent use by multiple workers.
type Sink interface {
	Write(ctx context.Context, batch []Entry) error
	Close() error
}

type Manager struct {
	workerCount int
	batchSize   int
	timeout     time.Duration
	sink        Sink
	logger      *zap.Logger

	inputChan  chan Entry
	batchChan  chan []Entry
	shutdownCh chan struct{}
	once       sync.Once
	wg         sync.WaitGroup
}

func NewManager(workerCount, batchSize int, timeout time.Duration, sink Sink, logger *zap.Logger) *Manager {
	return &Manager{
		workerCount: workerCount,
		batchSize:   batchSize,
		timeout:     timeout,
		sink:        sink,
		logger:      logger,
		inputChan:   make(chan Entry, workerCount*batchSize*2),
		batchChan:   make(chan []Entry, workerCount*2),
		shutdownCh:  make(chan struct{}),
	}
}

func (m *Manager) Start(ctx context.Context) {
	m.wg.Add(1)
	go m.runAggregator(ctx)

	for i := 0; i < m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(ctx, i)
	}
}

// Record enqueues an entry. When the manager is saturated or the
// caller's context is done, the entry is written straight to the sink
// so it is not lost.
func (m *Manager) Record(ctx context.Context, entry Entry) {
	select {
	case m.inputChan <- entry:
	case <-ctx.Done():
		m.flush(ctx, []Entry{entry})
	}
}

// Shutdown drains pending batches; it returns once the workers exit
// or the context deadline expires.
func (m *Manager) Shutdown(ctx context.Context) {
	m.once.Do(func() {
		close(m.shutdownCh)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Info("audit manager shutdown completed")
		case <-ctx.Done():
			m.logger.Warn("audit manager shutdown interrupted")
		}

		if err := m.sink.Close(); err != nil {
			m.logger.Error("failed to close audit sink", zap.Error(err))
		}
	})
}

func (m *Manager) runAggregator(ctx context.Context) {
	defer m.wg.Done()

	var (
		batch    []Entry
		timer    *time.Timer
		timeoutC <-chan time.Time
	)

	defer func() {
		if timer != nil {
			timer.Stop()
		}
		if len(batch) > 0 {
			m.dispatchBatch(ctx, batch)
		}
		close(m.batchChan)
	}()

	for {
		select {
		case entry := <-m.inputChan:
			batch = append(batch, entry)
			if len(batch) >= m.batchSize {
				m.dispatchBatch(ctx, batch)
				batch = nil
				timeoutC = nil
			} else if len(batch) == 1 {
				timer = time.NewTimer(m.timeout)
				timeoutC = timer.C
			}

		case <-timeoutC:
			m.dispatchBatch(ctx, batch)
			batch = nil
			timeoutC = nil

		case <-ctx.Done():
			return

		case <-m.shutdownCh:
			return
		}
	}
}

func (m *Manager) dispatchBatch(ctx context.Context, batch []Entry) {
	batchCopy := make([]Entry, len(batch))
	copy(batchCopy, batch)

	select {
	case m.batchChan <- batchCopy:
	default:
		// Workers are busy; flush inline rather than block intake.
		m.flush(ctx, batchCopy)
	}
}

func (m *Manager) runWorker(ctx context.Context, id int) {
	defer m.wg.Done()

	for {
		select {
		case batch, ok := <-m.batchChan:
			if !ok {
				return
			}
			m.flush(ctx, batch)
		case <-ctx.Done():
			// Drain whatever already got dispatched before exiting.
			for {
				select {
				case batch, ok := <-m.batchChan:
					if !ok {
						return
					}
					m.flush(context.Background(), batch)
				default:
					return
				}
			}
		}
	}
}

func (m *Manager) flush(ctx context.Context, batch []Entry) {
	if err := m.sink.Write(ctx, batch); err != nil {
		m.logger.Error("failed to write audit batch", zap.Int("entries", len(batch)), zap.Error(err))
	}
}
