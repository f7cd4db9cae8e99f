//go:generate mockgen -source ./manager.go -destination=./mocks/manager.go -package=mock_manager

// Package manager is the public order API: create, fetch, update
// status, list, clear, plus the background loop that keeps the local
// replica warm with other devices' writes.
package manager

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/oxxo-demo/orderhub/internal/metrics"
	"github.com/oxxo-demo/orderhub/internal/notify"
	"github.com/oxxo-demo/orderhub/internal/order"
)

// Store is the sync client surface the manager drives: dual-tier
// writes, remote-preferred reads, replica-only lookup.
type Store interface {
	Save(ctx context.Context, o order.Order) error
	FetchAll(ctx context.Context) map[string]order.Order
	Sync(ctx context.Context) bool
	Lookup(ctx context.Context, id string) (*order.Order, bool)
	Clear(ctx context.Context) error
}

type Options struct {
	// SyncInterval drives the background pull; defaults to 5s.
	SyncInterval time.Duration

	// SessionFile marks that this state directory already seeded its
	// demo orders. Empty disables seeding.
	SessionFile string
}

type Manager struct {
	store   Store
	bus     *notify.Bus
	logger  *zap.Logger
	opts    Options
	timeNow func() time.Time

	wg             sync.WaitGroup
	shutdownSignal chan struct{}
	stopOnce       sync.Once
}

func New(store Store, bus *notify.Bus, logger *zap.Logger, opts Options) *Manager {
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = 5 * time.Second
	}
	return &Manager{
		store:          store,
		bus:            bus,
		logger:         logger,
		opts:           opts,
		timeNow:        time.Now,
		shutdownSignal: make(chan struct{}),
	}
}

// CreateOrder materializes a draft: fresh id, status confirmed, one
// history entry, dual-write, change notification.
func (m *Manager) CreateOrder(ctx context.Context, draft order.Draft) (order.Order, error) {
	if err := draft.Validate(); err != nil {
		return order.Order{}, fmt.Errorf("invalid order draft: %w", err)
	}

	o := order.New(draft, m.timeNow())
	if err := m.store.Save(ctx, o); err != nil {
		return order.Order{}, fmt.Errorf("failed to save order %s: %w", o.ID, err)
	}

	metrics.OrdersCreatedTotal.Inc()
	m.logger.Info("order created", zap.String("order_id", o.ID), zap.Float64("total", o.Total))
	m.bus.Publish()
	return o, nil
}

// GetOrder looks the order up remote-first (the fetch refreshes the
// replica as a side effect), then falls back to the replica tiers.
// Absence is (nil, nil), never an error.
func (m *Manager) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	orders := m.store.FetchAll(ctx)
	if o, ok := orders[id]; ok {
		c := o.Clone()
		return &c, nil
	}
	if o, ok := m.store.Lookup(ctx, id); ok {
		return o, nil
	}
	return nil, nil
}

// GetAllOrders returns the full mapping, remote-preferred.
func (m *Manager) GetAllOrders(ctx context.Context) map[string]order.Order {
	return m.store.FetchAll(ctx)
}

// UpdateOrderStatus applies the transition and persists through the
// dual-write path. Returns false when the order is absent everywhere;
// it never fails loudly.
func (m *Manager) UpdateOrderStatus(ctx context.Context, id string, status order.Status, description string) bool {
	var o order.Order
	if found, ok := m.store.FetchAll(ctx)[id]; ok {
		o = found.Clone()
	} else if local, ok := m.store.Lookup(ctx, id); ok {
		o = local.Clone()
	} else {
		m.logger.Warn("order not found for status update", zap.String("order_id", id))
		return false
	}

	order.ApplyStatus(&o, status, description, m.timeNow())

	if err := m.store.Save(ctx, o); err != nil {
		m.logger.Error("failed to persist status update",
			zap.String("order_id", id), zap.String("status", string(status)), zap.Error(err))
		return false
	}

	metrics.StatusUpdatesTotal.WithLabelValues(string(status)).Inc()
	m.bus.Publish()
	return true
}

// OrderExists is derived from GetOrder.
func (m *Manager) OrderExists(ctx context.Context, id string) bool {
	o, _ := m.GetOrder(ctx, id)
	return o != nil
}

// ClearAll removes every order from every storage tier.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear orders: %w", err)
	}
	m.bus.Publish()
	return nil
}

// Subscribe attaches fn to the change notification bus.
func (m *Manager) Subscribe(fn func()) (unsubscribe func()) {
	return m.bus.Subscribe(fn)
}

// Run polls the remote on SyncInterval to catch writes made by other
// devices, publishing a change notification after each reachable
// pull. Blocks until ctx is cancelled or Shutdown is called.
func (m *Manager) Run(ctx context.Context) {
	m.wg.Add(1)
	defer m.wg.Done()

	ticker := time.NewTicker(m.opts.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if m.store.Sync(ctx) {
				m.bus.Publish()
			}
		case <-m.shutdownSignal:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Shutdown stops the background loop and waits for it to exit.
func (m *Manager) Shutdown() {
	m.stopOnce.Do(func() {
		close(m.shutdownSignal)

		done := make(chan struct{})
		go func() {
			m.wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			m.logger.Info("order manager stopped")
		case <-time.After(5 * time.Second):
			m.logger.Warn("order manager shutdown timed out")
		}
	})
}

// SeedDemoOrders writes two fixed demo orders once per state
// directory, so a fresh install has something to validate against.
func (m *Manager) SeedDemoOrders(ctx context.Context) error {
	if m.opts.SessionFile == "" {
		return nil
	}
	if _, err := os.Stat(m.opts.SessionFile); err == nil {
		return nil
	}

	for _, o := range demoOrders(m.timeNow()) {
		if err := m.store.Save(ctx, o); err != nil {
			return fmt.Errorf("failed to seed demo order %s: %w", o.ID, err)
		}
		m.logger.Info("demo order seeded", zap.String("order_id", o.ID))
	}
	m.bus.Publish()

	marker := fmt.Sprintf("%d\n", m.timeNow().UnixMilli())
	if err := os.WriteFile(m.opts.SessionFile, []byte(marker), 0o644); err != nil {
		return fmt.Errorf("failed to write session marker: %w", err)
	}
	return nil
}

func demoOrders(now time.Time) []order.Order {
	seed := func(id, customer, method string, total float64, items []order.Item) order.Order {
		return order.Order{
			ID:            id,
			CustomerName:  customer,
			Items:         items,
			Total:         total,
			PaymentMethod: method,
			Status:        order.StatusConfirmed,
			CreatedAt:     now,
			UpdatedAt:     now,
			Timestamp:     now.UnixMilli(),
			StatusHistory: []order.StatusChange{{
				Status:      order.StatusConfirmed,
				Timestamp:   now,
				Description: "Orden de prueba creada",
			}},
		}
	}

	return []order.Order{
		seed("OXXO12345678", "Juan Pérez", "tarjeta", 11.90, []order.Item{
			{ProductRef: "1", Name: "Coca-Cola 600ml", UnitPrice: 3.50, Quantity: 2},
			{ProductRef: "2", Name: "Doritos Nacho", UnitPrice: 4.90, Quantity: 1},
		}),
		seed("OXXO87654321", "Ana Martínez", "yape", 11.10, []order.Item{
			{ProductRef: "4", Name: "Inka Kola 500ml", UnitPrice: 3.20, Quantity: 2},
			{ProductRef: "5", Name: "Pringles Original", UnitPrice: 4.70, Quantity: 1},
		}),
	}
}
