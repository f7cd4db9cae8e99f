package manager

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/oxxo-demo/orderhub/internal/audit"
	"github.com/oxxo-demo/orderhub/internal/notify"
	"github.com/oxxo-demo/orderhub/internal/order"
	"github.com/oxxo-demo/orderhub/internal/remote"
	"github.com/oxxo-demo/orderhub/internal/replica"
	"github.com/oxxo-demo/orderhub/internal/syncclient"
)

var idPattern = regexp.MustCompile(`^OXXO\d{12}$`)

type fixture struct {
	manager *Manager
	remote  *httptest.Server
}

func newRemote(t *testing.T) *httptest.Server {
	t.Helper()
	fs, err := remote.NewFileStore(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)
	auditMgr := audit.NewManager(1, 8, time.Second, audit.NewLogSink(zap.NewNop()), zap.NewNop())
	srv := httptest.NewServer(remote.New(fs, auditMgr, zap.NewNop()).Router())
	t.Cleanup(srv.Close)
	return srv
}

func newManagerAgainst(t *testing.T, srv *httptest.Server) *Manager {
	t.Helper()
	rep, err := replica.NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	store := syncclient.New(srv.URL, rep, zap.NewNop())
	return New(store, notify.NewBus(zap.NewNop()), zap.NewNop(), Options{})
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	srv := newRemote(t)
	return fixture{manager: newManagerAgainst(t, srv), remote: srv}
}

func testDraft() order.Draft {
	return order.Draft{
		CustomerName: "Juan Pérez",
		Items: []order.Item{
			{ProductRef: "1", Name: "Coca-Cola 600ml", UnitPrice: 3.50, Quantity: 2},
			{ProductRef: "2", Name: "Doritos Nacho", UnitPrice: 4.90, Quantity: 1},
		},
		Total:         11.90,
		PaymentMethod: "tarjeta",
	}
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.manager.CreateOrder(ctx, testDraft())
	require.NoError(t, err)

	assert.Regexp(t, idPattern, o.ID)
	assert.Equal(t, order.StatusConfirmed, o.Status)
	require.Len(t, o.StatusHistory, 1)
	assert.Equal(t, order.StatusConfirmed, o.StatusHistory[0].Status)
}

func TestCreateOrderRejectsInvalidDraft(t *testing.T) {
	f := newFixture(t)

	draft := testDraft()
	draft.Total = 5.00 // does not match item sum

	_, err := f.manager.CreateOrder(context.Background(), draft)
	assert.Error(t, err)
}

func TestOrderLifecycleScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.manager.CreateOrder(ctx, testDraft())
	require.NoError(t, err)
	assert.Regexp(t, idPattern, o.ID)
	assert.Equal(t, order.StatusConfirmed, o.Status)

	require.True(t, f.manager.UpdateOrderStatus(ctx, o.ID, order.StatusPreparing, ""))
	got, err := f.manager.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, order.StatusPreparing, got.Status)
	assert.Len(t, got.StatusHistory, 2)

	require.True(t, f.manager.UpdateOrderStatus(ctx, o.ID, order.StatusReady, ""))
	got, _ = f.manager.GetOrder(ctx, o.ID)
	assert.Equal(t, order.StatusReady, got.Status)
	assert.Len(t, got.StatusHistory, 3)

	require.True(t, f.manager.UpdateOrderStatus(ctx, o.ID, order.StatusDelivered, ""))
	got, _ = f.manager.GetOrder(ctx, o.ID)
	assert.Equal(t, order.StatusDelivered, got.Status)
	assert.Len(t, got.StatusHistory, 4)
	assert.True(t, got.Status.Terminal())
}

func TestUpdateOrderStatusDescription(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.manager.CreateOrder(ctx, testDraft())
	require.NoError(t, err)

	t.Run("explicit description", func(t *testing.T) {
		require.True(t, f.manager.UpdateOrderStatus(ctx, o.ID, order.StatusPreparing, "El cajero María González está preparando tu pedido"))

		got, _ := f.manager.GetOrder(ctx, o.ID)
		last := got.StatusHistory[len(got.StatusHistory)-1]
		assert.Equal(t, "El cajero María González está preparando tu pedido", last.Description)
	})

	t.Run("canned default", func(t *testing.T) {
		require.True(t, f.manager.UpdateOrderStatus(ctx, o.ID, order.StatusReady, ""))

		got, _ := f.manager.GetOrder(ctx, o.ID)
		last := got.StatusHistory[len(got.StatusHistory)-1]
		assert.Equal(t, order.Descriptions[order.StatusReady], last.Description)
	})
}

func TestUpdateOrderStatusUnknownID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.False(t, f.manager.UpdateOrderStatus(ctx, "NONEXISTENT", order.StatusReady, ""))
	assert.Empty(t, f.manager.GetAllOrders(ctx))
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture(t)

	got, err := f.manager.GetOrder(context.Background(), "NONEXISTENT")
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.False(t, f.manager.OrderExists(context.Background(), "NONEXISTENT"))
}

func TestGetAllOrdersOfflineFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.manager.CreateOrder(ctx, testDraft())
	require.NoError(t, err)
	b, err := f.manager.CreateOrder(ctx, testDraft())
	require.NoError(t, err)

	f.remote.Close()

	orders := f.manager.GetAllOrders(ctx)
	assert.Contains(t, orders, a.ID)
	assert.Contains(t, orders, b.ID)
}

func TestConvergenceAcrossClients(t *testing.T) {
	srv := newRemote(t)
	clientA := newManagerAgainst(t, srv)
	clientB := newManagerAgainst(t, srv)
	ctx := context.Background()

	created, err := clientA.CreateOrder(ctx, testDraft())
	require.NoError(t, err)

	// B polls once, then reads.
	clientB.GetAllOrders(ctx)
	got, err := clientB.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, created.Total, got.Total)
	assert.Equal(t, created.Status, got.Status)
}

func TestClearAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.manager.CreateOrder(ctx, testDraft())
	require.NoError(t, err)

	require.NoError(t, f.manager.ClearAll(ctx))
	assert.Empty(t, f.manager.GetAllOrders(ctx))
}

func TestChangeNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	var notified int
	unsubscribe := f.manager.Subscribe(func() { notified++ })
	defer unsubscribe()

	o, err := f.manager.CreateOrder(ctx, testDraft())
	require.NoError(t, err)
	f.manager.UpdateOrderStatus(ctx, o.ID, order.StatusPreparing, "")
	require.NoError(t, f.manager.ClearAll(ctx))

	assert.Equal(t, 3, notified)
}

func TestRunPublishesOnSync(t *testing.T) {
	f := newFixture(t)

	rep, err := replica.NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	store := syncclient.New(f.remote.URL, rep, zap.NewNop())
	m := New(store, notify.NewBus(zap.NewNop()), zap.NewNop(), Options{SyncInterval: 10 * time.Millisecond})

	var notified atomic.Int32
	m.Subscribe(func() { notified.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	assert.Eventually(t, func() bool { return notified.Load() > 0 }, time.Second, 5*time.Millisecond)
	m.Shutdown()
}

func TestSeedDemoOrdersOncePerSession(t *testing.T) {
	srv := newRemote(t)
	rep, err := replica.NewStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	store := syncclient.New(srv.URL, rep, zap.NewNop())

	marker := filepath.Join(t.TempDir(), "session")
	m := New(store, notify.NewBus(zap.NewNop()), zap.NewNop(), Options{SessionFile: marker})
	ctx := context.Background()

	require.NoError(t, m.SeedDemoOrders(ctx))
	orders := m.GetAllOrders(ctx)
	assert.Len(t, orders, 2)
	assert.Contains(t, orders, "OXXO12345678")
	assert.Contains(t, orders, "OXXO87654321")

	// Second call is a no-op: the session marker exists now.
	require.NoError(t, m.ClearAll(ctx))
	require.NoError(t, m.SeedDemoOrders(ctx))
	assert.Empty(t, m.GetAllOrders(ctx))
}
