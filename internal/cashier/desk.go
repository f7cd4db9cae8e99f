package cashier

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/oxxo-demo/orderhub/internal/order"
)

// Orders is the manager surface the desk drives.
type Orders interface {
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	GetAllOrders(ctx context.Context) map[string]order.Order
	UpdateOrderStatus(ctx context.Context, id string, status order.Status, description string) bool
}

// Desk is one cashier's working session.
type Desk struct {
	orders  Orders
	cashier Cashier
	logger  *zap.Logger
}

func NewDesk(orders Orders, cashier Cashier, logger *zap.Logger) *Desk {
	return &Desk{orders: orders, cashier: cashier, logger: logger}
}

// Locate finds an order by its dictated or scanned code. The first
// time staff locates a confirmed order, it is advanced to preparing
// automatically.
func (d *Desk) Locate(ctx context.Context, code string) (*order.Order, error) {
	id := strings.ToUpper(strings.TrimSpace(code))
	if id == "" {
		return nil, fmt.Errorf("empty order code")
	}

	o, err := d.orders.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, nil
	}

	if o.Status == order.StatusConfirmed && order.CanTransition(o.Status, order.StatusPreparing) {
		desc := fmt.Sprintf("El cajero %s está preparando tu pedido", d.cashier.Name)
		if !d.orders.UpdateOrderStatus(ctx, o.ID, order.StatusPreparing, desc) {
			d.logger.Warn("failed to advance located order", zap.String("order_id", o.ID))
			return o, nil
		}
		return d.orders.GetOrder(ctx, o.ID)
	}
	return o, nil
}

// MarkReady flags a prepared order as awaiting pickup.
func (d *Desk) MarkReady(ctx context.Context, id string) bool {
	desc := fmt.Sprintf("Pedido listo - preparado por %s", d.cashier.Name)
	return d.orders.UpdateOrderStatus(ctx, id, order.StatusReady, desc)
}

// MarkDelivered hands the order to the customer.
func (d *Desk) MarkDelivered(ctx context.Context, id string) bool {
	desc := fmt.Sprintf("Entregado por %s", d.cashier.Name)
	return d.orders.UpdateOrderStatus(ctx, id, order.StatusDelivered, desc)
}

// History lists every known order, most recent first.
func (d *Desk) History(ctx context.Context) []order.Order {
	all := d.orders.GetAllOrders(ctx)
	out := make([]order.Order, 0, len(all))
	for _, o := range all {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out
}
