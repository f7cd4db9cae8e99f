// Package syncclient reconciles the remote order service with the
// local replica: every write goes to both, every read prefers the
// remote and falls back to the replica when the network is down.
package syncclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oxxo-demo/orderhub/internal/metrics"
	"github.com/oxxo-demo/orderhub/internal/order"
	"github.com/oxxo-demo/orderhub/internal/replica"
)

type Client struct {
	baseURL  string
	http     *http.Client
	replica  *replica.Store
	logger   *zap.Logger
	deviceID string
	hostname string
}

func New(baseURL string, rep *replica.Store, logger *zap.Logger) *Client {
	hostname, _ := os.Hostname()
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{},
		replica:  rep,
		logger:   logger,
		deviceID: fmt.Sprintf("device_%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8]),
		hostname: hostname,
	}
}

// Save stamps sync metadata, pushes the order to the remote service
// best-effort and ALWAYS writes it through the local replica, so a
// remote failure never loses a write the caller believes succeeded.
func (c *Client) Save(ctx context.Context, o order.Order) error {
	o.DeviceSaved = c.deviceID
	o.SyncTime = time.Now().Format(time.RFC3339)
	o.CreatedFrom = c.hostname

	if err := c.remoteSave(ctx, o); err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues("save", "failure").Inc()
		c.logger.Warn("remote save failed, order kept locally",
			zap.String("order_id", o.ID), zap.Error(err))
	} else {
		metrics.RemoteRequestsTotal.WithLabelValues("save", "success").Inc()
	}

	if err := c.replica.Put(o); err != nil {
		return fmt.Errorf("failed to persist order locally: %w", err)
	}
	return nil
}

// FetchAll returns the full order mapping: the remote's view when
// reachable (replacing the replica's primary with it, remote wins),
// the replica's merged view otherwise.
func (c *Client) FetchAll(ctx context.Context) map[string]order.Order {
	orders, err := c.remoteFetch(ctx)
	if err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues("fetch", "failure").Inc()
		metrics.LocalFallbacksTotal.Inc()
		c.logger.Warn("remote fetch failed, serving from replica", zap.Error(err))
		return c.replica.All()
	}
	metrics.RemoteRequestsTotal.WithLabelValues("fetch", "success").Inc()

	if len(orders) > 0 {
		if err := c.replica.Replace(orders); err != nil {
			c.logger.Warn("failed to refresh replica from remote", zap.Error(err))
		}
	}
	return orders
}

// Sync pulls the remote view into the replica and reports whether the
// remote was reachable.
func (c *Client) Sync(ctx context.Context) bool {
	orders, err := c.remoteFetch(ctx)
	if err != nil {
		c.logger.Debug("sync skipped, remote unreachable", zap.Error(err))
		return false
	}
	if len(orders) > 0 {
		if err := c.replica.Replace(orders); err != nil {
			c.logger.Warn("failed to refresh replica from remote", zap.Error(err))
		}
	}
	return true
}

// Lookup probes the local replica tiers only.
func (c *Client) Lookup(_ context.Context, id string) (*order.Order, bool) {
	return c.replica.Get(id)
}

// Clear removes every order from the remote (best effort) and from
// every replica tier.
func (c *Client) Clear(ctx context.Context) error {
	if err := c.remoteClear(ctx); err != nil {
		metrics.RemoteRequestsTotal.WithLabelValues("clear", "failure").Inc()
		c.logger.Warn("remote clear failed", zap.Error(err))
	} else {
		metrics.RemoteRequestsTotal.WithLabelValues("clear", "success").Inc()
	}
	return c.replica.Clear()
}

func (c *Client) remoteFetch(ctx context.Context) (map[string]order.Order, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/orders", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote returned status %d", resp.StatusCode)
	}

	var orders map[string]order.Order
	if err := json.NewDecoder(resp.Body).Decode(&orders); err != nil {
		return nil, fmt.Errorf("failed to decode remote orders: %w", err)
	}
	if orders == nil {
		orders = map[string]order.Order{}
	}
	return orders, nil
}

func (c *Client) remoteSave(ctx context.Context, o order.Order) error {
	payload, err := json.Marshal(map[string]any{"orderId": o.ID, "orderData": o})
	if err != nil {
		return fmt.Errorf("failed to marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/orders", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote returned status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) remoteClear(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/api/orders", nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote returned status %d", resp.StatusCode)
	}
	return nil
}
