// Package replica is the client-local order store: one write-through
// interface over a primary namespace, several backups and a per-order
// record space, kept redundant so a single corrupted file does not
// lose data.
package replica

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/oxxo-demo/orderhub/internal/metrics"
	"github.com/oxxo-demo/orderhub/internal/order"
)

// Read priority: per-order record first, then primary, then backups.
var namespaces = []string{"primary", "backup1", "backup2", "backup3"}

const perOrderDir = "orders"

type Store struct {
	mu     sync.Mutex
	dir    string
	logger *zap.Logger
}

func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, perOrderDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create replica dir: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Put writes the order through to every namespace and its per-order
// record. Individual namespace failures are logged and absorbed; Put
// fails only when no tier accepted the write.
func (s *Store) Put(o order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := 0
	if err := s.writeOrderRecord(o); err != nil {
		s.logger.Warn("replica: per-order record write failed", zap.String("order_id", o.ID), zap.Error(err))
	} else {
		saved++
	}

	for _, ns := range namespaces {
		m := s.readNamespace(ns)
		m[o.ID] = o.Clone()
		if err := s.writeNamespace(ns, m); err != nil {
			s.logger.Warn("replica: namespace write failed", zap.String("namespace", ns), zap.Error(err))
			continue
		}
		saved++
	}

	if saved == 0 {
		return fmt.Errorf("replica: order %s not saved to any tier", o.ID)
	}
	metrics.ReplicaOrders.Set(float64(len(s.readNamespace("primary"))))
	return nil
}

// Get probes the tiers in priority order and returns the first hit.
func (s *Store) Get(id string) (*order.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.readOrderRecord(id); ok {
		return o, true
	}
	for _, ns := range namespaces {
		if o, ok := s.readNamespace(ns)[id]; ok {
			c := o.Clone()
			return &c, true
		}
	}
	return nil, false
}

// All merges every tier into one mapping. An id already found through
// a higher-priority tier is not overridden.
func (s *Store) All() map[string]order.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]order.Order)
	for _, ns := range namespaces {
		for id, o := range s.readNamespace(ns) {
			if _, ok := out[id]; !ok {
				out[id] = o.Clone()
			}
		}
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, perOrderDir))
	if err != nil {
		return out
	}
	for _, e := range entries {
		id := trimJSON(e.Name())
		if id == "" {
			continue
		}
		if _, ok := out[id]; ok {
			continue
		}
		if o, ok := s.readOrderRecord(id); ok {
			out[id] = *o
		}
	}
	return out
}

// Replace swaps the primary namespace for the remote's view. Backups
// and per-order records keep their last-written contents.
func (s *Store) Replace(orders map[string]order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writeNamespace("primary", orders); err != nil {
		return fmt.Errorf("replica: failed to replace primary namespace: %w", err)
	}
	metrics.ReplicaOrders.Set(float64(len(orders)))
	return nil
}

// Clear wipes every namespace and per-order record.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ns := range namespaces {
		if err := os.Remove(s.namespacePath(ns)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("replica: failed to clear namespace %s: %w", ns, err)
		}
	}

	dir := filepath.Join(s.dir, perOrderDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("replica: failed to list per-order records: %w", err)
	}
	for _, e := range entries {
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("replica: failed to remove %s: %w", e.Name(), err)
		}
	}
	metrics.ReplicaOrders.Set(0)
	return nil
}

func (s *Store) namespacePath(ns string) string {
	return filepath.Join(s.dir, ns+".json")
}

// readNamespace treats a missing or malformed namespace file as empty;
// corruption of one tier never aborts a read.
func (s *Store) readNamespace(ns string) map[string]order.Order {
	data, err := os.ReadFile(s.namespacePath(ns))
	if err != nil {
		return map[string]order.Order{}
	}
	var m map[string]order.Order
	if err := json.Unmarshal(data, &m); err != nil {
		s.logger.Warn("replica: malformed namespace, treating as empty",
			zap.String("namespace", ns), zap.Error(err))
		return map[string]order.Order{}
	}
	if m == nil {
		m = map[string]order.Order{}
	}
	return m
}

func (s *Store) writeNamespace(ns string, m map[string]order.Order) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return os.WriteFile(s.namespacePath(ns), data, 0o644)
}

func (s *Store) orderRecordPath(id string) string {
	return filepath.Join(s.dir, perOrderDir, id+".json")
}

func (s *Store) readOrderRecord(id string) (*order.Order, bool) {
	data, err := os.ReadFile(s.orderRecordPath(id))
	if err != nil {
		return nil, false
	}
	var o order.Order
	if err := json.Unmarshal(data, &o); err != nil {
		s.logger.Warn("replica: malformed per-order record", zap.String("order_id", id), zap.Error(err))
		return nil, false
	}
	return &o, true
}

func (s *Store) writeOrderRecord(o order.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(s.orderRecordPath(o.ID), data, 0o644)
}

func trimJSON(name string) string {
	if len(name) <= len(".json") || name[len(name)-len(".json"):] != ".json" {
		return ""
	}
	return name[:len(name)-len(".json")]
}
