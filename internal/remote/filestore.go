package remote

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/oxxo-demo/orderhub/internal/order"
)

// FileStore is the backing record of the remote order service: one
// JSON object file mapping order id to full order record. Every call
// is a load-modify-save guarded by the mutex, so concurrent saves are
// serialized and the last writer wins.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := fs.save(map[string]order.Order{}); err != nil {
			return nil, fmt.Errorf("failed to initialize orders file: %w", err)
		}
	}
	return fs, nil
}

// All returns the full mapping.
func (fs *FileStore) All() (map[string]order.Order, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.load()
}

// Save merges one order into the mapping, overwriting that key, and
// writes the whole mapping back.
func (fs *FileStore) Save(orderID string, o order.Order) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	orders, err := fs.load()
	if err != nil {
		return err
	}
	orders[orderID] = o
	return fs.save(orders)
}

// Get returns the record for one id, or nil when absent.
func (fs *FileStore) Get(orderID string) (*order.Order, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	orders, err := fs.load()
	if err != nil {
		return nil, err
	}
	o, ok := orders[orderID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// Clear resets the mapping to empty.
func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.save(map[string]order.Order{})
}

func (fs *FileStore) load() (map[string]order.Order, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]order.Order{}, nil
		}
		return nil, fmt.Errorf("failed to read orders file: %w", err)
	}

	var orders map[string]order.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		return nil, fmt.Errorf("failed to parse orders file: %w", err)
	}
	if orders == nil {
		orders = map[string]order.Order{}
	}
	return orders, nil
}

func (fs *FileStore) save(orders map[string]order.Order) error {
	data, err := json.MarshalIndent(orders, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}
	if err := os.WriteFile(fs.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write orders file: %w", err)
	}
	return nil
}
