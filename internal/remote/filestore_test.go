package remote

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxxo-demo/orderhub/internal/order"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	fs, err := NewFileStore(path)
	require.NoError(t, err)

	orders, err := fs.All()
	require.NoError(t, err)
	assert.Empty(t, orders)

	o := order.Order{ID: "OXXO123456780001", Status: order.StatusConfirmed, Total: 11.90}
	require.NoError(t, fs.Save(o.ID, o))

	got, err := fs.Get(o.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 11.90, got.Total)

	// A second store over the same file sees the persisted state.
	fs2, err := NewFileStore(path)
	require.NoError(t, err)
	orders, err = fs2.All()
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestFileStoreSaveOverwritesKey(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)

	o := order.Order{ID: "OXXO123456780002", Status: order.StatusConfirmed}
	require.NoError(t, fs.Save(o.ID, o))

	o.Status = order.StatusReady
	require.NoError(t, fs.Save(o.ID, o))

	got, err := fs.Get(o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusReady, got.Status)
}

func TestFileStoreClear(t *testing.T) {
	fs, err := NewFileStore(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)

	require.NoError(t, fs.Save("OXXO123456780003", order.Order{ID: "OXXO123456780003"}))
	require.NoError(t, fs.Clear())

	orders, err := fs.All()
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestFileStoreMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o644))

	fs := &FileStore{path: path}
	_, err := fs.All()
	assert.Error(t, err)
}
