package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/icydb/icykv/internal/store"
)

func TestExportDataStoreWritesParquet(t *testing.T) {
	ctx := context.Background()
	exporter, err := NewExporter(ctx, Config{}, nil)
	require.NoError(t, err)
	defer exporter.Close()

	mem := store.NewMemStore()
	mem.Insert([]byte("a"), []byte("1"))
	mem.Insert([]byte("b"), []byte("2"))

	dest := filepath.Join(t.TempDir(), "snapshot.parquet")
	require.NoError(t, exporter.ExportDataStore(ctx, mem, dest))

	info, err := os.Stat(dest)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestExporterHealthCheck(t *testing.T) {
	ctx := context.Background()
	exporter, err := NewExporter(ctx, Config{}, nil)
	require.NoError(t, err)
	defer exporter.Close()

	require.NoError(t, exporter.HealthCheck(ctx))
}
