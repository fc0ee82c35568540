package diag

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/obs"
	"github.com/icydb/icykv/internal/store"
)

func mustEntity(t *testing.T, path string) keycodec.EntityName {
	t.Helper()
	en, err := keycodec.NewEntityName(path)
	require.NoError(t, err)
	return en
}

func TestWalkCountsCleanStore(t *testing.T) {
	registry := store.NewRegistry()
	data := store.NewMemStore()
	index := store.NewMemIndexStore()
	require.NoError(t, registry.RegisterStore("orders", data, index))

	en := mustEntity(t, "orders")
	sk, err := keycodec.FromValue(icykv.UintValue(1))
	require.NoError(t, err)
	dk := keycodec.DataKey{Entity: en, Key: sk}
	data.Insert(dk.ToBytes(), []byte("row-bytes"))

	report := Walk(registry, nil, nil)
	require.Len(t, report.Stores, 1)
	require.Equal(t, "orders", report.Stores[0].Path)
	require.Equal(t, 1, report.Stores[0].DataKeys)
	require.Equal(t, 0, report.Stores[0].CorruptedKeys)
	require.Equal(t, 0, report.TotalCorruptedKeys())
}

func TestWalkCountsCorruptedDataKey(t *testing.T) {
	registry := store.NewRegistry()
	data := store.NewMemStore()
	index := store.NewMemIndexStore()
	require.NoError(t, registry.RegisterStore("orders", data, index))

	data.Insert([]byte("not-a-valid-data-key"), []byte("row-bytes"))

	sink := &obs.CountingSink{}
	report := Walk(registry, nil, sink)
	require.Equal(t, 1, report.Stores[0].CorruptedKeys)
	require.Equal(t, 1, report.TotalCorruptedKeys())
	require.Equal(t, 1, sink.CorruptionsObserved)
}

type failingCodec struct{}

func (failingCodec) DecodeRow(string, []byte) (icykv.EntityValue, error) {
	return nil, icykv.NewInternalError(icykv.ClassCorruption, icykv.OriginSerialize, "boom")
}
func (failingCodec) EncodeRow(icykv.EntityValue) ([]byte, error) { return nil, nil }

func TestWalkCountsCorruptedEntryViaCodec(t *testing.T) {
	registry := store.NewRegistry()
	data := store.NewMemStore()
	index := store.NewMemIndexStore()
	require.NoError(t, registry.RegisterStore("orders", data, index))

	en := mustEntity(t, "orders")
	sk, err := keycodec.FromValue(icykv.UintValue(1))
	require.NoError(t, err)
	dk := keycodec.DataKey{Entity: en, Key: sk}
	data.Insert(dk.ToBytes(), []byte("row-bytes"))

	report := Walk(registry, failingCodec{}, nil)
	require.Equal(t, 1, report.Stores[0].CorruptedEntries)
	require.Equal(t, 1, report.TotalCorruptedEntries())
}
