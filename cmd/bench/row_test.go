package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/schemacontract"
)

func TestItemCodecRoundTrip(t *testing.T) {
	model, err := schemacontract.BuildEntityModel([]byte(itemContract))
	require.NoError(t, err)

	it := &item{model: model, id: 7, sku: "sku-abc123", price: 42.5, createdAt: time.Unix(1700000000, 0).UTC()}
	codec := itemCodec{model: model}

	raw, err := codec.EncodeRow(it)
	require.NoError(t, err)

	decoded, err := codec.DecodeRow(model.Path, raw)
	require.NoError(t, err)

	got := decoded.(*item)
	require.Equal(t, it.id, got.id)
	require.Equal(t, it.sku, got.sku)
	require.Equal(t, it.price, got.price)
	require.True(t, it.createdAt.Equal(got.createdAt))
}

func TestItemValuesMatchModelOrder(t *testing.T) {
	model, err := schemacontract.BuildEntityModel([]byte(itemContract))
	require.NoError(t, err)

	it := &item{model: model, id: 1, sku: "sku-x", price: 9.99, createdAt: time.Now().UTC()}
	values := it.Values()
	require.Len(t, values, len(model.Fields))
	require.Equal(t, icykv.KindUint, values[model.PrimaryKey.Index].Kind)
}
