package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/icydb/icykv"
)

// itemContract is the schemacontract document describing the synthetic
// "bench_items" entity this tool seeds and queries, mirroring the shape
// internal/schemacontract.BuildEntityModel expects — the same contract a
// production caller would hand the loader before opening a Session.
const itemContract = `{
	"path": "bench_items",
	"fields": [
		{"name": "id", "kind": "uint"},
		{"name": "sku", "kind": "text"},
		{"name": "price", "kind": "float"},
		{"name": "createdAt", "kind": "timestamp"}
	],
	"primaryKey": "id",
	"indexes": [
		{"name": "by_price", "fields": ["price"], "unique": false}
	]
}`

// item is the concrete icykv.EntityValue this tool round-trips through
// Session.Insert and the fluent load query.
type item struct {
	model     icykv.EntityModel
	id        uint64
	sku       string
	price     float64
	createdAt time.Time
}

func newItem(model icykv.EntityModel, seq uint64, rnd randSource) *item {
	return &item{
		model:     model,
		id:        seq,
		sku:       fmt.Sprintf("sku-%s", uuid.New().String()[:8]),
		price:     rnd.price(),
		createdAt: time.Unix(rnd.unixSeconds(), 0).UTC(),
	}
}

func (it *item) Path() string             { return it.model.Path }
func (it *item) Model() icykv.EntityModel { return it.model }

func (it *item) PrimaryKeyValue() icykv.Value { return icykv.UintValue(it.id) }

func (it *item) Values() []icykv.Value {
	return []icykv.Value{
		icykv.UintValue(it.id),
		icykv.TextValue(it.sku),
		{Kind: icykv.KindFloat64, Float64: it.price},
		icykv.TimestampValue(it.createdAt),
	}
}

// randSource is the narrow surface main() needs from math/rand's seeded
// generator, kept separate so tests can supply a deterministic stub.
type randSource interface {
	price() float64
	unixSeconds() int64
}

// jsonRow is the wire shape itemCodec round-trips a row through: plain
// JSON rather than the teacher's EAV columns, since bench_items has no
// foreign schema registry backing it.
type jsonRow struct {
	ID        uint64    `json:"id"`
	SKU       string    `json:"sku"`
	Price     float64   `json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

// itemCodec is the icykv.RowCodec this tool supplies its Session, the
// kind of hand-rolled codec rowcodec.go's own doc comment says tests (and,
// here, a standalone CLI with no external schema service) are free to
// provide.
type itemCodec struct {
	model icykv.EntityModel
}

func (c itemCodec) DecodeRow(entityPath string, raw []byte) (icykv.EntityValue, error) {
	var row jsonRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("bench: decode row: %w", err)
	}
	return &item{model: c.model, id: row.ID, sku: row.SKU, price: row.Price, createdAt: row.CreatedAt}, nil
}

func (c itemCodec) EncodeRow(v icykv.EntityValue) ([]byte, error) {
	it, ok := v.(*item)
	if !ok {
		return nil, fmt.Errorf("bench: EncodeRow: unexpected row type %T", v)
	}
	return json.Marshal(jsonRow{ID: it.id, SKU: it.sku, Price: it.price, CreatedAt: it.createdAt})
}
