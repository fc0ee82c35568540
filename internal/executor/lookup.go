package executor

import (
	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/predicate"
)

// fieldLookup builds a predicate.FieldLookup closure over an entity
// value's slot-indexed projection (spec.md §4.3's FieldLookup contract:
// ok == false only when the slot itself is absent).
func fieldLookup(ev icykv.EntityValue) predicate.FieldLookup {
	model := ev.Model()
	values := ev.Values()
	return func(field string) (icykv.Value, bool) {
		slot, ok := model.FieldByName(field)
		if !ok || slot.Index >= len(values) {
			return icykv.Value{}, false
		}
		return values[slot.Index], true
	}
}

// orderFieldValues extracts the Values for each order-spec field, in
// order, used both for post-access sort comparisons and for stamping a
// new cursor boundary.
func orderFieldValues(ev icykv.EntityValue, fields []string) []icykv.Value {
	lookup := fieldLookup(ev)
	out := make([]icykv.Value, len(fields))
	for i, f := range fields {
		v, ok := lookup(f)
		if !ok {
			out[i] = icykv.NullValue()
			continue
		}
		out[i] = v
	}
	return out
}
