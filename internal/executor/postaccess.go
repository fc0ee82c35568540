package executor

import (
	"sort"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/cursor"
	"github.com/icydb/icykv/internal/planner"
	"github.com/icydb/icykv/internal/predicate"
)

// filterRows keeps only the rows for which pred evaluates true (spec.md
// §4.8 post-access phase 1).
func filterRows(rows []icykv.EntityValue, pred predicate.Predicate) ([]icykv.EntityValue, error) {
	out := rows[:0]
	for _, ev := range rows {
		ok, err := predicate.Eval(pred, fieldLookup(ev))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, ev)
		}
	}
	return out, nil
}

// sortRows applies the order spec in-place (spec.md §4.8 post-access
// phase 2). Sorting is stable so ties beyond declared fields (there
// should be none, since the PK tie-break is always present) don't
// reorder nondeterministically.
func sortRows(rows []icykv.EntityValue, order *planner.OrderSpec) {
	if order == nil || len(order.Fields) == 0 {
		return
	}
	fieldNames := orderFieldNames(order)
	sort.SliceStable(rows, func(i, j int) bool {
		vi := orderFieldValues(rows[i], fieldNames)
		vj := orderFieldValues(rows[j], fieldNames)
		return compareOrderTuples(vi, vj, order) < 0
	})
}

func orderFieldNames(order *planner.OrderSpec) []string {
	names := make([]string, len(order.Fields))
	for i, f := range order.Fields {
		names[i] = f.Field
	}
	return names
}

func compareOrderTuples(a, b []icykv.Value, order *planner.OrderSpec) int {
	for i := range a {
		c := icykv.CompareValues(a[i], b[i])
		if order.Fields[i].Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// applyCursorBoundary drops every row at or before the supplied cursor
// boundary (spec.md §4.8 post-access phase 3: strict `row > boundary`
// under the request's physical direction).
func applyCursorBoundary(rows []icykv.EntityValue, order *planner.OrderSpec, boundary cursor.Boundary) []icykv.EntityValue {
	if boundary == nil {
		return rows
	}
	fieldNames := orderFieldNames(order)
	descPerField := make([]bool, len(order.Fields))
	for i, f := range order.Fields {
		descPerField[i] = f.Desc
	}
	out := rows[:0]
	for _, ev := range rows {
		vals := orderFieldValues(ev, fieldNames)
		if cursor.CompareBoundary(vals, boundary, descPerField) > 0 {
			out = append(out, ev)
		}
	}
	return out
}

// paginate applies offset/limit (spec.md §4.8 post-access phase 4),
// returning the page slice and whether more rows remain beyond it.
func paginate(rows []icykv.EntityValue, page *planner.PageSpec) (pageRows []icykv.EntityValue, hasMore bool) {
	if page == nil {
		return rows, false
	}
	start := int(page.Offset)
	if start >= len(rows) {
		return nil, false
	}
	end := start + int(page.Limit)
	if end >= len(rows) {
		return rows[start:], false
	}
	return rows[start:end], true
}

// applyDeleteLimit caps the candidate row count for a bounded delete
// (spec.md §3 invariant: delete plans carry `delete_limit`, not `page`).
func applyDeleteLimit(rows []icykv.EntityValue, limit *uint32) []icykv.EntityValue {
	if limit == nil || uint32(len(rows)) <= *limit {
		return rows
	}
	return rows[:*limit]
}
