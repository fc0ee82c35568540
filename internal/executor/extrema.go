package executor

import (
	"sort"

	"github.com/icydb/icykv"
)

// compareEntitiesForFieldExtrema sorts by (field_value asc/desc per
// direction, PK asc) with ties always broken by canonical PK ascending
// order regardless of the primary direction (spec.md §4.9
// "compare_entities_for_field_extrema").
func compareEntitiesForFieldExtrema(a, b icykv.EntityValue, field string, desc bool) int {
	va, _ := fieldLookup(a)(field)
	vb, _ := fieldLookup(b)(field)
	c := icykv.CompareValues(va, vb)
	if desc {
		c = -c
	}
	if c != 0 {
		return c
	}
	return icykv.CompareValues(a.PrimaryKeyValue(), b.PrimaryKeyValue())
}

// MinBy/MaxBy return the row whose field value is smallest/largest,
// ties broken by ascending PK (spec.md §6 `.MinBy`/`.MaxBy`).
func MinBy(rows []icykv.EntityValue, field string) (icykv.EntityValue, bool) {
	return nthBy(rows, field, false, 0)
}

func MaxBy(rows []icykv.EntityValue, field string) (icykv.EntityValue, bool) {
	return nthBy(rows, field, true, 0)
}

// NthBy returns the n-th row (0-indexed) under descending field order,
// ties broken by ascending PK (spec.md §6 `.NthBy`).
func NthBy(rows []icykv.EntityValue, field string, n int) (icykv.EntityValue, bool) {
	return nthBy(rows, field, true, n)
}

func nthBy(rows []icykv.EntityValue, field string, desc bool, n int) (icykv.EntityValue, bool) {
	if n < 0 || n >= len(rows) {
		return nil, false
	}
	sorted := append([]icykv.EntityValue(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return compareEntitiesForFieldExtrema(sorted[i], sorted[j], field, desc) < 0
	})
	return sorted[n], true
}

// ValuesBy projects field from every row in order, with no deduplication
// (spec.md §6 `.ValuesBy`).
func ValuesBy(rows []icykv.EntityValue, field string) []icykv.Value {
	out := make([]icykv.Value, 0, len(rows))
	for _, ev := range rows {
		v, ok := fieldLookup(ev)(field)
		if !ok {
			v = icykv.NullValue()
		}
		out = append(out, v)
	}
	return out
}

// DistinctValuesBy projects field from every row, deduplicated and
// returned in canonical Value order (spec.md §6 `.DistinctValuesBy`).
func DistinctValuesBy(rows []icykv.EntityValue, field string) []icykv.Value {
	seen := make(map[string]icykv.Value)
	for _, ev := range rows {
		v, ok := fieldLookup(ev)(field)
		if !ok {
			v = icykv.NullValue()
		}
		seen[string(icykv.EncodeValue(v))] = v
	}
	out := make([]icykv.Value, 0, len(seen))
	for _, v := range seen {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return icykv.CompareValues(out[i], out[j]) < 0 })
	return out
}
