package planner

import (
	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/accessplan"
	"github.com/icydb/icykv/internal/predicate"
)

// InferAccessPlan derives the cheapest AccessPlan the normalized
// predicate supports against model: an equality (or IN) match on the
// primary key becomes ByKey/ByKeys, a range match on the primary key
// becomes KeyRange, a leading equality chain against a declared index's
// field order becomes IndexPrefix (extended to IndexRange when a
// trailing range comparison on the index's next field is present), and
// anything else falls back to FullScan (spec.md §4.4/§4.5, grounded on
// original_source/db/executor/load/route.rs's access-path selection).
func InferAccessPlan(model icykv.EntityModel, pred predicate.Predicate) accessplan.Plan {
	top := conjuncts(pred)

	if pk, ok := pkEquality(top, model.PrimaryKey.Name); ok {
		return accessplan.FromPath(accessplan.Path{Kind: accessplan.ByKey, Key: pk})
	}
	if pks, ok := pkMembership(top, model.PrimaryKey.Name); ok {
		return accessplan.FromPath(accessplan.Path{Kind: accessplan.ByKeys, Keys: pks})
	}
	if lo, hi, ok := pkRange(top, model.PrimaryKey.Name); ok {
		return accessplan.FromPath(accessplan.Path{Kind: accessplan.KeyRange, RangeStart: lo, RangeEnd: hi})
	}

	for _, idx := range model.Indexes {
		if plan, ok := inferIndexPlan(top, idx); ok {
			return plan
		}
	}

	return accessplan.FromPath(accessplan.Path{Kind: accessplan.FullScan})
}

// conjuncts flattens a normalized top-level And into its children, or
// returns a single-element slice for anything else (True included).
func conjuncts(pred predicate.Predicate) []predicate.Predicate {
	if and, ok := pred.(predicate.And); ok {
		return and.Children
	}
	return []predicate.Predicate{pred}
}

func pkEquality(conj []predicate.Predicate, pkField string) (icykv.Value, bool) {
	for _, c := range conj {
		if cmp, ok := c.(predicate.Compare); ok && cmp.Field == pkField && cmp.Op == predicate.OpEq {
			return cmp.Value, true
		}
	}
	return icykv.Value{}, false
}

func pkMembership(conj []predicate.Predicate, pkField string) ([]icykv.Value, bool) {
	for _, c := range conj {
		if cmp, ok := c.(predicate.Compare); ok && cmp.Field == pkField && cmp.Op == predicate.OpIn {
			return cmp.Values, true
		}
	}
	return nil, false
}

func pkRange(conj []predicate.Predicate, pkField string) (lo, hi *icykv.Value, ok bool) {
	for _, c := range conj {
		cmp, isCmp := c.(predicate.Compare)
		if !isCmp || cmp.Field != pkField {
			continue
		}
		v := cmp.Value
		switch cmp.Op {
		case predicate.OpGte, predicate.OpGt:
			lo = &v
			ok = true
		case predicate.OpLte, predicate.OpLt:
			hi = &v
			ok = true
		}
	}
	return lo, hi, ok
}

// inferIndexPlan checks whether conj supplies a leading equality chain
// over idx's declared field order, optionally followed by a single
// trailing range comparison on the next field, producing IndexPrefix or
// IndexRange respectively.
func inferIndexPlan(conj []predicate.Predicate, idx icykv.IndexModel) (accessplan.Plan, bool) {
	var prefix []icykv.Value
	fieldIdx := 0
	for ; fieldIdx < len(idx.Fields); fieldIdx++ {
		v, ok := fieldEquality(conj, idx.Fields[fieldIdx])
		if !ok {
			break
		}
		prefix = append(prefix, v)
	}
	if len(prefix) == 0 {
		return accessplan.Plan{}, false
	}
	if fieldIdx >= len(idx.Fields) {
		return accessplan.FromPath(accessplan.Path{
			Kind: accessplan.IndexPrefix, Index: idx.Name, PrefixValues: prefix,
		}), true
	}
	if lo, hi, ok := fieldRange(conj, idx.Fields[fieldIdx]); ok {
		return accessplan.FromPath(accessplan.Path{
			Kind: accessplan.IndexRange, Index: idx.Name, PrefixValues: prefix,
			RangeStart: lo, RangeEnd: hi,
		}), true
	}
	return accessplan.FromPath(accessplan.Path{
		Kind: accessplan.IndexPrefix, Index: idx.Name, PrefixValues: prefix,
	}), true
}

func fieldEquality(conj []predicate.Predicate, field string) (icykv.Value, bool) {
	for _, c := range conj {
		if cmp, ok := c.(predicate.Compare); ok && cmp.Field == field && cmp.Op == predicate.OpEq {
			return cmp.Value, true
		}
	}
	return icykv.Value{}, false
}

func fieldRange(conj []predicate.Predicate, field string) (lo, hi *icykv.Value, ok bool) {
	for _, c := range conj {
		cmp, isCmp := c.(predicate.Compare)
		if !isCmp || cmp.Field != field {
			continue
		}
		v := cmp.Value
		switch cmp.Op {
		case predicate.OpGte, predicate.OpGt:
			lo = &v
			ok = true
		case predicate.OpLte, predicate.OpLt:
			hi = &v
			ok = true
		}
	}
	return lo, hi, ok
}
