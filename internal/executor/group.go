package executor

import (
	"context"
	"sort"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/obs"
	"github.com/icydb/icykv/internal/planner"
)

// GroupRow is one emitted group: its group-key tuple plus one Value per
// declared GroupAggregateSpec, in declaration order (spec.md §4.9
// "emits GroupRow{group_key_values, aggregate_values} in canonical
// group-key order").
type GroupRow struct {
	GroupKeyValues  []icykv.Value
	AggregateValues []icykv.Value
}

// ExecuteGrouped materializes res's resolved, filtered rows and folds
// them into bounded group buckets keyed by res.Plan.Group.GroupFields.
// A group aggregate with TargetField set (a field-targeted extrema
// terminal) is rejected here with an Unsupported error before any row
// is read.
func (k *Kernel) ExecuteGrouped(ctx context.Context, res *planner.Result, entity keycodec.EntityName, dataPath string) ([]GroupRow, error) {
	group := res.Plan.Group
	if group == nil {
		return nil, icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginExecutor,
			"ExecuteGrouped called on a plan with no GroupSpec")
	}
	for _, agg := range group.Aggregates {
		if agg.Spec.TargetField != nil {
			return nil, icykv.NewInternalError(icykv.ClassUnsupported, icykv.OriginExecutor,
				"grouped field-targeted extrema are not supported").WithField(*agg.Spec.TargetField)
		}
	}

	rows, err := k.resolveAndMaterialize(ctx, res, entity, dataPath)
	if err != nil {
		return nil, err
	}
	filtered, err := filterRows(rows, res.Plan.Predicate)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		keyValues []icykv.Value
		members   []icykv.EntityValue
	}
	order := make([]string, 0)
	buckets := make(map[string]*bucket)

	for _, ev := range filtered {
		keyVals := make([]icykv.Value, len(group.GroupFields))
		values := ev.Values()
		for i, slot := range group.GroupFields {
			if slot.Index < len(values) {
				keyVals[i] = values[slot.Index]
			} else {
				keyVals[i] = icykv.NullValue()
			}
		}
		keyBytes := groupKeyBytes(keyVals)
		b, ok := buckets[keyBytes]
		if !ok {
			if len(buckets) >= group.MaxGroups {
				continue // bounded group cardinality, spec.md §4.9
			}
			b = &bucket{keyValues: keyVals}
			buckets[keyBytes] = b
			order = append(order, keyBytes)
		}
		if len(b.members) >= group.MaxRows {
			continue // bounded materialized rows per group
		}
		b.members = append(b.members, ev)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a := icykv.Value{Kind: icykv.KindList, List: buckets[order[i]].keyValues}
		b := icykv.Value{Kind: icykv.KindList, List: buckets[order[j]].keyValues}
		return icykv.CompareValues(a, b) < 0
	})

	out := make([]GroupRow, 0, len(order))
	for _, keyBytes := range order {
		b := buckets[keyBytes]
		aggVals := make([]icykv.Value, len(group.Aggregates))
		for i, agg := range group.Aggregates {
			aggVals[i] = foldGroupAggregate(b.members, agg.Spec)
		}
		out = append(out, GroupRow{GroupKeyValues: b.keyValues, AggregateValues: aggVals})
	}

	sink := obs.SinkFromContext(ctx)
	sink.ObserveScan(entity.String(), fastPathFor(*res), len(rows))
	sink.ObserveRowsMaterialized(entity.String(), len(filtered))
	return out, nil
}

func groupKeyBytes(vals []icykv.Value) string {
	var buf []byte
	for _, v := range vals {
		buf = append(buf, icykv.EncodeValue(v)...)
	}
	return string(buf)
}

func foldGroupAggregate(members []icykv.EntityValue, spec planner.AggregateSpec) icykv.Value {
	switch spec.Kind {
	case planner.AggregateCount:
		return icykv.IntValue(int64(len(members)))
	case planner.AggregateExists:
		return icykv.BoolValue(len(members) > 0)
	case planner.AggregateFirst:
		if len(members) == 0 {
			return icykv.NullValue()
		}
		return members[0].PrimaryKeyValue()
	case planner.AggregateLast:
		if len(members) == 0 {
			return icykv.NullValue()
		}
		return members[len(members)-1].PrimaryKeyValue()
	case planner.AggregateMin, planner.AggregateMax:
		if len(members) == 0 {
			return icykv.NullValue()
		}
		best := members[0].PrimaryKeyValue()
		for _, ev := range members[1:] {
			v := ev.PrimaryKeyValue()
			c := icykv.CompareValues(v, best)
			if (spec.Kind == planner.AggregateMin && c < 0) || (spec.Kind == planner.AggregateMax && c > 0) {
				best = v
			}
		}
		return best
	default:
		return icykv.NullValue()
	}
}
