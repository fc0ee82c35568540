package executor

import (
	"context"
	"sort"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/obs"
	"github.com/icydb/icykv/internal/planner"
	"github.com/icydb/icykv/internal/predicate"
	"github.com/icydb/icykv/internal/stream"
)

// AggregateResult is the single scalar an AggregateSpec terminal yields.
// Found is false for Min/Max/First/Last over an empty result set.
type AggregateResult struct {
	Count  int
	Exists bool
	Value  icykv.Value
	Found  bool
}

// ExecuteAggregate streams res's resolved access plan and folds it
// through spec, short-circuiting Exists/First as soon as the first
// admissible row is found (spec.md §4.9 "short-circuit optimization").
// Count visits every streamed row and fully materializes each one, since
// the predicate is evaluated against the decoded row.
func (k *Kernel) ExecuteAggregate(ctx context.Context, res *planner.Result, spec planner.AggregateSpec, entity keycodec.EntityName, dataPath string) (AggregateResult, error) {
	if err := planner.ValidateAggregateSpec(spec); err != nil {
		return AggregateResult{}, err
	}

	reverse := spec.Kind == planner.AggregateLast
	resolver := stream.NewResolver(k.Registry, entity, dataPath, reverse)
	keyStream, err := resolver.Resolve(res.Plan.Access, 0)
	if err != nil {
		return AggregateResult{}, err
	}

	var result AggregateResult
	var best icykv.Value
	haveBest := false
	scanned := 0

	for {
		if err := ctx.Err(); err != nil {
			return AggregateResult{}, err
		}
		dk, ok := keyStream.Next()
		if !ok {
			break
		}
		ev, found, err := materializeRow(k.Registry, dataPath, k.Codec, dk, res.Plan.Consistency)
		if err != nil {
			return AggregateResult{}, err
		}
		if !found {
			continue
		}
		match, err := predicate.Eval(res.Plan.Predicate, fieldLookup(ev))
		if err != nil {
			return AggregateResult{}, err
		}
		if !match {
			continue
		}
		scanned++

		switch spec.Kind {
		case planner.AggregateCount:
			result.Count++
		case planner.AggregateExists:
			result.Exists = true
			goto done
		case planner.AggregateFirst:
			result.Value = firstValueOf(ev, spec.TargetField)
			result.Found = true
			goto done
		case planner.AggregateLast:
			result.Value = firstValueOf(ev, spec.TargetField)
			result.Found = true
			goto done
		case planner.AggregateMin, planner.AggregateMax:
			v := targetValue(ev, spec.TargetField)
			if !haveBest {
				best, haveBest = v, true
				continue
			}
			c := icykv.CompareValues(v, best)
			if (spec.Kind == planner.AggregateMin && c < 0) || (spec.Kind == planner.AggregateMax && c > 0) {
				best = v
			}
		}
	}

done:
	if spec.Kind == planner.AggregateMin || spec.Kind == planner.AggregateMax {
		result.Value = best
		result.Found = haveBest
	}

	sink := obs.SinkFromContext(ctx)
	sink.ObserveScan(entity.String(), fastPathFor(*res), scanned)
	return result, nil
}

func firstValueOf(ev icykv.EntityValue, targetField *string) icykv.Value {
	if targetField == nil {
		return ev.PrimaryKeyValue()
	}
	return targetValue(ev, targetField)
}

func targetValue(ev icykv.EntityValue, targetField *string) icykv.Value {
	if targetField == nil {
		return ev.PrimaryKeyValue()
	}
	v, ok := fieldLookup(ev)(*targetField)
	if !ok {
		return icykv.NullValue()
	}
	return v
}

// NumericFold computes sum/avg/median of a numeric field across an
// already filtered+materialized row set (spec.md §6 `.SumBy`/`.AvgBy`/
// `.MedianBy`: distinct, non-fold-mode terminals that operate over the
// whole materialized result, unlike the streaming AggregateKind set).
func NumericFold(rows []icykv.EntityValue, field string, kind NumericFoldKind) (icykv.Value, bool) {
	var vals []float64
	for _, ev := range rows {
		v, ok := fieldLookup(ev)(field)
		if !ok {
			continue
		}
		f, ok := numericAsFloat(v)
		if !ok {
			continue
		}
		vals = append(vals, f)
	}
	if len(vals) == 0 {
		return icykv.Value{}, false
	}
	switch kind {
	case FoldSum:
		var sum float64
		for _, f := range vals {
			sum += f
		}
		return icykv.Value{Kind: icykv.KindFloat64, Float64: sum}, true
	case FoldAvg:
		var sum float64
		for _, f := range vals {
			sum += f
		}
		return icykv.Value{Kind: icykv.KindFloat64, Float64: sum / float64(len(vals))}, true
	case FoldMedian:
		sort.Float64s(vals)
		n := len(vals)
		if n%2 == 1 {
			return icykv.Value{Kind: icykv.KindFloat64, Float64: vals[n/2]}, true
		}
		return icykv.Value{Kind: icykv.KindFloat64, Float64: (vals[n/2-1] + vals[n/2]) / 2}, true
	default:
		return icykv.Value{}, false
	}
}

type NumericFoldKind uint8

const (
	FoldSum NumericFoldKind = iota
	FoldAvg
	FoldMedian
)

func numericAsFloat(v icykv.Value) (float64, bool) {
	switch v.Kind {
	case icykv.KindInt:
		return float64(v.Int), true
	case icykv.KindUint, icykv.KindE8s, icykv.KindE18s:
		return float64(v.Uint), true
	case icykv.KindFloat64:
		return v.Float64, true
	case icykv.KindFloat32:
		return float64(v.Float32), true
	default:
		return 0, false
	}
}

// CountDistinctBy counts the number of distinct values field takes
// across rows (spec.md §6 `.CountDistinctBy`).
func CountDistinctBy(rows []icykv.EntityValue, field string) int {
	seen := make(map[string]struct{}, len(rows))
	for _, ev := range rows {
		v, ok := fieldLookup(ev)(field)
		if !ok {
			continue
		}
		seen[string(icykv.EncodeValue(v))] = struct{}{}
	}
	return len(seen)
}

// TopKBy / BottomKBy return the k rows with the largest/smallest field
// value, stable on ties by original row order (spec.md §6).
func TopKBy(rows []icykv.EntityValue, field string, k int) []icykv.EntityValue {
	return extremeKBy(rows, field, k, true)
}

func BottomKBy(rows []icykv.EntityValue, field string, k int) []icykv.EntityValue {
	return extremeKBy(rows, field, k, false)
}

func extremeKBy(rows []icykv.EntityValue, field string, k int, top bool) []icykv.EntityValue {
	sorted := append([]icykv.EntityValue(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		vi, _ := fieldLookup(sorted[i])(field)
		vj, _ := fieldLookup(sorted[j])(field)
		c := icykv.CompareValues(vi, vj)
		if top {
			return c > 0
		}
		return c < 0
	})
	if k >= len(sorted) {
		return sorted
	}
	return sorted[:k]
}
