// Package executor implements the routing gate that resolves a
// LogicalPlan into rows: selecting an access stream, materializing rows
// under the requested consistency policy, and applying the post-access
// phases (filter, order, cursor, page/delete-limit) spec.md §4.8
// describes. Grounded on original_source/db/executor/load/mod.rs's
// top-level load-execution function for phase ordering.
package executor

import (
	"context"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/accessplan"
	"github.com/icydb/icykv/internal/cursor"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/obs"
	"github.com/icydb/icykv/internal/planner"
	"github.com/icydb/icykv/internal/predicate"
	"github.com/icydb/icykv/internal/store"
	"github.com/icydb/icykv/internal/stream"
)

// Kernel binds the collaborators the executor needs: the store registry,
// a row codec, and (optionally, via context) an observability sink.
type Kernel struct {
	Registry *store.Registry
	Codec    icykv.RowCodec
}

// Page is a materialized load result: the page's rows, whether more rows
// remain, and an opaque continuation token for the next call (empty when
// there is no more data or the plan was unpaged).
type Page struct {
	Rows       []icykv.EntityValue
	HasMore    bool
	NextCursor string
}

// fastPathFor reports the obs.FastPathKind a resolved access plan shape
// maps to, for counter labeling only (spec.md §4.11).
func fastPathFor(res planner.Result) obs.FastPathKind {
	leaf, ok := res.Plan.Access.IsSingleLeaf()
	if !ok {
		return obs.FastPathComposite
	}
	switch leaf.Kind {
	case accessplan.ByKey, accessplan.ByKeys, accessplan.KeyRange:
		return obs.FastPathPrimaryKey
	case accessplan.IndexPrefix, accessplan.IndexRange:
		return obs.FastPathSecondaryPrefix
	case accessplan.FullScan:
		return obs.FastPathPrimaryScan
	default:
		return obs.FastPathComposite
	}
}

// ExecuteLoad runs res as a Load plan against dataPath, returning one
// page of materialized rows.
func (k *Kernel) ExecuteLoad(ctx context.Context, res *planner.Result, entity keycodec.EntityName, dataPath string) (*Page, error) {
	rows, err := k.resolveAndMaterialize(ctx, res, entity, dataPath)
	if err != nil {
		return nil, err
	}

	filtered, err := filterRows(rows, res.Plan.Predicate)
	if err != nil {
		return nil, err
	}
	sortRows(filtered, res.Plan.Order)
	filtered = applyCursorBoundary(filtered, res.Plan.Order, res.Boundary)

	pageRows, hasMore := paginate(filtered, res.Plan.Page)

	sink := obs.SinkFromContext(ctx)
	sink.ObserveScan(entity.String(), fastPathFor(*res), len(rows))
	sink.ObserveRowsMaterialized(entity.String(), len(pageRows))

	page := &Page{Rows: pageRows, HasMore: hasMore}
	if hasMore && len(pageRows) > 0 && res.Plan.Order != nil {
		page.NextCursor = buildCursorToken(res, pageRows[len(pageRows)-1])
	}
	return page, nil
}

// ResolveDeleteKeys runs res as a Delete plan, returning the bounded,
// ordered set of DataKeys to remove. The Kernel itself never mutates a
// store; internal/saveexec consumes this result to perform the actual
// removal plus index maintenance.
func (k *Kernel) ResolveDeleteKeys(ctx context.Context, res *planner.Result, entity keycodec.EntityName, dataPath string) ([]keycodec.DataKey, error) {
	rows, err := k.resolveAndMaterialize(ctx, res, entity, dataPath)
	if err != nil {
		return nil, err
	}
	filtered, err := filterRows(rows, res.Plan.Predicate)
	if err != nil {
		return nil, err
	}
	sortRows(filtered, res.Plan.Order)
	filtered = applyDeleteLimit(filtered, res.Plan.DeleteLimit)

	keys := make([]keycodec.DataKey, 0, len(filtered))
	for _, ev := range filtered {
		sk, err := keycodec.FromValue(ev.PrimaryKeyValue())
		if err != nil {
			return nil, err
		}
		keys = append(keys, keycodec.DataKey{Entity: entity, Key: sk})
	}

	sink := obs.SinkFromContext(ctx)
	sink.ObserveScan(entity.String(), fastPathFor(*res), len(rows))
	return keys, nil
}

func (k *Kernel) resolveAndMaterialize(ctx context.Context, res *planner.Result, entity keycodec.EntityName, dataPath string) ([]icykv.EntityValue, error) {
	reverse := res.Plan.Order != nil && len(res.Plan.Order.Fields) > 0 && res.Plan.Order.Fields[0].Desc && res.Plan.Access.SupportsReverse()
	resolver := stream.NewResolver(k.Registry, entity, dataPath, reverse)

	// The scan budget only holds when the key stream's own order is the
	// final row order and no streamed row is dropped afterwards by the
	// residual filter or a cursor boundary.
	_, isTrue := res.Plan.Predicate.(predicate.True)
	unfiltered := res.Plan.Predicate == nil || isTrue
	order := res.Plan.Order
	pkOrdered := order != nil && len(order.Fields) == 1 && order.Fields[0].Field == res.Plan.Entity.PrimaryKey.Name && order.Fields[0].Desc == reverse
	fetchHint := 0
	if res.Plan.Page != nil && res.Boundary == nil && unfiltered && pkOrdered {
		fetchHint = int(res.Plan.Page.Offset) + int(res.Plan.Page.Limit) + 1
	}

	keyStream, err := resolver.Resolve(res.Plan.Access, fetchHint)
	if err != nil {
		return nil, err
	}

	var rows []icykv.EntityValue
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dk, ok := keyStream.Next()
		if !ok {
			break
		}
		ev, found, err := materializeRow(k.Registry, dataPath, k.Codec, dk, res.Plan.Consistency)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		rows = append(rows, ev)
	}
	return rows, nil
}

func buildCursorToken(res *planner.Result, last icykv.EntityValue) string {
	order := res.Plan.Order
	names := orderFieldNames(order)
	vals := orderFieldValues(last, names)
	boundary := make(cursor.Boundary, len(vals))
	for i, v := range vals {
		boundary[i] = cursor.PresentSlot(v)
	}
	direction := cursor.Asc
	if len(order.Fields) > 0 && order.Fields[0].Desc {
		direction = cursor.Desc
	}
	tok := cursor.Token{
		Version:   cursor.CurrentVersion,
		Signature: res.Plan.Signature,
		Boundary:  boundary,
		Direction: direction,
	}
	return cursor.Encode(tok)
}
