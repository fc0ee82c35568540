package planner

import (
	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/accessplan"
)

// AggregateKind enumerates the streaming reducer terminals (spec.md §4.9,
// clarified by original_source/db/executor/fold.rs's AggregateKind enum
// per SPEC_FULL §2.3).
type AggregateKind uint8

const (
	AggregateCount AggregateKind = iota
	AggregateExists
	AggregateMin
	AggregateMax
	AggregateFirst
	AggregateLast
)

// AggregateSpec pairs an AggregateKind with an optional field-targeted
// extrema target, mirroring original_source/db/executor/fold.rs's
// AggregateSpec{kind, target_field}.
type AggregateSpec struct {
	Kind        AggregateKind
	TargetField *string
}

// SupportsFieldTargets reports whether Kind accepts a TargetField: only
// Min/Max do (spec.md §4.9 "field-targeted extrema").
func (s AggregateSpec) SupportsFieldTargets() bool {
	return s.Kind == AggregateMin || s.Kind == AggregateMax
}

// AggregateSpecSupportError mirrors original_source's typed
// AggregateSpecSupportError::FieldTargetRequiresExtrema rejection.
type AggregateSpecSupportError struct {
	Kind AggregateKind
}

func (e *AggregateSpecSupportError) Error() string {
	return "field target requires an extrema aggregate (Min or Max)"
}

// ValidateAggregateSpec rejects a TargetField on a non-extrema kind.
func ValidateAggregateSpec(s AggregateSpec) error {
	if s.TargetField != nil && !s.SupportsFieldTargets() {
		return &AggregateSpecSupportError{Kind: s.Kind}
	}
	return nil
}

// FastPathOrder names one executor fast-path dispatch candidate, in the
// shared precedence order both load and aggregate routing iterate
// (spec.md §4.8, clarified by original_source's FastPathOrder enum plus
// its two precedence arrays per SPEC_FULL §2.3).
type FastPathOrder uint8

const (
	FastPathPrimaryKey FastPathOrder = iota
	FastPathSecondaryPrefix
	FastPathPrimaryScan
	FastPathIndexRange
	FastPathComposite
)

// LoadFastPathOrder is the 3-entry precedence list a load plan's routing
// walks (original_source: LOAD_FAST_PATH_ORDER).
var LoadFastPathOrder = []FastPathOrder{
	FastPathPrimaryKey, FastPathSecondaryPrefix, FastPathComposite,
}

// AggregateFastPathOrder is the 5-entry precedence list an aggregate
// plan's routing walks (original_source: AGGREGATE_FAST_PATH_ORDER).
var AggregateFastPathOrder = []FastPathOrder{
	FastPathPrimaryKey, FastPathSecondaryPrefix, FastPathPrimaryScan,
	FastPathIndexRange, FastPathComposite,
}

// ExecutionMode classifies whether the executor can stream rows directly
// off the ordered key stream or must materialize and sort first (spec.md
// §4.8).
type ExecutionMode uint8

const (
	ExecutionStreaming ExecutionMode = iota
	ExecutionMaterialized
)

// ScanHints carries the soft scan budget and a bound on rows
// materialized, surfaced to internal/stream's BoundedStream.
type ScanHints struct {
	PhysicalFetchHint int
	LoadScanBudget    int
}

// routeIntent is the private sum type the shared core dispatches on,
// mirroring original_source's RouteIntent enum (Load{direction} /
// Aggregate{direction, kind}) per SPEC_FULL §2.3.
type routeIntent struct {
	isAggregate bool
	desc        bool
	kind        AggregateKind
}

// ExecutionRoutePlan bundles every routing decision the executor kernel
// needs into one struct built by one of two public constructors sharing
// a private core, per SPEC_FULL §2.3's clarification of
// original_source/db/executor/load/route.rs's ExecutionRoutePlan.
type ExecutionRoutePlan struct {
	ExecutionMode                 ExecutionMode
	SecondaryPushdownApplicability bool
	IndexRangeLimitSpec           *PageSpec
	DescPhysicalReverseSupported  bool
	ScanHints                     ScanHints
	AggregateFoldMode             *AggregateKind
	FastPathPrecedence            []FastPathOrder
}

// BuildExecutionRoutePlanForLoad constructs the route plan for a Load
// (or Delete) LogicalPlan.
func BuildExecutionRoutePlanForLoad(lp *LogicalPlan, hints ScanHints) ExecutionRoutePlan {
	return buildExecutionRoutePlan(lp, routeIntent{isAggregate: false, desc: orderIsDesc(lp.Order)}, hints)
}

// BuildExecutionRoutePlanForAggregate constructs the route plan for an
// aggregate terminal over lp.
func BuildExecutionRoutePlanForAggregate(lp *LogicalPlan, kind AggregateKind, hints ScanHints) ExecutionRoutePlan {
	return buildExecutionRoutePlan(lp, routeIntent{isAggregate: true, desc: orderIsDesc(lp.Order), kind: kind}, hints)
}

func orderIsDesc(o *OrderSpec) bool {
	if o == nil || len(o.Fields) == 0 {
		return false
	}
	return o.Fields[0].Desc
}

func buildExecutionRoutePlan(lp *LogicalPlan, intent routeIntent, hints ScanHints) ExecutionRoutePlan {
	mode := ExecutionStreaming
	if lp.Group != nil || lp.Distinct {
		mode = ExecutionMaterialized
	}
	if lp.Order != nil && !lp.PhysicalDesc && intent.desc {
		mode = ExecutionMaterialized
	}

	precedence := LoadFastPathOrder
	var foldMode *AggregateKind
	if intent.isAggregate {
		precedence = AggregateFastPathOrder
		k := intent.kind
		foldMode = &k
	}

	rp := ExecutionRoutePlan{
		ExecutionMode:                 mode,
		SecondaryPushdownApplicability: secondaryPushdownEligible(lp),
		DescPhysicalReverseSupported:  lp.Access.SupportsReverse(),
		ScanHints:                     hints,
		AggregateFoldMode:             foldMode,
		FastPathPrecedence:            precedence,
	}
	if lp.Page != nil {
		rp.IndexRangeLimitSpec = lp.Page
	}
	return rp
}

// secondaryPushdownEligible reports whether lp's requested ordering can
// be satisfied by the access plan's own natural traversal order without
// a post-access sort (spec.md §4.5's secondary-index ORDER BY pushdown
// eligibility matrix): the access plan must be a single IndexPrefix or
// prefix-only IndexRange, and the order spec's non-PK-tiebreak fields
// must match the index's declared field order exactly.
func secondaryPushdownEligible(lp *LogicalPlan) bool {
	if lp.Order == nil {
		return false
	}
	leaf, ok := leafIndexPath(lp)
	if !ok {
		return false
	}
	pkField := lp.Entity.PrimaryKey.Name
	fields := leaf.index.Fields
	oFields := lp.Order.Fields
	n := len(oFields)
	if n > 0 && oFields[n-1].Field == pkField {
		n--
	}
	if n > len(fields) {
		return false
	}
	for i := 0; i < n; i++ {
		if oFields[i].Field != fields[i] {
			return false
		}
	}
	return true
}

type resolvedIndexLeaf struct{ index icykv.IndexModel }

func leafIndexPath(lp *LogicalPlan) (resolvedIndexLeaf, bool) {
	leaf, ok := accessplan.SingleIndexPrefix(lp.Access)
	if !ok {
		return resolvedIndexLeaf{}, false
	}
	idx, ok := lp.Entity.IndexByName(leaf.Index)
	if !ok {
		return resolvedIndexLeaf{}, false
	}
	return resolvedIndexLeaf{index: idx}, true
}
