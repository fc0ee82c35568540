// Package planner lowers declarative load/delete intent into a validated
// LogicalPlan plus its executable AccessPlan, enforcing the cardinality,
// ordering, and pagination invariants spec.md §3/§4.5 require (grounded
// on original_source/db/query/logical_plan.rs and
// db/executor/load/route.rs for the exact validation order).
package planner

import (
	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/accessplan"
	"github.com/icydb/icykv/internal/predicate"
)

// PlanMode tags whether a LogicalPlan reads or deletes.
type PlanMode uint8

const (
	ModeLoad PlanMode = iota
	ModeDelete
)

// OrderField is one ORDER BY component.
type OrderField struct {
	Field string
	Desc  bool
}

// OrderSpec is the full requested (and, after planning, PK-tie-broken)
// ordering.
type OrderSpec struct {
	Fields []OrderField
}

// Arity reports the number of order components, which fixes the cursor
// boundary's slot arity.
func (o *OrderSpec) Arity() int {
	if o == nil {
		return 0
	}
	return len(o.Fields)
}

// PageSpec is an explicit (limit, offset) pagination request.
type PageSpec struct {
	Limit  uint32
	Offset uint32
}

// GroupAggregateSpec is one aggregate computed per group in a grouped
// plan (spec.md §3 "GroupSpec").
type GroupAggregateSpec struct {
	Alias string
	Spec  AggregateSpec
}

// GroupSpec describes a grouped (GROUP BY) load plan.
type GroupSpec struct {
	GroupFields []icykv.FieldSlot
	Aggregates  []GroupAggregateSpec
	MaxGroups   int
	MaxRows     int
}

// LogicalPlan is the planner's validated output (spec.md §3
// "LogicalPlan"). A grouped plan is a LogicalPlan with Group != nil; see
// DESIGN.md's open-question decision for why this is one struct rather
// than two coequal sum-type variants.
type LogicalPlan struct {
	Mode         PlanMode
	Entity       icykv.EntityModel
	Access       accessplan.Plan
	Predicate    predicate.Predicate
	Order        *OrderSpec
	Distinct     bool
	DeleteLimit  *uint32
	Page         *PageSpec
	Consistency  icykv.ReadConsistency
	Group        *GroupSpec
	Signature    [32]byte
	PhysicalDesc bool // whether the chosen AccessPlan's natural order is reversed
}
