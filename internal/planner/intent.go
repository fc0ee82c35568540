package planner

import (
	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/cursor"
	"github.com/icydb/icykv/internal/predicate"
)

// Intent is the caller-supplied, not-yet-validated request the planner
// lowers into a LogicalPlan (spec.md §4.5 "lower user intent").
type Intent struct {
	Mode        PlanMode
	Entity      icykv.EntityModel
	Predicate   predicate.Predicate // nil means unconditional (True)
	Order       *OrderSpec
	Distinct    bool
	DeleteLimit *uint32
	Page        *PageSpec
	Cursor      string // hex-encoded continuation token, "" when absent
	Consistency icykv.ReadConsistency
	Group       *GroupSpec
}

// Result is the planner's successful output: the validated LogicalPlan
// plus the decoded-and-validated cursor boundary, if one was supplied.
type Result struct {
	Plan     LogicalPlan
	Boundary cursor.Boundary // nil when no cursor was supplied
	Direction cursor.Direction
}

// Build lowers intent into a validated LogicalPlan (spec.md §4.5/§3
// invariants), or returns a *icykv.PlanError / *icykv.IntentError /
// *cursor.DecodeError / *cursor.ValidationError describing the first
// violation found.
func Build(intent Intent) (*Result, error) {
	if err := checkModeInvariants(intent); err != nil {
		return nil, err
	}

	pred := intent.Predicate
	if pred == nil {
		pred = predicate.True{}
	}
	normalized, err := normalizeAndValidate(pred, intent.Entity)
	if err != nil {
		return nil, err
	}

	order, err := resolveOrder(intent)
	if err != nil {
		return nil, err
	}

	access := InferAccessPlan(intent.Entity, normalized)
	physicalDesc := order != nil && len(order.Fields) > 0 && order.Fields[0].Desc && access.SupportsReverse()

	lp := LogicalPlan{
		Mode:         intent.Mode,
		Entity:       intent.Entity,
		Access:       access,
		Predicate:    normalized,
		Order:        order,
		Distinct:     intent.Distinct,
		DeleteLimit:  intent.DeleteLimit,
		Page:         intent.Page,
		Consistency:  intent.Consistency,
		Group:        intent.Group,
		PhysicalDesc: physicalDesc,
	}
	lp.Signature = ContinuationSignature(intent.Entity.Path, intent.Mode, access, normalized, order, intent.Distinct, intent.Group)

	result := &Result{Plan: lp}

	if intent.Cursor != "" {
		boundary, direction, err := admitCursor(intent.Cursor, lp)
		if err != nil {
			return nil, err
		}
		result.Boundary = boundary
		result.Direction = direction
	}

	return result, nil
}

func checkModeInvariants(intent Intent) error {
	if intent.Mode == ModeDelete && intent.Page != nil {
		return icykv.NewIntentError("delete plans must not carry a page")
	}
	if intent.Mode == ModeLoad && intent.DeleteLimit != nil {
		return icykv.NewIntentError("load plans must not carry a delete limit")
	}
	if intent.Page != nil && intent.Order == nil {
		return icykv.NewIntentError("pagination requires an explicit order")
	}
	if intent.Cursor != "" && intent.Page == nil {
		return icykv.NewIntentError("a cursor was supplied without a page/limit")
	}
	return nil
}

func normalizeAndValidate(pred predicate.Predicate, model icykv.EntityModel) (predicate.Predicate, error) {
	normalized, err := predicate.NormalizeLiterals(predicate.Normalize(pred), model)
	if err != nil {
		return nil, err
	}
	if err := predicate.Validate(normalized, model); err != nil {
		return nil, err
	}
	return normalized, nil
}

// resolveOrder inserts the primary-key field as the final tie-break if
// the caller's order spec omits it (spec.md §3 invariant: "Primary-key
// field MUST appear in any explicit order spec as the final tie-break,
// or planner inserts it").
func resolveOrder(intent Intent) (*OrderSpec, error) {
	if intent.Order == nil {
		if intent.Page == nil {
			return nil, nil
		}
		return &OrderSpec{Fields: []OrderField{{Field: intent.Entity.PrimaryKey.Name}}}, nil
	}
	for _, f := range intent.Order.Fields {
		if _, ok := intent.Entity.FieldByName(f.Field); !ok {
			return nil, icykv.NewPlanError(icykv.ClassInvariantViolation, icykv.OriginQuery,
				"unknown field in order spec").WithField(f.Field).WithEntity(intent.Entity.Path)
		}
	}
	pkField := intent.Entity.PrimaryKey.Name
	fields := append([]OrderField(nil), intent.Order.Fields...)
	if len(fields) == 0 || fields[len(fields)-1].Field != pkField {
		fields = append(fields, OrderField{Field: pkField})
	}
	return &OrderSpec{Fields: fields}, nil
}

func admitCursor(wire string, lp LogicalPlan) (cursor.Boundary, cursor.Direction, error) {
	tok, err := cursor.Decode(wire)
	if err != nil {
		return nil, 0, err
	}
	direction := cursor.Asc
	if lp.Order != nil && len(lp.Order.Fields) > 0 && lp.Order.Fields[0].Desc {
		direction = cursor.Desc
	}
	if err := cursor.Validate(tok, lp.Signature, direction, lp.Order.Arity(), lp.Entity.PrimaryKey.Kind); err != nil {
		return nil, 0, err
	}
	return tok.Boundary, tok.Direction, nil
}
