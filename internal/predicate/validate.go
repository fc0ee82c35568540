package predicate

import "github.com/icydb/icykv"

// Validate walks p and rejects any node that is structurally inadmissible
// against model: unknown fields, and (FieldKind, Op, Coercion)
// combinations that make no sense (e.g. Contains on a non-text/list
// field) (spec.md §4.3).
func Validate(p Predicate, model icykv.EntityModel) error {
	switch t := p.(type) {
	case True, False:
		return nil
	case And:
		return validateChildren(t.Children, model)
	case Or:
		return validateChildren(t.Children, model)
	case Not:
		return Validate(t.Child, model)
	case Compare:
		return validateCompare(t, model)
	case IsNull:
		_, err := requireField(t.Field, model)
		return err
	case IsMissing:
		_, err := requireField(t.Field, model)
		return err
	case IsEmpty:
		return validateEmptiness(t.Field, model)
	case IsNotEmpty:
		return validateEmptiness(t.Field, model)
	case TextContains:
		return validateTextField(t.Field, model)
	case TextContainsCi:
		return validateTextField(t.Field, model)
	default:
		return icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginQuery,
			"unrecognized predicate node")
	}
}

func validateChildren(children []Predicate, model icykv.EntityModel) error {
	for _, c := range children {
		if err := Validate(c, model); err != nil {
			return err
		}
	}
	return nil
}

func requireField(name string, model icykv.EntityModel) (icykv.FieldSlot, error) {
	slot, ok := model.FieldByName(name)
	if !ok {
		return icykv.FieldSlot{}, icykv.NewPlanError(icykv.ClassInvariantViolation, icykv.OriginQuery,
			"unknown field in predicate").WithField(name).WithEntity(model.Path)
	}
	return slot, nil
}

func validateEmptiness(field string, model icykv.EntityModel) error {
	slot, err := requireField(field, model)
	if err != nil {
		return err
	}
	switch slot.Kind.Tag {
	case icykv.FieldKindList, icykv.FieldKindSet, icykv.FieldKindMap, icykv.FieldKindText, icykv.FieldKindBlob:
		return nil
	default:
		return icykv.NewPlanError(icykv.ClassUnsupported, icykv.OriginQuery,
			"field kind does not support emptiness checks").WithField(field)
	}
}

func validateTextField(field string, model icykv.EntityModel) error {
	slot, err := requireField(field, model)
	if err != nil {
		return err
	}
	if slot.Kind.Tag != icykv.FieldKindText {
		return icykv.NewPlanError(icykv.ClassUnsupported, icykv.OriginQuery,
			"text-contains requires a text field").WithField(field)
	}
	return nil
}

func validateCompare(c Compare, model icykv.EntityModel) error {
	slot, err := requireField(c.Field, model)
	if err != nil {
		return err
	}
	switch c.Op {
	case OpContains, OpStartsWith, OpEndsWith:
		switch slot.Kind.Tag {
		case icykv.FieldKindText, icykv.FieldKindList, icykv.FieldKindSet:
			// admissible
		default:
			return icykv.NewPlanError(icykv.ClassUnsupported, icykv.OriginQuery,
				"contains/starts_with/ends_with require text or collection field").WithField(c.Field)
		}
	case OpIn, OpNotIn:
		if len(c.Values) == 0 {
			return icykv.NewPlanError(icykv.ClassInvariantViolation, icykv.OriginQuery,
				"in/not_in requires at least one literal").WithField(c.Field)
		}
	}
	switch c.Coercion {
	case CoercionNumericWiden:
		if !slot.Kind.SupportsNumericCoercion() {
			return icykv.NewPlanError(icykv.ClassUnsupported, icykv.OriginQuery,
				"field kind does not support numeric coercion").WithField(c.Field)
		}
	case CoercionTextCasefold:
		if slot.Kind.Tag != icykv.FieldKindText {
			return icykv.NewPlanError(icykv.ClassUnsupported, icykv.OriginQuery,
				"text casefold coercion requires a text field").WithField(c.Field)
		}
	case CoercionCollectionElement:
		switch slot.Kind.Tag {
		case icykv.FieldKindList, icykv.FieldKindSet:
			// admissible
		default:
			return icykv.NewPlanError(icykv.ClassUnsupported, icykv.OriginQuery,
				"collection-element coercion requires a list/set field").WithField(c.Field)
		}
	}
	return nil
}
