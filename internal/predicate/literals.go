package predicate

import (
	"sort"

	"github.com/icydb/icykv"
)

// NormalizeLiterals rewrites enum literals that omit their schema path to
// the field's declared enum path, canonically sorts and dedups set
// literals, and rejects literal/field kind shape mismatches (spec.md §3
// "ValueEnum", §4.3 "Literal normalization against schema"). Call this
// after Normalize and before Validate.
func NormalizeLiterals(p Predicate, model icykv.EntityModel) (Predicate, error) {
	switch t := p.(type) {
	case And:
		children, err := normalizeChildLiterals(t.Children, model)
		if err != nil {
			return nil, err
		}
		return And{Children: children}, nil
	case Or:
		children, err := normalizeChildLiterals(t.Children, model)
		if err != nil {
			return nil, err
		}
		return Or{Children: children}, nil
	case Not:
		child, err := NormalizeLiterals(t.Child, model)
		if err != nil {
			return nil, err
		}
		return Not{Child: child}, nil
	case Compare:
		return normalizeCompareLiteral(t, model)
	default:
		return p, nil
	}
}

func normalizeChildLiterals(children []Predicate, model icykv.EntityModel) ([]Predicate, error) {
	out := make([]Predicate, len(children))
	for i, c := range children {
		nc, err := NormalizeLiterals(c, model)
		if err != nil {
			return nil, err
		}
		out[i] = nc
	}
	return out, nil
}

func normalizeCompareLiteral(c Compare, model icykv.EntityModel) (Predicate, error) {
	slot, ok := model.FieldByName(c.Field)
	if !ok {
		return c, nil // Validate reports the unknown-field error
	}
	if len(c.Values) > 0 {
		vals := make([]icykv.Value, len(c.Values))
		for i, v := range c.Values {
			nv, err := normalizeLiteral(v, slot.Kind, c.Field)
			if err != nil {
				return nil, err
			}
			vals[i] = nv
		}
		if c.Op == OpIn || c.Op == OpNotIn {
			sort.Slice(vals, func(i, j int) bool { return icykv.CompareValues(vals[i], vals[j]) < 0 })
			vals = dedupValues(vals)
		}
		c.Values = vals
		return c, nil
	}
	nv, err := normalizeLiteral(c.Value, slot.Kind, c.Field)
	if err != nil {
		return nil, err
	}
	c.Value = nv
	return c, nil
}

func normalizeLiteral(v icykv.Value, kind icykv.FieldKind, field string) (icykv.Value, error) {
	if v.Kind == icykv.KindEnum && kind.Tag == icykv.FieldKindEnum {
		if v.EnumVal.Path == "" {
			v.EnumVal.Path = kind.EnumPath
		} else if v.EnumVal.Path != kind.EnumPath {
			return v, icykv.NewPlanError(icykv.ClassInvariantViolation, icykv.OriginQuery,
				"enum literal path does not match field's declared enum path").WithField(field)
		}
		return v, nil
	}
	if v.Kind == icykv.KindList && (kind.Tag == icykv.FieldKindList || kind.Tag == icykv.FieldKindSet) {
		if kind.Tag == icykv.FieldKindSet {
			elems := append([]icykv.Value(nil), v.List...)
			sort.Slice(elems, func(i, j int) bool { return icykv.CompareValues(elems[i], elems[j]) < 0 })
			v.List = dedupValues(elems)
		}
		return v, nil
	}
	return v, nil
}

func dedupValues(sorted []icykv.Value) []icykv.Value {
	if len(sorted) == 0 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if icykv.CompareValues(out[len(out)-1], v) != 0 {
			out = append(out, v)
		}
	}
	return out
}
