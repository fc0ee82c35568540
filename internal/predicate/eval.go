package predicate

import (
	"strconv"
	"strings"

	"github.com/icydb/icykv"
)

// FieldLookup resolves one entity field's current Value. ok is false when
// the field slot itself is absent from the row (IsMissing semantics); a
// present field holding an explicit Null value reports ok == true with a
// Value of KindNull (IsNull semantics) (spec.md §4.3).
type FieldLookup func(field string) (value icykv.Value, ok bool)

// Eval evaluates p against lookup. It is total and side-effect-free:
// every node produces a boolean without panicking, given Values that
// already passed Validate.
func Eval(p Predicate, lookup FieldLookup) (bool, error) {
	switch t := p.(type) {
	case True:
		return true, nil
	case False:
		return false, nil
	case And:
		for _, c := range t.Children {
			ok, err := Eval(c, lookup)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	case Or:
		for _, c := range t.Children {
			ok, err := Eval(c, lookup)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case Not:
		ok, err := Eval(t.Child, lookup)
		if err != nil {
			return false, err
		}
		return !ok, nil
	case Compare:
		return evalCompare(t, lookup)
	case IsNull:
		v, ok := lookup(t.Field)
		return ok && v.IsNull(), nil
	case IsMissing:
		_, ok := lookup(t.Field)
		return !ok, nil
	case IsEmpty:
		return evalEmptiness(t.Field, lookup, true)
	case IsNotEmpty:
		return evalEmptiness(t.Field, lookup, false)
	case TextContains:
		v, ok := lookup(t.Field)
		if !ok || v.Kind != icykv.KindText {
			return false, nil
		}
		return strings.Contains(v.Text, t.Value), nil
	case TextContainsCi:
		v, ok := lookup(t.Field)
		if !ok || v.Kind != icykv.KindText {
			return false, nil
		}
		return strings.Contains(strings.ToLower(v.Text), strings.ToLower(t.Value)), nil
	default:
		return false, icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginQuery,
			"unrecognized predicate node during eval")
	}
}

func evalEmptiness(field string, lookup FieldLookup, wantEmpty bool) (bool, error) {
	v, ok := lookup(field)
	if !ok {
		return wantEmpty, nil
	}
	var isEmpty bool
	switch v.Kind {
	case icykv.KindText:
		isEmpty = v.Text == ""
	case icykv.KindBlob:
		isEmpty = len(v.Blob) == 0
	case icykv.KindList:
		isEmpty = len(v.List) == 0
	case icykv.KindMap:
		isEmpty = len(v.Map) == 0
	case icykv.KindNull:
		isEmpty = true
	default:
		isEmpty = false
	}
	if wantEmpty {
		return isEmpty, nil
	}
	return !isEmpty, nil
}

func evalCompare(c Compare, lookup FieldLookup) (bool, error) {
	v, ok := lookup(c.Field)
	if !ok {
		return false, nil
	}
	switch c.Op {
	case OpIn:
		for _, lit := range c.Values {
			if compareWithCoercion(v, lit, c.Coercion) == 0 {
				return true, nil
			}
		}
		return false, nil
	case OpNotIn:
		for _, lit := range c.Values {
			if compareWithCoercion(v, lit, c.Coercion) == 0 {
				return false, nil
			}
		}
		return true, nil
	case OpContains, OpStartsWith, OpEndsWith:
		return evalTextOrCollection(c.Op, v, c.Value, c.Coercion), nil
	}
	cmp := compareWithCoercion(v, c.Value, c.Coercion)
	switch c.Op {
	case OpEq:
		return cmp == 0, nil
	case OpNe:
		return cmp != 0, nil
	case OpLt:
		return cmp < 0, nil
	case OpLte:
		return cmp <= 0, nil
	case OpGt:
		return cmp > 0, nil
	case OpGte:
		return cmp >= 0, nil
	default:
		return false, icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginQuery,
			"unrecognized compare operator")
	}
}

func evalTextOrCollection(op CompareOp, v icykv.Value, lit icykv.Value, coercion CoercionId) bool {
	if coercion == CoercionCollectionElement && (v.Kind == icykv.KindList) {
		for _, elem := range v.List {
			if compareWithCoercion(elem, lit, CoercionStrict) == 0 {
				return true
			}
		}
		return false
	}
	if v.Kind != icykv.KindText || lit.Kind != icykv.KindText {
		return false
	}
	a, b := v.Text, lit.Text
	if coercion == CoercionTextCasefold {
		a, b = strings.ToLower(a), strings.ToLower(b)
	}
	switch op {
	case OpContains:
		return strings.Contains(a, b)
	case OpStartsWith:
		return strings.HasPrefix(a, b)
	case OpEndsWith:
		return strings.HasSuffix(a, b)
	default:
		return false
	}
}

// compareWithCoercion compares a (the field's current value) against b
// (a predicate literal) using the selected coercion (spec.md §4.3).
func compareWithCoercion(a, b icykv.Value, coercion CoercionId) int {
	switch coercion {
	case CoercionTextCasefold:
		if a.Kind == icykv.KindText && b.Kind == icykv.KindText {
			return strings.Compare(strings.ToLower(a.Text), strings.ToLower(b.Text))
		}
		return icykv.CompareValues(a, b)
	case CoercionNumericWiden:
		af, aok := asFloat(a)
		bf, bok := asFloat(b)
		if aok && bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
		return icykv.CompareValues(a, b)
	default:
		return icykv.CompareValues(a, b)
	}
}

func asFloat(v icykv.Value) (float64, bool) {
	switch v.Kind {
	case icykv.KindInt:
		return float64(v.Int), true
	case icykv.KindUint, icykv.KindE8s, icykv.KindE18s:
		return float64(v.Uint), true
	case icykv.KindFloat64:
		return v.Float64, true
	case icykv.KindFloat32:
		return float64(v.Float32), true
	case icykv.KindDecimal:
		f, err := strconv.ParseFloat(v.Decimal, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
