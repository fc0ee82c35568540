// Package predicate implements the canonical predicate algebra: tree
// construction, normalization, schema validation, deterministic sort
// keys, and evaluation over entity field values (spec.md §4.3).
package predicate

import "github.com/icydb/icykv"

// CompareOp enumerates the admissible comparison operators for a Compare
// node.
type CompareOp uint8

const (
	OpEq CompareOp = iota
	OpNe
	OpLt
	OpLte
	OpGt
	OpGte
	OpIn
	OpNotIn
	OpContains
	OpStartsWith
	OpEndsWith
)

// CoercionId selects the comparator a Compare node uses once the operand
// types are known (spec.md §4.3).
type CoercionId uint8

const (
	CoercionStrict CoercionId = iota
	CoercionNumericWiden
	CoercionTextCasefold
	CoercionCollectionElement
)

// Predicate is the algebraic IR's common interface. Every variant below
// implements it; the switch in normalize/validate/eval/sortkey is kept
// exhaustive by design (spec.md §9: "Enum with open variant growth").
type Predicate interface {
	isPredicate()
}

type True struct{}
type False struct{}

type And struct{ Children []Predicate }
type Or struct{ Children []Predicate }
type Not struct{ Child Predicate }

type Compare struct {
	Field    string
	Op       CompareOp
	Value    icykv.Value
	Values   []icykv.Value // populated for In/NotIn; Value is unused in that case
	Coercion CoercionId
}

type IsNull struct{ Field string }
type IsMissing struct{ Field string }
type IsEmpty struct{ Field string }
type IsNotEmpty struct{ Field string }

type TextContains struct {
	Field string
	Value string
}

type TextContainsCi struct {
	Field string
	Value string
}

func (True) isPredicate()           {}
func (False) isPredicate()          {}
func (And) isPredicate()            {}
func (Or) isPredicate()             {}
func (Not) isPredicate()            {}
func (Compare) isPredicate()        {}
func (IsNull) isPredicate()         {}
func (IsMissing) isPredicate()      {}
func (IsEmpty) isPredicate()        {}
func (IsNotEmpty) isPredicate()     {}
func (TextContains) isPredicate()   {}
func (TextContainsCi) isPredicate() {}

// Eq is a convenience constructor for the most common Compare shape.
func Eq(field string, value icykv.Value) Compare {
	return Compare{Field: field, Op: OpEq, Value: value, Coercion: CoercionStrict}
}
