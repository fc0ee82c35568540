package cursor

import (
	"github.com/icydb/icykv"
)

// ValidationReason classifies why a decoded token was rejected against a
// specific plan (spec.md §4.6 "Validation at resume").
type ValidationReason string

const (
	ReasonSignatureMismatch ValidationReason = "signature_mismatch"
	ReasonDirectionMismatch ValidationReason = "direction_mismatch"
	ReasonArityMismatch     ValidationReason = "arity_mismatch"
	ReasonPKKindMismatch    ValidationReason = "pk_kind_mismatch"
)

// ValidationError reports a typed InvalidContinuationCursor sub-reason.
type ValidationError struct {
	Reason ValidationReason
	Detail string
}

func (e *ValidationError) Error() string {
	return "invalid continuation cursor: " + string(e.Reason) + ": " + e.Detail
}

// Validate checks tok against the resuming plan's expectations: its
// continuation signature, physical direction, boundary arity, and the
// primary-key field's declared FieldKind for the final tie-break slot.
func Validate(tok Token, expectedSignature [32]byte, expectedDirection Direction, expectedArity int, pkKind icykv.FieldKind) error {
	if tok.Signature != expectedSignature {
		return &ValidationError{Reason: ReasonSignatureMismatch, Detail: "token was not issued for this plan shape"}
	}
	if tok.Direction != expectedDirection {
		return &ValidationError{Reason: ReasonDirectionMismatch, Detail: "token direction does not match request direction"}
	}
	if len(tok.Boundary) != expectedArity {
		return &ValidationError{Reason: ReasonArityMismatch, Detail: "boundary arity does not match plan order arity"}
	}
	if expectedArity == 0 {
		return nil
	}
	last := tok.Boundary[expectedArity-1]
	if last.Present && !pkKindMatches(last.Value, pkKind) {
		return &ValidationError{Reason: ReasonPKKindMismatch, Detail: "boundary's trailing PK slot does not match entity's PK kind"}
	}
	return nil
}

func pkKindMatches(v icykv.Value, kind icykv.FieldKind) bool {
	switch kind.Tag {
	case icykv.FieldKindInt:
		return v.Kind == icykv.KindInt
	case icykv.FieldKindUint:
		return v.Kind == icykv.KindUint
	case icykv.FieldKindUlid:
		return v.Kind == icykv.KindUlid
	case icykv.FieldKindPrincipal:
		return v.Kind == icykv.KindPrincipal
	case icykv.FieldKindAccount:
		return v.Kind == icykv.KindAccount
	case icykv.FieldKindSubaccount:
		return v.Kind == icykv.KindSubaccount
	case icykv.FieldKindTimestamp:
		return v.Kind == icykv.KindTimestamp
	case icykv.FieldKindUnit:
		return v.Kind == icykv.KindUnit
	default:
		return false
	}
}

// CompareBoundary compares row (the field values of a candidate row, in
// order-spec order) against boundary under canonical Value order, used
// for the strict `row > boundary` post-cursor filter (spec.md §4.8 phase
// 3). A Missing slot sorts as smaller than any Present value, matching
// SQL NULLS FIRST semantics for ascending order.
func CompareBoundary(row []icykv.Value, boundary Boundary, descPerField []bool) int {
	for i := 0; i < len(boundary) && i < len(row); i++ {
		slot := boundary[i]
		desc := i < len(descPerField) && descPerField[i]
		var c int
		switch {
		case !slot.Present:
			c = 1 // any present row value sorts after a missing boundary slot
		default:
			c = icykv.CompareValues(row[i], slot.Value)
		}
		if desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}
