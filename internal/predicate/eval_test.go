package predicate

import (
	"testing"

	"github.com/icydb/icykv"
)

func lookupFrom(values map[string]icykv.Value) FieldLookup {
	return func(field string) (icykv.Value, bool) {
		v, ok := values[field]
		return v, ok
	}
}

func TestEvalCompareStrict(t *testing.T) {
	lookup := lookupFrom(map[string]icykv.Value{"age": icykv.IntValue(30)})
	ok, err := Eval(Compare{Field: "age", Op: OpGte, Value: icykv.IntValue(18)}, lookup)
	if err != nil || !ok {
		t.Fatalf("expected age>=18 true, got ok=%v err=%v", ok, err)
	}
}

func TestEvalMissingFieldIsFalseForCompare(t *testing.T) {
	lookup := lookupFrom(map[string]icykv.Value{})
	ok, err := Eval(Compare{Field: "age", Op: OpEq, Value: icykv.IntValue(1)}, lookup)
	if err != nil || ok {
		t.Fatalf("expected missing field compare to be false")
	}
}

func TestEvalIsMissingVsIsNull(t *testing.T) {
	lookup := lookupFrom(map[string]icykv.Value{"a": icykv.NullValue()})
	missing, _ := Eval(IsMissing{Field: "a"}, lookup)
	null, _ := Eval(IsNull{Field: "a"}, lookup)
	if missing {
		t.Fatalf("field a is present (as Null), IsMissing should be false")
	}
	if !null {
		t.Fatalf("field a holds Null, IsNull should be true")
	}

	missingB, _ := Eval(IsMissing{Field: "b"}, lookup)
	if !missingB {
		t.Fatalf("field b is absent entirely, IsMissing should be true")
	}
}

func TestEvalAndOrShortCircuit(t *testing.T) {
	lookup := lookupFrom(map[string]icykv.Value{"a": icykv.IntValue(1)})
	and := And{Children: []Predicate{Eq("a", icykv.IntValue(1)), Eq("missing", icykv.IntValue(2))}}
	ok, _ := Eval(and, lookup)
	if ok {
		t.Fatalf("expected AND to be false when one clause is false")
	}
	or := Or{Children: []Predicate{Eq("missing", icykv.IntValue(2)), Eq("a", icykv.IntValue(1))}}
	ok, _ = Eval(or, lookup)
	if !ok {
		t.Fatalf("expected OR to be true when one clause is true")
	}
}

func TestEvalTextCasefold(t *testing.T) {
	lookup := lookupFrom(map[string]icykv.Value{"name": icykv.TextValue("Alice")})
	ok, _ := Eval(Compare{Field: "name", Op: OpEq, Value: icykv.TextValue("alice"), Coercion: CoercionTextCasefold}, lookup)
	if !ok {
		t.Fatalf("expected casefolded equality to match")
	}
}

func TestEvalInOperator(t *testing.T) {
	lookup := lookupFrom(map[string]icykv.Value{"status": icykv.TextValue("active")})
	c := Compare{Field: "status", Op: OpIn, Values: []icykv.Value{icykv.TextValue("active"), icykv.TextValue("paused")}}
	ok, _ := Eval(c, lookup)
	if !ok {
		t.Fatalf("expected IN to match one of the literals")
	}
}

func TestEvalIsEmpty(t *testing.T) {
	lookup := lookupFrom(map[string]icykv.Value{"tags": {Kind: icykv.KindList, List: nil}})
	ok, _ := Eval(IsEmpty{Field: "tags"}, lookup)
	if !ok {
		t.Fatalf("expected empty list to satisfy IsEmpty")
	}
}
