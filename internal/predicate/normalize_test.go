package predicate

import (
	"testing"

	"github.com/icydb/icykv"
)

func TestNormalizeFlattensNestedAnd(t *testing.T) {
	p := And{Children: []Predicate{
		Eq("a", icykv.IntValue(1)),
		And{Children: []Predicate{
			Eq("b", icykv.IntValue(2)),
			True{},
		}},
	}}
	got := Normalize(p)
	and, ok := got.(And)
	if !ok {
		t.Fatalf("expected And, got %T", got)
	}
	if len(and.Children) != 2 {
		t.Fatalf("expected flattened 2 children, got %d", len(and.Children))
	}
}

func TestNormalizeShortCircuitsAndFalse(t *testing.T) {
	p := And{Children: []Predicate{Eq("a", icykv.IntValue(1)), False{}}}
	if _, ok := Normalize(p).(False); !ok {
		t.Fatalf("expected False short-circuit")
	}
}

func TestNormalizeShortCircuitsOrTrue(t *testing.T) {
	p := Or{Children: []Predicate{Eq("a", icykv.IntValue(1)), True{}}}
	if _, ok := Normalize(p).(True); !ok {
		t.Fatalf("expected True short-circuit")
	}
}

func TestNormalizeEmptyAndIsTrue(t *testing.T) {
	if _, ok := Normalize(And{}).(True); !ok {
		t.Fatalf("expected empty AND to normalize to True")
	}
}

func TestNormalizeEmptyOrIsFalse(t *testing.T) {
	if _, ok := Normalize(Or{}).(False); !ok {
		t.Fatalf("expected empty OR to normalize to False")
	}
}

func TestNormalizeDoubleNegation(t *testing.T) {
	p := Not{Child: Not{Child: Eq("a", icykv.IntValue(1))}}
	got := Normalize(p)
	if _, ok := got.(Compare); !ok {
		t.Fatalf("expected Not(Not(x)) -> x, got %T", got)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	p := Or{Children: []Predicate{
		Eq("b", icykv.IntValue(2)),
		Eq("a", icykv.IntValue(1)),
		And{Children: []Predicate{Eq("c", icykv.IntValue(3)), True{}}},
	}}
	once := Normalize(p)
	twice := Normalize(once)
	if compareBytes(SortKey(once), SortKey(twice)) != 0 {
		t.Fatalf("normalize is not idempotent: %v vs %v", SortKey(once), SortKey(twice))
	}
}

func TestSortKeyDeterministicChildOrder(t *testing.T) {
	p1 := Or{Children: []Predicate{Eq("b", icykv.IntValue(2)), Eq("a", icykv.IntValue(1))}}
	p2 := Or{Children: []Predicate{Eq("a", icykv.IntValue(1)), Eq("b", icykv.IntValue(2))}}
	n1, n2 := Normalize(p1), Normalize(p2)
	if compareBytes(SortKey(n1), SortKey(n2)) != 0 {
		t.Fatalf("expected structurally equal predicates to produce equal sort keys")
	}
}

func TestSortKeyDiffersOnStructuralChange(t *testing.T) {
	p1 := Eq("a", icykv.IntValue(1))
	p2 := Eq("a", icykv.IntValue(2))
	if compareBytes(SortKey(p1), SortKey(p2)) == 0 {
		t.Fatalf("expected differing literal values to produce differing sort keys")
	}
}
