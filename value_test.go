package icykv

import "testing"

func TestCompareValuesBigIntStringsNumeric(t *testing.T) {
	// "9" sorts lexicographically after "10" but must sort before it
	// numerically.
	nine := Value{Kind: KindInt128, Int128: "9"}
	ten := Value{Kind: KindInt128, Int128: "10"}
	if CompareValues(nine, ten) >= 0 {
		t.Fatalf("expected 9 < 10, got %d", CompareValues(nine, ten))
	}
	if CompareValues(ten, nine) <= 0 {
		t.Fatalf("expected 10 > 9, got %d", CompareValues(ten, nine))
	}
	if CompareValues(nine, nine) != 0 {
		t.Fatalf("expected equal values to compare 0")
	}
}

func TestCompareValuesBigIntStringsNegative(t *testing.T) {
	neg := Value{Kind: KindIntBig, IntBig: "-999999999999999999999999999999"}
	pos := Value{Kind: KindIntBig, IntBig: "5"}
	if CompareValues(neg, pos) >= 0 {
		t.Fatalf("expected negative < positive, got %d", CompareValues(neg, pos))
	}
}

func TestCompareValuesUintBigStrings(t *testing.T) {
	small := Value{Kind: KindUint128, Uint128: "2"}
	large := Value{Kind: KindUint128, Uint128: "340282366920938463463374607431768211455"}
	if CompareValues(small, large) >= 0 {
		t.Fatalf("expected small < large, got %d", CompareValues(small, large))
	}
}

func TestCompareValuesUintBigVsPlainUintBig(t *testing.T) {
	a := Value{Kind: KindUintBig, UintBig: "99"}
	b := Value{Kind: KindUintBig, UintBig: "100"}
	if CompareValues(a, b) >= 0 {
		t.Fatalf("expected 99 < 100, got %d", CompareValues(a, b))
	}
}

func TestCompareValuesFloat32(t *testing.T) {
	a := Value{Kind: KindFloat32, Float32: 1.5}
	b := Value{Kind: KindFloat32, Float32: 2.5}
	if CompareValues(a, b) >= 0 {
		t.Fatalf("expected 1.5 < 2.5, got %d", CompareValues(a, b))
	}
	if CompareValues(a, a) != 0 {
		t.Fatalf("expected equal float32 values to compare 0")
	}
}

func TestBigIntStringCompareUnparseableTreatedAsZero(t *testing.T) {
	if bigIntStringCompare("", "") != 0 {
		t.Fatalf("expected empty strings to compare equal")
	}
	if bigIntStringCompare("not-a-number", "0") != 0 {
		t.Fatalf("expected unparseable string to compare as zero")
	}
	if bigIntStringCompare("5", "not-a-number") <= 0 {
		t.Fatalf("expected 5 > unparseable (treated as 0)")
	}
}
