package keycodec

import (
	"bytes"
	"testing"

	"github.com/icydb/icykv"
)

func TestIndexComponentIntOrderPreserving(t *testing.T) {
	a, err := EncodeCanonicalIndexComponent(icykv.IntValue(-5))
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeCanonicalIndexComponent(icykv.IntValue(5))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Compare(a, b) >= 0 {
		t.Fatalf("expected -5 to sort before 5 in byte order")
	}
}

func TestIndexComponentTextOrderPreserving(t *testing.T) {
	a, _ := EncodeCanonicalIndexComponent(icykv.TextValue("apple"))
	b, _ := EncodeCanonicalIndexComponent(icykv.TextValue("banana"))
	if bytes.Compare(a, b) >= 0 {
		t.Fatalf("expected apple < banana in byte order")
	}
}

func TestIndexComponentFloatOrderPreserving(t *testing.T) {
	a, _ := EncodeCanonicalIndexComponent(icykv.Value{Kind: icykv.KindFloat64, Float64: -1.5})
	b, _ := EncodeCanonicalIndexComponent(icykv.Value{Kind: icykv.KindFloat64, Float64: 0})
	c, _ := EncodeCanonicalIndexComponent(icykv.Value{Kind: icykv.KindFloat64, Float64: 2.25})
	if bytes.Compare(a, b) >= 0 || bytes.Compare(b, c) >= 0 {
		t.Fatalf("expected -1.5 < 0 < 2.25 in byte order")
	}
}

func TestEncodeIndexComponentsConcatenatesInOrder(t *testing.T) {
	buf, err := EncodeIndexComponents([]icykv.Value{icykv.IntValue(1), icykv.TextValue("x")})
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) == 0 {
		t.Fatalf("expected non-empty component bytes")
	}
}
