package cursor

import (
	"testing"

	"github.com/icydb/icykv"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tok := Token{
		Version:       CurrentVersion,
		Signature:     [32]byte{1, 2, 3},
		Boundary:      Boundary{PresentSlot(icykv.IntValue(5)), MissingSlot()},
		Direction:     Asc,
		InitialOffset: 3,
	}
	wire := Encode(tok)
	got, err := Decode(wire)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got.Signature != tok.Signature || got.Direction != tok.Direction || got.InitialOffset != tok.InitialOffset {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Boundary) != 2 || !got.Boundary[0].Present || got.Boundary[1].Present {
		t.Fatalf("boundary round trip mismatch: %+v", got.Boundary)
	}
}

func TestDecodeRejectsMalformedHex(t *testing.T) {
	_, err := Decode("not-hex!!")
	if err == nil {
		t.Fatalf("expected malformed hex rejection")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Reason != ReasonMalformedHex {
		t.Fatalf("expected ReasonMalformedHex, got %v", err)
	}
}

func TestDecodeRejectsEmptyPayload(t *testing.T) {
	_, err := Decode("")
	if err == nil {
		t.Fatalf("expected empty payload rejection")
	}
}

func TestDecodeRejectsOversize(t *testing.T) {
	big := make([]byte, 2*(MaxTokenBytes+16))
	wire := ""
	for _, b := range big {
		wire += string("0123456789abcdef"[b%16])
	}
	_, err := Decode(wire)
	if err == nil {
		t.Fatalf("expected oversize rejection")
	}
	de, ok := err.(*DecodeError)
	if !ok || de.Reason != ReasonOversize {
		t.Fatalf("expected ReasonOversize, got %v", err)
	}
}

func TestValidateSignatureMismatch(t *testing.T) {
	tok := Token{Signature: [32]byte{1}, Direction: Asc, Boundary: Boundary{PresentSlot(icykv.IntValue(1))}}
	err := Validate(tok, [32]byte{2}, Asc, 1, icykv.FieldKind{Tag: icykv.FieldKindInt})
	if err == nil {
		t.Fatalf("expected signature mismatch error")
	}
}

func TestValidateArityMismatch(t *testing.T) {
	sig := [32]byte{9}
	tok := Token{Signature: sig, Direction: Asc, Boundary: Boundary{PresentSlot(icykv.IntValue(1))}}
	err := Validate(tok, sig, Asc, 2, icykv.FieldKind{Tag: icykv.FieldKindInt})
	if err == nil {
		t.Fatalf("expected arity mismatch error")
	}
}
