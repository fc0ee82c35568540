package keycodec

import (
	"encoding/binary"
	"math"
	"strings"

	"github.com/icydb/icykv"
)

// EncodeCanonicalIndexComponent encodes one field's value into an
// order-preserving byte component for use inside an IndexKey (spec.md
// §4.1). Unlike StorageKey, this accepts the richer set of field kinds
// an index may be declared over: numerics, Decimal, Float, Text, and the
// StorageKey-encodable identifiers, each self-delimiting so components
// can be concatenated in declared index-field order.
func EncodeCanonicalIndexComponent(v icykv.Value) ([]byte, error) {
	switch v.Kind {
	case icykv.KindNull:
		return []byte{tagNull}, nil
	case icykv.KindUnit:
		return []byte{tagUnitComp}, nil
	case icykv.KindBool:
		b := byte(0)
		if v.Bool {
			b = 1
		}
		return []byte{tagBool, b}, nil
	case icykv.KindInt:
		buf := make([]byte, 9)
		buf[0] = tagIntComp
		putBiasedInt64(buf[1:], v.Int)
		return buf, nil
	case icykv.KindUint, icykv.KindE8s, icykv.KindE18s:
		buf := make([]byte, 9)
		buf[0] = tagUintComp
		putUint64BE(buf[1:], v.Uint)
		return buf, nil
	case icykv.KindFloat64, icykv.KindFloat32:
		f := v.Float64
		if v.Kind == icykv.KindFloat32 {
			f = float64(v.Float32)
		}
		buf := make([]byte, 9)
		buf[0] = tagFloatComp
		putUint64BE(buf[1:], encodeFloatOrder(f))
		return buf, nil
	case icykv.KindDecimal:
		return encodeDecimalComponent(v.Decimal)
	case icykv.KindText:
		return appendFramed(tagTextComp, []byte(v.Text)), nil
	case icykv.KindTimestamp, icykv.KindDate:
		buf := make([]byte, 9)
		buf[0] = tagTimeComp
		putUint64BE(buf[1:], uint64(v.Timestamp.UnixNano())^(1<<63))
		return buf, nil
	case icykv.KindUlid:
		buf := make([]byte, 1+ulidBytes)
		buf[0] = tagUlidComp
		copy(buf[1:], v.Ulid[:])
		return buf, nil
	case icykv.KindPrincipal, icykv.KindSubaccount, icykv.KindBlob:
		return appendFramed(tagBytesComp, v.Blob), nil
	case icykv.KindAccount:
		var buf []byte
		buf = append(buf, tagAccountComp)
		buf = append(buf, appendFramed(0, v.Account.Owner)...)
		buf = append(buf, appendFramed(0, v.Account.Subaccount)...)
		return buf, nil
	case icykv.KindEnum:
		return appendFramed(tagEnumComp, []byte(v.EnumVal.Path+"\x00"+v.EnumVal.Variant)), nil
	default:
		return nil, unsupportedf("value kind %v is not index-component-encodable", v.Kind)
	}
}

const (
	tagNull byte = iota
	tagUnitComp
	tagBool
	tagIntComp
	tagUintComp
	tagFloatComp
	tagDecimalComp
	tagTextComp
	tagTimeComp
	tagUlidComp
	tagBytesComp
	tagAccountComp
	tagEnumComp
)

func appendFramed(tag byte, payload []byte) []byte {
	buf := make([]byte, 0, 5+len(payload))
	if tag != 0 {
		buf = append(buf, tag)
	}
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(len(payload)))
	buf = append(buf, lb[:]...)
	return append(buf, payload...)
}

// encodeFloatOrder maps a float64's bit pattern so lexicographic order
// over the resulting uint64 matches numeric order (spec.md §4.1): for
// non-negative floats, flip the sign bit; for negative floats, flip
// every bit.
func encodeFloatOrder(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&(1<<63) == 0 {
		return bits | (1 << 63)
	}
	return ^bits
}

// encodeDecimalComponent normalizes a decimal string (dropping trailing
// fractional zeros), buckets its sign, and encodes exponent + significand
// as length-prefixed bytes; negative components are bitwise-inverted so
// intra-bucket comparisons descend correctly (spec.md §4.1).
func encodeDecimalComponent(s string) ([]byte, error) {
	neg := strings.HasPrefix(s, "-")
	body := strings.TrimPrefix(s, "-")
	body = normalizeDecimalString(body)

	var signBucket byte
	switch {
	case body == "0":
		signBucket = 1
	case neg:
		signBucket = 0
	default:
		signBucket = 2
	}

	intPart, fracPart, _ := strings.Cut(body, ".")
	digits := intPart + fracPart
	exponent := int32(len(intPart))

	var expBuf [4]byte
	binary.BigEndian.PutUint32(expBuf[:], uint32(exponent))
	payload := append(expBuf[:], []byte(digits)...)

	if signBucket == 0 {
		for i := range payload {
			payload[i] = ^payload[i]
		}
	}

	buf := make([]byte, 0, 2+len(payload))
	buf = append(buf, tagDecimalComp, signBucket)
	buf = append(buf, payload...)
	return buf, nil
}

func normalizeDecimalString(s string) string {
	if s == "" {
		return "0"
	}
	if !strings.Contains(s, ".") {
		trimmed := strings.TrimLeft(s, "0")
		if trimmed == "" {
			return "0"
		}
		return trimmed
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	fracPart = strings.TrimRight(fracPart, "0")
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	if fracPart == "" {
		return intPart
	}
	return intPart + "." + fracPart
}

// EncodeIndexComponents concatenates the order-preserving encoding of
// each field value in declared index-field order. Each component is
// self-delimiting (length-prefixed), so straight concatenation preserves
// per-field-prefix comparison semantics without an explicit separator
// byte in the component bytes themselves (the '|' separator lives only
// in the IndexName identity string, per spec.md §3).
func EncodeIndexComponents(values []icykv.Value) ([]byte, error) {
	var buf []byte
	for _, v := range values {
		c, err := EncodeCanonicalIndexComponent(v)
		if err != nil {
			return nil, err
		}
		buf = append(buf, c...)
	}
	return buf, nil
}

// NormalizeDecimal exposes normalizeDecimalString for callers that need
// to compare Decimal values by their canonical string form (e.g.
// icykv.CompareValues).
func NormalizeDecimal(s string) string { return normalizeDecimalString(s) }
