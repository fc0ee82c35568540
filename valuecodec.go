package icykv

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// EncodeValue serializes v into a self-delimiting byte representation
// used by cursor boundaries and wire-level continuation tokens (spec.md
// §4.6). It round-trips exactly through DecodeValue; it is NOT the
// order-preserving encoding used for storage keys (see internal/keycodec
// for that).
func EncodeValue(v Value) []byte {
	buf := []byte{byte(v.Kind)}
	switch v.Kind {
	case KindNull, KindUnit:
		// no payload
	case KindBool:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case KindInt:
		buf = appendUint64(buf, uint64(v.Int))
	case KindInt128:
		buf = appendFramedBytes(buf, []byte(v.Int128))
	case KindIntBig:
		buf = appendFramedBytes(buf, []byte(v.IntBig))
	case KindUint, KindE8s, KindE18s:
		buf = appendUint64(buf, v.Uint)
	case KindUint128:
		buf = appendFramedBytes(buf, []byte(v.Uint128))
	case KindUintBig:
		buf = appendFramedBytes(buf, []byte(v.UintBig))
	case KindFloat64:
		buf = appendUint64(buf, math.Float64bits(v.Float64))
	case KindFloat32:
		buf = appendUint32(buf, math.Float32bits(v.Float32))
	case KindDecimal:
		buf = appendFramedBytes(buf, []byte(v.Decimal))
	case KindTimestamp, KindDate:
		buf = appendUint64(buf, uint64(v.Timestamp.UnixNano()))
	case KindDuration:
		buf = appendUint64(buf, uint64(v.Duration))
	case KindText:
		buf = appendFramedBytes(buf, []byte(v.Text))
	case KindUlid:
		buf = append(buf, v.Ulid[:]...)
	case KindPrincipal, KindSubaccount, KindBlob:
		buf = appendFramedBytes(buf, v.Blob)
	case KindAccount:
		buf = appendFramedBytes(buf, v.Account.Owner)
		buf = appendFramedBytes(buf, v.Account.Subaccount)
	case KindEnum:
		buf = appendFramedBytes(buf, []byte(v.EnumVal.Path))
		buf = appendFramedBytes(buf, []byte(v.EnumVal.Variant))
	case KindList:
		buf = appendUint32(buf, uint32(len(v.List)))
		for _, e := range v.List {
			buf = append(buf, EncodeValue(e)...)
		}
	case KindMap:
		buf = appendUint32(buf, uint32(len(v.Map)))
		for k, e := range v.Map {
			buf = appendFramedBytes(buf, []byte(k))
			buf = append(buf, EncodeValue(e)...)
		}
	}
	return buf
}

// DecodeValue reads one Value starting at b[0] and returns it alongside
// the number of bytes consumed.
func DecodeValue(b []byte) (Value, int, error) {
	if len(b) < 1 {
		return Value{}, 0, fmt.Errorf("empty value encoding")
	}
	kind := ValueKind(b[0])
	pos := 1
	switch kind {
	case KindNull:
		return NullValue(), pos, nil
	case KindUnit:
		return UnitValue(), pos, nil
	case KindBool:
		if pos >= len(b) {
			return Value{}, 0, fmt.Errorf("truncated bool value")
		}
		v := b[pos] != 0
		return BoolValue(v), pos + 1, nil
	case KindInt:
		u, n, err := readUint64(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return IntValue(int64(u)), pos + n, nil
	case KindInt128:
		s, n, err := readFramedString(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindInt128, Int128: s}, pos + n, nil
	case KindIntBig:
		s, n, err := readFramedString(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindIntBig, IntBig: s}, pos + n, nil
	case KindUint, KindE8s, KindE18s:
		u, n, err := readUint64(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: kind, Uint: u}, pos + n, nil
	case KindUint128:
		s, n, err := readFramedString(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindUint128, Uint128: s}, pos + n, nil
	case KindUintBig:
		s, n, err := readFramedString(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindUintBig, UintBig: s}, pos + n, nil
	case KindFloat64:
		u, n1, err := readUint64(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindFloat64, Float64: math.Float64frombits(u)}, pos + n1, nil
	case KindFloat32:
		if len(b[pos:]) < 4 {
			return Value{}, 0, fmt.Errorf("truncated float32 value")
		}
		u := binary.BigEndian.Uint32(b[pos : pos+4])
		return Value{Kind: KindFloat32, Float32: math.Float32frombits(u)}, pos + 4, nil
	case KindDecimal:
		s, n, err := readFramedString(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindDecimal, Decimal: s}, pos + n, nil
	case KindTimestamp, KindDate:
		u, n, err := readUint64(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: kind, Timestamp: time.Unix(0, int64(u)).UTC()}, pos + n, nil
	case KindDuration:
		u, n, err := readUint64(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindDuration, Duration: time.Duration(u)}, pos + n, nil
	case KindText:
		s, n, err := readFramedString(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return TextValue(s), pos + n, nil
	case KindUlid:
		if len(b[pos:]) < 16 {
			return Value{}, 0, fmt.Errorf("truncated ulid value")
		}
		var u [16]byte
		copy(u[:], b[pos:pos+16])
		return UlidValue(u), pos + 16, nil
	case KindPrincipal, KindSubaccount, KindBlob:
		raw, n, err := readFramedBytes(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: kind, Blob: raw, Principal: raw, Subaccount: raw}, pos + n, nil
	case KindAccount:
		owner, n1, err := readFramedBytes(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		sub, n2, err := readFramedBytes(b[pos+n1:])
		if err != nil {
			return Value{}, 0, err
		}
		return AccountValue(Account{Owner: owner, Subaccount: sub}), pos + n1 + n2, nil
	case KindEnum:
		path, n1, err := readFramedString(b[pos:])
		if err != nil {
			return Value{}, 0, err
		}
		variant, n2, err := readFramedString(b[pos+n1:])
		if err != nil {
			return Value{}, 0, err
		}
		return Value{Kind: KindEnum, EnumVal: Enum{Path: path, Variant: variant}}, pos + n1 + n2, nil
	case KindList:
		if len(b[pos:]) < 4 {
			return Value{}, 0, fmt.Errorf("truncated list value")
		}
		count := binary.BigEndian.Uint32(b[pos : pos+4])
		n := pos + 4
		elems := make([]Value, 0, count)
		for i := uint32(0); i < count; i++ {
			e, consumed, err := DecodeValue(b[n:])
			if err != nil {
				return Value{}, 0, err
			}
			elems = append(elems, e)
			n += consumed
		}
		return Value{Kind: KindList, List: elems}, n, nil
	case KindMap:
		if len(b[pos:]) < 4 {
			return Value{}, 0, fmt.Errorf("truncated map value")
		}
		count := binary.BigEndian.Uint32(b[pos : pos+4])
		n := pos + 4
		m := make(map[string]Value, count)
		for i := uint32(0); i < count; i++ {
			key, n1, err := readFramedString(b[n:])
			if err != nil {
				return Value{}, 0, err
			}
			n += n1
			e, n2, err := DecodeValue(b[n:])
			if err != nil {
				return Value{}, 0, err
			}
			m[key] = e
			n += n2
		}
		return Value{Kind: KindMap, Map: m}, n, nil
	default:
		return Value{}, 0, fmt.Errorf("unsupported value kind %d in wire decode", kind)
	}
}

func appendUint64(buf []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(buf, b[:]...)
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

func appendFramedBytes(buf, payload []byte) []byte {
	buf = appendUint32(buf, uint32(len(payload)))
	return append(buf, payload...)
}

func readUint64(b []byte) (uint64, int, error) {
	if len(b) < 8 {
		return 0, 0, fmt.Errorf("truncated uint64")
	}
	return binary.BigEndian.Uint64(b[:8]), 8, nil
}

func readFramedBytes(b []byte) ([]byte, int, error) {
	if len(b) < 4 {
		return nil, 0, fmt.Errorf("truncated length prefix")
	}
	n := binary.BigEndian.Uint32(b[:4])
	if uint32(len(b[4:])) < n {
		return nil, 0, fmt.Errorf("truncated framed payload")
	}
	return append([]byte(nil), b[4:4+n]...), 4 + int(n), nil
}

func readFramedString(b []byte) (string, int, error) {
	raw, n, err := readFramedBytes(b)
	if err != nil {
		return "", 0, err
	}
	return string(raw), n, nil
}
