package icykv

import (
	"math/big"
	"strings"
	"time"
)

// ValueKind tags the closed sum of primitive variants a Value can hold.
// Order here is NOT the comparison order — see valueVariantRank.
type ValueKind uint8

const (
	KindNull ValueKind = iota
	KindUnit
	KindBool
	KindInt
	KindInt128
	KindIntBig
	KindUint
	KindUint128
	KindUintBig
	KindDecimal
	KindFloat32
	KindFloat64
	KindE8s
	KindE18s
	KindDate
	KindDuration
	KindTimestamp
	KindText
	KindUlid
	KindPrincipal
	KindAccount
	KindSubaccount
	KindBlob
	KindList
	KindMap
	KindEnum
)

// Enum carries an optional schema path alongside the variant name; the
// planner fills in a missing Path from the field's declared enum path
// during literal normalization (spec.md's "ValueEnum" literal rule).
type Enum struct {
	Path    string
	Variant string
}

// Account mirrors the storage-encodable Account identity: an owner
// principal plus an optional subaccount.
type Account struct {
	Owner      []byte
	Subaccount []byte // nil when absent
}

// Value is a closed sum of primitive variants used both as predicate
// literals and as retrieved entity field values.
type Value struct {
	Kind ValueKind

	Bool    bool
	Int     int64
	Uint    uint64
	Text    string
	Blob    []byte
	Float32 float32
	Float64 float64
	// Decimal is stored as a normalized string ("-123.450" style inputs are
	// reduced to "-123.45") so equality and sort-key derivation are exact.
	Decimal string
	// Int128, IntBig, Uint128, and UintBig hold arbitrary/wide-precision
	// integers as base-10 digit strings (optionally signed for the two
	// Int variants) rather than a fixed Go integer type, since Int128 and
	// Uint128 exceed int64/uint64 and IntBig/UintBig are unbounded
	// (mirrors icydb-core's Int128/Int/Nat128/Nat value variants).
	Int128     string
	IntBig     string
	Uint128    string
	UintBig    string
	Timestamp  time.Time
	Duration   time.Duration
	Date       time.Time
	Ulid       [16]byte
	Principal  []byte
	Account    Account
	Subaccount []byte
	List       []Value
	Map        map[string]Value
	EnumVal    Enum
}

func NullValue() Value { return Value{Kind: KindNull} }
func UnitValue() Value { return Value{Kind: KindUnit} }
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }
func IntValue(v int64) Value { return Value{Kind: KindInt, Int: v} }
func UintValue(v uint64) Value { return Value{Kind: KindUint, Uint: v} }
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }
func TimestampValue(t time.Time) Value { return Value{Kind: KindTimestamp, Timestamp: t} }
func UlidValue(u [16]byte) Value { return Value{Kind: KindUlid, Ulid: u} }
func PrincipalValue(b []byte) Value {
	c := append([]byte(nil), b...)
	return Value{Kind: KindPrincipal, Principal: c, Blob: c}
}
func AccountValue(a Account) Value { return Value{Kind: KindAccount, Account: a} }

func (v Value) IsNull() bool { return v.Kind == KindNull }

// valueVariantRank defines the cross-variant ordering used by the Value
// total order (spec.md §3: "A canonical variant-rank + intra-variant
// comparator defines a total order across Values").
func valueVariantRank(k ValueKind) int {
	switch k {
	case KindNull:
		return 0
	case KindUnit:
		return 1
	case KindBool:
		return 2
	case KindInt, KindInt128, KindIntBig:
		return 3
	case KindUint, KindUint128, KindUintBig, KindE8s, KindE18s:
		return 4
	case KindDecimal, KindFloat32, KindFloat64:
		return 5
	case KindDate, KindDuration, KindTimestamp:
		return 6
	case KindText:
		return 7
	case KindUlid:
		return 8
	case KindPrincipal:
		return 9
	case KindAccount:
		return 10
	case KindSubaccount:
		return 11
	case KindBlob:
		return 12
	case KindList:
		return 13
	case KindMap:
		return 14
	case KindEnum:
		return 15
	default:
		return 99
	}
}

// CompareValues implements the total order over Value used by predicate
// sort-keys and cursor boundary slots: variant rank first, then an
// intra-variant comparator.
func CompareValues(a, b Value) int {
	ra, rb := valueVariantRank(a.Kind), valueVariantRank(b.Kind)
	if ra != rb {
		return ra - rb
	}
	switch a.Kind {
	case KindNull, KindUnit:
		return 0
	case KindBool:
		return boolCompare(a.Bool, b.Bool)
	case KindInt:
		return int64Compare(a.Int, b.Int)
	case KindInt128:
		return bigIntStringCompare(a.Int128, b.Int128)
	case KindIntBig:
		return bigIntStringCompare(a.IntBig, b.IntBig)
	case KindUint, KindE8s, KindE18s:
		return uint64Compare(a.Uint, b.Uint)
	case KindUint128:
		return bigIntStringCompare(a.Uint128, b.Uint128)
	case KindUintBig:
		return bigIntStringCompare(a.UintBig, b.UintBig)
	case KindFloat32:
		return float64Compare(float64(a.Float32), float64(b.Float32))
	case KindFloat64:
		return float64Compare(a.Float64, b.Float64)
	case KindDecimal:
		return strings.Compare(a.Decimal, b.Decimal)
	case KindTimestamp, KindDate:
		return timeCompare(a.Timestamp, b.Timestamp)
	case KindDuration:
		return int64Compare(int64(a.Duration), int64(b.Duration))
	case KindText:
		return strings.Compare(a.Text, b.Text)
	case KindUlid:
		return bytesCompareFixed(a.Ulid[:], b.Ulid[:])
	case KindPrincipal, KindSubaccount, KindBlob:
		return bytesCompareVar(a.Blob, b.Blob)
	case KindAccount:
		if c := bytesCompareVar(a.Account.Owner, b.Account.Owner); c != 0 {
			return c
		}
		return bytesCompareVar(a.Account.Subaccount, b.Account.Subaccount)
	case KindEnum:
		if c := strings.Compare(a.EnumVal.Path, b.EnumVal.Path); c != 0 {
			return c
		}
		return strings.Compare(a.EnumVal.Variant, b.EnumVal.Variant)
	case KindList:
		return listCompare(a.List, b.List)
	default:
		return 0
	}
}

func boolCompare(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func int64Compare(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// bigIntStringCompare compares two base-10 digit strings numerically via
// math/big rather than byte-for-byte, since plain string comparison
// mis-orders differing-length digit strings (e.g. "9" vs "10"). An
// unparseable string (including "") is treated as zero.
func bigIntStringCompare(a, b string) int {
	ai, ok := new(big.Int).SetString(a, 10)
	if !ok {
		ai = big.NewInt(0)
	}
	bi, ok := new(big.Int).SetString(b, 10)
	if !ok {
		bi = big.NewInt(0)
	}
	return ai.Cmp(bi)
}

func uint64Compare(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func float64Compare(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func timeCompare(a, b time.Time) int {
	if a.Before(b) {
		return -1
	}
	if a.After(b) {
		return 1
	}
	return 0
}

func bytesCompareFixed(a, b []byte) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

func bytesCompareVar(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

func listCompare(a, b []Value) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if c := CompareValues(a[i], b[i]); c != 0 {
			return c
		}
	}
	return len(a) - len(b)
}
