package predicate

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/icydb/icykv"
)

// tag bytes identify the predicate variant inside a sort key. Values are
// stable across releases since they participate in the continuation
// signature (spec.md §4.5).
const (
	tagTrue byte = iota
	tagFalse
	tagAnd
	tagOr
	tagNot
	tagCompare
	tagIsNull
	tagIsMissing
	tagIsEmpty
	tagIsNotEmpty
	tagTextContains
	tagTextContainsCi
)

// SortKey produces a deterministic, length-prefixed structural byte key
// for p: SortKey(p1) == SortKey(p2) iff p1 and p2 are structurally equal
// after Normalize (spec.md §8 property 5). It also serves as the
// normalized-predicate framing fed into the continuation signature hash.
func SortKey(p Predicate) []byte {
	var buf []byte
	return appendSortKey(buf, p)
}

func appendSortKey(buf []byte, p Predicate) []byte {
	switch t := p.(type) {
	case True:
		return append(buf, tagTrue)
	case False:
		return append(buf, tagFalse)
	case And:
		buf = append(buf, tagAnd)
		return appendFramedChildren(buf, t.Children)
	case Or:
		buf = append(buf, tagOr)
		return appendFramedChildren(buf, t.Children)
	case Not:
		buf = append(buf, tagNot)
		return appendFramed(buf, appendSortKey(nil, t.Child))
	case Compare:
		buf = append(buf, tagCompare)
		buf = appendFramedString(buf, t.Field)
		buf = append(buf, byte(t.Op), byte(t.Coercion))
		if len(t.Values) > 0 {
			buf = appendLen(buf, uint64(len(t.Values)))
			for _, v := range t.Values {
				buf = appendFramed(buf, valueSortKey(v))
			}
		} else {
			buf = appendFramed(buf, valueSortKey(t.Value))
		}
		return buf
	case IsNull:
		return appendFramedString(append(buf, tagIsNull), t.Field)
	case IsMissing:
		return appendFramedString(append(buf, tagIsMissing), t.Field)
	case IsEmpty:
		return appendFramedString(append(buf, tagIsEmpty), t.Field)
	case IsNotEmpty:
		return appendFramedString(append(buf, tagIsNotEmpty), t.Field)
	case TextContains:
		buf = append(buf, tagTextContains)
		buf = appendFramedString(buf, t.Field)
		return appendFramedString(buf, t.Value)
	case TextContainsCi:
		buf = append(buf, tagTextContainsCi)
		buf = appendFramedString(buf, t.Field)
		return appendFramedString(buf, t.Value)
	default:
		return buf
	}
}

func appendFramedChildren(buf []byte, children []Predicate) []byte {
	buf = appendLen(buf, uint64(len(children)))
	for _, c := range children {
		buf = appendFramed(buf, appendSortKey(nil, c))
	}
	return buf
}

func appendLen(buf []byte, n uint64) []byte {
	var lb [8]byte
	binary.BigEndian.PutUint64(lb[:], n)
	return append(buf, lb[:]...)
}

func appendFramed(buf, payload []byte) []byte {
	buf = appendLen(buf, uint64(len(payload)))
	return append(buf, payload...)
}

func appendFramedString(buf []byte, s string) []byte {
	return appendFramed(buf, []byte(s))
}

// valueSortKey produces a canonical byte encoding for a Value that
// agrees with icykv.CompareValues's total order closely enough to be
// used as a deterministic, collision-resistant framing component. It is
// not required to be order-preserving itself (only SortKey's consumer,
// the continuation signature, needs determinism, not ordering).
func valueSortKey(v icykv.Value) []byte {
	var buf []byte
	buf = append(buf, byte(v.Kind))
	switch v.Kind {
	case icykv.KindBool:
		if v.Bool {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	case icykv.KindInt:
		buf = appendLen(buf, uint64(v.Int))
	case icykv.KindUint, icykv.KindE8s, icykv.KindE18s:
		buf = appendLen(buf, v.Uint)
	case icykv.KindInt128, icykv.KindIntBig, icykv.KindUint128, icykv.KindUintBig:
		buf = appendFramedString(buf, v.Int128)
		buf = appendFramedString(buf, v.IntBig)
		buf = appendFramedString(buf, v.Uint128)
		buf = appendFramedString(buf, v.UintBig)
	case icykv.KindFloat32:
		buf = appendLen(buf, uint64(math.Float32bits(v.Float32)))
	case icykv.KindFloat64:
		buf = appendLen(buf, math.Float64bits(v.Float64))
	case icykv.KindText:
		buf = appendFramedString(buf, v.Text)
	case icykv.KindDecimal:
		buf = appendFramedString(buf, v.Decimal)
	case icykv.KindTimestamp, icykv.KindDate:
		buf = appendLen(buf, uint64(v.Timestamp.UnixNano()))
	case icykv.KindDuration:
		buf = appendLen(buf, uint64(v.Duration))
	case icykv.KindUlid:
		buf = append(buf, v.Ulid[:]...)
	case icykv.KindPrincipal, icykv.KindSubaccount, icykv.KindBlob:
		buf = appendFramed(buf, v.Blob)
	case icykv.KindAccount:
		buf = appendFramed(buf, v.Account.Owner)
		buf = appendFramed(buf, v.Account.Subaccount)
	case icykv.KindEnum:
		buf = appendFramedString(buf, v.EnumVal.Path)
		buf = appendFramedString(buf, v.EnumVal.Variant)
	case icykv.KindList:
		buf = appendLen(buf, uint64(len(v.List)))
		for _, e := range v.List {
			buf = appendFramed(buf, valueSortKey(e))
		}
	}
	return buf
}

// sortChildren orders a flattened child slice deterministically by its
// per-child SortKey bytes.
func sortChildren(children []Predicate) {
	sort.Slice(children, func(i, j int) bool {
		a, b := SortKey(children[i]), SortKey(children[j])
		return compareBytes(a, b) < 0
	})
}

func compareBytes(a, b []byte) int {
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
