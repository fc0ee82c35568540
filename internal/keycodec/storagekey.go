// Package keycodec implements the canonical, order-preserving, fixed-width
// byte encoding for identifiers and scalar storage keys (spec.md §4.1).
//
// StorageKey, EntityName, and IndexName are adapted from the original
// icydb-core Rust implementation's db/store/storage_key.rs and
// db/identity.rs: same tag values, same byte layout, same bias encoding,
// same zero-padding validation, and the same cross-variant Ord semantics.
package keycodec

import (
	"bytes"
	"fmt"
	"time"

	"github.com/icydb/icykv"
)

func timeFromUnixNano(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}

// StorageKeyTag is the leading byte of a StorageKey's encoding. Values
// match the original implementation's TAG_* constants so the byte order
// reproduces the documented variant rank.
type StorageKeyTag uint8

const (
	TagAccount StorageKeyTag = iota
	TagInt
	TagPrincipal
	TagSubaccount
	TagTimestamp
	TagUint
	TagUlid
	TagUnit
)

// StoredSizeBytes is the fixed on-disk width of every StorageKey.
const StoredSizeBytes = 64

const (
	// accountMaxSize is the total size of the Account sub-encoding: 1
	// length byte + up to principalMaxBytes owner bytes + subaccountBytes
	// (icydb-core's storage_key.rs ACCOUNT_MAX_SIZE=62), not the owner
	// length cap.
	accountMaxSize    = 62
	principalMaxBytes = 29
	ulidBytes         = 16
	subaccountBytes   = 32
)

// StorageKey is a fixed-width (64-byte) tagged scalar used as the only
// on-disk primary-key representation.
type StorageKey struct {
	Tag StorageKeyTag

	Int       int64
	Uint      uint64
	Timestamp uint64 // unix nanos, stored big-endian like Uint (no sign bias)
	Ulid      [ulidBytes]byte
	Principal []byte // length <= principalMaxBytes
	Account   AccountKey
	Subaccount [subaccountBytes]byte
}

// AccountKey mirrors the Account storage variant: an owner principal
// (length-prefixed within a fixed slot) plus an optional subaccount.
type AccountKey struct {
	Owner         []byte // length <= principalMaxBytes
	HasSubaccount bool
	Subaccount    [subaccountBytes]byte
}

// Unit is the canonical maximum StorageKey (spec.md: "the documented MAX
// is Unit").
func Unit() StorageKey { return StorageKey{Tag: TagUnit} }

// MinAccount is the canonical minimum StorageKey: the empty-principal
// Account with no subaccount.
func MinAccount() StorageKey { return StorageKey{Tag: TagAccount, Account: AccountKey{}} }

// FromValue admits only the closed storage-encodable subset: unit,
// signed/unsigned 64-bit integers, ulid, principal, account, subaccount,
// timestamp. Everything else fails Unsupported (spec.md §4.1).
func FromValue(v icykv.Value) (StorageKey, error) {
	switch v.Kind {
	case icykv.KindUnit:
		return StorageKey{Tag: TagUnit}, nil
	case icykv.KindInt:
		return StorageKey{Tag: TagInt, Int: v.Int}, nil
	case icykv.KindUint:
		return StorageKey{Tag: TagUint, Uint: v.Uint}, nil
	case icykv.KindTimestamp:
		return StorageKey{Tag: TagTimestamp, Timestamp: uint64(v.Timestamp.UnixNano())}, nil
	case icykv.KindUlid:
		return StorageKey{Tag: TagUlid, Ulid: v.Ulid}, nil
	case icykv.KindPrincipal:
		if len(v.Principal) > principalMaxBytes {
			return StorageKey{}, unsupportedf("principal exceeds max storable length %d", principalMaxBytes)
		}
		return StorageKey{Tag: TagPrincipal, Principal: append([]byte(nil), v.Principal...)}, nil
	case icykv.KindAccount:
		if len(v.Account.Owner) > principalMaxBytes {
			return StorageKey{}, unsupportedf("account owner exceeds max storable length %d", principalMaxBytes)
		}
		ak := AccountKey{Owner: append([]byte(nil), v.Account.Owner...)}
		if v.Account.Subaccount != nil {
			if len(v.Account.Subaccount) != subaccountBytes {
				return StorageKey{}, unsupportedf("subaccount must be exactly %d bytes", subaccountBytes)
			}
			ak.HasSubaccount = true
			copy(ak.Subaccount[:], v.Account.Subaccount)
		}
		return StorageKey{Tag: TagAccount, Account: ak}, nil
	case icykv.KindSubaccount:
		if len(v.Subaccount) != subaccountBytes {
			return StorageKey{}, unsupportedf("subaccount must be exactly %d bytes", subaccountBytes)
		}
		var sk StorageKey
		sk.Tag = TagSubaccount
		copy(sk.Subaccount[:], v.Subaccount)
		return sk, nil
	default:
		return StorageKey{}, unsupportedf("value kind %v is not storage-encodable", v.Kind)
	}
}

func unsupportedf(format string, args ...any) error {
	return icykv.NewInternalError(icykv.ClassUnsupported, icykv.OriginSerialize, fmt.Sprintf(format, args...))
}

// ToBytes emits exactly StoredSizeBytes bytes: a 1-byte tag, a
// variant-specific payload, and a zero tail.
func (k StorageKey) ToBytes() []byte {
	buf := make([]byte, StoredSizeBytes)
	buf[0] = byte(k.Tag)
	payload := buf[1:]
	switch k.Tag {
	case TagUnit:
		// all-zero payload
	case TagInt:
		putBiasedInt64(payload[:8], k.Int)
	case TagUint:
		putUint64BE(payload[:8], k.Uint)
	case TagTimestamp:
		putUint64BE(payload[:8], k.Timestamp)
	case TagUlid:
		copy(payload[:ulidBytes], k.Ulid[:])
	case TagPrincipal:
		payload[0] = byte(len(k.Principal))
		copy(payload[1:1+len(k.Principal)], k.Principal)
	case TagSubaccount:
		copy(payload[:subaccountBytes], k.Subaccount[:])
	case TagAccount:
		encodeAccountPayload(payload, k.Account)
	}
	return buf
}

func encodeAccountPayload(payload []byte, a AccountKey) {
	lenByte := byte(len(a.Owner))
	if a.HasSubaccount {
		lenByte |= 0x80
	}
	payload[0] = lenByte
	copy(payload[1:1+len(a.Owner)], a.Owner)
	if a.HasSubaccount {
		// Subaccount bytes are placed immediately after the owner's
		// fixed max-length slot so that owner comparison never reads
		// into subaccount bytes.
		copy(payload[1+principalMaxBytes:1+principalMaxBytes+subaccountBytes], a.Subaccount[:])
	}
}

// FromBytes rejects: size != StoredSizeBytes, unknown tag, invalid
// principal length, and any non-zero tail padding.
func FromBytes(b []byte) (StorageKey, error) {
	if len(b) != StoredSizeBytes {
		return StorageKey{}, corruptf("storage key must be %d bytes, got %d", StoredSizeBytes, len(b))
	}
	tag := StorageKeyTag(b[0])
	payload := b[1:]
	switch tag {
	case TagUnit:
		if !allZero(payload) {
			return StorageKey{}, corruptf("unit storage key has non-zero padding")
		}
		return StorageKey{Tag: TagUnit}, nil
	case TagInt:
		if !allZero(payload[8:]) {
			return StorageKey{}, corruptf("int storage key has non-zero tail padding")
		}
		return StorageKey{Tag: TagInt, Int: biasedInt64(payload[:8])}, nil
	case TagUint:
		if !allZero(payload[8:]) {
			return StorageKey{}, corruptf("uint storage key has non-zero tail padding")
		}
		return StorageKey{Tag: TagUint, Uint: uint64BE(payload[:8])}, nil
	case TagTimestamp:
		if !allZero(payload[8:]) {
			return StorageKey{}, corruptf("timestamp storage key has non-zero tail padding")
		}
		return StorageKey{Tag: TagTimestamp, Timestamp: uint64BE(payload[:8])}, nil
	case TagUlid:
		if !allZero(payload[ulidBytes:]) {
			return StorageKey{}, corruptf("ulid storage key has non-zero tail padding")
		}
		var sk StorageKey
		sk.Tag = TagUlid
		copy(sk.Ulid[:], payload[:ulidBytes])
		return sk, nil
	case TagPrincipal:
		n := int(payload[0])
		if n == 0 || n > principalMaxBytes {
			return StorageKey{}, corruptf("invalid principal length %d", n)
		}
		if !allZero(payload[1+n:]) {
			return StorageKey{}, corruptf("principal storage key has non-zero tail padding")
		}
		return StorageKey{Tag: TagPrincipal, Principal: append([]byte(nil), payload[1:1+n]...)}, nil
	case TagSubaccount:
		var sk StorageKey
		sk.Tag = TagSubaccount
		copy(sk.Subaccount[:], payload[:subaccountBytes])
		if !allZero(payload[subaccountBytes:]) {
			return StorageKey{}, corruptf("subaccount storage key has non-zero tail padding")
		}
		return sk, nil
	case TagAccount:
		lenByte := payload[0]
		hasSub := lenByte&0x80 != 0
		n := int(lenByte &^ 0x80)
		if n > principalMaxBytes {
			return StorageKey{}, corruptf("invalid account owner length %d", n)
		}
		ownerField := payload[1 : 1+principalMaxBytes]
		if !allZero(ownerField[n:]) {
			return StorageKey{}, corruptf("account owner field has non-zero padding beyond length")
		}
		ak := AccountKey{Owner: append([]byte(nil), ownerField[:n]...), HasSubaccount: hasSub}
		if hasSub {
			subField := payload[1+principalMaxBytes : 1+principalMaxBytes+subaccountBytes]
			copy(ak.Subaccount[:], subField)
		} else {
			subField := payload[1+principalMaxBytes:]
			if !allZero(subField) {
				return StorageKey{}, corruptf("account storage key has non-zero subaccount padding")
			}
		}
		return StorageKey{Tag: TagAccount, Account: ak}, nil
	default:
		return StorageKey{}, corruptf("unknown storage key tag %d", tag)
	}
}

func corruptf(format string, args ...any) error {
	return icykv.NewInternalError(icykv.ClassCorruption, icykv.OriginSerialize, fmt.Sprintf(format, args...))
}

// Compare implements the total order: tag byte first, then
// variant-specific payload compare — equivalent to comparing ToBytes()
// lexicographically (this equivalence is Testable Property #2).
func (k StorageKey) Compare(other StorageKey) int {
	return bytes.Compare(k.ToBytes(), other.ToBytes())
}

// ToValue is the inverse of FromValue: it recovers the icykv.Value a
// StorageKey was encoded from. Used wherever a resolved DataKey's PK
// component must be handed back to the caller as a typed Value (batch
// delete resolution, diagnostics).
func (k StorageKey) ToValue() icykv.Value {
	switch k.Tag {
	case TagUnit:
		return icykv.UnitValue()
	case TagInt:
		return icykv.IntValue(k.Int)
	case TagUint:
		return icykv.UintValue(k.Uint)
	case TagTimestamp:
		return icykv.TimestampValue(timeFromUnixNano(int64(k.Timestamp)))
	case TagUlid:
		return icykv.UlidValue(k.Ulid)
	case TagPrincipal:
		return icykv.PrincipalValue(k.Principal)
	case TagAccount:
		acc := icykv.Account{Owner: append([]byte(nil), k.Account.Owner...)}
		if k.Account.HasSubaccount {
			acc.Subaccount = append([]byte(nil), k.Account.Subaccount[:]...)
		}
		return icykv.AccountValue(acc)
	case TagSubaccount:
		return icykv.Value{Kind: icykv.KindSubaccount, Subaccount: append([]byte(nil), k.Subaccount[:]...)}
	default:
		return icykv.NullValue()
	}
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func putUint64BE(dst []byte, v uint64) {
	for i := 0; i < 8; i++ {
		dst[7-i] = byte(v >> (8 * i))
	}
}

func uint64BE(src []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(src[i])
	}
	return v
}

// putBiasedInt64 encodes a signed integer so lexicographic byte order
// matches numeric order: biased = uint64(v) XOR (1<<63), big-endian
// (spec.md §4.1).
func putBiasedInt64(dst []byte, v int64) {
	biased := uint64(v) ^ (1 << 63)
	putUint64BE(dst, biased)
}

func biasedInt64(src []byte) int64 {
	biased := uint64BE(src)
	return int64(biased ^ (1 << 63))
}
