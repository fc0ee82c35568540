// Package cursor implements the continuation-token wire protocol: opaque,
// versioned, bounded tokens carrying a signature, a boundary slot list, a
// physical direction, an initial offset, and an optional index-range
// anchor (spec.md §4.6).
package cursor

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/icydb/icykv"
)

// Direction names the physical traversal direction a token was captured
// under; resuming with a mismatched direction is rejected.
type Direction uint8

const (
	Asc Direction = iota
	Desc
)

// Slot is one boundary component: either Missing (the corresponding
// order field was NULL/absent in the last emitted row) or Present with a
// concrete Value (spec.md §3 "CursorBoundary").
type Slot struct {
	Present bool
	Value   icykv.Value
}

func MissingSlot() Slot         { return Slot{} }
func PresentSlot(v icykv.Value) Slot { return Slot{Present: true, Value: v} }

// Boundary is the ordered list of Slots, arity matching the order spec's
// field count (including the trailing PK tie-break).
type Boundary []Slot

// CurrentVersion is the wire version this package writes.
const CurrentVersion = 2

// MaxTokenBytes bounds the decoded payload size (spec.md §4.6).
const MaxTokenBytes = 8 * 1024

// Token is the decoded form of a continuation token (spec.md §3
// "ContinuationToken").
type Token struct {
	Version          uint8
	Signature        [32]byte
	Boundary         Boundary
	Direction        Direction
	InitialOffset    uint32
	IndexRangeAnchor []byte // nil when absent
}

// DecodeReason classifies why token decoding failed, surfaced by the
// planner as a typed InvalidContinuationCursor sub-reason (spec.md §6).
type DecodeReason string

const (
	ReasonMalformedHex   DecodeReason = "malformed_hex"
	ReasonEmptyPayload   DecodeReason = "empty_payload"
	ReasonOversize       DecodeReason = "oversize"
	ReasonTruncated      DecodeReason = "truncated"
	ReasonUnknownVersion DecodeReason = "unknown_version"
)

// DecodeError reports a typed cursor-decode failure.
type DecodeError struct {
	Reason DecodeReason
	Detail string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("invalid continuation cursor (%s): %s", e.Reason, e.Detail)
}

func newDecodeErr(reason DecodeReason, detail string) *DecodeError {
	return &DecodeError{Reason: reason, Detail: detail}
}

// Encode serializes tok into a hex-encoded wire token.
func Encode(tok Token) string {
	return hex.EncodeToString(encodeBytes(tok))
}

func encodeBytes(tok Token) []byte {
	buf := []byte{CurrentVersion}
	buf = append(buf, tok.Signature[:]...)
	buf = append(buf, byte(tok.Direction))
	var offBuf [4]byte
	binary.BigEndian.PutUint32(offBuf[:], tok.InitialOffset)
	buf = append(buf, offBuf[:]...)

	buf = appendUint32(buf, uint32(len(tok.Boundary)))
	for _, s := range tok.Boundary {
		if !s.Present {
			buf = append(buf, 0)
			continue
		}
		buf = append(buf, 1)
		enc := icykv.EncodeValue(s.Value)
		buf = appendUint32(buf, uint32(len(enc)))
		buf = append(buf, enc...)
	}

	if tok.IndexRangeAnchor == nil {
		buf = append(buf, 0)
	} else {
		buf = append(buf, 1)
		buf = appendUint32(buf, uint32(len(tok.IndexRangeAnchor)))
		buf = append(buf, tok.IndexRangeAnchor...)
	}
	return buf
}

func appendUint32(buf []byte, v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return append(buf, b[:]...)
}

// Decode parses a hex-encoded wire token. Malformed hex, empty payload,
// oversize payload, and truncated/unknown-version bodies are rejected
// with a typed DecodeReason (spec.md §6).
func Decode(wire string) (Token, error) {
	if len(wire) == 0 {
		return Token{}, newDecodeErr(ReasonEmptyPayload, "empty token string")
	}
	raw, err := hex.DecodeString(wire)
	if err != nil {
		return Token{}, newDecodeErr(ReasonMalformedHex, err.Error())
	}
	if len(raw) == 0 {
		return Token{}, newDecodeErr(ReasonEmptyPayload, "decoded payload is empty")
	}
	if len(raw) > MaxTokenBytes {
		return Token{}, newDecodeErr(ReasonOversize, fmt.Sprintf("%d bytes exceeds max %d", len(raw), MaxTokenBytes))
	}
	return decodeBytes(raw)
}

func decodeBytes(raw []byte) (Token, error) {
	pos := 0
	version := raw[pos]
	pos++
	if version != 1 && version != 2 {
		return Token{}, newDecodeErr(ReasonUnknownVersion, fmt.Sprintf("version %d", version))
	}
	if len(raw[pos:]) < 32 {
		return Token{}, newDecodeErr(ReasonTruncated, "missing signature")
	}
	var sig [32]byte
	copy(sig[:], raw[pos:pos+32])
	pos += 32

	if len(raw[pos:]) < 1 {
		return Token{}, newDecodeErr(ReasonTruncated, "missing direction")
	}
	direction := Direction(raw[pos])
	pos++

	var initialOffset uint32
	if version >= 2 {
		if len(raw[pos:]) < 4 {
			return Token{}, newDecodeErr(ReasonTruncated, "missing initial offset")
		}
		initialOffset = binary.BigEndian.Uint32(raw[pos : pos+4])
		pos += 4
	}
	// v1 tokens omit initial_offset; decoder forces 0.

	if len(raw[pos:]) < 4 {
		return Token{}, newDecodeErr(ReasonTruncated, "missing boundary length")
	}
	n := binary.BigEndian.Uint32(raw[pos : pos+4])
	pos += 4

	boundary := make(Boundary, 0, n)
	for i := uint32(0); i < n; i++ {
		if len(raw[pos:]) < 1 {
			return Token{}, newDecodeErr(ReasonTruncated, "missing slot tag")
		}
		present := raw[pos] != 0
		pos++
		if !present {
			boundary = append(boundary, MissingSlot())
			continue
		}
		if len(raw[pos:]) < 4 {
			return Token{}, newDecodeErr(ReasonTruncated, "missing slot value length")
		}
		vlen := binary.BigEndian.Uint32(raw[pos : pos+4])
		pos += 4
		if uint32(len(raw[pos:])) < vlen {
			return Token{}, newDecodeErr(ReasonTruncated, "truncated slot value")
		}
		v, _, err := icykv.DecodeValue(raw[pos : pos+int(vlen)])
		if err != nil {
			return Token{}, newDecodeErr(ReasonTruncated, err.Error())
		}
		pos += int(vlen)
		boundary = append(boundary, PresentSlot(v))
	}

	var anchor []byte
	if len(raw[pos:]) < 1 {
		return Token{}, newDecodeErr(ReasonTruncated, "missing anchor tag")
	}
	hasAnchor := raw[pos] != 0
	pos++
	if hasAnchor {
		if len(raw[pos:]) < 4 {
			return Token{}, newDecodeErr(ReasonTruncated, "missing anchor length")
		}
		alen := binary.BigEndian.Uint32(raw[pos : pos+4])
		pos += 4
		if uint32(len(raw[pos:])) < alen {
			return Token{}, newDecodeErr(ReasonTruncated, "truncated anchor")
		}
		anchor = append([]byte(nil), raw[pos:pos+int(alen)]...)
		pos += int(alen)
	}

	if version == 1 {
		initialOffset = 0
	}

	return Token{
		Version:          version,
		Signature:        sig,
		Boundary:         boundary,
		Direction:        direction,
		InitialOffset:    initialOffset,
		IndexRangeAnchor: anchor,
	}, nil
}
