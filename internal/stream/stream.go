// Package stream implements the abstract boundary between physical
// access and higher-level execution: an ordered producer of DataKeys,
// plus union/intersection combinators and resolution from an access
// plan (spec.md §4.7).
package stream

import "github.com/icydb/icykv/internal/keycodec"

// OrderedKeyStream produces the next DataKey in canonical order
// (direction baked in at construction) or reports exhaustion.
type OrderedKeyStream interface {
	Next() (keycodec.DataKey, bool)
}

// CompareFunc orders two DataKeys according to the stream's current
// traversal direction (ascending or descending).
type CompareFunc func(a, b keycodec.DataKey) int

// Ascending compares two DataKeys in canonical ascending order.
func Ascending(a, b keycodec.DataKey) int { return a.Compare(b) }

// Descending compares two DataKeys in canonical descending order.
func Descending(a, b keycodec.DataKey) int { return -a.Compare(b) }

// VecStream wraps an already-materialized, already-ordered slice of
// DataKeys (spec.md §4.7 "VecOrderedKeyStream").
type VecStream struct {
	keys []keycodec.DataKey
	pos  int
}

func NewVecStream(keys []keycodec.DataKey) *VecStream {
	return &VecStream{keys: keys}
}

func (s *VecStream) Next() (keycodec.DataKey, bool) {
	if s.pos >= len(s.keys) {
		return keycodec.DataKey{}, false
	}
	k := s.keys[s.pos]
	s.pos++
	return k, true
}

// BoundedStream wraps an inner stream and stops after n keys, implementing
// the physical_fetch_hint soft scan budget (spec.md §4.7, §5).
type BoundedStream struct {
	inner   OrderedKeyStream
	limit   int
	emitted int
}

func NewBoundedStream(inner OrderedKeyStream, limit int) *BoundedStream {
	return &BoundedStream{inner: inner, limit: limit}
}

func (s *BoundedStream) Next() (keycodec.DataKey, bool) {
	if s.emitted >= s.limit {
		return keycodec.DataKey{}, false
	}
	k, ok := s.inner.Next()
	if !ok {
		return keycodec.DataKey{}, false
	}
	s.emitted++
	return k, true
}

// Emitted reports how many keys this bounded stream has produced so far,
// used by the executor to report scan-hint counters.
func (s *BoundedStream) Emitted() int { return s.emitted }
