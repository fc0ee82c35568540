package store

import (
	"bytes"
	"sort"

	"github.com/icydb/icykv"
)

// MemStore is an in-memory, sorted-slice DataStore used by the core's own
// tests and cmd/bench. It is not a production backend — internal/pgstore
// is the durable adapter — but it satisfies the same ordered-map contract
// the core depends on.
type MemStore struct {
	keys   [][]byte
	values [][]byte
}

func NewMemStore() *MemStore { return &MemStore{} }

func (s *MemStore) search(key []byte) (int, bool) {
	i := sort.Search(len(s.keys), func(i int) bool { return bytes.Compare(s.keys[i], key) >= 0 })
	if i < len(s.keys) && bytes.Equal(s.keys[i], key) {
		return i, true
	}
	return i, false
}

func (s *MemStore) Get(key []byte) ([]byte, bool) {
	i, ok := s.search(key)
	if !ok {
		return nil, false
	}
	return append([]byte(nil), s.values[i]...), true
}

func (s *MemStore) Insert(key, value []byte) {
	i, ok := s.search(key)
	k := append([]byte(nil), key...)
	v := append([]byte(nil), value...)
	if ok {
		s.values[i] = v
		return
	}
	s.keys = append(s.keys, nil)
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = k
	s.values = append(s.values, nil)
	copy(s.values[i+1:], s.values[i:])
	s.values[i] = v
}

func (s *MemStore) Remove(key []byte) {
	i, ok := s.search(key)
	if !ok {
		return
	}
	s.keys = append(s.keys[:i], s.keys[i+1:]...)
	s.values = append(s.values[:i], s.values[i+1:]...)
}

func (s *MemStore) Len() int { return len(s.keys) }

func (s *MemStore) MemoryBytes() int64 {
	var n int64
	for i := range s.keys {
		n += int64(len(s.keys[i]) + len(s.values[i]))
	}
	return n
}

func (s *MemStore) Clear() {
	s.keys = nil
	s.values = nil
}

type memKVIterator struct {
	keys   [][]byte
	values [][]byte
	pos    int
}

func (it *memKVIterator) Next() (key, value []byte, ok bool) {
	if it.pos >= len(it.keys) {
		return nil, nil, false
	}
	key, value = it.keys[it.pos], it.values[it.pos]
	it.pos++
	return key, value, true
}

func (s *MemStore) Iter() icykv.KVIterator {
	return &memKVIterator{keys: s.keys, values: s.values}
}

func (s *MemStore) Range(lower, upper icykv.Bound) icykv.KVIterator {
	lo, hi := boundsToIndices(s.keys, lower, upper)
	return &memKVIterator{keys: s.keys[lo:hi], values: s.values[lo:hi]}
}

func boundsToIndices(keys [][]byte, lower, upper icykv.Bound) (lo, hi int) {
	lo = 0
	if !lower.Unbounded {
		lo = sort.Search(len(keys), func(i int) bool {
			c := bytes.Compare(keys[i], lower.Value)
			if lower.Inclusive {
				return c >= 0
			}
			return c > 0
		})
	}
	hi = len(keys)
	if !upper.Unbounded {
		hi = sort.Search(len(keys), func(i int) bool {
			c := bytes.Compare(keys[i], upper.Value)
			if upper.Inclusive {
				return c > 0
			}
			return c >= 0
		})
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// MemIndexStore is the IndexStore analog of MemStore.
type MemIndexStore struct {
	keys    [][]byte
	entries []icykv.IndexEntry
}

func NewMemIndexStore() *MemIndexStore { return &MemIndexStore{} }

func (s *MemIndexStore) search(key []byte) (int, bool) {
	i := sort.Search(len(s.keys), func(i int) bool { return bytes.Compare(s.keys[i], key) >= 0 })
	if i < len(s.keys) && bytes.Equal(s.keys[i], key) {
		return i, true
	}
	return i, false
}

func (s *MemIndexStore) Get(key []byte) (icykv.IndexEntry, bool) {
	i, ok := s.search(key)
	if !ok {
		return icykv.IndexEntry{}, false
	}
	return s.entries[i], true
}

func (s *MemIndexStore) Insert(key []byte, entry icykv.IndexEntry) {
	i, ok := s.search(key)
	k := append([]byte(nil), key...)
	if ok {
		s.entries[i] = entry
		return
	}
	s.keys = append(s.keys, nil)
	copy(s.keys[i+1:], s.keys[i:])
	s.keys[i] = k
	s.entries = append(s.entries, icykv.IndexEntry{})
	copy(s.entries[i+1:], s.entries[i:])
	s.entries[i] = entry
}

func (s *MemIndexStore) Remove(key []byte) {
	i, ok := s.search(key)
	if !ok {
		return
	}
	s.keys = append(s.keys[:i], s.keys[i+1:]...)
	s.entries = append(s.entries[:i], s.entries[i+1:]...)
}

func (s *MemIndexStore) Len() int { return len(s.keys) }

func (s *MemIndexStore) MemoryBytes() int64 {
	var n int64
	for i := range s.keys {
		n += int64(len(s.keys[i]) + len(s.entries[i].PrimaryKey) + 1)
	}
	return n
}

func (s *MemIndexStore) Clear() {
	s.keys = nil
	s.entries = nil
}

type memIndexIterator struct {
	keys    [][]byte
	entries []icykv.IndexEntry
	pos     int
}

func (it *memIndexIterator) Next() (key []byte, entry icykv.IndexEntry, ok bool) {
	if it.pos >= len(it.keys) {
		return nil, icykv.IndexEntry{}, false
	}
	key, entry = it.keys[it.pos], it.entries[it.pos]
	it.pos++
	return key, entry, true
}

func (s *MemIndexStore) Iter() icykv.IndexIterator {
	return &memIndexIterator{keys: s.keys, entries: s.entries}
}

func (s *MemIndexStore) Range(lower, upper icykv.Bound) icykv.IndexIterator {
	lo, hi := boundsToIndices(s.keys, lower, upper)
	return &memIndexIterator{keys: s.keys[lo:hi], entries: s.entries[lo:hi]}
}
