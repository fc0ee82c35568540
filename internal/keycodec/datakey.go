package keycodec

import "bytes"

// DataKey is an entity-qualified storage key: (EntityName, StorageKey)
// byte concatenation. All rows for one entity occupy a contiguous
// ordered range; within that range ordering matches StorageKey ordering
// (spec.md §3).
type DataKey struct {
	Entity EntityName
	Key    StorageKey
}

// DataKeyStoredSizeBytes is EntityNameStoredSizeBytes + StoredSizeBytes,
// the exact storage footprint of a DataKey (spec.md §6).
const DataKeyStoredSizeBytes = EntityNameStoredSizeBytes + StoredSizeBytes

func (k DataKey) ToBytes() []byte {
	buf := make([]byte, 0, DataKeyStoredSizeBytes)
	buf = append(buf, k.Entity.ToBytes()...)
	buf = append(buf, k.Key.ToBytes()...)
	return buf
}

func DataKeyFromBytes(b []byte) (DataKey, error) {
	if len(b) != DataKeyStoredSizeBytes {
		return DataKey{}, corruptf("data key record must be %d bytes, got %d", DataKeyStoredSizeBytes, len(b))
	}
	entity, err := EntityNameFromBytes(b[:EntityNameStoredSizeBytes])
	if err != nil {
		return DataKey{}, err
	}
	key, err := FromBytes(b[EntityNameStoredSizeBytes:])
	if err != nil {
		return DataKey{}, err
	}
	return DataKey{Entity: entity, Key: key}, nil
}

func (k DataKey) Compare(other DataKey) int {
	return bytes.Compare(k.ToBytes(), other.ToBytes())
}

// EntityRangeBounds returns the inclusive lower bound and exclusive upper
// bound covering every DataKey belonging to the given entity, for use as
// a Range(lower, upper) scan over a DataStore.
func EntityRangeBounds(entity EntityName) (lower, upper []byte) {
	lower = append(entity.ToBytes(), MinAccount().ToBytes()...)
	upper = append(entity.ToBytes(), Unit().ToBytes()...)
	// Unit is the documented MAX StorageKey, so the upper bound must be
	// exclusive of one-past-Unit; since Unit already sorts last within
	// the entity's own range, bump the last byte class by appending a
	// single 0x01 sentinel byte understood by Range as "just past".
	upper = append(upper, 0x01)
	return lower, upper
}

// IndexKey is an (index-name, namespace-tag, component-bytes,
// tie-break-primary-key) composite (spec.md §3).
type IndexKey struct {
	Index     IndexName
	Namespace byte
	Component []byte // order-preserving encoding of each indexed field value, concatenated in index-field order
	TieBreak  StorageKey
}

const (
	// NamespaceUser separates ordinary user-declared index entries from
	// system entries (e.g. reverse indexes) sharing the same index store.
	NamespaceUser   byte = 0
	NamespaceSystem byte = 1
)

func (k IndexKey) ToBytes() []byte {
	buf := make([]byte, 0, IndexNameStoredSizeBytes+1+len(k.Component)+StoredSizeBytes)
	buf = append(buf, k.Index.ToBytes()...)
	buf = append(buf, k.Namespace)
	buf = append(buf, k.Component...)
	buf = append(buf, k.TieBreak.ToBytes()...)
	return buf
}

func IndexKeyFromBytes(b []byte) (IndexKey, error) {
	if len(b) < IndexNameStoredSizeBytes+1+StoredSizeBytes {
		return IndexKey{}, corruptf("index key record too short: %d bytes", len(b))
	}
	idxName, err := IndexNameFromBytes(b[:IndexNameStoredSizeBytes])
	if err != nil {
		return IndexKey{}, err
	}
	rest := b[IndexNameStoredSizeBytes:]
	namespace := rest[0]
	rest = rest[1:]
	component := rest[:len(rest)-StoredSizeBytes]
	tieBreakBytes := rest[len(rest)-StoredSizeBytes:]
	tieBreak, err := FromBytes(tieBreakBytes)
	if err != nil {
		return IndexKey{}, err
	}
	return IndexKey{
		Index:     idxName,
		Namespace: namespace,
		Component: append([]byte(nil), component...),
		TieBreak:  tieBreak,
	}, nil
}

func (k IndexKey) Compare(other IndexKey) int {
	return bytes.Compare(k.ToBytes(), other.ToBytes())
}
