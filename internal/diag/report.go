// Package diag builds spec.md §7's StorageReport diagnostics surface:
// "exposes corrupted-key and corrupted-entry counters per store without
// aborting; operational code can inspect without executing queries." It
// walks a store.Registry the same deterministic path-sorted way
// Registry.Iterate documents, decoding every DataKey/IndexKey and
// optionally every row, and counts failures instead of returning them,
// so a single corrupted record never stops the walk.
package diag

import (
	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/obs"
	"github.com/icydb/icykv/internal/store"
)

// StoreReport is the per-path tally StorageReport groups by path.
type StoreReport struct {
	Path             string
	DataKeys         int
	CorruptedKeys    int
	IndexKeys        int
	CorruptedEntries int
}

// StorageReport is the aggregate diagnostics snapshot across every
// registered store.
type StorageReport struct {
	Stores []StoreReport
}

func (r StorageReport) TotalCorruptedKeys() int {
	n := 0
	for _, s := range r.Stores {
		n += s.CorruptedKeys
	}
	return n
}

func (r StorageReport) TotalCorruptedEntries() int {
	n := 0
	for _, s := range r.Stores {
		n += s.CorruptedEntries
	}
	return n
}

// Walk inspects every store registry holds. codec is optional: when
// non-nil, each decoded data row is also run through
// codec.DecodeRow(path, value) and a failure counts as a corrupted
// entry; sink, if non-nil, additionally receives an ObserveCorruption
// call per failure so a live CountingSink mirrors what StorageReport
// reports.
func Walk(registry *store.Registry, codec icykv.RowCodec, sink obs.Sink) StorageReport {
	if sink == nil {
		sink = obs.NopSink{}
	}
	var report StorageReport
	for _, ph := range registry.Iterate() {
		sr := StoreReport{Path: ph.Path}

		dataIt := ph.Handle.Data.Iter()
		for {
			key, value, ok := dataIt.Next()
			if !ok {
				break
			}
			sr.DataKeys++
			if _, err := keycodec.DataKeyFromBytes(key); err != nil {
				sr.CorruptedKeys++
				sink.ObserveCorruption(ph.Path, obs.CorruptionStorageKey)
				continue
			}
			if codec != nil {
				if _, err := codec.DecodeRow(ph.Path, value); err != nil {
					sr.CorruptedEntries++
					sink.ObserveCorruption(ph.Path, obs.CorruptionEntityName)
				}
			}
		}

		indexIt := ph.Handle.Index.Iter()
		for {
			key, entry, ok := indexIt.Next()
			if !ok {
				break
			}
			sr.IndexKeys++
			if _, err := keycodec.IndexKeyFromBytes(key); err != nil {
				sr.CorruptedKeys++
				sink.ObserveCorruption(ph.Path, obs.CorruptionIndexKey)
				continue
			}
			if _, err := keycodec.FromBytes(entry.PrimaryKey); err != nil {
				sr.CorruptedEntries++
				sink.ObserveCorruption(ph.Path, obs.CorruptionIndexName)
			}
		}

		report.Stores = append(report.Stores, sr)
	}
	return report
}
