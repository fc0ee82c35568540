package executor

import (
	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/store"
)

// materializeRow fetches and decodes the row at key, honoring consistency
// (spec.md §6 "Missing-row policy"): ConsistencyStrict surfaces a missing
// row as a classified Corruption error since the caller's access path
// (an index entry, typically) promised the row existed; ConsistencyMissingOk
// skips it silently by returning ok == false with a nil error.
func materializeRow(registry *store.Registry, dataPath string, codec icykv.RowCodec, key keycodec.DataKey, consistency icykv.ReadConsistency) (icykv.EntityValue, bool, error) {
	var raw []byte
	var found bool
	err := registry.WithData(dataPath, func(ds icykv.DataStore) error {
		raw, found = ds.Get(key.ToBytes())
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		if consistency == icykv.ConsistencyStrict {
			return nil, false, icykv.NewInternalError(icykv.ClassCorruption, icykv.OriginExecutor,
				"access path resolved a key with no backing row").WithEntity(key.Entity.String())
		}
		return nil, false, nil
	}
	ev, err := codec.DecodeRow(key.Entity.String(), raw)
	if err != nil {
		return nil, false, err
	}
	return ev, true, nil
}
