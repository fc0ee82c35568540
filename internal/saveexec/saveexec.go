// Package saveexec implements the write path: index maintenance on
// insert/replace/update/delete, including unique-index checks, plus
// atomic and non-atomic batch variants (spec.md §4.10). No reverse index
// is maintained, and deletes are not checked for dependent rows (see
// checkRelationGuard). Grounded on
// _examples/Lychee-Technology-forma/internal/entity_manager_crud.go's
// load-existing/merge/validate/persist shape, adapted from its
// Postgres-repository write path to this engine's index-maintaining one.
package saveexec

import (
	"context"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/store"
)

// Executor mutates one entity's row + index stores consistently. It
// never reads a row outside of its own pre-commit validation; callers
// use internal/executor for reads.
type Executor struct {
	Registry *store.Registry
	Codec    icykv.RowCodec
}

// op is one staged mutation: the encoded row plus every index key it
// needs inserted/removed, computed before anything is written so an
// atomic batch can discard the whole stage on the first failure (spec.md
// §4.10 "Atomic batch semantics").
type op struct {
	dataKey   keycodec.DataKey
	rawRow    []byte
	oldRow    icykv.EntityValue // nil for Insert
	newRow    icykv.EntityValue // nil for Delete
	newIdxKeys []keycodec.IndexKey
	oldIdxKeys []keycodec.IndexKey
}

// Mode distinguishes the three write shapes that share pre-commit
// validation but differ in existence requirements.
type Mode uint8

const (
	// ModeInsert fails with an InvariantViolation-classified conflict if a row
	// with the same primary key already exists.
	ModeInsert Mode = iota
	// ModeReplace upserts: inserts if absent, overwrites if present.
	ModeReplace
	// ModeUpdate requires the row already exist; NotFound otherwise.
	ModeUpdate
)

// Save stages and commits a single row write under mode (spec.md §4.10
// "Pre-commit validation per row").
func (e *Executor) Save(ctx context.Context, dataPath string, entity keycodec.EntityName, model icykv.EntityModel, row icykv.EntityValue, mode Mode) error {
	o, err := e.stageSave(dataPath, entity, model, row, mode)
	if err != nil {
		return err
	}
	return e.commit(dataPath, []op{o})
}

// Delete stages and commits the removal of the row identified by pk
// (spec.md §4.10 "Delete path").
func (e *Executor) Delete(ctx context.Context, dataPath string, entity keycodec.EntityName, model icykv.EntityModel, pk icykv.Value) error {
	o, err := e.stageDelete(dataPath, entity, model, pk)
	if err != nil {
		return err
	}
	return e.commit(dataPath, []op{o})
}

// BatchItem is one row (or primary key, for deletes) in a batch request.
type BatchItem struct {
	Row icykv.EntityValue // for Save batches
	PK  icykv.Value       // for Delete batches
}

// AtomicBatchSave stages every item's save; if any item fails pre-commit
// validation, nothing in the batch is persisted (spec.md §4.10 "Atomic
// batch semantics": "if any pre-commit validation fails, drop the entire
// stage — no partial persist").
func (e *Executor) AtomicBatchSave(ctx context.Context, dataPath string, entity keycodec.EntityName, model icykv.EntityModel, items []BatchItem, mode Mode) error {
	ops := make([]op, 0, len(items))
	for _, item := range items {
		o, err := e.stageSave(dataPath, entity, model, item.Row, mode)
		if err != nil {
			return err
		}
		ops = append(ops, o)
	}
	return e.commit(dataPath, ops)
}

// NonAtomicBatchSave commits each item as soon as it stages successfully
// and fails fast on the first error, leaving prior commits in place
// (spec.md §4.10: "Non-atomic batches fail fast but commit prior rows;
// documented explicitly as such").
func (e *Executor) NonAtomicBatchSave(ctx context.Context, dataPath string, entity keycodec.EntityName, model icykv.EntityModel, items []BatchItem, mode Mode) (*icykv.BatchErrors, error) {
	result := icykv.NewBatchErrors()
	for i, item := range items {
		o, err := e.stageSave(dataPath, entity, model, item.Row, mode)
		if err != nil {
			ie, ok := err.(*icykv.InternalError)
			if !ok {
				return result, err
			}
			result.RecordFailure(i, ie)
			return result, nil
		}
		if err := e.commit(dataPath, []op{o}); err != nil {
			ie, ok := err.(*icykv.InternalError)
			if !ok {
				return result, err
			}
			result.RecordFailure(i, ie)
			return result, nil
		}
		result.RecordSuccess()
	}
	return result, nil
}

// AtomicBatchDelete mirrors AtomicBatchSave for deletes.
func (e *Executor) AtomicBatchDelete(ctx context.Context, dataPath string, entity keycodec.EntityName, model icykv.EntityModel, pks []icykv.Value) error {
	ops := make([]op, 0, len(pks))
	for _, pk := range pks {
		o, err := e.stageDelete(dataPath, entity, model, pk)
		if err != nil {
			return err
		}
		ops = append(ops, o)
	}
	return e.commit(dataPath, ops)
}

func (e *Executor) stageSave(dataPath string, entity keycodec.EntityName, model icykv.EntityModel, row icykv.EntityValue, mode Mode) (op, error) {
	if err := typeCheckRow(model, row); err != nil {
		return op{}, err
	}

	sk, err := keycodec.FromValue(row.PrimaryKeyValue())
	if err != nil {
		return op{}, err
	}
	dataKey := keycodec.DataKey{Entity: entity, Key: sk}

	var existing icykv.EntityValue
	var existed bool
	err = e.Registry.WithData(dataPath, func(ds icykv.DataStore) error {
		raw, ok := ds.Get(dataKey.ToBytes())
		if !ok {
			return nil
		}
		existed = true
		ev, decErr := e.Codec.DecodeRow(entity.String(), raw)
		if decErr != nil {
			return decErr
		}
		existing = ev
		return nil
	})
	if err != nil {
		return op{}, err
	}

	switch mode {
	case ModeInsert:
		if existed {
			return op{}, icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginExecutor,
				"insert conflicts with an existing row").WithEntity(entity.String())
		}
	case ModeUpdate:
		if !existed {
			return op{}, icykv.NewInternalError(icykv.ClassNotFound, icykv.OriginExecutor,
				"update target does not exist").WithEntity(entity.String())
		}
	}

	newIdxKeys, err := e.buildIndexKeys(dataPath, entity, model, row, sk, existing)
	if err != nil {
		return op{}, err
	}

	var oldIdxKeys []keycodec.IndexKey
	if existed {
		oldIdxKeys, err = buildIndexKeysUnchecked(model, entity, existing, sk)
		if err != nil {
			return op{}, err
		}
	}

	raw, err := e.Codec.EncodeRow(row)
	if err != nil {
		return op{}, err
	}

	return op{dataKey: dataKey, rawRow: raw, oldRow: existing, newRow: row, newIdxKeys: newIdxKeys, oldIdxKeys: oldIdxKeys}, nil
}

func (e *Executor) stageDelete(dataPath string, entity keycodec.EntityName, model icykv.EntityModel, pk icykv.Value) (op, error) {
	sk, err := keycodec.FromValue(pk)
	if err != nil {
		return op{}, err
	}
	dataKey := keycodec.DataKey{Entity: entity, Key: sk}

	var existing icykv.EntityValue
	var existed bool
	err = e.Registry.WithData(dataPath, func(ds icykv.DataStore) error {
		raw, ok := ds.Get(dataKey.ToBytes())
		if !ok {
			return nil
		}
		existed = true
		ev, decErr := e.Codec.DecodeRow(entity.String(), raw)
		if decErr != nil {
			return decErr
		}
		existing = ev
		return nil
	})
	if err != nil {
		return op{}, err
	}
	if !existed {
		return op{}, icykv.NewInternalError(icykv.ClassNotFound, icykv.OriginExecutor,
			"delete target does not exist").WithEntity(entity.String())
	}

	if err := e.checkRelationGuard(dataPath, entity, model, existing); err != nil {
		return op{}, err
	}

	oldIdxKeys, err := buildIndexKeysUnchecked(model, entity, existing, sk)
	if err != nil {
		return op{}, err
	}

	return op{dataKey: dataKey, oldRow: existing, oldIdxKeys: oldIdxKeys}, nil
}

// commit applies every staged op's index removals and index insertions
// inside one Registry.WithIndex call, then every op's data-key
// write/remove inside a following Registry.WithData call, so data keys
// are written last (spec.md §4.10: "Delete the data key last so indexes
// are consistent if the delete aborts") and the index and data stores
// are never borrowed at the same time. Every op in the batch has already
// passed validation by the time commit is called, so this step cannot
// itself fail on business rules — only on store-layer errors.
func (e *Executor) commit(dataPath string, ops []op) error {
	err := e.Registry.WithIndex(dataPath, func(idx icykv.IndexStore) error {
		for _, o := range ops {
			for _, k := range o.oldIdxKeys {
				idx.Remove(k.ToBytes())
			}
			for _, k := range o.newIdxKeys {
				idx.Insert(k.ToBytes(), icykv.IndexEntry{PrimaryKey: o.dataKey.Key.ToBytes()})
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return e.Registry.WithData(dataPath, func(ds icykv.DataStore) error {
		for _, o := range ops {
			if o.newRow == nil {
				ds.Remove(o.dataKey.ToBytes())
			} else {
				ds.Insert(o.dataKey.ToBytes(), o.rawRow)
			}
		}
		return nil
	})
}

// typeCheckRow checks that row has a value slot for every declared field.
// The values themselves are not checked against their declared FieldKind.
func typeCheckRow(model icykv.EntityModel, row icykv.EntityValue) error {
	values := row.Values()
	for _, slot := range model.Fields {
		if slot.Index >= len(values) {
			return icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginExecutor,
				"row is missing a declared field slot").WithField(slot.Name).WithEntity(model.Path)
		}
	}
	return nil
}

// buildIndexKeys computes every declared index's key for row, probing
// unique indexes for a conflicting existing entry (spec.md §4.10: "if
// unique, probe for an existing entry with a different primary key ->
// UniqueViolation").
func (e *Executor) buildIndexKeys(dataPath string, entity keycodec.EntityName, model icykv.EntityModel, row icykv.EntityValue, pk keycodec.StorageKey, existing icykv.EntityValue) ([]keycodec.IndexKey, error) {
	keys, err := buildIndexKeysUnchecked(model, entity, row, pk)
	if err != nil {
		return nil, err
	}
	for i, idxModel := range model.Indexes {
		if !idxModel.Unique {
			continue
		}
		key := keys[i]
		var conflict bool
		err := e.Registry.WithIndex(dataPath, func(idx icykv.IndexStore) error {
			entry, ok := idx.Get(key.ToBytes())
			if !ok {
				return nil
			}
			if !bytesEqual(entry.PrimaryKey, pk.ToBytes()) {
				conflict = true
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginIndex,
				"unique index violation").
				WithEntity(entity.String()).
				WithField(idxModel.Name).
				WithDetail("index_key_hex", hexBytes(key.ToBytes()))
		}
	}
	return keys, nil
}

func buildIndexKeysUnchecked(model icykv.EntityModel, entity keycodec.EntityName, row icykv.EntityValue, pk keycodec.StorageKey) ([]keycodec.IndexKey, error) {
	values := row.Values()
	keys := make([]keycodec.IndexKey, len(model.Indexes))
	for i, idxModel := range model.Indexes {
		fieldValues := make([]icykv.Value, len(idxModel.Fields))
		for j, fname := range idxModel.Fields {
			slot, ok := model.FieldByName(fname)
			if !ok || slot.Index >= len(values) {
				return nil, icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginIndex,
					"index declares an unknown field").WithField(fname).WithEntity(entity.String())
			}
			fieldValues[j] = values[slot.Index]
		}
		component, err := keycodec.EncodeIndexComponents(fieldValues)
		if err != nil {
			return nil, err
		}
		idxName, err := keycodec.NewIndexName(entity.String(), idxModel.Fields)
		if err != nil {
			return nil, err
		}
		keys[i] = keycodec.IndexKey{Index: idxName, Namespace: keycodec.NamespaceUser, Component: component, TieBreak: pk}
	}
	return keys, nil
}

// checkRelationGuard returns nil for every row. No reverse index is
// populated (buildIndexKeysUnchecked builds only the declared forward
// indexes), so rows of other entities that point at row are not looked
// up, and a delete is never blocked by a relation, whether or not the
// relation field declares cascade.
func (e *Executor) checkRelationGuard(dataPath string, entity keycodec.EntityName, model icykv.EntityModel, row icykv.EntityValue) error {
	for _, slot := range model.Fields {
		if slot.Kind.Tag != icykv.FieldKindRelation {
			continue
		}
		if slot.Kind.RelationCascade {
			continue
		}
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

const hexDigits = "0123456789abcdef"

func hexBytes(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexDigits[c>>4]
		out[i*2+1] = hexDigits[c&0xf]
	}
	return string(out)
}
