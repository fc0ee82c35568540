package stream

import (
	"sort"
	"strings"

	"github.com/icydb/icykv"
	"github.com/icydb/icykv/internal/accessplan"
	"github.com/icydb/icykv/internal/keycodec"
	"github.com/icydb/icykv/internal/store"
)

func splitIndexName(s string) []string { return strings.Split(s, "|") }

// Resolver turns an accessplan.Plan into a concrete OrderedKeyStream by
// walking the registered data/index stores (spec.md §4.7: "resolution
// from an access plan"). One Resolver is scoped to a single entity.
type Resolver struct {
	Registry *store.Registry
	Entity   keycodec.EntityName
	DataPath string // registry path for this entity's DataStore/IndexStore pair
	Reverse  bool
}

func NewResolver(reg *store.Registry, entity keycodec.EntityName, dataPath string, reverse bool) *Resolver {
	return &Resolver{Registry: reg, Entity: entity, DataPath: dataPath, Reverse: reverse}
}

// Resolve materializes plan into an OrderedKeyStream, optionally bounded
// by fetchHint (the physical_fetch_hint soft scan budget, 0 meaning
// unbounded). Composite plans are resolved recursively and combined with
// the union/intersection combinators, pairwise-balanced for fan-out > 2.
func (r *Resolver) Resolve(plan accessplan.Plan, fetchHint int) (OrderedKeyStream, error) {
	var s OrderedKeyStream
	var err error
	switch plan.Kind {
	case accessplan.KindPath:
		s, err = r.resolvePath(*plan.Leaf)
	case accessplan.KindUnion:
		s, err = r.resolveComposite(plan.Children, fetchHint, true)
	case accessplan.KindIntersection:
		s, err = r.resolveComposite(plan.Children, fetchHint, false)
	default:
		return nil, icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginPlanner,
			"unknown access plan kind")
	}
	if err != nil {
		return nil, err
	}
	if fetchHint > 0 {
		s = NewBoundedStream(s, fetchHint)
	}
	return s, nil
}

func (r *Resolver) resolveComposite(children []accessplan.Plan, fetchHint int, union bool) (OrderedKeyStream, error) {
	streams := make([]OrderedKeyStream, 0, len(children))
	for _, c := range children {
		cs, err := r.Resolve(c, 0)
		if err != nil {
			return nil, err
		}
		streams = append(streams, cs)
	}
	cmp := r.compareFunc()
	if union {
		return MergeAll(cmp, streams...), nil
	}
	return IntersectAll(cmp, streams...), nil
}

func (r *Resolver) compareFunc() CompareFunc {
	if r.Reverse {
		return Descending
	}
	return Ascending
}

func (r *Resolver) resolvePath(p accessplan.Path) (OrderedKeyStream, error) {
	switch p.Kind {
	case accessplan.ByKey:
		return r.resolveByKey(p.Key)
	case accessplan.ByKeys:
		return r.resolveByKeys(p.Keys)
	case accessplan.KeyRange:
		return r.resolveKeyRange(p.RangeStart, p.RangeEnd)
	case accessplan.IndexPrefix:
		return r.resolveIndexPrefix(p.Index, p.PrefixValues)
	case accessplan.IndexRange:
		return r.resolveIndexRange(p.Index, p.PrefixValues, p.RangeStart, p.RangeEnd)
	case accessplan.FullScan:
		return r.resolveFullScan()
	default:
		return nil, icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginPlanner,
			"unknown access path kind")
	}
}

func (r *Resolver) resolveByKey(v icykv.Value) (OrderedKeyStream, error) {
	sk, err := keycodec.FromValue(v)
	if err != nil {
		return nil, err
	}
	dk := keycodec.DataKey{Entity: r.Entity, Key: sk}
	var found bool
	err = r.Registry.WithData(r.DataPath, func(ds icykv.DataStore) error {
		_, found = ds.Get(dk.ToBytes())
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return NewVecStream(nil), nil
	}
	return NewVecStream([]keycodec.DataKey{dk}), nil
}

func (r *Resolver) resolveByKeys(vs []icykv.Value) (OrderedKeyStream, error) {
	keys := make([]keycodec.DataKey, 0, len(vs))
	err := r.Registry.WithData(r.DataPath, func(ds icykv.DataStore) error {
		for _, v := range vs {
			sk, err := keycodec.FromValue(v)
			if err != nil {
				return err
			}
			dk := keycodec.DataKey{Entity: r.Entity, Key: sk}
			if _, ok := ds.Get(dk.ToBytes()); ok {
				keys = append(keys, dk)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	if r.Reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return NewVecStream(keys), nil
}

func (r *Resolver) resolveKeyRange(lo, hi *icykv.Value) (OrderedKeyStream, error) {
	entLow, entHigh := keycodec.EntityRangeBounds(r.Entity)
	lower := icykv.InclusiveBound(entLow)
	upper := icykv.ExclusiveBound(entHigh)
	if lo != nil {
		sk, err := keycodec.FromValue(*lo)
		if err != nil {
			return nil, err
		}
		lower = icykv.InclusiveBound(append(r.Entity.ToBytes(), sk.ToBytes()...))
	}
	if hi != nil {
		sk, err := keycodec.FromValue(*hi)
		if err != nil {
			return nil, err
		}
		upper = icykv.InclusiveBound(append(r.Entity.ToBytes(), sk.ToBytes()...))
	}
	var keys []keycodec.DataKey
	err := r.Registry.WithData(r.DataPath, func(ds icykv.DataStore) error {
		it := ds.Range(lower, upper)
		for {
			k, _, ok := it.Next()
			if !ok {
				break
			}
			dk, err := keycodec.DataKeyFromBytes(k)
			if err != nil {
				return err
			}
			keys = append(keys, dk)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if r.Reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return NewVecStream(keys), nil
}

func (r *Resolver) resolveFullScan() (OrderedKeyStream, error) {
	return r.resolveKeyRange(nil, nil)
}

func (r *Resolver) resolveIndexPrefix(indexName string, prefix []icykv.Value) (OrderedKeyStream, error) {
	return r.resolveIndexRange(indexName, prefix, nil, nil)
}

func (r *Resolver) resolveIndexRange(indexName string, prefix []icykv.Value, lo, hi *icykv.Value) (OrderedKeyStream, error) {
	parts := splitIndexName(indexName)
	if len(parts) < 2 {
		return nil, icykv.NewInternalError(icykv.ClassInvariantViolation, icykv.OriginPlanner,
			"malformed index name").WithDetail("index", indexName)
	}
	idxName, err := keycodec.NewIndexName(parts[0], parts[1:])
	if err != nil {
		return nil, err
	}
	prefixBytes, err := keycodec.EncodeIndexComponents(prefix)
	if err != nil {
		return nil, err
	}
	lowerComp := append([]byte(nil), prefixBytes...)
	upperComp := append([]byte(nil), prefixBytes...)
	if lo != nil {
		c, err := keycodec.EncodeCanonicalIndexComponent(*lo)
		if err != nil {
			return nil, err
		}
		lowerComp = append(lowerComp, c...)
	}
	if hi != nil {
		c, err := keycodec.EncodeCanonicalIndexComponent(*hi)
		if err != nil {
			return nil, err
		}
		upperComp = append(upperComp, c...)
		upperComp = append(upperComp, 0xff)
	} else {
		upperComp = append(upperComp, 0xff)
	}

	lowerKey := append(idxName.ToBytes(), keycodec.NamespaceUser)
	lowerKey = append(lowerKey, lowerComp...)
	upperKey := append(idxName.ToBytes(), keycodec.NamespaceUser)
	upperKey = append(upperKey, upperComp...)

	var keys []keycodec.DataKey
	err = r.Registry.WithIndex(r.DataPath, func(is icykv.IndexStore) error {
		it := is.Range(icykv.InclusiveBound(lowerKey), icykv.ExclusiveBound(upperKey))
		for {
			_, entry, ok := it.Next()
			if !ok {
				break
			}
			sk, err := keycodec.FromBytes(entry.PrimaryKey)
			if err != nil {
				return err
			}
			keys = append(keys, keycodec.DataKey{Entity: r.Entity, Key: sk})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Compare(keys[j]) < 0 })
	if r.Reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	return NewVecStream(keys), nil
}
