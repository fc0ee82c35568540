package planner

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/icydb/icykv/internal/accessplan"
	"github.com/icydb/icykv/internal/predicate"
)

// contSigTag is the fixed framing prefix (spec.md §4.5): a SHA-256 over
// (tag, entity_path, mode, access_plan_bytes, normalized_predicate_bytes,
// canonical_order_bytes, distinct_flag, grouped_spec_bytes). The window
// state (page/cursor) is deliberately excluded so a token remains valid
// as the window advances.
const contSigTag = "contsig:v1"

// ContinuationSignature computes the stable hash identifying a plan's
// shape, used both to stamp newly issued cursor tokens and to validate
// tokens presented for resumption.
func ContinuationSignature(entityPath string, mode PlanMode, access accessplan.Plan, pred predicate.Predicate, order *OrderSpec, distinct bool, group *GroupSpec) [32]byte {
	h := sha256.New()
	writeFramed(h, []byte(contSigTag))
	writeFramed(h, []byte(entityPath))
	h.Write([]byte{byte(mode)})
	writeFramed(h, accessPlanBytes(access))
	writeFramed(h, predicate.SortKey(pred))
	writeFramed(h, orderBytes(order))
	if distinct {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	writeFramed(h, groupBytes(group))
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

func writeFramed(h interface{ Write([]byte) (int, error) }, payload []byte) {
	var lb [8]byte
	binary.BigEndian.PutUint64(lb[:], uint64(len(payload)))
	h.Write(lb[:])
	h.Write(payload)
}

func orderBytes(o *OrderSpec) []byte {
	if o == nil {
		return nil
	}
	var buf []byte
	for _, f := range o.Fields {
		buf = appendFramedStr(buf, f.Field)
		if f.Desc {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

func groupBytes(g *GroupSpec) []byte {
	if g == nil {
		return nil
	}
	var buf []byte
	for _, f := range g.GroupFields {
		buf = appendFramedStr(buf, f.Name)
	}
	for _, a := range g.Aggregates {
		buf = appendFramedStr(buf, a.Alias)
		buf = append(buf, byte(a.Spec.Kind))
		if a.Spec.TargetField != nil {
			buf = append(buf, 1)
			buf = appendFramedStr(buf, *a.Spec.TargetField)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

func appendFramedStr(buf []byte, s string) []byte {
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(len(s)))
	buf = append(buf, lb[:]...)
	return append(buf, s...)
}

// accessPlanBytes produces a deterministic structural framing of an
// AccessPlan, mirroring predicate.SortKey's length-prefixed approach
// (spec.md §4.5 "access_plan_bytes").
func accessPlanBytes(pl accessplan.Plan) []byte {
	var buf []byte
	switch pl.Kind {
	case accessplan.KindPath:
		buf = append(buf, 0)
		buf = appendPathBytes(buf, *pl.Leaf)
	case accessplan.KindUnion, accessplan.KindIntersection:
		if pl.Kind == accessplan.KindUnion {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 2)
		}
		var lb [4]byte
		binary.BigEndian.PutUint32(lb[:], uint32(len(pl.Children)))
		buf = append(buf, lb[:]...)
		for _, c := range pl.Children {
			child := accessPlanBytes(c)
			var cl [4]byte
			binary.BigEndian.PutUint32(cl[:], uint32(len(child)))
			buf = append(buf, cl[:]...)
			buf = append(buf, child...)
		}
	}
	return buf
}

func appendPathBytes(buf []byte, p accessplan.Path) []byte {
	buf = append(buf, byte(p.Kind))
	buf = appendFramedStr(buf, p.Index)
	buf = append(buf, predicate.SortKey(predicate.Eq("_", p.Key))...)
	var kl [4]byte
	binary.BigEndian.PutUint32(kl[:], uint32(len(p.Keys)))
	buf = append(buf, kl[:]...)
	for _, v := range p.Keys {
		buf = append(buf, predicate.SortKey(predicate.Eq("_", v))...)
	}
	var lb [4]byte
	binary.BigEndian.PutUint32(lb[:], uint32(len(p.PrefixValues)))
	buf = append(buf, lb[:]...)
	for _, v := range p.PrefixValues {
		buf = append(buf, predicate.SortKey(predicate.Eq("_", v))...)
	}
	if p.RangeStart != nil {
		buf = append(buf, 1)
		buf = append(buf, predicate.SortKey(predicate.Eq("_", *p.RangeStart))...)
	} else {
		buf = append(buf, 0)
	}
	if p.RangeEnd != nil {
		buf = append(buf, 1)
		buf = append(buf, predicate.SortKey(predicate.Eq("_", *p.RangeEnd))...)
	} else {
		buf = append(buf, 0)
	}
	return buf
}
