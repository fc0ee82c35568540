// Package accessplan implements the declarative description of
// storage-level access (spec.md §4.4). The access path is not generic
// over the primary-key type: this implementation concretizes it at
// icykv.Value (the planner's sort
// key domain) and lets the executor narrow to a concrete StorageKey at
// resolution time via internal/keycodec — see DESIGN.md's open-question
// entry for accessplan.
package accessplan

import "github.com/icydb/icykv"

// PathKind tags the AccessPath variant.
type PathKind uint8

const (
	ByKey PathKind = iota
	ByKeys
	KeyRange
	IndexPrefix
	IndexRange
	FullScan
)

// AnchorKind names the kind of cursor anchor a path needs to resume.
type AnchorKind uint8

const (
	AnchorBoundaryOnly AnchorKind = iota
	AnchorRawIndexKey
)

// Path is one leaf access descriptor (spec.md §3 "AccessPlan").
type Path struct {
	Kind PathKind

	Key  icykv.Value   // ByKey
	Keys []icykv.Value // ByKeys

	RangeStart *icykv.Value // KeyRange / IndexRange lower
	RangeEnd   *icykv.Value // KeyRange / IndexRange upper

	Index        string        // IndexPrefix / IndexRange
	PrefixValues []icykv.Value // IndexPrefix / IndexRange leading-field equalities
}

// SupportsReverse reports whether this path can emit in descending
// physical order without a post-access sort (spec.md §4.4).
func (p Path) SupportsReverse() bool {
	switch p.Kind {
	case ByKey, KeyRange, IndexPrefix, IndexRange, FullScan:
		return true
	case ByKeys:
		return false
	default:
		return false
	}
}

// CursorAnchor reports what kind of cursor anchor this path requires.
func (p Path) CursorAnchor() AnchorKind {
	if p.Kind == IndexRange {
		return AnchorRawIndexKey
	}
	return AnchorBoundaryOnly
}

// IsPKOrdered reports whether this path's natural output order matches
// canonical primary-key order once its own internal normalization (sort
// + dedup for ByKeys) has run.
func (p Path) IsPKOrdered() bool {
	return true
}

// PlanKind tags the AccessPlan variant.
type PlanKind uint8

const (
	KindPath PlanKind = iota
	KindUnion
	KindIntersection
)

// Plan is the top-level access plan tree: a single Path, or a
// Union/Intersection of child plans (spec.md §3 "AccessPlan").
type Plan struct {
	Kind     PlanKind
	Leaf     *Path
	Children []Plan
}

func FromPath(p Path) Plan { return Plan{Kind: KindPath, Leaf: &p} }

func UnionOf(children ...Plan) Plan { return Plan{Kind: KindUnion, Children: children} }

func IntersectionOf(children ...Plan) Plan { return Plan{Kind: KindIntersection, Children: children} }

// IsSingleLeaf reports whether the plan is exactly one Path, returning it.
func (pl Plan) IsSingleLeaf() (Path, bool) {
	if pl.Kind == KindPath && pl.Leaf != nil {
		return *pl.Leaf, true
	}
	return Path{}, false
}

// SupportsReverse reports whether the whole plan can run in reverse
// without a post-access sort: true only when every leaf supports it.
func (pl Plan) SupportsReverse() bool {
	if leaf, ok := pl.IsSingleLeaf(); ok {
		return leaf.SupportsReverse()
	}
	for _, c := range pl.Children {
		if !c.SupportsReverse() {
			return false
		}
	}
	return true
}
