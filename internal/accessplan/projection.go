package accessplan

// Shape is a flattened descriptor of a Plan's access pattern, extracted
// without the caller needing to pattern-match the AST directly (spec.md
// §4.4: "exposes a projection visitor"). Used by the planner's pushdown
// eligibility checks and by tests asserting on plan shape.
type Shape struct {
	PathKind    PathKind
	IsComposite bool
	CompositeOp PlanKind
	IndexName   string
	LeafCount   int
}

// Project walks pl and returns its Shape.
func Project(pl Plan) Shape {
	if leaf, ok := pl.IsSingleLeaf(); ok {
		return Shape{PathKind: leaf.Kind, IndexName: leaf.Index, LeafCount: 1}
	}
	return Shape{
		IsComposite: true,
		CompositeOp: pl.Kind,
		LeafCount:   countLeaves(pl),
	}
}

func countLeaves(pl Plan) int {
	if _, ok := pl.IsSingleLeaf(); ok {
		return 1
	}
	n := 0
	for _, c := range pl.Children {
		n += countLeaves(c)
	}
	return n
}

// SingleIndexPrefix reports whether pl is exactly one IndexPrefix path
// (or an IndexRange with an empty post-prefix residual, represented here
// as RangeStart == RangeEnd == nil) targeting the given index, returning
// its leaf. This is the eligibility shape the planner's secondary ORDER
// BY pushdown checks for (spec.md §4.5).
func SingleIndexPrefix(pl Plan) (Path, bool) {
	leaf, ok := pl.IsSingleLeaf()
	if !ok {
		return Path{}, false
	}
	switch leaf.Kind {
	case IndexPrefix:
		return leaf, true
	case IndexRange:
		if leaf.RangeStart == nil && leaf.RangeEnd == nil {
			return leaf, true
		}
		return Path{}, false
	default:
		return Path{}, false
	}
}
