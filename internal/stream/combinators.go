package stream

import "github.com/icydb/icykv/internal/keycodec"

// MergeStream yields the union of two ordered child streams, dedup'ing a
// key that appears in both (spec.md §4.7 "MergeOrderedKeyStream").
type MergeStream struct {
	left, right         OrderedKeyStream
	cmp                 CompareFunc
	lk, rk              keycodec.DataKey
	lok, rok            bool
	lPulled, rPulled    bool
}

func NewMergeStream(left, right OrderedKeyStream, cmp CompareFunc) *MergeStream {
	return &MergeStream{left: left, right: right, cmp: cmp}
}

func (s *MergeStream) pullLeft() {
	if !s.lPulled {
		s.lk, s.lok = s.left.Next()
		s.lPulled = true
	}
}

func (s *MergeStream) pullRight() {
	if !s.rPulled {
		s.rk, s.rok = s.right.Next()
		s.rPulled = true
	}
}

func (s *MergeStream) Next() (keycodec.DataKey, bool) {
	s.pullLeft()
	s.pullRight()
	switch {
	case !s.lok && !s.rok:
		return keycodec.DataKey{}, false
	case !s.lok:
		k := s.rk
		s.rPulled = false
		return k, true
	case !s.rok:
		k := s.lk
		s.lPulled = false
		return k, true
	default:
		c := s.cmp(s.lk, s.rk)
		switch {
		case c < 0:
			k := s.lk
			s.lPulled = false
			return k, true
		case c > 0:
			k := s.rk
			s.rPulled = false
			return k, true
		default:
			k := s.lk
			s.lPulled = false
			s.rPulled = false
			return k, true
		}
	}
}

// IntersectStream yields only keys present in both ordered child streams
// (spec.md §4.7 "IntersectOrderedKeyStream"): it advances whichever head
// is smaller and emits only when both heads compare equal.
type IntersectStream struct {
	left, right      OrderedKeyStream
	cmp              CompareFunc
	lk, rk           keycodec.DataKey
	lok, rok         bool
	lPulled, rPulled bool
}

func NewIntersectStream(left, right OrderedKeyStream, cmp CompareFunc) *IntersectStream {
	return &IntersectStream{left: left, right: right, cmp: cmp}
}

func (s *IntersectStream) pullLeft() {
	if !s.lPulled {
		s.lk, s.lok = s.left.Next()
		s.lPulled = true
	}
}

func (s *IntersectStream) pullRight() {
	if !s.rPulled {
		s.rk, s.rok = s.right.Next()
		s.rPulled = true
	}
}

func (s *IntersectStream) Next() (keycodec.DataKey, bool) {
	for {
		s.pullLeft()
		s.pullRight()
		if !s.lok || !s.rok {
			return keycodec.DataKey{}, false
		}
		c := s.cmp(s.lk, s.rk)
		switch {
		case c < 0:
			s.lPulled = false
		case c > 0:
			s.rPulled = false
		default:
			k := s.lk
			s.lPulled = false
			s.rPulled = false
			return k, true
		}
	}
}

// MergeAll reduces children pairwise in a balanced tree to bound depth
// for large fan-out unions (spec.md §4.7: "balanced-tree-reduced when
// composing >2 children").
func MergeAll(cmp CompareFunc, children ...OrderedKeyStream) OrderedKeyStream {
	return reduceBalanced(children, func(a, b OrderedKeyStream) OrderedKeyStream {
		return NewMergeStream(a, b, cmp)
	})
}

// IntersectAll reduces children pairwise in a balanced tree.
func IntersectAll(cmp CompareFunc, children ...OrderedKeyStream) OrderedKeyStream {
	return reduceBalanced(children, func(a, b OrderedKeyStream) OrderedKeyStream {
		return NewIntersectStream(a, b, cmp)
	})
}

func reduceBalanced(nodes []OrderedKeyStream, combine func(a, b OrderedKeyStream) OrderedKeyStream) OrderedKeyStream {
	if len(nodes) == 0 {
		return NewVecStream(nil)
	}
	for len(nodes) > 1 {
		var next []OrderedKeyStream
		for i := 0; i < len(nodes); i += 2 {
			if i+1 < len(nodes) {
				next = append(next, combine(nodes[i], nodes[i+1]))
			} else {
				next = append(next, nodes[i])
			}
		}
		nodes = next
	}
	return nodes[0]
}
