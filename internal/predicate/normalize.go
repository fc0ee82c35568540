package predicate

// Normalize applies the canonical rewrite rules (spec.md §4.3):
// flatten nested And/Or, drop neutral True/False, short-circuit
// And(...,False,...)->False and Or(...,True,...)->True, Not(Not x)->x,
// empty AND = True, empty OR = False, then sorts children deterministically.
//
// Normalize is idempotent: Normalize(Normalize(p)) structurally equals
// Normalize(p) (spec.md §8 property 4).
func Normalize(p Predicate) Predicate {
	switch t := p.(type) {
	case And:
		return normalizeAnd(t)
	case Or:
		return normalizeOr(t)
	case Not:
		child := Normalize(t.Child)
		if inner, ok := child.(Not); ok {
			return inner.Child
		}
		return Not{Child: child}
	default:
		return p
	}
}

func normalizeAnd(t And) Predicate {
	var flat []Predicate
	for _, c := range t.Children {
		nc := Normalize(c)
		switch v := nc.(type) {
		case False:
			return False{}
		case True:
			continue
		case And:
			flat = append(flat, v.Children...)
		default:
			flat = append(flat, nc)
		}
	}
	if len(flat) == 0 {
		return True{}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	sortChildren(flat)
	return And{Children: flat}
}

func normalizeOr(t Or) Predicate {
	var flat []Predicate
	for _, c := range t.Children {
		nc := Normalize(c)
		switch v := nc.(type) {
		case True:
			return True{}
		case False:
			continue
		case Or:
			flat = append(flat, v.Children...)
		default:
			flat = append(flat, nc)
		}
	}
	if len(flat) == 0 {
		return False{}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	sortChildren(flat)
	return Or{Children: flat}
}
