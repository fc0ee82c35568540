package icykv

// FieldKind is a closed description of a field's type. Predicate
// validation, literal-shape checks, and index-key encoding all dispatch
// on FieldKind (spec.md §3).
type FieldKind struct {
	Tag FieldKindTag

	// Elem is the element kind for List/Set; populated only when Tag is
	// one of those.
	Elem *FieldKind
	// MapValue is the value kind for Map; MapKey is assumed Text.
	MapValue *FieldKind
	// EnumPath names the schema-declared enum type for Tag == FieldKindEnum.
	EnumPath string
	// RelationTarget names the related entity's PATH for Tag == FieldKindRelation.
	RelationTarget string
	// RelationKey is the FieldKind of the related entity's primary key.
	RelationKey *FieldKind
	// RelationCascade, declared model-side, permits DeleteExecutor to
	// remove a row even when the relation's reverse index still reports
	// dependents (spec.md §4.10: "block delete ... unless cascade is
	// declared").
	RelationCascade bool
}

type FieldKindTag uint8

const (
	FieldKindUnit FieldKindTag = iota
	FieldKindBool
	FieldKindInt
	FieldKindUint
	FieldKindDecimal
	FieldKindFloat
	FieldKindDate
	FieldKindDuration
	FieldKindTimestamp
	FieldKindText
	FieldKindUlid
	FieldKindPrincipal
	FieldKindAccount
	FieldKindSubaccount
	FieldKindBlob
	FieldKindList
	FieldKindSet
	FieldKindMap
	FieldKindEnum
	FieldKindRelation
)

// StorageEncodable reports whether values of this kind belong to the
// closed storage-encodable subset admitted by keycodec.FromValue
// (spec.md §4.1): unit, signed/unsigned 64-bit integers, ulid, principal,
// account, subaccount, timestamp.
func (k FieldKind) StorageEncodable() bool {
	switch k.Tag {
	case FieldKindUnit, FieldKindInt, FieldKindUint, FieldKindUlid,
		FieldKindPrincipal, FieldKindAccount, FieldKindSubaccount, FieldKindTimestamp:
		return true
	default:
		return false
	}
}

// SupportsOrdering reports whether the kind may be used as a sort key or
// field-targeted extrema target. Excludes Blob, Unit, and collections by
// default (spec.md §4.9), except elementwise comparisons which are
// handled separately by the CollectionElement coercion.
func (k FieldKind) SupportsOrdering() bool {
	switch k.Tag {
	case FieldKindBlob, FieldKindUnit, FieldKindList, FieldKindSet, FieldKindMap:
		return false
	default:
		return true
	}
}

// SupportsNumericCoercion reports whether the kind can be widened to
// Decimal for sum/avg/median aggregates (spec.md §4.9).
func (k FieldKind) SupportsNumericCoercion() bool {
	switch k.Tag {
	case FieldKindInt, FieldKindUint, FieldKindDecimal, FieldKindFloat:
		return true
	default:
		return false
	}
}

// FieldSlot is a resolved (index, kind) pair for a single entity field,
// computed once at plan-setup time (spec.md §4.9: "Resolve to a stable
// FieldSlot{index, kind} once at setup").
type FieldSlot struct {
	Name  string
	Index int
	Kind  FieldKind
}

// EntityModel supplies per-entity field metadata: name, kind, slot index,
// primary-key field, and declared indexes. Consumed only by the core
// (spec.md §6, "Schema contract" external collaborator).
type EntityModel struct {
	Path          string
	Fields        []FieldSlot
	PrimaryKey    FieldSlot
	Indexes       []IndexModel
}

// IndexModel names a declared secondary index: its name and the ordered
// list of fields it is keyed by, plus whether it enforces uniqueness.
type IndexModel struct {
	Name   string
	Fields []string
	Unique bool
}

func (m EntityModel) FieldByName(name string) (FieldSlot, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSlot{}, false
}

func (m EntityModel) IndexByName(name string) (IndexModel, bool) {
	for _, idx := range m.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexModel{}, false
}
