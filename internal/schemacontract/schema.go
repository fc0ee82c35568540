// Package schemacontract is the ambient schema-contract loader
// SPEC_FULL.md §1 carves out as "some caller has to build EntityModel
// values — that loader is ambient tooling, not core". It validates a
// JSON document describing an entity's field list, primary key, and
// indexes against a JSON Schema built with google/jsonschema-go, then
// decodes the validated document into an icykv.EntityModel the core
// accepts. The document shape (Properties/Required/Enum, nested Items
// for collections) echoes the teacher's own JSONSchema/PropertySchema in
// jsonschema.go, adapted to field-kind vocabulary instead of forma's EAV
// property types — the teacher's struct doesn't actually validate
// against a schema library despite forma depending on one, so the
// validation machinery here is new, grounded on jsonschema-go's
// documented Schema/Resolve/Validate API rather than copied code.
package schemacontract

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/icydb/icykv"
)

// ptr is the same one-line address-of helper the teacher's integration
// test defines locally (postgres_persistent_repository_integration_test.go's
// ptr[T]), needed here for jsonschema.Schema's *int length/count fields.
func ptr[T any](v T) *T { return &v }

// contractSchema is the fixed meta-schema every entity contract document
// must satisfy before it is decoded into an EntityModel.
var contractSchema = &jsonschema.Schema{
	Type:     "object",
	Required: []string{"path", "fields", "primaryKey"},
	Properties: map[string]*jsonschema.Schema{
		"path": {Type: "string", MinLength: ptr(1)},
		"fields": {
			Type:     "array",
			MinItems: ptr(1),
			Items: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"name", "kind"},
				Properties: map[string]*jsonschema.Schema{
					"name": {Type: "string", MinLength: ptr(1)},
					"kind": {Type: "string", Enum: kindNamesAsAny()},
					"elem": {Type: "object"},
					"mapValue": {Type: "object"},
					"enumPath":       {Type: "string"},
					"relationTarget": {Type: "string"},
					"relationCascade": {Type: "boolean"},
				},
			},
		},
		"primaryKey": {Type: "string", MinLength: ptr(1)},
		"indexes": {
			Type: "array",
			Items: &jsonschema.Schema{
				Type:     "object",
				Required: []string{"name", "fields"},
				Properties: map[string]*jsonschema.Schema{
					"name":   {Type: "string", MinLength: ptr(1)},
					"fields": {Type: "array", MinItems: ptr(1), Items: &jsonschema.Schema{Type: "string"}},
					"unique": {Type: "boolean"},
				},
			},
		},
	},
}

var resolvedContractSchema *jsonschema.Resolved

func init() {
	resolved, err := contractSchema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("schemacontract: invalid contract meta-schema: %v", err))
	}
	resolvedContractSchema = resolved
}

var kindNames = map[string]icykv.FieldKindTag{
	"unit":      icykv.FieldKindUnit,
	"bool":      icykv.FieldKindBool,
	"int":       icykv.FieldKindInt,
	"uint":      icykv.FieldKindUint,
	"decimal":   icykv.FieldKindDecimal,
	"float":     icykv.FieldKindFloat,
	"date":      icykv.FieldKindDate,
	"duration":  icykv.FieldKindDuration,
	"timestamp": icykv.FieldKindTimestamp,
	"text":      icykv.FieldKindText,
	"ulid":      icykv.FieldKindUlid,
	"principal": icykv.FieldKindPrincipal,
	"account":   icykv.FieldKindAccount,
	"subaccount": icykv.FieldKindSubaccount,
	"blob":      icykv.FieldKindBlob,
	"list":      icykv.FieldKindList,
	"set":       icykv.FieldKindSet,
	"map":       icykv.FieldKindMap,
	"enum":      icykv.FieldKindEnum,
	"relation":  icykv.FieldKindRelation,
}

func kindNamesAsAny() []any {
	out := make([]any, 0, len(kindNames))
	for name := range kindNames {
		out = append(out, name)
	}
	return out
}

// document is the decoded shape of a contract JSON document, one level
// below icykv.EntityModel — it still carries string kind names and
// nested field documents instead of resolved FieldKind values.
type document struct {
	Path       string             `json:"path"`
	Fields     []fieldDocument    `json:"fields"`
	PrimaryKey string             `json:"primaryKey"`
	Indexes    []indexDocument    `json:"indexes"`
}

type fieldDocument struct {
	Name            string         `json:"name"`
	Kind            string         `json:"kind"`
	Elem            *fieldDocument `json:"elem"`
	MapValue        *fieldDocument `json:"mapValue"`
	EnumPath        string         `json:"enumPath"`
	RelationTarget  string         `json:"relationTarget"`
	RelationCascade bool           `json:"relationCascade"`
}

type indexDocument struct {
	Name   string   `json:"name"`
	Fields []string `json:"fields"`
	Unique bool     `json:"unique"`
}

// ValidateDocument validates raw against the contract meta-schema
// without decoding it into an EntityModel.
func ValidateDocument(raw []byte) error {
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("schemacontract: invalid json: %w", err)
	}
	if err := resolvedContractSchema.Validate(instance); err != nil {
		return fmt.Errorf("schemacontract: schema validation failed: %w", err)
	}
	return nil
}

// BuildEntityModel validates raw against the contract meta-schema, then
// decodes it into an icykv.EntityModel with slot indexes assigned in
// declaration order (spec.md's "Resolve to a stable FieldSlot{index,
// kind} once at setup").
func BuildEntityModel(raw []byte) (icykv.EntityModel, error) {
	if err := ValidateDocument(raw); err != nil {
		return icykv.EntityModel{}, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return icykv.EntityModel{}, fmt.Errorf("schemacontract: decode document: %w", err)
	}

	slots := make([]icykv.FieldSlot, len(doc.Fields))
	byName := make(map[string]icykv.FieldSlot, len(doc.Fields))
	for i, f := range doc.Fields {
		kind, err := toFieldKind(f)
		if err != nil {
			return icykv.EntityModel{}, err
		}
		slot := icykv.FieldSlot{Name: f.Name, Index: i, Kind: kind}
		slots[i] = slot
		byName[f.Name] = slot
	}

	pk, ok := byName[doc.PrimaryKey]
	if !ok {
		return icykv.EntityModel{}, fmt.Errorf("schemacontract: primaryKey %q names no declared field", doc.PrimaryKey)
	}

	indexes := make([]icykv.IndexModel, len(doc.Indexes))
	for i, idx := range doc.Indexes {
		for _, fieldName := range idx.Fields {
			if _, ok := byName[fieldName]; !ok {
				return icykv.EntityModel{}, fmt.Errorf("schemacontract: index %q references undeclared field %q", idx.Name, fieldName)
			}
		}
		indexes[i] = icykv.IndexModel{Name: idx.Name, Fields: idx.Fields, Unique: idx.Unique}
	}

	return icykv.EntityModel{
		Path:       doc.Path,
		Fields:     slots,
		PrimaryKey: pk,
		Indexes:    indexes,
	}, nil
}

func toFieldKind(f fieldDocument) (icykv.FieldKind, error) {
	tag, ok := kindNames[f.Kind]
	if !ok {
		return icykv.FieldKind{}, fmt.Errorf("schemacontract: field %q has unknown kind %q", f.Name, f.Kind)
	}
	kind := icykv.FieldKind{
		Tag:             tag,
		EnumPath:        f.EnumPath,
		RelationTarget:  f.RelationTarget,
		RelationCascade: f.RelationCascade,
	}
	if f.Elem != nil {
		elem, err := toFieldKind(*f.Elem)
		if err != nil {
			return icykv.FieldKind{}, err
		}
		kind.Elem = &elem
	}
	if f.MapValue != nil {
		mv, err := toFieldKind(*f.MapValue)
		if err != nil {
			return icykv.FieldKind{}, err
		}
		kind.MapValue = &mv
	}
	return kind, nil
}
