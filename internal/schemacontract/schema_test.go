package schemacontract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/icydb/icykv"
)

const validDoc = `{
	"path": "orders",
	"fields": [
		{"name": "id", "kind": "uint"},
		{"name": "total", "kind": "decimal"},
		{"name": "tags", "kind": "set", "elem": {"name": "tag", "kind": "text"}}
	],
	"primaryKey": "id",
	"indexes": [
		{"name": "by_total", "fields": ["total"], "unique": false}
	]
}`

func TestBuildEntityModelValid(t *testing.T) {
	model, err := BuildEntityModel([]byte(validDoc))
	require.NoError(t, err)
	require.Equal(t, "orders", model.Path)
	require.Len(t, model.Fields, 3)
	require.Equal(t, icykv.FieldKindUint, model.PrimaryKey.Kind.Tag)
	require.Equal(t, 0, model.PrimaryKey.Index)

	tags, ok := model.FieldByName("tags")
	require.True(t, ok)
	require.Equal(t, icykv.FieldKindSet, tags.Kind.Tag)
	require.NotNil(t, tags.Kind.Elem)
	require.Equal(t, icykv.FieldKindText, tags.Kind.Elem.Tag)

	idx, ok := model.IndexByName("by_total")
	require.True(t, ok)
	require.Equal(t, []string{"total"}, idx.Fields)
}

func TestBuildEntityModelRejectsUnknownKind(t *testing.T) {
	doc := `{"path":"x","fields":[{"name":"a","kind":"not_a_kind"}],"primaryKey":"a"}`
	_, err := BuildEntityModel([]byte(doc))
	require.Error(t, err)
}

func TestBuildEntityModelRejectsMissingPrimaryKeyField(t *testing.T) {
	doc := `{"path":"x","fields":[{"name":"a","kind":"text"}],"primaryKey":"b"}`
	_, err := BuildEntityModel([]byte(doc))
	require.Error(t, err)
}

func TestBuildEntityModelRejectsMissingRequiredProperty(t *testing.T) {
	doc := `{"fields":[{"name":"a","kind":"text"}],"primaryKey":"a"}`
	_, err := BuildEntityModel([]byte(doc))
	require.Error(t, err)
}

func TestBuildEntityModelRejectsIndexOnUndeclaredField(t *testing.T) {
	doc := `{"path":"x","fields":[{"name":"a","kind":"text"}],"primaryKey":"a","indexes":[{"name":"bad","fields":["missing"]}]}`
	_, err := BuildEntityModel([]byte(doc))
	require.Error(t, err)
}
