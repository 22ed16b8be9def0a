package builder_test

import (
	"encoding/json"
	"strings"
	"testing"

	. "github.com/tealdb/tealdb/internal/builder"
	"github.com/tealdb/tealdb/internal/types"
	"gotest.tools/assert"
)

func newSnapshotCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog := NewCatalog()

	users, err := catalog.CreateTable("users", []Column{
		mustColumn(t, "id", intType(), []ColumnAttribute{AttrKey, AttrAutoIncrement}, types.Null()),
		mustColumn(t, "name", strType(16), []ColumnAttribute{AttrUnique}, types.Null()),
		mustColumn(t, "token", bytesType(4), nil, types.Null()),
		mustColumn(t, "active", types.DataType{Kind: types.TypeBool}, nil, types.NewBool(true)),
	})
	assert.NilError(t, err)

	_, err = users.InsertRow([]Value{types.Null(), types.NewString("ada"), types.NewBytes([]byte{0xDE, 0xAD})})
	assert.NilError(t, err)
	_, err = users.InsertRow([]Value{types.Null(), types.NewString("bob"), types.Null(), types.NewBool(false)})
	assert.NilError(t, err)

	_, err = catalog.CreateTable("empty", []Column{
		mustColumn(t, "x", intType(), nil, types.Null()),
	})
	assert.NilError(t, err)

	return catalog
}

func TestSnapshotRoundTrip(t *testing.T) {
	catalog := newSnapshotCatalog(t)

	data, err := EncodeSnapshot(catalog)
	assert.NilError(t, err)

	loaded, err := DecodeSnapshot(data)
	assert.NilError(t, err)

	assert.DeepEqual(t, loaded.TableNames(), []string{"users", "empty"})

	users, err := loaded.GetTable("users")
	assert.NilError(t, err)

	t.Run("Schema", func(t *testing.T) {
		columns := users.Columns()
		assert.Equal(t, len(columns), 4)
		assert.Assert(t, columns[0].HasAttribute(AttrKey))
		assert.Assert(t, columns[0].HasAttribute(AttrAutoIncrement))
		assert.Assert(t, columns[1].HasAttribute(AttrUnique))
		assert.Equal(t, columns[2].Type.String(), "bytes[4]")

		def, err := columns[3].Default.AsBool()
		assert.NilError(t, err)
		assert.Equal(t, def, true)
	})

	t.Run("RowsAndIDs", func(t *testing.T) {
		original, err := catalog.GetTable("users")
		assert.NilError(t, err)
		want := original.Scan()
		got := users.Scan()
		assert.Equal(t, len(got), len(want))
		for i := range want {
			assert.Equal(t, got[i].ID, want[i].ID)
			for j := range want[i].Values {
				a, b := want[i].Values[j], got[i].Values[j]
				assert.Equal(t, a.IsNull(), b.IsNull())
				if !a.IsNull() {
					assert.Assert(t, types.Equal(a, b))
				}
			}
		}
		assert.Equal(t, users.NextRowID(), original.NextRowID())
	})

	t.Run("IndicesAreNotRestored", func(t *testing.T) {
		assert.Equal(t, len(users.Indexes()), 0)
	})
}

func TestSnapshotDocumentShape(t *testing.T) {
	catalog := newSnapshotCatalog(t)
	data, err := EncodeSnapshot(catalog)
	assert.NilError(t, err)

	var doc map[string]any
	assert.NilError(t, json.Unmarshal(data, &doc))

	tables, ok := doc["tables"].([]any)
	assert.Assert(t, ok, "document must carry a tables array")
	assert.Equal(t, len(tables), 2)

	users := tables[0].(map[string]any)
	assert.Equal(t, users["name"], "users")

	rows := users["rows"].([]any)
	first := rows[0].(map[string]any)
	values := first["values"].([]any)
	// bytes travel as 0x upper-hex strings, NULL as json null
	assert.Equal(t, values[2], "0xDEAD")
	second := rows[1].(map[string]any)
	assert.Assert(t, second["values"].([]any)[2] == nil)

	// defaults are stored in rendered form
	columns := users["columns"].([]any)
	active := columns[3].(map[string]any)
	assert.Equal(t, active["default"], "true")
	assert.Equal(t, active["type"], "bool")
}

func TestSnapshotDecodeErrors(t *testing.T) {
	cases := []struct {
		name, doc, want string
	}{
		{"NotJSON", "not json", "invalid database file format"},
		{"MissingTables", `{"other": 1}`, "missing tables"},
		{"BadType", `{"tables":[{"name":"t","columns":[{"name":"a","type":"float","attributes":[]}],"rows":[]}]}`, "unknown column type"},
		{"BadAttr", `{"tables":[{"name":"t","columns":[{"name":"a","type":"int32","attributes":["primary"]}],"rows":[]}]}`, "unknown column attribute"},
		{"ValueCountMismatch", `{"tables":[{"name":"t","columns":[{"name":"a","type":"int32","attributes":[]}],"rows":[{"id":1,"values":[1,2]}]}]}`, "has 2 values"},
		{"WrongScalar", `{"tables":[{"name":"t","columns":[{"name":"a","type":"int32","attributes":[]}],"rows":[{"id":1,"values":["x"]}]}]}`, "expected number"},
		{"BadHex", `{"tables":[{"name":"t","columns":[{"name":"a","type":"bytes[2]","attributes":[]}],"rows":[{"id":1,"values":["zz"]}]}]}`, "invalid bytes"},
		{"IntOutOfRange", `{"tables":[{"name":"t","columns":[{"name":"a","type":"int32","attributes":[]}],"rows":[{"id":1,"values":[3000000000]}]}]}`, "out of range"},
		{"DuplicateTable", `{"tables":[{"name":"t","columns":[{"name":"a","type":"int32","attributes":[]}],"rows":[]},{"name":"t","columns":[{"name":"a","type":"int32","attributes":[]}],"rows":[]}]}`, "duplicate table"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tc.doc))
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestSnapshotDeterministic(t *testing.T) {
	catalog := newSnapshotCatalog(t)
	a, err := EncodeSnapshot(catalog)
	assert.NilError(t, err)
	b, err := EncodeSnapshot(catalog)
	assert.NilError(t, err)
	assert.Equal(t, strings.TrimSpace(string(a)), strings.TrimSpace(string(b)))
}
