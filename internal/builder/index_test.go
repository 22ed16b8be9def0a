package builder_test

import (
	"testing"

	. "github.com/tealdb/tealdb/internal/builder"
	"github.com/tealdb/tealdb/internal/types"
	"gotest.tools/assert"
)

// events: {key, autoincrement} id, kind string[8], level int32 (nullable)
func newEventsTable(t *testing.T) *Table {
	t.Helper()
	table, err := NewTable("events", []Column{
		mustColumn(t, "id", intType(), []ColumnAttribute{AttrKey, AttrAutoIncrement}, types.Null()),
		mustColumn(t, "kind", strType(8), nil, types.Null()),
		mustColumn(t, "level", intType(), nil, types.Null()),
	})
	assert.NilError(t, err)
	return table
}

func insertEvent(t *testing.T, table *Table, kind string, level types.Value) RowID {
	t.Helper()
	id, err := table.InsertRow([]Value{types.Null(), types.NewString(kind), level})
	assert.NilError(t, err)
	return id
}

func TestAddIndex(t *testing.T) {
	t.Run("OrderedNeedsSingleColumn", func(t *testing.T) {
		table := newEventsTable(t)
		_, err := table.AddIndex(IndexOrdered, []string{"kind", "level"})
		assert.ErrorContains(t, err, "single column")
	})

	t.Run("UnknownColumn", func(t *testing.T) {
		table := newEventsTable(t)
		_, err := table.AddIndex(IndexOrdered, []string{"nope"})
		assert.ErrorContains(t, err, "column not found")
	})

	t.Run("NullInExistingRowFailsBuild", func(t *testing.T) {
		table := newEventsTable(t)
		insertEvent(t, table, "warn", types.Null())
		_, err := table.AddIndex(IndexOrdered, []string{"level"})
		assert.ErrorContains(t, err, "NULL")
		// the failed index must not have been attached
		assert.Equal(t, len(table.Indexes()), 0)
	})
}

func TestUnorderedIndex(t *testing.T) {
	table := newEventsTable(t)
	a := insertEvent(t, table, "warn", types.NewInt(1))
	b := insertEvent(t, table, "warn", types.NewInt(1))
	insertEvent(t, table, "error", types.NewInt(2))

	idx, err := table.AddIndex(IndexUnordered, []string{"kind", "level"})
	assert.NilError(t, err)

	t.Run("CompositeSearch", func(t *testing.T) {
		ids := idx.SearchUnordered(map[string]types.Value{
			"kind": types.NewString("warn"), "level": types.NewInt(1),
		})
		assert.DeepEqual(t, ids, []RowID{a, b})
	})

	t.Run("MissingBindingColumnFindsNothing", func(t *testing.T) {
		ids := idx.SearchUnordered(map[string]types.Value{"kind": types.NewString("warn")})
		assert.Equal(t, len(ids), 0)
	})

	t.Run("RenderedKeysKeepTypesApart", func(t *testing.T) {
		// int 1 and string "1" render differently, so they never collide
		ids := idx.SearchUnordered(map[string]types.Value{
			"kind": types.NewString("warn"), "level": types.NewString("1"),
		})
		assert.Equal(t, len(ids), 0)
	})
}

func TestOrderedIndex(t *testing.T) {
	table := newEventsTable(t)
	insertEvent(t, table, "a", types.NewInt(1))
	insertEvent(t, table, "c", types.NewInt(2))
	insertEvent(t, table, "b", types.NewInt(3))

	idx, err := table.AddIndex(IndexOrdered, []string{"kind"})
	assert.NilError(t, err)

	lower := types.NewString("a")
	upper := types.NewString("b")

	t.Run("FullRange", func(t *testing.T) {
		ids := idx.SearchOrdered("kind", nil, false, nil, false)
		// rendered-key order: "a", "b", "c"
		assert.DeepEqual(t, ids, []RowID{1, 3, 2})
	})

	t.Run("Bounded", func(t *testing.T) {
		ids := idx.SearchOrdered("kind", &lower, true, &upper, true)
		assert.DeepEqual(t, ids, []RowID{1, 3})

		ids = idx.SearchOrdered("kind", &lower, false, &upper, false)
		assert.Equal(t, len(ids), 0)

		ids = idx.SearchOrdered("kind", &upper, true, nil, false)
		assert.DeepEqual(t, ids, []RowID{3, 2})
	})

	t.Run("WrongColumn", func(t *testing.T) {
		ids := idx.SearchOrdered("level", nil, false, nil, false)
		assert.Equal(t, len(ids), 0)
	})
}

// Index maintenance: every mutation keeps the indices keyed by the rows'
// current projections.
func TestIndexMaintenance(t *testing.T) {
	table := newEventsTable(t)
	a := insertEvent(t, table, "warn", types.NewInt(1))

	unordered, err := table.AddIndex(IndexUnordered, []string{"kind"})
	assert.NilError(t, err)
	ordered, err := table.AddIndex(IndexOrdered, []string{"kind"})
	assert.NilError(t, err)

	warn := map[string]types.Value{"kind": types.NewString("warn")}
	info := map[string]types.Value{"kind": types.NewString("info")}

	t.Run("InsertAddsKeys", func(t *testing.T) {
		b := insertEvent(t, table, "info", types.NewInt(2))
		assert.DeepEqual(t, unordered.SearchUnordered(info), []RowID{b})
		assert.DeepEqual(t, ordered.SearchOrdered("kind", nil, false, nil, false), []RowID{b, a})
	})

	t.Run("InsertWithNullIndexedColumnFails", func(t *testing.T) {
		before := table.RowCount()
		_, err := table.InsertRow([]Value{types.Null(), types.Null(), types.NewInt(1)})
		assert.ErrorContains(t, err, "NULL")
		assert.Equal(t, table.RowCount(), before)
	})

	t.Run("UpdateRekeys", func(t *testing.T) {
		row, err := table.GetRow(a)
		assert.NilError(t, err)
		values := row.CloneValues()
		values[1] = types.NewString("fatal")
		assert.NilError(t, table.UpdateRow(a, values))

		assert.Equal(t, len(unordered.SearchUnordered(warn)), 0)
		fatal := map[string]types.Value{"kind": types.NewString("fatal")}
		assert.DeepEqual(t, unordered.SearchUnordered(fatal), []RowID{a})
	})

	t.Run("DeleteRemovesKeys", func(t *testing.T) {
		assert.NilError(t, table.DeleteRow(a))
		fatal := map[string]types.Value{"kind": types.NewString("fatal")}
		assert.Equal(t, len(unordered.SearchUnordered(fatal)), 0)
		assert.Equal(t, len(ordered.SearchOrdered("kind", nil, false, nil, false)), 1)
	})
}
