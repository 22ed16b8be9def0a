package builder

import (
	"fmt"
	"strings"

	"github.com/tealdb/tealdb/internal/types"
	sorted "github.com/tobshub/go-sortedmap"
)

// Table owns its rows and indices. Rows live in a map sorted by RowID;
// since ids are handed out monotonically this is also insertion order.
type Table struct {
	name    string
	columns []Column

	rows        *sorted.SortedMap[RowID, *Row]
	indexes     []*Index
	next_row_id RowID
}

func rowOrder(a, b *Row) bool { return a.ID < b.ID }

func NewTable(name string, columns []Column) (*Table, error) {
	if name == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("column definitions cannot be empty")
	}

	seen := map[string]bool{}
	for _, column := range columns {
		if seen[column.Name] {
			return nil, fmt.Errorf("duplicate column name: %s", column.Name)
		}
		seen[column.Name] = true
	}

	return &Table{
		name:        name,
		columns:     columns,
		rows:        sorted.New[RowID, *Row](0, rowOrder),
		next_row_id: 1,
	}, nil
}

func (t *Table) Name() string { return t.name }

func (t *Table) Columns() []Column { return t.columns }

func (t *Table) NextRowID() RowID { return t.next_row_id }

func (t *Table) RowCount() int { return t.rows.Len() }

func (t *Table) HasColumn(name string) bool {
	_, err := t.ColumnIndex(name)
	return err == nil
}

func (t *Table) ColumnIndex(name string) (int, error) {
	for i, column := range t.columns {
		if column.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column not found: %s", name)
}

// Scan returns the rows in RowID order.
func (t *Table) Scan() []*Row {
	out := make([]*Row, 0, t.rows.Len())
	iter, err := t.rows.IterCh()
	if err != nil {
		return out
	}
	for rec := range iter.Records() {
		out = append(out, rec.Val)
	}
	return out
}

// Binding builds the name→value map used for expression evaluation and
// index keys; NULL columns are left out. A non-empty prefix qualifies the
// names as prefix.column.
func (t *Table) Binding(row *Row, prefix string) map[string]types.Value {
	binding := make(map[string]types.Value, len(t.columns))
	for i, column := range t.columns {
		if row.Values[i].IsNull() {
			continue
		}
		name := column.Name
		if prefix != "" {
			name = prefix + "." + name
		}
		binding[name] = row.Values[i]
	}
	return binding
}

// completeValues left-aligns the supplied values with the schema and fills
// the gaps: autoincrement slots get the id the row will take, defaulted
// slots their default, the rest stay NULL.
func (t *Table) completeValues(values []Value, id RowID) []Value {
	complete := make([]Value, len(t.columns))
	for i, column := range t.columns {
		if i < len(values) && !values[i].IsNull() {
			complete[i] = values[i]
			continue
		}
		switch {
		case column.HasAttribute(AttrAutoIncrement):
			complete[i] = types.NewInt(int32(id))
		case !column.Default.IsNull():
			complete[i] = column.Default
		}
	}
	return complete
}

// InsertRow validates and stores a new row, assigning the next RowID, and
// keeps every index in step. Returns the assigned id.
func (t *Table) InsertRow(values []Value) (RowID, error) {
	return t.insert(values, t.next_row_id)
}

// InsertRowWithID is the snapshot-reload path: the id is honoured and
// next_row_id is bumped past it.
func (t *Table) InsertRowWithID(values []Value, id RowID) (RowID, error) {
	if id <= 0 {
		return 0, fmt.Errorf("row id must be positive, got %d", id)
	}
	return t.insert(values, id)
}

func (t *Table) insert(values []Value, id RowID) (RowID, error) {
	if t.rows.Has(id) {
		return 0, fmt.Errorf("row id already in use: %d", id)
	}

	complete := t.completeValues(values, id)
	if err := t.validateValues(complete, 0); err != nil {
		return 0, err
	}

	row := &Row{ID: id, Values: complete}
	if err := t.checkIndexable(row); err != nil {
		return 0, err
	}

	t.rows.Insert(id, row)
	for _, idx := range t.indexes {
		// cannot fail: checkIndexable covered every index column
		idx.Add(id, t.Binding(row, ""))
	}

	if id >= t.next_row_id {
		t.next_row_id = id + 1
	}
	return id, nil
}

func (t *Table) GetRow(id RowID) (*Row, error) {
	row, ok := t.rows.Get(id)
	if !ok {
		return nil, fmt.Errorf("row id not found: %d", id)
	}
	return row, nil
}

func (t *Table) DeleteRow(id RowID) error {
	row, ok := t.rows.Get(id)
	if !ok {
		return fmt.Errorf("row id not found: %d", id)
	}
	binding := t.Binding(row, "")
	for _, idx := range t.indexes {
		idx.Remove(id, binding)
	}
	t.rows.Delete(id)
	return nil
}

// UpdateRow replaces the row's values after running the update-time
// validation, re-keying every index from the old projection to the new.
func (t *Table) UpdateRow(id RowID, values []Value) error {
	row, ok := t.rows.Get(id)
	if !ok {
		return fmt.Errorf("row id not found: %d", id)
	}
	if err := t.ValidateRowUpdate(values, id); err != nil {
		return err
	}

	staged := &Row{ID: id, Values: values}
	if err := t.checkIndexable(staged); err != nil {
		return err
	}

	old_binding := t.Binding(row, "")
	for _, idx := range t.indexes {
		idx.Remove(id, old_binding)
	}
	row.Values = values
	for _, idx := range t.indexes {
		idx.Add(id, t.Binding(row, ""))
	}
	return nil
}

// AddIndex builds a new index over the current rows. A NULL in any indexed
// column of any existing row fails the build.
func (t *Table) AddIndex(kind IndexKind, columns []string) (*Index, error) {
	for _, col := range columns {
		if !t.HasColumn(col) {
			return nil, fmt.Errorf("column not found: %s", col)
		}
	}

	idx, err := NewIndex(kind, columns)
	if err != nil {
		return nil, err
	}

	for _, row := range t.Scan() {
		if err := idx.Add(row.ID, t.Binding(row, "")); err != nil {
			return nil, err
		}
	}

	t.indexes = append(t.indexes, idx)
	return idx, nil
}

func (t *Table) Indexes() []*Index { return t.indexes }

// checkIndexable rejects rows that would leave an indexed column NULL,
// keeping invariant: every index contains every row.
func (t *Table) checkIndexable(row *Row) error {
	if len(t.indexes) == 0 {
		return nil
	}
	binding := t.Binding(row, "")
	for _, idx := range t.indexes {
		for _, col := range idx.Columns() {
			if _, ok := binding[col]; !ok {
				return fmt.Errorf("cannot index NULL value in column %q", col)
			}
		}
	}
	return nil
}

// ValidateRow runs the insert-time checks: type and size per column,
// then key/unique uniqueness against all stored rows.
func (t *Table) ValidateRow(values []Value) error {
	return t.validateValues(values, 0)
}

// ValidateRowUpdate is the update variant; the row being updated is
// excluded from uniqueness comparisons.
func (t *Table) ValidateRowUpdate(values []Value, self RowID) error {
	return t.validateValues(values, self)
}

func (t *Table) validateValues(values []Value, self RowID) error {
	if len(values) > len(t.columns) {
		return fmt.Errorf("too many values provided for table %s", t.name)
	}

	for i, value := range values {
		if value.IsNull() {
			continue
		}
		column := t.columns[i]

		if value.Kind() != column.Type.Kind {
			return fmt.Errorf("type mismatch for column %q: expected %s, got %s",
				column.Name, column.Type, value.String())
		}

		if column.Type.IsSized() {
			n, err := value.Length()
			if err != nil {
				return err
			}
			if n > column.Type.Size {
				return fmt.Errorf("value for column %q exceeds maximum size of %d",
					column.Name, column.Type.Size)
			}
		}
	}

	for i, value := range values {
		if value.IsNull() {
			continue
		}
		column := t.columns[i]
		if !column.HasAttribute(AttrKey) && !column.HasAttribute(AttrUnique) {
			continue
		}
		for _, existing := range t.Scan() {
			if self != 0 && existing.ID == self {
				continue
			}
			if types.Equal(value, existing.Values[i]) {
				return fmt.Errorf("duplicate value for unique column %q", column.Name)
			}
		}
	}

	return nil
}

func (t *Table) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Table: %s\nColumns:\n", t.name)
	for _, column := range t.columns {
		fmt.Fprintf(&sb, "  %s\n", column.String())
	}
	sb.WriteString("Rows:\n")
	for _, row := range t.Scan() {
		fmt.Fprintf(&sb, "  RowID %d: ", row.ID)
		for i, v := range row.Values {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(v.String())
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
