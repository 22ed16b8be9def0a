package builder

import "github.com/tealdb/tealdb/internal/types"

// Value is re-exported so table code reads naturally.
type Value = types.Value

// RowID is the table-assigned monotone identity of a row.
type RowID int32

// Row holds one value slot per column of the owning table; NULL slots hold
// the null Value.
type Row struct {
	ID     RowID
	Values []Value
}

// CloneValues copies the value slice so callers can stage an update
// without touching the stored row.
func (r *Row) CloneValues() []Value {
	out := make([]Value, len(r.Values))
	copy(out, r.Values)
	return out
}
