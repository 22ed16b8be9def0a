package query

import (
	"fmt"
	"strings"

	"github.com/tealdb/tealdb/internal/types"
)

// ColumnInfo names and types one output column of a result.
type ColumnInfo struct {
	Name string
	Type types.Type
}

// Result is what every executed statement produces: either a data matrix
// with column metadata or an error message. The zero value is an empty
// successful result.
type Result struct {
	err     string
	columns []ColumnInfo
	data    [][]types.Value
}

func NewEmptyResult() Result { return Result{} }

func NewErrorResult(err error) Result { return Result{err: err.Error()} }

func NewDataResult(data [][]types.Value, columns []ColumnInfo) Result {
	return Result{data: data, columns: columns}
}

// countResult is the single-cell shape used by insert/update/delete.
func countResult(name string, n int32) Result {
	return NewDataResult(
		[][]types.Value{{types.NewInt(n)}},
		[]ColumnInfo{{Name: name, Type: types.TypeInt32}},
	)
}

func (r Result) Ok() bool { return r.err == "" }

func (r Result) Err() string { return r.err }

// Data is the row-major result matrix; callers must treat it as read-only.
func (r Result) Data() [][]types.Value { return r.data }

func (r Result) Columns() []ColumnInfo { return r.columns }

// ResultRow is a name-keyed view of one result row; columns that were NULL
// are absent.
type ResultRow map[string]types.Value

func (rr ResultRow) Get(column string) (types.Value, bool) {
	v, ok := rr[column]
	return v, ok
}

// Rows yields one name-keyed view per data row, for range iteration.
func (r Result) Rows() []ResultRow {
	out := make([]ResultRow, 0, len(r.data))
	for _, row := range r.data {
		rr := ResultRow{}
		for i, v := range row {
			if i < len(r.columns) && !v.IsNull() {
				rr[r.columns[i].Name] = v
			}
		}
		out = append(out, rr)
	}
	return out
}

// String renders the boxed debug table: a header row of column names, a
// row of types, then the data with NULL spelled out.
func (r Result) String() string {
	if !r.Ok() {
		return "Error: " + r.err
	}

	widths := make([]int, len(r.columns))
	for i, col := range r.columns {
		widths[i] = len(col.Name)
		if n := len(col.Type.String()); n > widths[i] {
			widths[i] = n
		}
		for _, row := range r.data {
			if i < len(row) {
				if n := len(cellString(row[i])); n > widths[i] {
					widths[i] = n
				}
			}
		}
		widths[i] += 2
	}

	var sb strings.Builder
	separator := func() {
		for _, w := range widths {
			sb.WriteString("+")
			sb.WriteString(strings.Repeat("-", w+2))
		}
		sb.WriteString("+\n")
	}

	separator()
	for i, col := range r.columns {
		fmt.Fprintf(&sb, "| %-*s ", widths[i], col.Name)
	}
	sb.WriteString("|\n")
	for i, col := range r.columns {
		fmt.Fprintf(&sb, "| %-*s ", widths[i], col.Type.String())
	}
	sb.WriteString("|\n")
	separator()

	for _, row := range r.data {
		for i := range r.columns {
			cell := "NULL"
			if i < len(row) {
				cell = cellString(row[i])
			}
			fmt.Fprintf(&sb, "| %-*s ", widths[i], cell)
		}
		sb.WriteString("|\n")
	}
	separator()
	return sb.String()
}

func cellString(v types.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	return v.String()
}
