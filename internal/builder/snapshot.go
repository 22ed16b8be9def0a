package builder

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/tealdb/tealdb/internal/types"
)

// Snapshot document shapes. Scalars are encoded natively except bytes,
// which travel as "0x" + upper-hex; defaults are stored in their canonical
// rendered form.
type snapshotDoc struct {
	Tables *[]tableDoc `json:"tables"`
}

type tableDoc struct {
	Name    string      `json:"name"`
	Columns []columnDoc `json:"columns"`
	Rows    []rowDoc    `json:"rows"`
}

type columnDoc struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Attributes []string `json:"attributes"`
	Default    string   `json:"default,omitempty"`
}

type rowDoc struct {
	ID     RowID `json:"id"`
	Values []any `json:"values"`
}

// EncodeSnapshot renders the whole catalog as the portable text document.
func EncodeSnapshot(c *Catalog) ([]byte, error) {
	tables := []tableDoc{}
	for _, name := range c.TableNames() {
		table, err := c.GetTable(name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, encodeTable(table))
	}
	doc := snapshotDoc{Tables: &tables}
	return json.MarshalIndent(doc, "", "    ")
}

func encodeTable(t *Table) tableDoc {
	doc := tableDoc{Name: t.Name(), Columns: []columnDoc{}, Rows: []rowDoc{}}

	for _, column := range t.Columns() {
		col := columnDoc{
			Name:       column.Name,
			Type:       column.Type.String(),
			Attributes: []string{},
		}
		for _, attr := range column.Attributes {
			col.Attributes = append(col.Attributes, attr.String())
		}
		if !column.Default.IsNull() {
			col.Default = column.Default.String()
		}
		doc.Columns = append(doc.Columns, col)
	}

	for _, row := range t.Scan() {
		r := rowDoc{ID: row.ID, Values: []any{}}
		for _, v := range row.Values {
			r.Values = append(r.Values, encodeScalar(v))
		}
		doc.Rows = append(doc.Rows, r)
	}

	return doc
}

func encodeScalar(v Value) any {
	switch v.Kind() {
	case types.TypeInt32:
		n, _ := v.AsInt()
		return n
	case types.TypeBool:
		b, _ := v.AsBool()
		return b
	case types.TypeString:
		s, _ := v.AsString()
		return s
	case types.TypeBytes:
		b, _ := v.AsBytes()
		return types.EncodeHex(b)
	default:
		return nil
	}
}

// DecodeSnapshot rebuilds a catalog from the document. Row ids are
// honoured; indices are not part of the document and are not rebuilt.
func DecodeSnapshot(data []byte) (*Catalog, error) {
	var doc snapshotDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid database file format: %w", err)
	}
	if doc.Tables == nil {
		return nil, fmt.Errorf("invalid database file format: missing tables")
	}

	catalog := NewCatalog()
	for _, td := range *doc.Tables {
		table, err := decodeTable(td)
		if err != nil {
			return nil, err
		}
		if catalog.HasTable(table.Name()) {
			return nil, fmt.Errorf("duplicate table in snapshot: %s", table.Name())
		}
		catalog.tables.Push(table.Name(), table)
	}
	return catalog, nil
}

func decodeTable(doc tableDoc) (*Table, error) {
	columns := make([]Column, 0, len(doc.Columns))
	for _, cd := range doc.Columns {
		dt, err := types.ParseDataType(cd.Type)
		if err != nil {
			return nil, err
		}

		attrs := []ColumnAttribute{}
		for _, a := range cd.Attributes {
			attr, err := ParseColumnAttribute(a)
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, attr)
		}

		def := types.Null()
		if cd.Default != "" {
			def, err = types.ParseRendered(dt, cd.Default)
			if err != nil {
				return nil, fmt.Errorf("invalid default for column %q: %w", cd.Name, err)
			}
		}

		column, err := NewColumn(cd.Name, dt, attrs, def)
		if err != nil {
			return nil, err
		}
		columns = append(columns, column)
	}

	table, err := NewTable(doc.Name, columns)
	if err != nil {
		return nil, err
	}

	for _, rd := range doc.Rows {
		if len(rd.Values) != len(columns) {
			return nil, fmt.Errorf("row %d of table %s has %d values, want %d",
				rd.ID, doc.Name, len(rd.Values), len(columns))
		}
		values := make([]Value, len(columns))
		for i, raw := range rd.Values {
			v, err := decodeScalar(columns[i].Type, raw)
			if err != nil {
				return nil, fmt.Errorf("row %d of table %s: %w", rd.ID, doc.Name, err)
			}
			values[i] = v
		}
		if _, err := table.InsertRowWithID(values, rd.ID); err != nil {
			return nil, err
		}
	}

	return table, nil
}

func decodeScalar(dt types.DataType, raw any) (Value, error) {
	if raw == nil {
		return types.Null(), nil
	}
	switch dt.Kind {
	case types.TypeInt32:
		// json numbers always decode as float64
		f, ok := raw.(float64)
		if !ok {
			return Value{}, fmt.Errorf("expected number for %s value", dt)
		}
		n := int64(f)
		if float64(n) != f || n > math.MaxInt32 || n < math.MinInt32 {
			return Value{}, fmt.Errorf("integer value out of range: %v", raw)
		}
		return types.NewInt(int32(n)), nil
	case types.TypeBool:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, fmt.Errorf("expected bool for %s value", dt)
		}
		return types.NewBool(b), nil
	case types.TypeString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected string for %s value", dt)
		}
		return types.NewString(s), nil
	case types.TypeBytes:
		s, ok := raw.(string)
		if !ok {
			return Value{}, fmt.Errorf("expected hex string for %s value", dt)
		}
		b, err := types.DecodeHex(s)
		if err != nil {
			return Value{}, err
		}
		return types.NewBytes(b), nil
	default:
		return Value{}, fmt.Errorf("unknown column type in snapshot")
	}
}
