package builder

import (
	"fmt"
	"strings"

	"github.com/tealdb/tealdb/internal/types"
)

type ColumnAttribute int

const (
	AttrKey ColumnAttribute = iota
	AttrUnique
	AttrAutoIncrement
)

func (a ColumnAttribute) String() string {
	switch a {
	case AttrKey:
		return "key"
	case AttrUnique:
		return "unique"
	case AttrAutoIncrement:
		return "autoincrement"
	default:
		return "unknown"
	}
}

func ParseColumnAttribute(s string) (ColumnAttribute, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "key":
		return AttrKey, nil
	case "unique":
		return AttrUnique, nil
	case "autoincrement":
		return AttrAutoIncrement, nil
	default:
		return 0, fmt.Errorf("unknown column attribute: %s", s)
	}
}

// Column is one slot of a table schema. Default is the null value when the
// column has no default.
type Column struct {
	Name       string
	Type       types.DataType
	Attributes []ColumnAttribute
	Default    types.Value
}

// column local rules:
// - name must be non-empty
// - autoincrement requires int32
// - a default must match the column type and fit the declared size
func NewColumn(name string, dt types.DataType, attrs []ColumnAttribute, def types.Value) (Column, error) {
	if name == "" {
		return Column{}, fmt.Errorf("column name cannot be empty")
	}

	col := Column{Name: name, Type: dt, Attributes: attrs, Default: def}

	if col.HasAttribute(AttrAutoIncrement) && dt.Kind != types.TypeInt32 {
		return Column{}, fmt.Errorf("autoincrement attribute can only be applied to int32 columns")
	}

	if !def.IsNull() {
		if def.Kind() != dt.Kind {
			return Column{}, fmt.Errorf("default value type does not match column type for %q", name)
		}
		if dt.IsSized() {
			n, err := def.Length()
			if err != nil {
				return Column{}, err
			}
			if n > dt.Size {
				return Column{}, fmt.Errorf("default value for column %q exceeds defined size of %d", name, dt.Size)
			}
		}
	}

	return col, nil
}

func (c Column) HasAttribute(attr ColumnAttribute) bool {
	for _, a := range c.Attributes {
		if a == attr {
			return true
		}
	}
	return false
}

func (c Column) String() string {
	var sb strings.Builder
	if len(c.Attributes) > 0 {
		sb.WriteString("{")
		for i, a := range c.Attributes {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(a.String())
		}
		sb.WriteString("} ")
	}
	sb.WriteString(c.Name)
	sb.WriteString(": ")
	sb.WriteString(c.Type.String())
	if !c.Default.IsNull() {
		sb.WriteString(" = ")
		sb.WriteString(c.Default.String())
	}
	return sb.String()
}
