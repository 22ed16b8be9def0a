package builder

import (
	"fmt"
	"strings"

	"github.com/tealdb/tealdb/pkg"
)

// Catalog is the table registry. Creation order is preserved so that
// snapshots and dumps come out deterministic.
type Catalog struct {
	tables *pkg.InsertSortMap[string, *Table]
}

func NewCatalog() *Catalog {
	return &Catalog{tables: pkg.NewInsertSortMap[string, *Table]()}
}

func (c *Catalog) CreateTable(name string, columns []Column) (*Table, error) {
	if c.tables.Has(name) {
		return nil, fmt.Errorf("table already exists: %s", name)
	}
	table, err := NewTable(name, columns)
	if err != nil {
		return nil, err
	}
	c.tables.Push(name, table)
	return table, nil
}

func (c *Catalog) DropTable(name string) error {
	if !c.tables.Has(name) {
		return fmt.Errorf("table not found: %s", name)
	}
	c.tables.Delete(name)
	return nil
}

func (c *Catalog) GetTable(name string) (*Table, error) {
	if !c.tables.Has(name) {
		return nil, fmt.Errorf("table not found: %s", name)
	}
	return c.tables.Get(name), nil
}

func (c *Catalog) HasTable(name string) bool { return c.tables.Has(name) }

// TableNames returns the names in creation order.
func (c *Catalog) TableNames() []string {
	return c.tables.Keys()
}

// Replace swaps the whole registry for another catalog's contents; used by
// snapshot load.
func (c *Catalog) Replace(other *Catalog) {
	c.tables = other.tables
}

func (c *Catalog) String() string {
	var sb strings.Builder
	sb.WriteString("Database:\n")
	for _, name := range c.TableNames() {
		sb.WriteString(c.tables.Get(name).String())
		sb.WriteString("\n")
	}
	return sb.String()
}
