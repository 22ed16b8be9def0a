// Package db is the embeddable façade over the engine: it owns the
// catalog, wires the query parser and executor together, and funnels
// every engine failure into the query result.
package db

import (
	"fmt"
	"os"

	"github.com/tealdb/tealdb/internal/builder"
	"github.com/tealdb/tealdb/internal/parser"
	"github.com/tealdb/tealdb/internal/query"
)

type Database struct {
	catalog  *builder.Catalog
	parser   *parser.QueryParser
	executor query.Executor
}

func NewDatabase() *Database {
	catalog := builder.NewCatalog()
	qp := parser.NewQueryParser()
	qp.SetCatalog(catalog)
	return &Database{catalog: catalog, parser: qp}
}

// Execute parses and runs one statement. It never fails outward: every
// error, including a panic below, comes back inside the result.
func (d *Database) Execute(text string) (result query.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = query.NewErrorResult(fmt.Errorf("internal error: %v", r))
		}
	}()

	pq, err := d.parser.Parse(text)
	if err != nil {
		return query.NewErrorResult(err)
	}
	return d.executor.Execute(pq, d.catalog)
}

// SaveToFile writes the snapshot document. Unlike Execute, save and load
// report failures to the caller directly.
func (d *Database) SaveToFile(path string) error {
	data, err := builder.EncodeSnapshot(d.catalog)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to open file for saving: %w", err)
	}
	return nil
}

// LoadFromFile replaces the catalog with the document's contents. Indices
// are not part of the document; rebuild them with create index if needed.
func (d *Database) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to open file for loading: %w", err)
	}
	catalog, err := builder.DecodeSnapshot(data)
	if err != nil {
		return err
	}
	d.catalog.Replace(catalog)
	return nil
}

// Programmatic surface mirroring the query statements.

func (d *Database) CreateTable(name string, columns []builder.Column) error {
	_, err := d.catalog.CreateTable(name, columns)
	return err
}

func (d *Database) DropTable(name string) error { return d.catalog.DropTable(name) }

func (d *Database) GetTable(name string) (*builder.Table, error) {
	return d.catalog.GetTable(name)
}

func (d *Database) HasTable(name string) bool { return d.catalog.HasTable(name) }

func (d *Database) InsertRow(table_name string, values []builder.Value) (builder.RowID, error) {
	table, err := d.catalog.GetTable(table_name)
	if err != nil {
		return 0, err
	}
	return table.InsertRow(values)
}

func (d *Database) DeleteRow(table_name string, id builder.RowID) error {
	table, err := d.catalog.GetTable(table_name)
	if err != nil {
		return err
	}
	return table.DeleteRow(id)
}

func (d *Database) GetRow(table_name string, id builder.RowID) (*builder.Row, error) {
	table, err := d.catalog.GetTable(table_name)
	if err != nil {
		return nil, err
	}
	return table.GetRow(id)
}

func (d *Database) String() string { return d.catalog.String() }
