package query

import (
	"fmt"

	"github.com/tealdb/tealdb/internal/builder"
	"github.com/tealdb/tealdb/internal/parser"
	"github.com/tealdb/tealdb/internal/types"
)

// Executor walks a plan record and drives the catalog. It holds no state
// of its own.
type Executor struct{}

func (Executor) Execute(pq *parser.ParsedQuery, catalog *builder.Catalog) Result {
	switch pq.Type {
	case parser.QueryCreateTable:
		return execCreateTable(pq, catalog)
	case parser.QueryCreateIndex:
		return execCreateIndex(pq, catalog)
	case parser.QueryInsert:
		return execInsert(pq, catalog)
	case parser.QuerySelect:
		return execSelect(pq, catalog)
	case parser.QueryUpdate:
		return execUpdate(pq, catalog)
	case parser.QueryDelete:
		return execDelete(pq, catalog)
	default:
		return NewErrorResult(fmt.Errorf("unsupported query type"))
	}
}

func execCreateTable(pq *parser.ParsedQuery, catalog *builder.Catalog) Result {
	if _, err := catalog.CreateTable(pq.TableName, pq.Columns); err != nil {
		return NewErrorResult(err)
	}
	return NewEmptyResult()
}

func execCreateIndex(pq *parser.ParsedQuery, catalog *builder.Catalog) Result {
	table, err := catalog.GetTable(pq.TableName)
	if err != nil {
		return NewErrorResult(err)
	}
	if _, err := table.AddIndex(pq.IndexKind, pq.IndexColumns); err != nil {
		return NewErrorResult(err)
	}
	return NewEmptyResult()
}

func execInsert(pq *parser.ParsedQuery, catalog *builder.Catalog) Result {
	table, err := catalog.GetTable(pq.TableName)
	if err != nil {
		return NewErrorResult(err)
	}
	id, err := table.InsertRow(pq.InsertValues)
	if err != nil {
		return NewErrorResult(err)
	}
	return countResult("id", int32(id))
}

// evalCondition evaluates an optional boolean clause against a binding; a
// nil expression matches everything.
func evalCondition(expr parser.Expression, binding parser.Binding, clause string) (bool, error) {
	if expr == nil {
		return true, nil
	}
	v, err := expr.Evaluate(binding)
	if err != nil {
		return false, err
	}
	b, err := v.AsBool()
	if err != nil {
		return false, fmt.Errorf("%s clause does not evaluate to a boolean", clause)
	}
	return b, nil
}

func selectColumns(items []parser.SelectItem) []ColumnInfo {
	columns := make([]ColumnInfo, len(items))
	for i, item := range items {
		columns[i] = ColumnInfo{Name: item.Alias, Type: item.Expression.StaticType()}
	}
	return columns
}

func evalSelectItems(items []parser.SelectItem, binding parser.Binding) ([]types.Value, error) {
	row := make([]types.Value, len(items))
	for i, item := range items {
		v, err := item.Expression.Evaluate(binding)
		if err != nil {
			return nil, fmt.Errorf("error evaluating expression in select clause: %w", err)
		}
		row[i] = v
	}
	return row, nil
}

func execSelect(pq *parser.ParsedQuery, catalog *builder.Catalog) Result {
	if len(pq.Joins) > 0 {
		return execSelectJoin(pq, catalog)
	}

	table, err := catalog.GetTable(pq.TableName)
	if err != nil {
		return NewErrorResult(err)
	}

	data := [][]types.Value{}
	for _, row := range table.Scan() {
		binding := table.Binding(row, "")

		match, err := evalCondition(pq.Where, binding, "where")
		if err != nil {
			return NewErrorResult(err)
		}
		if !match {
			continue
		}

		out, err := evalSelectItems(pq.SelectItems, binding)
		if err != nil {
			return NewErrorResult(err)
		}
		data = append(data, out)
	}

	return NewDataResult(data, selectColumns(pq.SelectItems))
}

// execSelectJoin crosses the two tables in their iteration orders,
// binding both sides under fully-qualified names. Select items see the
// combined binding.
func execSelectJoin(pq *parser.ParsedQuery, catalog *builder.Catalog) Result {
	left, err := catalog.GetTable(pq.TableName)
	if err != nil {
		return NewErrorResult(err)
	}
	join := pq.Joins[0]
	right, err := catalog.GetTable(join.TableName)
	if err != nil {
		return NewErrorResult(err)
	}

	data := [][]types.Value{}
	right_rows := right.Scan()
	for _, left_row := range left.Scan() {
		left_binding := left.Binding(left_row, pq.TableName)

		for _, right_row := range right_rows {
			combined := make(parser.Binding, len(left_binding)+len(right.Columns()))
			for k, v := range left_binding {
				combined[k] = v
			}
			for k, v := range right.Binding(right_row, join.TableName) {
				combined[k] = v
			}

			match, err := evalCondition(join.On, combined, "join")
			if err != nil {
				return NewErrorResult(err)
			}
			if !match {
				continue
			}

			match, err = evalCondition(pq.Where, combined, "where")
			if err != nil {
				return NewErrorResult(err)
			}
			if !match {
				continue
			}

			out, err := evalSelectItems(pq.SelectItems, combined)
			if err != nil {
				return NewErrorResult(err)
			}
			data = append(data, out)
		}
	}

	return NewDataResult(data, selectColumns(pq.SelectItems))
}

func execUpdate(pq *parser.ParsedQuery, catalog *builder.Catalog) Result {
	table, err := catalog.GetTable(pq.TableName)
	if err != nil {
		return NewErrorResult(err)
	}

	// resolve assignment targets once
	type target struct {
		index  int
		column builder.Column
	}
	targets := make([]target, len(pq.Assignments))
	for i, assign := range pq.Assignments {
		idx, err := table.ColumnIndex(assign.Column)
		if err != nil {
			return NewErrorResult(err)
		}
		column := table.Columns()[idx]
		if column.HasAttribute(builder.AttrAutoIncrement) {
			return NewErrorResult(fmt.Errorf("cannot update autoincrement column %q", assign.Column))
		}
		targets[i] = target{index: idx, column: column}
	}

	updated := 0
	for _, row := range table.Scan() {
		binding := table.Binding(row, "")

		match, err := evalCondition(pq.Where, binding, "where")
		if err != nil {
			return NewErrorResult(err)
		}
		if !match {
			continue
		}

		values := row.CloneValues()

		for i, assign := range pq.Assignments {
			new_val, err := assign.Expression.Evaluate(binding)
			if err != nil {
				return NewErrorResult(err)
			}
			if new_val.Kind() != targets[i].column.Type.Kind {
				return NewErrorResult(fmt.Errorf("type mismatch in set assignment for column %q", assign.Column))
			}
			values[targets[i].index] = new_val
			// later assignments on this row see the new value
			binding[assign.Column] = new_val
		}

		if err := table.UpdateRow(row.ID, values); err != nil {
			return NewErrorResult(err)
		}
		updated++
	}

	return countResult("count", int32(updated))
}

func execDelete(pq *parser.ParsedQuery, catalog *builder.Catalog) Result {
	table, err := catalog.GetTable(pq.TableName)
	if err != nil {
		return NewErrorResult(err)
	}

	matched := []builder.RowID{}
	for _, row := range table.Scan() {
		binding := table.Binding(row, "")
		match, err := evalCondition(pq.DeleteWhere, binding, "where")
		if err != nil {
			return NewErrorResult(err)
		}
		if match {
			matched = append(matched, row.ID)
		}
	}

	for _, id := range matched {
		if err := table.DeleteRow(id); err != nil {
			return NewErrorResult(err)
		}
	}

	return countResult("count", int32(len(matched)))
}
