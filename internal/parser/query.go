package parser

import (
	"github.com/tealdb/tealdb/internal/builder"
	"github.com/tealdb/tealdb/internal/types"
)

type QueryType int

const (
	QueryCreateTable QueryType = iota
	QueryCreateIndex
	QueryInsert
	QuerySelect
	QueryUpdate
	QueryDelete
)

// SelectItem is one output column of a select: an expression and the name
// it reports under (the source text when no alias was given).
type SelectItem struct {
	Expression Expression
	Alias      string
}

type JoinInfo struct {
	TableName string
	On        Expression
}

// Assignment is one col = expr pair of an update, in source order.
type Assignment struct {
	Column     string
	Expression Expression
}

// ParsedQuery is the plan record produced for one statement; only the
// fields relevant to Type are populated.
type ParsedQuery struct {
	Type      QueryType
	TableName string

	// create table
	Columns []builder.Column

	// insert: one slot per column of the target table, null where the
	// table should substitute a default or autoincrement id
	InsertValues []types.Value

	// select
	SelectItems []SelectItem
	Joins       []JoinInfo
	Where       Expression

	// update
	Assignments []Assignment

	// delete
	DeleteWhere Expression

	// create index
	IndexKind    builder.IndexKind
	IndexColumns []string
}
