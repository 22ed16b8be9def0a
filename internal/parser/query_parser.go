package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tealdb/tealdb/internal/builder"
	"github.com/tealdb/tealdb/internal/types"
)

var reservedKeywords = map[string]bool{
	"create": true, "table": true, "insert": true, "update": true,
	"delete": true, "join": true, "where": true, "int32": true,
	"string": true, "bytes": true, "bool": true, "key": true,
	"unique": true, "autoincrement": true, "index": true,
	"unordered": true, "ordered": true, "on": true, "select": true,
	"from": true, "values": true, "as": true,
}

var identifierPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// IsValidIdentifier reports whether s can name a table or column: matches
// the identifier pattern and is not a reserved word (case-insensitively).
func IsValidIdentifier(s string) bool {
	return identifierPattern.MatchString(s) && !reservedKeywords[strings.ToLower(s)]
}

// QueryParser turns statement text into a ParsedQuery. The catalog
// reference is consulted while parsing insert values, which need the
// target table's schema to resolve positions and defaults.
type QueryParser struct {
	catalog *builder.Catalog
}

func NewQueryParser() *QueryParser { return &QueryParser{} }

func (qp *QueryParser) SetCatalog(c *builder.Catalog) { qp.catalog = c }

var (
	insertPattern = regexp.MustCompile(`(?is)^insert\s*\((.*)\)\s*to\s+(\S+)$`)
	selectPattern = regexp.MustCompile(`(?is)^select\s+(.+?)\s+from\s+(\S+?)(?:\s+join\s+(\S+)\s+on\s+(.+?))?(?:\s+where\s+(.+))?$`)
	aliasPattern  = regexp.MustCompile(`(?is)^(.*\S)\s+as\s+([A-Za-z_][A-Za-z0-9_]*)$`)
)

func (qp *QueryParser) Parse(query string) (*ParsedQuery, error) {
	if !balancedDelimiters(query) {
		return nil, fmt.Errorf("unbalanced parentheses or braces in query")
	}

	trimmed := strings.TrimSpace(query)
	trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	if trimmed == "" {
		return nil, fmt.Errorf("empty query")
	}

	command, rest := splitWord(trimmed)
	switch strings.ToLower(command) {
	case "create":
		sub, rest := splitWord(rest)
		switch strings.ToLower(sub) {
		case "table":
			return qp.parseCreateTable(rest)
		case "ordered", "unordered":
			return qp.parseCreateIndex(strings.ToLower(sub), rest)
		default:
			return nil, fmt.Errorf("unknown create subcommand: %s", sub)
		}
	case "insert":
		return qp.parseInsert(trimmed)
	case "select":
		return qp.parseSelect(trimmed)
	case "update":
		return qp.parseUpdate(rest)
	case "delete":
		return qp.parseDelete(rest)
	default:
		return nil, fmt.Errorf("unknown command: %s", command)
	}
}

// splitWord cuts the first whitespace-delimited word off s.
func splitWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	for i := 0; i < len(s); i++ {
		if isSpace(s[i]) {
			return s[:i], strings.TrimSpace(s[i+1:])
		}
	}
	return s, ""
}

// balancedDelimiters checks () and {} nesting, ignoring string literal
// contents.
func balancedDelimiters(s string) bool {
	var stack []byte
	in_string := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if in_string {
			switch c {
			case '\\':
				i++
			case '"':
				in_string = false
			}
			continue
		}
		switch c {
		case '"':
			in_string = true
		case '(', '{':
			stack = append(stack, c)
		case ')', '}':
			if len(stack) == 0 {
				return false
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if (c == ')' && open != '(') || (c == '}' && open != '{') {
				return false
			}
		}
	}
	return len(stack) == 0 && !in_string
}

// splitTopLevel splits on sep at nesting depth zero, outside string
// literals. Empty pieces are preserved so positional insert slots work.
func splitTopLevel(s string, sep byte) []string {
	pieces := []string{}
	depth := 0
	in_string := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if in_string {
			switch c {
			case '\\':
				i++
			case '"':
				in_string = false
			}
			continue
		}
		switch c {
		case '"':
			in_string = true
		case '(', '{':
			depth++
		case ')', '}':
			depth--
		case sep:
			if depth == 0 {
				pieces = append(pieces, s[start:i])
				start = i + 1
			}
		}
	}
	return append(pieces, s[start:])
}

// findKeywordTopLevel locates a standalone keyword (case-insensitive) at
// depth zero outside strings; returns -1 when absent.
func findKeywordTopLevel(s, keyword string) int {
	depth := 0
	in_string := false
	n := len(keyword)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if in_string {
			switch c {
			case '\\':
				i++
			case '"':
				in_string = false
			}
			continue
		}
		switch c {
		case '"':
			in_string = true
			continue
		case '(', '{':
			depth++
			continue
		case ')', '}':
			depth--
			continue
		}
		if depth != 0 || i+n > len(s) {
			continue
		}
		if !strings.EqualFold(s[i:i+n], keyword) {
			continue
		}
		before_ok := i == 0 || !isIdentChar(s[i-1])
		after_ok := i+n == len(s) || !isIdentChar(s[i+n])
		if before_ok && after_ok {
			return i
		}
	}
	return -1
}

func validateTableName(name string) error {
	if !IsValidIdentifier(name) {
		return fmt.Errorf("invalid table name: %s", name)
	}
	return nil
}

// ---- create table ----

func (qp *QueryParser) parseCreateTable(rest string) (*ParsedQuery, error) {
	open := strings.Index(rest, "(")
	if open < 0 {
		return nil, fmt.Errorf("expected '(' after table name")
	}
	name := strings.TrimSpace(rest[:open])
	if name == "" {
		return nil, fmt.Errorf("table name cannot be empty")
	}
	if err := validateTableName(name); err != nil {
		return nil, err
	}

	body := strings.TrimSpace(rest[open:])
	if !strings.HasSuffix(body, ")") {
		return nil, fmt.Errorf("expected ')' at end of column definitions")
	}
	body = body[1 : len(body)-1]

	pq := &ParsedQuery{Type: QueryCreateTable, TableName: name}
	for _, def := range splitTopLevel(body, ',') {
		def = strings.TrimSpace(def)
		if def == "" {
			return nil, fmt.Errorf("empty column definition")
		}
		column, err := parseColumnDefinition(def)
		if err != nil {
			return nil, err
		}
		if !IsValidIdentifier(column.Name) {
			return nil, fmt.Errorf("invalid column name: %s", column.Name)
		}
		pq.Columns = append(pq.Columns, column)
	}
	if len(pq.Columns) == 0 {
		return nil, fmt.Errorf("column definitions cannot be empty")
	}
	return pq, nil
}

// parseColumnDefinition reads ('{' attrs '}')? NAME ':' type ('=' literal)?
func parseColumnDefinition(def string) (builder.Column, error) {
	attrs := []builder.ColumnAttribute{}

	if strings.HasPrefix(def, "{") {
		end := strings.Index(def, "}")
		if end < 0 {
			return builder.Column{}, fmt.Errorf("expected '}' for column attributes")
		}
		for _, raw := range strings.Split(def[1:end], ",") {
			attr, err := builder.ParseColumnAttribute(raw)
			if err != nil {
				return builder.Column{}, err
			}
			attrs = append(attrs, attr)
		}
		def = strings.TrimSpace(def[end+1:])
	}

	colon := strings.Index(def, ":")
	if colon < 0 {
		return builder.Column{}, fmt.Errorf("expected ':' in column definition")
	}
	name := strings.TrimSpace(def[:colon])
	if name == "" {
		return builder.Column{}, fmt.Errorf("column name is empty")
	}

	type_part := strings.TrimSpace(def[colon+1:])
	default_part := ""
	if eq := strings.Index(type_part, "="); eq >= 0 {
		default_part = strings.TrimSpace(type_part[eq+1:])
		type_part = strings.TrimSpace(type_part[:eq])
	}

	dt, err := types.ParseDataType(strings.ToLower(type_part))
	if err != nil {
		return builder.Column{}, err
	}

	def_value := types.Null()
	if default_part != "" {
		def_value, err = parseLiteralValue(default_part)
		if err != nil {
			return builder.Column{}, fmt.Errorf("invalid default value for column %q: %w", name, err)
		}
	}

	return builder.NewColumn(name, dt, attrs, def_value)
}

// parseLiteralValue evaluates a constant expression (usually a bare
// literal) against an empty binding.
func parseLiteralValue(s string) (types.Value, error) {
	expr, err := ParseExpressionString(s)
	if err != nil {
		return types.Value{}, err
	}
	return expr.Evaluate(Binding{})
}

// ---- create index ----

func (qp *QueryParser) parseCreateIndex(kind_str, rest string) (*ParsedQuery, error) {
	word, rest := splitWord(rest)
	if !strings.EqualFold(word, "index") {
		return nil, fmt.Errorf("expected 'index' after index type")
	}
	word, rest = splitWord(rest)
	if !strings.EqualFold(word, "on") {
		return nil, fmt.Errorf("expected 'on' in create index")
	}
	name, rest := splitWord(rest)
	if err := validateTableName(name); err != nil {
		return nil, err
	}
	word, rest = splitWord(rest)
	if !strings.EqualFold(word, "by") {
		return nil, fmt.Errorf("expected 'by' after table name in create index")
	}

	kind, err := builder.ParseIndexKind(kind_str)
	if err != nil {
		return nil, err
	}
	pq := &ParsedQuery{Type: QueryCreateIndex, TableName: name, IndexKind: kind}

	for _, raw := range strings.Split(rest, ",") {
		col := strings.TrimSpace(raw)
		if !IsValidIdentifier(col) {
			return nil, fmt.Errorf("invalid column name: %s", col)
		}
		pq.IndexColumns = append(pq.IndexColumns, col)
	}

	if qp.catalog != nil {
		table, err := qp.catalog.GetTable(name)
		if err != nil {
			return nil, err
		}
		for _, col := range pq.IndexColumns {
			if !table.HasColumn(col) {
				return nil, fmt.Errorf("column not found: %s", col)
			}
		}
	}
	return pq, nil
}

// ---- insert ----

func (qp *QueryParser) parseInsert(query string) (*ParsedQuery, error) {
	matches := insertPattern.FindStringSubmatch(query)
	if matches == nil {
		return nil, fmt.Errorf("invalid insert syntax")
	}
	values_str, name := matches[1], matches[2]
	if err := validateTableName(name); err != nil {
		return nil, err
	}

	if qp.catalog == nil {
		return nil, fmt.Errorf("no catalog attached to query parser")
	}
	table, err := qp.catalog.GetTable(name)
	if err != nil {
		return nil, err
	}

	values, err := parseInsertValues(values_str, table.Columns())
	if err != nil {
		return nil, err
	}
	return &ParsedQuery{Type: QueryInsert, TableName: name, InsertValues: values}, nil
}

var namedValuePattern = regexp.MustCompile(`(?s)^\s*([A-Za-z][A-Za-z0-9_]*)\s*=\s*(.*)$`)

// parseInsertValues handles both value spellings. Positional: one piece
// per column, empty pieces staying NULL. Named: col = expr pairs in any
// order. Missing slots fall back to autoincrement (left NULL for the
// table to fill) or the column default; otherwise the value is required.
func parseInsertValues(values_str string, columns []builder.Column) ([]types.Value, error) {
	values := make([]types.Value, len(columns))
	pieces := splitTopLevel(values_str, ',')
	if len(pieces) == 1 && strings.TrimSpace(pieces[0]) == "" {
		// insert () supplies no values at all, not one empty slot
		pieces = nil
	}

	named := false
	if len(pieces) > 0 && namedValuePattern.MatchString(pieces[0]) {
		named = true
	}

	// In the positional spelling an explicitly empty slot stays NULL; only
	// columns past the supplied values fall back to defaults or error.
	// Named inserts must cover every non-autoincrement column one way or
	// the other.
	filled_from := len(pieces)
	if named {
		filled_from = 0
		seen := map[string]bool{}
		for _, piece := range pieces {
			m := namedValuePattern.FindStringSubmatch(piece)
			if m == nil {
				return nil, fmt.Errorf("expected column = value in insert: %q", strings.TrimSpace(piece))
			}
			col_name, expr_str := m[1], m[2]
			if seen[col_name] {
				return nil, fmt.Errorf("duplicate column name: %s", col_name)
			}
			seen[col_name] = true

			idx := -1
			for i, c := range columns {
				if c.Name == col_name {
					idx = i
					break
				}
			}
			if idx < 0 {
				return nil, fmt.Errorf("column not found: %s", col_name)
			}

			v, err := parseLiteralValue(expr_str)
			if err != nil {
				return nil, err
			}
			values[idx] = v
		}
	} else {
		if len(pieces) > len(columns) {
			return nil, fmt.Errorf("too many values for table columns")
		}
		for i, piece := range pieces {
			piece = strings.TrimSpace(piece)
			if piece == "" {
				continue
			}
			v, err := parseLiteralValue(piece)
			if err != nil {
				return nil, err
			}
			values[i] = v
		}
	}

	for i, column := range columns {
		if i < filled_from || !values[i].IsNull() {
			continue
		}
		if column.HasAttribute(builder.AttrAutoIncrement) {
			continue
		}
		if !column.Default.IsNull() {
			values[i] = column.Default
			continue
		}
		return nil, fmt.Errorf("missing value for column: %s", column.Name)
	}
	return values, nil
}

// ---- select ----

func (qp *QueryParser) parseSelect(query string) (*ParsedQuery, error) {
	matches := selectPattern.FindStringSubmatch(query)
	if matches == nil {
		return nil, fmt.Errorf("invalid select syntax")
	}
	items_str, name := matches[1], matches[2]
	if err := validateTableName(name); err != nil {
		return nil, err
	}

	pq := &ParsedQuery{Type: QuerySelect, TableName: name}

	for _, raw := range splitTopLevel(items_str, ',') {
		item_str := strings.TrimSpace(raw)
		if item_str == "" {
			return nil, fmt.Errorf("empty select item")
		}

		alias := ""
		expr_str := item_str
		if m := aliasPattern.FindStringSubmatch(item_str); m != nil {
			expr_str, alias = strings.TrimSpace(m[1]), m[2]
			if !IsValidIdentifier(alias) {
				return nil, fmt.Errorf("invalid alias: %s", alias)
			}
		}
		if alias == "" {
			alias = expr_str
		}

		expr, err := ParseExpressionString(expr_str)
		if err != nil {
			return nil, err
		}
		pq.SelectItems = append(pq.SelectItems, SelectItem{Expression: expr, Alias: alias})
	}

	if matches[3] != "" {
		join_name := matches[3]
		if err := validateTableName(join_name); err != nil {
			return nil, err
		}
		on, err := ParseExpressionString(matches[4])
		if err != nil {
			return nil, err
		}
		pq.Joins = append(pq.Joins, JoinInfo{TableName: join_name, On: on})
	}

	if matches[5] != "" {
		where, err := ParseExpressionString(matches[5])
		if err != nil {
			return nil, err
		}
		pq.Where = where
	}

	return pq, nil
}

// ---- update ----

func (qp *QueryParser) parseUpdate(rest string) (*ParsedQuery, error) {
	name, rest := splitWord(rest)
	if err := validateTableName(name); err != nil {
		return nil, err
	}
	word, rest := splitWord(rest)
	if !strings.EqualFold(word, "set") {
		return nil, fmt.Errorf("expected 'set' after table name in update")
	}

	assignments_str := rest
	condition_str := ""
	if pos := findKeywordTopLevel(rest, "where"); pos >= 0 {
		assignments_str = strings.TrimSpace(rest[:pos])
		condition_str = strings.TrimSpace(rest[pos+len("where"):])
	}

	pq := &ParsedQuery{Type: QueryUpdate, TableName: name}

	for _, raw := range splitTopLevel(assignments_str, ',') {
		assign := strings.TrimSpace(raw)
		if assign == "" {
			continue
		}
		eq := strings.Index(assign, "=")
		if eq < 0 {
			return nil, fmt.Errorf("invalid assignment in update: %s", assign)
		}
		col := strings.TrimSpace(assign[:eq])
		if !IsValidIdentifier(col) {
			return nil, fmt.Errorf("invalid column name: %s", col)
		}
		expr, err := ParseExpressionString(strings.TrimSpace(assign[eq+1:]))
		if err != nil {
			return nil, err
		}
		pq.Assignments = append(pq.Assignments, Assignment{Column: col, Expression: expr})
	}
	if len(pq.Assignments) == 0 {
		return nil, fmt.Errorf("no assignment in update")
	}

	if condition_str != "" {
		where, err := ParseExpressionString(condition_str)
		if err != nil {
			return nil, err
		}
		pq.Where = where
	}
	return pq, nil
}

// ---- delete ----

func (qp *QueryParser) parseDelete(rest string) (*ParsedQuery, error) {
	name, rest := splitWord(rest)
	if strings.EqualFold(name, "from") {
		name, rest = splitWord(rest)
	}
	if err := validateTableName(name); err != nil {
		return nil, err
	}

	pq := &ParsedQuery{Type: QueryDelete, TableName: name}
	if rest == "" {
		return pq, nil
	}

	word, rest := splitWord(rest)
	if !strings.EqualFold(word, "where") {
		return nil, fmt.Errorf("expected 'where' in delete")
	}
	where, err := ParseExpressionString(rest)
	if err != nil {
		return nil, err
	}
	pq.DeleteWhere = where
	return pq, nil
}
