package builder

import (
	"fmt"
	"strings"

	"github.com/tealdb/tealdb/internal/types"
	sorted "github.com/tobshub/go-sortedmap"
)

type IndexKind int

const (
	IndexOrdered IndexKind = iota
	IndexUnordered
)

func (k IndexKind) String() string {
	if k == IndexOrdered {
		return "ordered"
	}
	return "unordered"
}

func ParseIndexKind(s string) (IndexKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ordered":
		return IndexOrdered, nil
	case "unordered":
		return IndexUnordered, nil
	default:
		return 0, fmt.Errorf("unknown index type: %s", s)
	}
}

// orderedEntry keeps the rendered key alongside the row id because the
// sorted map orders by value, not by key.
type orderedEntry struct {
	key string
	id  RowID
}

// Index is a secondary lookup structure over a table. Ordered indices map
// the single column's rendered value to one row id; unordered indices map a
// pipe-joined composite key to the ids that share it.
type Index struct {
	kind    IndexKind
	columns []string

	ordered   *sorted.SortedMap[string, orderedEntry]
	unordered map[string][]RowID
}

func NewIndex(kind IndexKind, columns []string) (*Index, error) {
	if len(columns) == 0 {
		return nil, fmt.Errorf("index requires at least one column")
	}
	if kind == IndexOrdered && len(columns) != 1 {
		return nil, fmt.Errorf("ordered index can only be created on a single column")
	}

	idx := &Index{kind: kind, columns: columns}
	if kind == IndexOrdered {
		idx.ordered = sorted.New[string, orderedEntry](0, func(a, b orderedEntry) bool {
			return a.key < b.key
		})
	} else {
		idx.unordered = map[string][]RowID{}
	}
	return idx, nil
}

func (idx *Index) Kind() IndexKind { return idx.kind }

func (idx *Index) Columns() []string { return idx.columns }

// Covers reports whether the index is declared over exactly these columns.
func (idx *Index) Covers(columns []string) bool {
	if len(columns) != len(idx.columns) {
		return false
	}
	for i, c := range columns {
		if idx.columns[i] != c {
			return false
		}
	}
	return true
}

func (idx *Index) compositeKey(binding map[string]types.Value) (string, error) {
	var sb strings.Builder
	for _, col := range idx.columns {
		v, ok := binding[col]
		if !ok || v.IsNull() {
			return "", fmt.Errorf("cannot index NULL value in column %q", col)
		}
		sb.WriteString(v.String())
		sb.WriteString("|")
	}
	return sb.String(), nil
}

// Add keys the row under its projection; every indexed column must be
// present and non-NULL in the binding.
func (idx *Index) Add(id RowID, binding map[string]types.Value) error {
	if idx.kind == IndexUnordered {
		key, err := idx.compositeKey(binding)
		if err != nil {
			return err
		}
		idx.unordered[key] = append(idx.unordered[key], id)
		return nil
	}

	col := idx.columns[0]
	v, ok := binding[col]
	if !ok || v.IsNull() {
		return fmt.Errorf("cannot index NULL value in column %q", col)
	}
	key := v.String()
	entry := orderedEntry{key: key, id: id}
	if !idx.ordered.Insert(key, entry) {
		idx.ordered.Replace(key, entry)
	}
	return nil
}

func (idx *Index) Remove(id RowID, binding map[string]types.Value) {
	if idx.kind == IndexUnordered {
		key, err := idx.compositeKey(binding)
		if err != nil {
			return
		}
		ids := idx.unordered[key]
		for i, existing := range ids {
			if existing == id {
				ids = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(ids) == 0 {
			delete(idx.unordered, key)
		} else {
			idx.unordered[key] = ids
		}
		return
	}

	col := idx.columns[0]
	v, ok := binding[col]
	if !ok || v.IsNull() {
		return
	}
	key := v.String()
	if entry, found := idx.ordered.Get(key); found && entry.id == id {
		idx.ordered.Delete(key)
	}
}

// SearchUnordered returns the ids keyed by the binding's projection; a
// binding missing any indexed column yields no rows.
func (idx *Index) SearchUnordered(binding map[string]types.Value) []RowID {
	if idx.kind != IndexUnordered {
		return nil
	}
	key, err := idx.compositeKey(binding)
	if err != nil {
		return nil
	}
	ids := idx.unordered[key]
	out := make([]RowID, len(ids))
	copy(out, ids)
	return out
}

// SearchOrdered returns ids whose rendered key falls within the given
// bounds; a nil bound leaves that side open.
func (idx *Index) SearchOrdered(column string, lower *types.Value, lowerIncl bool, upper *types.Value, upperIncl bool) []RowID {
	if idx.kind != IndexOrdered || idx.columns[0] != column {
		return nil
	}

	out := []RowID{}
	iter, err := idx.ordered.IterCh()
	if err != nil {
		return out
	}
	for rec := range iter.Records() {
		key := rec.Val.key
		if lower != nil {
			lk := lower.String()
			if key < lk || (!lowerIncl && key == lk) {
				continue
			}
		}
		if upper != nil {
			uk := upper.String()
			if key > uk || (!upperIncl && key == uk) {
				continue
			}
		}
		out = append(out, rec.Val.id)
	}
	return out
}
