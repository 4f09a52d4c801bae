package frame

import (
	"fmt"
	"sort"
	"strings"
)

// Op is a filter comparison operator. The set is closed: operators are
// resolved to predicates at condition-build time, and unknown names are
// rejected then, not at row-evaluation time.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe
	OpContains
	OpStartsWith
	OpEndsWith
)

var opNames = map[string]Op{
	"==":         OpEq,
	"!=":         OpNe,
	">":          OpGt,
	"<":          OpLt,
	">=":         OpGe,
	"<=":         OpLe,
	"contains":   OpContains,
	"startswith": OpStartsWith,
	"endswith":   OpEndsWith,
}

// ParseOp resolves an operator name to its Op.
func ParseOp(name string) (Op, error) {
	op, ok := opNames[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownOperator, name)
	}
	return op, nil
}

func (o Op) String() string {
	for name, op := range opNames {
		if op == o {
			return name
		}
	}
	return "?"
}

// Condition is one column comparison.
type Condition struct {
	Column string
	Op     Op
	Value  any
}

// NewCondition validates the operator name and builds a Condition.
func NewCondition(column, operator string, value any) (Condition, error) {
	op, err := ParseOp(operator)
	if err != nil {
		return Condition{}, err
	}
	return Condition{Column: column, Op: op, Value: value}, nil
}

// Filter returns the rows matching every condition (AND semantics).
// Ordering comparisons use numeric coercion when both sides parse as
// numbers; string operators compare case-insensitively. Nil cells never
// match.
func (f *Frame) Filter(conds []Condition) (*Frame, error) {
	preds := make([]func(row []any) bool, len(conds))
	for i, c := range conds {
		idx := f.ColumnIndex(c.Column)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownColumn, c.Column, f.columns)
		}
		preds[i] = buildPredicate(idx, c.Op, c.Value)
	}

	var rows [][]any
	for _, row := range f.rows {
		ok := true
		for _, pred := range preds {
			if !pred(row) {
				ok = false
				break
			}
		}
		if ok {
			rows = append(rows, row)
		}
	}
	return New(f.columns, rows), nil
}

func buildPredicate(idx int, op Op, value any) func(row []any) bool {
	switch op {
	case OpContains:
		want := strings.ToLower(CellString(value))
		return func(row []any) bool {
			return row[idx] != nil && strings.Contains(strings.ToLower(CellString(row[idx])), want)
		}
	case OpStartsWith:
		want := strings.ToLower(CellString(value))
		return func(row []any) bool {
			return row[idx] != nil && strings.HasPrefix(strings.ToLower(CellString(row[idx])), want)
		}
	case OpEndsWith:
		want := strings.ToLower(CellString(value))
		return func(row []any) bool {
			return row[idx] != nil && strings.HasSuffix(strings.ToLower(CellString(row[idx])), want)
		}
	default:
		return func(row []any) bool {
			if row[idx] == nil {
				return false
			}
			cmp, ok := compareCells(row[idx], value)
			if !ok {
				// Incomparable values only satisfy !=.
				return op == OpNe
			}
			switch op {
			case OpEq:
				return cmp == 0
			case OpNe:
				return cmp != 0
			case OpGt:
				return cmp > 0
			case OpLt:
				return cmp < 0
			case OpGe:
				return cmp >= 0
			case OpLe:
				return cmp <= 0
			}
			return false
		}
	}
}

// compareCells orders two cells. Numeric comparison when both coerce,
// string comparison otherwise. Returns ok=false when either side is nil.
func compareCells(a, b any) (int, bool) {
	if a == nil || b == nil {
		return 0, false
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1, true
			case fa > fb:
				return 1, true
			default:
				return 0, true
			}
		}
	}
	sa, sb := CellString(a), CellString(b)
	return strings.Compare(sa, sb), true
}

// Sort returns a new Frame ordered by one column. The sort is stable and
// nils always sort last regardless of direction.
func (f *Frame) Sort(column string, ascending bool) (*Frame, error) {
	idx := f.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownColumn, column, f.columns)
	}

	rows := make([][]any, len(f.rows))
	copy(rows, f.rows)

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][idx], rows[j][idx]
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		cmp, ok := compareCells(a, b)
		if !ok {
			return false
		}
		if ascending {
			return cmp < 0
		}
		return cmp > 0
	})

	return New(f.columns, rows), nil
}

// Search returns rows where any of the given columns (all columns when
// empty) contains the keyword, case-insensitively.
func (f *Frame) Search(keyword string, columns []string) *Frame {
	want := strings.ToLower(keyword)

	idxs := make([]int, 0, len(f.columns))
	if len(columns) == 0 {
		for i := range f.columns {
			idxs = append(idxs, i)
		}
	} else {
		for _, name := range columns {
			if idx := f.ColumnIndex(name); idx >= 0 {
				idxs = append(idxs, idx)
			}
		}
	}

	var rows [][]any
	for _, row := range f.rows {
		for _, idx := range idxs {
			if row[idx] == nil {
				continue
			}
			if strings.Contains(strings.ToLower(CellString(row[idx])), want) {
				rows = append(rows, row)
				break
			}
		}
	}
	return New(f.columns, rows)
}
