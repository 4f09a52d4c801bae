// Package frame implements the columnar snapshot engine behind every
// table's analytical view. A Frame is an immutable-by-convention table of
// named columns over row-major cells; filter/sort/aggregate/join all
// return new Frames and never touch the source.
//
// Cell values are one of: nil, bool, int64, float64, string. Numeric
// comparisons coerce int64/float64 (and numeric-looking strings) to
// float64 before comparing.
package frame

import (
	"fmt"
	"strconv"
)

// Frame is a columnar table snapshot.
type Frame struct {
	columns []string
	rows    [][]any
}

// New creates a Frame from column names and row data. Rows shorter than
// the header are padded with nil; longer rows are truncated.
func New(columns []string, rows [][]any) *Frame {
	cols := make([]string, len(columns))
	copy(cols, columns)

	normalized := make([][]any, len(rows))
	for i, row := range rows {
		r := make([]any, len(cols))
		copy(r, row)
		normalized[i] = r
	}
	return &Frame{columns: cols, rows: normalized}
}

// FromGrid builds a Frame from a raw 2D grid where the first row is the
// header. Blank header cells get synthesized names ("Column3"). An empty
// grid yields an empty Frame.
func FromGrid(grid [][]any) *Frame {
	if len(grid) == 0 {
		return &Frame{}
	}

	header := make([]string, len(grid[0]))
	for i := range header {
		if s := CellString(grid[0][i]); s != "" {
			header[i] = s
		} else {
			header[i] = fmt.Sprintf("Column%d", i+1)
		}
	}

	width := len(header)
	for _, row := range grid[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	for i := len(header); i < width; i++ {
		header = append(header, fmt.Sprintf("Column%d", i+1))
	}

	return New(header, grid[1:])
}

// Columns returns a copy of the column names.
func (f *Frame) Columns() []string {
	cols := make([]string, len(f.columns))
	copy(cols, f.columns)
	return cols
}

// NumRows returns the number of data rows.
func (f *Frame) NumRows() int { return len(f.rows) }

// NumCols returns the number of columns.
func (f *Frame) NumCols() int { return len(f.columns) }

// ColumnIndex returns the position of a column, or -1 if absent.
func (f *Frame) ColumnIndex(name string) int {
	for i, c := range f.columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (f *Frame) HasColumn(name string) bool { return f.ColumnIndex(name) >= 0 }

// Column returns all values of one column.
func (f *Frame) Column(name string) ([]any, error) {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownColumn, name, f.columns)
	}
	out := make([]any, len(f.rows))
	for i, row := range f.rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Cell returns the value at (row, col) by index.
func (f *Frame) Cell(row, col int) any {
	if row < 0 || row >= len(f.rows) || col < 0 || col >= len(f.columns) {
		return nil
	}
	return f.rows[row][col]
}

// Row returns a copy of one data row.
func (f *Frame) Row(i int) []any {
	if i < 0 || i >= len(f.rows) {
		return nil
	}
	out := make([]any, len(f.rows[i]))
	copy(out, f.rows[i])
	return out
}

// Dtype infers a column's type from its values: "float64", "int64",
// "bool", "string", "mixed", or "empty".
func (f *Frame) Dtype(name string) string {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return ""
	}

	seen := ""
	for _, row := range f.rows {
		v := row[idx]
		if v == nil {
			continue
		}
		var t string
		switch v.(type) {
		case float64:
			t = "float64"
		case int64, int:
			t = "int64"
		case bool:
			t = "bool"
		default:
			t = "string"
		}
		if seen == "" {
			seen = t
		} else if seen != t {
			// int64 and float64 columns collapse to float64
			if (seen == "int64" && t == "float64") || (seen == "float64" && t == "int64") {
				seen = "float64"
			} else {
				return "mixed"
			}
		}
	}
	if seen == "" {
		return "empty"
	}
	return seen
}

// NonNullCount returns the number of non-nil cells in a column.
func (f *Frame) NonNullCount(name string) int {
	idx := f.ColumnIndex(name)
	if idx < 0 {
		return 0
	}
	n := 0
	for _, row := range f.rows {
		if row[idx] != nil {
			n++
		}
	}
	return n
}

// Head returns a new Frame with at most n rows.
func (f *Frame) Head(n int) *Frame {
	if n < 0 {
		n = 0
	}
	if n > len(f.rows) {
		n = len(f.rows)
	}
	return New(f.columns, f.rows[:n])
}

// Select returns a new Frame containing only the named columns, in the
// given order. Unknown names are skipped; selecting nothing known returns
// the Frame unchanged.
func (f *Frame) Select(columns []string) *Frame {
	var keep []int
	var names []string
	for _, name := range columns {
		if idx := f.ColumnIndex(name); idx >= 0 {
			keep = append(keep, idx)
			names = append(names, name)
		}
	}
	if len(keep) == 0 {
		return f
	}

	rows := make([][]any, len(f.rows))
	for i, row := range f.rows {
		r := make([]any, len(keep))
		for j, idx := range keep {
			r[j] = row[idx]
		}
		rows[i] = r
	}
	return &Frame{columns: names, rows: rows}
}

// Records converts rows into column-keyed maps, the shape tool results
// use for JSON output.
func (f *Frame) Records() []map[string]any {
	out := make([]map[string]any, len(f.rows))
	for i, row := range f.rows {
		rec := make(map[string]any, len(f.columns))
		for j, col := range f.columns {
			rec[col] = row[j]
		}
		out[i] = rec
	}
	return out
}

// Clone returns a deep copy of the Frame.
func (f *Frame) Clone() *Frame {
	return New(f.columns, f.rows)
}

// Equal reports whether two frames have identical columns and cells.
func (f *Frame) Equal(other *Frame) bool {
	if other == nil || len(f.columns) != len(other.columns) || len(f.rows) != len(other.rows) {
		return false
	}
	for i := range f.columns {
		if f.columns[i] != other.columns[i] {
			return false
		}
	}
	for i := range f.rows {
		for j := range f.columns {
			if !cellEqual(f.rows[i][j], other.rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// CellString renders a cell for display. Nil renders as "".
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// toFloat coerces numeric values and numeric-looking strings to float64.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int64:
		return float64(x), true
	case int:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(x, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func cellEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	return CellString(a) == CellString(b)
}
