package frame

import (
	"fmt"
)

// JoinType selects relational join semantics.
type JoinType string

const (
	JoinInner JoinType = "inner"
	JoinLeft  JoinType = "left"
	JoinRight JoinType = "right"
	JoinOuter JoinType = "outer"
)

// ParseJoinType validates a join type name.
func ParseJoinType(name string) (JoinType, error) {
	switch JoinType(name) {
	case JoinInner, JoinLeft, JoinRight, JoinOuter:
		return JoinType(name), nil
	}
	return "", fmt.Errorf("%w: unsupported join type %q (valid: inner, left, right, outer)", ErrInvalidJoin, name)
}

// Join performs a relational join of two frames on parallel key lists.
// Column names colliding between the two sides are suffixed "_left" and
// "_right" deterministically, so downstream callers can reference result
// columns by exact name. Unmatched sides in left/right/outer joins are
// filled with nil. Key equality uses the same numeric coercion as Filter.
func Join(left, right *Frame, leftKeys, rightKeys []string, how JoinType) (*Frame, error) {
	if len(leftKeys) != len(rightKeys) {
		return nil, fmt.Errorf("%w: key lists must have equal length (%d vs %d)", ErrInvalidJoin, len(leftKeys), len(rightKeys))
	}
	if len(leftKeys) == 0 {
		return nil, fmt.Errorf("%w: at least one join key required", ErrInvalidJoin)
	}
	if _, err := ParseJoinType(string(how)); err != nil {
		return nil, err
	}

	lIdx := make([]int, len(leftKeys))
	for i, k := range leftKeys {
		idx := left.ColumnIndex(k)
		if idx < 0 {
			return nil, fmt.Errorf("%w: left table has no column %q", ErrInvalidJoin, k)
		}
		lIdx[i] = idx
	}
	rIdx := make([]int, len(rightKeys))
	for i, k := range rightKeys {
		idx := right.ColumnIndex(k)
		if idx < 0 {
			return nil, fmt.Errorf("%w: right table has no column %q", ErrInvalidJoin, k)
		}
		rIdx[i] = idx
	}

	columns := joinColumns(left.columns, right.columns)

	// Bucket right rows by composite key.
	rightBuckets := make(map[string][]int)
	for i, row := range right.rows {
		k := compositeKey(row, rIdx)
		rightBuckets[k] = append(rightBuckets[k], i)
	}

	var rows [][]any
	rightMatched := make([]bool, len(right.rows))

	for _, lrow := range left.rows {
		matches := rightBuckets[compositeKey(lrow, lIdx)]
		if len(matches) == 0 {
			if how == JoinLeft || how == JoinOuter {
				rows = append(rows, concatRows(lrow, nil, left.NumCols(), right.NumCols()))
			}
			continue
		}
		for _, ri := range matches {
			rightMatched[ri] = true
			rows = append(rows, concatRows(lrow, right.rows[ri], left.NumCols(), right.NumCols()))
		}
	}

	if how == JoinRight || how == JoinOuter {
		for ri, matched := range rightMatched {
			if !matched {
				rows = append(rows, concatRows(nil, right.rows[ri], left.NumCols(), right.NumCols()))
			}
		}
	}

	return New(columns, rows), nil
}

// joinColumns merges the two headers, suffixing collisions.
func joinColumns(left, right []string) []string {
	collide := make(map[string]bool)
	rightSet := make(map[string]bool, len(right))
	for _, c := range right {
		rightSet[c] = true
	}
	for _, c := range left {
		if rightSet[c] {
			collide[c] = true
		}
	}

	out := make([]string, 0, len(left)+len(right))
	for _, c := range left {
		if collide[c] {
			out = append(out, c+"_left")
		} else {
			out = append(out, c)
		}
	}
	for _, c := range right {
		if collide[c] {
			out = append(out, c+"_right")
		} else {
			out = append(out, c)
		}
	}
	return out
}

func compositeKey(row []any, idxs []int) string {
	key := ""
	for _, idx := range idxs {
		v := row[idx]
		if f, ok := toFloat(v); ok && v != nil {
			key += fmt.Sprintf("n:%v|", f)
		} else {
			key += "s:" + CellString(v) + "|"
		}
	}
	return key
}

func concatRows(left, right []any, lw, rw int) []any {
	out := make([]any, lw+rw)
	copy(out, left)
	if right != nil {
		copy(out[lw:], right)
	}
	return out
}
