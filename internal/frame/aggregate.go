package frame

import (
	"fmt"
	"math"
	"sort"
)

// AggFunc names one aggregate computation over a column.
type AggFunc string

const (
	AggSum    AggFunc = "sum"
	AggMean   AggFunc = "mean"
	AggCount  AggFunc = "count"
	AggMin    AggFunc = "min"
	AggMax    AggFunc = "max"
	AggMedian AggFunc = "median"
	AggStd    AggFunc = "std"
)

// ParseAggFunc validates an aggregate function name.
func ParseAggFunc(name string) (AggFunc, error) {
	switch AggFunc(name) {
	case AggSum, AggMean, AggCount, AggMin, AggMax, AggMedian, AggStd:
		return AggFunc(name), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAggregate, name)
}

// Aggregate computes one statistic over a column. Count counts non-nil
// cells; the numeric functions skip cells that do not coerce to float64.
// Numeric aggregation over a column with no numeric cells returns nil.
func (f *Frame) Aggregate(column string, fn AggFunc) (any, error) {
	idx := f.ColumnIndex(column)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownColumn, column, f.columns)
	}

	if fn == AggCount {
		return int64(f.NonNullCount(column)), nil
	}

	var nums []float64
	for _, row := range f.rows {
		if v, ok := toFloat(row[idx]); ok && row[idx] != nil {
			nums = append(nums, v)
		}
	}
	if len(nums) == 0 {
		return nil, nil
	}

	switch fn {
	case AggSum:
		return sum(nums), nil
	case AggMean:
		return sum(nums) / float64(len(nums)), nil
	case AggMin:
		m := nums[0]
		for _, v := range nums[1:] {
			if v < m {
				m = v
			}
		}
		return m, nil
	case AggMax:
		m := nums[0]
		for _, v := range nums[1:] {
			if v > m {
				m = v
			}
		}
		return m, nil
	case AggMedian:
		sorted := make([]float64, len(nums))
		copy(sorted, nums)
		sort.Float64s(sorted)
		mid := len(sorted) / 2
		if len(sorted)%2 == 0 {
			return (sorted[mid-1] + sorted[mid]) / 2, nil
		}
		return sorted[mid], nil
	case AggStd:
		// Sample standard deviation, matching the analytical engines
		// this snapshot format mirrors.
		if len(nums) < 2 {
			return nil, nil
		}
		mean := sum(nums) / float64(len(nums))
		var ss float64
		for _, v := range nums {
			d := v - mean
			ss += d * d
		}
		return math.Sqrt(ss / float64(len(nums)-1)), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAggregate, string(fn))
}

// GroupRow is one group's aggregate result.
type GroupRow struct {
	Key   any
	Value any
	Count int
}

// GroupBy groups rows by one column and aggregates another per group.
// Groups are returned in first-appearance order.
func (f *Frame) GroupBy(groupCol, aggCol string, fn AggFunc) ([]GroupRow, error) {
	gIdx := f.ColumnIndex(groupCol)
	if gIdx < 0 {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownColumn, groupCol, f.columns)
	}
	if f.ColumnIndex(aggCol) < 0 {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownColumn, aggCol, f.columns)
	}

	var order []string
	buckets := make(map[string][][]any)
	keys := make(map[string]any)
	for _, row := range f.rows {
		k := CellString(row[gIdx])
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
			keys[k] = row[gIdx]
		}
		buckets[k] = append(buckets[k], row)
	}

	out := make([]GroupRow, 0, len(order))
	for _, k := range order {
		sub := New(f.columns, buckets[k])
		val, err := sub.Aggregate(aggCol, fn)
		if err != nil {
			return nil, err
		}
		out = append(out, GroupRow{Key: keys[k], Value: val, Count: sub.NumRows()})
	}
	return out, nil
}

func sum(nums []float64) float64 {
	var s float64
	for _, v := range nums {
		s += v
	}
	return s
}
