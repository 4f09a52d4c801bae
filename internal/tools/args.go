package tools

import (
	"encoding/json"
	"fmt"
	"strconv"

	"sheetagent/internal/frame"
)

// JSON-decoded arguments arrive loosely typed (numbers as float64,
// arrays as []any). These helpers coerce with sensible fallbacks so
// tools tolerate the model sending "5" where 5 was meant.

func stringArg(args map[string]any, key, def string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return def
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func intArg(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case string:
		if i, err := strconv.Atoi(n); err == nil {
			return i
		}
	}
	return def
}

func floatArg(args map[string]any, key string, def float64) float64 {
	v, ok := args[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f
		}
	}
	return def
}

func boolArg(args map[string]any, key string, def bool) bool {
	v, ok := args[key]
	if !ok || v == nil {
		return def
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	case float64:
		return b != 0
	}
	return def
}

// stringSliceArg accepts a JSON array of strings or a single bare
// string.
func stringSliceArg(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	switch raw := v.(type) {
	case []string:
		return raw
	case string:
		if raw == "" {
			return nil
		}
		return []string{raw}
	case []any:
		out := make([]string, 0, len(raw))
		for _, item := range raw {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// gridArg decodes a 2D array argument such as write_range data.
func gridArg(args map[string]any, key string) ([][]any, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequiredArg, key)
	}
	switch raw := v.(type) {
	case [][]any:
		return raw, nil
	case []any:
		grid := make([][]any, 0, len(raw))
		for _, rowVal := range raw {
			row, ok := rowVal.([]any)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a 2D array", ErrInvalidArgType, key)
			}
			grid = append(grid, row)
		}
		return grid, nil
	}
	return nil, fmt.Errorf("%w: %s must be a 2D array", ErrInvalidArgType, key)
}

// conditionsArg decodes a filter condition list:
// [{"column": "Region", "operator": "==", "value": "East"}, ...]
func conditionsArg(args map[string]any, key string) ([]frame.Condition, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array of condition objects", ErrInvalidArgType, key)
	}
	conds := make([]frame.Condition, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: each condition must be an object", ErrInvalidArgType)
		}
		column, _ := obj["column"].(string)
		operator := "=="
		if op, ok := obj["operator"].(string); ok && op != "" {
			operator = op
		}
		cond, err := frame.NewCondition(column, operator, obj["value"])
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	return conds, nil
}

// jsonResult marshals a success payload.
func jsonResult(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal tool result: %w", err)
	}
	return string(b), nil
}

// errorResult reports a domain failure to the model. The Go error is
// nil: the tool call succeeded, the operation it requested did not.
func errorResult(format string, a ...any) (string, error) {
	b, _ := json.Marshal(map[string]any{"error": fmt.Sprintf(format, a...)})
	return string(b), nil
}

// frameResult renders a snapshot slice the way every data-returning
// tool does: row counts, column order, and records capped at limit.
func frameResult(fr *frame.Frame, limit int) map[string]any {
	total := fr.NumRows()
	shown := fr
	if limit > 0 && total > limit {
		shown = fr.Head(limit)
	}
	return map[string]any{
		"total_rows":    total,
		"returned_rows": shown.NumRows(),
		"columns":       fr.Columns(),
		"data":          shown.Records(),
	}
}
