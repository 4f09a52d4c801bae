package tools

import (
	"context"

	"sheetagent/internal/frame"
)

const skillAggregation = "aggregation"

func registerAggregationTools(r *Registry, deps *Deps) {
	r.MustRegister(&Tool{
		Name:        "aggregate_data",
		Description: "Aggregate one numeric column, optionally after filtering. Functions: sum, mean, count, min, max, median, std.",
		Skill:       skillAggregation,
		Priority:    90,
		Schema: ToolSchema{
			Required: []string{"column", "function"},
			Properties: map[string]Property{
				"column":     {Type: "string", Description: "Column to aggregate."},
				"function":   {Type: "string", Description: "Aggregation function.", Enum: []any{"sum", "mean", "count", "min", "max", "median", "std"}},
				"conditions": {Type: "array", Description: "Optional filter conditions applied first.", Items: &PropertyItems{Type: "object"}},
				"table_id":   {Type: "string", Description: "Table to query; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			fr, err := deps.targetFrame(args)
			if err != nil {
				return errorResult("%v", err)
			}
			fn, err := frame.ParseAggFunc(stringArg(args, "function", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			conds, err := conditionsArg(args, "conditions")
			if err != nil {
				return errorResult("%v", err)
			}
			if len(conds) > 0 {
				if fr, err = fr.Filter(conds); err != nil {
					return errorResult("%v", err)
				}
			}
			column := stringArg(args, "column", "")
			value, err := fr.Aggregate(column, fn)
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{
				"column":    column,
				"function":  stringArg(args, "function", ""),
				"value":     value,
				"row_count": fr.NumRows(),
			})
		},
	})

	r.MustRegister(&Tool{
		Name:        "group_and_aggregate",
		Description: "Group rows by one column and aggregate another per group, like a pivot with a single value.",
		Skill:       skillAggregation,
		Priority:    80,
		Schema: ToolSchema{
			Required: []string{"group_by", "column", "function"},
			Properties: map[string]Property{
				"group_by": {Type: "string", Description: "Column whose values define the groups."},
				"column":   {Type: "string", Description: "Column to aggregate within each group."},
				"function": {Type: "string", Description: "Aggregation function.", Enum: []any{"sum", "mean", "count", "min", "max", "median", "std"}},
				"limit":    {Type: "integer", Description: "Maximum groups to return."},
				"table_id": {Type: "string", Description: "Table to query; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			fr, err := deps.targetFrame(args)
			if err != nil {
				return errorResult("%v", err)
			}
			fn, err := frame.ParseAggFunc(stringArg(args, "function", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			rows, err := fr.GroupBy(stringArg(args, "group_by", ""), stringArg(args, "column", ""), fn)
			if err != nil {
				return errorResult("%v", err)
			}
			total := len(rows)
			limit := deps.limit(args)
			if len(rows) > limit {
				rows = rows[:limit]
			}
			groups := make([]map[string]any, len(rows))
			for i, row := range rows {
				groups[i] = map[string]any{"group": row.Key, "value": row.Value, "count": row.Count}
			}
			return jsonResult(map[string]any{
				"group_by":        stringArg(args, "group_by", ""),
				"column":          stringArg(args, "column", ""),
				"function":        stringArg(args, "function", ""),
				"total_groups":    total,
				"returned_groups": len(groups),
				"groups":          groups,
			})
		},
	})

	r.MustRegister(&Tool{
		Name:        "sort_data",
		Description: "Sort the table by one column and return the leading rows. Read-only: the workbook itself is not reordered.",
		Skill:       skillAggregation,
		Schema: ToolSchema{
			Required: []string{"column"},
			Properties: map[string]Property{
				"column":    {Type: "string", Description: "Column to sort by."},
				"ascending": {Type: "boolean", Description: "Sort direction.", Default: true},
				"limit":     {Type: "integer", Description: "Maximum rows to return."},
				"table_id":  {Type: "string", Description: "Table to query; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			fr, err := deps.targetFrame(args)
			if err != nil {
				return errorResult("%v", err)
			}
			sorted, err := fr.Sort(stringArg(args, "column", ""), boolArg(args, "ascending", true))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(frameResult(sorted, deps.limit(args)))
		},
	})
}
