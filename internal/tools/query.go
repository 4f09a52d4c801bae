package tools

import (
	"context"

	"sheetagent/internal/frame"
)

const skillQuery = "core_query"

func registerQueryTools(r *Registry, deps *Deps) {
	r.MustRegister(&Tool{
		Name:        "filter_data",
		Description: "Filter rows of the active table by one or more column conditions (AND semantics).",
		Skill:       skillQuery,
		Priority:    90,
		Schema: ToolSchema{
			Required: []string{"conditions"},
			Properties: map[string]Property{
				"conditions": {Type: "array", Description: "Condition objects with column, operator (==, !=, >, >=, <, <=, contains, startswith, endswith) and value.", Items: &PropertyItems{Type: "object"}},
				"columns":    {Type: "array", Description: "Optional subset of columns to return.", Items: &PropertyItems{Type: "string"}},
				"limit":      {Type: "integer", Description: "Maximum rows to return."},
				"table_id":   {Type: "string", Description: "Table to query; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			fr, err := deps.targetFrame(args)
			if err != nil {
				return errorResult("%v", err)
			}
			conds, err := conditionsArg(args, "conditions")
			if err != nil {
				return errorResult("%v", err)
			}
			filtered, err := fr.Filter(conds)
			if err != nil {
				return errorResult("%v", err)
			}
			if cols := stringSliceArg(args, "columns"); len(cols) > 0 {
				filtered = filtered.Select(cols)
			}
			return jsonResult(frameResult(filtered, deps.limit(args)))
		},
	})

	r.MustRegister(&Tool{
		Name:        "search_data",
		Description: "Search all cells (or selected columns) for a keyword, case-insensitive substring match.",
		Skill:       skillQuery,
		Priority:    80,
		Schema: ToolSchema{
			Required: []string{"keyword"},
			Properties: map[string]Property{
				"keyword":  {Type: "string", Description: "Text to search for."},
				"columns":  {Type: "array", Description: "Restrict the search to these columns.", Items: &PropertyItems{Type: "string"}},
				"limit":    {Type: "integer", Description: "Maximum rows to return."},
				"table_id": {Type: "string", Description: "Table to query; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			fr, err := deps.targetFrame(args)
			if err != nil {
				return errorResult("%v", err)
			}
			keyword := stringArg(args, "keyword", "")
			if keyword == "" {
				return errorResult("keyword must not be empty")
			}
			hits := fr.Search(keyword, stringSliceArg(args, "columns"))
			result := frameResult(hits, deps.limit(args))
			result["keyword"] = keyword
			return jsonResult(result)
		},
	})

	r.MustRegister(&Tool{
		Name:        "get_data_preview",
		Description: "Return the first rows of the active table together with column names and types.",
		Skill:       skillQuery,
		Priority:    85,
		Schema: ToolSchema{
			Properties: map[string]Property{
				"rows":     {Type: "integer", Description: "Number of rows to preview.", Default: 10},
				"table_id": {Type: "string", Description: "Table to preview; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			fr, err := deps.targetFrame(args)
			if err != nil {
				return errorResult("%v", err)
			}
			n := intArg(args, "rows", deps.Config.Excel.MaxPreviewRows)
			if n <= 0 {
				n = deps.Config.Excel.MaxPreviewRows
			}
			dtypes := make(map[string]string, fr.NumCols())
			for _, col := range fr.Columns() {
				dtypes[col] = fr.Dtype(col)
			}
			result := frameResult(fr, n)
			result["dtypes"] = dtypes
			return jsonResult(result)
		},
	})

	r.MustRegister(&Tool{
		Name:        "read_cell",
		Description: "Read one cell's value. Formula cells return the formula text prefixed with '='.",
		Skill:       skillQuery,
		Schema: ToolSchema{
			Required: []string{"cell"},
			Properties: map[string]Property{
				"cell":     {Type: "string", Description: "Cell address such as B2."},
				"sheet":    {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id": {Type: "string", Description: "Table to read; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			cell := stringArg(args, "cell", "")
			value, err := doc.ReadCell(cell, stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"cell": cell, "value": value})
		},
	})

	r.MustRegister(&Tool{
		Name:        "read_range",
		Description: "Read a rectangular cell range as a 2D array of values.",
		Skill:       skillQuery,
		Schema: ToolSchema{
			Required: []string{"start_cell", "end_cell"},
			Properties: map[string]Property{
				"start_cell": {Type: "string", Description: "Top-left cell of the range."},
				"end_cell":   {Type: "string", Description: "Bottom-right cell of the range."},
				"sheet":      {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id":   {Type: "string", Description: "Table to read; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			grid, err := doc.ReadRange(stringArg(args, "start_cell", ""), stringArg(args, "end_cell", ""), stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"rows": len(grid), "values": grid})
		},
	})

	r.MustRegister(&Tool{
		Name:        "get_column_stats",
		Description: "Summary statistics for one column: count, mean, min, max, std for numeric data, unique counts otherwise.",
		Skill:       skillQuery,
		Schema: ToolSchema{
			Required: []string{"column"},
			Properties: map[string]Property{
				"column":   {Type: "string", Description: "Column to describe."},
				"table_id": {Type: "string", Description: "Table to query; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			fr, err := deps.targetFrame(args)
			if err != nil {
				return errorResult("%v", err)
			}
			column := stringArg(args, "column", "")
			if !fr.HasColumn(column) {
				return errorResult("unknown column %q (available: %v)", column, fr.Columns())
			}
			stats := map[string]any{
				"column":   column,
				"dtype":    fr.Dtype(column),
				"count":    fr.NonNullCount(column),
				"nulls":    fr.NumRows() - fr.NonNullCount(column),
				"distinct": distinctCount(fr, column),
			}
			dtype := fr.Dtype(column)
			if dtype == "int64" || dtype == "float64" {
				for name, fn := range map[string]frame.AggFunc{
					"sum": frame.AggSum, "mean": frame.AggMean,
					"min": frame.AggMin, "max": frame.AggMax,
					"median": frame.AggMedian, "std": frame.AggStd,
				} {
					if v, err := fr.Aggregate(column, fn); err == nil {
						stats[name] = v
					}
				}
			}
			return jsonResult(stats)
		},
	})

	r.MustRegister(&Tool{
		Name:        "get_unique_values",
		Description: "Distinct values of a column with their occurrence counts, most frequent first.",
		Skill:       skillQuery,
		Schema: ToolSchema{
			Required: []string{"column"},
			Properties: map[string]Property{
				"column":   {Type: "string", Description: "Column to enumerate."},
				"limit":    {Type: "integer", Description: "Maximum distinct values to return."},
				"table_id": {Type: "string", Description: "Table to query; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			fr, err := deps.targetFrame(args)
			if err != nil {
				return errorResult("%v", err)
			}
			column := stringArg(args, "column", "")
			rows, err := fr.GroupBy(column, column, frame.AggCount)
			if err != nil {
				return errorResult("%v", err)
			}
			// Most frequent first; ties keep first appearance.
			for i := 1; i < len(rows); i++ {
				for j := i; j > 0 && rows[j].Count > rows[j-1].Count; j-- {
					rows[j], rows[j-1] = rows[j-1], rows[j]
				}
			}
			total := len(rows)
			limit := deps.limit(args)
			if len(rows) > limit {
				rows = rows[:limit]
			}
			values := make([]map[string]any, len(rows))
			for i, row := range rows {
				values[i] = map[string]any{"value": row.Key, "count": row.Count}
			}
			return jsonResult(map[string]any{
				"column":         column,
				"total_distinct": total,
				"values":         values,
			})
		},
	})
}

func distinctCount(fr *frame.Frame, column string) int {
	rows, err := fr.GroupBy(column, column, frame.AggCount)
	if err != nil {
		return 0
	}
	return len(rows)
}
