package tools

import (
	"context"

	"sheetagent/internal/chart"
)

const skillVisualization = "visualization"

func registerVisualizationTools(r *Registry, deps *Deps) {
	r.MustRegister(&Tool{
		Name:        "generate_chart",
		Description: "Build an ECharts configuration from the table. Leave chart_type empty to auto-select.",
		Skill:       skillVisualization,
		Schema: ToolSchema{
			Properties: map[string]Property{
				"chart_type": {Type: "string", Description: "Chart type, or empty for automatic.", Enum: []any{"bar", "line", "pie", "scatter", "funnel"}},
				"x_column":   {Type: "string", Description: "Column for the x axis or category labels."},
				"y_column":   {Type: "string", Description: "Numeric column for values."},
				"group_by":   {Type: "string", Description: "Column to group by before charting."},
				"agg_func":   {Type: "string", Description: "Aggregation applied per group.", Default: "sum", Enum: []any{"sum", "mean", "count", "min", "max", "median", "std"}},
				"title":      {Type: "string", Description: "Chart title."},
				"limit":      {Type: "integer", Description: "Maximum data points."},
				"table_id":   {Type: "string", Description: "Table to chart; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			fr, err := deps.targetFrame(args)
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := chart.Generate(fr, chart.Options{
				Type:    stringArg(args, "chart_type", ""),
				XColumn: stringArg(args, "x_column", ""),
				YColumn: stringArg(args, "y_column", ""),
				GroupBy: stringArg(args, "group_by", ""),
				AggFunc: stringArg(args, "agg_func", "sum"),
				Title:   stringArg(args, "title", ""),
				Limit:   intArg(args, "limit", 0),
			})
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})
}
