// Package chart turns frame snapshots into ECharts option documents.
// The output is a plain map rendered to JSON by the tool layer; nothing
// here draws anything.
package chart

import (
	"errors"
	"fmt"
	"sort"

	"sheetagent/internal/frame"
)

var ErrNoData = errors.New("no data to chart")

var validTypes = map[string]bool{
	"bar":     true,
	"line":    true,
	"pie":     true,
	"scatter": true,
	"funnel":  true,
}

// Options selects what to chart. Zero-value Type means auto-recommend.
type Options struct {
	Type    string
	XColumn string
	YColumn string
	GroupBy string
	AggFunc string
	Title   string
	Limit   int
}

// Result carries the finished option document plus what was decided.
type Result struct {
	Type      string         `json:"chart_type"`
	Config    map[string]any `json:"chart"`
	DataCount int            `json:"data_count"`
}

// RecommendType picks a chart type from the shape of the request: few
// groups chart well as pie slices, numeric-vs-numeric as scatter,
// anything else as bars.
func RecommendType(fr *frame.Frame, opts Options) string {
	if opts.GroupBy != "" && opts.YColumn != "" {
		if rows, err := fr.GroupBy(opts.GroupBy, opts.YColumn, frame.AggCount); err == nil && len(rows) <= 8 {
			return "pie"
		}
		return "bar"
	}
	if opts.XColumn != "" && opts.YColumn != "" {
		xNum := fr.Dtype(opts.XColumn) == "int64" || fr.Dtype(opts.XColumn) == "float64"
		yNum := fr.Dtype(opts.YColumn) == "int64" || fr.Dtype(opts.YColumn) == "float64"
		if xNum && yNum {
			return "scatter"
		}
		return "bar"
	}
	if opts.GroupBy != "" {
		return "pie"
	}
	return "bar"
}

// Generate builds the ECharts option for a snapshot.
func Generate(fr *frame.Frame, opts Options) (*Result, error) {
	if fr.NumRows() == 0 {
		return nil, ErrNoData
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.AggFunc == "" {
		opts.AggFunc = "sum"
	}

	chartType := opts.Type
	if chartType == "" || chartType == "auto" {
		chartType = RecommendType(fr, opts)
	}
	if !validTypes[chartType] {
		return nil, fmt.Errorf("unsupported chart type %q", chartType)
	}

	switch chartType {
	case "scatter":
		return scatterChart(fr, opts)
	case "pie", "funnel":
		return namedValueChart(fr, opts, chartType)
	default:
		return axisChart(fr, opts, chartType)
	}
}

// categories computes the (label, value) series every non-scatter chart
// needs: grouped aggregation when GroupBy is set, otherwise raw x/y
// pairs, otherwise value counts of the x column.
func categories(fr *frame.Frame, opts Options) ([]string, []float64, error) {
	switch {
	case opts.GroupBy != "" && opts.YColumn != "":
		fn, err := frame.ParseAggFunc(opts.AggFunc)
		if err != nil {
			return nil, nil, err
		}
		rows, err := fr.GroupBy(opts.GroupBy, opts.YColumn, fn)
		if err != nil {
			return nil, nil, err
		}
		sort.SliceStable(rows, func(i, j int) bool {
			return numeric(rows[i].Value) > numeric(rows[j].Value)
		})
		if len(rows) > opts.Limit {
			rows = rows[:opts.Limit]
		}
		labels := make([]string, len(rows))
		values := make([]float64, len(rows))
		for i, r := range rows {
			labels[i] = frame.CellString(r.Key)
			values[i] = numeric(r.Value)
		}
		return labels, values, nil

	case opts.XColumn != "" && opts.YColumn != "":
		xCol, err := fr.Column(opts.XColumn)
		if err != nil {
			return nil, nil, err
		}
		yCol, err := fr.Column(opts.YColumn)
		if err != nil {
			return nil, nil, err
		}
		n := len(xCol)
		if n > opts.Limit {
			n = opts.Limit
		}
		labels := make([]string, n)
		values := make([]float64, n)
		for i := 0; i < n; i++ {
			labels[i] = frame.CellString(xCol[i])
			values[i] = numeric(yCol[i])
		}
		return labels, values, nil

	case opts.GroupBy != "" || opts.XColumn != "":
		col := opts.GroupBy
		if col == "" {
			col = opts.XColumn
		}
		rows, err := fr.GroupBy(col, col, frame.AggCount)
		if err != nil {
			return nil, nil, err
		}
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
		if len(rows) > opts.Limit {
			rows = rows[:opts.Limit]
		}
		labels := make([]string, len(rows))
		values := make([]float64, len(rows))
		for i, r := range rows {
			labels[i] = frame.CellString(r.Key)
			values[i] = float64(r.Count)
		}
		return labels, values, nil
	}
	return nil, nil, fmt.Errorf("chart needs x_column, group_by, or both")
}

func axisChart(fr *frame.Frame, opts Options, chartType string) (*Result, error) {
	labels, values, err := categories(fr, opts)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, ErrNoData
	}

	cfg := baseConfig(opts.Title, "axis")
	cfg["grid"] = map[string]any{"left": "3%", "right": "4%", "bottom": "3%", "containLabel": true}
	cfg["xAxis"] = map[string]any{"type": "category", "data": labels}
	cfg["yAxis"] = map[string]any{"type": "value"}
	series := map[string]any{"type": chartType, "data": values}
	if chartType == "line" {
		series["smooth"] = true
	}
	cfg["series"] = []any{series}

	return &Result{Type: chartType, Config: cfg, DataCount: len(labels)}, nil
}

func namedValueChart(fr *frame.Frame, opts Options, chartType string) (*Result, error) {
	labels, values, err := categories(fr, opts)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, ErrNoData
	}

	data := make([]map[string]any, len(labels))
	for i := range labels {
		data[i] = map[string]any{"name": labels[i], "value": values[i]}
	}

	cfg := baseConfig(opts.Title, "item")
	series := map[string]any{"type": chartType, "data": data}
	if chartType == "pie" {
		series["radius"] = []string{"40%", "70%"}
		series["avoidLabelOverlap"] = true
		cfg["legend"] = map[string]any{"orient": "vertical", "left": "left"}
	}
	cfg["series"] = []any{series}

	return &Result{Type: chartType, Config: cfg, DataCount: len(labels)}, nil
}

func scatterChart(fr *frame.Frame, opts Options) (*Result, error) {
	if opts.XColumn == "" || opts.YColumn == "" {
		return nil, fmt.Errorf("scatter chart needs x_column and y_column")
	}
	xCol, err := fr.Column(opts.XColumn)
	if err != nil {
		return nil, err
	}
	yCol, err := fr.Column(opts.YColumn)
	if err != nil {
		return nil, err
	}

	points := make([][2]float64, 0, len(xCol))
	for i := range xCol {
		if len(points) == opts.Limit {
			break
		}
		points = append(points, [2]float64{numeric(xCol[i]), numeric(yCol[i])})
	}
	if len(points) == 0 {
		return nil, ErrNoData
	}

	cfg := baseConfig(opts.Title, "item")
	cfg["xAxis"] = map[string]any{"type": "value", "name": opts.XColumn}
	cfg["yAxis"] = map[string]any{"type": "value", "name": opts.YColumn}
	cfg["series"] = []any{map[string]any{"type": "scatter", "symbolSize": 10, "data": points}}

	return &Result{Type: "scatter", Config: cfg, DataCount: len(points)}, nil
}

func baseConfig(title, trigger string) map[string]any {
	return map[string]any{
		"title":           map[string]any{"text": title, "left": "center"},
		"tooltip":         map[string]any{"trigger": trigger},
		"backgroundColor": "transparent",
	}
}

func numeric(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case bool:
		if n {
			return 1
		}
	}
	return 0
}
