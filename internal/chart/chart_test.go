package chart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetagent/internal/frame"
)

func salesFrame() *frame.Frame {
	return frame.New(
		[]string{"Region", "Product", "Amount", "Units"},
		[][]any{
			{"East", "Widget", float64(100), int64(5)},
			{"West", "Widget", float64(250), int64(9)},
			{"East", "Gadget", float64(175), int64(3)},
			{"North", "Widget", float64(40), int64(2)},
			{"West", "Gadget", float64(310), int64(11)},
		},
	)
}

func TestRecommendType(t *testing.T) {
	fr := salesFrame()

	assert.Equal(t, "pie", RecommendType(fr, Options{GroupBy: "Region", YColumn: "Amount"}))
	assert.Equal(t, "scatter", RecommendType(fr, Options{XColumn: "Units", YColumn: "Amount"}))
	assert.Equal(t, "bar", RecommendType(fr, Options{XColumn: "Region", YColumn: "Amount"}))
	assert.Equal(t, "pie", RecommendType(fr, Options{GroupBy: "Product"}))
	assert.Equal(t, "bar", RecommendType(fr, Options{XColumn: "Region"}))
}

func TestRecommendTypeManyGroupsFallsToBar(t *testing.T) {
	rows := make([][]any, 12)
	for i := range rows {
		rows[i] = []any{string(rune('A' + i)), float64(i)}
	}
	fr := frame.New([]string{"Key", "Val"}, rows)

	assert.Equal(t, "bar", RecommendType(fr, Options{GroupBy: "Key", YColumn: "Val"}))
}

func TestGenerateGroupedBar(t *testing.T) {
	res, err := Generate(salesFrame(), Options{
		Type:    "bar",
		GroupBy: "Region",
		YColumn: "Amount",
		AggFunc: "sum",
		Title:   "Sales by Region",
	})
	require.NoError(t, err)

	assert.Equal(t, "bar", res.Type)
	assert.Equal(t, 3, res.DataCount)

	xAxis := res.Config["xAxis"].(map[string]any)
	// Grouped results are sorted by aggregate, largest first.
	assert.Equal(t, []string{"West", "East", "North"}, xAxis["data"])

	series := res.Config["series"].([]any)[0].(map[string]any)
	assert.Equal(t, []float64{560, 275, 40}, series["data"])

	title := res.Config["title"].(map[string]any)
	assert.Equal(t, "Sales by Region", title["text"])
}

func TestGeneratePie(t *testing.T) {
	res, err := Generate(salesFrame(), Options{Type: "pie", GroupBy: "Product", YColumn: "Units", AggFunc: "sum"})
	require.NoError(t, err)

	series := res.Config["series"].([]any)[0].(map[string]any)
	data := series["data"].([]map[string]any)
	require.Len(t, data, 2)
	assert.Equal(t, "Widget", data[0]["name"])
	assert.Equal(t, float64(16), data[0]["value"])
	assert.Equal(t, []string{"40%", "70%"}, series["radius"])
}

func TestGenerateValueCounts(t *testing.T) {
	res, err := Generate(salesFrame(), Options{Type: "bar", XColumn: "Region"})
	require.NoError(t, err)

	xAxis := res.Config["xAxis"].(map[string]any)
	assert.Equal(t, []string{"East", "West", "North"}, xAxis["data"])
	series := res.Config["series"].([]any)[0].(map[string]any)
	assert.Equal(t, []float64{2, 2, 1}, series["data"])
}

func TestGenerateScatter(t *testing.T) {
	res, err := Generate(salesFrame(), Options{Type: "scatter", XColumn: "Units", YColumn: "Amount"})
	require.NoError(t, err)

	assert.Equal(t, "scatter", res.Type)
	assert.Equal(t, 5, res.DataCount)
	series := res.Config["series"].([]any)[0].(map[string]any)
	points := series["data"].([][2]float64)
	assert.Equal(t, [2]float64{5, 100}, points[0])
}

func TestGenerateAutoUsesRecommendation(t *testing.T) {
	res, err := Generate(salesFrame(), Options{XColumn: "Units", YColumn: "Amount"})
	require.NoError(t, err)
	assert.Equal(t, "scatter", res.Type)
}

func TestGenerateLimit(t *testing.T) {
	res, err := Generate(salesFrame(), Options{Type: "bar", GroupBy: "Region", YColumn: "Amount", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.DataCount)
}

func TestGenerateErrors(t *testing.T) {
	fr := salesFrame()

	_, err := Generate(frame.New([]string{"A"}, nil), Options{Type: "bar", XColumn: "A"})
	assert.ErrorIs(t, err, ErrNoData)

	_, err = Generate(fr, Options{Type: "heatmap", XColumn: "Region"})
	assert.ErrorContains(t, err, "unsupported chart type")

	_, err = Generate(fr, Options{Type: "scatter", XColumn: "Units"})
	assert.ErrorContains(t, err, "scatter chart needs")

	_, err = Generate(fr, Options{Type: "bar"})
	assert.ErrorContains(t, err, "chart needs")

	_, err = Generate(fr, Options{Type: "bar", GroupBy: "Region", YColumn: "Amount", AggFunc: "variance"})
	assert.Error(t, err)

	_, err = Generate(fr, Options{Type: "line", XColumn: "Missing", YColumn: "Amount"})
	assert.Error(t, err)
}

func TestLineSeriesSmooth(t *testing.T) {
	res, err := Generate(salesFrame(), Options{Type: "line", XColumn: "Product", YColumn: "Amount"})
	require.NoError(t, err)
	series := res.Config["series"].([]any)[0].(map[string]any)
	assert.Equal(t, true, series["smooth"])
}
