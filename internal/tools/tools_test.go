package tools

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sheetagent/internal/config"
	"sheetagent/internal/registry"
)

func writeSalesWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"Name", "Region", "Amount"},
		{"Alice", "East", 120.0},
		{"Bob", "West", 80.0},
		{"Cara", "East", 200.0},
		{"Dan", "North", 45.0},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}

	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func newTestEnv(t *testing.T) (*Registry, *Deps) {
	t.Helper()
	tables := registry.New()
	_, _, err := tables.AddTable(writeSalesWorkbook(t), "", false)
	require.NoError(t, err)

	deps := &Deps{Tables: tables, Config: config.Default()}
	reg := NewRegistry()
	RegisterAll(reg, deps)
	return reg, deps
}

func run(t *testing.T, reg *Registry, name string, args map[string]any) map[string]any {
	t.Helper()
	res, err := reg.Execute(context.Background(), name, args)
	require.NoError(t, err, "tool %s", name)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Result), &payload), "tool %s output", name)
	return payload
}

func TestRegisterAllCoversTheToolSurface(t *testing.T) {
	reg, _ := newTestEnv(t)

	for _, name := range []string{
		"filter_data", "search_data", "get_data_preview", "read_cell", "read_range",
		"get_column_stats", "get_unique_values",
		"aggregate_data", "group_and_aggregate", "sort_data",
		"write_cell", "write_range", "insert_rows", "delete_rows", "insert_cols", "delete_cols",
		"save_file", "save_to_original", "export_file", "quick_export", "get_change_log",
		"write_formula", "read_formula", "list_formulas",
		"set_font", "set_fill", "set_alignment", "set_border", "set_number_format",
		"set_cell_style", "merge_cells", "unmerge_cells", "set_column_width",
		"set_row_height", "auto_fit_column",
		"switch_sheet", "create_sheet", "delete_sheet", "rename_sheet", "list_sheets",
		"add_table", "remove_table", "list_tables", "set_active_table", "join_tables", "get_table_columns",
		"calculate", "generate_chart", "get_current_time", "get_structure",
	} {
		assert.True(t, reg.Has(name), "missing tool %s", name)
	}
}

func TestFilterData(t *testing.T) {
	reg, _ := newTestEnv(t)

	payload := run(t, reg, "filter_data", map[string]any{
		"conditions": []any{
			map[string]any{"column": "Region", "operator": "==", "value": "East"},
		},
	})
	assert.Equal(t, float64(2), payload["total_rows"])

	data := payload["data"].([]any)
	first := data[0].(map[string]any)
	assert.Equal(t, "Alice", first["Name"])
}

func TestFilterDataUnknownColumnIsDomainError(t *testing.T) {
	reg, _ := newTestEnv(t)

	payload := run(t, reg, "filter_data", map[string]any{
		"conditions": []any{
			map[string]any{"column": "Nope", "operator": "==", "value": 1},
		},
	})
	assert.Contains(t, payload["error"], "Nope")
}

func TestAggregateData(t *testing.T) {
	reg, _ := newTestEnv(t)

	payload := run(t, reg, "aggregate_data", map[string]any{
		"column":   "Amount",
		"function": "sum",
	})
	assert.Equal(t, float64(445), payload["value"])

	payload = run(t, reg, "aggregate_data", map[string]any{
		"column":   "Amount",
		"function": "sum",
		"conditions": []any{
			map[string]any{"column": "Region", "value": "East"},
		},
	})
	assert.Equal(t, float64(320), payload["value"])
}

func TestGroupAndAggregate(t *testing.T) {
	reg, _ := newTestEnv(t)

	payload := run(t, reg, "group_and_aggregate", map[string]any{
		"group_by": "Region",
		"column":   "Amount",
		"function": "sum",
	})
	assert.Equal(t, float64(3), payload["total_groups"])

	groups := payload["groups"].([]any)
	first := groups[0].(map[string]any)
	assert.Equal(t, "East", first["group"])
	assert.Equal(t, float64(320), first["value"])
}

func TestWriteThenReadReflectsChange(t *testing.T) {
	reg, _ := newTestEnv(t)

	run(t, reg, "write_cell", map[string]any{"cell": "C2", "value": 999})

	payload := run(t, reg, "read_cell", map[string]any{"cell": "C2"})
	assert.Equal(t, float64(999), payload["value"])

	// The snapshot-backed tools see the write too.
	agg := run(t, reg, "aggregate_data", map[string]any{"column": "Amount", "function": "max"})
	assert.Equal(t, float64(999), agg["value"])

	log := run(t, reg, "get_change_log", map[string]any{})
	assert.Equal(t, float64(1), log["total_changes"])
}

func TestFormulaTools(t *testing.T) {
	reg, _ := newTestEnv(t)

	run(t, reg, "write_formula", map[string]any{"cell": "C7", "formula": "SUM(C2:C5)"})

	payload := run(t, reg, "read_formula", map[string]any{"cell": "C7"})
	assert.Equal(t, true, payload["has_formula"])
	assert.Equal(t, "SUM(C2:C5)", payload["formula"])

	listing := run(t, reg, "list_formulas", map[string]any{})
	assert.Equal(t, float64(1), listing["count"])
}

func TestLimitClampedToConfiguredMax(t *testing.T) {
	reg, deps := newTestEnv(t)
	deps.Config.Excel.MaxResultLimit = 2

	payload := run(t, reg, "sort_data", map[string]any{
		"column": "Amount", "ascending": false, "limit": 50,
	})
	assert.Equal(t, float64(4), payload["total_rows"])
	assert.Equal(t, float64(2), payload["returned_rows"])
}

func TestGetUniqueValues(t *testing.T) {
	reg, _ := newTestEnv(t)

	payload := run(t, reg, "get_unique_values", map[string]any{"column": "Region"})
	assert.Equal(t, float64(3), payload["total_distinct"])

	values := payload["values"].([]any)
	top := values[0].(map[string]any)
	assert.Equal(t, "East", top["value"])
	assert.Equal(t, float64(2), top["count"])
}

func TestCalculateTool(t *testing.T) {
	reg, _ := newTestEnv(t)

	payload := run(t, reg, "calculate", map[string]any{"expression": "round(445 * 0.1, 2)"})
	assert.Equal(t, float64(44.5), payload["result"])

	payload = run(t, reg, "calculate", map[string]any{"expression": "1 / 0"})
	assert.Contains(t, payload, "error")
}

func TestGenerateChartTool(t *testing.T) {
	reg, _ := newTestEnv(t)

	payload := run(t, reg, "generate_chart", map[string]any{
		"chart_type": "bar",
		"group_by":   "Region",
		"y_column":   "Amount",
	})
	assert.Equal(t, "bar", payload["chart_type"])
	assert.NotNil(t, payload["chart"])
}

func TestExportFileCSV(t *testing.T) {
	reg, _ := newTestEnv(t)
	dest := filepath.Join(t.TempDir(), "out.csv")

	payload := run(t, reg, "export_file", map[string]any{"path": dest})
	assert.Equal(t, dest, payload["exported_to"])
	assert.FileExists(t, dest)
}

func TestTableManagementTools(t *testing.T) {
	reg, deps := newTestEnv(t)

	listing := run(t, reg, "list_tables", map[string]any{})
	tables := listing["tables"].([]any)
	require.Len(t, tables, 1)

	second := run(t, reg, "add_table", map[string]any{"path": writeSalesWorkbook(t), "protect": false})
	newID := second["table_id"].(string)
	assert.Equal(t, newID, deps.Tables.ActiveID())

	run(t, reg, "remove_table", map[string]any{"table_id": newID})
	listing = run(t, reg, "list_tables", map[string]any{})
	assert.Len(t, listing["tables"].([]any), 1)
}

func TestMissingRequiredArgFailsTheCall(t *testing.T) {
	reg, _ := newTestEnv(t)

	_, err := reg.Execute(context.Background(), "filter_data", map[string]any{})
	assert.ErrorIs(t, err, ErrMissingRequiredArg)
}

func TestColumnArg(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"A", 1}, {"b", 2}, {"Z", 26}, {"AA", 27}, {"3", 3},
	}
	for _, tt := range tests {
		got, err := columnArg(map[string]any{"column": tt.in}, "column")
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := columnArg(map[string]any{"column": "A1"}, "column")
	assert.Error(t, err)
	_, err = columnArg(map[string]any{}, "column")
	assert.Error(t, err)
}
