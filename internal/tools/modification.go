package tools

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetagent/internal/frame"
)

const skillModification = "modification"

func registerModificationTools(r *Registry, deps *Deps) {
	r.MustRegister(&Tool{
		Name:        "write_cell",
		Description: "Write a value into one cell. Values starting with '=' are stored as formulas.",
		Skill:       skillModification,
		Priority:    90,
		Schema: ToolSchema{
			Required: []string{"cell", "value"},
			Properties: map[string]Property{
				"cell":     {Type: "string", Description: "Cell address such as B2."},
				"value":    {Type: "string", Description: "Value to write. Numbers are stored as numbers."},
				"sheet":    {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id": {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.WriteCell(stringArg(args, "cell", ""), args["value"], stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "write_range",
		Description: "Write a 2D array of values starting at a cell, row by row.",
		Skill:       skillModification,
		Priority:    85,
		Schema: ToolSchema{
			Required: []string{"start_cell", "data"},
			Properties: map[string]Property{
				"start_cell": {Type: "string", Description: "Top-left cell of the target region."},
				"data":       {Type: "array", Description: "2D array of values, outer array is rows.", Items: &PropertyItems{Type: "array"}},
				"sheet":      {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id":   {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			grid, err := gridArg(args, "data")
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.WriteRange(stringArg(args, "start_cell", ""), grid, stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "insert_rows",
		Description: "Insert empty rows before the given row number (1-based).",
		Skill:       skillModification,
		Schema: ToolSchema{
			Required: []string{"row"},
			Properties: map[string]Property{
				"row":      {Type: "integer", Description: "Row number to insert before."},
				"count":    {Type: "integer", Description: "Number of rows to insert.", Default: 1},
				"sheet":    {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id": {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.InsertRows(intArg(args, "row", 0), intArg(args, "count", 1), stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "delete_rows",
		Description: "Delete a contiguous range of rows (1-based, inclusive).",
		Skill:       skillModification,
		Schema: ToolSchema{
			Required: []string{"start_row"},
			Properties: map[string]Property{
				"start_row": {Type: "integer", Description: "First row to delete."},
				"end_row":   {Type: "integer", Description: "Last row to delete; defaults to start_row."},
				"sheet":     {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id":  {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			start := intArg(args, "start_row", 0)
			end := intArg(args, "end_row", start)
			res, err := doc.DeleteRows(start, end, stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "insert_cols",
		Description: "Insert empty columns before the given column letter or number.",
		Skill:       skillModification,
		Schema: ToolSchema{
			Required: []string{"column"},
			Properties: map[string]Property{
				"column":   {Type: "string", Description: "Column letter (B) or number (2) to insert before."},
				"count":    {Type: "integer", Description: "Number of columns to insert.", Default: 1},
				"sheet":    {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id": {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			col, err := columnArg(args, "column")
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.InsertCols(col, intArg(args, "count", 1), stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "delete_cols",
		Description: "Delete a contiguous range of columns by letter or number (inclusive).",
		Skill:       skillModification,
		Schema: ToolSchema{
			Required: []string{"start_column"},
			Properties: map[string]Property{
				"start_column": {Type: "string", Description: "First column to delete, letter or number."},
				"end_column":   {Type: "string", Description: "Last column to delete; defaults to start_column."},
				"sheet":        {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id":     {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			start, err := columnArg(args, "start_column")
			if err != nil {
				return errorResult("%v", err)
			}
			end := start
			if _, ok := args["end_column"]; ok {
				if end, err = columnArg(args, "end_column"); err != nil {
					return errorResult("%v", err)
				}
			}
			res, err := doc.DeleteCols(start, end, stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "save_file",
		Description: "Save the table's working copy. With a path, saves there and repoints the table; without, saves in place (CSV origins upgrade to .xlsx).",
		Skill:       skillModification,
		Priority:    80,
		Schema: ToolSchema{
			Properties: map[string]Property{
				"path":     {Type: "string", Description: "Destination path; optional."},
				"table_id": {Type: "string", Description: "Table to save; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path, err := deps.Tables.SaveTable(stringArg(args, "table_id", ""), stringArg(args, "path", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"saved_to": path})
		},
	})

	r.MustRegister(&Tool{
		Name:        "save_to_original",
		Description: "Write the working copy's changes back to the file the table was originally loaded from.",
		Skill:       skillModification,
		Schema: ToolSchema{
			Properties: map[string]Property{
				"table_id": {Type: "string", Description: "Table to save; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			path, err := deps.Tables.SaveToOriginal(stringArg(args, "table_id", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"saved_to": path})
		},
	})

	r.MustRegister(&Tool{
		Name:        "export_file",
		Description: "Export the current sheet snapshot to a new .csv or .xlsx file without repointing the table.",
		Skill:       skillModification,
		Schema: ToolSchema{
			Required: []string{"path"},
			Properties: map[string]Property{
				"path":     {Type: "string", Description: "Destination path ending in .csv or .xlsx."},
				"table_id": {Type: "string", Description: "Table to export; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			fr, err := deps.targetFrame(args)
			if err != nil {
				return errorResult("%v", err)
			}
			path := stringArg(args, "path", "")
			if err := exportFrame(fr, path); err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"exported_to": path, "rows": fr.NumRows()})
		},
	})

	r.MustRegister(&Tool{
		Name:        "quick_export",
		Description: "Export rows matching optional filter conditions to a CSV next to the source file.",
		Skill:       skillModification,
		Schema: ToolSchema{
			Properties: map[string]Property{
				"conditions": {Type: "array", Description: "Optional filter conditions applied before export.", Items: &PropertyItems{Type: "object"}},
				"path":       {Type: "string", Description: "Destination path; defaults to <source>_export.csv."},
				"table_id":   {Type: "string", Description: "Table to export; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			tableID := stringArg(args, "table_id", "")
			fr, err := deps.Tables.Frame(tableID)
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
			path := stringArg(args, "path", "")
			if path == "" {
				id := tableID
				if id == "" {
					id = deps.Tables.ActiveID()
				}
				info, err := deps.Tables.Info(id)
				if err != nil {
					return errorResult("%v", err)
				}
				base := strings.TrimSuffix(info.OriginalPath, filepath.Ext(info.OriginalPath))
				path = base + "_export.csv"
			}
			if err := exportFrame(fr, path); err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"exported_to": path, "rows": fr.NumRows()})
		},
	})

	r.MustRegister(&Tool{
		Name:        "get_change_log",
		Description: "List the modifications recorded for the table since it was loaded, newest last.",
		Skill:       skillModification,
		Schema: ToolSchema{
			Properties: map[string]Property{
				"limit":    {Type: "integer", Description: "Maximum entries to return, counted from the end."},
				"table_id": {Type: "string", Description: "Table to inspect; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			log, err := deps.Tables.ChangeLog(stringArg(args, "table_id", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			total := len(log)
			limit := deps.limit(args)
			if len(log) > limit {
				log = log[len(log)-limit:]
			}
			return jsonResult(map[string]any{
				"total_changes": total,
				"changes":       log,
			})
		},
	})
}

// columnArg accepts a column as letter ("B") or number (2) and returns
// the 1-based column number.
func columnArg(args map[string]any, key string) (int, error) {
	raw := strings.TrimSpace(strings.ToUpper(stringArg(args, key, "")))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", ErrMissingRequiredArg, key)
	}
	if n, err := strconv.Atoi(raw); err == nil {
		if n < 1 {
			return 0, fmt.Errorf("%w: column number must be positive", ErrInvalidArgType)
		}
		return n, nil
	}
	col := 0
	for _, ch := range raw {
		if ch < 'A' || ch > 'Z' {
			return 0, fmt.Errorf("%w: invalid column %q", ErrInvalidArgType, raw)
		}
		col = col*26 + int(ch-'A') + 1
	}
	return col, nil
}

// exportFrame writes a snapshot to disk by extension. The table's own
// working copy and file path are untouched.
func exportFrame(fr *frame.Frame, path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		w := csv.NewWriter(f)
		if err := w.Write(fr.Columns()); err != nil {
			return err
		}
		for i := 0; i < fr.NumRows(); i++ {
			record := make([]string, fr.NumCols())
			for j, v := range fr.Row(i) {
				record[j] = frame.CellString(v)
			}
			if err := w.Write(record); err != nil {
				return err
			}
		}
		w.Flush()
		return w.Error()
	case ".xlsx":
		f := excelize.NewFile()
		defer f.Close()
		for j, name := range fr.Columns() {
			cell, _ := excelize.CoordinatesToCellName(j+1, 1)
			if err := f.SetCellValue("Sheet1", cell, name); err != nil {
				return err
			}
		}
		for i := 0; i < fr.NumRows(); i++ {
			for j, v := range fr.Row(i) {
				cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
				if err := f.SetCellValue("Sheet1", cell, v); err != nil {
					return err
				}
			}
		}
		return f.SaveAs(path)
	default:
		return fmt.Errorf("unsupported export format %q, use .csv or .xlsx", filepath.Ext(path))
	}
}
