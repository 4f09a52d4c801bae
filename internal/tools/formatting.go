package tools

import (
	"context"

	"sheetagent/internal/document"
)

const skillFormatting = "formatting"

// styleTool builds one of the narrow formatting tools. They all funnel
// into Document.SetCellStyle with a partially filled CellStyle.
func styleTool(deps *Deps, name, description string, extra map[string]Property, build func(args map[string]any) document.CellStyle) *Tool {
	props := map[string]Property{
		"cell_range": {Type: "string", Description: "Cell or range, e.g. B2 or A1:C10."},
		"sheet":      {Type: "string", Description: "Sheet name; defaults to the active sheet."},
		"table_id":   {Type: "string", Description: "Table to modify; defaults to the active table."},
	}
	for k, v := range extra {
		props[k] = v
	}
	return &Tool{
		Name:        name,
		Description: description,
		Skill:       skillFormatting,
		Schema: ToolSchema{
			Required:   []string{"cell_range"},
			Properties: props,
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.SetCellStyle(stringArg(args, "cell_range", ""), build(args), stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	}
}

func registerFormattingTools(r *Registry, deps *Deps) {
	r.MustRegister(styleTool(deps, "set_font",
		"Set font attributes (bold, italic, size, color) on a cell range.",
		map[string]Property{
			"bold":   {Type: "boolean", Description: "Bold text."},
			"italic": {Type: "boolean", Description: "Italic text."},
			"size":   {Type: "number", Description: "Font size in points."},
			"color":  {Type: "string", Description: "Font color as hex, e.g. FF0000."},
		},
		func(args map[string]any) document.CellStyle {
			return document.CellStyle{
				Bold:      boolArg(args, "bold", false),
				Italic:    boolArg(args, "italic", false),
				FontSize:  floatArg(args, "size", 0),
				FontColor: stringArg(args, "color", ""),
			}
		}))

	r.MustRegister(styleTool(deps, "set_fill",
		"Set the background fill color of a cell range.",
		map[string]Property{
			"color": {Type: "string", Description: "Fill color as hex, e.g. FFFF00."},
		},
		func(args map[string]any) document.CellStyle {
			return document.CellStyle{FillColor: stringArg(args, "color", "")}
		}))

	r.MustRegister(styleTool(deps, "set_alignment",
		"Set horizontal and vertical alignment, optionally with text wrapping.",
		map[string]Property{
			"horizontal": {Type: "string", Description: "left, center, or right.", Enum: []any{"left", "center", "right"}},
			"vertical":   {Type: "string", Description: "top, center, or bottom.", Enum: []any{"top", "center", "bottom"}},
			"wrap_text":  {Type: "boolean", Description: "Wrap long text within the cell."},
		},
		func(args map[string]any) document.CellStyle {
			return document.CellStyle{
				HAlign:   stringArg(args, "horizontal", ""),
				VAlign:   stringArg(args, "vertical", ""),
				WrapText: boolArg(args, "wrap_text", false),
			}
		}))

	r.MustRegister(styleTool(deps, "set_border",
		"Draw a border around every cell of a range.",
		map[string]Property{
			"style": {Type: "string", Description: "Border style.", Default: "thin", Enum: []any{"thin", "medium", "dashed", "dotted", "thick", "double"}},
		},
		func(args map[string]any) document.CellStyle {
			return document.CellStyle{Border: stringArg(args, "style", "thin")}
		}))

	r.MustRegister(styleTool(deps, "set_number_format",
		"Apply a number format code to a cell range, e.g. 0.00 or #,##0 or yyyy-mm-dd.",
		map[string]Property{
			"format": {Type: "string", Description: "Excel number format code."},
		},
		func(args map[string]any) document.CellStyle {
			return document.CellStyle{NumFmt: stringArg(args, "format", "")}
		}))

	r.MustRegister(styleTool(deps, "set_cell_style",
		"Apply several style attributes to a cell range in one call.",
		map[string]Property{
			"bold":          {Type: "boolean", Description: "Bold text."},
			"italic":        {Type: "boolean", Description: "Italic text."},
			"font_size":     {Type: "number", Description: "Font size in points."},
			"font_color":    {Type: "string", Description: "Font color as hex."},
			"fill_color":    {Type: "string", Description: "Background color as hex."},
			"horizontal":    {Type: "string", Description: "Horizontal alignment."},
			"vertical":      {Type: "string", Description: "Vertical alignment."},
			"wrap_text":     {Type: "boolean", Description: "Wrap text."},
			"border":        {Type: "string", Description: "Border style name."},
			"number_format": {Type: "string", Description: "Number format code."},
		},
		func(args map[string]any) document.CellStyle {
			return document.CellStyle{
				Bold:      boolArg(args, "bold", false),
				Italic:    boolArg(args, "italic", false),
				FontSize:  floatArg(args, "font_size", 0),
				FontColor: stringArg(args, "font_color", ""),
				FillColor: stringArg(args, "fill_color", ""),
				HAlign:    stringArg(args, "horizontal", ""),
				VAlign:    stringArg(args, "vertical", ""),
				WrapText:  boolArg(args, "wrap_text", false),
				Border:    stringArg(args, "border", ""),
				NumFmt:    stringArg(args, "number_format", ""),
			}
		}))

	r.MustRegister(&Tool{
		Name:        "merge_cells",
		Description: "Merge a rectangular cell range into one cell.",
		Skill:       skillFormatting,
		Schema: ToolSchema{
			Required: []string{"cell_range"},
			Properties: map[string]Property{
				"cell_range": {Type: "string", Description: "Range to merge, e.g. A1:C1."},
				"sheet":      {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id":   {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.MergeCells(stringArg(args, "cell_range", ""), stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "unmerge_cells",
		Description: "Split a previously merged cell range back into individual cells.",
		Skill:       skillFormatting,
		Schema: ToolSchema{
			Required: []string{"cell_range"},
			Properties: map[string]Property{
				"cell_range": {Type: "string", Description: "Range to unmerge."},
				"sheet":      {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id":   {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.UnmergeCells(stringArg(args, "cell_range", ""), stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "set_column_width",
		Description: "Set the display width of one column.",
		Skill:       skillFormatting,
		Schema: ToolSchema{
			Required: []string{"column", "width"},
			Properties: map[string]Property{
				"column":   {Type: "string", Description: "Column letter, e.g. B."},
				"width":    {Type: "number", Description: "Width in character units."},
				"sheet":    {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id": {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.SetColumnWidth(stringArg(args, "column", ""), floatArg(args, "width", 0), stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "set_row_height",
		Description: "Set the display height of one row.",
		Skill:       skillFormatting,
		Schema: ToolSchema{
			Required: []string{"row", "height"},
			Properties: map[string]Property{
				"row":      {Type: "integer", Description: "Row number, 1-based."},
				"height":   {Type: "number", Description: "Height in points."},
				"sheet":    {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id": {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.SetRowHeight(intArg(args, "row", 0), floatArg(args, "height", 0), stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "auto_fit_column",
		Description: "Size a column to fit its longest value, within sensible bounds.",
		Skill:       skillFormatting,
		Schema: ToolSchema{
			Required: []string{"column"},
			Properties: map[string]Property{
				"column":    {Type: "string", Description: "Column letter, e.g. B."},
				"min_width": {Type: "number", Description: "Lower bound for the computed width.", Default: 8},
				"max_width": {Type: "number", Description: "Upper bound for the computed width.", Default: 50},
				"sheet":     {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id":  {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.AutoFitColumn(
				stringArg(args, "column", ""),
				floatArg(args, "min_width", 0),
				floatArg(args, "max_width", 0),
				stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})
}
