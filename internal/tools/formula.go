package tools

import (
	"context"
)

const skillFormula = "formula"

func registerFormulaTools(r *Registry, deps *Deps) {
	r.MustRegister(&Tool{
		Name:        "write_formula",
		Description: "Write an Excel formula into a cell. The leading '=' is optional.",
		Skill:       skillFormula,
		Priority:    90,
		Schema: ToolSchema{
			Required: []string{"cell", "formula"},
			Properties: map[string]Property{
				"cell":     {Type: "string", Description: "Cell address such as D10."},
				"formula":  {Type: "string", Description: "Formula text, e.g. SUM(A1:A9)."},
				"sheet":    {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id": {Type: "string", Description: "Table to modify; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			res, err := doc.WriteFormula(stringArg(args, "cell", ""), stringArg(args, "formula", ""), stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(res)
		},
	})

	r.MustRegister(&Tool{
		Name:        "read_formula",
		Description: "Read the formula stored in a cell, if any.",
		Skill:       skillFormula,
		Schema: ToolSchema{
			Required: []string{"cell"},
			Properties: map[string]Property{
				"cell":     {Type: "string", Description: "Cell address to inspect."},
				"sheet":    {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id": {Type: "string", Description: "Table to inspect; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			cell := stringArg(args, "cell", "")
			expr, ok, err := doc.ReadFormula(cell, stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{
				"cell":        cell,
				"has_formula": ok,
				"formula":     expr,
			})
		},
	})

	r.MustRegister(&Tool{
		Name:        "list_formulas",
		Description: "List every formula cell on a sheet with its text and current value.",
		Skill:       skillFormula,
		Schema: ToolSchema{
			Properties: map[string]Property{
				"sheet":    {Type: "string", Description: "Sheet name; defaults to the active sheet."},
				"table_id": {Type: "string", Description: "Table to inspect; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			entries, err := doc.ListFormulas(stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{
				"count":    len(entries),
				"formulas": entries,
			})
		},
	})
}
