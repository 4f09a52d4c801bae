package tools

import (
	"context"
)

const skillSheets = "sheet_management"

func registerSheetTools(r *Registry, deps *Deps) {
	r.MustRegister(&Tool{
		Name:        "switch_sheet",
		Description: "Make another sheet of the workbook the active one and return its structure.",
		Skill:       skillSheets,
		Priority:    90,
		Schema: ToolSchema{
			Required: []string{"sheet"},
			Properties: map[string]Property{
				"sheet":    {Type: "string", Description: "Sheet to switch to."},
				"table_id": {Type: "string", Description: "Table to act on; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			structure, err := doc.SwitchSheet(stringArg(args, "sheet", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(structure)
		},
	})

	r.MustRegister(&Tool{
		Name:        "create_sheet",
		Description: "Add a new empty sheet to the workbook.",
		Skill:       skillSheets,
		Schema: ToolSchema{
			Required: []string{"name"},
			Properties: map[string]Property{
				"name":     {Type: "string", Description: "Name of the new sheet."},
				"table_id": {Type: "string", Description: "Table to act on; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			name := stringArg(args, "name", "")
			if err := doc.CreateSheet(name); err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"created": name, "sheets": doc.Sheets()})
		},
	})

	r.MustRegister(&Tool{
		Name:        "delete_sheet",
		Description: "Remove a sheet from the workbook. The last remaining sheet cannot be removed.",
		Skill:       skillSheets,
		Schema: ToolSchema{
			Required: []string{"name"},
			Properties: map[string]Property{
				"name":     {Type: "string", Description: "Sheet to remove."},
				"table_id": {Type: "string", Description: "Table to act on; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			name := stringArg(args, "name", "")
			if err := doc.DeleteSheet(name); err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"deleted": name, "sheets": doc.Sheets(), "active_sheet": doc.ActiveSheet()})
		},
	})

	r.MustRegister(&Tool{
		Name:        "rename_sheet",
		Description: "Rename a sheet, keeping its data and pending changes.",
		Skill:       skillSheets,
		Schema: ToolSchema{
			Required: []string{"old_name", "new_name"},
			Properties: map[string]Property{
				"old_name": {Type: "string", Description: "Current sheet name."},
				"new_name": {Type: "string", Description: "New sheet name."},
				"table_id": {Type: "string", Description: "Table to act on; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			oldName := stringArg(args, "old_name", "")
			newName := stringArg(args, "new_name", "")
			if err := doc.RenameSheet(oldName, newName); err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"renamed": oldName, "to": newName, "sheets": doc.Sheets()})
		},
	})

	r.MustRegister(&Tool{
		Name:        "list_sheets",
		Description: "List the workbook's sheets and which one is active.",
		Skill:       skillSheets,
		Schema: ToolSchema{
			Properties: map[string]Property{
				"table_id": {Type: "string", Description: "Table to inspect; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{
				"sheets":       doc.Sheets(),
				"active_sheet": doc.ActiveSheet(),
			})
		},
	})
}
