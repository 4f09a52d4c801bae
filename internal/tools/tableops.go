package tools

import (
	"context"
)

const skillTables = "table_management"

func registerTableTools(r *Registry, deps *Deps) {
	r.MustRegister(&Tool{
		Name:        "add_table",
		Description: "Load another spreadsheet into the session as a new table and make it active.",
		Skill:       skillTables,
		Priority:    90,
		Schema: ToolSchema{
			Required: []string{"path"},
			Properties: map[string]Property{
				"path":    {Type: "string", Description: "Path to an .xlsx, .xlsm or .csv file."},
				"sheet":   {Type: "string", Description: "Sheet to activate on load."},
				"protect": {Type: "boolean", Description: "Work on a protected copy instead of the original.", Default: true},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			id, structure, err := deps.Tables.AddTable(
				stringArg(args, "path", ""),
				stringArg(args, "sheet", ""),
				boolArg(args, "protect", true))
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"table_id": id, "structure": structure})
		},
	})

	r.MustRegister(&Tool{
		Name:        "remove_table",
		Description: "Remove a table from the session and delete its protected copy if one was made.",
		Skill:       skillTables,
		Schema: ToolSchema{
			Required: []string{"table_id"},
			Properties: map[string]Property{
				"table_id": {Type: "string", Description: "Table to remove."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			id := stringArg(args, "table_id", "")
			if err := deps.Tables.RemoveTable(id); err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"removed": id, "active_table": deps.Tables.ActiveID()})
		},
	})

	r.MustRegister(&Tool{
		Name:        "list_tables",
		Description: "List every loaded table with its dimensions and which one is active.",
		Skill:       skillTables,
		Priority:    85,
		Schema:      ToolSchema{},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			return jsonResult(map[string]any{
				"tables":       deps.Tables.ListTables(),
				"active_table": deps.Tables.ActiveID(),
			})
		},
	})

	r.MustRegister(&Tool{
		Name:        "set_active_table",
		Description: "Switch which loaded table subsequent tools operate on by default.",
		Skill:       skillTables,
		Schema: ToolSchema{
			Required: []string{"table_id"},
			Properties: map[string]Property{
				"table_id": {Type: "string", Description: "Table to activate."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			id := stringArg(args, "table_id", "")
			if err := deps.Tables.SetActiveTable(id); err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"active_table": id})
		},
	})

	r.MustRegister(&Tool{
		Name:        "join_tables",
		Description: "Join two loaded tables on key columns into a new read-only table. Join types: inner, left, right, outer.",
		Skill:       skillTables,
		Schema: ToolSchema{
			Required: []string{"left_table", "right_table", "left_keys", "right_keys"},
			Properties: map[string]Property{
				"left_table":  {Type: "string", Description: "Table id of the left side."},
				"right_table": {Type: "string", Description: "Table id of the right side."},
				"left_keys":   {Type: "array", Description: "Key columns on the left table.", Items: &PropertyItems{Type: "string"}},
				"right_keys":  {Type: "array", Description: "Key columns on the right table, positionally matched.", Items: &PropertyItems{Type: "string"}},
				"how":         {Type: "string", Description: "Join type.", Default: "inner", Enum: []any{"inner", "left", "right", "outer"}},
				"name":        {Type: "string", Description: "Display name for the joined table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			id, joined, err := deps.Tables.JoinTables(
				stringArg(args, "left_table", ""),
				stringArg(args, "right_table", ""),
				stringSliceArg(args, "left_keys"),
				stringSliceArg(args, "right_keys"),
				stringArg(args, "how", "inner"),
				stringArg(args, "name", ""))
			if err != nil {
				return errorResult("%v", err)
			}
			result := frameResult(joined, deps.limit(args))
			result["table_id"] = id
			return jsonResult(result)
		},
	})

	r.MustRegister(&Tool{
		Name:        "get_table_columns",
		Description: "List the column names of a loaded table.",
		Skill:       skillTables,
		Schema: ToolSchema{
			Properties: map[string]Property{
				"table_id": {Type: "string", Description: "Table to inspect; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			id := stringArg(args, "table_id", "")
			cols, err := deps.Tables.Columns(id)
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"columns": cols})
		},
	})
}
