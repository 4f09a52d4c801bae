package tools

import (
	"context"
	"time"
)

const skillUtility = "utility"

func registerUtilityTools(r *Registry, deps *Deps) {
	r.MustRegister(&Tool{
		Name:        "get_current_time",
		Description: "Current date and time, useful for timestamps in formulas or file names.",
		Skill:       skillUtility,
		Schema:      ToolSchema{},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			now := time.Now()
			return jsonResult(map[string]any{
				"iso":     now.Format(time.RFC3339),
				"date":    now.Format("2006-01-02"),
				"time":    now.Format("15:04:05"),
				"weekday": now.Weekday().String(),
			})
		},
	})

	r.MustRegister(&Tool{
		Name:        "get_structure",
		Description: "Describe the active table: file, sheets, dimensions, and per-column types.",
		Skill:       skillUtility,
		Priority:    80,
		Schema: ToolSchema{
			Properties: map[string]Property{
				"table_id": {Type: "string", Description: "Table to describe; defaults to the active table."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			doc, err := deps.targetDocument(args)
			if err != nil {
				return errorResult("%v", err)
			}
			structure, err := doc.Structure()
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(structure)
		},
	})
}
