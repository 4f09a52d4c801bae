package tools

import (
	"context"

	"sheetagent/internal/calc"
)

const skillCalculation = "calculation"

func registerCalculationTools(r *Registry, deps *Deps) {
	r.MustRegister(&Tool{
		Name:        "calculate",
		Description: "Evaluate an arithmetic expression. Supports + - * / % ^, parentheses, and functions like sum, round, sqrt, min, max.",
		Skill:       skillCalculation,
		Schema: ToolSchema{
			Required: []string{"expression"},
			Properties: map[string]Property{
				"expression": {Type: "string", Description: "Expression to evaluate, e.g. round(1234.56 * 0.08, 2)."},
			},
		},
		Execute: func(ctx context.Context, args map[string]any) (string, error) {
			expr := stringArg(args, "expression", "")
			value, err := calc.Eval(expr)
			if err != nil {
				return errorResult("%v", err)
			}
			return jsonResult(map[string]any{"expression": expr, "result": value})
		},
	})
}
