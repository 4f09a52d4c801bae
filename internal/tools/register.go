package tools

import (
	"sheetagent/internal/config"
	"sheetagent/internal/document"
	"sheetagent/internal/frame"
	"sheetagent/internal/registry"
)

// Deps carries the shared state tools close over. One Deps per
// session; nothing here is global.
type Deps struct {
	Tables *registry.Registry
	Config *config.Config
}

// limit resolves the result cap for a call: the model's requested
// limit clamped to the configured maximum, defaulting when absent.
func (d *Deps) limit(args map[string]any) int {
	cfg := d.Config.Excel
	limit := intArg(args, "limit", cfg.DefaultResultLimit)
	if limit <= 0 {
		limit = cfg.DefaultResultLimit
	}
	if limit > cfg.MaxResultLimit {
		limit = cfg.MaxResultLimit
	}
	return limit
}

// targetFrame resolves the snapshot a read tool operates on, honoring
// an optional table_id argument.
func (d *Deps) targetFrame(args map[string]any) (*frame.Frame, error) {
	return d.Tables.Frame(stringArg(args, "table_id", ""))
}

// targetDocument resolves the document a mutating tool operates on.
func (d *Deps) targetDocument(args map[string]any) (*document.Document, error) {
	return d.Tables.Document(stringArg(args, "table_id", ""))
}

// RegisterAll wires every built-in tool into the registry.
func RegisterAll(r *Registry, deps *Deps) {
	registerQueryTools(r, deps)
	registerAggregationTools(r, deps)
	registerModificationTools(r, deps)
	registerFormulaTools(r, deps)
	registerFormattingTools(r, deps)
	registerSheetTools(r, deps)
	registerTableTools(r, deps)
	registerCalculationTools(r, deps)
	registerVisualizationTools(r, deps)
	registerUtilityTools(r, deps)
}
