// Package skill implements the descriptor scanner and the intent-based
// router. Scanning reads only lightweight metadata; the full descriptor
// body loads lazily when a skill is actually selected.
package skill

// Category controls activation behavior. Core skills are always active.
type Category string

const (
	CategoryCore     Category = "core"
	CategoryOnDemand Category = "on_demand"
	CategorySystem   Category = "system"
)

func parseCategory(s string) Category {
	switch Category(s) {
	case CategoryCore, CategorySystem:
		return Category(s)
	default:
		return CategoryOnDemand
	}
}

// Metadata is the lightweight scan-time record for one skill.
type Metadata struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Priority    int      `json:"priority"`
	Keywords    []string `json:"keywords,omitempty"`
	Patterns    []string `json:"patterns,omitempty"`
	ToolNames   []string `json:"tools,omitempty"`
	Examples    []string `json:"examples,omitempty"`

	// SourcePath points at the descriptor file for lazy full loads.
	SourcePath string `json:"-"`
}

// ListItem renders the compact one-line form used in prompt listings.
func (m Metadata) ListItem() string {
	return "- " + m.Name + ": " + m.Description
}

// Definition is the fully loaded skill: metadata plus the descriptor
// body and activation constraints.
type Definition struct {
	Metadata
	SystemPrompt string   `json:"system_prompt,omitempty"`
	Requires     []string `json:"requires,omitempty"`
	Conflicts    []string `json:"conflicts,omitempty"`
}

// frontmatter mirrors the descriptor header block.
type frontmatter struct {
	Name         string   `yaml:"name"`
	DisplayName  string   `yaml:"display_name"`
	Description  string   `yaml:"description"`
	Category     string   `yaml:"category"`
	Priority     int      `yaml:"priority"`
	Keywords     []string `yaml:"keywords"`
	Patterns     []string `yaml:"patterns"`
	Tools        []string `yaml:"tools"`
	Requires     []string `yaml:"requires"`
	Conflicts    []string `yaml:"conflicts"`
	Examples     []string `yaml:"examples"`
	SystemPrompt string   `yaml:"system_prompt"`
}

func (f *frontmatter) metadata(sourcePath string) Metadata {
	display := f.DisplayName
	if display == "" {
		display = f.Name
	}
	return Metadata{
		Name:        f.Name,
		DisplayName: display,
		Description: f.Description,
		Category:    parseCategory(f.Category),
		Priority:    f.Priority,
		Keywords:    f.Keywords,
		Patterns:    f.Patterns,
		ToolNames:   f.Tools,
		Examples:    f.Examples,
		SourcePath:  sourcePath,
	}
}
