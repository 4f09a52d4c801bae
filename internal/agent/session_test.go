package agent

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/genai"

	"sheetagent/internal/config"
	"sheetagent/internal/registry"
	"sheetagent/internal/tools"
)

func toolSchemaFixture() tools.ToolSchema {
	return tools.ToolSchema{
		Required: []string{"column"},
		Properties: map[string]tools.Property{
			"column":     {Type: "string", Description: "Column to aggregate."},
			"conditions": {Type: "array", Items: &tools.PropertyItems{Type: "object"}},
			"function":   {Type: "string", Enum: []any{"sum", "mean"}},
		},
	}
}

// scripted fakes one canned model response per turn.
type scripted struct {
	responses []*genai.GenerateContentResponse
	requests  [][]*genai.Content
	configs   []*genai.GenerateContentConfig
}

func (s *scripted) GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.requests = append(s.requests, contents)
	s.configs = append(s.configs, cfg)
	resp := s.responses[0]
	if len(s.responses) > 1 {
		s.responses = s.responses[1:]
	}
	return resp, nil
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: genai.NewContentFromText(text, genai.RoleModel),
		}},
	}
}

func callResponse(name string, args map[string]any) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: genai.RoleModel,
				Parts: []*genai.Part{
					{FunctionCall: &genai.FunctionCall{Name: name, Args: args}},
				},
			},
		}},
	}
}

func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	rows := [][]any{
		{"Name", "Amount"},
		{"Alice", 120.0},
		{"Bob", 80.0},
	}
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, v))
		}
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func writeSkills(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	descriptor := `---
name: core_query
description: Filter, search and preview spreadsheet data
category: core
priority: 100
keywords: [filter, search, preview]
tools: [filter_data, get_data_preview, aggregate_data]
---
Answer data questions with the query tools.
`
	skillDir := filepath.Join(dir, "core_query")
	require.NoError(t, os.MkdirAll(skillDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(skillDir, "SKILL.md"), []byte(descriptor), 0o644))
	return dir
}

func newTestSession(t *testing.T, model generator) (*Session, *registry.Registry) {
	t.Helper()
	cfg := config.Default()
	cfg.Skills.Dir = writeSkills(t)

	tables := registry.New()
	_, _, err := tables.AddTable(writeWorkbook(t), "", false)
	require.NoError(t, err)

	sess, err := newSession(cfg, tables, model)
	require.NoError(t, err)
	return sess, tables
}

func TestAskPlainAnswer(t *testing.T) {
	model := &scripted{responses: []*genai.GenerateContentResponse{
		textResponse("There are two rows."),
	}}
	sess, _ := newTestSession(t, model)

	answer, err := sess.Ask(context.Background(), "how many rows are there")
	require.NoError(t, err)
	assert.Equal(t, "There are two rows.", answer)

	// System prompt carries the table inventory and the skill body.
	sysParts := model.configs[0].SystemInstruction.Parts
	require.NotEmpty(t, sysParts)
	assert.Contains(t, sysParts[0].Text, "book.xlsx")
	assert.Contains(t, sysParts[0].Text, "Answer data questions")
}

func TestAskExecutesToolCalls(t *testing.T) {
	model := &scripted{responses: []*genai.GenerateContentResponse{
		callResponse("aggregate_data", map[string]any{"column": "Amount", "function": "sum"}),
		textResponse("The total is 200."),
	}}
	sess, _ := newTestSession(t, model)

	var events []Event
	sess.OnEvent = func(ev Event) { events = append(events, ev) }

	answer, err := sess.Ask(context.Background(), "filter the total amount")
	require.NoError(t, err)
	assert.Equal(t, "The total is 200.", answer)

	// Second request contains the function response turn.
	require.Len(t, model.requests, 2)
	last := model.requests[1][len(model.requests[1])-1]
	require.NotEmpty(t, last.Parts)
	require.NotNil(t, last.Parts[0].FunctionResponse)
	assert.Equal(t, "aggregate_data", last.Parts[0].FunctionResponse.Name)

	var kinds []EventKind
	for _, ev := range events {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []EventKind{EventSkills, EventToolCall, EventToolResult, EventAnswer}, kinds)
}

func TestAskMaxTurns(t *testing.T) {
	model := &scripted{responses: []*genai.GenerateContentResponse{
		callResponse("get_data_preview", map[string]any{}),
	}}
	sess, _ := newTestSession(t, model)
	sess.cfg.LLM.MaxTurns = 3

	_, err := sess.Ask(context.Background(), "preview the data")
	assert.ErrorIs(t, err, ErrMaxTurns)
	assert.Len(t, model.requests, 3)
}

func TestDeclarationsFollowActiveSkills(t *testing.T) {
	model := &scripted{responses: []*genai.GenerateContentResponse{
		textResponse("ok"),
	}}
	sess, _ := newTestSession(t, model)

	_, err := sess.Ask(context.Background(), "filter something")
	require.NoError(t, err)

	require.Len(t, model.configs[0].Tools, 1)
	decls := model.configs[0].Tools[0].FunctionDeclarations
	names := make([]string, len(decls))
	for i, d := range decls {
		names[i] = d.Name
	}
	assert.ElementsMatch(t, []string{"filter_data", "get_data_preview", "aggregate_data"}, names)
}

func TestSchemaConversion(t *testing.T) {
	sch := schemaFor(toolSchemaFixture())
	assert.Equal(t, genai.TypeObject, sch.Type)
	assert.Equal(t, []string{"column"}, sch.Required)

	col := sch.Properties["column"]
	require.NotNil(t, col)
	assert.Equal(t, genai.TypeString, col.Type)

	conds := sch.Properties["conditions"]
	require.NotNil(t, conds)
	assert.Equal(t, genai.TypeArray, conds.Type)
	require.NotNil(t, conds.Items)
	assert.Equal(t, genai.TypeObject, conds.Items.Type)

	fn := sch.Properties["function"]
	require.NotNil(t, fn)
	assert.Equal(t, []string{"sum", "mean"}, fn.Enum)
}
