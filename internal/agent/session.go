// Package agent runs the conversation loop: route the query to skills,
// expose the matching tools to Gemini, and execute function calls until
// the model answers in plain text.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"sheetagent/internal/config"
	"sheetagent/internal/logging"
	"sheetagent/internal/registry"
	"sheetagent/internal/skill"
	"sheetagent/internal/tools"
)

// ErrMaxTurns is returned when the model keeps calling tools past the
// configured turn budget.
var ErrMaxTurns = errors.New("conversation exceeded max turns")

const basePrompt = `You are a spreadsheet analysis assistant. You answer questions about
loaded spreadsheet tables by calling the provided tools, never by guessing values.
Cell addresses are A1-style. When you modify data, report exactly what changed.
Reply in the user's language.`

// generator is the slice of the genai client the session uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// EventKind tags progress events emitted during a turn.
type EventKind string

const (
	EventSkills     EventKind = "skills"
	EventToolCall   EventKind = "tool_call"
	EventToolResult EventKind = "tool_result"
	EventAnswer     EventKind = "answer"
)

// Event is one observable step of the loop.
type Event struct {
	Kind   EventKind
	Tool   string
	Args   map[string]any
	Text   string
	Skills []string
}

// Session owns the per-conversation state: loaded tables, skill
// routing, the tool registry, and the model transcript.
type Session struct {
	cfg     *config.Config
	model   generator
	tables  *registry.Registry
	scanner *skill.Scanner
	router  *skill.Router
	tools   *tools.Registry

	history []*genai.Content

	// OnEvent, when set, receives progress events during Ask.
	OnEvent func(Event)
}

// NewSession builds a session against the real Gemini API.
func NewSession(ctx context.Context, cfg *config.Config, tables *registry.Registry) (*Session, error) {
	key := cfg.APIKey()
	if key == "" {
		return nil, fmt.Errorf("no API key set, export %s", cfg.LLM.APIKeyEnv)
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newSession(cfg, tables, client.Models)
}

func newSession(cfg *config.Config, tables *registry.Registry, model generator) (*Session, error) {
	scanner := skill.NewScanner(cfg.Skills.Dir)
	if _, err := scanner.Scan(false); err != nil {
		return nil, fmt.Errorf("scan skills: %w", err)
	}
	router := skill.NewRouter(scanner)

	reg := tools.NewRegistry()
	tools.RegisterAll(reg, &tools.Deps{Tables: tables, Config: cfg})

	return &Session{
		cfg:     cfg,
		model:   model,
		tables:  tables,
		scanner: scanner,
		router:  router,
		tools:   reg,
	}, nil
}

// Router exposes skill activation for the CLI.
func (s *Session) Router() *skill.Router { return s.router }

// WatchSkills rescans the skills directory on descriptor changes until
// ctx is done.
func (s *Session) WatchSkills(ctx context.Context) error {
	return s.scanner.Watch(ctx)
}

// Tools exposes the registry for inspection.
func (s *Session) Tools() *tools.Registry { return s.tools }

func (s *Session) emit(ev Event) {
	if s.OnEvent != nil {
		s.OnEvent(ev)
	}
}

// Ask routes the query, runs the tool loop, and returns the model's
// final text answer. The transcript persists across calls, so
// follow-up questions see earlier turns.
func (s *Session) Ask(ctx context.Context, query string) (string, error) {
	log := logging.L(logging.CategoryAgent)

	if _, err := s.router.Resolve(query, s.cfg.Skills.TopK, s.cfg.Skills.Threshold); err != nil {
		return "", fmt.Errorf("resolve skills: %w", err)
	}
	active := s.router.ActiveSkills()
	log.Debugw("skills resolved", "query", query, "active", active)
	s.emit(Event{Kind: EventSkills, Skills: active})

	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(s.systemPrompt(), genai.RoleUser),
		Temperature:       genai.Ptr(s.cfg.LLM.Temperature),
	}
	if decls := s.declarations(); len(decls) > 0 {
		genCfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	s.history = append(s.history, genai.NewContentFromText(query, genai.RoleUser))

	for turn := 0; turn < s.cfg.LLM.MaxTurns; turn++ {
		resp, err := s.model.GenerateContent(ctx, s.cfg.LLM.Model, s.history, genCfg)
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
			return "", errors.New("model returned no candidates")
		}
		s.history = append(s.history, resp.Candidates[0].Content)

		calls := resp.FunctionCalls()
		if len(calls) == 0 {
			answer := resp.Text()
			s.emit(Event{Kind: EventAnswer, Text: answer})
			return answer, nil
		}

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			s.emit(Event{Kind: EventToolCall, Tool: call.Name, Args: call.Args})

			result, err := s.tools.Execute(ctx, call.Name, call.Args)
			var payload map[string]any
			if err != nil {
				log.Warnw("tool call failed", "tool", call.Name, "error", err)
				payload = map[string]any{"error": err.Error()}
			} else {
				payload = map[string]any{"result": result.Result}
				s.emit(Event{Kind: EventToolResult, Tool: call.Name, Text: result.Result})
			}
			parts = append(parts, genai.NewPartFromFunctionResponse(call.Name, payload))
		}
		s.history = append(s.history, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	return "", ErrMaxTurns
}

// systemPrompt assembles the base instructions, the current table
// inventory, and the prompt additions of every active skill.
func (s *Session) systemPrompt() string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if s.tables.IsLoaded() {
		if summary, err := s.tables.ActiveSummary(); err == nil {
			b.WriteString("\n\n# Loaded data\n")
			b.WriteString(summary)
		}
	}

	if additions := s.router.SystemPromptAdditions(); additions != "" {
		b.WriteString("\n\n")
		b.WriteString(additions)
	}
	return b.String()
}

// declarations converts the active skills' tools into Gemini function
// declarations. Tools whose skill has no descriptor stay hidden.
func (s *Session) declarations() []*genai.FunctionDeclaration {
	names := s.router.ActiveToolNames()
	decls := make([]*genai.FunctionDeclaration, 0, len(names))
	for _, tool := range s.tools.GetMultiple(names) {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  schemaFor(tool.Schema),
		})
	}
	return decls
}

func schemaFor(ts tools.ToolSchema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(ts.Properties))
	for name, p := range ts.Properties {
		prop := &genai.Schema{
			Type:        genaiType(p.Type),
			Description: p.Description,
		}
		for _, e := range p.Enum {
			prop.Enum = append(prop.Enum, fmt.Sprintf("%v", e))
		}
		if p.Items != nil {
			prop.Items = &genai.Schema{Type: genaiType(p.Items.Type)}
		}
		props[name] = prop
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   ts.Required,
	}
}

func genaiType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
