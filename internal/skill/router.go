package skill

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"sheetagent/internal/logging"
)

// Source supplies skills to the router. A Scanner is the usual source.
type Source interface {
	AllMetadata() []Metadata
	LoadFull(name string) (*Definition, error)
}

// Match is one scored skill for a query.
type Match struct {
	Name        string  `json:"name"`
	Score       float64 `json:"score"`
	MatchType   string  `json:"match_type"`
	MatchedText string  `json:"matched_text,omitempty"`
	Priority    int     `json:"priority"`
}

// Router selects skills for a query and tracks which are active. Core
// skills are always active; on-demand skills come and go per resolve.
type Router struct {
	source Source

	mu       sync.RWMutex
	active   map[string]struct{}
	patterns map[string][]*regexp.Regexp
}

// NewRouter builds a router over a skill source and activates the
// source's core skills.
func NewRouter(source Source) *Router {
	r := &Router{
		source:   source,
		active:   make(map[string]struct{}),
		patterns: make(map[string][]*regexp.Regexp),
	}
	r.Reset()
	return r
}

// ScoreQuery scores every known skill against a query. Skills with no
// signal (score 0) are omitted. Order follows scan order; callers sort.
//
// Scoring ladder per skill:
//  1. core category scores a fixed 1.0
//  2. keyword hits score min(1.0, 0.7 + 0.1*hits)
//  3. if the keyword score stayed below 0.9, the first matching
//     pattern scores a fixed 0.9
//  4. with no signal at all, lexical overlap against the description
//     and examples scores 0.6*Jaccard + 0.4*coverage
func (r *Router) ScoreQuery(query string) []Match {
	queryLower := strings.ToLower(query)
	queryTokens := tokenSet(query)

	var matches []Match
	for _, meta := range r.source.AllMetadata() {
		if meta.Category == CategoryCore {
			matches = append(matches, Match{
				Name: meta.Name, Score: 1.0, MatchType: "core", Priority: meta.Priority,
			})
			continue
		}

		score, matched := keywordScore(queryLower, meta.Keywords)
		matchType := "keyword"

		if score < 0.9 {
			if text := r.patternMatch(queryLower, meta); text != "" {
				score, matched, matchType = 0.9, text, "pattern"
			}
		}

		if score == 0 {
			score = lexicalScore(queryTokens, meta)
			matchType = "lexical"
		}

		if score > 0 {
			matches = append(matches, Match{
				Name:        meta.Name,
				Score:       score,
				MatchType:   matchType,
				MatchedText: matched,
				Priority:    meta.Priority,
			})
		}
	}
	return matches
}

func keywordScore(queryLower string, keywords []string) (float64, string) {
	hits := 0
	first := ""
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(queryLower, strings.ToLower(kw)) {
			if hits == 0 {
				first = kw
			}
			hits++
		}
	}
	if hits == 0 {
		return 0, ""
	}
	score := 0.7 + 0.1*float64(hits)
	if score > 1.0 {
		score = 1.0
	}
	return score, first
}

func (r *Router) patternMatch(queryLower string, meta Metadata) string {
	r.mu.Lock()
	compiled, ok := r.patterns[meta.Name]
	if !ok {
		for _, p := range meta.Patterns {
			rx, err := regexp.Compile("(?i)" + p)
			if err != nil {
				logging.L(logging.CategoryRouter).Warnw("invalid skill pattern",
					"skill", meta.Name, "pattern", p, "error", err)
				continue
			}
			compiled = append(compiled, rx)
		}
		r.patterns[meta.Name] = compiled
	}
	r.mu.Unlock()

	for _, rx := range compiled {
		if loc := rx.FindString(queryLower); loc != "" {
			return loc
		}
	}
	return ""
}

// lexicalScore weighs raw token overlap (Jaccard) against how much of
// the skill's own vocabulary the query consumes.
func lexicalScore(queryTokens map[string]struct{}, meta Metadata) float64 {
	texts := append([]string{meta.Description}, meta.Examples...)
	skillTokens := tokenSet(texts...)
	if len(skillTokens) == 0 || len(queryTokens) == 0 {
		return 0
	}

	intersection := 0
	for tok := range queryTokens {
		if _, ok := skillTokens[tok]; ok {
			intersection++
		}
	}
	union := len(queryTokens) + len(skillTokens) - intersection
	jaccard := float64(intersection) / float64(union)
	coverage := float64(intersection) / float64(len(skillTokens))
	return 0.6*jaccard + 0.4*coverage
}

// Resolve selects the skills to activate for a query: scores all,
// keeps those at or above threshold, sorts by score then priority
// (ties keep scan order), takes topK, and pulls in each winner's
// direct requirements. The dependency closure is deliberately one
// level deep. The active set becomes core skills plus the selection.
func (r *Router) Resolve(query string, topK int, threshold float64) ([]*Definition, error) {
	if topK <= 0 {
		topK = 3
	}

	matches := r.ScoreQuery(query)
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Priority > matches[j].Priority
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}

	selected := make(map[string]*Definition)
	var order []string
	add := func(name string) error {
		if _, ok := selected[name]; ok {
			return nil
		}
		def, err := r.source.LoadFull(name)
		if err != nil {
			return err
		}
		selected[name] = def
		order = append(order, name)
		return nil
	}

	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		if err := add(m.Name); err != nil {
			return nil, err
		}
		for _, dep := range selected[m.Name].Requires {
			if err := add(dep); err != nil {
				logging.L(logging.CategoryRouter).Warnw("missing skill dependency",
					"skill", m.Name, "requires", dep)
			}
		}
	}

	r.mu.Lock()
	r.active = r.coreSet()
	for name := range selected {
		r.active[name] = struct{}{}
	}
	r.mu.Unlock()

	out := make([]*Definition, 0, len(order))
	for _, name := range order {
		out = append(out, selected[name])
	}
	logging.L(logging.CategoryRouter).Debugw("resolved skills",
		"query_len", len(query), "selected", order)
	return out, nil
}

// coreSet returns the names of all core skills. Caller must not hold mu
// exclusively when the source also locks; source access here is
// lock-free with respect to r.mu.
func (r *Router) coreSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, meta := range r.source.AllMetadata() {
		if meta.Category == CategoryCore {
			set[meta.Name] = struct{}{}
		}
	}
	return set
}

// Activate turns a skill on by name, activating its direct requirements
// too. Activation fails if any declared conflict is currently active.
func (r *Router) Activate(name string) error {
	def, err := r.source.LoadFull(name)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, conflict := range def.Conflicts {
		if _, ok := r.active[conflict]; ok {
			return &ConflictError{Skill: name, Conflict: conflict}
		}
	}
	for _, dep := range def.Requires {
		if _, ok := keyInMetadata(r.source, dep); ok {
			r.active[dep] = struct{}{}
		}
	}
	r.active[name] = struct{}{}
	return nil
}

func keyInMetadata(src Source, name string) (Metadata, bool) {
	for _, m := range src.AllMetadata() {
		if m.Name == name {
			return m, true
		}
	}
	return Metadata{}, false
}

// Deactivate turns a skill off. Core skills cannot be deactivated.
func (r *Router) Deactivate(name string) error {
	meta, ok := keyInMetadata(r.source, name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSkill, name)
	}
	if meta.Category == CategoryCore {
		return fmt.Errorf("%w: %q", ErrCoreSkill, name)
	}
	r.mu.Lock()
	delete(r.active, name)
	r.mu.Unlock()
	return nil
}

// Reset restores the initial state: only core skills active.
func (r *Router) Reset() {
	core := r.coreSet()
	r.mu.Lock()
	r.active = core
	r.mu.Unlock()
}

// IsActive reports one skill's activation state.
func (r *Router) IsActive(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.active[name]
	return ok
}

// ActiveSkills lists active skill names in scan order.
func (r *Router) ActiveSkills() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, meta := range r.source.AllMetadata() {
		if _, ok := r.active[meta.Name]; ok {
			out = append(out, meta.Name)
		}
	}
	return out
}

// ActiveToolNames lists the tool names exposed by active skills,
// deduplicated, in scan order.
func (r *Router) ActiveToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, meta := range r.source.AllMetadata() {
		if _, ok := r.active[meta.Name]; !ok {
			continue
		}
		for _, tool := range meta.ToolNames {
			if _, dup := seen[tool]; dup {
				continue
			}
			seen[tool] = struct{}{}
			out = append(out, tool)
		}
	}
	return out
}

// SystemPromptAdditions concatenates the descriptor bodies of active
// skills for injection into the system prompt.
func (r *Router) SystemPromptAdditions() string {
	var sections []string
	for _, name := range r.ActiveSkills() {
		def, err := r.source.LoadFull(name)
		if err != nil || def.SystemPrompt == "" {
			continue
		}
		sections = append(sections, "## "+def.DisplayName+"\n"+def.SystemPrompt)
	}
	return strings.Join(sections, "\n\n")
}
