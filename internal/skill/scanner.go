package skill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"sheetagent/internal/logging"
)

const descriptorName = "SKILL.md"

// Scanner discovers skill descriptors under one directory. The primary
// format is a subdirectory holding a SKILL.md with a YAML header block;
// loose *.yaml/*.yml files are accepted for backward compatibility and
// lose to the directory format on name collisions.
type Scanner struct {
	dir string

	mu      sync.RWMutex
	meta    map[string]Metadata
	order   []string
	full    map[string]*Definition
	scanned bool
}

// NewScanner creates a scanner rooted at dir. Nothing is read until
// Scan.
func NewScanner(dir string) *Scanner {
	return &Scanner{
		dir:  dir,
		meta: make(map[string]Metadata),
		full: make(map[string]*Definition),
	}
}

// Scan walks the skills directory and caches metadata only. A repeat
// call is a no-op unless force is set. Returns the number of skills
// known after the scan.
func (s *Scanner) Scan(force bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scanned && !force {
		return len(s.meta), nil
	}

	s.meta = make(map[string]Metadata)
	s.order = nil
	s.full = make(map[string]*Definition)

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			logging.L(logging.CategorySkills).Warnw("skills directory missing", "dir", s.dir)
			s.scanned = true
			return 0, nil
		}
		return 0, fmt.Errorf("read skills directory: %w", err)
	}

	// Directory format first: it takes precedence on duplicate names.
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(s.dir, entry.Name(), descriptorName)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		meta, err := loadDirectoryMetadata(path, entry.Name())
		if err != nil {
			logging.L(logging.CategorySkills).Warnw("skipping skill directory",
				"path", path, "error", err)
			continue
		}
		s.store(meta, false)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		meta, err := loadLegacyMetadata(path)
		if err != nil {
			logging.L(logging.CategorySkills).Warnw("skipping legacy skill file",
				"path", path, "error", err)
			continue
		}
		s.store(meta, true)
	}

	s.scanned = true
	logging.L(logging.CategorySkills).Infow("skill scan complete",
		"dir", s.dir, "skills", len(s.meta))
	return len(s.meta), nil
}

// store records metadata, dropping legacy entries that collide with an
// already-registered name.
func (s *Scanner) store(meta Metadata, legacy bool) {
	if _, exists := s.meta[meta.Name]; exists {
		if legacy {
			logging.L(logging.CategorySkills).Debugw("legacy duplicate ignored",
				"skill", meta.Name, "path", meta.SourcePath)
			return
		}
	} else {
		s.order = append(s.order, meta.Name)
	}
	s.meta[meta.Name] = meta
}

func loadDirectoryMetadata(path, dirName string) (Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	fm, _, err := splitFrontmatter(string(content))
	if err != nil {
		return Metadata{}, err
	}
	if fm.Name == "" {
		fm.Name = dirName
	}
	return fm.metadata(path), nil
}

func loadLegacyMetadata(path string) (Metadata, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	var fm frontmatter
	if err := yaml.Unmarshal(content, &fm); err != nil {
		return Metadata{}, fmt.Errorf("parse yaml: %w", err)
	}
	if fm.Name == "" {
		return Metadata{}, fmt.Errorf("legacy skill file %s has no name", path)
	}
	return fm.metadata(path), nil
}

// splitFrontmatter separates the "---" delimited YAML header from the
// markdown body.
func splitFrontmatter(content string) (frontmatter, string, error) {
	var fm frontmatter
	if !strings.HasPrefix(content, "---") {
		return fm, content, nil
	}
	end := strings.Index(content[3:], "---")
	if end == -1 {
		return fm, content, nil
	}
	header := content[3 : end+3]
	body := strings.TrimSpace(content[end+6:])
	if err := yaml.Unmarshal([]byte(header), &fm); err != nil {
		return fm, "", fmt.Errorf("parse frontmatter: %w", err)
	}
	return fm, body, nil
}

// LoadFull loads and caches a skill's complete definition.
func (s *Scanner) LoadFull(name string) (*Definition, error) {
	s.mu.RLock()
	if def, ok := s.full[name]; ok {
		s.mu.RUnlock()
		return def, nil
	}
	meta, ok := s.meta[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, name)
	}

	content, err := os.ReadFile(meta.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("load skill %q: %w", name, err)
	}

	var fm frontmatter
	body := ""
	if filepath.Base(meta.SourcePath) == descriptorName {
		fm, body, err = splitFrontmatter(string(content))
		if err != nil {
			return nil, fmt.Errorf("load skill %q: %w", name, err)
		}
	} else {
		if err := yaml.Unmarshal(content, &fm); err != nil {
			return nil, fmt.Errorf("load skill %q: %w", name, err)
		}
		body = fm.SystemPrompt
	}

	def := &Definition{
		Metadata:     meta,
		SystemPrompt: body,
		Requires:     fm.Requires,
		Conflicts:    fm.Conflicts,
	}

	s.mu.Lock()
	s.full[name] = def
	s.mu.Unlock()
	return def, nil
}

// Metadata returns one skill's scan record.
func (s *Scanner) Metadata(name string) (Metadata, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.meta[name]
	return m, ok
}

// AllMetadata returns every skill's metadata in scan order.
func (s *Scanner) AllMetadata() []Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Metadata, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.meta[name])
	}
	return out
}

// ListPrompt renders the compact skill list injected into the system
// prompt: grouped core, on-demand, then system, each group by priority.
func (s *Scanner) ListPrompt() string {
	all := s.AllMetadata()
	if len(all) == 0 {
		return "No skills available."
	}

	byCat := make(map[Category][]Metadata)
	for _, m := range all {
		byCat[m.Category] = append(byCat[m.Category], m)
	}

	lines := []string{"Available skills:"}
	for _, cat := range []Category{CategoryCore, CategoryOnDemand, CategorySystem} {
		group := byCat[cat]
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Priority > group[j].Priority
		})
		for _, m := range group {
			lines = append(lines, m.ListItem())
		}
	}
	return strings.Join(lines, "\n")
}

// Watch rescans whenever a descriptor under the skills directory
// changes. Blocks until ctx is done.
func (s *Scanner) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}
	entries, err := os.ReadDir(s.dir)
	if err == nil {
		for _, entry := range entries {
			if entry.IsDir() {
				_ = watcher.Add(filepath.Join(s.dir, entry.Name()))
			}
		}
	}

	log := logging.L(logging.CategorySkills)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Debugw("skills directory changed", "event", event.String())
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					_ = watcher.Add(event.Name)
				}
			}
			if _, err := s.Scan(true); err != nil {
				log.Warnw("rescan failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warnw("watcher error", "error", err)
		}
	}
}
