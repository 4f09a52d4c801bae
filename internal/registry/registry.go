// Package registry manages the set of loaded tables. Each table is
// either backed by a Document (writable) or by a bare frame snapshot
// (read-only, produced by joins). One table is active at a time; tools
// that omit a table ID operate on the active one.
package registry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"sheetagent/internal/document"
	"sheetagent/internal/frame"
	"sheetagent/internal/logging"
)

const copyDirName = ".sheet_copies"

// TableInfo is the metadata kept per registered table.
type TableInfo struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	FilePath     string    `json:"file_path"`
	OriginalPath string    `json:"original_path"`
	SheetName    string    `json:"sheet_name"`
	TotalRows    int       `json:"total_rows"`
	TotalColumns int       `json:"total_columns"`
	LoadedAt     time.Time `json:"loaded_at"`
	IsJoined     bool      `json:"is_joined"`
	SourceTables []string  `json:"source_tables,omitempty"`
	IsCopy       bool      `json:"is_copy"`
	Writable     bool      `json:"writable"`
}

// entry pairs metadata with whichever engine backs the table. Exactly
// one of doc and snapshot is set.
type entry struct {
	info     TableInfo
	doc      *document.Document
	snapshot *frame.Frame
}

// Registry holds all loaded tables in addition order.
type Registry struct {
	entries  map[string]*entry
	order    []string
	activeID string
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// IsLoaded reports whether any table is registered.
func (r *Registry) IsLoaded() bool { return len(r.entries) > 0 }

// ActiveID returns the active table's ID ("" when empty).
func (r *Registry) ActiveID() string { return r.activeID }

// AddTable loads a file as a new table and makes it active. With
// protect set, the file is first copied into a .sheet_copies sidecar
// directory and the copy is opened, so the original is never touched.
func (r *Registry) AddTable(path, sheet string, protect bool) (string, *document.Structure, error) {
	if _, err := os.Stat(path); err != nil {
		return "", nil, fmt.Errorf("file not found: %s", path)
	}
	absOriginal, err := filepath.Abs(path)
	if err != nil {
		absOriginal = path
	}

	tableID := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]

	workPath := path
	isCopy := false
	if protect {
		workPath, err = protectedCopy(path, tableID)
		if err != nil {
			return "", nil, err
		}
		isCopy = true
		logging.L(logging.CategoryRegistry).Infow("created protected copy",
			"original", path, "copy", workPath)
	}

	doc := document.New()
	structure, err := doc.Load(workPath, sheet)
	if err != nil {
		if isCopy {
			_ = os.Remove(workPath)
		}
		return "", nil, err
	}

	r.entries[tableID] = &entry{
		info: TableInfo{
			ID:           tableID,
			Filename:     filepath.Base(path),
			FilePath:     doc.FilePath(),
			OriginalPath: absOriginal,
			SheetName:    structure.SheetName,
			TotalRows:    structure.TotalRows,
			TotalColumns: structure.TotalColumns,
			LoadedAt:     time.Now(),
			IsCopy:       isCopy,
			Writable:     true,
		},
		doc: doc,
	}
	r.order = append(r.order, tableID)
	r.activeID = tableID

	return tableID, structure, nil
}

// AddBlank registers an empty in-memory workbook and makes it active.
func (r *Registry) AddBlank(name string) string {
	tableID := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	doc := document.New()
	doc.NewBlank()

	if name == "" {
		name = "untitled"
	}
	r.entries[tableID] = &entry{
		info: TableInfo{
			ID:        tableID,
			Filename:  name,
			SheetName: doc.ActiveSheet(),
			LoadedAt:  time.Now(),
			Writable:  true,
		},
		doc: doc,
	}
	r.order = append(r.order, tableID)
	r.activeID = tableID
	return tableID
}

func protectedCopy(path, tableID string) (string, error) {
	dir := filepath.Join(filepath.Dir(path), copyDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create copy directory: %w", err)
	}

	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	copyPath := filepath.Join(dir, fmt.Sprintf("%s_copy_%s%s", stem, tableID, ext))

	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open original: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(copyPath)
	if err != nil {
		return "", fmt.Errorf("create copy: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(copyPath)
		return "", fmt.Errorf("copy file: %w", err)
	}
	return copyPath, nil
}

// RemoveTable unregisters a table. A protected copy file is deleted
// best-effort. When the active table is removed, the most recently
// added remaining table becomes active.
func (r *Registry) RemoveTable(tableID string) error {
	e, ok := r.entries[tableID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, tableID)
	}

	if e.info.IsCopy && e.info.FilePath != "" {
		if err := os.Remove(e.info.FilePath); err != nil && !os.IsNotExist(err) {
			logging.L(logging.CategoryRegistry).Warnw("could not delete protected copy",
				"path", e.info.FilePath, "error", err)
		}
	}

	delete(r.entries, tableID)
	for i, id := range r.order {
		if id == tableID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	if r.activeID == tableID {
		if len(r.order) > 0 {
			r.activeID = r.order[len(r.order)-1]
		} else {
			r.activeID = ""
		}
	}
	return nil
}

// SetActiveTable switches the active table.
func (r *Registry) SetActiveTable(tableID string) error {
	if _, ok := r.entries[tableID]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTable, tableID)
	}
	r.activeID = tableID
	return nil
}

// Info returns a table's metadata.
func (r *Registry) Info(tableID string) (TableInfo, error) {
	e, err := r.resolve(tableID)
	if err != nil {
		return TableInfo{}, err
	}
	return e.info, nil
}

// Document returns the writable document behind a table. Joined tables
// have none and report ErrReadOnlyTable.
func (r *Registry) Document(tableID string) (*document.Document, error) {
	e, err := r.resolve(tableID)
	if err != nil {
		return nil, err
	}
	if e.doc == nil {
		return nil, fmt.Errorf("%w: %q", ErrReadOnlyTable, e.info.ID)
	}
	return e.doc, nil
}

// ActiveDocument returns the active table's writable document.
func (r *Registry) ActiveDocument() (*document.Document, error) {
	return r.Document("")
}

// Frame returns a table's current snapshot regardless of backing.
func (r *Registry) Frame(tableID string) (*frame.Frame, error) {
	e, err := r.resolve(tableID)
	if err != nil {
		return nil, err
	}
	if e.doc != nil {
		return e.doc.ActiveFrame()
	}
	return e.snapshot, nil
}

// ActiveFrame returns the active table's snapshot.
func (r *Registry) ActiveFrame() (*frame.Frame, error) {
	return r.Frame("")
}

// Columns returns a table's column names.
func (r *Registry) Columns(tableID string) ([]string, error) {
	fr, err := r.Frame(tableID)
	if err != nil {
		return nil, err
	}
	return fr.Columns(), nil
}

// resolve maps "" to the active table and validates the ID.
func (r *Registry) resolve(tableID string) (*entry, error) {
	if tableID == "" {
		if r.activeID == "" {
			return nil, ErrNoActiveTable
		}
		tableID = r.activeID
	}
	e, ok := r.entries[tableID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTable, tableID)
	}
	return e, nil
}

// TableSummary is one row of ListTables output.
type TableSummary struct {
	ID           string   `json:"id"`
	Filename     string   `json:"filename"`
	SheetName    string   `json:"sheet_name"`
	TotalRows    int      `json:"total_rows"`
	TotalColumns int      `json:"total_columns"`
	LoadedAt     string   `json:"loaded_at"`
	IsActive     bool     `json:"is_active"`
	IsJoined     bool     `json:"is_joined"`
	SourceTables []string `json:"source_tables,omitempty"`
	Writable     bool     `json:"writable"`
	IsDirty      bool     `json:"is_dirty"`
}

// ListTables reports all tables in addition order.
func (r *Registry) ListTables() []TableSummary {
	out := make([]TableSummary, 0, len(r.order))
	for _, id := range r.order {
		e := r.entries[id]
		dirty := false
		rows, cols := e.info.TotalRows, e.info.TotalColumns
		if e.doc != nil {
			dirty = e.doc.IsDirty()
			if fr, err := e.doc.ActiveFrame(); err == nil {
				rows, cols = fr.NumRows(), fr.NumCols()
			}
		}
		out = append(out, TableSummary{
			ID:           e.info.ID,
			Filename:     e.info.Filename,
			SheetName:    e.info.SheetName,
			TotalRows:    rows,
			TotalColumns: cols,
			LoadedAt:     e.info.LoadedAt.Format(time.RFC3339),
			IsActive:     id == r.activeID,
			IsJoined:     e.info.IsJoined,
			SourceTables: e.info.SourceTables,
			Writable:     e.info.Writable,
			IsDirty:      dirty,
		})
	}
	return out
}

// JoinTables merges two tables on paired key columns and registers the
// result as a new read-only table, which becomes active.
func (r *Registry) JoinTables(id1, id2 string, keys1, keys2 []string, how, name string) (string, *frame.Frame, error) {
	e1, err := r.resolve(id1)
	if err != nil {
		return "", nil, err
	}
	e2, err := r.resolve(id2)
	if err != nil {
		return "", nil, err
	}

	fr1, err := r.Frame(e1.info.ID)
	if err != nil {
		return "", nil, err
	}
	fr2, err := r.Frame(e2.info.ID)
	if err != nil {
		return "", nil, err
	}

	joinType, err := frame.ParseJoinType(how)
	if err != nil {
		return "", nil, err
	}
	merged, err := frame.Join(fr1, fr2, keys1, keys2, joinType)
	if err != nil {
		return "", nil, err
	}

	if name == "" {
		name = "joined"
	}
	tableID := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	r.entries[tableID] = &entry{
		info: TableInfo{
			ID:           tableID,
			Filename:     name,
			SheetName:    "merged",
			TotalRows:    merged.NumRows(),
			TotalColumns: merged.NumCols(),
			LoadedAt:     time.Now(),
			IsJoined:     true,
			SourceTables: []string{e1.info.Filename, e2.info.Filename},
		},
		snapshot: merged,
	}
	r.order = append(r.order, tableID)
	r.activeID = tableID

	logging.L(logging.CategoryRegistry).Infow("joined tables",
		"left", e1.info.ID, "right", e2.info.ID, "how", how, "rows", merged.NumRows())
	return tableID, merged, nil
}

// SaveTable saves a table to its working file or an explicit path.
func (r *Registry) SaveTable(tableID, path string) (string, error) {
	doc, err := r.Document(tableID)
	if err != nil {
		return "", err
	}
	return doc.Save(path)
}

// SaveToOriginal writes a protected table's changes back over the
// original file.
func (r *Registry) SaveToOriginal(tableID string) (string, error) {
	e, err := r.resolve(tableID)
	if err != nil {
		return "", err
	}
	if e.doc == nil {
		return "", fmt.Errorf("%w: %q", ErrReadOnlyTable, e.info.ID)
	}
	if e.info.OriginalPath == "" {
		return "", document.ErrNoSavePath
	}
	return e.doc.Save(e.info.OriginalPath)
}

// ChangeLog returns a table's change records. Read-only tables have
// none.
func (r *Registry) ChangeLog(tableID string) ([]document.Change, error) {
	e, err := r.resolve(tableID)
	if err != nil {
		return nil, err
	}
	if e.doc == nil {
		return nil, nil
	}
	return e.doc.ChangeLog(), nil
}

// ActiveSummary renders the active table's structure as markdown.
func (r *Registry) ActiveSummary() (string, error) {
	e, err := r.resolve("")
	if err != nil {
		return "", err
	}
	if e.doc != nil {
		return e.doc.Summary()
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Joined table: %s\n", e.info.Filename)
	fmt.Fprintf(&b, "- Sources: %s\n", strings.Join(e.info.SourceTables, ", "))
	fmt.Fprintf(&b, "- Dimensions: %d rows x %d columns\n", e.info.TotalRows, e.info.TotalColumns)
	fmt.Fprintf(&b, "- Columns: %s\n", strings.Join(e.snapshot.Columns(), ", "))
	return b.String(), nil
}
