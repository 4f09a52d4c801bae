package document

import (
	"fmt"
	"strings"
)

// ColumnInfo describes one column of the active snapshot.
type ColumnInfo struct {
	Name         string `json:"name"`
	Dtype        string `json:"dtype"`
	NonNullCount int    `json:"non_null_count"`
	NullCount    int    `json:"null_count"`
}

// Structure summarizes the document for orientation before any data is
// read.
type Structure struct {
	FilePath     string       `json:"file_path"`
	SheetName    string       `json:"sheet_name"`
	AllSheets    []string     `json:"all_sheets"`
	TotalRows    int          `json:"total_rows"`
	TotalColumns int          `json:"total_columns"`
	Columns      []ColumnInfo `json:"columns"`
	IsDirty      bool         `json:"is_dirty"`
	DataVersion  int64        `json:"data_version"`
}

// Structure reports the active sheet's shape and column profile.
func (d *Document) Structure() (*Structure, error) {
	fr, err := d.ActiveFrame()
	if err != nil {
		return nil, err
	}

	cols := make([]ColumnInfo, 0, fr.NumCols())
	for _, name := range fr.Columns() {
		nonNull := fr.NonNullCount(name)
		cols = append(cols, ColumnInfo{
			Name:         name,
			Dtype:        fr.Dtype(name),
			NonNullCount: nonNull,
			NullCount:    fr.NumRows() - nonNull,
		})
	}

	return &Structure{
		FilePath:     d.filePath,
		SheetName:    d.activeSheet,
		AllSheets:    d.Sheets(),
		TotalRows:    fr.NumRows(),
		TotalColumns: fr.NumCols(),
		Columns:      cols,
		IsDirty:      d.dirty,
		DataVersion:  d.dataVersion,
	}, nil
}

// Preview holds the first rows of the active snapshot as records.
type Preview struct {
	Columns     []string         `json:"columns"`
	Data        []map[string]any `json:"data"`
	PreviewRows int              `json:"preview_rows"`
	TotalRows   int              `json:"total_rows"`
}

// Preview returns up to n rows of the active sheet (default 10).
func (d *Document) Preview(n int) (*Preview, error) {
	fr, err := d.ActiveFrame()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = 10
	}
	head := fr.Head(n)
	return &Preview{
		Columns:     fr.Columns(),
		Data:        head.Records(),
		PreviewRows: head.NumRows(),
		TotalRows:   fr.NumRows(),
	}, nil
}

// Summary renders the structure as markdown for prompt context.
func (d *Document) Summary() (string, error) {
	st, err := d.Structure()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "## Spreadsheet: %s\n", st.FilePath)
	fmt.Fprintf(&b, "- Active sheet: %s (of %d)\n", st.SheetName, len(st.AllSheets))
	fmt.Fprintf(&b, "- Dimensions: %d rows x %d columns\n", st.TotalRows, st.TotalColumns)
	fmt.Fprintf(&b, "- Data version: %d, unsaved changes: %v\n", st.DataVersion, st.IsDirty)
	b.WriteString("\n| Column | Type | Non-null |\n|--------|------|----------|\n")
	for _, c := range st.Columns {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", c.Name, c.Dtype, c.NonNullCount)
	}
	return b.String(), nil
}
