// Package document implements the dual-engine spreadsheet manager: an
// excelize workbook as the authoritative structured view, plus lazily
// synchronized frame snapshots per sheet for analytical reads.
//
// Every mutating operation captures the pre-image, mutates the workbook
// only, appends exactly one change record, marks the touched sheet
// stale, and bumps the data version. Snapshots regenerate on the next
// read of a stale sheet; untouched sheets are never resynced.
package document

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetagent/internal/frame"
	"sheetagent/internal/logging"
)

const csvSheetName = "Sheet1"

var supportedExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// Document manages one spreadsheet across both views.
type Document struct {
	file   *excelize.File
	frames map[string]*frame.Frame

	filePath    string
	activeSheet string
	allSheets   []string
	isCSV       bool

	dirty       bool
	dirtySheets map[string]struct{}
	changeLog   []Change
	dataVersion int64
}

// New creates an empty, unloaded Document.
func New() *Document {
	return &Document{
		frames:      make(map[string]*frame.Frame),
		dirtySheets: make(map[string]struct{}),
	}
}

// IsLoaded reports whether a workbook is open.
func (d *Document) IsLoaded() bool { return d.file != nil }

// IsDirty reports whether there are unsaved modifications.
func (d *Document) IsDirty() bool { return d.dirty }

// FilePath returns the loaded file's path ("" for a blank workbook).
func (d *Document) FilePath() string { return d.filePath }

// IsCSV reports whether the document originated from a CSV file.
func (d *Document) IsCSV() bool { return d.isCSV }

// ActiveSheet returns the currently active sheet name.
func (d *Document) ActiveSheet() string { return d.activeSheet }

// Sheets returns a copy of all sheet names.
func (d *Document) Sheets() []string {
	out := make([]string, len(d.allSheets))
	copy(out, d.allSheets)
	return out
}

// DataVersion returns the monotonically increasing mutation counter.
func (d *Document) DataVersion() int64 { return d.dataVersion }

// ChangeLog returns a copy of all recorded changes in append order.
func (d *Document) ChangeLog() []Change {
	out := make([]Change, len(d.changeLog))
	copy(out, d.changeLog)
	return out
}

// IsSheetDirty reports whether a sheet's snapshot is stale.
func (d *Document) IsSheetDirty(sheet string) bool {
	_, ok := d.dirtySheets[sheet]
	return ok
}

// Load opens an .xlsx/.xlsm/.csv file. CSV input is normalized into a
// single-sheet workbook. Load resets all tracking state: it is not a
// mutation.
func (d *Document) Load(path, sheet string) (*Structure, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return nil, fmt.Errorf("%w: %q (supported: .xlsx, .xlsm, .csv)", ErrUnsupportedFormat, ext)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	if ext == ".csv" {
		if sheet != "" && sheet != csvSheetName {
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownSheet, sheet, []string{csvSheetName})
		}
		if err := d.loadCSV(path); err != nil {
			return nil, err
		}
	} else {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, fmt.Errorf("open workbook: %w", err)
		}
		d.file = f
		d.allSheets = f.GetSheetList()
		d.isCSV = false

		if sheet == "" {
			d.activeSheet = d.allSheets[0]
		} else if !d.hasSheet(sheet) {
			d.file = nil
			return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownSheet, sheet, d.allSheets)
		} else {
			d.activeSheet = sheet
		}
	}

	d.filePath = abs
	d.frames = make(map[string]*frame.Frame)
	d.dirtySheets = make(map[string]struct{})
	d.changeLog = nil
	d.dataVersion = 0
	d.dirty = false

	if _, err := d.Frame(d.activeSheet); err != nil {
		return nil, err
	}

	logging.L(logging.CategoryDocument).Debugw("loaded spreadsheet",
		"path", abs, "sheets", len(d.allSheets), "active", d.activeSheet)

	return d.Structure()
}

func (d *Document) loadCSV(path string) error {
	fh, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("read csv: %w", err)
	}

	f := excelize.NewFile()
	for r, record := range records {
		for c, field := range record {
			if field == "" {
				continue
			}
			if err := f.SetCellValue(csvSheetName, cellName(c+1, r+1), parseValue(field)); err != nil {
				return fmt.Errorf("import csv cell: %w", err)
			}
		}
	}

	d.file = f
	d.allSheets = []string{csvSheetName}
	d.activeSheet = csvSheetName
	d.isCSV = true
	return nil
}

// NewBlank initializes an empty workbook with one sheet and no backing
// file. The blank workbook starts dirty: it exists only in memory.
func (d *Document) NewBlank() {
	d.file = excelize.NewFile()
	d.filePath = ""
	d.isCSV = false
	d.allSheets = d.file.GetSheetList()
	d.activeSheet = d.allSheets[0]
	d.frames = make(map[string]*frame.Frame)
	d.dirtySheets = make(map[string]struct{})
	d.changeLog = nil
	d.dataVersion = 0
	d.dirty = true
}

// Save writes the workbook. With no path it overwrites the origin file;
// a CSV-origin document with no explicit path is upgraded to a sibling
// .xlsx instead. Saving to a .csv target exports only the active sheet's
// snapshot, losing formulas and styles — a deliberate lossy path.
// The unsaved-changes flag clears; the change log and the per-sheet
// staleness set survive (staleness tracks view sync, not disk state).
func (d *Document) Save(path string) (string, error) {
	if !d.IsLoaded() {
		return "", ErrNotLoaded
	}

	savePath := path
	if savePath == "" {
		savePath = d.filePath
	}
	if savePath == "" {
		return "", ErrNoSavePath
	}

	ext := strings.ToLower(filepath.Ext(savePath))
	upgraded := false
	if d.isCSV && path == "" {
		savePath = strings.TrimSuffix(savePath, filepath.Ext(savePath)) + ".xlsx"
		ext = ".xlsx"
		upgraded = true
	}

	if ext == ".csv" {
		if err := d.exportCSV(savePath); err != nil {
			return "", err
		}
	} else {
		if err := d.file.SaveAs(savePath); err != nil {
			return "", fmt.Errorf("save workbook: %w", err)
		}
	}

	if path != "" || upgraded {
		if abs, err := filepath.Abs(savePath); err == nil {
			d.filePath = abs
		} else {
			d.filePath = savePath
		}
		d.isCSV = ext == ".csv"
	}

	d.dirty = false

	logging.L(logging.CategoryDocument).Debugw("saved spreadsheet", "path", savePath)
	return savePath, nil
}

// SaveAs saves to a new path, which becomes the document's origin.
func (d *Document) SaveAs(path string) (string, error) {
	return d.Save(path)
}

func (d *Document) exportCSV(path string) error {
	fr, err := d.Frame(d.activeSheet)
	if err != nil {
		return err
	}

	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer fh.Close()

	w := csv.NewWriter(fh)
	if err := w.Write(fr.Columns()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i := 0; i < fr.NumRows(); i++ {
		row := fr.Row(i)
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = frame.CellString(v)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

// SwitchSheet makes another sheet active. Not a mutation.
func (d *Document) SwitchSheet(sheet string) (*Structure, error) {
	if !d.IsLoaded() {
		return nil, ErrNotLoaded
	}
	if !d.hasSheet(sheet) {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownSheet, sheet, d.allSheets)
	}
	d.activeSheet = sheet
	return d.Structure()
}

// CreateSheet appends a new empty sheet.
func (d *Document) CreateSheet(name string) error {
	if !d.IsLoaded() {
		return ErrNotLoaded
	}
	if d.hasSheet(name) {
		return fmt.Errorf("%w: %q", ErrSheetExists, name)
	}
	if _, err := d.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	d.allSheets = d.file.GetSheetList()
	d.recordChange(ChangeSheet, name, name, nil, "created sheet")
	d.markDirty(name)
	return nil
}

// DeleteSheet removes a sheet. The final remaining sheet cannot be
// deleted. If the active sheet is removed, the first remaining sheet
// becomes active.
func (d *Document) DeleteSheet(name string) error {
	if !d.IsLoaded() {
		return ErrNotLoaded
	}
	if !d.hasSheet(name) {
		return fmt.Errorf("%w: %q (available: %v)", ErrUnknownSheet, name, d.allSheets)
	}
	if len(d.allSheets) <= 1 {
		return ErrLastSheet
	}

	if err := d.file.DeleteSheet(name); err != nil {
		return fmt.Errorf("delete sheet: %w", err)
	}
	d.allSheets = d.file.GetSheetList()
	delete(d.frames, name)
	delete(d.dirtySheets, name)
	if d.activeSheet == name {
		d.activeSheet = d.allSheets[0]
	}

	d.recordChange(ChangeSheet, name, name, "sheet", nil)
	d.markDirty("")
	return nil
}

// RenameSheet renames a sheet, migrating the cached snapshot and
// staleness entry in the same step so no intermediate state tracks both
// names.
func (d *Document) RenameSheet(oldName, newName string) error {
	if !d.IsLoaded() {
		return ErrNotLoaded
	}
	if !d.hasSheet(oldName) {
		return fmt.Errorf("%w: %q (available: %v)", ErrUnknownSheet, oldName, d.allSheets)
	}
	if d.hasSheet(newName) {
		return fmt.Errorf("%w: %q", ErrSheetExists, newName)
	}

	if err := d.file.SetSheetName(oldName, newName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	d.allSheets = d.file.GetSheetList()

	if fr, ok := d.frames[oldName]; ok {
		d.frames[newName] = fr
		delete(d.frames, oldName)
	}
	if _, ok := d.dirtySheets[oldName]; ok {
		delete(d.dirtySheets, oldName)
		d.dirtySheets[newName] = struct{}{}
	}
	if d.activeSheet == oldName {
		d.activeSheet = newName
	}

	d.recordChange(ChangeSheet, newName, oldName, oldName, newName)
	d.markDirty(newName)
	return nil
}

// CellWriteResult reports one cell mutation.
type CellWriteResult struct {
	Cell     string `json:"cell"`
	Sheet    string `json:"sheet"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
}

// ReadCell returns a cell's stored value: nil for empty, int64/float64
// for numbers, the raw "=..." text for formulas, string otherwise.
func (d *Document) ReadCell(cell, sheet string) (any, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	if _, _, err := parseCellAddress(cell); err != nil {
		return nil, err
	}
	return d.readCellRaw(sheet, cell)
}

// WriteCell sets one cell. A value string beginning with "=" is stored
// as a formula. Writes are unconditional: writing the current value
// still logs a change and bumps the version.
func (d *Document) WriteCell(cell string, value any, sheet string) (*CellWriteResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	if _, _, err := parseCellAddress(cell); err != nil {
		return nil, err
	}

	oldValue, err := d.readCellRaw(sheet, cell)
	if err != nil {
		return nil, err
	}
	if err := d.setCellRaw(sheet, cell, value); err != nil {
		return nil, err
	}

	d.recordChange(ChangeCellValue, sheet, cell, oldValue, value)
	d.markDirty(sheet)

	return &CellWriteResult{Cell: cell, Sheet: sheet, OldValue: oldValue, NewValue: value}, nil
}

// ReadRange returns the values of a rectangle as a 2D slice.
func (d *Document) ReadRange(startCell, endCell, sheet string) ([][]any, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	c1, r1, c2, r2, err := parseRange(startCell + ":" + endCell)
	if err != nil {
		return nil, err
	}

	out := make([][]any, 0, r2-r1+1)
	for r := r1; r <= r2; r++ {
		row := make([]any, 0, c2-c1+1)
		for c := c1; c <= c2; c++ {
			v, err := d.readCellRaw(sheet, cellName(c, r))
			if err != nil {
				return nil, err
			}
			row = append(row, v)
		}
		out = append(out, row)
	}
	return out, nil
}

// RangeWriteResult reports one batch write.
type RangeWriteResult struct {
	StartCell    string `json:"start_cell"`
	EndCell      string `json:"end_cell"`
	Sheet        string `json:"sheet"`
	RowsWritten  int    `json:"rows_written"`
	CellsWritten int    `json:"cells_written"`
}

// WriteRange writes a 2D block starting at startCell. One summary change
// record covers the whole batch.
func (d *Document) WriteRange(startCell string, data [][]any, sheet string) (*RangeWriteResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	startCol, startRow, err := parseCellAddress(startCell)
	if err != nil {
		return nil, err
	}

	cellsWritten := 0
	maxWidth := 0
	for i, rowData := range data {
		if len(rowData) > maxWidth {
			maxWidth = len(rowData)
		}
		for j, value := range rowData {
			if err := d.setCellRaw(sheet, cellName(startCol+j, startRow+i), value); err != nil {
				return nil, err
			}
			cellsWritten++
		}
	}

	endCell := startCell
	if len(data) > 0 && maxWidth > 0 {
		endCell = cellName(startCol+maxWidth-1, startRow+len(data)-1)
	}

	location := startCell + ":" + endCell
	d.recordChange(ChangeCellValue, sheet, location, nil, fmt.Sprintf("wrote %d rows", len(data)))
	d.markDirty(sheet)

	return &RangeWriteResult{
		StartCell:    startCell,
		EndCell:      endCell,
		Sheet:        sheet,
		RowsWritten:  len(data),
		CellsWritten: cellsWritten,
	}, nil
}

// RowColResult reports a structural row/column operation.
type RowColResult struct {
	Sheet     string `json:"sheet"`
	Operation string `json:"operation"`
	Location  string `json:"location"`
	Count     int    `json:"count"`
}

// InsertRows inserts count empty rows before the given 1-based row.
func (d *Document) InsertRows(row, count int, sheet string) (*RowColResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	if count < 1 {
		count = 1
	}
	if err := d.file.InsertRows(sheet, row, count); err != nil {
		return nil, fmt.Errorf("insert rows: %w", err)
	}

	location := fmt.Sprintf("row %d", row)
	d.recordChange(ChangeInsertRows, sheet, location, nil, fmt.Sprintf("inserted %d rows", count))
	d.markDirty(sheet)
	return &RowColResult{Sheet: sheet, Operation: "insert_rows", Location: location, Count: count}, nil
}

// DeleteRows removes rows startRow..endRow inclusive. endRow <= 0 means
// just startRow.
func (d *Document) DeleteRows(startRow, endRow int, sheet string) (*RowColResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	if endRow <= 0 {
		endRow = startRow
	}
	count := endRow - startRow + 1
	for i := 0; i < count; i++ {
		if err := d.file.RemoveRow(sheet, startRow); err != nil {
			return nil, fmt.Errorf("delete rows: %w", err)
		}
	}

	location := fmt.Sprintf("rows %d-%d", startRow, endRow)
	d.recordChange(ChangeDeleteRows, sheet, location, fmt.Sprintf("deleted %d rows", count), nil)
	d.markDirty(sheet)
	return &RowColResult{Sheet: sheet, Operation: "delete_rows", Location: location, Count: count}, nil
}

// InsertCols inserts count empty columns before the given 1-based column.
func (d *Document) InsertCols(col, count int, sheet string) (*RowColResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	if count < 1 {
		count = 1
	}
	if err := d.file.InsertCols(sheet, columnName(col), count); err != nil {
		return nil, fmt.Errorf("insert columns: %w", err)
	}

	location := "column " + columnName(col)
	d.recordChange(ChangeInsertCols, sheet, location, nil, fmt.Sprintf("inserted %d columns", count))
	d.markDirty(sheet)
	return &RowColResult{Sheet: sheet, Operation: "insert_cols", Location: location, Count: count}, nil
}

// DeleteCols removes columns startCol..endCol inclusive (1-based).
// endCol <= 0 means just startCol.
func (d *Document) DeleteCols(startCol, endCol int, sheet string) (*RowColResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	if endCol <= 0 {
		endCol = startCol
	}
	count := endCol - startCol + 1
	for i := 0; i < count; i++ {
		if err := d.file.RemoveCol(sheet, columnName(startCol)); err != nil {
			return nil, fmt.Errorf("delete columns: %w", err)
		}
	}

	location := fmt.Sprintf("columns %s-%s", columnName(startCol), columnName(endCol))
	d.recordChange(ChangeDeleteCols, sheet, location, fmt.Sprintf("deleted %d columns", count), nil)
	d.markDirty(sheet)
	return &RowColResult{Sheet: sheet, Operation: "delete_cols", Location: location, Count: count}, nil
}

// FormulaResult reports one formula write.
type FormulaResult struct {
	Cell    string `json:"cell"`
	Sheet   string `json:"sheet"`
	Formula string `json:"formula"`
	Note    string `json:"note"`
}

// WriteFormula stores a formula in a cell, prepending "=" when the
// caller omitted it. Formulas are never evaluated here; their results
// appear only when the file is opened in spreadsheet software.
func (d *Document) WriteFormula(cell, formula, sheet string) (*FormulaResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	if _, _, err := parseCellAddress(cell); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(formula, "=") {
		formula = "=" + formula
	}

	oldValue, err := d.readCellRaw(sheet, cell)
	if err != nil {
		return nil, err
	}
	if err := d.file.SetCellFormula(sheet, cell, formula); err != nil {
		return nil, fmt.Errorf("write formula: %w", err)
	}

	d.recordChange(ChangeCellFormula, sheet, cell, oldValue, formula)
	d.markDirty(sheet)

	return &FormulaResult{
		Cell:    cell,
		Sheet:   sheet,
		Formula: formula,
		Note:    "formula computes when opened in spreadsheet software",
	}, nil
}

// ReadFormula returns a cell's formula expression without the leading
// "=". ok is false when the cell holds no formula.
func (d *Document) ReadFormula(cell, sheet string) (expr string, ok bool, err error) {
	sheet, err = d.resolveSheet(sheet)
	if err != nil {
		return "", false, err
	}
	if _, _, err := parseCellAddress(cell); err != nil {
		return "", false, err
	}

	raw, err := d.file.GetCellFormula(sheet, cell)
	if err != nil {
		return "", false, fmt.Errorf("read formula: %w", err)
	}
	if raw == "" {
		return "", false, nil
	}
	return strings.TrimPrefix(raw, "="), true, nil
}

// FormulaEntry is one formula found by ListFormulas.
type FormulaEntry struct {
	Cell    string `json:"cell"`
	Formula string `json:"formula"`
	Row     int    `json:"row"`
	Column  string `json:"column"`
}

// ListFormulas scans a sheet and returns every formula cell with its
// raw "=..." text.
func (d *Document) ListFormulas(sheet string) ([]FormulaEntry, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}

	rows, err := d.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("scan sheet: %w", err)
	}

	var out []FormulaEntry
	for r, row := range rows {
		for c := range row {
			cell := cellName(c+1, r+1)
			raw, err := d.file.GetCellFormula(sheet, cell)
			if err != nil || raw == "" {
				continue
			}
			out = append(out, FormulaEntry{
				Cell:    cell,
				Formula: "=" + strings.TrimPrefix(raw, "="),
				Row:     r + 1,
				Column:  columnName(c + 1),
			})
		}
	}
	return out, nil
}

// resolveSheet defaults to the active sheet and validates existence.
func (d *Document) resolveSheet(sheet string) (string, error) {
	if !d.IsLoaded() {
		return "", ErrNotLoaded
	}
	if sheet == "" {
		sheet = d.activeSheet
	}
	if !d.hasSheet(sheet) {
		return "", fmt.Errorf("%w: %q (available: %v)", ErrUnknownSheet, sheet, d.allSheets)
	}
	return sheet, nil
}

func (d *Document) hasSheet(name string) bool {
	for _, s := range d.allSheets {
		if s == name {
			return true
		}
	}
	return false
}

// readCellRaw returns the stored value: "=..." for formulas, typed
// scalar otherwise, nil for empty.
func (d *Document) readCellRaw(sheet, cell string) (any, error) {
	formula, err := d.file.GetCellFormula(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("read cell: %w", err)
	}
	if formula != "" {
		return "=" + strings.TrimPrefix(formula, "="), nil
	}

	value, err := d.file.GetCellValue(sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("read cell: %w", err)
	}
	if value == "" {
		return nil, nil
	}
	return parseValue(value), nil
}

// setCellRaw stores a value, routing "=..." strings through the formula
// writer so they round-trip as formulas.
func (d *Document) setCellRaw(sheet, cell string, value any) error {
	if s, ok := value.(string); ok && strings.HasPrefix(s, "=") {
		if err := d.file.SetCellFormula(sheet, cell, s); err != nil {
			return fmt.Errorf("write cell: %w", err)
		}
		return nil
	}
	if err := d.file.SetCellValue(sheet, cell, value); err != nil {
		return fmt.Errorf("write cell: %w", err)
	}
	return nil
}

func (d *Document) recordChange(kind ChangeKind, sheet, location string, oldValue, newValue any) {
	d.changeLog = append(d.changeLog, Change{
		Kind:      kind,
		Sheet:     sheet,
		Location:  location,
		OldValue:  oldValue,
		NewValue:  newValue,
		Timestamp: time.Now(),
	})
}

// markDirty flags unsaved changes and bumps the data version. A non-empty
// sheet name also marks that sheet's snapshot stale.
func (d *Document) markDirty(sheet string) {
	d.dirty = true
	d.dataVersion++
	if sheet != "" {
		d.dirtySheets[sheet] = struct{}{}
	}
}

// parseValue coerces a stored string to int64, float64, or string.
func parseValue(s string) any {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
