package document

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeTestWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	rows := [][]any{
		{"Name", "Region", "Amount"},
		{"Alice", "North", 120},
		{"Bob", "South", 80},
		{"Carol", "North", 200},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			if err := f.SetCellValue("Sheet1", cell, v); err != nil {
				t.Fatalf("SetCellValue: %v", err)
			}
		}
	}
	if _, err := f.NewSheet("Costs"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	return path
}

func loadTestDocument(t *testing.T) *Document {
	t.Helper()
	d := New()
	if _, err := d.Load(writeTestWorkbook(t), ""); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return d
}

func TestLoadStructure(t *testing.T) {
	d := loadTestDocument(t)

	st, err := d.Structure()
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if st.SheetName != "Sheet1" {
		t.Errorf("active sheet = %q, want Sheet1", st.SheetName)
	}
	if len(st.AllSheets) != 2 {
		t.Errorf("sheets = %v, want 2", st.AllSheets)
	}
	if st.TotalRows != 3 || st.TotalColumns != 3 {
		t.Errorf("dimensions = %dx%d, want 3x3", st.TotalRows, st.TotalColumns)
	}
	if st.DataVersion != 0 || st.IsDirty {
		t.Errorf("fresh load should be clean at version 0, got v%d dirty=%v", st.DataVersion, st.IsDirty)
	}
	if st.Columns[2].Dtype != "int64" {
		t.Errorf("Amount dtype = %q, want int64", st.Columns[2].Dtype)
	}
}

func TestLoadErrors(t *testing.T) {
	d := New()
	if _, err := d.Load(filepath.Join(t.TempDir(), "missing.xlsx"), ""); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(bad, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Load(bad, ""); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected unsupported format error, got %v", err)
	}

	if _, err := d.Load(writeTestWorkbook(t), "NoSuchSheet"); err == nil {
		t.Error("expected error for unknown sheet")
	}
}

func TestNotLoadedErrors(t *testing.T) {
	d := New()
	if _, err := d.ReadCell("A1", ""); err != ErrNotLoaded {
		t.Errorf("ReadCell on unloaded = %v, want ErrNotLoaded", err)
	}
	if _, err := d.Save(""); err != ErrNotLoaded {
		t.Errorf("Save on unloaded = %v, want ErrNotLoaded", err)
	}
}

func TestLoadCSVNormalization(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	csv := "Name,Score\nAlice,12\nBob,9.5\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	d := New()
	st, err := d.Load(path, "")
	if err != nil {
		t.Fatalf("Load csv: %v", err)
	}
	if !d.IsCSV() {
		t.Error("IsCSV should be true")
	}
	if st.SheetName != "Sheet1" || len(st.AllSheets) != 1 {
		t.Errorf("csv should normalize to single Sheet1, got %v", st.AllSheets)
	}

	v, err := d.ReadCell("B2", "")
	if err != nil {
		t.Fatalf("ReadCell: %v", err)
	}
	if v != int64(12) {
		t.Errorf("B2 = %v (%T), want int64 12", v, v)
	}
	v, _ = d.ReadCell("B3", "")
	if v != 9.5 {
		t.Errorf("B3 = %v, want 9.5", v)
	}

	// The synthesized sheet name is addressable; anything else is rejected
	// the same way an unknown sheet in a workbook is.
	if _, err := New().Load(path, "Sheet1"); err != nil {
		t.Errorf("Load csv with Sheet1: %v", err)
	}
	if _, err := New().Load(path, "Data"); !errors.Is(err, ErrUnknownSheet) {
		t.Errorf("Load csv with bogus sheet = %v, want ErrUnknownSheet", err)
	}
}

func TestWriteCellVersionAndChangeLog(t *testing.T) {
	d := loadTestDocument(t)

	res, err := d.WriteCell("C2", 150, "")
	if err != nil {
		t.Fatalf("WriteCell: %v", err)
	}
	if res.OldValue != int64(120) {
		t.Errorf("old value = %v, want 120", res.OldValue)
	}
	if d.DataVersion() != 1 {
		t.Errorf("version = %d, want 1", d.DataVersion())
	}
	if !d.IsDirty() {
		t.Error("document should be dirty after write")
	}

	// A no-op write still counts as a mutation.
	if _, err := d.WriteCell("C2", 150, ""); err != nil {
		t.Fatalf("WriteCell: %v", err)
	}
	if d.DataVersion() != 2 {
		t.Errorf("version after no-op write = %d, want 2", d.DataVersion())
	}

	log := d.ChangeLog()
	if len(log) != 2 {
		t.Fatalf("change log has %d records, want 2", len(log))
	}
	first := log[0]
	if first.Kind != ChangeCellValue || first.Sheet != "Sheet1" || first.Location != "C2" {
		t.Errorf("unexpected change record: %+v", first)
	}
	if first.Timestamp.IsZero() {
		t.Error("change record should carry a timestamp")
	}
}

func TestSnapshotLazyResync(t *testing.T) {
	d := loadTestDocument(t)

	fr, err := d.ActiveFrame()
	if err != nil {
		t.Fatalf("ActiveFrame: %v", err)
	}
	if v := fr.Cell(0, 2); v != int64(120) {
		t.Errorf("initial snapshot Amount[0] = %v, want 120", v)
	}

	if _, err := d.WriteCell("C2", 999, ""); err != nil {
		t.Fatalf("WriteCell: %v", err)
	}
	if !d.IsSheetDirty("Sheet1") {
		t.Error("Sheet1 should be stale after write")
	}

	fr, err = d.ActiveFrame()
	if err != nil {
		t.Fatalf("ActiveFrame: %v", err)
	}
	if v := fr.Cell(0, 2); v != int64(999) {
		t.Errorf("refreshed snapshot Amount[0] = %v, want 999", v)
	}
	if d.IsSheetDirty("Sheet1") {
		t.Error("staleness bit should clear after regeneration")
	}

	// A second read with no intervening write reuses the cache.
	again, err := d.ActiveFrame()
	if err != nil {
		t.Fatalf("ActiveFrame: %v", err)
	}
	if again != fr {
		t.Error("unchanged sheet should return the cached snapshot")
	}
}

func TestWriteDoesNotResyncOtherSheets(t *testing.T) {
	d := loadTestDocument(t)

	if _, err := d.Frame("Costs"); err != nil {
		t.Fatalf("Frame(Costs): %v", err)
	}
	if _, err := d.WriteCell("A1", "x", "Sheet1"); err != nil {
		t.Fatalf("WriteCell: %v", err)
	}
	if d.IsSheetDirty("Costs") {
		t.Error("writing Sheet1 must not invalidate Costs")
	}
}

func TestFormulaRoundTrip(t *testing.T) {
	d := loadTestDocument(t)

	res, err := d.WriteFormula("C5", "SUM(C2:C4)", "")
	if err != nil {
		t.Fatalf("WriteFormula: %v", err)
	}
	if res.Formula != "=SUM(C2:C4)" {
		t.Errorf("formula = %q, want =SUM(C2:C4)", res.Formula)
	}

	v, err := d.ReadCell("C5", "")
	if err != nil {
		t.Fatalf("ReadCell: %v", err)
	}
	if s, ok := v.(string); !ok || !strings.HasPrefix(s, "=") {
		t.Errorf("formula cell reads as %v, want \"=...\" text", v)
	}

	expr, ok, err := d.ReadFormula("C5", "")
	if err != nil || !ok {
		t.Fatalf("ReadFormula: ok=%v err=%v", ok, err)
	}
	if expr != "SUM(C2:C4)" {
		t.Errorf("expr = %q, want SUM(C2:C4)", expr)
	}

	if _, ok, _ := d.ReadFormula("A2", ""); ok {
		t.Error("plain cell should not report a formula")
	}

	list, err := d.ListFormulas("")
	if err != nil {
		t.Fatalf("ListFormulas: %v", err)
	}
	if len(list) != 1 || list[0].Cell != "C5" {
		t.Errorf("ListFormulas = %+v, want single C5 entry", list)
	}

	log := d.ChangeLog()
	if log[len(log)-1].Kind != ChangeCellFormula {
		t.Errorf("last change kind = %v, want %v", log[len(log)-1].Kind, ChangeCellFormula)
	}
}

func TestWriteCellEqualsSignStoresFormula(t *testing.T) {
	d := loadTestDocument(t)
	if _, err := d.WriteCell("D1", "=A1&B1", ""); err != nil {
		t.Fatalf("WriteCell: %v", err)
	}
	if _, ok, _ := d.ReadFormula("D1", ""); !ok {
		t.Error("\"=\"-prefixed write should store a formula")
	}
}

func TestRangeOps(t *testing.T) {
	d := loadTestDocument(t)

	got, err := d.ReadRange("A1", "C2", "")
	if err != nil {
		t.Fatalf("ReadRange: %v", err)
	}
	if len(got) != 2 || len(got[0]) != 3 {
		t.Fatalf("range shape = %dx%d, want 2x3", len(got), len(got[0]))
	}
	if got[0][0] != "Name" || got[1][2] != int64(120) {
		t.Errorf("unexpected range content: %v", got)
	}

	res, err := d.WriteRange("A6", [][]any{{"Dave", "East", 50}, {"Eve", "West", 75}}, "")
	if err != nil {
		t.Fatalf("WriteRange: %v", err)
	}
	if res.RowsWritten != 2 || res.CellsWritten != 6 || res.EndCell != "C7" {
		t.Errorf("unexpected result: %+v", res)
	}
	if d.DataVersion() != 1 {
		t.Errorf("batch write should bump version once, got %d", d.DataVersion())
	}
	if len(d.ChangeLog()) != 1 {
		t.Errorf("batch write should log one record, got %d", len(d.ChangeLog()))
	}

	v, _ := d.ReadCell("C7", "")
	if v != int64(75) {
		t.Errorf("C7 = %v, want 75", v)
	}
}

func TestRowColumnOps(t *testing.T) {
	d := loadTestDocument(t)

	if _, err := d.InsertRows(2, 1, ""); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	v, _ := d.ReadCell("A3", "")
	if v != "Alice" {
		t.Errorf("after insert, A3 = %v, want Alice", v)
	}

	if _, err := d.DeleteRows(2, 2, ""); err != nil {
		t.Fatalf("DeleteRows: %v", err)
	}
	v, _ = d.ReadCell("A2", "")
	if v != "Alice" {
		t.Errorf("after delete, A2 = %v, want Alice", v)
	}

	if _, err := d.InsertCols(1, 1, ""); err != nil {
		t.Fatalf("InsertCols: %v", err)
	}
	v, _ = d.ReadCell("B1", "")
	if v != "Name" {
		t.Errorf("after insert col, B1 = %v, want Name", v)
	}

	if _, err := d.DeleteCols(1, 1, ""); err != nil {
		t.Fatalf("DeleteCols: %v", err)
	}
	v, _ = d.ReadCell("A1", "")
	if v != "Name" {
		t.Errorf("after delete col, A1 = %v, want Name", v)
	}

	if d.DataVersion() != 4 {
		t.Errorf("version = %d, want 4", d.DataVersion())
	}
}

func TestSheetLifecycle(t *testing.T) {
	d := loadTestDocument(t)

	if err := d.CreateSheet("Summary"); err != nil {
		t.Fatalf("CreateSheet: %v", err)
	}
	if err := d.CreateSheet("Summary"); err == nil {
		t.Error("duplicate sheet name should fail")
	}

	if _, err := d.SwitchSheet("Summary"); err != nil {
		t.Fatalf("SwitchSheet: %v", err)
	}
	if d.ActiveSheet() != "Summary" {
		t.Errorf("active = %q, want Summary", d.ActiveSheet())
	}

	if err := d.RenameSheet("Summary", "Totals"); err != nil {
		t.Fatalf("RenameSheet: %v", err)
	}
	if d.ActiveSheet() != "Totals" {
		t.Errorf("rename should follow active sheet, got %q", d.ActiveSheet())
	}
	if err := d.RenameSheet("Totals", "Sheet1"); err == nil {
		t.Error("rename onto existing name should fail")
	}

	if err := d.DeleteSheet("Totals"); err != nil {
		t.Fatalf("DeleteSheet: %v", err)
	}
	if d.ActiveSheet() != "Sheet1" {
		t.Errorf("deleting active sheet should fall back to first, got %q", d.ActiveSheet())
	}

	if err := d.DeleteSheet("Costs"); err != nil {
		t.Fatalf("DeleteSheet: %v", err)
	}
	if err := d.DeleteSheet("Sheet1"); err != ErrLastSheet {
		t.Errorf("deleting last sheet = %v, want ErrLastSheet", err)
	}
}

func TestRenameMigratesSnapshotState(t *testing.T) {
	d := loadTestDocument(t)

	if _, err := d.WriteCell("A1", "hdr", "Sheet1"); err != nil {
		t.Fatal(err)
	}
	if err := d.RenameSheet("Sheet1", "Primary"); err != nil {
		t.Fatalf("RenameSheet: %v", err)
	}
	if d.IsSheetDirty("Sheet1") {
		t.Error("old name should drop out of the staleness set")
	}
	if !d.IsSheetDirty("Primary") {
		t.Error("staleness should migrate to the new name")
	}
	fr, err := d.Frame("Primary")
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if fr.Columns()[0] != "hdr" {
		t.Errorf("header = %q, want hdr", fr.Columns()[0])
	}
}

func TestSaveRoundTrip(t *testing.T) {
	d := loadTestDocument(t)
	if _, err := d.WriteCell("C2", 555, ""); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "saved.xlsx")
	path, err := d.Save(out)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if d.IsDirty() {
		t.Error("save should clear the unsaved-changes flag")
	}
	if len(d.ChangeLog()) != 1 {
		t.Error("save must not clear the change log")
	}

	reloaded := New()
	if _, err := reloaded.Load(path, ""); err != nil {
		t.Fatalf("reload: %v", err)
	}
	v, _ := reloaded.ReadCell("C2", "")
	if v != int64(555) {
		t.Errorf("reloaded C2 = %v, want 555", v)
	}
}

func TestSaveCSVUpgradesToXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.csv")
	if err := os.WriteFile(path, []byte("A,B\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	d := New()
	if _, err := d.Load(path, ""); err != nil {
		t.Fatal(err)
	}
	saved, err := d.Save("")
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(saved, ".xlsx") {
		t.Errorf("csv-origin default save = %q, want .xlsx sibling", saved)
	}
	if d.IsCSV() {
		t.Error("document should switch to workbook format after upgrade")
	}
}

func TestSaveBlankRequiresPath(t *testing.T) {
	d := New()
	d.NewBlank()
	if _, err := d.Save(""); err != ErrNoSavePath {
		t.Errorf("Save on pathless blank = %v, want ErrNoSavePath", err)
	}
}

func TestExportCSVIsLossy(t *testing.T) {
	d := loadTestDocument(t)
	if _, err := d.WriteFormula("D2", "C2*2", ""); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "export.csv")
	if _, err := d.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Alice") {
		t.Error("csv export should contain sheet data")
	}
}

func TestPushFrame(t *testing.T) {
	d := loadTestDocument(t)

	fr, err := d.ActiveFrame()
	if err != nil {
		t.Fatal(err)
	}
	sorted, err := fr.Sort("Amount", false)
	if err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if err := d.PushFrame(sorted, ""); err != nil {
		t.Fatalf("PushFrame: %v", err)
	}

	// Highest amount should now lead the grid.
	v, _ := d.ReadCell("A2", "")
	if v != "Carol" {
		t.Errorf("A2 after push = %v, want Carol", v)
	}
	if d.DataVersion() != 1 {
		t.Errorf("push should count as one mutation, got v%d", d.DataVersion())
	}
}

func TestStyleOpsDoNotStaleSnapshot(t *testing.T) {
	d := loadTestDocument(t)
	if _, err := d.ActiveFrame(); err != nil {
		t.Fatal(err)
	}

	if _, err := d.SetCellStyle("A1:C1", CellStyle{Bold: true, FillColor: "#FFFF00"}, ""); err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}
	if _, err := d.MergeCells("A8:C8", ""); err != nil {
		t.Fatalf("MergeCells: %v", err)
	}
	if _, err := d.AutoFitColumn("A", 0, 0, ""); err != nil {
		t.Fatalf("AutoFitColumn: %v", err)
	}

	if d.IsSheetDirty("Sheet1") {
		t.Error("style-only operations must not invalidate the snapshot")
	}
	if d.DataVersion() != 3 {
		t.Errorf("version = %d, want 3", d.DataVersion())
	}
	if !d.IsDirty() {
		t.Error("style operations still leave unsaved changes")
	}
}

func TestStyleResultCellsModified(t *testing.T) {
	d := loadTestDocument(t)

	res, err := d.SetCellStyle("A1:C3", CellStyle{Bold: true}, "")
	if err != nil {
		t.Fatalf("SetCellStyle: %v", err)
	}
	if res.CellsModified != 9 {
		t.Errorf("A1:C3 cells modified = %d, want 9", res.CellsModified)
	}

	res, err = d.MergeCells("A6:B7", "")
	if err != nil {
		t.Fatalf("MergeCells: %v", err)
	}
	if res.CellsModified != 4 {
		t.Errorf("merge A6:B7 cells modified = %d, want 4", res.CellsModified)
	}
	res, err = d.UnmergeCells("A6:B7", "")
	if err != nil {
		t.Fatalf("UnmergeCells: %v", err)
	}
	if res.CellsModified != 4 {
		t.Errorf("unmerge A6:B7 cells modified = %d, want 4", res.CellsModified)
	}

	// Sizing ops report the populated cells of the column or row.
	res, err = d.SetColumnWidth("B", 14, "")
	if err != nil {
		t.Fatalf("SetColumnWidth: %v", err)
	}
	if res.CellsModified != 4 {
		t.Errorf("column B cells modified = %d, want 4", res.CellsModified)
	}
	res, err = d.SetRowHeight(2, 20, "")
	if err != nil {
		t.Fatalf("SetRowHeight: %v", err)
	}
	if res.CellsModified != 3 {
		t.Errorf("row 2 cells modified = %d, want 3", res.CellsModified)
	}
	res, err = d.AutoFitColumn("A", 0, 0, "")
	if err != nil {
		t.Fatalf("AutoFitColumn: %v", err)
	}
	if res.CellsModified != 4 {
		t.Errorf("autofit column A cells modified = %d, want 4", res.CellsModified)
	}
}

func TestEndToEndScenario(t *testing.T) {
	d := loadTestDocument(t)

	if _, err := d.WriteRange("A5", [][]any{{"Dan", "South", 60}}, ""); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteFormula("C6", "SUM(C2:C5)", ""); err != nil {
		t.Fatal(err)
	}
	if err := d.CreateSheet("Report"); err != nil {
		t.Fatal(err)
	}

	fr, err := d.Frame("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if fr.NumRows() != 5 {
		t.Errorf("rows = %d, want 5 (4 data + formula row)", fr.NumRows())
	}

	out := filepath.Join(t.TempDir(), "final.xlsx")
	if _, err := d.Save(out); err != nil {
		t.Fatal(err)
	}

	reloaded := New()
	if _, err := reloaded.Load(out, ""); err != nil {
		t.Fatal(err)
	}
	if expr, ok, _ := reloaded.ReadFormula("C6", ""); !ok || expr != "SUM(C2:C5)" {
		t.Errorf("formula did not survive save/reload: %q ok=%v", expr, ok)
	}
	if len(reloaded.Sheets()) != 3 {
		t.Errorf("sheets after reload = %v, want 3", reloaded.Sheets())
	}
}
