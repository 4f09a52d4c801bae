package document

import (
	"fmt"

	"sheetagent/internal/frame"
	"sheetagent/internal/logging"
)

// Frame returns the tabular snapshot for a sheet, regenerating it from
// the workbook when the sheet is stale or has never been snapshotted.
// The first workbook row becomes the header. Regeneration clears the
// sheet's staleness bit, so consecutive reads with no writes in between
// reuse the cached snapshot.
func (d *Document) Frame(sheet string) (*frame.Frame, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}

	if _, stale := d.dirtySheets[sheet]; !stale {
		if fr, ok := d.frames[sheet]; ok {
			return fr, nil
		}
	}

	fr, err := d.materializeSheet(sheet)
	if err != nil {
		return nil, err
	}
	d.frames[sheet] = fr
	delete(d.dirtySheets, sheet)

	logging.L(logging.CategoryDocument).Debugw("regenerated snapshot",
		"sheet", sheet, "rows", fr.NumRows(), "cols", fr.NumCols())
	return fr, nil
}

// ActiveFrame returns the active sheet's snapshot.
func (d *Document) ActiveFrame() (*frame.Frame, error) {
	if !d.IsLoaded() {
		return nil, ErrNotLoaded
	}
	return d.Frame(d.activeSheet)
}

func (d *Document) materializeSheet(sheet string) (*frame.Frame, error) {
	grid, err := d.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	typed := make([][]any, len(grid))
	for r, row := range grid {
		typed[r] = make([]any, len(row))
		for c, cell := range row {
			if cell == "" {
				typed[r][c] = nil
			} else {
				typed[r][c] = parseValue(cell)
			}
		}
	}
	return frame.FromGrid(typed), nil
}

// PushFrame replaces a sheet's grid contents with a snapshot: header row
// first, then data rows. This is the explicit reverse-direction sync and
// it destroys formulas and styling in the rewritten region.
func (d *Document) PushFrame(fr *frame.Frame, sheet string) error {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return err
	}

	// Clear the previously occupied region before rewriting.
	old, err := d.file.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	for r, row := range old {
		for c := range row {
			if err := d.file.SetCellValue(sheet, cellName(c+1, r+1), nil); err != nil {
				return fmt.Errorf("clear cell: %w", err)
			}
		}
	}

	for c, name := range fr.Columns() {
		if err := d.file.SetCellValue(sheet, cellName(c+1, 1), name); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for r := 0; r < fr.NumRows(); r++ {
		for c, v := range fr.Row(r) {
			if v == nil {
				continue
			}
			if err := d.setCellRaw(sheet, cellName(c+1, r+2), v); err != nil {
				return err
			}
		}
	}

	d.frames[sheet] = fr.Clone()
	d.recordChange(ChangeCellValue, sheet, "sheet", nil,
		fmt.Sprintf("rewrote grid from snapshot (%d rows)", fr.NumRows()))
	d.markDirty(sheet)
	// The snapshot just written is by definition current.
	delete(d.dirtySheets, sheet)
	return nil
}
