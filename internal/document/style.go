package document

import (
	"fmt"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Styling mutates workbook presentation only. Snapshots hold values, not
// styles, so style operations bump the version and log a change but do
// not mark the sheet's snapshot stale.

var borderStyles = map[string]int{
	"thin":   1,
	"medium": 2,
	"dashed": 3,
	"dotted": 4,
	"thick":  5,
	"double": 6,
}

// CellStyle collects the style attributes a single call may apply.
// Zero-valued fields are left unset.
type CellStyle struct {
	Bold      bool
	Italic    bool
	FontSize  float64
	FontColor string
	FillColor string
	HAlign    string
	VAlign    string
	WrapText  bool
	Border    string
	NumFmt    string
}

// StyleResult reports one styling operation. CellsModified counts the
// cells the operation touched: the range area for range ops, the
// populated cells of the column or row for sizing ops.
type StyleResult struct {
	Sheet         string `json:"sheet"`
	CellRange     string `json:"cell_range"`
	Applied       string `json:"applied"`
	CellsModified int    `json:"cells_modified"`
}

func rangeArea(c1, r1, c2, r2 int) int {
	return (c2 - c1 + 1) * (r2 - r1 + 1)
}

// SetCellStyle applies a style to a cell or rectangular range
// ("B2" or "A1:C10").
func (d *Document) SetCellStyle(cellRange string, style CellStyle, sheet string) (*StyleResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	c1, r1, c2, r2, err := parseRange(cellRange)
	if err != nil {
		return nil, err
	}

	spec := &excelize.Style{}
	var applied []string

	if style.Bold || style.Italic || style.FontSize > 0 || style.FontColor != "" {
		spec.Font = &excelize.Font{
			Bold:   style.Bold,
			Italic: style.Italic,
			Size:   style.FontSize,
			Color:  normalizeColor(style.FontColor),
		}
		applied = append(applied, "font")
	}
	if style.FillColor != "" {
		spec.Fill = excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{normalizeColor(style.FillColor)},
		}
		applied = append(applied, "fill")
	}
	if style.HAlign != "" || style.VAlign != "" || style.WrapText {
		spec.Alignment = &excelize.Alignment{
			Horizontal: style.HAlign,
			Vertical:   style.VAlign,
			WrapText:   style.WrapText,
		}
		applied = append(applied, "alignment")
	}
	if style.Border != "" {
		bs, ok := borderStyles[strings.ToLower(style.Border)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown border style %q", ErrInvalidRange, style.Border)
		}
		var borders []excelize.Border
		for _, side := range []string{"left", "right", "top", "bottom"} {
			borders = append(borders, excelize.Border{Type: side, Color: "000000", Style: bs})
		}
		spec.Border = borders
		applied = append(applied, "border")
	}
	if style.NumFmt != "" {
		fmtStr := style.NumFmt
		spec.CustomNumFmt = &fmtStr
		applied = append(applied, "number_format")
	}

	styleID, err := d.file.NewStyle(spec)
	if err != nil {
		return nil, fmt.Errorf("build style: %w", err)
	}
	if err := d.file.SetCellStyle(sheet, cellName(c1, r1), cellName(c2, r2), styleID); err != nil {
		return nil, fmt.Errorf("apply style: %w", err)
	}

	summary := strings.Join(applied, ", ")
	d.recordChange(ChangeStyle, sheet, cellRange, nil, summary)
	d.markDirty("")
	return &StyleResult{Sheet: sheet, CellRange: cellRange, Applied: summary, CellsModified: rangeArea(c1, r1, c2, r2)}, nil
}

// MergeCells merges a rectangular range into one cell.
func (d *Document) MergeCells(cellRange string, sheet string) (*StyleResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	c1, r1, c2, r2, err := parseRange(cellRange)
	if err != nil {
		return nil, err
	}
	if err := d.file.MergeCell(sheet, cellName(c1, r1), cellName(c2, r2)); err != nil {
		return nil, fmt.Errorf("merge cells: %w", err)
	}
	d.recordChange(ChangeStyle, sheet, cellRange, nil, "merged")
	d.markDirty("")
	return &StyleResult{Sheet: sheet, CellRange: cellRange, Applied: "merge", CellsModified: rangeArea(c1, r1, c2, r2)}, nil
}

// UnmergeCells splits a previously merged range.
func (d *Document) UnmergeCells(cellRange string, sheet string) (*StyleResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	c1, r1, c2, r2, err := parseRange(cellRange)
	if err != nil {
		return nil, err
	}
	if err := d.file.UnmergeCell(sheet, cellName(c1, r1), cellName(c2, r2)); err != nil {
		return nil, fmt.Errorf("unmerge cells: %w", err)
	}
	d.recordChange(ChangeStyle, sheet, cellRange, "merged", nil)
	d.markDirty("")
	return &StyleResult{Sheet: sheet, CellRange: cellRange, Applied: "unmerge", CellsModified: rangeArea(c1, r1, c2, r2)}, nil
}

// SetColumnWidth sets an explicit width for one column ("C").
func (d *Document) SetColumnWidth(column string, width float64, sheet string) (*StyleResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	column = strings.ToUpper(column)
	colNum, err := columnNumber(column)
	if err != nil {
		return nil, err
	}
	if err := d.file.SetColWidth(sheet, column, column, width); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	d.recordChange(ChangeStyle, sheet, "column "+column, nil, fmt.Sprintf("width %.1f", width))
	d.markDirty("")
	return &StyleResult{Sheet: sheet, CellRange: column, Applied: fmt.Sprintf("width %.1f", width), CellsModified: d.columnCellCount(sheet, colNum)}, nil
}

// SetRowHeight sets an explicit height for one 1-based row.
func (d *Document) SetRowHeight(row int, height float64, sheet string) (*StyleResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	if err := d.file.SetRowHeight(sheet, row, height); err != nil {
		return nil, fmt.Errorf("set row height: %w", err)
	}
	loc := fmt.Sprintf("row %d", row)
	d.recordChange(ChangeStyle, sheet, loc, nil, fmt.Sprintf("height %.1f", height))
	d.markDirty("")
	count := 0
	if rows, err := d.file.GetRows(sheet); err == nil && row >= 1 && row <= len(rows) {
		count = len(rows[row-1])
	}
	return &StyleResult{Sheet: sheet, CellRange: loc, Applied: fmt.Sprintf("height %.1f", height), CellsModified: count}, nil
}

// AutoFitColumn sizes a column to its content. Runes above U+007F count
// double so CJK text fits; the result is clamped to [minWidth, maxWidth]
// (defaults 8 and 50).
func (d *Document) AutoFitColumn(column string, minWidth, maxWidth float64, sheet string) (*StyleResult, error) {
	sheet, err := d.resolveSheet(sheet)
	if err != nil {
		return nil, err
	}
	column = strings.ToUpper(column)
	colNum, err := columnNumber(column)
	if err != nil {
		return nil, err
	}
	if minWidth <= 0 {
		minWidth = 8
	}
	if maxWidth <= 0 {
		maxWidth = 50
	}

	rows, err := d.file.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("scan sheet: %w", err)
	}

	maxLen, populated := 0, 0
	for _, row := range rows {
		if colNum-1 >= len(row) || row[colNum-1] == "" {
			continue
		}
		populated++
		length := displayWidth(row[colNum-1])
		if length > maxLen {
			maxLen = length
		}
	}

	width := math.Min(math.Max(float64(maxLen)*1.1, minWidth), maxWidth)
	if err := d.file.SetColWidth(sheet, column, column, width); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	d.recordChange(ChangeStyle, sheet, "column "+column, nil, fmt.Sprintf("autofit %.1f", width))
	d.markDirty("")
	return &StyleResult{Sheet: sheet, CellRange: column, Applied: fmt.Sprintf("autofit %.1f", width), CellsModified: populated}, nil
}

// columnCellCount reports how many rows carry a value in the 1-based column.
func (d *Document) columnCellCount(sheet string, colNum int) int {
	rows, err := d.file.GetRows(sheet)
	if err != nil {
		return 0
	}
	count := 0
	for _, row := range rows {
		if colNum-1 < len(row) && row[colNum-1] != "" {
			count++
		}
	}
	return count
}

func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

// normalizeColor strips a leading '#' from hex colors.
func normalizeColor(c string) string {
	return strings.TrimPrefix(c, "#")
}
