package document

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

var cellAddrRx = regexp.MustCompile(`^[A-Za-z]+[0-9]+$`)

// parseCellAddress validates A1-notation and returns 1-based (col, row).
func parseCellAddress(cell string) (int, int, error) {
	if !cellAddrRx.MatchString(cell) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAddress, cell)
	}
	col, row, err := excelize.CellNameToCoordinates(strings.ToUpper(cell))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidAddress, cell)
	}
	return col, row, nil
}

// parseRange accepts either a single cell ("B2") or a rectangle
// ("A1:C10") and returns normalized 1-based bounds with c1<=c2, r1<=r2.
func parseRange(cellRange string) (c1, r1, c2, r2 int, err error) {
	parts := strings.Split(cellRange, ":")
	switch len(parts) {
	case 1:
		c, r, perr := parseCellAddress(parts[0])
		if perr != nil {
			return 0, 0, 0, 0, perr
		}
		return c, r, c, r, nil
	case 2:
		c1, r1, err = parseCellAddress(parts[0])
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, cellRange)
		}
		c2, r2, err = parseCellAddress(parts[1])
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, cellRange)
		}
		if c1 > c2 {
			c1, c2 = c2, c1
		}
		if r1 > r2 {
			r1, r2 = r2, r1
		}
		return c1, r1, c2, r2, nil
	default:
		return 0, 0, 0, 0, fmt.Errorf("%w: %q", ErrInvalidRange, cellRange)
	}
}

// cellName converts 1-based (col, row) back to A1-notation.
func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

// columnName converts a 1-based column number to its letter form.
func columnName(col int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return name
}

// columnNumber converts a column letter to its 1-based number.
func columnNumber(col string) (int, error) {
	n, err := excelize.ColumnNameToNumber(strings.ToUpper(col))
	if err != nil {
		return 0, fmt.Errorf("%w: column %q", ErrInvalidAddress, col)
	}
	return n, nil
}
