package document

import "time"

// ChangeKind classifies a change-log record.
type ChangeKind string

const (
	ChangeCellValue   ChangeKind = "cell_value"
	ChangeCellFormula ChangeKind = "cell_formula"
	ChangeInsertRows  ChangeKind = "insert_rows"
	ChangeDeleteRows  ChangeKind = "delete_rows"
	ChangeInsertCols  ChangeKind = "insert_cols"
	ChangeDeleteCols  ChangeKind = "delete_cols"
	ChangeSheet       ChangeKind = "sheet"
	ChangeStyle       ChangeKind = "style"
)

// Change is one audit record. Every successful mutating operation appends
// exactly one; batch operations append a single summary record. Ordering
// is append order — timestamps are for display only.
type Change struct {
	Kind      ChangeKind `json:"kind"`
	Sheet     string     `json:"sheet"`
	Location  string     `json:"location"`
	OldValue  any        `json:"old_value,omitempty"`
	NewValue  any        `json:"new_value,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}
