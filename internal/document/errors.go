package document

import "errors"

// Document manager errors. Callers match with errors.Is; the tool layer
// converts them into {"error": ...} results.
var (
	// ErrNotLoaded is returned for any operation on a document with no
	// file loaded.
	ErrNotLoaded = errors.New("no spreadsheet loaded")

	// ErrNotFound is returned when the source file does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrUnsupportedFormat is returned for extensions outside the
	// supported set (.xlsx, .xlsm, .csv).
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnknownSheet is returned when a named sheet does not exist.
	ErrUnknownSheet = errors.New("unknown sheet")

	// ErrSheetExists is returned when creating or renaming to a sheet
	// name that is already taken.
	ErrSheetExists = errors.New("sheet already exists")

	// ErrLastSheet is returned when deleting the only remaining sheet.
	ErrLastSheet = errors.New("cannot delete the last sheet")

	// ErrInvalidAddress is returned for malformed cell addresses.
	ErrInvalidAddress = errors.New("invalid cell address")

	// ErrInvalidRange is returned for malformed range syntax.
	ErrInvalidRange = errors.New("invalid cell range")

	// ErrNoSavePath is returned when saving a blank workbook that was
	// never given a path.
	ErrNoSavePath = errors.New("no save path specified")
)
