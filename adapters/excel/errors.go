package excel

import "errors"

var (
	// ErrMissingFilePath is returned when file path is not specified
	ErrMissingFilePath = errors.New("file path is required")

	// ErrSheetNotFound is returned when no sheet has the requested id
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrMissingRowSpan is returned when an update does not address rows
	ErrMissingRowSpan = errors.New("update range must address rows")
)
