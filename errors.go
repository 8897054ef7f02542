package sheetboard

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrMissingID = errors.New("record id is required")
	ErrReadOnly  = errors.New("operation not supported for entity")
)
