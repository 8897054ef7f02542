package sheetboard

import "context"

// Backend is a spreadsheet service holding the entity tabs.
// Implementations return errors; the Gateway decides how to degrade.
type Backend interface {
	// Values reads the cells of a range as display strings
	Values(ctx context.Context, rng Range) ([][]string, error)

	// Append adds a row after the last row of the table found in rng
	Append(ctx context.Context, rng Range, row []string) error

	// Update overwrites the cells addressed by rng
	Update(ctx context.Context, rng Range, row []string) error

	// DeleteRows removes the 0-based half-open row span [start, end) of a sheet
	DeleteRows(ctx context.Context, sheetID int64, start, end int64) error

	// SheetID looks up the numeric identifier of a sheet tab by title
	SheetID(ctx context.Context, title string) (int64, bool, error)
}
