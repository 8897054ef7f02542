package sheetboard

import "fmt"

// Range addresses a rectangular region of a sheet tab.
// StartRow and EndRow are 1-based; zero means the whole column span.
type Range struct {
	Sheet       string
	FirstColumn string
	LastColumn  string
	StartRow    int
	EndRow      int
}

// String renders the range in A1 notation, e.g. "Jobs!A:Z" or "Jobs!A2:Z2"
func (r Range) String() string {
	if r.StartRow <= 0 {
		return fmt.Sprintf("%s!%s:%s", r.Sheet, r.FirstColumn, r.LastColumn)
	}
	end := r.EndRow
	if end < r.StartRow {
		end = r.StartRow
	}
	return fmt.Sprintf("%s!%s%d:%s%d", r.Sheet, r.FirstColumn, r.StartRow, r.LastColumn, end)
}

// HasRows reports whether the range is limited to a row span
func (r Range) HasRows() bool {
	return r.StartRow > 0
}

// DataRange is the whole column span of an entity, header included
func DataRange(e Entity) Range {
	return Range{
		Sheet:       e.Sheet,
		FirstColumn: "A",
		LastColumn:  e.LastColumn,
	}
}

// SingleRowRange addresses the data row at a 0-based positional index.
// Row 1 is the header, so index i lives on sheet row i+2.
func SingleRowRange(e Entity, index int) Range {
	row := index + 2
	return Range{
		Sheet:       e.Sheet,
		FirstColumn: "A",
		LastColumn:  e.LastColumn,
		StartRow:    row,
		EndRow:      row,
	}
}

// HeaderRange addresses the header row of an entity
func HeaderRange(e Entity) Range {
	return Range{
		Sheet:       e.Sheet,
		FirstColumn: "A",
		LastColumn:  e.LastColumn,
		StartRow:    1,
		EndRow:      1,
	}
}
