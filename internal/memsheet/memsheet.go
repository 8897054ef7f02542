// Package memsheet is an in-memory sheetboard.Backend for tests. It keeps
// the addressing rules of the Sheets API: ranges name a tab, row numbers
// are 1-based, and trailing empty cells and rows are not returned.
package memsheet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/ideamans/sheetboard"
)

type sheet struct {
	id    int64
	title string
	rows  [][]string
}

// Backend holds sheets in memory and counts the calls made against it
type Backend struct {
	mu     sync.Mutex
	sheets []*sheet
	calls  map[string]int

	// Err, when set, is returned by every call
	Err error

	// AfterValues, when set, is called by Values once the rows are copied
	// and the backend lock is released
	AfterValues func()
}

// New creates an empty backend
func New() *Backend {
	return &Backend{
		calls: make(map[string]int),
	}
}

// AddSheet adds a tab with the given id, title and rows
func (b *Backend) AddSheet(id int64, title string, rows ...[]string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := &sheet{id: id, title: title}
	for _, row := range rows {
		s.rows = append(s.rows, append([]string(nil), row...))
	}
	b.sheets = append(b.sheets, s)
}

// Rows returns a copy of every row of a tab
func (b *Backend) Rows(title string) [][]string {
	b.mu.Lock()
	defer b.mu.Unlock()

	s := b.byTitle(title)
	if s == nil {
		return nil
	}
	out := make([][]string, len(s.rows))
	for i, row := range s.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Calls returns how many times op was called ("values", "append",
// "update", "deleteRows", "sheetId")
func (b *Backend) Calls(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[op]
}

// TotalCalls returns the number of calls of any kind
func (b *Backend) TotalCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

func (b *Backend) byTitle(title string) *sheet {
	for _, s := range b.sheets {
		if s.title == title {
			return s
		}
	}
	return nil
}

func (b *Backend) begin(op string) error {
	b.calls[op]++
	return b.Err
}

// Values implements sheetboard.Backend
func (b *Backend) Values(ctx context.Context, rng sheetboard.Range) ([][]string, error) {
	rows, err := b.values(rng)
	if err == nil && b.AfterValues != nil {
		b.AfterValues()
	}
	return rows, err
}

func (b *Backend) values(rng sheetboard.Range) ([][]string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("values"); err != nil {
		return nil, err
	}

	s := b.byTitle(rng.Sheet)
	if s == nil {
		return nil, fmt.Errorf("unable to parse range: %s", rng)
	}
	first, last, err := columnSpan(rng)
	if err != nil {
		return nil, err
	}

	start, end := 0, len(s.rows)
	if rng.HasRows() {
		start = rng.StartRow - 1
		end = min(max(rng.EndRow, rng.StartRow), len(s.rows))
	}

	out := make([][]string, 0)
	for i := start; i < end; i++ {
		row := s.rows[i]
		cells := make([]string, 0)
		for c := first; c <= last && c < len(row); c++ {
			cells = append(cells, row[c])
		}
		out = append(out, trimRight(cells))
	}

	// trailing empty rows are not part of the table
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// Append implements sheetboard.Backend
func (b *Backend) Append(ctx context.Context, rng sheetboard.Range, row []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("append"); err != nil {
		return err
	}

	s := b.byTitle(rng.Sheet)
	if s == nil {
		return fmt.Errorf("unable to parse range: %s", rng)
	}
	first, _, err := columnSpan(rng)
	if err != nil {
		return err
	}

	last := len(s.rows)
	for last > 0 && len(trimRight(s.rows[last-1])) == 0 {
		last--
	}
	s.rows = s.rows[:last]
	s.rows = append(s.rows, placeCells(nil, first, row))
	return nil
}

// Update implements sheetboard.Backend
func (b *Backend) Update(ctx context.Context, rng sheetboard.Range, row []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("update"); err != nil {
		return err
	}

	s := b.byTitle(rng.Sheet)
	if s == nil {
		return fmt.Errorf("unable to parse range: %s", rng)
	}
	if !rng.HasRows() {
		return errors.New("update requires a row span")
	}
	first, _, err := columnSpan(rng)
	if err != nil {
		return err
	}

	idx := rng.StartRow - 1
	for len(s.rows) <= idx {
		s.rows = append(s.rows, nil)
	}
	s.rows[idx] = placeCells(s.rows[idx], first, row)
	return nil
}

// DeleteRows implements sheetboard.Backend
func (b *Backend) DeleteRows(ctx context.Context, sheetID int64, start, end int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("deleteRows"); err != nil {
		return err
	}

	var s *sheet
	for _, candidate := range b.sheets {
		if candidate.id == sheetID {
			s = candidate
			break
		}
	}
	if s == nil {
		return fmt.Errorf("no grid with id: %d", sheetID)
	}
	if start < 0 || end <= start {
		return fmt.Errorf("invalid row span [%d, %d)", start, end)
	}
	if start >= int64(len(s.rows)) {
		return nil
	}
	end = min(end, int64(len(s.rows)))
	s.rows = append(s.rows[:start], s.rows[end:]...)
	return nil
}

// SheetID implements sheetboard.Backend
func (b *Backend) SheetID(ctx context.Context, title string) (int64, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.begin("sheetId"); err != nil {
		return 0, false, err
	}

	s := b.byTitle(title)
	if s == nil {
		return 0, false, nil
	}
	return s.id, true, nil
}

// columnSpan returns the 0-based first and last column indexes of rng
func columnSpan(rng sheetboard.Range) (int, int, error) {
	first, err := excelize.ColumnNameToNumber(rng.FirstColumn)
	if err != nil {
		return 0, 0, err
	}
	last, err := excelize.ColumnNameToNumber(rng.LastColumn)
	if err != nil {
		return 0, 0, err
	}
	return first - 1, last - 1, nil
}

// placeCells writes cells into row starting at column first
func placeCells(row []string, first int, cells []string) []string {
	out := append([]string(nil), row...)
	for len(out) < first+len(cells) {
		out = append(out, "")
	}
	copy(out[first:], cells)
	return out
}

func trimRight(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}
