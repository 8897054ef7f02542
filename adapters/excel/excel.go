package excel

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/xuri/excelize/v2"

	"github.com/ideamans/sheetboard"
)

// Backend implements sheetboard.Backend on a local .xlsx workbook.
// Values are written as text, so cells read back exactly as written.
type Backend struct {
	config *Config
	mu     sync.RWMutex
}

var _ sheetboard.Backend = (*Backend)(nil)

// New creates a new workbook backend with the given configuration
func New(config *Config) (*Backend, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Create a copy of config to avoid external modifications
	configCopy := *config

	return &Backend{
		config: &configCopy,
	}, nil
}

// Path returns the workbook path
func (b *Backend) Path() string {
	return b.config.FilePath
}

// Values reads the cells of rng. A missing workbook or sheet reads as empty.
func (b *Backend) Values(ctx context.Context, rng sheetboard.Range) ([][]string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(b.config.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return [][]string{}, nil
		}
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetIndex, err := f.GetSheetIndex(rng.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet index: %w", err)
	}
	if sheetIndex == -1 {
		return [][]string{}, nil
	}

	rows, err := f.GetRows(rng.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}

	first, last, err := columnSpan(rng)
	if err != nil {
		return nil, err
	}

	start, end := 0, len(rows)
	if rng.HasRows() {
		start = rng.StartRow - 1
		end = min(max(rng.EndRow, rng.StartRow), len(rows))
	}

	out := make([][]string, 0)
	for i := start; i < end; i++ {
		row := rows[i]
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

// Append writes row below the last non-empty row of the sheet
func (b *Backend) Append(ctx context.Context, rng sheetboard.Range, row []string) error {
	return b.modify(ctx, rng.Sheet, func(f *excelize.File) error {
		rows, err := f.GetRows(rng.Sheet)
		if err != nil {
			return fmt.Errorf("failed to get rows: %w", err)
		}

		next := len(rows)
		for next > 0 && len(trimRight(rows[next-1])) == 0 {
			next--
		}
		return setRow(f, rng, next+1, row)
	})
}

// Update overwrites the cells of the first row of rng
func (b *Backend) Update(ctx context.Context, rng sheetboard.Range, row []string) error {
	if !rng.HasRows() {
		return ErrMissingRowSpan
	}
	return b.modify(ctx, rng.Sheet, func(f *excelize.File) error {
		return setRow(f, rng, rng.StartRow, row)
	})
}

// DeleteRows removes rows [start, end) (0-based) from the sheet with sheetID
func (b *Backend) DeleteRows(ctx context.Context, sheetID int64, start, end int64) error {
	if start < 0 || end <= start {
		return fmt.Errorf("invalid row span [%d, %d)", start, end)
	}

	return b.modify(ctx, "", func(f *excelize.File) error {
		name, ok := f.GetSheetMap()[int(sheetID)]
		if !ok {
			return fmt.Errorf("sheet id %d: %w", sheetID, ErrSheetNotFound)
		}

		// bottom-up so earlier removals do not shift later ones
		for r := end; r > start; r-- {
			if err := f.RemoveRow(name, int(r)); err != nil {
				return fmt.Errorf("failed to remove row %d: %w", r, err)
			}
		}
		return nil
	})
}

// SheetID returns the workbook's id for the sheet titled title
func (b *Backend) SheetID(ctx context.Context, title string) (int64, bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return 0, false, err
	}

	f, err := excelize.OpenFile(b.config.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	for id, name := range f.GetSheetMap() {
		if name == title {
			return int64(id), true, nil
		}
	}
	return 0, false, nil
}

// modify opens (or creates) the workbook, makes sure sheet exists when it
// is named, applies fn and saves the result atomically
func (b *Backend) modify(ctx context.Context, sheet string, fn func(f *excelize.File) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	var f *excelize.File
	created := false
	if _, err := os.Stat(b.config.FilePath); err == nil {
		f, err = excelize.OpenFile(b.config.FilePath)
		if err != nil {
			return fmt.Errorf("failed to open Excel file: %w", err)
		}
	} else {
		f = excelize.NewFile()
		created = true
	}
	defer f.Close()

	if sheet != "" {
		if err := ensureSheet(f, sheet, created); err != nil {
			return err
		}
	}

	if err := fn(f); err != nil {
		return err
	}

	return b.save(f)
}

func (b *Backend) save(f *excelize.File) error {
	dir := filepath.Dir(b.config.FilePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("failed to encode Excel file: %w", err)
	}
	if err := atomic.WriteFile(b.config.FilePath, buf); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func ensureSheet(f *excelize.File, sheet string, created bool) error {
	sheetIndex, err := f.GetSheetIndex(sheet)
	if err != nil {
		return fmt.Errorf("failed to get sheet index: %w", err)
	}
	if sheetIndex != -1 {
		return nil
	}

	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	// a new workbook starts with a default sheet nobody asked for
	if created {
		if defaultSheet := f.GetSheetName(0); defaultSheet != sheet {
			_ = f.DeleteSheet(defaultSheet)
		}
	}
	return nil
}

func setRow(f *excelize.File, rng sheetboard.Range, rowNum int, row []string) error {
	col, err := excelize.ColumnNameToNumber(rng.FirstColumn)
	if err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col, rowNum)
	if err != nil {
		return err
	}

	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}
	if err := f.SetSheetRow(rng.Sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", rowNum, err)
	}
	return nil
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

func trimRight(cells []string) []string {
	n := len(cells)
	for n > 0 && cells[n-1] == "" {
		n--
	}
	return cells[:n]
}
