package googlesheets

import (
	"context"
	"fmt"
	"strconv"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ideamans/sheetboard"
)

// valueInputOption lets Sheets parse written values the way it parses
// typed input, so numbers and dates stay sortable and filterable.
const valueInputOption = "USER_ENTERED"

// Backend implements sheetboard.Backend for a Google spreadsheet
type Backend struct {
	service       *sheets.Service
	spreadsheetID string
}

var _ sheetboard.Backend = (*Backend)(nil)

// NewBackend creates a new Google Sheets backend with provided options
func NewBackend(ctx context.Context, config Config, opts ...option.ClientOption) (*Backend, error) {
	if config.SpreadsheetID == "" {
		return nil, ErrNoSpreadsheetID
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Backend{
		service:       service,
		spreadsheetID: config.SpreadsheetID,
	}, nil
}

// SpreadsheetID returns the id of the target spreadsheet
func (b *Backend) SpreadsheetID() string {
	return b.spreadsheetID
}

// Values reads a range as display strings
func (b *Backend) Values(ctx context.Context, rng sheetboard.Range) ([][]string, error) {
	resp, err := b.service.Spreadsheets.Values.Get(b.spreadsheetID, rng.String()).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet data: %w", err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = cellString(v)
		}
		rows[i] = cells
	}
	return rows, nil
}

// Append adds a row after the table found in rng
func (b *Backend) Append(ctx context.Context, rng sheetboard.Range, row []string) error {
	vr := &sheets.ValueRange{
		Values: [][]interface{}{toSheetRow(row)},
	}
	_, err := b.service.Spreadsheets.Values.Append(b.spreadsheetID, rng.String(), vr).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

// Update overwrites the cells of rng
func (b *Backend) Update(ctx context.Context, rng sheetboard.Range, row []string) error {
	vr := &sheets.ValueRange{
		Values: [][]interface{}{toSheetRow(row)},
	}
	_, err := b.service.Spreadsheets.Values.Update(b.spreadsheetID, rng.String(), vr).
		ValueInputOption(valueInputOption).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to update row: %w", err)
	}
	return nil
}

// DeleteRows removes rows [start, end) (0-based) from a sheet
func (b *Backend) DeleteRows(ctx context.Context, sheetID int64, start, end int64) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{
			{
				DeleteDimension: &sheets.DeleteDimensionRequest{
					Range: &sheets.DimensionRange{
						SheetId:    sheetID,
						Dimension:  "ROWS",
						StartIndex: start,
						EndIndex:   end,
						// zero is a valid sheet id and row index
						ForceSendFields: []string{"SheetId", "StartIndex"},
					},
				},
			},
		},
	}

	_, err := b.service.Spreadsheets.BatchUpdate(b.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to delete rows: %w", err)
	}
	return nil
}

// SheetID looks up the numeric id of a sheet tab by title
func (b *Backend) SheetID(ctx context.Context, title string) (int64, bool, error) {
	resp, err := b.service.Spreadsheets.Get(b.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").
		Context(ctx).
		Do()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	for _, s := range resp.Sheets {
		if s.Properties != nil && s.Properties.Title == title {
			return s.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

// cellString converts a Google Sheets cell value to its display text
func cellString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		if val {
			return "TRUE"
		}
		return "FALSE"
	default:
		return fmt.Sprintf("%v", val)
	}
}

func toSheetRow(row []string) []interface{} {
	out := make([]interface{}, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}
