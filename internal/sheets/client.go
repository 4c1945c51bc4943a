package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/teemow/grnsync/internal/consolidate"
	"github.com/teemow/grnsync/internal/instrumentation"
	"github.com/teemow/grnsync/internal/table"
)

// ReadRange is the widest block read back for dedup.
const ReadRange = "A1:ZZ"

// valueInputRaw stores values exactly as sent, without formula parsing.
const valueInputRaw = "RAW"

// Config identifies the destination spreadsheet.
type Config struct {
	SpreadsheetID string
	Metrics       *instrumentation.Metrics
	Logger        *slog.Logger
}

// Client implements consolidate.Store on the Sheets API.
type Client struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	metrics       *instrumentation.Metrics
	logger        *slog.Logger
}

var _ consolidate.Store = (*Client)(nil)

// NewClient creates a Sheets client. Pass option.WithHTTPClient with an
// authorized client in production.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Sheets service: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		metrics:       cfg.Metrics,
		logger:        logger,
	}, nil
}

// SpreadsheetID returns the destination spreadsheet.
func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// State reads the used range. The header comes from A1 and the row count
// is the last row holding a value in any column.
func (c *Client) State(ctx context.Context, sheet string) (consolidate.SheetState, error) {
	var state consolidate.SheetState

	rows, err := c.get(ctx, A1(sheet, ReadRange))
	if err != nil {
		return state, err
	}
	state.HasHeader = len(rows) > 0 && len(rows[0]) > 0 && strings.TrimSpace(rows[0][0]) != ""
	for i, r := range rows {
		if !table.IsBlankRow(r) {
			state.Rows = i + 1
		}
	}
	return state, nil
}

// Append writes rows starting at the 1-based startRow.
func (c *Client) Append(ctx context.Context, sheet string, startRow int, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	if startRow < 1 {
		startRow = 1
	}
	rng := A1(sheet, fmt.Sprintf("A%d", startRow))
	return c.update(ctx, instrumentation.OperationAppend, rng, rows)
}

// ReadAll returns every row of the sheet, header first.
func (c *Client) ReadAll(ctx context.Context, sheet string) ([][]string, error) {
	return c.get(ctx, A1(sheet, ReadRange))
}

// Replace clears the sheet and writes rows from A1.
func (c *Client) Replace(ctx context.Context, sheet string, rows [][]string) error {
	err := instrumentation.TrackGoogleCall(ctx, c.metrics, instrumentation.ServiceSheets, instrumentation.OperationClear,
		func(ctx context.Context) error {
			_, err := c.values.Clear(c.spreadsheetID, QuoteSheet(sheet), &sheets.ClearValuesRequest{}).Context(ctx).Do()
			return err
		})
	if err != nil {
		return fmt.Errorf("failed to clear sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil
	}
	return c.update(ctx, instrumentation.OperationUpdate, A1(sheet, "A1"), rows)
}

func (c *Client) get(ctx context.Context, rng string) ([][]string, error) {
	var resp *sheets.ValueRange
	err := instrumentation.TrackGoogleCall(ctx, c.metrics, instrumentation.ServiceSheets, instrumentation.OperationRead,
		func(ctx context.Context) error {
			var err error
			resp, err = c.values.Get(c.spreadsheetID, rng).Context(ctx).Do()
			return err
		})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rng, err)
	}
	return toStrings(resp.Values), nil
}

func (c *Client) update(ctx context.Context, op, rng string, rows [][]string) error {
	vr := &sheets.ValueRange{Values: toInterfaces(rows)}
	var resp *sheets.UpdateValuesResponse
	err := instrumentation.TrackGoogleCall(ctx, c.metrics, instrumentation.ServiceSheets, op,
		func(ctx context.Context) error {
			var err error
			resp, err = c.values.Update(c.spreadsheetID, rng, vr).
				ValueInputOption(valueInputRaw).
				Context(ctx).
				Do()
			return err
		})
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", rng, err)
	}
	c.logger.Debug("sheet values written",
		slog.String("range", rng),
		slog.Int64("updated_rows", resp.UpdatedRows),
		slog.Int64("updated_cells", resp.UpdatedCells))
	return nil
}

// A1 joins a sheet name and a cell range.
func A1(sheet, rng string) string {
	return QuoteSheet(sheet) + "!" + rng
}

// QuoteSheet quotes a sheet name for A1 notation when it contains anything
// other than letters, digits and underscores.
func QuoteSheet(sheet string) string {
	plain := sheet != ""
	for _, r := range sheet {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			plain = false
			break
		}
	}
	if plain {
		return sheet
	}
	return "'" + strings.ReplaceAll(sheet, "'", "''") + "'"
}

// toStrings stringifies read-back cells without cleaning them, so a
// rewrite leaves rows it did not drop exactly as they were.
func toStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		cells := make([]string, len(row))
		for j, v := range row {
			switch v := v.(type) {
			case nil:
			case string:
				cells[j] = v
			default:
				cells[j] = fmt.Sprint(v)
			}
		}
		out[i] = cells
	}
	return out
}

func toInterfaces(rows [][]string) [][]interface{} {
	out := make([][]interface{}, len(rows))
	for i, row := range rows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}
