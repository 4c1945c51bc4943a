package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/extrame/xls"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"github.com/teemow/grnsync/internal/rawsheet"
	"github.com/teemow/grnsync/internal/table"
)

// maxLegacyRows caps rows read from a BIFF sheet.
const maxLegacyRows = 1 << 20

var errNoSheets = errors.New("workbook has no sheets")

// ExcelizeStrategy reads the first sheet of an OOXML workbook with excelize.
type ExcelizeStrategy struct{}

// Name implements Strategy.
func (ExcelizeStrategy) Name() string { return StrategyExcelize }

// Parse implements Strategy.
func (ExcelizeStrategy) Parse(_ context.Context, src Source, policy table.HeaderPolicy) (table.Table, error) {
	f, err := excelize.OpenReader(src.Reader())
	if err != nil {
		return table.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return firstSheet(f, policy)
}

// firstSheet reads every row of the workbook's first sheet.
func firstSheet(f *excelize.File, policy table.HeaderPolicy) (table.Table, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return table.Table{}, errNoSheets
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return table.Table{}, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return table.FromGrid(rows, policy)
}

// XLSStrategy reads legacy BIFF workbooks. It only applies to files whose
// name ends in .xls.
type XLSStrategy struct {
	// Charset is passed to the BIFF reader for 8-bit strings.
	Charset string
}

// Name implements Strategy.
func (XLSStrategy) Name() string { return StrategyXLS }

// Accepts implements Matcher.
func (XLSStrategy) Accepts(src Source) bool { return src.Ext() == ".xls" }

// Parse implements Strategy.
func (s XLSStrategy) Parse(_ context.Context, src Source, policy table.HeaderPolicy) (table.Table, error) {
	charset := s.Charset
	if charset == "" {
		charset = "utf-8"
	}
	wb, err := xls.OpenReader(src.Reader(), charset)
	if err != nil {
		return table.Table{}, fmt.Errorf("open legacy workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return table.Table{}, errNoSheets
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return table.Table{}, errNoSheets
	}

	var grid [][]string
	for i := 0; i <= int(sheet.MaxRow) && i < maxLegacyRows; i++ {
		row := sheet.Row(i)
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		grid = append(grid, cells)
	}
	return table.FromGrid(grid, policy)
}

// XLSXAltStrategy is a second OOXML reader with a different tolerance for
// malformed styles and shared strings than excelize.
type XLSXAltStrategy struct{}

// Name implements Strategy.
func (XLSXAltStrategy) Name() string { return StrategyXLSXAlt }

// Accepts implements Matcher; BIFF files go to the legacy reader.
func (XLSXAltStrategy) Accepts(src Source) bool {
	return !IsCompoundDocument(src.Data)
}

// Parse implements Strategy.
func (XLSXAltStrategy) Parse(_ context.Context, src Source, policy table.HeaderPolicy) (table.Table, error) {
	f, err := xlsx.OpenBinary(src.Data)
	if err != nil {
		return table.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	if len(f.Sheets) == 0 {
		return table.Table{}, errNoSheets
	}

	grid := make([][]string, 0, len(f.Sheets[0].Rows))
	for _, row := range f.Sheets[0].Rows {
		if row == nil {
			grid = append(grid, nil)
			continue
		}
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			if c != nil {
				cells[j] = c.String()
			}
		}
		grid = append(grid, cells)
	}
	return table.FromGrid(grid, policy)
}

// RawStrategy reads the zip container directly.
type RawStrategy struct{}

// Name implements Strategy.
func (RawStrategy) Name() string { return StrategyRaw }

// Parse implements Strategy.
func (RawStrategy) Parse(_ context.Context, src Source, policy table.HeaderPolicy) (table.Table, error) {
	return rawsheet.Decode(src.Data, policy)
}
