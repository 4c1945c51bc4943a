package ingest

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/teemow/grnsync/internal/table"
)

// PDFStrategy extracts a text table from PDF attachments. Glyph runs on the
// same line are merged into one cell until the horizontal gap to the next run
// exceeds CellGap times the font size.
type PDFStrategy struct {
	CellGap float64
}

// Name implements Strategy.
func (PDFStrategy) Name() string { return StrategyPDF }

// Accepts implements Matcher.
func (PDFStrategy) Accepts(src Source) bool { return src.Ext() == ".pdf" }

// Parse implements Strategy.
func (s PDFStrategy) Parse(ctx context.Context, src Source, policy table.HeaderPolicy) (table.Table, error) {
	r, err := pdf.NewReader(bytes.NewReader(src.Data), int64(len(src.Data)))
	if err != nil {
		return table.Table{}, fmt.Errorf("open PDF: %w", err)
	}

	gap := s.CellGap
	if gap <= 0 {
		gap = 1
	}

	var grid [][]string
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return table.Table{}, err
		}
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return table.Table{}, fmt.Errorf("extract page %d: %w", i, err)
		}
		for _, row := range rows {
			grid = append(grid, splitCells(row.Content, gap))
		}
	}
	return table.FromGrid(grid, policy)
}

// splitCells orders the runs of one text line by position and joins
// neighbouring runs into cells.
func splitCells(runs []pdf.Text, gap float64) []string {
	sorted := make([]pdf.Text, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var (
		cells []string
		cur   strings.Builder
		end   float64
	)
	for i, t := range sorted {
		if i > 0 {
			size := t.FontSize
			if size <= 0 {
				size = 1
			}
			if t.X-end > gap*size {
				cells = append(cells, table.CleanText(cur.String()))
				cur.Reset()
			}
		}
		cur.WriteString(t.S)
		end = t.X + t.W
	}
	if cur.Len() > 0 {
		cells = append(cells, table.CleanText(cur.String()))
	}
	return cells
}
