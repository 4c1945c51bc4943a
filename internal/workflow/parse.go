package workflow

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/teemow/grnsync/internal/ingest"
	"github.com/teemow/grnsync/internal/table"
)

// ParseReport is the outcome of parsing one local file.
type ParseReport struct {
	Result  ingest.Result
	Cleaned table.Table
	Stats   table.CleanStats
}

// ParseFile runs the cascade and the post-processor on a local file. Only
// a read failure is an error; an unparseable file yields an empty Cleaned
// table and a diagnosis in Result.
func ParseFile(ctx context.Context, c *ingest.Cascade, path string, policy table.HeaderPolicy) (*ParseReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDownload)
	}

	res := c.Run(ctx, ingest.Source{Name: filepath.Base(path), Data: data}, policy)
	report := &ParseReport{Result: res}
	if res.OK() {
		report.Cleaned, report.Stats = table.Clean(res.Table)
	}
	return report, nil
}

// WriteCSV writes t with its header row.
func WriteCSV(w io.Writer, t table.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(t.Values(true)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
