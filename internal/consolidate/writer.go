package consolidate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teemow/grnsync/internal/instrumentation"
	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/table"
)

// DefaultDedupKeys identify one line of a goods receipt note.
var DefaultDedupKeys = []string{"PurchaseOrderId", "SkuId"}

// SheetState is the destination sheet as observed right before a write.
type SheetState struct {
	HasHeader bool
	// Rows is the index of the last row with a value in any column,
	// header included.
	Rows int
}

// Store is the destination spreadsheet. Row offsets are 1-based.
type Store interface {
	State(ctx context.Context, sheet string) (SheetState, error)
	Append(ctx context.Context, sheet string, startRow int, rows [][]string) error
	ReadAll(ctx context.Context, sheet string) ([][]string, error)
	Replace(ctx context.Context, sheet string, rows [][]string) error
}

// Writer appends tables to one sheet and deduplicates it.
type Writer struct {
	store   Store
	sheet   string
	keys    []string
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// Option configures a Writer.
type Option func(*Writer)

// WithDedupKeys sets the columns that identify a row. Empty keeps the
// defaults.
func WithDedupKeys(keys []string) Option {
	return func(w *Writer) {
		if len(keys) > 0 {
			w.keys = keys
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(w *Writer) { w.metrics = m }
}

// NewWriter returns a Writer for the named sheet.
func NewWriter(store Store, sheet string, opts ...Option) *Writer {
	w := &Writer{
		store:  store,
		sheet:  sheet,
		keys:   DefaultDedupKeys,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Sheet returns the destination sheet name.
func (w *Writer) Sheet() string { return w.sheet }

// Append writes t below the current last row and returns the number of
// data rows written. The sheet state is read on every call because earlier
// appends in the same run move the last row. The header goes out only with
// the first table of a run, and only when the sheet has none.
func (w *Writer) Append(ctx context.Context, rc *RunContext, t table.Table) (int, error) {
	if t.Empty() {
		return 0, nil
	}

	state, err := w.store.State(ctx, w.sheet)
	if err != nil {
		return 0, fmt.Errorf("read state of sheet %s: %w", w.sheet, err)
	}

	withHeader := rc.FirstTable && !state.HasHeader
	values := t.Values(withHeader)
	start := state.Rows + 1
	if err := w.store.Append(ctx, w.sheet, start, values); err != nil {
		return 0, fmt.Errorf("append %d rows to sheet %s at row %d: %w", len(values), w.sheet, start, err)
	}

	rc.FirstTable = false
	rc.SheetHasHeader = true
	rc.Appended += len(t.Rows)
	w.metrics.RecordRowsAppended(ctx, len(t.Rows))
	w.logger.Debug("appended rows",
		logging.Rows(len(t.Rows)),
		slog.Int("start_row", start),
		slog.Bool("header", withHeader))
	return len(t.Rows), nil
}

// DedupReport summarizes a dedup pass.
type DedupReport struct {
	Before  int
	After   int
	Removed int
	// Skipped is set when the sheet was empty or lacked a key column.
	Skipped bool
	Reason  string
}

// Dedup rewrites the sheet keeping the first row for each key. When a key
// column is missing the sheet is left untouched and the report is marked
// skipped; that is not an error.
func (w *Writer) Dedup(ctx context.Context) (DedupReport, error) {
	rows, err := w.store.ReadAll(ctx, w.sheet)
	if err != nil {
		return DedupReport{}, fmt.Errorf("read sheet %s: %w", w.sheet, err)
	}
	if len(rows) == 0 {
		return DedupReport{Skipped: true, Reason: "sheet is empty"}, nil
	}

	header, data := rows[0], rows[1:]
	report := DedupReport{Before: len(data)}

	idx, missing := keyIndexes(header, w.keys)
	if len(missing) > 0 {
		report.After = len(data)
		report.Skipped = true
		report.Reason = "missing key columns: " + strings.Join(missing, ", ")
		w.logger.Warn("skipping dedup", slog.String("sheet", w.sheet), slog.Any("missing_columns", missing))
		return report, nil
	}

	padded := make([][]string, len(data))
	for i, r := range data {
		padded[i] = padRow(r, len(header))
	}
	survivors, removed := table.DedupBy(padded, idx)
	report.After = len(survivors)
	report.Removed = removed

	out := make([][]string, 0, len(survivors)+1)
	out = append(out, header)
	out = append(out, survivors...)
	if err := w.store.Replace(ctx, w.sheet, out); err != nil {
		return report, fmt.Errorf("rewrite sheet %s: %w", w.sheet, err)
	}

	w.metrics.RecordDedupRemoved(ctx, removed)
	w.logger.Info("deduplicated sheet",
		slog.String("sheet", w.sheet),
		slog.Int("before", report.Before),
		slog.Int("removed", removed))
	return report, nil
}

func keyIndexes(header, keys []string) ([]int, []string) {
	var (
		idx     []int
		missing []string
	)
	for _, k := range keys {
		found := -1
		for i, h := range header {
			if strings.TrimSpace(h) == k {
				found = i
				break
			}
		}
		if found < 0 {
			missing = append(missing, k)
			continue
		}
		idx = append(idx, found)
	}
	return idx, missing
}

func padRow(r []string, width int) []string {
	if len(r) >= width {
		return r
	}
	out := make([]string, width)
	copy(out, r)
	return out
}
