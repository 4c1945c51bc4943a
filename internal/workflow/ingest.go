package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/teemow/grnsync/internal/consolidate"
	"github.com/teemow/grnsync/internal/drive"
	"github.com/teemow/grnsync/internal/ingest"
	"github.com/teemow/grnsync/internal/instrumentation"
	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/table"
)

var (
	// ErrEmptyDownload is recorded for files that downloaded as zero bytes.
	ErrEmptyDownload = errors.New("downloaded file is empty")
	// ErrUnparseable is recorded for files every strategy rejected.
	ErrUnparseable = errors.New("all parsing strategies failed")
)

// IngestReport summarizes an ingest phase.
type IngestReport struct {
	Run   *consolidate.RunContext
	Date  string
	Found int
	// Batches is the number of batches processed.
	Batches int
	// Dedup is nil when no table was appended or dedup failed.
	Dedup    *consolidate.DedupReport
	DedupErr error
	// Hints suggest how to raise the success rate after failures.
	Hints []string
}

// Ingest parses today's spreadsheets in SourceFolderID and appends them to
// the sheet in batches, then removes duplicate rows once. Listing failures
// abort the phase; a failing file is recorded and skipped.
func (r *Runner) Ingest(ctx context.Context) (*IngestReport, error) {
	if r.drive == nil || r.cascade == nil || r.writer == nil {
		return nil, fmt.Errorf("ingest needs a drive client, a cascade and a sheet writer")
	}

	now := r.now()
	rc := consolidate.NewRunContext(r.newID())
	report := &IngestReport{Run: rc, Date: now.UTC().Format("2006-01-02")}
	logger := logging.WithRun(logging.WithOperation(r.logger, "ingest"), rc.ID)
	ctx, span := instrumentation.StartSpan(ctx, "grnsync.ingest",
		instrumentation.NewSpanAttributeBuilder().WithRun(rc.ID).Build()...)
	defer span.End()

	from, to := drive.DayRange(now)
	r.sink.Printf("Searching for files created today (%s)...", report.Date)
	files, err := r.drive.ListCreatedBetween(ctx, r.opts.SourceFolderID, r.opts.MimeTypes, from, to)
	if err != nil {
		instrumentation.SetSpanError(span, err)
		return report, fmt.Errorf("failed to list today's files: %w", err)
	}
	report.Found = len(files)
	if len(files) == 0 {
		r.sink.Printf("No files found that were created today (%s)", report.Date)
		return report, nil
	}
	r.sink.Printf("Found %d files created today", len(files))
	r.sink.Printf("Processing with header row setting: %s", r.opts.HeaderPolicy)

	size := r.opts.BatchSize
	total := (len(files) + size - 1) / size
	for b := 0; b < total; b++ {
		batch := files[b*size : min((b+1)*size, len(files))]
		before := len(rc.Files)
		for i, f := range batch {
			if err := ctx.Err(); err != nil {
				instrumentation.SetSpanError(span, err)
				return report, err
			}
			r.sink.Printf("[Batch %d/%d] [%d/%d] [Overall: %d/%d] Processing: %s",
				b+1, total, i+1, len(batch), b*size+i+1, len(files), f.Name)
			rc.Record(r.ingestFile(ctx, logger, rc, f))
		}
		report.Batches++
		r.batchSummary(b+1, rc.Files[before:])
	}

	r.sink.Printf("FINAL RESULTS: %d found, %d succeeded, %d failed, %d skipped, %d rows appended",
		report.Found, rc.Succeeded, rc.Failed, rc.Skipped, rc.Appended)

	if rc.AnyAppended() {
		r.sink.Printf("Removing duplicates from sheet %s...", r.writer.Sheet())
		dedup, err := r.writer.Dedup(ctx)
		switch {
		case err != nil:
			report.DedupErr = err
			r.sink.Printf("Duplicate removal failed: %v", err)
			logger.Error("dedup failed", logging.Err(err))
		case dedup.Skipped:
			report.Dedup = &dedup
			r.sink.Printf("Duplicate removal skipped: %s", dedup.Reason)
		default:
			report.Dedup = &dedup
			r.sink.Printf("Removed %d duplicate rows. Remaining: %d", dedup.Removed, dedup.After)
		}
	}

	if rc.Failed > 0 {
		report.Hints = r.hints()
		r.sink.Printf("To improve success rate, consider:")
		for i, h := range report.Hints {
			r.sink.Printf("%d. %s", i+1, h)
		}
	}

	logger.Info("ingest finished",
		slog.Int("found", report.Found),
		slog.Int("succeeded", rc.Succeeded),
		slog.Int("failed", rc.Failed),
		logging.Rows(rc.Appended))
	instrumentation.SetSpanSuccess(span)
	return report, nil
}

// ingestFile downloads, parses, cleans and appends a single file.
func (r *Runner) ingestFile(ctx context.Context, logger *slog.Logger, rc *consolidate.RunContext, f *drive.FileInfo) consolidate.FileOutcome {
	start := time.Now()
	out := consolidate.FileOutcome{Name: f.Name, FileID: f.ID}
	logger = logger.With(logging.File(f.Name), logging.FileID(f.ID))

	ctx, span := instrumentation.StartSpan(ctx, "grnsync.ingest.file",
		instrumentation.NewSpanAttributeBuilder().WithRun(rc.ID).WithFile(f.Name, f.ID).Build()...)
	defer span.End()

	finish := func(status string, err error) consolidate.FileOutcome {
		out.Status = status
		out.Err = err
		out.Duration = time.Since(start)
		r.metrics.RecordFileProcessed(ctx, status)
		if err != nil {
			instrumentation.SetSpanError(span, err)
			logger.Warn("file failed", logging.Err(err))
		} else {
			instrumentation.SetSpanSuccess(span)
		}
		return out
	}

	data, err := r.drive.Download(ctx, f.ID)
	if err != nil {
		r.sink.Printf("  FAILED to download %s: %v", f.Name, err)
		return finish(consolidate.FileFailed, err)
	}
	if len(data) == 0 {
		r.sink.Printf("  FAILED: %s is empty", f.Name)
		return finish(consolidate.FileFailed, ErrEmptyDownload)
	}

	res := r.cascade.Run(ctx, ingest.Source{ID: f.ID, Name: f.Name, Data: data}, r.opts.HeaderPolicy)
	if !res.OK() {
		r.sink.Printf("  SKIPPED - No data extracted")
		return finish(consolidate.FileFailed, ErrUnparseable)
	}
	out.Strategy = res.Strategy

	cleaned, stats := table.Clean(res.Table)
	logger.Debug("cleaned table",
		logging.Strategy(res.Strategy),
		slog.Int("quotes_stripped", stats.QuotesStripped),
		slog.Int("blank_key_rows", stats.BlankKeyRows),
		slog.Int("duplicates", stats.Duplicates))
	if cleaned.Empty() {
		r.sink.Printf("  SKIPPED - No rows left after cleaning")
		return finish(consolidate.FileEmpty, nil)
	}
	r.sink.Printf("  Data shape: (%d, %d)", len(cleaned.Rows), cleaned.Width())

	n, err := r.writer.Append(ctx, rc, cleaned)
	if err != nil {
		r.sink.Printf("  FAILED to append to sheet: %v", err)
		return finish(consolidate.FileFailed, err)
	}
	out.Rows = n
	span.SetAttributes(instrumentation.NewSpanAttributeBuilder().WithStrategy(res.Strategy).WithRows(n).Build()...)
	r.sink.Printf("  APPENDED %d rows to sheet successfully", n)
	return finish(consolidate.FileAppended, nil)
}

func (r *Runner) batchSummary(n int, outcomes []consolidate.FileOutcome) {
	var ok, failed int
	for _, o := range outcomes {
		switch o.Status {
		case consolidate.FileAppended:
			ok++
		case consolidate.FileFailed:
			failed++
		}
	}
	r.sink.Printf("--- BATCH %d SUMMARY --- Successfully processed: %d files, failed: %d files", n, ok, failed)
}

// hints lists the converters worth installing. Installed ones are left out.
func (r *Runner) hints() []string {
	caps := r.cascade.Capabilities()
	var hints []string
	if !caps.IsAvailable(ingest.StrategyLibreOffice) {
		hints = append(hints, "Installing LibreOffice: sudo apt-get install libreoffice")
	}
	if !caps.IsAvailable(ingest.StrategySSConvert) {
		hints = append(hints, "Installing Gnumeric: sudo apt-get install gnumeric")
	}
	return append(hints, "Re-saving problematic files in Excel as .xlsx format")
}
