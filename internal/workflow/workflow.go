package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/grnsync/internal/config"
	"github.com/teemow/grnsync/internal/consolidate"
	"github.com/teemow/grnsync/internal/drive"
	"github.com/teemow/grnsync/internal/gmail"
	"github.com/teemow/grnsync/internal/ingest"
	"github.com/teemow/grnsync/internal/instrumentation"
	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/table"
)

// Mailbox is the part of the Gmail client the fetch phase uses.
type Mailbox interface {
	Search(ctx context.Context, query string, maxResults int64) ([]string, error)
	GetMessage(ctx context.Context, messageID string) (*gmail.Message, error)
	GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error)
}

// Storage is the part of the Drive client both phases use.
type Storage interface {
	EnsureFolder(ctx context.Context, name, parentID string) (string, error)
	Upload(ctx context.Context, name, parentID, mimeType string, data []byte) (*drive.FileInfo, error)
	ListCreatedBetween(ctx context.Context, folderID string, mimeTypes []string, from, to time.Time) ([]*drive.FileInfo, error)
	Download(ctx context.Context, fileID string) ([]byte, error)
}

var (
	_ Mailbox = (*gmail.Client)(nil)
	_ Storage = (*drive.Client)(nil)
)

// Options are the settings of both phases.
type Options struct {
	Query      gmail.SearchQuery
	MaxResults int64
	// Extensions selects the attachments to save.
	Extensions []string

	ParentFolderID string
	BaseFolder     string
	SourceFolderID string
	// MimeTypes selects the Drive files to ingest.
	MimeTypes []string

	HeaderPolicy table.HeaderPolicy
	BatchSize    int
	// Delay separates fetch and ingest in Run.
	Delay time.Duration
}

// OptionsFromConfig maps loaded settings onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	exts := append([]string(nil), gmail.SpreadsheetExtensions...)
	mimes := append([]string(nil), drive.SpreadsheetMimeTypes...)
	if cfg.Gmail.IncludePDF {
		exts = append(exts, ".pdf")
		mimes = append(mimes, drive.MimePDF)
	}

	policy := table.Row(cfg.Sheet.HeaderRow)
	if cfg.Sheet.HeaderRow < 0 {
		policy = table.None()
	}

	return Options{
		Query: gmail.SearchQuery{
			Sender:   cfg.Gmail.Sender,
			Keywords: cfg.Gmail.SearchTerm,
			DaysBack: cfg.Gmail.DaysBack,
		},
		MaxResults:     cfg.Gmail.MaxResults,
		Extensions:     exts,
		ParentFolderID: cfg.Drive.ParentFolderID,
		BaseFolder:     cfg.Drive.BaseFolder,
		SourceFolderID: cfg.Drive.SourceFolderID,
		MimeTypes:      mimes,
		HeaderPolicy:   policy,
		BatchSize:      cfg.Ingest.BatchSize,
		Delay:          cfg.Workflow.Delay,
	}
}

// Deps are the collaborators of a Runner. Mail is only needed by Fetch;
// Cascade and Writer only by Ingest.
type Deps struct {
	Mail    Mailbox
	Drive   Storage
	Cascade *ingest.Cascade
	Writer  *consolidate.Writer
	Sink    logging.Sink
	Logger  *slog.Logger
	Metrics *instrumentation.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
	// NewID defaults to a random UUID.
	NewID func() string
}

// Runner executes the fetch and ingest phases.
type Runner struct {
	mail    Mailbox
	drive   Storage
	cascade *ingest.Cascade
	writer  *consolidate.Writer
	sink    logging.Sink
	logger  *slog.Logger
	metrics *instrumentation.Metrics
	now     func() time.Time
	newID   func() string
	opts    Options
}

// New creates a Runner.
func New(deps Deps, opts Options) *Runner {
	r := &Runner{
		mail:    deps.Mail,
		drive:   deps.Drive,
		cascade: deps.Cascade,
		writer:  deps.Writer,
		sink:    deps.Sink,
		logger:  deps.Logger,
		metrics: deps.Metrics,
		now:     deps.Now,
		newID:   deps.NewID,
		opts:    opts,
	}
	if r.sink == nil {
		r.sink = logging.Discard
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	if r.now == nil {
		r.now = time.Now
	}
	if r.newID == nil {
		r.newID = uuid.NewString
	}
	if r.opts.BatchSize <= 0 {
		r.opts.BatchSize = 50
	}
	if len(r.opts.Extensions) == 0 {
		r.opts.Extensions = gmail.SpreadsheetExtensions
	}
	if len(r.opts.MimeTypes) == 0 {
		r.opts.MimeTypes = drive.SpreadsheetMimeTypes
	}
	return r
}

// RunReport combines the reports of both phases. Ingest is nil when the
// fetch phase failed.
type RunReport struct {
	Fetch  *FetchReport
	Ingest *IngestReport
}

// Run fetches attachments, waits for Delay so that Drive lists the new
// uploads, then ingests today's files.
func (r *Runner) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{}

	r.sink.Printf("=== PHASE 1: Gmail to Drive ===")
	fetch, err := r.Fetch(ctx)
	report.Fetch = fetch
	if err != nil {
		return report, err
	}

	if r.opts.Delay > 0 {
		timer := time.NewTimer(r.opts.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return report, ctx.Err()
		case <-timer.C:
		}
	}

	r.sink.Printf("=== PHASE 2: Drive to Sheets ===")
	ing, err := r.Ingest(ctx)
	report.Ingest = ing
	return report, err
}
