package consolidate

import "time"

// File outcome statuses.
const (
	FileAppended = "appended"
	FileEmpty    = "empty"
	FileFailed   = "failed"
	FileSkipped  = "skipped"
)

// FileOutcome is the result of processing one source file.
type FileOutcome struct {
	Name     string
	FileID   string
	Status   string
	Strategy string
	Rows     int
	Duration time.Duration
	Err      error
}

// RunContext carries the state of one ingestion run from file to file.
type RunContext struct {
	ID string
	// FirstTable is true until the first successful append.
	FirstTable bool
	// SheetHasHeader is set once this run has written to the sheet.
	SheetHasHeader bool

	Succeeded int
	Failed    int
	Skipped   int
	// Appended counts data rows written.
	Appended int

	Files []FileOutcome
}

// NewRunContext starts a run.
func NewRunContext(id string) *RunContext {
	return &RunContext{ID: id, FirstTable: true}
}

// Record adds a file outcome and updates the counters.
func (rc *RunContext) Record(o FileOutcome) {
	switch o.Status {
	case FileAppended:
		rc.Succeeded++
	case FileFailed:
		rc.Failed++
	default:
		rc.Skipped++
	}
	rc.Files = append(rc.Files, o)
}

// AnyAppended reports whether at least one table reached the sheet.
func (rc *RunContext) AnyAppended() bool {
	return rc.Succeeded > 0
}

// FailedFiles lists the names of files that failed.
func (rc *RunContext) FailedFiles() []string {
	var names []string
	for _, f := range rc.Files {
		if f.Status == FileFailed {
			names = append(names, f.Name)
		}
	}
	return names
}
