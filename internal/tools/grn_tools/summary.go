package grn_tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/grnsync/internal/consolidate"
	"github.com/teemow/grnsync/internal/drive"
	"github.com/teemow/grnsync/internal/ingest"
	"github.com/teemow/grnsync/internal/workflow"
)

type fetchSummary struct {
	RunID     string            `json:"run_id"`
	Query     string            `json:"query"`
	Emails    int               `json:"emails"`
	Processed int               `json:"processed"`
	Saved     int               `json:"saved"`
	Failed    int               `json:"failed"`
	Files     []*drive.FileInfo `json:"files,omitempty"`
}

type fileSummary struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Strategy string `json:"strategy,omitempty"`
	Rows     int    `json:"rows,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ingestSummary struct {
	RunID      string                   `json:"run_id"`
	Date       string                   `json:"date"`
	Found      int                      `json:"found"`
	Batches    int                      `json:"batches"`
	Succeeded  int                      `json:"succeeded"`
	Failed     int                      `json:"failed"`
	Skipped    int                      `json:"skipped"`
	Rows       int                      `json:"rows_appended"`
	Files      []fileSummary            `json:"files,omitempty"`
	Dedup      *consolidate.DedupReport `json:"dedup,omitempty"`
	DedupError string                   `json:"dedup_error,omitempty"`
	Hints      []string                 `json:"hints,omitempty"`
}

type runSummary struct {
	Fetch  *fetchSummary  `json:"fetch,omitempty"`
	Ingest *ingestSummary `json:"ingest,omitempty"`
	Error  string         `json:"error,omitempty"`
	Log    []string       `json:"log,omitempty"`
}

type attemptSummary struct {
	Strategy string `json:"strategy"`
	Status   string `json:"status"`
	Rows     int    `json:"rows,omitempty"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
}

type parseSummary struct {
	Strategy       string            `json:"strategy,omitempty"`
	Rows           int               `json:"rows"`
	Header         []string          `json:"header,omitempty"`
	Preview        [][]string        `json:"preview,omitempty"`
	QuotesStripped int               `json:"quotes_stripped,omitempty"`
	BlankKeyRows   int               `json:"blank_key_rows,omitempty"`
	Duplicates     int               `json:"duplicates,omitempty"`
	Attempts       []attemptSummary  `json:"attempts"`
	Diagnosis      *ingest.Diagnosis `json:"diagnosis,omitempty"`
}

func summarizeFetch(r *workflow.FetchReport) *fetchSummary {
	if r == nil {
		return nil
	}
	return &fetchSummary{
		RunID:     r.RunID,
		Query:     r.Query,
		Emails:    r.Emails,
		Processed: r.Processed,
		Saved:     r.Saved,
		Failed:    r.Failed,
		Files:     r.Files,
	}
}

func summarizeIngest(r *workflow.IngestReport) *ingestSummary {
	if r == nil {
		return nil
	}
	s := &ingestSummary{
		Date:    r.Date,
		Found:   r.Found,
		Batches: r.Batches,
		Dedup:   r.Dedup,
		Hints:   r.Hints,
	}
	if r.DedupErr != nil {
		s.DedupError = r.DedupErr.Error()
	}
	if rc := r.Run; rc != nil {
		s.RunID = rc.ID
		s.Succeeded, s.Failed, s.Skipped, s.Rows = rc.Succeeded, rc.Failed, rc.Skipped, rc.Appended
		for _, f := range rc.Files {
			fs := fileSummary{Name: f.Name, Status: f.Status, Strategy: f.Strategy, Rows: f.Rows}
			if f.Err != nil {
				fs.Error = f.Err.Error()
			}
			s.Files = append(s.Files, fs)
		}
	}
	return s
}

func summarizeParse(r *workflow.ParseReport, preview int) parseSummary {
	s := parseSummary{
		Strategy:       r.Result.Strategy,
		Rows:           len(r.Cleaned.Rows),
		Header:         r.Cleaned.Header,
		QuotesStripped: r.Stats.QuotesStripped,
		BlankKeyRows:   r.Stats.BlankKeyRows,
		Duplicates:     r.Stats.Duplicates,
		Diagnosis:      r.Result.Diagnosis,
		Attempts:       make([]attemptSummary, 0, len(r.Result.Attempts)),
	}
	if preview > 0 {
		s.Preview = r.Cleaned.Rows[:min(preview, len(r.Cleaned.Rows))]
	}
	for _, a := range r.Result.Attempts {
		as := attemptSummary{Strategy: a.Strategy, Status: a.Status, Rows: a.Rows, Duration: a.Duration.String()}
		if a.Err != nil {
			as.Error = a.Err.Error()
		}
		s.Attempts = append(s.Attempts, as)
	}
	return s
}

// jsonResult renders v as an indented JSON text result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
