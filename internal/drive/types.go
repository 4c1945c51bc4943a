package drive

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// MIME types of files the ingest run picks up.
const (
	MimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	MimeXLS  = "application/vnd.ms-excel"
	MimePDF  = "application/pdf"
)

// SpreadsheetMimeTypes are listed by default.
var SpreadsheetMimeTypes = []string{MimeXLSX, MimeXLS}

// FileInfo represents metadata about a file or folder in Google Drive
type FileInfo struct {
	// ID is the unique identifier for the file
	ID string `json:"id"`

	// Name is the name of the file
	Name string `json:"name"`

	// MimeType is the MIME type of the file
	MimeType string `json:"mimeType"`

	// Size is the size of the file in bytes (not populated for folders)
	Size int64 `json:"size,omitempty"`

	CreatedTime  time.Time `json:"createdTime"`
	ModifiedTime time.Time `json:"modifiedTime"`

	WebViewLink string   `json:"webViewLink,omitempty"`
	Parents     []string `json:"parents,omitempty"`
}

// DayRange returns the first and last instant of now's calendar day in UTC.
func DayRange(now time.Time) (time.Time, time.Time) {
	y, m, d := now.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.Add(24*time.Hour - time.Nanosecond)
}

// UploadMimeType picks the MIME type stored with an uploaded attachment.
// Spreadsheet extensions map to their fixed types so that the ingest
// listing finds them even when the content is damaged; anything else is
// sniffed.
func UploadMimeType(name string, data []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xls":
		return MimeXLS
	case ".xlsx", ".xlsm":
		return MimeXLSX
	case ".pdf":
		return MimePDF
	}
	return mimetype.Detect(data).String()
}
