package gmail

import (
	"path/filepath"
	"regexp"
	"strings"
)

// MaxFilenameLength is the longest sanitized name, extension aside.
const MaxFilenameLength = 100

// SpreadsheetExtensions are the attachment types fetched by default.
var SpreadsheetExtensions = []string{".xls", ".xlsx", ".xlsm"}

var unsafeFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// SanitizeFilename replaces characters that are unsafe in file and folder
// names with underscores. Names longer than MaxFilenameLength keep their
// extension and lose the end of the base name.
func SanitizeFilename(name string) string {
	cleaned := unsafeFilenameChars.ReplaceAllString(name, "_")
	runes := []rune(cleaned)
	if len(runes) <= MaxFilenameLength {
		return cleaned
	}
	dot := strings.LastIndex(cleaned, ".")
	if dot < 0 {
		return string(runes[:MaxFilenameLength])
	}
	base := []rune(cleaned[:dot])
	ext := cleaned[dot+1:]
	if len(base) > MaxFilenameLength-5 {
		base = base[:MaxFilenameLength-5]
	}
	return string(base) + "." + ext
}

// ExtractEmail returns the address inside "Name <address>", or the trimmed
// input when there are no angle brackets.
func ExtractEmail(from string) string {
	start := strings.Index(from, "<")
	if start >= 0 {
		if end := strings.Index(from[start:], ">"); end > 0 {
			return strings.TrimSpace(from[start+1 : start+end])
		}
	}
	return strings.TrimSpace(from)
}

// HasExtension reports whether name ends with one of exts, ignoring case.
func HasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// FilterAttachments keeps the attachments whose names end in one of exts.
func FilterAttachments(atts []Attachment, exts []string) []Attachment {
	var out []Attachment
	for _, a := range atts {
		if HasExtension(a.Filename, exts) {
			out = append(out, a)
		}
	}
	return out
}
