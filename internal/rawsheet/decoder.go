package rawsheet

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"html"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/teemow/grnsync/internal/table"
)

const (
	sharedStringsPath = "xl/sharedStrings.xml"
	worksheetPrefix   = "xl/worksheets/"

	// maxPartSize caps how much of a single archive part is read.
	maxPartSize = 256 << 20
)

var (
	// ErrNoWorksheet is returned when the archive has no worksheet part.
	ErrNoWorksheet = errors.New("no worksheet part in archive")
	// ErrNoCells is returned when the worksheet markup yields no cell records.
	ErrNoCells = errors.New("no cell records in worksheet")
)

var (
	cellPattern    = regexp.MustCompile(`(?s)<c\b([^>]*?)(?:/>|>(.*?)</c>)`)
	refAttr        = regexp.MustCompile(`\br="([A-Za-z]+[0-9]+)"`)
	typeAttr       = regexp.MustCompile(`\bt="([^"]*)"`)
	valuePattern   = regexp.MustCompile(`(?s)<v(?:\s[^>]*)?>([^<]*)</v>`)
	inlinePattern  = regexp.MustCompile(`(?s)<is>(.*?)</is>`)
	textRunPattern = regexp.MustCompile(`(?s)<t(?:\s[^>]*)?>([^<]*)</t>`)
	siPattern      = regexp.MustCompile(`(?s)<si(?:\s[^>]*)?>(.*?)</si>`)
)

// Decode recovers a table straight from a workbook's zip container, reading
// the shared-string table and the first worksheet with tolerant pattern
// matching instead of an XML parser. Blank rows are dropped before the
// header policy is applied. Any failure, including a panic inside the
// decoder, is reported as an error and no table.
func Decode(data []byte, policy table.HeaderPolicy) (t table.Table, err error) {
	defer func() {
		if r := recover(); r != nil {
			t, err = table.Table{}, fmt.Errorf("raw decode panic: %v", r)
		}
	}()

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return table.Table{}, fmt.Errorf("open archive: %w", err)
	}

	var shared []string
	if f := findPart(zr, func(name string) bool { return name == sharedStringsPath }); f != nil {
		if content, err := readPart(f); err == nil {
			shared = SharedStrings(content)
		}
	}

	sheet := findPart(zr, isWorksheet)
	if sheet == nil {
		return table.Table{}, ErrNoWorksheet
	}
	content, err := readPart(sheet)
	if err != nil {
		return table.Table{}, fmt.Errorf("read %s: %w", sheet.Name, err)
	}

	grid, err := Cells(content, shared)
	if err != nil {
		return table.Table{}, err
	}

	grid = table.DropBlankRows(grid)
	if len(grid) < policy.MinRows() {
		return table.Table{}, table.ErrNoData
	}
	return table.FromGrid(grid, policy)
}

// SharedStrings extracts the shared-string table. Each <si> item is one
// entry with its text runs concatenated; markup without <si> items falls
// back to one entry per text run.
func SharedStrings(content string) []string {
	items := siPattern.FindAllStringSubmatch(content, -1)
	if len(items) == 0 {
		var out []string
		for _, m := range textRunPattern.FindAllStringSubmatch(content, -1) {
			out = append(out, strings.TrimSpace(html.UnescapeString(m[1])))
		}
		return out
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, strings.TrimSpace(joinRuns(item[1])))
	}
	return out
}

// Cells scans worksheet markup and returns a dense grid with one line per
// row present in the markup, in row order, each padded to the widest
// observed column. Rows missing from the markup are blank and omitted.
func Cells(content string, shared []string) ([][]string, error) {
	type key struct{ row, col int }
	values := make(map[key]string)
	maxCol := 0

	for _, m := range cellPattern.FindAllStringSubmatch(content, -1) {
		attrs, body := m[1], m[2]
		ref := refAttr.FindStringSubmatch(attrs)
		if ref == nil {
			continue
		}
		row, col, err := SplitRef(ref[1])
		if err != nil {
			continue
		}
		var cellType string
		if t := typeAttr.FindStringSubmatch(attrs); t != nil {
			cellType = t[1]
		}

		values[key{row, col}] = table.NormalizeCell(resolve(body, cellType, shared))
		maxCol = max(maxCol, col)
	}
	if len(values) == 0 {
		return nil, ErrNoCells
	}

	rowSet := make(map[int]struct{})
	for k := range values {
		rowSet[k.row] = struct{}{}
	}
	rows := make([]int, 0, len(rowSet))
	for r := range rowSet {
		rows = append(rows, r)
	}
	sort.Ints(rows)

	grid := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := make([]string, maxCol)
		for c := 1; c <= maxCol; c++ {
			line[c-1] = values[key{r, c}]
		}
		grid = append(grid, line)
	}
	return grid, nil
}

// resolve picks a cell's value: inline string first, then a shared-string
// lookup (raw index if unresolvable), then the direct value.
func resolve(body, cellType string, shared []string) string {
	if m := inlinePattern.FindStringSubmatch(body); m != nil {
		if s := joinRuns(m[1]); s != "" {
			return s
		}
	}
	var v string
	if m := valuePattern.FindStringSubmatch(body); m != nil {
		v = strings.TrimSpace(m[1])
	}
	if v == "" {
		return ""
	}
	if cellType == "s" {
		if idx, err := strconv.Atoi(v); err == nil && idx >= 0 && idx < len(shared) {
			return shared[idx]
		}
		return v
	}
	return html.UnescapeString(v)
}

func joinRuns(s string) string {
	var b strings.Builder
	for _, m := range textRunPattern.FindAllStringSubmatch(s, -1) {
		b.WriteString(html.UnescapeString(m[1]))
	}
	return b.String()
}

func isWorksheet(name string) bool {
	if !strings.HasPrefix(name, worksheetPrefix) || !strings.HasSuffix(name, ".xml") {
		return false
	}
	return !strings.Contains(name[len(worksheetPrefix):], "/")
}

func findPart(zr *zip.Reader, match func(string) bool) *zip.File {
	for _, f := range zr.File {
		if match(f.Name) {
			return f
		}
	}
	return nil
}

// readPart reads an archive member, dropping invalid UTF-8 sequences.
func readPart(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	b, err := io.ReadAll(io.LimitReader(rc, maxPartSize))
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(b), ""), nil
}
