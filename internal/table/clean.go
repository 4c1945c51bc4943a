package table

import "strings"

// CleanStats describes what Clean changed.
type CleanStats struct {
	QuotesStripped int
	BlankKeyRows   int
	Duplicates     int
}

// Clean post-processes a parsed table: apostrophes are stripped from every
// cell, rows with a missing second column are dropped when the table has at
// least two columns, and exact duplicate rows are removed keeping the first.
// The input is not modified. Clean is idempotent.
func Clean(t Table) (Table, CleanStats) {
	var stats CleanStats
	out := Table{Header: append([]string(nil), t.Header...)}

	seen := make(map[string]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]string, len(r))
		for i, c := range r {
			if strings.Contains(c, "'") {
				c = strings.ReplaceAll(c, "'", "")
				stats.QuotesStripped++
			}
			row[i] = c
		}

		if t.Width() >= 2 && (len(row) < 2 || IsMissing(row[1])) {
			stats.BlankKeyRows++
			continue
		}

		key := rowKey(row)
		if _, dup := seen[key]; dup {
			stats.Duplicates++
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, row)
	}
	return out, stats
}

// rowKey joins cells with a separator that cannot appear in sheet text.
func rowKey(r []string) string {
	return strings.Join(r, "\x1f")
}

// DedupBy removes rows whose values at the key columns repeat an earlier row.
// Rows are kept in their original order. Short rows compare as if padded
// with empty cells.
func DedupBy(rows [][]string, keys []int) ([][]string, int) {
	seen := make(map[string]struct{}, len(rows))
	out := make([][]string, 0, len(rows))
	removed := 0
	for _, r := range rows {
		parts := make([]string, len(keys))
		for i, k := range keys {
			if k < len(r) {
				parts[i] = r[k]
			}
		}
		key := rowKey(parts)
		if _, dup := seen[key]; dup {
			removed++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, r)
	}
	return out, removed
}
