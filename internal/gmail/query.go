package gmail

import (
	"fmt"
	"strings"
	"time"
)

// SearchQuery describes the messages to fetch.
type SearchQuery struct {
	Sender string
	// Keywords is a single term or a comma-separated list matched with OR.
	Keywords string
	DaysBack int
}

// Build renders the query relative to now.
func (q SearchQuery) Build(now time.Time) string {
	parts := []string{"has:attachment"}
	if q.Sender != "" {
		parts = append(parts, fmt.Sprintf("from:%q", q.Sender))
	}
	if kw := keywordClause(q.Keywords); kw != "" {
		parts = append(parts, kw)
	}
	start := now.AddDate(0, 0, -q.DaysBack)
	parts = append(parts, "after:"+start.Format("2006/01/02"))
	return strings.Join(parts, " ")
}

func keywordClause(keywords string) string {
	if keywords == "" {
		return ""
	}
	if !strings.Contains(keywords, ",") {
		return fmt.Sprintf("%q", keywords)
	}
	var quoted []string
	for _, k := range strings.Split(keywords, ",") {
		if k = strings.TrimSpace(k); k != "" {
			quoted = append(quoted, fmt.Sprintf("%q", k))
		}
	}
	if len(quoted) == 0 {
		return ""
	}
	return "(" + strings.Join(quoted, " OR ") + ")"
}
