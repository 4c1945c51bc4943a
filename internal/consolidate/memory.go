package consolidate

import (
	"context"
	"strings"
	"sync"

	"github.com/teemow/grnsync/internal/table"
)

// MemoryStore is an in-process Store. grnsync parse uses it to preview what
// an ingest would write, and tests use it in place of Google Sheets.
type MemoryStore struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sheets: make(map[string][][]string)}
}

// Rows returns a copy of the sheet contents.
func (m *MemoryStore) Rows(sheet string) [][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneRows(m.sheets[sheet])
}

// Set replaces the sheet contents.
func (m *MemoryStore) Set(sheet string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet] = cloneRows(rows)
}

// State implements Store. Rows is the last row with a value in any column.
func (m *MemoryStore) State(_ context.Context, sheet string) (SheetState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.sheets[sheet]
	n := 0
	for i, r := range rows {
		if !table.IsBlankRow(r) {
			n = i + 1
		}
	}
	hasHeader := len(rows) > 0 && len(rows[0]) > 0 && strings.TrimSpace(rows[0][0]) != ""
	return SheetState{HasHeader: hasHeader, Rows: n}, nil
}

// Append implements Store.
func (m *MemoryStore) Append(_ context.Context, sheet string, startRow int, rows [][]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.sheets[sheet]
	for len(cur) < startRow-1 {
		cur = append(cur, nil)
	}
	for i, r := range cloneRows(rows) {
		if idx := startRow - 1 + i; idx < len(cur) {
			cur[idx] = r
		} else {
			cur = append(cur, r)
		}
	}
	m.sheets[sheet] = cur
	return nil
}

// ReadAll implements Store.
func (m *MemoryStore) ReadAll(_ context.Context, sheet string) ([][]string, error) {
	return m.Rows(sheet), nil
}

// Replace implements Store.
func (m *MemoryStore) Replace(_ context.Context, sheet string, rows [][]string) error {
	m.Set(sheet, rows)
	return nil
}

func cloneRows(rows [][]string) [][]string {
	if rows == nil {
		return nil
	}
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
