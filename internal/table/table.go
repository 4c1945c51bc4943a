// Package table holds the string-cell Table model shared by the parsers, the
// post-processing applied to every parsed file, and the header policy.
package table

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned when a grid holds no data row under the given policy.
var ErrNoData = errors.New("no data rows")

// HeaderPolicy decides which row, if any, supplies column names.
type HeaderPolicy struct {
	row  int
	none bool
}

// Row returns a policy that uses the 0-based row n as header.
// Rows before n are dropped. A negative n (the -1 config value) means None.
func Row(n int) HeaderPolicy {
	if n < 0 {
		return None()
	}
	return HeaderPolicy{row: n}
}

// None returns a policy that synthesizes Column_1..Column_k names and keeps
// every row as data.
func None() HeaderPolicy {
	return HeaderPolicy{none: true}
}

// IsNone reports whether column names are synthesized.
func (p HeaderPolicy) IsNone() bool { return p.none }

// HeaderRow returns the header row index, or -1 for None.
func (p HeaderPolicy) HeaderRow() int {
	if p.none {
		return -1
	}
	return p.row
}

// MinRows is the number of non-blank rows a grid needs before the policy
// can yield at least one data row.
func (p HeaderPolicy) MinRows() int {
	if p.none {
		return 1
	}
	return p.row + 2
}

func (p HeaderPolicy) String() string {
	if p.none {
		return "none"
	}
	return fmt.Sprintf("row %d", p.row)
}

// Table is a header plus rows of string cells. Every row has len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Empty reports whether the table carries no data rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Width returns the column count.
func (t Table) Width() int {
	return len(t.Header)
}

// Column returns the index of the named column or -1.
func (t Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Values returns the header followed by the rows, the layout a sheet write expects.
func (t Table) Values(withHeader bool) [][]string {
	out := make([][]string, 0, len(t.Rows)+1)
	if withHeader {
		out = append(out, append([]string(nil), t.Header...))
	}
	for _, r := range t.Rows {
		out = append(out, append([]string(nil), r...))
	}
	return out
}

// SyntheticName returns the generated name of the 0-based column i.
func SyntheticName(i int) string {
	return fmt.Sprintf("Column_%d", i+1)
}

// FromGrid applies policy to a raw grid of cells. Blank rows are dropped
// first, so Row(N) counts non-blank rows whichever reader produced the
// grid. Rows are padded to the widest row so every row matches the header
// width. It returns ErrNoData when no data row remains.
func FromGrid(grid [][]string, policy HeaderPolicy) (Table, error) {
	grid = DropBlankRows(grid)
	width := 0
	for _, r := range grid {
		if len(r) > width {
			width = len(r)
		}
	}
	if width == 0 {
		return Table{}, ErrNoData
	}

	var header []string
	var body [][]string
	if policy.IsNone() {
		header = make([]string, width)
		for i := range header {
			header[i] = SyntheticName(i)
		}
		body = grid
	} else {
		n := policy.HeaderRow()
		if len(grid) <= n {
			return Table{}, ErrNoData
		}
		header = make([]string, width)
		src := grid[n]
		for i := range header {
			name := ""
			if i < len(src) {
				name = strings.TrimSpace(src[i])
			}
			if name == "" {
				name = SyntheticName(i)
			}
			header[i] = name
		}
		body = grid[n+1:]
	}

	rows := make([][]string, 0, len(body))
	for _, r := range body {
		rows = append(rows, pad(r, width))
	}
	if len(rows) == 0 {
		return Table{}, ErrNoData
	}
	return Table{Header: header, Rows: rows}, nil
}

func pad(r []string, width int) []string {
	out := make([]string, width)
	copy(out, r)
	return out
}

// IsBlankRow reports whether every cell is empty after trimming.
func IsBlankRow(r []string) bool {
	for _, c := range r {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// DropBlankRows removes rows whose cells are all empty.
func DropBlankRows(grid [][]string) [][]string {
	out := grid[:0:0]
	for _, r := range grid {
		if !IsBlankRow(r) {
			out = append(out, r)
		}
	}
	return out
}
