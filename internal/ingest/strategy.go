package ingest

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/teemow/grnsync/internal/table"
)

// Strategy names, in default cascade order.
const (
	StrategyExcelize    = "excelize"
	StrategyXLS         = "xls"
	StrategyXLSXAlt     = "xlsx-alt"
	StrategyPDF         = "pdf"
	StrategyDesktop     = "desktop"
	StrategyRaw         = "raw"
	StrategyLibreOffice = "libreoffice"
	StrategySSConvert   = "ssconvert"
)

// Source is one downloaded file: its bytes and the name used for
// extension hints. Source is read-only; every strategy reads from offset 0.
type Source struct {
	ID   string
	Name string
	Data []byte
}

// Reader returns a fresh reader positioned at the start of the data.
func (s Source) Reader() *bytes.Reader {
	return bytes.NewReader(s.Data)
}

// Ext returns the lower-cased filename extension including the dot.
func (s Source) Ext() string {
	return strings.ToLower(filepath.Ext(s.Name))
}

// Strategy is one self-contained parsing approach. A strategy reports
// failure through its error; the cascade treats any error, or an empty
// table, as "try the next one".
type Strategy interface {
	Name() string
	Parse(ctx context.Context, src Source, policy table.HeaderPolicy) (table.Table, error)
}

// Matcher is implemented by strategies that only apply to some files,
// such as the legacy parser that needs a .xls name.
type Matcher interface {
	Accepts(src Source) bool
}

// Requirer is implemented by strategies backed by an external program.
// The strategy is available when any of the listed executables is found.
type Requirer interface {
	Requires() []string
}

// StrategyFunc adapts a function to the Strategy interface.
type StrategyFunc struct {
	ID string
	Fn func(ctx context.Context, src Source, policy table.HeaderPolicy) (table.Table, error)
}

// Name implements Strategy.
func (f StrategyFunc) Name() string { return f.ID }

// Parse implements Strategy.
func (f StrategyFunc) Parse(ctx context.Context, src Source, policy table.HeaderPolicy) (table.Table, error) {
	return f.Fn(ctx, src, policy)
}
