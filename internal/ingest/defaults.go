package ingest

import "time"

// StrategyOptions tunes the built-in strategies.
type StrategyOptions struct {
	// ConvertTimeout bounds each external conversion.
	ConvertTimeout time.Duration
	// TempDir is the parent of converter scratch directories.
	TempDir string
	// PDFCellGap is the gap, in font sizes, that separates two PDF cells.
	PDFCellGap float64
}

// DefaultStrategies returns the built-in strategies in cascade order.
func DefaultStrategies(o StrategyOptions) []Strategy {
	desktop := NewDesktopStrategy(o.ConvertTimeout)
	desktop.TempDir = o.TempDir
	lo := NewLibreOfficeStrategy(o.ConvertTimeout)
	lo.TempDir = o.TempDir
	ss := NewSSConvertStrategy(o.ConvertTimeout)
	ss.TempDir = o.TempDir

	return []Strategy{
		ExcelizeStrategy{},
		XLSStrategy{},
		XLSXAltStrategy{},
		PDFStrategy{CellGap: o.PDFCellGap},
		desktop,
		RawStrategy{},
		lo,
		ss,
	}
}

// StrategyNames lists the built-in strategy names in cascade order.
func StrategyNames() []string {
	return []string{
		StrategyExcelize,
		StrategyXLS,
		StrategyXLSXAlt,
		StrategyPDF,
		StrategyDesktop,
		StrategyRaw,
		StrategyLibreOffice,
		StrategySSConvert,
	}
}
