package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/teemow/grnsync/internal/logging"
	"github.com/teemow/grnsync/internal/table"
)

func xlsxFixture(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func buildZip(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type countingStrategy struct {
	name  string
	calls atomic.Int32
	fn    func(ctx context.Context) (table.Table, error)
}

func (s *countingStrategy) Name() string { return s.name }

func (s *countingStrategy) Parse(ctx context.Context, _ Source, _ table.HeaderPolicy) (table.Table, error) {
	s.calls.Add(1)
	return s.fn(ctx)
}

func tableOf(rows ...[]string) table.Table {
	return table.Table{Header: []string{"A", "B"}, Rows: rows}
}

func noBinaries(string) (string, error) { return "", errors.New("not found") }

func TestCascade_StopsAtFirstNonEmpty(t *testing.T) {
	empty := &countingStrategy{name: "empty", fn: func(context.Context) (table.Table, error) {
		return table.Table{}, nil
	}}
	noData := &countingStrategy{name: "nodata", fn: func(context.Context) (table.Table, error) {
		return table.Table{}, table.ErrNoData
	}}
	good := &countingStrategy{name: "good", fn: func(context.Context) (table.Table, error) {
		return tableOf([]string{"1", "2"}), nil
	}}
	after := &countingStrategy{name: "after", fn: func(context.Context) (table.Table, error) {
		return tableOf([]string{"x", "y"}), nil
	}}

	sink := logging.NewLines()
	c := NewCascade([]Strategy{empty, noData, good, after}, WithSink(sink))
	res := c.Run(context.Background(), Source{Name: "f.xlsx", Data: []byte("x")}, table.Row(0))

	require.True(t, res.OK())
	assert.Equal(t, "good", res.Strategy)
	assert.Equal(t, [][]string{{"1", "2"}}, res.Table.Rows)
	assert.Nil(t, res.Diagnosis)
	assert.Equal(t, int32(0), after.calls.Load())

	require.Len(t, res.Attempts, 3)
	assert.Equal(t, AttemptEmpty, res.Attempts[0].Status)
	assert.Equal(t, AttemptEmpty, res.Attempts[1].Status)
	assert.NoError(t, res.Attempts[1].Err)
	assert.Equal(t, AttemptSuccess, res.Attempts[2].Status)
	assert.Equal(t, 1, res.Attempts[2].Rows)

	lines := strings.Join(sink.Lines(), "\n")
	assert.Contains(t, lines, "Trying empty parser for f.xlsx")
	assert.Contains(t, lines, "empty returned no data for f.xlsx")
	assert.Contains(t, lines, "good parsed f.xlsx: 1 rows, 2 columns")
	assert.NotContains(t, lines, "after")
}

func TestCascade_ErrorsAndPanicsFallThrough(t *testing.T) {
	failing := StrategyFunc{ID: "failing", Fn: func(context.Context, Source, table.HeaderPolicy) (table.Table, error) {
		return table.Table{}, errors.New("corrupt styles")
	}}
	panicking := StrategyFunc{ID: "panicking", Fn: func(context.Context, Source, table.HeaderPolicy) (table.Table, error) {
		panic("index out of range")
	}}
	good := StrategyFunc{ID: "good", Fn: func(context.Context, Source, table.HeaderPolicy) (table.Table, error) {
		return tableOf([]string{"1", "2"}), nil
	}}

	sink := logging.NewLines()
	res := NewCascade([]Strategy{failing, panicking, good}, WithSink(sink)).
		Run(context.Background(), Source{Name: "f.xlsx"}, table.Row(0))

	require.True(t, res.OK())
	assert.Equal(t, "good", res.Strategy)
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, AttemptError, res.Attempts[0].Status)
	assert.EqualError(t, res.Attempts[0].Err, "corrupt styles")
	assert.Equal(t, AttemptError, res.Attempts[1].Status)
	assert.ErrorContains(t, res.Attempts[1].Err, "panic: index out of range")
	assert.Contains(t, strings.Join(sink.Lines(), "\n"), "failing failed for f.xlsx: corrupt styles")
}

func TestCascade_Timeout(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	slow := StrategyFunc{ID: "slow", Fn: func(context.Context, Source, table.HeaderPolicy) (table.Table, error) {
		<-release
		return tableOf([]string{"late", "late"}), nil
	}}
	good := StrategyFunc{ID: "good", Fn: func(context.Context, Source, table.HeaderPolicy) (table.Table, error) {
		return tableOf([]string{"1", "2"}), nil
	}}

	res := NewCascade([]Strategy{slow, good}, WithTimeout(20*time.Millisecond)).
		Run(context.Background(), Source{Name: "f.xlsx"}, table.Row(0))

	require.True(t, res.OK())
	assert.Equal(t, "good", res.Strategy)
	assert.Equal(t, AttemptError, res.Attempts[0].Status)
	assert.ErrorIs(t, res.Attempts[0].Err, ErrTimeout)
}

func TestCascade_SkipsUnavailableAndUnmatched(t *testing.T) {
	external := &countingStrategy{name: "external", fn: func(context.Context) (table.Table, error) {
		return tableOf([]string{"1", "2"}), nil
	}}
	good := &countingStrategy{name: "good", fn: func(context.Context) (table.Table, error) {
		return tableOf([]string{"1", "2"}), nil
	}}
	legacy := XLSStrategy{}

	strategies := []Strategy{requirer{external}, legacy, good}
	caps := DetectCapabilities(strategies, nil, noBinaries)

	res := NewCascade(strategies, WithCapabilities(caps)).
		Run(context.Background(), Source{Name: "f.xlsx", Data: []byte("x")}, table.Row(0))

	require.True(t, res.OK())
	assert.Equal(t, int32(0), external.calls.Load())
	assert.Equal(t, int32(1), good.calls.Load())
	require.Len(t, res.Attempts, 3)
	assert.Equal(t, AttemptSkipped, res.Attempts[0].Status)
	assert.Equal(t, AttemptSkipped, res.Attempts[1].Status)
}

func TestCascade_CanceledContext(t *testing.T) {
	good := &countingStrategy{name: "good", fn: func(context.Context) (table.Table, error) {
		return tableOf([]string{"1", "2"}), nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewCascade([]Strategy{good}).Run(ctx, Source{Name: "f.xlsx"}, table.Row(0))

	assert.False(t, res.OK())
	assert.Equal(t, int32(0), good.calls.Load())
	require.Len(t, res.Attempts, 1)
	assert.ErrorIs(t, res.Attempts[0].Err, context.Canceled)
}

func TestCascade_ExhaustionReportsSignature(t *testing.T) {
	data := []byte("this is definitely not a workbook, just text")
	strategies := DefaultStrategies(StrategyOptions{})
	caps := DetectCapabilities(strategies, nil, noBinaries)
	sink := logging.NewLines()

	res := NewCascade(strategies, WithCapabilities(caps), WithSink(sink)).
		Run(context.Background(), Source{Name: "broken.xlsx", Data: data}, table.Row(0))

	assert.False(t, res.OK())
	assert.Empty(t, res.Strategy)
	require.NotNil(t, res.Diagnosis)
	assert.Equal(t, Signature(data), res.Diagnosis.Hex)
	assert.Len(t, res.Diagnosis.Hex, 2*SignatureLen)
	assert.Contains(t, res.Diagnosis.MIME, "text/plain")

	require.Len(t, res.Attempts, len(strategies))
	for _, a := range res.Attempts {
		assert.NotEqual(t, AttemptSuccess, a.Status, a.Strategy)
	}
	lines := strings.Join(sink.Lines(), "\n")
	assert.Contains(t, lines, "All parsing strategies failed for broken.xlsx. File signature: "+res.Diagnosis.Hex)
	assert.Contains(t, lines, "libreoffice skipped for broken.xlsx: none of libreoffice, soffice found in PATH")
	assert.Contains(t, lines, "xls skipped for broken.xlsx: not applicable to this file")
	assert.Contains(t, lines, "pdf skipped for broken.xlsx: not applicable to this file")
}

func TestCascade_DefaultStrategiesReadWorkbook(t *testing.T) {
	data := xlsxFixture(t, [][]any{
		{"PurchaseOrderId", "SkuId", "Qty"},
		{"PO1", "S1", 10},
		{"PO1", "S2", 4},
	})
	strategies := DefaultStrategies(StrategyOptions{})
	caps := DetectCapabilities(strategies, nil, noBinaries)

	res := NewCascade(strategies, WithCapabilities(caps)).
		Run(context.Background(), Source{Name: "grn.xlsx", Data: data}, table.Row(0))

	require.True(t, res.OK())
	assert.Equal(t, StrategyExcelize, res.Strategy)
	assert.Equal(t, []string{"PurchaseOrderId", "SkuId", "Qty"}, res.Table.Header)
	assert.Equal(t, [][]string{{"PO1", "S1", "10"}, {"PO1", "S2", "4"}}, res.Table.Rows)
}

func TestCascade_RawFallback(t *testing.T) {
	data := buildZip(t, map[string]string{
		"xl/sharedStrings.xml": `<sst><si><t>PurchaseOrderId</t></si><si><t>SkuId</t></si></sst>`,
		"xl/worksheets/sheet1.xml": `<worksheet><sheetData>` +
			`<row r="1"><c r="A1" t="s"><v>0</v></c><c r="B1" t="s"><v>1</v></c></row>` +
			`<row r="2"><c r="A2"><v>PO9</v></c><c r="B2"><v>S9</v></c></row>` +
			`</sheetData></worksheet>`,
	})
	broken := StrategyFunc{ID: StrategyExcelize, Fn: func(context.Context, Source, table.HeaderPolicy) (table.Table, error) {
		return table.Table{}, errors.New("unsupported workbook")
	}}

	res := NewCascade([]Strategy{broken, RawStrategy{}}).
		Run(context.Background(), Source{Name: "grn.xlsx", Data: data}, table.Row(0))

	require.True(t, res.OK())
	assert.Equal(t, StrategyRaw, res.Strategy)
	assert.Equal(t, []string{"PurchaseOrderId", "SkuId"}, res.Table.Header)
	assert.Equal(t, [][]string{{"PO9", "S9"}}, res.Table.Rows)
}

func TestCascade_Strategies(t *testing.T) {
	c := NewCascade(DefaultStrategies(StrategyOptions{}))
	assert.Equal(t, StrategyNames(), c.Strategies())
	assert.True(t, c.Capabilities().IsAvailable(StrategyLibreOffice))
}

// requirer wraps a strategy so it needs an external executable.
type requirer struct{ *countingStrategy }

func (requirer) Requires() []string { return []string{"some-converter"} }
