package ingest

import (
	"context"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/grnsync/internal/table"
)

func TestExcelizeStrategy(t *testing.T) {
	data := xlsxFixture(t, [][]any{
		{"Goods Receipt Note"},
		{"PurchaseOrderId", "SkuId", "Qty"},
		{"PO1", "S1", 3},
	})

	got, err := ExcelizeStrategy{}.Parse(context.Background(), Source{Name: "a.xlsx", Data: data}, table.Row(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"PurchaseOrderId", "SkuId", "Qty"}, got.Header)
	assert.Equal(t, [][]string{{"PO1", "S1", "3"}}, got.Rows)

	_, err = ExcelizeStrategy{}.Parse(context.Background(), Source{Name: "a.xlsx", Data: []byte("nope")}, table.Row(0))
	assert.Error(t, err)
}

func TestXLSXAltStrategy(t *testing.T) {
	data := xlsxFixture(t, [][]any{
		{"PurchaseOrderId", "SkuId"},
		{"PO1", "S1"},
	})
	src := Source{Name: "a.xlsx", Data: data}

	require.True(t, XLSXAltStrategy{}.Accepts(src))
	got, err := XLSXAltStrategy{}.Parse(context.Background(), src, table.Row(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"PurchaseOrderId", "SkuId"}, got.Header)
	assert.Equal(t, [][]string{{"PO1", "S1"}}, got.Rows)

	assert.False(t, XLSXAltStrategy{}.Accepts(Source{Data: oleMagic}))
}

func TestMatchers(t *testing.T) {
	assert.True(t, XLSStrategy{}.Accepts(Source{Name: "GRN.XLS"}))
	assert.False(t, XLSStrategy{}.Accepts(Source{Name: "grn.xlsx"}))
	assert.True(t, PDFStrategy{}.Accepts(Source{Name: "grn.pdf"}))
	assert.False(t, PDFStrategy{}.Accepts(Source{Name: "grn.xls"}))
}

func TestXLSStrategy_RejectsGarbage(t *testing.T) {
	_, err := XLSStrategy{}.Parse(context.Background(), Source{Name: "a.xls", Data: []byte("not biff")}, table.Row(0))
	assert.Error(t, err)
}

func TestSplitCells(t *testing.T) {
	runs := []pdf.Text{
		{X: 60, W: 10, S: "S1", FontSize: 10},
		{X: 10, W: 6, S: "PO", FontSize: 10},
		{X: 16, W: 4, S: "1", FontSize: 10},
		{X: 120, W: 10, S: "'3'", FontSize: 10},
	}
	assert.Equal(t, []string{"PO1", "S1", "3"}, splitCells(runs, 1))
	assert.Equal(t, []string{"PO1S13"}, splitCells(runs, 100))
	assert.Empty(t, splitCells(nil, 1))
}

func TestSource(t *testing.T) {
	src := Source{Name: "Report.XLSX", Data: []byte("abc")}
	assert.Equal(t, ".xlsx", src.Ext())

	r := src.Reader()
	buf := make([]byte, 3)
	_, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Reader().Len(), "each reader starts at offset zero")
}

func TestSignatureAndDiagnose(t *testing.T) {
	assert.Equal(t, "", Signature(nil))
	assert.Equal(t, "504b0304", Signature([]byte{0x50, 0x4b, 0x03, 0x04}))

	long := make([]byte, 64)
	assert.Len(t, Signature(long), 2*SignatureLen)

	d := Diagnose(nil)
	assert.Empty(t, d.Hex)
	assert.Empty(t, d.MIME)

	broken := append(append([]byte{}, oleMagic...), make([]byte, 32)...)
	d = Diagnose(broken)
	assert.True(t, IsCompoundDocument(broken))
	assert.Equal(t, "d0cf11e0a1b11ae1", d.Hex[:16])
	assert.False(t, d.Encrypted)

	zipData := buildZip(t, map[string]string{"a.txt": "hello"})
	d = Diagnose(zipData)
	assert.Equal(t, "application/zip", d.MIME)
	assert.False(t, IsCompoundDocument(zipData))
}

func TestDiagnosis_String(t *testing.T) {
	d := Diagnosis{Hex: "d0cf11e0", MIME: "application/x-ole-storage", Streams: []string{"EncryptionInfo", "EncryptedPackage"}, Encrypted: true}
	assert.Equal(t, "signature d0cf11e0; detected application/x-ole-storage; password protected; streams EncryptionInfo, EncryptedPackage", d.String())
	assert.Equal(t, "signature ", Diagnosis{}.String())
}

func TestStrategies_AgreeOnHeaderRowWithSpacerRows(t *testing.T) {
	data := xlsxFixture(t, [][]any{
		{},
		{"PurchaseOrderId", "SkuId"},
		{},
		{"PO1", "S1"},
	})
	src := Source{Name: "grn.xlsx", Data: data}
	ctx := context.Background()
	want := table.Table{Header: []string{"PurchaseOrderId", "SkuId"}, Rows: [][]string{{"PO1", "S1"}}}

	for _, s := range []Strategy{ExcelizeStrategy{}, XLSXAltStrategy{}, RawStrategy{}} {
		t.Run(s.Name(), func(t *testing.T) {
			got, err := s.Parse(ctx, src, table.Row(0))
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}

	t.Run("csv", func(t *testing.T) {
		got, err := ParseCSV([]byte(",\nPurchaseOrderId,SkuId\n,\nPO1,S1\n"), table.Row(0))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})
}
