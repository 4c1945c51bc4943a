package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderPolicy(t *testing.T) {
	tests := []struct {
		name      string
		policy    HeaderPolicy
		none      bool
		headerRow int
		minRows   int
		str       string
	}{
		{"row zero", Row(0), false, 0, 2, "row 0"},
		{"row three", Row(3), false, 3, 5, "row 3"},
		{"negative is none", Row(-1), true, -1, 1, "none"},
		{"none", None(), true, -1, 1, "none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.none, tt.policy.IsNone())
			assert.Equal(t, tt.headerRow, tt.policy.HeaderRow())
			assert.Equal(t, tt.minRows, tt.policy.MinRows())
			assert.Equal(t, tt.str, tt.policy.String())
		})
	}
}

func TestNormalizeCell(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"nan", math.NaN(), ""},
		{"integer float", 1.0, "1"},
		{"fraction", 2.5, "2.5"},
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"string trimmed", "  Apple  ", "Apple"},
		{"apostrophes removed", "'0123", "0123"},
		{"inner apostrophe", "O'Brien's", "OBriens"},
		{"bool", true, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCell(tt.in))
		})
	}
}

func TestIsMissing(t *testing.T) {
	for _, s := range []string{"", "   ", "nan", "NaN", "None", "<nil>"} {
		assert.True(t, IsMissing(s), "%q should be missing", s)
	}
	for _, s := range []string{"0", "SKU1", "nano"} {
		assert.False(t, IsMissing(s), "%q should not be missing", s)
	}
}

func TestFromGrid_HeaderRow(t *testing.T) {
	grid := [][]string{
		{"report", ""},
		{"PurchaseOrderId", "", "Qty"},
		{"PO1", "S1"},
		{"PO2", "S2", "5"},
	}

	got, err := FromGrid(grid, Row(1))
	require.NoError(t, err)
	assert.Equal(t, []string{"PurchaseOrderId", "Column_2", "Qty"}, got.Header)
	assert.Equal(t, [][]string{{"PO1", "S1", ""}, {"PO2", "S2", "5"}}, got.Rows)
}

func TestFromGrid_None(t *testing.T) {
	got, err := FromGrid([][]string{{"a"}, {"b", "c"}}, None())
	require.NoError(t, err)
	assert.Equal(t, []string{"Column_1", "Column_2"}, got.Header)
	assert.Equal(t, [][]string{{"a", ""}, {"b", "c"}}, got.Rows)
}

func TestFromGrid_NoData(t *testing.T) {
	tests := []struct {
		name   string
		grid   [][]string
		policy HeaderPolicy
	}{
		{"empty", nil, None()},
		{"only header", [][]string{{"a", "b"}}, Row(0)},
		{"header beyond grid", [][]string{{"a"}, {"b"}}, Row(4)},
		{"zero width", [][]string{{}, {}}, None()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromGrid(tt.grid, tt.policy)
			assert.ErrorIs(t, err, ErrNoData)
		})
	}
}

func TestDropBlankRows(t *testing.T) {
	grid := [][]string{{"a", ""}, {"", " "}, {}, {"", "b"}}
	assert.Equal(t, [][]string{{"a", ""}, {"", "b"}}, DropBlankRows(grid))
}

func TestTableHelpers(t *testing.T) {
	tbl := Table{Header: []string{"PurchaseOrderId", "SkuId"}, Rows: [][]string{{"PO1", "S1"}}}

	assert.Equal(t, 2, tbl.Width())
	assert.False(t, tbl.Empty())
	assert.Equal(t, 1, tbl.Column("SkuId"))
	assert.Equal(t, -1, tbl.Column("Qty"))
	assert.Equal(t, [][]string{{"PurchaseOrderId", "SkuId"}, {"PO1", "S1"}}, tbl.Values(true))
	assert.Equal(t, [][]string{{"PO1", "S1"}}, tbl.Values(false))
}

func TestFromGrid_SkipsBlankRowsBeforeHeader(t *testing.T) {
	grid := [][]string{
		{"", ""},
		{"PurchaseOrderId", "SkuId"},
		{" ", ""},
		{"PO1", "S1"},
	}

	got, err := FromGrid(grid, Row(0))
	require.NoError(t, err)
	assert.Equal(t, []string{"PurchaseOrderId", "SkuId"}, got.Header)
	assert.Equal(t, [][]string{{"PO1", "S1"}}, got.Rows)

	got, err = FromGrid(grid, None())
	require.NoError(t, err)
	assert.Len(t, got.Rows, 2)
}
