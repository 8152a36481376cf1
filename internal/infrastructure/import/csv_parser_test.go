package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBFmaterial,quantity\nMilk,2"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, "material", parser.Headers()[0])
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyFile)
		assert.Nil(t, parser)
	})

	t.Run("Invalid UTF-8 is rejected", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("material\n\xff\xfe"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("Persian text is kept", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("material,quantity\nشیر,2"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "شیر", row.Get("material"))
	})

	t.Run("Custom delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("material;quantity;unit\nMilk;2;l"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"material", "quantity", "unit"}, parser.Headers())
	})
}

func TestParseHeader(t *testing.T) {
	t.Run("Headers are trimmed and lower-cased", func(t *testing.T) {
		parser, _ := NewCSVParser(strings.NewReader("  Material , QUANTITY \nMilk,2"))
		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"material", "quantity"}, parser.Headers())
		assert.True(t, parser.HasHeader("quantity"))
		assert.False(t, parser.HasHeader("unit"))
	})

	t.Run("ValidateHeaders finds missing", func(t *testing.T) {
		parser, _ := NewCSVParser(strings.NewReader("material,unit\nMilk,l"))
		require.NoError(t, parser.ParseHeader())
		assert.ElementsMatch(t, []string{"quantity", "total_price"},
			parser.ValidateHeaders([]string{"material", "quantity", "total_price"}))
	})

	t.Run("Blank header row", func(t *testing.T) {
		parser, _ := NewCSVParser(strings.NewReader(" , \nMilk,2"))
		assert.ErrorIs(t, parser.ParseHeader(), ErrMissingHeader)
	})
}

func TestReadRow(t *testing.T) {
	t.Run("Row numbers count the header", func(t *testing.T) {
		parser, _ := NewCSVParser(strings.NewReader("material,quantity,unit\nMilk, 2 ,l"))
		require.NoError(t, parser.ParseHeader())

		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, 2, row.LineNumber)
		assert.Equal(t, "2", row.Get("quantity"))

		_, err = parser.ReadRow()
		assert.Equal(t, io.EOF, err)
	})

	t.Run("Short rows are padded", func(t *testing.T) {
		parser, _ := NewCSVParser(strings.NewReader("material,quantity,unit,note\nMilk"))
		require.NoError(t, parser.ParseHeader())

		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Milk", row.Get("material"))
		assert.Equal(t, "", row.Get("note"))
	})

	t.Run("Quoted fields", func(t *testing.T) {
		csv := "material,note\n\"Beans, dark\",\"Roast \"\"Mocha\"\"\nsecond line\""
		parser, _ := NewCSVParser(strings.NewReader(csv))
		require.NoError(t, parser.ParseHeader())

		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Beans, dark", row.Get("material"))
		assert.Equal(t, "Roast \"Mocha\"\nsecond line", row.Get("note"))
	})
}

func TestReadAllRows(t *testing.T) {
	parser, _ := NewCSVParser(strings.NewReader("material,quantity\nMilk,2\n,\n\nSugar,1"))
	require.NoError(t, parser.ParseHeader())

	rows, err := parser.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Milk", rows[0].Get("material"))
	assert.Equal(t, "Sugar", rows[1].Get("material"))
}

func TestErrorCollection(t *testing.T) {
	errs := NewErrorCollection(2)
	assert.NoError(t, errs.Err())

	errs.AddRequiredError(2, ColumnMaterial)
	errs.AddTypeError(3, ColumnQuantity, "a number", "two")
	errs.AddFormatError(4, ColumnPurchaseDate, "YYYY-MM-DD", "yesterday")

	assert.True(t, errs.HasErrors())
	assert.Equal(t, 3, errs.TotalCount())
	require.Len(t, errs.Errors(), 2, "collection stops at its limit")
	assert.Equal(t, "row 2, column 'material': field 'material' is required", errs.Errors()[0].Error())
	assert.Equal(t, "two", errs.Errors()[1].Value)
	assert.Error(t, errs.Err())
}
