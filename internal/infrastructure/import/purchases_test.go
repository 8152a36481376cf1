package csvimport

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPurchaseReader_Read(t *testing.T) {
	tehran, err := time.LoadLocation("Asia/Tehran")
	require.NoError(t, err)
	reader := NewPurchaseReader(tehran, 0)

	csv := "Material,Quantity,Unit,Total_Price,Purchase_Date,Vendor_Name,Note\n" +
		"MILK,2,l,180000,2025-01-02,Dairy Co,morning\n" +
		"Sugar,500,g,,,,\n"
	rows, err := reader.Read(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	milk := rows[0]
	assert.Equal(t, 2, milk.Row)
	assert.Equal(t, "MILK", milk.Material)
	assert.True(t, milk.Quantity.Equal(decimal.NewFromInt(2)))
	assert.Equal(t, "l", milk.Unit)
	assert.True(t, milk.TotalPrice.Equal(decimal.NewFromInt(180000)))
	require.NotNil(t, milk.PurchaseDate)
	assert.True(t, milk.PurchaseDate.Equal(time.Date(2025, 1, 2, 0, 0, 0, 0, tehran)))
	assert.Equal(t, "Dairy Co", milk.VendorName)
	assert.Equal(t, "morning", milk.Note)

	sugar := rows[1]
	assert.Equal(t, 3, sugar.Row)
	assert.Nil(t, sugar.PurchaseDate, "a blank date is left to the ledger clock")
	assert.True(t, sugar.TotalPrice.IsZero())
}

func TestPurchaseReader_CollectsEveryBadRow(t *testing.T) {
	csv := "material,quantity,total_price,purchase_date\n" +
		",2,,\n" +
		"Milk,two,,\n" +
		"Milk,1,cheap,01/02/2025\n" +
		"Milk,1,,2025-01-02T08:00:00+03:30\n"
	_, err := NewPurchaseReader(time.UTC, 0).Read(strings.NewReader(csv))

	var rejected *shared.ImportRejectedError
	require.True(t, errors.As(err, &rejected))
	require.Len(t, rejected.Rows, 4)
	assert.Equal(t, RowError{Row: 2, Column: ColumnMaterial, Code: ErrCodeImportRequiredField, Message: "field 'material' is required"}, rejected.Rows[0])
	assert.Equal(t, 3, rejected.Rows[1].Row)
	assert.Equal(t, ColumnQuantity, rejected.Rows[1].Column)
	assert.Equal(t, ColumnTotalPrice, rejected.Rows[2].Column)
	assert.Equal(t, ColumnPurchaseDate, rejected.Rows[3].Column)
	assert.Equal(t, "01/02/2025", rejected.Rows[3].Value)
}

func TestPurchaseReader_FileErrors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		maxRows int
		wantErr error
		wantMsg string
	}{
		{name: "missing quantity column", csv: "material,unit\nMilk,l", wantErr: ErrMissingHeader, wantMsg: "quantity"},
		{name: "header only", csv: "material,quantity\n", wantErr: ErrNoDataRows},
		{name: "too many rows", csv: "material,quantity\nMilk,1\nMilk,2\nMilk,3", maxRows: 2, wantMsg: "at most 2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPurchaseReader(nil, tt.maxRows).Read(strings.NewReader(tt.csv))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}
}
