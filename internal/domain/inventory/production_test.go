package inventory

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanProduction_DoughShortage(t *testing.T) {
	flour, err := NewRawMaterial("Flour", "", "g", decimal.Zero)
	require.NoError(t, err)
	dough, err := NewPreProductionItem("Dough", "count", []RecipeLine{
		{RawMaterialID: flour.ID, Quantity: decimal.NewFromInt(200), Unit: "g"},
	})
	require.NoError(t, err)

	available := map[uuid.UUID]decimal.Decimal{flour.ID: decimal.NewFromInt(350)}
	plan, err := PlanProduction(dough, MaterialIndex{flour.ID: flour}, decimal.NewFromInt(2), available)

	require.Error(t, err)
	assert.Nil(t, plan)

	var stockErr *shared.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Len(t, stockErr.Shortages, 1)
	s := stockErr.Shortages[0]
	assert.Equal(t, flour.ID, s.MaterialID)
	assertDecimal(t, "400", s.Required)
	assertDecimal(t, "350", s.Available)
	assertDecimal(t, "50", s.Deficit)
}

func TestPlanProduction_ReportsEveryShortage(t *testing.T) {
	flour, _ := NewRawMaterial("Flour", "", "kg", decimal.Zero)
	butter, _ := NewRawMaterial("Butter", "", "g", decimal.Zero)
	salt, _ := NewRawMaterial("Salt", "", "g", decimal.Zero)
	item, err := NewPreProductionItem("Pastry", "count", []RecipeLine{
		{RawMaterialID: flour.ID, Quantity: decimal.NewFromInt(300), Unit: "g"},
		{RawMaterialID: butter.ID, Quantity: decimal.NewFromInt(100), Unit: "g"},
		{RawMaterialID: salt.ID, Quantity: decimal.NewFromInt(5), Unit: "g"},
	})
	require.NoError(t, err)

	materials := MaterialIndex{flour.ID: flour, butter.ID: butter, salt.ID: salt}
	available := map[uuid.UUID]decimal.Decimal{
		flour.ID:  decimal.RequireFromString("0.5"),
		butter.ID: decimal.NewFromInt(150),
		salt.ID:   decimal.NewFromInt(1000),
	}

	_, err = PlanProduction(item, materials, decimal.NewFromInt(2), available)

	var stockErr *shared.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Len(t, stockErr.Shortages, 2)
	assert.Equal(t, flour.ID, stockErr.Shortages[0].MaterialID)
	assert.Equal(t, "kg", stockErr.Shortages[0].Unit)
	assertDecimal(t, "0.1", stockErr.Shortages[0].Deficit)
	assert.Equal(t, butter.ID, stockErr.Shortages[1].MaterialID)
	assertDecimal(t, "50", stockErr.Shortages[1].Deficit)
}

func TestPlanProduction_AggregatesRepeatedMaterial(t *testing.T) {
	sugar, _ := NewRawMaterial("Sugar", "", "g", decimal.Zero)
	item, err := NewPreProductionItem("Syrup", "l", []RecipeLine{
		{RawMaterialID: sugar.ID, Quantity: decimal.NewFromInt(100), Unit: "g"},
		{RawMaterialID: sugar.ID, Quantity: decimal.NewFromInt(100), Unit: "g"},
	})
	require.NoError(t, err)

	available := map[uuid.UUID]decimal.Decimal{sugar.ID: decimal.NewFromInt(150)}
	_, err = PlanProduction(item, MaterialIndex{sugar.ID: sugar}, decimal.NewFromInt(1), available)

	var stockErr *shared.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Len(t, stockErr.Shortages, 1)
	assertDecimal(t, "200", stockErr.Shortages[0].Required)
}

func TestPlanProduction_Transfers(t *testing.T) {
	flour, _ := NewRawMaterial("Flour", "", "kg", decimal.Zero)
	water, _ := NewRawMaterial("Water", "", "l", decimal.Zero)
	item, err := NewPreProductionItem("Dough", "count", []RecipeLine{
		{RawMaterialID: flour.ID, Quantity: decimal.NewFromInt(200), Unit: "g"},
		{RawMaterialID: water.ID, Quantity: decimal.NewFromInt(100)},
	})
	require.NoError(t, err)

	available := map[uuid.UUID]decimal.Decimal{flour.ID: decimal.NewFromInt(5), water.ID: decimal.NewFromInt(500)}
	plan, err := PlanProduction(item, MaterialIndex{flour.ID: flour, water.ID: water}, decimal.NewFromInt(3), available)
	require.NoError(t, err)

	central, _ := NewWarehouse(WarehouseCodeCentral, "")
	pre, _ := NewWarehouse(WarehouseCodePreProduction, "")
	transfers, err := plan.Transfers(central, pre, day(1))
	require.NoError(t, err)
	require.Len(t, transfers, 2)

	assert.Equal(t, central.ID, *transfers[0].FromWarehouseID)
	assert.Equal(t, pre.ID, *transfers[0].ToWarehouseID)
	assertDecimal(t, "600", transfers[0].Quantity)
	assertDecimal(t, "0.6", transfers[0].BaseQuantity)
	assert.Equal(t, "l", transfers[1].Unit)
	assertDecimal(t, "300", transfers[1].BaseQuantity)
	assert.Contains(t, transfers[0].Note, "Dough")

	record := plan.NewProductionRecord(central, day(1), " morning batch ")
	assert.Equal(t, item.ID, record.ItemID)
	assert.Equal(t, "morning batch", record.Note)
	assertDecimal(t, "3", record.Quantity)
}

func TestPlanProduction_Validation(t *testing.T) {
	flour, _ := NewRawMaterial("Flour", "", "g", decimal.Zero)
	empty, _ := NewPreProductionItem("Empty", "count", nil)
	item, _ := NewPreProductionItem("Dough", "count", []RecipeLine{{RawMaterialID: flour.ID, Quantity: decimal.NewFromInt(1)}})

	_, err := PlanProduction(item, MaterialIndex{flour.ID: flour}, decimal.Zero, nil)
	assert.Error(t, err)

	_, err = PlanProduction(empty, MaterialIndex{}, decimal.NewFromInt(1), nil)
	assert.Error(t, err)

	_, err = PlanProduction(item, MaterialIndex{}, decimal.NewFromInt(1), nil)
	var vErr *shared.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestPreProductionStock_Decrease(t *testing.T) {
	item, _ := NewPreProductionItem("Dough", "count", nil)
	stock := NewPreProductionStock(item.ID, uuid.New())
	stock.Increase(decimal.NewFromInt(5))

	err := stock.Decrease(item, decimal.NewFromInt(6))
	var stockErr *shared.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assertDecimal(t, "5", stock.Quantity)

	require.NoError(t, stock.Decrease(item, decimal.NewFromInt(5)))
	assert.True(t, stock.IsEmpty())
}

func TestNewPreProductionTransfer(t *testing.T) {
	item, _ := NewPreProductionItem("Dough", "count", nil)
	pre, _ := NewWarehouse(WarehouseCodePreProduction, "")
	kitchen, _ := NewWarehouse("kitchen", "")

	tr, err := NewPreProductionTransfer(item, pre, kitchen, decimal.NewFromInt(2), time.Time{}, "")
	require.NoError(t, err)
	assert.False(t, tr.TransferDate.IsZero())

	_, err = NewPreProductionTransfer(item, pre, pre, decimal.NewFromInt(2), day(1), "")
	assert.Error(t, err)

	_, err = NewPreProductionTransfer(item, pre, kitchen, decimal.Zero, day(1), "")
	assert.Error(t, err)
}
