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

func TestNewRawMaterial(t *testing.T) {
	t.Run("normalizes the default unit and raises an event", func(t *testing.T) {
		m, err := NewRawMaterial(" Milk ", "MLK", "لیتر", decimal.NewFromInt(2))
		require.NoError(t, err)
		assert.Equal(t, "Milk", m.Name)
		assert.Equal(t, "l", m.DefaultUnit)
		assert.True(t, m.IsActive())
		require.Len(t, m.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeRawMaterialCreated, m.GetDomainEvents()[0].EventType())
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewRawMaterial("", "", "g", decimal.Zero)
		assert.Error(t, err)
	})

	t.Run("rejects negative min stock", func(t *testing.T) {
		_, err := NewRawMaterial("Milk", "", "ml", decimal.NewFromInt(-1))
		var vErr *shared.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "min_stock", vErr.Field)
	})
}

func TestRawMaterial_Lifecycle(t *testing.T) {
	m := newTestMaterial(t, "ml", 0)

	require.NoError(t, m.Deactivate("seasonal"))
	assert.False(t, m.IsActive())
	d, ok := m.Lifecycle.(Deactivated)
	require.True(t, ok)
	assert.Equal(t, "seasonal", d.Reason)
	assert.Equal(t, LifecycleDeactivated, m.Lifecycle.Status())

	assert.Error(t, m.Deactivate("again"))

	_, err := NewPurchase(m, PurchaseDetails{Quantity: decimal.NewFromInt(1), Unit: "l", PurchaseDate: day(1)})
	assert.Error(t, err)

	m.Reactivate()
	assert.True(t, m.IsActive())
}

func TestLifecycleFromStatus(t *testing.T) {
	at := time.Now()
	assert.True(t, LifecycleFromStatus(LifecycleActive, nil, "").IsActive())
	assert.True(t, LifecycleFromStatus("", nil, "").IsActive())

	l := LifecycleFromStatus(LifecycleDeactivated, &at, "gone")
	assert.False(t, l.IsActive())
	assert.Equal(t, at, l.(Deactivated).At)
}

func TestRawMaterial_EnsureDeletable(t *testing.T) {
	m := newTestMaterial(t, "g", 0)

	assert.NoError(t, m.EnsureDeletable([]shared.Reference{{Kind: "purchases", Count: 0}}))

	err := m.EnsureDeletable([]shared.Reference{
		{Kind: "purchases", Count: 2},
		{Kind: "usages", Count: 0},
		{Kind: "menu_item_materials", Count: 1},
	})
	var depErr *shared.DependencyConflictError
	require.True(t, errors.As(err, &depErr))
	assert.Equal(t, m.ID, depErr.EntityID)
	assert.Len(t, depErr.References, 2)
	assert.Contains(t, depErr.Error(), "2 purchases")

	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, shared.CodeDependencyConflict, domainErr.Code)
}

func TestThresholds(t *testing.T) {
	m := newTestMaterial(t, "ml", 500)
	override, err := NewWarehouseMaterialMinStock(m.ID, uuid.New(), decimal.NewFromInt(100))
	require.NoError(t, err)

	assertDecimal(t, "500", ResolveThreshold(m, nil))
	assertDecimal(t, "100", ResolveThreshold(m, override))

	assert.True(t, IsLow(decimal.NewFromInt(500), decimal.NewFromInt(500)))
	assert.False(t, IsLow(decimal.NewFromInt(501), decimal.NewFromInt(500)))
	assert.False(t, IsLow(decimal.Zero, decimal.Zero))

	require.NoError(t, override.Update(decimal.Zero))
	assert.False(t, StockLevel{Material: m, Stock: decimal.Zero, Threshold: ResolveThreshold(m, override)}.IsLow())
	assert.Error(t, override.Update(decimal.NewFromInt(-5)))
}

func TestPurchase_UnitPrice(t *testing.T) {
	m := newTestMaterial(t, "g", 0)
	p, err := NewPurchase(m, PurchaseDetails{
		Quantity:     decimal.NewFromInt(3),
		Unit:         "kg",
		TotalPrice:   decimal.NewFromInt(100),
		PurchaseDate: day(1),
	})
	require.NoError(t, err)
	assertDecimal(t, "33.3333", p.UnitPrice())

	require.NoError(t, p.Update(PurchaseDetails{
		Quantity:     decimal.NewFromInt(4),
		Unit:         "kg",
		TotalPrice:   decimal.NewFromInt(100),
		PurchaseDate: day(2),
	}))
	assertDecimal(t, "25", p.UnitPrice())

	assert.Error(t, p.Update(PurchaseDetails{Quantity: decimal.Zero, Unit: "kg", PurchaseDate: day(2)}))
}

func TestDeriveUsages(t *testing.T) {
	flour := newTestMaterial(t, "g", 0)
	milk := newTestMaterial(t, "ml", 0)
	menuItem := uuid.New()
	recipe := []MenuItemMaterial{
		{MenuItemID: menuItem, RawMaterialID: flour.ID, Quantity: decimal.NewFromInt(120), Unit: "g"},
		{MenuItemID: menuItem, RawMaterialID: milk.ID, Quantity: decimal.RequireFromString("0.2"), Unit: "l"},
		{MenuItemID: uuid.New(), RawMaterialID: milk.ID, Quantity: decimal.NewFromInt(1), Unit: "l"},
	}
	line := OrderLine{OrderID: uuid.New(), OrderItemID: uuid.New(), MenuItemID: menuItem, Quantity: decimal.NewFromInt(3)}

	usages := DeriveUsages(line, recipe, day(4))
	require.Len(t, usages, 2)
	assertDecimal(t, "360", usages[0].Quantity)
	assertDecimal(t, "0.6", usages[1].Quantity)
	assert.Equal(t, "l", usages[1].Unit)
	assert.Equal(t, line.OrderItemID, *usages[0].OrderItemID)
	assert.Equal(t, day(4), usages[0].EventDate())

	line.Deleted = true
	assert.Empty(t, DeriveUsages(line, recipe, day(4)))
}
