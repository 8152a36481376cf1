package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// WarehouseMaterialMinStock overrides a material's global min stock for one warehouse
type WarehouseMaterialMinStock struct {
	shared.BaseEntity
	RawMaterialID uuid.UUID
	WarehouseID   uuid.UUID
	MinStock      decimal.Decimal
}

// NewWarehouseMaterialMinStock creates a per-warehouse threshold
func NewWarehouseMaterialMinStock(materialID, warehouseID uuid.UUID, minStock decimal.Decimal) (*WarehouseMaterialMinStock, error) {
	if materialID == uuid.Nil {
		return nil, shared.NewValidationError("raw_material_id", "Raw material is required")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewValidationError("warehouse_id", "Warehouse is required")
	}
	if minStock.IsNegative() {
		return nil, shared.NewValidationError("min_stock", "Minimum stock cannot be negative")
	}
	return &WarehouseMaterialMinStock{
		BaseEntity:    shared.NewBaseEntity(),
		RawMaterialID: materialID,
		WarehouseID:   warehouseID,
		MinStock:      minStock,
	}, nil
}

// Update changes the threshold
func (t *WarehouseMaterialMinStock) Update(minStock decimal.Decimal) error {
	if minStock.IsNegative() {
		return shared.NewValidationError("min_stock", "Minimum stock cannot be negative")
	}
	t.MinStock = minStock
	t.UpdatedAt = time.Now()
	return nil
}

// ResolveThreshold prefers the warehouse override and falls back to the material's global min stock
func ResolveThreshold(material *RawMaterial, override *WarehouseMaterialMinStock) decimal.Decimal {
	if override != nil {
		return override.MinStock
	}
	if material == nil {
		return decimal.Zero
	}
	return material.MinStock
}

// IsLow reports whether stock is at or below a positive threshold.
// A zero threshold never flags.
func IsLow(stock, threshold decimal.Decimal) bool {
	return threshold.IsPositive() && stock.LessThanOrEqual(threshold)
}

// StockLevel is a reconstructed balance paired with its threshold
type StockLevel struct {
	Material  *RawMaterial
	Warehouse *Warehouse
	Stock     decimal.Decimal
	Threshold decimal.Decimal
}

// IsLow applies IsLow to the level
func (l StockLevel) IsLow() bool {
	return IsLow(l.Stock, l.Threshold)
}
