package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Transfer moves stock of a raw material between warehouses.
// BaseQuantity is Quantity converted to the material's default unit at write time.
type Transfer struct {
	shared.BaseEntity
	RawMaterialID   uuid.UUID
	FromWarehouseID *uuid.UUID
	ToWarehouseID   *uuid.UUID
	Quantity        decimal.Decimal
	Unit            string
	BaseQuantity    decimal.Decimal
	TransferDate    time.Time
	Note            string
}

// NewTransfer creates a transfer of material. Route rules are checked by ValidateTransferRoute.
func NewTransfer(material *RawMaterial, from, to *Warehouse, quantity decimal.Decimal, unit string, date time.Time, note string) (*Transfer, error) {
	if material == nil {
		return nil, shared.NewValidationError("raw_material_id", "Raw material is required")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "Quantity must be positive")
	}
	if from == nil && to == nil {
		return nil, shared.NewValidationError("to_warehouse_id", "A transfer needs a source or a destination warehouse")
	}
	if from != nil && to != nil && from.ID == to.ID {
		return nil, shared.NewValidationError("to_warehouse_id", "Source and destination warehouses must differ")
	}
	if date.IsZero() {
		return nil, shared.NewValidationError("transfer_date", "Transfer date is required")
	}
	unit = strings.TrimSpace(unit)
	if unit == "" {
		unit = material.DefaultUnit
	}

	t := &Transfer{
		BaseEntity:    shared.NewBaseEntity(),
		RawMaterialID: material.ID,
		Quantity:      quantity,
		Unit:          unit,
		BaseQuantity:  valueobject.Convert(quantity, unit, material.DefaultUnit),
		TransferDate:  date,
		Note:          strings.TrimSpace(note),
	}
	if from != nil {
		id := from.ID
		t.FromWarehouseID = &id
	}
	if to != nil {
		id := to.ID
		t.ToWarehouseID = &id
	}
	return t, nil
}

// EventDate is the instant the transfer counts toward the balances
func (t *Transfer) EventDate() time.Time {
	return t.TransferDate
}

// IsInto reports whether the transfer credits the warehouse
func (t *Transfer) IsInto(warehouseID uuid.UUID) bool {
	return t.ToWarehouseID != nil && *t.ToWarehouseID == warehouseID
}

// IsOutOf reports whether the transfer debits the warehouse
func (t *Transfer) IsOutOf(warehouseID uuid.UUID) bool {
	return t.FromWarehouseID != nil && *t.FromWarehouseID == warehouseID
}
