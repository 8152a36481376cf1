package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// PreProductionItem is an intermediate good made from raw materials by a recipe
type PreProductionItem struct {
	shared.BaseAggregateRoot
	Name      string
	Unit      string
	Lifecycle Lifecycle
	Materials []PreProductionItemMaterial
}

// PreProductionItemMaterial is one recipe line: raw material needed per unit of the item
type PreProductionItemMaterial struct {
	shared.BaseEntity
	ItemID        uuid.UUID
	RawMaterialID uuid.UUID
	Quantity      decimal.Decimal
	Unit          string
	Position      int
}

// RecipeLine is the input form of a recipe line
type RecipeLine struct {
	RawMaterialID uuid.UUID
	Quantity      decimal.Decimal
	Unit          string
}

// NewPreProductionItem creates an item with an optional recipe
func NewPreProductionItem(name, unit string, lines []RecipeLine) (*PreProductionItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("name", "Item name cannot be empty")
	}
	unit = valueobject.NormalizeUnit(unit)
	if unit == "" {
		return nil, shared.NewValidationError("unit", "Item unit is required")
	}
	item := &PreProductionItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Unit:              unit,
		Lifecycle:         Active{},
	}
	if err := item.SetRecipe(lines); err != nil {
		return nil, err
	}
	return item, nil
}

// SetRecipe replaces the recipe lines, keeping their order
func (i *PreProductionItem) SetRecipe(lines []RecipeLine) error {
	materials := make([]PreProductionItemMaterial, 0, len(lines))
	for pos, l := range lines {
		if l.RawMaterialID == uuid.Nil {
			return shared.NewValidationError("materials", "Recipe line needs a raw material")
		}
		if !l.Quantity.IsPositive() {
			return shared.NewValidationError("materials", "Recipe quantity must be positive")
		}
		materials = append(materials, PreProductionItemMaterial{
			BaseEntity:    shared.NewBaseEntity(),
			ItemID:        i.ID,
			RawMaterialID: l.RawMaterialID,
			Quantity:      l.Quantity,
			Unit:          strings.TrimSpace(l.Unit),
			Position:      pos,
		})
	}
	i.Materials = materials
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// MaterialIDs returns the distinct raw materials referenced by the recipe
func (i *PreProductionItem) MaterialIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(i.Materials))
	ids := make([]uuid.UUID, 0, len(i.Materials))
	for _, m := range i.Materials {
		if !seen[m.RawMaterialID] {
			seen[m.RawMaterialID] = true
			ids = append(ids, m.RawMaterialID)
		}
	}
	return ids
}

// IsActive returns true unless the item was deactivated
func (i *PreProductionItem) IsActive() bool {
	return i.Lifecycle == nil || i.Lifecycle.IsActive()
}

// PreProductionStock is the cached balance of an item in one warehouse
type PreProductionStock struct {
	shared.BaseEntity
	ItemID      uuid.UUID
	WarehouseID uuid.UUID
	Quantity    decimal.Decimal
}

// NewPreProductionStock creates an empty stock row
func NewPreProductionStock(itemID, warehouseID uuid.UUID) *PreProductionStock {
	return &PreProductionStock{
		BaseEntity:  shared.NewBaseEntity(),
		ItemID:      itemID,
		WarehouseID: warehouseID,
		Quantity:    decimal.Zero,
	}
}

// Increase adds quantity to the row
func (s *PreProductionStock) Increase(quantity decimal.Decimal) {
	s.Quantity = s.Quantity.Add(quantity)
	s.UpdatedAt = time.Now()
}

// Decrease removes quantity, failing without change when the row holds less
func (s *PreProductionStock) Decrease(item *PreProductionItem, quantity decimal.Decimal) error {
	if s.Quantity.LessThan(quantity) {
		return shared.NewInsufficientStockError([]shared.Shortage{
			shared.NewShortage(item.ID, item.Name, item.Unit, quantity, s.Quantity),
		})
	}
	s.Quantity = s.Quantity.Sub(quantity)
	s.UpdatedAt = time.Now()
	return nil
}

// IsEmpty reports whether the row holds nothing
func (s *PreProductionStock) IsEmpty() bool {
	return !s.Quantity.IsPositive()
}

// PreProductionProduction is the history row of one production run
type PreProductionProduction struct {
	shared.BaseEntity
	ItemID            uuid.UUID
	SourceWarehouseID uuid.UUID
	Quantity          decimal.Decimal
	ProductionDate    time.Time
	Note              string
}

// PreProductionTransfer is the history row of one intermediate-good movement
type PreProductionTransfer struct {
	shared.BaseEntity
	ItemID          uuid.UUID
	FromWarehouseID uuid.UUID
	ToWarehouseID   uuid.UUID
	Quantity        decimal.Decimal
	TransferDate    time.Time
	Note            string
}

// NewPreProductionTransfer validates and creates an intermediate-good transfer record
func NewPreProductionTransfer(item *PreProductionItem, from, to *Warehouse, quantity decimal.Decimal, date time.Time, note string) (*PreProductionTransfer, error) {
	if item == nil {
		return nil, shared.NewValidationError("item_id", "Item is required")
	}
	if from == nil {
		return nil, shared.NewValidationError("from_warehouse_id", "Source warehouse is required")
	}
	if to == nil {
		return nil, shared.NewValidationError("to_warehouse_id", "Destination warehouse is required")
	}
	if from.ID == to.ID {
		return nil, shared.NewValidationError("to_warehouse_id", "Source and destination warehouses must differ")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "Quantity must be positive")
	}
	if date.IsZero() {
		date = time.Now()
	}
	return &PreProductionTransfer{
		BaseEntity:      shared.NewBaseEntity(),
		ItemID:          item.ID,
		FromWarehouseID: from.ID,
		ToWarehouseID:   to.ID,
		Quantity:        quantity,
		TransferDate:    date,
		Note:            strings.TrimSpace(note),
	}, nil
}
