package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RequirementLine is one recipe line scaled to a production quantity
type RequirementLine struct {
	Line     PreProductionItemMaterial
	Material *RawMaterial
	// Required is in the recipe line's unit
	Required decimal.Decimal
	// RequiredBase is Required in the material's default unit
	RequiredBase decimal.Decimal
}

// ProductionPlan is a checked production run, ready to be written
type ProductionPlan struct {
	Item     *PreProductionItem
	Quantity decimal.Decimal
	Lines    []RequirementLine
}

// PlanProduction scales the item's recipe to quantity and compares each raw material's
// total requirement with available (default-unit balances in the source warehouse).
// Every short material is reported; nothing is returned but the error when any is short.
func PlanProduction(item *PreProductionItem, materials MaterialIndex, quantity decimal.Decimal, available map[uuid.UUID]decimal.Decimal) (*ProductionPlan, error) {
	if item == nil {
		return nil, shared.NewValidationError("item_id", "Item is required")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "Quantity must be positive")
	}
	if len(item.Materials) == 0 {
		return nil, shared.NewValidationError("materials", "Item has no recipe")
	}

	plan := &ProductionPlan{Item: item, Quantity: quantity}
	totals := make(map[uuid.UUID]decimal.Decimal)
	order := make([]uuid.UUID, 0, len(item.Materials))

	for _, line := range item.Materials {
		material, ok := materials[line.RawMaterialID]
		if !ok {
			return nil, shared.NewValidationError("materials", "Recipe references an unknown raw material")
		}
		unit := line.Unit
		if unit == "" {
			unit = material.DefaultUnit
		}
		required := line.Quantity.Mul(quantity)
		requiredBase := material.ToDefaultUnit(required, unit)

		if _, seen := totals[material.ID]; !seen {
			order = append(order, material.ID)
		}
		totals[material.ID] = totals[material.ID].Add(requiredBase)

		plan.Lines = append(plan.Lines, RequirementLine{
			Line:         line,
			Material:     material,
			Required:     required,
			RequiredBase: requiredBase,
		})
	}

	var shortages []shared.Shortage
	for _, id := range order {
		have := available[id]
		if totals[id].GreaterThan(have) {
			m := materials[id]
			shortages = append(shortages, shared.NewShortage(m.ID, m.Name, m.DefaultUnit, totals[id], have))
		}
	}
	if len(shortages) > 0 {
		return nil, shared.NewInsufficientStockError(shortages)
	}
	return plan, nil
}

// Transfers builds the raw-material transfers that move the plan's ingredients
// from source to the pre-production warehouse
func (p *ProductionPlan) Transfers(source, preProduction *Warehouse, date time.Time) ([]*Transfer, error) {
	note := "production: " + p.Item.Name
	transfers := make([]*Transfer, 0, len(p.Lines))
	for _, l := range p.Lines {
		unit := l.Line.Unit
		if unit == "" {
			unit = l.Material.DefaultUnit
		}
		t, err := NewTransfer(l.Material, source, preProduction, l.Required, unit, date, note)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, t)
	}
	return transfers, nil
}

// NewProductionRecord builds the history row of a plan
func (p *ProductionPlan) NewProductionRecord(source *Warehouse, date time.Time, note string) *PreProductionProduction {
	return &PreProductionProduction{
		BaseEntity:        shared.NewBaseEntity(),
		ItemID:            p.Item.ID,
		SourceWarehouseID: source.ID,
		Quantity:          p.Quantity,
		ProductionDate:    date,
		Note:              strings.TrimSpace(note),
	}
}
