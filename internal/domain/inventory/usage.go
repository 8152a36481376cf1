package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Usage removes stock of a raw material from the central warehouse.
// Usages are derived from menu-item recipes and are never edited by hand.
type Usage struct {
	shared.BaseEntity
	RawMaterialID uuid.UUID
	OrderID       *uuid.UUID
	OrderItemID   *uuid.UUID
	MenuItemID    *uuid.UUID
	Quantity      decimal.Decimal
	Unit          string
	Note          string
	UsedAt        time.Time
}

// EventDate is the instant the usage counts toward the balance
func (u *Usage) EventDate() time.Time {
	if u.UsedAt.IsZero() {
		return u.CreatedAt
	}
	return u.UsedAt
}

// OrderLine is the part of a sold order item the ledger needs
type OrderLine struct {
	OrderID     uuid.UUID
	OrderItemID uuid.UUID
	MenuItemID  uuid.UUID
	Quantity    decimal.Decimal
	Deleted     bool
}

// Validate checks the order line identifiers and quantity
func (l OrderLine) Validate() error {
	if l.OrderItemID == uuid.Nil {
		return shared.NewValidationError("order_item_id", "Order item ID is required")
	}
	if l.MenuItemID == uuid.Nil {
		return shared.NewValidationError("menu_item_id", "Menu item ID is required")
	}
	if l.Quantity.IsNegative() {
		return shared.NewValidationError("quantity", "Quantity cannot be negative")
	}
	return nil
}

// MenuItemMaterial is one line of a menu item's recipe: how much of a raw material
// one sold unit consumes
type MenuItemMaterial struct {
	shared.BaseEntity
	MenuItemID    uuid.UUID
	RawMaterialID uuid.UUID
	Quantity      decimal.Decimal
	Unit          string
}

// NewMenuItemMaterial creates a recipe line for a menu item
func NewMenuItemMaterial(menuItemID uuid.UUID, material *RawMaterial, quantity decimal.Decimal, unit string) (*MenuItemMaterial, error) {
	if menuItemID == uuid.Nil {
		return nil, shared.NewValidationError("menu_item_id", "Menu item ID is required")
	}
	if material == nil {
		return nil, shared.NewValidationError("raw_material_id", "Raw material is required")
	}
	if !quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "Recipe quantity must be positive")
	}
	if unit == "" {
		unit = material.DefaultUnit
	}
	return &MenuItemMaterial{
		BaseEntity:    shared.NewBaseEntity(),
		MenuItemID:    menuItemID,
		RawMaterialID: material.ID,
		Quantity:      quantity,
		Unit:          unit,
	}, nil
}

// DeriveUsages builds the usage rows for a sold order line from the menu item's recipe.
// Deleted lines and zero quantities produce nothing.
func DeriveUsages(line OrderLine, recipe []MenuItemMaterial, at time.Time) []*Usage {
	if line.Deleted || !line.Quantity.IsPositive() {
		return nil
	}
	usages := make([]*Usage, 0, len(recipe))
	for _, r := range recipe {
		if r.MenuItemID != line.MenuItemID {
			continue
		}
		qty := r.Quantity.Mul(line.Quantity)
		if !qty.IsPositive() {
			continue
		}
		orderID := line.OrderID
		orderItemID := line.OrderItemID
		menuItemID := line.MenuItemID
		u := &Usage{
			BaseEntity:    shared.NewBaseEntity(),
			RawMaterialID: r.RawMaterialID,
			MenuItemID:    &menuItemID,
			OrderItemID:   &orderItemID,
			Quantity:      qty,
			Unit:          r.Unit,
			UsedAt:        at,
		}
		if orderID != uuid.Nil {
			u.OrderID = &orderID
		}
		usages = append(usages, u)
	}
	return usages
}
