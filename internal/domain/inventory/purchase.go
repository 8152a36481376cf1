package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Purchase adds stock of a raw material to the central warehouse.
// Quantity is kept in the unit it was entered in.
type Purchase struct {
	shared.BaseEntity
	RawMaterialID uuid.UUID
	Quantity      decimal.Decimal
	Unit          string
	TotalPrice    decimal.Decimal
	PurchaseDate  time.Time
	VendorName    string
	VendorPhone   string
	Note          string
}

// PurchaseDetails are the editable attributes of a purchase
type PurchaseDetails struct {
	Quantity     decimal.Decimal
	Unit         string
	TotalPrice   decimal.Decimal
	PurchaseDate time.Time
	VendorName   string
	VendorPhone  string
	Note         string
}

func (d PurchaseDetails) validate() error {
	if !d.Quantity.IsPositive() {
		return shared.NewValidationError("quantity", "Quantity must be positive")
	}
	if valueobject.NormalizeUnit(d.Unit) == "" {
		return shared.NewValidationError("unit", "Unit is required")
	}
	if d.TotalPrice.IsNegative() {
		return shared.NewValidationError("total_price", "Total price cannot be negative")
	}
	if d.PurchaseDate.IsZero() {
		return shared.NewValidationError("purchase_date", "Purchase date is required")
	}
	if len(d.VendorPhone) > 32 {
		return shared.NewValidationError("vendor_phone", "Vendor phone cannot exceed 32 characters")
	}
	return nil
}

// NewPurchase records a purchase of material
func NewPurchase(material *RawMaterial, d PurchaseDetails) (*Purchase, error) {
	if material == nil {
		return nil, shared.NewValidationError("raw_material_id", "Raw material is required")
	}
	if !material.IsActive() {
		return nil, shared.NewValidationError("raw_material_id", "Raw material is deactivated")
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	p := &Purchase{
		BaseEntity:    shared.NewBaseEntity(),
		RawMaterialID: material.ID,
	}
	p.apply(d)
	return p, nil
}

// Update replaces the editable attributes of the purchase
func (p *Purchase) Update(d PurchaseDetails) error {
	if err := d.validate(); err != nil {
		return err
	}
	p.apply(d)
	p.UpdatedAt = time.Now()
	return nil
}

func (p *Purchase) apply(d PurchaseDetails) {
	p.Quantity = d.Quantity
	p.Unit = strings.TrimSpace(d.Unit)
	p.TotalPrice = d.TotalPrice
	p.PurchaseDate = d.PurchaseDate
	p.VendorName = strings.TrimSpace(d.VendorName)
	p.VendorPhone = strings.TrimSpace(d.VendorPhone)
	p.Note = strings.TrimSpace(d.Note)
}

// UnitPrice is the price of one entered unit, derived from the total price
func (p *Purchase) UnitPrice() decimal.Decimal {
	if p.Quantity.IsZero() {
		return decimal.Zero
	}
	return p.TotalPrice.Div(p.Quantity).Round(4)
}

// EventDate is the instant the purchase counts toward the balance
func (p *Purchase) EventDate() time.Time {
	return p.PurchaseDate
}
