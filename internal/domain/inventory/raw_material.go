package inventory

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeRawMaterial       = "RawMaterial"
	AggregateTypePreProductionItem = "PreProductionItem"
)

// RawMaterial is an ingredient whose balance is reconstructed from ledger events.
// Every balance of the material is expressed in DefaultUnit.
type RawMaterial struct {
	shared.BaseAggregateRoot
	Name        string
	Code        string
	DefaultUnit string
	// MinStock is the global reorder threshold in DefaultUnit; zero means none
	MinStock  decimal.Decimal
	Lifecycle Lifecycle
}

// NewRawMaterial creates a new active raw material.
// The default unit is stored in canonical form.
func NewRawMaterial(name, code, defaultUnit string, minStock decimal.Decimal) (*RawMaterial, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewValidationError("name", "Raw material name cannot be empty")
	}
	if len(name) > 200 {
		return nil, shared.NewValidationError("name", "Raw material name cannot exceed 200 characters")
	}
	unit := valueobject.NormalizeUnit(defaultUnit)
	if unit == "" {
		return nil, shared.NewValidationError("default_unit", "Default unit is required")
	}
	if minStock.IsNegative() {
		return nil, shared.NewValidationError("min_stock", "Minimum stock cannot be negative")
	}

	m := &RawMaterial{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Code:              strings.TrimSpace(code),
		DefaultUnit:       unit,
		MinStock:          minStock,
		Lifecycle:         Active{},
	}
	m.AddDomainEvent(NewRawMaterialCreatedEvent(m))
	return m, nil
}

// IsActive returns true unless the material was deactivated
func (m *RawMaterial) IsActive() bool {
	return m.Lifecycle == nil || m.Lifecycle.IsActive()
}

// ToDefaultUnit converts an entered quantity into the material's default unit
func (m *RawMaterial) ToDefaultUnit(quantity decimal.Decimal, unit string) decimal.Decimal {
	return valueobject.Convert(quantity, unit, m.DefaultUnit)
}

// SetMinStock updates the global reorder threshold
func (m *RawMaterial) SetMinStock(minStock decimal.Decimal) error {
	if minStock.IsNegative() {
		return shared.NewValidationError("min_stock", "Minimum stock cannot be negative")
	}
	m.MinStock = minStock
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
	return nil
}

// Deactivate retires the material while keeping its ledger history
func (m *RawMaterial) Deactivate(reason string) error {
	if !m.IsActive() {
		return shared.NewDomainError("INVALID_STATE", "Raw material is already deactivated")
	}
	now := time.Now()
	m.Lifecycle = Deactivated{At: now, Reason: reason}
	m.UpdatedAt = now
	m.IncrementVersion()
	m.AddDomainEvent(NewRawMaterialDeactivatedEvent(m, reason))
	return nil
}

// Reactivate puts a deactivated material back in use
func (m *RawMaterial) Reactivate() {
	if m.IsActive() {
		return
	}
	m.Lifecycle = Active{}
	m.UpdatedAt = time.Now()
	m.IncrementVersion()
}

// RawMaterialReferenceKinds names the ledger tables that block a raw material deletion
var RawMaterialReferenceKinds = []string{
	"purchases",
	"usages",
	"transfers",
	"menu_item_materials",
	"pre_production_item_materials",
}

// EnsureDeletable returns a DependencyConflictError when any reference count is non-zero
func (m *RawMaterial) EnsureDeletable(refs []shared.Reference) error {
	blocking := make([]shared.Reference, 0, len(refs))
	for _, r := range refs {
		if r.Count > 0 {
			blocking = append(blocking, r)
		}
	}
	if len(blocking) > 0 {
		return shared.NewDependencyConflictError("raw material", m.ID, blocking)
	}
	return nil
}

// MaterialIndex looks materials up by ID
type MaterialIndex map[uuid.UUID]*RawMaterial

// NewMaterialIndex indexes the given materials
func NewMaterialIndex(materials []RawMaterial) MaterialIndex {
	idx := make(MaterialIndex, len(materials))
	for i := range materials {
		idx[materials[i].ID] = &materials[i]
	}
	return idx
}
