package inventory

import (
	"strings"
	"time"

	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
)

// Warehouse codes with ledger semantics
const (
	// WarehouseCodeCentral is where purchases land and usages are drawn from
	WarehouseCodeCentral = "central"
	// WarehouseCodeWaste accepts transfers from any warehouse
	WarehouseCodeWaste = "waste"
	// WarehouseCodePreProduction holds raw materials consumed by production and produced items
	WarehouseCodePreProduction = "pre_production"
)

// DefaultWarehouseNames are used when a special warehouse is created on demand
var DefaultWarehouseNames = map[string]string{
	WarehouseCodeCentral:       "انبار مرکزی",
	WarehouseCodeWaste:         "ضایعات",
	WarehouseCodePreProduction: "انبار پیش تولید",
}

// Warehouse is a named stock-holding location
type Warehouse struct {
	shared.BaseEntity
	Code      string
	Name      string
	Lifecycle Lifecycle
}

// NormalizeWarehouseCode lowercases and trims a warehouse code
func NormalizeWarehouseCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// NewWarehouse creates a new active warehouse
func NewWarehouse(code, name string) (*Warehouse, error) {
	code = NormalizeWarehouseCode(code)
	if code == "" {
		return nil, shared.NewValidationError("code", "Warehouse code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("code", "Warehouse code cannot exceed 50 characters")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultWarehouseNames[code]
	}
	if name == "" {
		name = code
	}
	return &Warehouse{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Lifecycle:  Active{},
	}, nil
}

// IsCentral returns true for the central warehouse
func (w *Warehouse) IsCentral() bool {
	return w != nil && w.Code == WarehouseCodeCentral
}

// IsWaste returns true for the waste warehouse
func (w *Warehouse) IsWaste() bool {
	return w != nil && w.Code == WarehouseCodeWaste
}

// IsPreProduction returns true for the pre-production warehouse
func (w *Warehouse) IsPreProduction() bool {
	return w != nil && w.Code == WarehouseCodePreProduction
}

// IsActive returns true unless the warehouse was deactivated
func (w *Warehouse) IsActive() bool {
	return w.Lifecycle == nil || w.Lifecycle.IsActive()
}

// Deactivate retires the warehouse
func (w *Warehouse) Deactivate(reason string) {
	now := time.Now()
	w.Lifecycle = Deactivated{At: now, Reason: reason}
	w.UpdatedAt = now
}

// ValidateTransferRoute enforces the transfer origin rules.
// Transfers into central or waste may come from anywhere; transfers into any other
// warehouse must come from central. A nil destination removes stock from the ledger.
func ValidateTransferRoute(from, to *Warehouse) error {
	if from == nil && to == nil {
		return shared.NewValidationError("to_warehouse_id", "A transfer needs a source or a destination warehouse")
	}
	if from != nil && to != nil && from.ID == to.ID {
		return shared.NewValidationError("to_warehouse_id", "Source and destination warehouses must differ")
	}
	if to == nil || to.IsCentral() || to.IsWaste() {
		return nil
	}
	if !from.IsCentral() {
		return shared.NewValidationError("from_warehouse_id",
			"Transfers into "+to.Code+" must originate from the central warehouse")
	}
	return nil
}
