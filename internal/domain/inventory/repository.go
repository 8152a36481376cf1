package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
)

// RawMaterialRepository defines the interface for raw material persistence
type RawMaterialRepository interface {
	// FindByID finds a raw material by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*RawMaterial, error)

	// FindByIDForUpdate finds a raw material and locks its row until the transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*RawMaterial, error)

	// FindByIDs finds multiple raw materials by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]RawMaterial, error)

	// FindByIDsForUpdate finds raw materials and locks their rows in id order
	FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]RawMaterial, error)

	// FindAll finds raw materials matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]RawMaterial, error)

	// FindActive finds every active raw material
	FindActive(ctx context.Context) ([]RawMaterial, error)

	// ExistsByCode checks whether a code is taken
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// Save creates or updates a raw material
	Save(ctx context.Context, material *RawMaterial) error

	// Delete deletes a raw material
	Delete(ctx context.Context, id uuid.UUID) error
}

// WarehouseRepository defines the interface for warehouse persistence
type WarehouseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	FindByCode(ctx context.Context, code string) (*Warehouse, error)
	FindAll(ctx context.Context) ([]Warehouse, error)
	Save(ctx context.Context, warehouse *Warehouse) error
}

// PurchaseRepository defines the interface for purchase events
type PurchaseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Purchase, error)

	// FindByMaterial returns purchases of a material dated before until (all when nil)
	FindByMaterial(ctx context.Context, materialID uuid.UUID, until *time.Time) ([]Purchase, error)

	// FindByMaterials returns purchases of several materials dated before until
	FindByMaterials(ctx context.Context, materialIDs []uuid.UUID, until *time.Time) ([]Purchase, error)

	Save(ctx context.Context, purchase *Purchase) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountByMaterial(ctx context.Context, materialID uuid.UUID) (int64, error)
}

// UsageRepository defines the interface for usage events
type UsageRepository interface {
	FindByMaterial(ctx context.Context, materialID uuid.UUID, until *time.Time) ([]Usage, error)
	FindByMaterials(ctx context.Context, materialIDs []uuid.UUID, until *time.Time) ([]Usage, error)
	FindByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]Usage, error)
	SaveBatch(ctx context.Context, usages []*Usage) error

	// DeleteByOrderItem removes every usage derived from an order item
	DeleteByOrderItem(ctx context.Context, orderItemID uuid.UUID) (int64, error)

	// DeleteByOrder removes every usage derived from an order
	DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error)

	CountByMaterial(ctx context.Context, materialID uuid.UUID) (int64, error)
}

// TransferRepository defines the interface for raw-material transfer events
type TransferRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
	FindByMaterial(ctx context.Context, materialID uuid.UUID, until *time.Time) ([]Transfer, error)
	FindByMaterials(ctx context.Context, materialIDs []uuid.UUID, until *time.Time) ([]Transfer, error)
	Save(ctx context.Context, transfer *Transfer) error
	SaveBatch(ctx context.Context, transfers []*Transfer) error
	CountByMaterial(ctx context.Context, materialID uuid.UUID) (int64, error)
}

// MinStockRepository defines the interface for per-warehouse thresholds
type MinStockRepository interface {
	// Find returns the override for (material, warehouse), or shared.ErrNotFound
	Find(ctx context.Context, materialID, warehouseID uuid.UUID) (*WarehouseMaterialMinStock, error)
	FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]WarehouseMaterialMinStock, error)
	Save(ctx context.Context, threshold *WarehouseMaterialMinStock) error
	DeleteByMaterial(ctx context.Context, materialID uuid.UUID) error
}

// MenuRecipeRepository defines the interface for menu-item recipes
type MenuRecipeRepository interface {
	FindByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]MenuItemMaterial, error)
	FindByMenuItems(ctx context.Context, menuItemIDs []uuid.UUID) ([]MenuItemMaterial, error)

	// ReplaceForMenuItem swaps the whole recipe of a menu item
	ReplaceForMenuItem(ctx context.Context, menuItemID uuid.UUID, lines []*MenuItemMaterial) error

	CountByMaterial(ctx context.Context, materialID uuid.UUID) (int64, error)
}

// PreProductionItemRepository defines the interface for intermediate goods
type PreProductionItemRepository interface {
	// FindByID loads the item with its recipe lines in order
	FindByID(ctx context.Context, id uuid.UUID) (*PreProductionItem, error)
	FindAll(ctx context.Context) ([]PreProductionItem, error)

	// Save creates or updates the item and replaces its recipe lines
	Save(ctx context.Context, item *PreProductionItem) error

	// Delete removes the item, its recipe lines and its stock rows; history rows stay
	Delete(ctx context.Context, id uuid.UUID) error

	// CountByMaterial counts recipe lines that use a raw material
	CountByMaterial(ctx context.Context, materialID uuid.UUID) (int64, error)
}

// PreProductionStockRepository defines the interface for cached intermediate-good balances
type PreProductionStockRepository interface {
	// Find returns the stock row for (item, warehouse), or shared.ErrNotFound
	Find(ctx context.Context, itemID, warehouseID uuid.UUID) (*PreProductionStock, error)

	// FindForUpdate is Find with a row lock held until the transaction ends
	FindForUpdate(ctx context.Context, itemID, warehouseID uuid.UUID) (*PreProductionStock, error)

	FindByItem(ctx context.Context, itemID uuid.UUID) ([]PreProductionStock, error)
	Save(ctx context.Context, stock *PreProductionStock) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// PreProductionHistoryRepository defines the interface for production and transfer history
type PreProductionHistoryRepository interface {
	SaveProduction(ctx context.Context, record *PreProductionProduction) error
	SaveTransfer(ctx context.Context, record *PreProductionTransfer) error
	FindProductionsByItem(ctx context.Context, itemID uuid.UUID) ([]PreProductionProduction, error)
	FindTransfersByItem(ctx context.Context, itemID uuid.UUID) ([]PreProductionTransfer, error)
}
