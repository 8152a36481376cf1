package persistence

import (
	"context"

	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos appinv.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		return fn(repos)
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) RawMaterials() inventory.RawMaterialRepository {
	return NewGormRawMaterialRepository(r.tx)
}

func (r *gormTransactionalRepositories) Warehouses() inventory.WarehouseRepository {
	return NewGormWarehouseRepository(r.tx)
}

func (r *gormTransactionalRepositories) Purchases() inventory.PurchaseRepository {
	return NewGormPurchaseRepository(r.tx)
}

func (r *gormTransactionalRepositories) Usages() inventory.UsageRepository {
	return NewGormUsageRepository(r.tx)
}

func (r *gormTransactionalRepositories) Transfers() inventory.TransferRepository {
	return NewGormTransferRepository(r.tx)
}

func (r *gormTransactionalRepositories) MinStocks() inventory.MinStockRepository {
	return NewGormMinStockRepository(r.tx)
}

func (r *gormTransactionalRepositories) MenuRecipes() inventory.MenuRecipeRepository {
	return NewGormMenuRecipeRepository(r.tx)
}

func (r *gormTransactionalRepositories) Items() inventory.PreProductionItemRepository {
	return NewGormPreProductionItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) ItemStocks() inventory.PreProductionStockRepository {
	return NewGormPreProductionStockRepository(r.tx)
}

func (r *gormTransactionalRepositories) ItemHistory() inventory.PreProductionHistoryRepository {
	return NewGormPreProductionHistoryRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ appinv.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ appinv.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
