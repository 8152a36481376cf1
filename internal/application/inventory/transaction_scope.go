package inventory

import (
	"context"

	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
)

// TransactionScope provides transactional access to the ledger repositories of one tenant store.
// When a function is executed within a transaction scope, all repository operations
// will be part of the same database transaction and will be committed or rolled back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all ledger repositories within a transaction.
// All repositories returned share the same underlying database transaction.
//
// Aggregate boundary notes:
//   - Purchases, usages and transfers are append-mostly ledger events keyed by raw material.
//     Balances are never stored for raw materials; they are replayed from these rows.
//   - PreProductionStock is the only cached balance. It is written together with the
//     production/transfer history rows in the same transaction.
type TransactionalRepositories interface {
	RawMaterials() inventory.RawMaterialRepository
	Warehouses() inventory.WarehouseRepository
	Purchases() inventory.PurchaseRepository
	Usages() inventory.UsageRepository
	Transfers() inventory.TransferRepository
	MinStocks() inventory.MinStockRepository
	MenuRecipes() inventory.MenuRecipeRepository
	Items() inventory.PreProductionItemRepository
	ItemStocks() inventory.PreProductionStockRepository
	ItemHistory() inventory.PreProductionHistoryRepository
}

// Repositories is a plain bundle of repositories. It satisfies TransactionalRepositories.
type Repositories struct {
	RawMaterialRepo inventory.RawMaterialRepository
	WarehouseRepo   inventory.WarehouseRepository
	PurchaseRepo    inventory.PurchaseRepository
	UsageRepo       inventory.UsageRepository
	TransferRepo    inventory.TransferRepository
	MinStockRepo    inventory.MinStockRepository
	MenuRecipeRepo  inventory.MenuRecipeRepository
	ItemRepo        inventory.PreProductionItemRepository
	ItemStockRepo   inventory.PreProductionStockRepository
	ItemHistoryRepo inventory.PreProductionHistoryRepository
}

func (r *Repositories) RawMaterials() inventory.RawMaterialRepository { return r.RawMaterialRepo }
func (r *Repositories) Warehouses() inventory.WarehouseRepository { return r.WarehouseRepo }
func (r *Repositories) Purchases() inventory.PurchaseRepository { return r.PurchaseRepo }
func (r *Repositories) Usages() inventory.UsageRepository { return r.UsageRepo }
func (r *Repositories) Transfers() inventory.TransferRepository { return r.TransferRepo }
func (r *Repositories) MinStocks() inventory.MinStockRepository { return r.MinStockRepo }
func (r *Repositories) MenuRecipes() inventory.MenuRecipeRepository { return r.MenuRecipeRepo }
func (r *Repositories) Items() inventory.PreProductionItemRepository { return r.ItemRepo }
func (r *Repositories) ItemStocks() inventory.PreProductionStockRepository {
	return r.ItemStockRepo
}
func (r *Repositories) ItemHistory() inventory.PreProductionHistoryRepository {
	return r.ItemHistoryRepo
}

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// This is useful for testing with mocked repositories.
type NoOpTransactionScope struct {
	repos *Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over the given repositories.
func NewNoOpTransactionScope(repos *Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

// Ensure NoOpTransactionScope and Repositories implement the interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*Repositories)(nil)
