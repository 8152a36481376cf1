package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPreProductionItemRepository implements PreProductionItemRepository using GORM
type GormPreProductionItemRepository struct {
	db *gorm.DB
}

// NewGormPreProductionItemRepository creates a new GormPreProductionItemRepository
func NewGormPreProductionItemRepository(db *gorm.DB) *GormPreProductionItemRepository {
	return &GormPreProductionItemRepository{db: db}
}

func orderedLines(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// FindByID loads an item with its recipe lines in order
func (r *GormPreProductionItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.PreProductionItem, error) {
	var model models.PreProductionItemModel
	if err := r.db.WithContext(ctx).
		Preload("Materials", orderedLines).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll lists items with their recipes ordered by name
func (r *GormPreProductionItemRepository) FindAll(ctx context.Context) ([]inventory.PreProductionItem, error) {
	var rows []models.PreProductionItemModel
	if err := r.db.WithContext(ctx).
		Preload("Materials", orderedLines).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]inventory.PreProductionItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// Save creates or updates the item and replaces its recipe lines
func (r *GormPreProductionItemRepository) Save(ctx context.Context, item *inventory.PreProductionItem) error {
	db := r.db.WithContext(ctx)
	model := &models.PreProductionItemModel{}
	model.FromDomain(item)
	if err := db.Omit(clause.Associations).Save(model).Error; err != nil {
		return err
	}
	if err := db.Delete(&models.PreProductionItemMaterialModel{}, "item_id = ?", item.ID).Error; err != nil {
		return err
	}
	if len(item.Materials) == 0 {
		return nil
	}
	lines := make([]*models.PreProductionItemMaterialModel, len(item.Materials))
	for i := range item.Materials {
		lines[i] = models.PreProductionItemMaterialModelFromDomain(&item.Materials[i])
	}
	return db.Create(&lines).Error
}

// Delete removes the item with its recipe lines and stock rows. History rows stay.
func (r *GormPreProductionItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Delete(&models.PreProductionItemMaterialModel{}, "item_id = ?", id).Error; err != nil {
		return err
	}
	if err := db.Delete(&models.PreProductionStockModel{}, "item_id = ?", id).Error; err != nil {
		return err
	}
	result := db.Delete(&models.PreProductionItemModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByMaterial counts recipe lines that use a raw material
func (r *GormPreProductionItemRepository) CountByMaterial(ctx context.Context, materialID uuid.UUID) (int64, error) {
	return countWhere(ctx, r.db, &models.PreProductionItemMaterialModel{}, "raw_material_id = ?", materialID)
}

// GormPreProductionStockRepository implements PreProductionStockRepository using GORM
type GormPreProductionStockRepository struct {
	db *gorm.DB
}

// NewGormPreProductionStockRepository creates a new GormPreProductionStockRepository
func NewGormPreProductionStockRepository(db *gorm.DB) *GormPreProductionStockRepository {
	return &GormPreProductionStockRepository{db: db}
}

// Find returns the stock row for (item, warehouse)
func (r *GormPreProductionStockRepository) Find(ctx context.Context, itemID, warehouseID uuid.UUID) (*inventory.PreProductionStock, error) {
	return r.find(r.db.WithContext(ctx), itemID, warehouseID)
}

// FindForUpdate returns the stock row with a row lock held until the transaction ends
func (r *GormPreProductionStockRepository) FindForUpdate(ctx context.Context, itemID, warehouseID uuid.UUID) (*inventory.PreProductionStock, error) {
	return r.find(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), itemID, warehouseID)
}

func (r *GormPreProductionStockRepository) find(db *gorm.DB, itemID, warehouseID uuid.UUID) (*inventory.PreProductionStock, error) {
	var model models.PreProductionStockModel
	if err := db.Where("item_id = ? AND warehouse_id = ?", itemID, warehouseID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByItem returns every stock row of an item
func (r *GormPreProductionStockRepository) FindByItem(ctx context.Context, itemID uuid.UUID) ([]inventory.PreProductionStock, error) {
	var rows []models.PreProductionStockModel
	if err := r.db.WithContext(ctx).Where("item_id = ?", itemID).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	stocks := make([]inventory.PreProductionStock, len(rows))
	for i := range rows {
		stocks[i] = *rows[i].ToDomain()
	}
	return stocks, nil
}

// Save creates or updates a stock row
func (r *GormPreProductionStockRepository) Save(ctx context.Context, stock *inventory.PreProductionStock) error {
	model := &models.PreProductionStockModel{}
	model.FromDomain(stock)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete removes a stock row
func (r *GormPreProductionStockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.PreProductionStockModel{}, "id = ?", id).Error
}

// GormPreProductionHistoryRepository implements PreProductionHistoryRepository using GORM
type GormPreProductionHistoryRepository struct {
	db *gorm.DB
}

// NewGormPreProductionHistoryRepository creates a new GormPreProductionHistoryRepository
func NewGormPreProductionHistoryRepository(db *gorm.DB) *GormPreProductionHistoryRepository {
	return &GormPreProductionHistoryRepository{db: db}
}

// SaveProduction appends a production history row
func (r *GormPreProductionHistoryRepository) SaveProduction(ctx context.Context, record *inventory.PreProductionProduction) error {
	model := &models.PreProductionProductionModel{}
	model.FromDomain(record)
	model.ProductionDate = utc(model.ProductionDate)
	return r.db.WithContext(ctx).Create(model).Error
}

// SaveTransfer appends a transfer history row
func (r *GormPreProductionHistoryRepository) SaveTransfer(ctx context.Context, record *inventory.PreProductionTransfer) error {
	model := &models.PreProductionTransferModel{}
	model.FromDomain(record)
	model.TransferDate = utc(model.TransferDate)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindProductionsByItem returns production history of an item, newest first
func (r *GormPreProductionHistoryRepository) FindProductionsByItem(ctx context.Context, itemID uuid.UUID) ([]inventory.PreProductionProduction, error) {
	var rows []models.PreProductionProductionModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("production_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]inventory.PreProductionProduction, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// FindTransfersByItem returns transfer history of an item, newest first
func (r *GormPreProductionHistoryRepository) FindTransfersByItem(ctx context.Context, itemID uuid.UUID) ([]inventory.PreProductionTransfer, error) {
	var rows []models.PreProductionTransferModel
	if err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("transfer_date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	records := make([]inventory.PreProductionTransfer, len(rows))
	for i := range rows {
		records[i] = *rows[i].ToDomain()
	}
	return records, nil
}

// Ensure the pre-production repositories implement their interfaces
var (
	_ inventory.PreProductionItemRepository    = (*GormPreProductionItemRepository)(nil)
	_ inventory.PreProductionStockRepository   = (*GormPreProductionStockRepository)(nil)
	_ inventory.PreProductionHistoryRepository = (*GormPreProductionHistoryRepository)(nil)
)
