package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// Event dates are stored in UTC so that range comparisons hold on SQLite, where
// timestamps are compared as text.
func utc(t time.Time) time.Time {
	return t.UTC()
}

// beforeUntil restricts a ledger query to rows dated strictly before until
func beforeUntil(query *gorm.DB, column string, until *time.Time) *gorm.DB {
	if until == nil {
		return query
	}
	return query.Where(column+" < ?", utc(*until))
}

// GormPurchaseRepository implements PurchaseRepository using GORM
type GormPurchaseRepository struct {
	db *gorm.DB
}

// NewGormPurchaseRepository creates a new GormPurchaseRepository
func NewGormPurchaseRepository(db *gorm.DB) *GormPurchaseRepository {
	return &GormPurchaseRepository{db: db}
}

// FindByID finds a purchase by ID
func (r *GormPurchaseRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Purchase, error) {
	var model models.PurchaseModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMaterial returns purchases of a material dated before until
func (r *GormPurchaseRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, until *time.Time) ([]inventory.Purchase, error) {
	return r.FindByMaterials(ctx, []uuid.UUID{materialID}, until)
}

// FindByMaterials returns purchases of several materials dated before until
func (r *GormPurchaseRepository) FindByMaterials(ctx context.Context, materialIDs []uuid.UUID, until *time.Time) ([]inventory.Purchase, error) {
	if len(materialIDs) == 0 {
		return []inventory.Purchase{}, nil
	}
	var rows []models.PurchaseModel
	query := r.db.WithContext(ctx).Where("raw_material_id IN ?", materialIDs)
	if err := beforeUntil(query, "purchase_date", until).
		Order("purchase_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	purchases := make([]inventory.Purchase, len(rows))
	for i := range rows {
		purchases[i] = *rows[i].ToDomain()
	}
	return purchases, nil
}

// Save creates or updates a purchase
func (r *GormPurchaseRepository) Save(ctx context.Context, purchase *inventory.Purchase) error {
	model := models.PurchaseModelFromDomain(purchase)
	model.PurchaseDate = utc(model.PurchaseDate)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a purchase
func (r *GormPurchaseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.PurchaseModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// CountByMaterial counts purchases of a material
func (r *GormPurchaseRepository) CountByMaterial(ctx context.Context, materialID uuid.UUID) (int64, error) {
	return countWhere(ctx, r.db, &models.PurchaseModel{}, "raw_material_id = ?", materialID)
}

// GormUsageRepository implements UsageRepository using GORM
type GormUsageRepository struct {
	db *gorm.DB
}

// NewGormUsageRepository creates a new GormUsageRepository
func NewGormUsageRepository(db *gorm.DB) *GormUsageRepository {
	return &GormUsageRepository{db: db}
}

// FindByMaterial returns usages of a material dated before until
func (r *GormUsageRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, until *time.Time) ([]inventory.Usage, error) {
	return r.FindByMaterials(ctx, []uuid.UUID{materialID}, until)
}

// FindByMaterials returns usages of several materials dated before until
func (r *GormUsageRepository) FindByMaterials(ctx context.Context, materialIDs []uuid.UUID, until *time.Time) ([]inventory.Usage, error) {
	if len(materialIDs) == 0 {
		return []inventory.Usage{}, nil
	}
	var rows []models.UsageModel
	query := r.db.WithContext(ctx).Where("raw_material_id IN ?", materialIDs)
	if err := beforeUntil(query, "used_at", until).
		Order("used_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return usagesToDomain(rows), nil
}

// FindByOrderItem returns the usages derived from an order item
func (r *GormUsageRepository) FindByOrderItem(ctx context.Context, orderItemID uuid.UUID) ([]inventory.Usage, error) {
	var rows []models.UsageModel
	if err := r.db.WithContext(ctx).
		Where("order_item_id = ?", orderItemID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return usagesToDomain(rows), nil
}

// SaveBatch inserts usages in one statement
func (r *GormUsageRepository) SaveBatch(ctx context.Context, usages []*inventory.Usage) error {
	if len(usages) == 0 {
		return nil
	}
	rows := make([]*models.UsageModel, len(usages))
	for i, u := range usages {
		rows[i] = models.UsageModelFromDomain(u)
		rows[i].UsedAt = utc(rows[i].UsedAt)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// DeleteByOrderItem removes every usage derived from an order item
func (r *GormUsageRepository) DeleteByOrderItem(ctx context.Context, orderItemID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.UsageModel{}, "order_item_id = ?", orderItemID)
	return result.RowsAffected, result.Error
}

// DeleteByOrder removes every usage derived from an order
func (r *GormUsageRepository) DeleteByOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.UsageModel{}, "order_id = ?", orderID)
	return result.RowsAffected, result.Error
}

// CountByMaterial counts usages of a material
func (r *GormUsageRepository) CountByMaterial(ctx context.Context, materialID uuid.UUID) (int64, error) {
	return countWhere(ctx, r.db, &models.UsageModel{}, "raw_material_id = ?", materialID)
}

func usagesToDomain(rows []models.UsageModel) []inventory.Usage {
	usages := make([]inventory.Usage, len(rows))
	for i := range rows {
		usages[i] = *rows[i].ToDomain()
	}
	return usages
}

// GormTransferRepository implements TransferRepository using GORM
type GormTransferRepository struct {
	db *gorm.DB
}

// NewGormTransferRepository creates a new GormTransferRepository
func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

// FindByID finds a transfer by ID
func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Transfer, error) {
	var model models.TransferModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMaterial returns transfers of a material dated before until
func (r *GormTransferRepository) FindByMaterial(ctx context.Context, materialID uuid.UUID, until *time.Time) ([]inventory.Transfer, error) {
	return r.FindByMaterials(ctx, []uuid.UUID{materialID}, until)
}

// FindByMaterials returns transfers of several materials dated before until
func (r *GormTransferRepository) FindByMaterials(ctx context.Context, materialIDs []uuid.UUID, until *time.Time) ([]inventory.Transfer, error) {
	if len(materialIDs) == 0 {
		return []inventory.Transfer{}, nil
	}
	var rows []models.TransferModel
	query := r.db.WithContext(ctx).Where("raw_material_id IN ?", materialIDs)
	if err := beforeUntil(query, "transfer_date", until).
		Order("transfer_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	transfers := make([]inventory.Transfer, len(rows))
	for i := range rows {
		transfers[i] = *rows[i].ToDomain()
	}
	return transfers, nil
}

// Save creates or updates a transfer
func (r *GormTransferRepository) Save(ctx context.Context, transfer *inventory.Transfer) error {
	model := models.TransferModelFromDomain(transfer)
	model.TransferDate = utc(model.TransferDate)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveBatch inserts transfers in one statement
func (r *GormTransferRepository) SaveBatch(ctx context.Context, transfers []*inventory.Transfer) error {
	if len(transfers) == 0 {
		return nil
	}
	rows := make([]*models.TransferModel, len(transfers))
	for i, t := range transfers {
		rows[i] = models.TransferModelFromDomain(t)
		rows[i].TransferDate = utc(rows[i].TransferDate)
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// CountByMaterial counts transfers of a material
func (r *GormTransferRepository) CountByMaterial(ctx context.Context, materialID uuid.UUID) (int64, error) {
	return countWhere(ctx, r.db, &models.TransferModel{}, "raw_material_id = ?", materialID)
}

func countWhere(ctx context.Context, db *gorm.DB, model any, query string, args ...any) (int64, error) {
	var count int64
	if err := db.WithContext(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure the ledger repositories implement their interfaces
var (
	_ inventory.PurchaseRepository = (*GormPurchaseRepository)(nil)
	_ inventory.UsageRepository    = (*GormUsageRepository)(nil)
	_ inventory.TransferRepository = (*GormTransferRepository)(nil)
)
