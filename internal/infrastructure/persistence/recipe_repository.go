package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormMinStockRepository implements MinStockRepository using GORM
type GormMinStockRepository struct {
	db *gorm.DB
}

// NewGormMinStockRepository creates a new GormMinStockRepository
func NewGormMinStockRepository(db *gorm.DB) *GormMinStockRepository {
	return &GormMinStockRepository{db: db}
}

// Find returns the override for (material, warehouse)
func (r *GormMinStockRepository) Find(ctx context.Context, materialID, warehouseID uuid.UUID) (*inventory.WarehouseMaterialMinStock, error) {
	var model models.MinStockModel
	if err := r.db.WithContext(ctx).
		Where("raw_material_id = ? AND warehouse_id = ?", materialID, warehouseID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByWarehouse returns every override of a warehouse
func (r *GormMinStockRepository) FindByWarehouse(ctx context.Context, warehouseID uuid.UUID) ([]inventory.WarehouseMaterialMinStock, error) {
	var rows []models.MinStockModel
	if err := r.db.WithContext(ctx).Where("warehouse_id = ?", warehouseID).Find(&rows).Error; err != nil {
		return nil, err
	}
	thresholds := make([]inventory.WarehouseMaterialMinStock, len(rows))
	for i := range rows {
		thresholds[i] = *rows[i].ToDomain()
	}
	return thresholds, nil
}

// Save creates or updates an override
func (r *GormMinStockRepository) Save(ctx context.Context, threshold *inventory.WarehouseMaterialMinStock) error {
	model := &models.MinStockModel{}
	model.FromDomain(threshold)
	return r.db.WithContext(ctx).Save(model).Error
}

// DeleteByMaterial removes every override of a material
func (r *GormMinStockRepository) DeleteByMaterial(ctx context.Context, materialID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.MinStockModel{}, "raw_material_id = ?", materialID).Error
}

// GormMenuRecipeRepository implements MenuRecipeRepository using GORM
type GormMenuRecipeRepository struct {
	db *gorm.DB
}

// NewGormMenuRecipeRepository creates a new GormMenuRecipeRepository
func NewGormMenuRecipeRepository(db *gorm.DB) *GormMenuRecipeRepository {
	return &GormMenuRecipeRepository{db: db}
}

// FindByMenuItem returns the recipe lines of a menu item
func (r *GormMenuRecipeRepository) FindByMenuItem(ctx context.Context, menuItemID uuid.UUID) ([]inventory.MenuItemMaterial, error) {
	return r.FindByMenuItems(ctx, []uuid.UUID{menuItemID})
}

// FindByMenuItems returns the recipe lines of several menu items
func (r *GormMenuRecipeRepository) FindByMenuItems(ctx context.Context, menuItemIDs []uuid.UUID) ([]inventory.MenuItemMaterial, error) {
	if len(menuItemIDs) == 0 {
		return []inventory.MenuItemMaterial{}, nil
	}
	var rows []models.MenuItemMaterialModel
	if err := r.db.WithContext(ctx).
		Where("menu_item_id IN ?", menuItemIDs).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	lines := make([]inventory.MenuItemMaterial, len(rows))
	for i := range rows {
		lines[i] = *rows[i].ToDomain()
	}
	return lines, nil
}

// ReplaceForMenuItem deletes the current recipe and inserts the given lines
func (r *GormMenuRecipeRepository) ReplaceForMenuItem(ctx context.Context, menuItemID uuid.UUID, lines []*inventory.MenuItemMaterial) error {
	db := r.db.WithContext(ctx)
	if err := db.Delete(&models.MenuItemMaterialModel{}, "menu_item_id = ?", menuItemID).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	rows := make([]*models.MenuItemMaterialModel, len(lines))
	for i, l := range lines {
		rows[i] = &models.MenuItemMaterialModel{}
		rows[i].FromDomain(l)
	}
	return db.Create(&rows).Error
}

// CountByMaterial counts recipe lines that use a raw material
func (r *GormMenuRecipeRepository) CountByMaterial(ctx context.Context, materialID uuid.UUID) (int64, error) {
	return countWhere(ctx, r.db, &models.MenuItemMaterialModel{}, "raw_material_id = ?", materialID)
}

// Ensure the repositories implement their interfaces
var (
	_ inventory.MinStockRepository   = (*GormMinStockRepository)(nil)
	_ inventory.MenuRecipeRepository = (*GormMenuRecipeRepository)(nil)
)
