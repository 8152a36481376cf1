package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRawMaterialRepository implements RawMaterialRepository using GORM
type GormRawMaterialRepository struct {
	db *gorm.DB
}

// NewGormRawMaterialRepository creates a new GormRawMaterialRepository
func NewGormRawMaterialRepository(db *gorm.DB) *GormRawMaterialRepository {
	return &GormRawMaterialRepository{db: db}
}

// FindByID finds a raw material by its ID
func (r *GormRawMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.RawMaterial, error) {
	return r.first(r.db.WithContext(ctx), id)
}

// FindByIDForUpdate finds a raw material and holds a row lock until the transaction ends.
// SQLite has no row locks; the clause is dropped by its dialector.
func (r *GormRawMaterialRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*inventory.RawMaterial, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (r *GormRawMaterialRepository) first(db *gorm.DB, id uuid.UUID) (*inventory.RawMaterial, error) {
	var model models.RawMaterialModel
	if err := db.Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByIDs finds multiple raw materials by their IDs
func (r *GormRawMaterialRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]inventory.RawMaterial, error) {
	if len(ids) == 0 {
		return []inventory.RawMaterial{}, nil
	}
	var rows []models.RawMaterialModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rawMaterialsToDomain(rows), nil
}

// FindByIDsForUpdate locks the rows of several raw materials, taken in id order
func (r *GormRawMaterialRepository) FindByIDsForUpdate(ctx context.Context, ids []uuid.UUID) ([]inventory.RawMaterial, error) {
	if len(ids) == 0 {
		return []inventory.RawMaterial{}, nil
	}
	var rows []models.RawMaterialModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Order("id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rawMaterialsToDomain(rows), nil
}

// FindAll finds raw materials matching the filter
func (r *GormRawMaterialRepository) FindAll(ctx context.Context, filter shared.Filter) ([]inventory.RawMaterial, error) {
	var rows []models.RawMaterialModel
	if err := r.applyFilter(r.db.WithContext(ctx).Model(&models.RawMaterialModel{}), filter).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rawMaterialsToDomain(rows), nil
}

// FindActive finds every active raw material ordered by name
func (r *GormRawMaterialRepository) FindActive(ctx context.Context) ([]inventory.RawMaterial, error) {
	var rows []models.RawMaterialModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(inventory.LifecycleActive)).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rawMaterialsToDomain(rows), nil
}

// ExistsByCode checks whether a code is taken
func (r *GormRawMaterialRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.RawMaterialModel{}).
		Where("code = ?", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a raw material
func (r *GormRawMaterialRepository) Save(ctx context.Context, material *inventory.RawMaterial) error {
	return r.db.WithContext(ctx).Save(models.RawMaterialModelFromDomain(material)).Error
}

// Delete deletes a raw material
func (r *GormRawMaterialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.RawMaterialModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// applyFilter applies search, lifecycle, ordering and pagination
func (r *GormRawMaterialRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	if include, _ := filter.Filters["include_inactive"].(bool); !include {
		query = query.Where("status = ?", string(inventory.LifecycleActive))
	}

	query = query.Order(OrderClause(filter.OrderBy, filter.OrderDir, RawMaterialSortFields, "name"))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}

func rawMaterialsToDomain(rows []models.RawMaterialModel) []inventory.RawMaterial {
	materials := make([]inventory.RawMaterial, len(rows))
	for i := range rows {
		materials[i] = *rows[i].ToDomain()
	}
	return materials
}

// Ensure GormRawMaterialRepository implements RawMaterialRepository
var _ inventory.RawMaterialRepository = (*GormRawMaterialRepository)(nil)
