package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// PreProductionItemModel is the persistence model for the PreProductionItem aggregate root.
type PreProductionItemModel struct {
	AggregateModel
	LifecycleColumns
	Name string `gorm:"type:varchar(200);not null"`
	Unit string `gorm:"type:varchar(20);not null"`
	// Associations
	Materials []PreProductionItemMaterialModel `gorm:"foreignKey:ItemID;references:ID"`
}

// TableName returns the table name for GORM
func (PreProductionItemModel) TableName() string {
	return "pre_production_items"
}

// ToDomain converts the persistence model to a domain PreProductionItem.
func (m *PreProductionItemModel) ToDomain() *inventory.PreProductionItem {
	item := &inventory.PreProductionItem{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		Unit:              m.Unit,
		Lifecycle:         m.LifecycleColumns.toDomain(),
		Materials:         make([]inventory.PreProductionItemMaterial, len(m.Materials)),
	}
	for i, line := range m.Materials {
		item.Materials[i] = *line.ToDomain()
	}
	return item
}

// FromDomain populates the persistence model from a domain PreProductionItem.
// Recipe lines are mapped separately so saving the item never cascades implicitly.
func (m *PreProductionItemModel) FromDomain(i *inventory.PreProductionItem) {
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	m.LifecycleColumns = lifecycleColumns(i.Lifecycle)
	m.Name = i.Name
	m.Unit = i.Unit
}

// PreProductionItemMaterialModel is one recipe line of an intermediate good.
type PreProductionItemMaterialModel struct {
	BaseModel
	ItemID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	RawMaterialID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit          string          `gorm:"type:varchar(20)"`
	Position      int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (PreProductionItemMaterialModel) TableName() string {
	return "pre_production_item_materials"
}

// ToDomain converts the persistence model to a domain recipe line.
func (m *PreProductionItemMaterialModel) ToDomain() *inventory.PreProductionItemMaterial {
	return &inventory.PreProductionItemMaterial{
		BaseEntity:    m.BaseModel.ToDomain(),
		ItemID:        m.ItemID,
		RawMaterialID: m.RawMaterialID,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		Position:      m.Position,
	}
}

// PreProductionItemMaterialModelFromDomain creates a persistence model from a recipe line.
func PreProductionItemMaterialModelFromDomain(l *inventory.PreProductionItemMaterial) *PreProductionItemMaterialModel {
	m := &PreProductionItemMaterialModel{
		ItemID:        l.ItemID,
		RawMaterialID: l.RawMaterialID,
		Quantity:      l.Quantity,
		Unit:          l.Unit,
		Position:      l.Position,
	}
	m.FromDomainBaseEntity(l.BaseEntity)
	return m
}

// PreProductionStockModel is the cached balance of an item in one warehouse.
type PreProductionStockModel struct {
	BaseModel
	ItemID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pre_production_stock_item_warehouse,priority:1"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_pre_production_stock_item_warehouse,priority:2"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (PreProductionStockModel) TableName() string {
	return "pre_production_stocks"
}

// ToDomain converts the persistence model to a domain PreProductionStock.
func (m *PreProductionStockModel) ToDomain() *inventory.PreProductionStock {
	return &inventory.PreProductionStock{
		BaseEntity:  m.BaseModel.ToDomain(),
		ItemID:      m.ItemID,
		WarehouseID: m.WarehouseID,
		Quantity:    m.Quantity,
	}
}

// FromDomain populates the persistence model from a domain PreProductionStock.
func (m *PreProductionStockModel) FromDomain(s *inventory.PreProductionStock) {
	m.FromDomainBaseEntity(s.BaseEntity)
	m.ItemID = s.ItemID
	m.WarehouseID = s.WarehouseID
	m.Quantity = s.Quantity
}

// PreProductionProductionModel is a production history row. Rows outlive their item.
type PreProductionProductionModel struct {
	BaseModel
	ItemID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	SourceWarehouseID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ProductionDate    time.Time       `gorm:"not null;index"`
	Note              string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PreProductionProductionModel) TableName() string {
	return "pre_production_productions"
}

// ToDomain converts the persistence model to a domain production record.
func (m *PreProductionProductionModel) ToDomain() *inventory.PreProductionProduction {
	return &inventory.PreProductionProduction{
		BaseEntity:        m.BaseModel.ToDomain(),
		ItemID:            m.ItemID,
		SourceWarehouseID: m.SourceWarehouseID,
		Quantity:          m.Quantity,
		ProductionDate:    m.ProductionDate,
		Note:              m.Note,
	}
}

// FromDomain populates the persistence model from a domain production record.
func (m *PreProductionProductionModel) FromDomain(p *inventory.PreProductionProduction) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.ItemID = p.ItemID
	m.SourceWarehouseID = p.SourceWarehouseID
	m.Quantity = p.Quantity
	m.ProductionDate = p.ProductionDate
	m.Note = p.Note
}

// PreProductionTransferModel is a transfer history row of an intermediate good.
type PreProductionTransferModel struct {
	BaseModel
	ItemID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	FromWarehouseID uuid.UUID       `gorm:"type:uuid;not null"`
	ToWarehouseID   uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TransferDate    time.Time       `gorm:"not null;index"`
	Note            string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PreProductionTransferModel) TableName() string {
	return "pre_production_transfers"
}

// ToDomain converts the persistence model to a domain item transfer.
func (m *PreProductionTransferModel) ToDomain() *inventory.PreProductionTransfer {
	return &inventory.PreProductionTransfer{
		BaseEntity:      m.BaseModel.ToDomain(),
		ItemID:          m.ItemID,
		FromWarehouseID: m.FromWarehouseID,
		ToWarehouseID:   m.ToWarehouseID,
		Quantity:        m.Quantity,
		TransferDate:    m.TransferDate,
		Note:            m.Note,
	}
}

// FromDomain populates the persistence model from a domain item transfer.
func (m *PreProductionTransferModel) FromDomain(t *inventory.PreProductionTransfer) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.ItemID = t.ItemID
	m.FromWarehouseID = t.FromWarehouseID
	m.ToWarehouseID = t.ToWarehouseID
	m.Quantity = t.Quantity
	m.TransferDate = t.TransferDate
	m.Note = t.Note
}

// AllModels lists every table of a tenant store in creation order.
func AllModels() []any {
	return []any{
		&WarehouseModel{},
		&RawMaterialModel{},
		&PurchaseModel{},
		&UsageModel{},
		&TransferModel{},
		&MinStockModel{},
		&MenuItemMaterialModel{},
		&PreProductionItemModel{},
		&PreProductionItemMaterialModel{},
		&PreProductionStockModel{},
		&PreProductionProductionModel{},
		&PreProductionTransferModel{},
	}
}
