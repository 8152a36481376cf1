package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

func lifecycleColumns(l inventory.Lifecycle) LifecycleColumns {
	if l == nil {
		return LifecycleColumns{Status: string(inventory.LifecycleActive)}
	}
	cols := LifecycleColumns{Status: string(l.Status())}
	if d, ok := l.(inventory.Deactivated); ok {
		at := d.At
		cols.DeactivatedAt = &at
		cols.DeactivationReason = d.Reason
	}
	return cols
}

func (c LifecycleColumns) toDomain() inventory.Lifecycle {
	return inventory.LifecycleFromStatus(inventory.LifecycleStatus(c.Status), c.DeactivatedAt, c.DeactivationReason)
}

// RawMaterialModel is the persistence model for the RawMaterial aggregate root.
type RawMaterialModel struct {
	AggregateModel
	LifecycleColumns
	Name        string          `gorm:"type:varchar(200);not null;index"`
	Code        *string         `gorm:"type:varchar(50);uniqueIndex"`
	DefaultUnit string          `gorm:"type:varchar(20);not null"`
	MinStock    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (RawMaterialModel) TableName() string {
	return "raw_materials"
}

// ToDomain converts the persistence model to a domain RawMaterial.
func (m *RawMaterialModel) ToDomain() *inventory.RawMaterial {
	material := &inventory.RawMaterial{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Name:              m.Name,
		DefaultUnit:       m.DefaultUnit,
		MinStock:          m.MinStock,
		Lifecycle:         m.LifecycleColumns.toDomain(),
	}
	if m.Code != nil {
		material.Code = *m.Code
	}
	return material
}

// FromDomain populates the persistence model from a domain RawMaterial.
func (m *RawMaterialModel) FromDomain(r *inventory.RawMaterial) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.LifecycleColumns = lifecycleColumns(r.Lifecycle)
	m.Name = r.Name
	m.Code = nil
	if r.Code != "" {
		code := r.Code
		m.Code = &code
	}
	m.DefaultUnit = r.DefaultUnit
	m.MinStock = r.MinStock
}

// RawMaterialModelFromDomain creates a new persistence model from a domain RawMaterial.
func RawMaterialModelFromDomain(r *inventory.RawMaterial) *RawMaterialModel {
	m := &RawMaterialModel{}
	m.FromDomain(r)
	return m
}

// WarehouseModel is the persistence model for the Warehouse entity.
type WarehouseModel struct {
	BaseModel
	LifecycleColumns
	Code string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (WarehouseModel) TableName() string {
	return "warehouses"
}

// ToDomain converts the persistence model to a domain Warehouse.
func (m *WarehouseModel) ToDomain() *inventory.Warehouse {
	return &inventory.Warehouse{
		BaseEntity: m.BaseModel.ToDomain(),
		Code:       m.Code,
		Name:       m.Name,
		Lifecycle:  m.LifecycleColumns.toDomain(),
	}
}

// FromDomain populates the persistence model from a domain Warehouse.
func (m *WarehouseModel) FromDomain(w *inventory.Warehouse) {
	m.FromDomainBaseEntity(w.BaseEntity)
	m.LifecycleColumns = lifecycleColumns(w.Lifecycle)
	m.Code = w.Code
	m.Name = w.Name
}

// WarehouseModelFromDomain creates a new persistence model from a domain Warehouse.
func WarehouseModelFromDomain(w *inventory.Warehouse) *WarehouseModel {
	m := &WarehouseModel{}
	m.FromDomain(w)
	return m
}

// PurchaseModel is the persistence model for a purchase ledger row.
// The unit price is never stored.
type PurchaseModel struct {
	BaseModel
	RawMaterialID uuid.UUID       `gorm:"type:uuid;not null;index:idx_purchase_material_date,priority:1"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit          string          `gorm:"type:varchar(20);not null"`
	TotalPrice    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PurchaseDate  time.Time       `gorm:"not null;index:idx_purchase_material_date,priority:2"`
	VendorName    string          `gorm:"type:varchar(200)"`
	VendorPhone   string          `gorm:"type:varchar(50)"`
	Note          string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PurchaseModel) TableName() string {
	return "raw_material_purchases"
}

// ToDomain converts the persistence model to a domain Purchase.
func (m *PurchaseModel) ToDomain() *inventory.Purchase {
	return &inventory.Purchase{
		BaseEntity:    m.BaseModel.ToDomain(),
		RawMaterialID: m.RawMaterialID,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		TotalPrice:    m.TotalPrice,
		PurchaseDate:  m.PurchaseDate,
		VendorName:    m.VendorName,
		VendorPhone:   m.VendorPhone,
		Note:          m.Note,
	}
}

// FromDomain populates the persistence model from a domain Purchase.
func (m *PurchaseModel) FromDomain(p *inventory.Purchase) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.RawMaterialID = p.RawMaterialID
	m.Quantity = p.Quantity
	m.Unit = p.Unit
	m.TotalPrice = p.TotalPrice
	m.PurchaseDate = p.PurchaseDate
	m.VendorName = p.VendorName
	m.VendorPhone = p.VendorPhone
	m.Note = p.Note
}

// PurchaseModelFromDomain creates a new persistence model from a domain Purchase.
func PurchaseModelFromDomain(p *inventory.Purchase) *PurchaseModel {
	m := &PurchaseModel{}
	m.FromDomain(p)
	return m
}

// UsageModel is the persistence model for a usage ledger row derived from an order item.
type UsageModel struct {
	BaseModel
	RawMaterialID uuid.UUID       `gorm:"type:uuid;not null;index:idx_usage_material_date,priority:1"`
	OrderID       *uuid.UUID      `gorm:"type:uuid;index"`
	OrderItemID   *uuid.UUID      `gorm:"type:uuid;index"`
	MenuItemID    *uuid.UUID      `gorm:"type:uuid"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit          string          `gorm:"type:varchar(20);not null"`
	Note          string          `gorm:"type:text"`
	UsedAt        time.Time       `gorm:"not null;index:idx_usage_material_date,priority:2"`
}

// TableName returns the table name for GORM
func (UsageModel) TableName() string {
	return "raw_material_usages"
}

// ToDomain converts the persistence model to a domain Usage.
func (m *UsageModel) ToDomain() *inventory.Usage {
	return &inventory.Usage{
		BaseEntity:    m.BaseModel.ToDomain(),
		RawMaterialID: m.RawMaterialID,
		OrderID:       m.OrderID,
		OrderItemID:   m.OrderItemID,
		MenuItemID:    m.MenuItemID,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
		Note:          m.Note,
		UsedAt:        m.UsedAt,
	}
}

// FromDomain populates the persistence model from a domain Usage.
func (m *UsageModel) FromDomain(u *inventory.Usage) {
	m.FromDomainBaseEntity(u.BaseEntity)
	m.RawMaterialID = u.RawMaterialID
	m.OrderID = u.OrderID
	m.OrderItemID = u.OrderItemID
	m.MenuItemID = u.MenuItemID
	m.Quantity = u.Quantity
	m.Unit = u.Unit
	m.Note = u.Note
	m.UsedAt = u.UsedAt
}

// UsageModelFromDomain creates a new persistence model from a domain Usage.
func UsageModelFromDomain(u *inventory.Usage) *UsageModel {
	m := &UsageModel{}
	m.FromDomain(u)
	return m
}

// TransferModel is the persistence model for a raw-material transfer between warehouses.
// Either side may be null.
type TransferModel struct {
	BaseModel
	RawMaterialID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_transfer_material_date,priority:1"`
	FromWarehouseID *uuid.UUID      `gorm:"type:uuid;index"`
	ToWarehouseID   *uuid.UUID      `gorm:"type:uuid;index"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit            string          `gorm:"type:varchar(20);not null"`
	BaseQuantity    decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TransferDate    time.Time       `gorm:"not null;index:idx_transfer_material_date,priority:2"`
	Note            string          `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (TransferModel) TableName() string {
	return "warehouse_transfers"
}

// ToDomain converts the persistence model to a domain Transfer.
func (m *TransferModel) ToDomain() *inventory.Transfer {
	return &inventory.Transfer{
		BaseEntity:      m.BaseModel.ToDomain(),
		RawMaterialID:   m.RawMaterialID,
		FromWarehouseID: m.FromWarehouseID,
		ToWarehouseID:   m.ToWarehouseID,
		Quantity:        m.Quantity,
		Unit:            m.Unit,
		BaseQuantity:    m.BaseQuantity,
		TransferDate:    m.TransferDate,
		Note:            m.Note,
	}
}

// FromDomain populates the persistence model from a domain Transfer.
func (m *TransferModel) FromDomain(t *inventory.Transfer) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.RawMaterialID = t.RawMaterialID
	m.FromWarehouseID = t.FromWarehouseID
	m.ToWarehouseID = t.ToWarehouseID
	m.Quantity = t.Quantity
	m.Unit = t.Unit
	m.BaseQuantity = t.BaseQuantity
	m.TransferDate = t.TransferDate
	m.Note = t.Note
}

// TransferModelFromDomain creates a new persistence model from a domain Transfer.
func TransferModelFromDomain(t *inventory.Transfer) *TransferModel {
	m := &TransferModel{}
	m.FromDomain(t)
	return m
}

// MinStockModel is the persistence model for a per-warehouse threshold override.
type MinStockModel struct {
	BaseModel
	RawMaterialID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_min_stock_material_warehouse,priority:1"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_min_stock_material_warehouse,priority:2"`
	MinStock      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (MinStockModel) TableName() string {
	return "warehouse_material_min_stocks"
}

// ToDomain converts the persistence model to a domain WarehouseMaterialMinStock.
func (m *MinStockModel) ToDomain() *inventory.WarehouseMaterialMinStock {
	return &inventory.WarehouseMaterialMinStock{
		BaseEntity:    m.BaseModel.ToDomain(),
		RawMaterialID: m.RawMaterialID,
		WarehouseID:   m.WarehouseID,
		MinStock:      m.MinStock,
	}
}

// FromDomain populates the persistence model from a domain WarehouseMaterialMinStock.
func (m *MinStockModel) FromDomain(t *inventory.WarehouseMaterialMinStock) {
	m.FromDomainBaseEntity(t.BaseEntity)
	m.RawMaterialID = t.RawMaterialID
	m.WarehouseID = t.WarehouseID
	m.MinStock = t.MinStock
}

// MenuItemMaterialModel is one recipe line of a menu item.
type MenuItemMaterialModel struct {
	BaseModel
	MenuItemID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	RawMaterialID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit          string          `gorm:"type:varchar(20);not null"`
}

// TableName returns the table name for GORM
func (MenuItemMaterialModel) TableName() string {
	return "menu_item_materials"
}

// ToDomain converts the persistence model to a domain MenuItemMaterial.
func (m *MenuItemMaterialModel) ToDomain() *inventory.MenuItemMaterial {
	return &inventory.MenuItemMaterial{
		BaseEntity:    m.BaseModel.ToDomain(),
		MenuItemID:    m.MenuItemID,
		RawMaterialID: m.RawMaterialID,
		Quantity:      m.Quantity,
		Unit:          m.Unit,
	}
}

// FromDomain populates the persistence model from a domain MenuItemMaterial.
func (m *MenuItemMaterialModel) FromDomain(r *inventory.MenuItemMaterial) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.MenuItemID = r.MenuItemID
	m.RawMaterialID = r.RawMaterialID
	m.Quantity = r.Quantity
	m.Unit = r.Unit
}
