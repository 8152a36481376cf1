package inventory

import (
	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event type constants
const (
	EventTypeRawMaterialCreated     = "RawMaterialCreated"
	EventTypeRawMaterialDeactivated = "RawMaterialDeactivated"
	EventTypePurchaseRecorded       = "PurchaseRecorded"
	EventTypeStockTransferred       = "StockTransferred"
	EventTypeUsageSynced            = "UsageSynced"
	EventTypeItemProduced           = "PreProductionItemProduced"
	EventTypeItemTransferred        = "PreProductionItemTransferred"
	EventTypeStockBelowThreshold    = "StockBelowThreshold"
)

// RawMaterialCreatedEvent is raised when a raw material is added to the catalog
type RawMaterialCreatedEvent struct {
	shared.BaseDomainEvent
	Name        string `json:"name"`
	DefaultUnit string `json:"default_unit"`
}

// NewRawMaterialCreatedEvent creates a new RawMaterialCreatedEvent
func NewRawMaterialCreatedEvent(m *RawMaterial) *RawMaterialCreatedEvent {
	return &RawMaterialCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRawMaterialCreated, AggregateTypeRawMaterial, m.ID, uuid.Nil),
		Name:            m.Name,
		DefaultUnit:     m.DefaultUnit,
	}
}

// RawMaterialDeactivatedEvent is raised when a raw material is retired instead of deleted
type RawMaterialDeactivatedEvent struct {
	shared.BaseDomainEvent
	Reason string `json:"reason"`
}

// NewRawMaterialDeactivatedEvent creates a new RawMaterialDeactivatedEvent
func NewRawMaterialDeactivatedEvent(m *RawMaterial, reason string) *RawMaterialDeactivatedEvent {
	return &RawMaterialDeactivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRawMaterialDeactivated, AggregateTypeRawMaterial, m.ID, uuid.Nil),
		Reason:          reason,
	}
}

// PurchaseRecordedEvent is raised after a purchase is committed
type PurchaseRecordedEvent struct {
	shared.BaseDomainEvent
	PurchaseID   uuid.UUID       `json:"purchase_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
	TotalPrice   decimal.Decimal `json:"total_price"`
}

// NewPurchaseRecordedEvent creates a new PurchaseRecordedEvent
func NewPurchaseRecordedEvent(tenantID uuid.UUID, m *RawMaterial, p *Purchase) *PurchaseRecordedEvent {
	return &PurchaseRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseRecorded, AggregateTypeRawMaterial, m.ID, tenantID),
		PurchaseID:      p.ID,
		Quantity:        p.Quantity,
		Unit:            p.Unit,
		BaseQuantity:    m.ToDefaultUnit(p.Quantity, p.Unit),
		TotalPrice:      p.TotalPrice,
	}
}

// StockTransferredEvent is raised after a raw-material transfer is committed
type StockTransferredEvent struct {
	shared.BaseDomainEvent
	TransferID      uuid.UUID       `json:"transfer_id"`
	FromWarehouseID *uuid.UUID      `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   *uuid.UUID      `json:"to_warehouse_id,omitempty"`
	BaseQuantity    decimal.Decimal `json:"base_quantity"`
}

// NewStockTransferredEvent creates a new StockTransferredEvent
func NewStockTransferredEvent(tenantID uuid.UUID, t *Transfer) *StockTransferredEvent {
	return &StockTransferredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockTransferred, AggregateTypeRawMaterial, t.RawMaterialID, tenantID),
		TransferID:      t.ID,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		BaseQuantity:    t.BaseQuantity,
	}
}

// UsageSyncedEvent is raised after the usages of an order item were re-derived
type UsageSyncedEvent struct {
	shared.BaseDomainEvent
	OrderItemID uuid.UUID   `json:"order_item_id"`
	MaterialIDs []uuid.UUID `json:"material_ids"`
}

// NewUsageSyncedEvent creates a new UsageSyncedEvent
func NewUsageSyncedEvent(tenantID, orderItemID uuid.UUID, materialIDs []uuid.UUID) *UsageSyncedEvent {
	return &UsageSyncedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUsageSynced, "OrderItem", orderItemID, tenantID),
		OrderItemID:     orderItemID,
		MaterialIDs:     materialIDs,
	}
}

// ItemProducedEvent is raised after a production run is committed
type ItemProducedEvent struct {
	shared.BaseDomainEvent
	ProductionID      uuid.UUID       `json:"production_id"`
	SourceWarehouseID uuid.UUID       `json:"source_warehouse_id"`
	Quantity          decimal.Decimal `json:"quantity"`
	MaterialIDs       []uuid.UUID     `json:"material_ids"`
}

// NewItemProducedEvent creates a new ItemProducedEvent
func NewItemProducedEvent(tenantID uuid.UUID, item *PreProductionItem, record *PreProductionProduction) *ItemProducedEvent {
	return &ItemProducedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeItemProduced, AggregateTypePreProductionItem, item.ID, tenantID),
		ProductionID:      record.ID,
		SourceWarehouseID: record.SourceWarehouseID,
		Quantity:          record.Quantity,
		MaterialIDs:       item.MaterialIDs(),
	}
}

// ItemTransferredEvent is raised after an intermediate good moved between warehouses
type ItemTransferredEvent struct {
	shared.BaseDomainEvent
	TransferID      uuid.UUID       `json:"transfer_id"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity"`
}

// NewItemTransferredEvent creates a new ItemTransferredEvent
func NewItemTransferredEvent(tenantID uuid.UUID, t *PreProductionTransfer) *ItemTransferredEvent {
	return &ItemTransferredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemTransferred, AggregateTypePreProductionItem, t.ItemID, tenantID),
		TransferID:      t.ID,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		Quantity:        t.Quantity,
	}
}

// StockBelowThresholdEvent is raised when a reconstructed balance is at or below its threshold
type StockBelowThresholdEvent struct {
	shared.BaseDomainEvent
	MaterialName  string          `json:"material_name"`
	WarehouseID   *uuid.UUID      `json:"warehouse_id,omitempty"`
	WarehouseCode string          `json:"warehouse_code,omitempty"`
	Stock         decimal.Decimal `json:"stock"`
	Threshold     decimal.Decimal `json:"threshold"`
	Unit          string          `json:"unit"`
}

// NewStockBelowThresholdEvent creates a new StockBelowThresholdEvent
func NewStockBelowThresholdEvent(tenantID uuid.UUID, level StockLevel) *StockBelowThresholdEvent {
	e := &StockBelowThresholdEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockBelowThreshold, AggregateTypeRawMaterial, level.Material.ID, tenantID),
		MaterialName:    level.Material.Name,
		Stock:           level.Stock,
		Threshold:       level.Threshold,
		Unit:            level.Material.DefaultUnit,
	}
	if level.Warehouse != nil {
		id := level.Warehouse.ID
		e.WarehouseID = &id
		e.WarehouseCode = level.Warehouse.Code
	}
	return e
}

// IsOutOfStock reports whether the balance is exhausted
func (e *StockBelowThresholdEvent) IsOutOfStock() bool {
	return e.Stock.IsZero()
}
