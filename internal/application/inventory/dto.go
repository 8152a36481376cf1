package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/shopspring/decimal"
)

// CreateWarehouseRequest represents a request to create a warehouse
type CreateWarehouseRequest struct {
	Code string `json:"code" binding:"required,max=50"`
	Name string `json:"name" binding:"max=100"`
}

// WarehouseResponse represents a warehouse in API responses
type WarehouseResponse struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// ToWarehouseResponse converts a domain warehouse to a response
func ToWarehouseResponse(w *inventory.Warehouse) WarehouseResponse {
	return WarehouseResponse{
		ID:        w.ID,
		Code:      w.Code,
		Name:      w.Name,
		Status:    string(lifecycleStatus(w.Lifecycle)),
		CreatedAt: w.CreatedAt,
	}
}

// CreateRawMaterialRequest represents a request to add a raw material
type CreateRawMaterialRequest struct {
	Name        string          `json:"name" binding:"required,max=200"`
	Code        string          `json:"code" binding:"max=50"`
	DefaultUnit string          `json:"default_unit" binding:"required"`
	MinStock    decimal.Decimal `json:"min_stock"`
}

// RawMaterialListFilter represents filter options for the material list
type RawMaterialListFilter struct {
	Search          string `form:"search"`
	IncludeInactive bool   `form:"include_inactive"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// RawMaterialResponse represents a raw material in API responses
type RawMaterialResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Code              string          `json:"code,omitempty"`
	DefaultUnit       string          `json:"default_unit"`
	MinStock          decimal.Decimal `json:"min_stock"`
	Status            string          `json:"status"`
	DeactivatedReason string          `json:"deactivated_reason,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Version           int             `json:"version"`
}

// ToRawMaterialResponse converts a domain raw material to a response
func ToRawMaterialResponse(m *inventory.RawMaterial) RawMaterialResponse {
	resp := RawMaterialResponse{
		ID:          m.ID,
		Name:        m.Name,
		Code:        m.Code,
		DefaultUnit: m.DefaultUnit,
		MinStock:    m.MinStock,
		Status:      string(lifecycleStatus(m.Lifecycle)),
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		Version:     m.Version,
	}
	if d, ok := m.Lifecycle.(inventory.Deactivated); ok {
		resp.DeactivatedReason = d.Reason
	}
	return resp
}

// DeleteRawMaterialRequest controls what happens to a referenced raw material
type DeleteRawMaterialRequest struct {
	// Deactivate retires a referenced material instead of failing
	Deactivate bool   `form:"deactivate" json:"deactivate"`
	Reason     string `form:"reason" json:"reason"`
}

// DeleteRawMaterialResult reports the outcome of a delete request
type DeleteRawMaterialResult struct {
	Deleted     bool `json:"deleted"`
	Deactivated bool `json:"deactivated"`
}

// SetMinStockRequest sets the global threshold or a per-warehouse override
type SetMinStockRequest struct {
	RawMaterialID uuid.UUID       `json:"raw_material_id" binding:"required"`
	WarehouseID   *uuid.UUID      `json:"warehouse_id"`
	MinStock      decimal.Decimal `json:"min_stock"`
}

// RecordPurchaseRequest represents a request to record a purchase
type RecordPurchaseRequest struct {
	RawMaterialID uuid.UUID       `json:"raw_material_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	Unit          string          `json:"unit"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	PurchaseDate  *time.Time      `json:"purchase_date"`
	VendorName    string          `json:"vendor_name" binding:"max=200"`
	VendorPhone   string          `json:"vendor_phone" binding:"max=32"`
	Note          string          `json:"note"`
}

// PurchaseImportRow is one purchase of a bulk import. Material holds the code
// or the name of an active raw material.
type PurchaseImportRow struct {
	Row          int
	Material     string
	Quantity     decimal.Decimal
	Unit         string
	TotalPrice   decimal.Decimal
	PurchaseDate *time.Time
	VendorName   string
	VendorPhone  string
	Note         string
}

// PurchaseImportResult reports the purchases written by a bulk import
type PurchaseImportResult struct {
	Imported  int                `json:"imported"`
	Purchases []PurchaseResponse `json:"purchases"`
}

// UpdatePurchaseRequest represents a request to edit a purchase
type UpdatePurchaseRequest struct {
	Quantity     decimal.Decimal `json:"quantity" binding:"required"`
	Unit         string          `json:"unit"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	PurchaseDate *time.Time      `json:"purchase_date"`
	VendorName   string          `json:"vendor_name" binding:"max=200"`
	VendorPhone  string          `json:"vendor_phone" binding:"max=32"`
	Note         string          `json:"note"`
}

// PurchaseResponse represents a purchase in API responses
type PurchaseResponse struct {
	ID            uuid.UUID       `json:"id"`
	RawMaterialID uuid.UUID       `json:"raw_material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	PurchaseDate  time.Time       `json:"purchase_date"`
	VendorName    string          `json:"vendor_name,omitempty"`
	VendorPhone   string          `json:"vendor_phone,omitempty"`
	Note          string          `json:"note,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToPurchaseResponse converts a domain purchase to a response
func ToPurchaseResponse(p *inventory.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:            p.ID,
		RawMaterialID: p.RawMaterialID,
		Quantity:      p.Quantity,
		Unit:          p.Unit,
		TotalPrice:    p.TotalPrice,
		UnitPrice:     p.UnitPrice(),
		PurchaseDate:  p.PurchaseDate,
		VendorName:    p.VendorName,
		VendorPhone:   p.VendorPhone,
		Note:          p.Note,
		CreatedAt:     p.CreatedAt,
	}
}

// TransferStockRequest represents a request to move raw material between warehouses.
// A nil source brings stock into the ledger; a nil destination takes it out.
type TransferStockRequest struct {
	RawMaterialID   uuid.UUID       `json:"raw_material_id" binding:"required"`
	FromWarehouseID *uuid.UUID      `json:"from_warehouse_id"`
	ToWarehouseID   *uuid.UUID      `json:"to_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	Unit            string          `json:"unit"`
	TransferDate    *time.Time      `json:"transfer_date"`
	Note            string          `json:"note"`
}

// TransferResponse represents a raw-material transfer in API responses
type TransferResponse struct {
	ID              uuid.UUID       `json:"id"`
	RawMaterialID   uuid.UUID       `json:"raw_material_id"`
	FromWarehouseID *uuid.UUID      `json:"from_warehouse_id,omitempty"`
	ToWarehouseID   *uuid.UUID      `json:"to_warehouse_id,omitempty"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	BaseQuantity    decimal.Decimal `json:"base_quantity"`
	TransferDate    time.Time       `json:"transfer_date"`
	Note            string          `json:"note,omitempty"`
}

// ToTransferResponse converts a domain transfer to a response
func ToTransferResponse(t *inventory.Transfer) TransferResponse {
	return TransferResponse{
		ID:              t.ID,
		RawMaterialID:   t.RawMaterialID,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		Quantity:        t.Quantity,
		Unit:            t.Unit,
		BaseQuantity:    t.BaseQuantity,
		TransferDate:    t.TransferDate,
		Note:            t.Note,
	}
}

// StockQuery selects one balance. WarehouseID and WarehouseCode are alternatives;
// with neither the purchase/usage balance is returned.
type StockQuery struct {
	RawMaterialID uuid.UUID  `form:"raw_material_id"`
	WarehouseID   *uuid.UUID `form:"warehouse_id"`
	WarehouseCode string     `form:"warehouse"`
	AsOf          *time.Time `form:"as_of" time_format:"2006-01-02"`
	Start         *time.Time `form:"start" time_format:"2006-01-02"`
}

// StockResponse is a reconstructed balance
type StockResponse struct {
	RawMaterialID uuid.UUID       `json:"raw_material_id"`
	WarehouseID   *uuid.UUID      `json:"warehouse_id,omitempty"`
	WarehouseCode string          `json:"warehouse_code,omitempty"`
	Stock         decimal.Decimal `json:"stock"`
	Unit          string          `json:"unit"`
	Start         *time.Time      `json:"start,omitempty"`
	AsOf          *time.Time      `json:"as_of,omitempty"`
}

// StockLevelResponse is a balance paired with its threshold
type StockLevelResponse struct {
	RawMaterialID uuid.UUID       `json:"raw_material_id"`
	MaterialName  string          `json:"material_name"`
	WarehouseID   *uuid.UUID      `json:"warehouse_id,omitempty"`
	WarehouseCode string          `json:"warehouse_code,omitempty"`
	Stock         decimal.Decimal `json:"stock"`
	Threshold     decimal.Decimal `json:"threshold"`
	Unit          string          `json:"unit"`
	IsLow         bool            `json:"is_low"`
}

// ToStockLevelResponse converts a domain stock level to a response
func ToStockLevelResponse(l inventory.StockLevel) StockLevelResponse {
	resp := StockLevelResponse{
		RawMaterialID: l.Material.ID,
		MaterialName:  l.Material.Name,
		Stock:         l.Stock,
		Threshold:     l.Threshold,
		Unit:          l.Material.DefaultUnit,
		IsLow:         l.IsLow(),
	}
	if l.Warehouse != nil {
		id := l.Warehouse.ID
		resp.WarehouseID = &id
		resp.WarehouseCode = l.Warehouse.Code
	}
	return resp
}

// RecipeLineRequest is one line of a menu-item or pre-production recipe
type RecipeLineRequest struct {
	RawMaterialID uuid.UUID       `json:"raw_material_id" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	Unit          string          `json:"unit"`
}

// RecipeLineResponse is one recipe line in API responses
type RecipeLineResponse struct {
	RawMaterialID uuid.UUID       `json:"raw_material_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
}

// ReplaceMenuRecipeRequest replaces the recipe of a menu item
type ReplaceMenuRecipeRequest struct {
	Lines []RecipeLineRequest `json:"lines" binding:"dive"`
}

// OrderLineRequest describes one sold order item
type OrderLineRequest struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderItemID uuid.UUID       `json:"order_item_id" binding:"required"`
	MenuItemID  uuid.UUID       `json:"menu_item_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Deleted     bool            `json:"deleted"`
	SoldAt      *time.Time      `json:"sold_at"`
}

func (r OrderLineRequest) toDomain() inventory.OrderLine {
	return inventory.OrderLine{
		OrderID:     r.OrderID,
		OrderItemID: r.OrderItemID,
		MenuItemID:  r.MenuItemID,
		Quantity:    r.Quantity,
		Deleted:     r.Deleted,
	}
}

// RecordOrderUsageRequest derives usages for every line of an order
type RecordOrderUsageRequest struct {
	OrderID         uuid.UUID          `json:"order_id" binding:"required"`
	Lines           []OrderLineRequest `json:"lines" binding:"dive"`
	ReplaceExisting bool               `json:"replace_existing"`
	SoldAt          *time.Time         `json:"sold_at"`
}

// UsageResponse represents a usage row in API responses
type UsageResponse struct {
	ID            uuid.UUID       `json:"id"`
	RawMaterialID uuid.UUID       `json:"raw_material_id"`
	OrderID       *uuid.UUID      `json:"order_id,omitempty"`
	OrderItemID   *uuid.UUID      `json:"order_item_id,omitempty"`
	MenuItemID    *uuid.UUID      `json:"menu_item_id,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	Unit          string          `json:"unit"`
	UsedAt        time.Time       `json:"used_at"`
}

// ToUsageResponse converts a domain usage to a response
func ToUsageResponse(u *inventory.Usage) UsageResponse {
	return UsageResponse{
		ID:            u.ID,
		RawMaterialID: u.RawMaterialID,
		OrderID:       u.OrderID,
		OrderItemID:   u.OrderItemID,
		MenuItemID:    u.MenuItemID,
		Quantity:      u.Quantity,
		Unit:          u.Unit,
		UsedAt:        u.EventDate(),
	}
}

// UsageSyncResult reports how an order item's usages changed
type UsageSyncResult struct {
	OrderItemID uuid.UUID       `json:"order_item_id"`
	Removed     int64           `json:"removed"`
	Usages      []UsageResponse `json:"usages"`
}

// CreateItemRequest represents a request to define a pre-production item
type CreateItemRequest struct {
	Name      string              `json:"name" binding:"required,max=200"`
	Unit      string              `json:"unit" binding:"required"`
	Materials []RecipeLineRequest `json:"materials" binding:"dive"`
}

// UpdateRecipeRequest replaces the recipe of a pre-production item
type UpdateRecipeRequest struct {
	Materials []RecipeLineRequest `json:"materials" binding:"dive"`
}

// ItemStockResponse is the cached balance of an item in one warehouse
type ItemStockResponse struct {
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// ItemResponse represents a pre-production item in API responses
type ItemResponse struct {
	ID        uuid.UUID            `json:"id"`
	Name      string               `json:"name"`
	Unit      string               `json:"unit"`
	Status    string               `json:"status"`
	Materials []RecipeLineResponse `json:"materials"`
	Stocks    []ItemStockResponse  `json:"stocks,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
	Version   int                  `json:"version"`
}

// ToItemResponse converts a domain item and its stock rows to a response
func ToItemResponse(item *inventory.PreProductionItem, stocks []inventory.PreProductionStock) ItemResponse {
	resp := ItemResponse{
		ID:        item.ID,
		Name:      item.Name,
		Unit:      item.Unit,
		Status:    string(lifecycleStatus(item.Lifecycle)),
		Materials: make([]RecipeLineResponse, 0, len(item.Materials)),
		CreatedAt: item.CreatedAt,
		Version:   item.Version,
	}
	for _, m := range item.Materials {
		resp.Materials = append(resp.Materials, RecipeLineResponse{
			RawMaterialID: m.RawMaterialID,
			Quantity:      m.Quantity,
			Unit:          m.Unit,
		})
	}
	for _, s := range stocks {
		resp.Stocks = append(resp.Stocks, ItemStockResponse{WarehouseID: s.WarehouseID, Quantity: s.Quantity})
	}
	return resp
}

// ProduceRequest represents a production run. The source defaults to central.
type ProduceRequest struct {
	ItemID            uuid.UUID       `json:"item_id" binding:"required"`
	SourceWarehouseID *uuid.UUID      `json:"source_warehouse_id"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
	ProductionDate    *time.Time      `json:"production_date"`
	Note              string          `json:"note"`
}

// ProductionResponse reports a committed production run
type ProductionResponse struct {
	ID                uuid.UUID          `json:"id"`
	ItemID            uuid.UUID          `json:"item_id"`
	SourceWarehouseID uuid.UUID          `json:"source_warehouse_id"`
	Quantity          decimal.Decimal    `json:"quantity"`
	ProductionDate    time.Time          `json:"production_date"`
	Note              string             `json:"note,omitempty"`
	Transfers         []TransferResponse `json:"transfers,omitempty"`
	StockAfter        decimal.Decimal    `json:"stock_after"`
}

// TransferItemRequest moves an intermediate good between warehouses
type TransferItemRequest struct {
	ItemID          uuid.UUID       `json:"item_id" binding:"required"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	TransferDate    *time.Time      `json:"transfer_date"`
	Note            string          `json:"note"`
}

// ItemTransferResponse reports a committed intermediate-good transfer
type ItemTransferResponse struct {
	ID              uuid.UUID       `json:"id"`
	ItemID          uuid.UUID       `json:"item_id"`
	FromWarehouseID uuid.UUID       `json:"from_warehouse_id"`
	ToWarehouseID   uuid.UUID       `json:"to_warehouse_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	TransferDate    time.Time       `json:"transfer_date"`
	Note            string          `json:"note,omitempty"`
}

// ToItemTransferResponse converts a history row to a response
func ToItemTransferResponse(t *inventory.PreProductionTransfer) ItemTransferResponse {
	return ItemTransferResponse{
		ID:              t.ID,
		ItemID:          t.ItemID,
		FromWarehouseID: t.FromWarehouseID,
		ToWarehouseID:   t.ToWarehouseID,
		Quantity:        t.Quantity,
		TransferDate:    t.TransferDate,
		Note:            t.Note,
	}
}

// ItemHistoryResponse lists the production runs and transfers of an item
type ItemHistoryResponse struct {
	ItemID      uuid.UUID              `json:"item_id"`
	Productions []ProductionResponse   `json:"productions"`
	Transfers   []ItemTransferResponse `json:"transfers"`
}

// DeleteItemRequest controls deletion of an item that still holds stock
type DeleteItemRequest struct {
	Force bool `form:"force" json:"force"`
}

func lifecycleStatus(l inventory.Lifecycle) inventory.LifecycleStatus {
	if l == nil {
		return inventory.LifecycleActive
	}
	return l.Status()
}

func toRecipeLines(reqs []RecipeLineRequest) []inventory.RecipeLine {
	lines := make([]inventory.RecipeLine, 0, len(reqs))
	for _, r := range reqs {
		lines = append(lines, inventory.RecipeLine{
			RawMaterialID: r.RawMaterialID,
			Quantity:      r.Quantity,
			Unit:          r.Unit,
		})
	}
	return lines
}
