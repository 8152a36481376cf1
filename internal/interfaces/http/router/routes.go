package router

import (
	"github.com/gin-gonic/gin"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/handler"
)

// Handlers groups the handlers served under the versioned API
type Handlers struct {
	Ledger     *handler.LedgerHandler
	Usage      *handler.UsageHandler
	Production *handler.ProductionHandler
}

// SystemRoutes registers the unversioned endpoints, which need no tenant
func SystemRoutes(engine *gin.Engine, h *handler.SystemHandler) {
	engine.GET("/health", h.Health)
	engine.GET("/system/info", h.GetSystemInfo)
	engine.GET("/units/convert", h.ConvertUnits)
}

// InventoryRoutes returns the route groups of the inventory ledger API
func InventoryRoutes(h Handlers) []RouteRegistrar {
	warehouses := NewDomainGroup("warehouses", "/warehouses").
		GET("", h.Ledger.ListWarehouses).
		POST("", h.Ledger.CreateWarehouse).
		GET("/:id/available", h.Ledger.Available)

	materials := NewDomainGroup("raw-materials", "/raw-materials").
		GET("", h.Ledger.ListRawMaterials).
		POST("", h.Ledger.CreateRawMaterial).
		GET("/:id", h.Ledger.GetRawMaterial).
		DELETE("/:id", h.Ledger.DeleteRawMaterial).
		GET("/:id/purchases", h.Ledger.ListPurchases).
		GET("/:id/transfers", h.Ledger.ListTransfers).
		GET("/:id/stock", h.Ledger.StockAt).
		GET("/:id/stock/period", h.Ledger.StockForPeriod).
		GET("/:id/low", h.Ledger.IsLow)

	ledger := NewDomainGroup("ledger", "")
	ledger.PUT("/min-stock", h.Ledger.SetMinStock)
	ledger.Group("purchases", "/purchases").
		POST("", h.Ledger.RecordPurchase).
		POST("/import", h.Ledger.ImportPurchases).
		PUT("/:id", h.Ledger.UpdatePurchase).
		DELETE("/:id", h.Ledger.DeletePurchase)
	ledger.Group("transfers", "/transfers").
		POST("", h.Ledger.TransferStock)
	ledger.Group("stock", "/stock").
		GET("/period", h.Ledger.PeriodReport).
		GET("/low", h.Ledger.LowStockReport)

	usage := NewDomainGroup("usage", "")
	usage.Group("menu-items", "/menu-items").
		GET("/:id/recipe", h.Usage.GetMenuRecipe).
		PUT("/:id/recipe", h.Usage.ReplaceMenuRecipe)
	usage.Group("order-items", "/order-items").
		POST("/sync", h.Usage.SyncOrderItem).
		DELETE("/:id", h.Usage.RemoveOrderItem).
		GET("/:id/usages", h.Usage.ListOrderItemUsages)
	usage.Group("orders", "/orders").
		POST("/usage", h.Usage.RecordOrderUsage)

	production := NewDomainGroup("pre-production", "/pre-production")
	production.Group("items", "/items").
		GET("", h.Production.ListItems).
		POST("", h.Production.CreateItem).
		GET("/:id", h.Production.GetItem).
		DELETE("/:id", h.Production.DeleteItem).
		PUT("/:id/recipe", h.Production.UpdateRecipe).
		GET("/:id/history", h.Production.ItemHistory)
	production.POST("/produce", h.Production.Produce)
	production.POST("/transfers", h.Production.TransferItem)

	return []RouteRegistrar{warehouses, materials, ledger, usage, production}
}
