package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
)

// stockQuery reads the warehouse (warehouse_id or warehouse code) and the
// start and end dates of a balance query
func (h *LedgerHandler) stockQuery(c *gin.Context, materialID uuid.UUID) (appinv.StockQuery, bool) {
	q := appinv.StockQuery{RawMaterialID: materialID, WarehouseCode: c.Query("warehouse")}
	var ok bool
	if q.WarehouseID, ok = h.queryID(c, "warehouse_id"); !ok {
		return q, false
	}
	if q.Start, ok = h.queryDate(c, "start"); !ok {
		return q, false
	}
	end := "as_of"
	if c.Query("end") != "" {
		end = "end"
	}
	if q.AsOf, ok = h.queryDate(c, end); !ok {
		return q, false
	}
	return q, true
}

// StockAt handles GET /raw-materials/:id/stock?warehouse_id=&as_of=
func (h *LedgerHandler) StockAt(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	q, ok := h.stockQuery(c, id)
	if !ok {
		return
	}
	stock, err := store.Ledger.StockAt(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}

// StockForPeriod handles GET /raw-materials/:id/stock/period?start=&end=
func (h *LedgerHandler) StockForPeriod(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	q, ok := h.stockQuery(c, id)
	if !ok {
		return
	}
	stock, err := store.Ledger.StockForPeriod(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stock)
}

// PeriodReport handles GET /stock/period?start=&end=&warehouse=
func (h *LedgerHandler) PeriodReport(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	q, ok := h.stockQuery(c, uuid.Nil)
	if !ok {
		return
	}
	report, err := store.Ledger.PeriodReport(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// IsLow handles GET /raw-materials/:id/low?warehouse_id=
func (h *LedgerHandler) IsLow(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	warehouseID, ok := h.queryID(c, "warehouse_id")
	if !ok {
		return
	}
	level, err := store.Ledger.IsLow(c.Request.Context(), id, warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// LowStockReport handles GET /stock/low?warehouse_id=
func (h *LedgerHandler) LowStockReport(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	warehouseID, ok := h.queryID(c, "warehouse_id")
	if !ok {
		return
	}
	report, err := store.Ledger.LowStockReport(c.Request.Context(), warehouseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}
