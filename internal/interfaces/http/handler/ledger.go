package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
)

// LedgerHandler serves warehouses, raw materials and the purchase, usage and
// transfer ledger of the tenant resolved for each request.
type LedgerHandler struct {
	BaseHandler
	archive ImportArchive
}

// ImportArchive keeps the files of accepted imports
type ImportArchive interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// LedgerOption configures a LedgerHandler
type LedgerOption func(*LedgerHandler)

// WithImportArchive keeps every accepted import file in archive
func WithImportArchive(archive ImportArchive) LedgerOption {
	return func(h *LedgerHandler) {
		h.archive = archive
	}
}

// NewLedgerHandler creates a LedgerHandler. loc is the ledger's time zone.
func NewLedgerHandler(loc *time.Location, opts ...LedgerOption) *LedgerHandler {
	h := &LedgerHandler{BaseHandler: newBaseHandler(loc)}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CreateWarehouse handles POST /warehouses
func (h *LedgerHandler) CreateWarehouse(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req appinv.CreateWarehouseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	warehouse, err := store.Ledger.CreateWarehouse(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, warehouse)
}

// ListWarehouses handles GET /warehouses
func (h *LedgerHandler) ListWarehouses(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	warehouses, err := store.Ledger.ListWarehouses(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, warehouses)
}

// Available handles GET /warehouses/:id/available?raw_material_id=...
// It returns the balance of each listed material in the warehouse.
func (h *LedgerHandler) Available(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	warehouseID, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	raw := c.QueryArray("raw_material_id")
	materialIDs := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			h.BadRequest(c, "Invalid raw_material_id: "+s)
			return
		}
		materialIDs = append(materialIDs, id)
	}
	if len(materialIDs) == 0 {
		h.BadRequest(c, "At least one raw_material_id is required")
		return
	}
	available, err := store.Ledger.AvailableIn(c.Request.Context(), warehouseID, materialIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, available)
}
