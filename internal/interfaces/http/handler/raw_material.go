package handler

import (
	"github.com/gin-gonic/gin"
	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
)

// CreateRawMaterial handles POST /raw-materials
func (h *LedgerHandler) CreateRawMaterial(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req appinv.CreateRawMaterialRequest
	if !h.bindJSON(c, &req) {
		return
	}
	material, err := store.Ledger.CreateRawMaterial(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, material)
}

// GetRawMaterial handles GET /raw-materials/:id
func (h *LedgerHandler) GetRawMaterial(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	material, err := store.Ledger.GetRawMaterial(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, material)
}

// ListRawMaterials handles GET /raw-materials
func (h *LedgerHandler) ListRawMaterials(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var filter appinv.RawMaterialListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	materials, err := store.Ledger.ListRawMaterials(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, materials)
}

// DeleteRawMaterial handles DELETE /raw-materials/:id?deactivate=true&reason=...
// A referenced material is only retired when deactivate is set.
func (h *LedgerHandler) DeleteRawMaterial(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinv.DeleteRawMaterialRequest
	if !h.bindQuery(c, &req) {
		return
	}
	result, err := store.Ledger.DeleteRawMaterial(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// SetMinStock handles PUT /min-stock
func (h *LedgerHandler) SetMinStock(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req appinv.SetMinStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := store.Ledger.SetMinStock(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
