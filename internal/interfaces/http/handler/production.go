package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
)

// ProductionHandler serves pre-production items: recipes, production runs and
// transfers of the produced goods
type ProductionHandler struct {
	BaseHandler
}

// NewProductionHandler creates a ProductionHandler
func NewProductionHandler(loc *time.Location) *ProductionHandler {
	return &ProductionHandler{BaseHandler: newBaseHandler(loc)}
}

// CreateItem handles POST /pre-production/items
func (h *ProductionHandler) CreateItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req appinv.CreateItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := store.Production.CreateItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// GetItem handles GET /pre-production/items/:id
func (h *ProductionHandler) GetItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	item, err := store.Production.GetItem(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// ListItems handles GET /pre-production/items
func (h *ProductionHandler) ListItems(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	items, err := store.Production.ListItems(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// UpdateRecipe handles PUT /pre-production/items/:id/recipe
func (h *ProductionHandler) UpdateRecipe(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinv.UpdateRecipeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := store.Production.UpdateRecipe(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// DeleteItem handles DELETE /pre-production/items/:id?force=true
func (h *ProductionHandler) DeleteItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinv.DeleteItemRequest
	if !h.bindQuery(c, &req) {
		return
	}
	if err := store.Production.DeleteItem(c.Request.Context(), id, req); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ItemHistory handles GET /pre-production/items/:id/history
func (h *ProductionHandler) ItemHistory(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	history, err := store.Production.ItemHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// Produce handles POST /pre-production/produce. Shortages of every recipe
// line are reported together and nothing is written.
func (h *ProductionHandler) Produce(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req appinv.ProduceRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := store.Production.Produce(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// TransferItem handles POST /pre-production/transfers
func (h *ProductionHandler) TransferItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req appinv.TransferItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := store.Production.TransferItem(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
