package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
)

// UsageHandler turns sold menu items into raw-material usages
type UsageHandler struct {
	BaseHandler
}

// NewUsageHandler creates a UsageHandler
func NewUsageHandler(loc *time.Location) *UsageHandler {
	return &UsageHandler{BaseHandler: newBaseHandler(loc)}
}

// GetMenuRecipe handles GET /menu-items/:id/recipe
func (h *UsageHandler) GetMenuRecipe(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	lines, err := store.Usage.GetMenuRecipe(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}

// ReplaceMenuRecipe handles PUT /menu-items/:id/recipe
func (h *UsageHandler) ReplaceMenuRecipe(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinv.ReplaceMenuRecipeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	lines, err := store.Usage.ReplaceMenuRecipe(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}

// SyncOrderItem handles POST /order-items/sync. It is called whenever an order
// item is created, edited or deleted.
func (h *UsageHandler) SyncOrderItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req appinv.OrderLineRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := store.Usage.SyncOrderItemUsage(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// RemoveOrderItem handles DELETE /order-items/:id
func (h *UsageHandler) RemoveOrderItem(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	removed, err := store.Usage.RemoveOrderItemUsage(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"order_item_id": id, "removed": removed})
}

// ListOrderItemUsages handles GET /order-items/:id/usages
func (h *UsageHandler) ListOrderItemUsages(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	usages, err := store.Usage.ListOrderItemUsages(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, usages)
}

// RecordOrderUsage handles POST /orders/usage
func (h *UsageHandler) RecordOrderUsage(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req appinv.RecordOrderUsageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	results, err := store.Usage.RecordOrderUsage(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, results)
}
