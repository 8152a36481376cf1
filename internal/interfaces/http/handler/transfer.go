package handler

import (
	"github.com/gin-gonic/gin"
	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
)

// TransferStock handles POST /transfers
func (h *LedgerHandler) TransferStock(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req appinv.TransferStockRequest
	if !h.bindJSON(c, &req) {
		return
	}
	transfer, err := store.Ledger.TransferStock(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, transfer)
}

// ListTransfers handles GET /raw-materials/:id/transfers
func (h *LedgerHandler) ListTransfers(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	transfers, err := store.Ledger.ListTransfers(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, transfers)
}
