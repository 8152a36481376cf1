package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	csvimport "github.com/salehmohamadkhani/cafe/internal/infrastructure/import"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/logger"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/storage"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const maxImportRows = 5000

// RecordPurchase handles POST /purchases
func (h *LedgerHandler) RecordPurchase(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	var req appinv.RecordPurchaseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	purchase, err := store.Ledger.RecordPurchase(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, purchase)
}

// UpdatePurchase handles PUT /purchases/:id
func (h *LedgerHandler) UpdatePurchase(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req appinv.UpdatePurchaseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	purchase, err := store.Ledger.UpdatePurchase(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, purchase)
}

// DeletePurchase handles DELETE /purchases/:id
func (h *LedgerHandler) DeletePurchase(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := store.Ledger.DeletePurchase(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListPurchases handles GET /raw-materials/:id/purchases
func (h *LedgerHandler) ListPurchases(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	purchases, err := store.Ledger.ListPurchases(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, purchases)
}

// ImportPurchasesResponse reports an accepted import
type ImportPurchasesResponse struct {
	*appinv.PurchaseImportResult
	ArchiveKey string `json:"archive_key,omitempty"`
	ArchiveURL string `json:"archive_url,omitempty"`
}

// ImportPurchases handles POST /purchases/import. The CSV file is sent either as
// the "file" field of a multipart form or as the raw request body.
func (h *LedgerHandler) ImportPurchases(c *gin.Context) {
	store, ok := h.store(c)
	if !ok {
		return
	}

	var src io.Reader = c.Request.Body
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		header, err := c.FormFile("file")
		if err != nil {
			if h.tooLarge(c, err) {
				return
			}
			h.BadRequest(c, "Missing CSV file in form field 'file'")
			return
		}
		f, err := header.Open()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		defer f.Close()
		src = f
	}
	data, err := io.ReadAll(src)
	if err != nil {
		if !h.tooLarge(c, err) {
			h.BadRequest(c, "Failed to read CSV file")
		}
		return
	}

	rows, err := csvimport.NewPurchaseReader(h.location, maxImportRows).Read(bytes.NewReader(data))
	if err != nil {
		var rejected *shared.ImportRejectedError
		if errors.As(err, &rejected) {
			h.HandleError(c, err)
			return
		}
		h.BadRequest(c, err.Error())
		return
	}

	result, err := store.Ledger.ImportPurchases(c.Request.Context(), rows)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := ImportPurchasesResponse{PurchaseImportResult: result}
	if h.archive != nil {
		resp.ArchiveKey, resp.ArchiveURL = h.archiveImport(c, store.Code, data)
	}
	h.Created(c, resp)
}

// archiveImport keeps an accepted file. The purchases are already committed, so
// a storage failure is only logged.
func (h *LedgerHandler) archiveImport(c *gin.Context, tenantCode string, data []byte) (string, string) {
	ctx := c.Request.Context()
	log := logger.GetGinLogger(c)
	key := storage.ImportKey(tenantCode, "purchases", time.Now(), uuid.New())
	if err := h.archive.Upload(ctx, key, data, "text/csv"); err != nil {
		log.Warn("failed to archive import file", zap.String("key", key), zap.Error(err))
		return "", ""
	}
	url, _, err := h.archive.GenerateDownloadURL(ctx, key, 0)
	if err != nil {
		log.Warn("failed to sign archived import file", zap.String("key", key), zap.Error(err))
		return key, ""
	}
	return key, url
}

// tooLarge answers 413 when err comes from the body size limit
func (h *LedgerHandler) tooLarge(c *gin.Context, err error) bool {
	var maxErr *http.MaxBytesError
	if !errors.As(err, &maxErr) {
		return false
	}
	h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodeRequestTooLarge, "CSV file exceeds maximum allowed size")
	return true
}
