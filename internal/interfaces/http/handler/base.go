package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/cache"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/logger"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/tenant"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/dto"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// BaseHandler provides common handler utilities
type BaseHandler struct {
	// location interprets date-only query parameters
	location *time.Location
}

func newBaseHandler(loc *time.Location) BaseHandler {
	if loc == nil {
		loc = time.UTC
	}
	return BaseHandler{location: loc}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(logger.GinRequestIDKey)
}

// store returns the tenant store of the request, answering 400 when the
// tenant middleware did not run
func (h *BaseHandler) store(c *gin.Context) (*tenant.Store, bool) {
	store, ok := middleware.GetStore(c)
	if !ok {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeTenantRequired, "Tenant is required")
		return nil, false
	}
	return store, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// bindJSON binds the request body and answers 400 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds query parameters and answers 400 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// pathID parses a UUID path parameter and answers 400 when it is malformed
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, fieldError(dto.ErrCodeInvalidInput, "Invalid "+name, name, getRequestID(c)))
		return uuid.Nil, false
	}
	return id, true
}

// queryID parses an optional UUID query parameter
func (h *BaseHandler) queryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, fieldError(dto.ErrCodeInvalidInput, "Invalid "+name, name, getRequestID(c)))
		return nil, false
	}
	return &id, true
}

// queryDate parses an optional date query parameter. Plain dates are read in
// the ledger's time zone; RFC 3339 timestamps keep their own offset.
func (h *BaseHandler) queryDate(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	if t, err := time.ParseInLocation(dateLayout, raw, h.location); err == nil {
		return &t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	c.JSON(http.StatusBadRequest, fieldError(dto.ErrCodeInvalidInput,
		"Invalid "+name+": expected YYYY-MM-DD or RFC 3339", name, getRequestID(c)))
	return nil, false
}

func fieldError(code, message, field, requestID string) dto.Response {
	resp := dto.NewErrorResponseWithRequestID(code, message, requestID)
	resp.Error.Field = field
	return resp
}

// HandleError converts service errors to HTTP responses. Ledger errors keep
// their structured payload: shortages for insufficient stock and blocking
// references for dependency conflicts.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	requestID := getRequestID(c)

	var validationErr *shared.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, fieldError(validationErr.Code, validationErr.Message, validationErr.Field, requestID))
		return
	}

	var stockErr *shared.InsufficientStockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusUnprocessableEntity, dto.NewErrorResponseWithDetails(
			stockErr.Code, stockErr.Message, requestID, stockErr.Shortages))
		return
	}

	var importErr *shared.ImportRejectedError
	if errors.As(err, &importErr) {
		c.JSON(http.StatusBadRequest, dto.NewErrorResponseWithDetails(
			importErr.Code, importErr.Message, requestID, importErr.Rows))
		return
	}

	var conflictErr *shared.DependencyConflictError
	if errors.As(err, &conflictErr) {
		c.JSON(http.StatusConflict, dto.NewErrorResponseWithDetails(
			conflictErr.Code, conflictErr.Message, requestID, conflictErr.References))
		return
	}

	if errors.Is(err, cache.ErrLockTimeout) {
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeLockTimeout, "Stock is busy, retry the request")
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.JSON(dto.GetHTTPStatus(domainErr.Code), dto.NewErrorResponseWithRequestID(domainErr.Code, domainErr.Message, requestID))
		return
	}

	logger.GetGinLogger(c).Error("request failed", zap.Error(err))
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
