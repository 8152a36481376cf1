package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/logger"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader names the header a client sets to make a write retry-safe
const IdempotencyKeyHeader = "Idempotency-Key"

// Idempotency rejects a repeated POST carrying an Idempotency-Key the tenant
// already used within ttl. The key is released again when the write fails so
// the client can retry it.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if c.Request.Method != http.MethodPost || key == "" || store == nil {
			c.Next()
			return
		}
		if len(key) > MaxRequestIDLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeBadRequest, IdempotencyKeyHeader+" is too long", c.GetString(logger.GinRequestIDKey)))
			return
		}

		ctx := c.Request.Context()
		scoped := c.GetString(logger.GinTenantKey) + ":" + key
		fresh, err := store.MarkProcessed(ctx, scoped, ttl)
		if err != nil {
			// The store being down must not block sales
			logger.GetGinLogger(c).Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			c.AbortWithStatusJSON(http.StatusConflict, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeDuplicateRequest, "Request with this "+IdempotencyKeyHeader+" was already processed",
				c.GetString(logger.GinRequestIDKey)))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := store.Forget(context.WithoutCancel(ctx), scoped); err != nil {
				logger.GetGinLogger(c).Warn("failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
