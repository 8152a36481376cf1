package middleware

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/logger"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/tenant"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// TenantStoreKey is the gin context key of the resolved tenant store
const TenantStoreKey = "tenant_store"

// TenantHeaderKey is the default header naming the tenant
const TenantHeaderKey = "X-Tenant-ID"

// StoreResolver opens the store of a tenant
type StoreResolver interface {
	Get(ctx context.Context, code string) (*tenant.Store, error)
}

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// Header names the request header carrying the tenant code
	Header string
	// DefaultTenant is used when the header is absent; empty makes the header mandatory
	DefaultTenant string
	// SkipPaths are served without a tenant store (e.g. health checks)
	SkipPaths []string
	Resolver  StoreResolver
	Logger    *zap.Logger
}

// Tenant resolves the tenant store of every request and stores it in the gin context.
// Services are taken from the store; nothing reads a process-wide "current tenant".
func Tenant(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	if cfg.Header == "" {
		cfg.Header = TenantHeaderKey
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if slices.Contains(cfg.SkipPaths, c.Request.URL.Path) {
			c.Next()
			return
		}

		code := c.GetHeader(cfg.Header)
		if code == "" {
			code = cfg.DefaultTenant
		}
		if code == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeTenantRequired, cfg.Header+" header is required", c.GetString(logger.GinRequestIDKey)))
			return
		}

		store, err := cfg.Resolver.Get(c.Request.Context(), code)
		if err != nil {
			requestID := c.GetString(logger.GinRequestIDKey)
			if errors.Is(err, tenant.ErrUnknownTenant) {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(
					dto.ErrCodeUnknownTenant, "Unknown tenant", requestID))
				return
			}
			cfg.Logger.Error("failed to open tenant store", zap.String("tenant", code), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnavailable, "Tenant store unavailable", requestID))
			return
		}

		c.Set(TenantStoreKey, store)
		c.Set(logger.GinTenantKey, store.Code)
		ctx, reqLogger := logger.WithTenant(c.Request.Context(), logger.GetGinLogger(c), store.Code)
		c.Request = c.Request.WithContext(logger.WithContext(ctx, reqLogger))
		c.Next()
	}
}

// GetStore returns the tenant store resolved for the request
func GetStore(c *gin.Context) (*tenant.Store, bool) {
	v, ok := c.Get(TenantStoreKey)
	if !ok {
		return nil, false
	}
	store, ok := v.(*tenant.Store)
	return store, ok && store != nil
}
