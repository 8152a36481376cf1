package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/logger"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/tenant"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	stores map[string]*tenant.Store
	err    error
}

func (f *fakeResolver) Get(_ context.Context, code string) (*tenant.Store, error) {
	if f.err != nil {
		return nil, f.err
	}
	store, ok := f.stores[code]
	if !ok {
		return nil, tenant.ErrUnknownTenant
	}
	return store, nil
}

func tenantRouter(cfg TenantMiddlewareConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Tenant(cfg))
	handler := func(c *gin.Context) {
		store, ok := GetStore(c)
		if !ok {
			c.String(http.StatusOK, "no-store")
			return
		}
		c.String(http.StatusOK, store.Code+"|"+c.GetString(logger.GinTenantKey)+"|"+logger.GetTenant(c.Request.Context()))
	}
	router.GET("/api/v1/stock", handler)
	router.GET("/health", handler)
	return router
}

func TestTenant(t *testing.T) {
	resolver := &fakeResolver{stores: map[string]*tenant.Store{
		"downtown": {Code: "downtown", ID: tenant.ID("downtown")},
		"uptown":   {Code: "uptown", ID: tenant.ID("uptown")},
	}}

	tests := []struct {
		name       string
		cfg        TenantMiddlewareConfig
		path       string
		header     string
		wantStatus int
		wantBody   string
		wantCode   string
	}{
		{
			name:       "resolves the store named by the header",
			cfg:        TenantMiddlewareConfig{Resolver: resolver},
			path:       "/api/v1/stock",
			header:     "uptown",
			wantStatus: http.StatusOK,
			wantBody:   "uptown|uptown|uptown",
		},
		{
			name:       "falls back to the default tenant",
			cfg:        TenantMiddlewareConfig{Resolver: resolver, DefaultTenant: "downtown"},
			path:       "/api/v1/stock",
			wantStatus: http.StatusOK,
			wantBody:   "downtown|downtown|downtown",
		},
		{
			name:       "requires a tenant without a default",
			cfg:        TenantMiddlewareConfig{Resolver: resolver},
			path:       "/api/v1/stock",
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeTenantRequired,
		},
		{
			name:       "rejects an unknown tenant",
			cfg:        TenantMiddlewareConfig{Resolver: resolver},
			path:       "/api/v1/stock",
			header:     "nowhere",
			wantStatus: http.StatusBadRequest,
			wantCode:   dto.ErrCodeUnknownTenant,
		},
		{
			name:       "skips configured paths",
			cfg:        TenantMiddlewareConfig{Resolver: resolver, SkipPaths: []string{"/health"}},
			path:       "/health",
			wantStatus: http.StatusOK,
			wantBody:   "no-store",
		},
		{
			name:       "reads a custom header",
			cfg:        TenantMiddlewareConfig{Resolver: resolver, Header: "X-Cafe"},
			path:       "/api/v1/stock",
			header:     "downtown",
			wantStatus: http.StatusOK,
			wantBody:   "downtown|downtown|downtown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := tenantRouter(tt.cfg)
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				name := tt.cfg.Header
				if name == "" {
					name = TenantHeaderKey
				}
				req.Header.Set(name, tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, w.Body.String())
			}
			if tt.wantCode != "" {
				assert.Contains(t, w.Body.String(), tt.wantCode)
			}
		})
	}
}

func TestTenant_ResolverFailure(t *testing.T) {
	router := tenantRouter(TenantMiddlewareConfig{Resolver: &fakeResolver{err: errors.New("disk full")}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stock", nil)
	req.Header.Set(TenantHeaderKey, "downtown")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeUnavailable)
	assert.NotContains(t, w.Body.String(), "disk full")
}

func TestGetStore_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, ok := GetStore(c)
	assert.False(t, ok)
}
