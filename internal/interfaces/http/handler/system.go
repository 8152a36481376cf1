package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/dto"
)

// TenantStatus reports the tenants a process has open
type TenantStatus interface {
	Open() []string
	Ping(ctx context.Context) error
}

// SystemHandler handles system-related API endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	tenants   TenantStatus
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, tenants TenantStatus) *SystemHandler {
	return &SystemHandler{
		BaseHandler: newBaseHandler(time.UTC),
		name:        name,
		version:     version,
		tenants:     tenants,
		startTime:   time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string   `json:"name"`
	Version   string   `json:"version"`
	GoVersion string   `json:"go_version"`
	Uptime    string   `json:"uptime"`
	Tenants   []string `json:"tenants"`
}

// GetSystemInfo handles GET /system/info
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Tenants:   h.tenants.Open(),
	})
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Health handles GET /health. Every open tenant database must answer a ping.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	now := time.Now().UTC().Format(time.RFC3339)
	if err := h.tenants.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.Response{
			Success: false,
			Data:    HealthResponse{Status: "unhealthy", Timestamp: now},
			Error:   &dto.ErrorInfo{Code: dto.ErrCodeUnavailable, Message: err.Error(), RequestID: getRequestID(c)},
		})
		return
	}
	h.Success(c, HealthResponse{Status: "healthy", Timestamp: now})
}
