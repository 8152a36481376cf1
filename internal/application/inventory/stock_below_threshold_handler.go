package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"go.uber.org/zap"
)

// StockBelowThresholdHandler handles StockBelowThreshold events
// and raises alerts when a reconstructed balance reaches its threshold
type StockBelowThresholdHandler struct {
	logger      *zap.Logger
	notifier    StockAlertNotifier
	minInterval time.Duration

	mu       sync.Mutex
	lastSent map[string]time.Time
	now      func() time.Time
}

// StockAlertNotifier is the interface for sending stock alerts
type StockAlertNotifier interface {
	// SendAlert sends a stock alert notification
	SendAlert(ctx context.Context, alert StockAlert) error
}

// StockAlert represents a stock level alert
type StockAlert struct {
	TenantID      string `json:"tenant_id"`
	RawMaterialID string `json:"raw_material_id"`
	MaterialName  string `json:"material_name"`
	WarehouseID   string `json:"warehouse_id,omitempty"`
	WarehouseCode string `json:"warehouse_code,omitempty"`
	Stock         string `json:"stock"`
	Threshold     string `json:"threshold"`
	Unit          string `json:"unit"`
	AlertType     string `json:"alert_type"` // "low_stock", "out_of_stock"
}

// NewStockBelowThresholdHandler creates a new handler for stock below threshold events
func NewStockBelowThresholdHandler(logger *zap.Logger) *StockBelowThresholdHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockBelowThresholdHandler{
		logger:   logger,
		lastSent: make(map[string]time.Time),
		now:      time.Now,
	}
}

// WithNotifier sets the notifier for sending alerts
func (h *StockBelowThresholdHandler) WithNotifier(notifier StockAlertNotifier) *StockBelowThresholdHandler {
	h.notifier = notifier
	return h
}

// WithMinInterval suppresses repeated alerts for the same material and warehouse
func (h *StockBelowThresholdHandler) WithMinInterval(d time.Duration) *StockBelowThresholdHandler {
	h.minInterval = d
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *StockBelowThresholdHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockBelowThreshold}
}

// Handle processes a StockBelowThresholdEvent
func (h *StockBelowThresholdHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	thresholdEvent, ok := event.(*inventory.StockBelowThresholdEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockBelowThreshold),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockBelowThreshold, event.EventType())
	}

	alertType := "low_stock"
	if thresholdEvent.IsOutOfStock() {
		alertType = "out_of_stock"
	}
	alert := StockAlert{
		TenantID:      event.TenantID().String(),
		RawMaterialID: event.AggregateID().String(),
		MaterialName:  thresholdEvent.MaterialName,
		WarehouseCode: thresholdEvent.WarehouseCode,
		Stock:         thresholdEvent.Stock.String(),
		Threshold:     thresholdEvent.Threshold.String(),
		Unit:          thresholdEvent.Unit,
		AlertType:     alertType,
	}
	if thresholdEvent.WarehouseID != nil {
		alert.WarehouseID = thresholdEvent.WarehouseID.String()
	}

	h.logger.Warn("stock below threshold detected",
		zap.String("tenant_id", alert.TenantID),
		zap.String("raw_material_id", alert.RawMaterialID),
		zap.String("warehouse_code", alert.WarehouseCode),
		zap.String("stock", alert.Stock),
		zap.String("threshold", alert.Threshold),
		zap.String("alert_type", alertType),
	)

	if !h.shouldSend(alert) {
		h.logger.Debug("stock alert suppressed", zap.String("raw_material_id", alert.RawMaterialID))
		return nil
	}

	if h.notifier != nil {
		if err := h.notifier.SendAlert(ctx, alert); err != nil {
			h.logger.Error("failed to send stock alert notification",
				zap.String("raw_material_id", alert.RawMaterialID),
				zap.Error(err),
			)
			// Don't return error - notification failure shouldn't fail the event handling
		}
	}
	return nil
}

func (h *StockBelowThresholdHandler) shouldSend(alert StockAlert) bool {
	if h.minInterval <= 0 {
		return true
	}
	key := alert.TenantID + "/" + alert.RawMaterialID + "/" + alert.WarehouseID
	now := h.now()

	h.mu.Lock()
	defer h.mu.Unlock()
	if last, ok := h.lastSent[key]; ok && now.Sub(last) < h.minInterval {
		return false
	}
	h.lastSent[key] = now
	return true
}

// Ensure StockBelowThresholdHandler implements shared.EventHandler
var _ shared.EventHandler = (*StockBelowThresholdHandler)(nil)

// LoggingStockAlertNotifier is a simple notifier that logs alerts
type LoggingStockAlertNotifier struct {
	logger *zap.Logger
}

// NewLoggingStockAlertNotifier creates a new logging notifier
func NewLoggingStockAlertNotifier(logger *zap.Logger) *LoggingStockAlertNotifier {
	return &LoggingStockAlertNotifier{
		logger: logger,
	}
}

// SendAlert logs the stock alert
func (n *LoggingStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.logger.Warn("STOCK ALERT",
		zap.String("type", alert.AlertType),
		zap.String("material", alert.MaterialName),
		zap.String("warehouse", alert.WarehouseCode),
		zap.String("stock", alert.Stock),
		zap.String("threshold", alert.Threshold),
		zap.String("unit", alert.Unit),
	)
	return nil
}

// Ensure LoggingStockAlertNotifier implements StockAlertNotifier
var _ StockAlertNotifier = (*LoggingStockAlertNotifier)(nil)
