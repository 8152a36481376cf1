package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// MockStockAlertNotifier is a mock notifier for testing
type MockStockAlertNotifier struct {
	mu     sync.Mutex
	alerts []StockAlert
	err    error
}

func NewMockStockAlertNotifier() *MockStockAlertNotifier {
	return &MockStockAlertNotifier{
		alerts: make([]StockAlert, 0),
	}
}

func (n *MockStockAlertNotifier) SendAlert(ctx context.Context, alert StockAlert) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, alert)
	return n.err
}

func (n *MockStockAlertNotifier) GetAlerts() []StockAlert {
	n.mu.Lock()
	defer n.mu.Unlock()
	result := make([]StockAlert, len(n.alerts))
	copy(result, n.alerts)
	return result
}

func (n *MockStockAlertNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = make([]StockAlert, 0)
}

func lowStockEvent(t *testing.T, tenantID uuid.UUID, stock, threshold int64) *inventory.StockBelowThresholdEvent {
	t.Helper()
	material, err := inventory.NewRawMaterial("milk", "", "ml", decimal.NewFromInt(threshold))
	require.NoError(t, err)
	central, err := inventory.NewWarehouse(inventory.WarehouseCodeCentral, "Central")
	require.NoError(t, err)
	return inventory.NewStockBelowThresholdEvent(tenantID, inventory.StockLevel{
		Material:  material,
		Warehouse: central,
		Stock:     decimal.NewFromInt(stock),
		Threshold: decimal.NewFromInt(threshold),
	})
}

func TestStockBelowThresholdHandler_Handle(t *testing.T) {
	logger := zaptest.NewLogger(t)
	notifier := NewMockStockAlertNotifier()

	handler := NewStockBelowThresholdHandler(logger).
		WithNotifier(notifier)

	tenantID := uuid.New()

	t.Run("handles low stock event", func(t *testing.T) {
		notifier.Reset()

		event := lowStockEvent(t, tenantID, 400, 500)
		err := handler.Handle(context.Background(), event)
		require.NoError(t, err)

		alerts := notifier.GetAlerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, "low_stock", alerts[0].AlertType)
		assert.Equal(t, tenantID.String(), alerts[0].TenantID)
		assert.Equal(t, event.AggregateID().String(), alerts[0].RawMaterialID)
		assert.Equal(t, "milk", alerts[0].MaterialName)
		assert.Equal(t, inventory.WarehouseCodeCentral, alerts[0].WarehouseCode)
		assert.Equal(t, event.WarehouseID.String(), alerts[0].WarehouseID)
		assert.Equal(t, "400", alerts[0].Stock)
		assert.Equal(t, "500", alerts[0].Threshold)
		assert.Equal(t, "ml", alerts[0].Unit)
	})

	t.Run("handles out of stock event", func(t *testing.T) {
		notifier.Reset()

		err := handler.Handle(context.Background(), lowStockEvent(t, tenantID, 0, 500))
		require.NoError(t, err)

		alerts := notifier.GetAlerts()
		require.Len(t, alerts, 1)
		assert.Equal(t, "out_of_stock", alerts[0].AlertType)
	})

	t.Run("returns error for wrong event type", func(t *testing.T) {
		material, err := inventory.NewRawMaterial("sugar", "", "g", decimal.Zero)
		require.NoError(t, err)

		err = handler.Handle(context.Background(), inventory.NewRawMaterialCreatedEvent(material))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected event type")
	})

	t.Run("notifier failure does not fail the handler", func(t *testing.T) {
		failing := NewMockStockAlertNotifier()
		failing.err = errors.New("smtp down")
		h := NewStockBelowThresholdHandler(logger).WithNotifier(failing)

		err := h.Handle(context.Background(), lowStockEvent(t, tenantID, 1, 2))
		assert.NoError(t, err)
		assert.Len(t, failing.GetAlerts(), 1)
	})
}

func TestStockBelowThresholdHandler_MinInterval(t *testing.T) {
	notifier := NewMockStockAlertNotifier()
	handler := NewStockBelowThresholdHandler(zap.NewNop()).
		WithNotifier(notifier).
		WithMinInterval(time.Hour)

	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	handler.now = func() time.Time { return now }

	tenantID := uuid.New()
	event := lowStockEvent(t, tenantID, 10, 50)

	require.NoError(t, handler.Handle(context.Background(), event))
	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Len(t, notifier.GetAlerts(), 1, "repeat within the interval is suppressed")

	// A different material is tracked separately
	require.NoError(t, handler.Handle(context.Background(), lowStockEvent(t, tenantID, 10, 50)))
	assert.Len(t, notifier.GetAlerts(), 2)

	now = now.Add(time.Hour)
	require.NoError(t, handler.Handle(context.Background(), event))
	assert.Len(t, notifier.GetAlerts(), 3)
}

func TestStockBelowThresholdHandler_EventTypes(t *testing.T) {
	handler := NewStockBelowThresholdHandler(zap.NewNop())

	eventTypes := handler.EventTypes()
	assert.Len(t, eventTypes, 1)
	assert.Equal(t, inventory.EventTypeStockBelowThreshold, eventTypes[0])
}

func TestLoggingStockAlertNotifier_SendAlert(t *testing.T) {
	logger := zaptest.NewLogger(t)
	notifier := NewLoggingStockAlertNotifier(logger)

	alert := StockAlert{
		TenantID:      uuid.New().String(),
		RawMaterialID: uuid.New().String(),
		MaterialName:  "milk",
		WarehouseID:   uuid.New().String(),
		WarehouseCode: inventory.WarehouseCodeCentral,
		Stock:         "5",
		Threshold:     "10",
		Unit:          "l",
		AlertType:     "low_stock",
	}

	err := notifier.SendAlert(context.Background(), alert)
	assert.NoError(t, err)
}
