package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEvent struct {
	shared.BaseDomainEvent
}

func newTestEvent(eventType string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, "RawMaterial", uuid.New(), uuid.New()),
	}
}

type testHandler struct {
	eventTypes []string
	mu         sync.Mutex
	handled    []shared.DomainEvent
	err        error
	panics     bool
	deadline   bool
}

func (h *testHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.panics {
		panic("boom")
	}
	_, h.deadline = ctx.Deadline()
	h.handled = append(h.handled, event)
	return h.err
}

func (h *testHandler) EventTypes() []string { return h.eventTypes }

func (h *testHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.handled)
}

func TestInMemoryEventBus_Sync(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithHandlerTimeout(time.Second))
	ctx := context.Background()

	low := &testHandler{eventTypes: []string{"StockBelowThreshold"}}
	all := &testHandler{}
	failing := &testHandler{eventTypes: []string{"StockBelowThreshold"}, err: errors.New("notifier down")}
	panicking := &testHandler{eventTypes: []string{"StockBelowThreshold"}, panics: true}
	bus.Subscribe(low)
	bus.Subscribe(all)
	bus.Subscribe(failing)
	bus.Subscribe(panicking)
	assert.Equal(t, 4, bus.registry.Count())

	err := bus.Publish(ctx, newTestEvent("StockBelowThreshold"), newTestEvent("RawMaterialCreated"))
	require.NoError(t, err)

	assert.Equal(t, 1, low.count())
	assert.Equal(t, 2, all.count())
	assert.Equal(t, 1, failing.count())
	assert.True(t, low.deadline)

	bus.Unsubscribe(low)
	require.NoError(t, bus.Publish(ctx, newTestEvent("StockBelowThreshold")))
	assert.Equal(t, 1, low.count())
}

func TestInMemoryEventBus_Async(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop(), WithAsync(4))
	handler := &testHandler{eventTypes: []string{"StockBelowThreshold"}}
	bus.Subscribe(handler)

	assert.ErrorIs(t, bus.Publish(context.Background(), newTestEvent("StockBelowThreshold")), ErrBusStopped)

	require.NoError(t, bus.Start(context.Background()))

	// A cancelled request context must not stop delivery
	ctx, cancel := context.WithCancel(context.Background())
	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(ctx, newTestEvent("StockBelowThreshold")))
	}
	cancel()

	stopCtx, stop := context.WithTimeout(context.Background(), time.Second)
	defer stop()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Equal(t, 10, handler.count())

	assert.ErrorIs(t, bus.Publish(context.Background(), newTestEvent("StockBelowThreshold")), ErrBusStopped)
	assert.NoError(t, bus.Stop(stopCtx))
}
