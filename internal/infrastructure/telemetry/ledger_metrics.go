package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// LedgerMetrics records ledger counters for one tenant store.
// It satisfies the application's LedgerMetrics interface.
type LedgerMetrics struct {
	tenant    attribute.KeyValue
	writes    *Counter
	shortages *Counter
	lowStock  *Counter
	lockWait  *Histogram
}

// NewLedgerMetrics creates the ledger instruments on meter
func NewLedgerMetrics(meter metric.Meter, tenant string) (*LedgerMetrics, error) {
	writes, err := NewCounter(meter, "ledger_writes_total", "Ledger rows written", "{row}")
	if err != nil {
		return nil, err
	}
	shortages, err := NewCounter(meter, "ledger_shortages_total", "Materials reported short by rejected operations", "{material}")
	if err != nil {
		return nil, err
	}
	lowStock, err := NewCounter(meter, "ledger_low_stock_total", "Low stock events raised", "{event}")
	if err != nil {
		return nil, err
	}
	lockWait, err := NewHistogram(meter, "ledger_lock_wait_seconds", "Time spent acquiring stock locks", "s", LockDurationBuckets...)
	if err != nil {
		return nil, err
	}
	return &LedgerMetrics{
		tenant:    AttrTenant.String(tenant),
		writes:    writes,
		shortages: shortages,
		lowStock:  lowStock,
		lockWait:  lockWait,
	}, nil
}

// RecordLedgerWrite counts rows appended to a ledger (purchase, usage, transfer...)
func (m *LedgerMetrics) RecordLedgerWrite(ctx context.Context, kind string, count int) {
	if count <= 0 {
		return
	}
	m.writes.Add(ctx, int64(count), m.tenant, AttrKind.String(kind))
}

// RecordShortage counts materials that blocked an operation
func (m *LedgerMetrics) RecordShortage(ctx context.Context, operation string, materials int) {
	if materials <= 0 {
		return
	}
	m.shortages.Add(ctx, int64(materials), m.tenant, AttrOperation.String(operation))
}

// RecordLowStock counts low stock events per warehouse
func (m *LedgerMetrics) RecordLowStock(ctx context.Context, warehouseCode string) {
	m.lowStock.Add(ctx, 1, m.tenant, AttrWarehouse.String(warehouseCode))
}

// RecordLockWait records how long a stock lock acquisition took
func (m *LedgerMetrics) RecordLockWait(ctx context.Context, d time.Duration, acquired bool) {
	state := "acquired"
	if !acquired {
		state = "failed"
	}
	m.lockWait.RecordDuration(ctx, d, m.tenant, AttrLockState.String(state))
}
