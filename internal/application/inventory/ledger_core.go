package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"go.uber.org/zap"
)

// StockLocker serializes writers of the same stock bucket.
// Acquire blocks until every key is held or ctx is done; release frees them all.
type StockLocker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}

// MaterialStockKey names the lock of a raw material in a warehouse
func MaterialStockKey(materialID, warehouseID uuid.UUID) string {
	return fmt.Sprintf("material:%s:%s", materialID, warehouseID)
}

// ItemStockKey names the lock of a pre-production item in a warehouse
func ItemStockKey(itemID, warehouseID uuid.UUID) string {
	return fmt.Sprintf("item:%s:%s", itemID, warehouseID)
}

// LedgerMetrics receives counters about ledger writes. Implementations must be safe for concurrent use.
type LedgerMetrics interface {
	RecordLedgerWrite(ctx context.Context, kind string, count int)
	RecordShortage(ctx context.Context, operation string, materials int)
	RecordLowStock(ctx context.Context, warehouseCode string)
}

type nopLocker struct{}

func (nopLocker) Acquire(context.Context, ...string) (func(), error) { return func() {}, nil }

type nopMetrics struct{}

func (nopMetrics) RecordLedgerWrite(context.Context, string, int) {}
func (nopMetrics) RecordShortage(context.Context, string, int) {}
func (nopMetrics) RecordLowStock(context.Context, string) {}

// ledgerCore carries what every ledger service of one tenant store needs
type ledgerCore struct {
	tenantID  uuid.UUID
	scope     TransactionScope
	engine    *inventory.BalanceEngine
	locker    StockLocker
	publisher shared.EventPublisher
	metrics   LedgerMetrics
	logger    *zap.Logger
	now       func() time.Time
}

func newLedgerCore(tenantID uuid.UUID, scope TransactionScope, engine *inventory.BalanceEngine, logger *zap.Logger) ledgerCore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = inventory.NewBalanceEngine(time.UTC)
	}
	return ledgerCore{
		tenantID: tenantID,
		scope:    scope,
		engine:   engine,
		locker:   nopLocker{},
		metrics:  nopMetrics{},
		logger:   logger.With(zap.String("tenant_id", tenantID.String())),
		now:      time.Now,
	}
}

// SetLocker sets the stock locker used around balance-changing writes
func (c *ledgerCore) SetLocker(locker StockLocker) {
	if locker != nil {
		c.locker = locker
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (c *ledgerCore) SetEventPublisher(publisher shared.EventPublisher) {
	c.publisher = publisher
}

// SetMetrics sets the ledger metrics sink
func (c *ledgerCore) SetMetrics(metrics LedgerMetrics) {
	if metrics != nil {
		c.metrics = metrics
	}
}

// SetClock overrides the time source
func (c *ledgerCore) SetClock(now func() time.Time) {
	if now != nil {
		c.now = now
	}
}

// publish stamps the tenant on events raised without one and hands them to the publisher.
// Events are only published after the transaction committed.
func (c *ledgerCore) publish(ctx context.Context, events ...shared.DomainEvent) {
	if c.publisher == nil || len(events) == 0 {
		return
	}
	for _, e := range events {
		if stamp, ok := e.(interface{ SetTenantID(uuid.UUID) }); ok && e.TenantID() == uuid.Nil {
			stamp.SetTenantID(c.tenantID)
		}
	}
	if err := c.publisher.Publish(ctx, events...); err != nil {
		c.logger.Warn("failed to publish ledger events", zap.Error(err))
	}
}

func (c *ledgerCore) publishAggregate(ctx context.Context, root shared.AggregateRoot) {
	events := root.GetDomainEvents()
	root.ClearDomainEvents()
	c.publish(ctx, events...)
}

// withLocks runs fn in a transaction while holding the given stock locks
func (c *ledgerCore) withLocks(ctx context.Context, keys []string, fn func(repos TransactionalRepositories) error) error {
	release, err := c.locker.Acquire(ctx, keys...)
	if err != nil {
		return err
	}
	defer release()
	return c.scope.Execute(ctx, fn)
}

// dateOr returns the given date or the current time
func (c *ledgerCore) dateOr(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return c.now()
	}
	return *t
}

// endBound converts an inclusive as-of instant into the exclusive bound used by repositories
func (c *ledgerCore) endBound(asOf *time.Time) *time.Time {
	if asOf == nil {
		return nil
	}
	next := c.engine.Day(*asOf).AddDate(0, 0, 1)
	return &next
}

// loadLedger fetches every event of the given materials that can affect a balance as of asOf
func (c *ledgerCore) loadLedger(ctx context.Context, repos TransactionalRepositories, materialIDs []uuid.UUID, asOf *time.Time) (inventory.Ledger, error) {
	until := c.endBound(asOf)
	purchases, err := repos.Purchases().FindByMaterials(ctx, materialIDs, until)
	if err != nil {
		return inventory.Ledger{}, err
	}
	usages, err := repos.Usages().FindByMaterials(ctx, materialIDs, until)
	if err != nil {
		return inventory.Ledger{}, err
	}
	transfers, err := repos.Transfers().FindByMaterials(ctx, materialIDs, until)
	if err != nil {
		return inventory.Ledger{}, err
	}
	return inventory.Ledger{Purchases: purchases, Usages: usages, Transfers: transfers}, nil
}

// stockLevel reconstructs a balance and resolves its threshold
func (c *ledgerCore) stockLevel(ctx context.Context, repos TransactionalRepositories, material *inventory.RawMaterial, warehouse *inventory.Warehouse, ledger inventory.Ledger) (inventory.StockLevel, error) {
	level := inventory.StockLevel{
		Material:  material,
		Warehouse: warehouse,
		Stock:     c.engine.StockAt(material, warehouse, ledger, nil),
	}
	var override *inventory.WarehouseMaterialMinStock
	if warehouse != nil {
		found, err := repos.MinStocks().Find(ctx, material.ID, warehouse.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return level, err
		}
		override = found
	}
	level.Threshold = inventory.ResolveThreshold(material, override)
	return level, nil
}

// lowStockEvents checks the given materials in warehouse after a write and returns
// a StockBelowThreshold event for each low balance
func (c *ledgerCore) lowStockEvents(ctx context.Context, repos TransactionalRepositories, materials []*inventory.RawMaterial, warehouse *inventory.Warehouse) ([]shared.DomainEvent, error) {
	if len(materials) == 0 || warehouse == nil {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(materials))
	for _, m := range materials {
		ids = append(ids, m.ID)
	}
	ledger, err := c.loadLedger(ctx, repos, ids, nil)
	if err != nil {
		return nil, err
	}
	var events []shared.DomainEvent
	for _, m := range materials {
		level, err := c.stockLevel(ctx, repos, m, warehouse, ledger)
		if err != nil {
			return nil, err
		}
		if level.IsLow() {
			events = append(events, inventory.NewStockBelowThresholdEvent(c.tenantID, level))
			c.metrics.RecordLowStock(ctx, warehouse.Code)
		}
	}
	return events, nil
}

// ensureWarehouse returns the warehouse with code, creating it when missing
func ensureWarehouse(ctx context.Context, repos TransactionalRepositories, code string) (*inventory.Warehouse, error) {
	code = inventory.NormalizeWarehouseCode(code)
	w, err := repos.Warehouses().FindByCode(ctx, code)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	w, err = inventory.NewWarehouse(code, "")
	if err != nil {
		return nil, err
	}
	if err := repos.Warehouses().Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// findWarehouse loads an optional warehouse
func findWarehouse(ctx context.Context, repos TransactionalRepositories, id *uuid.UUID) (*inventory.Warehouse, error) {
	if id == nil || *id == uuid.Nil {
		return nil, nil
	}
	return repos.Warehouses().FindByID(ctx, *id)
}
