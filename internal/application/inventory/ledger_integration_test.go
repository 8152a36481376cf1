package inventory_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appinv "github.com/salehmohamadkhani/cafe/internal/application/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/inventory"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/cache"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/config"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/persistence"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// capturingPublisher records published events
type capturingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturingPublisher) ofType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

func (p *capturingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}

type ledgerFixture struct {
	ledger     *appinv.LedgerService
	usage      *appinv.UsageService
	production *appinv.ProductionService
	events     *capturingPublisher
	central    *appinv.WarehouseResponse
	pre        *appinv.WarehouseResponse
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{
		Driver:    config.DriverSQLite,
		SQLiteDir: t.TempDir(),
	}, "test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.DB.AutoMigrate(models.AllModels()...))

	scope := persistence.NewGormTransactionScope(db.DB)
	engine := inventory.NewBalanceEngine(time.UTC)
	locker := cache.NewMemoryStockLocker(10 * time.Second)
	events := &capturingPublisher{}
	tenantID := uuid.New()
	log := zaptest.NewLogger(t)

	f := &ledgerFixture{
		ledger:     appinv.NewLedgerService(tenantID, scope, engine, log),
		usage:      appinv.NewUsageService(tenantID, scope, engine, log),
		production: appinv.NewProductionService(tenantID, scope, engine, log),
		events:     events,
	}
	now := func() time.Time { return at(1, 12) }
	f.ledger.SetLocker(locker)
	f.ledger.SetEventPublisher(events)
	f.ledger.SetClock(now)
	f.usage.SetLocker(locker)
	f.usage.SetEventPublisher(events)
	f.usage.SetClock(now)
	f.production.SetLocker(locker)
	f.production.SetEventPublisher(events)
	f.production.SetClock(now)

	ctx := context.Background()
	f.central, err = f.ledger.EnsureWarehouse(ctx, inventory.WarehouseCodeCentral)
	require.NoError(t, err)
	f.pre, err = f.ledger.EnsureWarehouse(ctx, inventory.WarehouseCodePreProduction)
	require.NoError(t, err)
	return f
}

func at(dayOfMonth, hour int) time.Time {
	return time.Date(2025, 1, dayOfMonth, hour, 0, 0, 0, time.UTC)
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func (f *ledgerFixture) material(t *testing.T, name, unit string, minStock int64) *appinv.RawMaterialResponse {
	t.Helper()
	m, err := f.ledger.CreateRawMaterial(context.Background(), appinv.CreateRawMaterialRequest{
		Name: name, DefaultUnit: unit, MinStock: dec(minStock),
	})
	require.NoError(t, err)
	return m
}

func (f *ledgerFixture) purchase(t *testing.T, materialID uuid.UUID, qty int64, unit string, when time.Time) {
	t.Helper()
	_, err := f.ledger.RecordPurchase(context.Background(), appinv.RecordPurchaseRequest{
		RawMaterialID: materialID, Quantity: dec(qty), Unit: unit, PurchaseDate: &when,
	})
	require.NoError(t, err)
}

func (f *ledgerFixture) stockIn(t *testing.T, materialID, warehouseID uuid.UUID, asOf *time.Time) decimal.Decimal {
	t.Helper()
	id := warehouseID
	resp, err := f.ledger.StockAt(context.Background(), appinv.StockQuery{RawMaterialID: materialID, WarehouseID: &id, AsOf: asOf})
	require.NoError(t, err)
	return resp.Stock
}

func assertDec(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %d, got %s", want, got)
}

func TestMilkUsageLifecycle(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	milk := f.material(t, "milk", "ml", 1800)
	f.purchase(t, milk.ID, 2, "l", at(1, 8))

	latte := uuid.New()
	_, err := f.usage.ReplaceMenuRecipe(ctx, latte, appinv.ReplaceMenuRecipeRequest{
		Lines: []appinv.RecipeLineRequest{{RawMaterialID: milk.ID, Quantity: dec(300), Unit: "ml"}},
	})
	require.NoError(t, err)

	orderID, itemID := uuid.New(), uuid.New()
	sold := at(1, 10)
	line := appinv.OrderLineRequest{OrderID: orderID, OrderItemID: itemID, MenuItemID: latte, Quantity: dec(1), SoldAt: &sold}

	t.Run("sync derives usage and raises a low-stock alert", func(t *testing.T) {
		f.events.reset()
		result, err := f.usage.SyncOrderItemUsage(ctx, line)
		require.NoError(t, err)
		assert.Zero(t, result.Removed)
		require.Len(t, result.Usages, 1)
		assertDec(t, 300, result.Usages[0].Quantity)
		assertDec(t, 1700, f.stockIn(t, milk.ID, f.central.ID, nil))

		low := f.events.ofType(inventory.EventTypeStockBelowThreshold)
		require.Len(t, low, 1)
		assert.Equal(t, milk.ID, low[0].AggregateID())
		assert.Len(t, f.events.ofType(inventory.EventTypeUsageSynced), 1)
	})

	t.Run("resync replaces the previous usage", func(t *testing.T) {
		line.Quantity = dec(2)
		result, err := f.usage.SyncOrderItemUsage(ctx, line)
		require.NoError(t, err)
		assert.Equal(t, int64(1), result.Removed)
		assertDec(t, 1400, f.stockIn(t, milk.ID, f.central.ID, nil))

		usages, err := f.usage.ListOrderItemUsages(ctx, itemID)
		require.NoError(t, err)
		require.Len(t, usages, 1)
		assertDec(t, 600, usages[0].Quantity)
	})

	t.Run("remove restores the balance", func(t *testing.T) {
		removed, err := f.usage.RemoveOrderItemUsage(ctx, itemID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), removed)
		assertDec(t, 2000, f.stockIn(t, milk.ID, f.central.ID, nil))
	})

	t.Run("usage never fails for lack of stock and balances clamp at zero", func(t *testing.T) {
		line.Quantity = dec(10)
		_, err := f.usage.SyncOrderItemUsage(ctx, line)
		require.NoError(t, err)
		assertDec(t, 0, f.stockIn(t, milk.ID, f.central.ID, nil))
	})
}

func TestRecordOrderUsage(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	beans := f.material(t, "beans", "g", 0)
	f.purchase(t, beans.ID, 1, "kg", at(1, 8))

	espresso := uuid.New()
	_, err := f.usage.ReplaceMenuRecipe(ctx, espresso, appinv.ReplaceMenuRecipeRequest{
		Lines: []appinv.RecipeLineRequest{{RawMaterialID: beans.ID, Quantity: dec(18), Unit: "g"}},
	})
	require.NoError(t, err)

	orderID := uuid.New()
	first, second, gone := uuid.New(), uuid.New(), uuid.New()
	req := appinv.RecordOrderUsageRequest{
		OrderID: orderID,
		Lines: []appinv.OrderLineRequest{
			{OrderItemID: first, MenuItemID: espresso, Quantity: dec(1)},
			{OrderItemID: second, MenuItemID: espresso, Quantity: dec(2)},
			{OrderItemID: gone, MenuItemID: espresso, Quantity: dec(5), Deleted: true},
		},
	}

	results, err := f.usage.RecordOrderUsage(ctx, req)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assertDec(t, 1000-54, f.stockIn(t, beans.ID, f.central.ID, nil))

	// Lines that already have usages are left alone
	req.Lines[0].Quantity = dec(3)
	results, err = f.usage.RecordOrderUsage(ctx, req)
	require.NoError(t, err)
	assert.Empty(t, results)
	assertDec(t, 1000-54, f.stockIn(t, beans.ID, f.central.ID, nil))

	req.ReplaceExisting = true
	results, err = f.usage.RecordOrderUsage(ctx, req)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assertDec(t, 1000-90, f.stockIn(t, beans.ID, f.central.ID, nil))
}

func TestTransferStock(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	milk := f.material(t, "milk", "ml", 0)
	f.purchase(t, milk.ID, 1000, "ml", at(1, 8))

	bar, err := f.ledger.CreateWarehouse(ctx, appinv.CreateWarehouseRequest{Code: "bar", Name: "Bar"})
	require.NoError(t, err)
	kitchen, err := f.ledger.CreateWarehouse(ctx, appinv.CreateWarehouseRequest{Code: "kitchen"})
	require.NoError(t, err)

	transfer := func(from, to uuid.UUID, qty int64, unit string) error {
		when := at(2, 9)
		_, err := f.ledger.TransferStock(ctx, appinv.TransferStockRequest{
			RawMaterialID: milk.ID, FromWarehouseID: &from, ToWarehouseID: &to,
			Quantity: dec(qty), Unit: unit, TransferDate: &when,
		})
		return err
	}

	require.NoError(t, transfer(f.central.ID, bar.ID, 600, "ml"))
	assertDec(t, 400, f.stockIn(t, milk.ID, f.central.ID, nil))
	assertDec(t, 600, f.stockIn(t, milk.ID, bar.ID, nil))

	asOf := at(1, 23)
	assertDec(t, 0, f.stockIn(t, milk.ID, bar.ID, &asOf))

	t.Run("overdraw reports the deficit in base units", func(t *testing.T) {
		err := transfer(f.central.ID, bar.ID, 1, "l")
		var stockErr *shared.InsufficientStockError
		require.True(t, errors.As(err, &stockErr))
		require.Len(t, stockErr.Shortages, 1)
		assertDec(t, 1000, stockErr.Shortages[0].Required)
		assertDec(t, 400, stockErr.Shortages[0].Available)
		assertDec(t, 600, stockErr.Shortages[0].Deficit)
		assertDec(t, 400, f.stockIn(t, milk.ID, f.central.ID, nil))
	})

	t.Run("regular warehouses are only fed from central", func(t *testing.T) {
		err := transfer(bar.ID, kitchen.ID, 100, "ml")
		var verr *shared.ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		err := transfer(f.central.ID, bar.ID, 0, "ml")
		var verr *shared.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "quantity", verr.Field)
	})

	transfers, err := f.ledger.ListTransfers(ctx, milk.ID)
	require.NoError(t, err)
	assert.Len(t, transfers, 1)
}

func TestIsLowOverrides(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	sugar := f.material(t, "sugar", "g", 500)
	f.purchase(t, sugar.ID, 500, "g", at(1, 8))

	central := f.central.ID
	level, err := f.ledger.IsLow(ctx, sugar.ID, &central)
	require.NoError(t, err)
	assert.True(t, level.IsLow, "stock equal to the threshold is low")

	require.NoError(t, f.ledger.SetMinStock(ctx, appinv.SetMinStockRequest{RawMaterialID: sugar.ID, WarehouseID: &central, MinStock: decimal.Zero}))
	level, err = f.ledger.IsLow(ctx, sugar.ID, &central)
	require.NoError(t, err)
	assert.False(t, level.IsLow, "a zero override disables the alert")

	require.NoError(t, f.ledger.SetMinStock(ctx, appinv.SetMinStockRequest{RawMaterialID: sugar.ID, WarehouseID: &central, MinStock: dec(400)}))
	level, err = f.ledger.IsLow(ctx, sugar.ID, &central)
	require.NoError(t, err)
	assert.False(t, level.IsLow)
	assertDec(t, 400, level.Threshold)
}

func TestPeriodReport(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	milk := f.material(t, "milk", "ml", 0)
	flour := f.material(t, "flour", "g", 0)
	f.purchase(t, milk.ID, 1000, "ml", at(1, 8))
	f.purchase(t, milk.ID, 500, "ml", at(3, 8))
	f.purchase(t, flour.ID, 2, "kg", at(2, 8))

	start, end := at(2, 0), at(2, 0)
	report, err := f.ledger.PeriodReport(ctx, appinv.StockQuery{WarehouseCode: inventory.WarehouseCodeCentral, Start: &start, AsOf: &end})
	require.NoError(t, err)
	require.Len(t, report, 2)
	byID := map[uuid.UUID]decimal.Decimal{}
	for _, r := range report {
		byID[r.RawMaterialID] = r.Stock
	}
	assertDec(t, 1000, byID[milk.ID])
	assertDec(t, 2000, byID[flour.ID])

	before := at(1, 0)
	_, err = f.ledger.PeriodReport(ctx, appinv.StockQuery{Start: &start, AsOf: &before})
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "end", verr.Field)
}

func TestDeleteRawMaterial(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	milk := f.material(t, "milk", "ml", 0)
	unused := f.material(t, "saffron", "g", 0)
	f.purchase(t, milk.ID, 1, "l", at(1, 8))

	_, err := f.ledger.DeleteRawMaterial(ctx, milk.ID, appinv.DeleteRawMaterialRequest{})
	var conflict *shared.DependencyConflictError
	require.True(t, errors.As(err, &conflict))
	assert.NotEmpty(t, conflict.References)

	result, err := f.ledger.DeleteRawMaterial(ctx, milk.ID, appinv.DeleteRawMaterialRequest{Deactivate: true, Reason: "menu change"})
	require.NoError(t, err)
	assert.True(t, result.Deactivated)
	got, err := f.ledger.GetRawMaterial(ctx, milk.ID)
	require.NoError(t, err)
	assert.Equal(t, string(inventory.LifecycleDeactivated), got.Status)

	result, err = f.ledger.DeleteRawMaterial(ctx, unused.ID, appinv.DeleteRawMaterialRequest{})
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	_, err = f.ledger.GetRawMaterial(ctx, unused.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProduceIsAllOrNothing(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	flour := f.material(t, "flour", "g", 0)
	butter := f.material(t, "butter", "g", 0)
	f.purchase(t, flour.ID, 350, "g", at(1, 8))
	f.purchase(t, butter.ID, 50, "g", at(1, 8))

	dough, err := f.production.CreateItem(ctx, appinv.CreateItemRequest{
		Name: "dough", Unit: "kg",
		Materials: []appinv.RecipeLineRequest{
			{RawMaterialID: flour.ID, Quantity: dec(200), Unit: "g"},
			{RawMaterialID: butter.ID, Quantity: dec(40), Unit: "g"},
		},
	})
	require.NoError(t, err)

	_, err = f.production.Produce(ctx, appinv.ProduceRequest{ItemID: dough.ID, Quantity: dec(2)})
	var stockErr *shared.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	require.Len(t, stockErr.Shortages, 2, "every short material is reported")
	deficits := map[uuid.UUID]decimal.Decimal{}
	for _, s := range stockErr.Shortages {
		deficits[s.MaterialID] = s.Deficit
	}
	assertDec(t, 50, deficits[flour.ID])
	assertDec(t, 30, deficits[butter.ID])

	transfers, err := f.ledger.ListTransfers(ctx, flour.ID)
	require.NoError(t, err)
	assert.Empty(t, transfers)
	history, err := f.production.ItemHistory(ctx, dough.ID)
	require.NoError(t, err)
	assert.Empty(t, history.Productions)

	produced, err := f.production.Produce(ctx, appinv.ProduceRequest{ItemID: dough.ID, Quantity: dec(1)})
	require.NoError(t, err)
	assertDec(t, 1, produced.StockAfter)
	assert.Len(t, produced.Transfers, 2)
	assertDec(t, 150, f.stockIn(t, flour.ID, f.central.ID, nil))
	assertDec(t, 200, f.stockIn(t, flour.ID, f.pre.ID, nil))
	assertDec(t, 10, f.stockIn(t, butter.ID, f.central.ID, nil))
	assert.Len(t, f.events.ofType(inventory.EventTypeItemProduced), 1)

	_, err = f.production.Produce(ctx, appinv.ProduceRequest{ItemID: dough.ID, Quantity: dec(1), SourceWarehouseID: &f.pre.ID})
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "source_warehouse_id", verr.Field)
}

func TestProduceUsesStockAsOfProductionDate(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	flour := f.material(t, "flour", "g", 0)
	f.purchase(t, flour.ID, 400, "g", at(5, 8))

	dough, err := f.production.CreateItem(ctx, appinv.CreateItemRequest{
		Name: "dough", Unit: "kg",
		Materials: []appinv.RecipeLineRequest{{RawMaterialID: flour.ID, Quantity: dec(200), Unit: "g"}},
	})
	require.NoError(t, err)

	dayOne, dayFive := at(1, 10), at(5, 18)
	assertDec(t, 0, f.stockIn(t, flour.ID, f.central.ID, &dayOne))

	_, err = f.production.Produce(ctx, appinv.ProduceRequest{ItemID: dough.ID, Quantity: dec(2), ProductionDate: &dayOne})
	var stockErr *shared.InsufficientStockError
	require.True(t, errors.As(err, &stockErr), "flour bought on day 5 cannot be used on day 1")
	require.Len(t, stockErr.Shortages, 1)
	assertDec(t, 400, stockErr.Shortages[0].Required)
	assertDec(t, 0, stockErr.Shortages[0].Available)

	transfers, err := f.ledger.ListTransfers(ctx, flour.ID)
	require.NoError(t, err)
	assert.Empty(t, transfers)

	produced, err := f.production.Produce(ctx, appinv.ProduceRequest{ItemID: dough.ID, Quantity: dec(2), ProductionDate: &dayFive})
	require.NoError(t, err)
	assertDec(t, 2, produced.StockAfter)
	assertDec(t, 0, f.stockIn(t, flour.ID, f.central.ID, &dayFive))
}

func TestTransferStockUsesStockAsOfTransferDate(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	milk := f.material(t, "milk", "ml", 0)
	f.purchase(t, milk.ID, 1000, "ml", at(5, 8))
	bar, err := f.ledger.CreateWarehouse(ctx, appinv.CreateWarehouseRequest{Code: "bar"})
	require.NoError(t, err)

	transfer := func(when time.Time) error {
		_, err := f.ledger.TransferStock(ctx, appinv.TransferStockRequest{
			RawMaterialID: milk.ID, FromWarehouseID: &f.central.ID, ToWarehouseID: &bar.ID,
			Quantity: dec(300), Unit: "ml", TransferDate: &when,
		})
		return err
	}

	var stockErr *shared.InsufficientStockError
	require.True(t, errors.As(transfer(at(2, 9)), &stockErr))
	assertDec(t, 0, stockErr.Shortages[0].Available)

	require.NoError(t, transfer(at(5, 9)))
	end := at(5, 23)
	assertDec(t, 300, f.stockIn(t, milk.ID, bar.ID, &end))
}

// recipeEditingLocker edits a recipe once, while the first stock locks are being taken
type recipeEditingLocker struct {
	once sync.Once
	edit func()
}

func (l *recipeEditingLocker) Acquire(context.Context, ...string) (func(), error) {
	l.once.Do(l.edit)
	return func() {}, nil
}

func TestProduceRereadsRecipeEditedWhileLocking(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	flour := f.material(t, "flour", "g", 0)
	sugar := f.material(t, "sugar", "g", 0)
	f.purchase(t, flour.ID, 1, "kg", at(1, 8))
	f.purchase(t, sugar.ID, 1, "kg", at(1, 8))

	dough, err := f.production.CreateItem(ctx, appinv.CreateItemRequest{
		Name: "dough", Unit: "kg",
		Materials: []appinv.RecipeLineRequest{{RawMaterialID: flour.ID, Quantity: dec(100), Unit: "g"}},
	})
	require.NoError(t, err)

	f.production.SetLocker(&recipeEditingLocker{edit: func() {
		_, err := f.production.UpdateRecipe(ctx, dough.ID, appinv.UpdateRecipeRequest{
			Materials: []appinv.RecipeLineRequest{{RawMaterialID: sugar.ID, Quantity: dec(50), Unit: "g"}},
		})
		require.NoError(t, err)
	}})

	produced, err := f.production.Produce(ctx, appinv.ProduceRequest{ItemID: dough.ID, Quantity: dec(2)})
	require.NoError(t, err)
	require.Len(t, produced.Transfers, 1)
	assert.Equal(t, sugar.ID, produced.Transfers[0].RawMaterialID)
	assertDec(t, 900, f.stockIn(t, sugar.ID, f.central.ID, nil))
	assertDec(t, 1000, f.stockIn(t, flour.ID, f.central.ID, nil))
}

func TestConcurrentProduceDoesNotOversell(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	flour := f.material(t, "flour", "g", 0)
	f.purchase(t, flour.ID, 1, "kg", at(1, 8))

	dough, err := f.production.CreateItem(ctx, appinv.CreateItemRequest{
		Name: "dough", Unit: "kg",
		Materials: []appinv.RecipeLineRequest{{RawMaterialID: flour.ID, Quantity: dec(200), Unit: "g"}},
	})
	require.NoError(t, err)

	const workers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded, short := 0, 0
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.production.Produce(ctx, appinv.ProduceRequest{ItemID: dough.ID, Quantity: dec(1)})
			mu.Lock()
			defer mu.Unlock()
			var stockErr *shared.InsufficientStockError
			switch {
			case err == nil:
				succeeded++
			case errors.As(err, &stockErr):
				short++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, workers-5, short)
	assertDec(t, 0, f.stockIn(t, flour.ID, f.central.ID, nil))
	assertDec(t, 1000, f.stockIn(t, flour.ID, f.pre.ID, nil))

	item, err := f.production.GetItem(ctx, dough.ID)
	require.NoError(t, err)
	require.Len(t, item.Stocks, 1)
	assertDec(t, 5, item.Stocks[0].Quantity)
}

func TestItemTransferAndDelete(t *testing.T) {
	f := newLedgerFixture(t)
	ctx := context.Background()
	flour := f.material(t, "flour", "g", 0)
	f.purchase(t, flour.ID, 1, "kg", at(1, 8))
	bar, err := f.ledger.CreateWarehouse(ctx, appinv.CreateWarehouseRequest{Code: "bar"})
	require.NoError(t, err)

	dough, err := f.production.CreateItem(ctx, appinv.CreateItemRequest{
		Name: "dough", Unit: "kg",
		Materials: []appinv.RecipeLineRequest{{RawMaterialID: flour.ID, Quantity: dec(100), Unit: "g"}},
	})
	require.NoError(t, err)
	_, err = f.production.Produce(ctx, appinv.ProduceRequest{ItemID: dough.ID, Quantity: dec(3)})
	require.NoError(t, err)

	move := func(from, to uuid.UUID, qty int64) error {
		_, err := f.production.TransferItem(ctx, appinv.TransferItemRequest{
			ItemID: dough.ID, FromWarehouseID: from, ToWarehouseID: to, Quantity: dec(qty),
		})
		return err
	}

	require.NoError(t, move(f.pre.ID, bar.ID, 2))

	err = move(f.pre.ID, bar.ID, 5)
	var stockErr *shared.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assertDec(t, 1, stockErr.Shortages[0].Available)

	// A warehouse that never held the item has nothing to give
	err = move(f.central.ID, bar.ID, 1)
	require.True(t, errors.As(err, &stockErr))
	assertDec(t, 0, stockErr.Shortages[0].Available)

	// Emptying a row removes it
	require.NoError(t, move(f.pre.ID, bar.ID, 1))
	item, err := f.production.GetItem(ctx, dough.ID)
	require.NoError(t, err)
	require.Len(t, item.Stocks, 1)
	assert.Equal(t, bar.ID, item.Stocks[0].WarehouseID)
	assertDec(t, 3, item.Stocks[0].Quantity)

	err = f.production.DeleteItem(ctx, dough.ID, appinv.DeleteItemRequest{})
	var conflict *shared.DependencyConflictError
	require.True(t, errors.As(err, &conflict))

	require.NoError(t, f.production.DeleteItem(ctx, dough.ID, appinv.DeleteItemRequest{Force: true}))
	_, err = f.production.GetItem(ctx, dough.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	history, err := f.production.ItemHistory(ctx, dough.ID)
	require.NoError(t, err)
	assert.Len(t, history.Productions, 1)
	assert.Len(t, history.Transfers, 2)
}
