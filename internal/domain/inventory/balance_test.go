package inventory

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDecimal(t *testing.T, expected string, actual decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(expected).Equal(actual), "expected %s, got %s", expected, actual.String())
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 10, 0, 0, 0, time.UTC)
}

func newTestMaterial(t *testing.T, unit string, minStock int64) *RawMaterial {
	t.Helper()
	m, err := NewRawMaterial("Milk", "MLK", unit, decimal.NewFromInt(minStock))
	require.NoError(t, err)
	return m
}

func newTestWarehouse(t *testing.T, code string) *Warehouse {
	t.Helper()
	w, err := NewWarehouse(code, "")
	require.NoError(t, err)
	return w
}

func purchaseOf(t *testing.T, m *RawMaterial, qty, unit string, at time.Time) Purchase {
	t.Helper()
	p, err := NewPurchase(m, PurchaseDetails{
		Quantity:     decimal.RequireFromString(qty),
		Unit:         unit,
		TotalPrice:   decimal.NewFromInt(100),
		PurchaseDate: at,
	})
	require.NoError(t, err)
	return *p
}

func usageOf(m *RawMaterial, qty, unit string, at time.Time) Usage {
	return Usage{
		RawMaterialID: m.ID,
		Quantity:      decimal.RequireFromString(qty),
		Unit:          unit,
		UsedAt:        at,
	}
}

func transferOf(t *testing.T, m *RawMaterial, from, to *Warehouse, qty, unit string, at time.Time) Transfer {
	t.Helper()
	tr, err := NewTransfer(m, from, to, decimal.RequireFromString(qty), unit, at, "")
	require.NoError(t, err)
	return *tr
}

func TestBalanceEngine_MilkScenario(t *testing.T) {
	engine := NewBalanceEngine(time.UTC)
	milk := newTestMaterial(t, "ml", 500)
	central := newTestWarehouse(t, WarehouseCodeCentral)
	bar := newTestWarehouse(t, "bar")

	ledger := Ledger{
		Purchases: []Purchase{purchaseOf(t, milk, "2", "l", day(1))},
		Usages:    []Usage{usageOf(milk, "300", "ml", day(1))},
	}

	assertDecimal(t, "1700", engine.StockAt(milk, nil, ledger, nil))
	assertDecimal(t, "1700", engine.StockAt(milk, central, ledger, nil))

	require.NoError(t, ValidateTransferRoute(central, bar))
	ledger.Transfers = append(ledger.Transfers, transferOf(t, milk, central, bar, "1000", "ml", day(1)))

	centralStock := engine.StockAt(milk, central, ledger, nil)
	barStock := engine.StockAt(milk, bar, ledger, nil)
	assertDecimal(t, "700", centralStock)
	assertDecimal(t, "1000", barStock)

	level := StockLevel{Material: milk, Warehouse: central, Stock: centralStock, Threshold: ResolveThreshold(milk, nil)}
	assert.False(t, level.IsLow())
}

func TestBalanceEngine_StockForPeriod(t *testing.T) {
	engine := NewBalanceEngine(time.UTC)
	flour := newTestMaterial(t, "g", 0)

	ledger := Ledger{
		Purchases: []Purchase{
			purchaseOf(t, flour, "1", "kg", day(1)),
			purchaseOf(t, flour, "500", "g", day(5)),
			purchaseOf(t, flour, "2", "kg", day(20)),
		},
		Usages: []Usage{
			usageOf(flour, "1500", "g", day(2)),
			usageOf(flour, "200", "g", day(6)),
		},
	}

	t.Run("negative opening balance is clamped before the period", func(t *testing.T) {
		start, end := day(5), day(10)
		got := engine.StockForPeriod(flour, nil, ledger, Period{Start: &start, End: &end})
		// opening 1000-1500 clamps to 0, then +500-200
		assertDecimal(t, "300", got)
	})

	t.Run("end day is inclusive", func(t *testing.T) {
		end := time.Date(2024, time.March, 20, 23, 59, 0, 0, time.UTC)
		got := engine.StockAt(flour, nil, ledger, &end)
		assertDecimal(t, "1800", got)
	})

	t.Run("events after the end day are ignored", func(t *testing.T) {
		end := day(19)
		got := engine.StockAt(flour, nil, ledger, &end)
		assertDecimal(t, "0", got)
	})

	t.Run("no start replays the whole history", func(t *testing.T) {
		got := engine.StockForPeriod(flour, nil, ledger, Period{})
		assertDecimal(t, "1800", got)
	})
}

func TestBalanceEngine_DayBucketingUsesLocation(t *testing.T) {
	tehran := time.FixedZone("IRST", 3*3600+1800)
	engine := NewBalanceEngine(tehran)
	sugar := newTestMaterial(t, "g", 0)

	// 22:00 UTC on the 4th is already the 5th in Tehran
	late := time.Date(2024, time.March, 4, 22, 0, 0, 0, time.UTC)
	ledger := Ledger{Purchases: []Purchase{purchaseOf(t, sugar, "100", "g", late)}}

	end := time.Date(2024, time.March, 4, 12, 0, 0, 0, tehran)
	assertDecimal(t, "0", engine.StockAt(sugar, nil, ledger, &end))

	end = time.Date(2024, time.March, 5, 0, 30, 0, 0, tehran)
	assertDecimal(t, "100", engine.StockAt(sugar, nil, ledger, &end))
}

func TestBalanceEngine_NeverNegative(t *testing.T) {
	engine := NewBalanceEngine(time.UTC)
	beans := newTestMaterial(t, "g", 0)
	central := newTestWarehouse(t, WarehouseCodeCentral)
	bar := newTestWarehouse(t, "bar")
	waste := newTestWarehouse(t, WarehouseCodeWaste)

	ledger := Ledger{
		Purchases: []Purchase{purchaseOf(t, beans, "100", "g", day(1))},
		Usages:    []Usage{usageOf(beans, "400", "g", day(2))},
		Transfers: []Transfer{
			transferOf(t, beans, central, bar, "50", "g", day(1)),
			transferOf(t, beans, bar, waste, "80", "g", day(2)),
		},
	}

	for _, w := range []*Warehouse{nil, central, bar, waste} {
		got := engine.StockAt(beans, w, ledger, nil)
		assert.False(t, got.IsNegative(), "warehouse %v went negative: %s", w, got)
	}
	assertDecimal(t, "80", engine.StockAt(beans, waste, ledger, nil))
}

func TestBalanceEngine_Additivity(t *testing.T) {
	engine := NewBalanceEngine(time.UTC)
	syrup := newTestMaterial(t, "ml", 0)

	first := Ledger{Purchases: []Purchase{purchaseOf(t, syrup, "1", "l", day(1))}}
	second := Ledger{Purchases: []Purchase{purchaseOf(t, syrup, "250", "ml", day(3))}}
	both := Ledger{Purchases: append(append([]Purchase{}, first.Purchases...), second.Purchases...)}

	a := engine.StockAt(syrup, nil, first, nil)
	b := engine.StockAt(syrup, nil, second, nil)
	assertDecimal(t, a.Add(b).String(), engine.StockAt(syrup, nil, both, nil))
}

func TestBalanceEngine_TransferConservation(t *testing.T) {
	engine := NewBalanceEngine(time.UTC)
	milk := newTestMaterial(t, "ml", 0)
	central := newTestWarehouse(t, WarehouseCodeCentral)
	bar := newTestWarehouse(t, "bar")
	kitchen := newTestWarehouse(t, "kitchen")

	ledger := Ledger{Purchases: []Purchase{purchaseOf(t, milk, "5", "l", day(1))}}
	total := engine.StockAt(milk, central, ledger, nil)

	ledger.Transfers = []Transfer{
		transferOf(t, milk, central, bar, "1.5", "l", day(2)),
		transferOf(t, milk, central, kitchen, "700", "ml", day(2)),
		transferOf(t, milk, bar, central, "200", "ml", day(3)),
	}

	sum := decimal.Zero
	for _, w := range []*Warehouse{central, bar, kitchen} {
		sum = sum.Add(engine.StockAt(milk, w, ledger, nil))
	}
	assertDecimal(t, total.String(), sum)
	assertDecimal(t, "1300", engine.StockAt(milk, bar, ledger, nil))
}

func TestBalanceEngine_IgnoresOtherMaterials(t *testing.T) {
	engine := NewBalanceEngine(time.UTC)
	milk := newTestMaterial(t, "ml", 0)
	tea := newTestMaterial(t, "g", 0)

	ledger := Ledger{
		Purchases: []Purchase{purchaseOf(t, milk, "1", "l", day(1)), purchaseOf(t, tea, "300", "g", day(1))},
	}
	assertDecimal(t, "1000", engine.StockAt(milk, nil, ledger, nil))
	assertDecimal(t, "300", engine.StockAt(tea, nil, ledger, nil))
	assertDecimal(t, "0", engine.StockAt(nil, nil, ledger, nil))
}
