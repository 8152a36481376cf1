package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ledger is the event history of one raw material, loaded from the store.
// Events of other materials are ignored by the engine.
type Ledger struct {
	Purchases []Purchase
	Usages    []Usage
	Transfers []Transfer
}

// Period bounds a balance query by calendar day. Both ends are inclusive and optional.
type Period struct {
	Start *time.Time
	End   *time.Time
}

// AsOf returns the period covering all history up to and including the day of t.
// A nil t means the whole history.
func AsOf(t *time.Time) Period {
	return Period{End: t}
}

// BalanceEngine reconstructs raw-material balances by replaying ledger events.
// It keeps no state between calls.
type BalanceEngine struct {
	loc *time.Location
}

// NewBalanceEngine creates an engine that buckets events into calendar days of loc
func NewBalanceEngine(loc *time.Location) *BalanceEngine {
	if loc == nil {
		loc = time.UTC
	}
	return &BalanceEngine{loc: loc}
}

// Location returns the time zone used to bucket events into days
func (e *BalanceEngine) Location() *time.Location {
	return e.loc
}

// Day truncates t to the start of its calendar day in the engine's time zone
func (e *BalanceEngine) Day(t time.Time) time.Time {
	t = t.In(e.loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, e.loc)
}

// StockAt returns the balance of material in its default unit as of the day of asOf.
// A nil warehouse gives the purchase/usage balance; nil asOf covers all history.
func (e *BalanceEngine) StockAt(material *RawMaterial, warehouse *Warehouse, ledger Ledger, asOf *time.Time) decimal.Decimal {
	return e.StockForPeriod(material, warehouse, ledger, AsOf(asOf))
}

// StockForPeriod returns the closing balance of material for period.
//
// The opening balance is every purchase minus every usage dated before the start day,
// clamped at zero. Purchases minus usages within the period are added to it. For a
// warehouse other than central the purchase/usage balance is replaced by zero. Transfers
// into the warehouse up to the end day are added and transfers out are subtracted.
// The result is never negative.
func (e *BalanceEngine) StockForPeriod(material *RawMaterial, warehouse *Warehouse, ledger Ledger, period Period) decimal.Decimal {
	if material == nil {
		return decimal.Zero
	}

	var start, end *time.Time
	if period.Start != nil {
		d := e.Day(*period.Start)
		start = &d
	}
	if period.End != nil {
		d := e.Day(*period.End)
		end = &d
	}

	opening := decimal.Zero
	delta := decimal.Zero

	for i := range ledger.Purchases {
		p := &ledger.Purchases[i]
		if p.RawMaterialID != material.ID {
			continue
		}
		qty := material.ToDefaultUnit(p.Quantity, p.Unit)
		switch e.bucket(p.EventDate(), start, end) {
		case bucketBefore:
			opening = opening.Add(qty)
		case bucketWithin:
			delta = delta.Add(qty)
		}
	}

	for i := range ledger.Usages {
		u := &ledger.Usages[i]
		if u.RawMaterialID != material.ID {
			continue
		}
		qty := material.ToDefaultUnit(u.Quantity, u.Unit)
		switch e.bucket(u.EventDate(), start, end) {
		case bucketBefore:
			opening = opening.Sub(qty)
		case bucketWithin:
			delta = delta.Sub(qty)
		}
	}

	balance := clampZero(clampZero(opening).Add(delta))
	if warehouse == nil {
		return balance
	}

	if !warehouse.IsCentral() {
		balance = decimal.Zero
	}
	for i := range ledger.Transfers {
		t := &ledger.Transfers[i]
		if t.RawMaterialID != material.ID {
			continue
		}
		if end != nil && e.Day(t.EventDate()).After(*end) {
			continue
		}
		if t.IsInto(warehouse.ID) {
			balance = balance.Add(t.BaseQuantity)
		}
		if t.IsOutOf(warehouse.ID) {
			balance = balance.Sub(t.BaseQuantity)
		}
	}
	return clampZero(balance)
}

type eventBucket int

const (
	bucketBefore eventBucket = iota
	bucketWithin
	bucketAfter
)

func (e *BalanceEngine) bucket(at time.Time, start, end *time.Time) eventBucket {
	day := e.Day(at)
	if start != nil && day.Before(*start) {
		return bucketBefore
	}
	if end != nil && day.After(*end) {
		return bucketAfter
	}
	return bucketWithin
}

func clampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
