package normalize

import (
	"context"
	"math"
	"strings"
)

// RateSource yields base-relative exchange rates: for getRates(base), the
// returned map holds units of base currency per one unit of the keyed
// currency.
type RateSource interface {
	GetRates(ctx context.Context, base string) (map[string]float64, error)
}

type Normalizer struct {
	rates     RateSource
	units     *UnitTable
	precision int
}

// Result carries the normalized price along with the currency and unit it
// ended up expressed in; both degrade to the raw values when a rate or unit
// is unknown.
type Result struct {
	Price    float64
	Currency string
	Unit     string
}

func New(rates RateSource, units *UnitTable, precision int) *Normalizer {
	if units == nil {
		units = DefaultUnitTable()
	}
	if precision < 0 {
		precision = 2
	}
	return &Normalizer{rates: rates, units: units, precision: precision}
}

// Normalize converts rawPrice/rawCurrency per packQty packUnit into a price
// per targetUnit in baseCurrency. It never fails: a missing rate keeps the
// original currency, an unknown unit pair keeps the price per packUnit.
// Repeated application with identical targets is idempotent.
func (n *Normalizer) Normalize(ctx context.Context, rawPrice float64, rawCurrency string, packQty float64, packUnit, targetUnit, baseCurrency string) Result {
	price := rawPrice
	currency := strings.ToUpper(strings.TrimSpace(rawCurrency))
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))

	if currency == "" {
		currency = base
	}
	if currency != base && n.rates != nil {
		if rates, err := n.rates.GetRates(ctx, base); err == nil {
			if rate, ok := rates[currency]; ok && rate > 0 {
				price = price * rate
				currency = base
			}
		}
	}

	if packQty <= 0 {
		packQty = 1
	}
	price = price / packQty

	unit := n.units.CanonicalUnit(packUnit)
	if strings.TrimSpace(packUnit) == "" {
		unit = n.units.CanonicalUnit(targetUnit)
	} else if n.units.Convertible(packUnit, targetUnit) {
		from, _ := n.units.Lookup(packUnit)
		to, _ := n.units.Lookup(targetUnit)
		// price per pack unit -> per standard unit -> per target unit
		price = price / from.Factor * to.Factor
		unit = n.units.CanonicalUnit(targetUnit)
	}

	return Result{Price: n.round(price), Currency: currency, Unit: unit}
}

// TargetUnitFor picks the target unit for a row: explicit category default
// first, then the pack unit's own standard unit, then count.
func (n *Normalizer) TargetUnitFor(category, packUnit string) string {
	if unit, ok := n.units.DefaultUnitForCategory(category); ok {
		return unit
	}
	if conv, ok := n.units.Lookup(packUnit); ok {
		return conv.StandardUnit
	}
	return "pcs"
}

func (n *Normalizer) Units() *UnitTable { return n.units }

func (n *Normalizer) round(v float64) float64 {
	p := math.Pow10(n.precision)
	return math.Round(v*p) / p
}
