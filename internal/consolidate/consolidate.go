// Package consolidate merges duplicate line items by product name.
package consolidate

import (
	"github.com/Veraticus/clearance/internal/model"
	"github.com/Veraticus/clearance/internal/pricing"
)

// Option configures a consolidation.
type Option func(*options)

type options struct {
	header  model.DocumentHeader
	reprice bool
}

// WithRepricing recomputes the foreign total of each merged group from its domestic cost
// when the header is in domestic-cost mode.
func WithRepricing(header model.DocumentHeader) Option {
	return func(o *options) {
		o.header = header
		o.reprice = true
	}
}

// Consolidate groups items by trimmed local product name. Quantities, totals, cartons, weights
// and volume are summed; every other field comes from the first item of the group. Each group
// takes the position of its first member and unnamed items pass through unchanged.
// A blank total is first filled from unit price times quantity, so rows entered by unit
// keep their value. Unit prices are then re-derived from the merged totals; a total that is
// still blank leaves its unit field as entered. The input slice is not modified.
func Consolidate(items []model.LineItem, opts ...Option) []model.LineItem {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	out := make([]model.LineItem, 0, len(items))
	groups := make(map[string]int)
	var grouped []int

	for _, item := range items {
		name := item.Name()
		if name == "" {
			out = append(out, item)
			continue
		}
		item = fillTotals(item)

		idx, seen := groups[name]
		if !seen {
			groups[name] = len(out)
			grouped = append(grouped, len(out))
			out = append(out, item)
			continue
		}

		merged := &out[idx]
		merged.Quantity = merged.Quantity.Add(item.Quantity)
		merged.TotalCostDomestic = merged.TotalCostDomestic.Add(item.TotalCostDomestic)
		merged.TotalPriceForeign = merged.TotalPriceForeign.Add(item.TotalPriceForeign)
		merged.CartonCount = merged.CartonCount.Add(item.CartonCount)
		merged.GrossWeight = merged.GrossWeight.Add(item.GrossWeight)
		merged.NetWeight = merged.NetWeight.Add(item.NetWeight)
		merged.Volume = merged.Volume.Add(item.Volume)
	}

	for _, idx := range grouped {
		out[idx] = rederive(out[idx], o)
	}

	return out
}

// fillTotals derives blank totals from unit value and quantity, the way pricing.Reprice does.
func fillTotals(item model.LineItem) model.LineItem {
	item.TotalPriceForeign = totalOf(item.TotalPriceForeign, item.UnitPriceForeign, item.Quantity)
	item.TotalCostDomestic = totalOf(item.TotalCostDomestic, item.UnitCostDomestic, item.Quantity)
	return item
}

func totalOf(total, unit, quantity model.Number) model.Number {
	if !total.IsBlank() || unit.IsBlank() || quantity.IsBlank() {
		return total
	}
	return model.Num(pricing.Round(unit.Float()*quantity.Float(), 2))
}

func rederive(item model.LineItem, o options) model.LineItem {
	if o.reprice && o.header.UseDomesticCostMode {
		total := pricing.DomesticCostToForeignPrice(
			item.TotalCostDomestic.Float(),
			o.header.ExchangeRateToDomestic,
			item.VATRate(),
			item.RefundRate(),
		)
		if total == 0 {
			item.TotalPriceForeign = model.Blank()
			item.UnitPriceForeign = model.Blank()
		} else {
			item.TotalPriceForeign = model.Num(total)
		}
	}

	item.UnitPriceForeign = unitOf(item.TotalPriceForeign, item.Quantity, item.UnitPriceForeign)
	item.UnitCostDomestic = unitOf(item.TotalCostDomestic, item.Quantity, item.UnitCostDomestic)

	item.GrossWeight = round(item.GrossWeight, 2)
	item.NetWeight = round(item.NetWeight, 2)
	item.Volume = round(item.Volume, 3)

	return item
}

// unitOf divides total by quantity. A blank total keeps current; a zero quantity yields blank.
func unitOf(total, quantity, current model.Number) model.Number {
	if total.IsBlank() {
		return current
	}
	unit, ok := pricing.UnitPrice(total.Float(), quantity.Float())
	if !ok {
		return model.Blank()
	}
	return model.Num(unit)
}

func round(n model.Number, places int32) model.Number {
	if n.IsBlank() {
		return n
	}
	return model.Num(pricing.Round(n.Float(), places))
}
