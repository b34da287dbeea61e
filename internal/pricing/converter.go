// Package pricing converts domestic procurement costs into foreign sale prices and
// aggregates historical unit prices for anomaly checks.
package pricing

import (
	"math"

	"github.com/Veraticus/clearance/internal/model"
	"github.com/shopspring/decimal"
)

// UnitPricePlaces is the precision of derived unit prices.
const UnitPricePlaces = 4

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// DomesticCostToForeignPrice embeds the unrecovered share of VAT into the domestic cost and
// converts it at the exchange rate, truncated to whole currency units:
//
//	adjusted = cost * (1 + vat - refund) / (1 + vat)
//	result   = floor(adjusted / rate)
//
// It returns 0 when the rate or the cost is not positive or any input is not finite;
// callers treat 0 as "clear the derived field".
func DomesticCostToForeignPrice(totalDomesticCost, exchangeRate, vatPercent, refundPercent float64) float64 {
	if !allFinite(totalDomesticCost, exchangeRate, vatPercent, refundPercent) {
		return 0
	}
	if exchangeRate <= 0 || totalDomesticCost <= 0 {
		return 0
	}

	v := decimal.NewFromFloat(vatPercent).Div(hundred)
	r := decimal.NewFromFloat(refundPercent).Div(hundred)

	divisor := one.Add(v)
	if !divisor.IsPositive() {
		return 0
	}

	adjusted := decimal.NewFromFloat(totalDomesticCost).Mul(one.Add(v).Sub(r)).Div(divisor)
	result := adjusted.Div(decimal.NewFromFloat(exchangeRate)).Floor()
	if result.IsNegative() {
		return 0
	}

	return result.InexactFloat64()
}

// UnitPrice divides a total by a quantity and rounds to four decimal places.
// The second result is false when the quantity is zero or either input is not finite.
func UnitPrice(total, quantity float64) (float64, bool) {
	if quantity == 0 || !allFinite(total, quantity) {
		return 0, false
	}
	unit := decimal.NewFromFloat(total).Div(decimal.NewFromFloat(quantity))
	return unit.Round(UnitPricePlaces).InexactFloat64(), true
}

// Round rounds half away from zero to the given number of decimal places.
// Non-finite values round to 0.
func Round(value float64, places int32) float64 {
	if !allFinite(value) {
		return 0
	}
	return decimal.NewFromFloat(value).Round(places).InexactFloat64()
}

func allFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Reprice recomputes the derived foreign prices of an item in domestic-cost mode.
// A blank total cost is derived from unit cost and quantity first. A zero conversion clears
// both foreign price fields. Outside domestic-cost mode the item is returned unchanged.
func Reprice(item model.LineItem, header model.DocumentHeader) model.LineItem {
	if !header.UseDomesticCostMode {
		return item
	}

	if item.TotalCostDomestic.IsBlank() && !item.UnitCostDomestic.IsBlank() && !item.Quantity.IsBlank() {
		item.TotalCostDomestic = model.Num(Round(item.UnitCostDomestic.Float()*item.Quantity.Float(), 2))
	}

	total := DomesticCostToForeignPrice(
		item.TotalCostDomestic.Float(),
		header.ExchangeRateToDomestic,
		item.VATRate(),
		item.RefundRate(),
	)
	if total == 0 {
		item.TotalPriceForeign = model.Blank()
		item.UnitPriceForeign = model.Blank()
		return item
	}

	item.TotalPriceForeign = model.Num(total)
	if unit, ok := UnitPrice(total, item.Quantity.Float()); ok {
		item.UnitPriceForeign = model.Num(unit)
	} else {
		item.UnitPriceForeign = model.Blank()
	}

	return item
}
