package pricing

import (
	"math"
	"testing"

	"github.com/Veraticus/clearance/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestDomesticCostToForeignPrice(t *testing.T) {
	tests := []struct {
		name   string
		cost   float64
		rate   float64
		vat    float64
		refund float64
		want   float64
	}{
		{name: "full refund embeds no VAT", cost: 1130, rate: 7, vat: 13, refund: 13, want: 142},
		{name: "zero cost is sentinel", cost: 0, rate: 7, vat: 13, refund: 13, want: 0},
		{name: "zero rate is sentinel", cost: 1000, rate: 0, vat: 13, refund: 13, want: 0},
		{name: "negative rate is sentinel", cost: 1000, rate: -7, vat: 13, refund: 13, want: 0},
		{name: "negative cost is sentinel", cost: -500, rate: 7, vat: 13, refund: 13, want: 0},
		{name: "no refund keeps VAT in cost", cost: 1130, rate: 7, vat: 13, refund: 0, want: 161},
		{name: "partial refund", cost: 1130, rate: 7, vat: 13, refund: 9, want: 148},
		{name: "no VAT no refund", cost: 700, rate: 7, vat: 0, refund: 0, want: 100},
		{name: "result is floored", cost: 699.99, rate: 7, vat: 0, refund: 0, want: 99},
		{name: "degenerate VAT is sentinel", cost: 1000, rate: 7, vat: -100, refund: 0, want: 0},
		{name: "infinite cost is sentinel", cost: math.Inf(1), rate: 7, vat: 13, refund: 13, want: 0},
		{name: "NaN cost is sentinel", cost: math.NaN(), rate: 7, vat: 13, refund: 13, want: 0},
		{name: "infinite rate is sentinel", cost: 1130, rate: math.Inf(1), vat: 13, refund: 13, want: 0},
		{name: "NaN refund is sentinel", cost: 1130, rate: 7, vat: 13, refund: math.NaN(), want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DomesticCostToForeignPrice(tt.cost, tt.rate, tt.vat, tt.refund)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestUnitPrice(t *testing.T) {
	unit, ok := UnitPrice(150, 15)
	assert.True(t, ok)
	assert.InDelta(t, 10.0, unit, 1e-9)

	unit, ok = UnitPrice(100, 3)
	assert.True(t, ok)
	assert.InDelta(t, 33.3333, unit, 1e-9)

	unit, ok = UnitPrice(142, 7)
	assert.True(t, ok)
	assert.InDelta(t, 20.2857, unit, 1e-9)

	_, ok = UnitPrice(100, 0)
	assert.False(t, ok)

	_, ok = UnitPrice(math.Inf(1), 3)
	assert.False(t, ok)

	_, ok = UnitPrice(100, math.NaN())
	assert.False(t, ok)
}

func TestRound(t *testing.T) {
	assert.InDelta(t, 1.24, Round(1.235, 2), 1e-9)
	assert.InDelta(t, 0.125, Round(0.12549, 3), 1e-9)
	assert.InDelta(t, -1.24, Round(-1.235, 2), 1e-9)
	assert.Zero(t, Round(math.NaN(), 2))
	assert.Zero(t, Round(math.Inf(-1), 2))
}

func TestReprice(t *testing.T) {
	header := model.DocumentHeader{CurrencyCode: "USD", ExchangeRateToDomestic: 7, UseDomesticCostMode: true}

	t.Run("derives totals and unit price", func(t *testing.T) {
		item := model.NewLineItem()
		item.ProductNameLocal = "Widget"
		item.Quantity = model.Num(7)
		item.TotalCostDomestic = model.Num(1130)

		got := Reprice(item, header)
		assert.InDelta(t, 142, got.TotalPriceForeign.Float(), 1e-9)
		assert.InDelta(t, 20.2857, got.UnitPriceForeign.Float(), 1e-9)
	})

	t.Run("total cost defaults to unit cost times quantity", func(t *testing.T) {
		item := model.NewLineItem()
		item.Quantity = model.Num(10)
		item.UnitCostDomestic = model.Num(113)

		got := Reprice(item, header)
		assert.InDelta(t, 1130, got.TotalCostDomestic.Float(), 1e-9)
		assert.InDelta(t, 142, got.TotalPriceForeign.Float(), 1e-9)
	})

	t.Run("blank tax rates fall back to defaults", func(t *testing.T) {
		item := model.LineItem{Quantity: model.Num(7), TotalCostDomestic: model.Num(1130)}

		got := Reprice(item, header)
		assert.InDelta(t, 142, got.TotalPriceForeign.Float(), 1e-9)
	})

	t.Run("zero sentinel clears derived fields", func(t *testing.T) {
		item := model.NewLineItem()
		item.Quantity = model.Num(7)
		item.TotalPriceForeign = model.Num(99)
		item.UnitPriceForeign = model.Num(14)

		got := Reprice(item, header)
		assert.True(t, got.TotalPriceForeign.IsBlank())
		assert.True(t, got.UnitPriceForeign.IsBlank())
	})

	t.Run("zero quantity leaves unit price blank", func(t *testing.T) {
		item := model.NewLineItem()
		item.TotalCostDomestic = model.Num(1130)

		got := Reprice(item, header)
		assert.InDelta(t, 142, got.TotalPriceForeign.Float(), 1e-9)
		assert.True(t, got.UnitPriceForeign.IsBlank())
	})

	t.Run("non-finite cost text clears derived fields", func(t *testing.T) {
		item := model.NewLineItem()
		item.Quantity = model.Num(7)
		item.Set(model.FieldTotalCostDomestic, "Infinity")
		item.Set(model.FieldUnitCostDomestic, "NaN")

		got := Reprice(item, header)
		assert.True(t, got.TotalPriceForeign.IsBlank())
		assert.True(t, got.UnitPriceForeign.IsBlank())
	})

	t.Run("foreign mode is untouched", func(t *testing.T) {
		item := model.NewLineItem()
		item.Quantity = model.Num(7)
		item.TotalCostDomestic = model.Num(1130)
		item.TotalPriceForeign = model.Num(55)

		got := Reprice(item, model.DocumentHeader{CurrencyCode: "USD", ExchangeRateToDomestic: 7})
		assert.Equal(t, item, got)
	})
}
