package consolidate

import (
	"testing"

	"github.com/Veraticus/clearance/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widget(qty, total float64) model.LineItem {
	item := model.NewLineItem()
	item.ProductNameLocal = "Widget"
	item.Quantity = model.Num(qty)
	item.TotalPriceForeign = model.Num(total)
	return item
}

func TestConsolidate_MergesByName(t *testing.T) {
	items := []model.LineItem{widget(10, 100), widget(5, 50)}

	got := Consolidate(items)

	require.Len(t, got, 1)
	assert.InDelta(t, 15, got[0].Quantity.Float(), 1e-9)
	assert.InDelta(t, 150, got[0].TotalPriceForeign.Float(), 1e-9)
	assert.InDelta(t, 10.0, got[0].UnitPriceForeign.Float(), 1e-9)
	assert.Equal(t, "10", got[0].UnitPriceForeign.String())
}

func TestConsolidate_SumsAndKeepsFirstFields(t *testing.T) {
	first := widget(3, 30)
	first.ProductNameForeign = "Widget EN"
	first.HSCode = "8471300000"
	first.GrossWeight = model.Num(1.111)
	first.NetWeight = model.Num(1.004)
	first.Volume = model.Num(0.0014)
	first.CartonCount = model.Num(1)
	first.TotalCostDomestic = model.Num(200)

	second := widget(0, 0)
	second.ProductNameLocal = "  Widget "
	second.ProductNameForeign = "Other name"
	second.HSCode = "9999999999"
	second.Quantity = model.Num(3)
	second.TotalPriceForeign = model.Num(31)
	second.GrossWeight = model.Num(2.222)
	second.NetWeight = model.Num(2.003)
	second.Volume = model.Num(0.0012)
	second.CartonCount = model.Num(2)
	second.TotalCostDomestic = model.Num(100)

	got := Consolidate([]model.LineItem{first, second})

	require.Len(t, got, 1)
	m := got[0]
	assert.Equal(t, "Widget", m.ProductNameLocal)
	assert.Equal(t, "Widget EN", m.ProductNameForeign)
	assert.Equal(t, "8471300000", m.HSCode)
	assert.InDelta(t, 6, m.Quantity.Float(), 1e-9)
	assert.InDelta(t, 3, m.CartonCount.Float(), 1e-9)
	assert.InDelta(t, 61, m.TotalPriceForeign.Float(), 1e-9)
	assert.InDelta(t, 10.1667, m.UnitPriceForeign.Float(), 1e-9)
	assert.InDelta(t, 300, m.TotalCostDomestic.Float(), 1e-9)
	assert.InDelta(t, 50, m.UnitCostDomestic.Float(), 1e-9)
	assert.InDelta(t, 3.33, m.GrossWeight.Float(), 1e-9)
	assert.InDelta(t, 3.01, m.NetWeight.Float(), 1e-9)
	assert.InDelta(t, 0.003, m.Volume.Float(), 1e-9)
}

func TestConsolidate_OrderAndBlankNames(t *testing.T) {
	blankA := model.NewLineItem()
	blankA.Remark = "a"
	blankA.Quantity = model.Num(1)
	blankA.UnitPriceForeign = model.Num(7)
	blankB := model.NewLineItem()
	blankB.Remark = "b"

	gadget := widget(1, 5)
	gadget.ProductNameLocal = "Gadget"

	items := []model.LineItem{blankA, widget(1, 10), gadget, blankB, widget(2, 20)}
	got := Consolidate(items)

	require.Len(t, got, 4)
	assert.Equal(t, "a", got[0].Remark)
	assert.InDelta(t, 7, got[0].UnitPriceForeign.Float(), 1e-9, "unnamed items pass through unchanged")
	assert.Equal(t, "Widget", got[1].ProductNameLocal)
	assert.InDelta(t, 3, got[1].Quantity.Float(), 1e-9)
	assert.Equal(t, "Gadget", got[2].ProductNameLocal)
	assert.Equal(t, "b", got[3].Remark)
}

func TestConsolidate_ZeroQuantityBlanksUnitPrices(t *testing.T) {
	a := widget(0, 100)
	a.TotalCostDomestic = model.Num(500)
	b := widget(0, 50)

	got := Consolidate([]model.LineItem{a, b})

	require.Len(t, got, 1)
	assert.True(t, got[0].UnitPriceForeign.IsBlank())
	assert.True(t, got[0].UnitCostDomestic.IsBlank())
	assert.InDelta(t, 150, got[0].TotalPriceForeign.Float(), 1e-9)
}

func TestConsolidate_UnitOnlyRows(t *testing.T) {
	unitOnly := func(qty, price, cost float64) model.LineItem {
		item := model.NewLineItem()
		item.ProductNameLocal = "Bracket"
		item.Quantity = model.Num(qty)
		item.UnitPriceForeign = model.Num(price)
		item.UnitCostDomestic = model.Num(cost)
		return item
	}

	tests := []struct {
		name      string
		items     []model.LineItem
		wantQty   float64
		wantTotal float64
		wantCost  float64
		wantUnit  float64
		wantUCost float64
	}{
		{
			name:    "single row keeps unit values",
			items:   []model.LineItem{unitOnly(10, 3, 20)},
			wantQty: 10, wantTotal: 30, wantCost: 200, wantUnit: 3, wantUCost: 20,
		},
		{
			name:    "merged rows sum derived totals",
			items:   []model.LineItem{unitOnly(10, 3, 20), unitOnly(10, 5, 10)},
			wantQty: 20, wantTotal: 80, wantCost: 300, wantUnit: 4, wantUCost: 15,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Consolidate(tt.items)

			require.Len(t, got, 1)
			m := got[0]
			assert.InDelta(t, tt.wantQty, m.Quantity.Float(), 1e-9)
			assert.InDelta(t, tt.wantTotal, m.TotalPriceForeign.Float(), 1e-9)
			assert.InDelta(t, tt.wantCost, m.TotalCostDomestic.Float(), 1e-9)
			assert.InDelta(t, tt.wantUnit, m.UnitPriceForeign.Float(), 1e-9)
			assert.InDelta(t, tt.wantUCost, m.UnitCostDomestic.Float(), 1e-9)
		})
	}

	t.Run("unit without quantity is kept", func(t *testing.T) {
		item := unitOnly(0, 3, 20)
		item.Quantity = model.Blank()

		got := Consolidate([]model.LineItem{item})
		assert.Equal(t, "3", got[0].UnitPriceForeign.String())
		assert.Equal(t, "20", got[0].UnitCostDomestic.String())
	})
}

func TestConsolidate_NonFiniteText(t *testing.T) {
	for _, text := range []string{"NaN", "Infinity", "-Inf"} {
		t.Run(text, func(t *testing.T) {
			a := widget(10, 100)
			a.Set(model.FieldGrossWeight, text)
			a.Set(model.FieldTotalCostDomestic, text)
			b := widget(5, 50)
			b.GrossWeight = model.Num(2.5)

			header := model.DocumentHeader{CurrencyCode: "USD", ExchangeRateToDomestic: 7, UseDomesticCostMode: true}
			var got []model.LineItem
			require.NotPanics(t, func() {
				got = Consolidate([]model.LineItem{a, b}, WithRepricing(header))
			})

			require.Len(t, got, 1)
			assert.InDelta(t, 2.5, got[0].GrossWeight.Float(), 1e-9)
			assert.True(t, got[0].TotalCostDomestic.IsBlank())
			assert.True(t, got[0].TotalPriceForeign.IsBlank())
		})
	}
}

func TestConsolidate_DoesNotMutateInput(t *testing.T) {
	items := []model.LineItem{widget(10, 100), widget(5, 50)}
	Consolidate(items)

	assert.InDelta(t, 10, items[0].Quantity.Float(), 1e-9)
	assert.InDelta(t, 100, items[0].TotalPriceForeign.Float(), 1e-9)
}

func TestConsolidate_WithRepricing(t *testing.T) {
	header := model.DocumentHeader{CurrencyCode: "USD", ExchangeRateToDomestic: 7, UseDomesticCostMode: true}

	a := widget(4, 0)
	a.TotalCostDomestic = model.Num(565)
	b := widget(3, 0)
	b.TotalCostDomestic = model.Num(565)

	got := Consolidate([]model.LineItem{a, b}, WithRepricing(header))

	require.Len(t, got, 1)
	assert.InDelta(t, 1130, got[0].TotalCostDomestic.Float(), 1e-9)
	assert.InDelta(t, 142, got[0].TotalPriceForeign.Float(), 1e-9)
	assert.InDelta(t, 20.2857, got[0].UnitPriceForeign.Float(), 1e-9)

	t.Run("foreign mode ignores repricing", func(t *testing.T) {
		foreign := header
		foreign.UseDomesticCostMode = false
		got := Consolidate([]model.LineItem{widget(10, 100), widget(5, 50)}, WithRepricing(foreign))
		assert.InDelta(t, 150, got[0].TotalPriceForeign.Float(), 1e-9)
	})

	t.Run("zero cost clears foreign total", func(t *testing.T) {
		got := Consolidate([]model.LineItem{widget(10, 100)}, WithRepricing(header))
		assert.True(t, got[0].TotalPriceForeign.IsBlank())
		assert.True(t, got[0].UnitPriceForeign.IsBlank())
	})
}
