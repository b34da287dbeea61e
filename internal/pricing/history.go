package pricing

import (
	"sort"
	"strings"

	"github.com/Veraticus/clearance/internal/model"
)

// History is an immutable index of historical unit prices keyed by product name and reference currency.
type History struct {
	buckets map[string][]float64
}

// HistoryKey builds the bucket key "name|CURRENCY".
func HistoryKey(name, currency string) string {
	return strings.TrimSpace(name) + "|" + strings.ToUpper(strings.TrimSpace(currency))
}

// ReferencePrice returns the unit price that is comparable under the header's reference currency:
// the domestic unit cost in domestic-cost mode, otherwise the foreign unit price.
func ReferencePrice(item model.LineItem, domesticCostMode bool) float64 {
	if domesticCostMode {
		return item.UnitCostDomestic.Float()
	}
	return item.UnitPriceForeign.Float()
}

// BuildHistory indexes every named historical item with a positive reference unit price.
// Prices recorded in domestic-cost mode are never mixed with foreign-mode prices.
func BuildHistory(records []model.HistoricalRecord) History {
	buckets := make(map[string][]float64)

	for _, record := range records {
		currency := record.Header.ReferenceCurrency()
		for _, item := range record.Items {
			name := item.Name()
			if name == "" {
				continue
			}
			price := ReferencePrice(item, record.Header.UseDomesticCostMode)
			if price <= 0 {
				continue
			}
			key := HistoryKey(name, currency)
			buckets[key] = append(buckets[key], price)
		}
	}

	return History{buckets: buckets}
}

// Lookup returns a copy of the prices recorded for a name and reference currency,
// or an empty slice when there is no history.
func (h History) Lookup(name, currency string) []float64 {
	prices := h.buckets[HistoryKey(name, currency)]
	out := make([]float64, len(prices))
	copy(out, prices)
	return out
}

// Len returns the number of buckets.
func (h History) Len() int {
	return len(h.buckets)
}

// Keys returns the bucket keys in sorted order.
func (h History) Keys() []string {
	keys := make([]string, 0, len(h.buckets))
	for k := range h.buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Average returns the mean of the prices; the second result is false for an empty slice.
func Average(prices []float64) (float64, bool) {
	if len(prices) == 0 {
		return 0, false
	}
	var sum float64
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices)), true
}
