package model

import (
	"fmt"
	"strings"
	"time"
)

// DomesticCurrency is the currency code of domestic procurement costs.
const DomesticCurrency = "CNY"

// DocumentHeader carries the document-level context the engine consumes.
type DocumentHeader struct {
	Title                  string  `json:"title,omitempty" yaml:"title,omitempty"`
	CurrencyCode           string  `json:"currencyCode" yaml:"currencyCode"`
	ExchangeRateToDomestic float64 `json:"exchangeRateToDomestic" yaml:"exchangeRateToDomestic"`
	UseDomesticCostMode    bool    `json:"useDomesticCostMode" yaml:"useDomesticCostMode"`
}

// Currency returns the upper-cased document currency.
func (h DocumentHeader) Currency() string {
	return strings.ToUpper(strings.TrimSpace(h.CurrencyCode))
}

// ReferenceCurrency returns the basis under which unit prices of this document are comparable:
// the domestic currency in domestic-cost mode, otherwise the document currency.
func (h DocumentHeader) ReferenceCurrency() string {
	if h.UseDomesticCostMode {
		return DomesticCurrency
	}
	return h.Currency()
}

// Validate checks the header fields used for price conversion.
func (h DocumentHeader) Validate() error {
	if h.Currency() == "" {
		return fmt.Errorf("currency code is required")
	}
	if h.UseDomesticCostMode && h.ExchangeRateToDomestic <= 0 {
		return fmt.Errorf("exchange rate must be greater than 0 in domestic cost mode")
	}
	return nil
}

// Document is a header plus its line items, as produced by the editing surface.
type Document struct {
	Header DocumentHeader `json:"header" yaml:"header"`
	Items  []LineItem     `json:"items" yaml:"items"`
}

// HistoricalRecord is an archived document used for price-history aggregation.
type HistoricalRecord struct {
	ArchivedAt time.Time      `json:"archivedAt" yaml:"archivedAt"`
	ID         string         `json:"id" yaml:"id"`
	Header     DocumentHeader `json:"header" yaml:"header"`
	Items      []LineItem     `json:"items" yaml:"items"`
}
