package model

import "strings"

// DefaultTaxRatePercent is the VAT and export refund rate a new line item starts with.
const DefaultTaxRatePercent = 13

// Package type constants.
const (
	PackageCartons  = "CTNS"
	PackagePallets  = "PLTS"
	PackagePackages = "PKGS"
	PackageBales    = "BALES"
)

// LineItem is one merchandise row of a trade document.
type LineItem struct {
	ProductNameLocal     string `json:"productNameLocal" yaml:"productNameLocal"`
	ProductNameForeign   string `json:"productNameForeign" yaml:"productNameForeign"`
	HSCode               string `json:"hsCode" yaml:"hsCode"`
	Unit                 string `json:"unit" yaml:"unit"`
	PackageType          string `json:"packageType" yaml:"packageType"`
	DeclarationElements  string `json:"declarationElements" yaml:"declarationElements"`
	Remark               string `json:"remark,omitempty" yaml:"remark,omitempty"`
	Quantity             Number `json:"quantity" yaml:"quantity"`
	GrossWeight          Number `json:"grossWeight" yaml:"grossWeight"`
	NetWeight            Number `json:"netWeight" yaml:"netWeight"`
	Volume               Number `json:"volume" yaml:"volume"`
	CartonCount          Number `json:"cartonCount" yaml:"cartonCount"`
	UnitPriceForeign     Number `json:"unitPriceForeign" yaml:"unitPriceForeign"`
	TotalPriceForeign    Number `json:"totalPriceForeign" yaml:"totalPriceForeign"`
	UnitCostDomestic     Number `json:"unitCostDomestic" yaml:"unitCostDomestic"`
	TotalCostDomestic    Number `json:"totalCostDomestic" yaml:"totalCostDomestic"`
	VATRatePercent       Number `json:"vatRatePercent" yaml:"vatRatePercent"`
	TaxRefundRatePercent Number `json:"taxRefundRatePercent" yaml:"taxRefundRatePercent"`
}

// NewLineItem returns a blank row with the default tax rates, as the editing surface creates it.
func NewLineItem() LineItem {
	return LineItem{
		PackageType:          PackageCartons,
		VATRatePercent:       Num(DefaultTaxRatePercent),
		TaxRefundRatePercent: Num(DefaultTaxRatePercent),
	}
}

// Name returns the trimmed local product name, which identifies the product.
func (li LineItem) Name() string {
	return strings.TrimSpace(li.ProductNameLocal)
}

// VATRate returns the VAT percentage, falling back to the default when blank.
func (li LineItem) VATRate() float64 {
	if li.VATRatePercent.IsBlank() {
		return DefaultTaxRatePercent
	}
	return li.VATRatePercent.Float()
}

// RefundRate returns the export refund percentage, falling back to the default when blank.
func (li LineItem) RefundRate() float64 {
	if li.TaxRefundRatePercent.IsBlank() {
		return DefaultTaxRatePercent
	}
	return li.TaxRefundRatePercent.Float()
}

// IsPlaceholder reports whether the row is an unused blank row: no name and no price.
func (li LineItem) IsPlaceholder() bool {
	if strings.TrimSpace(li.ProductNameLocal) != "" || strings.TrimSpace(li.ProductNameForeign) != "" {
		return false
	}
	return li.UnitPriceForeign.Float() == 0 &&
		li.TotalPriceForeign.Float() == 0 &&
		li.UnitCostDomestic.Float() == 0 &&
		li.TotalCostDomestic.Float() == 0
}
