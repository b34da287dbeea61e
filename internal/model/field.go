package model

import (
	"fmt"
	"sort"
	"strings"
)

// Field names a LineItem attribute that rules may reference.
type Field string

// Field constants, named after their document keys.
const (
	FieldProductNameLocal     Field = "productNameLocal"
	FieldProductNameForeign   Field = "productNameForeign"
	FieldHSCode               Field = "hsCode"
	FieldQuantity             Field = "quantity"
	FieldUnit                 Field = "unit"
	FieldGrossWeight          Field = "grossWeight"
	FieldNetWeight            Field = "netWeight"
	FieldVolume               Field = "volume"
	FieldCartonCount          Field = "cartonCount"
	FieldPackageType          Field = "packageType"
	FieldUnitPriceForeign     Field = "unitPriceForeign"
	FieldTotalPriceForeign    Field = "totalPriceForeign"
	FieldUnitCostDomestic     Field = "unitCostDomestic"
	FieldTotalCostDomestic    Field = "totalCostDomestic"
	FieldVATRatePercent       Field = "vatRatePercent"
	FieldTaxRefundRatePercent Field = "taxRefundRatePercent"
	FieldDeclarationElements  Field = "declarationElements"
	FieldRemark               Field = "remark"
)

// Value is a field read through the accessor table.
type Value struct {
	Text        string
	number      float64
	numeric     bool
	numberField bool
}

// Numeric returns the numeric form of the value when it has one.
func (v Value) Numeric() (float64, bool) {
	return v.number, v.numeric
}

// Comparable is Numeric for comparisons: a blank numeric field reads as 0, the way
// arithmetic treats it. Blank text stays non-numeric.
func (v Value) Comparable() (float64, bool) {
	if v.numberField && !v.numeric {
		return 0, true
	}
	return v.number, v.numeric
}

// IsBlank reports whether the value is missing or whitespace only.
func (v Value) IsBlank() bool {
	return strings.TrimSpace(v.Text) == ""
}

// TextValue builds a Value from free text, coercing it to a number when it parses as one.
func TextValue(s string) Value {
	n := ParseNumber(s)
	return Value{Text: s, number: n.Float(), numeric: !n.IsBlank()}
}

// NumberValue builds a Value from a Number; blank numbers are not Numeric but are Comparable as 0.
func NumberValue(n Number) Value {
	return Value{Text: n.String(), number: n.Float(), numeric: !n.IsBlank(), numberField: true}
}

func text(get func(LineItem) string) func(LineItem) Value {
	return func(li LineItem) Value { return TextValue(get(li)) }
}

func number(get func(LineItem) Number) func(LineItem) Value {
	return func(li LineItem) Value { return NumberValue(get(li)) }
}

var fieldAccessors = map[Field]func(LineItem) Value{
	FieldProductNameLocal:     text(func(li LineItem) string { return li.ProductNameLocal }),
	FieldProductNameForeign:   text(func(li LineItem) string { return li.ProductNameForeign }),
	FieldHSCode:               text(func(li LineItem) string { return li.HSCode }),
	FieldUnit:                 text(func(li LineItem) string { return li.Unit }),
	FieldPackageType:          text(func(li LineItem) string { return li.PackageType }),
	FieldDeclarationElements:  text(func(li LineItem) string { return li.DeclarationElements }),
	FieldRemark:               text(func(li LineItem) string { return li.Remark }),
	FieldQuantity:             number(func(li LineItem) Number { return li.Quantity }),
	FieldGrossWeight:          number(func(li LineItem) Number { return li.GrossWeight }),
	FieldNetWeight:            number(func(li LineItem) Number { return li.NetWeight }),
	FieldVolume:               number(func(li LineItem) Number { return li.Volume }),
	FieldCartonCount:          number(func(li LineItem) Number { return li.CartonCount }),
	FieldUnitPriceForeign:     number(func(li LineItem) Number { return li.UnitPriceForeign }),
	FieldTotalPriceForeign:    number(func(li LineItem) Number { return li.TotalPriceForeign }),
	FieldUnitCostDomestic:     number(func(li LineItem) Number { return li.UnitCostDomestic }),
	FieldTotalCostDomestic:    number(func(li LineItem) Number { return li.TotalCostDomestic }),
	FieldVATRatePercent:       number(func(li LineItem) Number { return li.VATRatePercent }),
	FieldTaxRefundRatePercent: number(func(li LineItem) Number { return li.TaxRefundRatePercent }),
}

// ParseField validates a field name against the accessor table.
func ParseField(name string) (Field, error) {
	f := Field(strings.TrimSpace(name))
	if _, ok := fieldAccessors[f]; !ok {
		return "", fmt.Errorf("unknown field %q", name)
	}
	return f, nil
}

// Fields lists every field rules may reference, sorted by name.
func Fields() []Field {
	fields := make([]Field, 0, len(fieldAccessors))
	for f := range fieldAccessors {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })
	return fields
}

// Get reads a field. The second result is false for fields outside the accessor table.
func (li LineItem) Get(f Field) (Value, bool) {
	get, ok := fieldAccessors[f]
	if !ok {
		return Value{}, false
	}
	return get(li), true
}

var fieldSetters = map[Field]func(*LineItem, string){
	FieldProductNameLocal:     func(li *LineItem, s string) { li.ProductNameLocal = s },
	FieldProductNameForeign:   func(li *LineItem, s string) { li.ProductNameForeign = s },
	FieldHSCode:               func(li *LineItem, s string) { li.HSCode = s },
	FieldUnit:                 func(li *LineItem, s string) { li.Unit = s },
	FieldPackageType:          func(li *LineItem, s string) { li.PackageType = s },
	FieldDeclarationElements:  func(li *LineItem, s string) { li.DeclarationElements = s },
	FieldRemark:               func(li *LineItem, s string) { li.Remark = s },
	FieldQuantity:             func(li *LineItem, s string) { li.Quantity = ParseNumber(s) },
	FieldGrossWeight:          func(li *LineItem, s string) { li.GrossWeight = ParseNumber(s) },
	FieldNetWeight:            func(li *LineItem, s string) { li.NetWeight = ParseNumber(s) },
	FieldVolume:               func(li *LineItem, s string) { li.Volume = ParseNumber(s) },
	FieldCartonCount:          func(li *LineItem, s string) { li.CartonCount = ParseNumber(s) },
	FieldUnitPriceForeign:     func(li *LineItem, s string) { li.UnitPriceForeign = ParseNumber(s) },
	FieldTotalPriceForeign:    func(li *LineItem, s string) { li.TotalPriceForeign = ParseNumber(s) },
	FieldUnitCostDomestic:     func(li *LineItem, s string) { li.UnitCostDomestic = ParseNumber(s) },
	FieldTotalCostDomestic:    func(li *LineItem, s string) { li.TotalCostDomestic = ParseNumber(s) },
	FieldVATRatePercent:       func(li *LineItem, s string) { li.VATRatePercent = ParseNumber(s) },
	FieldTaxRefundRatePercent: func(li *LineItem, s string) { li.TaxRefundRatePercent = ParseNumber(s) },
}

// Set writes a field from its textual form. Numeric fields parse the text, so unparseable
// input leaves them blank. The result is false for fields outside the accessor table.
func (li *LineItem) Set(f Field, raw string) bool {
	set, ok := fieldSetters[f]
	if !ok {
		return false
	}
	set(li, raw)
	return true
}

// Columns is the tabular column order of a line item.
var Columns = []Field{
	FieldProductNameLocal,
	FieldProductNameForeign,
	FieldHSCode,
	FieldQuantity,
	FieldUnit,
	FieldGrossWeight,
	FieldNetWeight,
	FieldVolume,
	FieldCartonCount,
	FieldPackageType,
	FieldUnitPriceForeign,
	FieldTotalPriceForeign,
	FieldUnitCostDomestic,
	FieldTotalCostDomestic,
	FieldVATRatePercent,
	FieldTaxRefundRatePercent,
	FieldDeclarationElements,
	FieldRemark,
}
