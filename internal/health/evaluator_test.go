package health

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/Veraticus/clearance/internal/knowledge"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/Veraticus/clearance/internal/pricing"
	"github.com/Veraticus/clearance/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widgetHistory(prices ...float64) pricing.History {
	items := make([]model.LineItem, 0, len(prices))
	for _, p := range prices {
		items = append(items, model.LineItem{ProductNameLocal: "Widget", UnitPriceForeign: model.Num(p)})
	}
	return pricing.BuildHistory([]model.HistoricalRecord{
		{Header: model.DocumentHeader{CurrencyCode: "USD"}, Items: items},
	})
}

func baseItem() model.LineItem {
	item := model.NewLineItem()
	item.ProductNameLocal = "Widget"
	item.HSCode = "8471300000"
	item.DeclarationElements = "brand: none; use: office"
	item.Quantity = model.Num(10)
	item.GrossWeight = model.Num(20)
	item.NetWeight = model.Num(18)
	item.Volume = model.Num(0.5)
	item.CartonCount = model.Num(2)
	item.UnitPriceForeign = model.Num(10)
	item.TotalPriceForeign = model.Num(100)
	return item
}

func kinds(report model.HealthReport) []model.IssueKind {
	out := make([]model.IssueKind, 0, len(report.Issues))
	for _, issue := range report.Issues {
		out = append(out, issue.Kind)
	}
	return out
}

func TestCheck_HealthyItem(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())
	report := e.Check(baseItem(), Session{CurrencyCode: "USD"})

	assert.Equal(t, model.HealthHealthy, report.Status)
	assert.NotNil(t, report.Issues)
	assert.Empty(t, report.Issues)
}

func TestCheck_Physical(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())

	tests := []struct {
		name         string
		net          float64
		gross        float64
		wantCritical bool
	}{
		{name: "net above gross", net: 21, gross: 20, wantCritical: true},
		{name: "net equals gross", net: 20, gross: 20},
		{name: "net below gross", net: 5, gross: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := baseItem()
			item.NetWeight = model.Num(tt.net)
			item.GrossWeight = model.Num(tt.gross)

			report := e.Check(item, Session{})
			if tt.wantCritical {
				assert.Equal(t, model.HealthCritical, report.Status)
				assert.Contains(t, kinds(report), model.KindDataInconsistency)
			} else {
				assert.NotContains(t, kinds(report), model.KindDataInconsistency)
			}
		})
	}
}

func TestCheck_PhysicalFromText(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())

	tests := []struct {
		name         string
		net          string
		gross        string
		wantCritical bool
	}{
		{name: "NaN net reads as blank", net: "NaN", gross: "10"},
		{name: "NaN gross reads as blank", net: "5", gross: "NaN", wantCritical: true},
		{name: "infinite gross reads as blank", net: "5", gross: "Infinity", wantCritical: true},
		{name: "blank gross", net: "5", gross: "", wantCritical: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := baseItem()
			item.Set(model.FieldNetWeight, tt.net)
			item.Set(model.FieldGrossWeight, tt.gross)
			item.CartonCount = model.Blank()

			report := e.Check(item, Session{})
			assert.Equal(t, tt.wantCritical, contains(kinds(report), model.KindDataInconsistency))
			if tt.wantCritical {
				assert.Equal(t, model.HealthCritical, report.Status)
			}
		})
	}
}

func TestCheck_Packaging(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())

	t.Run("heavy cartons suggest pallets", func(t *testing.T) {
		item := baseItem()
		item.GrossWeight = model.Num(120)
		item.NetWeight = model.Num(100)

		report := e.Check(item, Session{})
		require.Len(t, report.Issues, 1)
		assert.Equal(t, model.SeverityWarning, report.Issues[0].Severity)
		assert.Equal(t, model.FieldGrossWeight, report.Issues[0].Field)
		assert.Contains(t, report.Issues[0].Message, model.PackagePallets)
	})

	t.Run("bulky cartons suggest decimal error", func(t *testing.T) {
		item := baseItem()
		item.Volume = model.Num(5)

		report := e.Check(item, Session{})
		require.Len(t, report.Issues, 1)
		assert.Equal(t, model.FieldVolume, report.Issues[0].Field)
	})

	t.Run("only cartons are checked", func(t *testing.T) {
		item := baseItem()
		item.PackageType = model.PackagePallets
		item.GrossWeight = model.Num(900)
		item.NetWeight = model.Num(800)
		item.Volume = model.Num(5)

		assert.Empty(t, e.Check(item, Session{}).Issues)
	})

	t.Run("package type must match exactly", func(t *testing.T) {
		for _, pkg := range []string{"ctns", " CTNS ", "Ctns"} {
			item := baseItem()
			item.PackageType = pkg
			item.GrossWeight = model.Num(900)
			item.NetWeight = model.Num(800)

			assert.Empty(t, e.Check(item, Session{}).Issues, "package type %q", pkg)
		}
	})

	t.Run("zero cartons skip the check", func(t *testing.T) {
		item := baseItem()
		item.CartonCount = model.Num(0)
		item.GrossWeight = model.Num(900)
		item.NetWeight = model.Num(800)

		assert.Empty(t, e.Check(item, Session{}).Issues)
	})
}

var percentPattern = regexp.MustCompile(`(\d+)%`)

func TestCheck_PriceAnomaly(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())

	t.Run("high price against three samples", func(t *testing.T) {
		item := baseItem()
		item.UnitPriceForeign = model.Num(15)

		report := e.Check(item, Session{CurrencyCode: "USD", History: widgetHistory(10, 10, 11)})
		require.Len(t, report.Issues, 1)
		issue := report.Issues[0]
		assert.Equal(t, model.SeverityWarning, issue.Severity)
		assert.Equal(t, model.KindPlausibility, issue.Kind)
		assert.Contains(t, issue.Message, "high")

		m := percentPattern.FindStringSubmatch(issue.Message)
		require.Len(t, m, 2)
		pct, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, pct, 30)
	})

	t.Run("low price", func(t *testing.T) {
		item := baseItem()
		item.UnitPriceForeign = model.Num(5)

		report := e.Check(item, Session{CurrencyCode: "usd", History: widgetHistory(10, 10, 10)})
		require.Len(t, report.Issues, 1)
		assert.Contains(t, report.Issues[0].Message, "low")
		assert.Contains(t, report.Issues[0].Message, "50%")
	})

	t.Run("within threshold", func(t *testing.T) {
		item := baseItem()
		item.UnitPriceForeign = model.Num(12)

		report := e.Check(item, Session{CurrencyCode: "USD", History: widgetHistory(10, 10, 10)})
		assert.Empty(t, report.Issues)
	})

	t.Run("fewer than three samples never flags", func(t *testing.T) {
		for _, price := range []float64{0.01, 15, 1000000} {
			item := baseItem()
			item.UnitPriceForeign = model.Num(price)

			report := e.Check(item, Session{CurrencyCode: "USD", History: widgetHistory(10, 11)})
			assert.Empty(t, report.Issues, "price %v", price)
		}
	})

	t.Run("different currency has no history", func(t *testing.T) {
		item := baseItem()
		item.UnitPriceForeign = model.Num(50)

		report := e.Check(item, Session{CurrencyCode: "EUR", History: widgetHistory(10, 10, 10)})
		assert.Empty(t, report.Issues)
	})

	t.Run("domestic mode compares domestic cost against CNY history", func(t *testing.T) {
		history := pricing.BuildHistory([]model.HistoricalRecord{{
			Header: model.DocumentHeader{CurrencyCode: "USD", UseDomesticCostMode: true},
			Items: []model.LineItem{
				{ProductNameLocal: "Widget", UnitCostDomestic: model.Num(70)},
				{ProductNameLocal: "Widget", UnitCostDomestic: model.Num(70)},
				{ProductNameLocal: "Widget", UnitCostDomestic: model.Num(70)},
			},
		}})
		item := baseItem()
		item.UnitCostDomestic = model.Num(140)

		report := e.Check(item, Session{CurrencyCode: "USD", DomesticCostMode: true, History: history})
		require.Len(t, report.Issues, 1)
		assert.Equal(t, model.FieldUnitCostDomestic, report.Issues[0].Field)
		assert.Contains(t, report.Issues[0].Message, "CNY")
	})

	t.Run("configurable threshold", func(t *testing.T) {
		th := DefaultThresholds()
		th.PriceDeviation = 0.10
		item := baseItem()
		item.UnitPriceForeign = model.Num(12)

		report := NewEvaluator(th).Check(item, Session{CurrencyCode: "USD", History: widgetHistory(10, 10, 10)})
		assert.Len(t, report.Issues, 1)
	})
}

func TestCheck_Regulatory(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())

	tests := []struct {
		name      string
		rule      model.ComplianceRule
		wantKinds []model.IssueKind
		want      model.HealthStatus
	}{
		{
			name:      "banned is critical",
			rule:      model.ComplianceRule{HSPrefix: "847130", Status: model.StatusBanned, TaxRefundRatePercent: 13},
			wantKinds: []model.IssueKind{model.KindRegulatoryBlock},
			want:      model.HealthCritical,
		},
		{
			name:      "zero refund on warning status",
			rule:      model.ComplianceRule{HSPrefix: "847130", Status: model.StatusWarning, TaxRefundRatePercent: 0},
			wantKinds: []model.IssueKind{model.KindRegulatoryWarning},
			want:      model.HealthWarning,
		},
		{
			name:      "banned with zero refund raises both",
			rule:      model.ComplianceRule{HSPrefix: "84713000", Status: model.StatusBanned},
			wantKinds: []model.IssueKind{model.KindRegulatoryBlock, model.KindRegulatoryWarning},
			want:      model.HealthCritical,
		},
		{
			name:      "zero refund on normal status is fine",
			rule:      model.ComplianceRule{HSPrefix: "847130", Status: model.StatusNormal},
			wantKinds: []model.IssueKind{},
			want:      model.HealthHealthy,
		},
		{
			name:      "unrelated prefix",
			rule:      model.ComplianceRule{HSPrefix: "930100", Status: model.StatusBanned},
			wantKinds: []model.IssueKind{},
			want:      model.HealthHealthy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sess := Session{Knowledge: knowledge.NewBase([]model.ComplianceRule{tt.rule})}
			report := e.Check(baseItem(), sess)
			assert.Equal(t, tt.want, report.Status)
			assert.Equal(t, tt.wantKinds, kinds(report))
		})
	}
}

func TestCheck_Completeness(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())

	tests := []struct {
		name     string
		hsCode   string
		elements string
		wantWarn bool
	}{
		{name: "blank elements", hsCode: "8471300000", elements: "", wantWarn: true},
		{name: "short elements", hsCode: "8471300000", elements: " abcd ", wantWarn: true},
		{name: "five characters", hsCode: "8471300000", elements: "abcde"},
		{name: "multibyte characters count once", hsCode: "8471300000", elements: "品牌无型号"},
		{name: "no hs code", hsCode: "", elements: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := baseItem()
			item.HSCode = tt.hsCode
			item.DeclarationElements = tt.elements

			report := e.Check(item, Session{})
			if tt.wantWarn {
				assert.Equal(t, []model.IssueKind{model.KindCompleteness}, kinds(report))
			} else {
				assert.Empty(t, report.Issues)
			}
		})
	}
}

func TestCheck_CustomRules(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())

	netOverGross := model.UserRule{
		ID: "r1", Name: "Net over gross", TargetField: model.FieldNetWeight,
		Operator: model.OpGreaterThan, CompareMode: model.CompareField, CompareValue: string(model.FieldGrossWeight),
		Severity: model.SeverityCritical, Enabled: true,
	}

	t.Run("rule agrees with physical check", func(t *testing.T) {
		sess := Session{Rules: rules.NewMatcher([]model.UserRule{netOverGross})}
		for _, net := range []float64{5, 20, 21, 100} {
			item := baseItem()
			item.NetWeight = model.Num(net)

			report := e.Check(item, sess)
			ks := kinds(report)
			assert.Equal(t,
				contains(ks, model.KindDataInconsistency),
				contains(ks, model.KindUserRuleViolation),
				"net weight %v", net)
		}
	})

	t.Run("rule agrees with physical check on blank weights", func(t *testing.T) {
		sess := Session{Rules: rules.NewMatcher([]model.UserRule{netOverGross})}
		cases := []struct {
			net, gross model.Number
			want       bool
		}{
			{net: model.Num(5), gross: model.Blank(), want: true},
			{net: model.Blank(), gross: model.Num(5), want: false},
			{net: model.Blank(), gross: model.Blank(), want: false},
		}
		for _, c := range cases {
			item := baseItem()
			item.NetWeight, item.GrossWeight = c.net, c.gross

			ks := kinds(e.Check(item, sess))
			assert.Equal(t, c.want, contains(ks, model.KindDataInconsistency), "net %q gross %q", c.net, c.gross)
			assert.Equal(t, c.want, contains(ks, model.KindUserRuleViolation), "net %q gross %q", c.net, c.gross)
		}
	})

	t.Run("disabled rule never contributes", func(t *testing.T) {
		disabled := netOverGross
		disabled.Enabled = false
		always := model.UserRule{
			Name: "Always", TargetField: model.FieldProductNameLocal, Operator: model.OpNotEmpty,
			CompareMode: model.CompareValue, Severity: model.SeverityCritical, Enabled: false,
		}
		sess := Session{Rules: rules.NewMatcher([]model.UserRule{disabled, always})}

		report := e.Check(baseItem(), sess)
		assert.Equal(t, model.HealthHealthy, report.Status)
	})

	t.Run("default message", func(t *testing.T) {
		rule := model.UserRule{
			Name: "Big order", TargetField: model.FieldQuantity, Operator: model.OpGreaterEqual,
			CompareMode: model.CompareValue, CompareValue: "10", Severity: model.SeverityWarning, Enabled: true,
		}
		report := e.Check(baseItem(), Session{Rules: rules.NewMatcher([]model.UserRule{rule})})
		require.Len(t, report.Issues, 1)
		assert.Equal(t, `Rule "Big order" triggered`, report.Issues[0].Message)
	})
}

func TestCheck_FailingCheckDoesNotBlockOthers(t *testing.T) {
	e := NewEvaluator(DefaultThresholds())
	e.checks = append([]check{{
		name: "exploding",
		run: func(model.LineItem, Session) []model.HealthIssue {
			panic("boom")
		},
	}}, e.checks...)

	item := baseItem()
	item.NetWeight = model.Num(50)

	report := e.Check(item, Session{})
	assert.Equal(t, model.HealthCritical, report.Status)
	assert.Equal(t, []model.IssueKind{model.KindDataInconsistency}, kinds(report))
}

func TestNewSession(t *testing.T) {
	header := model.DocumentHeader{CurrencyCode: " usd ", UseDomesticCostMode: true}
	sess := NewSession(header, nil, nil, pricing.History{})

	assert.Equal(t, "USD", sess.CurrencyCode)
	assert.True(t, sess.DomesticCostMode)
	assert.Equal(t, model.DomesticCurrency, sess.referenceCurrency())
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())

	th := DefaultThresholds()
	th.CartonWeightKg = 0
	assert.Error(t, th.Validate())

	th = DefaultThresholds()
	th.MinHistorySamples = -1
	assert.Error(t, th.Validate())
}

func contains(ks []model.IssueKind, k model.IssueKind) bool {
	for _, v := range ks {
		if v == k {
			return true
		}
	}
	return false
}
