// Package health produces per-item diagnostic reports and batch findings for trade documents.
package health

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/Veraticus/clearance/internal/knowledge"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/Veraticus/clearance/internal/pricing"
	"github.com/Veraticus/clearance/internal/rules"
)

// Session is the read-only context one health check runs against.
type Session struct {
	Knowledge        knowledge.Base
	Rules            *rules.Matcher
	History          pricing.History
	CurrencyCode     string
	DomesticCostMode bool
}

// NewSession builds a session for a document header.
func NewSession(header model.DocumentHeader, kb knowledge.Base, matcher *rules.Matcher, history pricing.History) Session {
	return Session{
		Knowledge:        kb,
		Rules:            matcher,
		History:          history,
		CurrencyCode:     header.Currency(),
		DomesticCostMode: header.UseDomesticCostMode,
	}
}

// referenceCurrency mirrors how history buckets are keyed.
func (s Session) referenceCurrency() string {
	if s.DomesticCostMode {
		return model.DomesticCurrency
	}
	return strings.ToUpper(strings.TrimSpace(s.CurrencyCode))
}

type check struct {
	name string
	run  func(model.LineItem, Session) []model.HealthIssue
}

// Evaluator runs the built-in checks and the user rules against line items.
type Evaluator struct {
	thresholds Thresholds
	checks     []check
}

// NewEvaluator creates an evaluator with the given thresholds.
func NewEvaluator(thresholds Thresholds) *Evaluator {
	e := &Evaluator{thresholds: thresholds}
	e.checks = []check{
		{name: "physical", run: e.checkPhysical},
		{name: "packaging", run: e.checkPackaging},
		{name: "price", run: e.checkPrice},
		{name: "regulatory", run: e.checkRegulatory},
		{name: "completeness", run: e.checkCompleteness},
		{name: "rules", run: e.checkRules},
	}
	return e
}

// Thresholds returns the limits the evaluator was built with.
func (e *Evaluator) Thresholds() Thresholds {
	return e.thresholds
}

// Check runs every check against the item. A failing check is logged and contributes nothing;
// the remaining checks still run.
func (e *Evaluator) Check(item model.LineItem, sess Session) model.HealthReport {
	var issues []model.HealthIssue
	for _, c := range e.checks {
		issues = append(issues, runCheck(c, item, sess)...)
	}
	return model.NewHealthReport(issues)
}

func runCheck(c check, item model.LineItem, sess Session) (issues []model.HealthIssue) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Health check failed",
				"check", c.name,
				"item", item.Name(),
				"error", fmt.Sprint(r))
			issues = nil
		}
	}()
	return c.run(item, sess)
}

func (e *Evaluator) checkPhysical(item model.LineItem, _ Session) []model.HealthIssue {
	net, gross := item.NetWeight.Float(), item.GrossWeight.Float()
	if net <= gross {
		return nil
	}
	return []model.HealthIssue{{
		Severity: model.SeverityCritical,
		Kind:     model.KindDataInconsistency,
		Field:    model.FieldNetWeight,
		Message:  fmt.Sprintf("Net weight %s kg exceeds gross weight %s kg", formatAmount(net), formatAmount(gross)),
	}}
}

func (e *Evaluator) checkPackaging(item model.LineItem, _ Session) []model.HealthIssue {
	if item.PackageType != model.PackageCartons {
		return nil
	}
	cartons := item.CartonCount.Float()
	if cartons <= 0 {
		return nil
	}

	var issues []model.HealthIssue

	if perCarton := item.GrossWeight.Float() / cartons; perCarton > e.thresholds.CartonWeightKg {
		issues = append(issues, model.HealthIssue{
			Severity: model.SeverityWarning,
			Kind:     model.KindPlausibility,
			Field:    model.FieldGrossWeight,
			Message: fmt.Sprintf("Gross weight per carton is %s kg (over %s kg); consider %s as the package unit",
				formatAmount(perCarton), formatAmount(e.thresholds.CartonWeightKg), model.PackagePallets),
		})
	}

	if perCarton := item.Volume.Float() / cartons; perCarton > e.thresholds.CartonVolumeM3 {
		issues = append(issues, model.HealthIssue{
			Severity: model.SeverityWarning,
			Kind:     model.KindPlausibility,
			Field:    model.FieldVolume,
			Message: fmt.Sprintf("Volume per carton is %s m³ (over %s m³); check for a misplaced decimal point",
				formatAmount(perCarton), formatAmount(e.thresholds.CartonVolumeM3)),
		})
	}

	return issues
}

func (e *Evaluator) checkPrice(item model.LineItem, sess Session) []model.HealthIssue {
	name := item.Name()
	if name == "" {
		return nil
	}
	current := pricing.ReferencePrice(item, sess.DomesticCostMode)
	if current <= 0 {
		return nil
	}

	currency := sess.referenceCurrency()
	prices := sess.History.Lookup(name, currency)
	if len(prices) < e.thresholds.MinHistorySamples {
		return nil
	}
	avg, ok := pricing.Average(prices)
	if !ok || avg <= 0 {
		return nil
	}

	deviation := (current - avg) / avg
	if math.Abs(deviation) <= e.thresholds.PriceDeviation {
		return nil
	}

	direction := "higher"
	if deviation < 0 {
		direction = "lower"
	}
	field := model.FieldUnitPriceForeign
	if sess.DomesticCostMode {
		field = model.FieldUnitCostDomestic
	}

	return []model.HealthIssue{{
		Severity: model.SeverityWarning,
		Kind:     model.KindPlausibility,
		Field:    field,
		Message: fmt.Sprintf("Unit price is %d%% %s than the historical average %.2f %s (%d records)",
			int(math.Round(math.Abs(deviation)*100)), direction, avg, currency, len(prices)),
	}}
}

func (e *Evaluator) checkRegulatory(item model.LineItem, sess Session) []model.HealthIssue {
	rule, ok := knowledge.Resolve(item.HSCode, sess.Knowledge)
	if !ok {
		return nil
	}

	var issues []model.HealthIssue
	code := knowledge.NormalizeHSCode(item.HSCode)

	if rule.Status == model.StatusBanned {
		issues = append(issues, model.HealthIssue{
			Severity: model.SeverityCritical,
			Kind:     model.KindRegulatoryBlock,
			Field:    model.FieldHSCode,
			Message:  withNote(fmt.Sprintf("HS code %s is banned from export", code), rule.Note),
		})
	}

	if rule.TaxRefundRatePercent == 0 && rule.Status != model.StatusNormal {
		issues = append(issues, model.HealthIssue{
			Severity: model.SeverityWarning,
			Kind:     model.KindRegulatoryWarning,
			Field:    model.FieldTaxRefundRatePercent,
			Message:  withNote(fmt.Sprintf("HS code %s has no export tax refund", code), rule.Note),
		})
	}

	return issues
}

func (e *Evaluator) checkCompleteness(item model.LineItem, _ Session) []model.HealthIssue {
	if strings.TrimSpace(item.HSCode) == "" {
		return nil
	}
	if utf8.RuneCountInString(strings.TrimSpace(item.DeclarationElements)) >= e.thresholds.MinDeclarationLength {
		return nil
	}
	return []model.HealthIssue{{
		Severity: model.SeverityWarning,
		Kind:     model.KindCompleteness,
		Field:    model.FieldDeclarationElements,
		Message:  "Declaration elements are missing or incomplete",
	}}
}

func (e *Evaluator) checkRules(item model.LineItem, sess Session) []model.HealthIssue {
	if sess.Rules == nil {
		return nil
	}
	return sess.Rules.Issues(item)
}

func withNote(msg, note string) string {
	if note = strings.TrimSpace(note); note != "" {
		return msg + ": " + note
	}
	return msg
}

func formatAmount(v float64) string {
	return model.Num(pricing.Round(v, 2)).String()
}
