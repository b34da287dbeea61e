package rules

import (
	"fmt"
	"log/slog"

	"github.com/Veraticus/clearance/internal/model"
)

// Matcher applies a fixed set of user rules to line items.
type Matcher struct {
	rules    []model.UserRule
	rejected map[string]error
}

// NewMatcher creates a matcher for the given rules. Disabled rules are dropped, and rules that
// fail validation are set aside so one malformed rule cannot affect its siblings.
func NewMatcher(rules []model.UserRule) *Matcher {
	m := &Matcher{
		rejected: make(map[string]error),
	}

	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		if err := rule.Validate(); err != nil {
			m.rejected[ruleKey(rule)] = err
			slog.Warn("Skipping invalid rule",
				"rule_id", rule.ID,
				"rule_name", rule.Name,
				"error", err)
			continue
		}
		m.rules = append(m.rules, rule)
	}

	return m
}

// Rejected returns the validation errors of rules that were set aside, keyed by rule ID or name.
func (m *Matcher) Rejected() map[string]error {
	out := make(map[string]error, len(m.rejected))
	for k, v := range m.rejected {
		out[k] = v
	}
	return out
}

// Match returns the rules whose condition holds for the item, in rule order.
func (m *Matcher) Match(item model.LineItem) []model.UserRule {
	var matches []model.UserRule

	for _, rule := range m.rules {
		if safeEvaluate(rule, item) {
			matches = append(matches, rule)
		}
	}

	return matches
}

// Issues converts every matching rule into a health issue carrying the rule's severity and message.
func (m *Matcher) Issues(item model.LineItem) []model.HealthIssue {
	matches := m.Match(item)
	issues := make([]model.HealthIssue, 0, len(matches))

	for _, rule := range matches {
		issues = append(issues, model.HealthIssue{
			Severity: rule.Severity,
			Kind:     model.KindUserRuleViolation,
			Field:    rule.TargetField,
			Message:  rule.DisplayMessage(),
		})
	}

	return issues
}

// safeEvaluate isolates a single rule: a panic is logged and treated as "no match".
func safeEvaluate(rule model.UserRule, item model.LineItem) (matched bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Rule evaluation failed",
				"rule_id", rule.ID,
				"rule_name", rule.Name,
				"error", fmt.Sprint(r))
			matched = false
		}
	}()

	return Evaluate(rule, item)
}

func ruleKey(rule model.UserRule) string {
	if rule.ID != "" {
		return rule.ID
	}
	return rule.Name
}

// Validate checks a rule at authoring time, before it is stored.
func Validate(rule model.UserRule) error {
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("invalid rule %q: %w", rule.Name, err)
	}
	return nil
}
