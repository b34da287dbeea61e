// Package rules evaluates user-authored conditional rules against line items.
package rules

import (
	"strings"

	"github.com/Veraticus/clearance/internal/model"
)

// Evaluate reports whether a rule's condition holds for the item.
// Unknown fields and operators evaluate to false; Evaluate never panics on bad configuration.
func Evaluate(rule model.UserRule, item model.LineItem) bool {
	target, ok := item.Get(rule.TargetField)
	if !ok {
		return false
	}

	switch rule.Operator {
	case model.OpEmpty:
		return target.IsBlank()
	case model.OpNotEmpty:
		return !target.IsBlank()
	}

	compare, ok := resolveCompare(rule, item)
	if !ok {
		return false
	}

	return compareValues(rule.Operator, target, compare)
}

// resolveCompare returns the right-hand side: the literal compare value or another field.
func resolveCompare(rule model.UserRule, item model.LineItem) (model.Value, bool) {
	if rule.CompareMode == model.CompareField {
		return item.Get(model.Field(strings.TrimSpace(rule.CompareValue)))
	}
	return model.TextValue(rule.CompareValue), true
}

func compareValues(op model.Operator, target, compare model.Value) bool {
	lhs, lhsNumeric := target.Comparable()
	rhs, rhsNumeric := compare.Comparable()
	numeric := lhsNumeric && rhsNumeric

	switch op {
	case model.OpGreaterThan:
		return numeric && lhs > rhs
	case model.OpGreaterEqual:
		return numeric && lhs >= rhs
	case model.OpLessThan:
		return numeric && lhs < rhs
	case model.OpLessEqual:
		return numeric && lhs <= rhs
	case model.OpEqual:
		if numeric {
			return lhs == rhs
		}
		return strings.EqualFold(strings.TrimSpace(target.Text), strings.TrimSpace(compare.Text))
	case model.OpNotEqual:
		if numeric {
			return lhs != rhs
		}
		return !strings.EqualFold(strings.TrimSpace(target.Text), strings.TrimSpace(compare.Text))
	case model.OpContains:
		return containsFold(target.Text, compare.Text)
	case model.OpNotContains:
		return !containsFold(target.Text, compare.Text)
	}

	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
