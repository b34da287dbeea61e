package model

import (
	"fmt"
	"strings"
	"time"
)

// Operator is a comparison in a user rule.
type Operator string

// Operator constants.
const (
	OpGreaterThan  Operator = "gt"
	OpGreaterEqual Operator = "gte"
	OpLessThan     Operator = "lt"
	OpLessEqual    Operator = "lte"
	OpEqual        Operator = "eq"
	OpNotEqual     Operator = "neq"
	OpContains     Operator = "contains"
	OpNotContains  Operator = "not_contains"
	OpEmpty        Operator = "empty"
	OpNotEmpty     Operator = "not_empty"
)

// Operators lists every operator a rule may use.
func Operators() []Operator {
	return []Operator{
		OpGreaterThan, OpGreaterEqual, OpLessThan, OpLessEqual,
		OpEqual, OpNotEqual, OpContains, OpNotContains, OpEmpty, OpNotEmpty,
	}
}

// IsUnary reports whether the operator ignores the comparison side.
func (o Operator) IsUnary() bool {
	return o == OpEmpty || o == OpNotEmpty
}

// CompareMode selects what a rule compares its target against.
type CompareMode string

// Compare mode constants.
const (
	CompareValue CompareMode = "value"
	CompareField CompareMode = "field"
)

// UserRule is a conditional rule authored outside the engine.
type UserRule struct {
	CreatedAt    time.Time   `json:"createdAt,omitempty" yaml:"-"`
	UpdatedAt    time.Time   `json:"updatedAt,omitempty" yaml:"-"`
	ID           string      `json:"id" yaml:"id"`
	Name         string      `json:"name" yaml:"name"`
	TargetField  Field       `json:"targetField" yaml:"targetField"`
	Operator     Operator    `json:"operator" yaml:"operator"`
	CompareMode  CompareMode `json:"compareMode" yaml:"compareMode"`
	CompareValue string      `json:"compareValue" yaml:"compareValue"`
	Severity     Severity    `json:"severity" yaml:"severity"`
	Message      string      `json:"message" yaml:"message"`
	Enabled      bool        `json:"enabled" yaml:"enabled"`
}

// Validate rejects rules that reference unknown fields, operators, modes or severities.
func (r *UserRule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("rule name is required")
	}

	if _, err := ParseField(string(r.TargetField)); err != nil {
		return fmt.Errorf("target field: %w", err)
	}

	known := false
	for _, op := range Operators() {
		if r.Operator == op {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown operator %q", r.Operator)
	}

	switch r.CompareMode {
	case CompareValue:
	case CompareField:
		if !r.Operator.IsUnary() {
			if _, err := ParseField(r.CompareValue); err != nil {
				return fmt.Errorf("compare field: %w", err)
			}
		}
	default:
		return fmt.Errorf("unknown compare mode %q", r.CompareMode)
	}

	switch r.Severity {
	case SeverityWarning, SeverityCritical:
	default:
		return fmt.Errorf("rule severity must be %q or %q, got %q", SeverityWarning, SeverityCritical, r.Severity)
	}

	return nil
}

// DisplayMessage returns the configured message, or a default naming the rule.
func (r *UserRule) DisplayMessage() string {
	if msg := strings.TrimSpace(r.Message); msg != "" {
		return msg
	}
	return fmt.Sprintf("Rule %q triggered", r.Name)
}
