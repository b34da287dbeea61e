// Package storage provides the data persistence layer for clearance.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/clearance/internal/model"
)

// Validation errors.
var (
	ErrNilContext        = errors.New("context cannot be nil")
	ErrEmptyString       = errors.New("string parameter cannot be empty")
	ErrNilParameter      = errors.New("parameter cannot be nil")
	ErrEmptySlice        = errors.New("slice cannot be empty")
	ErrInvalidRule       = errors.New("invalid rule")
	ErrInvalidCompliance = errors.New("invalid compliance rule")
	ErrInvalidDocument   = errors.New("invalid document")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateComplianceRule validates a knowledge-base entry.
func validateComplianceRule(rule *model.ComplianceRule) error {
	if rule == nil {
		return fmt.Errorf("%w: compliance rule", ErrNilParameter)
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCompliance, err)
	}
	return nil
}

// validateComplianceRules validates a batch of knowledge-base entries.
func validateComplianceRules(rules []model.ComplianceRule) error {
	if rules == nil {
		return fmt.Errorf("%w: compliance rules", ErrNilParameter)
	}
	if len(rules) == 0 {
		return fmt.Errorf("%w: compliance rules", ErrEmptySlice)
	}
	for i := range rules {
		if err := validateComplianceRule(&rules[i]); err != nil {
			return fmt.Errorf("compliance rule at index %d: %w", i, err)
		}
	}
	return nil
}

// validateUserRule rejects rules the evaluator could not run.
func validateUserRule(rule *model.UserRule) error {
	if rule == nil {
		return fmt.Errorf("%w: user rule", ErrNilParameter)
	}
	if err := rule.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRule, err)
	}
	return nil
}

// validateDocument validates a document before archiving.
func validateDocument(doc *model.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document", ErrNilParameter)
	}
	if doc.Header.Currency() == "" {
		return fmt.Errorf("%w: missing currency code", ErrInvalidDocument)
	}
	if len(doc.Items) == 0 {
		return fmt.Errorf("%w: no line items", ErrInvalidDocument)
	}
	return nil
}
