package model

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// ComplianceStatus is the regulatory standing of an HS code.
type ComplianceStatus string

// Compliance status constants.
const (
	StatusNormal  ComplianceStatus = "normal"
	StatusWarning ComplianceStatus = "warning"
	StatusBanned  ComplianceStatus = "banned"
)

// ComplianceRule is a knowledge-base entry keyed by HS-code prefix.
type ComplianceRule struct {
	UpdatedAt            time.Time        `json:"updatedAt,omitempty" yaml:"-"`
	HSPrefix             string           `json:"hsPrefix" yaml:"hsPrefix"`
	Status               ComplianceStatus `json:"status" yaml:"status"`
	Note                 string           `json:"note" yaml:"note"`
	TaxRefundRatePercent float64          `json:"taxRefundRatePercent" yaml:"taxRefundRatePercent"`
}

// Validate ensures the entry can be stored in the knowledge base.
func (r *ComplianceRule) Validate() error {
	if r.HSPrefix == "" {
		return fmt.Errorf("hs prefix is required")
	}
	for _, c := range r.HSPrefix {
		if !unicode.IsDigit(c) {
			return fmt.Errorf("hs prefix %q must contain digits only", r.HSPrefix)
		}
	}

	switch r.Status {
	case StatusNormal, StatusWarning, StatusBanned:
	default:
		return fmt.Errorf("invalid compliance status %q", r.Status)
	}

	if r.TaxRefundRatePercent < 0 || r.TaxRefundRatePercent > 100 {
		return fmt.Errorf("tax refund rate must be between 0 and 100")
	}

	return nil
}

// ParseComplianceStatus converts user input to a ComplianceStatus.
func ParseComplianceStatus(s string) (ComplianceStatus, error) {
	status := ComplianceStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case StatusNormal, StatusWarning, StatusBanned:
		return status, nil
	}
	return "", fmt.Errorf("invalid compliance status %q", s)
}
