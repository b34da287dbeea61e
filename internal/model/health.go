package model

// Severity grades a single health issue.
type Severity string

// Severity constants.
const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// HealthStatus is the aggregate status of a line item.
type HealthStatus string

// Health status constants.
const (
	HealthHealthy  HealthStatus = "healthy"
	HealthWarning  HealthStatus = "warning"
	HealthCritical HealthStatus = "critical"
)

// IssueKind classifies where an issue came from.
type IssueKind string

// Issue kinds. None of these are errors; they are findings for human review.
const (
	KindDataInconsistency IssueKind = "data_inconsistency"
	KindPlausibility      IssueKind = "plausibility_warning"
	KindRegulatoryBlock   IssueKind = "regulatory_block"
	KindRegulatoryWarning IssueKind = "regulatory_warning"
	KindCompleteness      IssueKind = "completeness_warning"
	KindUserRuleViolation IssueKind = "user_rule_violation"
)

// HealthIssue is one finding about a line item.
type HealthIssue struct {
	Severity Severity  `json:"severity"`
	Kind     IssueKind `json:"kind"`
	Field    Field     `json:"field"`
	Message  string    `json:"message"`
}

// HealthReport is the diagnostic result for one line item.
type HealthReport struct {
	Status HealthStatus  `json:"status"`
	Issues []HealthIssue `json:"issues"`
}

// NewHealthReport aggregates issues: critical if any issue is critical,
// warning if any issue exists, healthy otherwise.
func NewHealthReport(issues []HealthIssue) HealthReport {
	if issues == nil {
		issues = []HealthIssue{}
	}

	status := HealthHealthy
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			status = HealthCritical
			break
		}
		status = HealthWarning
	}

	return HealthReport{Status: status, Issues: issues}
}

// HasCritical reports whether any issue is critical.
func (r HealthReport) HasCritical() bool {
	return r.Status == HealthCritical
}
