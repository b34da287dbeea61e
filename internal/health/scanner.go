package health

import "github.com/Veraticus/clearance/internal/model"

// Finding is a non-healthy item from a batch scan. Index is the item's position in the input.
type Finding struct {
	Item   model.LineItem      `json:"item"`
	Status model.HealthStatus  `json:"status"`
	Issues []model.HealthIssue `json:"issues"`
	Index  int                 `json:"index"`
}

// ScanAll checks every item except placeholder rows and returns those that are not healthy,
// in input order.
func (e *Evaluator) ScanAll(items []model.LineItem, sess Session) []Finding {
	var findings []Finding

	for i, item := range items {
		if item.IsPlaceholder() {
			continue
		}
		report := e.Check(item, sess)
		if report.Status == model.HealthHealthy {
			continue
		}
		findings = append(findings, Finding{
			Index:  i,
			Item:   item,
			Status: report.Status,
			Issues: report.Issues,
		})
	}

	return findings
}

// HasCritical reports whether any finding carries a critical issue.
func HasCritical(findings []Finding) bool {
	for _, f := range findings {
		if f.Status == model.HealthCritical {
			return true
		}
	}
	return false
}

// Counts tallies findings by status.
func Counts(findings []Finding) (critical, warning int) {
	for _, f := range findings {
		switch f.Status {
		case model.HealthCritical:
			critical++
		case model.HealthWarning:
			warning++
		}
	}
	return critical, warning
}
