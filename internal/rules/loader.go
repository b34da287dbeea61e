package rules

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Veraticus/clearance/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrNoRules is returned when a rule file defines no rules.
var ErrNoRules = errors.New("rule file has no rules")

type ruleFile struct {
	Rules []fileRule `yaml:"rules"`
}

// fileRule lets a rule file omit enabled (defaults to true) and compareMode (defaults to value).
type fileRule struct {
	Enabled      *bool             `yaml:"enabled"`
	Name         string            `yaml:"name"`
	TargetField  model.Field       `yaml:"targetField"`
	Operator     model.Operator    `yaml:"operator"`
	CompareMode  model.CompareMode `yaml:"compareMode"`
	CompareValue string            `yaml:"compareValue"`
	Severity     model.Severity    `yaml:"severity"`
	Message      string            `yaml:"message"`
}

// LoadYAML reads user rules from a YAML document of the form
//
//	rules:
//	  - name: Weight check
//	    targetField: netWeight
//	    operator: gt
//	    compareMode: field
//	    compareValue: grossWeight
//	    severity: critical
//
// Every rule is validated; the first invalid rule fails the whole file.
func LoadYAML(r io.Reader) ([]model.UserRule, error) {
	var f ruleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRules
		}
		return nil, fmt.Errorf("failed to decode rule file: %w", err)
	}

	if len(f.Rules) == 0 {
		return nil, ErrNoRules
	}

	out := make([]model.UserRule, 0, len(f.Rules))
	for i, fr := range f.Rules {
		rule := model.UserRule{
			Name:         strings.TrimSpace(fr.Name),
			TargetField:  fr.TargetField,
			Operator:     model.Operator(strings.ToLower(string(fr.Operator))),
			CompareMode:  fr.CompareMode,
			CompareValue: fr.CompareValue,
			Severity:     model.Severity(strings.ToLower(string(fr.Severity))),
			Message:      fr.Message,
			Enabled:      fr.Enabled == nil || *fr.Enabled,
		}
		if rule.CompareMode == "" {
			rule.CompareMode = model.CompareValue
		}
		if err := Validate(rule); err != nil {
			return nil, fmt.Errorf("rule %d: %w", i+1, err)
		}
		out = append(out, rule)
	}

	return out, nil
}
