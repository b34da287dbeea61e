package knowledge

import (
	"errors"
	"fmt"
	"io"

	"github.com/Veraticus/clearance/internal/model"
	"gopkg.in/yaml.v3"
)

// ErrEmptyKnowledgeBase is returned when a knowledge-base file defines no entries.
var ErrEmptyKnowledgeBase = errors.New("knowledge base file has no entries")

type file struct {
	Entries []model.ComplianceRule `yaml:"entries"`
}

// LoadYAML reads knowledge-base entries from a YAML document of the form
//
//	entries:
//	  - hsPrefix: "8471.30"
//	    status: normal
//	    taxRefundRatePercent: 13
//	    note: Portable computers
//
// Prefixes are normalized to digits and every entry is validated.
func LoadYAML(r io.Reader) ([]model.ComplianceRule, error) {
	var f file
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyKnowledgeBase
		}
		return nil, fmt.Errorf("failed to decode knowledge base: %w", err)
	}

	if len(f.Entries) == 0 {
		return nil, ErrEmptyKnowledgeBase
	}

	entries := make([]model.ComplianceRule, 0, len(f.Entries))
	for i, entry := range f.Entries {
		entry.HSPrefix = NormalizeHSCode(entry.HSPrefix)
		if entry.Status == "" {
			entry.Status = model.StatusNormal
		}
		if err := entry.Validate(); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
