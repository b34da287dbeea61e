// Package knowledge resolves the regulatory status of HS codes against a compliance knowledge base.
package knowledge

import (
	"strings"
	"unicode"

	"github.com/Veraticus/clearance/internal/model"
)

// Base maps normalized HS-code prefixes to compliance entries.
type Base map[string]model.ComplianceRule

// NewBase indexes entries by their normalized prefix. Later entries win on duplicate prefixes.
func NewBase(entries []model.ComplianceRule) Base {
	kb := make(Base, len(entries))
	for _, entry := range entries {
		prefix := NormalizeHSCode(entry.HSPrefix)
		if prefix == "" {
			continue
		}
		entry.HSPrefix = prefix
		kb[prefix] = entry
	}
	return kb
}

// NormalizeHSCode strips everything but digits, so "8471.30.00" becomes "84713000".
func NormalizeHSCode(hsCode string) string {
	var b strings.Builder
	b.Grow(len(hsCode))
	for _, c := range hsCode {
		if unicode.IsDigit(c) && c < unicode.MaxASCII {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Resolve looks up the full code, then its 8-digit and 6-digit headings.
// The most specific hit wins; the second result is false when nothing matches.
func Resolve(hsCode string, kb Base) (model.ComplianceRule, bool) {
	code := NormalizeHSCode(hsCode)
	if code == "" || len(kb) == 0 {
		return model.ComplianceRule{}, false
	}

	for _, key := range lookupKeys(code) {
		if rule, ok := kb[key]; ok {
			return rule, true
		}
	}

	return model.ComplianceRule{}, false
}

func lookupKeys(code string) []string {
	keys := []string{code}
	if len(code) > 8 {
		keys = append(keys, code[:8])
	}
	if len(code) > 6 {
		keys = append(keys, code[:6])
	}
	return keys
}
