package knowledge

import (
	"strings"
	"testing"

	"github.com/Veraticus/clearance/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHSCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "8471300000", want: "8471300000"},
		{in: "8471.30.00", want: "84713000"},
		{in: " 8471 30 ", want: "847130"},
		{in: "HS-6109.10", want: "610910"},
		{in: "", want: ""},
		{in: "n/a", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeHSCode(tt.in))
		})
	}
}

func TestResolve(t *testing.T) {
	full := model.ComplianceRule{HSPrefix: "8471300000", Status: model.StatusBanned, Note: "ten"}
	eight := model.ComplianceRule{HSPrefix: "84713000", Status: model.StatusWarning, Note: "eight"}
	six := model.ComplianceRule{HSPrefix: "847130", Status: model.StatusNormal, Note: "six", TaxRefundRatePercent: 13}

	tests := []struct {
		name     string
		kb       Base
		hsCode   string
		wantNote string
		wantOK   bool
	}{
		{name: "exact match beats prefixes", kb: NewBase([]model.ComplianceRule{six, eight, full}), hsCode: "8471300000", wantNote: "ten", wantOK: true},
		{name: "eight digit beats six digit", kb: NewBase([]model.ComplianceRule{six, eight}), hsCode: "8471300000", wantNote: "eight", wantOK: true},
		{name: "six digit fallback", kb: NewBase([]model.ComplianceRule{six}), hsCode: "8471300000", wantNote: "six", wantOK: true},
		{name: "punctuation is ignored", kb: NewBase([]model.ComplianceRule{eight}), hsCode: "8471.30.00.00", wantNote: "eight", wantOK: true},
		{name: "eight digit code does not try itself twice", kb: NewBase([]model.ComplianceRule{six}), hsCode: "84713000", wantNote: "six", wantOK: true},
		{name: "six digit code exact only", kb: NewBase([]model.ComplianceRule{eight}), hsCode: "847130", wantOK: false},
		{name: "no four digit fallback", kb: NewBase([]model.ComplianceRule{{HSPrefix: "8471", Status: model.StatusBanned}}), hsCode: "8471300000", wantOK: false},
		{name: "blank code", kb: NewBase([]model.ComplianceRule{six}), hsCode: "", wantOK: false},
		{name: "empty knowledge base", kb: Base{}, hsCode: "8471300000", wantOK: false},
		{name: "nil knowledge base", kb: nil, hsCode: "8471300000", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := Resolve(tt.hsCode, tt.kb)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantNote, rule.Note)
		})
	}
}

func TestLoadYAML(t *testing.T) {
	t.Run("valid file", func(t *testing.T) {
		doc := `
entries:
  - hsPrefix: "8471.30"
    status: normal
    taxRefundRatePercent: 13
    note: Portable computers
  - hsPrefix: "930100"
    status: banned
    taxRefundRatePercent: 0
    note: Military weapons
  - hsPrefix: "2903"
    taxRefundRatePercent: 9
`
		entries, err := LoadYAML(strings.NewReader(doc))
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, "847130", entries[0].HSPrefix)
		assert.Equal(t, model.StatusBanned, entries[1].Status)
		assert.Equal(t, model.StatusNormal, entries[2].Status, "status defaults to normal")
		assert.InDelta(t, 9, entries[2].TaxRefundRatePercent, 1e-9)
	})

	t.Run("invalid status", func(t *testing.T) {
		doc := "entries:\n  - hsPrefix: \"8471\"\n    status: forbidden\n"
		_, err := LoadYAML(strings.NewReader(doc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "entry 1")
	})

	t.Run("unknown key", func(t *testing.T) {
		doc := "entries:\n  - hsPrefix: \"8471\"\n    rate: 13\n"
		_, err := LoadYAML(strings.NewReader(doc))
		assert.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		_, err := LoadYAML(strings.NewReader(""))
		assert.ErrorIs(t, err, ErrEmptyKnowledgeBase)
	})
}
