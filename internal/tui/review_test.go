package tui

import (
	"context"
	"testing"

	"github.com/Veraticus/clearance/internal/health"
	"github.com/Veraticus/clearance/internal/model"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFindings() []health.Finding {
	rifle := model.NewLineItem()
	rifle.ProductNameLocal = "Rifle"
	rifle.HSCode = "9301000000"

	widget := model.NewLineItem()
	widget.ProductNameLocal = "Widget"
	widget.HSCode = "8471300000"

	return []health.Finding{
		{
			Index:  0,
			Item:   rifle,
			Status: model.HealthCritical,
			Issues: []model.HealthIssue{
				{Severity: model.SeverityCritical, Kind: model.KindRegulatoryBlock, Field: model.FieldHSCode, Message: "Export of this HS code is prohibited"},
				{Severity: model.SeverityWarning, Kind: model.KindRegulatoryWarning, Field: model.FieldTaxRefundRatePercent, Message: "No export tax refund"},
			},
		},
		{
			Index:  3,
			Item:   widget,
			Status: model.HealthWarning,
			Issues: []model.HealthIssue{
				{Severity: model.SeverityWarning, Kind: model.KindCompleteness, Field: model.FieldDeclarationElements, Message: "Declaration elements are missing or incomplete"},
			},
		},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nextModel, ok := next.(Model)
	require.True(t, ok)
	return nextModel, cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestModelDecisions(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.KeyMsg
		want Decision
	}{
		{name: "y acknowledges", msg: keyRunes("y"), want: DecisionAcknowledged},
		{name: "a acknowledges", msg: keyRunes("a"), want: DecisionAcknowledged},
		{name: "n cancels", msg: keyRunes("n"), want: DecisionCancelled},
		{name: "q cancels", msg: keyRunes("q"), want: DecisionCancelled},
		{name: "esc cancels", msg: tea.KeyMsg{Type: tea.KeyEsc}, want: DecisionCancelled},
		{name: "ctrl+c cancels", msg: tea.KeyMsg{Type: tea.KeyCtrlC}, want: DecisionCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel("Review", testFindings())
			assert.Equal(t, DecisionPending, m.Decision())

			m, cmd := update(t, m, tt.msg)
			assert.Equal(t, tt.want, m.Decision())
			assert.True(t, isQuit(cmd))
		})
	}
}

func TestModelNavigation(t *testing.T) {
	m := NewModel("Review", testFindings())

	_, issue, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, model.KindRegulatoryBlock, issue.Kind)

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})
	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyDown})

	finding, issue, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, 3, finding.Index)
	assert.Equal(t, model.KindCompleteness, issue.Kind)
	assert.Equal(t, DecisionPending, m.Decision())
}

func TestModelView(t *testing.T) {
	m := NewModel("Invoice 42", testFindings())
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 40})

	view := m.View()
	assert.Contains(t, view, "Invoice 42")
	assert.Contains(t, view, "3 issue(s):")
	assert.Contains(t, view, "1 critical")
	assert.Contains(t, view, "1 warning")
	assert.Contains(t, view, "Export of this HS code is prohibited")
}

func TestModelToggleHelp(t *testing.T) {
	m := NewModel("Review", testFindings())
	assert.False(t, m.help.ShowAll)

	m, cmd := update(t, m, keyRunes("?"))
	assert.True(t, m.help.ShowAll)
	assert.Nil(t, cmd)
}

func TestModelEmpty(t *testing.T) {
	m := NewModel("Review", nil)
	_, _, ok := m.Selected()
	assert.False(t, ok)
	assert.Contains(t, m.View(), "No issues found.")
}

func TestReviewWithoutFindings(t *testing.T) {
	ok, err := Review(context.Background(), "Review", nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
