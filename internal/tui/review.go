// Package tui provides the interactive review screen shown before a document with
// critical findings is accepted.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Veraticus/clearance/internal/health"
	"github.com/Veraticus/clearance/internal/model"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Decision is the outcome of a review session.
type Decision int

// Review decisions.
const (
	DecisionPending Decision = iota
	DecisionAcknowledged
	DecisionCancelled
)

const (
	defaultTableHeight = 12
	minTableHeight     = 3
	// title, subtitle, detail box and help line.
	chromeHeight = 10
)

type issueRow struct {
	finding health.Finding
	issue   model.HealthIssue
}

// Model is the bubbletea model of the review screen. It lists one row per issue.
type Model struct {
	title    string
	theme    Theme
	keys     KeyMap
	help     help.Model
	table    table.Model
	rows     []issueRow
	critical int
	warning  int
	decision Decision
	width    int
	height   int
}

// NewModel builds a review model over the findings of a scan.
func NewModel(title string, findings []health.Finding) Model {
	theme := DefaultTheme

	var rows []issueRow
	for _, f := range findings {
		for _, issue := range f.Issues {
			rows = append(rows, issueRow{finding: f, issue: issue})
		}
	}

	columns := []table.Column{
		{Title: "Row", Width: 5},
		{Title: "Product", Width: 24},
		{Title: "HS Code", Width: 12},
		{Title: "Severity", Width: 9},
		{Title: "Field", Width: 20},
		{Title: "Issue", Width: 60},
	}

	tableRows := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, table.Row{
			strconv.Itoa(r.finding.Index + 1),
			r.finding.Item.Name(),
			r.finding.Item.HSCode,
			strings.ToUpper(string(r.issue.Severity)),
			string(r.issue.Field),
			r.issue.Message,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(tableRows),
		table.WithFocused(true),
		table.WithHeight(defaultTableHeight),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(false)
	s.Selected = theme.Selected
	t.SetStyles(s)

	critical, warning := health.Counts(findings)

	return Model{
		title:    title,
		theme:    theme,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		table:    t,
		rows:     rows,
		critical: critical,
		warning:  warning,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.table.SetHeight(max(msg.Height-chromeHeight, minTableHeight))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.ForceQuit), key.Matches(msg, m.keys.Cancel):
			m.decision = DecisionCancelled
			return m, tea.Quit
		case key.Matches(msg, m.keys.Acknowledge):
			m.decision = DecisionAcknowledged
			return m, tea.Quit
		case key.Matches(msg, m.keys.ToggleHelp):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.theme.Title.Render(m.title))
	b.WriteString("\n")
	b.WriteString(m.summary())
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(m.theme.StatusMuted.Render("No issues found."))
		b.WriteString("\n\n")
	} else {
		b.WriteString(m.table.View())
		b.WriteString("\n")
		b.WriteString(m.detail())
		b.WriteString("\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Decision returns the reviewer's decision; DecisionPending until a key ends the session.
func (m Model) Decision() Decision {
	return m.decision
}

// Selected returns the issue under the cursor.
func (m Model) Selected() (health.Finding, model.HealthIssue, bool) {
	cursor := m.table.Cursor()
	if cursor < 0 || cursor >= len(m.rows) {
		return health.Finding{}, model.HealthIssue{}, false
	}
	r := m.rows[cursor]
	return r.finding, r.issue, true
}

func (m Model) summary() string {
	parts := []string{m.theme.Subtitle.Render(fmt.Sprintf("%d issue(s):", len(m.rows)))}
	if m.critical > 0 {
		parts = append(parts, m.theme.StatusCrit.Render(fmt.Sprintf("%d critical", m.critical)))
	}
	if m.warning > 0 {
		parts = append(parts, m.theme.StatusWarn.Render(fmt.Sprintf("%d warning", m.warning)))
	}
	return strings.Join(parts, " ")
}

func (m Model) detail() string {
	finding, issue, ok := m.Selected()
	if !ok {
		return ""
	}

	severity := m.theme.StatusWarn
	if issue.Severity == model.SeverityCritical {
		severity = m.theme.StatusCrit
	}

	lines := []string{
		fmt.Sprintf("Row %d  %s", finding.Index+1, finding.Item.Name()),
		severity.Render(strings.ToUpper(string(issue.Severity))) + "  " + string(issue.Kind),
		issue.Message,
	}

	style := m.theme.Detail
	if m.width > 4 {
		style = style.Width(m.width - 4)
	}
	return style.Render(strings.Join(lines, "\n"))
}
