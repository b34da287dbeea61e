package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the colors and styles of the review screen.
type Theme struct {
	Primary  lipgloss.Color
	Warning  lipgloss.Color
	Critical lipgloss.Color
	Border   lipgloss.Color
	Muted    lipgloss.Color

	Title       lipgloss.Style
	Subtitle    lipgloss.Style
	Selected    lipgloss.Style
	Detail      lipgloss.Style
	StatusWarn  lipgloss.Style
	StatusCrit  lipgloss.Style
	StatusMuted lipgloss.Style
}

// DefaultTheme is the review screen's default theme.
var DefaultTheme = Theme{
	Primary:  lipgloss.Color("#4D96FF"),
	Warning:  lipgloss.Color("#f59e0b"),
	Critical: lipgloss.Color("#ef4444"),
	Border:   lipgloss.Color("#404040"),
	Muted:    lipgloss.Color("#737373"),

	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#fafafa")).
		MarginBottom(1),
	Subtitle: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#a3a3a3")),
	Selected: lipgloss.NewStyle().
		Background(lipgloss.Color("#4D96FF")).
		Foreground(lipgloss.Color("#fafafa")).
		Bold(true),
	Detail: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#404040")).
		Padding(0, 1),
	StatusWarn: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#f59e0b")).
		Bold(true),
	StatusCrit: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#ef4444")).
		Bold(true),
	StatusMuted: lipgloss.NewStyle().
		Foreground(lipgloss.Color("#737373")).
		Italic(true),
}
