package tui

import (
	"context"
	"fmt"

	"github.com/Veraticus/clearance/internal/health"
	tea "github.com/charmbracelet/bubbletea"
)

// Review shows the findings full-screen and blocks until the reviewer acknowledges or cancels.
// Without findings there is nothing to review and it returns true immediately.
func Review(ctx context.Context, title string, findings []health.Finding, opts ...tea.ProgramOption) (bool, error) {
	if len(findings) == 0 {
		return true, nil
	}

	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(NewModel(title, findings), opts...)

	final, err := p.Run()
	if err != nil {
		return false, fmt.Errorf("review session failed: %w", err)
	}

	m, ok := final.(Model)
	if !ok {
		return false, fmt.Errorf("unexpected review model %T", final)
	}

	return m.Decision() == DecisionAcknowledged, nil
}
