package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains the style definitions for the demo.
type Styles struct {
	Title     lipgloss.Style
	Pane      lipgloss.Style
	Focused   lipgloss.Style
	Cursor    lipgloss.Style
	Selected  lipgloss.Style
	Dim       lipgloss.Style
	Status    lipgloss.Style
	Error     lipgloss.Style
	Highlight lipgloss.Style
}

// NewStyles creates the default styles.
func NewStyles() *Styles {
	pane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("241")).
		Padding(0, 1).
		Width(28)

	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1),
		Pane:      pane,
		Focused:   pane.BorderForeground(lipgloss.Color("99")),
		Cursor:    lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		Selected:  lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		Dim:       lipgloss.NewStyle().Faint(true),
		Status:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Highlight: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
	}
}
