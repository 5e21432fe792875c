// Package ui provides the interactive terminal collaborators of erd: the
// yes/no junction prompt and the full-screen history browser.
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles used by line-oriented prompts.
type Styles struct {
	Primary lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Dim     lipgloss.Style
	Bold    lipgloss.Style
}

// DefaultStyles returns the default prompt styles.
func DefaultStyles() *Styles {
	return &Styles{
		Primary: lipgloss.NewStyle().Foreground(lipgloss.Color("12")), // Blue
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")), // Yellow
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")), // Green
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),  // Gray
		Bold:    lipgloss.NewStyle().Bold(true),
	}
}

// PlainStyles renders everything unstyled, for pipes and tests.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{Primary: plain, Warning: plain, Success: plain, Dim: plain, Bold: plain}
}
