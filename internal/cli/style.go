package cli

import "github.com/charmbracelet/lipgloss"

var headerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("#FAFAFA")).
	Background(lipgloss.Color("#2F6F4F")).
	Padding(1, 5).
	MarginBottom(1).
	Align(lipgloss.Center).
	Border(lipgloss.RoundedBorder())
