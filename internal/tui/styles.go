package tui

import "github.com/charmbracelet/lipgloss"

// ------- styling (Lip Gloss) -------
var (
	brand = lipgloss.Color("#513d80")

	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(brand).
			Padding(1, 3)
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(brand)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(brand).
			Width(3).
			Align(lipgloss.Center)
	focusedBoxStyle = boxStyle.BorderForeground(lipgloss.Color("12")).Bold(true)

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(brand).
			Width(24).
			Align(lipgloss.Center)
	guessStyle = lipgloss.NewStyle().Faint(true)

	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(brand).
			Bold(true).
			Width(24).
			Align(lipgloss.Center)
	focusedButtonStyle = buttonStyle.Reverse(true)

	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	helpStyle    = lipgloss.NewStyle().Faint(true)
)
