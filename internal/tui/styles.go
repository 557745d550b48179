package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#60A5FA"}
	mutedColor  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	errorColor  = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
	textColor   = lipgloss.AdaptiveColor{Light: "#111827", Dark: "#F9FAFB"}

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	subtitleStyle  = lipgloss.NewStyle().Foreground(mutedColor)
	buttonStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	activeStyle    = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
	highlightStyle = lipgloss.NewStyle().Bold(true).Foreground(textColor).Background(accentColor)
	itemStyle      = lipgloss.NewStyle().Foreground(textColor)
	mutedStyle     = lipgloss.NewStyle().Foreground(mutedColor)
	errorStyle     = lipgloss.NewStyle().Bold(true).Foreground(errorColor)

	cardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accentColor).
		Padding(0, 2)
	cardTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(textColor)
	tempStyle      = lipgloss.NewStyle().Bold(true).Foreground(accentColor)
)
