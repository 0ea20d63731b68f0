package tui

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.AdaptiveColor{Light: "#00A68C", Dark: "#00F5D0"}
	subtleColor = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6B7280"}
	errorColor  = lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5F5F"}
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor).MarginBottom(1)

	labelStyle        = lipgloss.NewStyle().Bold(true).Width(10)
	focusedLabelStyle = labelStyle.Foreground(accentColor)

	hintStyle     = lipgloss.NewStyle().Foreground(subtleColor)
	fieldErrStyle = lipgloss.NewStyle().Foreground(errorColor).PaddingLeft(10)
	noticeStyle   = lipgloss.NewStyle().Foreground(accentColor)

	alertStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(errorColor).
			Padding(0, 1)

	dropdownStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(subtleColor).
			MarginLeft(10)

	candidateStyle       = lipgloss.NewStyle().PaddingLeft(1)
	activeCandidateStyle = lipgloss.NewStyle().Bold(true).Foreground(accentColor)

	buttonStyle       = lipgloss.NewStyle().Padding(0, 2).Foreground(lipgloss.Color("#000000")).Background(subtleColor)
	activeButtonStyle = buttonStyle.Background(accentColor).Bold(true)
)
