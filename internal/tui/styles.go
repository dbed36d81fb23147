package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#FF8C42")
	warm   = lipgloss.Color("#FFB84D")
	muted  = lipgloss.Color("#6B7280")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(muted)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	UnselectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(muted).
				Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF4757")).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(warm).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(muted).
			MarginTop(1)

	ListStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 1)

	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(muted).
			Padding(0, 1)
)
