package ui

import "github.com/charmbracelet/lipgloss"

var (
	neonCyan    = lipgloss.Color("#00FFFF")
	neonMagenta = lipgloss.Color("#FF00FF")
	neonGreen   = lipgloss.Color("#39FF14")
	neonYellow  = lipgloss.Color("#FFFF00")
	dimWhite    = lipgloss.Color("#B0B0B0")

	titleStyle = lipgloss.NewStyle().
			Foreground(neonMagenta).
			Bold(true)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(neonMagenta).
			Padding(0, 2)

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(neonCyan).
			Bold(true)

	statsValueStyle = lipgloss.NewStyle().
			Foreground(neonYellow)

	indexStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Width(4).
			Align(lipgloss.Right)

	usernameStyle = lipgloss.NewStyle().
			Foreground(neonCyan)

	fullNameStyle = lipgloss.NewStyle().
			Foreground(dimWhite).
			Faint(true)

	successStyle = lipgloss.NewStyle().
			Foreground(neonGreen).
			Bold(true)
)
