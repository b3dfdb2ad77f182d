package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Bold(true)
	doneStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Strikethrough(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Italic(true)
	suggestStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	pickedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4")).Underline(true)
	boxStyle       = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)

	toastStyles = map[string]lipgloss.Style{
		"info":    lipgloss.NewStyle().Foreground(lipgloss.Color("#2196f3")),
		"success": lipgloss.NewStyle().Foreground(lipgloss.Color("#4caf50")),
		"warning": lipgloss.NewStyle().Foreground(lipgloss.Color("#fb8500")),
		"error":   lipgloss.NewStyle().Foreground(lipgloss.Color("#d73a4a")).Bold(true),
	}
)
