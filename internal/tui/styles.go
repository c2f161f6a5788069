package tui

import (
	"github.com/charmbracelet/lipgloss"

	"brewtrack/internal/core"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	activeTab     = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	inactiveTab   = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	selectedStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Faint(true)
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	totalStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("8")).
			Padding(0, 1)
)

func statusStyle(s core.TaskStatus) lipgloss.Style {
	switch s {
	case core.StatusCompleted:
		return successStyle
	case core.StatusInProgress:
		return pendingStyle
	default:
		return mutedStyle
	}
}
