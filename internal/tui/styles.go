package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zulandar/studyflow/internal/models"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	roleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	readOnlyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Width(columnWidth - 2)
	focusedColumnStyle = columnStyle.BorderForeground(lipgloss.Color("#5B8DEF"))
	columnTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CCCCCC"))

	cardStyle         = lipgloss.NewStyle().MaxWidth(columnWidth - 2)
	selectedCardStyle = cardStyle.Reverse(true)
	draggingCardStyle = cardStyle.Foreground(lipgloss.Color("#F7B801")).Bold(true)
	doneCardStyle     = cardStyle.Foreground(lipgloss.Color("#666666")).Strikethrough(true)
	metaStyle         = lipgloss.NewStyle().MaxWidth(columnWidth - 2).Foreground(lipgloss.Color("#888888"))
)

var priorityColors = map[models.Priority]lipgloss.Color{
	models.PriorityHigh:   lipgloss.Color("#ef4444"),
	models.PriorityMedium: lipgloss.Color("#f59e0b"),
	models.PriorityLow:    lipgloss.Color("#22c55e"),
}

func subjectStyle(color *string) lipgloss.Style {
	if color == nil {
		return metaStyle
	}
	return metaStyle.Foreground(lipgloss.Color(*color))
}
