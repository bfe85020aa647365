package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/waabox/testdeck/internal/domain"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true)
	mutedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Underline(true)

	statusStyles = map[domain.PipelineStatus]lipgloss.Style{
		domain.StatusSuccess:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		domain.StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		domain.StatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		domain.StatusCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
)

const separator = "────────────────────────────────────────────────────────────\n"

func statusIcon(s domain.PipelineStatus) string {
	var icon string
	switch s {
	case domain.StatusSuccess:
		icon = "✓"
	case domain.StatusFailed:
		icon = "✗"
	case domain.StatusRunning:
		icon = "●"
	case domain.StatusCancelled:
		icon = "○"
	case domain.StatusIdle, "":
		icon = "·"
	default:
		icon = "?"
	}
	if style, ok := statusStyles[s]; ok {
		return style.Render(icon)
	}
	return icon
}

func typeLabel(t domain.PipelineType) string {
	switch t {
	case domain.TypeAPICollection:
		return "api"
	case domain.TypeMobileSuite:
		return "mobile"
	}
	return string(t)
}
