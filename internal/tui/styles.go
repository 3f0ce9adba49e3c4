package tui

import (
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/charmbracelet/lipgloss"
)

var (
	appStyle   = lipgloss.NewStyle().Padding(1, 2)
	titleStyle = lipgloss.NewStyle().Bold(true)
	helpStyle  = lipgloss.NewStyle().Faint(true)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	overlayBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
	fatalBoxStyle   = overlayBoxStyle.BorderForeground(lipgloss.Color("1"))
)

// healStateStyle: clean is green, failed is red, a heal in progress is yellow.
func healStateStyle(state models.HealState) lipgloss.Style {
	switch state {
	case models.HealClean:
		return okStyle
	case models.HealFailed:
		return failStyle
	case "":
		return helpStyle
	default:
		return warnStyle
	}
}
