// Package ui renders gap-analysis results in the terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/joshsymonds/controlgap/internal/models"
)

var (
	// Priority colors.
	CriticalColor = lipgloss.Color("196")
	HighColor     = lipgloss.Color("208")
	MediumColor   = lipgloss.Color("226")
	LowColor      = lipgloss.Color("46")
	NAColor       = lipgloss.Color("245")

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("86")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true)

	boldStyle = lipgloss.NewStyle().Bold(true)
	grayStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1)
)

// PriorityColor returns the display color for a priority.
func PriorityColor(p models.Priority) lipgloss.Color {
	switch p {
	case models.PriorityCritical:
		return CriticalColor
	case models.PriorityHigh:
		return HighColor
	case models.PriorityMedium:
		return MediumColor
	case models.PriorityLow:
		return LowColor
	default:
		return NAColor
	}
}

// PriorityStyle returns a bold style in the priority's color.
func PriorityStyle(p models.Priority) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(PriorityColor(p)).Bold(true)
}
