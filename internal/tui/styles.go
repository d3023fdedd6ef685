package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/feedr/feedr/internal/models"
)

var (
	// Base colors
	primaryColor = lipgloss.Color("212")
	mutedColor   = lipgloss.Color("241")
	successColor = lipgloss.Color("42")
	warningColor = lipgloss.Color("214")
	errorColor   = lipgloss.Color("196")

	// Panel styles
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Background(lipgloss.Color("237")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	// Text styles
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	subtleStyle    = lipgloss.NewStyle().Foreground(mutedColor)
	helpStyle      = lipgloss.NewStyle().Foreground(mutedColor)
	selectedStyle  = lipgloss.NewStyle().Bold(true).Foreground(primaryColor)
	flashStyle     = lipgloss.NewStyle().Foreground(successColor)
	flashErrStyle  = lipgloss.NewStyle().Foreground(errorColor).Bold(true)
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))

	// Feed status styles
	feedStatusStyles = map[models.FeedStatus]lipgloss.Style{
		models.FeedPending:   lipgloss.NewStyle().Foreground(warningColor),
		models.FeedCompleted: lipgloss.NewStyle().Foreground(successColor),
		models.FeedFailed:    lipgloss.NewStyle().Foreground(errorColor),
	}
)

// formatFeedStatus renders a feed status with color.
func formatFeedStatus(s models.FeedStatus) string {
	style, ok := feedStatusStyles[s]
	if !ok {
		return string(s)
	}
	return style.Render(string(s))
}
