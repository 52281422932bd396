package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/opentangerine/watch/internal/watcher"
)

// Color palette
const (
	ColorGreen    = "42"  // Create
	ColorYellow   = "220" // Modify, warnings
	ColorRed      = "196" // Delete, errors
	ColorOrange   = "208" // Accent
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Timestamps
)

// Styles holds all styles used for change lines and status messages.
type Styles struct {
	Create lipgloss.Style
	Modify lipgloss.Style
	Delete lipgloss.Style

	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Label   lipgloss.Style
}

// DefaultStyles returns colored styles.
func DefaultStyles() Styles {
	return Styles{
		Create: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorGreen)),
		Modify: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorYellow)),
		Delete: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorRed)),

		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorOrange)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGreen)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Create:  lipgloss.NewStyle(),
		Modify:  lipgloss.NewStyle(),
		Delete:  lipgloss.NewStyle(),
		Header:  lipgloss.NewStyle(),
		Success: lipgloss.NewStyle(),
		Warning: lipgloss.NewStyle(),
		Error:   lipgloss.NewStyle(),
		Dim:     lipgloss.NewStyle(),
		Label:   lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}

// ForOperation returns the style for an operation kind.
func (s Styles) ForOperation(op watcher.Operation) lipgloss.Style {
	switch op {
	case watcher.OpCreate:
		return s.Create
	case watcher.OpModify:
		return s.Modify
	case watcher.OpDelete:
		return s.Delete
	default:
		return s.Label
	}
}
