package ui

import "github.com/charmbracelet/lipgloss"

// Color palette, single accent.
const (
	ColorAccent   = "39"  // entry numbers, header
	ColorWhite    = "255" // entry text
	ColorGray     = "245" // status line
	ColorDarkGray = "238" // borders
	ColorRed      = "196" // errors
)

// Styles holds the render styles for both the plain sink and the TUI.
type Styles struct {
	Header lipgloss.Style
	Number lipgloss.Style
	Entry  lipgloss.Style
	Status lipgloss.Style
	Error  lipgloss.Style
	Panel  lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccent)),
		Number: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccent)),
		Entry:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWhite)),
		Status: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Error:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle(),
		Number: lipgloss.NewStyle(),
		Entry:  lipgloss.NewStyle(),
		Status: lipgloss.NewStyle(),
		Error:  lipgloss.NewStyle(),
		Panel:  lipgloss.NewStyle(),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
