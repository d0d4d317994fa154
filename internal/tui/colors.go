// Package tui provides the terminal form used to log and edit workouts.
package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	// Variant colors, matching the map popups
	ColorRunning = lipgloss.Color("#00C46A") // Green
	ColorCycling = lipgloss.Color("#FFB545") // Amber

	// Status colors
	ColorError = lipgloss.Color("#EF4444") // Red
	ColorInfo  = lipgloss.Color("#3B82F6") // Blue

	// Neutral colors
	ColorText      = lipgloss.Color("#E5E7EB") // Light gray
	ColorTextMuted = lipgloss.Color("#9CA3AF") // Muted gray
	ColorBorder    = lipgloss.Color("#374151") // Dark gray
	ColorFocus     = lipgloss.Color("#7C3AED") // Purple
)

// VariantColor returns the accent color of a workout type.
func VariantColor(variant string) lipgloss.Color {
	if variant == "cycling" {
		return ColorCycling
	}
	return ColorRunning
}
