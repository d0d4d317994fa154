package tui

import "github.com/charmbracelet/lipgloss"

// Base styles
var (
	// TitleStyle is the style for the form title.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			MarginBottom(1)

	// BoxStyle is the style for the form container.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(1, 2)

	// LabelStyle is the style for field labels.
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Width(12)

	// FocusedLabelStyle is the style for the label of the focused field.
	FocusedLabelStyle = LabelStyle.
				Foreground(ColorFocus).
				Bold(true)

	// ErrorStyle is the style for validation notices.
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true).
			MarginTop(1)

	// HelpStyle is the style for the key help line.
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			MarginTop(1)
)

// VariantStyle renders a workout type in its accent color.
func VariantStyle(variant string) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(VariantColor(variant))
}
