// Package ui provides consistent styling and terminal rendering for the outputctl CLI
package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across the application
var (
	ColorPrimary = lipgloss.Color("39")  // Bright blue
	ColorSuccess = lipgloss.Color("82")  // Green
	ColorWarning = lipgloss.Color("214") // Orange
	ColorError   = lipgloss.Color("196") // Red
	ColorInfo    = lipgloss.Color("86")  // Cyan

	ColorText   = lipgloss.Color("252") // Light gray
	ColorSubtle = lipgloss.Color("241") // Medium gray
)

var (
	TextStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	SubtleStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSuccess)

	// LabelStyle is used for field names in listings
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	SectionStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError)

	InfoStyle = lipgloss.NewStyle().
			Foreground(ColorInfo)

	// CurrentModeStyle highlights the active mode in a mode list
	CurrentModeStyle = lipgloss.NewStyle().
				Foreground(ColorSuccess).
				Bold(true)
)

// Icons
var (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
)

// FormatFlag renders on or off in green or red
func FormatFlag(set bool, on, off string) string {
	if set {
		return SuccessStyle.Render(on)
	}
	return ErrorStyle.Render(off)
}

// FormatField renders "Label: value"
func FormatField(label, value string) string {
	return LabelStyle.Render(label+":") + " " + value
}

// FormatResult renders a one-line success or failure message
func FormatResult(success bool, message string) string {
	if success {
		return SuccessStyle.Render(IconSuccess) + " " + message
	}
	return ErrorStyle.Render(IconError) + " " + message
}
