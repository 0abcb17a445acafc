// Package styles defines the visual styling for the application.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/j-veylop/aichat/internal/models"
)

// Color definitions for the chat theme.
var (
	// Primary colors
	Primary   = lipgloss.Color("205") // Pink
	Secondary = lipgloss.Color("63")  // Purple
	Subtle    = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark   = lipgloss.Color("235")
	BgLight  = lipgloss.Color("237")
	BgAccent = lipgloss.Color("236")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// FocusedStyle is used for focused input elements.
var FocusedStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// FocusedBorderStyle creates a focused border.
var FocusedBorderStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Primary).
	Padding(0, 1)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpKeyStyle styles keyboard shortcut keys.
var HelpKeyStyle = lipgloss.NewStyle().
	Foreground(Primary).
	Bold(true)

// HelpDescStyle styles help descriptions.
var HelpDescStyle = lipgloss.NewStyle().
	Foreground(TextSecondary)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// UserMessageStyle styles the user's side of an exchange.
var UserMessageStyle = lipgloss.NewStyle().
	Foreground(Info).
	Bold(true)

// AIMessageStyle styles the model's reply.
var AIMessageStyle = lipgloss.NewStyle().
	Foreground(TextPrimary)

// ErrorReplyStyle styles a reply that carries an API error.
var ErrorReplyStyle = lipgloss.NewStyle().
	Foreground(Error).
	Italic(true)

// MessageMetaStyle styles timestamps, model names and token counts.
var MessageMetaStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// PinStyle renders an issued PIN.
var PinStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Success).
	Padding(0, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Success)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// HealthOKStyle styles a healthy process.
var HealthOKStyle = lipgloss.NewStyle().
	Foreground(Success)

// HealthWarningStyle styles a process over a threshold.
var HealthWarningStyle = lipgloss.NewStyle().
	Foreground(Warning).
	Bold(true)

// HealthErrorStyle styles a failed sample.
var HealthErrorStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true)

// HealthUnknownStyle styles a process not sampled yet.
var HealthUnknownStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// GetHealthStyle returns the style for a health status.
func GetHealthStyle(status models.HealthStatus) lipgloss.Style {
	switch status {
	case models.HealthOK:
		return HealthOKStyle
	case models.HealthWarning:
		return HealthWarningStyle
	case models.HealthError:
		return HealthErrorStyle
	default:
		return HealthUnknownStyle
	}
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
