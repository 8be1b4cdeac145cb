// Package styles defines the visual styling for terminal output.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions.
var (
	Primary = lipgloss.Color("205") // Pink
	Subtle  = lipgloss.Color("240") // Gray

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Info    = lipgloss.Color("39")  // Blue

	// Text colors
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// HelpStyle is the base style for secondary text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// TableHeaderStyle styles report table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary)

// TableRuleStyle styles the rule under table headers.
var TableRuleStyle = lipgloss.NewStyle().
	Foreground(Subtle)

// SpinnerStyle styles progress spinners.
var SpinnerStyle = lipgloss.NewStyle().
	Foreground(Primary)

// LabelStyle styles org labels in progress lines.
var LabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(28)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)
