package tui

import "github.com/charmbracelet/lipgloss"

// Dracula-leaning palette shared across the terminal views.
const (
	colorFg        = "#F8F8F2"
	colorFgMuted   = "#6272A4"
	colorBgCard    = "#282A36"
	colorBgInline  = "#44475A"
	colorPurple    = "#BD93F9"
	colorPink      = "#FF79C6"
	colorCyan      = "#8BE9FD"
	colorGreen     = "#50FA7B"
	colorOrange    = "#FFB86C"
	colorRed       = "#FF5555"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorFg)).
			Background(lipgloss.Color(colorBgCard)).
			Padding(0, 2)

	headerBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color(colorCyan)).
				Background(lipgloss.Color(colorBgCard))

	userHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPurple))

	assistantHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(colorGreen))

	toolHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorOrange))

	systemTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorRed))

	mutedTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted))

	partialBoldStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(colorFg))

	inputStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorFgMuted)).
			Padding(0, 1)

	phaseStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorCyan)).
			Padding(0, 1)

	codeBlockStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFg)).
			Background(lipgloss.Color(colorBgCard)).
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorFgMuted))

	inlineCodeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFg)).
			Background(lipgloss.Color(colorBgInline)).
			Padding(0, 1)

	boldTextStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorFg))

	italicTextStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color(colorCyan))

	linkTextStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color(colorPink))

	helpFooterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorFgMuted)).
			Italic(true)
)
