package console

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Color palette
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - banner, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - connected, shots
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors
	WarningColor = lipgloss.Color("#FFA500") // Orange - retries, fallbacks
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

// Layout constants
const (
	MinTerminalWidth = 60
	MaxContentWidth  = 100
)

var (
	// BannerTitleStyle is for the startup banner title
	BannerTitleStyle = lipgloss.NewStyle().
				Foreground(TextColor).
				Bold(true).
				PaddingLeft(2)

	// BannerParamKeyStyle is for startup parameter keys (e.g., "Discovery:")
	BannerParamKeyStyle = lipgloss.NewStyle().
				Foreground(MutedColor).
				PaddingLeft(2).
				Width(20)

	// BannerParamValueStyle is for startup parameter values
	BannerParamValueStyle = lipgloss.NewStyle().
				Foreground(TextColor)

	// StatusStyle is for progress lines
	StatusStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// SuccessStyle is for connected/resolved lines
	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// WarningStyle is for fallbacks and retry notices
	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	// ErrorStyle is for error lines
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	// MutedStyle is for raw input and hints
	MutedStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// ShotLabelStyle is for the processed-shot prefix
	ShotLabelStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)
)

// Line markers
const (
	SuccessMarker = "✓"
	FailureMarker = "✗"
	RetryMarker   = "↻"
	ShotMarker    = "●"
)

// IsTerminal reports whether f is attached to a terminal
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// TerminalWidth returns the width of f, clamped to the supported range
func TerminalWidth(f *os.File) int {
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width < MinTerminalWidth {
		return MinTerminalWidth
	}
	if width > MaxContentWidth {
		return MaxContentWidth
	}
	return width
}

// BannerBorderStyle returns the border style for the startup banner
func BannerBorderStyle(width int) lipgloss.Style {
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Width(width - 2)
}
