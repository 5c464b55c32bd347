package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Colors
var (
	ColorFound  = lipgloss.Color("#04B575") // green
	ColorDanger = lipgloss.Color("#FF4040") // red
	ColorInfo   = lipgloss.Color("#00BFFF") // cyan
	ColorMuted  = lipgloss.Color("#666666") // gray
)

// Text styles
var (
	FoundText = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorFound)

	ErrorText = lipgloss.NewStyle().
			Foreground(ColorDanger)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorInfo)

	MutedText = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
