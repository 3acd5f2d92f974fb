package tui

import (
	styles "github.com/charmbracelet/lipgloss"

	"github.com/aaronlmathis/vizstream/internal/stream"
)

var (
	selectedColor = styles.AdaptiveColor{Light: "0", Dark: "9"}
	borderColor   = styles.AdaptiveColor{Light: "#555", Dark: "#555"}
	errorColor    = styles.AdaptiveColor{Light: "1", Dark: "9"}
	okColor       = styles.AdaptiveColor{Light: "2", Dark: "10"}
	warnColor     = styles.AdaptiveColor{Light: "3", Dark: "11"}

	titleStyle    = styles.NewStyle().Bold(true).Foreground(selectedColor)
	selectedFg    = styles.NewStyle().Foreground(selectedColor)
	borderFg      = styles.NewStyle().Foreground(borderColor)
	errorFg       = styles.NewStyle().Foreground(errorColor)
	tableHeaderFg = styles.NewStyle().Bold(true).Foreground(borderColor)
	plotStyle     = styles.NewStyle().
			BorderStyle(styles.NormalBorder()).
			Foreground(borderColor).
			BorderForeground(borderColor)
)

func stateStyle(s stream.State) styles.Style {
	switch s {
	case stream.Streaming:
		return styles.NewStyle().Foreground(okColor)
	case stream.Connecting, stream.Reconnecting:
		return styles.NewStyle().Foreground(warnColor)
	default:
		return borderFg
	}
}
