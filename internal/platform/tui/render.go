package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/popshot/internal/balance"
)

// classStyles maps a verdict to its display style.
var classStyles = map[balance.Classification]lipgloss.Style{
	balance.Healthy:     lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	balance.TooEasy:     lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	balance.TooHard:     lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	balance.NeedsReview: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	balance.Broken:      lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229"))
	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)
)

// renderClass renders a verdict in its color.
func renderClass(c balance.Classification) string {
	style, ok := classStyles[c]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return style.Render(string(c))
}

// healthBar draws a [0,1] health value as a fixed-width bar.
func healthBar(h float64, width int) string {
	if width <= 0 {
		return ""
	}
	if h < 0 {
		h = 0
	}
	if h > 1 {
		h = 1
	}
	filled := int(h*float64(width) + 0.5)
	return strings.Repeat("#", filled) + strings.Repeat(".", width-filled)
}

// centerText pads text to center it within width.
func centerText(text string, width int) string {
	w := lipgloss.Width(text)
	if w >= width {
		return text
	}
	padding := (width - w) / 2
	return strings.Repeat(" ", padding) + text
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "."
	}
	return string(r[:n-1]) + "."
}
