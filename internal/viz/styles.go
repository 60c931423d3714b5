package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	statsStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 2).
			Width(54)

	canvasStyle = lipgloss.NewStyle().Padding(1, 2)

	// Status indicators
	StatusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	StatusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	MetricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899")).
			Width(14)

	MetricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	ActiveParam = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	KeyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))
)

// ShareBar renders the S/I/R split as one bar of the given width, each
// segment in its state colour. Percentages are in [0, 100].
func ShareBar(t Theme, susceptible, infected, recovered float64, width int) string {
	seg := func(p float64) int { return int(p/100*float64(width) + 0.5) }
	i := seg(infected)
	s := seg(susceptible)
	if i+s > width {
		s = width - i
	}
	r := width - i - s

	return lipgloss.NewStyle().Foreground(t.Infected).Render(strings.Repeat("█", i)) +
		lipgloss.NewStyle().Foreground(t.Susceptible).Render(strings.Repeat("█", s)) +
		lipgloss.NewStyle().Foreground(t.Recovered).Render(strings.Repeat("█", r))
}

// RangeBar shows where v sits within [lo, hi].
func RangeBar(v, lo, hi float64, width int) string {
	ratio := 0.0
	if hi > lo {
		ratio = (v - lo) / (hi - lo)
	}
	if ratio > 1 {
		ratio = 1
	} else if ratio < 0 {
		ratio = 0
	}
	filled := int(ratio * float64(width))
	return "[" + strings.Repeat("=", filled) + strings.Repeat("-", width-filled) + "]"
}

// Separator draws a decorative rule.
func Separator(width int) string {
	mid := width / 2
	left := strings.Repeat("─", mid-3)
	right := strings.Repeat("─", width-mid-3)
	return Subtle.Render(left + " ◆ " + right)
}
