package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/episim/internal/epidemic"
)

const (
	// BorderPadding surrounds both panes of the field drawing.
	BorderPadding = 40.0
	// AgentRadius is the drawn radius of one agent.
	AgentRadius = 4.0
)

// StateColor is the fill used for agents in each health state.
func StateColor(s epidemic.HealthState) string {
	switch s {
	case epidemic.Infected:
		return "#ff0000"
	case epidemic.Recovered:
		return "#a0a0a0"
	default:
		return "#0000ff"
	}
}

// FieldSize returns the pixel size of the field drawing for p.
func FieldSize(p epidemic.Parameters) (width, height float64) {
	width = p.AreaSize + p.QuarantineGap + p.QuarantineSize + 2*BorderPadding
	height = p.AreaSize + 2*BorderPadding
	return width, height
}

// FieldPosition maps an agent to drawing coordinates. Quarantined agents
// are drawn in the right hand pane.
func FieldPosition(a epidemic.Agent, p epidemic.Parameters) (x, y float64) {
	x = BorderPadding + a.X
	if a.Quarantined {
		x += p.AreaSize + p.QuarantineGap
	}
	return x, BorderPadding + a.Y
}

// FieldSVG draws the community and the quarantine zone side by side with
// one dot per agent.
func FieldSVG(agents []epidemic.Agent, p epidemic.Parameters) string {
	width, height := FieldSize(p)
	qx := BorderPadding + p.AreaSize + p.QuarantineGap

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#000000"/>
`, width, height, width, height))

	pane := func(x float64, size float64, label string) {
		sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="#000000" stroke="#ffffff" stroke-width="3"/>
<text x="%.1f" y="%.1f" fill="#ffffff" font-family="sans-serif" font-size="15">%s</text>
`, x, BorderPadding, size, size, x, BorderPadding-15, label))
	}
	pane(BorderPadding, p.AreaSize, "Community")
	pane(qx, p.QuarantineSize, "Quarantine Zone")

	sb.WriteString("<g>\n")
	for _, a := range agents {
		x, y := FieldPosition(a, p)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"/>
`, x, y, AgentRadius, StateColor(a.State)))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
