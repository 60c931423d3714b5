package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI
type Theme struct {
	Name        string
	Susceptible lipgloss.Color
	Infected    lipgloss.Color
	Recovered   lipgloss.Color
	Border      lipgloss.Color
	Accent      lipgloss.Color
	Text        lipgloss.Color
	Muted       lipgloss.Color
}

// Available themes
var (
	// ThemeClassic uses the colours of the exported field drawing.
	ThemeClassic = Theme{
		Name:        "classic",
		Susceptible: lipgloss.Color("#0000ff"),
		Infected:    lipgloss.Color("#ff0000"),
		Recovered:   lipgloss.Color("#a0a0a0"),
		Border:      lipgloss.Color("#ffffff"),
		Accent:      lipgloss.Color("#00ffff"),
		Text:        lipgloss.Color("#ffffff"),
		Muted:       lipgloss.Color("#666666"),
	}

	ThemeCyberpunk = Theme{
		Name:        "cyberpunk",
		Susceptible: lipgloss.Color("#00ffff"), // Cyan
		Infected:    lipgloss.Color("#ff00ff"), // Magenta
		Recovered:   lipgloss.Color("#666666"),
		Border:      lipgloss.Color("#ffff00"),
		Accent:      lipgloss.Color("#ff00ff"),
		Text:        lipgloss.Color("#ffffff"),
		Muted:       lipgloss.Color("#666666"),
	}

	ThemeRetroGreen = Theme{
		Name:        "retro",
		Susceptible: lipgloss.Color("#00cc00"), // Green phosphor
		Infected:    lipgloss.Color("#ffff00"),
		Recovered:   lipgloss.Color("#005500"),
		Border:      lipgloss.Color("#88ff88"),
		Accent:      lipgloss.Color("#88ff88"),
		Text:        lipgloss.Color("#00ff00"),
		Muted:       lipgloss.Color("#005500"),
	}

	ThemeOcean = Theme{
		Name:        "ocean",
		Susceptible: lipgloss.Color("#00a8cc"),
		Infected:    lipgloss.Color("#ff4444"),
		Recovered:   lipgloss.Color("#4488aa"),
		Border:      lipgloss.Color("#0077be"),
		Accent:      lipgloss.Color("#ffd700"),
		Text:        lipgloss.Color("#e0f0ff"),
		Muted:       lipgloss.Color("#4488aa"),
	}

	// Default theme
	CurrentTheme = ThemeClassic

	// All available themes
	Themes = []Theme{
		ThemeClassic,
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeClassic
}

// SetTheme changes the current theme
func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = ThemeClassic
}

// ThemeNames returns list of available theme names
func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// inks maps canvas inks to the theme's colours.
func (t Theme) inks() map[Ink]lipgloss.Style {
	return map[Ink]lipgloss.Style{
		InkBorder:      lipgloss.NewStyle().Foreground(t.Border),
		InkSusceptible: lipgloss.NewStyle().Foreground(t.Susceptible),
		InkInfected:    lipgloss.NewStyle().Foreground(t.Infected).Bold(true),
		InkRecovered:   lipgloss.NewStyle().Foreground(t.Recovered),
	}
}
