package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"go.uber.org/zap"

	"github.com/san-kum/episim/internal/automation"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/export"
)

const (
	width      = 64
	height     = 22
	frameRate  = 60
	plotWindow = 600
	plotWidth  = 40
)

// DefaultMaxStep bounds the simulated time of one frame.
const DefaultMaxStep = 0.1

type TickMsg time.Time

// knob is one tunable parameter with the range the UI allows.
type knob struct {
	name    string
	lo, hi  float64
	step    float64
	restart bool
	get     func(epidemic.Parameters) float64
}

var knobs = []knob{
	{name: "community_size", lo: 20, hi: 150, step: 5, restart: true,
		get: func(p epidemic.Parameters) float64 { return float64(p.CommunitySize) }},
	{name: "initial_infected", lo: 1, hi: 30, step: 1, restart: true,
		get: func(p epidemic.Parameters) float64 { return float64(p.InitialInfected) }},
	{name: "infection_radius", lo: 1, hi: 16, step: 0.5,
		get: func(p epidemic.Parameters) float64 { return p.InfectionRadius }},
	{name: "infection_probability", lo: 0, hi: 1, step: 0.05,
		get: func(p epidemic.Parameters) float64 { return p.InfectionProbability }},
	{name: "distancing_radius", lo: 0, hi: 50, step: 1,
		get: func(p epidemic.Parameters) float64 { return p.DistancingRadius }},
	{name: "recovery_duration", lo: 1, hi: 30, step: 1,
		get: func(p epidemic.Parameters) float64 { return p.RecoveryDuration }},
	{name: "distancing_max_speed", lo: 5, hi: 100, step: 5,
		get: func(p epidemic.Parameters) float64 { return p.DistancingMaxSpeed }},
}

// Model hosts a simulation in the terminal. Time advances with the wall
// clock, clamped to maxStep per frame.
type Model struct {
	sim      *epidemic.Simulation
	logger   *zap.Logger
	canvas   *Canvas
	running  bool
	showHelp bool
	selected int
	last     time.Time
	maxStep  float64
	status   string
}

type Option func(*Model)

func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMaxStep overrides DefaultMaxStep. Non-positive values are ignored.
func WithMaxStep(dt float64) Option {
	return func(m *Model) {
		if dt > 0 {
			m.maxStep = dt
		}
	}
}

func NewModel(sim *epidemic.Simulation, opts ...Option) Model {
	m := Model{
		sim:     sim,
		logger:  zap.NewNop(),
		canvas:  NewCanvas(width, height),
		running: true,
		maxStep: DefaultMaxStep,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r", "enter":
			m.restart()
		case "d":
			m.sim.SetSocialDistancing(!m.sim.Params().SocialDistancing)
		case "i":
			m.sim.SetQuarantine(!m.sim.Params().Quarantine)
		case "tab":
			m.selected = (m.selected + 1) % len(knobs)
		case "shift+tab":
			m.selected = (m.selected + len(knobs) - 1) % len(knobs)
		case "up", "k":
			m.adjust(1)
		case "down", "j":
			m.adjust(-1)
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.advance(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

// advance ticks the simulation by the wall time since the previous frame.
func (m *Model) advance(now time.Time) {
	dt := 0.0
	if !m.last.IsZero() {
		dt = math.Min(now.Sub(m.last).Seconds(), m.maxStep)
	}
	m.last = now
	if !m.running || dt <= 0 {
		return
	}
	if err := m.sim.Tick(dt); err != nil {
		m.status = err.Error()
		m.logger.Error("tick failed", zap.Float64("dt", dt), zap.Error(err))
	}
}

func (m *Model) restart() {
	err := m.sim.Restart()
	switch {
	case err == nil:
		m.status = "restarted"
	case epidemic.IsAdjustment(err):
		m.status = "restarted with adjusted parameters"
	default:
		m.status = err.Error()
	}
}

// adjust moves the selected knob one step up or down within its range.
// Community size and initial infected wait for the next restart.
func (m *Model) adjust(dir float64) {
	k := knobs[m.selected]
	v := k.get(m.sim.Pending()) + dir*k.step
	v = math.Max(k.lo, math.Min(k.hi, v))
	// keep probability steps on the grid
	v = math.Round(v*1e6) / 1e6

	err := automation.SetLive(m.sim, k.name, v)
	switch {
	case errors.Is(err, automation.ErrAppliesOnRestart):
		m.status = fmt.Sprintf("%s=%g applies on restart", k.name, v)
	case err != nil:
		m.status = err.Error()
		return
	default:
		m.status = ""
	}
	m.logger.Debug("parameter changed", zap.String("name", k.name), zap.Float64("value", v))
}

// draw renders both zones and every agent onto the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	p := m.sim.Params()
	fw, fh := export.FieldSize(p)
	scale := math.Min(float64(m.canvas.Width*2-1)/fw, float64(m.canvas.Height*4-1)/fh)
	px := func(v float64) int { return int(math.Round(v * scale)) }

	bp := export.BorderPadding
	m.canvas.DrawRect(px(bp), px(bp), px(bp+p.AreaSize), px(bp+p.AreaSize), InkBorder)
	qx := bp + p.AreaSize + p.QuarantineGap
	m.canvas.DrawRect(px(qx), px(bp), px(qx+p.QuarantineSize), px(bp+p.QuarantineSize), InkBorder)

	for i := 0; i < m.sim.Population(); i++ {
		a := m.sim.Agent(i)
		x, y := export.FieldPosition(a, p)
		m.canvas.Set(px(x), px(y), inkFor(a.State))
	}
}

func inkFor(s epidemic.HealthState) Ink {
	switch s {
	case epidemic.Infected:
		return InkInfected
	case epidemic.Recovered:
		return InkRecovered
	default:
		return InkSusceptible
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	t := CurrentTheme
	canvasView := canvasStyle.Render(m.canvas.Render(t.inks()))

	snap := m.sim.Latest()
	p := m.sim.Params()
	pending := m.sim.Pending()
	sus, inf, rec := snap.Percentages()

	var s strings.Builder
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(t.Accent).Render("EPISIM") + "  ")
	if m.running {
		s.WriteString(StatusRunning.Render("RUNNING"))
	} else {
		s.WriteString(StatusPaused.Render("PAUSED"))
	}
	s.WriteString("\n\n")

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + value + "\n")
	}
	row("Time", MetricValue.Render(fmt.Sprintf("%.1fs", snap.Time)))
	row("Susceptible", lipgloss.NewStyle().Foreground(t.Susceptible).Render(fmt.Sprintf("%3d  %5.1f%%", snap.Counts.Susceptible, sus)))
	row("Infected", lipgloss.NewStyle().Foreground(t.Infected).Render(fmt.Sprintf("%3d  %5.1f%%", snap.Counts.Infected, inf)))
	row("Recovered", lipgloss.NewStyle().Foreground(t.Recovered).Render(fmt.Sprintf("%3d  %5.1f%%", snap.Counts.Recovered, rec)))
	row("Quarantined", MetricValue.Render(fmt.Sprintf("%d", snap.Quarantined)))
	s.WriteString(ShareBar(t, sus, inf, rec, 40) + "\n\n")

	row("Distancing", onOff(p.SocialDistancing))
	row("Quarantine", onOff(p.Quarantine))
	s.WriteString("\n")

	for i, k := range knobs {
		v := k.get(pending)
		line := fmt.Sprintf("%-22s %s %g", k.name, RangeBar(v, k.lo, k.hi, 10), v)
		if k.restart && v != k.get(p) {
			line += "*"
		}
		if i == m.selected {
			s.WriteString(ActiveParam.Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + line + "\n")
		}
	}

	if plot := m.plot(); plot != "" {
		s.WriteString("\n" + plot + "\n")
	}
	if m.status != "" {
		s.WriteString("\n" + Subtle.Render(m.status) + "\n")
	}
	s.WriteString("\n" + Separator(40) + "\n")
	s.WriteString(KeyHint.Render("SP:Pause R:Restart D:Distance I:Isolate\nTAB:Select ↑↓:Tune T:Theme ?:Help Q:Quit"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

// plot draws the recent S/I/R percentages.
func (m Model) plot() string {
	h := m.sim.History().Tail(plotWindow)
	if h.Len() < 2 {
		return ""
	}
	return asciigraph.PlotMany(
		[][]float64{
			downsample(h.Susceptible, plotWidth),
			downsample(h.Infected, plotWidth),
			downsample(h.Recovered, plotWidth),
		},
		asciigraph.Height(6),
		asciigraph.Width(plotWidth),
		asciigraph.LowerBound(0),
		asciigraph.UpperBound(100),
		asciigraph.Precision(0),
		asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Red, asciigraph.Gray),
		asciigraph.Caption("S / I / R %"),
	)
}

// downsample keeps at most n evenly spaced points, always including the
// newest one.
func downsample(v []float64, n int) []float64 {
	if len(v) <= n {
		return v
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = v[i*(len(v)-1)/(n-1)]
	}
	return out
}

func onOff(b bool) string {
	if b {
		return StatusRunning.Render("on")
	}
	return Subtle.Render("off")
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R/Enter  - Restart simulation       ║
║  D        - Toggle social distancing ║
║  I        - Toggle quarantine        ║
║  Tab      - Cycle parameters         ║
║  Up/K     - Increase parameter       ║
║  Down/J   - Decrease parameter       ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run starts the live host and blocks until the user quits.
func Run(sim *epidemic.Simulation, opts ...Option) error {
	if sim == nil {
		return errors.New("viz: nil simulation")
	}
	_, err := tea.NewProgram(NewModel(sim, opts...), tea.WithAltScreen()).Run()
	return err
}
