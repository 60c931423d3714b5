package automation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/experiment"
)

// ErrAppliesOnRestart is returned by SetLive when the value was staged but
// the running population keeps the old one until the next restart.
var ErrAppliesOnRestart = errors.New("applies on next restart")

// Scenario scripts one simulation: a starting configuration plus timed
// interventions applied while it runs.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Preset      string             `yaml:"preset"`
	Duration    float64            `yaml:"duration"`
	Dt          float64            `yaml:"dt"`
	Seed        int64              `yaml:"seed"`
	Params      map[string]float64 `yaml:"params"`
	Events      []Event            `yaml:"events"`
}

// Event changes parameters once the elapsed time reaches At. Names that
// only shape a new population (community size, area size, speed...) take
// effect when Restart is set; without it they are staged and reported as
// a warning.
type Event struct {
	At      float64            `yaml:"at"`
	Set     map[string]float64 `yaml:"set"`
	Restart bool               `yaml:"restart"`
}

type EventRecord struct {
	At       float64
	Applied  float64
	Restart  bool
	Counts   epidemic.Counts
	Warnings []string
}

type ScenarioResult struct {
	Name    string
	Result  *experiment.Result
	Events  []EventRecord
	Initial config.SimulationConfig
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Config resolves the scenario against base: preset first, then run
// settings, then parameter overrides.
func (sc *Scenario) Config(base *config.Config) (*config.Config, error) {
	cfg := *base
	if sc.Preset != "" {
		p := config.GetPreset(sc.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", sc.Preset, config.ListPresets())
		}
		cfg.Simulation = p.Simulation
		cfg.Run.Duration = p.Run.Duration
	}
	if sc.Duration > 0 {
		cfg.Run.Duration = sc.Duration
	}
	if sc.Dt > 0 {
		cfg.Run.Dt = sc.Dt
	}
	if sc.Seed != 0 {
		cfg.Run.Seed = sc.Seed
	}
	for _, name := range sortedKeys(sc.Params) {
		if err := cfg.Simulation.Set(name, sc.Params[name]); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
		}
	}
	return &cfg, cfg.Validate()
}

// RunScenario plays the scenario on a fresh simulation.
func RunScenario(ctx context.Context, sc *Scenario, base *config.Config, registry *experiment.Registry, logger *zap.Logger) (*ScenarioResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg, err := sc.Config(base)
	if err != nil {
		return nil, err
	}

	events := append([]Event(nil), sc.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].At < events[j].At })

	exp := experiment.New(experiment.Config{
		Name:     sc.Name,
		Params:   cfg.Params(),
		Dt:       cfg.Run.Dt,
		Duration: cfg.Run.Duration,
	}, experiment.WithLogger(logger))

	timeline := &timeline{events: events, logger: logger}
	if err := exp.Setup(registry.DefaultMetrics(), timeline); err != nil {
		return nil, err
	}
	timeline.sim = exp.Simulation()
	// events due at time zero
	timeline.OnTick(timeline.sim.Latest())

	result, err := exp.Run(ctx)
	if err == nil {
		err = timeline.err
	}
	return &ScenarioResult{
		Name:    sc.Name,
		Result:  result,
		Events:  timeline.records,
		Initial: cfg.Simulation,
	}, err
}

// timeline applies due events after each tick.
type timeline struct {
	sim     *epidemic.Simulation
	events  []Event
	next    int
	records []EventRecord
	logger  *zap.Logger
	err     error
	busy    bool
}

func (t *timeline) OnTick(s epidemic.Snapshot) {
	// a restart inside apply notifies again
	if t.sim == nil || t.busy || t.err != nil {
		return
	}
	t.busy = true
	defer func() { t.busy = false }()

	for t.next < len(t.events) && t.events[t.next].At <= s.Time+1e-9 {
		ev := t.events[t.next]
		t.next++
		rec, err := t.apply(ev, s.Time)
		if err != nil {
			t.err = err
			return
		}
		t.records = append(t.records, rec)
	}
}

func (t *timeline) apply(ev Event, now float64) (EventRecord, error) {
	rec := EventRecord{At: ev.At, Applied: now, Restart: ev.Restart}
	for _, name := range sortedKeys(ev.Set) {
		err := SetLive(t.sim, name, ev.Set[name])
		switch {
		case err == nil:
		case errors.Is(err, ErrAppliesOnRestart):
			if !ev.Restart {
				rec.Warnings = append(rec.Warnings, err.Error())
				t.logger.Warn("scenario event staged until restart",
					zap.Float64("at", ev.At),
					zap.String("name", name),
				)
			}
		default:
			return rec, fmt.Errorf("event at %gs: %w", ev.At, err)
		}
	}
	if ev.Restart {
		if err := t.sim.Restart(); err != nil {
			if !epidemic.IsAdjustment(err) {
				return rec, fmt.Errorf("event at %gs: %w", ev.At, err)
			}
			rec.Warnings = append(rec.Warnings, err.Error())
		}
	}
	rec.Counts = t.sim.Counts()
	t.logger.Info("scenario event applied",
		zap.Float64("at", ev.At),
		zap.Float64("time", now),
		zap.Any("set", ev.Set),
		zap.Bool("restart", ev.Restart),
	)
	return rec, nil
}

// SetLive routes a named parameter to the matching simulation setter.
// Names that cannot change the running population are staged for the
// next restart and reported with ErrAppliesOnRestart.
func SetLive(s *epidemic.Simulation, name string, v float64) error {
	var err error
	switch name {
	case "infection_radius":
		err = s.SetInfectionRadius(v)
	case "infection_probability":
		err = s.SetInfectionProbability(v)
	case "recovery_duration":
		err = s.SetRecoveryDuration(v)
	case "distancing_radius":
		err = s.SetSocialDistancingRadius(v)
	case "distancing_max_speed":
		err = s.SetDistancingMaxSpeed(v)
	case "social_distancing":
		s.SetSocialDistancing(v != 0)
	case "quarantine":
		s.SetQuarantine(v != 0)
	case "community_size":
		if err = s.SetCommunitySize(int(v)); err == nil {
			err = staged(name, v)
		}
	case "initial_infected":
		if err = s.SetInitialInfected(int(v)); err == nil {
			err = staged(name, v)
		}
	default:
		sc := config.FromParams(s.Pending())
		if err := sc.Set(name, v); err != nil {
			return err
		}
		p := sc.Params()
		cur := s.Pending()
		p.Seed, p.Workers = cur.Seed, cur.Workers
		if err := s.SetParams(p); err != nil {
			return err
		}
		return staged(name, v)
	}
	return err
}

func staged(name string, v float64) error {
	return fmt.Errorf("%s=%g %w", name, v, ErrAppliesOnRestart)
}

// ParameterSweep runs RunsPerValue seeded simulations for each of
// NumSteps evenly spaced values of one parameter.
type ParameterSweep struct {
	ParamName    string
	ParamMin     float64
	ParamMax     float64
	NumSteps     int
	RunsPerValue int
	SeedStart    int64
	// Workers caps concurrent runs; 0 means one per CPU as scheduled by Go.
	Workers int
}

type SweepResult struct {
	ParamValue float64
	Seed       int64
	Final      epidemic.Counts
	Metrics    map[string]float64
}

type SweepSummary struct {
	ParamValue float64
	Runs       int
	Mean       map[string]float64
}

func (sw *ParameterSweep) Values() []float64 {
	if sw.NumSteps <= 1 {
		return []float64{sw.ParamMin}
	}
	step := (sw.ParamMax - sw.ParamMin) / float64(sw.NumSteps-1)
	vals := make([]float64, sw.NumSteps)
	for i := range vals {
		vals[i] = sw.ParamMin + float64(i)*step
	}
	return vals
}

// RunSweep executes the sweep in parallel. Results are ordered by value,
// then by seed, regardless of completion order.
func RunSweep(ctx context.Context, sw *ParameterSweep, base *config.Config, registry *experiment.Registry, logger *zap.Logger) ([]SweepResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sw.RunsPerValue < 1 {
		return nil, fmt.Errorf("runs per value must be at least 1, got %d", sw.RunsPerValue)
	}
	probe := base.Simulation
	if err := probe.Set(sw.ParamName, sw.ParamMin); err != nil {
		return nil, err
	}

	values := sw.Values()
	results := make([]SweepResult, len(values)*sw.RunsPerValue)

	g, ctx := errgroup.WithContext(ctx)
	if sw.Workers > 0 {
		g.SetLimit(sw.Workers)
	}

	var mu sync.Mutex
	done := 0

	for vi, val := range values {
		val := val
		for r := 0; r < sw.RunsPerValue; r++ {
			idx := vi*sw.RunsPerValue + r
			seed := sw.SeedStart + int64(r)
			g.Go(func() error {
				sim := base.Simulation
				if err := sim.Set(sw.ParamName, val); err != nil {
					return err
				}
				p := sim.Params()
				p.Seed = seed
				p.Workers = 1

				exp := experiment.New(experiment.Config{
					Name:     fmt.Sprintf("%s=%g", sw.ParamName, val),
					Params:   p,
					Dt:       base.Run.Dt,
					Duration: base.Run.Duration,
				})
				if err := exp.Setup(registry.DefaultMetrics()); err != nil {
					return err
				}
				res, err := exp.Run(ctx)
				if err != nil {
					return err
				}
				results[idx] = SweepResult{
					ParamValue: val,
					Seed:       seed,
					Final:      res.Final,
					Metrics:    res.Metrics,
				}

				mu.Lock()
				done++
				logger.Debug("sweep run complete",
					zap.String("param", sw.ParamName),
					zap.Float64("value", val),
					zap.Int64("seed", seed),
					zap.Int("done", done),
					zap.Int("total", len(results)),
				)
				mu.Unlock()
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Summarize averages every metric over the runs of each parameter value.
func Summarize(results []SweepResult) []SweepSummary {
	var out []SweepSummary
	for _, r := range results {
		if len(out) == 0 || out[len(out)-1].ParamValue != r.ParamValue {
			out = append(out, SweepSummary{ParamValue: r.ParamValue, Mean: map[string]float64{}})
		}
		s := &out[len(out)-1]
		s.Runs++
		for k, v := range r.Metrics {
			s.Mean[k] += v
		}
	}
	for i := range out {
		for k := range out[i].Mean {
			out[i].Mean[k] /= float64(out[i].Runs)
		}
	}
	return out
}

// MetricRange returns the smallest and largest mean of a metric across a
// summary.
func MetricRange(summary []SweepSummary, metric string) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, s := range summary {
		v := s.Mean[metric]
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
