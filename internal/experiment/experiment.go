package experiment

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/episim/internal/epidemic"
)

type Config struct {
	Name     string
	Params   epidemic.Parameters
	Dt       float64
	Duration float64
	// StopOnExtinction ends the run at the first tick without infected
	// agents.
	StopOnExtinction bool
}

// Steps is the number of ticks needed to cover Duration.
func (c Config) Steps() int {
	if c.Dt <= 0 {
		return 0
	}
	return int(c.Duration/c.Dt + 1e-9)
}

type Result struct {
	History epidemic.History
	Final   epidemic.Counts
	Steps   int
	Metrics map[string]float64
	// Stopped is set when the run ended early because the outbreak died out.
	Stopped bool
	Wall    time.Duration
}

type Experiment struct {
	cfg       Config
	simulator *epidemic.Simulation
	logger    *zap.Logger
}

type Option func(*Experiment)

func WithLogger(l *zap.Logger) Option {
	return func(e *Experiment) {
		if l != nil {
			e.logger = l
		}
	}
}

func New(cfg Config, opts ...Option) *Experiment {
	e := &Experiment{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Setup builds the simulation and attaches metrics and observers.
func (e *Experiment) Setup(metrics []epidemic.Metric, observers ...epidemic.Observer) error {
	if e.cfg.Dt <= 0 || math.IsInf(e.cfg.Dt, 0) {
		return fmt.Errorf("dt must be positive, got %g", e.cfg.Dt)
	}
	if e.cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %g", e.cfg.Duration)
	}

	s, err := epidemic.New(e.cfg.Params, epidemic.WithLogger(e.logger))
	if err != nil {
		return fmt.Errorf("experiment %q: %w", e.cfg.Name, err)
	}
	for _, m := range metrics {
		s.AddMetric(m)
	}
	for _, o := range observers {
		s.AddObserver(o)
	}
	e.simulator = s
	return nil
}

// Run ticks the simulation with a fixed dt until Duration is covered, the
// context is cancelled or, with StopOnExtinction, no agent is infected.
// On cancellation the partial result is returned with the context error.
func (e *Experiment) Run(ctx context.Context) (*Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	start := time.Now()
	steps := e.cfg.Steps()
	result := &Result{}
	var runErr error

	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := e.simulator.Tick(e.cfg.Dt); err != nil {
			runErr = err
			break
		}
		result.Steps++
		if e.cfg.StopOnExtinction && e.simulator.Counts().Infected == 0 {
			result.Stopped = true
			break
		}
	}

	result.History = e.simulator.History()
	result.Final = e.simulator.Counts()
	result.Metrics = e.simulator.Metrics()
	result.Wall = time.Since(start)

	e.logger.Info("experiment finished",
		zap.String("name", e.cfg.Name),
		zap.Int("steps", result.Steps),
		zap.Bool("stopped", result.Stopped),
		zap.Int("infected", result.Final.Infected),
		zap.Int("recovered", result.Final.Recovered),
		zap.Duration("wall", result.Wall),
	)
	return result, runErr
}

// Simulation exposes the underlying simulation, e.g. to add observers
// after Setup.
func (e *Experiment) Simulation() *epidemic.Simulation {
	return e.simulator
}
