package epidemic

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// Simulation owns a population and its statistics history and advances
// them one tick at a time.
type Simulation struct {
	params  Parameters
	pending Parameters

	agents  []Agent
	history History
	last    Snapshot
	ticks   int

	rng    *rand.Rand
	logger *zap.Logger

	observers []Observer
	metrics   []Metric

	forces []Force
	risk   []int
	prop   propagator
}

type Option func(*Simulation)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRand replaces the seeded random source.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulation) {
		if r != nil {
			s.rng = r
		}
	}
}

// New validates p and builds the initial population: CommunitySize agents,
// the first InitialInfected of them infected, and a history holding the
// tick-0 snapshot.
func New(p Parameters, opts ...Option) (*Simulation, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		params:  p,
		pending: p,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(seedOf(p.Seed)))
	}

	s.populate()
	return s, nil
}

func seedOf(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}

func (s *Simulation) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// AddMetric registers m and feeds it the current snapshot so metrics added
// after construction still see tick 0.
func (s *Simulation) AddMetric(m Metric) {
	s.metrics = append(s.metrics, m)
	m.Observe(s.Latest())
}

// populate rebuilds agents and history from s.params.
func (s *Simulation) populate() {
	n := s.params.CommunitySize
	if cap(s.agents) < n {
		s.agents = make([]Agent, n)
	}
	s.agents = s.agents[:n]
	for i := range s.agents {
		s.agents[i] = NewAgent(s.rng, s.params.AreaSize, s.params.Speed)
	}
	for i := 0; i < s.params.InitialInfected && i < n; i++ {
		s.agents[i].Infect()
	}
	s.ticks = 0

	for _, m := range s.metrics {
		m.Reset()
	}
	s.last = s.snapshot(0)
	s.history.reset(s.last)
	s.notify(s.last)
}

// Tick advances the simulation by dt seconds:
// quarantine relocation, social distancing, health and movement,
// infection spread, then one history entry.
func (s *Simulation) Tick(dt float64) error {
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: dt=%g", ErrInvalidStep, dt)
	}

	relocated := s.relocateInfected()

	if s.params.SocialDistancing {
		s.forces = DistancingForces(s.forces, s.agents, s.params.DistancingRadius, s.params.Workers)
		ApplyForces(s.agents, s.forces, s.params.DistancingMaxSpeed)
	}

	recovered := 0
	for i := range s.agents {
		a := &s.agents[i]
		if a.UpdateHealth(dt, s.params.RecoveryDuration) {
			recovered++
		}
		a.Advance(dt, s.bound(a), s.params.Margin)
	}

	infected := s.spread()

	s.ticks++
	snap := s.snapshot(s.history.LastTime() + dt)
	s.last = snap
	s.history.append(snap)
	s.notify(snap)

	if ce := s.logger.Check(zap.DebugLevel, "tick"); ce != nil {
		ce.Write(
			zap.Int("tick", s.ticks),
			zap.Float64("time", snap.Time),
			zap.Int("relocated", relocated),
			zap.Int("recovered", recovered),
			zap.Int("infected", infected),
			zap.Int("susceptible_total", snap.Counts.Susceptible),
			zap.Int("infected_total", snap.Counts.Infected),
		)
	}
	return nil
}

// spread computes the at-risk set from the current population before
// touching any agent, then draws once per at-risk agent in index order.
func (s *Simulation) spread() int {
	s.risk = s.prop.atRisk(s.risk[:0], s.agents, s.params.InfectionRadius, s.params.Workers)
	infected := 0
	for _, i := range s.risk {
		if s.rng.Float64() < s.params.InfectionProbability {
			if s.agents[i].Infect() {
				infected++
			}
		}
	}
	return infected
}

// Restart rebuilds the population from the configured parameters, including
// community size and initial infected count set since the last restart,
// and reseeds the history. Out-of-range values are clamped and reported in
// the returned error (IsAdjustment(err) is true and the restart happened).
// Any other error leaves the simulation untouched.
func (s *Simulation) Restart() error {
	p, err := s.pending.Normalize()
	if err != nil && !IsAdjustment(err) {
		return fmt.Errorf("restart: %w", err)
	}
	if err != nil {
		s.logger.Warn("parameters adjusted on restart", zap.Error(err))
	}

	s.params = p
	s.populate()

	s.logger.Info("simulation restarted",
		zap.Int("community_size", p.CommunitySize),
		zap.Int("initial_infected", p.InitialInfected),
		zap.Float64("infection_radius", p.InfectionRadius),
		zap.Bool("social_distancing", p.SocialDistancing),
		zap.Bool("quarantine", p.Quarantine),
	)
	return err
}

func (s *Simulation) snapshot(t float64) Snapshot {
	snap := Snapshot{Time: t}
	for i := range s.agents {
		switch s.agents[i].State {
		case Susceptible:
			snap.Counts.Susceptible++
		case Infected:
			snap.Counts.Infected++
		case Recovered:
			snap.Counts.Recovered++
		}
		if s.agents[i].Quarantined {
			snap.Quarantined++
		}
	}
	return snap
}

func (s *Simulation) notify(snap Snapshot) {
	for _, m := range s.metrics {
		m.Observe(snap)
	}
	for _, o := range s.observers {
		o.OnTick(snap)
	}
}
