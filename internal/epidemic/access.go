package epidemic

import "fmt"

// Read access for hosts. Values are copies; nothing returned here aliases
// mutable simulation state except the history view, whose slices must be
// treated as read-only.

func (s *Simulation) Population() int { return len(s.agents) }

// Agent returns a copy of agent i.
func (s *Simulation) Agent(i int) Agent { return s.agents[i] }

// Agents appends copies of all agents to dst.
func (s *Simulation) Agents(dst []Agent) []Agent { return append(dst, s.agents...) }

func (s *Simulation) Counts() Counts   { return s.last.Counts }
func (s *Simulation) Latest() Snapshot { return s.last }
func (s *Simulation) Elapsed() float64 { return s.last.Time }
func (s *Simulation) Ticks() int       { return s.ticks }

// History returns the statistics recorded since the last restart.
func (s *Simulation) History() History { return s.history.view() }

// Params returns the parameters the running population was built with,
// plus any live edits made since.
func (s *Simulation) Params() Parameters { return s.params }

// Pending returns the parameters the next Restart will use.
func (s *Simulation) Pending() Parameters { return s.pending }

// Metrics returns the current value of every registered metric.
func (s *Simulation) Metrics() map[string]float64 {
	out := make(map[string]float64, len(s.metrics))
	for _, m := range s.metrics {
		out[m.Name()] = m.Value()
	}
	return out
}

// Setters. Community size and initial infected count only change the next
// Restart; the others take effect on the next Tick. Invalid values are
// rejected and the previous value is kept.

func (s *Simulation) SetCommunitySize(n int) error {
	if n < 1 {
		return rejected("community_size", float64(n), "must be at least 1")
	}
	s.pending.CommunitySize = n
	return nil
}

func (s *Simulation) SetInitialInfected(n int) error {
	if n < 1 {
		return rejected("initial_infected", float64(n), "must be at least 1")
	}
	s.pending.InitialInfected = n
	return nil
}

func (s *Simulation) SetInfectionRadius(r float64) error {
	if !finiteNonNegative(r) {
		return rejected("infection_radius", r, "must be a finite non-negative number")
	}
	s.params.InfectionRadius = r
	s.pending.InfectionRadius = r
	return nil
}

func (s *Simulation) SetInfectionProbability(p float64) error {
	if !inRange(p, 0, 1) {
		return rejected("infection_probability", p, "must be within [0, 1]")
	}
	s.params.InfectionProbability = p
	s.pending.InfectionProbability = p
	return nil
}

func (s *Simulation) SetRecoveryDuration(d float64) error {
	if !finiteNonNegative(d) {
		return rejected("recovery_duration", d, "must be a finite non-negative number")
	}
	s.params.RecoveryDuration = d
	s.pending.RecoveryDuration = d
	return nil
}

func (s *Simulation) SetSocialDistancing(enabled bool) {
	s.params.SocialDistancing = enabled
	s.pending.SocialDistancing = enabled
}

func (s *Simulation) SetSocialDistancingRadius(r float64) error {
	if !finiteNonNegative(r) {
		return rejected("distancing_radius", r, "must be a finite non-negative number")
	}
	s.params.DistancingRadius = r
	s.pending.DistancingRadius = r
	return nil
}

// SetDistancingMaxSpeed changes the cap applied while distancing is on.
func (s *Simulation) SetDistancingMaxSpeed(v float64) error {
	if !finiteNonNegative(v) {
		return rejected("distancing_max_speed", v, "must be a finite non-negative number")
	}
	s.params.DistancingMaxSpeed = v
	s.pending.DistancingMaxSpeed = v
	return nil
}

func (s *Simulation) SetQuarantine(enabled bool) {
	s.params.Quarantine = enabled
	s.pending.Quarantine = enabled
}

// SetParams replaces every parameter for the next Restart. Structural
// problems are rejected up front; out-of-range values are clamped at
// restart time.
func (s *Simulation) SetParams(p Parameters) error {
	if _, err := p.Normalize(); err != nil && !IsAdjustment(err) {
		return fmt.Errorf("set params: %w", err)
	}
	s.pending = p
	return nil
}
