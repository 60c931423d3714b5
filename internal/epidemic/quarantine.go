package epidemic

// relocateInfected moves every infected agent to a uniformly random point of
// the quarantine zone, [margin, size-margin) on both axes, and marks it
// quarantined. Already quarantined agents are redrawn as well. Recovery
// does not release an agent; only a restart does.
func (s *Simulation) relocateInfected() int {
	if !s.params.Quarantine {
		return 0
	}
	lo := s.params.Margin
	span := s.params.QuarantineSize - 2*s.params.Margin

	moved := 0
	for i := range s.agents {
		a := &s.agents[i]
		if a.State != Infected {
			continue
		}
		a.X = lo + s.rng.Float64()*span
		a.Y = lo + s.rng.Float64()*span
		a.Quarantined = true
		moved++
	}
	return moved
}

// bound is the side of the square the agent currently moves in.
func (s *Simulation) bound(a *Agent) float64 {
	if a.Quarantined {
		return s.params.QuarantineSize
	}
	return s.params.AreaSize
}
