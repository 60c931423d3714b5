package epidemic

import (
	"math"
	"math/rand"
)

// HealthState is an agent's SIR compartment.
type HealthState uint8

const (
	Susceptible HealthState = iota
	Infected
	Recovered
)

func (h HealthState) String() string {
	switch h {
	case Susceptible:
		return "susceptible"
	case Infected:
		return "infected"
	case Recovered:
		return "recovered"
	default:
		return "unknown"
	}
}

// Agent is a single member of the population.
//
// InfectionDuration is only non-zero while State is Infected. Quarantined
// agents move inside the quarantine zone and stay there until a restart.
type Agent struct {
	X, Y              float64
	VX, VY            float64
	State             HealthState
	InfectionDuration float64
	Quarantined       bool
}

// NewAgent places a susceptible agent uniformly in [0, areaSize) on both
// axes with a uniformly random heading.
func NewAgent(rng *rand.Rand, areaSize, speed float64) Agent {
	x := rng.Float64() * areaSize
	y := rng.Float64() * areaSize
	heading := rng.Float64() * 2 * math.Pi
	return Agent{
		X:  x,
		Y:  y,
		VX: speed * math.Cos(heading),
		VY: speed * math.Sin(heading),
	}
}

func (a *Agent) IsSusceptible() bool { return a.State == Susceptible }
func (a *Agent) IsInfected() bool    { return a.State == Infected }
func (a *Agent) IsRecovered() bool   { return a.State == Recovered }

// Speed returns the magnitude of the velocity vector.
func (a *Agent) Speed() float64 {
	return math.Sqrt(a.VX*a.VX + a.VY*a.VY)
}

// Distance is the Euclidean distance between two agents in the shared
// coordinate frame.
func (a *Agent) Distance(other *Agent) float64 {
	dx := a.X - other.X
	dy := a.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// SameZone reports whether both agents move in the same area.
func (a *Agent) SameZone(other *Agent) bool {
	return a.Quarantined == other.Quarantined
}

// Advance moves the agent by its velocity over dt and reflects it off the
// walls of a square of side bound. A coordinate that reaches margin or
// bound-margin is clamped onto that limit and the matching velocity
// component is negated. Both axes are handled independently.
func (a *Agent) Advance(dt, bound, margin float64) {
	a.X += a.VX * dt
	a.Y += a.VY * dt
	a.X, a.VX = reflect(a.X, a.VX, margin, bound-margin)
	a.Y, a.VY = reflect(a.Y, a.VY, margin, bound-margin)
}

func reflect(p, v, lo, hi float64) (float64, float64) {
	if p <= lo {
		return lo, -v
	}
	if p >= hi {
		return hi, -v
	}
	return p, v
}

// UpdateHealth accumulates infection time and moves an infected agent to
// Recovered once threshold is reached. It reports whether the agent
// recovered during this call.
func (a *Agent) UpdateHealth(dt, threshold float64) bool {
	if a.State != Infected {
		return false
	}
	a.InfectionDuration += dt
	if a.InfectionDuration >= threshold {
		a.State = Recovered
		a.InfectionDuration = 0
		return true
	}
	return false
}

// Infect moves a susceptible agent to Infected with a fresh timer.
// Agents in any other state are left alone.
func (a *Agent) Infect() bool {
	if a.State != Susceptible {
		return false
	}
	a.State = Infected
	a.InfectionDuration = 0
	return true
}
