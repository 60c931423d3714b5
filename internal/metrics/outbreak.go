package metrics

import "github.com/san-kum/episim/internal/epidemic"

// AttackRate is the share of the population that has been infected at some
// point, in percent. Recovered agents never return to susceptible, so it is
// read off the latest snapshot.
type AttackRate struct {
	name string
	rate float64
}

func NewAttackRate() *AttackRate {
	return &AttackRate{name: "attack_rate"}
}

func (a *AttackRate) Name() string { return a.name }

func (a *AttackRate) Observe(s epidemic.Snapshot) {
	_, inf, rec := s.Percentages()
	a.rate = inf + rec
}

func (a *AttackRate) Value() float64 { return a.rate }

func (a *AttackRate) Reset() { a.rate = 0 }

// EpidemicDuration is the time of the first snapshot without infected
// agents, or the latest time while the outbreak is still running.
type EpidemicDuration struct {
	name  string
	time  float64
	ended bool
}

func NewEpidemicDuration() *EpidemicDuration {
	return &EpidemicDuration{name: "epidemic_duration"}
}

func (e *EpidemicDuration) Name() string { return e.name }

func (e *EpidemicDuration) Observe(s epidemic.Snapshot) {
	if e.ended {
		return
	}
	e.time = s.Time
	if s.Counts.Infected == 0 {
		e.ended = true
	}
}

func (e *EpidemicDuration) Value() float64 { return e.time }

// Ended reports whether the infected count has reached zero.
func (e *EpidemicDuration) Ended() bool { return e.ended }

func (e *EpidemicDuration) Reset() {
	e.time = 0
	e.ended = false
}

// PeakQuarantined is the largest number of agents held in quarantine.
type PeakQuarantined struct {
	name string
	peak int
}

func NewPeakQuarantined() *PeakQuarantined {
	return &PeakQuarantined{name: "peak_quarantined"}
}

func (p *PeakQuarantined) Name() string { return p.name }

func (p *PeakQuarantined) Observe(s epidemic.Snapshot) {
	if s.Quarantined > p.peak {
		p.peak = s.Quarantined
	}
}

func (p *PeakQuarantined) Value() float64 { return float64(p.peak) }

func (p *PeakQuarantined) Reset() { p.peak = 0 }
