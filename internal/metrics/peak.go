package metrics

import "github.com/san-kum/episim/internal/epidemic"

// PeakInfected is the largest infected share of the population seen, in
// percent.
type PeakInfected struct {
	name string
	peak float64
}

func NewPeakInfected() *PeakInfected {
	return &PeakInfected{name: "peak_infected"}
}

func (p *PeakInfected) Name() string { return p.name }

func (p *PeakInfected) Observe(s epidemic.Snapshot) {
	_, inf, _ := s.Percentages()
	if inf > p.peak {
		p.peak = inf
	}
}

func (p *PeakInfected) Value() float64 { return p.peak }

func (p *PeakInfected) Reset() { p.peak = 0 }

// TimeToPeak is the elapsed time at which the infected count first reached
// its maximum.
type TimeToPeak struct {
	name  string
	count int
	time  float64
	seen  bool
}

func NewTimeToPeak() *TimeToPeak {
	return &TimeToPeak{name: "time_to_peak"}
}

func (t *TimeToPeak) Name() string { return t.name }

func (t *TimeToPeak) Observe(s epidemic.Snapshot) {
	if !t.seen || s.Counts.Infected > t.count {
		t.count = s.Counts.Infected
		t.time = s.Time
		t.seen = true
	}
}

func (t *TimeToPeak) Value() float64 { return t.time }

func (t *TimeToPeak) Reset() {
	t.count = 0
	t.time = 0
	t.seen = false
}
