package epidemic

// Counts is the number of agents in each health state.
type Counts struct {
	Susceptible int
	Infected    int
	Recovered   int
}

func (c Counts) Total() int {
	return c.Susceptible + c.Infected + c.Recovered
}

// Snapshot is the aggregate state of the population at one point in time.
type Snapshot struct {
	Time   float64
	Counts Counts
	// Quarantined counts agents currently in the quarantine zone.
	Quarantined int
}

func (s Snapshot) Population() int { return s.Counts.Total() }

// Percentages returns the share of the population in each state, in [0, 100].
func (s Snapshot) Percentages() (susceptible, infected, recovered float64) {
	n := s.Population()
	if n == 0 {
		return 0, 0, 0
	}
	total := float64(n)
	return float64(s.Counts.Susceptible) / total * 100,
		float64(s.Counts.Infected) / total * 100,
		float64(s.Counts.Recovered) / total * 100
}

// Observer is notified after every recorded snapshot, including the tick-0
// snapshot taken at construction and on every restart.
type Observer interface {
	OnTick(s Snapshot)
}

// Metric summarises a run from its snapshots. Metrics are reset whenever
// the population is rebuilt.
type Metric interface {
	Name() string
	Observe(s Snapshot)
	Value() float64
	Reset()
}
