package epidemic

// History holds the statistics of a run as parallel sequences: one entry per
// recorded snapshot, percentages in [0, 100].
type History struct {
	Times       []float64
	Susceptible []float64
	Infected    []float64
	Recovered   []float64
}

func (h History) Len() int { return len(h.Times) }

// reset drops the old sequences rather than truncating them, so views
// handed out before a restart keep their data.
func (h *History) reset(s Snapshot) {
	*h = History{}
	h.append(s)
}

func (h *History) append(s Snapshot) {
	sus, inf, rec := s.Percentages()
	h.Times = append(h.Times, s.Time)
	h.Susceptible = append(h.Susceptible, sus)
	h.Infected = append(h.Infected, inf)
	h.Recovered = append(h.Recovered, rec)
}

// LastTime returns the elapsed time of the newest entry.
func (h History) LastTime() float64 {
	if len(h.Times) == 0 {
		return 0
	}
	return h.Times[len(h.Times)-1]
}

// view shares the backing arrays but clips capacity so appends made by the
// caller never write into the simulation's storage.
func (h *History) view() History {
	return History{
		Times:       h.Times[:len(h.Times):len(h.Times)],
		Susceptible: h.Susceptible[:len(h.Susceptible):len(h.Susceptible)],
		Infected:    h.Infected[:len(h.Infected):len(h.Infected)],
		Recovered:   h.Recovered[:len(h.Recovered):len(h.Recovered)],
	}
}

// Clone returns a deep copy.
func (h History) Clone() History {
	return History{
		Times:       append([]float64(nil), h.Times...),
		Susceptible: append([]float64(nil), h.Susceptible...),
		Infected:    append([]float64(nil), h.Infected...),
		Recovered:   append([]float64(nil), h.Recovered...),
	}
}

// Tail returns the last n entries (or all of them when n exceeds Len).
func (h History) Tail(n int) History {
	if n < 0 || n >= len(h.Times) {
		return h
	}
	from := len(h.Times) - n
	return History{
		Times:       h.Times[from:],
		Susceptible: h.Susceptible[from:],
		Infected:    h.Infected[from:],
		Recovered:   h.Recovered[from:],
	}
}
