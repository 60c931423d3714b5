package epidemic

import "math"

// parallelMinChunk is the smallest slice of agents worth a goroutine.
const parallelMinChunk = 32

// AtRisk returns, in ascending order, the indices of susceptible agents that
// have at least one infected agent of the same zone within radius
// (inclusive). The population is only read.
func AtRisk(agents []Agent, radius float64, workers int) []int {
	var p propagator
	return p.atRisk(nil, agents, radius, workers)
}

// propagator keeps the buffers of the at-risk pass between ticks.
type propagator struct {
	index grid
	flags []bool
}

func (p *propagator) atRisk(dst []int, agents []Agent, radius float64, workers int) []int {
	if cap(p.flags) < len(agents) {
		p.flags = make([]bool, len(agents))
	}
	flags := p.flags[:len(agents)]
	for i := range flags {
		flags[i] = false
	}

	if radius > 0 {
		p.index.build(agents, radius)
		ParallelFor(len(agents), workers, parallelMinChunk, func(start, end int) {
			for i := start; i < end; i++ {
				if agents[i].State == Susceptible {
					flags[i] = p.index.exposed(agents, i, radius)
				}
			}
		})
	} else {
		ParallelFor(len(agents), workers, parallelMinChunk, func(start, end int) {
			for i := start; i < end; i++ {
				if agents[i].State == Susceptible {
					flags[i] = exposedBrute(agents, i, radius)
				}
			}
		})
	}

	for i, f := range flags {
		if f {
			dst = append(dst, i)
		}
	}
	return dst
}

// exposedBrute checks agent i against every infected agent.
func exposedBrute(agents []Agent, i int, radius float64) bool {
	a := &agents[i]
	for j := range agents {
		b := &agents[j]
		if b.State != Infected || !a.SameZone(b) {
			continue
		}
		if a.Distance(b) <= radius {
			return true
		}
	}
	return false
}

type cellKey struct {
	quarantined bool
	cx, cy      int
}

// grid buckets infected agents into square cells slightly wider than the
// infection radius, so any infected agent within the radius of a point lies
// in the point's cell or one of its eight neighbours. Candidates are then
// confirmed with the exact distance test, which keeps the result identical
// to the brute-force scan.
type grid struct {
	cell  float64
	cells map[cellKey][]int
}

func (g *grid) build(agents []Agent, radius float64) {
	g.cell = radius * (1 + 1e-9)
	switch {
	case g.cells == nil:
		g.cells = make(map[cellKey][]int)
	case len(g.cells) > 4*len(agents):
		// drop cells left behind by agents that moved on
		clear(g.cells)
	default:
		for k, v := range g.cells {
			g.cells[k] = v[:0]
		}
	}
	for j := range agents {
		if agents[j].State != Infected {
			continue
		}
		k := g.key(&agents[j])
		g.cells[k] = append(g.cells[k], j)
	}
}

func (g *grid) key(a *Agent) cellKey {
	return cellKey{
		quarantined: a.Quarantined,
		cx:          int(math.Floor(a.X / g.cell)),
		cy:          int(math.Floor(a.Y / g.cell)),
	}
}

func (g *grid) exposed(agents []Agent, i int, radius float64) bool {
	a := &agents[i]
	k := g.key(a)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			nk := cellKey{quarantined: k.quarantined, cx: k.cx + dx, cy: k.cy + dy}
			for _, j := range g.cells[nk] {
				if a.Distance(&agents[j]) <= radius {
					return true
				}
			}
		}
	}
	return false
}
