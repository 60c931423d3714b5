package epidemic

// DistancingDamping scales the repulsion force before it is added to the
// velocity.
const DistancingDamping = 0.25

// Force is a 2D repulsion vector.
type Force struct {
	X, Y float64
}

// DistancingForces computes the repulsion acting on every agent from all
// other agents of the same zone closer than radius. Each neighbour at
// distance d contributes a unit vector pointing away from it scaled by
// (radius-d)/radius; coincident agents contribute nothing. The result is
// written to dst (grown as needed) and agents is only read.
func DistancingForces(dst []Force, agents []Agent, radius float64, workers int) []Force {
	if cap(dst) < len(agents) {
		dst = make([]Force, len(agents))
	}
	dst = dst[:len(agents)]

	ParallelFor(len(agents), workers, parallelMinChunk, func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = repulsion(agents, i, radius)
		}
	})
	return dst
}

func repulsion(agents []Agent, i int, radius float64) Force {
	var f Force
	if radius <= 0 {
		return f
	}
	a := &agents[i]
	for j := range agents {
		if j == i {
			continue
		}
		b := &agents[j]
		if !a.SameZone(b) {
			continue
		}
		d := a.Distance(b)
		if d > 0 && d < radius {
			strength := (radius - d) / radius
			f.X += (a.X - b.X) / d * strength
			f.Y += (a.Y - b.Y) / d * strength
		}
	}
	return f
}

// ApplyForces adds the damped force to each agent's velocity and rescales
// any velocity faster than maxSpeed down to maxSpeed. The rescaled
// magnitude can land one ulp either side of the cap.
func ApplyForces(agents []Agent, forces []Force, maxSpeed float64) {
	for i := range agents {
		a := &agents[i]
		a.VX += forces[i].X * DistancingDamping
		a.VY += forces[i].Y * DistancingDamping
		if speed := a.Speed(); speed > maxSpeed {
			k := maxSpeed / speed
			a.VX *= k
			a.VY *= k
		}
	}
}
