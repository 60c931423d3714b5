// Package epidemic implements a spatial SIR epidemic simulation.
//
// Agents move through a bounded square area, reflect at its walls, and carry
// one of three health states. Every tick runs a fixed pipeline:
//
//   - quarantine relocation of infected agents (when enabled)
//   - social distancing repulsion (when enabled)
//   - health timers and kinematics, agent by agent
//   - proximity driven infection of susceptible agents
//   - a statistics snapshot appended to the [History]
//
// # Example
//
//	s, err := epidemic.New(epidemic.DefaultParameters())
//	if err != nil {
//	    return err
//	}
//	for i := 0; i < 600; i++ {
//	    if err := s.Tick(1.0 / 60); err != nil {
//	        return err
//	    }
//	}
//	fmt.Println(s.Counts())
//
// # Determinism
//
// A [Simulation] owns its random source, seeded from [Parameters.Seed].
// Read-only passes over the population may be sharded across workers, but
// every random draw happens sequentially in agent order, so a given seed
// reproduces the same run for any worker count.
//
// # Thread Safety
//
// Simulation instances are NOT thread-safe. The host drives Tick, Restart
// and the setters from a single goroutine. Use [Ensemble] to run several
// independent simulations in parallel.
package epidemic
