// Package viz provides a live terminal host for the epidemic simulation.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: advances a simulation with the wall clock and draws it
//   - [Canvas]: Braille-based pixel canvas with per-cell colour
//   - Theme selection with 4 built-in color schemes
//
// The canvas shows the community and the quarantine zone side by side, one
// dot per agent coloured by health state, next to the current counts and a
// plot of the recent history.
//
// # Key Bindings
//
//	Space   - Pause/Resume simulation
//	R/Enter - Restart with the configured parameters
//	D       - Toggle social distancing
//	I       - Toggle quarantine
//	Tab     - Select a parameter, Up/Down to tune it
//	T       - Cycle color themes
//	?       - Show help overlay
package viz
