package epidemic

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAgent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		a := NewAgent(rng, DefaultAreaSize, DefaultSpeed)

		assert.Equal(t, Susceptible, a.State)
		assert.Zero(t, a.InfectionDuration)
		assert.False(t, a.Quarantined)
		assert.GreaterOrEqual(t, a.X, 0.0)
		assert.Less(t, a.X, DefaultAreaSize)
		assert.GreaterOrEqual(t, a.Y, 0.0)
		assert.Less(t, a.Y, DefaultAreaSize)
		assert.InDelta(t, DefaultSpeed, a.Speed(), 1e-9)
	}
}

func TestAdvance(t *testing.T) {
	const margin, bound = 10.0, 350.0

	tests := []struct {
		name           string
		in             Agent
		dt             float64
		wantX, wantY   float64
		wantVX, wantVY float64
	}{
		{"interior", Agent{X: 150, Y: 20, VX: 2, VY: 2}, 1, 152, 22, 2, 2},
		{"scaled by dt", Agent{X: 150, Y: 20, VX: 2, VY: -4}, 0.5, 151, 18, 2, -4},
		{"left wall", Agent{X: 7, Y: 100, VX: -2, VY: 2}, 1, margin, 102, 2, 2},
		{"right wall", Agent{X: 339, Y: 100, VX: 3, VY: 0}, 1, bound - margin, 100, -3, 0},
		{"top wall", Agent{X: 100, Y: 11, VX: 1, VY: -5}, 1, 101, margin, 1, 5},
		{"bottom wall", Agent{X: 100, Y: 338, VX: 1, VY: 5}, 1, 101, bound - margin, 1, -5},
		{"corner", Agent{X: 11, Y: 339, VX: -4, VY: 4}, 1, margin, bound - margin, 4, -4},
		{"zero dt on the margin still reflects", Agent{X: margin, Y: 50, VX: 3, VY: 0}, 0, margin, 50, -3, 0},
		{"inside band moving inward", Agent{X: 5, Y: 100, VX: 30, VY: 0}, 0.01, margin, 100, -30, 0},
		{"on far margin moving away", Agent{X: bound - margin, Y: 100, VX: -2, VY: 0}, 0, bound - margin, 100, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.in
			a.Advance(tt.dt, bound, margin)
			assert.Equal(t, tt.wantX, a.X)
			assert.Equal(t, tt.wantY, a.Y)
			assert.Equal(t, tt.wantVX, a.VX)
			assert.Equal(t, tt.wantVY, a.VY)
		})
	}
}

func TestAdvance_JustPastMargin(t *testing.T) {
	const eps = 1e-3
	a := Agent{X: DefaultMargin - eps, Y: 100, VX: -1.5, VY: 0.75}
	a.Advance(0.01, DefaultAreaSize, DefaultMargin)

	assert.Equal(t, DefaultMargin, a.X)
	assert.Equal(t, 1.5, a.VX)
	assert.Equal(t, 0.75, a.VY)
	assert.InDelta(t, 100.0075, a.Y, 1e-12)
}

func TestAdvance_QuarantineBound(t *testing.T) {
	a := Agent{X: 185, Y: 100, VX: 10, VY: 0, Quarantined: true}
	s := &Simulation{params: DefaultParameters()}

	a.Advance(1, s.bound(&a), DefaultMargin)

	assert.Equal(t, DefaultQuarantineSize-DefaultMargin, a.X)
	assert.Equal(t, -10.0, a.VX)
}

func TestDistance(t *testing.T) {
	a := Agent{X: 10, Y: 20}
	b := Agent{X: 10, Y: 24}
	assert.Equal(t, 4.0, a.Distance(&b))
	assert.Equal(t, 4.0, b.Distance(&a))

	c := Agent{X: 13, Y: 24}
	assert.Equal(t, 5.0, a.Distance(&c))
}

func TestUpdateHealth(t *testing.T) {
	a := Agent{}
	require.True(t, a.Infect())

	for i := 0; i < 3; i++ {
		assert.False(t, a.UpdateHealth(0.25, 1.0))
		assert.Equal(t, Infected, a.State)
	}
	assert.Equal(t, 0.75, a.InfectionDuration)

	assert.True(t, a.UpdateHealth(0.25, 1.0))
	assert.Equal(t, Recovered, a.State)
	assert.Zero(t, a.InfectionDuration)

	assert.False(t, a.UpdateHealth(0.25, 1.0))
	assert.Zero(t, a.InfectionDuration)
}

func TestUpdateHealth_IgnoresNonInfected(t *testing.T) {
	for _, st := range []HealthState{Susceptible, Recovered} {
		a := Agent{State: st}
		assert.False(t, a.UpdateHealth(100, 1))
		assert.Equal(t, st, a.State)
		assert.Zero(t, a.InfectionDuration)
	}
}

func TestInfect_OnlySusceptible(t *testing.T) {
	r := Agent{State: Recovered}
	assert.False(t, r.Infect())
	assert.Equal(t, Recovered, r.State)

	i := Agent{State: Infected, InfectionDuration: 2}
	assert.False(t, i.Infect())
	assert.Equal(t, 2.0, i.InfectionDuration)
}

func TestHealthState_String(t *testing.T) {
	assert.Equal(t, "susceptible", Susceptible.String())
	assert.Equal(t, "infected", Infected.String())
	assert.Equal(t, "recovered", Recovered.String())
	assert.Equal(t, "unknown", HealthState(9).String())
}

func TestReflect_NeverLeavesBand(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 1000; i++ {
		a := NewAgent(rng, DefaultAreaSize, 500)
		a.X = DefaultMargin + rng.Float64()*(DefaultAreaSize-2*DefaultMargin)
		a.Y = DefaultMargin + rng.Float64()*(DefaultAreaSize-2*DefaultMargin)
		speed := a.Speed()

		a.Advance(rng.Float64(), DefaultAreaSize, DefaultMargin)

		assert.GreaterOrEqual(t, a.X, DefaultMargin)
		assert.LessOrEqual(t, a.X, DefaultAreaSize-DefaultMargin)
		assert.GreaterOrEqual(t, a.Y, DefaultMargin)
		assert.LessOrEqual(t, a.Y, DefaultAreaSize-DefaultMargin)
		assert.InDelta(t, speed, a.Speed(), 1e-9*math.Max(1, speed))
	}
}
