package automation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/san-kum/episim/internal/config"
	"github.com/san-kum/episim/internal/epidemic"
	"github.com/san-kum/episim/internal/experiment"
)

func baseConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Run.Dt = 0.1
	cfg.Run.Duration = 2
	cfg.Run.Seed = 11
	return cfg
}

const scenarioYAML = `
name: lockdown
description: quarantine after one second
preset: baseline
duration: 2
dt: 0.1
seed: 5
params:
  infection_probability: 0
events:
  - at: 1
    set:
      quarantine: 1
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0644))

	sc, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "lockdown", sc.Name)
	assert.Equal(t, "baseline", sc.Preset)
	assert.Equal(t, int64(5), sc.Seed)
	require.Len(t, sc.Events, 1)
	assert.Equal(t, 1.0, sc.Events[0].At)
	assert.Equal(t, 1.0, sc.Events[0].Set["quarantine"])

	_, err = LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScenarioConfig(t *testing.T) {
	sc := &Scenario{
		Name:   "x",
		Preset: "crowded",
		Dt:     0.05,
		Params: map[string]float64{"infection_radius": 4},
	}
	cfg, err := sc.Config(baseConfig())
	require.NoError(t, err)
	assert.Equal(t, 150, cfg.Simulation.CommunitySize)
	assert.Equal(t, 4.0, cfg.Simulation.InfectionRadius)
	assert.Equal(t, 0.05, cfg.Run.Dt)
	assert.Equal(t, 90.0, cfg.Run.Duration)

	_, err = (&Scenario{Preset: "nope"}).Config(baseConfig())
	assert.Error(t, err)

	_, err = (&Scenario{Params: map[string]float64{"nope": 1}}).Config(baseConfig())
	assert.Error(t, err)
}

func TestRunScenarioAppliesEvents(t *testing.T) {
	sc := &Scenario{
		Name:   "lockdown",
		Params: map[string]float64{"infection_probability": 0},
		Events: []Event{{At: 1, Set: map[string]float64{"quarantine": 1}}},
	}

	res, err := RunScenario(context.Background(), sc, baseConfig(), experiment.NewRegistry(), nil)
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	assert.InDelta(t, 1.0, res.Events[0].Applied, 1e-9)
	assert.False(t, res.Initial.Quarantine)
	assert.Equal(t, 3.0, res.Result.Metrics["peak_quarantined"])
	assert.Equal(t, epidemic.Counts{Susceptible: 77, Infected: 3}, res.Result.Final)
}

func TestRunScenarioRestartEvent(t *testing.T) {
	sc := &Scenario{
		Name: "resize",
		Events: []Event{
			{At: 0.5, Set: map[string]float64{"community_size": 30}, Restart: true},
		},
	}

	res, err := RunScenario(context.Background(), sc, baseConfig(), experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	assert.True(t, res.Events[0].Restart)
	assert.Equal(t, 30, res.Events[0].Counts.Total())
	assert.Equal(t, 30, res.Result.Final.Total())
}

func TestRunScenarioRejectsBadEvent(t *testing.T) {
	sc := &Scenario{
		Name:   "bad",
		Events: []Event{{At: 0, Set: map[string]float64{"infection_probability": 2}}},
	}
	_, err := RunScenario(context.Background(), sc, baseConfig(), experiment.NewRegistry(), nil)
	assert.ErrorIs(t, err, epidemic.ErrInvalidConfiguration)
}

func TestSetLive(t *testing.T) {
	p := epidemic.DefaultParameters()
	p.Seed = 1
	s, err := epidemic.New(p)
	require.NoError(t, err)

	require.NoError(t, SetLive(s, "infection_radius", 6))
	assert.Equal(t, 6.0, s.Params().InfectionRadius)

	require.NoError(t, SetLive(s, "social_distancing", 1))
	assert.True(t, s.Params().SocialDistancing)

	err = SetLive(s, "speed", 30)
	assert.ErrorIs(t, err, ErrAppliesOnRestart)
	assert.Equal(t, 30.0, s.Pending().Speed)
	assert.Equal(t, epidemic.DefaultSpeed, s.Params().Speed)

	assert.ErrorIs(t, SetLive(s, "community_size", 40), ErrAppliesOnRestart)
	assert.Equal(t, 40, s.Pending().CommunitySize)

	assert.Error(t, SetLive(s, "unknown", 1))
	err = SetLive(s, "community_size", 0)
	assert.ErrorIs(t, err, epidemic.ErrInvalidConfiguration)
	assert.NotErrorIs(t, err, ErrAppliesOnRestart)
}

func TestSetLiveDistancingMaxSpeed(t *testing.T) {
	p := epidemic.DefaultParameters()
	p.Seed = 1
	p.SocialDistancing = true
	s, err := epidemic.New(p)
	require.NoError(t, err)

	require.NoError(t, SetLive(s, "distancing_max_speed", 5))
	require.NoError(t, s.Tick(0.01))

	assert.Equal(t, 5.0, s.Params().DistancingMaxSpeed)
	for _, a := range s.Agents(nil) {
		assert.LessOrEqual(t, a.Speed(), 5+1e-9)
	}
}

func TestRunScenarioWarnsOnStagedEvent(t *testing.T) {
	sc := &Scenario{
		Name:   "faster",
		Events: []Event{{At: 0.5, Set: map[string]float64{"speed": 10}}},
	}

	res, err := RunScenario(context.Background(), sc, baseConfig(), experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, res.Events, 1)
	require.Len(t, res.Events[0].Warnings, 1)
	assert.Contains(t, res.Events[0].Warnings[0], "speed=10")
	assert.Contains(t, res.Events[0].Warnings[0], "next restart")
}

func TestSweepValues(t *testing.T) {
	sw := &ParameterSweep{ParamMin: 0, ParamMax: 1, NumSteps: 5}
	assert.Equal(t, []float64{0, 0.25, 0.5, 0.75, 1}, sw.Values())

	sw.NumSteps = 1
	assert.Equal(t, []float64{0}, sw.Values())
}

func TestRunSweep(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	base := baseConfig()
	base.Simulation.CommunitySize = 30
	sw := &ParameterSweep{
		ParamName:    "infection_probability",
		ParamMin:     0,
		ParamMax:     1,
		NumSteps:     3,
		RunsPerValue: 2,
		SeedStart:    100,
		Workers:      2,
	}

	results, err := RunSweep(context.Background(), sw, base, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	require.Len(t, results, 6)

	for i, r := range results {
		assert.Equal(t, sw.Values()[i/2], r.ParamValue)
		assert.Equal(t, int64(100+i%2), r.Seed)
		assert.Equal(t, 30, r.Final.Total())
	}
	// nobody new gets infected at probability zero
	assert.Equal(t, 3, results[0].Final.Infected)

	again, err := RunSweep(context.Background(), sw, base, experiment.NewRegistry(), nil)
	require.NoError(t, err)
	assert.Equal(t, results, again)

	summary := Summarize(results)
	require.Len(t, summary, 3)
	assert.Equal(t, 2, summary[0].Runs)
	assert.InDelta(t, 10.0, summary[0].Mean["attack_rate"], 1e-9)

	lo, hi := MetricRange(summary, "attack_rate")
	assert.LessOrEqual(t, lo, hi)
	assert.InDelta(t, 10.0, lo, 1e-9)
}

func TestRunSweepErrors(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	_, err := RunSweep(context.Background(), &ParameterSweep{ParamName: "nope", RunsPerValue: 1}, baseConfig(), experiment.NewRegistry(), nil)
	assert.Error(t, err)

	_, err = RunSweep(context.Background(), &ParameterSweep{ParamName: "speed"}, baseConfig(), experiment.NewRegistry(), nil)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = RunSweep(ctx, &ParameterSweep{ParamName: "speed", ParamMin: 10, NumSteps: 1, RunsPerValue: 1}, baseConfig(), experiment.NewRegistry(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
