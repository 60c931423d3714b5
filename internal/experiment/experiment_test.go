package experiment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/san-kum/episim/internal/epidemic"
)

func testConfig() Config {
	p := epidemic.DefaultParameters()
	p.Seed = 3
	return Config{Name: "test", Params: p, Dt: 0.1, Duration: 2}
}

func TestExperimentRun(t *testing.T) {
	exp := New(testConfig())
	require.NoError(t, exp.Setup(NewRegistry().DefaultMetrics()))

	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 20, result.Steps)
	assert.Equal(t, 21, result.History.Len())
	assert.InDelta(t, 2.0, result.History.LastTime(), 1e-9)
	assert.Equal(t, 80, result.Final.Total())
	assert.Len(t, result.Metrics, 5)
	assert.False(t, result.Stopped)
}

func TestExperimentStopsOnExtinction(t *testing.T) {
	cfg := testConfig()
	cfg.Params.InfectionProbability = 0
	cfg.Params.RecoveryDuration = 0.5
	cfg.StopOnExtinction = true

	exp := New(cfg)
	require.NoError(t, exp.Setup(nil))
	result, err := exp.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Stopped)
	assert.Equal(t, 5, result.Steps)
	assert.Equal(t, epidemic.Counts{Susceptible: 77, Recovered: 3}, result.Final)
}

func TestExperimentNotSetup(t *testing.T) {
	_, err := New(testConfig()).Run(context.Background())
	assert.Error(t, err)
}

func TestExperimentSetupValidation(t *testing.T) {
	cfg := testConfig()
	cfg.Dt = 0
	assert.Error(t, New(cfg).Setup(nil))

	cfg = testConfig()
	cfg.Duration = -1
	assert.Error(t, New(cfg).Setup(nil))

	cfg = testConfig()
	cfg.Params.CommunitySize = 0
	err := New(cfg).Setup(nil)
	assert.ErrorIs(t, err, epidemic.ErrInvalidConfiguration)
}

func TestExperimentCancelled(t *testing.T) {
	exp := New(testConfig())
	require.NoError(t, exp.Setup(nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	result, err := exp.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Zero(t, result.Steps)
	assert.Equal(t, 1, result.History.Len())
}

func TestExperimentLogs(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	exp := New(testConfig(), WithLogger(zap.New(core)))
	require.NoError(t, exp.Setup(nil))
	_, err := exp.Run(context.Background())
	require.NoError(t, err)

	entries := logs.FilterMessage("experiment finished").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "test", entries[0].ContextMap()["name"])
}

func TestConfigSteps(t *testing.T) {
	assert.Equal(t, 3600, Config{Dt: 1.0 / 60, Duration: 60}.Steps())
	assert.Equal(t, 10, Config{Dt: 0.1, Duration: 1}.Steps())
	assert.Zero(t, Config{Dt: 0, Duration: 1}.Steps())
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	names := r.ListMetrics()
	assert.Equal(t, []string{"attack_rate", "epidemic_duration", "peak_infected", "peak_quarantined", "time_to_peak"}, names)

	m, err := r.GetMetric("peak_infected")
	require.NoError(t, err)
	assert.Equal(t, "peak_infected", m.Name())

	_, err = r.GetMetric("energy")
	assert.Error(t, err)

	a := r.DefaultMetrics()
	b := r.DefaultMetrics()
	require.Len(t, a, len(names))
	assert.NotSame(t, a[0], b[0])
}
