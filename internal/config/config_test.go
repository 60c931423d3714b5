package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/episim/internal/epidemic"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 80, cfg.Simulation.CommunitySize)
	assert.Greater(t, cfg.Run.Dt, 0.0)
	assert.Greater(t, cfg.Run.Duration, 0.0)
	assert.Equal(t, DefaultDataDir, cfg.DataDir)

	p := cfg.Params()
	assert.Equal(t, epidemic.DefaultParameters(), p)
}

func TestParamsRoundTrip(t *testing.T) {
	p := epidemic.DefaultParameters()
	p.SocialDistancing = true
	p.InfectionRadius = 9
	p.Workers = 0

	assert.Equal(t, p, FromParams(p).Params())
}

func TestLoadSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "episim.yaml")

	cfg := DefaultConfig()
	cfg.Simulation.Quarantine = true
	cfg.Simulation.CommunitySize = 120
	cfg.Run.Seed = 7
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := "simulation:\n  infection_radius: 8\nrun:\n  duration: 30\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8.0, cfg.Simulation.InfectionRadius)
	assert.Equal(t, 30.0, cfg.Run.Duration)
	assert.Equal(t, 80, cfg.Simulation.CommunitySize)
	assert.Equal(t, DefaultDt, cfg.Run.Dt)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewFromViper(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("simulation.community_size", 40)
	v.Set("run.seed", 99)

	cfg, err := NewFromViper(v)
	require.NoError(t, err)
	assert.Equal(t, 40, cfg.Simulation.CommunitySize)
	assert.Equal(t, int64(99), cfg.Run.Seed)
	assert.Equal(t, 3, cfg.Simulation.InitialInfected)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestNewFromViper_Invalid(t *testing.T) {
	v := viper.New()
	SetDefaults(v)
	v.Set("simulation.infection_probability", 3)
	v.Set("run.dt", 0)

	_, err := NewFromViper(v)
	require.Error(t, err)
	assert.ErrorIs(t, err, epidemic.ErrInvalidConfiguration)
	assert.Contains(t, err.Error(), "run.dt")
}

func TestSet(t *testing.T) {
	s := DefaultSimulation()

	require.NoError(t, s.Set("infection_radius", 12))
	require.NoError(t, s.Set("community_size", 60))
	require.NoError(t, s.Set("quarantine", 1))

	assert.Equal(t, 12.0, s.InfectionRadius)
	assert.Equal(t, 60, s.CommunitySize)
	assert.True(t, s.Quarantine)

	assert.Error(t, s.Set("gravity", 9.81))
}

func TestParamNames(t *testing.T) {
	names := ParamNames()
	assert.Contains(t, names, "infection_probability")
	assert.IsIncreasing(t, names)

	s := DefaultSimulation()
	for _, n := range names {
		assert.NoError(t, s.Set(n, 1), n)
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("combined")
	require.NotNil(t, cfg)
	assert.True(t, cfg.Simulation.SocialDistancing)
	assert.True(t, cfg.Simulation.Quarantine)

	base := GetPreset("baseline")
	require.NotNil(t, base)
	assert.Equal(t, DefaultConfig(), base)
}

func TestGetPreset_NotFound(t *testing.T) {
	assert.Nil(t, GetPreset("nonexistent"))
}

func TestPresetsAreValid(t *testing.T) {
	names := ListPresets()
	assert.Len(t, names, len(Presets))
	assert.IsIncreasing(t, names)

	for _, name := range names {
		cfg := GetPreset(name)
		assert.NoError(t, cfg.Validate(), name)
	}
}
