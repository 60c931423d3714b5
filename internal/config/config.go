package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/episim/internal/epidemic"
)

const (
	DefaultDt       = 1.0 / 60
	DefaultDuration = 60.0
	DefaultWorkers  = 1
	DefaultDataDir  = ".episim"
)

type Config struct {
	Simulation SimulationConfig `yaml:"simulation" mapstructure:"simulation"`
	Run        RunConfig        `yaml:"run" mapstructure:"run"`
	Logger     LoggerConfig     `yaml:"logger" mapstructure:"logger"`
	DataDir    string           `yaml:"data_dir" mapstructure:"data_dir"`
}

// SimulationConfig mirrors epidemic.Parameters with file and env friendly
// names.
type SimulationConfig struct {
	CommunitySize        int     `yaml:"community_size" mapstructure:"community_size" json:"community_size"`
	InitialInfected      int     `yaml:"initial_infected" mapstructure:"initial_infected" json:"initial_infected"`
	AreaSize             float64 `yaml:"area_size" mapstructure:"area_size" json:"area_size"`
	Margin               float64 `yaml:"margin" mapstructure:"margin" json:"margin"`
	Speed                float64 `yaml:"speed" mapstructure:"speed" json:"speed"`
	InfectionProbability float64 `yaml:"infection_probability" mapstructure:"infection_probability" json:"infection_probability"`
	InfectionRadius      float64 `yaml:"infection_radius" mapstructure:"infection_radius" json:"infection_radius"`
	RecoveryDuration     float64 `yaml:"recovery_duration" mapstructure:"recovery_duration" json:"recovery_duration"`
	SocialDistancing     bool    `yaml:"social_distancing" mapstructure:"social_distancing" json:"social_distancing"`
	DistancingRadius     float64 `yaml:"distancing_radius" mapstructure:"distancing_radius" json:"distancing_radius"`
	DistancingMaxSpeed   float64 `yaml:"distancing_max_speed" mapstructure:"distancing_max_speed" json:"distancing_max_speed"`
	Quarantine           bool    `yaml:"quarantine" mapstructure:"quarantine" json:"quarantine"`
	QuarantineSize       float64 `yaml:"quarantine_size" mapstructure:"quarantine_size" json:"quarantine_size"`
	QuarantineGap        float64 `yaml:"quarantine_gap" mapstructure:"quarantine_gap" json:"quarantine_gap"`
}

type RunConfig struct {
	Dt               float64 `yaml:"dt" mapstructure:"dt"`
	Duration         float64 `yaml:"duration" mapstructure:"duration"`
	Seed             int64   `yaml:"seed" mapstructure:"seed"`
	Workers          int     `yaml:"workers" mapstructure:"workers"`
	StopOnExtinction bool    `yaml:"stop_on_extinction" mapstructure:"stop_on_extinction"`
}

type LoggerConfig struct {
	Level       string      `yaml:"level" mapstructure:"level"`
	Format      string      `yaml:"format" mapstructure:"format"`
	AddSource   bool        `yaml:"add_source" mapstructure:"add_source"`
	ServiceName string      `yaml:"service_name" mapstructure:"service_name"`
	LogFile     string      `yaml:"log_file" mapstructure:"log_file"`
	MaxSize     int         `yaml:"max_size" mapstructure:"max_size"`
	MaxBackups  int         `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAge      int         `yaml:"max_age" mapstructure:"max_age"`
	Compress    bool        `yaml:"compress" mapstructure:"compress"`
	Colors      ColorConfig `yaml:"colors" mapstructure:"colors"`
}

// ColorConfig names the terminal colour of each log level.
type ColorConfig struct {
	Debug string `yaml:"debug" mapstructure:"debug"`
	Info  string `yaml:"info" mapstructure:"info"`
	Warn  string `yaml:"warn" mapstructure:"warn"`
	Error string `yaml:"error" mapstructure:"error"`
}

func DefaultSimulation() SimulationConfig {
	return FromParams(epidemic.DefaultParameters())
}

func DefaultLogger() LoggerConfig {
	return LoggerConfig{
		Level:       "info",
		Format:      "console",
		ServiceName: "episim",
		MaxSize:     10,
		MaxBackups:  3,
		MaxAge:      7,
		Colors: ColorConfig{
			Debug: "cyan",
			Info:  "green",
			Warn:  "yellow",
			Error: "red",
		},
	}
}

func DefaultConfig() *Config {
	return &Config{
		Simulation: DefaultSimulation(),
		Run: RunConfig{
			Dt:       DefaultDt,
			Duration: DefaultDuration,
			Workers:  DefaultWorkers,
		},
		Logger:  DefaultLogger(),
		DataDir: DefaultDataDir,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SetDefaults registers every default with v so that config files,
// EPISIM_* environment variables and flags only need to name overrides.
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()

	// -- Simulation --
	v.SetDefault("simulation.community_size", d.Simulation.CommunitySize)
	v.SetDefault("simulation.initial_infected", d.Simulation.InitialInfected)
	v.SetDefault("simulation.area_size", d.Simulation.AreaSize)
	v.SetDefault("simulation.margin", d.Simulation.Margin)
	v.SetDefault("simulation.speed", d.Simulation.Speed)
	v.SetDefault("simulation.infection_probability", d.Simulation.InfectionProbability)
	v.SetDefault("simulation.infection_radius", d.Simulation.InfectionRadius)
	v.SetDefault("simulation.recovery_duration", d.Simulation.RecoveryDuration)
	v.SetDefault("simulation.social_distancing", d.Simulation.SocialDistancing)
	v.SetDefault("simulation.distancing_radius", d.Simulation.DistancingRadius)
	v.SetDefault("simulation.distancing_max_speed", d.Simulation.DistancingMaxSpeed)
	v.SetDefault("simulation.quarantine", d.Simulation.Quarantine)
	v.SetDefault("simulation.quarantine_size", d.Simulation.QuarantineSize)
	v.SetDefault("simulation.quarantine_gap", d.Simulation.QuarantineGap)

	// -- Run --
	v.SetDefault("run.dt", d.Run.Dt)
	v.SetDefault("run.duration", d.Run.Duration)
	v.SetDefault("run.seed", d.Run.Seed)
	v.SetDefault("run.workers", d.Run.Workers)
	v.SetDefault("run.stop_on_extinction", d.Run.StopOnExtinction)

	// -- Logger --
	v.SetDefault("logger.level", d.Logger.Level)
	v.SetDefault("logger.format", d.Logger.Format)
	v.SetDefault("logger.add_source", d.Logger.AddSource)
	v.SetDefault("logger.service_name", d.Logger.ServiceName)
	v.SetDefault("logger.log_file", d.Logger.LogFile)
	v.SetDefault("logger.max_size", d.Logger.MaxSize)
	v.SetDefault("logger.max_backups", d.Logger.MaxBackups)
	v.SetDefault("logger.max_age", d.Logger.MaxAge)
	v.SetDefault("logger.compress", d.Logger.Compress)
	v.SetDefault("logger.colors.debug", d.Logger.Colors.Debug)
	v.SetDefault("logger.colors.info", d.Logger.Colors.Info)
	v.SetDefault("logger.colors.warn", d.Logger.Colors.Warn)
	v.SetDefault("logger.colors.error", d.Logger.Colors.Error)

	v.SetDefault("data_dir", d.DataDir)
}

// NewFromViper decodes and validates the merged configuration held by v.
func NewFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Run.Dt <= 0 {
		errs = append(errs, fmt.Errorf("run.dt must be positive, got %g", c.Run.Dt))
	}
	if c.Run.Duration <= 0 {
		errs = append(errs, fmt.Errorf("run.duration must be positive, got %g", c.Run.Duration))
	}
	if err := c.Params().Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Params converts the configuration into simulation parameters.
func (c *Config) Params() epidemic.Parameters {
	p := c.Simulation.Params()
	p.Seed = c.Run.Seed
	p.Workers = c.Run.Workers
	return p
}

func (s SimulationConfig) Params() epidemic.Parameters {
	return epidemic.Parameters{
		CommunitySize:        s.CommunitySize,
		InitialInfected:      s.InitialInfected,
		AreaSize:             s.AreaSize,
		Margin:               s.Margin,
		Speed:                s.Speed,
		InfectionProbability: s.InfectionProbability,
		InfectionRadius:      s.InfectionRadius,
		RecoveryDuration:     s.RecoveryDuration,
		SocialDistancing:     s.SocialDistancing,
		DistancingRadius:     s.DistancingRadius,
		DistancingMaxSpeed:   s.DistancingMaxSpeed,
		Quarantine:           s.Quarantine,
		QuarantineSize:       s.QuarantineSize,
		QuarantineGap:        s.QuarantineGap,
	}
}

func FromParams(p epidemic.Parameters) SimulationConfig {
	return SimulationConfig{
		CommunitySize:        p.CommunitySize,
		InitialInfected:      p.InitialInfected,
		AreaSize:             p.AreaSize,
		Margin:               p.Margin,
		Speed:                p.Speed,
		InfectionProbability: p.InfectionProbability,
		InfectionRadius:      p.InfectionRadius,
		RecoveryDuration:     p.RecoveryDuration,
		SocialDistancing:     p.SocialDistancing,
		DistancingRadius:     p.DistancingRadius,
		DistancingMaxSpeed:   p.DistancingMaxSpeed,
		Quarantine:           p.Quarantine,
		QuarantineSize:       p.QuarantineSize,
		QuarantineGap:        p.QuarantineGap,
	}
}

// paramSetters maps the yaml name of every numeric or boolean simulation
// field to its setter. Booleans treat any non-zero value as true.
var paramSetters = map[string]func(*SimulationConfig, float64){
	"community_size":        func(s *SimulationConfig, v float64) { s.CommunitySize = int(v) },
	"initial_infected":      func(s *SimulationConfig, v float64) { s.InitialInfected = int(v) },
	"area_size":             func(s *SimulationConfig, v float64) { s.AreaSize = v },
	"margin":                func(s *SimulationConfig, v float64) { s.Margin = v },
	"speed":                 func(s *SimulationConfig, v float64) { s.Speed = v },
	"infection_probability": func(s *SimulationConfig, v float64) { s.InfectionProbability = v },
	"infection_radius":      func(s *SimulationConfig, v float64) { s.InfectionRadius = v },
	"recovery_duration":     func(s *SimulationConfig, v float64) { s.RecoveryDuration = v },
	"social_distancing":     func(s *SimulationConfig, v float64) { s.SocialDistancing = v != 0 },
	"distancing_radius":     func(s *SimulationConfig, v float64) { s.DistancingRadius = v },
	"distancing_max_speed":  func(s *SimulationConfig, v float64) { s.DistancingMaxSpeed = v },
	"quarantine":            func(s *SimulationConfig, v float64) { s.Quarantine = v != 0 },
	"quarantine_size":       func(s *SimulationConfig, v float64) { s.QuarantineSize = v },
	"quarantine_gap":        func(s *SimulationConfig, v float64) { s.QuarantineGap = v },
}

// Set assigns a simulation field by its yaml name.
func (s *SimulationConfig) Set(name string, value float64) error {
	fn, ok := paramSetters[name]
	if !ok {
		return fmt.Errorf("unknown parameter: %s", name)
	}
	fn(s, value)
	return nil
}

// ParamNames lists the names accepted by Set.
func ParamNames() []string {
	names := make([]string, 0, len(paramSetters))
	for name := range paramSetters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
