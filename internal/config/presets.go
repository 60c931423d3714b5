package config

import "sort"

type Preset struct {
	Description string
	Apply       func(*Config)
}

var Presets = map[string]Preset{
	"baseline": {
		Description: "default community, no interventions",
		Apply:       func(*Config) {},
	},
	"distancing": {
		Description: "agents repel each other within the distancing radius",
		Apply: func(c *Config) {
			c.Simulation.SocialDistancing = true
		},
	},
	"quarantine": {
		Description: "infected agents are moved to the quarantine zone",
		Apply: func(c *Config) {
			c.Simulation.Quarantine = true
		},
	},
	"combined": {
		Description: "distancing and quarantine together",
		Apply: func(c *Config) {
			c.Simulation.SocialDistancing = true
			c.Simulation.Quarantine = true
		},
	},
	"crowded": {
		Description: "largest community with a wider infection radius",
		Apply: func(c *Config) {
			c.Simulation.CommunitySize = 150
			c.Simulation.InitialInfected = 5
			c.Simulation.InfectionRadius = 6
			c.Run.Duration = 90
		},
	},
	"no_spread": {
		Description: "contacts never transmit",
		Apply: func(c *Config) {
			c.Simulation.InfectionProbability = 0
			c.Run.Duration = 15
		},
	},
}

// GetPreset returns a fresh default configuration with the named preset
// applied, or nil when there is no such preset.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	p.Apply(cfg)
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
