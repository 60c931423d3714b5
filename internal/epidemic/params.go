package epidemic

import (
	"errors"
	"math"
)

const (
	DefaultCommunitySize        = 80
	DefaultInitialInfected      = 3
	DefaultAreaSize             = 350.0
	DefaultMargin               = 10.0
	DefaultSpeed                = 75.0
	DefaultInfectionProbability = 0.3
	DefaultInfectionRadius      = 3.5
	DefaultRecoveryDuration     = 7.0
	DefaultDistancingRadius     = 20.0
	DefaultDistancingMaxSpeed   = 45.0
	DefaultQuarantineSize       = 200.0
	DefaultQuarantineGap        = 40.0
)

// Parameters configures a Simulation. Lengths are in area units, times in
// seconds and speeds in units per second.
type Parameters struct {
	CommunitySize   int
	InitialInfected int

	AreaSize float64
	Margin   float64
	Speed    float64

	InfectionProbability float64
	InfectionRadius      float64
	RecoveryDuration     float64

	SocialDistancing   bool
	DistancingRadius   float64
	DistancingMaxSpeed float64

	Quarantine     bool
	QuarantineSize float64
	// QuarantineGap is the spacing between the two areas when drawn side by
	// side. The engine never reads it.
	QuarantineGap float64

	// Seed for the random source; 0 seeds from the clock.
	Seed int64
	// Workers shards the read phases of distancing and propagation.
	// Values below 2 run them on the calling goroutine.
	Workers int
}

func DefaultParameters() Parameters {
	return Parameters{
		CommunitySize:        DefaultCommunitySize,
		InitialInfected:      DefaultInitialInfected,
		AreaSize:             DefaultAreaSize,
		Margin:               DefaultMargin,
		Speed:                DefaultSpeed,
		InfectionProbability: DefaultInfectionProbability,
		InfectionRadius:      DefaultInfectionRadius,
		RecoveryDuration:     DefaultRecoveryDuration,
		DistancingRadius:     DefaultDistancingRadius,
		DistancingMaxSpeed:   DefaultDistancingMaxSpeed,
		QuarantineSize:       DefaultQuarantineSize,
		QuarantineGap:        DefaultQuarantineGap,
		Workers:              1,
	}
}

// Validate checks every field strictly and returns all problems joined.
func (p Parameters) Validate() error {
	errs := p.structural()
	if p.InitialInfected < 1 || p.InitialInfected > p.CommunitySize {
		errs = append(errs, rejected("initial_infected", float64(p.InitialInfected), "must be within [1, community_size]"))
	}
	if !inRange(p.InfectionProbability, 0, 1) {
		errs = append(errs, rejected("infection_probability", p.InfectionProbability, "must be within [0, 1]"))
	}
	for _, f := range p.nonNegative() {
		if !finiteNonNegative(f.value) {
			errs = append(errs, rejected(f.name, f.value, "must be a finite non-negative number"))
		}
	}
	return errors.Join(errs...)
}

// Normalize returns a copy with recoverable values clamped into range.
// The error joins one *ConfigError per clamped field (see IsAdjustment);
// structural problems that cannot be clamped are returned as rejections.
func (p Parameters) Normalize() (Parameters, error) {
	if errs := p.structural(); len(errs) > 0 {
		return p, errors.Join(errs...)
	}
	var errs []error
	if p.InitialInfected < 1 {
		errs = append(errs, adjusted("initial_infected", float64(p.InitialInfected), 1, "below 1"))
		p.InitialInfected = 1
	}
	if p.InitialInfected > p.CommunitySize {
		errs = append(errs, adjusted("initial_infected", float64(p.InitialInfected), float64(p.CommunitySize), "exceeds community_size"))
		p.InitialInfected = p.CommunitySize
	}
	switch {
	case math.IsNaN(p.InfectionProbability):
		errs = append(errs, rejected("infection_probability", p.InfectionProbability, "is not a number"))
	case p.InfectionProbability < 0:
		errs = append(errs, adjusted("infection_probability", p.InfectionProbability, 0, "below 0"))
		p.InfectionProbability = 0
	case p.InfectionProbability > 1:
		errs = append(errs, adjusted("infection_probability", p.InfectionProbability, 1, "above 1"))
		p.InfectionProbability = 1
	}
	for _, f := range p.nonNegative() {
		switch {
		case math.IsNaN(f.value) || math.IsInf(f.value, 0):
			errs = append(errs, rejected(f.name, f.value, "must be finite"))
		case f.value < 0:
			errs = append(errs, adjusted(f.name, f.value, 0, "below 0"))
			*f.ptr = 0
		}
	}
	return p, errors.Join(errs...)
}

// structural reports problems no clamp can repair.
func (p Parameters) structural() []error {
	var errs []error
	if p.CommunitySize < 1 {
		errs = append(errs, rejected("community_size", float64(p.CommunitySize), "must be at least 1"))
	}
	if !finiteNonNegative(p.Margin) {
		errs = append(errs, rejected("margin", p.Margin, "must be a finite non-negative number"))
	}
	if !(p.AreaSize > 2*p.Margin) || math.IsInf(p.AreaSize, 0) {
		errs = append(errs, rejected("area_size", p.AreaSize, "must be finite and larger than twice the margin"))
	}
	if !(p.QuarantineSize > 2*p.Margin) || math.IsInf(p.QuarantineSize, 0) {
		errs = append(errs, rejected("quarantine_size", p.QuarantineSize, "must be finite and larger than twice the margin"))
	}
	if p.Workers < 0 {
		errs = append(errs, rejected("workers", float64(p.Workers), "must not be negative"))
	}
	return errs
}

type field struct {
	name  string
	value float64
	ptr   *float64
}

func (p *Parameters) nonNegative() []field {
	return []field{
		{"speed", p.Speed, &p.Speed},
		{"infection_radius", p.InfectionRadius, &p.InfectionRadius},
		{"recovery_duration", p.RecoveryDuration, &p.RecoveryDuration},
		{"distancing_radius", p.DistancingRadius, &p.DistancingRadius},
		{"distancing_max_speed", p.DistancingMaxSpeed, &p.DistancingMaxSpeed},
	}
}

func inRange(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}
