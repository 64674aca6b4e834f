package rating

import "fmt"

// Tunable constants of the adjusted-Elo model
const (
	DefaultProvisionalK           = 40.0
	DefaultStandardK              = 24.0
	DefaultProvisionalMatches     = 30
	DefaultBlendMinSurfaceMatches = 10
	DefaultSurfaceWeight          = 0.7
	DefaultOverallWeight          = 0.3
	DefaultMarginStep             = 0.25
	DefaultMaxMarginMultiplier    = 1.5
	DefaultDecayGraceMonths       = 3
	DefaultDecayMonthlyRate       = 0.015
	DefaultDecayFloor             = 1200.0
	eloScale                      = 400.0
)

// Config holds the engine parameters
type Config struct {
	ProvisionalK       float64
	StandardK          float64
	ProvisionalMatches int

	// BlendMinSurfaceMatches is the surface match count at which the surface rating enters the blend.
	BlendMinSurfaceMatches int
	SurfaceWeight          float64
	OverallWeight          float64

	MarginStep          float64
	MaxMarginMultiplier float64

	DecayEnabled     bool
	DecayGraceMonths int
	DecayMonthlyRate float64
	DecayFloor       float64
}

// DefaultConfig returns the documented defaults
func DefaultConfig() Config {
	return Config{
		ProvisionalK:           DefaultProvisionalK,
		StandardK:              DefaultStandardK,
		ProvisionalMatches:     DefaultProvisionalMatches,
		BlendMinSurfaceMatches: DefaultBlendMinSurfaceMatches,
		SurfaceWeight:          DefaultSurfaceWeight,
		OverallWeight:          DefaultOverallWeight,
		MarginStep:             DefaultMarginStep,
		MaxMarginMultiplier:    DefaultMaxMarginMultiplier,
		DecayGraceMonths:       DefaultDecayGraceMonths,
		DecayMonthlyRate:       DefaultDecayMonthlyRate,
		DecayFloor:             DefaultDecayFloor,
	}
}

// Validate checks the parameters keep updates monotone and bounded
func (c Config) Validate() error {
	if c.ProvisionalK < 0 || c.StandardK < 0 {
		return fmt.Errorf("k-factors must be non-negative: provisional=%v standard=%v", c.ProvisionalK, c.StandardK)
	}
	if c.ProvisionalMatches < 0 || c.BlendMinSurfaceMatches < 0 {
		return fmt.Errorf("match thresholds must be non-negative")
	}
	if c.SurfaceWeight < 0 || c.OverallWeight < 0 {
		return fmt.Errorf("blend weights must be non-negative")
	}
	if sum := c.SurfaceWeight + c.OverallWeight; sum < 0.999999 || sum > 1.000001 {
		return fmt.Errorf("blend weights must sum to 1, got %v", sum)
	}
	if c.MarginStep < 0 {
		return fmt.Errorf("margin step must be non-negative")
	}
	if c.MaxMarginMultiplier < 1.0 {
		return fmt.Errorf("max margin multiplier must be at least 1.0, got %v", c.MaxMarginMultiplier)
	}
	if c.DecayEnabled && (c.DecayMonthlyRate < 0 || c.DecayMonthlyRate >= 1) {
		return fmt.Errorf("decay monthly rate must be in [0,1), got %v", c.DecayMonthlyRate)
	}
	return nil
}
