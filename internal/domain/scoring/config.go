package scoring

import (
	"github.com/okian/sketchmatch/internal/domain/colorsim"
	"github.com/okian/sketchmatch/internal/domain/matching"
	"github.com/okian/sketchmatch/internal/domain/normalize"
	"github.com/okian/sketchmatch/internal/domain/radial"
)

// Default aggregation constants.
const (
	DefaultRescaleThreshold = 90
	DefaultRescaleSteepness = 2
	maxScore                = 100
	hullComponentWeight     = 0.5
	radialComponentWeight   = 0.5
)

// Weights splits the final score across the three components. A table is
// expected to sum to 1.
type Weights struct {
	Count float64 `json:"count"`
	Match float64 `json:"match"`
	Hull  float64 `json:"hull"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 { return w.Count + w.Match + w.Hull }

// Config holds every tunable of the engine.
type Config struct {
	MinStrokeLength    float64
	RadialBins         int
	RadialSmoothWindow int
	ColorGamma         float64
	ResamplePoints     int
	ShapeTolerance     float64
	ShapeWeight        float64
	ColorWeight        float64
	RescaleThreshold   float64
	RescaleSteepness   float64
	// WeightsOver applies when the reference has more strokes than the
	// candidate, WeightsUnder when it has fewer.
	WeightsOver  Weights
	WeightsEqual Weights
	WeightsUnder Weights
}

// DefaultConfig returns the tuned production parameters.
func DefaultConfig() Config {
	return Config{
		MinStrokeLength:    normalize.DefaultMinStrokeLength,
		RadialBins:         radial.DefaultBins,
		RadialSmoothWindow: radial.DefaultSmoothWindow,
		ColorGamma:         colorsim.DefaultGamma,
		ResamplePoints:     matching.DefaultResamplePoints,
		ShapeTolerance:     matching.DefaultShapeTolerance,
		ShapeWeight:        matching.DefaultShapeWeight,
		ColorWeight:        matching.DefaultColorWeight,
		RescaleThreshold:   DefaultRescaleThreshold,
		RescaleSteepness:   DefaultRescaleSteepness,
		WeightsOver:        Weights{Count: 0.10, Match: 0.60, Hull: 0.30},
		WeightsEqual:       Weights{Count: 0.15, Match: 0.35, Hull: 0.50},
		WeightsUnder:       Weights{Count: 0.10, Match: 0.30, Hull: 0.60},
	}
}

// Option applies a configuration option to the Engine.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(cfg Config) Option {
	return func(c *Config) {
		*c = cfg
	}
}

// WithMinStrokeLength sets the stroke filter threshold.
func WithMinStrokeLength(length float64) Option {
	return func(c *Config) {
		if length >= 0 {
			c.MinStrokeLength = length
		}
	}
}

// WithRadial sets the radial signature resolution and smoothing window.
func WithRadial(bins, smoothWindow int) Option {
	return func(c *Config) {
		if bins > 0 {
			c.RadialBins = bins
		}
		if smoothWindow >= 0 {
			c.RadialSmoothWindow = smoothWindow
		}
	}
}

// WithRescale sets the hull rescale curve.
func WithRescale(threshold, steepness float64) Option {
	return func(c *Config) {
		if threshold >= 0 && steepness > 0 {
			c.RescaleThreshold = threshold
			c.RescaleSteepness = steepness
		}
	}
}

// WithWeightTables sets the weight tables for reference stroke counts above,
// equal to and below the candidate's.
func WithWeightTables(over, equal, under Weights) Option {
	return func(c *Config) {
		c.WeightsOver = over
		c.WeightsEqual = equal
		c.WeightsUnder = under
	}
}

// WithMatching sets the stroke match parameters.
func WithMatching(resamplePoints int, shapeTolerance, shapeWeight, colorWeight, colorGamma float64) Option {
	return func(c *Config) {
		if resamplePoints >= 2 {
			c.ResamplePoints = resamplePoints
		}
		if shapeTolerance > 0 {
			c.ShapeTolerance = shapeTolerance
		}
		if shapeWeight >= 0 && colorWeight >= 0 && shapeWeight+colorWeight > 0 {
			c.ShapeWeight = shapeWeight
			c.ColorWeight = colorWeight
		}
		if colorGamma > 0 {
			c.ColorGamma = colorGamma
		}
	}
}
