// Package config defines service configuration structures and loading hooks.
//
// Keys are flat snake_case so that every field can be set from the YAML
// file and from SKETCHMATCH_* environment variables alike.
package config

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/okian/sketchmatch/internal/domain/scoring"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

const weightSumTolerance = 1e-9

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory attempt queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize bounds the attempt id dedupe cache; <= 0 is unbounded.
	DedupeSize int `koanf:"dedupe_size"`
	// ResultCacheSize bounds how many attempt results are kept for lookup.
	ResultCacheSize int `koanf:"result_cache_size"`
	// PreparedCacheSize bounds how many normalized prompts are cached.
	PreparedCacheSize int `koanf:"prepared_cache_size"`
	// MaxLeaderboardLimit caps GET /leaderboard/{prompt_id}?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// StoreBackend selects the leaderboard store: memory or redis.
	StoreBackend string `koanf:"store_backend"`
	// RedisURL is used when StoreBackend is redis.
	RedisURL string `koanf:"redis_url"`
	// RedisKeyPrefix namespaces the redis keys.
	RedisKeyPrefix string `koanf:"redis_key_prefix"`

	// PromptsFile optionally seeds the prompt library at startup (.json or .ndjson).
	PromptsFile string `koanf:"prompts_file"`

	// Similarity engine parameters.
	MinStrokeLength    float64 `koanf:"min_stroke_length"`
	RadialBins         int     `koanf:"radial_bins"`
	RadialSmoothWindow int     `koanf:"radial_smooth_window"`
	ColorGamma         float64 `koanf:"color_gamma"`
	ResamplePoints     int     `koanf:"resample_points"`
	ShapeTolerance     float64 `koanf:"shape_tolerance"`
	ShapeWeight        float64 `koanf:"shape_weight"`
	ColorWeight        float64 `koanf:"color_weight"`
	RescaleThreshold   float64 `koanf:"rescale_threshold"`
	RescaleSteepness   float64 `koanf:"rescale_steepness"`

	// Weight tables: over when the prompt has more strokes than the attempt,
	// under when it has fewer.
	WeightsOverCount  float64 `koanf:"weights_over_count"`
	WeightsOverMatch  float64 `koanf:"weights_over_match"`
	WeightsOverHull   float64 `koanf:"weights_over_hull"`
	WeightsEqualCount float64 `koanf:"weights_equal_count"`
	WeightsEqualMatch float64 `koanf:"weights_equal_match"`
	WeightsEqualHull  float64 `koanf:"weights_equal_hull"`
	WeightsUnderCount float64 `koanf:"weights_under_count"`
	WeightsUnderMatch float64 `koanf:"weights_under_match"`
	WeightsUnderHull  float64 `koanf:"weights_under_hull"`
}

// New creates a Config populated with defaults.
func New(_ context.Context) *Config {
	sc := scoring.DefaultConfig()
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           10_000,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          100_000,
		ResultCacheSize:     50_000,
		PreparedCacheSize:   1_024,
		MaxLeaderboardLimit: 100,
		StoreBackend:        StoreMemory,
		RedisKeyPrefix:      "sketchmatch",

		MinStrokeLength:    sc.MinStrokeLength,
		RadialBins:         sc.RadialBins,
		RadialSmoothWindow: sc.RadialSmoothWindow,
		ColorGamma:         sc.ColorGamma,
		ResamplePoints:     sc.ResamplePoints,
		ShapeTolerance:     sc.ShapeTolerance,
		ShapeWeight:        sc.ShapeWeight,
		ColorWeight:        sc.ColorWeight,
		RescaleThreshold:   sc.RescaleThreshold,
		RescaleSteepness:   sc.RescaleSteepness,

		WeightsOverCount:  sc.WeightsOver.Count,
		WeightsOverMatch:  sc.WeightsOver.Match,
		WeightsOverHull:   sc.WeightsOver.Hull,
		WeightsEqualCount: sc.WeightsEqual.Count,
		WeightsEqualMatch: sc.WeightsEqual.Match,
		WeightsEqualHull:  sc.WeightsEqual.Hull,
		WeightsUnderCount: sc.WeightsUnder.Count,
		WeightsUnderMatch: sc.WeightsUnder.Match,
		WeightsUnderHull:  sc.WeightsUnder.Hull,
	}
}

// Scoring returns the engine configuration.
func (c *Config) Scoring() scoring.Config {
	return scoring.Config{
		MinStrokeLength:    c.MinStrokeLength,
		RadialBins:         c.RadialBins,
		RadialSmoothWindow: c.RadialSmoothWindow,
		ColorGamma:         c.ColorGamma,
		ResamplePoints:     c.ResamplePoints,
		ShapeTolerance:     c.ShapeTolerance,
		ShapeWeight:        c.ShapeWeight,
		ColorWeight:        c.ColorWeight,
		RescaleThreshold:   c.RescaleThreshold,
		RescaleSteepness:   c.RescaleSteepness,
		WeightsOver:        scoring.Weights{Count: c.WeightsOverCount, Match: c.WeightsOverMatch, Hull: c.WeightsOverHull},
		WeightsEqual:       scoring.Weights{Count: c.WeightsEqualCount, Match: c.WeightsEqualMatch, Hull: c.WeightsEqualHull},
		WeightsUnder:       scoring.Weights{Count: c.WeightsUnderCount, Match: c.WeightsUnderMatch, Hull: c.WeightsUnderHull},
	}
}

// Validate reports the first setting the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreBackend != StoreMemory && c.StoreBackend != StoreRedis:
		return fmt.Errorf("%w: unknown store_backend %q", ErrInvalidConfig, c.StoreBackend)
	case c.StoreBackend == StoreRedis && c.RedisURL == "":
		return fmt.Errorf("%w: redis_url is required for the redis store", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.MaxLeaderboardLimit <= 0:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive", ErrInvalidConfig)
	case c.MinStrokeLength < 0:
		return fmt.Errorf("%w: min_stroke_length must not be negative", ErrInvalidConfig)
	case c.RadialBins <= 0:
		return fmt.Errorf("%w: radial_bins must be positive", ErrInvalidConfig)
	case c.ResamplePoints < 2:
		return fmt.Errorf("%w: resample_points must be at least 2", ErrInvalidConfig)
	case c.ShapeTolerance <= 0 || c.ColorGamma <= 0 || c.RescaleSteepness <= 0:
		return fmt.Errorf("%w: shape_tolerance, color_gamma and rescale_steepness must be positive", ErrInvalidConfig)
	case c.ShapeWeight < 0 || c.ColorWeight < 0 || c.ShapeWeight+c.ColorWeight <= 0:
		return fmt.Errorf("%w: shape_weight and color_weight must be non-negative with a positive sum", ErrInvalidConfig)
	}

	sc := c.Scoring()
	for name, w := range map[string]scoring.Weights{
		"over": sc.WeightsOver, "equal": sc.WeightsEqual, "under": sc.WeightsUnder,
	} {
		if w.Count < 0 || w.Match < 0 || w.Hull < 0 || math.Abs(w.Sum()-1) > weightSumTolerance {
			return fmt.Errorf("%w: %w: weights_%s must be non-negative and sum to 1", ErrInvalidConfig, ErrWeightTable, name)
		}
	}
	return nil
}
