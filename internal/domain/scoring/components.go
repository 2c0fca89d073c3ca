package scoring

import (
	"math"

	"github.com/okian/sketchmatch/internal/domain/geometry"
	"github.com/okian/sketchmatch/internal/domain/radial"
	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// StrokeCountSimilarity compares stroke counts on a 0..100 scale.
func StrokeCountSimilarity(a, b int) float64 {
	switch {
	case a == 0 && b == 0:
		return maxScore
	case a == 0 || b == 0:
		return 0
	}
	return float64(min(a, b)) / float64(max(a, b)) * maxScore
}

// Rescale squashes scores below threshold with (score/100)^steepness*100 and
// leaves the rest unchanged.
func Rescale(score, threshold, steepness float64) float64 {
	if score >= threshold {
		return score
	}
	return math.Pow(score/maxScore, steepness) * maxScore
}

// SelectWeights picks the weight table for reference count a and candidate
// count b.
func (c Config) SelectWeights(a, b int) Weights {
	switch {
	case a > b:
		return c.WeightsOver
	case a == b:
		return c.WeightsEqual
	default:
		return c.WeightsUnder
	}
}

// HullScore blends the convex hull comparison with the radial signature
// comparison on a 0..100 scale. Two empty drawings score 100; exactly one
// empty drawing scores 0.
func HullScore(ref, cand sketch.Drawing, bins, smoothWindow int) float64 {
	p1, p2 := ref.Points(), cand.Points()
	switch {
	case len(p1) == 0 && len(p2) == 0:
		return maxScore
	case len(p1) == 0 || len(p2) == 0:
		return 0
	}
	hull := geometry.HullComponent(
		geometry.Metrics(geometry.ConvexHull(p1)),
		geometry.Metrics(geometry.ConvexHull(p2)),
	)
	rad := radial.Similarity(p1, p2, bins, smoothWindow)
	return (hullComponentWeight*hull + radialComponentWeight*rad) * maxScore
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(maxScore, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
