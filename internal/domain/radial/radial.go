// Package radial computes the rotation-robust radial silhouette signature of
// a point cloud and compares two signatures.
package radial

import (
	"math"

	"github.com/okian/sketchmatch/internal/domain/geometry"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	"gonum.org/v1/gonum/floats"
)

// Defaults for Signature.
const (
	DefaultBins         = 72
	DefaultSmoothWindow = 3
)

const (
	maxRadiusFloor = 1e-6
	normFloor      = 1e-12
)

// Signature bins every point by its polar angle around the centroid and keeps
// the largest radius per bin. The result is divided by its maximum so it does
// not depend on scale, then smoothed with a circular moving average.
// Empty input yields an all-zero signature.
func Signature(points []sketch.Point, bins, smoothWindow int) sketch.RadialSignature {
	if bins < 1 {
		bins = DefaultBins
	}
	maxR := make([]float64, bins)
	if len(points) == 0 {
		return maxR
	}

	c := geometry.Centroid(points)
	for _, p := range points {
		dx, dy := p.X-c.X, p.Y-c.Y
		r := math.Hypot(dx, dy)
		ang := math.Atan2(dy, dx)
		if ang < 0 {
			ang += 2 * math.Pi
		}
		idx := min(bins-1, int(math.Floor(ang/(2*math.Pi)*float64(bins))))
		if r > maxR[idx] {
			maxR[idx] = r
		}
	}

	floats.Scale(1/math.Max(floats.Max(maxR), maxRadiusFloor), maxR)
	return smooth(maxR, smoothWindow)
}

// smooth applies a wrap-around moving average. A window of 1 or less returns
// sig unchanged.
func smooth(sig []float64, window int) []float64 {
	if window <= 1 {
		return sig
	}
	n := len(sig)
	half := window / 2
	out := make([]float64, n)
	for i := range sig {
		var sum float64
		for k := -half; k <= half; k++ {
			sum += sig[((i+k)%n+n)%n]
		}
		out[i] = sum / float64(2*half+1)
	}
	return out
}

// Compare returns the cosine similarity of two signatures clamped to [0,1].
// A signature with near-zero norm compares as 0.
func Compare(a, b sketch.RadialSignature) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	a, b = a[:n], b[:n]
	na, nb := floats.Dot(a, a), floats.Dot(b, b)
	if na <= normFloor || nb <= normFloor {
		return 0
	}
	cos := floats.Dot(a, b) / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(0, math.Min(1, cos))
}

// Similarity builds both signatures with the given parameters and compares them.
func Similarity(p1, p2 []sketch.Point, bins, smoothWindow int) float64 {
	return Compare(Signature(p1, bins, smoothWindow), Signature(p2, bins, smoothWindow))
}
