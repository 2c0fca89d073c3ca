// Package colorsim compares stroke colors.
package colorsim

import (
	"math"

	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// DefaultGamma punishes moderate drift while keeping near matches close to 1.
const DefaultGamma = 2.5

// maxDistance is the RGB-space diagonal, sqrt(3 * 255^2).
var maxDistance = math.Sqrt(3 * 255 * 255)

// Similarity maps the RGB distance between two colors to [0,1] as
// (1 - d/dmax)^gamma. A missing color on either side is neutral and gives 1.
func Similarity(c1, c2 *sketch.Color, gamma float64) float64 {
	if c1 == nil || c2 == nil {
		return 1
	}
	dr := float64(c1[0] - c2[0])
	dg := float64(c1[1] - c2[1])
	db := float64(c1[2] - c2[2])
	x := math.Sqrt(dr*dr+dg*dg+db*db) / maxDistance
	sim := math.Pow(math.Max(0, 1-x), gamma)
	return math.Max(0, math.Min(1, sim))
}
