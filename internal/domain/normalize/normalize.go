// Package normalize filters negligible strokes and maps drawings into a
// shared canonical frame before comparison.
package normalize

import (
	"math"

	"github.com/okian/sketchmatch/internal/domain/geometry"
	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// DefaultMinStrokeLength is the minimum path length, in capture units
// (0..255), for a stroke to count.
const DefaultMinStrokeLength = 10

// FilterValid keeps the strokes whose path length is at least minLength.
// Strokes with fewer than two samples have zero length and are dropped
// whenever minLength is positive. The returned strokes share no memory with d.
func FilterValid(d sketch.Drawing, minLength float64) sketch.Drawing {
	out := make(sketch.Drawing, 0, len(d))
	for _, s := range d {
		if s.Len() < 2 && minLength > 0 {
			continue
		}
		if s.Length() >= minLength {
			out = append(out, s.Clone())
		}
	}
	return out
}

// Normalize translates the drawing to the origin of its bounding box and
// divides by the larger of width and height, so every coordinate lands in
// [0,1] with the aspect ratio preserved. A drawing without points normalizes
// to an empty drawing. d is not modified.
func Normalize(d sketch.Drawing) sketch.Drawing {
	bounds, ok := geometry.Bounds(d.Points())
	if !ok {
		return sketch.Drawing{}
	}
	scale := math.Max(bounds.Width(), bounds.Height())
	if scale <= geometry.Epsilon {
		scale = 1
	}

	out := make(sketch.Drawing, 0, len(d))
	for _, s := range d {
		n := s.Len()
		if n == 0 {
			continue
		}
		ns := sketch.Stroke{
			Xs: make([]float64, n),
			Ys: make([]float64, n),
		}
		for i := 0; i < n; i++ {
			ns.Xs[i] = (s.Xs[i] - bounds.MinX) / scale
			ns.Ys[i] = (s.Ys[i] - bounds.MinY) / scale
		}
		if s.Color != nil {
			c := *s.Color
			ns.Color = &c
		}
		out = append(out, ns)
	}
	return out
}

// Prepare filters then normalizes.
func Prepare(d sketch.Drawing, minLength float64) sketch.Drawing {
	return Normalize(FilterValid(d, minLength))
}
