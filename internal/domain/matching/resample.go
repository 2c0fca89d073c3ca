package matching

import (
	"github.com/okian/sketchmatch/internal/domain/geometry"
	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// Resample returns n points spaced evenly along the path by arc length, the
// first step of the $1 unistroke recognizer. Paths with no length repeat
// their first point. points is not modified.
func Resample(points []sketch.Point, n int) []sketch.Point {
	if len(points) == 0 || n < 1 {
		return nil
	}
	out := make([]sketch.Point, 0, n)
	out = append(out, points[0])

	total := geometry.PathLength(points)
	if n == 1 || total <= geometry.Epsilon {
		for len(out) < n {
			out = append(out, points[0])
		}
		return out
	}

	interval := total / float64(n-1)
	var acc float64
	prev := points[0]
	for i := 1; i < len(points) && len(out) < n; i++ {
		cur := points[i]
		d := geometry.Distance(prev, cur)
		for d > 0 && acc+d >= interval && len(out) < n {
			t := (interval - acc) / d
			q := geometry.Add(prev, geometry.Scale(geometry.Sub(cur, prev), t))
			out = append(out, q)
			prev = q
			d = geometry.Distance(prev, cur)
			acc = 0
		}
		acc += d
		prev = cur
	}
	// rounding can leave the final sample short
	last := points[len(points)-1]
	for len(out) < n {
		out = append(out, last)
	}
	return out
}
