// Package geometry provides point helpers, convex hull construction and the
// hull shape metrics used to compare drawings.
package geometry

import (
	"math"
	"sort"

	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// Epsilon is the floor below which magnitudes are treated as zero.
const Epsilon = 1e-12

// Point is the shared sample type.
type Point = sketch.Point

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Sub returns a - b.
func Sub(a, b Point) Point {
	return Point{X: a.X - b.X, Y: a.Y - b.Y}
}

// Add returns a + b.
func Add(a, b Point) Point {
	return Point{X: a.X + b.X, Y: a.Y + b.Y}
}

// Scale returns p scaled by f.
func Scale(p Point, f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

// Cross returns the z component of (a-o) x (b-o). Positive means o->a->b
// turns left.
func Cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// Centroid returns the mean of points, or the origin for none.
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}
	var sx, sy float64
	for _, p := range points {
		sx += p.X
		sy += p.Y
	}
	n := float64(len(points))
	return Point{X: sx / n, Y: sy / n}
}

// PathLength returns the summed distance between consecutive points.
func PathLength(points []Point) float64 {
	var d float64
	for i := 1; i < len(points); i++ {
		d += Distance(points[i-1], points[i])
	}
	return d
}

// Rect is an axis-aligned bounding box.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// Width of the box.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height of the box.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Bounds returns the bounding box of points. ok is false for no points.
func Bounds(points []Point) (r Rect, ok bool) {
	if len(points) == 0 {
		return Rect{}, false
	}
	r = Rect{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r, true
}

// ConvexHull builds the convex hull of points with Andrew's monotone chain.
// The input is not modified. The result is counter-clockwise, drops
// collinear points and does not repeat the closing vertex, so degenerate
// inputs yield 0 to 2 points.
func ConvexHull(points []Point) []Point {
	n := len(points)
	if n < 2 {
		return append([]Point(nil), points...)
	}
	pts := make([]Point, n)
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].X != pts[j].X {
			return pts[i].X < pts[j].X
		}
		return pts[i].Y < pts[j].Y
	})

	lower := make([]Point, 0, n)
	for _, p := range pts {
		for len(lower) >= 2 && Cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	upper := make([]Point, 0, n)
	for i := n - 1; i >= 0; i-- {
		p := pts[i]
		for len(upper) >= 2 && Cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	// each chain ends where the other starts
	hull := append(lower[:len(lower)-1], upper[:len(upper)-1]...)
	if len(hull) == 2 && hull[0] == hull[1] {
		hull = hull[:1]
	}
	return hull
}

// HullArea returns the polygon area via the shoelace formula. Polygons with
// fewer than 3 vertices have zero area.
func HullArea(hull []Point) float64 {
	if len(hull) < 3 {
		return 0
	}
	var area float64
	for i := range hull {
		j := (i + 1) % len(hull)
		area += hull[i].X*hull[j].Y - hull[j].X*hull[i].Y
	}
	return math.Abs(area) / 2
}

// HullPerimeter returns the length of the implicitly closed polygon. Fewer
// than 2 vertices give zero.
func HullPerimeter(hull []Point) float64 {
	if len(hull) < 2 {
		return 0
	}
	var length float64
	for i := range hull {
		length += Distance(hull[i], hull[(i+1)%len(hull)])
	}
	return length
}

// Metrics computes area and perimeter of a hull.
func Metrics(hull []Point) sketch.HullMetrics {
	return sketch.HullMetrics{Area: HullArea(hull), Perimeter: HullPerimeter(hull)}
}

// RelativeSimilarity maps two non-negative magnitudes to [0,1] as min/max.
// Two zero magnitudes are identical (1); exactly one zero gives 0.
func RelativeSimilarity(a, b float64) float64 {
	a, b = math.Abs(a), math.Abs(b)
	aZero, bZero := a <= Epsilon, b <= Epsilon
	switch {
	case aZero && bZero:
		return 1
	case aZero || bZero:
		return 0
	}
	return math.Min(a, b) / math.Max(a, b)
}

// HullComponent is the unweighted mean of area and perimeter similarity.
func HullComponent(m1, m2 sketch.HullMetrics) float64 {
	return 0.5*RelativeSimilarity(m1.Area, m2.Area) + 0.5*RelativeSimilarity(m1.Perimeter, m2.Perimeter)
}
