// Package sketch contains the drawing data model shared by the similarity
// engine and the service layers.
package sketch

import (
	"encoding/json"
	"fmt"
	"math"
)

// Channel bounds for a Color.
const (
	minChannel = 0
	maxChannel = 255
)

// Point is a single sampled coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Color is an RGB triple with channels in [0,255].
type Color [3]int

// Black is the color QuickDraw samples are imported with.
var Black = Color{0, 0, 0}

// Validate reports channels outside [0,255].
func (c Color) Validate() error {
	for i, ch := range c {
		if ch < minChannel || ch > maxChannel {
			return fmt.Errorf("%w: channel %d = %d", ErrColorOutOfRange, i, ch)
		}
	}
	return nil
}

// Stroke is one continuous pen path stored as parallel coordinate slices.
// Color is optional; a nil Color never affects color comparison.
type Stroke struct {
	Xs    []float64
	Ys    []float64
	Color *Color
}

// NewStroke builds a stroke from points.
func NewStroke(points []Point, color *Color) Stroke {
	s := Stroke{
		Xs:    make([]float64, len(points)),
		Ys:    make([]float64, len(points)),
		Color: color,
	}
	for i, p := range points {
		s.Xs[i] = p.X
		s.Ys[i] = p.Y
	}
	return s
}

// Len returns the number of samples.
func (s Stroke) Len() int {
	return min(len(s.Xs), len(s.Ys))
}

// Points returns the stroke samples as points.
func (s Stroke) Points() []Point {
	n := s.Len()
	out := make([]Point, n)
	for i := 0; i < n; i++ {
		out[i] = Point{X: s.Xs[i], Y: s.Ys[i]}
	}
	return out
}

// Length returns the cumulative Euclidean path length. Strokes with fewer
// than two samples have zero length.
func (s Stroke) Length() float64 {
	var length float64
	for i := 1; i < s.Len(); i++ {
		length += math.Hypot(s.Xs[i]-s.Xs[i-1], s.Ys[i]-s.Ys[i-1])
	}
	return length
}

// Validate checks the caller contract for a stroke.
func (s Stroke) Validate() error {
	if len(s.Xs) != len(s.Ys) {
		return fmt.Errorf("%w: %d xs vs %d ys", ErrMismatchedCoordinates, len(s.Xs), len(s.Ys))
	}
	for i := range s.Xs {
		if !finite(s.Xs[i]) || !finite(s.Ys[i]) {
			return fmt.Errorf("%w: sample %d", ErrNonFiniteCoordinate, i)
		}
	}
	if s.Color != nil {
		return s.Color.Validate()
	}
	return nil
}

// Clone returns a deep copy of the stroke.
func (s Stroke) Clone() Stroke {
	out := Stroke{
		Xs: append([]float64(nil), s.Xs...),
		Ys: append([]float64(nil), s.Ys...),
	}
	if s.Color != nil {
		c := *s.Color
		out.Color = &c
	}
	return out
}

type strokeJSON struct {
	Points [][]float64 `json:"points"`
	Color  *Color      `json:"color,omitempty"`
}

// MarshalJSON encodes the stroke as {"points": [xs, ys], "color": [r,g,b]}.
func (s Stroke) MarshalJSON() ([]byte, error) {
	xs, ys := s.Xs, s.Ys
	if xs == nil {
		xs = []float64{}
	}
	if ys == nil {
		ys = []float64{}
	}
	return json.Marshal(strokeJSON{Points: [][]float64{xs, ys}, Color: s.Color})
}

// UnmarshalJSON decodes the {"points": [xs, ys]} wire shape.
func (s *Stroke) UnmarshalJSON(data []byte) error {
	var raw strokeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Points) != 2 {
		return fmt.Errorf("%w: points must hold exactly [xs, ys], got %d rows", ErrMismatchedCoordinates, len(raw.Points))
	}
	s.Xs = raw.Points[0]
	s.Ys = raw.Points[1]
	s.Color = raw.Color
	return nil
}

// Drawing is an ordered sequence of strokes.
type Drawing []Stroke

// Validate checks every stroke and reports the first violation.
func (d Drawing) Validate() error {
	for i, s := range d {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("stroke %d: %w", i, err)
		}
	}
	return nil
}

// Points flattens the samples of all strokes in draw order.
func (d Drawing) Points() []Point {
	n := 0
	for _, s := range d {
		n += s.Len()
	}
	out := make([]Point, 0, n)
	for _, s := range d {
		out = append(out, s.Points()...)
	}
	return out
}

// PointCount returns the total number of samples.
func (d Drawing) PointCount() int {
	n := 0
	for _, s := range d {
		n += s.Len()
	}
	return n
}

// Clone returns a deep copy of the drawing.
func (d Drawing) Clone() Drawing {
	if d == nil {
		return nil
	}
	out := make(Drawing, len(d))
	for i, s := range d {
		out[i] = s.Clone()
	}
	return out
}

// HullMetrics summarises a convex hull polygon.
type HullMetrics struct {
	Area      float64 `json:"area"`
	Perimeter float64 `json:"perimeter"`
}

// RadialSignature holds one normalized maximum radius per angular bin.
type RadialSignature []float64

// FinalScore is the externally observable engine output.
type FinalScore struct {
	Similarity float64 `json:"similarity"`
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
