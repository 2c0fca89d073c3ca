// Package matching pairs reference strokes with candidate strokes one to one
// and scores how well the candidate echoes each reference stroke.
package matching

import (
	"math"
	"sort"

	"github.com/okian/sketchmatch/internal/domain/colorsim"
	"github.com/okian/sketchmatch/internal/domain/geometry"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	"gonum.org/v1/gonum/floats"
)

// Default matcher parameters.
const (
	DefaultResamplePoints = 32
	DefaultShapeTolerance = 0.1
	DefaultShapeWeight    = 0.8
	DefaultColorWeight    = 0.2
	maxScore              = 100
)

// Option applies a configuration option to the Matcher.
type Option func(*Matcher)

// WithResamplePoints sets how many points each stroke is resampled to.
func WithResamplePoints(n int) Option {
	return func(m *Matcher) {
		if n >= 2 {
			m.resamplePoints = n
		}
	}
}

// WithShapeTolerance sets the mean point deviation, in canonical units, at
// which shape similarity drops to one half.
func WithShapeTolerance(tol float64) Option {
	return func(m *Matcher) {
		if tol > 0 {
			m.shapeTolerance = tol
		}
	}
}

// WithWeights sets how shape and color combine into a pair similarity.
func WithWeights(shape, color float64) Option {
	return func(m *Matcher) {
		if shape >= 0 && color >= 0 && shape+color > 0 {
			m.shapeWeight = shape
			m.colorWeight = color
		}
	}
}

// WithColorGamma sets the exponent used by color similarity.
func WithColorGamma(gamma float64) Option {
	return func(m *Matcher) {
		if gamma > 0 {
			m.colorGamma = gamma
		}
	}
}

// Matcher scores stroke correspondence. It holds only configuration and is
// safe for concurrent use.
type Matcher struct {
	resamplePoints int
	shapeTolerance float64
	shapeWeight    float64
	colorWeight    float64
	colorGamma     float64
}

// New creates a Matcher with defaults overridden by opts.
func New(opts ...Option) *Matcher {
	m := &Matcher{
		resamplePoints: DefaultResamplePoints,
		shapeTolerance: DefaultShapeTolerance,
		shapeWeight:    DefaultShapeWeight,
		colorWeight:    DefaultColorWeight,
		colorGamma:     colorsim.DefaultGamma,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Pair is a committed correspondence between reference stroke Ref and
// candidate stroke Cand.
type Pair struct {
	Ref        int     `json:"ref"`
	Cand       int     `json:"cand"`
	Similarity float64 `json:"similarity"`
}

// Score returns the stroke match score in [0,100]. Unmatched strokes on the
// longer side count as zero. Two empty drawings match perfectly; exactly one
// empty drawing scores 0.
func (m *Matcher) Score(ref, cand sketch.Drawing) float64 {
	switch {
	case len(ref) == 0 && len(cand) == 0:
		return maxScore
	case len(ref) == 0 || len(cand) == 0:
		return 0
	}
	pairs := Greedy(m.Matrix(ref, cand))
	sims := make([]float64, len(pairs))
	for i, p := range pairs {
		sims[i] = p.Similarity
	}
	slots := float64(max(len(ref), len(cand)))
	return math.Min(maxScore, floats.Sum(sims)/slots*maxScore)
}

// Matrix returns the pairwise similarity of every reference stroke (rows)
// against every candidate stroke (columns).
func (m *Matcher) Matrix(ref, cand sketch.Drawing) [][]float64 {
	refPaths := make([][]sketch.Point, len(ref))
	for i, s := range ref {
		refPaths[i] = Resample(s.Points(), m.resamplePoints)
	}
	candPaths := make([][]sketch.Point, len(cand))
	for j, s := range cand {
		candPaths[j] = Resample(s.Points(), m.resamplePoints)
	}

	matrix := make([][]float64, len(ref))
	for i := range ref {
		matrix[i] = make([]float64, len(cand))
		for j := range cand {
			shape := m.shapeSimilarity(refPaths[i], candPaths[j])
			color := colorsim.Similarity(ref[i].Color, cand[j].Color, m.colorGamma)
			matrix[i][j] = (m.shapeWeight*shape + m.colorWeight*color) / (m.shapeWeight + m.colorWeight)
		}
	}
	return matrix
}

// PairSimilarity compares two single strokes.
func (m *Matcher) PairSimilarity(a, b sketch.Stroke) float64 {
	return m.Matrix(sketch.Drawing{a}, sketch.Drawing{b})[0][0]
}

// shapeSimilarity turns the mean deviation of two resampled paths into
// tolerance/(tolerance+d): 1 for identical paths, falling as d grows.
// The candidate is also tried in reverse so drawing direction does not matter.
func (m *Matcher) shapeSimilarity(a, b []sketch.Point) float64 {
	d := math.Min(meanDistance(a, b, false), meanDistance(a, b, true))
	return geometry.RelativeSimilarity(m.shapeTolerance, m.shapeTolerance+d)
}

func meanDistance(a, b []sketch.Point, reversed bool) float64 {
	n := min(len(a), len(b))
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := i
		if reversed {
			j = len(b) - 1 - i
		}
		sum += geometry.Distance(a[i], b[j])
	}
	return sum / float64(n)
}

// Greedy commits the highest remaining pair until either side runs out.
// Ties go to the lowest reference index, then the lowest candidate index.
func Greedy(matrix [][]float64) []Pair {
	if len(matrix) == 0 || len(matrix[0]) == 0 {
		return nil
	}
	rows, cols := len(matrix), len(matrix[0])
	all := make([]Pair, 0, rows*cols)
	for i, row := range matrix {
		for j, sim := range row {
			all = append(all, Pair{Ref: i, Cand: j, Similarity: sim})
		}
	}
	// all is built in (ref, cand) order, so a stable sort keeps the tie-break
	sort.SliceStable(all, func(x, y int) bool {
		return all[x].Similarity > all[y].Similarity
	})

	usedRef := make([]bool, rows)
	usedCand := make([]bool, cols)
	limit := min(rows, cols)
	out := make([]Pair, 0, limit)
	for _, p := range all {
		if usedRef[p.Ref] || usedCand[p.Cand] {
			continue
		}
		usedRef[p.Ref] = true
		usedCand[p.Cand] = true
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out
}
