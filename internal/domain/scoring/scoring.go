// Package scoring combines stroke count, stroke match and hull comparisons
// into the final 0..100 similarity of a candidate drawing to a reference.
package scoring

import (
	"context"
	"fmt"

	"github.com/okian/sketchmatch/internal/domain/matching"
	"github.com/okian/sketchmatch/internal/domain/normalize"
	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// Breakdown explains a similarity score component by component.
type Breakdown struct {
	ReferenceStrokes int     `json:"reference_strokes"`
	CandidateStrokes int     `json:"candidate_strokes"`
	StrokeCount      float64 `json:"stroke_count"`
	StrokeMatch      float64 `json:"stroke_match"`
	Hull             float64 `json:"hull"`
	ScaledHull       float64 `json:"scaled_hull"`
	Weights          Weights `json:"weights"`
	Similarity       float64 `json:"similarity"`
}

// Final returns the externally observable score.
func (b Breakdown) Final() sketch.FinalScore {
	return sketch.FinalScore{Similarity: b.Similarity}
}

// Prepared is a validated, filtered and normalized drawing. The zero value is
// an empty drawing.
type Prepared struct {
	strokes sketch.Drawing
}

// Strokes returns the canonical strokes. Callers must not modify them.
func (p Prepared) Strokes() sketch.Drawing { return p.strokes }

// Engine computes drawing similarity. It holds only configuration and is
// safe for concurrent use.
type Engine struct {
	cfg     Config
	matcher *matching.Matcher
}

// NewEngine creates an engine from DefaultConfig overridden by opts.
func NewEngine(opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		cfg: cfg,
		matcher: matching.New(
			matching.WithResamplePoints(cfg.ResamplePoints),
			matching.WithShapeTolerance(cfg.ShapeTolerance),
			matching.WithWeights(cfg.ShapeWeight, cfg.ColorWeight),
			matching.WithColorGamma(cfg.ColorGamma),
		),
	}
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Prepare validates d, drops negligible strokes and normalizes the rest.
func (e *Engine) Prepare(d sketch.Drawing) (Prepared, error) {
	if err := d.Validate(); err != nil {
		return Prepared{}, err
	}
	return Prepared{strokes: normalize.Prepare(d, e.cfg.MinStrokeLength)}, nil
}

// Similarity scores cand against ref.
func (e *Engine) Similarity(ref, cand sketch.Drawing) (Breakdown, error) {
	pr, err := e.Prepare(ref)
	if err != nil {
		return Breakdown{}, fmt.Errorf("reference: %w", err)
	}
	pc, err := e.Prepare(cand)
	if err != nil {
		return Breakdown{}, fmt.Errorf("candidate: %w", err)
	}
	return e.Compare(pr, pc), nil
}

// Compare scores two prepared drawings.
func (e *Engine) Compare(ref, cand Prepared) Breakdown {
	a, b := len(ref.strokes), len(cand.strokes)
	hull := HullScore(ref.strokes, cand.strokes, e.cfg.RadialBins, e.cfg.RadialSmoothWindow)

	bd := Breakdown{
		ReferenceStrokes: a,
		CandidateStrokes: b,
		StrokeCount:      StrokeCountSimilarity(a, b),
		StrokeMatch:      e.matcher.Score(ref.strokes, cand.strokes),
		Hull:             hull,
		ScaledHull:       Rescale(hull, e.cfg.RescaleThreshold, e.cfg.RescaleSteepness),
		Weights:          e.cfg.SelectWeights(a, b),
	}
	w := bd.Weights
	bd.Similarity = round2(clamp(w.Count*bd.StrokeCount + w.Match*bd.StrokeMatch + w.Hull*bd.ScaledHull))
	return bd
}

// Input is one scoring request.
type Input struct {
	AttemptID string
	PlayerID  string
	PromptID  string
	Reference Prepared
	Candidate sketch.Drawing
}

// Result contains the computed score for an attempt.
type Result struct {
	AttemptID string
	PlayerID  string
	PromptID  string
	Breakdown Breakdown
}

// Scorer computes a score from an input.
type Scorer interface {
	// Score computes a score. ctx is consulted before work starts; the
	// computation itself is not interrupted.
	Score(ctx context.Context, in Input) (Result, error)
}

// Score implements Scorer.
func (e *Engine) Score(ctx context.Context, in Input) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context cancelled: %w", err)
	}
	cand, err := e.Prepare(in.Candidate)
	if err != nil {
		return Result{}, fmt.Errorf("candidate: %w", err)
	}
	return Result{
		AttemptID: in.AttemptID,
		PlayerID:  in.PlayerID,
		PromptID:  in.PromptID,
		Breakdown: e.Compare(in.Reference, cand),
	}, nil
}
