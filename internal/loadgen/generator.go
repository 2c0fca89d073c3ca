package loadgen

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// dropStrokeChance is the probability that a multi-stroke copy loses one
// stroke, so counts differ between attempts.
const dropStrokeChance = 0.15

// Generator produces noisy copies of prompt drawings.
type Generator struct {
	rng     *rand.Rand
	jitter  float64
	players []string
}

// NewGenerator creates a generator for the given number of players.
func NewGenerator(seed uint64, players int, jitter float64) *Generator {
	if players < 1 {
		players = 1
	}
	g := &Generator{
		rng:     rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d)),
		jitter:  max(jitter, 0),
		players: make([]string, players),
	}
	for i := range g.players {
		g.players[i] = uuid.NewString()
	}
	return g
}

// Players returns the generated player ids.
func (g *Generator) Players() []string {
	return g.players
}

// Attempts returns n attempts spread round-robin over players and randomly
// over ps. Not safe for concurrent use.
func (g *Generator) Attempts(ps []prompts.Prompt, n int) []AttemptRequest {
	if len(ps) == 0 || n < 1 {
		return nil
	}
	ts := time.Now().UTC().Format(time.RFC3339)
	out := make([]AttemptRequest, n)
	for i := range out {
		p := ps[g.rng.IntN(len(ps))]
		out[i] = AttemptRequest{
			AttemptID: uuid.NewString(),
			PlayerID:  g.players[i%len(g.players)],
			PromptID:  p.ID,
			Drawing:   g.Copy(p.Drawing),
			TS:        ts,
		}
	}
	return out
}

// Copy returns d with Gaussian noise on every point, sometimes one stroke
// fewer, and palette colors.
func (g *Generator) Copy(d sketch.Drawing) sketch.Drawing {
	out := d.Clone()
	if len(out) > 1 && g.rng.Float64() < dropStrokeChance {
		i := g.rng.IntN(len(out))
		out = append(out[:i], out[i+1:]...)
	}

	sigma := g.jitter * extent(d)
	if sigma > 0 {
		for i := range out {
			for j := range out[i].Xs {
				out[i].Xs[j] += g.rng.NormFloat64() * sigma
			}
			for j := range out[i].Ys {
				out[i].Ys[j] += g.rng.NormFloat64() * sigma
			}
		}
	}
	return prompts.Recolor(out, prompts.Palette, g.rng)
}

// extent is the larger side of the drawing's bounding box.
func extent(d sketch.Drawing) float64 {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range d.Points() {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}
	if math.IsInf(minX, 1) {
		return 0
	}
	return max(maxX-minX, maxY-minY)
}
