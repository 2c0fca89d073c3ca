package prompts

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// maxLineSize bounds a single ndjson record; QuickDraw raw lines can be large.
const maxLineSize = 4 << 20

// Palette is the set of stroke colors used when recolouring imported drawings.
var Palette = []sketch.Color{
	{0, 0, 0},
	{239, 68, 68},
	{59, 130, 246},
	{34, 197, 94},
	{250, 204, 21},
}

// quickDrawRecord is one line of a QuickDraw ndjson export. Each stroke is
// [xs, ys] or [xs, ys, ts] in the raw dataset.
type quickDrawRecord struct {
	Word       string        `json:"word"`
	KeyID      string        `json:"key_id"`
	Recognized bool          `json:"recognized"`
	Drawing    [][][]float64 `json:"drawing"`
}

// LoadDrawingsJSON reads a JSON array of drawings, each an array of
// {"points": [xs, ys], "color": [r,g,b]} strokes. Prompts get ids
// "drawing-<index>" and an empty word.
func LoadDrawingsJSON(r io.Reader) ([]Prompt, error) {
	var drawings []sketch.Drawing
	if err := json.NewDecoder(r).Decode(&drawings); err != nil {
		return nil, fmt.Errorf("%w: decode drawings: %w", ErrLoad, err)
	}
	out := make([]Prompt, 0, len(drawings))
	for i, d := range drawings {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("%w: drawing %d: %w", ErrLoad, i, err)
		}
		out = append(out, Prompt{ID: "drawing-" + strconv.Itoa(i), Drawing: d})
	}
	return out, nil
}

// LoadQuickDraw reads QuickDraw ndjson. Unrecognized or unparsable lines are
// skipped; strokes are imported black.
func LoadQuickDraw(r io.Reader) ([]Prompt, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var out []Prompt
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec quickDrawRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil || !rec.Recognized {
			continue
		}
		d, ok := quickDrawStrokes(rec.Drawing)
		if !ok {
			continue
		}
		out = append(out, Prompt{ID: rec.KeyID, Word: rec.Word, Drawing: d})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read ndjson: %w", ErrLoad, err)
	}
	return out, nil
}

func quickDrawStrokes(raw [][][]float64) (sketch.Drawing, bool) {
	d := make(sketch.Drawing, 0, len(raw))
	for _, s := range raw {
		if len(s) < 2 || len(s[0]) != len(s[1]) {
			return nil, false
		}
		black := sketch.Black
		d = append(d, sketch.Stroke{Xs: s[0], Ys: s[1], Color: &black})
	}
	return d, d.Validate() == nil
}

// LoadFile loads prompts from path, choosing the format by extension:
// .ndjson and .jsonl are QuickDraw exports, anything else a drawings array.
func LoadFile(ctx context.Context, path string) ([]Prompt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".ndjson", ".jsonl":
		return LoadQuickDraw(f)
	default:
		return LoadDrawingsJSON(f)
	}
}

// Recolor returns a copy of d with every stroke painted a random palette
// color. An empty palette returns an unchanged copy.
func Recolor(d sketch.Drawing, palette []sketch.Color, rng *rand.Rand) sketch.Drawing {
	out := d.Clone()
	if len(palette) == 0 {
		return out
	}
	for i := range out {
		c := palette[rng.IntN(len(palette))]
		out[i].Color = &c
	}
	return out
}
