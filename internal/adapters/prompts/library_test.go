package prompts_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/domain/scoring"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	. "github.com/smartystreets/goconvey/convey"
)

type countingEngine struct {
	*scoring.Engine
	mu    sync.Mutex
	calls int
}

func (c *countingEngine) Prepare(d sketch.Drawing) (scoring.Prepared, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Engine.Prepare(d)
}

func square() sketch.Drawing {
	return sketch.Drawing{
		{Xs: []float64{0, 100, 100, 0, 0}, Ys: []float64{0, 0, 100, 100, 0}},
	}
}

func TestLibrary(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty library", t, func() {
		engine := &countingEngine{Engine: scoring.NewEngine()}
		lib := prompts.NewLibrary(engine, prompts.WithPreparedCacheSize(2))

		Convey("When a prompt without an id is added", func() {
			id, err := lib.Add(ctx, prompts.Prompt{Word: "square", Drawing: square()})

			Convey("Then it gets a generated id and can be fetched", func() {
				So(err, ShouldBeNil)
				So(id, ShouldNotBeEmpty)
				p, err := lib.Get(ctx, id)
				So(err, ShouldBeNil)
				So(p.Word, ShouldEqual, "square")
				So(p.Drawing, ShouldResemble, square())
				So(lib.Count(), ShouldEqual, 1)
			})
		})

		Convey("When the same id is added twice", func() {
			_, err1 := lib.Add(ctx, prompts.Prompt{ID: "sq", Drawing: square()})
			_, err2 := lib.Add(ctx, prompts.Prompt{ID: "sq", Drawing: square()})
			So(err1, ShouldBeNil)
			So(errors.Is(err2, prompts.ErrDuplicatePrompt), ShouldBeTrue)
			So(lib.Count(), ShouldEqual, 1)
		})

		Convey("When the drawing is malformed", func() {
			_, err := lib.Add(ctx, prompts.Prompt{Drawing: sketch.Drawing{{Xs: []float64{1}, Ys: nil}}})
			So(errors.Is(err, prompts.ErrInvalidPrompt), ShouldBeTrue)
			So(errors.Is(err, sketch.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("When several prompts are added", func() {
			for i := 0; i < 4; i++ {
				_, err := lib.Add(ctx, prompts.Prompt{ID: fmt.Sprintf("p%d", i), Word: "w", Drawing: square()})
				So(err, ShouldBeNil)
			}

			Convey("Then List keeps insertion order and omits drawings", func() {
				list := lib.List(ctx)
				So(len(list), ShouldEqual, 4)
				for i, p := range list {
					So(p.ID, ShouldEqual, fmt.Sprintf("p%d", i))
					So(p.Drawing, ShouldBeNil)
				}
			})
		})

		Convey("When a caller mutates a fetched drawing", func() {
			_, _ = lib.Add(ctx, prompts.Prompt{ID: "sq", Drawing: square()})
			p, _ := lib.Get(ctx, "sq")
			p.Drawing[0].Xs[0] = 999
			again, _ := lib.Get(ctx, "sq")
			So(again.Drawing[0].Xs[0], ShouldEqual, 0)
		})

		Convey("When a prepared reference is requested repeatedly", func() {
			_, _ = lib.Add(ctx, prompts.Prompt{ID: "sq", Drawing: square()})
			first, err := lib.Prepared(ctx, "sq")
			So(err, ShouldBeNil)
			second, err := lib.Prepared(ctx, "sq")
			So(err, ShouldBeNil)

			Convey("Then it is prepared once and served from the cache", func() {
				So(engine.calls, ShouldEqual, 1)
				So(second.Strokes(), ShouldResemble, first.Strokes())
				So(len(first.Strokes()), ShouldEqual, 1)
			})
		})

		Convey("When an unknown prompt is requested", func() {
			_, err := lib.Get(ctx, "nope")
			So(errors.Is(err, prompts.ErrPromptNotFound), ShouldBeTrue)
			_, err = lib.Prepared(ctx, "nope")
			So(errors.Is(err, prompts.ErrPromptNotFound), ShouldBeTrue)
		})

		Convey("When the context is cancelled before preparing", func() {
			_, _ = lib.Add(ctx, prompts.Prompt{ID: "sq", Drawing: square()})
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := lib.Prepared(cctx, "sq")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}
