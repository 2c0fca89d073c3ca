package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/okian/sketchmatch/internal/adapters/mq/queue"
	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/adapters/repository"
	service "github.com/okian/sketchmatch/internal/app"
	"github.com/okian/sketchmatch/internal/domain/model"
	"github.com/okian/sketchmatch/internal/domain/scoring"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	"github.com/okian/sketchmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func square() sketch.Drawing {
	return sketch.Drawing{
		{Xs: []float64{0, 100, 100, 0, 0}, Ys: []float64{0, 0, 100, 100, 0}, Color: &sketch.Black},
	}
}

func scribble() sketch.Drawing {
	return sketch.Drawing{
		{Xs: []float64{0, 300}, Ys: []float64{0, 20}},
		{Xs: []float64{40, 40, 60}, Ys: []float64{0, 80, 80}},
	}
}

func waitForStatus(svc *service.Service, id string) model.AttemptResult {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		res, err := svc.AttemptResult(context.Background(), id)
		if err == nil && res.Status != model.StatusPending {
			return res
		}
		time.Sleep(5 * time.Millisecond)
	}
	return model.AttemptResult{}
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(2), service.WithQueueSize(16))
		ctx := context.Background()

		Convey("Then attempts are refused before Start", func() {
			err := svc.Enqueue(ctx, model.Attempt{AttemptID: "a", PlayerID: "p", PromptID: "x"})
			So(errors.Is(err, service.ErrNotRunning), ShouldBeTrue)
			So(errors.Is(err, queue.ErrClosed), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("When started twice and stopped twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats(), ShouldContainKey, "queue_length")
			svc.Stop()
			svc.Stop()

			Convey("Then it reports stopped and can start again", func() {
				So(svc.GetStats()["started"], ShouldEqual, false)
				So(svc.Start(ctx), ShouldBeNil)
				svc.Stop()
			})
		})
	})
}

func TestService_Prompts(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New()
		ctx := context.Background()

		Convey("When prompts are loaded with a duplicate", func() {
			n, err := svc.LoadPrompts(ctx, []prompts.Prompt{
				{ID: "sq", Word: "square", Drawing: square()},
				{ID: "sq", Word: "again", Drawing: square()},
				{ID: "scr", Word: "scribble", Drawing: scribble()},
			})

			Convey("Then the duplicate is skipped", func() {
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 2)
				So(len(svc.ListPrompts(ctx)), ShouldEqual, 2)
				p, err := svc.GetPrompt(ctx, "sq")
				So(err, ShouldBeNil)
				So(p.Word, ShouldEqual, "square")
			})
		})

		Convey("When a malformed prompt is loaded", func() {
			_, err := svc.LoadPrompts(ctx, []prompts.Prompt{{Drawing: sketch.Drawing{{Xs: []float64{1}}}}})
			So(errors.Is(err, prompts.ErrInvalidPrompt), ShouldBeTrue)
		})

		Convey("When two drawings are compared directly", func() {
			bd, err := svc.Similarity(ctx, square(), square())
			So(err, ShouldBeNil)
			So(bd.Similarity, ShouldEqual, 100)

			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err = svc.Similarity(cctx, square(), square())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestService_Attempts(t *testing.T) {
	Convey("Given a running service with a prompt", t, func() {
		ctx := context.Background()
		svc := service.New(
			service.WithWorkerCount(3),
			service.WithQueueSize(64),
			service.WithScoringOptions(scoring.WithMinStrokeLength(10)),
		)
		_, err := svc.AddPrompt(ctx, prompts.Prompt{ID: "sq", Word: "square", Drawing: square()})
		So(err, ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		Reset(svc.Stop)

		Convey("When a perfect copy is submitted", func() {
			So(svc.Enqueue(ctx, model.Attempt{AttemptID: "a1", PlayerID: "ann", PromptID: "sq", Drawing: square()}), ShouldBeNil)
			res := waitForStatus(svc, "a1")

			Convey("Then it scores 100 and tops the board", func() {
				So(res.Status, ShouldEqual, model.StatusScored)
				So(res.Breakdown.Similarity, ShouldEqual, 100)
				So(res.PersonalBest, ShouldBeTrue)

				top, err := svc.TopN(ctx, "sq", 5)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 1)
				So(top[0].PlayerID, ShouldEqual, "ann")
				So(top[0].AttemptID, ShouldEqual, "a1")
			})
		})

		Convey("When several players submit", func() {
			So(svc.Enqueue(ctx, model.Attempt{AttemptID: "b1", PlayerID: "bob", PromptID: "sq", Drawing: scribble()}), ShouldBeNil)
			So(svc.Enqueue(ctx, model.Attempt{AttemptID: "c1", PlayerID: "cy", PromptID: "sq", Drawing: square()}), ShouldBeNil)
			waitForStatus(svc, "b1")
			waitForStatus(svc, "c1")

			Convey("Then ranks follow the scores", func() {
				cy, err := svc.Rank(ctx, "sq", "cy")
				So(err, ShouldBeNil)
				So(cy.Rank, ShouldEqual, 1)
				bob, err := svc.Rank(ctx, "sq", "bob")
				So(err, ShouldBeNil)
				So(bob.Rank, ShouldEqual, 2)
				So(bob.Score, ShouldBeLessThan, cy.Score)
			})

			Convey("Then a later worse attempt keeps the best", func() {
				So(svc.Enqueue(ctx, model.Attempt{AttemptID: "c2", PlayerID: "cy", PromptID: "sq", Drawing: scribble()}), ShouldBeNil)
				res := waitForStatus(svc, "c2")
				So(res.Status, ShouldEqual, model.StatusScored)
				So(res.PersonalBest, ShouldBeFalse)
				cy, _ := svc.Rank(ctx, "sq", "cy")
				So(cy.AttemptID, ShouldEqual, "c1")
			})
		})

		Convey("When the prompt is unknown to the board", func() {
			_, err := svc.TopN(ctx, "owl", 5)
			So(errors.Is(err, prompts.ErrPromptNotFound), ShouldBeTrue)
			_, err = svc.Rank(ctx, "sq", "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When an unknown attempt is looked up", func() {
			_, err := svc.AttemptResult(ctx, "ghost")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the service stops with attempts queued", func() {
			for i := 0; i < 20; i++ {
				So(svc.Enqueue(ctx, model.Attempt{
					AttemptID: fmt.Sprintf("d%d", i), PlayerID: fmt.Sprintf("p%d", i), PromptID: "sq", Drawing: square(),
				}), ShouldBeNil)
			}
			svc.Stop()

			Convey("Then every queued attempt was scored first", func() {
				for i := 0; i < 20; i++ {
					res, err := svc.AttemptResult(ctx, fmt.Sprintf("d%d", i))
					So(err, ShouldBeNil)
					So(res.Status, ShouldEqual, model.StatusScored)
				}
			})
		})
	})
}

func TestService_Dedupe(t *testing.T) {
	Convey("Given a service", t, func() {
		svc := service.New(service.WithDedupeSize(8))
		ctx := context.Background()

		So(svc.SeenAndRecord(ctx, "x"), ShouldBeFalse)
		So(svc.SeenAndRecord(ctx, "x"), ShouldBeTrue)
		So(svc.Size(), ShouldEqual, int64(1))
		svc.Unrecord(ctx, "x")
		So(svc.SeenAndRecord(ctx, "x"), ShouldBeFalse)
	})
}
