package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/sketchmatch/internal/adapters/repository"
	"github.com/okian/sketchmatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestResultCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a result cache of two", t, func() {
		c := repository.NewResultCache(2)

		Convey("When a pending result is replaced by a scored one", func() {
			c.Put(ctx, model.AttemptResult{AttemptID: "a1", Status: model.StatusPending})
			c.Put(ctx, model.AttemptResult{AttemptID: "a1", Status: model.StatusScored})
			r, err := c.Get(ctx, "a1")
			So(err, ShouldBeNil)
			So(r.Status, ShouldEqual, model.StatusScored)
			So(c.Len(), ShouldEqual, 1)
		})

		Convey("When more results arrive than fit", func() {
			for _, id := range []string{"a1", "a2", "a3"} {
				c.Put(ctx, model.AttemptResult{AttemptID: id})
			}
			_, err := c.Get(ctx, "a1")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			_, err = c.Get(ctx, "a3")
			So(err, ShouldBeNil)
		})
	})

	Convey("Given a cached result", t, func() {
		c := repository.NewResultCache(4)
		c.Put(ctx, model.AttemptResult{AttemptID: "a1", Status: model.StatusPending})

		Convey("When it is removed", func() {
			c.Remove(ctx, "a1")
			_, err := c.Get(ctx, "a1")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
			So(c.Len(), ShouldEqual, 0)
		})
	})

	Convey("Given a non-positive size", t, func() {
		So(repository.NewResultCache(0), ShouldNotBeNil)
	})
}
