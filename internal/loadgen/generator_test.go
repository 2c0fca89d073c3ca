package loadgen

import (
	"testing"

	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	. "github.com/smartystreets/goconvey/convey"
)

func house() sketch.Drawing {
	return sketch.Drawing{
		{Xs: []float64{0, 100, 100, 0, 0}, Ys: []float64{0, 0, 100, 100, 0}, Color: &sketch.Black},
		{Xs: []float64{0, 50, 100}, Ys: []float64{0, -60, 0}, Color: &sketch.Black},
		{Xs: []float64{40, 40, 60, 60}, Ys: []float64{100, 60, 60, 100}, Color: &sketch.Black},
	}
}

func TestGenerator(t *testing.T) {
	Convey("Given a generator", t, func() {
		ps := []prompts.Prompt{
			{ID: "house", Word: "house", Drawing: house()},
			{ID: "roof", Word: "roof", Drawing: house()[1:2]},
		}
		g := NewGenerator(42, 3, 0.02)

		Convey("Then it creates distinct players", func() {
			players := g.Players()
			So(players, ShouldHaveLength, 3)
			So(players[0], ShouldNotEqual, players[1])
		})

		Convey("When attempts are generated", func() {
			attempts := g.Attempts(ps, 30)

			Convey("Then every attempt is well formed", func() {
				So(attempts, ShouldHaveLength, 30)
				seen := map[string]bool{}
				for i, a := range attempts {
					So(a.AttemptID, ShouldNotBeEmpty)
					So(seen[a.AttemptID], ShouldBeFalse)
					seen[a.AttemptID] = true
					So(a.PlayerID, ShouldEqual, g.Players()[i%3])
					So([]string{"house", "roof"}, ShouldContain, a.PromptID)
					So(a.Drawing.Validate(), ShouldBeNil)
					So(a.TS, ShouldNotBeEmpty)
				}
			})
		})

		Convey("Then nothing is generated without prompts", func() {
			So(g.Attempts(nil, 10), ShouldBeNil)
			So(g.Attempts(ps, 0), ShouldBeNil)
		})

		Convey("When a drawing is copied", func() {
			src := house()
			cp := g.Copy(src)

			Convey("Then the source is untouched", func() {
				So(src, ShouldResemble, house())
			})

			Convey("Then the copy keeps at least all but one stroke", func() {
				So(len(cp), ShouldBeBetweenOrEqual, len(src)-1, len(src))
			})

			Convey("Then every stroke gets a palette color", func() {
				for _, s := range cp {
					So(s.Color, ShouldNotBeNil)
					So(prompts.Palette, ShouldContain, *s.Color)
				}
			})
		})

		Convey("Then zero jitter copies points exactly", func() {
			exact := NewGenerator(7, 1, 0)
			single := sketch.Drawing{house()[0]}
			cp := exact.Copy(single)
			So(cp[0].Xs, ShouldResemble, single[0].Xs)
			So(cp[0].Ys, ShouldResemble, single[0].Ys)
		})

		Convey("Then a non-positive player count becomes one", func() {
			So(NewGenerator(1, 0, 0).Players(), ShouldHaveLength, 1)
		})
	})
}

func TestExtent(t *testing.T) {
	Convey("Extent is the larger bounding box side", t, func() {
		So(extent(house()), ShouldEqual, 160)
		So(extent(nil), ShouldEqual, 0)
	})
}
