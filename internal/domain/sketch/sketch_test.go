package sketch_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/okian/sketchmatch/internal/domain/sketch"
	. "github.com/smartystreets/goconvey/convey"
)

func TestStroke(t *testing.T) {
	Convey("Given a stroke", t, func() {
		s := sketch.NewStroke([]sketch.Point{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 10}}, nil)

		Convey("Then length is the summed segment length", func() {
			So(s.Length(), ShouldEqual, 11)
			So(sketch.NewStroke([]sketch.Point{{X: 1, Y: 1}}, nil).Length(), ShouldEqual, 0)
		})

		Convey("Then points round-trip through the parallel slices", func() {
			So(s.Len(), ShouldEqual, 3)
			So(s.Points()[1], ShouldResemble, sketch.Point{X: 3, Y: 4})
		})

		Convey("Then a clone does not share memory", func() {
			red := sketch.Color{255, 0, 0}
			s.Color = &red
			c := s.Clone()
			c.Xs[0] = 99
			c.Color[0] = 1
			So(s.Xs[0], ShouldEqual, 0)
			So(s.Color[0], ShouldEqual, 255)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given invalid drawings", t, func() {
		Convey("Then mismatched coordinate slices are rejected", func() {
			d := sketch.Drawing{{Xs: []float64{0, 1}, Ys: []float64{0}}}
			err := d.Validate()
			So(errors.Is(err, sketch.ErrMismatchedCoordinates), ShouldBeTrue)
			So(errors.Is(err, sketch.ErrInvalidInput), ShouldBeTrue)
		})

		Convey("Then a color channel above 255 is rejected", func() {
			bad := sketch.Color{0, 256, 0}
			d := sketch.Drawing{{Xs: []float64{0}, Ys: []float64{0}, Color: &bad}}
			So(errors.Is(d.Validate(), sketch.ErrColorOutOfRange), ShouldBeTrue)
		})

		Convey("Then NaN and infinite samples are rejected", func() {
			d := sketch.Drawing{
				{Xs: []float64{0}, Ys: []float64{0}},
				{Xs: []float64{math.NaN()}, Ys: []float64{0}},
			}
			err := d.Validate()
			So(errors.Is(err, sketch.ErrNonFiniteCoordinate), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "stroke 1")

			d = sketch.Drawing{{Xs: []float64{0}, Ys: []float64{math.Inf(-1)}}}
			So(errors.Is(d.Validate(), sketch.ErrNonFiniteCoordinate), ShouldBeTrue)
		})

		Convey("Then empty drawings and strokes are valid", func() {
			So(sketch.Drawing(nil).Validate(), ShouldBeNil)
			So(sketch.Drawing{{}}.Validate(), ShouldBeNil)
		})
	})
}

func TestDrawingJSON(t *testing.T) {
	Convey("Given the points wire shape", t, func() {
		raw := `[{"points":[[0,10],[0,20]],"color":[1,2,3]},{"points":[[5],[5]]}]`

		var d sketch.Drawing
		So(json.Unmarshal([]byte(raw), &d), ShouldBeNil)

		Convey("Then strokes decode into parallel slices", func() {
			So(d, ShouldHaveLength, 2)
			So(d[0].Xs, ShouldResemble, []float64{0, 10})
			So(d[0].Ys, ShouldResemble, []float64{0, 20})
			So(*d[0].Color, ShouldResemble, sketch.Color{1, 2, 3})
			So(d[1].Color, ShouldBeNil)
			So(d.PointCount(), ShouldEqual, 3)
			So(d.Points(), ShouldHaveLength, 3)
		})

		Convey("Then encoding omits a missing color", func() {
			out, err := json.Marshal(d[1])
			So(err, ShouldBeNil)
			So(string(out), ShouldEqual, `{"points":[[5],[5]]}`)
		})

		Convey("Then a points array without two rows is rejected", func() {
			var bad sketch.Drawing
			err := json.Unmarshal([]byte(`[{"points":[[0,1]]}]`), &bad)
			So(errors.Is(err, sketch.ErrMismatchedCoordinates), ShouldBeTrue)
		})
	})
}
