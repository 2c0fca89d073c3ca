package colorsim_test

import (
	"math"
	"testing"

	"github.com/okian/sketchmatch/internal/domain/colorsim"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSimilarity(t *testing.T) {
	Convey("Given two colors", t, func() {
		red := sketch.Color{239, 68, 68}
		blue := sketch.Color{59, 130, 246}
		black := sketch.Color{0, 0, 0}
		white := sketch.Color{255, 255, 255}

		Convey("Then a color is identical to itself", func() {
			So(colorsim.Similarity(&red, &red, colorsim.DefaultGamma), ShouldEqual, 1)
			So(colorsim.Similarity(&black, &black, colorsim.DefaultGamma), ShouldEqual, 1)
		})

		Convey("Then an absent color is neutral", func() {
			So(colorsim.Similarity(nil, &red, colorsim.DefaultGamma), ShouldEqual, 1)
			So(colorsim.Similarity(&red, nil, colorsim.DefaultGamma), ShouldEqual, 1)
			So(colorsim.Similarity(nil, nil, colorsim.DefaultGamma), ShouldEqual, 1)
		})

		Convey("Then opposite corners of the cube score 0", func() {
			So(colorsim.Similarity(&black, &white, colorsim.DefaultGamma), ShouldEqual, 0)
		})

		Convey("Then the score is symmetric and follows the gamma curve", func() {
			ab := colorsim.Similarity(&red, &blue, colorsim.DefaultGamma)
			ba := colorsim.Similarity(&blue, &red, colorsim.DefaultGamma)
			So(ab, ShouldEqual, ba)

			d := math.Sqrt(180*180+62*62+178*178) / math.Sqrt(3*255*255)
			So(ab, ShouldAlmostEqual, math.Pow(1-d, 2.5), 1e-12)
		})

		Convey("Then a larger gamma penalises drift harder", func() {
			grey := sketch.Color{40, 40, 40}
			So(colorsim.Similarity(&black, &grey, 4), ShouldBeLessThan, colorsim.Similarity(&black, &grey, 1))
		})
	})
}
