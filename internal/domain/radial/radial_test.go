package radial_test

import (
	"math"
	"testing"

	"github.com/okian/sketchmatch/internal/domain/radial"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	. "github.com/smartystreets/goconvey/convey"
)

func circle(cx, cy, r float64, n int) []sketch.Point {
	out := make([]sketch.Point, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = sketch.Point{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)}
	}
	return out
}

func TestSignature(t *testing.T) {
	Convey("Given a densely sampled circle", t, func() {
		sig := radial.Signature(circle(50, 50, 20, 720), radial.DefaultBins, radial.DefaultSmoothWindow)

		Convey("Then it has one value per bin", func() {
			So(len(sig), ShouldEqual, radial.DefaultBins)
		})

		Convey("Then every bin is close to the normalized maximum", func() {
			for _, v := range sig {
				So(v, ShouldBeBetweenOrEqual, 0.99, 1.0+1e-9)
			}
		})
	})

	Convey("Given no points", t, func() {
		sig := radial.Signature(nil, 36, 3)

		Convey("Then the signature is all zeros", func() {
			So(len(sig), ShouldEqual, 36)
			for _, v := range sig {
				So(v, ShouldEqual, 0)
			}
		})
	})

	Convey("Given a single lobe", t, func() {
		points := []sketch.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}
		raw := radial.Signature(points, 8, 1)
		smoothed := radial.Signature(points, 8, 3)

		Convey("Then the maximum bin is normalized to 1 before smoothing", func() {
			So(raw[0], ShouldEqual, 1)
		})

		Convey("Then smoothing spreads the lobe over its circular neighbours", func() {
			So(smoothed[0], ShouldAlmostEqual, 1.0/3, 1e-12)
			So(smoothed[1], ShouldAlmostEqual, 1.0/3, 1e-12)
			So(smoothed[7], ShouldAlmostEqual, 1.0/3, 1e-12)
		})
	})
}

func TestCompare(t *testing.T) {
	Convey("Given signatures", t, func() {
		a := radial.Signature(circle(0, 0, 5, 360), 72, 3)

		Convey("Then a scaled and moved copy is identical", func() {
			b := radial.Signature(circle(100, 40, 90, 360), 72, 3)
			So(radial.Compare(a, b), ShouldAlmostEqual, 1, 1e-9)
		})

		Convey("Then a zero signature compares as 0", func() {
			So(radial.Compare(a, make([]float64, 72)), ShouldEqual, 0)
			So(radial.Compare(nil, nil), ShouldEqual, 0)
		})

		Convey("Then the result stays inside [0,1]", func() {
			line := radial.Signature([]sketch.Point{{X: 0, Y: 0}, {X: 10, Y: 0}}, 72, 3)
			sim := radial.Compare(a, line)
			So(sim, ShouldBeBetweenOrEqual, 0, 1)
			So(sim, ShouldBeLessThan, 0.5)
		})

		Convey("Then Similarity wraps both steps", func() {
			So(radial.Similarity(circle(0, 0, 5, 360), circle(9, 9, 2, 360), 72, 3), ShouldAlmostEqual, 1, 1e-9)
		})
	})
}
