package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInit(t *testing.T) {
	Convey("Given logger initialization", t, func() {
		Convey("When text output is requested", func() {
			var buf bytes.Buffer
			So(Init(WithWriter(&buf)), ShouldBeNil)
			Get().Info(context.Background(), "hello", String("k", "v"))

			Convey("Then a text line with the fields is written", func() {
				So(buf.String(), ShouldContainSubstring, "msg=hello")
				So(buf.String(), ShouldContainSubstring, "k=v")
				So(buf.String(), ShouldContainSubstring, "source=")
			})
		})

		Convey("When json output is requested", func() {
			var buf bytes.Buffer
			So(Init(WithWriter(&buf), WithFormat("JSON")), ShouldBeNil)
			Named("worker").Info(context.Background(), "scored",
				Float64("similarity", 87.5), Bool("best", true), Duration("took", time.Millisecond), Int("strokes", 3))

			Convey("Then fields are nested under the logger name", func() {
				var line map[string]any
				So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
				So(line["msg"], ShouldEqual, "scored")
				group, ok := line["worker"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(group["similarity"], ShouldEqual, 87.5)
				So(group["best"], ShouldEqual, true)
			})
		})

		Convey("When an unknown format is requested", func() {
			So(Init(WithFormat("xml")), ShouldNotBeNil)
		})
	})
}

func TestLevels(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithWriter(&buf), WithLevel(slog.LevelWarn)), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging below the level", func() {
			Get().Info(ctx, "quiet")
			Get().Debug(ctx, "quieter")
			So(buf.Len(), ShouldEqual, 0)
		})

		Convey("When the level is lowered by name", func() {
			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(ctx, "loud")
			So(buf.String(), ShouldContainSubstring, "loud")
		})

		Convey("When errors are logged", func() {
			Get().Error(ctx, "boom", Error(context.Canceled))
			Get().Warn(ctx, "careful")
			So(strings.Count(buf.String(), "\n"), ShouldEqual, 2)
			So(buf.String(), ShouldContainSubstring, "context canceled")
		})

		Convey("When the level name is unknown", func() {
			So(SetLevelString("chatty"), ShouldNotBeNil)
		})

		Convey("When Fatal is called", func() {
			code := -1
			l := &slogLogger{logger: slog.New(slog.NewTextHandler(&buf, nil)), exit: func(c int) { code = c }}
			l.Fatal(ctx, "bye")
			So(code, ShouldEqual, 1)
		})

		Reset(func() { So(Sync(), ShouldBeNil) })
	})
}
