package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the default init", t, func() {
		So(Init(), ShouldBeNil)

		Convey("Then Get returns a usable logger", func() {
			l := Get()
			So(l, ShouldNotBeNil)
			So(func() { l.Info(context.Background(), "hello", String("k", "v")) }, ShouldNotPanic)
			So(Sync(), ShouldBeNil)
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, FormatJSON), ShouldBeNil)
		So(SetLevelString("info"), ShouldBeNil)

		Convey("When logging through a named logger", func() {
			Named("attribution").Info(context.Background(), "credits computed",
				String("model", "linear"), Int("touchpoints", 4), Float64("sum", 1))

			var line map[string]any
			So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)

			Convey("Then fields, component and source are present", func() {
				So(line["msg"], ShouldEqual, "credits computed")
				So(line["component"], ShouldEqual, "attribution")
				So(line["model"], ShouldEqual, "linear")
				So(line["touchpoints"], ShouldEqual, float64(4))
				So(line["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised to error", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Warn(context.Background(), "dropped")
			So(buf.Len(), ShouldEqual, 0)
			So(SetLevelString("info"), ShouldBeNil)
		})
	})
}

func TestLoggerLevels(t *testing.T) {
	Convey("Given level strings", t, func() {
		for _, lvl := range []string{"debug", "info", "INFO", "warn", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("loud"), ShouldNotBeNil)
		So(SetLevelString("info"), ShouldBeNil)
	})

	Convey("Given an unknown format", t, func() {
		So(InitWith(&bytes.Buffer{}, "xml"), ShouldNotBeNil)
		So(InitWith(nil, FormatText), ShouldNotBeNil)
	})

	Convey("Given a nop logger", t, func() {
		So(func() { Nop().Named("x").Error(context.Background(), "quiet") }, ShouldNotPanic)
	})
}
