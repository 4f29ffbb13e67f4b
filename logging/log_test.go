package logging

import (
	"context"
	"log/slog"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseLevel(t *testing.T) {
	Convey("known levels parse, unknown falls back to info", t, func() {
		So(ParseLevel("debug"), ShouldEqual, slog.LevelDebug)
		So(ParseLevel("warn"), ShouldEqual, slog.LevelWarn)
		So(ParseLevel("error"), ShouldEqual, slog.LevelError)
		So(ParseLevel("info"), ShouldEqual, slog.LevelInfo)
		So(ParseLevel("verbose"), ShouldEqual, slog.LevelInfo)
	})
}

func TestHook(t *testing.T) {
	Convey("info and above reach the hook with flattened args, debug does not", t, func() {
		var lines []string
		var levels []slog.Level
		SetHook(func(ctx context.Context, level slog.Level, line string) {
			levels = append(levels, level)
			lines = append(lines, line)
		})
		defer SetHook(nil)

		log := NewSlogLogger()
		ctx := context.Background()
		log.Info(ctx, "task done", "task_id", 7)
		log.Warn(ctx, "slow")
		log.Debug(ctx, "noise")

		So(lines, ShouldHaveLength, 2)
		So(lines[0], ShouldEqual, "task done task_id=7")
		So(levels[0], ShouldEqual, slog.LevelInfo)
		So(levels[1], ShouldEqual, slog.LevelWarn)
	})
}

func TestSetGlobal(t *testing.T) {
	Convey("nil is ignored, a real logger replaces the default", t, func() {
		orig := L()
		defer SetGlobal(orig)

		SetGlobal(nil)
		So(L(), ShouldEqual, orig)

		replacement := NewSlogLoggerWithLevel(slog.LevelDebug)
		SetGlobal(replacement)
		So(L(), ShouldEqual, replacement)
	})
}
