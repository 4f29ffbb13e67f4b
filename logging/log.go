package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// Logger 日志门面接口。
// 说明：为了最小侵入，提供 Info/Warn/Error/Debug 与 With 方法。
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	Debug(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

// SlogLogger 基于标准库 slog 的默认实现。
type SlogLogger struct{ l *slog.Logger }

// NewSlogLogger 创建默认 slog 日志器（文本输出）。
func NewSlogLogger() *SlogLogger {
	return &SlogLogger{l: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))}
}

// NewSlogLoggerWithLevel 创建指定级别的 slog 日志器。
func NewSlogLoggerWithLevel(level slog.Level) *SlogLogger {
	return &SlogLogger{l: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))}
}

// ParseLevel 解析配置中的级别字符串，未知值回落到 info。
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
	fireHook(ctx, slog.LevelInfo, msg, args...)
}
func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
	fireHook(ctx, slog.LevelWarn, msg, args...)
}
func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
	fireHook(ctx, slog.LevelError, msg, args...)
}
func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}
func (s *SlogLogger) With(args ...any) Logger { return &SlogLogger{l: s.l.With(args...)} }

// 全局默认日志器，便于简化调用。
var defaultLogger Logger = NewSlogLogger()

// L 获取全局日志器。
func L() Logger { return defaultLogger }

// SetGlobal 替换全局日志器（如业务侧注入第三方实现）。
func SetGlobal(l Logger) {
	if l != nil {
		defaultLogger = l
	}
}

// Hook 日志旁路回调：info 及以上级别的日志会同时推给 Hook，
// Agent 用它把日志转发到前端通道。Hook 内不得再调用 logging.L()，避免递归。
type Hook func(ctx context.Context, level slog.Level, line string)

var hook Hook

// SetHook 设置日志旁路回调，传 nil 关闭。
func SetHook(h Hook) { hook = h }

func fireHook(ctx context.Context, level slog.Level, msg string, args ...any) {
	if hook == nil {
		return
	}
	line := msg
	for i := 0; i+1 < len(args); i += 2 {
		line += fmt.Sprintf(" %v=%v", args[i], args[i+1])
	}
	hook(ctx, level, line)
}
