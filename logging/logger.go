// Package logging 提供全局 slog logger，级别由 LOG_LEVEL 或配置决定。
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level is a textual log level as it appears in config and env.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

var defaultLogger *slog.Logger

func init() {
	lvl := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if lvl == "" {
		lvl = string(LevelInfo)
	}
	Setup(os.Stderr, Level(lvl))
}

// ParseLevel maps a textual level to slog; unknown values fall back to info.
func ParseLevel(level Level) slog.Level {
	switch Level(strings.ToLower(string(level))) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup replaces the default logger with a text handler writing to w.
func Setup(w io.Writer, level Level) *slog.Logger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

func Debug(msg string, args ...any) { defaultLogger.Debug(msg, args...) }

func Info(msg string, args ...any) { defaultLogger.Info(msg, args...) }

func Warn(msg string, args ...any) { defaultLogger.Warn(msg, args...) }

func Error(msg string, args ...any) { defaultLogger.Error(msg, args...) }

// GetLogger returns the current default logger.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// OrDefault returns l, or the default logger when l is nil.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return defaultLogger
	}
	return l
}

// MaskSensitive 用于日志中打印密钥，只保留前 4 位。
func MaskSensitive(value string) string {
	if value == "" {
		return "<not set>"
	}
	if len(value) <= 4 {
		return "<set>"
	}
	return value[:4] + "..." + strings.Repeat("*", 3)
}
