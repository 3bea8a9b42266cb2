package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

var base = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// Init configures the process-wide logger. env "dev" selects the
// human-readable tint handler, anything else emits JSON.
func Init(env string, level string) {
	base = slog.New(newHandler(os.Stdout, env, parseLevel(level)))
	slog.SetDefault(base)
	base.Info("logger initialized", slog.String("env", env))
}

func newHandler(w io.Writer, env string, level slog.Level) slog.Handler {
	if strings.EqualFold(env, "dev") {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.RFC3339,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger returns the underlying slog logger for libraries that want one.
func Logger() *slog.Logger {
	return base
}

func Debug(msg string, fields map[string]any) {
	base.Debug(msg, attrs(fields)...)
}

func Info(msg string, fields map[string]any) {
	base.Info(msg, attrs(fields)...)
}

func Warn(msg string, fields map[string]any) {
	base.Warn(msg, attrs(fields)...)
}

func Error(msg string, fields map[string]any) {
	base.Error(msg, attrs(fields)...)
}

func Fatal(msg string, fields map[string]any) {
	base.Error(msg, attrs(fields)...)
	os.Exit(1)
}

func attrs(fields map[string]any) []any {
	out := make([]any, 0, len(fields))
	for k, v := range fields {
		out = append(out, slog.Any(k, v))
	}
	return out
}
