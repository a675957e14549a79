package logger

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"strings"
)

var levelColors = []struct {
	plain, colored []byte
}{
	{[]byte("level=DEBUG"), []byte("\033[36mlevel=DEBUG\033[0m")},
	{[]byte("level=INFO"), []byte("\033[32mlevel=INFO\033[0m")},
	{[]byte("level=WARN"), []byte("\033[33mlevel=WARN\033[0m")},
	{[]byte("level=ERROR"), []byte("\033[31mlevel=ERROR\033[0m")},
}

// colorWriter highlights the level of text-handler lines.
type colorWriter struct {
	w io.Writer
}

func (cw colorWriter) Write(p []byte) (int, error) {
	out := p
	for _, c := range levelColors {
		out = bytes.ReplaceAll(out, c.plain, c.colored)
	}
	if _, err := cw.w.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

// New builds the process logger on stdout.
func New(appName, level, environment string) *slog.Logger {
	return NewWithWriter(os.Stdout, appName, level, environment)
}

// NewWithWriter builds a structured logger. Developer environments get text
// output, colored when w is a terminal; every other environment gets JSON.
func NewWithWriter(w io.Writer, appName, level, environment string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: true,
	}

	var handler slog.Handler
	switch strings.ToLower(strings.TrimSpace(environment)) {
	case "local", "dev", "development", "test":
		if isTerminal(w) {
			w = colorWriter{w: w}
		}
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler).With("app", appName)
}

// ParseLevel maps LOG_LEVEL values; anything unknown is info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
