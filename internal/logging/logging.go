package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

// New returns a colored text logger on a terminal and a JSON logger otherwise.
// prod always logs JSON.
func New(w io.Writer, env, level string) *slog.Logger {
	lvl := ParseLevel(level)

	if f, ok := w.(*os.File); ok && !strings.EqualFold(env, "prod") && isatty.IsTerminal(f.Fd()) {
		return slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: "15:04:05.000",
		}))
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// ParseLevel defaults to info
func ParseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
