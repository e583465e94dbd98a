package logger

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// newTextHandler creates the human-readable console handler.
// Timestamps are rendered in tz and the custom TRACE level gets its own name.
func newTextHandler(w io.Writer, level slog.Level, tz *time.Location) slog.Handler {
	if tz == nil {
		tz = time.Local
	}

	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().In(tz).Format(time.DateTime))
			}
			return levelNameReplacer(groups, a)
		},
	})
}

// levelNameReplacer renders the TRACE level by name instead of "DEBUG-4"
func levelNameReplacer(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if lvl, ok := a.Value.Any().(slog.Level); ok && lvl <= traceLevelValue {
			return slog.String(slog.LevelKey, "TRACE")
		}
	}
	return a
}

// NewSlogLogger returns a standalone Logger writing text to w.
// A nil writer logs to stdout and a nil timezone uses local time.
func NewSlogLogger(w io.Writer, level LogLevel, tz *time.Location) Logger {
	if w == nil {
		w = os.Stdout
	}
	slogLevel := parseSlogLevel(level)

	return &moduleLogger{
		logger:   slog.New(newTextHandler(w, slogLevel, tz)),
		level:    slogLevel,
		timezone: tz,
	}
}

// Discard returns a logger that drops every record. Tests use it.
func Discard() Logger {
	return NewSlogLogger(io.Discard, LogLevelError, time.UTC)
}
