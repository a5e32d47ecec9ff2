// Package logging holds the small amount of glue shared by every component that
// takes a *slog.Logger.
package logging

import (
	"io"
	"log/slog"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))

// OrDiscard returns `logger`, or a logger that drops everything if it's nil.
func OrDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return discard
	}
	return logger
}

// Cluster builds the attribute used for cluster indices in every log line.
func Cluster(key string, cluster int32) slog.Attr {
	return slog.Int(key, int(cluster))
}
