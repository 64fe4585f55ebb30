package cli

import (
	"io"
	"log/slog"
)

// setupLogging installs the default slog handler. Logs always go to w
// (stderr) so they never mix with JSON output.
func setupLogging(verbose bool, w io.Writer) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}
