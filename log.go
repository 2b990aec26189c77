package texquad

import (
	"log/slog"
	"os"
)

// logLevel controls the log level for pipeline logging.
// Default is LevelInfo, which suppresses Debug messages.
// SetVerbose(true) sets it to LevelDebug.
var logLevel = new(slog.LevelVar)

// SetVerbose enables or disables verbose/debug logging.
// Call this from main() after parsing flags.
func SetVerbose(v bool) {
	if v {
		logLevel.Set(slog.LevelDebug)
	} else {
		logLevel.Set(slog.LevelInfo)
	}
}

// verbose returns true if debug logging is enabled.
func verbose() bool {
	return logLevel.Level() <= slog.LevelDebug
}

// logger is the package default; Pipeline.WithLogger overrides it per pipeline.
var logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
