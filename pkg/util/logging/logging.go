package logging

import (
	"log/slog"
	"os"
)

// InitDefault installs a JSON slog handler over stdout as the process
// default logger, tagged with the fields that identify one workload run:
// its run ID and the table shape it was configured with. The level comes
// from LOG_LEVEL, parsed by slog.Level's own text unmarshaler rather than
// a hand-rolled table, falling back to info when the variable is unset or
// unrecognized. At debug level the handler also attaches source position,
// since that is the level at which a caller is actually chasing a bug
// through the segment chain rather than watching a run go by.
func InitDefault(runID string, hasherName string, initialSegmentSize int) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	})
	logger := slog.New(handler).With(
		"run_id", runID,
		"hasher", hasherName,
		"initial_segment_size", initialSegmentSize,
	)
	slog.SetDefault(logger)
}
