// Package log builds the slog.Logger used across rpcbench, backed by zerolog.
package log

import (
	"io"
	"log/slog"
	"os"

	"github.com/rs/zerolog"
	slogzerolog "github.com/samber/slog-zerolog"

	"github.com/weiihann/rpcbench/config"
)

// NewLogger writes to stderr so stdout stays free for reports.
func NewLogger(cfg *config.Config) *slog.Logger {
	return newLogger(os.Stderr, cfg.GetLogFormat(), cfg.GetLogLevel())
}

func newLogger(w io.Writer, format string, level slog.Level) *slog.Logger {
	var zerologLogger zerolog.Logger
	if format == "json" {
		zerologLogger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		zerologLogger = zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true}).With().Timestamp().Logger()
	}
	return slog.New(slogzerolog.Option{Level: level, Logger: &zerologLogger}.NewZerologHandler())
}
