package logging

import (
	"io"
	"log/slog"
	"os"

	"github.com/reshetovitsme/yt-backlog/internal/shared/config"
	"github.com/samber/oops"
	slogmulti "github.com/samber/slog-multi"
)

// Options selects where and how much a run logs
type Options struct {
	// Stderr receives the human readable text log.
	Stderr io.Writer
	// File, when set, receives Error records as JSON, appended across runs.
	File    string
	Verbose bool
	AppEnv  config.AppEnv
	// RunID tags every record of one run.
	RunID string
}

// Level returns the text log level: Debug when verbose or outside
// production, Info otherwise.
func Level(opts Options) slog.Level {
	switch {
	case opts.Verbose:
		return slog.LevelDebug
	case opts.AppEnv == config.AppEnvDevelopment, opts.AppEnv == config.AppEnvLocal:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// New builds the run logger. The returned close function releases the JSON
// log file and is safe to call when there is none.
func New(opts Options) (*slog.Logger, func() error, error) {
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	textHandler := slog.NewTextHandler(stderr, &slog.HandlerOptions{
		Level:     Level(opts),
		AddSource: opts.AppEnv == config.AppEnvDevelopment,
	})

	closeFn := func() error { return nil }
	handler := slog.Handler(textHandler)

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, closeFn, oops.With("log_file", opts.File, "context", "failed to open log file").Wrap(err)
		}
		closeFn = f.Close

		jsonHandler := slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: slog.LevelError,
		})
		// Errors also land in the file; the terminal keeps a single copy.
		handler = slogmulti.Fanout(textHandler, jsonHandler)
	}

	logger := slog.New(handler)
	if opts.RunID != "" {
		logger = logger.With("run_id", opts.RunID)
	}
	return logger, closeFn, nil
}
