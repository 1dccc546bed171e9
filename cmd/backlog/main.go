package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/reshetovitsme/yt-backlog/internal/di"
	apperrors "github.com/reshetovitsme/yt-backlog/internal/shared/errors"
	"github.com/reshetovitsme/yt-backlog/internal/transport/cli"
	"github.com/samber/do/v2"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd, err := cli.Parse(args, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr, "Run with -h for usage.")
		return 1
	}
	if cmd.Action == cli.ActionHelp {
		cli.PrintHelp(os.Stdout)
		return 0
	}

	// Setup dependency injection
	injector, err := di.Setup(di.Options{
		ConfigFile: cmd.ConfigFile,
		Verbose:    cmd.Verbose,
		RunID:      uuid.NewString(),
		In:         os.Stdin,
		Out:        os.Stdout,
		Stderr:     os.Stderr,
	})
	if err != nil {
		slog.Error("Failed to setup dependency injection", "error", err)
		return 1
	}
	defer func() {
		if err := di.Shutdown(injector); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}()

	logger, err := do.Invoke[*slog.Logger](injector)
	if err != nil {
		slog.Error("Failed to setup logging", "error", err)
		return 1
	}
	slog.SetDefault(logger)

	handler, err := do.Invoke[*cli.Handler](injector)
	if err != nil {
		slog.Error("Failed to initialize backlog", "error", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := handler.Run(ctx, cmd); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrStoreUnavailable):
			slog.Error("Backlog store unavailable", "error", err)
		case errors.Is(err, context.Canceled):
			slog.Info("Interrupted", "command", cmd.String())
		default:
			slog.Error("Command failed", "command", cmd.String(), "error", err)
		}
		return 1
	}
	return 0
}
