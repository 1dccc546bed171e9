package di

import (
	"errors"
	"io"
	"log/slog"

	"github.com/reshetovitsme/yt-backlog/internal/modules/backlog/repository"
	backlogService "github.com/reshetovitsme/yt-backlog/internal/modules/backlog/service"
	downloadService "github.com/reshetovitsme/yt-backlog/internal/modules/download/service"
	feedDomain "github.com/reshetovitsme/yt-backlog/internal/modules/feed/domain"
	feedService "github.com/reshetovitsme/yt-backlog/internal/modules/feed/service"
	reportService "github.com/reshetovitsme/yt-backlog/internal/modules/report/service"
	sourceService "github.com/reshetovitsme/yt-backlog/internal/modules/source/service"
	"github.com/reshetovitsme/yt-backlog/internal/shared/config"
	"github.com/reshetovitsme/yt-backlog/internal/shared/logging"
	"github.com/reshetovitsme/yt-backlog/internal/transport/cli"
	"github.com/reshetovitsme/yt-backlog/internal/transport/ytdlp"
	"github.com/samber/do/v2"
	"github.com/samber/oops"
)

// Options carries what the container cannot build itself
type Options struct {
	// ConfigFile overrides config file discovery when set.
	ConfigFile string
	// Verbose forces verbose mode on top of the loaded config.
	Verbose bool
	// RunID tags every log record of this run.
	RunID string
	// In and Out are the terminal used for prompts and reports. Logs go to
	// Stderr.
	In     io.Reader
	Out    io.Writer
	Stderr io.Writer
}

// resources remembers what has been opened so Shutdown can release it
// without opening anything.
type resources struct {
	repo     repository.Repository
	closeLog func() error
}

// Setup initializes the dependency injection container
func Setup(opts Options) (do.Injector, error) {
	injector := do.New()

	do.ProvideValue(injector, &resources{})

	// Register Config
	do.Provide(injector, func(i do.Injector) (*config.Config, error) {
		cfg, err := config.Load(opts.ConfigFile)
		if err != nil {
			return nil, oops.With("context", "failed to load config").Wrap(err)
		}
		if opts.Verbose {
			cfg.Verbose = true
		}
		return cfg, nil
	})

	// Register Logger
	do.Provide(injector, func(i do.Injector) (*slog.Logger, error) {
		cfg, err := do.Invoke[*config.Config](i)
		if err != nil {
			return nil, err
		}

		logger, closeLog, err := logging.New(logging.Options{
			Stderr:  opts.Stderr,
			File:    cfg.LogFile,
			Verbose: cfg.Verbose,
			AppEnv:  cfg.AppEnv,
			RunID:   opts.RunID,
		})
		if err != nil {
			return nil, err
		}

		do.MustInvoke[*resources](i).closeLog = closeLog
		return logger, nil
	})

	// Register Backlog Repository
	do.Provide(injector, func(i do.Injector) (repository.Repository, error) {
		cfg, err := do.Invoke[*config.Config](i)
		if err != nil {
			return nil, err
		}

		var repo repository.Repository
		if cfg.StorageDriver == config.StorageDriverMemory {
			repo = repository.NewMemoryStorage()
		} else {
			repo, err = repository.NewSQLiteStorage(cfg.DBPath)
			if err != nil {
				return nil, oops.With("db_path", cfg.DBPath, "context", "failed to initialize backlog repository").Wrap(err)
			}
		}

		do.MustInvoke[*resources](i).repo = repo
		return repo, nil
	})

	// Register yt-dlp Client
	do.Provide(injector, func(i do.Injector) (*ytdlp.Client, error) {
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*slog.Logger](i)
		return ytdlp.New(cfg, log.With("component", "ytdlp")), nil
	})

	// Register Backlog Service
	do.Provide(injector, func(i do.Injector) (*backlogService.Service, error) {
		repo, err := do.Invoke[repository.Repository](i)
		if err != nil {
			return nil, err
		}
		log, err := do.Invoke[*slog.Logger](i)
		if err != nil {
			return nil, err
		}
		return backlogService.New(repo, log.With("component", "backlog")), nil
	})

	// Register Report Service
	do.Provide(injector, func(i do.Injector) (*reportService.Service, error) {
		backlog, err := do.Invoke[*backlogService.Service](i)
		if err != nil {
			return nil, err
		}
		log := do.MustInvoke[*slog.Logger](i)
		return reportService.New(backlog, log.With("component", "report")), nil
	})

	// Register Source Service
	do.Provide(injector, func(i do.Injector) (*sourceService.Service, error) {
		backlog, err := do.Invoke[*backlogService.Service](i)
		if err != nil {
			return nil, err
		}
		cfg := do.MustInvoke[*config.Config](i)
		client := do.MustInvoke[*ytdlp.Client](i)
		log := do.MustInvoke[*slog.Logger](i)
		return sourceService.New(cfg, client, backlog, log.With("component", "source")), nil
	})

	// Register Download Service
	do.Provide(injector, func(i do.Injector) (*downloadService.Service, error) {
		backlog, err := do.Invoke[*backlogService.Service](i)
		if err != nil {
			return nil, err
		}
		client := do.MustInvoke[*ytdlp.Client](i)
		log := do.MustInvoke[*slog.Logger](i)
		return downloadService.New(backlog, client, log.With("component", "download")), nil
	})

	// Register Feed Service
	do.Provide(injector, func(i do.Injector) (*feedService.Service, error) {
		backlog, err := do.Invoke[*backlogService.Service](i)
		if err != nil {
			return nil, err
		}
		cfg := do.MustInvoke[*config.Config](i)
		log := do.MustInvoke[*slog.Logger](i)
		feedCfg := feedDomain.FeedConfig{Title: cfg.FeedTitle, Link: cfg.FeedLink}
		return feedService.New(backlog, feedCfg, log.With("component", "feed")), nil
	})

	// Register CLI Handler
	do.Provide(injector, func(i do.Injector) (*cli.Handler, error) {
		backlog, err := do.Invoke[*backlogService.Service](i)
		if err != nil {
			return nil, err
		}
		log := do.MustInvoke[*slog.Logger](i)
		return cli.NewHandler(
			backlog,
			do.MustInvoke[*reportService.Service](i),
			do.MustInvoke[*sourceService.Service](i),
			do.MustInvoke[*downloadService.Service](i),
			do.MustInvoke[*feedService.Service](i),
			cli.NewPrompt(opts.In, opts.Out),
			opts.Out,
			log.With("component", "cli"),
		), nil
	})

	return injector, nil
}

// Shutdown closes the backlog store and the log file if they were opened
func Shutdown(injector do.Injector) error {
	res, err := do.Invoke[*resources](injector)
	if err != nil {
		return nil
	}

	var errs []error
	if res.repo != nil {
		if err := res.repo.Close(); err != nil {
			errs = append(errs, oops.With("context", "failed to close backlog repository").Wrap(err))
		}
		res.repo = nil
	}
	if res.closeLog != nil {
		if err := res.closeLog(); err != nil {
			errs = append(errs, oops.With("context", "failed to close log file").Wrap(err))
		}
		res.closeLog = nil
	}
	return errors.Join(errs...)
}
