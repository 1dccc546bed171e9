package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	backlogService "github.com/reshetovitsme/yt-backlog/internal/modules/backlog/service"
	channelDomain "github.com/reshetovitsme/yt-backlog/internal/modules/channel/domain"
	downloadService "github.com/reshetovitsme/yt-backlog/internal/modules/download/service"
	feedService "github.com/reshetovitsme/yt-backlog/internal/modules/feed/service"
	reportService "github.com/reshetovitsme/yt-backlog/internal/modules/report/service"
	sourceService "github.com/reshetovitsme/yt-backlog/internal/modules/source/service"
	"github.com/reshetovitsme/yt-backlog/internal/transport/ytdlp"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Handler runs parsed commands against the backlog services
type Handler struct {
	backlog  *backlogService.Service
	report   *reportService.Service
	source   *sourceService.Service
	download *downloadService.Service
	feed     *feedService.Service
	confirm  sourceService.Confirmer
	out      io.Writer
	logger   *slog.Logger
}

// NewHandler creates a new CLI handler. Reports and listings go to out.
func NewHandler(
	backlog *backlogService.Service,
	report *reportService.Service,
	source *sourceService.Service,
	download *downloadService.Service,
	feed *feedService.Service,
	confirm sourceService.Confirmer,
	out io.Writer,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		backlog:  backlog,
		report:   report,
		source:   source,
		download: download,
		feed:     feed,
		confirm:  confirm,
		out:      out,
		logger:   logger,
	}
}

// Run executes cmd
func (h *Handler) Run(ctx context.Context, cmd *Command) error {
	h.logger.Debug("Running command", "command", cmd.String())

	switch cmd.Action {
	case ActionHelp:
		PrintHelp(h.out)
		return nil
	case ActionLoad:
		return h.load(ctx)
	case ActionTime:
		return h.time(ctx, cmd.Channel)
	case ActionClean:
		return h.clean(ctx)
	case ActionDownload:
		return h.downloadVideos(ctx, cmd)
	case ActionExport:
		_, err := h.feed.Export(ctx, cmd.ExportPath)
		return err
	case ActionList:
		return h.list(ctx, cmd.Channel)
	case ActionSetCategory:
		return h.backlog.SetCategory(ctx, cmd.Channel, cmd.Category)
	default:
		return oops.With("action", int(cmd.Action)).Errorf("unknown action")
	}
}

func (h *Handler) load(ctx context.Context) error {
	if err := h.source.FetchMetadata(ctx); err != nil {
		if !errors.Is(err, ytdlp.ErrYtdlpFailed) {
			return err
		}
		h.logger.Warn("Metadata fetch reported errors, loading what was fetched", "error", err)
	}

	result, err := h.source.LoadFile(ctx)
	if err != nil {
		return err
	}

	for _, e := range result.Errors {
		h.logger.Debug("Record skipped", "error", e)
	}
	h.logger.Info("Load completed",
		"added", result.Added, "duplicates", result.Duplicates, "skipped", result.Skipped)
	return nil
}

func (h *Handler) time(ctx context.Context, channel string) error {
	if channel == "" {
		_, err := h.report.ReportAll(ctx, h.out)
		return err
	}
	_, err := h.report.ReportChannel(ctx, h.out, channel)
	return err
}

func (h *Handler) clean(ctx context.Context) error {
	if _, err := h.backlog.Cleanup(ctx); err != nil {
		return err
	}
	if _, err := h.source.Purge(ctx, h.confirm); err != nil {
		return err
	}
	return nil
}

func (h *Handler) downloadVideos(ctx context.Context, cmd *Command) error {
	var (
		result downloadService.Result
		err    error
	)
	if cmd.Channel == "" {
		result, err = h.download.DownloadAll(ctx, cmd.DownloadOptions())
	} else {
		result, err = h.download.DownloadChannel(ctx, cmd.Channel, cmd.DownloadOptions())
	}
	if err != nil {
		return err
	}

	if result.Failed > 0 {
		h.logger.Warn("Some downloads failed", "failed", result.Failed)
	}
	return nil
}

func (h *Handler) list(ctx context.Context, channel string) error {
	summaries, err := h.backlog.Summaries(ctx)
	if err != nil {
		return err
	}
	if channel != "" {
		summaries = lo.Filter(summaries, func(s channelDomain.Summary, _ int) bool {
			return s.Channel.Name == channel
		})
	}

	for _, s := range summaries {
		name := s.Channel.Name
		if s.Channel.Category != "" {
			name = fmt.Sprintf("%s [%s]", name, s.Channel.Category)
		}
		if _, err := fmt.Fprintf(h.out, "%s: %d videos, %d pending, %d downloaded\n",
			name, s.Total, s.Pending, s.Downloaded); err != nil {
			return oops.Wrap(err)
		}
	}
	return nil
}
