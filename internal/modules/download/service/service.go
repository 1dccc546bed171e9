package service

import (
	"context"
	"log/slog"

	backlogService "github.com/reshetovitsme/yt-backlog/internal/modules/backlog/service"
	"github.com/reshetovitsme/yt-backlog/internal/modules/download/domain"
	videoDomain "github.com/reshetovitsme/yt-backlog/internal/modules/video/domain"
	"github.com/samber/oops"
)

// Downloader fetches the media behind a link. A nil error means the file is on
// disk.
type Downloader interface {
	Download(ctx context.Context, link string, opts domain.Options) error
}

// Result counts the outcome of a download run.
type Result struct {
	Downloaded int
	Failed     int
	Skipped    int
}

func (r *Result) add(other Result) {
	r.Downloaded += other.Downloaded
	r.Failed += other.Failed
	r.Skipped += other.Skipped
}

// Service downloads pending videos and records the ones that made it
type Service struct {
	backlog    *backlogService.Service
	downloader Downloader
	logger     *slog.Logger
}

// New creates a new download service
func New(backlog *backlogService.Service, downloader Downloader, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backlog:    backlog,
		downloader: downloader,
		logger:     logger,
	}
}

// DownloadAll downloads the pending videos of every channel.
func (s *Service) DownloadAll(ctx context.Context, opts domain.Options) (Result, error) {
	var total Result

	channels, err := s.backlog.GetChannels(ctx)
	if err != nil {
		return total, err
	}

	for _, ch := range channels {
		videos, err := s.backlog.GetVideos(ctx, ch.Name)
		if err != nil {
			return total, err
		}
		result, err := s.download(ctx, ch.Name, videos, opts)
		total.add(result)
		if err != nil {
			return total, err
		}
	}

	s.logger.Info("All download jobs completed",
		"downloaded", total.Downloaded, "failed", total.Failed, "skipped", total.Skipped)
	return total, nil
}

// DownloadChannel downloads the pending videos of one channel. An unknown
// channel is logged and yields an empty result.
func (s *Service) DownloadChannel(ctx context.Context, channelName string, opts domain.Options) (Result, error) {
	if _, exists, err := s.backlog.GetCategory(ctx, channelName); err != nil {
		return Result{}, err
	} else if !exists {
		s.logger.Warn("Channel not found, nothing to download", "channel", channelName, "reason", "not_found")
		return Result{}, nil
	}

	videos, err := s.backlog.GetVideos(ctx, channelName)
	if err != nil {
		return Result{}, err
	}

	result, err := s.download(ctx, channelName, videos, opts)
	if err != nil {
		return result, err
	}

	s.logger.Info("Channel download job completed", "channel", channelName,
		"downloaded", result.Downloaded, "failed", result.Failed, "skipped", result.Skipped)
	return result, nil
}

func (s *Service) download(ctx context.Context, channelName string, videos []*videoDomain.Video, opts domain.Options) (Result, error) {
	var result Result

	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return result, oops.With("channel", channelName).Wrap(err)
		}

		if v.Status() == videoDomain.StatusDownloaded {
			result.Skipped++
			continue
		}

		s.logger.Debug("Downloading video", "channel", channelName, "title", v.Title, "link", v.Link)
		if err := s.downloader.Download(ctx, v.Link, opts); err != nil {
			if ctx.Err() != nil {
				return result, oops.With("channel", channelName, "link", v.Link).Wrap(err)
			}
			result.Failed++
			s.logger.Error("Failed to download video", "channel", channelName, "link", v.Link, "error", err)
			continue
		}

		if err := s.backlog.MarkDownloaded(ctx, v.Link); err != nil {
			return result, err
		}
		result.Downloaded++
	}

	return result, nil
}
