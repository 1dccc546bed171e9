package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/reshetovitsme/yt-backlog/internal/modules/backlog/repository"
	channelDomain "github.com/reshetovitsme/yt-backlog/internal/modules/channel/domain"
	videoDomain "github.com/reshetovitsme/yt-backlog/internal/modules/video/domain"
	apperrors "github.com/reshetovitsme/yt-backlog/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Log attribute values for conditions that are recovered locally.
const (
	reasonDuplicate = "duplicate"
	reasonNotFound  = "not_found"
)

// CleanupResult reports what a cleanup pass removed.
type CleanupResult struct {
	VideosPurged   int
	ChannelsPurged []string
}

// Service owns the backlog lifecycle: inserts that ignore duplicates,
// the downloaded transition, duration totals and cleanup.
type Service struct {
	repo   repository.Repository
	logger *slog.Logger
}

// New creates a new backlog service
func New(repo repository.Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// AddChannel creates the channel if it does not exist yet.
func (s *Service) AddChannel(ctx context.Context, name, category string) error {
	if strings.TrimSpace(name) == "" {
		return oops.Wrap(apperrors.ErrInvalidChannelName)
	}

	err := s.repo.SaveChannel(ctx, &channelDomain.Channel{Name: name, Category: category})
	switch {
	case errors.Is(err, apperrors.ErrDuplicateChannel):
		s.logger.Debug("Channel already exists, skipping insertion", "channel", name, "reason", reasonDuplicate)
		return nil
	case err != nil:
		return oops.With("channel", name, "context", "failed to add channel").Wrap(err)
	}

	s.logger.Debug("Channel added", "channel", name)
	return nil
}

// AddVideo inserts a video, creating its channel with an empty category when
// needed. A link that is already stored is left as it is and added is false.
// The channel is only created if the video is.
func (s *Service) AddVideo(ctx context.Context, channelName, title string, duration videoDomain.ClockTime, link string) (bool, error) {
	if strings.TrimSpace(channelName) == "" {
		return false, oops.With("link", link).Wrap(apperrors.ErrInvalidChannelName)
	}

	video := &videoDomain.Video{
		ChannelName: channelName,
		Title:       title,
		Duration:    duration,
		Link:        link,
	}

	createdChannel := false
	err := s.repo.Atomic(ctx, func(tx repository.Tx) error {
		if _, err := tx.GetChannel(ctx, channelName); errors.Is(err, apperrors.ErrChannelNotFound) {
			if err := tx.SaveChannel(ctx, &channelDomain.Channel{Name: channelName}); err != nil {
				return err
			}
			createdChannel = true
		} else if err != nil {
			return err
		}
		return tx.SaveVideo(ctx, video)
	})

	switch {
	case errors.Is(err, apperrors.ErrDuplicateVideo):
		s.logger.Debug("Video already exists, skipping insertion",
			"channel", channelName, "link", link, "reason", reasonDuplicate)
		return false, nil
	case err != nil:
		return false, oops.With("channel", channelName, "link", link, "context", "failed to add video").Wrap(err)
	}

	if createdChannel {
		s.logger.Debug("Channel did not exist, added before video", "channel", channelName)
	}
	s.logger.Debug("Video added", "channel", channelName, "title", title)
	return true, nil
}

// MarkDownloaded flags the video with the given link as downloaded. An unknown
// link is logged and ignored.
func (s *Service) MarkDownloaded(ctx context.Context, link string) error {
	video, err := s.repo.GetVideo(ctx, link)
	if errors.Is(err, apperrors.ErrVideoNotFound) {
		s.logger.Warn("Video not found, cannot mark downloaded", "link", link, "reason", reasonNotFound)
		return nil
	}
	if err != nil {
		return oops.With("link", link).Wrap(err)
	}

	if err := s.repo.MarkDownloaded(ctx, link); err != nil {
		return oops.With("link", link, "context", "failed to mark video downloaded").Wrap(err)
	}

	s.logger.Debug("Video marked as downloaded", "title", video.Title, "link", link)
	return nil
}

// GetChannels returns every channel in the backlog.
func (s *Service) GetChannels(ctx context.Context) ([]*channelDomain.Channel, error) {
	channels, err := s.repo.GetAllChannels(ctx)
	if err != nil {
		return nil, oops.With("context", "failed to list channels").Wrap(err)
	}
	return channels, nil
}

// GetVideos returns the videos of a channel, empty for an unknown channel.
func (s *Service) GetVideos(ctx context.Context, channelName string) ([]*videoDomain.Video, error) {
	videos, err := s.repo.GetVideosByChannel(ctx, channelName)
	if err != nil {
		return nil, oops.With("channel", channelName, "context", "failed to list videos").Wrap(err)
	}
	return videos, nil
}

// GetCategory returns the category of a channel and whether the channel exists.
func (s *Service) GetCategory(ctx context.Context, channelName string) (string, bool, error) {
	ch, err := s.repo.GetChannel(ctx, channelName)
	if errors.Is(err, apperrors.ErrChannelNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, oops.With("channel", channelName).Wrap(err)
	}
	return ch.Category, true, nil
}

// SetCategory replaces a channel's category. An unknown channel is logged and
// ignored.
func (s *Service) SetCategory(ctx context.Context, channelName, category string) error {
	err := s.repo.UpdateCategory(ctx, channelName, category)
	if errors.Is(err, apperrors.ErrChannelNotFound) {
		s.logger.Warn("Channel not found, category unchanged", "channel", channelName, "reason", reasonNotFound)
		return nil
	}
	if err != nil {
		return oops.With("channel", channelName, "context", "failed to set category").Wrap(err)
	}

	s.logger.Debug("Category set", "channel", channelName, "category", category)
	return nil
}

// CumulativeDuration sums the durations of a channel's videos, carrying
// overflow past 24h into days. Unknown or empty channels give a zero span.
func (s *Service) CumulativeDuration(ctx context.Context, channelName string) (videoDomain.Span, error) {
	videos, err := s.GetVideos(ctx, channelName)
	if err != nil {
		return videoDomain.Span{}, err
	}

	durations := lo.Map(videos, func(v *videoDomain.Video, _ int) videoDomain.ClockTime {
		return v.Duration
	})
	return videoDomain.SumDurations(durations), nil
}

// Summaries returns per-channel video counts.
func (s *Service) Summaries(ctx context.Context) ([]channelDomain.Summary, error) {
	channels, err := s.GetChannels(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]channelDomain.Summary, 0, len(channels))
	for _, ch := range channels {
		videos, err := s.GetVideos(ctx, ch.Name)
		if err != nil {
			return nil, err
		}
		downloaded := lo.CountBy(videos, func(v *videoDomain.Video) bool {
			return v.Status() == videoDomain.StatusDownloaded
		})
		summaries = append(summaries, channelDomain.Summary{
			Channel:    *ch,
			Total:      len(videos),
			Pending:    len(videos) - downloaded,
			Downloaded: downloaded,
		})
	}
	return summaries, nil
}

// Cleanup purges downloaded videos, then deletes every channel that lost a
// video in this pass and has none left. Both steps commit together or not at
// all. Channels that were already empty are left alone.
func (s *Service) Cleanup(ctx context.Context) (CleanupResult, error) {
	var result CleanupResult

	err := s.repo.Atomic(ctx, func(tx repository.Tx) error {
		result = CleanupResult{}

		downloaded, err := tx.GetDownloadedVideos(ctx)
		if err != nil {
			return err
		}

		var candidates []string
		for _, v := range downloaded {
			if err := tx.DeleteVideo(ctx, v.Link); err != nil {
				return err
			}
			result.VideosPurged++
			candidates = append(candidates, v.ChannelName)
			s.logger.Debug("Downloaded video deleted", "title", v.Title, "link", v.Link)
		}

		for _, name := range lo.Uniq(candidates) {
			remaining, err := tx.CountVideos(ctx, name)
			if err != nil {
				return err
			}
			if remaining > 0 {
				continue
			}
			if err := tx.DeleteChannel(ctx, name); err != nil {
				return err
			}
			result.ChannelsPurged = append(result.ChannelsPurged, name)
			s.logger.Debug("Channel deleted since it has no more videos", "channel", name)
		}
		return nil
	})
	if err != nil {
		return CleanupResult{}, oops.With("context", "cleanup failed").Wrap(err)
	}

	s.logger.Info("Cleanup completed", "videos_purged", result.VideosPurged, "channels_purged", len(result.ChannelsPurged))
	return result, nil
}
