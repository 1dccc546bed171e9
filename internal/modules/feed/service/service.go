package service

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"log/slog"
	"time"

	"github.com/google/renameio/v2"
	"github.com/gorilla/feeds"
	backlogService "github.com/reshetovitsme/yt-backlog/internal/modules/backlog/service"
	"github.com/reshetovitsme/yt-backlog/internal/modules/feed/domain"
	videoDomain "github.com/reshetovitsme/yt-backlog/internal/modules/video/domain"
	"github.com/samber/oops"
)

// Service handles RSS feed generation
type Service struct {
	backlog *backlogService.Service
	config  domain.FeedConfig
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a new feed service
func New(backlog *backlogService.Service, cfg domain.FeedConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backlog: backlog,
		config:  cfg,
		now:     time.Now,
		logger:  logger,
	}
}

// GenerateFeed builds a feed with one item per pending video, channels in
// insertion order.
func (s *Service) GenerateFeed(ctx context.Context) (*feeds.Feed, error) {
	channels, err := s.backlog.GetChannels(ctx)
	if err != nil {
		return nil, oops.With("context", "failed to list channels").Wrap(err)
	}

	now := s.now()

	feed := &feeds.Feed{
		Title:       s.config.Title,
		Link:        &feeds.Link{Href: s.config.Link},
		Description: "Videos waiting to be downloaded",
		Created:     now,
		Updated:     now,
	}

	for _, ch := range channels {
		videos, err := s.backlog.GetVideos(ctx, ch.Name)
		if err != nil {
			return nil, oops.With("channel", ch.Name, "context", "failed to get videos").Wrap(err)
		}
		for _, v := range videos {
			if v.Status() != videoDomain.StatusPending {
				continue
			}
			feed.Items = append(feed.Items, videoToFeedItem(v, ch.Category, now))
		}
	}

	return feed, nil
}

// Export writes the RSS rendering of GenerateFeed to path, replacing any
// previous file in one step.
func (s *Service) Export(ctx context.Context, path string) (int, error) {
	feed, err := s.GenerateFeed(ctx)
	if err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := feed.WriteRss(&buf); err != nil {
		return 0, oops.With("path", path, "context", "failed to render feed").Wrap(err)
	}

	if err := renameio.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return 0, oops.With("path", path, "context", "failed to write feed").Wrap(err)
	}

	s.logger.Info("Feed exported", "path", path, "items", len(feed.Items))
	return len(feed.Items), nil
}

func videoToFeedItem(v *videoDomain.Video, category string, created time.Time) *feeds.Item {
	description := fmt.Sprintf("Duration: %s", v.Duration)
	if category != "" {
		description += fmt.Sprintf("\nCategory: %s", category)
	}

	content := fmt.Sprintf("<p><strong>%s</strong></p><p>%s</p><p>%s</p>",
		html.EscapeString(v.Title), html.EscapeString(v.ChannelName), html.EscapeString(description))

	return &feeds.Item{
		Title:       v.Title,
		Link:        &feeds.Link{Href: v.Link},
		Description: description,
		Content:     content,
		Author:      &feeds.Author{Name: v.ChannelName},
		Created:     created,
		Id:          v.Link,
	}
}
