package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	backlogService "github.com/reshetovitsme/yt-backlog/internal/modules/backlog/service"
	videoDomain "github.com/reshetovitsme/yt-backlog/internal/modules/video/domain"
	"github.com/samber/oops"
)

// Service prints watch-time reports
type Service struct {
	backlog *backlogService.Service
	logger  *slog.Logger
}

// New creates a new report service
func New(backlog *backlogService.Service, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		backlog: backlog,
		logger:  logger,
	}
}

// ReportAll writes one line per channel followed by the backlog total, and
// returns the total.
func (s *Service) ReportAll(ctx context.Context, w io.Writer) (videoDomain.Span, error) {
	channels, err := s.backlog.GetChannels(ctx)
	if err != nil {
		return videoDomain.Span{}, err
	}

	var total videoDomain.Span
	for _, ch := range channels {
		span, err := s.backlog.CumulativeDuration(ctx, ch.Name)
		if err != nil {
			return videoDomain.Span{}, err
		}
		if err := writeLine(w, ch.Name, span); err != nil {
			return videoDomain.Span{}, err
		}
		total = total.Merge(span)
	}

	if err := writeLine(w, "Total", total); err != nil {
		return videoDomain.Span{}, err
	}
	return total, nil
}

// ReportChannel writes the line for a single channel. Nothing is written for
// an unknown channel.
func (s *Service) ReportChannel(ctx context.Context, w io.Writer, name string) (videoDomain.Span, error) {
	_, ok, err := s.backlog.GetCategory(ctx, name)
	if err != nil {
		return videoDomain.Span{}, err
	}
	if !ok {
		s.logger.Warn("Channel not found, nothing to report", "channel", name, "reason", "not_found")
		return videoDomain.Span{}, nil
	}

	span, err := s.backlog.CumulativeDuration(ctx, name)
	if err != nil {
		return videoDomain.Span{}, err
	}
	return span, writeLine(w, name, span)
}

func writeLine(w io.Writer, name string, span videoDomain.Span) error {
	if _, err := fmt.Fprintf(w, "%s: %s\n", name, span); err != nil {
		return oops.With("context", "failed to write report").Wrap(err)
	}
	return nil
}
