package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/reshetovitsme/yt-backlog/internal/modules/backlog/repository"
	videoDomain "github.com/reshetovitsme/yt-backlog/internal/modules/video/domain"
	apperrors "github.com/reshetovitsme/yt-backlog/internal/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSQLiteService(t *testing.T) (*Service, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "channels.db")
	repo, err := repository.NewSQLiteStorage(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return New(repo, discardLogger()), path
}

func forEachBackend(t *testing.T, fn func(t *testing.T, svc *Service)) {
	t.Run("sqlite", func(t *testing.T) {
		svc, _ := newSQLiteService(t)
		fn(t, svc)
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, New(repository.NewMemoryStorage(), discardLogger()))
	})
}

func clock(s string) videoDomain.ClockTime {
	return videoDomain.MustParseClockTime(s)
}

func TestAddChannel_Idempotent(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()

		require.NoError(t, svc.AddChannel(ctx, "Gophers", "talks"))
		require.NoError(t, svc.AddChannel(ctx, "Gophers", "other"))
		require.NoError(t, svc.AddChannel(ctx, "gophers", ""))

		channels, err := svc.GetChannels(ctx)
		require.NoError(t, err)
		require.Len(t, channels, 2)

		category, ok, err := svc.GetCategory(ctx, "Gophers")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "talks", category)
	})
}

func TestAddChannel_EmptyName(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		err := svc.AddChannel(context.Background(), "  ", "")
		assert.ErrorIs(t, err, apperrors.ErrInvalidChannelName)
	})
}

func TestAddVideo_DuplicateKeepsFirst(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()

		added, err := svc.AddVideo(ctx, "Gophers", "First title", clock("00:10:00"), "https://example.com/a")
		require.NoError(t, err)
		assert.True(t, added)

		added, err = svc.AddVideo(ctx, "Gophers", "Second title", clock("00:20:00"), "https://example.com/a")
		require.NoError(t, err)
		assert.False(t, added)

		videos, err := svc.GetVideos(ctx, "Gophers")
		require.NoError(t, err)
		require.Len(t, videos, 1)
		assert.Equal(t, "First title", videos[0].Title)
		assert.Equal(t, "00:10:00", videos[0].Duration.String())
	})
}

func TestAddVideo_AutoCreatesChannel(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()

		_, err := svc.AddVideo(ctx, "Gophers", "Concurrency", clock("00:31:10"), "https://example.com/a")
		require.NoError(t, err)

		channels, err := svc.GetChannels(ctx)
		require.NoError(t, err)
		require.Len(t, channels, 1)
		assert.Equal(t, "Gophers", channels[0].Name)
		assert.Equal(t, "", channels[0].Category)

		videos, err := svc.GetVideos(ctx, "Gophers")
		require.NoError(t, err)
		require.Len(t, videos, 1)
		assert.Equal(t, channels[0].ID, videos[0].ChannelID)
	})
}

func TestAddVideo_DuplicateLinkDoesNotCreateChannel(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()

		_, err := svc.AddVideo(ctx, "Gophers", "Concurrency", clock("00:31:10"), "https://example.com/a")
		require.NoError(t, err)

		added, err := svc.AddVideo(ctx, "Mirror", "Concurrency (reupload)", clock("00:31:10"), "https://example.com/a")
		require.NoError(t, err)
		assert.False(t, added)

		_, ok, err := svc.GetCategory(ctx, "Mirror")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestMarkDownloaded(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		_, err := svc.AddVideo(ctx, "Gophers", "Concurrency", clock("00:31:10"), "https://example.com/a")
		require.NoError(t, err)

		require.NoError(t, svc.MarkDownloaded(ctx, "https://example.com/a"))
		require.NoError(t, svc.MarkDownloaded(ctx, "https://example.com/unknown"))

		videos, err := svc.GetVideos(ctx, "Gophers")
		require.NoError(t, err)
		require.Len(t, videos, 1)
		assert.True(t, videos[0].IsDownloaded)
		assert.Equal(t, videoDomain.StatusDownloaded, videos[0].Status())
	})
}

func TestMarkDownloaded_UnknownLinkLeavesFileUntouched(t *testing.T) {
	svc, path := newSQLiteService(t)
	ctx := context.Background()

	_, err := svc.AddVideo(ctx, "Gophers", "Concurrency", clock("00:31:10"), "https://example.com/a")
	require.NoError(t, err)

	before, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, svc.MarkDownloaded(ctx, "https://example.com/unknown"))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(before, after))
}

func TestMarkDownloaded_LogsNotFound(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	svc := New(repository.NewMemoryStorage(), logger)

	require.NoError(t, svc.MarkDownloaded(context.Background(), "https://example.com/unknown"))
	assert.Contains(t, buf.String(), "reason=not_found")

	_, err := svc.AddVideo(context.Background(), "Gophers", "A", clock("00:01:00"), "https://example.com/a")
	require.NoError(t, err)
	_, err = svc.AddVideo(context.Background(), "Gophers", "A", clock("00:01:00"), "https://example.com/a")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "reason=duplicate")
}

func TestSetCategory(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		require.NoError(t, svc.AddChannel(ctx, "Gophers", ""))

		require.NoError(t, svc.SetCategory(ctx, "Gophers", "programming"))
		category, ok, err := svc.GetCategory(ctx, "Gophers")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "programming", category)

		require.NoError(t, svc.SetCategory(ctx, "Nobody", "anything"))
		_, ok, err = svc.GetCategory(ctx, "Nobody")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestCumulativeDuration(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		for i, d := range []string{"01:30:00", "23:00:00", "01:00:00"} {
			_, err := svc.AddVideo(ctx, "Gophers", "talk", clock(d), "https://example.com/"+strings.Repeat("x", i+1))
			require.NoError(t, err)
		}

		span, err := svc.CumulativeDuration(ctx, "Gophers")
		require.NoError(t, err)
		assert.Equal(t, 1, span.Days)
		assert.Equal(t, "01:30:00", span.Clock.String())
	})
}

func TestCumulativeDuration_Empty(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		require.NoError(t, svc.AddChannel(ctx, "Empty", ""))

		span, err := svc.CumulativeDuration(ctx, "Empty")
		require.NoError(t, err)
		assert.Equal(t, videoDomain.Span{}, span)

		span, err = svc.CumulativeDuration(ctx, "Unknown")
		require.NoError(t, err)
		assert.True(t, span.IsZero())
	})
}

func TestCleanup_ChannelWithPendingVideoSurvives(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		_, err := svc.AddVideo(ctx, "Gophers", "Watched", clock("00:10:00"), "https://example.com/a")
		require.NoError(t, err)
		_, err = svc.AddVideo(ctx, "Gophers", "Pending", clock("00:20:00"), "https://example.com/b")
		require.NoError(t, err)
		require.NoError(t, svc.MarkDownloaded(ctx, "https://example.com/a"))

		result, err := svc.Cleanup(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.VideosPurged)
		assert.Empty(t, result.ChannelsPurged)

		videos, err := svc.GetVideos(ctx, "Gophers")
		require.NoError(t, err)
		require.Len(t, videos, 1)
		assert.Equal(t, "Pending", videos[0].Title)
	})
}

func TestCleanup_FullyDownloadedChannelRemoved(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		_, err := svc.AddVideo(ctx, "Gophers", "One", clock("00:10:00"), "https://example.com/a")
		require.NoError(t, err)
		_, err = svc.AddVideo(ctx, "Gophers", "Two", clock("00:20:00"), "https://example.com/b")
		require.NoError(t, err)
		_, err = svc.AddVideo(ctx, "Rustaceans", "Three", clock("00:30:00"), "https://example.com/c")
		require.NoError(t, err)
		require.NoError(t, svc.MarkDownloaded(ctx, "https://example.com/a"))
		require.NoError(t, svc.MarkDownloaded(ctx, "https://example.com/b"))

		result, err := svc.Cleanup(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, result.VideosPurged)
		assert.Equal(t, []string{"Gophers"}, result.ChannelsPurged)

		channels, err := svc.GetChannels(ctx)
		require.NoError(t, err)
		require.Len(t, channels, 1)
		assert.Equal(t, "Rustaceans", channels[0].Name)
	})
}

func TestCleanup_AlreadyEmptyChannelIsNotRevisited(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		require.NoError(t, svc.AddChannel(ctx, "Empty", "none yet"))

		result, err := svc.Cleanup(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.VideosPurged)

		_, ok, err := svc.GetCategory(ctx, "Empty")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestCleanup_NeverPurgesPending(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		_, err := svc.AddVideo(ctx, "Gophers", "Pending", clock("00:10:00"), "https://example.com/a")
		require.NoError(t, err)

		result, err := svc.Cleanup(ctx)
		require.NoError(t, err)
		assert.Zero(t, result.VideosPurged)

		videos, err := svc.GetVideos(ctx, "Gophers")
		require.NoError(t, err)
		assert.Len(t, videos, 1)
	})
}

func TestSummaries(t *testing.T) {
	forEachBackend(t, func(t *testing.T, svc *Service) {
		ctx := context.Background()
		_, err := svc.AddVideo(ctx, "Gophers", "One", clock("00:10:00"), "https://example.com/a")
		require.NoError(t, err)
		_, err = svc.AddVideo(ctx, "Gophers", "Two", clock("00:20:00"), "https://example.com/b")
		require.NoError(t, err)
		require.NoError(t, svc.MarkDownloaded(ctx, "https://example.com/b"))

		summaries, err := svc.Summaries(ctx)
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "Gophers", summaries[0].Channel.Name)
		assert.Equal(t, 2, summaries[0].Total)
		assert.Equal(t, 1, summaries[0].Pending)
		assert.Equal(t, 1, summaries[0].Downloaded)
	})
}
