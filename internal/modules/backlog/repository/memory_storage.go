package repository

import (
	"context"
	"maps"
	"slices"
	"sync"

	channelDomain "github.com/reshetovitsme/yt-backlog/internal/modules/channel/domain"
	videoDomain "github.com/reshetovitsme/yt-backlog/internal/modules/video/domain"
	apperrors "github.com/reshetovitsme/yt-backlog/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// memoryData holds the tables keyed by their unique identifiers, plus the
// channel id -> owned video links index.
type memoryData struct {
	nextChannelID   int64
	nextVideoID     int64
	channels        map[string]*channelDomain.Channel
	videos          map[string]*videoDomain.Video
	videosByChannel map[int64][]string
}

func newMemoryData() *memoryData {
	return &memoryData{
		channels:        make(map[string]*channelDomain.Channel),
		videos:          make(map[string]*videoDomain.Video),
		videosByChannel: make(map[int64][]string),
	}
}

func (d *memoryData) clone() *memoryData {
	c := &memoryData{
		nextChannelID:   d.nextChannelID,
		nextVideoID:     d.nextVideoID,
		channels:        make(map[string]*channelDomain.Channel, len(d.channels)),
		videos:          make(map[string]*videoDomain.Video, len(d.videos)),
		videosByChannel: make(map[int64][]string, len(d.videosByChannel)),
	}
	for name, ch := range d.channels {
		cp := *ch
		c.channels[name] = &cp
	}
	for link, v := range d.videos {
		cp := *v
		c.videos[link] = &cp
	}
	for id, links := range d.videosByChannel {
		c.videosByChannel[id] = slices.Clone(links)
	}
	return c
}

// MemoryStorage implements Repository in process memory. Nothing survives
// Close.
type MemoryStorage struct {
	mu   sync.RWMutex
	data *memoryData
}

// NewMemoryStorage creates an empty in-memory backlog repository
func NewMemoryStorage() Repository {
	return &MemoryStorage{data: newMemoryData()}
}

func (s *MemoryStorage) read(fn func(tx *memoryTx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memoryTx{d: s.data})
}

func (s *MemoryStorage) write(fn func(tx *memoryTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&memoryTx{d: s.data})
}

// Atomic runs fn against a copy of the tables and swaps the copy in only when
// fn succeeds.
func (s *MemoryStorage) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return oops.Wrap(err)
	}

	draft := s.data.clone()
	if err := fn(&memoryTx{d: draft}); err != nil {
		return err
	}
	s.data = draft
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

func (s *MemoryStorage) SaveChannel(ctx context.Context, channel *channelDomain.Channel) error {
	return s.write(func(tx *memoryTx) error { return tx.SaveChannel(ctx, channel) })
}

func (s *MemoryStorage) GetChannel(ctx context.Context, name string) (ch *channelDomain.Channel, err error) {
	err = s.read(func(tx *memoryTx) error {
		ch, err = tx.GetChannel(ctx, name)
		return err
	})
	return ch, err
}

func (s *MemoryStorage) GetAllChannels(ctx context.Context) (channels []*channelDomain.Channel, err error) {
	err = s.read(func(tx *memoryTx) error {
		channels, err = tx.GetAllChannels(ctx)
		return err
	})
	return channels, err
}

func (s *MemoryStorage) UpdateCategory(ctx context.Context, name, category string) error {
	return s.write(func(tx *memoryTx) error { return tx.UpdateCategory(ctx, name, category) })
}

func (s *MemoryStorage) DeleteChannel(ctx context.Context, name string) error {
	return s.write(func(tx *memoryTx) error { return tx.DeleteChannel(ctx, name) })
}

func (s *MemoryStorage) SaveVideo(ctx context.Context, video *videoDomain.Video) error {
	return s.write(func(tx *memoryTx) error { return tx.SaveVideo(ctx, video) })
}

func (s *MemoryStorage) GetVideo(ctx context.Context, link string) (v *videoDomain.Video, err error) {
	err = s.read(func(tx *memoryTx) error {
		v, err = tx.GetVideo(ctx, link)
		return err
	})
	return v, err
}

func (s *MemoryStorage) GetVideosByChannel(ctx context.Context, channelName string) (videos []*videoDomain.Video, err error) {
	err = s.read(func(tx *memoryTx) error {
		videos, err = tx.GetVideosByChannel(ctx, channelName)
		return err
	})
	return videos, err
}

func (s *MemoryStorage) GetDownloadedVideos(ctx context.Context) (videos []*videoDomain.Video, err error) {
	err = s.read(func(tx *memoryTx) error {
		videos, err = tx.GetDownloadedVideos(ctx)
		return err
	})
	return videos, err
}

func (s *MemoryStorage) MarkDownloaded(ctx context.Context, link string) error {
	return s.write(func(tx *memoryTx) error { return tx.MarkDownloaded(ctx, link) })
}

func (s *MemoryStorage) DeleteVideo(ctx context.Context, link string) error {
	return s.write(func(tx *memoryTx) error { return tx.DeleteVideo(ctx, link) })
}

func (s *MemoryStorage) CountVideos(ctx context.Context, channelName string) (n int, err error) {
	err = s.read(func(tx *memoryTx) error {
		n, err = tx.CountVideos(ctx, channelName)
		return err
	})
	return n, err
}

// memoryTx operates on one memoryData without locking; the caller holds the
// lock. Every mutation validates before it writes, so a failed call leaves
// the tables unchanged.
type memoryTx struct {
	d *memoryData
}

func (t *memoryTx) SaveChannel(_ context.Context, channel *channelDomain.Channel) error {
	if _, exists := t.d.channels[channel.Name]; exists {
		return oops.With("channel", channel.Name).Wrap(apperrors.ErrDuplicateChannel)
	}

	t.d.nextChannelID++
	channel.ID = t.d.nextChannelID
	cp := *channel
	t.d.channels[channel.Name] = &cp
	return nil
}

func (t *memoryTx) GetChannel(_ context.Context, name string) (*channelDomain.Channel, error) {
	ch, exists := t.d.channels[name]
	if !exists {
		return nil, oops.With("channel", name).Wrap(apperrors.ErrChannelNotFound)
	}
	cp := *ch
	return &cp, nil
}

func (t *memoryTx) GetAllChannels(_ context.Context) ([]*channelDomain.Channel, error) {
	channels := lo.Map(slices.Collect(maps.Values(t.d.channels)), func(ch *channelDomain.Channel, _ int) *channelDomain.Channel {
		cp := *ch
		return &cp
	})
	slices.SortFunc(channels, func(a, b *channelDomain.Channel) int { return int(a.ID - b.ID) })
	return channels, nil
}

func (t *memoryTx) UpdateCategory(_ context.Context, name, category string) error {
	ch, exists := t.d.channels[name]
	if !exists {
		return oops.With("channel", name).Wrap(apperrors.ErrChannelNotFound)
	}
	ch.Category = category
	return nil
}

func (t *memoryTx) DeleteChannel(_ context.Context, name string) error {
	ch, exists := t.d.channels[name]
	if !exists {
		return oops.With("channel", name).Wrap(apperrors.ErrChannelNotFound)
	}
	if len(t.d.videosByChannel[ch.ID]) > 0 {
		return oops.With("channel", name, "videos", len(t.d.videosByChannel[ch.ID])).
			Errorf("channel still owns videos")
	}

	delete(t.d.channels, name)
	delete(t.d.videosByChannel, ch.ID)
	return nil
}

func (t *memoryTx) SaveVideo(_ context.Context, video *videoDomain.Video) error {
	ch, exists := t.d.channels[video.ChannelName]
	if !exists {
		return oops.With("channel", video.ChannelName).Wrap(apperrors.ErrChannelNotFound)
	}
	if _, exists := t.d.videos[video.Link]; exists {
		return oops.With("link", video.Link).Wrap(apperrors.ErrDuplicateVideo)
	}

	t.d.nextVideoID++
	video.ID = t.d.nextVideoID
	video.ChannelID = ch.ID
	cp := *video
	t.d.videos[video.Link] = &cp
	t.d.videosByChannel[ch.ID] = append(t.d.videosByChannel[ch.ID], video.Link)
	return nil
}

func (t *memoryTx) GetVideo(_ context.Context, link string) (*videoDomain.Video, error) {
	v, exists := t.d.videos[link]
	if !exists {
		return nil, oops.With("link", link).Wrap(apperrors.ErrVideoNotFound)
	}
	cp := *v
	return &cp, nil
}

func (t *memoryTx) GetVideosByChannel(_ context.Context, channelName string) ([]*videoDomain.Video, error) {
	ch, exists := t.d.channels[channelName]
	if !exists {
		return []*videoDomain.Video{}, nil
	}
	return lo.FilterMap(t.d.videosByChannel[ch.ID], func(link string, _ int) (*videoDomain.Video, bool) {
		v, ok := t.d.videos[link]
		if !ok {
			return nil, false
		}
		cp := *v
		return &cp, true
	}), nil
}

func (t *memoryTx) GetDownloadedVideos(_ context.Context) ([]*videoDomain.Video, error) {
	videos := lo.FilterMap(slices.Collect(maps.Values(t.d.videos)), func(v *videoDomain.Video, _ int) (*videoDomain.Video, bool) {
		if !v.IsDownloaded {
			return nil, false
		}
		cp := *v
		return &cp, true
	})
	slices.SortFunc(videos, func(a, b *videoDomain.Video) int { return int(a.ID - b.ID) })
	return videos, nil
}

func (t *memoryTx) MarkDownloaded(_ context.Context, link string) error {
	v, exists := t.d.videos[link]
	if !exists {
		return oops.With("link", link).Wrap(apperrors.ErrVideoNotFound)
	}
	v.IsDownloaded = true
	return nil
}

func (t *memoryTx) DeleteVideo(_ context.Context, link string) error {
	v, exists := t.d.videos[link]
	if !exists {
		return oops.With("link", link).Wrap(apperrors.ErrVideoNotFound)
	}

	delete(t.d.videos, link)
	t.d.videosByChannel[v.ChannelID] = slices.DeleteFunc(t.d.videosByChannel[v.ChannelID], func(l string) bool {
		return l == link
	})
	return nil
}

func (t *memoryTx) CountVideos(_ context.Context, channelName string) (int, error) {
	ch, exists := t.d.channels[channelName]
	if !exists {
		return 0, nil
	}
	return len(t.d.videosByChannel[ch.ID]), nil
}
