package repository

import (
	"context"

	channelDomain "github.com/reshetovitsme/yt-backlog/internal/modules/channel/domain"
	videoDomain "github.com/reshetovitsme/yt-backlog/internal/modules/video/domain"
)

// Tx is the set of channel and video operations that can run either on
// their own or inside Repository.Atomic.
//
// Inserts of an existing key return ErrDuplicateChannel or ErrDuplicateVideo
// and leave the stored row untouched. Lookups and updates of a missing key
// return ErrChannelNotFound or ErrVideoNotFound.
type Tx interface {
	SaveChannel(ctx context.Context, channel *channelDomain.Channel) error
	GetChannel(ctx context.Context, name string) (*channelDomain.Channel, error)
	GetAllChannels(ctx context.Context) ([]*channelDomain.Channel, error)
	UpdateCategory(ctx context.Context, name, category string) error
	DeleteChannel(ctx context.Context, name string) error

	SaveVideo(ctx context.Context, video *videoDomain.Video) error
	GetVideo(ctx context.Context, link string) (*videoDomain.Video, error)
	GetVideosByChannel(ctx context.Context, channelName string) ([]*videoDomain.Video, error)
	GetDownloadedVideos(ctx context.Context) ([]*videoDomain.Video, error)
	MarkDownloaded(ctx context.Context, link string) error
	DeleteVideo(ctx context.Context, link string) error
	CountVideos(ctx context.Context, channelName string) (int, error)
}

// Repository defines the interface for backlog persistence.
// Each Tx call outside Atomic commits on its own.
type Repository interface {
	Tx

	// Atomic runs fn in a single transaction. Nothing fn did is kept if it
	// returns an error.
	Atomic(ctx context.Context, fn func(tx Tx) error) error

	Close() error
}
