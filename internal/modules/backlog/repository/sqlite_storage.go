package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	channelDomain "github.com/reshetovitsme/yt-backlog/internal/modules/channel/domain"
	videoDomain "github.com/reshetovitsme/yt-backlog/internal/modules/video/domain"
	apperrors "github.com/reshetovitsme/yt-backlog/internal/shared/errors"
	"github.com/reshetovitsme/yt-backlog/internal/shared/sqlite"
	"github.com/samber/oops"
)

const schema = `
CREATE TABLE IF NOT EXISTS channels (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL UNIQUE,
	category TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS videos (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	duration TEXT NOT NULL,
	link TEXT NOT NULL UNIQUE,
	is_downloaded INTEGER NOT NULL DEFAULT 0,
	channel_id INTEGER NOT NULL REFERENCES channels(id)
);

CREATE INDEX IF NOT EXISTS idx_videos_channel_id ON videos(channel_id);
`

const videoColumns = `v.id, v.channel_id, c.name, v.title, v.duration, v.link, v.is_downloaded`

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteTx struct {
	q queryer
}

// SQLiteStorage implements Repository on a single SQLite file
type SQLiteStorage struct {
	sqliteTx
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the backlog database at dbPath
func NewSQLiteStorage(dbPath string) (Repository, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, oops.With("db_path", dbPath).Wrap(fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err))
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, oops.With("db_path", dbPath, "context", "failed to create schema").
			Wrap(fmt.Errorf("%w: %w", apperrors.ErrStoreUnavailable, err))
	}

	return &SQLiteStorage{sqliteTx: sqliteTx{q: db}, db: db}, nil
}

func (s *SQLiteStorage) Atomic(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.With("context", "failed to begin transaction").Wrap(err)
	}

	if err := fn(&sqliteTx{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return oops.With("rollback_error", rbErr.Error()).Wrap(err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return oops.With("context", "failed to commit transaction").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (t *sqliteTx) SaveChannel(ctx context.Context, channel *channelDomain.Channel) error {
	res, err := t.q.ExecContext(ctx,
		`INSERT INTO channels (name, category) VALUES (?, ?) ON CONFLICT(name) DO NOTHING`,
		channel.Name, channel.Category)
	if err != nil {
		return oops.With("channel", channel.Name, "context", "failed to insert channel").Wrap(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return oops.With("channel", channel.Name).Wrap(err)
	}
	if n == 0 {
		return oops.With("channel", channel.Name).Wrap(apperrors.ErrDuplicateChannel)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return oops.With("channel", channel.Name).Wrap(err)
	}
	channel.ID = id
	return nil
}

func (t *sqliteTx) GetChannel(ctx context.Context, name string) (*channelDomain.Channel, error) {
	var ch channelDomain.Channel
	err := t.q.QueryRowContext(ctx,
		`SELECT id, name, category FROM channels WHERE name = ?`, name).
		Scan(&ch.ID, &ch.Name, &ch.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.With("channel", name).Wrap(apperrors.ErrChannelNotFound)
	}
	if err != nil {
		return nil, oops.With("channel", name, "context", "failed to read channel").Wrap(err)
	}
	return &ch, nil
}

func (t *sqliteTx) GetAllChannels(ctx context.Context) ([]*channelDomain.Channel, error) {
	rows, err := t.q.QueryContext(ctx, `SELECT id, name, category FROM channels ORDER BY id`)
	if err != nil {
		return nil, oops.With("context", "failed to list channels").Wrap(err)
	}
	defer func() { _ = rows.Close() }()

	var channels []*channelDomain.Channel
	for rows.Next() {
		var ch channelDomain.Channel
		if err := rows.Scan(&ch.ID, &ch.Name, &ch.Category); err != nil {
			return nil, oops.With("context", "failed to scan channel").Wrap(err)
		}
		channels = append(channels, &ch)
	}
	return channels, rows.Err()
}

func (t *sqliteTx) UpdateCategory(ctx context.Context, name, category string) error {
	res, err := t.q.ExecContext(ctx, `UPDATE channels SET category = ? WHERE name = ?`, category, name)
	if err != nil {
		return oops.With("channel", name, "context", "failed to update category").Wrap(err)
	}
	return requireAffected(res, oops.With("channel", name).Wrap(apperrors.ErrChannelNotFound))
}

func (t *sqliteTx) DeleteChannel(ctx context.Context, name string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM channels WHERE name = ?`, name)
	if err != nil {
		return oops.With("channel", name, "context", "failed to delete channel").Wrap(err)
	}
	return requireAffected(res, oops.With("channel", name).Wrap(apperrors.ErrChannelNotFound))
}

func (t *sqliteTx) SaveVideo(ctx context.Context, video *videoDomain.Video) error {
	ch, err := t.GetChannel(ctx, video.ChannelName)
	if err != nil {
		return err
	}

	res, err := t.q.ExecContext(ctx,
		`INSERT INTO videos (title, duration, link, is_downloaded, channel_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(link) DO NOTHING`,
		video.Title, video.Duration.String(), video.Link, video.IsDownloaded, ch.ID)
	if err != nil {
		return oops.With("link", video.Link, "context", "failed to insert video").Wrap(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return oops.With("link", video.Link).Wrap(err)
	}
	if n == 0 {
		return oops.With("link", video.Link).Wrap(apperrors.ErrDuplicateVideo)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return oops.With("link", video.Link).Wrap(err)
	}
	video.ID = id
	video.ChannelID = ch.ID
	return nil
}

func (t *sqliteTx) GetVideo(ctx context.Context, link string) (*videoDomain.Video, error) {
	row := t.q.QueryRowContext(ctx,
		`SELECT `+videoColumns+` FROM videos v JOIN channels c ON c.id = v.channel_id WHERE v.link = ?`, link)

	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.With("link", link).Wrap(apperrors.ErrVideoNotFound)
	}
	if err != nil {
		return nil, oops.With("link", link, "context", "failed to read video").Wrap(err)
	}
	return video, nil
}

func (t *sqliteTx) GetVideosByChannel(ctx context.Context, channelName string) ([]*videoDomain.Video, error) {
	return t.queryVideos(ctx,
		`SELECT `+videoColumns+` FROM videos v JOIN channels c ON c.id = v.channel_id WHERE c.name = ? ORDER BY v.id`,
		channelName)
}

func (t *sqliteTx) GetDownloadedVideos(ctx context.Context) ([]*videoDomain.Video, error) {
	return t.queryVideos(ctx,
		`SELECT `+videoColumns+` FROM videos v JOIN channels c ON c.id = v.channel_id WHERE v.is_downloaded = 1 ORDER BY v.id`)
}

func (t *sqliteTx) MarkDownloaded(ctx context.Context, link string) error {
	res, err := t.q.ExecContext(ctx, `UPDATE videos SET is_downloaded = 1 WHERE link = ?`, link)
	if err != nil {
		return oops.With("link", link, "context", "failed to mark video downloaded").Wrap(err)
	}
	return requireAffected(res, oops.With("link", link).Wrap(apperrors.ErrVideoNotFound))
}

func (t *sqliteTx) DeleteVideo(ctx context.Context, link string) error {
	res, err := t.q.ExecContext(ctx, `DELETE FROM videos WHERE link = ?`, link)
	if err != nil {
		return oops.With("link", link, "context", "failed to delete video").Wrap(err)
	}
	return requireAffected(res, oops.With("link", link).Wrap(apperrors.ErrVideoNotFound))
}

func (t *sqliteTx) CountVideos(ctx context.Context, channelName string) (int, error) {
	var n int
	err := t.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM videos v JOIN channels c ON c.id = v.channel_id WHERE c.name = ?`, channelName).
		Scan(&n)
	if err != nil {
		return 0, oops.With("channel", channelName, "context", "failed to count videos").Wrap(err)
	}
	return n, nil
}

func (t *sqliteTx) queryVideos(ctx context.Context, query string, args ...any) ([]*videoDomain.Video, error) {
	rows, err := t.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, oops.With("context", "failed to list videos").Wrap(err)
	}
	defer func() { _ = rows.Close() }()

	videos := []*videoDomain.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, oops.With("context", "failed to scan video").Wrap(err)
		}
		videos = append(videos, video)
	}
	return videos, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*videoDomain.Video, error) {
	var (
		v        videoDomain.Video
		duration string
	)
	if err := row.Scan(&v.ID, &v.ChannelID, &v.ChannelName, &v.Title, &duration, &v.Link, &v.IsDownloaded); err != nil {
		return nil, err
	}

	d, err := videoDomain.ParseClockTime(duration)
	if err != nil {
		return nil, oops.With("link", v.Link).Wrap(err)
	}
	v.Duration = d
	return &v, nil
}

func requireAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return oops.Wrap(err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
