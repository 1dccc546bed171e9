package domain

import (
	"strings"

	videoDomain "github.com/reshetovitsme/yt-backlog/internal/modules/video/domain"
	apperrors "github.com/reshetovitsme/yt-backlog/internal/shared/errors"
	"github.com/samber/oops"
)

// FieldSeparator splits the fields of a metadata record.
const FieldSeparator = "§"

// PrintTemplate makes the downloader emit one Record per video.
const PrintTemplate = "%(channel)s" + FieldSeparator +
	"%(title)s" + FieldSeparator +
	"%(duration>%H:%M:%S)s" + FieldSeparator +
	"%(webpage_url)s"

// Record is one line of downloader metadata output.
type Record struct {
	Channel  string
	Title    string
	Duration videoDomain.ClockTime
	Link     string
}

// ParseRecord parses "channel§title§HH:MM:SS§url". Titles containing the
// separator are kept whole: the first field is the channel and the last two
// are the duration and the link.
func ParseRecord(line string) (Record, error) {
	fields := strings.Split(strings.TrimSpace(line), FieldSeparator)
	if len(fields) < 4 {
		return Record{}, oops.With("fields", len(fields), "line", line).Wrap(apperrors.ErrMalformedRecord)
	}

	n := len(fields)
	rec := Record{
		Channel: strings.TrimSpace(fields[0]),
		Title:   strings.Join(fields[1:n-2], FieldSeparator),
		Link:    strings.TrimSpace(fields[n-1]),
	}
	if rec.Channel == "" || rec.Link == "" {
		return Record{}, oops.With("line", line).Wrap(apperrors.ErrMalformedRecord)
	}

	duration, err := videoDomain.ParseClockTime(strings.TrimSpace(fields[n-2]))
	if err != nil {
		return Record{}, oops.With("line", line, "cause", err.Error()).Wrap(apperrors.ErrMalformedRecord)
	}
	rec.Duration = duration
	return rec, nil
}
