package errors

import "errors"

var (
	ErrChannelNotFound    = errors.New("channel not found")
	ErrVideoNotFound      = errors.New("video not found")
	ErrDuplicateChannel   = errors.New("channel already exists")
	ErrDuplicateVideo     = errors.New("video already exists")
	ErrInvalidChannelName = errors.New("channel name must not be empty")
	ErrMalformedRecord    = errors.New("malformed record")
	ErrStoreUnavailable   = errors.New("backlog store unavailable")
	ErrUsage              = errors.New("invalid usage")
)
