package domain

// Options tunes a single download run.
type Options struct {
	// Subtitles fetches subtitle tracks alongside the media.
	Subtitles bool
	// RateLimited caps the download bandwidth.
	RateLimited bool
}

// DefaultOptions returns subtitles on, no rate limit.
func DefaultOptions() Options {
	return Options{Subtitles: true}
}
