package domain

// Video is a single downloadable item in the backlog. Link is the unique key.
type Video struct {
	ID           int64     `json:"id"`
	ChannelID    int64     `json:"channel_id"`
	ChannelName  string    `json:"channel_name"`
	Title        string    `json:"title"`
	Duration     ClockTime `json:"duration"`
	Link         string    `json:"link"`
	IsDownloaded bool      `json:"is_downloaded"`
}

// Status derives the lifecycle state from the downloaded flag. Purged videos
// no longer exist, so there is no value for them.
func (v *Video) Status() Status {
	if v.IsDownloaded {
		return StatusDownloaded
	}
	return StatusPending
}
